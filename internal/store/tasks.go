package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"projecthub-api/internal/models"
	"projecthub-api/internal/realtime"

	"gorm.io/gorm"
)

const tableTasks = "tasks"

// TaskFilter narrows a project's task list. Empty slices mean no filter.
type TaskFilter struct {
	Statuses   []models.TaskStatus
	Priorities []models.TaskPriority
	AssigneeID string
}

// TaskQuery pages through every task visible to a user.
type TaskQuery struct {
	Page       int
	Limit      int
	Ascending  bool
	AssigneeID string
}

// NewTask is the input of CreateTask.
type NewTask struct {
	ProjectID   string
	UserID      string
	Title       string
	Description string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	DueDate     *time.Time
	AssigneeID  *string
}

// TaskPatch holds the editable task fields; nil means unchanged. An empty
// AssigneeID unassigns the task and ClearDueDate removes the due date.
type TaskPatch struct {
	Title        *string
	Description  *string
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	DueDate      *time.Time
	ClearDueDate bool
	AssigneeID   *string
}

func taskColumns(t *models.Task) map[string]string {
	cols := map[string]string{"projectId": t.ProjectID, "userId": t.UserID}
	if t.AssigneeID != nil {
		cols["assigneeId"] = *t.AssigneeID
	}
	return cols
}

// ListProjectTasks returns the tasks of one project, oldest first.
func ListProjectTasks(ctx context.Context, projectID string, f TaskFilter) ([]models.Task, error) {
	q := db(ctx).Where("project_id = ?", projectID)
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if len(f.Priorities) > 0 {
		q = q.Where("priority IN ?", f.Priorities)
	}
	if f.AssigneeID != "" {
		q = q.Where("assignee_id = ?", f.AssigneeID)
	}

	var tasks []models.Task
	err := q.Order("created_at asc").Find(&tasks).Error
	return tasks, translate(err)
}

// ListTasksInProjects returns every task of the given projects.
func ListTasksInProjects(ctx context.Context, projectIDs []string) ([]models.Task, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}
	var tasks []models.Task
	err := db(ctx).Where("project_id IN ?", projectIDs).Order("created_at asc").Find(&tasks).Error
	return tasks, translate(err)
}

// visibleProjects selects the ids of the projects userID owns or is a
// member of.
func visibleProjects(ctx context.Context, userID string) *gorm.DB {
	shared := db(ctx).Model(&models.ProjectMember{}).Select("project_id").Where("user_id = ?", userID)
	return db(ctx).Model(&models.Project{}).Select("id").Where("user_id = ? OR id IN (?)", userID, shared)
}

// ListUserTasks pages through the tasks of every project userID can see.
// It returns the page and the total count for the filter.
func ListUserTasks(ctx context.Context, userID string, q TaskQuery) ([]models.Task, int64, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 20
	}
	scope := func() *gorm.DB {
		query := db(ctx).Model(&models.Task{}).Where("project_id IN (?)", visibleProjects(ctx, userID))
		if q.AssigneeID != "" {
			query = query.Where("assignee_id = ?", q.AssigneeID)
		}
		return query
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	order := "created_at desc"
	if q.Ascending {
		order = "created_at asc"
	}
	var tasks []models.Task
	err := scope().
		Order(order).
		Limit(q.Limit).
		Offset((q.Page - 1) * q.Limit).
		Find(&tasks).Error
	return tasks, total, translate(err)
}

func GetTask(ctx context.Context, id string) (*models.Task, error) {
	var t models.Task
	if err := db(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func CreateTask(ctx context.Context, in NewTask) (*models.Task, error) {
	status := in.Status
	if status == "" {
		status = models.StatusTodo
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidState, status)
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidState, priority)
	}

	t := models.Task{
		ID:          newID(),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Priority:    priority,
		DueDate:     in.DueDate,
		ProjectID:   in.ProjectID,
		UserID:      in.UserID,
		AssigneeID:  emptyToNil(in.AssigneeID),
	}
	setStatus(&t, status, time.Now())

	if err := db(ctx).Create(&t).Error; err != nil {
		return nil, translate(err)
	}
	publish(realtime.Insert, tableTasks, t.ID, t, taskColumns(&t))
	return &t, nil
}

func UpdateTask(ctx context.Context, id string, patch TaskPatch) (*models.Task, error) {
	t, err := GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		t.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Priority != nil {
		if !patch.Priority.Valid() {
			return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidState, *patch.Priority)
		}
		t.Priority = *patch.Priority
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidState, *patch.Status)
		}
		setStatus(t, *patch.Status, time.Now())
	}
	if patch.ClearDueDate {
		t.DueDate = nil
	} else if patch.DueDate != nil {
		t.DueDate = patch.DueDate
	}
	if patch.AssigneeID != nil {
		t.AssigneeID = emptyToNil(patch.AssigneeID)
	}

	if err := db(ctx).Save(t).Error; err != nil {
		return nil, translate(err)
	}
	publish(realtime.Update, tableTasks, t.ID, *t, taskColumns(t))
	return t, nil
}

// UpdateTaskStatus moves a task to another board column. Concurrent moves
// are not reconciled: the last write wins.
func UpdateTaskStatus(ctx context.Context, id string, status models.TaskStatus) (*models.Task, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidState, status)
	}
	t, err := GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	setStatus(t, status, now)
	t.UpdatedAt = now
	err = db(ctx).Model(t).Updates(map[string]any{
		"status":       t.Status,
		"completed_at": t.CompletedAt,
		"updated_at":   now,
	}).Error
	if err != nil {
		return nil, translate(err)
	}
	publish(realtime.Update, tableTasks, t.ID, *t, taskColumns(t))
	return t, nil
}

// DeleteTask removes the task with its tag links and comments.
func DeleteTask(ctx context.Context, id string) error {
	var (
		t        models.Task
		children taskChildren
	)
	err := db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&t, "id = ?", id).Error; err != nil {
			return err
		}
		var err error
		if children, err = deleteTaskChildren(tx, []string{id}); err != nil {
			return err
		}
		return tx.Delete(&models.Task{}, "id = ?", id).Error
	})
	if err != nil {
		return translate(err)
	}
	children.publishDeletes()
	publish(realtime.Delete, tableTasks, t.ID, nil, taskColumns(&t))
	return nil
}

// setStatus keeps CompletedAt in step with the completed column.
func setStatus(t *models.Task, status models.TaskStatus, now time.Time) {
	if status == models.StatusCompleted && t.Status != models.StatusCompleted {
		ts := now
		t.CompletedAt = &ts
	} else if status != models.StatusCompleted {
		t.CompletedAt = nil
	}
	t.Status = status
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// CountTasksByStatus counts the tasks assigned to assigneeID per status,
// limited to the projects viewerID can see.
func CountTasksByStatus(ctx context.Context, viewerID, assigneeID string) (map[models.TaskStatus]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := db(ctx).Model(&models.Task{}).
		Select("status, COUNT(*) as count").
		Where("assignee_id = ? AND project_id IN (?)", assigneeID, visibleProjects(ctx, viewerID)).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}

	counts := make(map[models.TaskStatus]int64, len(models.Statuses))
	for _, s := range models.Statuses {
		counts[s] = 0
	}
	for _, r := range rows {
		counts[models.TaskStatus(r.Status)] = r.Count
	}
	return counts, nil
}
