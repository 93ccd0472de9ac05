package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"projecthub-api/internal/models"
	"projecthub-api/internal/reports"
	"projecthub-api/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// CreateTaskRequest represents the request payload for creating a task
type CreateTaskRequest struct {
	Title       string              `json:"title" binding:"required"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     string              `json:"dueDate"`
	AssigneeID  *string             `json:"assigneeId"`
}

// UpdateTaskRequest represents the request payload for updating a task.
// An empty dueDate or assigneeId clears the field.
type UpdateTaskRequest struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Status      *models.TaskStatus   `json:"status"`
	Priority    *models.TaskPriority `json:"priority"`
	DueDate     *string              `json:"dueDate"`
	AssigneeID  *string              `json:"assigneeId"`
}

// UpdateTaskStatusRequest represents a minimal request to change status
type UpdateTaskStatusRequest struct {
	Status models.TaskStatus `json:"status" binding:"required"`
}

// TaskResponse is a task with its assignee's public profile
type TaskResponse struct {
	models.Task
	Assignee *UserResponse `json:"assignee,omitempty"`
}

func parseDateFlexible(dateStr string) (time.Time, bool) {
	if dateStr == "" {
		return time.Time{}, false
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2 Jan 2006",
		"02 Jan 2006",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// queryList collects a repeatable query parameter, also splitting commas.
func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, raw := range c.QueryArray(key) {
		for _, part := range strings.Split(raw, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// parseTaskFilter reads ?status= and ?priority= filters.
func parseTaskFilter(c *gin.Context) (store.TaskFilter, error) {
	var f store.TaskFilter
	for _, s := range queryList(c, "status") {
		status := models.TaskStatus(s)
		if !status.Valid() {
			return f, fmt.Errorf("unknown status %q", s)
		}
		f.Statuses = append(f.Statuses, status)
	}
	for _, p := range queryList(c, "priority") {
		priority := models.TaskPriority(p)
		if !priority.Valid() {
			return f, fmt.Errorf("unknown priority %q", p)
		}
		f.Priorities = append(f.Priorities, priority)
	}
	f.AssigneeID = c.Query("assigneeId")
	return f, nil
}

// withAssignees attaches assignee profiles. A lookup failure is logged and
// the tasks are returned bare.
func withAssignees(ctx context.Context, tasks []models.Task) []TaskResponse {
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		if t.AssigneeID != nil {
			ids = append(ids, *t.AssigneeID)
		}
	}
	profiles, err := store.ProfilesByID(ctx, ids)
	if err != nil {
		log.Warn().Err(err).Msg("could not load assignee profiles")
	}

	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		resp := TaskResponse{Task: t}
		if t.AssigneeID != nil {
			if p, ok := profiles[*t.AssigneeID]; ok {
				resp.Assignee = &UserResponse{ID: p.ID, Username: p.Username, FullName: p.FullName, AvatarURL: p.AvatarURL}
			}
		}
		out = append(out, resp)
	}
	return out
}

func withAssignee(ctx context.Context, task *models.Task) TaskResponse {
	return withAssignees(ctx, []models.Task{*task})[0]
}

// checkAssignee makes sure the assignee can see the project.
func checkAssignee(c *gin.Context, projectID string, assigneeID *string) bool {
	if assigneeID == nil || strings.TrimSpace(*assigneeID) == "" {
		return true
	}
	if _, err := store.ProjectAccess(c.Request.Context(), projectID, strings.TrimSpace(*assigneeID)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Assignee is not a member of this project"})
		return false
	}
	return true
}

/*
*
GetTasks handles GET /api/tasks
Returns the tasks of every project the caller can see, paginated.
Optional query param: assigneeId to filter by assignee.
*/
func GetTasks(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	// Query params: page (default 1), limit (default 5), sort (asc|desc on created_at, default desc)
	pageStr := c.DefaultQuery("page", "1")
	limitStr := c.DefaultQuery("limit", "5")
	sortParam := strings.ToLower(c.DefaultQuery("sort", "desc"))
	if sortParam != "asc" {
		sortParam = "desc"
	}

	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		limit = 5
	}
	if limit > 100 {
		limit = 100
	}

	ctx := c.Request.Context()
	tasks, total, err := store.ListUserTasks(ctx, userID, store.TaskQuery{
		Page:       page,
		Limit:      limit,
		Ascending:  sortParam == "asc",
		AssigneeID: c.Query("assigneeId"),
	})
	if err != nil {
		respondError(c, err, "Tasks")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": withAssignees(ctx, tasks),
		"count": len(tasks), // number of items in this page
		"total": total,      // total tasks (all pages) for current filter
		"page":  page,
		"limit": limit,
		"sort":  sortParam,
	})
}

// GetProjectTasks handles GET /api/projects/:id/tasks?status=&priority=
func GetProjectTasks(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID := c.Param("id")
	filter, err := parseTaskFilter(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	if _, ok := projectRole(c, projectID, userID, false); !ok {
		return
	}

	ctx := c.Request.Context()
	tasks, err := store.ListProjectTasks(ctx, projectID, filter)
	if err != nil {
		respondError(c, err, "Tasks")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tasks": withAssignees(ctx, tasks),
		"count": len(tasks),
	})
}

// GetProjectBoard handles GET /api/projects/:id/board. Columns come in
// display order; ?priority= narrows the cards.
func GetProjectBoard(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID := c.Param("id")
	filter, err := parseTaskFilter(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	if _, ok := projectRole(c, projectID, userID, false); !ok {
		return
	}

	tasks, err := store.ListProjectTasks(c.Request.Context(), projectID, store.TaskFilter{AssigneeID: filter.AssigneeID})
	if err != nil {
		respondError(c, err, "Board")
		return
	}
	tasks = reports.FilterByPriority(tasks, filter.Priorities...)
	c.JSON(http.StatusOK, gin.H{
		"projectId": projectID,
		"columns":   reports.Board(tasks),
	})
}

/*
*
CreateTask handles POST /api/projects/:id/tasks
Creates a task in the project; viewers cannot create tasks.
*/
func CreateTask(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID := c.Param("id")

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}
	var due *time.Time
	if req.DueDate != "" {
		d, ok := parseDateFlexible(req.DueDate)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid dueDate"})
			return
		}
		due = &d
	}
	if _, ok := projectRole(c, projectID, userID, true); !ok {
		return
	}
	if !checkAssignee(c, projectID, req.AssigneeID) {
		return
	}

	ctx := c.Request.Context()
	task, err := store.CreateTask(ctx, store.NewTask{
		ProjectID:   projectID,
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     due,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		respondError(c, err, "Task")
		return
	}
	c.JSON(http.StatusCreated, withAssignee(ctx, task))
}

// GetTaskByID handles GET /api/tasks/:id
func GetTaskByID(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	task, ok := loadTask(c, c.Param("id"), userID, false)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, withAssignee(c.Request.Context(), task))
}

// UpdateTask handles PUT /api/tasks/:id
// Only the fields present in the body change.
func UpdateTask(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title cannot be empty"})
		return
	}

	patch := store.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
	}
	if req.DueDate != nil {
		if *req.DueDate == "" {
			patch.ClearDueDate = true
		} else {
			d, ok := parseDateFlexible(*req.DueDate)
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid dueDate"})
				return
			}
			patch.DueDate = &d
		}
	}

	existing, ok := loadTask(c, c.Param("id"), userID, true)
	if !ok {
		return
	}
	if !checkAssignee(c, existing.ProjectID, req.AssigneeID) {
		return
	}

	ctx := c.Request.Context()
	task, err := store.UpdateTask(ctx, existing.ID, patch)
	if err != nil {
		respondError(c, err, "Task")
		return
	}
	c.JSON(http.StatusOK, withAssignee(ctx, task))
}

// UpdateTaskStatus handles PATCH /api/tasks/:id/status
// This is the Kanban drop. Concurrent moves resolve to the last write.
func UpdateTaskStatus(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req UpdateTaskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if !req.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unknown status %q", req.Status)})
		return
	}

	existing, ok := loadTask(c, c.Param("id"), userID, true)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	task, err := store.UpdateTaskStatus(ctx, existing.ID, req.Status)
	if err != nil {
		respondError(c, err, "Task")
		return
	}
	c.JSON(http.StatusOK, withAssignee(ctx, task))
}

// DeleteTask handles DELETE /api/tasks/:id
func DeleteTask(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	task, ok := loadTask(c, c.Param("id"), userID, true)
	if !ok {
		return
	}
	if err := store.DeleteTask(c.Request.Context(), task.ID); err != nil {
		respondError(c, err, "Task")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
		"id":      task.ID,
	})
}
