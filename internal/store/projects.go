package store

import (
	"context"
	"errors"

	"projecthub-api/internal/models"
	"projecthub-api/internal/realtime"

	"gorm.io/gorm"
)

const tableProjects = "projects"

// ProjectPatch holds the editable project fields; nil means unchanged.
type ProjectPatch struct {
	Name        *string
	Description *string
}

func projectColumns(p *models.Project) map[string]string {
	return map[string]string{"userId": p.UserID}
}

// ListProjects returns the projects userID owns or was added to, newest first.
func ListProjects(ctx context.Context, userID string) ([]models.Project, error) {
	shared := db(ctx).Model(&models.ProjectMember{}).Select("project_id").Where("user_id = ?", userID)

	var projects []models.Project
	err := db(ctx).
		Where("user_id = ? OR id IN (?)", userID, shared).
		Order("created_at desc").
		Find(&projects).Error
	return projects, translate(err)
}

func GetProject(ctx context.Context, id string) (*models.Project, error) {
	var p models.Project
	if err := db(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func CreateProject(ctx context.Context, ownerID, name, description string) (*models.Project, error) {
	p := models.Project{
		ID:          newID(),
		Name:        name,
		Description: description,
		UserID:      ownerID,
	}
	if err := db(ctx).Create(&p).Error; err != nil {
		return nil, translate(err)
	}
	publish(realtime.Insert, tableProjects, p.ID, p, projectColumns(&p))
	return &p, nil
}

func UpdateProject(ctx context.Context, id string, patch ProjectPatch) (*models.Project, error) {
	p, err := GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if err := db(ctx).Save(p).Error; err != nil {
		return nil, translate(err)
	}
	publish(realtime.Update, tableProjects, p.ID, *p, projectColumns(p))
	return p, nil
}

// DeleteProject removes the project together with its tasks, their tags and
// comments, and its memberships in one transaction. Every removed row is
// published as a DELETE once the transaction commits.
func DeleteProject(ctx context.Context, id string) error {
	var (
		project  models.Project
		tasks    []models.Task
		members  []models.ProjectMember
		children taskChildren
	)
	err := db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&project, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Find(&tasks).Error; err != nil {
			return err
		}
		var err error
		if children, err = deleteTaskChildren(tx, taskIDs(tasks)); err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Find(&members).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, "id = ?", id).Error
	})
	if err != nil {
		return translate(err)
	}

	children.publishDeletes()
	for i := range members {
		publish(realtime.Delete, tableProjectMembers, members[i].ID, nil, memberColumns(&members[i]))
	}
	for i := range tasks {
		publish(realtime.Delete, tableTasks, tasks[i].ID, nil, taskColumns(&tasks[i]))
	}
	publish(realtime.Delete, tableProjects, project.ID, nil, projectColumns(&project))
	return nil
}

// ProjectAccess returns the caller's role on the project, or ErrForbidden.
func ProjectAccess(ctx context.Context, projectID, userID string) (models.ProjectRole, error) {
	p, err := GetProject(ctx, projectID)
	if err != nil {
		return "", err
	}
	if p.UserID == userID {
		return models.ProjectRoleOwner, nil
	}
	var m models.ProjectMember
	err = db(ctx).Where("project_id = ? AND user_id = ?", projectID, userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrForbidden
	}
	if err != nil {
		return "", translate(err)
	}
	return m.Role, nil
}

func taskIDs(tasks []models.Task) []string {
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	return ids
}
