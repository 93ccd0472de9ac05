package store

import (
	"context"

	"projecthub-api/internal/models"
	"projecthub-api/internal/realtime"
)

const tableProjectMembers = "project_members"

func memberColumns(m *models.ProjectMember) map[string]string {
	return map[string]string{"projectId": m.ProjectID, "userId": m.UserID}
}

func ListProjectMembers(ctx context.Context, projectID string) ([]models.ProjectMember, error) {
	var members []models.ProjectMember
	err := db(ctx).Where("project_id = ?", projectID).Order("created_at asc").Find(&members).Error
	return members, translate(err)
}

// AddProjectMember shares the project with userID.
func AddProjectMember(ctx context.Context, projectID, userID string, role models.ProjectRole) (*models.ProjectMember, error) {
	if role == "" {
		role = models.ProjectRoleEditor
	}
	if role == models.ProjectRoleOwner {
		return nil, ErrInvalidState
	}
	m := models.ProjectMember{
		ID:        newID(),
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
	}
	if err := db(ctx).Create(&m).Error; err != nil {
		return nil, translate(err)
	}
	publish(realtime.Insert, tableProjectMembers, m.ID, m, memberColumns(&m))
	return &m, nil
}

func RemoveProjectMember(ctx context.Context, projectID, userID string) error {
	var m models.ProjectMember
	if err := db(ctx).Where("project_id = ? AND user_id = ?", projectID, userID).First(&m).Error; err != nil {
		return translate(err)
	}
	if err := db(ctx).Delete(&m).Error; err != nil {
		return translate(err)
	}
	publish(realtime.Delete, tableProjectMembers, m.ID, nil, memberColumns(&m))
	return nil
}
