package store

import (
	"context"
	"strings"

	"projecthub-api/internal/models"
	"projecthub-api/internal/realtime"
)

const tableComments = "comments"

func commentColumns(c *models.Comment) map[string]string {
	return map[string]string{"taskId": c.TaskID, "userId": c.UserID}
}

func ListComments(ctx context.Context, taskID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := db(ctx).Where("task_id = ?", taskID).Order("created_at asc").Find(&comments).Error
	return comments, translate(err)
}

func GetComment(ctx context.Context, id string) (*models.Comment, error) {
	var c models.Comment
	if err := db(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func CreateComment(ctx context.Context, taskID, userID, content string) (*models.Comment, error) {
	c := models.Comment{
		ID:      newID(),
		TaskID:  taskID,
		UserID:  userID,
		Content: strings.TrimSpace(content),
	}
	if err := db(ctx).Create(&c).Error; err != nil {
		return nil, translate(err)
	}
	publish(realtime.Insert, tableComments, c.ID, c, commentColumns(&c))
	return &c, nil
}

// DeleteComment removes a comment; only its author may do so.
func DeleteComment(ctx context.Context, id, userID string) error {
	c, err := GetComment(ctx, id)
	if err != nil {
		return err
	}
	if c.UserID != userID {
		return ErrForbidden
	}
	if err := db(ctx).Delete(&models.Comment{}, "id = ?", id).Error; err != nil {
		return translate(err)
	}
	publish(realtime.Delete, tableComments, id, nil, commentColumns(c))
	return nil
}
