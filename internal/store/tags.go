package store

import (
	"context"
	"strings"

	"projecthub-api/internal/models"
	"projecthub-api/internal/realtime"

	"gorm.io/gorm"
)

const (
	tableTags     = "tags"
	tableTaskTags = "task_tags"
)

func taskTagColumns(l *models.TaskTag) map[string]string {
	return map[string]string{"taskId": l.TaskID, "tagId": l.TagID}
}

func ListTags(ctx context.Context, userID string) ([]models.Tag, error) {
	var tags []models.Tag
	err := db(ctx).Where("user_id = ?", userID).Order("name asc").Find(&tags).Error
	return tags, translate(err)
}

func GetTag(ctx context.Context, id string) (*models.Tag, error) {
	var tag models.Tag
	if err := db(ctx).First(&tag, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &tag, nil
}

func CreateTag(ctx context.Context, userID, name, color string) (*models.Tag, error) {
	if strings.TrimSpace(color) == "" {
		color = "#6b7280"
	}
	tag := models.Tag{
		ID:     newID(),
		Name:   strings.TrimSpace(name),
		Color:  color,
		UserID: userID,
	}
	if err := db(ctx).Create(&tag).Error; err != nil {
		return nil, translate(err)
	}
	publish(realtime.Insert, tableTags, tag.ID, tag, map[string]string{"userId": userID})
	return &tag, nil
}

// DeleteTag removes a tag owned by userID and detaches it from every task.
func DeleteTag(ctx context.Context, id, userID string) error {
	tag, err := GetTag(ctx, id)
	if err != nil {
		return err
	}
	if tag.UserID != userID {
		return ErrForbidden
	}
	var links []models.TaskTag
	err = db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tag_id = ?", id).Find(&links).Error; err != nil {
			return err
		}
		if err := tx.Where("tag_id = ?", id).Delete(&models.TaskTag{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Tag{}, "id = ?", id).Error
	})
	if err != nil {
		return translate(err)
	}
	publishLinkDeletes(links)
	publish(realtime.Delete, tableTags, id, nil, map[string]string{"userId": userID})
	return nil
}

// ListTaskTags returns the tags attached to a task.
func ListTaskTags(ctx context.Context, taskID string) ([]models.Tag, error) {
	var tags []models.Tag
	err := db(ctx).
		Joins("JOIN task_tags ON task_tags.tag_id = tags.id").
		Where("task_tags.task_id = ?", taskID).
		Order("tags.name asc").
		Find(&tags).Error
	return tags, translate(err)
}

func AddTaskTag(ctx context.Context, taskID, tagID string) (*models.TaskTag, error) {
	link := models.TaskTag{TaskID: taskID, TagID: tagID}
	if err := db(ctx).Create(&link).Error; err != nil {
		return nil, translate(err)
	}
	publish(realtime.Insert, tableTaskTags, link.RowID(), link, taskTagColumns(&link))
	return &link, nil
}

func RemoveTaskTag(ctx context.Context, taskID, tagID string) error {
	res := db(ctx).Where("task_id = ? AND tag_id = ?", taskID, tagID).Delete(&models.TaskTag{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	link := models.TaskTag{TaskID: taskID, TagID: tagID}
	publish(realtime.Delete, tableTaskTags, link.RowID(), nil, taskTagColumns(&link))
	return nil
}
