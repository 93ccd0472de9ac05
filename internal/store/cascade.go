package store

import (
	"projecthub-api/internal/models"
	"projecthub-api/internal/realtime"

	"gorm.io/gorm"
)

// taskChildren holds the tag links and comments removed along with a set of
// tasks. They are read inside the deleting transaction and announced after
// it commits.
type taskChildren struct {
	links    []models.TaskTag
	comments []models.Comment
}

func deleteTaskChildren(tx *gorm.DB, taskIDs []string) (taskChildren, error) {
	var ch taskChildren
	if len(taskIDs) == 0 {
		return ch, nil
	}
	if err := tx.Where("task_id IN ?", taskIDs).Find(&ch.links).Error; err != nil {
		return ch, err
	}
	if err := tx.Where("task_id IN ?", taskIDs).Find(&ch.comments).Error; err != nil {
		return ch, err
	}
	if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.TaskTag{}).Error; err != nil {
		return ch, err
	}
	if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.Comment{}).Error; err != nil {
		return ch, err
	}
	return ch, nil
}

func (ch taskChildren) publishDeletes() {
	publishLinkDeletes(ch.links)
	for i := range ch.comments {
		publish(realtime.Delete, tableComments, ch.comments[i].ID, nil, commentColumns(&ch.comments[i]))
	}
}

func publishLinkDeletes(links []models.TaskTag) {
	for i := range links {
		publish(realtime.Delete, tableTaskTags, links[i].RowID(), nil, taskTagColumns(&links[i]))
	}
}
