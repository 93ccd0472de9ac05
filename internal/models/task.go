package models

import (
	"time"
)

// TaskStatus is the Kanban column a task sits in
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in-progress"
	StatusReview     TaskStatus = "review"
	StatusCompleted  TaskStatus = "completed"
)

// Statuses lists the board columns in display order.
var Statuses = []TaskStatus{StatusTodo, StatusInProgress, StatusReview, StatusCompleted}

// Valid reports whether s is one of the four board columns.
func (s TaskStatus) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// TaskPriority represents the priority of a task
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// Priorities lists every priority from lowest to highest.
var Priorities = []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh}

func (p TaskPriority) Valid() bool {
	for _, v := range Priorities {
		if p == v {
			return true
		}
	}
	return false
}

// Task represents a Kanban card belonging to a project
type Task struct {
	ID          string       `json:"id" gorm:"primaryKey"`
	Title       string       `json:"title" gorm:"not null"`
	Description string       `json:"description"`
	Status      TaskStatus   `json:"status" gorm:"not null;default:'todo';index:idx_tasks_project_status,priority:2"`
	Priority    TaskPriority `json:"priority" gorm:"not null;default:'medium'"`
	DueDate     *time.Time   `json:"dueDate"`
	ProjectID   string       `json:"projectId" gorm:"column:project_id;not null;index:idx_tasks_project_status,priority:1"`
	UserID      string       `json:"userId" gorm:"column:user_id;index"`
	AssigneeID  *string      `json:"assigneeId" gorm:"column:assignee_id;index"`
	CompletedAt *time.Time   `json:"completedAt"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// TableName specifies the table name for Task Model
func (Task) TableName() string {
	return "tasks"
}

func (t Task) RowID() string { return t.ID }

// Overdue reports whether the task has a due date in the past and is not completed.
func (t Task) Overdue(now time.Time) bool {
	return t.DueDate != nil && t.Status != StatusCompleted && t.DueDate.Before(now)
}

// Tag is a user-defined label that can be attached to tasks.
type Tag struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Color     string    `json:"color" gorm:"not null;default:'#6b7280'"`
	UserID    string    `json:"userId" gorm:"column:user_id;index"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Tag) TableName() string {
	return "tags"
}

func (t Tag) RowID() string { return t.ID }

// TaskTag links a task to a tag.
type TaskTag struct {
	TaskID string `json:"taskId" gorm:"column:task_id;primaryKey"`
	TagID  string `json:"tagId" gorm:"column:tag_id;primaryKey"`
}

func (TaskTag) TableName() string {
	return "task_tags"
}

func (t TaskTag) RowID() string { return t.TaskID + ":" + t.TagID }

// Comment is a note left on a task.
type Comment struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	TaskID    string    `json:"taskId" gorm:"column:task_id;not null;index"`
	UserID    string    `json:"userId" gorm:"column:user_id;not null"`
	Content   string    `json:"content" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Comment) TableName() string {
	return "comments"
}

func (c Comment) RowID() string { return c.ID }
