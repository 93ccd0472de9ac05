package models

import "time"

// Project groups tasks and is owned by a single user.
type Project struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description"`
	UserID      string    `json:"userId" gorm:"column:user_id;not null;index"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Project) TableName() string {
	return "projects"
}

func (p Project) RowID() string { return p.ID }

// ProjectRole is the access level a user has on a shared project.
type ProjectRole string

const (
	ProjectRoleOwner  ProjectRole = "owner"
	ProjectRoleEditor ProjectRole = "editor"
	ProjectRoleViewer ProjectRole = "viewer"
)

// ProjectMember shares a project with another user.
type ProjectMember struct {
	ID        string      `json:"id" gorm:"primaryKey"`
	ProjectID string      `json:"projectId" gorm:"column:project_id;not null;uniqueIndex:idx_project_member"`
	UserID    string      `json:"userId" gorm:"column:user_id;not null;uniqueIndex:idx_project_member"`
	Role      ProjectRole `json:"role" gorm:"not null;default:'editor'"`
	CreatedAt time.Time   `json:"createdAt"`
}

func (ProjectMember) TableName() string {
	return "project_members"
}

func (m ProjectMember) RowID() string { return m.ID }
