package models

import (
	"time"
)

// User is the authentication identity
type User struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;not null"`
	CreatedAt    time.Time `json:"createdAt"`
}

// TableName specifies the table name for User Model
func (User) TableName() string {
	return "users"
}

// UserProfile mirrors a User with the public profile fields.
type UserProfile struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Username  string    `json:"username" gorm:"uniqueIndex;not null"`
	FullName  string    `json:"fullName" gorm:"column:full_name"`
	AvatarURL string    `json:"avatarUrl" gorm:"column:avatar_url"`
	JobTitle  string    `json:"jobTitle" gorm:"column:job_title"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}

func (p UserProfile) RowID() string { return p.ID }

// All returns every model the database must migrate.
func All() []any {
	return []any{
		&User{},
		&UserProfile{},
		&Project{},
		&ProjectMember{},
		&Task{},
		&Tag{},
		&TaskTag{},
		&Comment{},
		&Team{},
		&TeamMember{},
		&TeamInvitation{},
	}
}
