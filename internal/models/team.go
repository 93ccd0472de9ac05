package models

import "time"

// Team is a named group of users.
type Team struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"createdBy" gorm:"column:created_by;not null"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Team) TableName() string {
	return "teams"
}

func (t Team) RowID() string { return t.ID }

// TeamRole is a member's role inside a team.
type TeamRole string

const (
	TeamRoleOwner  TeamRole = "owner"
	TeamRoleAdmin  TeamRole = "admin"
	TeamRoleMember TeamRole = "member"
)

// CanManage reports whether the role may invite, edit or remove members.
func (r TeamRole) CanManage() bool {
	return r == TeamRoleOwner || r == TeamRoleAdmin
}

// TeamMember links a user to a team with a role.
type TeamMember struct {
	ID       string    `json:"id" gorm:"primaryKey"`
	TeamID   string    `json:"teamId" gorm:"column:team_id;not null;uniqueIndex:idx_team_member"`
	UserID   string    `json:"userId" gorm:"column:user_id;not null;uniqueIndex:idx_team_member"`
	Role     TeamRole  `json:"role" gorm:"not null;default:'member'"`
	JoinedAt time.Time `json:"joinedAt" gorm:"autoCreateTime"`
}

func (TeamMember) TableName() string {
	return "team_members"
}

func (m TeamMember) RowID() string { return m.ID }

// InvitationStatus tracks the lifecycle of a team invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
)

// TeamInvitation is an emailed offer to join a team.
type TeamInvitation struct {
	ID         string           `json:"id" gorm:"primaryKey"`
	TeamID     string           `json:"teamId" gorm:"column:team_id;not null;index"`
	Email      string           `json:"email" gorm:"not null;index"`
	Role       TeamRole         `json:"role" gorm:"not null;default:'member'"`
	Status     InvitationStatus `json:"status" gorm:"not null;default:'pending'"`
	Token      string           `json:"token" gorm:"not null;uniqueIndex"`
	InvitedBy  string           `json:"invitedBy" gorm:"column:invited_by"`
	ExpiresAt  time.Time        `json:"expiresAt"`
	AcceptedAt *time.Time       `json:"acceptedAt"`
	CreatedAt  time.Time        `json:"createdAt"`
}

func (TeamInvitation) TableName() string {
	return "team_invitations"
}

func (i TeamInvitation) RowID() string { return i.ID }
