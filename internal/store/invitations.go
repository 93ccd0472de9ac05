package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"projecthub-api/internal/models"
	"projecthub-api/internal/realtime"

	"gorm.io/gorm"
)

const tableInvitations = "team_invitations"

// InvitationTTL is how long an invitation can be accepted.
const InvitationTTL = 7 * 24 * time.Hour

var (
	ErrInvitationClosed  = fmt.Errorf("%w: invitation is no longer pending", ErrInvalidState)
	ErrInvitationExpired = fmt.Errorf("%w: invitation has expired", ErrInvalidState)
)

func invitationColumns(inv *models.TeamInvitation) map[string]string {
	return map[string]string{"teamId": inv.TeamID, "email": inv.Email}
}

// CreateInvitation issues a pending invitation with a fresh token. Only one
// pending invitation per team and email may exist.
func CreateInvitation(ctx context.Context, teamID, invitedBy, email string, role models.TeamRole) (*models.TeamInvitation, error) {
	if role == "" {
		role = models.TeamRoleMember
	}
	if role == models.TeamRoleOwner {
		return nil, ErrInvalidState
	}
	email = normalizeEmail(email)

	var pending int64
	err := db(ctx).Model(&models.TeamInvitation{}).
		Where("team_id = ? AND email = ? AND status = ?", teamID, email, models.InvitationPending).
		Count(&pending).Error
	if err != nil {
		return nil, translate(err)
	}
	if pending > 0 {
		return nil, ErrConflict
	}

	token, err := newToken(32)
	if err != nil {
		return nil, err
	}
	inv := models.TeamInvitation{
		ID:        newID(),
		TeamID:    teamID,
		Email:     email,
		Role:      role,
		Status:    models.InvitationPending,
		Token:     token,
		InvitedBy: invitedBy,
		ExpiresAt: time.Now().Add(InvitationTTL),
	}
	if err := db(ctx).Create(&inv).Error; err != nil {
		return nil, translate(err)
	}
	publish(realtime.Insert, tableInvitations, inv.ID, inv, invitationColumns(&inv))
	return &inv, nil
}

func ListInvitations(ctx context.Context, teamID string) ([]models.TeamInvitation, error) {
	var invs []models.TeamInvitation
	err := db(ctx).Where("team_id = ?", teamID).Order("created_at desc").Find(&invs).Error
	return invs, translate(err)
}

func GetInvitationByToken(ctx context.Context, token string) (*models.TeamInvitation, error) {
	var inv models.TeamInvitation
	if err := db(ctx).First(&inv, "token = ?", token).Error; err != nil {
		return nil, translate(err)
	}
	return &inv, nil
}

func checkOpen(inv *models.TeamInvitation, email string, now time.Time) error {
	if inv.Status != models.InvitationPending {
		return ErrInvitationClosed
	}
	if now.After(inv.ExpiresAt) {
		return ErrInvitationExpired
	}
	if normalizeEmail(email) != inv.Email {
		return ErrForbidden
	}
	return nil
}

// AcceptInvitation marks the invitation accepted and adds the user to the
// team in one transaction. If the user already belongs to the team the
// existing membership is kept.
func AcceptInvitation(ctx context.Context, token, userID, email string) (*models.TeamInvitation, *models.TeamMember, error) {
	var (
		inv     models.TeamInvitation
		member  models.TeamMember
		created bool
	)
	now := time.Now()
	err := db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&inv, "token = ?", token).Error; err != nil {
			return err
		}
		if err := checkOpen(&inv, email, now); err != nil {
			return err
		}

		inv.Status = models.InvitationAccepted
		inv.AcceptedAt = &now
		if err := tx.Model(&inv).Updates(map[string]any{
			"status":      inv.Status,
			"accepted_at": inv.AcceptedAt,
		}).Error; err != nil {
			return err
		}

		err := tx.Where("team_id = ? AND user_id = ?", inv.TeamID, userID).First(&member).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		member = models.TeamMember{
			ID:     newID(),
			TeamID: inv.TeamID,
			UserID: userID,
			Role:   inv.Role,
		}
		created = true
		return tx.Create(&member).Error
	})
	if err != nil {
		return nil, nil, translate(err)
	}

	publish(realtime.Update, tableInvitations, inv.ID, inv, invitationColumns(&inv))
	if created {
		publish(realtime.Insert, tableTeamMembers, member.ID, member, teamMemberColumns(&member))
	}
	return &inv, &member, nil
}

func DeclineInvitation(ctx context.Context, token, email string) (*models.TeamInvitation, error) {
	inv, err := GetInvitationByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := checkOpen(inv, email, time.Now()); err != nil {
		return nil, err
	}
	inv.Status = models.InvitationDeclined
	if err := db(ctx).Model(inv).Update("status", inv.Status).Error; err != nil {
		return nil, translate(err)
	}
	publish(realtime.Update, tableInvitations, inv.ID, *inv, invitationColumns(inv))
	return inv, nil
}
