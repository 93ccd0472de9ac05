package store

import (
	"context"
	"errors"
	"strings"

	"projecthub-api/internal/models"
	"projecthub-api/internal/realtime"

	"gorm.io/gorm"
)

const (
	tableTeams       = "teams"
	tableTeamMembers = "team_members"
)

// TeamPatch holds the editable team fields; nil means unchanged.
type TeamPatch struct {
	Name        *string
	Description *string
}

func teamMemberColumns(m *models.TeamMember) map[string]string {
	return map[string]string{"teamId": m.TeamID, "userId": m.UserID}
}

// ListTeams returns the teams userID belongs to.
func ListTeams(ctx context.Context, userID string) ([]models.Team, error) {
	mine := db(ctx).Model(&models.TeamMember{}).Select("team_id").Where("user_id = ?", userID)

	var teams []models.Team
	err := db(ctx).Where("id IN (?)", mine).Order("name asc").Find(&teams).Error
	return teams, translate(err)
}

func GetTeam(ctx context.Context, id string) (*models.Team, error) {
	var t models.Team
	if err := db(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

// CreateTeam inserts the team and makes its creator the owner.
func CreateTeam(ctx context.Context, creatorID, name, description string) (*models.Team, error) {
	team := models.Team{
		ID:          newID(),
		Name:        strings.TrimSpace(name),
		Description: description,
		CreatedBy:   creatorID,
	}
	owner := models.TeamMember{
		ID:     newID(),
		TeamID: team.ID,
		UserID: creatorID,
		Role:   models.TeamRoleOwner,
	}
	err := db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&team).Error; err != nil {
			return err
		}
		return tx.Create(&owner).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	publish(realtime.Insert, tableTeams, team.ID, team, map[string]string{"createdBy": creatorID})
	publish(realtime.Insert, tableTeamMembers, owner.ID, owner, teamMemberColumns(&owner))
	return &team, nil
}

func UpdateTeam(ctx context.Context, id string, patch TeamPatch) (*models.Team, error) {
	t, err := GetTeam(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		t.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if err := db(ctx).Save(t).Error; err != nil {
		return nil, translate(err)
	}
	publish(realtime.Update, tableTeams, t.ID, *t, map[string]string{"createdBy": t.CreatedBy})
	return t, nil
}

// DeleteTeam removes the team with its memberships and invitations.
func DeleteTeam(ctx context.Context, id string) error {
	var (
		team        models.Team
		members     []models.TeamMember
		invitations []models.TeamInvitation
	)
	err := db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&team, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("team_id = ?", id).Find(&invitations).Error; err != nil {
			return err
		}
		if err := tx.Where("team_id = ?", id).Delete(&models.TeamInvitation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("team_id = ?", id).Find(&members).Error; err != nil {
			return err
		}
		if err := tx.Where("team_id = ?", id).Delete(&models.TeamMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Team{}, "id = ?", id).Error
	})
	if err != nil {
		return translate(err)
	}
	for i := range invitations {
		publish(realtime.Delete, tableInvitations, invitations[i].ID, nil, invitationColumns(&invitations[i]))
	}
	for i := range members {
		publish(realtime.Delete, tableTeamMembers, members[i].ID, nil, teamMemberColumns(&members[i]))
	}
	publish(realtime.Delete, tableTeams, id, nil, map[string]string{"createdBy": team.CreatedBy})
	return nil
}

// TeamRoleOf returns userID's role in the team, or ErrForbidden when the
// user is not a member.
func TeamRoleOf(ctx context.Context, teamID, userID string) (models.TeamRole, error) {
	var m models.TeamMember
	err := db(ctx).Where("team_id = ? AND user_id = ?", teamID, userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrForbidden
	}
	if err != nil {
		return "", translate(err)
	}
	return m.Role, nil
}

func ListTeamMembers(ctx context.Context, teamID string) ([]models.TeamMember, error) {
	var members []models.TeamMember
	err := db(ctx).Where("team_id = ?", teamID).Order("joined_at asc").Find(&members).Error
	return members, translate(err)
}

func getTeamMember(ctx context.Context, teamID, userID string) (*models.TeamMember, error) {
	var m models.TeamMember
	if err := db(ctx).Where("team_id = ? AND user_id = ?", teamID, userID).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// UpdateTeamMemberRole changes a member's role. The owner's role is fixed and
// nobody else can be made owner.
func UpdateTeamMemberRole(ctx context.Context, teamID, userID string, role models.TeamRole) (*models.TeamMember, error) {
	if role != models.TeamRoleAdmin && role != models.TeamRoleMember {
		return nil, ErrInvalidState
	}
	m, err := getTeamMember(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}
	if m.Role == models.TeamRoleOwner {
		return nil, ErrInvalidState
	}
	if err := db(ctx).Model(m).Update("role", role).Error; err != nil {
		return nil, translate(err)
	}
	m.Role = role
	publish(realtime.Update, tableTeamMembers, m.ID, *m, teamMemberColumns(m))
	return m, nil
}

// RemoveTeamMember removes a non-owner member from the team.
func RemoveTeamMember(ctx context.Context, teamID, userID string) error {
	m, err := getTeamMember(ctx, teamID, userID)
	if err != nil {
		return err
	}
	if m.Role == models.TeamRoleOwner {
		return ErrInvalidState
	}
	if err := db(ctx).Delete(&models.TeamMember{}, "id = ?", m.ID).Error; err != nil {
		return translate(err)
	}
	publish(realtime.Delete, tableTeamMembers, m.ID, nil, teamMemberColumns(m))
	return nil
}
