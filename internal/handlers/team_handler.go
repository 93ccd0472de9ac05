package handlers

import (
	"errors"
	"net/http"
	"strings"

	"projecthub-api/internal/mailer"
	"projecthub-api/internal/middleware"
	"projecthub-api/internal/models"
	"projecthub-api/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type TeamRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type UpdateMemberRoleRequest struct {
	Role models.TeamRole `json:"role" binding:"required,oneof=admin member"`
}

type InviteRequest struct {
	Email string          `json:"email" binding:"required,email"`
	Role  models.TeamRole `json:"role" binding:"omitempty,oneof=admin member"`
}

// GetTeams handles GET /api/teams
func GetTeams(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	teams, err := store.ListTeams(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Teams")
		return
	}
	c.JSON(http.StatusOK, gin.H{"teams": teams, "count": len(teams)})
}

// CreateTeam handles POST /api/teams. The caller becomes the owner.
func CreateTeam(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req TeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Team name is required"})
		return
	}
	description := ""
	if req.Description != nil {
		description = *req.Description
	}

	team, err := store.CreateTeam(c.Request.Context(), userID, *req.Name, description)
	if err != nil {
		respondError(c, err, "Team")
		return
	}
	c.JSON(http.StatusCreated, team)
}

// GetTeamByID handles GET /api/teams/:id (members only)
func GetTeamByID(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	teamID := c.Param("id")
	role, ok := teamRole(c, teamID, userID, false)
	if !ok {
		return
	}
	team, err := store.GetTeam(c.Request.Context(), teamID)
	if err != nil {
		respondError(c, err, "Team")
		return
	}
	c.JSON(http.StatusOK, gin.H{"team": team, "role": role})
}

// UpdateTeam handles PUT /api/teams/:id (owner or admin)
func UpdateTeam(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	teamID := c.Param("id")
	var req TeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Team name cannot be empty"})
		return
	}
	if _, ok := teamRole(c, teamID, userID, true); !ok {
		return
	}

	team, err := store.UpdateTeam(c.Request.Context(), teamID, store.TeamPatch{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err, "Team")
		return
	}
	c.JSON(http.StatusOK, team)
}

// DeleteTeam handles DELETE /api/teams/:id (owner only)
func DeleteTeam(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	teamID := c.Param("id")
	role, ok := teamRole(c, teamID, userID, true)
	if !ok {
		return
	}
	if role != models.TeamRoleOwner {
		respondError(c, store.ErrForbidden, "Team")
		return
	}
	if err := store.DeleteTeam(c.Request.Context(), teamID); err != nil {
		respondError(c, err, "Team")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Team deleted successfully", "id": teamID})
}

// GetTeamMembers handles GET /api/teams/:id/members
func GetTeamMembers(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	teamID := c.Param("id")
	if _, ok := teamRole(c, teamID, userID, false); !ok {
		return
	}
	ctx := c.Request.Context()
	members, err := store.ListTeamMembers(ctx, teamID)
	if err != nil {
		respondError(c, err, "Members")
		return
	}

	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	profiles, err := store.ProfilesByID(ctx, ids)
	if err != nil {
		respondError(c, err, "Members")
		return
	}

	type memberResponse struct {
		models.TeamMember
		Profile *UserResponse `json:"profile,omitempty"`
	}
	resp := make([]memberResponse, 0, len(members))
	for _, m := range members {
		r := memberResponse{TeamMember: m}
		if p, ok := profiles[m.UserID]; ok {
			r.Profile = &UserResponse{ID: p.ID, Username: p.Username, FullName: p.FullName, AvatarURL: p.AvatarURL}
		}
		resp = append(resp, r)
	}
	c.JSON(http.StatusOK, gin.H{"members": resp, "count": len(resp)})
}

// UpdateTeamMember handles PATCH /api/teams/:id/members/:userId (owner or admin)
func UpdateTeamMember(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	teamID := c.Param("id")
	var req UpdateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if _, ok := teamRole(c, teamID, userID, true); !ok {
		return
	}

	member, err := store.UpdateTeamMemberRole(c.Request.Context(), teamID, c.Param("userId"), req.Role)
	if errors.Is(err, store.ErrInvalidState) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "The team owner's role cannot be changed"})
		return
	}
	if err != nil {
		respondError(c, err, "Member")
		return
	}
	c.JSON(http.StatusOK, member)
}

// RemoveTeamMember handles DELETE /api/teams/:id/members/:userId. Owners and
// admins remove others; anyone but the owner may leave.
func RemoveTeamMember(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	teamID := c.Param("id")
	target := c.Param("userId")
	if _, ok := teamRole(c, teamID, userID, target != userID); !ok {
		return
	}

	err := store.RemoveTeamMember(c.Request.Context(), teamID, target)
	if errors.Is(err, store.ErrInvalidState) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "The team owner cannot be removed"})
		return
	}
	if err != nil {
		respondError(c, err, "Member")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Member removed", "userId": target})
}

// CreateInvitation handles POST /api/teams/:id/invitations (owner or admin).
// A failed email is logged; the invitation stands.
func CreateInvitation(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	teamID := c.Param("id")
	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if _, ok := teamRole(c, teamID, userID, true); !ok {
		return
	}
	ctx := c.Request.Context()

	if invitee, err := store.FindUserByEmail(ctx, req.Email); err == nil {
		if _, err := store.TeamRoleOf(ctx, teamID, invitee.ID); err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "User is already a member of this team"})
			return
		}
	}

	inv, err := store.CreateInvitation(ctx, teamID, userID, req.Email, req.Role)
	if errors.Is(err, store.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": "An invitation is already pending for this email"})
		return
	}
	if err != nil {
		respondError(c, err, "Invitation")
		return
	}

	team, err := store.GetTeam(ctx, teamID)
	if err != nil {
		respondError(c, err, "Team")
		return
	}
	link := baseURL() + "/invitations/" + inv.Token
	msg := mailer.InvitationMessage(inv, team.Name, c.GetString(middleware.UsernameKey), link)
	if err := mailer.Default().Send(ctx, msg); err != nil {
		log.Error().Err(err).Str("team_id", teamID).Str("invitation_id", inv.ID).Msg("invitation email failed")
	}

	c.JSON(http.StatusCreated, inv)
}

// GetTeamInvitations handles GET /api/teams/:id/invitations (owner or admin)
func GetTeamInvitations(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	teamID := c.Param("id")
	if _, ok := teamRole(c, teamID, userID, true); !ok {
		return
	}
	invs, err := store.ListInvitations(c.Request.Context(), teamID)
	if err != nil {
		respondError(c, err, "Invitations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"invitations": invs, "count": len(invs)})
}

// GetInvitation handles GET /api/invitations/:token for the acceptance page
func GetInvitation(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	ctx := c.Request.Context()
	inv, err := store.GetInvitationByToken(ctx, c.Param("token"))
	if err != nil {
		respondError(c, err, "Invitation")
		return
	}
	team, err := store.GetTeam(ctx, inv.TeamID)
	if err != nil {
		respondError(c, err, "Team")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"invitation": inv,
		"team": gin.H{
			"id":          team.ID,
			"name":        team.Name,
			"description": team.Description,
		},
	})
}

// AcceptInvitation handles POST /api/invitations/:token/accept. The caller's
// email must match the invitation.
func AcceptInvitation(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	inv, member, err := store.AcceptInvitation(c.Request.Context(), c.Param("token"), userID, c.GetString(middleware.EmailKey))
	if err != nil {
		respondInvitationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invitation": inv, "member": member})
}

// DeclineInvitation handles POST /api/invitations/:token/decline
func DeclineInvitation(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	inv, err := store.DeclineInvitation(c.Request.Context(), c.Param("token"), c.GetString(middleware.EmailKey))
	if err != nil {
		respondInvitationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invitation": inv})
}

func respondInvitationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrInvitationExpired):
		c.JSON(http.StatusGone, gin.H{"error": "This invitation has expired"})
	case errors.Is(err, store.ErrInvitationClosed):
		c.JSON(http.StatusConflict, gin.H{"error": "This invitation has already been answered"})
	case errors.Is(err, store.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "This invitation was sent to a different email address"})
	default:
		respondError(c, err, "Invitation")
	}
}
