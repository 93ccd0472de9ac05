package handlers

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"projecthub-api/internal/mailer"
	"projecthub-api/internal/models"

	"github.com/stretchr/testify/require"
)

type captureMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (m *captureMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func useCaptureMailer(t *testing.T) *captureMailer {
	t.Helper()
	m := &captureMailer{}
	prev := mailer.Default()
	mailer.SetDefault(m)
	t.Cleanup(func() { mailer.SetDefault(prev) })
	return m
}

func mustCreateTeam(t *testing.T, r http.Handler, u testUser, name string) models.Team {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/teams", u.Token, map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Team](t, w)
}

func TestTeamLifecycle(t *testing.T) {
	r := newTestRouter(t)
	alice := newUser(t, "alice@example.com", "alice")
	bob := newUser(t, "bob@example.com", "bob")
	team := mustCreateTeam(t, r, alice, "Core")

	w := doJSON(t, r, http.MethodGet, "/api/teams/"+team.ID, alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"role":"owner"`)

	w = doJSON(t, r, http.MethodGet, "/api/teams/"+team.ID, bob.Token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodPut, "/api/teams/"+team.ID, alice.Token, map[string]string{"description": "platform"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "platform", decode[models.Team](t, w).Description)

	w = doJSON(t, r, http.MethodGet, "/api/teams", alice.Token, nil)
	require.Equal(t, 1, decode[struct{ Count int }](t, w).Count)

	w = doJSON(t, r, http.MethodDelete, "/api/teams/"+team.ID, alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, r, http.MethodGet, "/api/teams/"+team.ID, alice.Token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestInvitationFlow(t *testing.T) {
	r := newTestRouter(t)
	mail := useCaptureMailer(t)
	SetPublicBaseURL("https://hub.example.com/")
	t.Cleanup(func() { SetPublicBaseURL("http://localhost:8008") })

	alice := newUser(t, "alice@example.com", "alice")
	bob := newUser(t, "bob@example.com", "bob")
	eve := newUser(t, "eve@example.com", "eve")
	team := mustCreateTeam(t, r, alice, "Core")

	w := doJSON(t, r, http.MethodPost, "/api/teams/"+team.ID+"/invitations", bob.Token, map[string]string{"email": bob.Email})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/teams/"+team.ID+"/invitations", alice.Token, map[string]string{
		"email": bob.Email,
		"role":  "admin",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	inv := decode[models.TeamInvitation](t, w)
	require.Equal(t, models.InvitationPending, inv.Status)
	require.NotEmpty(t, inv.Token)

	require.Len(t, mail.sent, 1)
	require.Equal(t, bob.Email, mail.sent[0].ToEmail)
	require.Contains(t, mail.sent[0].Text, "https://hub.example.com/invitations/"+inv.Token)
	require.Contains(t, mail.sent[0].Text, "alice invited you")

	w = doJSON(t, r, http.MethodPost, "/api/teams/"+team.ID+"/invitations", alice.Token, map[string]string{"email": bob.Email})
	require.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/invitations/"+inv.Token, bob.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"name":"Core"`)

	w = doJSON(t, r, http.MethodPost, "/api/invitations/"+inv.Token+"/accept", eve.Token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/invitations/"+inv.Token+"/accept", bob.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	accepted := decode[struct {
		Invitation models.TeamInvitation
		Member     models.TeamMember
	}](t, w)
	require.Equal(t, models.InvitationAccepted, accepted.Invitation.Status)
	require.NotNil(t, accepted.Invitation.AcceptedAt)
	require.Equal(t, models.TeamRoleAdmin, accepted.Member.Role)

	w = doJSON(t, r, http.MethodPost, "/api/invitations/"+inv.Token+"/decline", bob.Token, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/teams/"+team.ID+"/members", bob.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 2, decode[struct{ Count int }](t, w).Count)
	require.Contains(t, w.Body.String(), `"username":"bob"`)

	w = doJSON(t, r, http.MethodPost, "/api/teams/"+team.ID+"/invitations", alice.Token, map[string]string{"email": bob.Email})
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestTeamMemberManagement(t *testing.T) {
	r := newTestRouter(t)
	useCaptureMailer(t)
	alice := newUser(t, "alice@example.com", "alice")
	bob := newUser(t, "bob@example.com", "bob")
	team := mustCreateTeam(t, r, alice, "Core")

	w := doJSON(t, r, http.MethodPost, "/api/teams/"+team.ID+"/invitations", alice.Token, map[string]string{"email": bob.Email})
	require.Equal(t, http.StatusCreated, w.Code)
	inv := decode[models.TeamInvitation](t, w)
	w = doJSON(t, r, http.MethodPost, "/api/invitations/"+inv.Token+"/accept", bob.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// plain members cannot manage
	w = doJSON(t, r, http.MethodPatch, "/api/teams/"+team.ID+"/members/"+alice.ID, bob.Token, map[string]string{"role": "member"})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodPatch, "/api/teams/"+team.ID+"/members/"+bob.ID, alice.Token, map[string]string{"role": "owner"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(t, r, http.MethodPatch, "/api/teams/"+team.ID+"/members/"+bob.ID, alice.Token, map[string]string{"role": "admin"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/teams/"+team.ID+"/members/"+alice.ID, bob.Token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// an admin cannot delete the team
	w = doJSON(t, r, http.MethodDelete, "/api/teams/"+team.ID, bob.Token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/teams/"+team.ID+"/members/"+bob.ID, bob.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, r, http.MethodGet, "/api/teams/"+team.ID+"/members", bob.Token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeclineInvitation(t *testing.T) {
	r := newTestRouter(t)
	useCaptureMailer(t)
	alice := newUser(t, "alice@example.com", "alice")
	bob := newUser(t, "bob@example.com", "bob")
	team := mustCreateTeam(t, r, alice, "Core")

	w := doJSON(t, r, http.MethodPost, "/api/teams/"+team.ID+"/invitations", alice.Token, map[string]string{"email": bob.Email})
	require.Equal(t, http.StatusCreated, w.Code)
	inv := decode[models.TeamInvitation](t, w)

	w = doJSON(t, r, http.MethodPost, "/api/invitations/"+inv.Token+"/decline", bob.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"declined"`)

	w = doJSON(t, r, http.MethodPost, "/api/invitations/"+inv.Token+"/accept", bob.Token, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/teams/"+team.ID+"/invitations", alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, decode[struct{ Count int }](t, w).Count)
}
