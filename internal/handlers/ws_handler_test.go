package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"projecthub-api/internal/models"
	"projecthub-api/internal/realtime"
	"projecthub-api/internal/store"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func wsURL(srv *httptest.Server, token, table, filter string) string {
	q := url.Values{"token": {token}, "table": {table}}
	if filter != "" {
		q.Set("filter", filter)
	}
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/realtime?" + q.Encode()
}

func TestWebSocket_ReceivesProjectTaskChanges(t *testing.T) {
	r := newTestRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	alice := newUser(t, "alice@example.com", "alice")
	p := mustCreateProject(t, r, alice, "Launch")
	other := mustCreateProject(t, r, alice, "Other")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, alice.Token, "tasks", "projectId=eq."+p.ID), nil)
	require.NoError(t, err)
	defer conn.Close()

	// no wait: the subscription exists once the handshake completes
	ctx := context.Background()
	_, err = store.CreateTask(ctx, store.NewTask{ProjectID: other.ID, UserID: alice.ID, Title: "ignored"})
	require.NoError(t, err)
	task, err := store.CreateTask(ctx, store.NewTask{ProjectID: p.ID, UserID: alice.ID, Title: "watched"})
	require.NoError(t, err)
	_, err = store.UpdateTaskStatus(ctx, task.ID, models.StatusReview)
	require.NoError(t, err)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var insert realtime.Message
	require.NoError(t, conn.ReadJSON(&insert))
	require.Equal(t, realtime.Insert, insert.Type)
	require.Equal(t, "tasks", insert.Table)
	var rec models.Task
	require.NoError(t, json.Unmarshal(insert.Record, &rec))
	require.Equal(t, "watched", rec.Title)

	var update realtime.Message
	require.NoError(t, conn.ReadJSON(&update))
	require.Equal(t, realtime.Update, update.Type)
	require.Equal(t, task.ID, update.Old.ID)
}

func TestWebSocket_RejectsForeignProject(t *testing.T) {
	r := newTestRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	alice := newUser(t, "alice@example.com", "alice")
	bob := newUser(t, "bob@example.com", "bob")
	p := mustCreateProject(t, r, alice, "Launch")

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, bob.Token, "tasks", "projectId:"+p.ID), nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(wsURL(srv, bob.Token, "tasks", "projectId:missing"), nil)
	require.Error(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(wsURL(srv, bob.Token, "secrets", ""), nil)
	require.Error(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(wsURL(srv, bob.Token, "tasks", ""), nil)
	require.Error(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAuthorizeFilter(t *testing.T) {
	newTestRouter(t)
	ctx := context.Background()
	alice := newUser(t, "alice@example.com", "alice")
	team, err := store.CreateTeam(ctx, alice.ID, "Core", "")
	require.NoError(t, err)

	require.NoError(t, authorizeFilter(ctx, alice.ID, alice.Email, realtime.Filter{Table: "projects", Column: "userId", Value: alice.ID}))
	require.ErrorIs(t, authorizeFilter(ctx, alice.ID, alice.Email, realtime.Filter{Table: "projects", Column: "userId", Value: "someone"}), store.ErrForbidden)
	require.NoError(t, authorizeFilter(ctx, alice.ID, alice.Email, realtime.Filter{Table: "team_members", Column: "teamId", Value: team.ID}))
	require.NoError(t, authorizeFilter(ctx, alice.ID, alice.Email, realtime.Filter{Table: "team_invitations", Column: "email", Value: alice.Email}))
	require.NoError(t, authorizeFilter(ctx, alice.ID, alice.Email, realtime.Filter{Table: "user_profiles"}))
	require.ErrorIs(t, authorizeFilter(ctx, alice.ID, alice.Email, realtime.Filter{Table: "comments", Column: "content", Value: "x"}), store.ErrForbidden)

	// plain members see the roster but not the pending invitations
	bob := newUser(t, "bob@example.com", "bob")
	inv, err := store.CreateInvitation(ctx, team.ID, alice.ID, bob.Email, models.TeamRoleMember)
	require.NoError(t, err)
	_, _, err = store.AcceptInvitation(ctx, inv.Token, bob.ID, bob.Email)
	require.NoError(t, err)

	invitations := realtime.Filter{Table: "team_invitations", Column: "teamId", Value: team.ID}
	require.NoError(t, authorizeFilter(ctx, alice.ID, alice.Email, invitations))
	require.ErrorIs(t, authorizeFilter(ctx, bob.ID, bob.Email, invitations), store.ErrForbidden)
	require.NoError(t, authorizeFilter(ctx, bob.ID, bob.Email, realtime.Filter{Table: "team_members", Column: "teamId", Value: team.ID}))
}

func TestWSClient_QueuesUntilAttached(t *testing.T) {
	c := newWSClient()
	require.True(t, c.Send([]byte(`{"type":"INSERT"}`)))
	require.Len(t, c.send, 1)

	dropped := newWSClient()
	dropped.Close()
	require.False(t, dropped.Send([]byte("x")))
	require.False(t, dropped.attach(nil))
}
