package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"projecthub-api/internal/auth"
	"projecthub-api/internal/cache"
	"projecthub-api/internal/models"
	"projecthub-api/internal/store"
	"projecthub-api/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type testUser struct {
	ID    string
	Email string
	Token string
}

// newTestRouter wires every handler on a fresh in-memory database.
func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	testutil.UseInMemoryDB(t)
	auth.SetRevocationStore(cache.NewMemory())

	r := gin.New()
	Register(r.Group("/api"))
	return r
}

// newUser creates an account directly in the store and signs a token for it.
func newUser(t *testing.T, email, username string) testUser {
	t.Helper()
	hash, err := auth.HashPassword("secret123")
	require.NoError(t, err)
	u, p, err := store.CreateAccount(context.Background(), email, hash, username, username)
	require.NoError(t, err)
	token, err := auth.GenerateToken(u.ID, p.Username, u.Email)
	require.NoError(t, err)
	return testUser{ID: u.ID, Email: u.Email, Token: token}
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func mustCreateProject(t *testing.T, r http.Handler, u testUser, name string) models.Project {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/projects", u.Token, map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Project](t, w)
}

func mustCreateTask(t *testing.T, r http.Handler, u testUser, projectID string, body map[string]any) TaskResponse {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/projects/"+projectID+"/tasks", u.Token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[TaskResponse](t, w)
}
