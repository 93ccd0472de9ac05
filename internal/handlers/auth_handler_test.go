package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignup_CreatesAccountAndProfile(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":    "Alice@Example.com",
		"password": "secret123",
		"username": "alice",
		"fullName": "Alice Liddell",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decode[struct {
		Token   string
		User    map[string]any
		Profile map[string]any
	}](t, w)
	require.NotEmpty(t, resp.Token)
	require.Equal(t, "alice@example.com", resp.User["email"])
	require.NotContains(t, resp.User, "passwordHash")
	require.Equal(t, "Alice Liddell", resp.Profile["fullName"])

	w = doJSON(t, r, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":    "alice@example.com",
		"password": "secret123",
		"username": "alice2",
	})
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestSignup_Validation(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":    "not-an-email",
		"password": "secret123",
		"username": "bob",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":    "bob@example.com",
		"password": "123",
		"username": "bob",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "error")
}

func TestLogin_ByEmailAndUsername(t *testing.T) {
	r := newTestRouter(t)
	u := newUser(t, "alice@example.com", "alice")

	w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[LoginResponse](t, w)
	require.NotEmpty(t, resp.Token)
	require.Equal(t, u.ID, resp.UserID)
	require.Equal(t, "alice", resp.Username)

	w = doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	r := newTestRouter(t)
	newUser(t, "alice@example.com", "alice")

	w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{"password": "secret123"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionAndLogout(t *testing.T) {
	r := newTestRouter(t)
	u := newUser(t, "alice@example.com", "alice")

	w := doJSON(t, r, http.MethodGet, "/api/auth/session", u.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "alice@example.com")
	require.Contains(t, w.Body.String(), `"username":"alice"`)

	w = doJSON(t, r, http.MethodPost, "/api/auth/logout", u.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/auth/session", u.Token, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
