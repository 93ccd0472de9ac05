// Package handlers implements the HTTP API. Handlers read the caller from the
// gin context (set by the JWT middleware), call the store and render JSON.
// Every failure is rendered as {"error": "..."}.
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"projecthub-api/internal/auth"
	"projecthub-api/internal/middleware"
	"projecthub-api/internal/models"
	"projecthub-api/internal/storage"
	"projecthub-api/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var (
	settingsMu    sync.RWMutex
	publicBaseURL = "http://localhost:8008"
)

// SetPublicBaseURL sets the origin used in links sent by email.
func SetPublicBaseURL(u string) {
	settingsMu.Lock()
	defer settingsMu.Unlock()
	publicBaseURL = strings.TrimRight(u, "/")
}

func baseURL() string {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return publicBaseURL
}

// currentUser returns the authenticated user id, answering 401 when absent.
func currentUser(c *gin.Context) (string, bool) {
	userID := c.GetString(middleware.UserIDKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in token"})
		return "", false
	}
	return userID, true
}

// respondError maps err onto a status code. what names the resource for
// not-found messages and the action for internal failures.
func respondError(c *gin.Context, err error, what string) {
	status := http.StatusInternalServerError
	msg := err.Error()
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		status, msg = http.StatusNotFound, what+" not found"
	case errors.Is(err, store.ErrForbidden):
		status, msg = http.StatusForbidden, "You do not have permission to do this"
	case errors.Is(err, store.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, store.ErrInvalidState),
		errors.Is(err, storage.ErrInvalidKey),
		errors.Is(err, auth.ErrWeakPassword):
		status = http.StatusBadRequest
	case errors.Is(err, storage.ErrTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, storage.ErrUnsupported):
		status = http.StatusUnsupportedMediaType
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Str("user_id", c.GetString(middleware.UserIDKey)).
			Msg("request failed: " + what)
		msg = "Failed to process " + strings.ToLower(what)
	}
	c.JSON(status, gin.H{"error": msg})
}

// badRequest answers a binding failure.
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// projectRole checks that userID may see the project, writing the error
// response otherwise. write additionally requires owner or editor.
func projectRole(c *gin.Context, projectID, userID string, write bool) (models.ProjectRole, bool) {
	role, err := store.ProjectAccess(c.Request.Context(), projectID, userID)
	if err != nil {
		respondError(c, err, "Project")
		return "", false
	}
	if write && role == models.ProjectRoleViewer {
		respondError(c, store.ErrForbidden, "Project")
		return "", false
	}
	return role, true
}

// requireProjectOwner lets only the project owner through.
func requireProjectOwner(c *gin.Context, projectID, userID string) bool {
	role, ok := projectRole(c, projectID, userID, true)
	if !ok {
		return false
	}
	if role != models.ProjectRoleOwner {
		respondError(c, store.ErrForbidden, "Project")
		return false
	}
	return true
}

// loadTask fetches a task and checks project access for userID.
func loadTask(c *gin.Context, taskID, userID string, write bool) (*models.Task, bool) {
	task, err := store.GetTask(c.Request.Context(), taskID)
	if err != nil {
		respondError(c, err, "Task")
		return nil, false
	}
	if _, ok := projectRole(c, task.ProjectID, userID, write); !ok {
		return nil, false
	}
	return task, true
}

// teamRole checks membership and, with manage set, an owner or admin role.
func teamRole(c *gin.Context, teamID, userID string, manage bool) (models.TeamRole, bool) {
	ctx := c.Request.Context()
	if _, err := store.GetTeam(ctx, teamID); err != nil {
		respondError(c, err, "Team")
		return "", false
	}
	role, err := store.TeamRoleOf(ctx, teamID, userID)
	if err != nil {
		respondError(c, err, "Team")
		return "", false
	}
	if manage && !role.CanManage() {
		respondError(c, store.ErrForbidden, "Team")
		return "", false
	}
	return role, true
}
