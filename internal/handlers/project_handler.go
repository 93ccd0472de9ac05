package handlers

import (
	"net/http"
	"strings"

	"projecthub-api/internal/models"
	"projecthub-api/internal/store"

	"github.com/gin-gonic/gin"
)

// ProjectRequest is the payload of create and update
type ProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// AddMemberRequest shares a project with another user
type AddMemberRequest struct {
	UserID string             `json:"userId" binding:"required"`
	Role   models.ProjectRole `json:"role" binding:"omitempty,oneof=editor viewer"`
}

// GetProjects handles GET /api/projects
func GetProjects(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projects, err := store.ListProjects(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Projects")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"projects": projects,
		"count":    len(projects),
	})
}

// CreateProject handles POST /api/projects
func CreateProject(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Project name is required"})
		return
	}
	description := ""
	if req.Description != nil {
		description = *req.Description
	}

	project, err := store.CreateProject(c.Request.Context(), userID, strings.TrimSpace(*req.Name), description)
	if err != nil {
		respondError(c, err, "Project")
		return
	}
	c.JSON(http.StatusCreated, project)
}

// GetProjectByID handles GET /api/projects/:id
func GetProjectByID(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID := c.Param("id")
	role, ok := projectRole(c, projectID, userID, false)
	if !ok {
		return
	}
	project, err := store.GetProject(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err, "Project")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"project": project,
		"role":    role,
	})
}

// UpdateProject handles PUT /api/projects/:id (owner only)
func UpdateProject(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID := c.Param("id")
	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Project name cannot be empty"})
			return
		}
		req.Name = &name
	}
	if !requireProjectOwner(c, projectID, userID) {
		return
	}

	project, err := store.UpdateProject(c.Request.Context(), projectID, store.ProjectPatch{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err, "Project")
		return
	}
	c.JSON(http.StatusOK, project)
}

// DeleteProject handles DELETE /api/projects/:id (owner only). The project's
// tasks go with it.
func DeleteProject(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID := c.Param("id")
	if !requireProjectOwner(c, projectID, userID) {
		return
	}
	if err := store.DeleteProject(c.Request.Context(), projectID); err != nil {
		respondError(c, err, "Project")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Project deleted successfully",
		"id":      projectID,
	})
}

// GetProjectMembers handles GET /api/projects/:id/members
func GetProjectMembers(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID := c.Param("id")
	if _, ok := projectRole(c, projectID, userID, false); !ok {
		return
	}
	members, err := store.ListProjectMembers(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err, "Members")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"members": members,
		"count":   len(members),
	})
}

// AddProjectMember handles POST /api/projects/:id/members (owner only)
func AddProjectMember(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID := c.Param("id")
	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if !requireProjectOwner(c, projectID, userID) {
		return
	}
	ctx := c.Request.Context()
	if req.UserID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "The owner is already a member"})
		return
	}
	if _, err := store.GetUser(ctx, req.UserID); err != nil {
		respondError(c, err, "User")
		return
	}

	member, err := store.AddProjectMember(ctx, projectID, req.UserID, req.Role)
	if err != nil {
		respondError(c, err, "Member")
		return
	}
	c.JSON(http.StatusCreated, member)
}

// RemoveProjectMember handles DELETE /api/projects/:id/members/:userId.
// The owner removes anyone; members may remove themselves.
func RemoveProjectMember(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID := c.Param("id")
	target := c.Param("userId")
	if target != userID && !requireProjectOwner(c, projectID, userID) {
		return
	}
	if err := store.RemoveProjectMember(c.Request.Context(), projectID, target); err != nil {
		respondError(c, err, "Member")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Member removed",
		"userId":  target,
	})
}
