package handlers

import (
	"projecthub-api/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Register mounts every API endpoint on api, normally the "/api" group.
func Register(api *gin.RouterGroup) {
	// Public routes (no authentication required)
	api.POST("/auth/signup", Signup)
	api.POST("/auth/login", Login)
	// <img> tags cannot send a bearer token; avatar keys are unguessable
	api.GET("/avatars/*key", ServeAvatar)

	// Protected routes (authentication required)
	protectedRoutes := api.Group("")
	protectedRoutes.Use(middleware.JWTAuthMiddleware())
	{
		protectedRoutes.POST("/auth/logout", Logout)
		protectedRoutes.GET("/auth/session", Session)

		// Profile and users
		protectedRoutes.GET("/profile", GetProfile)
		protectedRoutes.PUT("/profile", UpdateProfile)
		protectedRoutes.POST("/profile/avatar", UploadAvatar)
		protectedRoutes.GET("/users", GetAllUsers)

		// Projects
		protectedRoutes.GET("/projects", GetProjects)
		protectedRoutes.POST("/projects", CreateProject)
		protectedRoutes.GET("/projects/:id", GetProjectByID)
		protectedRoutes.PUT("/projects/:id", UpdateProject)
		protectedRoutes.DELETE("/projects/:id", DeleteProject)
		protectedRoutes.GET("/projects/:id/members", GetProjectMembers)
		protectedRoutes.POST("/projects/:id/members", AddProjectMember)
		protectedRoutes.DELETE("/projects/:id/members/:userId", RemoveProjectMember)

		// Tasks and the Kanban board
		protectedRoutes.GET("/projects/:id/tasks", GetProjectTasks)
		protectedRoutes.POST("/projects/:id/tasks", CreateTask)
		protectedRoutes.GET("/projects/:id/board", GetProjectBoard)
		protectedRoutes.GET("/tasks", GetTasks)
		protectedRoutes.GET("/tasks/:id", GetTaskByID)
		protectedRoutes.PUT("/tasks/:id", UpdateTask)
		protectedRoutes.PATCH("/tasks/:id/status", UpdateTaskStatus)
		protectedRoutes.DELETE("/tasks/:id", DeleteTask)

		// Tags and comments
		protectedRoutes.GET("/tags", GetTags)
		protectedRoutes.POST("/tags", CreateTag)
		protectedRoutes.DELETE("/tags/:id", DeleteTag)
		protectedRoutes.GET("/tasks/:id/tags", GetTaskTags)
		protectedRoutes.POST("/tasks/:id/tags", AttachTag)
		protectedRoutes.DELETE("/tasks/:id/tags/:tagId", DetachTag)
		protectedRoutes.GET("/tasks/:id/comments", GetComments)
		protectedRoutes.POST("/tasks/:id/comments", CreateComment)
		protectedRoutes.DELETE("/comments/:id", DeleteComment)

		// Teams and invitations
		protectedRoutes.GET("/teams", GetTeams)
		protectedRoutes.POST("/teams", CreateTeam)
		protectedRoutes.GET("/teams/:id", GetTeamByID)
		protectedRoutes.PUT("/teams/:id", UpdateTeam)
		protectedRoutes.DELETE("/teams/:id", DeleteTeam)
		protectedRoutes.GET("/teams/:id/members", GetTeamMembers)
		protectedRoutes.PATCH("/teams/:id/members/:userId", UpdateTeamMember)
		protectedRoutes.DELETE("/teams/:id/members/:userId", RemoveTeamMember)
		protectedRoutes.GET("/teams/:id/invitations", GetTeamInvitations)
		protectedRoutes.POST("/teams/:id/invitations", CreateInvitation)
		protectedRoutes.GET("/invitations/:token", GetInvitation)
		protectedRoutes.POST("/invitations/:token/accept", AcceptInvitation)
		protectedRoutes.POST("/invitations/:token/decline", DeclineInvitation)

		// Reports
		protectedRoutes.GET("/reports/summary", GetSummary)
		protectedRoutes.GET("/reports/projects/:id", GetProjectReport)
		protectedRoutes.GET("/stats/:userid", GetStatsByUser)

		// Realtime row changes over WebSocket
		protectedRoutes.GET("/realtime", WebSocketHandler)
	}
}
