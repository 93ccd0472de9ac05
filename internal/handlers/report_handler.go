package handlers

import (
	"net/http"
	"strings"
	"time"

	"projecthub-api/internal/models"
	"projecthub-api/internal/reports"
	"projecthub-api/internal/store"

	"github.com/gin-gonic/gin"
)

// now is swapped in tests.
var now = time.Now

// GetSummary handles GET /api/reports/summary across every visible project
func GetSummary(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	projects, err := store.ListProjects(ctx, userID)
	if err != nil {
		respondError(c, err, "Report")
		return
	}
	ids := make([]string, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	tasks, err := store.ListTasksInProjects(ctx, ids)
	if err != nil {
		respondError(c, err, "Report")
		return
	}
	c.JSON(http.StatusOK, reports.Summarize(projects, tasks, now()))
}

// GetProjectReport handles GET /api/reports/projects/:id
func GetProjectReport(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID := c.Param("id")
	if _, ok := projectRole(c, projectID, userID, false); !ok {
		return
	}
	ctx := c.Request.Context()
	project, err := store.GetProject(ctx, projectID)
	if err != nil {
		respondError(c, err, "Project")
		return
	}
	tasks, err := store.ListProjectTasks(ctx, projectID, store.TaskFilter{})
	if err != nil {
		respondError(c, err, "Report")
		return
	}
	c.JSON(http.StatusOK, reports.Summarize([]models.Project{*project}, tasks, now()))
}

// GetStatsByUser handles GET /api/stats/:userid
// Returns counts of tasks by status where the assignee matches :userid,
// counting only projects the caller can see.
func GetStatsByUser(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	targetUserID := c.Param("userid")
	if strings.TrimSpace(targetUserID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userid is required"})
		return
	}

	counts, err := store.CountTasksByStatus(c.Request.Context(), userID, targetUserID)
	if err != nil {
		respondError(c, err, "Stats")
		return
	}
	var total int64
	for _, n := range counts {
		total += n
	}

	c.JSON(http.StatusOK, gin.H{
		"todo":       counts[models.StatusTodo],
		"inProgress": counts[models.StatusInProgress],
		"review":     counts[models.StatusReview],
		"completed":  counts[models.StatusCompleted],
		"total":      total,
	})
}
