package handlers

import (
	"net/http"
	"regexp"
	"strings"

	"projecthub-api/internal/store"

	"github.com/gin-gonic/gin"
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

type CreateTagRequest struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color"`
}

type AttachTagRequest struct {
	TagID string `json:"tagId" binding:"required"`
}

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// GetTags handles GET /api/tags
func GetTags(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	tags, err := store.ListTags(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Tags")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags, "count": len(tags)})
}

// CreateTag handles POST /api/tags
func CreateTag(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tag name is required"})
		return
	}
	if req.Color != "" && !hexColor.MatchString(req.Color) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Color must be a hex value like #ff8800"})
		return
	}

	tag, err := store.CreateTag(c.Request.Context(), userID, req.Name, req.Color)
	if err != nil {
		respondError(c, err, "Tag")
		return
	}
	c.JSON(http.StatusCreated, tag)
}

// DeleteTag handles DELETE /api/tags/:id
func DeleteTag(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	tagID := c.Param("id")
	if err := store.DeleteTag(c.Request.Context(), tagID, userID); err != nil {
		respondError(c, err, "Tag")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tag deleted successfully", "id": tagID})
}

// GetTaskTags handles GET /api/tasks/:id/tags
func GetTaskTags(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	task, ok := loadTask(c, c.Param("id"), userID, false)
	if !ok {
		return
	}
	tags, err := store.ListTaskTags(c.Request.Context(), task.ID)
	if err != nil {
		respondError(c, err, "Tags")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags, "count": len(tags)})
}

// AttachTag handles POST /api/tasks/:id/tags. Only the tag's owner may use it.
func AttachTag(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req AttachTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	task, ok := loadTask(c, c.Param("id"), userID, true)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	tag, err := store.GetTag(ctx, req.TagID)
	if err != nil {
		respondError(c, err, "Tag")
		return
	}
	if tag.UserID != userID {
		respondError(c, store.ErrForbidden, "Tag")
		return
	}

	link, err := store.AddTaskTag(ctx, task.ID, tag.ID)
	if err != nil {
		respondError(c, err, "Tag")
		return
	}
	c.JSON(http.StatusCreated, link)
}

// DetachTag handles DELETE /api/tasks/:id/tags/:tagId
func DetachTag(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	task, ok := loadTask(c, c.Param("id"), userID, true)
	if !ok {
		return
	}
	tagID := c.Param("tagId")
	if err := store.RemoveTaskTag(c.Request.Context(), task.ID, tagID); err != nil {
		respondError(c, err, "Tag")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tag removed", "taskId": task.ID, "tagId": tagID})
}

// GetComments handles GET /api/tasks/:id/comments
func GetComments(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	task, ok := loadTask(c, c.Param("id"), userID, false)
	if !ok {
		return
	}
	comments, err := store.ListComments(c.Request.Context(), task.ID)
	if err != nil {
		respondError(c, err, "Comments")
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments, "count": len(comments)})
}

// CreateComment handles POST /api/tasks/:id/comments. Anyone who can see
// the task may comment.
func CreateComment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Comment cannot be empty"})
		return
	}
	task, ok := loadTask(c, c.Param("id"), userID, false)
	if !ok {
		return
	}

	comment, err := store.CreateComment(c.Request.Context(), task.ID, userID, req.Content)
	if err != nil {
		respondError(c, err, "Comment")
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// DeleteComment handles DELETE /api/comments/:id (author only)
func DeleteComment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	commentID := c.Param("id")
	if err := store.DeleteComment(c.Request.Context(), commentID, userID); err != nil {
		respondError(c, err, "Comment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully", "id": commentID})
}
