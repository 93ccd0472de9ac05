package handlers

import (
	"net/http"
	"strings"

	"projecthub-api/internal/storage"
	"projecthub-api/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// avatarRoute is the public prefix avatars are served under.
const avatarRoute = "/api/avatars/"

type UserResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatarUrl"`
}

// UpdateProfileRequest carries the editable profile fields
type UpdateProfileRequest struct {
	Username *string `json:"username"`
	FullName *string `json:"fullName"`
	JobTitle *string `json:"jobTitle"`
	Bio      *string `json:"bio"`
}

// GetAllUsers returns every profile for assignee and invitation pickers
// GET /api/users
func GetAllUsers(c *gin.Context) {
	profiles, err := store.ListProfiles(c.Request.Context())
	if err != nil {
		respondError(c, err, "Users")
		return
	}

	resp := make([]UserResponse, 0, len(profiles))
	for _, p := range profiles {
		resp = append(resp, UserResponse{
			ID:        p.ID,
			Username:  p.Username,
			FullName:  p.FullName,
			AvatarURL: p.AvatarURL,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"users": resp,
		"count": len(resp),
	})
}

// GetProfile handles GET /api/profile
func GetProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	profile, err := store.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Profile")
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfile handles PUT /api/profile
func UpdateProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Username != nil && strings.TrimSpace(*req.Username) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username cannot be empty"})
		return
	}

	profile, err := store.UpdateProfile(c.Request.Context(), userID, store.ProfilePatch{
		Username: req.Username,
		FullName: req.FullName,
		JobTitle: req.JobTitle,
		Bio:      req.Bio,
	})
	if err != nil {
		respondError(c, err, "Profile")
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UploadAvatar handles POST /api/profile/avatar (multipart field "avatar")
func UploadAvatar(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	bucket := storage.Default()
	if bucket == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Avatar storage is not configured"})
		return
	}

	header, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Avatar file is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, err, "Avatar")
		return
	}
	defer file.Close()

	ctx := c.Request.Context()
	previous, err := store.GetProfile(ctx, userID)
	if err != nil {
		respondError(c, err, "Profile")
		return
	}

	obj, err := bucket.PutAvatar(userID, file)
	if err != nil {
		respondError(c, err, "Avatar")
		return
	}
	profile, err := store.SetAvatarURL(ctx, userID, avatarRoute+obj.Key)
	if err != nil {
		_ = bucket.Delete(obj.Key)
		respondError(c, err, "Profile")
		return
	}

	if old, found := strings.CutPrefix(previous.AvatarURL, avatarRoute); found && old != obj.Key {
		if err := bucket.Delete(old); err != nil {
			log.Warn().Err(err).Str("key", old).Msg("could not remove previous avatar")
		}
	}
	c.JSON(http.StatusOK, profile)
}

// ServeAvatar handles GET /api/avatars/*key
func ServeAvatar(c *gin.Context) {
	bucket := storage.Default()
	if bucket == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Avatar not found"})
		return
	}
	f, obj, err := bucket.Open(strings.TrimPrefix(c.Param("key"), "/"))
	if err != nil {
		respondError(c, err, "Avatar")
		return
	}
	defer f.Close()

	c.Header("Cache-Control", "public, max-age=86400")
	c.DataFromReader(http.StatusOK, obj.Size, obj.ContentType, f, nil)
}
