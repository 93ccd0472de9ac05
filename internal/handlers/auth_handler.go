package handlers

import (
	"errors"
	"net/http"
	"strings"

	"projecthub-api/internal/auth"
	"projecthub-api/internal/middleware"
	"projecthub-api/internal/models"
	"projecthub-api/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// SignupRequest represents the sign-up payload
type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Username string `json:"username" binding:"required"`
	FullName string `json:"fullName"`
}

// LoginRequest accepts either an email or a username
type LoginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// Signup handles POST /api/auth/signup
func Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if strings.TrimSpace(req.Username) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username is required"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(c, err, "Account")
		return
	}
	user, profile, err := store.CreateAccount(c.Request.Context(), req.Email, hash, req.Username, req.FullName)
	if errors.Is(err, store.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": "Email or username is already taken"})
		return
	}
	if err != nil {
		respondError(c, err, "Account")
		return
	}

	token, err := auth.GenerateToken(user.ID, profile.Username, user.Email)
	if err != nil {
		respondError(c, err, "Token")
		return
	}
	log.Info().Str("user_id", user.ID).Msg("account created")

	c.JSON(http.StatusCreated, gin.H{
		"token":   token,
		"user":    user,
		"profile": profile,
	})
}

// Login handles POST /api/auth/login
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request. Email or username and password are required.",
		})
		return
	}
	ctx := c.Request.Context()

	var (
		user *models.User
		err  error
	)
	switch {
	case strings.TrimSpace(req.Email) != "":
		user, err = store.FindUserByEmail(ctx, req.Email)
	case strings.TrimSpace(req.Username) != "":
		user, err = store.FindUserByUsername(ctx, strings.TrimSpace(req.Username))
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request. Email or username and password are required.",
		})
		return
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		respondError(c, err, "Login")
		return
	}
	if user == nil || !auth.CheckPassword(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	profile, err := store.GetProfile(ctx, user.ID)
	if err != nil {
		respondError(c, err, "Profile")
		return
	}
	token, err := auth.GenerateToken(user.ID, profile.Username, user.Email)
	if err != nil {
		respondError(c, err, "Token")
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:    token,
		UserID:   user.ID,
		Username: profile.Username,
		Message:  "Login successful",
	})
}

// Logout handles POST /api/auth/logout by revoking the presented token.
func Logout(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authorized"})
		return
	}
	if err := auth.Revoke(c.Request.Context(), claims); err != nil {
		respondError(c, err, "Logout")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// Session handles GET /api/auth/session
func Session(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authorized"})
		return
	}
	profile, err := store.GetProfile(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, err, "Profile")
		return
	}

	resp := gin.H{
		"user":    gin.H{"id": claims.UserID, "email": claims.Email},
		"profile": profile,
	}
	if claims.ExpiresAt != nil {
		resp["expiresAt"] = claims.ExpiresAt.Time
	}
	c.JSON(http.StatusOK, resp)
}
