package api

import (
	"net/http"

	"github.com/claro-app/claro-server/internal/apperr"
	"github.com/claro-app/claro-server/internal/database"
	"github.com/claro-app/claro-server/internal/models"
	pkgauth "github.com/claro-app/claro-server/pkg/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	db         *database.Database
	jwtManager *pkgauth.JWTManager
	logger     *zap.Logger
}

func NewAuthHandler(db *database.Database, jwtManager *pkgauth.JWTManager, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{db: db, jwtManager: jwtManager, logger: logger}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required,min=2"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	hashedPassword, err := pkgauth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to hash password"})
		return
	}

	user := &models.User{
		Email:    req.Email,
		Name:     req.Name,
		Password: hashedPassword,
		Role:     models.UserRoleUser,
	}

	if err := h.db.CreateUser(user); err != nil {
		respondError(c, err)
		return
	}

	token, err := h.jwtManager.Generate(user.ID, user.Email, user.Name, string(user.Role))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to generate token"})
		return
	}

	respondData(c, http.StatusCreated, "User registered successfully", gin.H{
		"user":  user,
		"token": token,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	user, err := h.db.GetUserByEmail(req.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid credentials"})
		return
	}

	// Externally-authenticated accounts have no password hash and cannot
	// log in with one.
	if user.Password == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid credentials"})
		return
	}

	if err := pkgauth.CheckPassword(req.Password, user.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid credentials"})
		return
	}

	if err := h.db.TouchLastActive(user.ID); err != nil {
		// Login still succeeds; the timestamp is advisory.
		h.logger.Warn("last-active update failed",
			zap.Uint("user_id", user.ID), zap.Error(err))
	}

	token, err := h.jwtManager.Generate(user.ID, user.Email, user.Name, string(user.Role))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to generate token"})
		return
	}

	respondData(c, http.StatusOK, "Login successful", gin.H{
		"user":  user,
		"token": token,
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, exists := c.Get("user")
	if !exists {
		respondError(c, apperr.ErrUnauthenticated)
		return
	}
	respondData(c, http.StatusOK, "", gin.H{"user": user})
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID := currentUserID(c)

	var req struct {
		Name string `json:"name" binding:"required,min=2"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	user, err := h.db.GetUserByID(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	user.Name = req.Name
	if err := h.db.UpdateUser(user); err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Profile updated successfully", gin.H{"user": user})
}
