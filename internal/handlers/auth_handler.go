package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/promptacademy/backend/internal/config"
	"github.com/promptacademy/backend/internal/middleware"
	"github.com/promptacademy/backend/internal/models"
	"github.com/promptacademy/backend/internal/services/entitlement"
	"github.com/promptacademy/backend/internal/utils"
	"gorm.io/gorm"
)

// AuthHandler handles registration and login
type AuthHandler struct {
	db  *gorm.DB
	cfg *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg}
}

// SignupRequest represents a registration request
type SignupRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Username     string `json:"username" binding:"required,min=3,max=50"`
	FullName     string `json:"full_name"`
	Password     string `json:"password" binding:"required,min=8"`
	ReferralCode string `json:"referral_code"`
}

// Signup registers a new user. A valid referral code links the new account to
// its referrer; an unknown code is ignored rather than failing registration.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process password"})
		return
	}

	var referredBy *uuid.UUID
	if req.ReferralCode != "" {
		var referrer models.User
		if err := h.db.Where("referral_code = ?", req.ReferralCode).First(&referrer).Error; err == nil {
			referredBy = &referrer.ID
		}
	}

	user := models.User{
		ID:               uuid.New(),
		Email:            req.Email,
		Username:         req.Username,
		FullName:         req.FullName,
		PasswordHash:     hash,
		SubscriptionTier: models.TierFree,
		ReferralCode:     utils.GenerateReferralCode(8),
		ReferredByID:     referredBy,
		IsActive:         true,
	}

	if err := h.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "email or username already taken"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create account"})
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Email, user.IsAdmin,
		time.Duration(h.cfg.JWT.Expiration)*time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"user":   user,
		"token":  token,
	})
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates a user and issues a token
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if !user.IsActive || !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	now := time.Now()
	h.db.Model(&user).Update("last_login_at", now)

	token, err := utils.GenerateToken(user.ID, user.Email, user.IsAdmin,
		time.Duration(h.cfg.JWT.Expiration)*time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"user":   user,
		"token":  token,
	})
}

// Me returns the authenticated user's profile with the live entitlement
// flags; clients read these rather than comparing expiry timestamps
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	now := time.Now()
	c.JSON(http.StatusOK, gin.H{
		"status":              "success",
		"user":                user,
		"subscription_active": entitlement.HasActiveSubscription(user, now),
		"agency_access":       entitlement.HasAgencyAccess(user, now),
	})
}
