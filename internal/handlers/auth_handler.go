package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"partner-office/internal/auth"
	"partner-office/internal/services"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
	tokens      *auth.TokenManager
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *services.AuthService, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		tokens:      tokens,
	}
}

// Login authenticates a partner by unique code and password.
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Code     string `json:"code" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	partner, identity, err := h.authService.Login(c.Request.Context(), req.Code, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := h.tokens.GenerateToken(identity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"partner": partner,
		"role":    identity.Role,
	})
}

// Register recruits a new sub-partner under a referrer code.
// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Code         string `json:"code" binding:"required"`
		Password     string `json:"password" binding:"required"`
		Nickname     string `json:"nickname"`
		Phone        string `json:"phone"`
		WebhookURL   string `json:"webhook_url"`
		ReferrerCode string `json:"referrer_code"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	partner, err := h.authService.Register(c.Request.Context(), services.RegisterInput{
		UniqueCode:   req.Code,
		Password:     req.Password,
		Nickname:     req.Nickname,
		Phone:        req.Phone,
		WebhookURL:   req.WebhookURL,
		ReferrerCode: req.ReferrerCode,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"partner": partner,
	})
}

// Logout handles partner logout (stateless JWT — client-side only)
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Successfully logged out",
	})
}

// GetMe returns the currently authenticated partner's profile
// GET /auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	identity, exists := auth.GetIdentity(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	partner, err := h.authService.GetByID(c.Request.Context(), identity.PartnerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"partner": partner,
		"role":    identity.Role,
	})
}
