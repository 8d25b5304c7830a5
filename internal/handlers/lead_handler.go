package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"partner-office/internal/auth"
	"partner-office/internal/services"
)

// LeadHandler handles scoped lead listing and lifecycle endpoints
type LeadHandler struct {
	leadService *services.LeadService
}

// NewLeadHandler creates a new LeadHandler
func NewLeadHandler(leadService *services.LeadService) *LeadHandler {
	return &LeadHandler{leadService: leadService}
}

// ListLeads returns the caller's scoped lead listing.
// GET /api/leads?status=&search=&code=&mine=&page=&page_size=
func (h *LeadHandler) ListLeads(c *gin.Context) {
	identity, exists := auth.GetIdentity(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	listing, err := h.leadService.ListLeads(c.Request.Context(), identity, services.ListOptions{
		Status:   c.Query("status"),
		Search:   c.Query("search"),
		Code:     c.Query("code"),
		OnlyMine: c.Query("mine") == "true",
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, listing)
}

// GetLead returns a single lead inside the caller's scope.
// GET /api/leads/:id
func (h *LeadHandler) GetLead(c *gin.Context) {
	identity, exists := auth.GetIdentity(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lead id"})
		return
	}

	lead, err := h.leadService.GetLead(c.Request.Context(), identity, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"lead": lead})
}

// UpdateStatus applies a lifecycle transition to a lead.
// PUT /api/leads/:id/status
func (h *LeadHandler) UpdateStatus(c *gin.Context) {
	identity, exists := auth.GetIdentity(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lead id"})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lead, err := h.leadService.Transition(c.Request.Context(), identity, id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"lead":    lead,
	})
}
