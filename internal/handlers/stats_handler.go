package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"partner-office/internal/auth"
	"partner-office/internal/services"
)

// StatsHandler handles scoped aggregation endpoints
type StatsHandler struct {
	statsService *services.StatsService
	policy       *services.ScopePolicy
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(statsService *services.StatsService, policy *services.ScopePolicy) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
		policy:       policy,
	}
}

// GetStats returns the status breakdown over the caller's visible scope.
// GET /api/leads/stats?code=&mine=
func (h *StatsHandler) GetStats(c *gin.Context) {
	identity, exists := auth.GetIdentity(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	scope, err := h.policy.VisibleScope(c.Request.Context(), identity)
	if err != nil {
		respondError(c, err)
		return
	}

	scope, err = h.policy.Narrow(scope, identity, c.Query("code"), c.Query("mine") == "true")
	if err != nil {
		respondError(c, err)
		return
	}

	stats, err := h.statsService.Stats(c.Request.Context(), scope)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetPartnerTree returns one row per descendant of the caller with that
// descendant's own lead count.
// GET /api/partners/tree
func (h *StatsHandler) GetPartnerTree(c *gin.Context) {
	identity, exists := auth.GetIdentity(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	summaries, err := h.statsService.PerDescendant(c.Request.Context(), identity.UniqueCode)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":          summaries,
		"count":          len(summaries),
		"requester_code": identity.UniqueCode,
	})
}
