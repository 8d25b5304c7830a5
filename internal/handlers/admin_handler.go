package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"partner-office/internal/services"
)

// AdminHandler handles administrator-only endpoints
type AdminHandler struct {
	partnerService   *services.AuthService
	integrityService *services.IntegrityService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(
	partnerService *services.AuthService,
	integrityService *services.IntegrityService,
) *AdminHandler {
	return &AdminHandler{
		partnerService:   partnerService,
		integrityService: integrityService,
	}
}

// ListPartners returns every partner account.
// GET /api/admin/partners
func (h *AdminHandler) ListPartners(c *gin.Context) {
	partners, err := h.partnerService.AllPartners(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": partners,
		"count": len(partners),
	})
}

// RunIntegrityCheck audits the referral edge set on demand.
// POST /api/admin/integrity/check
func (h *AdminHandler) RunIntegrityCheck(c *gin.Context) {
	report, err := h.integrityService.CheckEdges(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"clean":  report.Clean(),
		"report": report,
	})
}
