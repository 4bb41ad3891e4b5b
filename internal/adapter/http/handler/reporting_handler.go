package handler

import (
	"strconv"

	"relief-fund-gateway/internal/core/ports"
	"relief-fund-gateway/pkg/response"

	"github.com/gin-gonic/gin"
)

// ReportingHandler handles read-only reporting endpoints.
type ReportingHandler struct {
	reportingSvc ports.ReportingService
}

// NewReportingHandler creates a new ReportingHandler.
func NewReportingHandler(reportingSvc ports.ReportingService) *ReportingHandler {
	return &ReportingHandler{reportingSvc: reportingSvc}
}

// CampaignStats handles GET /api/v1/campaigns/:id/stats.
func (h *ReportingHandler) CampaignStats(c *gin.Context) {
	campaignID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	stats, err := h.reportingSvc.CampaignStats(c.Request.Context(), campaignID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}

// CampaignEvents handles GET /api/v1/campaigns/:id/events.
func (h *ReportingHandler) CampaignEvents(c *gin.Context) {
	campaignID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	events, err := h.reportingSvc.CampaignEvents(c.Request.Context(), campaignID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, events)
}

// WalletStatement handles GET /api/v1/wallets/:id/statement.
func (h *ReportingHandler) WalletStatement(c *gin.Context) {
	walletID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	stmt, err := h.reportingSvc.WalletStatement(c.Request.Context(), walletID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stmt)
}

// PlatformStats handles GET /api/v1/stats.
func (h *ReportingHandler) PlatformStats(c *gin.Context) {
	stats, err := h.reportingSvc.PlatformStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}
