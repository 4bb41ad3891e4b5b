package handler

import (
	"strconv"
	"time"

	"relief-fund-gateway/internal/adapter/http/dto"
	"relief-fund-gateway/internal/core/domain"
	"relief-fund-gateway/internal/core/ports"
	"relief-fund-gateway/pkg/apperror"
	"relief-fund-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CampaignHandler handles campaign lifecycle, donations, the beneficiary
// application workflow, and allocations.
type CampaignHandler struct {
	registrySvc ports.RegistryService
	campaignSvc ports.CampaignService
}

// NewCampaignHandler creates a new CampaignHandler.
func NewCampaignHandler(registrySvc ports.RegistryService, campaignSvc ports.CampaignService) *CampaignHandler {
	return &CampaignHandler{
		registrySvc: registrySvc,
		campaignSvc: campaignSvc,
	}
}

// Create handles POST /api/v1/campaigns.
func (h *CampaignHandler) Create(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}

	var req dto.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	campaign, err := h.registrySvc.CreateCampaign(c.Request.Context(), caller, ports.CreateCampaignRequest{
		Title:        req.Title,
		Description:  req.Description,
		Location:     req.Location,
		DisasterType: req.DisasterType,
		GoalAmount:   req.GoalAmount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toCampaignResponse(campaign))
}

// Get handles GET /api/v1/campaigns/:id.
func (h *CampaignHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	campaign, err := h.registrySvc.GetCampaign(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toCampaignResponse(campaign))
}

// List handles GET /api/v1/campaigns.
func (h *CampaignHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	campaigns, err := h.registrySvc.ListCampaigns(c.Request.Context(), limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.CampaignResponse, 0, len(campaigns))
	for i := range campaigns {
		items = append(items, toCampaignResponse(&campaigns[i]))
	}
	response.OK(c, dto.CampaignListResponse{Items: items, Limit: limit, Offset: offset})
}

// Donate handles POST /api/v1/campaigns/:id/donations.
func (h *CampaignHandler) Donate(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	campaignID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req dto.DonateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	donation, err := h.campaignSvc.Donate(c.Request.Context(), caller, campaignID, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toDonationResponse(donation))
}

// ListDonations handles GET /api/v1/campaigns/:id/donations.
func (h *CampaignHandler) ListDonations(c *gin.Context) {
	campaignID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	donations, err := h.campaignSvc.ListDonations(c.Request.Context(), campaignID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.DonationResponse, 0, len(donations))
	for i := range donations {
		items = append(items, toDonationResponse(&donations[i]))
	}
	response.OK(c, items)
}

// Apply handles POST /api/v1/campaigns/:id/applications — the caller applies
// as a beneficiary of the campaign.
func (h *CampaignHandler) Apply(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	campaignID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	app, err := h.campaignSvc.ApplyAsBeneficiary(c.Request.Context(), caller, campaignID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toApplicationResponse(app))
}

// ApproveBeneficiary handles POST /api/v1/campaigns/:id/applications/:beneficiary/approve.
func (h *CampaignHandler) ApproveBeneficiary(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	campaignID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	beneficiary, ok := pathUUID(c, "beneficiary")
	if !ok {
		return
	}

	if err := h.campaignSvc.ApproveBeneficiary(c.Request.Context(), caller, campaignID, beneficiary); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"beneficiary": beneficiary.String(), "state": string(domain.ApplicationStateApproved)})
}

// RejectBeneficiary handles POST /api/v1/campaigns/:id/applications/:beneficiary/reject.
func (h *CampaignHandler) RejectBeneficiary(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	campaignID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	beneficiary, ok := pathUUID(c, "beneficiary")
	if !ok {
		return
	}

	if err := h.campaignSvc.RejectBeneficiary(c.Request.Context(), caller, campaignID, beneficiary); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"beneficiary": beneficiary.String(), "state": string(domain.ApplicationStateRejected)})
}

// Allocate handles POST /api/v1/campaigns/:id/allocations — moves escrow
// funds into the beneficiary's restricted wallet.
func (h *CampaignHandler) Allocate(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	campaignID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req dto.AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	beneficiary, err := uuid.Parse(req.Beneficiary)
	if err != nil {
		response.Error(c, apperror.Validation("invalid beneficiary: must be a UUID"))
		return
	}

	wallet, err := h.campaignSvc.AllocateFunds(c.Request.Context(), caller, campaignID, beneficiary, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toWalletResponse(wallet))
}

// SetStatus handles PATCH /api/v1/campaigns/:id/status.
func (h *CampaignHandler) SetStatus(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	campaignID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req dto.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.campaignSvc.SetStatus(c.Request.Context(), caller, campaignID, domain.CampaignStatus(req.Status)); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"campaign_id": campaignID.String(), "status": req.Status})
}

// GetBeneficiaryWallet handles GET /api/v1/campaigns/:id/beneficiaries/:beneficiary/wallet.
func (h *CampaignHandler) GetBeneficiaryWallet(c *gin.Context) {
	campaignID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	beneficiary, ok := pathUUID(c, "beneficiary")
	if !ok {
		return
	}

	wallet, err := h.campaignSvc.GetBeneficiaryWallet(c.Request.Context(), campaignID, beneficiary)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toWalletResponse(wallet))
}

// CheckBeneficiary handles GET /api/v1/campaigns/:id/beneficiaries/:beneficiary.
func (h *CampaignHandler) CheckBeneficiary(c *gin.Context) {
	campaignID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	beneficiary, ok := pathUUID(c, "beneficiary")
	if !ok {
		return
	}

	approved, err := h.campaignSvc.IsBeneficiaryApproved(c.Request.Context(), campaignID, beneficiary)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.CheckResponse{Result: approved})
}

func toCampaignResponse(campaign *domain.Campaign) dto.CampaignResponse {
	return dto.CampaignResponse{
		ID:             campaign.ID.String(),
		Title:          campaign.Title,
		Description:    campaign.Description,
		Location:       campaign.Location,
		DisasterType:   campaign.DisasterType,
		GoalAmount:     campaign.GoalAmount,
		RaisedAmount:   campaign.RaisedAmount,
		TotalAllocated: campaign.TotalAllocated,
		Available:      campaign.Available(),
		Organizer:      campaign.Organizer.String(),
		Status:         string(campaign.Status),
		CreatedAt:      campaign.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toDonationResponse(d *domain.Donation) dto.DonationResponse {
	return dto.DonationResponse{
		ID:         d.ID.String(),
		CampaignID: d.CampaignID.String(),
		Donor:      d.Donor.String(),
		Amount:     d.Amount,
		CreatedAt:  d.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toApplicationResponse(a *domain.BeneficiaryApplication) dto.ApplicationResponse {
	return dto.ApplicationResponse{
		ID:          a.ID.String(),
		CampaignID:  a.CampaignID.String(),
		Beneficiary: a.Beneficiary.String(),
		State:       string(a.State),
		AppliedAt:   a.AppliedAt.UTC().Format(time.RFC3339),
	}
}

func toWalletResponse(w *domain.RestrictedWallet) dto.WalletResponse {
	return dto.WalletResponse{
		ID:            w.ID.String(),
		CampaignID:    w.CampaignID.String(),
		Beneficiary:   w.Beneficiary.String(),
		TotalReceived: w.TotalReceived,
		TotalSpent:    w.TotalSpent,
		Balance:       w.Balance(),
	}
}
