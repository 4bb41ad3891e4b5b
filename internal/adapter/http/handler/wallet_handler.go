package handler

import (
	"time"

	"relief-fund-gateway/internal/adapter/http/dto"
	"relief-fund-gateway/internal/core/domain"
	"relief-fund-gateway/internal/core/ports"
	"relief-fund-gateway/pkg/apperror"
	"relief-fund-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler handles restricted wallet endpoints: merchant approvals,
// spending, and balance queries.
type WalletHandler struct {
	walletSvc ports.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// ApproveMerchant handles POST /api/v1/wallets/:id/approvals.
func (h *WalletHandler) ApproveMerchant(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	walletID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req dto.ApproveMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	merchant, err := uuid.Parse(req.Merchant)
	if err != nil {
		response.Error(c, apperror.Validation("invalid merchant: must be a UUID"))
		return
	}

	if err := h.walletSvc.ApproveMerchant(c.Request.Context(), caller, walletID, merchant, domain.SpendCategory(req.Category)); err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{
		"wallet_id": walletID.String(),
		"merchant":  merchant.String(),
		"category":  req.Category,
	})
}

// CheckApproval handles GET /api/v1/wallets/:id/approvals — query params
// merchant and category.
func (h *WalletHandler) CheckApproval(c *gin.Context) {
	walletID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	merchant, err := uuid.Parse(c.Query("merchant"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid merchant: must be a UUID"))
		return
	}
	category := domain.SpendCategory(c.Query("category"))
	if !domain.ValidCategory(category) {
		response.Error(c, apperror.ErrInvalidCategory())
		return
	}

	approved, err := h.walletSvc.IsMerchantApproved(c.Request.Context(), walletID, merchant, category)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.CheckResponse{Result: approved})
}

// Spend handles POST /api/v1/wallets/:id/spends.
func (h *WalletHandler) Spend(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	walletID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req dto.SpendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	merchant, err := uuid.Parse(req.Merchant)
	if err != nil {
		response.Error(c, apperror.Validation("invalid merchant: must be a UUID"))
		return
	}

	record, err := h.walletSvc.Spend(c.Request.Context(), caller, walletID, ports.SpendRequest{
		Merchant:    merchant,
		Amount:      req.Amount,
		Category:    domain.SpendCategory(req.Category),
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.SpendResponse{
		ID:          record.ID.String(),
		WalletID:    record.WalletID.String(),
		Merchant:    record.Merchant.String(),
		Amount:      record.Amount,
		Category:    string(record.Category),
		Description: record.Description,
		CreatedAt:   record.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// Get handles GET /api/v1/wallets/:id.
func (h *WalletHandler) Get(c *gin.Context) {
	walletID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	wallet, err := h.walletSvc.GetWallet(c.Request.Context(), walletID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toWalletResponse(wallet))
}

// GetBalance handles GET /api/v1/wallets/:id/balance.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	walletID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	balance, err := h.walletSvc.GetBalance(c.Request.Context(), walletID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.BalanceResponse{Balance: balance})
}
