package handler

import (
	"relief-fund-gateway/internal/adapter/http/dto"
	"relief-fund-gateway/internal/core/ports"
	"relief-fund-gateway/pkg/apperror"
	"relief-fund-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RegistryHandler handles platform-wide registry endpoints: organizer
// approval, merchant verification, and the admin token on-ramp.
type RegistryHandler struct {
	registrySvc ports.RegistryService
}

// NewRegistryHandler creates a new RegistryHandler.
func NewRegistryHandler(registrySvc ports.RegistryService) *RegistryHandler {
	return &RegistryHandler{registrySvc: registrySvc}
}

// ApproveOrganizer handles POST /api/v1/registry/organizers/:id/approve.
func (h *RegistryHandler) ApproveOrganizer(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	identity, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.registrySvc.ApproveOrganizer(c.Request.Context(), caller, identity); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"identity": identity.String(), "approved": true})
}

// CheckOrganizer handles GET /api/v1/registry/organizers/:id.
func (h *RegistryHandler) CheckOrganizer(c *gin.Context) {
	identity, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	approved, err := h.registrySvc.IsApprovedOrganizer(c.Request.Context(), identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.CheckResponse{Result: approved})
}

// VerifyMerchant handles POST /api/v1/registry/merchants/:id/verify.
func (h *RegistryHandler) VerifyMerchant(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	identity, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.registrySvc.VerifyMerchant(c.Request.Context(), caller, identity); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"identity": identity.String(), "verified": true})
}

// RevokeMerchant handles DELETE /api/v1/registry/merchants/:id/verify.
func (h *RegistryHandler) RevokeMerchant(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	identity, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.registrySvc.RevokeMerchant(c.Request.Context(), caller, identity); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"identity": identity.String(), "verified": false})
}

// CheckMerchant handles GET /api/v1/registry/merchants/:id.
func (h *RegistryHandler) CheckMerchant(c *gin.Context) {
	identity, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	verified, err := h.registrySvc.IsVerifiedMerchant(c.Request.Context(), identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.CheckResponse{Result: verified})
}

// Deposit handles POST /api/v1/registry/deposits — the admin-only on-ramp
// that mints ledger balance for an identity.
func (h *RegistryHandler) Deposit(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}

	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	identity, err := uuid.Parse(req.Identity)
	if err != nil {
		response.Error(c, apperror.Validation("invalid identity: must be a UUID"))
		return
	}

	balance, err := h.registrySvc.Deposit(c.Request.Context(), caller, identity, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.DepositResponse{
		Identity: identity.String(),
		Balance:  balance,
	})
}
