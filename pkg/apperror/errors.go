package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Authorization (AUTHZ) ----

func ErrUnauthorized() *AppError {
	return New("AUTHZ_001", "Caller lacks the required role for this entity", http.StatusForbidden)
}

func ErrNotApprovedOrganizer() *AppError {
	return New("AUTHZ_002", "Caller is not an approved organizer", http.StatusForbidden)
}

func ErrInvalidToken() *AppError {
	return New("AUTHZ_003", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrInvalidCredentials() *AppError {
	return New("AUTHZ_004", "Invalid credentials", http.StatusUnauthorized)
}

func ErrUsernameExists() *AppError {
	return New("AUTHZ_005", "Username already exists", http.StatusConflict)
}

// ---- State (STATE) ----

func ErrCampaignNotActive() *AppError {
	return New("STATE_001", "Campaign does not permit this operation in its current status", http.StatusConflict)
}

func ErrNotApplied() *AppError {
	return New("STATE_002", "Identity has no pending beneficiary application", http.StatusConflict)
}

func ErrAlreadyApplied() *AppError {
	return New("STATE_003", "Identity has already applied to this campaign", http.StatusConflict)
}

func ErrApplicationClosed() *AppError {
	return New("STATE_004", "Application was rejected and cannot be resubmitted", http.StatusConflict)
}

func ErrBeneficiaryNotApproved() *AppError {
	return New("STATE_005", "Beneficiary is not approved for this campaign", http.StatusConflict)
}

func ErrMerchantNotApproved() *AppError {
	return New("STATE_006", "Merchant is not approved for this category on this wallet", http.StatusConflict)
}

func ErrAlreadyApproved() *AppError {
	return New("STATE_007", "Already approved", http.StatusConflict)
}

func ErrAlreadyVerified() *AppError {
	return New("STATE_008", "Merchant is already verified", http.StatusConflict)
}

func ErrNotVerified() *AppError {
	return New("STATE_009", "Merchant is not verified", http.StatusConflict)
}

func ErrMerchantNotVerified() *AppError {
	return New("STATE_010", "Merchant lacks platform verification", http.StatusConflict)
}

// ---- Value (VAL) ----

func ErrZeroAmount() *AppError {
	return New("VAL_001", "Amount must be greater than zero", http.StatusBadRequest)
}

func ErrInvalidGoal() *AppError {
	return New("VAL_002", "Goal amount must be greater than zero", http.StatusBadRequest)
}

func ErrInsufficientBalance() *AppError {
	return New("VAL_003", "Insufficient wallet balance", http.StatusPaymentRequired)
}

func ErrInsufficientCampaignBalance() *AppError {
	return New("VAL_004", "Amount exceeds unallocated campaign funds", http.StatusPaymentRequired)
}

func ErrNotFound(entity string) *AppError {
	return New("VAL_005", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrInvalidCategory() *AppError {
	return New("VAL_006", "Unknown spend category", http.StatusBadRequest)
}

// ---- Ledger consistency (LEDGER) ----

// ErrTransferMismatch is fatal to the whole transition: the ledger credited a
// different amount than requested, so the operation aborts rather than settle
// for the smaller amount.
func ErrTransferMismatch(requested, credited int64) *AppError {
	return New("LEDGER_001",
		fmt.Sprintf("Ledger credited %d of requested %d", credited, requested),
		http.StatusConflict)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a VAL_000-style error for malformed request input.
func Validation(message string) *AppError {
	return New("VAL_000", message, http.StatusBadRequest)
}
