package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrganizerApproval marks an identity as authorized to create campaigns.
// Only the platform admin grants or removes it.
type OrganizerApproval struct {
	Identity   uuid.UUID `json:"identity"`
	ApprovedBy uuid.UUID `json:"approved_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// MerchantVerification marks an identity as a legitimate merchant
// platform-wide. Distinct from per-wallet category approval: verification is
// a prerequisite gate, not a spending grant.
type MerchantVerification struct {
	Identity   uuid.UUID `json:"identity"`
	VerifiedBy uuid.UUID `json:"verified_by"`
	CreatedAt  time.Time `json:"created_at"`
}
