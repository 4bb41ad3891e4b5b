package domain

import (
	"time"

	"github.com/google/uuid"
)

// ApplicationState is the review state of a beneficiary application.
// Absence of a row means the identity never applied.
type ApplicationState string

const (
	ApplicationStateApplied  ApplicationState = "APPLIED"
	ApplicationStateApproved ApplicationState = "APPROVED"
	ApplicationStateRejected ApplicationState = "REJECTED"
)

// BeneficiaryApplication tracks one identity's request to receive funds from
// one campaign. APPROVED and REJECTED are terminal: a rejected identity may
// not re-apply.
type BeneficiaryApplication struct {
	ID          uuid.UUID        `json:"id"`
	CampaignID  uuid.UUID        `json:"campaign_id"`
	Beneficiary uuid.UUID        `json:"beneficiary"`
	State       ApplicationState `json:"state"`
	ReviewedBy  *uuid.UUID       `json:"reviewed_by,omitempty"`
	AppliedAt   time.Time        `json:"applied_at"`
	ReviewedAt  *time.Time       `json:"reviewed_at,omitempty"`
}

// IsPending returns true while the application awaits review.
func (a *BeneficiaryApplication) IsPending() bool {
	return a.State == ApplicationStateApplied
}

// IsTerminal returns true once the application has been reviewed.
func (a *BeneficiaryApplication) IsTerminal() bool {
	return a.State == ApplicationStateApproved || a.State == ApplicationStateRejected
}
