package domain

import (
	"time"

	"github.com/google/uuid"
)

// CampaignStatus represents the lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignStatusActive    CampaignStatus = "ACTIVE"
	CampaignStatusPaused    CampaignStatus = "PAUSED"
	CampaignStatusCompleted CampaignStatus = "COMPLETED"
	CampaignStatusCancelled CampaignStatus = "CANCELLED"
)

// Campaign is the escrow for one relief effort. RaisedAmount and
// TotalAllocated only ever grow, and TotalAllocated never exceeds
// RaisedAmount.
type Campaign struct {
	ID             uuid.UUID      `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Location       string         `json:"location"`
	DisasterType   string         `json:"disaster_type"`
	GoalAmount     int64          `json:"goal_amount"` // In smallest currency unit
	RaisedAmount   int64          `json:"raised_amount"`
	TotalAllocated int64          `json:"total_allocated"`
	Organizer      uuid.UUID      `json:"organizer"` // Immutable after creation
	Admin          uuid.UUID      `json:"admin"`     // Override authority
	Status         CampaignStatus `json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// IsTerminal returns true once the campaign can never accept funds again.
func (c *Campaign) IsTerminal() bool {
	return c.Status == CampaignStatusCompleted || c.Status == CampaignStatusCancelled
}

// Available returns the funds raised but not yet allocated.
func (c *Campaign) Available() int64 {
	return c.RaisedAmount - c.TotalAllocated
}

// CanManage reports whether the identity holds organizer or admin authority
// over this campaign.
func (c *Campaign) CanManage(identity uuid.UUID) bool {
	return identity == c.Organizer || identity == c.Admin
}

// CanTransitionTo validates the status state machine:
// ACTIVE -> {PAUSED, COMPLETED, CANCELLED}, PAUSED -> {ACTIVE, COMPLETED,
// CANCELLED}; COMPLETED and CANCELLED are terminal.
func (c *Campaign) CanTransitionTo(next CampaignStatus) bool {
	if c.IsTerminal() {
		return false
	}
	switch next {
	case CampaignStatusActive:
		return c.Status == CampaignStatusPaused
	case CampaignStatusPaused:
		return c.Status == CampaignStatusActive
	case CampaignStatusCompleted, CampaignStatusCancelled:
		return true
	}
	return false
}

// Donation is an append-only record of funds received by a campaign escrow.
type Donation struct {
	ID         uuid.UUID `json:"id"`
	CampaignID uuid.UUID `json:"campaign_id"`
	Donor      uuid.UUID `json:"donor"`
	Amount     int64     `json:"amount"`
	CreatedAt  time.Time `json:"created_at"`
}

// Allocation is an append-only record of funds moved from an escrow into a
// beneficiary's restricted wallet.
type Allocation struct {
	ID          uuid.UUID `json:"id"`
	CampaignID  uuid.UUID `json:"campaign_id"`
	Beneficiary uuid.UUID `json:"beneficiary"`
	WalletID    uuid.UUID `json:"wallet_id"`
	Amount      int64     `json:"amount"`
	Executed    bool      `json:"executed"`
	CreatedAt   time.Time `json:"created_at"`
}
