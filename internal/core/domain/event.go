package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies the state transition an event records.
type EventType string

const (
	EventOrganizerApproved    EventType = "ORGANIZER_APPROVED"
	EventMerchantVerified     EventType = "MERCHANT_VERIFIED"
	EventMerchantRevoked      EventType = "MERCHANT_REVOKED"
	EventCampaignCreated      EventType = "CAMPAIGN_CREATED"
	EventCampaignStatusSet    EventType = "CAMPAIGN_STATUS_SET"
	EventDonationReceived     EventType = "DONATION_RECEIVED"
	EventBeneficiaryApplied   EventType = "BENEFICIARY_APPLIED"
	EventBeneficiaryApproved  EventType = "BENEFICIARY_APPROVED"
	EventBeneficiaryRejected  EventType = "BENEFICIARY_REJECTED"
	EventFundsAllocated       EventType = "FUNDS_ALLOCATED"
	EventWalletCreated        EventType = "WALLET_CREATED"
	EventWalletMerchantOK     EventType = "WALLET_MERCHANT_APPROVED"
	EventWalletSpend          EventType = "WALLET_SPEND"
)

// Event is the append-only record emitted by every state-mutating operation.
// The Postgres row is the durable record; the Redis stream copy exists for
// off-platform indexers and carries the same payload.
type Event struct {
	ID         uuid.UUID  `json:"id"`
	Type       EventType  `json:"type"`
	Actor      uuid.UUID  `json:"actor"`
	Subject    uuid.UUID  `json:"subject"` // Entity acted upon (campaign, wallet, identity)
	CampaignID *uuid.UUID `json:"campaign_id,omitempty"`
	Amount     *int64     `json:"amount,omitempty"`
	Payload    []byte     `json:"payload,omitempty"` // JSON detail blob
	CreatedAt  time.Time  `json:"created_at"`
}
