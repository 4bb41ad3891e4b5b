package domain

import (
	"time"

	"github.com/google/uuid"
)

// SpendCategory is the closed classification of permissible spending purpose.
// OTHER is the single escape variant; free text belongs on the spend record
// description, never on the approval key.
type SpendCategory string

const (
	CategoryFood      SpendCategory = "FOOD"
	CategoryMedicine  SpendCategory = "MEDICINE"
	CategoryShelter   SpendCategory = "SHELTER"
	CategoryEducation SpendCategory = "EDUCATION"
	CategoryClothing  SpendCategory = "CLOTHING"
	CategoryOther     SpendCategory = "OTHER"
)

// ValidCategory reports whether c is a member of the closed enumeration.
func ValidCategory(c SpendCategory) bool {
	switch c {
	case CategoryFood, CategoryMedicine, CategoryShelter,
		CategoryEducation, CategoryClothing, CategoryOther:
		return true
	}
	return false
}

// RestrictedWallet holds one beneficiary's allocation from one campaign.
// Exactly one wallet exists per (campaign, beneficiary) pair, created lazily
// on first allocation. Its ledger balance always equals TotalReceived minus
// TotalSpent.
type RestrictedWallet struct {
	ID            uuid.UUID `json:"id"`
	CampaignID    uuid.UUID `json:"campaign_id"`
	Beneficiary   uuid.UUID `json:"beneficiary"`
	TotalReceived int64     `json:"total_received"`
	TotalSpent    int64     `json:"total_spent"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Balance returns the spendable amount remaining in the wallet.
func (w *RestrictedWallet) Balance() int64 {
	return w.TotalReceived - w.TotalSpent
}

// MerchantApproval grants one merchant the right to receive spends of one
// category from one wallet. Approval on wallet A confers nothing on wallet B.
type MerchantApproval struct {
	ID         uuid.UUID     `json:"id"`
	WalletID   uuid.UUID     `json:"wallet_id"`
	Merchant   uuid.UUID     `json:"merchant"`
	Category   SpendCategory `json:"category"`
	ApprovedBy uuid.UUID     `json:"approved_by"`
	CreatedAt  time.Time     `json:"created_at"`
}

// SpendRecord is an append-only record of a successful wallet spend.
type SpendRecord struct {
	ID          uuid.UUID     `json:"id"`
	WalletID    uuid.UUID     `json:"wallet_id"`
	Merchant    uuid.UUID     `json:"merchant"`
	Amount      int64         `json:"amount"`
	Category    SpendCategory `json:"category"`
	Description string        `json:"description"`
	CreatedAt   time.Time     `json:"created_at"`
}
