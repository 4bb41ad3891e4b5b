package ports

import (
	"context"
	"errors"
	"time"

	"relief-fund-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrInsufficientFunds is returned by TokenLedger.Transfer when the source
// balance cannot cover the requested amount.
var ErrInsufficientFunds = errors.New("token ledger: insufficient funds")

// TokenLedger is the fungible balance primitive every value movement goes
// through. Transfer returns the amount actually credited; callers must treat
// credited != requested as fatal to the whole transition. Transfers run on
// the caller's transaction so the movement commits or aborts with the rest of
// the operation.
type TokenLedger interface {
	// EnsureAccount creates the holder's balance row if it does not exist.
	EnsureAccount(ctx context.Context, tx pgx.Tx, holder uuid.UUID) error
	// Transfer debits from and credits to, returning the credited amount.
	// Fails if the source balance is insufficient.
	Transfer(ctx context.Context, tx pgx.Tx, from, to uuid.UUID, amount int64) (int64, error)
	// Mint credits new value to the holder. Admin on-ramp use only.
	Mint(ctx context.Context, tx pgx.Tx, holder uuid.UUID, amount int64) (int64, error)
	// BalanceOf returns the holder's current balance, zero if no account.
	BalanceOf(ctx context.Context, holder uuid.UUID) (int64, error)
}

// EventPublisher pushes committed events to the off-platform stream.
// Best-effort: a publish failure never rolls back the operation that emitted
// the event, since the Postgres event row is the durable record.
type EventPublisher interface {
	Publish(ctx context.Context, event *domain.Event) error
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(accountID uuid.UUID, role domain.Role) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	AccountID uuid.UUID
	Role      domain.Role
}

// --- Service Ports (Business Logic) ---

// RegistryService gates who may create campaigns and who is recognized as a
// merchant platform-wide.
type RegistryService interface {
	ApproveOrganizer(ctx context.Context, caller, identity uuid.UUID) error
	IsApprovedOrganizer(ctx context.Context, identity uuid.UUID) (bool, error)
	VerifyMerchant(ctx context.Context, caller, identity uuid.UUID) error
	RevokeMerchant(ctx context.Context, caller, identity uuid.UUID) error
	IsVerifiedMerchant(ctx context.Context, identity uuid.UUID) (bool, error)
	CreateCampaign(ctx context.Context, caller uuid.UUID, req CreateCampaignRequest) (*domain.Campaign, error)
	Deposit(ctx context.Context, caller, identity uuid.UUID, amount int64) (int64, error)
	GetCampaign(ctx context.Context, id uuid.UUID) (*domain.Campaign, error)
	ListCampaigns(ctx context.Context, limit, offset int) ([]domain.Campaign, error)
}

// CreateCampaignRequest holds validated input for campaign creation.
type CreateCampaignRequest struct {
	Title        string
	Description  string
	Location     string
	DisasterType string
	GoalAmount   int64
}

// CampaignService runs one campaign's escrow: donations, the beneficiary
// application workflow, allocation into restricted wallets, and the status
// machine.
type CampaignService interface {
	Donate(ctx context.Context, caller, campaignID uuid.UUID, amount int64) (*domain.Donation, error)
	ApplyAsBeneficiary(ctx context.Context, caller, campaignID uuid.UUID) (*domain.BeneficiaryApplication, error)
	ApproveBeneficiary(ctx context.Context, caller, campaignID, beneficiary uuid.UUID) error
	RejectBeneficiary(ctx context.Context, caller, campaignID, beneficiary uuid.UUID) error
	AllocateFunds(ctx context.Context, caller, campaignID, beneficiary uuid.UUID, amount int64) (*domain.RestrictedWallet, error)
	SetStatus(ctx context.Context, caller, campaignID uuid.UUID, status domain.CampaignStatus) error

	IsBeneficiaryApproved(ctx context.Context, campaignID, beneficiary uuid.UUID) (bool, error)
	GetBeneficiaryWallet(ctx context.Context, campaignID, beneficiary uuid.UUID) (*domain.RestrictedWallet, error)
	ListDonations(ctx context.Context, campaignID uuid.UUID) ([]domain.Donation, error)
}

// WalletService enforces category- and merchant-gated spending on restricted
// wallets.
type WalletService interface {
	ApproveMerchant(ctx context.Context, caller, walletID, merchant uuid.UUID, category domain.SpendCategory) error
	IsMerchantApproved(ctx context.Context, walletID, merchant uuid.UUID, category domain.SpendCategory) (bool, error)
	Spend(ctx context.Context, caller, walletID uuid.UUID, req SpendRequest) (*domain.SpendRecord, error)
	GetBalance(ctx context.Context, walletID uuid.UUID) (int64, error)
	GetWallet(ctx context.Context, walletID uuid.UUID) (*domain.RestrictedWallet, error)
}

// SpendRequest holds validated input for a wallet spend.
type SpendRequest struct {
	Merchant    uuid.UUID
	Amount      int64
	Category    domain.SpendCategory
	Description string
}

// AuthService defines identity registration and login.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.Account, error)
	Login(ctx context.Context, username, password string) (string, time.Time, error) // token, expiry, error
}

// RegisterRequest holds input for account registration.
type RegisterRequest struct {
	Username    string
	Password    string
	DisplayName string
	Role        domain.Role
}

// ReportingService aggregates campaign and wallet accounting for dashboards
// and indexers.
type ReportingService interface {
	CampaignStats(ctx context.Context, campaignID uuid.UUID) (*CampaignStats, error)
	CampaignEvents(ctx context.Context, campaignID uuid.UUID, limit int) ([]domain.Event, error)
	WalletStatement(ctx context.Context, walletID uuid.UUID) (*WalletStatement, error)
	PlatformStats(ctx context.Context) (*PlatformStats, error)
}

// CampaignStats is a snapshot of one campaign's accounting.
type CampaignStats struct {
	CampaignID     uuid.UUID             `json:"campaign_id"`
	Status         domain.CampaignStatus `json:"status"`
	GoalAmount     int64                 `json:"goal_amount"`
	RaisedAmount   int64                 `json:"raised_amount"`
	TotalAllocated int64                 `json:"total_allocated"`
	Available      int64                 `json:"available"`
	DonationCount  int64                 `json:"donation_count"`
	Applications   map[domain.ApplicationState]int64 `json:"applications"`
}

// WalletStatement is a snapshot of one wallet's accounting.
type WalletStatement struct {
	WalletID      uuid.UUID            `json:"wallet_id"`
	Beneficiary   uuid.UUID            `json:"beneficiary"`
	CampaignID    uuid.UUID            `json:"campaign_id"`
	Balance       int64                `json:"balance"`
	TotalReceived int64                `json:"total_received"`
	TotalSpent    int64                `json:"total_spent"`
	Spends        []domain.SpendRecord `json:"spends"`
}

// PlatformStats aggregates across all campaigns.
type PlatformStats struct {
	CampaignCount int64 `json:"campaign_count"`
}
