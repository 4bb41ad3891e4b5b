package ports

import (
	"context"
	"errors"

	"relief-fund-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrDuplicateApproval is returned by WalletRepository.CreateApproval when
// the (wallet, merchant, category) triple already exists, so racing duplicate
// approvals resolve deterministically inside the insert transaction.
var ErrDuplicateApproval = errors.New("wallet repository: approval already exists")

// RegistryRepository persists the platform-wide authority sets: approved
// organizers and verified merchants. Mutators run inside the caller's
// transaction so the matching event row commits atomically with them.
type RegistryRepository interface {
	ApproveOrganizer(ctx context.Context, tx pgx.Tx, approval *domain.OrganizerApproval) error
	IsApprovedOrganizer(ctx context.Context, identity uuid.UUID) (bool, error)
	VerifyMerchant(ctx context.Context, tx pgx.Tx, verification *domain.MerchantVerification) error
	RevokeMerchant(ctx context.Context, tx pgx.Tx, identity uuid.UUID) error
	IsVerifiedMerchant(ctx context.Context, identity uuid.UUID) (bool, error)
}

// CampaignRepository persists campaigns. Counter updates are relative
// (SET x = x + delta) so they compose with row locks taken earlier in the
// same transaction.
type CampaignRepository interface {
	Create(ctx context.Context, tx pgx.Tx, campaign *domain.Campaign) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Campaign, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.CampaignStatus) error
	AddRaised(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int64) error
	AddAllocated(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int64) error
	List(ctx context.Context, limit, offset int) ([]domain.Campaign, error)
	Count(ctx context.Context) (int64, error)
}

// ApplicationRepository persists beneficiary applications, unique per
// (campaign, beneficiary).
type ApplicationRepository interface {
	Create(ctx context.Context, tx pgx.Tx, app *domain.BeneficiaryApplication) error
	Get(ctx context.Context, campaignID, beneficiary uuid.UUID) (*domain.BeneficiaryApplication, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, campaignID, beneficiary uuid.UUID) (*domain.BeneficiaryApplication, error)
	UpdateState(ctx context.Context, tx pgx.Tx, id uuid.UUID, state domain.ApplicationState, reviewedBy uuid.UUID) error
	ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]domain.BeneficiaryApplication, error)
}

// WalletRepository persists restricted wallets and their per-wallet merchant
// approval sets. CreateIfAbsent is the insert-if-absent step of lazy wallet
// creation: it must leave exactly one row per (campaign, beneficiary) pair no
// matter how many concurrent allocations race, and must return that row
// locked for the remainder of the transaction.
type WalletRepository interface {
	CreateIfAbsent(ctx context.Context, tx pgx.Tx, wallet *domain.RestrictedWallet) (*domain.RestrictedWallet, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.RestrictedWallet, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.RestrictedWallet, error)
	GetByCampaignAndBeneficiary(ctx context.Context, campaignID, beneficiary uuid.UUID) (*domain.RestrictedWallet, error)
	AddReceived(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount int64) error
	AddSpent(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount int64) error

	// CreateApproval returns ErrDuplicateApproval when the triple is
	// already present.
	CreateApproval(ctx context.Context, tx pgx.Tx, approval *domain.MerchantApproval) error
	IsMerchantApproved(ctx context.Context, walletID, merchant uuid.UUID, category domain.SpendCategory) (bool, error)
	ListApprovals(ctx context.Context, walletID uuid.UUID) ([]domain.MerchantApproval, error)
}

// DonationRepository persists the append-only donation records.
type DonationRepository interface {
	Create(ctx context.Context, tx pgx.Tx, donation *domain.Donation) error
	ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]domain.Donation, error)
	SumByCampaign(ctx context.Context, campaignID uuid.UUID) (int64, error)
	CountByCampaign(ctx context.Context, campaignID uuid.UUID) (int64, error)
}

// AllocationRepository persists the append-only allocation records.
type AllocationRepository interface {
	Create(ctx context.Context, tx pgx.Tx, allocation *domain.Allocation) error
	ListByWallet(ctx context.Context, walletID uuid.UUID) ([]domain.Allocation, error)
	SumByWallet(ctx context.Context, walletID uuid.UUID) (int64, error)
}

// SpendRepository persists the append-only spend records.
type SpendRepository interface {
	Create(ctx context.Context, tx pgx.Tx, spend *domain.SpendRecord) error
	ListByWallet(ctx context.Context, walletID uuid.UUID) ([]domain.SpendRecord, error)
	SumByWallet(ctx context.Context, walletID uuid.UUID) (int64, error)
}

// AccountRepository persists platform identities.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
}

// EventRepository persists the append-only event log, the durable half of the
// event stream.
type EventRepository interface {
	Create(ctx context.Context, tx pgx.Tx, event *domain.Event) error
	ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit int) ([]domain.Event, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
