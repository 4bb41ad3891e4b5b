package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"relief-fund-gateway/internal/core/domain"
	"relief-fund-gateway/internal/core/ports"
	"relief-fund-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WalletServiceImpl implements ports.WalletService: category- and
// merchant-gated spending on restricted wallets.
type WalletServiceImpl struct {
	walletRepo   ports.WalletRepository
	campaignRepo ports.CampaignRepository
	spendRepo    ports.SpendRepository
	registryRepo ports.RegistryRepository
	ledger       ports.TokenLedger
	transactor   ports.DBTransactor
	events       eventSink
	// requireVerifiedMerchants gates per-wallet approval on platform
	// verification. Policy knob, not an invariant: the two sets stay
	// independent when disabled.
	requireVerifiedMerchants bool
	log                      zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(
	walletRepo ports.WalletRepository,
	campaignRepo ports.CampaignRepository,
	spendRepo ports.SpendRepository,
	registryRepo ports.RegistryRepository,
	ledger ports.TokenLedger,
	transactor ports.DBTransactor,
	eventRepo ports.EventRepository,
	publisher ports.EventPublisher,
	requireVerifiedMerchants bool,
	log zerolog.Logger,
) *WalletServiceImpl {
	return &WalletServiceImpl{
		walletRepo:               walletRepo,
		campaignRepo:             campaignRepo,
		spendRepo:                spendRepo,
		registryRepo:             registryRepo,
		ledger:                   ledger,
		transactor:               transactor,
		events:                   newEventSink(eventRepo, publisher, log),
		requireVerifiedMerchants: requireVerifiedMerchants,
		log:                      log,
	}
}

// ApproveMerchant adds a (merchant, category) pair to the wallet's approval
// set. Only the organizer of the owning campaign may approve; the platform
// admin holds no override here. The approval is scoped to this wallet alone.
func (s *WalletServiceImpl) ApproveMerchant(ctx context.Context, caller, walletID, merchant uuid.UUID, category domain.SpendCategory) error {
	if !domain.ValidCategory(category) {
		return apperror.ErrInvalidCategory()
	}

	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return apperror.ErrNotFound("wallet")
	}

	campaign, err := s.campaignRepo.GetByID(ctx, wallet.CampaignID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get campaign: %w", err))
	}
	if campaign == nil {
		return apperror.ErrNotFound("campaign")
	}
	if caller != campaign.Organizer {
		return apperror.ErrUnauthorized()
	}

	if s.requireVerifiedMerchants {
		verified, err := s.registryRepo.IsVerifiedMerchant(ctx, merchant)
		if err != nil {
			return apperror.InternalError(fmt.Errorf("check merchant verification: %w", err))
		}
		if !verified {
			return apperror.ErrMerchantNotVerified()
		}
	}

	approved, err := s.walletRepo.IsMerchantApproved(ctx, walletID, merchant, category)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("check approval: %w", err))
	}
	if approved {
		return apperror.ErrAlreadyApproved()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	approval := &domain.MerchantApproval{
		ID:         uuid.New(),
		WalletID:   walletID,
		Merchant:   merchant,
		Category:   category,
		ApprovedBy: caller,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.walletRepo.CreateApproval(ctx, tx, approval); err != nil {
		if errors.Is(err, ports.ErrDuplicateApproval) {
			return apperror.ErrAlreadyApproved()
		}
		return apperror.InternalError(fmt.Errorf("create approval: %w", err))
	}

	evt := withCampaign(newEvent(domain.EventWalletMerchantOK, caller, merchant), wallet.CampaignID)
	evt.Payload = []byte(fmt.Sprintf(`{"wallet_id":%q,"category":%q}`, walletID, category))
	if err := s.events.record(ctx, tx, evt); err != nil {
		return apperror.InternalError(fmt.Errorf("record event: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	s.events.publish(ctx, evt)

	s.log.Info().
		Str("wallet_id", walletID.String()).
		Str("merchant", merchant.String()).
		Str("category", string(category)).
		Msg("merchant approved on wallet")

	return nil
}

// IsMerchantApproved reports whether the (merchant, category) pair is in the
// wallet's approval set.
func (s *WalletServiceImpl) IsMerchantApproved(ctx context.Context, walletID, merchant uuid.UUID, category domain.SpendCategory) (bool, error) {
	approved, err := s.walletRepo.IsMerchantApproved(ctx, walletID, merchant, category)
	if err != nil {
		return false, apperror.InternalError(fmt.Errorf("check approval: %w", err))
	}
	return approved, nil
}

// Spend moves amount from the wallet to an approved merchant. Only the
// wallet's beneficiary may spend; the (merchant, category) pair must be
// approved on this wallet, and the amount must fit the balance. Accounting
// lands before the ledger transfer, all on one transaction.
func (s *WalletServiceImpl) Spend(ctx context.Context, caller, walletID uuid.UUID, req ports.SpendRequest) (*domain.SpendRecord, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrZeroAmount()
	}
	if !domain.ValidCategory(req.Category) {
		return nil, apperror.ErrInvalidCategory()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByIDForUpdate(ctx, tx, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	if wallet.Beneficiary != caller {
		return nil, apperror.ErrUnauthorized()
	}

	approved, err := s.walletRepo.IsMerchantApproved(ctx, walletID, req.Merchant, req.Category)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check approval: %w", err))
	}
	if !approved {
		return nil, apperror.ErrMerchantNotApproved()
	}

	if req.Amount > wallet.Balance() {
		return nil, apperror.ErrInsufficientBalance()
	}

	now := time.Now().UTC()
	spend := &domain.SpendRecord{
		ID:          uuid.New(),
		WalletID:    walletID,
		Merchant:    req.Merchant,
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		CreatedAt:   now,
	}

	// Accounting first, transfer last.
	if err := s.spendRepo.Create(ctx, tx, spend); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create spend record: %w", err))
	}
	if err := s.walletRepo.AddSpent(ctx, tx, walletID, req.Amount); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("add spent: %w", err))
	}

	if err := s.ledger.EnsureAccount(ctx, tx, req.Merchant); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("ensure merchant account: %w", err))
	}
	credited, err := s.ledger.Transfer(ctx, tx, walletID, req.Merchant, req.Amount)
	if err != nil {
		if errors.Is(err, ports.ErrInsufficientFunds) {
			return nil, apperror.ErrInsufficientBalance()
		}
		return nil, apperror.InternalError(fmt.Errorf("spend transfer: %w", err))
	}
	if credited != req.Amount {
		return nil, apperror.ErrTransferMismatch(req.Amount, credited)
	}

	evt := withAmount(withCampaign(newEvent(domain.EventWalletSpend, caller, req.Merchant), wallet.CampaignID), req.Amount)
	evt.Payload = []byte(fmt.Sprintf(`{"wallet_id":%q,"category":%q}`, walletID, req.Category))
	if err := s.events.record(ctx, tx, evt); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("record event: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	s.events.publish(ctx, evt)

	s.log.Info().
		Str("wallet_id", walletID.String()).
		Str("merchant", req.Merchant.String()).
		Str("category", string(req.Category)).
		Int64("amount", req.Amount).
		Msg("wallet spend executed")

	return spend, nil
}

// GetBalance returns the wallet's spendable balance from the token ledger.
func (s *WalletServiceImpl) GetBalance(ctx context.Context, walletID uuid.UUID) (int64, error) {
	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return 0, apperror.ErrNotFound("wallet")
	}
	balance, err := s.ledger.BalanceOf(ctx, walletID)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("ledger balance: %w", err))
	}
	return balance, nil
}

// GetWallet fetches one wallet.
func (s *WalletServiceImpl) GetWallet(ctx context.Context, walletID uuid.UUID) (*domain.RestrictedWallet, error) {
	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	return wallet, nil
}
