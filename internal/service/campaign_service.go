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

// CampaignServiceImpl implements ports.CampaignService. Every mutating
// operation is one database transaction: the campaign row is locked first,
// all accounting writes land before the ledger transfer, and the event row
// commits with the rest. Abort leaves no partial state.
type CampaignServiceImpl struct {
	campaignRepo    ports.CampaignRepository
	applicationRepo ports.ApplicationRepository
	donationRepo    ports.DonationRepository
	allocationRepo  ports.AllocationRepository
	walletRepo      ports.WalletRepository
	ledger          ports.TokenLedger
	transactor      ports.DBTransactor
	events          eventSink
	log             zerolog.Logger
}

// NewCampaignService creates a new CampaignServiceImpl.
func NewCampaignService(
	campaignRepo ports.CampaignRepository,
	applicationRepo ports.ApplicationRepository,
	donationRepo ports.DonationRepository,
	allocationRepo ports.AllocationRepository,
	walletRepo ports.WalletRepository,
	ledger ports.TokenLedger,
	transactor ports.DBTransactor,
	eventRepo ports.EventRepository,
	publisher ports.EventPublisher,
	log zerolog.Logger,
) *CampaignServiceImpl {
	return &CampaignServiceImpl{
		campaignRepo:    campaignRepo,
		applicationRepo: applicationRepo,
		donationRepo:    donationRepo,
		allocationRepo:  allocationRepo,
		walletRepo:      walletRepo,
		ledger:          ledger,
		transactor:      transactor,
		events:          newEventSink(eventRepo, publisher, log),
		log:             log,
	}
}

// Donate pulls amount from the caller's ledger account into the campaign
// escrow. RaisedAmount grows by exactly the amount the ledger credited; a
// credited amount different from the requested one aborts the whole
// transition.
func (s *CampaignServiceImpl) Donate(ctx context.Context, caller, campaignID uuid.UUID, amount int64) (*domain.Donation, error) {
	if amount <= 0 {
		return nil, apperror.ErrZeroAmount()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	campaign, err := s.campaignRepo.GetByIDForUpdate(ctx, tx, campaignID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock campaign: %w", err))
	}
	if campaign == nil {
		return nil, apperror.ErrNotFound("campaign")
	}
	if campaign.Status != domain.CampaignStatusActive {
		return nil, apperror.ErrCampaignNotActive()
	}

	now := time.Now().UTC()
	donation := &domain.Donation{
		ID:         uuid.New(),
		CampaignID: campaignID,
		Donor:      caller,
		Amount:     amount,
		CreatedAt:  now,
	}

	// Accounting first, transfer last.
	if err := s.donationRepo.Create(ctx, tx, donation); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create donation: %w", err))
	}
	if err := s.campaignRepo.AddRaised(ctx, tx, campaignID, amount); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("add raised: %w", err))
	}

	credited, err := s.ledger.Transfer(ctx, tx, caller, campaignID, amount)
	if err != nil {
		if errors.Is(err, ports.ErrInsufficientFunds) {
			return nil, apperror.ErrInsufficientBalance()
		}
		return nil, apperror.InternalError(fmt.Errorf("donation transfer: %w", err))
	}
	if credited != amount {
		return nil, apperror.ErrTransferMismatch(amount, credited)
	}

	evt := withAmount(withCampaign(newEvent(domain.EventDonationReceived, caller, campaignID), campaignID), amount)
	if err := s.events.record(ctx, tx, evt); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("record event: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	s.events.publish(ctx, evt)

	s.log.Info().
		Str("campaign_id", campaignID.String()).
		Str("donor", caller.String()).
		Int64("amount", amount).
		Msg("donation received")

	return donation, nil
}

// ApplyAsBeneficiary transitions the caller from unapplied to applied on one
// campaign. A rejected identity may not re-apply; an existing pending or
// approved application blocks a duplicate.
func (s *CampaignServiceImpl) ApplyAsBeneficiary(ctx context.Context, caller, campaignID uuid.UUID) (*domain.BeneficiaryApplication, error) {
	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	campaign, err := s.campaignRepo.GetByIDForUpdate(ctx, tx, campaignID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock campaign: %w", err))
	}
	if campaign == nil {
		return nil, apperror.ErrNotFound("campaign")
	}
	if campaign.IsTerminal() {
		return nil, apperror.ErrCampaignNotActive()
	}

	existing, err := s.applicationRepo.GetForUpdate(ctx, tx, campaignID, caller)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check application: %w", err))
	}
	if existing != nil {
		if existing.State == domain.ApplicationStateRejected {
			return nil, apperror.ErrApplicationClosed()
		}
		return nil, apperror.ErrAlreadyApplied()
	}

	app := &domain.BeneficiaryApplication{
		ID:          uuid.New(),
		CampaignID:  campaignID,
		Beneficiary: caller,
		State:       domain.ApplicationStateApplied,
		AppliedAt:   time.Now().UTC(),
	}
	if err := s.applicationRepo.Create(ctx, tx, app); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create application: %w", err))
	}

	evt := withCampaign(newEvent(domain.EventBeneficiaryApplied, caller, caller), campaignID)
	if err := s.events.record(ctx, tx, evt); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("record event: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	s.events.publish(ctx, evt)

	s.log.Info().
		Str("campaign_id", campaignID.String()).
		Str("beneficiary", caller.String()).
		Msg("beneficiary application filed")

	return app, nil
}

// ApproveBeneficiary moves an applied application to approved. Approving an
// already-approved identity fails with AlreadyApproved.
func (s *CampaignServiceImpl) ApproveBeneficiary(ctx context.Context, caller, campaignID, beneficiary uuid.UUID) error {
	return s.reviewApplication(ctx, caller, campaignID, beneficiary, domain.ApplicationStateApproved)
}

// RejectBeneficiary moves an applied application to rejected, terminally.
func (s *CampaignServiceImpl) RejectBeneficiary(ctx context.Context, caller, campaignID, beneficiary uuid.UUID) error {
	return s.reviewApplication(ctx, caller, campaignID, beneficiary, domain.ApplicationStateRejected)
}

func (s *CampaignServiceImpl) reviewApplication(ctx context.Context, caller, campaignID, beneficiary uuid.UUID, verdict domain.ApplicationState) error {
	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	campaign, err := s.campaignRepo.GetByIDForUpdate(ctx, tx, campaignID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("lock campaign: %w", err))
	}
	if campaign == nil {
		return apperror.ErrNotFound("campaign")
	}
	if !campaign.CanManage(caller) {
		return apperror.ErrUnauthorized()
	}

	app, err := s.applicationRepo.GetForUpdate(ctx, tx, campaignID, beneficiary)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get application: %w", err))
	}
	if app == nil {
		return apperror.ErrNotApplied()
	}
	if app.State == domain.ApplicationStateApproved && verdict == domain.ApplicationStateApproved {
		return apperror.ErrAlreadyApproved()
	}
	if !app.IsPending() {
		return apperror.ErrNotApplied()
	}

	if err := s.applicationRepo.UpdateState(ctx, tx, app.ID, verdict, caller); err != nil {
		return apperror.InternalError(fmt.Errorf("update application: %w", err))
	}

	eventType := domain.EventBeneficiaryApproved
	if verdict == domain.ApplicationStateRejected {
		eventType = domain.EventBeneficiaryRejected
	}
	evt := withCampaign(newEvent(eventType, caller, beneficiary), campaignID)
	if err := s.events.record(ctx, tx, evt); err != nil {
		return apperror.InternalError(fmt.Errorf("record event: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	s.events.publish(ctx, evt)

	s.log.Info().
		Str("campaign_id", campaignID.String()).
		Str("beneficiary", beneficiary.String()).
		Str("verdict", string(verdict)).
		Msg("beneficiary application reviewed")

	return nil
}

// AllocateFunds moves amount from the campaign escrow into the beneficiary's
// restricted wallet, creating the wallet on first allocation. The
// insert-if-absent and the top-up share one transaction, so two concurrent
// allocations for the same pair converge on a single wallet.
func (s *CampaignServiceImpl) AllocateFunds(ctx context.Context, caller, campaignID, beneficiary uuid.UUID, amount int64) (*domain.RestrictedWallet, error) {
	if amount <= 0 {
		return nil, apperror.ErrZeroAmount()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	campaign, err := s.campaignRepo.GetByIDForUpdate(ctx, tx, campaignID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock campaign: %w", err))
	}
	if campaign == nil {
		return nil, apperror.ErrNotFound("campaign")
	}
	if !campaign.CanManage(caller) {
		return nil, apperror.ErrUnauthorized()
	}
	if campaign.IsTerminal() {
		return nil, apperror.ErrCampaignNotActive()
	}

	app, err := s.applicationRepo.GetForUpdate(ctx, tx, campaignID, beneficiary)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get application: %w", err))
	}
	if app == nil || app.State != domain.ApplicationStateApproved {
		return nil, apperror.ErrBeneficiaryNotApproved()
	}

	if amount > campaign.Available() {
		return nil, apperror.ErrInsufficientCampaignBalance()
	}

	now := time.Now().UTC()
	wallet, created, err := s.walletRepo.CreateIfAbsent(ctx, tx, &domain.RestrictedWallet{
		ID:          uuid.New(),
		CampaignID:  campaignID,
		Beneficiary: beneficiary,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}
	if created {
		if err := s.ledger.EnsureAccount(ctx, tx, wallet.ID); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("open wallet account: %w", err))
		}
	}

	allocation := &domain.Allocation{
		ID:          uuid.New(),
		CampaignID:  campaignID,
		Beneficiary: beneficiary,
		WalletID:    wallet.ID,
		Amount:      amount,
		Executed:    true,
		CreatedAt:   now,
	}

	// Accounting first, transfer last.
	if err := s.allocationRepo.Create(ctx, tx, allocation); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create allocation: %w", err))
	}
	if err := s.campaignRepo.AddAllocated(ctx, tx, campaignID, amount); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("add allocated: %w", err))
	}
	if err := s.walletRepo.AddReceived(ctx, tx, wallet.ID, amount); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("add received: %w", err))
	}

	credited, err := s.ledger.Transfer(ctx, tx, campaignID, wallet.ID, amount)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("escrow transfer: %w", err))
	}
	if credited != amount {
		return nil, apperror.ErrTransferMismatch(amount, credited)
	}

	if created {
		walletEvt := withCampaign(newEvent(domain.EventWalletCreated, caller, wallet.ID), campaignID)
		if err := s.events.record(ctx, tx, walletEvt); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("record event: %w", err))
		}
	}
	evt := withAmount(withCampaign(newEvent(domain.EventFundsAllocated, caller, beneficiary), campaignID), amount)
	if err := s.events.record(ctx, tx, evt); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("record event: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	s.events.publish(ctx, evt)

	wallet.TotalReceived += amount

	s.log.Info().
		Str("campaign_id", campaignID.String()).
		Str("beneficiary", beneficiary.String()).
		Str("wallet_id", wallet.ID.String()).
		Int64("amount", amount).
		Bool("wallet_created", created).
		Msg("funds allocated")

	return wallet, nil
}

// SetStatus drives the campaign status machine. Completed and cancelled are
// terminal; terminal campaigns reject donations and allocations.
func (s *CampaignServiceImpl) SetStatus(ctx context.Context, caller, campaignID uuid.UUID, status domain.CampaignStatus) error {
	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	campaign, err := s.campaignRepo.GetByIDForUpdate(ctx, tx, campaignID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("lock campaign: %w", err))
	}
	if campaign == nil {
		return apperror.ErrNotFound("campaign")
	}
	if !campaign.CanManage(caller) {
		return apperror.ErrUnauthorized()
	}
	if !campaign.CanTransitionTo(status) {
		return apperror.ErrCampaignNotActive()
	}

	if err := s.campaignRepo.UpdateStatus(ctx, tx, campaignID, status); err != nil {
		return apperror.InternalError(fmt.Errorf("update status: %w", err))
	}

	evt := withCampaign(newEvent(domain.EventCampaignStatusSet, caller, campaignID), campaignID)
	evt.Payload = []byte(fmt.Sprintf(`{"status":%q}`, status))
	if err := s.events.record(ctx, tx, evt); err != nil {
		return apperror.InternalError(fmt.Errorf("record event: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	s.events.publish(ctx, evt)

	s.log.Info().
		Str("campaign_id", campaignID.String()).
		Str("status", string(status)).
		Msg("campaign status set")

	return nil
}

// IsBeneficiaryApproved reports whether the identity holds an approved
// application on the campaign.
func (s *CampaignServiceImpl) IsBeneficiaryApproved(ctx context.Context, campaignID, beneficiary uuid.UUID) (bool, error) {
	app, err := s.applicationRepo.Get(ctx, campaignID, beneficiary)
	if err != nil {
		return false, apperror.InternalError(fmt.Errorf("get application: %w", err))
	}
	return app != nil && app.State == domain.ApplicationStateApproved, nil
}

// GetBeneficiaryWallet returns the beneficiary's wallet on the campaign, or
// NotFound if none has been created by allocation yet.
func (s *CampaignServiceImpl) GetBeneficiaryWallet(ctx context.Context, campaignID, beneficiary uuid.UUID) (*domain.RestrictedWallet, error) {
	wallet, err := s.walletRepo.GetByCampaignAndBeneficiary(ctx, campaignID, beneficiary)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	return wallet, nil
}

// ListDonations lists a campaign's donation records.
func (s *CampaignServiceImpl) ListDonations(ctx context.Context, campaignID uuid.UUID) ([]domain.Donation, error) {
	donations, err := s.donationRepo.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list donations: %w", err))
	}
	return donations, nil
}
