package service

import (
	"context"
	"fmt"
	"time"

	"relief-fund-gateway/internal/core/domain"
	"relief-fund-gateway/internal/core/ports"
	"relief-fund-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RegistryServiceImpl implements ports.RegistryService. It is the
// process-wide authority list: only the platform admin mutates the organizer
// and merchant sets, and only approved organizers create campaigns.
type RegistryServiceImpl struct {
	registryRepo ports.RegistryRepository
	campaignRepo ports.CampaignRepository
	ledger       ports.TokenLedger
	transactor   ports.DBTransactor
	events       eventSink
	admin        uuid.UUID
	log          zerolog.Logger
}

// NewRegistryService creates a new RegistryServiceImpl. admin is the
// bootstrapped platform administrator; it becomes the override authority on
// every campaign created through this registry.
func NewRegistryService(
	registryRepo ports.RegistryRepository,
	campaignRepo ports.CampaignRepository,
	ledger ports.TokenLedger,
	transactor ports.DBTransactor,
	eventRepo ports.EventRepository,
	publisher ports.EventPublisher,
	admin uuid.UUID,
	log zerolog.Logger,
) *RegistryServiceImpl {
	return &RegistryServiceImpl{
		registryRepo: registryRepo,
		campaignRepo: campaignRepo,
		ledger:       ledger,
		transactor:   transactor,
		events:       newEventSink(eventRepo, publisher, log),
		admin:        admin,
		log:          log,
	}
}

// ApproveOrganizer adds an identity to the approved-organizer set.
func (s *RegistryServiceImpl) ApproveOrganizer(ctx context.Context, caller, identity uuid.UUID) error {
	if caller != s.admin {
		return apperror.ErrUnauthorized()
	}

	approved, err := s.registryRepo.IsApprovedOrganizer(ctx, identity)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("check organizer: %w", err))
	}
	if approved {
		return apperror.ErrAlreadyApproved()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	approval := &domain.OrganizerApproval{
		Identity:   identity,
		ApprovedBy: caller,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.registryRepo.ApproveOrganizer(ctx, tx, approval); err != nil {
		return apperror.InternalError(fmt.Errorf("approve organizer: %w", err))
	}

	evt := newEvent(domain.EventOrganizerApproved, caller, identity)
	if err := s.events.record(ctx, tx, evt); err != nil {
		return apperror.InternalError(fmt.Errorf("record event: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	s.events.publish(ctx, evt)

	s.log.Info().
		Str("identity", identity.String()).
		Msg("organizer approved")

	return nil
}

// IsApprovedOrganizer reports whether the identity may create campaigns.
func (s *RegistryServiceImpl) IsApprovedOrganizer(ctx context.Context, identity uuid.UUID) (bool, error) {
	approved, err := s.registryRepo.IsApprovedOrganizer(ctx, identity)
	if err != nil {
		return false, apperror.InternalError(fmt.Errorf("check organizer: %w", err))
	}
	return approved, nil
}

// VerifyMerchant adds an identity to the platform-wide verified merchant set.
func (s *RegistryServiceImpl) VerifyMerchant(ctx context.Context, caller, identity uuid.UUID) error {
	if caller != s.admin {
		return apperror.ErrUnauthorized()
	}

	verified, err := s.registryRepo.IsVerifiedMerchant(ctx, identity)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("check merchant: %w", err))
	}
	if verified {
		return apperror.ErrAlreadyVerified()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	verification := &domain.MerchantVerification{
		Identity:   identity,
		VerifiedBy: caller,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.registryRepo.VerifyMerchant(ctx, tx, verification); err != nil {
		return apperror.InternalError(fmt.Errorf("verify merchant: %w", err))
	}

	evt := newEvent(domain.EventMerchantVerified, caller, identity)
	if err := s.events.record(ctx, tx, evt); err != nil {
		return apperror.InternalError(fmt.Errorf("record event: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	s.events.publish(ctx, evt)

	s.log.Info().
		Str("identity", identity.String()).
		Msg("merchant verified")

	return nil
}

// RevokeMerchant removes an identity from the verified merchant set.
// Revocation does not touch existing per-wallet approvals; new approvals are
// blocked by the verification gate where policy requires it.
func (s *RegistryServiceImpl) RevokeMerchant(ctx context.Context, caller, identity uuid.UUID) error {
	if caller != s.admin {
		return apperror.ErrUnauthorized()
	}

	verified, err := s.registryRepo.IsVerifiedMerchant(ctx, identity)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("check merchant: %w", err))
	}
	if !verified {
		return apperror.ErrNotVerified()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := s.registryRepo.RevokeMerchant(ctx, tx, identity); err != nil {
		return apperror.InternalError(fmt.Errorf("revoke merchant: %w", err))
	}

	evt := newEvent(domain.EventMerchantRevoked, caller, identity)
	if err := s.events.record(ctx, tx, evt); err != nil {
		return apperror.InternalError(fmt.Errorf("record event: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	s.events.publish(ctx, evt)

	s.log.Info().
		Str("identity", identity.String()).
		Msg("merchant verification revoked")

	return nil
}

// IsVerifiedMerchant reports whether the identity holds platform
// verification.
func (s *RegistryServiceImpl) IsVerifiedMerchant(ctx context.Context, identity uuid.UUID) (bool, error) {
	verified, err := s.registryRepo.IsVerifiedMerchant(ctx, identity)
	if err != nil {
		return false, apperror.InternalError(fmt.Errorf("check merchant: %w", err))
	}
	return verified, nil
}

// CreateCampaign instantiates a new campaign escrow owned by the caller as
// organizer and the registry admin as override authority. The caller must be
// in the approved-organizer set at creation time.
func (s *RegistryServiceImpl) CreateCampaign(ctx context.Context, caller uuid.UUID, req ports.CreateCampaignRequest) (*domain.Campaign, error) {
	approved, err := s.registryRepo.IsApprovedOrganizer(ctx, caller)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check organizer: %w", err))
	}
	if !approved {
		return nil, apperror.ErrNotApprovedOrganizer()
	}
	if req.GoalAmount <= 0 {
		return nil, apperror.ErrInvalidGoal()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	now := time.Now().UTC()
	campaign := &domain.Campaign{
		ID:           uuid.New(),
		Title:        req.Title,
		Description:  req.Description,
		Location:     req.Location,
		DisasterType: req.DisasterType,
		GoalAmount:   req.GoalAmount,
		Organizer:    caller,
		Admin:        s.admin,
		Status:       domain.CampaignStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.campaignRepo.Create(ctx, tx, campaign); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create campaign: %w", err))
	}

	// Open the escrow's ledger account up front so donations only race on the
	// balance row.
	if err := s.ledger.EnsureAccount(ctx, tx, campaign.ID); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("open escrow account: %w", err))
	}

	evt := withCampaign(newEvent(domain.EventCampaignCreated, caller, campaign.ID), campaign.ID)
	if err := s.events.record(ctx, tx, evt); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("record event: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	s.events.publish(ctx, evt)

	s.log.Info().
		Str("campaign_id", campaign.ID.String()).
		Str("organizer", caller.String()).
		Int64("goal", campaign.GoalAmount).
		Msg("campaign created")

	return campaign, nil
}

// Deposit credits an identity's ledger account. Admin-only on-ramp stand-in
// for the external funding rail.
func (s *RegistryServiceImpl) Deposit(ctx context.Context, caller, identity uuid.UUID, amount int64) (int64, error) {
	if caller != s.admin {
		return 0, apperror.ErrUnauthorized()
	}
	if amount <= 0 {
		return 0, apperror.ErrZeroAmount()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := s.ledger.EnsureAccount(ctx, tx, identity); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("ensure account: %w", err))
	}
	credited, err := s.ledger.Mint(ctx, tx, identity, amount)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("mint: %w", err))
	}
	if credited != amount {
		return 0, apperror.ErrTransferMismatch(amount, credited)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("identity", identity.String()).
		Int64("amount", amount).
		Msg("ledger deposit credited")

	return credited, nil
}

// GetCampaign fetches one campaign.
func (s *RegistryServiceImpl) GetCampaign(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	campaign, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get campaign: %w", err))
	}
	if campaign == nil {
		return nil, apperror.ErrNotFound("campaign")
	}
	return campaign, nil
}

// ListCampaigns lists campaigns newest-first.
func (s *RegistryServiceImpl) ListCampaigns(ctx context.Context, limit, offset int) ([]domain.Campaign, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	campaigns, err := s.campaignRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list campaigns: %w", err))
	}
	return campaigns, nil
}
