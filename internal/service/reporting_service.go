package service

import (
	"context"
	"fmt"

	"relief-fund-gateway/internal/core/domain"
	"relief-fund-gateway/internal/core/ports"
	"relief-fund-gateway/pkg/apperror"

	"github.com/google/uuid"
)

// ReportingServiceImpl implements ports.ReportingService.
type ReportingServiceImpl struct {
	campaignRepo    ports.CampaignRepository
	applicationRepo ports.ApplicationRepository
	donationRepo    ports.DonationRepository
	walletRepo      ports.WalletRepository
	spendRepo       ports.SpendRepository
	eventRepo       ports.EventRepository
	ledger          ports.TokenLedger
}

// NewReportingService creates a new ReportingServiceImpl.
func NewReportingService(
	campaignRepo ports.CampaignRepository,
	applicationRepo ports.ApplicationRepository,
	donationRepo ports.DonationRepository,
	walletRepo ports.WalletRepository,
	spendRepo ports.SpendRepository,
	eventRepo ports.EventRepository,
	ledger ports.TokenLedger,
) *ReportingServiceImpl {
	return &ReportingServiceImpl{
		campaignRepo:    campaignRepo,
		applicationRepo: applicationRepo,
		donationRepo:    donationRepo,
		walletRepo:      walletRepo,
		spendRepo:       spendRepo,
		eventRepo:       eventRepo,
		ledger:          ledger,
	}
}

// CampaignStats returns a snapshot of one campaign's accounting.
func (s *ReportingServiceImpl) CampaignStats(ctx context.Context, campaignID uuid.UUID) (*ports.CampaignStats, error) {
	campaign, err := s.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get campaign: %w", err))
	}
	if campaign == nil {
		return nil, apperror.ErrNotFound("campaign")
	}

	donationCount, err := s.donationRepo.CountByCampaign(ctx, campaignID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("count donations: %w", err))
	}

	apps, err := s.applicationRepo.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list applications: %w", err))
	}
	byState := make(map[domain.ApplicationState]int64)
	for _, a := range apps {
		byState[a.State]++
	}

	return &ports.CampaignStats{
		CampaignID:     campaign.ID,
		Status:         campaign.Status,
		GoalAmount:     campaign.GoalAmount,
		RaisedAmount:   campaign.RaisedAmount,
		TotalAllocated: campaign.TotalAllocated,
		Available:      campaign.Available(),
		DonationCount:  donationCount,
		Applications:   byState,
	}, nil
}

// WalletStatement returns one wallet's accounting plus its spend history.
func (s *ReportingServiceImpl) WalletStatement(ctx context.Context, walletID uuid.UUID) (*ports.WalletStatement, error) {
	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	balance, err := s.ledger.BalanceOf(ctx, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("ledger balance: %w", err))
	}

	spends, err := s.spendRepo.ListByWallet(ctx, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list spends: %w", err))
	}

	return &ports.WalletStatement{
		WalletID:      wallet.ID,
		Beneficiary:   wallet.Beneficiary,
		CampaignID:    wallet.CampaignID,
		Balance:       balance,
		TotalReceived: wallet.TotalReceived,
		TotalSpent:    wallet.TotalSpent,
		Spends:        spends,
	}, nil
}

// CampaignEvents returns a campaign's most recent events, newest first.
func (s *ReportingServiceImpl) CampaignEvents(ctx context.Context, campaignID uuid.UUID, limit int) ([]domain.Event, error) {
	campaign, err := s.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get campaign: %w", err))
	}
	if campaign == nil {
		return nil, apperror.ErrNotFound("campaign")
	}

	events, err := s.eventRepo.ListByCampaign(ctx, campaignID, limit)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list events: %w", err))
	}
	return events, nil
}

// PlatformStats aggregates across all campaigns.
func (s *ReportingServiceImpl) PlatformStats(ctx context.Context) (*ports.PlatformStats, error) {
	count, err := s.campaignRepo.Count(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("count campaigns: %w", err))
	}
	return &ports.PlatformStats{CampaignCount: count}, nil
}
