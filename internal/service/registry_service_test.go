package service

import (
	"context"
	"testing"

	"relief-fund-gateway/internal/core/domain"
	"relief-fund-gateway/internal/core/ports"
	"relief-fund-gateway/internal/core/ports/mocks"
	"relief-fund-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type registryTestDeps struct {
	svc          *RegistryServiceImpl
	registryRepo *mocks.MockRegistryRepository
	campaignRepo *mocks.MockCampaignRepository
	ledger       *mocks.MockTokenLedger
	transactor   *mocks.MockDBTransactor
	eventRepo    *mocks.MockEventRepository
	publisher    *mocks.MockEventPublisher
	admin        uuid.UUID
	ctrl         *gomock.Controller
}

func setupRegistryService(t *testing.T) *registryTestDeps {
	ctrl := gomock.NewController(t)
	d := &registryTestDeps{
		registryRepo: mocks.NewMockRegistryRepository(ctrl),
		campaignRepo: mocks.NewMockCampaignRepository(ctrl),
		ledger:       mocks.NewMockTokenLedger(ctrl),
		transactor:   mocks.NewMockDBTransactor(ctrl),
		eventRepo:    mocks.NewMockEventRepository(ctrl),
		publisher:    mocks.NewMockEventPublisher(ctrl),
		admin:        uuid.New(),
		ctrl:         ctrl,
	}
	d.svc = NewRegistryService(
		d.registryRepo, d.campaignRepo, d.ledger, d.transactor,
		d.eventRepo, d.publisher, d.admin, zerolog.Nop(),
	)
	return d
}

func TestRegistryService_ApproveOrganizer_Success(t *testing.T) {
	d := setupRegistryService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	identity := uuid.New()
	tx := &mockTx{}

	d.registryRepo.EXPECT().IsApprovedOrganizer(ctx, identity).Return(false, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.registryRepo.EXPECT().ApproveOrganizer(ctx, tx, gomock.Any()).Return(nil)
	d.eventRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil)

	assert.NoError(t, d.svc.ApproveOrganizer(ctx, d.admin, identity))
}

func TestRegistryService_ApproveOrganizer_NotAdmin(t *testing.T) {
	d := setupRegistryService(t)
	defer d.ctrl.Finish()

	err := d.svc.ApproveOrganizer(context.Background(), uuid.New(), uuid.New())

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrUnauthorized().Code, appErr.Code)
}

func TestRegistryService_ApproveOrganizer_Duplicate(t *testing.T) {
	d := setupRegistryService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	identity := uuid.New()

	d.registryRepo.EXPECT().IsApprovedOrganizer(ctx, identity).Return(true, nil)

	err := d.svc.ApproveOrganizer(ctx, d.admin, identity)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrAlreadyApproved().Code, appErr.Code)
}

func TestRegistryService_VerifyMerchant_Duplicate(t *testing.T) {
	d := setupRegistryService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	identity := uuid.New()

	d.registryRepo.EXPECT().IsVerifiedMerchant(ctx, identity).Return(true, nil)

	err := d.svc.VerifyMerchant(ctx, d.admin, identity)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrAlreadyVerified().Code, appErr.Code)
}

func TestRegistryService_RevokeMerchant_NotVerified(t *testing.T) {
	d := setupRegistryService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	identity := uuid.New()

	d.registryRepo.EXPECT().IsVerifiedMerchant(ctx, identity).Return(false, nil)

	err := d.svc.RevokeMerchant(ctx, d.admin, identity)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrNotVerified().Code, appErr.Code)
}

func TestRegistryService_RevokeMerchant_Success(t *testing.T) {
	d := setupRegistryService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	identity := uuid.New()
	tx := &mockTx{}

	d.registryRepo.EXPECT().IsVerifiedMerchant(ctx, identity).Return(true, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.registryRepo.EXPECT().RevokeMerchant(ctx, tx, identity).Return(nil)
	d.eventRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil)

	assert.NoError(t, d.svc.RevokeMerchant(ctx, d.admin, identity))
}

func TestRegistryService_CreateCampaign_Success(t *testing.T) {
	d := setupRegistryService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	organizer := uuid.New()
	tx := &mockTx{}

	d.registryRepo.EXPECT().IsApprovedOrganizer(ctx, organizer).Return(true, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.campaignRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.ledger.EXPECT().EnsureAccount(ctx, tx, gomock.Any()).Return(nil)
	d.eventRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil)

	campaign, err := d.svc.CreateCampaign(ctx, organizer, ports.CreateCampaignRequest{
		Title:        "Typhoon Relief",
		Location:     "Da Nang",
		DisasterType: "TYPHOON",
		GoalAmount:   2_000_000,
	})
	require.NoError(t, err)
	assert.Equal(t, organizer, campaign.Organizer)
	assert.Equal(t, d.admin, campaign.Admin)
	assert.Equal(t, domain.CampaignStatusActive, campaign.Status)
	assert.Zero(t, campaign.RaisedAmount)
}

func TestRegistryService_CreateCampaign_NotApproved(t *testing.T) {
	d := setupRegistryService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	caller := uuid.New()

	d.registryRepo.EXPECT().IsApprovedOrganizer(ctx, caller).Return(false, nil)

	_, err := d.svc.CreateCampaign(ctx, caller, ports.CreateCampaignRequest{GoalAmount: 100})

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrNotApprovedOrganizer().Code, appErr.Code)
}

func TestRegistryService_CreateCampaign_InvalidGoal(t *testing.T) {
	d := setupRegistryService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	organizer := uuid.New()

	d.registryRepo.EXPECT().IsApprovedOrganizer(ctx, organizer).Return(true, nil)

	_, err := d.svc.CreateCampaign(ctx, organizer, ports.CreateCampaignRequest{GoalAmount: 0})

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrInvalidGoal().Code, appErr.Code)
}

func TestRegistryService_Deposit_AdminOnly(t *testing.T) {
	d := setupRegistryService(t)
	defer d.ctrl.Finish()

	_, err := d.svc.Deposit(context.Background(), uuid.New(), uuid.New(), 100)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrUnauthorized().Code, appErr.Code)
}

func TestRegistryService_Deposit_Success(t *testing.T) {
	d := setupRegistryService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	identity := uuid.New()
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.ledger.EXPECT().EnsureAccount(ctx, tx, identity).Return(nil)
	d.ledger.EXPECT().Mint(ctx, tx, identity, int64(5000)).Return(int64(5000), nil)

	credited, err := d.svc.Deposit(ctx, d.admin, identity, 5000)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), credited)
}
