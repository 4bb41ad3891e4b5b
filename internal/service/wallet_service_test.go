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

type walletTestDeps struct {
	svc          *WalletServiceImpl
	walletRepo   *mocks.MockWalletRepository
	campaignRepo *mocks.MockCampaignRepository
	spendRepo    *mocks.MockSpendRepository
	registryRepo *mocks.MockRegistryRepository
	ledger       *mocks.MockTokenLedger
	transactor   *mocks.MockDBTransactor
	eventRepo    *mocks.MockEventRepository
	publisher    *mocks.MockEventPublisher
	ctrl         *gomock.Controller
}

func setupWalletService(t *testing.T, requireVerified bool) *walletTestDeps {
	ctrl := gomock.NewController(t)
	d := &walletTestDeps{
		walletRepo:   mocks.NewMockWalletRepository(ctrl),
		campaignRepo: mocks.NewMockCampaignRepository(ctrl),
		spendRepo:    mocks.NewMockSpendRepository(ctrl),
		registryRepo: mocks.NewMockRegistryRepository(ctrl),
		ledger:       mocks.NewMockTokenLedger(ctrl),
		transactor:   mocks.NewMockDBTransactor(ctrl),
		eventRepo:    mocks.NewMockEventRepository(ctrl),
		publisher:    mocks.NewMockEventPublisher(ctrl),
		ctrl:         ctrl,
	}
	d.svc = NewWalletService(
		d.walletRepo, d.campaignRepo, d.spendRepo, d.registryRepo,
		d.ledger, d.transactor, d.eventRepo, d.publisher,
		requireVerified, zerolog.Nop(),
	)
	return d
}

func testWallet(campaignID, beneficiary uuid.UUID, received, spent int64) *domain.RestrictedWallet {
	return &domain.RestrictedWallet{
		ID:            uuid.New(),
		CampaignID:    campaignID,
		Beneficiary:   beneficiary,
		TotalReceived: received,
		TotalSpent:    spent,
	}
}

// ==================== ApproveMerchant ====================

func TestWalletService_ApproveMerchant_Success(t *testing.T) {
	d := setupWalletService(t, true)
	defer d.ctrl.Finish()

	ctx := context.Background()
	organizer := uuid.New()
	merchant := uuid.New()
	campaignID := uuid.New()
	wallet := testWallet(campaignID, uuid.New(), 100, 0)
	tx := &mockTx{}

	d.walletRepo.EXPECT().GetByID(ctx, wallet.ID).Return(wallet, nil)
	d.campaignRepo.EXPECT().GetByID(ctx, campaignID).Return(activeCampaign(campaignID, organizer), nil)
	d.registryRepo.EXPECT().IsVerifiedMerchant(ctx, merchant).Return(true, nil)
	d.walletRepo.EXPECT().IsMerchantApproved(ctx, wallet.ID, merchant, domain.CategoryFood).Return(false, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().CreateApproval(ctx, tx, gomock.Any()).Return(nil)
	d.eventRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil)

	err := d.svc.ApproveMerchant(ctx, organizer, wallet.ID, merchant, domain.CategoryFood)
	assert.NoError(t, err)
}

func TestWalletService_ApproveMerchant_UnverifiedBlocked(t *testing.T) {
	d := setupWalletService(t, true)
	defer d.ctrl.Finish()

	ctx := context.Background()
	organizer := uuid.New()
	merchant := uuid.New()
	campaignID := uuid.New()
	wallet := testWallet(campaignID, uuid.New(), 100, 0)

	d.walletRepo.EXPECT().GetByID(ctx, wallet.ID).Return(wallet, nil)
	d.campaignRepo.EXPECT().GetByID(ctx, campaignID).Return(activeCampaign(campaignID, organizer), nil)
	d.registryRepo.EXPECT().IsVerifiedMerchant(ctx, merchant).Return(false, nil)

	err := d.svc.ApproveMerchant(ctx, organizer, wallet.ID, merchant, domain.CategoryFood)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrMerchantNotVerified().Code, appErr.Code)
}

func TestWalletService_ApproveMerchant_VerificationGateDisabled(t *testing.T) {
	d := setupWalletService(t, false)
	defer d.ctrl.Finish()

	ctx := context.Background()
	organizer := uuid.New()
	merchant := uuid.New()
	campaignID := uuid.New()
	wallet := testWallet(campaignID, uuid.New(), 100, 0)
	tx := &mockTx{}

	// No IsVerifiedMerchant expectation: the gate is off.
	d.walletRepo.EXPECT().GetByID(ctx, wallet.ID).Return(wallet, nil)
	d.campaignRepo.EXPECT().GetByID(ctx, campaignID).Return(activeCampaign(campaignID, organizer), nil)
	d.walletRepo.EXPECT().IsMerchantApproved(ctx, wallet.ID, merchant, domain.CategoryOther).Return(false, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().CreateApproval(ctx, tx, gomock.Any()).Return(nil)
	d.eventRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil)

	err := d.svc.ApproveMerchant(ctx, organizer, wallet.ID, merchant, domain.CategoryOther)
	assert.NoError(t, err)
}

func TestWalletService_ApproveMerchant_NotCampaignManager(t *testing.T) {
	d := setupWalletService(t, true)
	defer d.ctrl.Finish()

	ctx := context.Background()
	campaignID := uuid.New()
	wallet := testWallet(campaignID, uuid.New(), 100, 0)

	d.walletRepo.EXPECT().GetByID(ctx, wallet.ID).Return(wallet, nil)
	d.campaignRepo.EXPECT().GetByID(ctx, campaignID).Return(activeCampaign(campaignID, uuid.New()), nil)

	err := d.svc.ApproveMerchant(ctx, uuid.New(), wallet.ID, uuid.New(), domain.CategoryFood)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrUnauthorized().Code, appErr.Code)
}

func TestWalletService_ApproveMerchant_AdminRefused(t *testing.T) {
	d := setupWalletService(t, true)
	defer d.ctrl.Finish()

	ctx := context.Background()
	campaignID := uuid.New()
	wallet := testWallet(campaignID, uuid.New(), 100, 0)
	campaign := activeCampaign(campaignID, uuid.New())

	d.walletRepo.EXPECT().GetByID(ctx, wallet.ID).Return(wallet, nil)
	d.campaignRepo.EXPECT().GetByID(ctx, campaignID).Return(campaign, nil)

	// Admin authority over the campaign does not extend to wallet approvals.
	err := d.svc.ApproveMerchant(ctx, campaign.Admin, wallet.ID, uuid.New(), domain.CategoryFood)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrUnauthorized().Code, appErr.Code)
}

func TestWalletService_ApproveMerchant_InvalidCategory(t *testing.T) {
	d := setupWalletService(t, true)
	defer d.ctrl.Finish()

	err := d.svc.ApproveMerchant(context.Background(), uuid.New(), uuid.New(), uuid.New(), domain.SpendCategory("GROCERIES"))

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrInvalidCategory().Code, appErr.Code)
}

func TestWalletService_ApproveMerchant_Duplicate(t *testing.T) {
	d := setupWalletService(t, true)
	defer d.ctrl.Finish()

	ctx := context.Background()
	organizer := uuid.New()
	merchant := uuid.New()
	campaignID := uuid.New()
	wallet := testWallet(campaignID, uuid.New(), 100, 0)

	d.walletRepo.EXPECT().GetByID(ctx, wallet.ID).Return(wallet, nil)
	d.campaignRepo.EXPECT().GetByID(ctx, campaignID).Return(activeCampaign(campaignID, organizer), nil)
	d.registryRepo.EXPECT().IsVerifiedMerchant(ctx, merchant).Return(true, nil)
	d.walletRepo.EXPECT().IsMerchantApproved(ctx, wallet.ID, merchant, domain.CategoryFood).Return(true, nil)

	err := d.svc.ApproveMerchant(ctx, organizer, wallet.ID, merchant, domain.CategoryFood)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrAlreadyApproved().Code, appErr.Code)
}

func TestWalletService_ApproveMerchant_DuplicateRace(t *testing.T) {
	d := setupWalletService(t, true)
	defer d.ctrl.Finish()

	ctx := context.Background()
	organizer := uuid.New()
	merchant := uuid.New()
	campaignID := uuid.New()
	wallet := testWallet(campaignID, uuid.New(), 100, 0)
	tx := &mockTx{}

	// A concurrent approval lands between the read and the insert; the
	// conflicting insert must still come back as AlreadyApproved.
	d.walletRepo.EXPECT().GetByID(ctx, wallet.ID).Return(wallet, nil)
	d.campaignRepo.EXPECT().GetByID(ctx, campaignID).Return(activeCampaign(campaignID, organizer), nil)
	d.registryRepo.EXPECT().IsVerifiedMerchant(ctx, merchant).Return(true, nil)
	d.walletRepo.EXPECT().IsMerchantApproved(ctx, wallet.ID, merchant, domain.CategoryFood).Return(false, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().CreateApproval(ctx, tx, gomock.Any()).Return(ports.ErrDuplicateApproval)

	err := d.svc.ApproveMerchant(ctx, organizer, wallet.ID, merchant, domain.CategoryFood)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrAlreadyApproved().Code, appErr.Code)
}

// ==================== Spend ====================

func TestWalletService_Spend_Success(t *testing.T) {
	d := setupWalletService(t, true)
	defer d.ctrl.Finish()

	ctx := context.Background()
	beneficiary := uuid.New()
	merchant := uuid.New()
	wallet := testWallet(uuid.New(), beneficiary, 1000, 200)
	tx := &mockTx{}

	req := ports.SpendRequest{
		Merchant:    merchant,
		Amount:      300,
		Category:    domain.CategoryMedicine,
		Description: "insulin",
	}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, wallet.ID).Return(wallet, nil)
	d.walletRepo.EXPECT().IsMerchantApproved(ctx, wallet.ID, merchant, domain.CategoryMedicine).Return(true, nil)
	d.spendRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.walletRepo.EXPECT().AddSpent(ctx, tx, wallet.ID, int64(300)).Return(nil)
	d.ledger.EXPECT().EnsureAccount(ctx, tx, merchant).Return(nil)
	d.ledger.EXPECT().Transfer(ctx, tx, wallet.ID, merchant, int64(300)).Return(int64(300), nil)
	d.eventRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil)

	spend, err := d.svc.Spend(ctx, beneficiary, wallet.ID, req)
	require.NoError(t, err)
	assert.Equal(t, int64(300), spend.Amount)
	assert.Equal(t, domain.CategoryMedicine, spend.Category)
}

func TestWalletService_Spend_NotBeneficiary(t *testing.T) {
	d := setupWalletService(t, true)
	defer d.ctrl.Finish()

	ctx := context.Background()
	wallet := testWallet(uuid.New(), uuid.New(), 1000, 0)
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, wallet.ID).Return(wallet, nil)

	_, err := d.svc.Spend(ctx, uuid.New(), wallet.ID, ports.SpendRequest{
		Merchant: uuid.New(),
		Amount:   100,
		Category: domain.CategoryFood,
	})

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrUnauthorized().Code, appErr.Code)
}

func TestWalletService_Spend_MerchantNotApproved(t *testing.T) {
	d := setupWalletService(t, true)
	defer d.ctrl.Finish()

	ctx := context.Background()
	beneficiary := uuid.New()
	merchant := uuid.New()
	wallet := testWallet(uuid.New(), beneficiary, 1000, 0)
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, wallet.ID).Return(wallet, nil)
	// Approved for FOOD, attempted MEDICINE: category scoping holds.
	d.walletRepo.EXPECT().IsMerchantApproved(ctx, wallet.ID, merchant, domain.CategoryMedicine).Return(false, nil)

	_, err := d.svc.Spend(ctx, beneficiary, wallet.ID, ports.SpendRequest{
		Merchant: merchant,
		Amount:   100,
		Category: domain.CategoryMedicine,
	})

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrMerchantNotApproved().Code, appErr.Code)
}

func TestWalletService_Spend_InsufficientBalance(t *testing.T) {
	d := setupWalletService(t, true)
	defer d.ctrl.Finish()

	ctx := context.Background()
	beneficiary := uuid.New()
	merchant := uuid.New()
	wallet := testWallet(uuid.New(), beneficiary, 500, 450)
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, wallet.ID).Return(wallet, nil)
	d.walletRepo.EXPECT().IsMerchantApproved(ctx, wallet.ID, merchant, domain.CategoryFood).Return(true, nil)

	_, err := d.svc.Spend(ctx, beneficiary, wallet.ID, ports.SpendRequest{
		Merchant: merchant,
		Amount:   51,
		Category: domain.CategoryFood,
	})

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrInsufficientBalance().Code, appErr.Code)
}

func TestWalletService_Spend_ZeroAmount(t *testing.T) {
	d := setupWalletService(t, true)
	defer d.ctrl.Finish()

	_, err := d.svc.Spend(context.Background(), uuid.New(), uuid.New(), ports.SpendRequest{
		Merchant: uuid.New(),
		Amount:   0,
		Category: domain.CategoryFood,
	})

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrZeroAmount().Code, appErr.Code)
}

// ==================== Reads ====================

func TestWalletService_GetBalance(t *testing.T) {
	d := setupWalletService(t, true)
	defer d.ctrl.Finish()

	ctx := context.Background()
	wallet := testWallet(uuid.New(), uuid.New(), 1000, 400)

	d.walletRepo.EXPECT().GetByID(ctx, wallet.ID).Return(wallet, nil)
	d.ledger.EXPECT().BalanceOf(ctx, wallet.ID).Return(int64(600), nil)

	balance, err := d.svc.GetBalance(ctx, wallet.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(600), balance)
}

func TestWalletService_GetWallet_NotFound(t *testing.T) {
	d := setupWalletService(t, true)
	defer d.ctrl.Finish()

	d.walletRepo.EXPECT().GetByID(gomock.Any(), gomock.Any()).Return(nil, nil)

	_, err := d.svc.GetWallet(context.Background(), uuid.New())
	assert.Error(t, err)
}
