package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpHandler "relief-fund-gateway/internal/adapter/http/handler"
	redisStorage "relief-fund-gateway/internal/adapter/storage/redis"
	"relief-fund-gateway/internal/core/domain"
	"relief-fund-gateway/internal/core/ports"
	"relief-fund-gateway/internal/service"
	"relief-fund-gateway/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp builds a full application stack with in-memory repos and an
// in-memory Redis (miniredis) event stream. This exercises the real HTTP
// layer, middleware, handlers, services, and Redis stores end-to-end.

const adminPassword = "AdminPass123!"

type testApp struct {
	server  *httptest.Server
	redis   *miniredis.Miniredis
	rdb     *goredis.Client
	ledger  *inMemoryLedger
	adminID uuid.UUID
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	eventStream := redisStorage.NewEventStream(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService("test-jwt-secret-key-32bytes!!", 24*time.Hour, "test-issuer")

	accountRepo := newInMemoryAccountRepo()
	registryRepo := newInMemoryRegistryRepo()
	campaignRepo := newInMemoryCampaignRepo()
	applicationRepo := newInMemoryApplicationRepo()
	donationRepo := newInMemoryDonationRepo()
	allocationRepo := newInMemoryAllocationRepo()
	walletRepo := newInMemoryWalletRepo()
	spendRepo := newInMemorySpendRepo()
	eventRepo := newInMemoryEventRepo()
	ledger := newInMemoryLedger()
	transactor := newInMemoryTransactor()

	// Bootstrap the platform admin directly, the way main does from config.
	adminHash, err := hashSvc.Hash(adminPassword)
	require.NoError(t, err)
	adminID := uuid.New()
	require.NoError(t, accountRepo.Create(t.Context(), &domain.Account{
		ID:           adminID,
		Username:     "admin",
		PasswordHash: adminHash,
		DisplayName:  "Platform Admin",
		Role:         domain.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}))

	log := logger.New("debug", false)
	authSvc := service.NewAuthService(accountRepo, hashSvc, tokenSvc)
	registrySvc := service.NewRegistryService(registryRepo, campaignRepo, ledger, transactor, eventRepo, eventStream, adminID, log)
	campaignSvc := service.NewCampaignService(campaignRepo, applicationRepo, donationRepo, allocationRepo, walletRepo, ledger, transactor, eventRepo, eventStream, log)
	walletSvc := service.NewWalletService(walletRepo, campaignRepo, spendRepo, registryRepo, ledger, transactor, eventRepo, eventStream, true, log)
	reportingSvc := service.NewReportingService(campaignRepo, applicationRepo, donationRepo, walletRepo, spendRepo, eventRepo, ledger)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		RegistrySvc:    registrySvc,
		CampaignSvc:    campaignSvc,
		WalletSvc:      walletSvc,
		ReportingSvc:   reportingSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{redisHealth},
		Logger:         log,
	})

	server := httptest.NewServer(router)

	return &testApp{
		server:  server,
		redis:   mr,
		rdb:     rdb,
		ledger:  ledger,
		adminID: adminID,
	}
}

func (a *testApp) close() {
	a.server.Close()
	a.rdb.Close()
}

// --- HTTP helpers ---

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", string(raw))
	}
	return resp.StatusCode, decoded
}

func data(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	d, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %v", body)
	return d
}

// registerAndLogin creates an account through the public API and returns its
// ID and a JWT for it.
func (a *testApp) registerAndLogin(t *testing.T, username, role string) (uuid.UUID, string) {
	t.Helper()
	code, body := a.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username":     username,
		"password":     "StrongPass123!",
		"display_name": "Test " + username,
		"role":         role,
	})
	require.Equal(t, http.StatusCreated, code, "register %s: %v", username, body)
	id, err := uuid.Parse(data(t, body)["account_id"].(string))
	require.NoError(t, err)

	return id, a.login(t, username, "StrongPass123!")
}

func (a *testApp) login(t *testing.T, username, password string) string {
	t.Helper()
	code, body := a.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, code, "login %s: %v", username, body)
	return data(t, body)["token"].(string)
}

func (a *testApp) adminToken(t *testing.T) string {
	t.Helper()
	return a.login(t, "admin", adminPassword)
}

// fundedCampaign wires the common fixture: an approved organizer with an
// active campaign, and a donor holding minted tokens.
type fundedCampaign struct {
	organizerID    uuid.UUID
	organizerToken string
	donorID        uuid.UUID
	donorToken     string
	adminToken     string
	campaignID     string
}

func (a *testApp) newFundedCampaign(t *testing.T, donorBalance int64) *fundedCampaign {
	t.Helper()
	admin := a.adminToken(t)
	organizerID, organizerToken := a.registerAndLogin(t, "organizer1", "ORGANIZER")
	donorID, donorToken := a.registerAndLogin(t, "donor1", "DONOR")

	code, body := a.do(t, http.MethodPost, "/api/v1/registry/organizers/"+organizerID.String()+"/approve", admin, nil)
	require.Equal(t, http.StatusOK, code, "approve organizer: %v", body)

	code, body = a.do(t, http.MethodPost, "/api/v1/registry/deposits", admin, map[string]interface{}{
		"identity": donorID.String(),
		"amount":   donorBalance,
	})
	require.Equal(t, http.StatusOK, code, "deposit: %v", body)
	require.Equal(t, float64(donorBalance), data(t, body)["balance"])

	code, body = a.do(t, http.MethodPost, "/api/v1/campaigns", organizerToken, map[string]interface{}{
		"title":         "Flood Relief",
		"description":   "Rebuilding after the river flood",
		"location":      "Riverside District",
		"disaster_type": "FLOOD",
		"goal_amount":   int64(1_000_000),
	})
	require.Equal(t, http.StatusCreated, code, "create campaign: %v", body)
	campaignID := data(t, body)["id"].(string)

	return &fundedCampaign{
		organizerID:    organizerID,
		organizerToken: organizerToken,
		donorID:        donorID,
		donorToken:     donorToken,
		adminToken:     admin,
		campaignID:     campaignID,
	}
}

// --- Integration Tests ---

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	code, body := app.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
}

func TestIntegration_RegisterAndLogin(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	code, body := app.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username":     "donor_jane",
		"password":     "StrongPass123!",
		"display_name": "Jane",
		"role":         "DONOR",
	})
	require.Equal(t, http.StatusCreated, code)
	d := data(t, body)
	assert.NotEmpty(t, d["account_id"])
	assert.Equal(t, "DONOR", d["role"])

	token := app.login(t, "donor_jane", "StrongPass123!")
	assert.NotEmpty(t, token)
}

func TestIntegration_DuplicateUsername(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	reg := map[string]string{
		"username":     "dupe",
		"password":     "StrongPass123!",
		"display_name": "Dupe",
		"role":         "DONOR",
	}
	code, _ := app.do(t, http.MethodPost, "/api/v1/auth/register", "", reg)
	require.Equal(t, http.StatusCreated, code)

	code, body := app.do(t, http.MethodPost, "/api/v1/auth/register", "", reg)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "AUTHZ_005", body["error_code"])
}

func TestIntegration_AdminRoleCannotSelfRegister(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	code, _ := app.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username":     "wannabe_admin",
		"password":     "StrongPass123!",
		"display_name": "Nope",
		"role":         "ADMIN",
	})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestIntegration_LoginWrongCredentials(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	code, _ := app.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "nobody",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestIntegration_JWT_Unauthorized(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	code, _ := app.do(t, http.MethodGet, "/api/v1/campaigns", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestIntegration_CampaignRequiresApprovedOrganizer(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	_, token := app.registerAndLogin(t, "unapproved_org", "ORGANIZER")

	code, body := app.do(t, http.MethodPost, "/api/v1/campaigns", token, map[string]interface{}{
		"title":         "Unauthorized Campaign",
		"location":      "Nowhere",
		"disaster_type": "FLOOD",
		"goal_amount":   int64(1000),
	})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "AUTHZ_002", body["error_code"])
}

// TestIntegration_ReliefRoundTrip walks the full lifecycle: donation into
// escrow, beneficiary application and approval, allocation into a restricted
// wallet, merchant verification and per-wallet approval, and a category-gated
// spend that lands on the merchant's ledger account.
func TestIntegration_ReliefRoundTrip(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	fc := app.newFundedCampaign(t, 100_000)
	beneficiaryID, beneficiaryToken := app.registerAndLogin(t, "beneficiary1", "BENEFICIARY")
	merchantID, _ := app.registerAndLogin(t, "merchant1", "MERCHANT")

	// Donate 40,000 into the campaign escrow.
	code, body := app.do(t, http.MethodPost, "/api/v1/campaigns/"+fc.campaignID+"/donations", fc.donorToken, map[string]interface{}{
		"amount": int64(40_000),
	})
	require.Equal(t, http.StatusCreated, code, "donate: %v", body)
	assert.Equal(t, float64(40_000), data(t, body)["amount"])

	donorBalance, err := app.ledger.BalanceOf(t.Context(), fc.donorID)
	require.NoError(t, err)
	assert.Equal(t, int64(60_000), donorBalance)

	// Beneficiary applies, organizer approves.
	code, body = app.do(t, http.MethodPost, "/api/v1/campaigns/"+fc.campaignID+"/applications", beneficiaryToken, nil)
	require.Equal(t, http.StatusCreated, code, "apply: %v", body)
	assert.Equal(t, "APPLIED", data(t, body)["state"])

	code, body = app.do(t, http.MethodPost, "/api/v1/campaigns/"+fc.campaignID+"/applications/"+beneficiaryID.String()+"/approve", fc.organizerToken, nil)
	require.Equal(t, http.StatusOK, code, "approve beneficiary: %v", body)

	code, body = app.do(t, http.MethodGet, "/api/v1/campaigns/"+fc.campaignID+"/beneficiaries/"+beneficiaryID.String(), fc.donorToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, data(t, body)["result"])

	// Allocate 15,000 into the beneficiary's restricted wallet.
	code, body = app.do(t, http.MethodPost, "/api/v1/campaigns/"+fc.campaignID+"/allocations", fc.organizerToken, map[string]interface{}{
		"beneficiary": beneficiaryID.String(),
		"amount":      int64(15_000),
	})
	require.Equal(t, http.StatusCreated, code, "allocate: %v", body)
	wallet := data(t, body)
	walletID := wallet["id"].(string)
	assert.Equal(t, float64(15_000), wallet["total_received"])
	assert.Equal(t, float64(15_000), wallet["balance"])

	// Escrow accounting: raised 40,000, allocated 15,000, available 25,000.
	code, body = app.do(t, http.MethodGet, "/api/v1/campaigns/"+fc.campaignID+"/stats", fc.donorToken, nil)
	require.Equal(t, http.StatusOK, code)
	stats := data(t, body)
	assert.Equal(t, float64(40_000), stats["raised_amount"])
	assert.Equal(t, float64(15_000), stats["total_allocated"])
	assert.Equal(t, float64(25_000), stats["available"])
	assert.Equal(t, float64(1), stats["donation_count"])

	// Verify merchant platform-wide, then approve it on this wallet for FOOD.
	code, body = app.do(t, http.MethodPost, "/api/v1/registry/merchants/"+merchantID.String()+"/verify", fc.adminToken, nil)
	require.Equal(t, http.StatusOK, code, "verify merchant: %v", body)

	code, body = app.do(t, http.MethodPost, "/api/v1/wallets/"+walletID+"/approvals", fc.organizerToken, map[string]string{
		"merchant": merchantID.String(),
		"category": "FOOD",
	})
	require.Equal(t, http.StatusCreated, code, "approve merchant: %v", body)

	// Spend 5,000 at the approved merchant.
	code, body = app.do(t, http.MethodPost, "/api/v1/wallets/"+walletID+"/spends", beneficiaryToken, map[string]interface{}{
		"merchant":    merchantID.String(),
		"amount":      int64(5_000),
		"category":    "FOOD",
		"description": "Weekly groceries",
	})
	require.Equal(t, http.StatusCreated, code, "spend: %v", body)
	assert.Equal(t, float64(5_000), data(t, body)["amount"])

	merchantBalance, err := app.ledger.BalanceOf(t.Context(), merchantID)
	require.NoError(t, err)
	assert.Equal(t, int64(5_000), merchantBalance)

	// Wallet statement reflects the spend.
	code, body = app.do(t, http.MethodGet, "/api/v1/wallets/"+walletID+"/statement", beneficiaryToken, nil)
	require.Equal(t, http.StatusOK, code)
	statement := data(t, body)
	assert.Equal(t, float64(15_000), statement["total_received"])
	assert.Equal(t, float64(5_000), statement["total_spent"])
	assert.Equal(t, float64(10_000), statement["balance"])

	// Every transition landed on the Redis event stream.
	streamLen, err := app.rdb.XLen(t.Context(), "events:stream").Result()
	require.NoError(t, err)
	assert.Greater(t, streamLen, int64(5))

	// And on the durable event log.
	code, body = app.do(t, http.MethodGet, "/api/v1/campaigns/"+fc.campaignID+"/events", fc.donorToken, nil)
	require.Equal(t, http.StatusOK, code)
	events, ok := body["data"].([]interface{})
	require.True(t, ok, "events response: %v", body)
	assert.NotEmpty(t, events)
	newest := events[0].(map[string]interface{})
	assert.Equal(t, "WALLET_SPEND", newest["type"])
}

func TestIntegration_WalletCreationIsIdempotent(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	fc := app.newFundedCampaign(t, 50_000)
	beneficiaryID, beneficiaryToken := app.registerAndLogin(t, "beneficiary2", "BENEFICIARY")

	code, _ := app.do(t, http.MethodPost, "/api/v1/campaigns/"+fc.campaignID+"/donations", fc.donorToken, map[string]interface{}{"amount": int64(30_000)})
	require.Equal(t, http.StatusCreated, code)

	code, _ = app.do(t, http.MethodPost, "/api/v1/campaigns/"+fc.campaignID+"/applications", beneficiaryToken, nil)
	require.Equal(t, http.StatusCreated, code)
	code, _ = app.do(t, http.MethodPost, "/api/v1/campaigns/"+fc.campaignID+"/applications/"+beneficiaryID.String()+"/approve", fc.organizerToken, nil)
	require.Equal(t, http.StatusOK, code)

	allocate := func() map[string]interface{} {
		code, body := app.do(t, http.MethodPost, "/api/v1/campaigns/"+fc.campaignID+"/allocations", fc.organizerToken, map[string]interface{}{
			"beneficiary": beneficiaryID.String(),
			"amount":      int64(10_000),
		})
		require.Equal(t, http.StatusCreated, code, "allocate: %v", body)
		return data(t, body)
	}

	first := allocate()
	second := allocate()

	// Second allocation reuses the same wallet and sums into it.
	assert.Equal(t, first["id"], second["id"])
	assert.Equal(t, float64(20_000), second["total_received"])
	assert.Equal(t, float64(20_000), second["balance"])
}

func TestIntegration_AllocationExceedsAvailable(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	fc := app.newFundedCampaign(t, 50_000)
	beneficiaryID, beneficiaryToken := app.registerAndLogin(t, "beneficiary3", "BENEFICIARY")

	code, _ := app.do(t, http.MethodPost, "/api/v1/campaigns/"+fc.campaignID+"/donations", fc.donorToken, map[string]interface{}{"amount": int64(10_000)})
	require.Equal(t, http.StatusCreated, code)
	code, _ = app.do(t, http.MethodPost, "/api/v1/campaigns/"+fc.campaignID+"/applications", beneficiaryToken, nil)
	require.Equal(t, http.StatusCreated, code)
	code, _ = app.do(t, http.MethodPost, "/api/v1/campaigns/"+fc.campaignID+"/applications/"+beneficiaryID.String()+"/approve", fc.organizerToken, nil)
	require.Equal(t, http.StatusOK, code)

	code, body := app.do(t, http.MethodPost, "/api/v1/campaigns/"+fc.campaignID+"/allocations", fc.organizerToken, map[string]interface{}{
		"beneficiary": beneficiaryID.String(),
		"amount":      int64(10_001),
	})
	assert.Equal(t, http.StatusPaymentRequired, code)
	assert.Equal(t, "VAL_004", body["error_code"])
}

func TestIntegration_DonationToPausedCampaignRejected(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	fc := app.newFundedCampaign(t, 50_000)

	code, _ := app.do(t, http.MethodPatch, "/api/v1/campaigns/"+fc.campaignID+"/status", fc.organizerToken, map[string]string{"status": "PAUSED"})
	require.Equal(t, http.StatusOK, code)

	code, body := app.do(t, http.MethodPost, "/api/v1/campaigns/"+fc.campaignID+"/donations", fc.donorToken, map[string]interface{}{"amount": int64(1_000)})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "STATE_001", body["error_code"])
}

func TestIntegration_TerminalStatusIsFinal(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	fc := app.newFundedCampaign(t, 50_000)

	code, _ := app.do(t, http.MethodPatch, "/api/v1/campaigns/"+fc.campaignID+"/status", fc.organizerToken, map[string]string{"status": "CANCELLED"})
	require.Equal(t, http.StatusOK, code)

	// No way back out of CANCELLED, not even for the organizer.
	code, body := app.do(t, http.MethodPatch, "/api/v1/campaigns/"+fc.campaignID+"/status", fc.organizerToken, map[string]string{"status": "ACTIVE"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "STATE_001", body["error_code"])

	code, body = app.do(t, http.MethodPost, "/api/v1/campaigns/"+fc.campaignID+"/donations", fc.donorToken, map[string]interface{}{"amount": int64(1_000)})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "STATE_001", body["error_code"])
}

func TestIntegration_RejectedBeneficiaryCannotReapply(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	fc := app.newFundedCampaign(t, 50_000)
	beneficiaryID, beneficiaryToken := app.registerAndLogin(t, "beneficiary4", "BENEFICIARY")

	code, _ := app.do(t, http.MethodPost, "/api/v1/campaigns/"+fc.campaignID+"/applications", beneficiaryToken, nil)
	require.Equal(t, http.StatusCreated, code)
	code, _ = app.do(t, http.MethodPost, "/api/v1/campaigns/"+fc.campaignID+"/applications/"+beneficiaryID.String()+"/reject", fc.organizerToken, nil)
	require.Equal(t, http.StatusOK, code)

	code, body := app.do(t, http.MethodPost, "/api/v1/campaigns/"+fc.campaignID+"/applications", beneficiaryToken, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "STATE_004", body["error_code"])
}

func TestIntegration_SpendGates(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	fc := app.newFundedCampaign(t, 100_000)
	beneficiaryID, beneficiaryToken := app.registerAndLogin(t, "beneficiary5", "BENEFICIARY")
	merchantID, _ := app.registerAndLogin(t, "merchant2", "MERCHANT")

	code, _ := app.do(t, http.MethodPost, "/api/v1/campaigns/"+fc.campaignID+"/donations", fc.donorToken, map[string]interface{}{"amount": int64(50_000)})
	require.Equal(t, http.StatusCreated, code)
	code, _ = app.do(t, http.MethodPost, "/api/v1/campaigns/"+fc.campaignID+"/applications", beneficiaryToken, nil)
	require.Equal(t, http.StatusCreated, code)
	code, _ = app.do(t, http.MethodPost, "/api/v1/campaigns/"+fc.campaignID+"/applications/"+beneficiaryID.String()+"/approve", fc.organizerToken, nil)
	require.Equal(t, http.StatusOK, code)

	code, body := app.do(t, http.MethodPost, "/api/v1/campaigns/"+fc.campaignID+"/allocations", fc.organizerToken, map[string]interface{}{
		"beneficiary": beneficiaryID.String(),
		"amount":      int64(20_000),
	})
	require.Equal(t, http.StatusCreated, code)
	walletID := data(t, body)["id"].(string)

	spend := func(merchant, category string, amount int64) (int, map[string]interface{}) {
		return app.do(t, http.MethodPost, "/api/v1/wallets/"+walletID+"/spends", beneficiaryToken, map[string]interface{}{
			"merchant": merchant,
			"amount":   amount,
			"category": category,
		})
	}

	// Unapproved merchant.
	code, body = spend(merchantID.String(), "FOOD", 1_000)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "STATE_006", body["error_code"])

	// Per-wallet approval needs platform verification first.
	code, body = app.do(t, http.MethodPost, "/api/v1/wallets/"+walletID+"/approvals", fc.organizerToken, map[string]string{
		"merchant": merchantID.String(),
		"category": "FOOD",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "STATE_010", body["error_code"])

	code, _ = app.do(t, http.MethodPost, "/api/v1/registry/merchants/"+merchantID.String()+"/verify", fc.adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = app.do(t, http.MethodPost, "/api/v1/wallets/"+walletID+"/approvals", fc.organizerToken, map[string]string{
		"merchant": merchantID.String(),
		"category": "FOOD",
	})
	require.Equal(t, http.StatusCreated, code)

	// Approval is category-scoped: MEDICINE was never granted.
	code, body = spend(merchantID.String(), "MEDICINE", 1_000)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "STATE_006", body["error_code"])

	// Spending past the wallet balance fails.
	code, body = spend(merchantID.String(), "FOOD", 20_001)
	assert.Equal(t, http.StatusPaymentRequired, code)
	assert.Equal(t, "VAL_003", body["error_code"])

	// The approved (merchant, category) pair within balance succeeds.
	code, _ = spend(merchantID.String(), "FOOD", 1_000)
	assert.Equal(t, http.StatusCreated, code)
}

func TestIntegration_ApprovalScopedToWallet(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	fc := app.newFundedCampaign(t, 100_000)
	ben1ID, ben1Token := app.registerAndLogin(t, "beneficiary_a", "BENEFICIARY")
	ben2ID, ben2Token := app.registerAndLogin(t, "beneficiary_b", "BENEFICIARY")
	merchantID, _ := app.registerAndLogin(t, "merchant3", "MERCHANT")

	code, _ := app.do(t, http.MethodPost, "/api/v1/campaigns/"+fc.campaignID+"/donations", fc.donorToken, map[string]interface{}{"amount": int64(60_000)})
	require.Equal(t, http.StatusCreated, code)

	wallets := make(map[uuid.UUID]string)
	for _, ben := range []struct {
		id    uuid.UUID
		token string
	}{{ben1ID, ben1Token}, {ben2ID, ben2Token}} {
		code, _ = app.do(t, http.MethodPost, "/api/v1/campaigns/"+fc.campaignID+"/applications", ben.token, nil)
		require.Equal(t, http.StatusCreated, code)
		code, _ = app.do(t, http.MethodPost, "/api/v1/campaigns/"+fc.campaignID+"/applications/"+ben.id.String()+"/approve", fc.organizerToken, nil)
		require.Equal(t, http.StatusOK, code)

		code, body := app.do(t, http.MethodPost, "/api/v1/campaigns/"+fc.campaignID+"/allocations", fc.organizerToken, map[string]interface{}{
			"beneficiary": ben.id.String(),
			"amount":      int64(20_000),
		})
		require.Equal(t, http.StatusCreated, code)
		wallets[ben.id] = data(t, body)["id"].(string)
	}

	code, _ = app.do(t, http.MethodPost, "/api/v1/registry/merchants/"+merchantID.String()+"/verify", fc.adminToken, nil)
	require.Equal(t, http.StatusOK, code)

	// Approval is granted on the first beneficiary's wallet only.
	code, _ = app.do(t, http.MethodPost, "/api/v1/wallets/"+wallets[ben1ID]+"/approvals", fc.organizerToken, map[string]string{
		"merchant": merchantID.String(),
		"category": "FOOD",
	})
	require.Equal(t, http.StatusCreated, code)

	// The platform admin cannot grant approvals; only the organizer can.
	code, body := app.do(t, http.MethodPost, "/api/v1/wallets/"+wallets[ben2ID]+"/approvals", fc.adminToken, map[string]string{
		"merchant": merchantID.String(),
		"category": "FOOD",
	})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "AUTHZ_001", body["error_code"])

	// The FOOD approval on wallet 1 grants nothing on wallet 2.
	code, body = app.do(t, http.MethodPost, "/api/v1/wallets/"+wallets[ben2ID]+"/spends", ben2Token, map[string]interface{}{
		"merchant": merchantID.String(),
		"amount":   int64(1_000),
		"category": "FOOD",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "STATE_006", body["error_code"])

	// The same spend from the approved wallet goes through.
	code, _ = app.do(t, http.MethodPost, "/api/v1/wallets/"+wallets[ben1ID]+"/spends", ben1Token, map[string]interface{}{
		"merchant": merchantID.String(),
		"amount":   int64(1_000),
		"category": "FOOD",
	})
	assert.Equal(t, http.StatusCreated, code)
}

func TestIntegration_RegisterRateLimited(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	// auth_register allows 5 per hour per client IP.
	for i := 0; i < 5; i++ {
		code, _ := app.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
			"username":     fmt.Sprintf("ratelimit_user_%d", i),
			"password":     "StrongPass123!",
			"display_name": "RL",
			"role":         "DONOR",
		})
		require.Equal(t, http.StatusCreated, code)
	}

	code, body := app.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username":     "ratelimit_user_6",
		"password":     "StrongPass123!",
		"display_name": "RL",
		"role":         "DONOR",
	})
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "RATE_001", body["error_code"])
}
