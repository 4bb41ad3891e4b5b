package integration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"relief-fund-gateway/internal/core/domain"
	"relief-fund-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Account Repo ---

type inMemoryAccountRepo struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*domain.Account
}

func newInMemoryAccountRepo() *inMemoryAccountRepo {
	return &inMemoryAccountRepo{accounts: make(map[uuid.UUID]*domain.Account)}
}

func (r *inMemoryAccountRepo) Create(ctx context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.Username == a.Username {
			return fmt.Errorf("username already exists")
		}
	}
	r.accounts[a.ID] = a
	return nil
}

func (r *inMemoryAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	return a, nil
}

func (r *inMemoryAccountRepo) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.accounts {
		if a.Username == username {
			return a, nil
		}
	}
	return nil, nil
}

// --- In-Memory Registry Repo ---

type inMemoryRegistryRepo struct {
	mu         sync.RWMutex
	organizers map[uuid.UUID]*domain.OrganizerApproval
	merchants  map[uuid.UUID]*domain.MerchantVerification
}

func newInMemoryRegistryRepo() *inMemoryRegistryRepo {
	return &inMemoryRegistryRepo{
		organizers: make(map[uuid.UUID]*domain.OrganizerApproval),
		merchants:  make(map[uuid.UUID]*domain.MerchantVerification),
	}
}

func (r *inMemoryRegistryRepo) ApproveOrganizer(ctx context.Context, tx pgx.Tx, approval *domain.OrganizerApproval) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.organizers[approval.Identity] = approval
	return nil
}

func (r *inMemoryRegistryRepo) IsApprovedOrganizer(ctx context.Context, identity uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.organizers[identity]
	return ok, nil
}

func (r *inMemoryRegistryRepo) VerifyMerchant(ctx context.Context, tx pgx.Tx, verification *domain.MerchantVerification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.merchants[verification.Identity] = verification
	return nil
}

func (r *inMemoryRegistryRepo) RevokeMerchant(ctx context.Context, tx pgx.Tx, identity uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.merchants, identity)
	return nil
}

func (r *inMemoryRegistryRepo) IsVerifiedMerchant(ctx context.Context, identity uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.merchants[identity]
	return ok, nil
}

// --- In-Memory Campaign Repo ---

type inMemoryCampaignRepo struct {
	mu        sync.RWMutex
	campaigns map[uuid.UUID]*domain.Campaign
}

func newInMemoryCampaignRepo() *inMemoryCampaignRepo {
	return &inMemoryCampaignRepo{campaigns: make(map[uuid.UUID]*domain.Campaign)}
}

func (r *inMemoryCampaignRepo) Create(ctx context.Context, tx pgx.Tx, c *domain.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.campaigns[c.ID] = &cp
	return nil
}

func (r *inMemoryCampaignRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.campaigns[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *inMemoryCampaignRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Campaign, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryCampaignRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.CampaignStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return fmt.Errorf("campaign not found")
	}
	c.Status = status
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *inMemoryCampaignRepo) AddRaised(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return fmt.Errorf("campaign not found")
	}
	c.RaisedAmount += amount
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *inMemoryCampaignRepo) AddAllocated(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return fmt.Errorf("campaign not found")
	}
	c.TotalAllocated += amount
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *inMemoryCampaignRepo) List(ctx context.Context, limit, offset int) ([]domain.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Campaign
	for _, c := range r.campaigns {
		result = append(result, *c)
	}
	if offset >= len(result) {
		return []domain.Campaign{}, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], nil
}

func (r *inMemoryCampaignRepo) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.campaigns)), nil
}

// --- In-Memory Application Repo ---

type appKey struct {
	campaign    uuid.UUID
	beneficiary uuid.UUID
}

type inMemoryApplicationRepo struct {
	mu   sync.RWMutex
	apps map[appKey]*domain.BeneficiaryApplication
}

func newInMemoryApplicationRepo() *inMemoryApplicationRepo {
	return &inMemoryApplicationRepo{apps: make(map[appKey]*domain.BeneficiaryApplication)}
}

func (r *inMemoryApplicationRepo) Create(ctx context.Context, tx pgx.Tx, app *domain.BeneficiaryApplication) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := appKey{app.CampaignID, app.Beneficiary}
	if _, ok := r.apps[key]; ok {
		return fmt.Errorf("application already exists")
	}
	cp := *app
	r.apps[key] = &cp
	return nil
}

func (r *inMemoryApplicationRepo) Get(ctx context.Context, campaignID, beneficiary uuid.UUID) (*domain.BeneficiaryApplication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	app, ok := r.apps[appKey{campaignID, beneficiary}]
	if !ok {
		return nil, nil
	}
	cp := *app
	return &cp, nil
}

func (r *inMemoryApplicationRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, campaignID, beneficiary uuid.UUID) (*domain.BeneficiaryApplication, error) {
	return r.Get(ctx, campaignID, beneficiary)
}

func (r *inMemoryApplicationRepo) UpdateState(ctx context.Context, tx pgx.Tx, id uuid.UUID, state domain.ApplicationState, reviewedBy uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, app := range r.apps {
		if app.ID == id {
			now := time.Now().UTC()
			app.State = state
			app.ReviewedBy = &reviewedBy
			app.ReviewedAt = &now
			return nil
		}
	}
	return fmt.Errorf("application not found")
}

func (r *inMemoryApplicationRepo) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]domain.BeneficiaryApplication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.BeneficiaryApplication
	for _, app := range r.apps {
		if app.CampaignID == campaignID {
			result = append(result, *app)
		}
	}
	return result, nil
}

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu        sync.RWMutex
	wallets   map[uuid.UUID]*domain.RestrictedWallet
	approvals []*domain.MerchantApproval
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[uuid.UUID]*domain.RestrictedWallet)}
}

func (r *inMemoryWalletRepo) CreateIfAbsent(ctx context.Context, tx pgx.Tx, w *domain.RestrictedWallet) (*domain.RestrictedWallet, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.wallets {
		if existing.CampaignID == w.CampaignID && existing.Beneficiary == w.Beneficiary {
			cp := *existing
			return &cp, false, nil
		}
	}
	cp := *w
	r.wallets[w.ID] = &cp
	out := cp
	return &out, true, nil
}

func (r *inMemoryWalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.RestrictedWallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.RestrictedWallet, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryWalletRepo) GetByCampaignAndBeneficiary(ctx context.Context, campaignID, beneficiary uuid.UUID) (*domain.RestrictedWallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.wallets {
		if w.CampaignID == campaignID && w.Beneficiary == beneficiary {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryWalletRepo) AddReceived(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet not found")
	}
	w.TotalReceived += amount
	w.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *inMemoryWalletRepo) AddSpent(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet not found")
	}
	w.TotalSpent += amount
	w.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *inMemoryWalletRepo) CreateApproval(ctx context.Context, tx pgx.Tx, approval *domain.MerchantApproval) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.approvals {
		if a.WalletID == approval.WalletID && a.Merchant == approval.Merchant && a.Category == approval.Category {
			return ports.ErrDuplicateApproval
		}
	}
	cp := *approval
	r.approvals = append(r.approvals, &cp)
	return nil
}

func (r *inMemoryWalletRepo) IsMerchantApproved(ctx context.Context, walletID, merchant uuid.UUID, category domain.SpendCategory) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.approvals {
		if a.WalletID == walletID && a.Merchant == merchant && a.Category == category {
			return true, nil
		}
	}
	return false, nil
}

func (r *inMemoryWalletRepo) ListApprovals(ctx context.Context, walletID uuid.UUID) ([]domain.MerchantApproval, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.MerchantApproval
	for _, a := range r.approvals {
		if a.WalletID == walletID {
			result = append(result, *a)
		}
	}
	return result, nil
}

// --- In-Memory Donation Repo ---

type inMemoryDonationRepo struct {
	mu        sync.RWMutex
	donations []*domain.Donation
}

func newInMemoryDonationRepo() *inMemoryDonationRepo {
	return &inMemoryDonationRepo{}
}

func (r *inMemoryDonationRepo) Create(ctx context.Context, tx pgx.Tx, d *domain.Donation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *d
	r.donations = append(r.donations, &cp)
	return nil
}

func (r *inMemoryDonationRepo) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]domain.Donation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Donation
	for _, d := range r.donations {
		if d.CampaignID == campaignID {
			result = append(result, *d)
		}
	}
	return result, nil
}

func (r *inMemoryDonationRepo) SumByCampaign(ctx context.Context, campaignID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sum int64
	for _, d := range r.donations {
		if d.CampaignID == campaignID {
			sum += d.Amount
		}
	}
	return sum, nil
}

func (r *inMemoryDonationRepo) CountByCampaign(ctx context.Context, campaignID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, d := range r.donations {
		if d.CampaignID == campaignID {
			count++
		}
	}
	return count, nil
}

// --- In-Memory Allocation Repo ---

type inMemoryAllocationRepo struct {
	mu          sync.RWMutex
	allocations []*domain.Allocation
}

func newInMemoryAllocationRepo() *inMemoryAllocationRepo {
	return &inMemoryAllocationRepo{}
}

func (r *inMemoryAllocationRepo) Create(ctx context.Context, tx pgx.Tx, a *domain.Allocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.allocations = append(r.allocations, &cp)
	return nil
}

func (r *inMemoryAllocationRepo) ListByWallet(ctx context.Context, walletID uuid.UUID) ([]domain.Allocation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Allocation
	for _, a := range r.allocations {
		if a.WalletID == walletID {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (r *inMemoryAllocationRepo) SumByWallet(ctx context.Context, walletID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sum int64
	for _, a := range r.allocations {
		if a.WalletID == walletID {
			sum += a.Amount
		}
	}
	return sum, nil
}

// --- In-Memory Spend Repo ---

type inMemorySpendRepo struct {
	mu     sync.RWMutex
	spends []*domain.SpendRecord
}

func newInMemorySpendRepo() *inMemorySpendRepo {
	return &inMemorySpendRepo{}
}

func (r *inMemorySpendRepo) Create(ctx context.Context, tx pgx.Tx, s *domain.SpendRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.spends = append(r.spends, &cp)
	return nil
}

func (r *inMemorySpendRepo) ListByWallet(ctx context.Context, walletID uuid.UUID) ([]domain.SpendRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.SpendRecord
	for _, s := range r.spends {
		if s.WalletID == walletID {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (r *inMemorySpendRepo) SumByWallet(ctx context.Context, walletID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sum int64
	for _, s := range r.spends {
		if s.WalletID == walletID {
			sum += s.Amount
		}
	}
	return sum, nil
}

// --- In-Memory Event Repo ---

type inMemoryEventRepo struct {
	mu     sync.RWMutex
	events []*domain.Event
}

func newInMemoryEventRepo() *inMemoryEventRepo {
	return &inMemoryEventRepo{}
}

func (r *inMemoryEventRepo) Create(ctx context.Context, tx pgx.Tx, e *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *e
	r.events = append(r.events, &cp)
	return nil
}

func (r *inMemoryEventRepo) ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit int) ([]domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Event
	for i := len(r.events) - 1; i >= 0 && len(result) < limit; i-- {
		e := r.events[i]
		if e.CampaignID != nil && *e.CampaignID == campaignID {
			result = append(result, *e)
		}
	}
	return result, nil
}

// --- In-Memory Token Ledger ---

// inMemoryLedger mirrors the Postgres ledger semantics: the debit is
// conditional and atomic, so a holder's balance can never go negative no
// matter how the callers race.
type inMemoryLedger struct {
	mu       sync.Mutex
	balances map[uuid.UUID]int64
}

func newInMemoryLedger() *inMemoryLedger {
	return &inMemoryLedger{balances: make(map[uuid.UUID]int64)}
}

func (l *inMemoryLedger) EnsureAccount(ctx context.Context, tx pgx.Tx, holder uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.balances[holder]; !ok {
		l.balances[holder] = 0
	}
	return nil
}

func (l *inMemoryLedger) Transfer(ctx context.Context, tx pgx.Tx, from, to uuid.UUID, amount int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	balance, ok := l.balances[from]
	if !ok || balance < amount {
		return 0, ports.ErrInsufficientFunds
	}
	if _, ok := l.balances[to]; !ok {
		return 0, fmt.Errorf("ledger credit: no account for holder %s", to)
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return amount, nil
}

func (l *inMemoryLedger) Mint(ctx context.Context, tx pgx.Tx, holder uuid.UUID, amount int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.balances[holder]; !ok {
		return 0, fmt.Errorf("ledger mint: no account for holder %s", holder)
	}
	l.balances[holder] += amount
	return amount, nil
}

func (l *inMemoryLedger) BalanceOf(ctx context.Context, holder uuid.UUID) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[holder], nil
}

// --- In-Memory Transactor (no-op tx) ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
