// AngelaMos | 2026
// fake_test.go

package ledger

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/vipledger/internal/core"
	"github.com/carterperez-dev/vipledger/internal/events"
)

// memStore is an in-memory ledger. WithTx serialises transactions and
// restores a snapshot when fn fails, which is the behaviour the service
// relies on from the database.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	wallets     map[string]Wallet
	investments map[string]Investment
	withdrawals map[string]WithdrawalRequest
	invOrder    []string
	wdOrder     []string

	failOn map[string]error
	clock  time.Time
}

func newMemStore() *memStore {
	return &memStore{
		wallets:     make(map[string]Wallet),
		investments: make(map[string]Investment),
		withdrawals: make(map[string]WithdrawalRequest),
		failOn:      make(map[string]error),
		clock:       time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) addWallet(balance, withdrawal int64) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	userID := uuid.New().String()
	m.wallets[userID] = Wallet{
		ID:                uuid.New().String(),
		UserID:            userID,
		Balance:           balance,
		WithdrawalBalance: withdrawal,
		Phone:             "9" + userID[:8],
	}
	return userID
}

func (m *memStore) wallet(userID string) Wallet {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wallets[userID]
}

func (m *memStore) investment(id string) Investment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.investments[id]
}

func (m *memStore) withdrawal(id string) WithdrawalRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.withdrawals[id]
}

func (m *memStore) addInvestment(userID, packageID string, end time.Time) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	pkgPrice, pkgReturn := int64(6000), int64(300)
	inv := Investment{
		ID:           uuid.New().String(),
		UserID:       userID,
		PackageID:    packageID,
		Amount:       pkgPrice,
		DailyReturn:  pkgReturn,
		DurationDays: 365,
		Status:       InvestmentActive,
		StartDate:    end.AddDate(0, 0, -365),
		EndDate:      end,
	}
	m.investments[inv.ID] = inv
	m.invOrder = append(m.invOrder, inv.ID)
	return inv.ID
}

func (m *memStore) addWithdrawal(userID string, amount int64, status string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := WithdrawalRequest{
		ID:          uuid.New().String(),
		UserID:      userID,
		Amount:      amount,
		Destination: "AO06004000001234567890123",
		Status:      status,
	}
	m.withdrawals[w.ID] = w
	m.wdOrder = append(m.wdOrder, w.ID)
	return w.ID
}

func (m *memStore) fail(op string) error {
	if err, ok := m.failOn[op]; ok {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

type snapshot struct {
	wallets     map[string]Wallet
	investments map[string]Investment
	withdrawals map[string]WithdrawalRequest
	invOrder    []string
	wdOrder     []string
}

func (m *memStore) snapshot() snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return snapshot{
		wallets:     maps.Clone(m.wallets),
		investments: maps.Clone(m.investments),
		withdrawals: maps.Clone(m.withdrawals),
		invOrder:    slices.Clone(m.invOrder),
		wdOrder:     slices.Clone(m.wdOrder),
	}
}

func (m *memStore) restore(s snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallets = s.wallets
	m.investments = s.investments
	m.withdrawals = s.withdrawals
	m.invOrder = s.invOrder
	m.wdOrder = s.wdOrder
}

type fakeRepo struct {
	s    *memStore
	inTx bool
}

func (m *memStore) repo() Repository {
	return &fakeRepo{s: m}
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(repo Repository) error) error {
	if f.inTx {
		return fn(f)
	}

	f.s.txMu.Lock()
	defer f.s.txMu.Unlock()

	snap := f.s.snapshot()
	if err := fn(&fakeRepo{s: f.s, inTx: true}); err != nil {
		f.s.restore(snap)
		return err
	}
	return nil
}

func (f *fakeRepo) GetWallet(_ context.Context, userID string) (*Wallet, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	if err := f.s.fail("GetWallet"); err != nil {
		return nil, err
	}
	w, ok := f.s.wallets[userID]
	if !ok {
		return nil, fmt.Errorf("get wallet: %w", core.ErrNotFound)
	}
	return &w, nil
}

func (f *fakeRepo) adjust(
	op, userID string,
	apply func(w *Wallet) error,
) (*Wallet, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	if err := f.s.fail(op); err != nil {
		return nil, err
	}
	w, ok := f.s.wallets[userID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err := apply(&w); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	f.s.wallets[userID] = w
	return &w, nil
}

func (f *fakeRepo) DebitBalance(_ context.Context, userID string, amount int64) (*Wallet, error) {
	return f.adjust("DebitBalance", userID, func(w *Wallet) error {
		if w.Balance < amount {
			return ErrInsufficientFunds
		}
		w.Balance -= amount
		return nil
	})
}

func (f *fakeRepo) CreditBalance(_ context.Context, userID string, amount int64) (*Wallet, error) {
	return f.adjust("CreditBalance", userID, func(w *Wallet) error {
		w.Balance += amount
		return nil
	})
}

func (f *fakeRepo) DebitWithdrawalBalance(_ context.Context, userID string, amount int64) (*Wallet, error) {
	return f.adjust("DebitWithdrawalBalance", userID, func(w *Wallet) error {
		if w.WithdrawalBalance < amount {
			return ErrInsufficientWithdrawalBalance
		}
		w.WithdrawalBalance -= amount
		return nil
	})
}

func (f *fakeRepo) CreditWithdrawalBalance(_ context.Context, userID string, amount int64) (*Wallet, error) {
	return f.adjust("CreditWithdrawalBalance", userID, func(w *Wallet) error {
		w.WithdrawalBalance += amount
		return nil
	})
}

func (f *fakeRepo) CountActiveInvestments(_ context.Context, userID string) (int, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	n := 0
	for _, inv := range f.s.investments {
		if inv.UserID == userID && inv.Status == InvestmentActive {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) CreateInvestment(_ context.Context, inv *Investment) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	if err := f.s.fail("CreateInvestment"); err != nil {
		return err
	}
	inv.CreatedAt = f.s.clock
	inv.UpdatedAt = f.s.clock
	f.s.investments[inv.ID] = *inv
	f.s.invOrder = append(f.s.invOrder, inv.ID)
	return nil
}

func (f *fakeRepo) GetInvestment(_ context.Context, id string) (*Investment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	inv, ok := f.s.investments[id]
	if !ok {
		return nil, fmt.Errorf("get investment: %w", core.ErrNotFound)
	}
	return &inv, nil
}

func (f *fakeRepo) CancelInvestment(_ context.Context, id string) (*Investment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	inv, ok := f.s.investments[id]
	if !ok {
		return nil, fmt.Errorf("cancel investment: %w", core.ErrNotFound)
	}
	if inv.Status != InvestmentActive {
		return nil, fmt.Errorf("cancel investment: %w", ErrNotActive)
	}
	inv.Status = InvestmentCancelled
	f.s.investments[id] = inv
	return &inv, nil
}

func (f *fakeRepo) ListActiveInvestments(_ context.Context) ([]Investment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	if err := f.s.fail("ListActiveInvestments"); err != nil {
		return nil, err
	}
	var out []Investment
	for _, id := range f.s.invOrder {
		if inv := f.s.investments[id]; inv.Status == InvestmentActive {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreditInvestmentReturn(
	_ context.Context,
	id string,
	today, now time.Time,
	guard bool,
) (*Investment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	inv, ok := f.s.investments[id]
	if !ok || inv.Status != InvestmentActive {
		return nil, errNotCredited
	}
	if guard && inv.LastCreditedOn != nil && !inv.LastCreditedOn.Before(today) {
		return nil, errNotCredited
	}

	day := today
	inv.LastCreditedOn = &day
	inv.CreditedDays++
	inv.TotalReturned += inv.DailyReturn
	if inv.Matured(now) {
		inv.Status = InvestmentCompleted
	}
	f.s.investments[id] = inv
	return &inv, nil
}

func (f *fakeRepo) ListInvestmentsByUser(_ context.Context, userID string) ([]Investment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	var out []Investment
	for i := len(f.s.invOrder) - 1; i >= 0; i-- {
		if inv := f.s.investments[f.s.invOrder[i]]; inv.UserID == userID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListInvestments(_ context.Context, params ListParams) ([]InvestmentWithUser, int, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	var out []InvestmentWithUser
	for i := len(f.s.invOrder) - 1; i >= 0; i-- {
		inv := f.s.investments[f.s.invOrder[i]]
		if params.Status != "" && inv.Status != params.Status {
			continue
		}
		out = append(out, InvestmentWithUser{Investment: inv, UserPhone: f.s.wallets[inv.UserID].Phone})
	}
	return page(out, params), len(out), nil
}

func (f *fakeRepo) CreateWithdrawal(_ context.Context, w *WithdrawalRequest) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	if err := f.s.fail("CreateWithdrawal"); err != nil {
		return err
	}
	w.CreatedAt = f.s.clock
	f.s.withdrawals[w.ID] = *w
	f.s.wdOrder = append(f.s.wdOrder, w.ID)
	return nil
}

func (f *fakeRepo) GetWithdrawal(_ context.Context, id string) (*WithdrawalRequest, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	w, ok := f.s.withdrawals[id]
	if !ok {
		return nil, fmt.Errorf("get withdrawal: %w", core.ErrNotFound)
	}
	return &w, nil
}

func (f *fakeRepo) TransitionWithdrawal(
	_ context.Context,
	id, status, adminID string,
) (*WithdrawalRequest, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	w, ok := f.s.withdrawals[id]
	if !ok {
		return nil, fmt.Errorf("transition withdrawal: %w", core.ErrNotFound)
	}
	if !w.IsPending() {
		return nil, fmt.Errorf("transition withdrawal: %w", ErrNotPending)
	}
	now := f.s.clock
	w.Status = status
	w.ProcessedBy = &adminID
	w.ProcessedAt = &now
	f.s.withdrawals[id] = w
	return &w, nil
}

func (f *fakeRepo) ListWithdrawalsByUser(
	_ context.Context,
	userID string,
	limit int,
) ([]WithdrawalRequest, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	var out []WithdrawalRequest
	for i := len(f.s.wdOrder) - 1; i >= 0 && len(out) < limit; i-- {
		if w := f.s.withdrawals[f.s.wdOrder[i]]; w.UserID == userID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListWithdrawals(_ context.Context, params ListParams) ([]WithdrawalWithUser, int, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	var pending, rest []WithdrawalWithUser
	for i := len(f.s.wdOrder) - 1; i >= 0; i-- {
		w := f.s.withdrawals[f.s.wdOrder[i]]
		if params.Status != "" && w.Status != params.Status {
			continue
		}
		row := WithdrawalWithUser{WithdrawalRequest: w, UserPhone: f.s.wallets[w.UserID].Phone}
		if w.IsPending() {
			pending = append(pending, row)
		} else {
			rest = append(rest, row)
		}
	}
	out := append(pending, rest...)
	return page(out, params), len(out), nil
}

func page[T any](items []T, params ListParams) []T {
	start := min(params.Offset(), len(items))
	end := min(start+params.PageSize, len(items))
	return items[start:end]
}

type cachedDashboard struct {
	gen int64
	d   *Dashboard
}

// recordingCache mirrors the generation scheme of the Redis cache.
type recordingCache struct {
	mu          sync.Mutex
	entries     map[string]cachedDashboard
	gens        map[string]int64
	hits        int
	invalidated []string
}

func newRecordingCache() *recordingCache {
	return &recordingCache{
		entries: make(map[string]cachedDashboard),
		gens:    make(map[string]int64),
	}
}

func (c *recordingCache) Get(_ context.Context, userID string) (*Dashboard, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	gen := c.gens[userID]
	e, ok := c.entries[userID]
	if !ok || e.gen != gen {
		return nil, gen, false
	}
	c.hits++
	return e.d, gen, true
}

func (c *recordingCache) Set(_ context.Context, userID string, gen int64, d *Dashboard) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gens[userID] {
		return
	}
	c.entries[userID] = cachedDashboard{gen: gen, d: d}
}

func (c *recordingCache) Invalidate(_ context.Context, userIDs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range userIDs {
		c.gens[id]++
		c.invalidated = append(c.invalidated, id)
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
