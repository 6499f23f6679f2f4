//go:build !integration

package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"invoiceflow/internal/domain"
	"invoiceflow/internal/domain/model"
	"invoiceflow/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// --- Subscription repo mock ---

// mockSubscriptionRepo is an in-memory SubscriptionRepository. Individual
// methods can be overridden per test through the XxxFunc fields.
type mockSubscriptionRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Subscription

	SaveFunc           func(ctx context.Context, tx repository.Tx, sub *model.Subscription) error
	FindByIDFunc       func(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error)
	ListAllFunc        func(ctx context.Context, tx repository.Tx) ([]*model.Subscription, error)
	UpdateScheduleFunc func(ctx context.Context, tx repository.Tx, sub *model.Subscription, expectedVersion int64) error
}

var _ repository.SubscriptionRepository = (*mockSubscriptionRepo)(nil)

func newMockSubscriptionRepo() *mockSubscriptionRepo {
	return &mockSubscriptionRepo{store: make(map[string]*model.Subscription)}
}

func (m *mockSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, sub *model.Subscription) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, sub)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *sub
	m.store[sub.ID] = &cp
	return nil
}

func (m *mockSubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockSubscriptionRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Subscription, error) {
	if m.ListAllFunc != nil {
		return m.ListAllFunc(ctx, tx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Subscription, 0, len(m.store))
	for _, s := range m.store {
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockSubscriptionRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Subscription, error) {
	all, err := m.ListAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, s := range all {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockSubscriptionRepo) UpdateSchedule(ctx context.Context, tx repository.Tx, sub *model.Subscription, expectedVersion int64) error {
	if m.UpdateScheduleFunc != nil {
		return m.UpdateScheduleFunc(ctx, tx, sub, expectedVersion)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.store[sub.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	cp := *sub
	cp.Version = expectedVersion + 1
	m.store[sub.ID] = &cp
	return nil
}

func (m *mockSubscriptionRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *mockSubscriptionRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.SubscriptionStatus]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[model.SubscriptionStatus]int)
	for _, s := range m.store {
		counts[s.Status]++
	}
	return counts, nil
}

// --- Invoice repo mock ---

type mockInvoiceRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Invoice

	InsertFunc func(ctx context.Context, tx repository.Tx, inv *model.Invoice) error
	UpdateFunc func(ctx context.Context, tx repository.Tx, inv *model.Invoice) error
}

var _ repository.InvoiceRepository = (*mockInvoiceRepo)(nil)

func newMockInvoiceRepo() *mockInvoiceRepo {
	return &mockInvoiceRepo{store: make(map[string]*model.Invoice)}
}

func (m *mockInvoiceRepo) Insert(ctx context.Context, tx repository.Tx, inv *model.Invoice) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, tx, inv)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[inv.ID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *inv
	m.store[inv.ID] = &cp
	return nil
}

func (m *mockInvoiceRepo) Update(ctx context.Context, tx repository.Tx, inv *model.Invoice) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, inv)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[inv.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *inv
	m.store[inv.ID] = &cp
	return nil
}

func (m *mockInvoiceRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inv, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (m *mockInvoiceRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Invoice
	for _, inv := range m.store {
		if inv.UserID == userID {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockInvoiceRepo) ListBySubscription(ctx context.Context, tx repository.Tx, subscriptionID string) ([]*model.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Invoice
	for _, inv := range m.store {
		if inv.SubscriptionID != nil && *inv.SubscriptionID == subscriptionID {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockInvoiceRepo) count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store)
}

// --- User repo mock ---

type mockUserRepo struct {
	mu    sync.RWMutex
	store map[string]*model.User

	SaveFunc func(ctx context.Context, tx repository.Tx, u *model.User) error
}

var _ repository.UserRepository = (*mockUserRepo)(nil)

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{store: make(map[string]*model.User)}
}

func (m *mockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, u)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.store[u.ID] = &cp
	return nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.store {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// --- Transaction manager mock ---

// mockTxManager runs the callback without a real transaction.
type mockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*mockTxManager)(nil)

func newMockTxManager() *mockTxManager { return &mockTxManager{} }

func (m *mockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// --- Locker mock ---

type mockLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	acquired []string
	released []string
	failAll  bool
}

func newMockLocker() *mockLocker {
	return &mockLocker{held: make(map[string]bool)}
}

func (m *mockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll || m.held[key] {
		return "", domain.ErrLockNotAcquired
	}
	m.held[key] = true
	m.acquired = append(m.acquired, key)
	return "token-" + key, nil
}

func (m *mockLocker) Unlock(ctx context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, key)
	m.released = append(m.released, key)
	return nil
}

// --- Rate source mock ---

type mockRateSource struct {
	rates map[model.Currency]decimal.Decimal
	err   error
}

func newMockRateSource() *mockRateSource {
	return &mockRateSource{rates: map[model.Currency]decimal.Decimal{
		model.CurrencyBTC:  decimal.RequireFromString("43000"),
		model.CurrencyETH:  decimal.RequireFromString("2400"),
		model.CurrencyUSDT: decimal.NewFromInt(1),
		model.CurrencyUSDC: decimal.NewFromInt(1),
	}}
}

func (m *mockRateSource) USDRate(ctx context.Context, c model.Currency) (decimal.Decimal, error) {
	if m.err != nil {
		return decimal.Zero, m.err
	}
	r, ok := m.rates[c]
	if !ok {
		return decimal.Zero, domain.ErrRateUnavailable
	}
	return r, nil
}

// --- Notifier mock ---

type mockNotifier struct {
	mu       sync.Mutex
	notified []string // invoice ids
	err      error
}

func (m *mockNotifier) NotifyInvoiceGenerated(ctx context.Context, sub *model.Subscription, inv *model.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.notified = append(m.notified, inv.ID)
	return nil
}
