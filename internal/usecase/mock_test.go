//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"mockdata-subscription/internal/domain"
	"mockdata-subscription/internal/domain/model"
	"mockdata-subscription/internal/domain/ports/adapter"
	"mockdata-subscription/internal/domain/ports/repository"
)

// ---- Shared in-memory store ----

// memDB backs every mock repository so cross-table effects are visible to tests.
type memDB struct {
	mu       sync.Mutex
	users    map[string]*model.User
	subs     map[string]*model.Subscription
	orders   map[string]*model.Order
	payments map[string]*model.Payment
	writes   int
}

func newMemDB() *memDB {
	return &memDB{
		users:    map[string]*model.User{},
		subs:     map[string]*model.Subscription{},
		orders:   map[string]*model.Order{},
		payments: map[string]*model.Payment{},
	}
}

func (db *memDB) Writes() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.writes
}

func (db *memDB) Order(id string) *model.Order {
	db.mu.Lock()
	defer db.mu.Unlock()
	if o, ok := db.orders[id]; ok {
		cp := *o
		return &cp
	}
	return nil
}

func (db *memDB) User(id string) *model.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	if u, ok := db.users[id]; ok {
		cp := *u
		return &cp
	}
	return nil
}

func (db *memDB) PaymentsOf(orderID string) []*model.Payment {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []*model.Payment
	for _, p := range db.payments {
		if p.OrderID == orderID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (db *memDB) OrdersOf(userID string) []*model.Order {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []*model.Order
	for _, o := range db.orders {
		if o.UserID == userID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out
}

// ---- Users ----

type MockUserRepo struct {
	db *memDB
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func (r *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, other := range r.db.users {
		if other.ID != u.ID && (other.Username == u.Username || other.Email == u.Email) {
			return domain.ErrAlreadyExists
		}
	}
	cp := *u
	r.db.users[u.ID] = &cp
	r.db.writes++
	return nil
}

func (r *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	if u := r.db.User(id); u != nil {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockUserRepo) FindByUsername(ctx context.Context, tx repository.Tx, username string) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockUserRepo) ExistsByUsernameOrEmail(ctx context.Context, tx repository.Tx, username, email string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *MockUserRepo) MarkPaid(ctx context.Context, tx repository.Tx, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.IsPaidUser = true
	r.db.writes++
	return nil
}

// ---- Subscriptions ----

type MockSubscriptionRepo struct {
	db *memDB
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func (r *MockSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, existing := range r.db.subs {
		if existing.Name == s.Name {
			s.ID = id
		}
	}
	cp := *s
	r.db.subs[s.ID] = &cp
	r.db.writes++
	return nil
}

func (r *MockSubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if s, ok := r.db.subs[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockSubscriptionRepo) FindByName(ctx context.Context, tx repository.Tx, name model.SubscriptionType) (*model.Subscription, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, s := range r.db.subs {
		if s.Name == name {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockSubscriptionRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Subscription, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*model.Subscription
	for _, s := range r.db.subs {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	return out, nil
}

// ---- Orders ----

type MockOrderRepo struct {
	db *memDB
	// CreateFunc, when set, runs before the default insert and may veto it.
	CreateFunc func(ctx context.Context, tx repository.Tx, o *model.Order) error
}

var _ repository.OrderRepository = (*MockOrderRepo)(nil)

func (r *MockOrderRepo) LockOwner(ctx context.Context, tx repository.Tx, userID string) error {
	return nil
}

// Create mirrors the one-unpaid-order-per-user unique index.
func (r *MockOrderRepo) Create(ctx context.Context, tx repository.Tx, o *model.Order) error {
	if r.CreateFunc != nil {
		if err := r.CreateFunc(ctx, tx, o); err != nil {
			return err
		}
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, other := range r.db.orders {
		if other.Reference == o.Reference {
			return domain.ErrAlreadyExists
		}
		if other.UserID == o.UserID && !other.Paid && !o.Paid {
			return domain.ErrAlreadyExists
		}
	}
	cp := *o
	r.db.orders[o.ID] = &cp
	r.db.writes++
	return nil
}

func (r *MockOrderRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Order, error) {
	if o := r.db.Order(id); o != nil {
		return o, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockOrderRepo) FindUnpaidByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Order, error) {
	for _, o := range r.db.OrdersOf(userID) {
		if !o.Paid {
			return o, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockOrderRepo) FindActiveByUser(ctx context.Context, tx repository.Tx, userID string, now time.Time) (*model.Order, error) {
	for _, o := range r.db.OrdersOf(userID) {
		if o.IsActive(now) {
			return o, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockOrderRepo) FindLatestByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Order, error) {
	orders := r.db.OrdersOf(userID)
	if len(orders) == 0 {
		return nil, domain.ErrNotFound
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders[0], nil
}

func (r *MockOrderRepo) MarkPaid(ctx context.Context, tx repository.Tx, id string, endDate time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	o, ok := r.db.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.Paid = true
	o.EndDate = endDate
	o.Status = model.OrderStatusCompleted
	r.db.writes++
	return nil
}

// ---- Payments ----

type MockPaymentRepo struct {
	db       *memDB
	SaveFunc func(ctx context.Context, tx repository.Tx, p *model.Payment) error
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func (r *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, p)
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	for _, other := range r.db.payments {
		if other.TransactionID == p.TransactionID {
			return domain.ErrAlreadyExists
		}
	}
	cp := *p
	r.db.payments[p.ID] = &cp
	r.db.writes++
	return nil
}

func (r *MockPaymentRepo) FindByTransactionID(ctx context.Context, tx repository.Tx, transactionID string) (*model.Payment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, p := range r.db.payments {
		if p.TransactionID == transactionID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockPaymentRepo) MarkVerifiedIfPending(ctx context.Context, tx repository.Tx, id string, paidAt, expiresAt time.Time) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.payments[id]
	if !ok || p.Verified {
		return false, nil
	}
	p.Verified = true
	p.Status = model.PaymentStatusVerified
	p.Timestamp = paidAt
	p.ExpirationDate = expiresAt
	r.db.writes++
	return true, nil
}

func (r *MockPaymentRepo) MarkFailed(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.payments[id]
	if !ok || p.Verified || p.Status == model.PaymentStatusFailed {
		return false, nil
	}
	p.Status = model.PaymentStatusFailed
	r.db.writes++
	return true, nil
}

func (r *MockPaymentRepo) DeleteSiblings(ctx context.Context, tx repository.Tx, orderID, keepID string) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for id, p := range r.db.payments {
		if p.OrderID == orderID && id != keepID {
			delete(r.db.payments, id)
			n++
		}
	}
	if n > 0 {
		r.db.writes++
	}
	return n, nil
}

func (r *MockPaymentRepo) ListStaleUnverified(ctx context.Context, tx repository.Tx, olderThan, notBefore time.Time, limit int) ([]*model.Payment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*model.Payment
	for _, p := range r.db.payments {
		if !p.Verified && p.Status == model.PaymentStatusInitiated && p.CreatedAt.Before(olderThan) && !p.CreatedAt.Before(notBefore) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---- Token registry ----

type MockTokenRegistry struct {
	db *memDB
}

var _ repository.TokenRegistry = (*MockTokenRegistry)(nil)

func (r *MockTokenRegistry) TokenExists(ctx context.Context, tx repository.Tx, token string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, o := range r.db.orders {
		if o.Reference == token {
			return true, nil
		}
	}
	for _, u := range r.db.users {
		if u.Slug == token {
			return true, nil
		}
	}
	return false, nil
}

// ---- Transaction manager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn immediately with NoTX unless WithTxFunc overrides it.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// ---- In-memory Locker (implements adapter.Locker port) ----

type MockLocker struct {
	mu    sync.Mutex
	held  map[string]string
	ErrOn map[string]error
}

func NewMockLocker() *MockLocker {
	return &MockLocker{held: map[string]string{}, ErrOn: map[string]error{}}
}

var _ adapter.Locker = (*MockLocker)(nil)

func (l *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err, bad := l.ErrOn[key]; bad {
		return "", err
	}
	if tok, ok := l.held[key]; ok && tok != "" {
		return "", domain.ErrLockHeld
	}
	tok := uuid.NewString()
	l.held[key] = tok
	return tok, nil
}

func (l *MockLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
		return nil
	}
	return errors.New("unlock token mismatch")
}

// Hold pins key as if another worker owned it.
func (l *MockLocker) Hold(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held[key] = "someone-else"
}

// ---- Payment provider ----

type MockPaymentProvider struct {
	mu             sync.Mutex
	InitializeFunc func(ctx context.Context, email string, amountMinor int64, currency string) (*adapter.InitSession, error)
	VerifyFunc     func(ctx context.Context, reference string) (*adapter.Transaction, error)
	InitCalls      []int64
	VerifyCalls    int
}

var _ adapter.PaymentProvider = (*MockPaymentProvider)(nil)

func (m *MockPaymentProvider) Name() string { return "mock" }

func (m *MockPaymentProvider) Initialize(ctx context.Context, email string, amountMinor int64, currency string) (*adapter.InitSession, error) {
	m.mu.Lock()
	m.InitCalls = append(m.InitCalls, amountMinor)
	n := len(m.InitCalls)
	m.mu.Unlock()
	if m.InitializeFunc != nil {
		return m.InitializeFunc(ctx, email, amountMinor, currency)
	}
	ref := fmt.Sprintf("ref-%d", n)
	return &adapter.InitSession{
		AuthorizationURL: "https://checkout.example/" + ref,
		AccessCode:       "ac-" + ref,
		Reference:        ref,
	}, nil
}

func (m *MockPaymentProvider) Verify(ctx context.Context, reference string) (*adapter.Transaction, error) {
	m.mu.Lock()
	m.VerifyCalls++
	m.mu.Unlock()
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, reference)
	}
	return &adapter.Transaction{Reference: reference, Status: "success", PaidAt: "2024-01-01T00:00:00.000Z"}, nil
}

// ---- Password hashing / tokens ----

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }
func (plainHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return domain.Unauthorized("invalid credentials")
	}
	return nil
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
