//go:build !integration

package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"mockdata-subscription/internal/domain/model"
	"mockdata-subscription/internal/infra/security"
	"mockdata-subscription/internal/usecase"
)

const webhookSecret = "sk_test_webhook"

// testEnv wires every use case over one in-memory store.
type testEnv struct {
	db       *memDB
	users    *MockUserRepo
	subs     *MockSubscriptionRepo
	orders   *MockOrderRepo
	payments *MockPaymentRepo
	tokens   *usecase.TokenAllocator
	tm       *MockTxManager
	locker   *MockLocker
	provider *MockPaymentProvider
	verifier *security.HMACVerifier
}

func newTestEnv() *testEnv {
	db := newMemDB()
	return &testEnv{
		db:       db,
		users:    &MockUserRepo{db: db},
		subs:     &MockSubscriptionRepo{db: db},
		orders:   &MockOrderRepo{db: db},
		payments: &MockPaymentRepo{db: db},
		tokens:   usecase.NewTokenAllocator(&MockTokenRegistry{db: db}),
		tm:       NewMockTxManager(),
		locker:   NewMockLocker(),
		provider: &MockPaymentProvider{},
		verifier: security.NewHMACVerifier(webhookSecret),
	}
}

func (e *testEnv) orderUC() usecase.OrderUseCase {
	return usecase.NewOrderUseCase(e.orders, e.subs, e.tokens, e.tm, newTestLogger())
}

func (e *testEnv) paymentUC() usecase.PaymentUseCase {
	return usecase.NewPaymentUseCase(e.payments, e.orders, e.users, e.provider, model.CurrencyNGN, newTestLogger())
}

func (e *testEnv) webhookUC() usecase.WebhookUseCase {
	return usecase.NewWebhookUseCase(e.verifier, e.provider, e.locker, time.Second, e.tm, e.payments, e.orders, e.subs, e.users, newTestLogger())
}

func (e *testEnv) seedUser(t *testing.T, username string) *model.User {
	t.Helper()
	u, err := model.NewUser("", username, username+"@example.com", "", "", "slug-"+username)
	if err != nil {
		t.Fatalf("NewUser: %v", err)
	}
	if err := e.users.Save(context.Background(), nil, u); err != nil {
		t.Fatalf("save user: %v", err)
	}
	return u
}

func (e *testEnv) seedPlan(t *testing.T, name model.SubscriptionType, price string) *model.Subscription {
	t.Helper()
	s, err := model.NewSubscription("sub-"+string(name), name, decimal.RequireFromString(price))
	if err != nil {
		t.Fatalf("NewSubscription: %v", err)
	}
	if err := e.subs.Save(context.Background(), nil, s); err != nil {
		t.Fatalf("save subscription: %v", err)
	}
	return s
}

// signed returns body together with its valid signature.
func (e *testEnv) signed(body string) ([]byte, string) {
	b := []byte(body)
	return b, e.verifier.Sign(b)
}
