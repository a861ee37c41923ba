package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mockdata-subscription/internal/domain"
	"mockdata-subscription/internal/domain/ports/adapter"
)

var _ adapter.PaymentProvider = (*NoopGateway)(nil)

// NoopGateway is an in-memory provider for local runs and tests.
// Every initialized reference verifies as "success" unless overridden with SetStatus.
type NoopGateway struct {
	mu      sync.Mutex
	seq     int64
	intents map[string]*adapter.Transaction
}

func NewNoopGateway() *NoopGateway {
	return &NoopGateway{intents: make(map[string]*adapter.Transaction)}
}

func (g *NoopGateway) Name() string { return "noop" }

func (g *NoopGateway) next() string {
	g.seq++
	return fmt.Sprintf("noop-%d", g.seq)
}

func (g *NoopGateway) Initialize(ctx context.Context, email string, amountMinor int64, currency string) (*adapter.InitSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ref := g.next()
	g.intents[ref] = &adapter.Transaction{
		ID:        g.seq,
		Reference: ref,
		Status:    "success",
		Amount:    amountMinor,
		Currency:  currency,
	}
	return &adapter.InitSession{
		AuthorizationURL: "https://example.test/pay/" + ref,
		AccessCode:       "ac_" + ref,
		Reference:        ref,
	}, nil
}

func (g *NoopGateway) Verify(ctx context.Context, reference string) (*adapter.Transaction, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	tx, ok := g.intents[reference]
	if !ok {
		return nil, &adapter.ProviderError{Status: 404, Body: []byte(`{"status":false,"message":"Transaction reference not found"}`)}
	}
	out := *tx
	if out.PaidAt == "" && out.Status == "success" {
		out.PaidAt = time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	}
	return &out, nil
}

// SetStatus overrides the provider-side status of reference.
func (g *NoopGateway) SetStatus(reference, status, paidAt string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	tx, ok := g.intents[reference]
	if !ok {
		return domain.ErrNotFound
	}
	tx.Status = status
	tx.PaidAt = paidAt
	return nil
}
