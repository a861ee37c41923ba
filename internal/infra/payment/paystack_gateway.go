package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mockdata-subscription/internal/domain"
	"mockdata-subscription/internal/domain/ports/adapter"
	"mockdata-subscription/internal/infra/metrics"
)

var _ adapter.PaymentProvider = (*PaystackGateway)(nil)

const DefaultPaystackBaseURL = "https://api.paystack.co"

// PaystackGateway implements adapter.PaymentProvider using direct HTTP calls.
type PaystackGateway struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

// NewPaystackGateway creates a gateway bound to secretKey. An empty baseURL
// selects the public API.
func NewPaystackGateway(secretKey, baseURL string, timeout time.Duration) *PaystackGateway {
	if baseURL == "" {
		baseURL = DefaultPaystackBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PaystackGateway{
		secretKey: secretKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: timeout},
	}
}

func (g *PaystackGateway) Name() string { return "paystack" }

// paystackEnvelope is the shape shared by every Paystack API response.
type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type paystackVerifyData struct {
	ID        int64  `json:"id"`
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	PaidAt    string `json:"paid_at"`
}

// Initialize implements adapter.PaymentProvider.Initialize.
func (g *PaystackGateway) Initialize(ctx context.Context, email string, amountMinor int64, currency string) (sess *adapter.InitSession, err error) {
	start := time.Now()
	defer func() { metrics.ObserveProviderCall("initialize", err == nil, time.Since(start).Seconds()) }()

	payload := map[string]interface{}{
		"email":  email,
		"amount": amountMinor,
	}
	if currency != "" {
		payload["currency"] = currency
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request data: %w", err)
	}

	env, err := g.do(ctx, http.MethodPost, "/transaction/initialize", jsonData)
	if err != nil {
		return nil, err
	}

	var out adapter.InitSession
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return nil, domain.Unavailable("payment provider returned an unreadable response", err)
	}
	if out.Reference == "" {
		return nil, domain.Unavailable("payment provider returned no reference")
	}
	return &out, nil
}

// Verify implements adapter.PaymentProvider.Verify.
func (g *PaystackGateway) Verify(ctx context.Context, reference string) (tx *adapter.Transaction, err error) {
	start := time.Now()
	defer func() { metrics.ObserveProviderCall("verify", err == nil, time.Since(start).Seconds()) }()

	env, err := g.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil)
	if err != nil {
		return nil, err
	}

	var d paystackVerifyData
	if err := json.Unmarshal(env.Data, &d); err != nil {
		return nil, domain.Unavailable("payment provider returned an unreadable response", err)
	}
	return &adapter.Transaction{
		ID:        d.ID,
		Reference: d.Reference,
		Status:    d.Status,
		Amount:    d.Amount,
		Currency:  d.Currency,
		PaidAt:    d.PaidAt,
	}, nil
}

// do sends one authenticated request. Transport failures become Unavailable
// errors and non-2xx answers become *adapter.ProviderError with the raw body.
func (g *PaystackGateway) do(ctx context.Context, method, path string, body []byte) (*paystackEnvelope, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, rdr)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, domain.Unavailable("payment service unavailable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.Unavailable("payment service unavailable", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &adapter.ProviderError{Status: resp.StatusCode, Body: raw}
	}

	var env paystackEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, domain.Unavailable("payment provider returned an unreadable response", err)
	}
	if !env.Status {
		return nil, &adapter.ProviderError{Status: http.StatusBadGateway, Body: raw}
	}
	return &env, nil
}
