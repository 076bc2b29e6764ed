// Package payment talks to the Mollie Payments API v2.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusOpen     = "open"
	StatusPending  = "pending"
	StatusPaid     = "paid"
	StatusFailed   = "failed"
	StatusCanceled = "canceled"
	StatusExpired  = "expired"
)

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type Amount struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
}

// AmountFromCents formats cents as Mollie expects ("140.30").
func AmountFromCents(cents int64) Amount {
	return Amount{Currency: "EUR", Value: decimal.New(cents, -2).StringFixed(2)}
}

type CreateRequest struct {
	Amount      Amount            `json:"amount"`
	Description string            `json:"description"`
	RedirectURL string            `json:"redirectUrl"`
	WebhookURL  string            `json:"webhookUrl,omitempty"`
	Locale      string            `json:"locale,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type Payment struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Amount   Amount            `json:"amount"`
	Metadata map[string]string `json:"metadata"`
	Links    struct {
		Checkout *struct {
			Href string `json:"href"`
		} `json:"checkout"`
	} `json:"_links"`
}

// CheckoutURL is empty once the payment is no longer payable.
func (p *Payment) CheckoutURL() string {
	if p.Links.Checkout == nil {
		return ""
	}
	return p.Links.Checkout.Href
}

func (p *Payment) OrderID() string {
	return p.Metadata["order_id"]
}

type APIError struct {
	StatusCode int
	Title      string `json:"title"`
	Detail     string `json:"detail"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mollie: %d %s: %s", e.StatusCode, e.Title, e.Detail)
}

type MollieClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewMollieClient(cfg *Config) *MollieClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &MollieClient{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *MollieClient) CreatePayment(ctx context.Context, req *CreateRequest) (*Payment, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	var p Payment
	if err := c.do(ctx, http.MethodPost, "/payments", bytes.NewReader(body), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *MollieClient) GetPayment(ctx context.Context, id string) (*Payment, error) {
	var p Payment
	if err := c.do(ctx, http.MethodGet, "/payments/"+id, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *MollieClient) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("mollie: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("mollie: read body: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: res.StatusCode}
		_ = json.Unmarshal(data, apiErr)
		return apiErr
	}
	return json.Unmarshal(data, out)
}
