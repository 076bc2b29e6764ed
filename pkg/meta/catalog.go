// Package meta pushes product items to a Meta (Facebook/Instagram) catalog
// through the Graph API items_batch endpoint.
package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	MethodUpdate = "UPDATE"
	MethodDelete = "DELETE"

	// MaxBatchSize is the Graph API limit for one items_batch call.
	MaxBatchSize = 500
)

type Config struct {
	GraphBaseURL string
	APIVersion   string
	CatalogID    string
	AccessToken  string
	Timeout      time.Duration
}

// ItemRequest is one entry of the items_batch "requests" array. Data is
// omitted for DELETE apart from the id.
type ItemRequest struct {
	Method string         `json:"method"`
	Data   map[string]any `json:"data"`
}

type ValidationError struct {
	Message string `json:"message"`
}

type ValidationStatus struct {
	RetailerID string            `json:"retailer_id"`
	Errors     []ValidationError `json:"errors"`
}

type BatchResponse struct {
	Handles          []string           `json:"handles"`
	ValidationStatus []ValidationStatus `json:"validation_status"`
}

// Rejected maps retailer IDs to the first validation message Meta returned.
func (r *BatchResponse) Rejected() map[string]string {
	out := map[string]string{}
	for _, st := range r.ValidationStatus {
		if len(st.Errors) > 0 {
			out[st.RetailerID] = st.Errors[0].Message
		}
	}
	return out
}

type APIError struct {
	StatusCode int
	Message    string `json:"message"`
	Type       string `json:"type"`
	Code       int    `json:"code"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("meta: %d %s (code %d): %s", e.StatusCode, e.Type, e.Code, e.Message)
}

type CatalogClient struct {
	cfg  Config
	http *http.Client
}

func NewCatalogClient(cfg *Config) *CatalogClient {
	c := *cfg
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.GraphBaseURL == "" {
		c.GraphBaseURL = "https://graph.facebook.com"
	}
	c.GraphBaseURL = strings.TrimRight(c.GraphBaseURL, "/")
	return &CatalogClient{cfg: c, http: &http.Client{Timeout: c.Timeout}}
}

// Configured reports whether a catalog and token are set.
func (c *CatalogClient) Configured() bool {
	return c.cfg.CatalogID != "" && c.cfg.AccessToken != ""
}

func (c *CatalogClient) endpoint() string {
	parts := []string{c.cfg.GraphBaseURL}
	if c.cfg.APIVersion != "" {
		parts = append(parts, c.cfg.APIVersion)
	}
	return strings.Join(append(parts, c.cfg.CatalogID, "items_batch"), "/")
}

// ItemsBatch sends up to MaxBatchSize requests in one call.
func (c *CatalogClient) ItemsBatch(ctx context.Context, requests []ItemRequest) (*BatchResponse, error) {
	if len(requests) > MaxBatchSize {
		return nil, fmt.Errorf("meta: batch of %d exceeds %d", len(requests), MaxBatchSize)
	}
	encoded, err := json.Marshal(requests)
	if err != nil {
		return nil, err
	}
	form := url.Values{}
	form.Set("access_token", c.cfg.AccessToken)
	form.Set("item_type", "PRODUCT_ITEM")
	form.Set("allow_upsert", "true")
	form.Set("requests", string(encoded))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("meta: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("meta: read body: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		var envelope struct {
			Error APIError `json:"error"`
		}
		_ = json.Unmarshal(data, &envelope)
		envelope.Error.StatusCode = res.StatusCode
		return nil, &envelope.Error
	}

	var out BatchResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("meta: decode: %w", err)
	}
	return &out, nil
}
