// Package merchant manages products in Google Merchant Center through the
// Content API for Shopping v2.1.
package merchant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	content "google.golang.org/api/content/v2.1"
	"google.golang.org/api/option"
)

const (
	ChannelOnline = "online"

	// MaxBatchSize bounds the entries of one custombatch call.
	MaxBatchSize = 1000
)

type Config struct {
	MerchantID      uint64
	CredentialsFile string
	TargetCountry   string
	ContentLanguage string

	// Endpoint overrides the API base path.
	Endpoint string
}

// Outcome counts the entries a batch accepted. Failed maps offer or product
// IDs to the first error Google reported for them.
type Outcome struct {
	OK     int
	Failed map[string]string
}

func (o *Outcome) merge(other *Outcome) {
	o.OK += other.OK
	for k, v := range other.Failed {
		o.Failed[k] = v
	}
}

type ContentClient struct {
	Service         *content.APIService
	MerchantID      uint64
	TargetCountry   string
	ContentLanguage string
}

func NewContentClient(ctx context.Context, cfg *Config) (*ContentClient, error) {
	if cfg.MerchantID == 0 {
		return nil, errors.New("merchant: merchant id is not set")
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	}
	svc, err := content.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("merchant: new service: %w", err)
	}
	return &ContentClient{
		Service:         svc,
		MerchantID:      cfg.MerchantID,
		TargetCountry:   strings.ToUpper(cfg.TargetCountry),
		ContentLanguage: strings.ToLower(cfg.ContentLanguage),
	}, nil
}

// ProductID is the REST id Google derives for an online offer.
func ProductID(language, country, offerID string) string {
	return fmt.Sprintf("%s:%s:%s:%s", ChannelOnline, strings.ToLower(language), strings.ToUpper(country), offerID)
}

// Insert creates or replaces products. Channel, language and country default
// to the client settings when a product leaves them empty.
func (c *ContentClient) Insert(ctx context.Context, products []*content.Product) (*Outcome, error) {
	entries := make([]*content.ProductsCustomBatchRequestEntry, 0, len(products))
	keys := make([]string, 0, len(products))
	for i, p := range products {
		if p.Channel == "" {
			p.Channel = ChannelOnline
		}
		if p.ContentLanguage == "" {
			p.ContentLanguage = c.ContentLanguage
		}
		if p.TargetCountry == "" {
			p.TargetCountry = c.TargetCountry
		}
		entries = append(entries, &content.ProductsCustomBatchRequestEntry{
			BatchId:    int64(i),
			MerchantId: c.MerchantID,
			Method:     "insert",
			Product:    p,
		})
		keys = append(keys, p.OfferId)
	}
	return c.run(ctx, entries, keys)
}

// Delete removes products by REST id (see ProductID).
func (c *ContentClient) Delete(ctx context.Context, productIDs []string) (*Outcome, error) {
	entries := make([]*content.ProductsCustomBatchRequestEntry, 0, len(productIDs))
	for i, id := range productIDs {
		entries = append(entries, &content.ProductsCustomBatchRequestEntry{
			BatchId:    int64(i),
			MerchantId: c.MerchantID,
			Method:     "delete",
			ProductId:  id,
		})
	}
	return c.run(ctx, entries, productIDs)
}

func (c *ContentClient) run(ctx context.Context, entries []*content.ProductsCustomBatchRequestEntry, keys []string) (*Outcome, error) {
	total := &Outcome{Failed: map[string]string{}}
	for start := 0; start < len(entries); start += MaxBatchSize {
		end := min(start+MaxBatchSize, len(entries))
		out, err := c.batch(ctx, entries[start:end], keys)
		if err != nil {
			return total, err
		}
		total.merge(out)
	}
	return total, nil
}

func (c *ContentClient) batch(ctx context.Context, entries []*content.ProductsCustomBatchRequestEntry, keys []string) (*Outcome, error) {
	res, err := c.Service.Products.Custombatch(&content.ProductsCustomBatchRequest{Entries: entries}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("merchant: custombatch: %w", err)
	}

	out := &Outcome{Failed: map[string]string{}}
	for _, e := range res.Entries {
		key := ""
		if e.BatchId >= 0 && int(e.BatchId) < len(keys) {
			key = keys[e.BatchId]
		}
		if e.Errors != nil && (len(e.Errors.Errors) > 0 || e.Errors.Message != "") {
			msg := e.Errors.Message
			if len(e.Errors.Errors) > 0 && e.Errors.Errors[0].Message != "" {
				msg = e.Errors.Errors[0].Message
			}
			out.Failed[key] = msg
			continue
		}
		out.OK++
	}
	return out, nil
}
