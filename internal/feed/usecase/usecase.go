package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/fekuna/cave-storefront/internal/apperror"
	"github.com/fekuna/cave-storefront/internal/feed"
	"github.com/fekuna/cave-storefront/internal/model"
	"github.com/fekuna/cave-storefront/pkg/i18n"
	"github.com/fekuna/cave-storefront/pkg/logger"
	"github.com/fekuna/cave-storefront/pkg/merchant"
	"github.com/fekuna/cave-storefront/pkg/meta"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	content "google.golang.org/api/content/v2.1"
)

const (
	operationSync   = "sync"
	operationDelete = "delete"

	// maxReportedErrors caps the per-item errors kept in a sync log.
	maxReportedErrors = 50
)

type MetaCatalog interface {
	Configured() bool
	ItemsBatch(ctx context.Context, requests []meta.ItemRequest) (*meta.BatchResponse, error)
}

type MerchantCenter interface {
	Insert(ctx context.Context, products []*content.Product) (*merchant.Outcome, error)
	Delete(ctx context.Context, productIDs []string) (*merchant.Outcome, error)
}

type SyncLogs interface {
	Record(ctx context.Context, platform, operation string, ok, failed int, message string, details model.JSONMap) *model.SyncLog
	Recent(ctx context.Context, platform string, limit int) ([]model.SyncLog, error)
}

type Config struct {
	Builder         feed.Builder
	MetaLocale      string
	ContentLanguage string
	TargetCountry   string
}

type feedUseCase struct {
	products feed.ProductSource
	meta     MetaCatalog
	google   MerchantCenter
	syncLogs SyncLogs
	cfg      Config
	logger   logger.ZapLogger
}

// NewFeedUseCase wires the feed syncs. metaCatalog and google may be nil when
// the integration is not configured.
func NewFeedUseCase(products feed.ProductSource, metaCatalog MetaCatalog, google MerchantCenter, syncLogs SyncLogs, cfg Config, log logger.ZapLogger) feed.UseCase {
	if cfg.MetaLocale == "" {
		cfg.MetaLocale = i18n.DefaultLocale
	}
	if cfg.ContentLanguage == "" {
		cfg.ContentLanguage = i18n.DefaultLocale
	}
	if cfg.TargetCountry == "" {
		cfg.TargetCountry = "FR"
	}
	return &feedUseCase{
		products: products,
		meta:     metaCatalog,
		google:   google,
		syncLogs: syncLogs,
		cfg:      cfg,
		logger:   log,
	}
}

// runTally accumulates per-item results across batches.
type runTally struct {
	ok     int
	failed int
	errors map[string]string
}

func newTally() *runTally {
	return &runTally{errors: map[string]string{}}
}

func (t *runTally) reject(id, msg string) {
	t.failed++
	if len(t.errors) < maxReportedErrors {
		t.errors[id] = msg
	}
}

func (t *runTally) details() model.JSONMap {
	d := model.JSONMap{}
	if len(t.errors) > 0 {
		d["errors"] = t.errors
	}
	return d
}

func (uc *feedUseCase) finish(ctx context.Context, platform, operation string, t *runTally, runErr error) (*model.SyncLog, error) {
	message := fmt.Sprintf("%d ok, %d failed", t.ok, t.failed)
	if runErr != nil {
		message = runErr.Error()
	}
	entry := uc.syncLogs.Record(ctx, platform, operation, t.ok, t.failed, message, t.details())

	if runErr != nil {
		uc.logger.Error("feed sync failed",
			zap.String("platform", platform),
			zap.String("operation", operation),
			zap.String("sync_log_id", entry.ID),
			zap.Error(runErr),
		)
		return entry, apperror.Upstream(runErr, platform+" "+operation+" failed").WithDetails(map[string]any{
			"sync_log_id": entry.ID,
		})
	}
	uc.logger.Info("feed sync finished",
		zap.String("platform", platform),
		zap.String("operation", operation),
		zap.Int("ok", t.ok),
		zap.Int("failed", t.failed),
	)
	return entry, nil
}

func (uc *feedUseCase) items(ctx context.Context, locale string) ([]feed.Item, error) {
	products, err := uc.products.FindAllAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("load feed products: %w", err)
	}
	return uc.cfg.Builder.BuildAll(products, locale), nil
}

// skusOrAll defaults to every SKU ever created so deleted wines are purged.
func (uc *feedUseCase) skusOrAll(ctx context.Context, skus []string) ([]string, error) {
	out := make([]string, 0, len(skus))
	for _, s := range skus {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) > 0 {
		return out, nil
	}
	all, err := uc.products.ListSKUs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list skus: %w", err)
	}
	return all, nil
}

func metaData(it feed.Item) map[string]any {
	data := map[string]any{
		"id":                      it.ID,
		"title":                   it.Title,
		"description":             it.Description,
		"availability":            it.Availability,
		"condition":               it.Condition,
		"price":                   it.Price,
		"link":                    it.Link,
		"brand":                   it.Brand,
		"google_product_category": feed.GoogleCategoryWine,
	}
	if it.ImageLink != "" {
		data["image_link"] = it.ImageLink
	}
	if it.GTIN != "" {
		data["gtin"] = it.GTIN
	}
	return data
}

func (uc *feedUseCase) metaEnabled() bool {
	return uc.meta != nil && uc.meta.Configured()
}

func (uc *feedUseCase) pushMeta(ctx context.Context, operation string, requests []meta.ItemRequest) (*model.SyncLog, error) {
	t := newTally()
	for start := 0; start < len(requests); start += meta.MaxBatchSize {
		end := min(start+meta.MaxBatchSize, len(requests))
		batch := requests[start:end]

		res, err := uc.meta.ItemsBatch(ctx, batch)
		if err != nil {
			t.failed += len(requests) - start
			return uc.finish(ctx, model.PlatformMeta, operation, t, err)
		}
		rejected := res.Rejected()
		for id, msg := range rejected {
			t.reject(id, msg)
		}
		t.ok += len(batch) - len(rejected)
	}
	return uc.finish(ctx, model.PlatformMeta, operation, t, nil)
}

func (uc *feedUseCase) SyncMeta(ctx context.Context) (*model.SyncLog, error) {
	if !uc.metaEnabled() {
		return nil, apperror.ErrIntegrationDisabled
	}
	items, err := uc.items(ctx, uc.cfg.MetaLocale)
	if err != nil {
		return nil, err
	}
	requests := make([]meta.ItemRequest, 0, len(items))
	for _, it := range items {
		requests = append(requests, meta.ItemRequest{Method: meta.MethodUpdate, Data: metaData(it)})
	}
	return uc.pushMeta(ctx, operationSync, requests)
}

func (uc *feedUseCase) DeleteMeta(ctx context.Context, skus []string) (*model.SyncLog, error) {
	if !uc.metaEnabled() {
		return nil, apperror.ErrIntegrationDisabled
	}
	skus, err := uc.skusOrAll(ctx, skus)
	if err != nil {
		return nil, err
	}
	requests := make([]meta.ItemRequest, 0, len(skus))
	for _, sku := range skus {
		requests = append(requests, meta.ItemRequest{Method: meta.MethodDelete, Data: map[string]any{"id": sku}})
	}
	return uc.pushMeta(ctx, operationDelete, requests)
}

func (uc *feedUseCase) googleProduct(it feed.Item) *content.Product {
	p := &content.Product{
		OfferId:               it.ID,
		Title:                 it.Title,
		Description:           it.Description,
		Link:                  it.Link,
		ImageLink:             it.ImageLink,
		ContentLanguage:       uc.cfg.ContentLanguage,
		TargetCountry:         uc.cfg.TargetCountry,
		Channel:               merchant.ChannelOnline,
		Availability:          it.Availability,
		Condition:             it.Condition,
		Brand:                 it.Brand,
		Gtin:                  it.GTIN,
		GoogleProductCategory: feed.GoogleCategoryWine,
		Price: &content.Price{
			Value:    decimal.New(it.PriceCents, -2).StringFixed(2),
			Currency: "EUR",
		},
	}
	if it.ProductType != "" {
		p.ProductTypes = []string{it.ProductType}
	}
	return p
}

func (uc *feedUseCase) applyOutcome(t *runTally, out *merchant.Outcome) {
	if out == nil {
		return
	}
	t.ok += out.OK
	for id, msg := range out.Failed {
		t.reject(id, msg)
	}
}

func (uc *feedUseCase) SyncGoogle(ctx context.Context) (*model.SyncLog, error) {
	if uc.google == nil {
		return nil, apperror.ErrIntegrationDisabled
	}
	items, err := uc.items(ctx, uc.cfg.ContentLanguage)
	if err != nil {
		return nil, err
	}
	products := make([]*content.Product, 0, len(items))
	for _, it := range items {
		products = append(products, uc.googleProduct(it))
	}

	t := newTally()
	out, err := uc.google.Insert(ctx, products)
	uc.applyOutcome(t, out)
	if err != nil {
		t.failed = len(products) - t.ok
	}
	return uc.finish(ctx, model.PlatformGoogle, operationSync, t, err)
}

func (uc *feedUseCase) DeleteGoogle(ctx context.Context, skus []string) (*model.SyncLog, error) {
	if uc.google == nil {
		return nil, apperror.ErrIntegrationDisabled
	}
	skus, err := uc.skusOrAll(ctx, skus)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(skus))
	for _, sku := range skus {
		ids = append(ids, merchant.ProductID(uc.cfg.ContentLanguage, uc.cfg.TargetCountry, sku))
	}

	t := newTally()
	out, err := uc.google.Delete(ctx, ids)
	uc.applyOutcome(t, out)
	if err != nil {
		t.failed = len(ids) - t.ok
	}
	return uc.finish(ctx, model.PlatformGoogle, operationDelete, t, err)
}

func (uc *feedUseCase) GoogleFeed(ctx context.Context, locale string) ([]byte, error) {
	if locale = i18n.Normalize(locale); locale == "" {
		locale = uc.cfg.ContentLanguage
	}
	items, err := uc.items(ctx, locale)
	if err != nil {
		return nil, err
	}
	b := uc.cfg.Builder
	doc, err := feed.RenderRSS(feed.Channel{
		Title:       b.ShopName,
		Link:        strings.TrimRight(b.PublicBaseURL, "/") + "/" + locale,
		Description: b.ShopName + " - " + locale,
	}, items)
	if err != nil {
		return nil, fmt.Errorf("render feed: %w", err)
	}
	return doc, nil
}

func (uc *feedUseCase) SyncLogs(ctx context.Context, platform string, limit int) ([]model.SyncLog, error) {
	logs, err := uc.syncLogs.Recent(ctx, platform, limit)
	if err != nil {
		return nil, fmt.Errorf("list sync logs: %w", err)
	}
	return logs, nil
}
