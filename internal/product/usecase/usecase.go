package usecase

import (
	"bufio"
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/fekuna/cave-storefront/internal/apperror"
	inventorydto "github.com/fekuna/cave-storefront/internal/inventory/dto"
	"github.com/fekuna/cave-storefront/internal/model"
	"github.com/fekuna/cave-storefront/internal/product"
	"github.com/fekuna/cave-storefront/internal/product/dto"
	"github.com/fekuna/cave-storefront/pkg/database/postgres"
	"github.com/fekuna/cave-storefront/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	listCacheTTL             = 5 * time.Minute
	defaultLowStockThreshold = 6
	defaultVolumeML          = 750

	constraintSlugFR = "wine_products_slug_fr_key"
	constraintSlugEN = "wine_products_slug_en_key"
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type cachedList struct {
	Products []model.WineProduct `json:"products"`
	Count    int                 `json:"count"`
}

type productUseCase struct {
	repo      product.Repository
	cache     Cache
	es        Searcher
	index     string
	stock     product.StockAdjuster
	images    product.ImageStore
	imageBase string
	logger    logger.ZapLogger

	// async runs cache invalidation and search sync off the request path.
	async func(func())
}

// NewProductUseCase wires the catalog. cache, es and images may be nil.
func NewProductUseCase(
	repo product.Repository,
	cache Cache,
	es Searcher,
	index string,
	stock product.StockAdjuster,
	images product.ImageStore,
	vendorBaseURL string,
	log logger.ZapLogger,
) product.UseCase {
	return &productUseCase{
		repo:      repo,
		cache:     cache,
		es:        es,
		index:     index,
		stock:     stock,
		images:    images,
		imageBase: vendorBaseURL,
		logger:    log,
		async:     func(f func()) { go f() },
	}
}

func (uc *productUseCase) ListCatalog(ctx context.Context, filters *dto.ProductFilters) ([]model.WineProduct, int, error) {
	filters.IncludeInactive = false
	filters.IncludeDeleted = false

	cacheKey, err := uc.generateCacheKey(filters)
	if err == nil && uc.cache != nil {
		if val, err := uc.cache.Get(ctx, cacheKey); err == nil && val != nil {
			var result cachedList
			if err := json.Unmarshal(val, &result); err == nil {
				return result.Products, result.Count, nil
			}
		} else if err != nil {
			uc.logger.Warn("product list cache read failed", zap.Error(err))
		}
	}

	if filters.SearchQuery != "" && uc.es != nil {
		products, count, err := uc.searchCatalog(ctx, filters)
		if err == nil {
			uc.storeList(ctx, cacheKey, products, count)
			return products, count, nil
		}
		uc.logger.Error("ES search failed, falling back to DB", zap.Error(err))
	}

	products, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("list catalog: %w", err)
	}
	uc.storeList(ctx, cacheKey, products, count)
	return products, count, nil
}

func (uc *productUseCase) storeList(ctx context.Context, key string, products []model.WineProduct, count int) {
	if key == "" || uc.cache == nil {
		return
	}
	data, err := json.Marshal(cachedList{Products: products, Count: count})
	if err != nil {
		return
	}
	if err := uc.cache.Set(ctx, key, data, listCacheTTL); err != nil {
		uc.logger.Warn("product list cache write failed", zap.Error(err))
	}
}

func (uc *productUseCase) generateCacheKey(filters *dto.ProductFilters) (string, error) {
	data, err := json.Marshal(filters)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("products:list:%x", md5.Sum(data)), nil
}

func (uc *productUseCase) invalidateProductCache(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.DeleteByPattern(ctx, product.ListCachePattern); err != nil {
		uc.logger.Warn("failed to invalidate product list cache", zap.Error(err))
	}
}

// afterWrite invalidates listings and refreshes the search document.
func (uc *productUseCase) afterWrite(products ...*model.WineProduct) {
	uc.async(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		uc.invalidateProductCache(ctx)
		for _, p := range products {
			uc.syncToElastic(ctx, p)
		}
	})
}

func (uc *productUseCase) GetCatalogProduct(ctx context.Context, idOrSlug string) (*model.WineProduct, error) {
	var (
		p   *model.WineProduct
		err error
	)
	if _, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		p, err = uc.repo.FindByID(ctx, idOrSlug)
	} else {
		p, err = uc.repo.FindBySlug(ctx, strings.ToLower(strings.TrimSpace(idOrSlug)))
	}
	if err != nil {
		return nil, fmt.Errorf("get catalog product: %w", err)
	}
	if p == nil || !p.Available() {
		return nil, apperror.ErrProductNotFound
	}
	if err := uc.loadImages(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (uc *productUseCase) loadImages(ctx context.Context, p *model.WineProduct) error {
	images, err := uc.repo.ListImages(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("list product images: %w", err)
	}
	p.Images = images
	return nil
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.WineProduct, int, error) {
	filters.IncludeInactive = true
	products, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, count, nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, id string) (*model.WineProduct, error) {
	if !validID(id) {
		return nil, apperror.ErrProductNotFound
	}
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if p == nil {
		return nil, apperror.ErrProductNotFound
	}
	if err := uc.loadImages(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.WineProduct, error) {
	sku := strings.TrimSpace(input.SKU)
	unique, err := uc.repo.IsSKUUnique(ctx, sku, "")
	if err != nil {
		return nil, fmt.Errorf("check sku: %w", err)
	}
	if !unique {
		return nil, apperror.ErrSKUExists
	}

	now := time.Now()
	p := &model.WineProduct{
		BaseModel:         model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		SKU:               sku,
		NameFR:            strings.TrimSpace(input.NameFR),
		NameEN:            strings.TrimSpace(input.NameEN),
		Vintage:           positive(input.Vintage),
		Varietal:          input.Varietal,
		Region:            input.Region,
		Appellation:       input.Appellation,
		WineType:          input.WineType,
		VolumeML:          input.VolumeML,
		AlcoholPct:        input.AlcoholPct,
		PriceCents:        input.PriceCents,
		CostCents:         input.CostCents,
		StockQuantity:     input.StockQuantity,
		LowStockThreshold: defaultLowStockThreshold,
		Certifications:    normalizeCertifications(input.Certifications),
		DescriptionFR:     input.DescriptionFR,
		DescriptionEN:     input.DescriptionEN,
		TastingNotesFR:    input.TastingNotesFR,
		TastingNotesEN:    input.TastingNotesEN,
		FoodPairingFR:     input.FoodPairingFR,
		FoodPairingEN:     input.FoodPairingEN,
		SlugFR:            input.SlugFR,
		SlugEN:            input.SlugEN,
		SEOTitleFR:        input.SEOTitleFR,
		SEOTitleEN:        input.SEOTitleEN,
		SEODescriptionFR:  input.SEODescriptionFR,
		SEODescriptionEN:  input.SEODescriptionEN,
		ImageURL:          product.NormalizeImageURL(input.ImageURL, uc.imageBase),
		GTIN:              input.GTIN,
		IsActive:          true,
	}
	if p.NameEN == "" {
		p.NameEN = p.NameFR
	}
	if p.VolumeML == 0 {
		p.VolumeML = defaultVolumeML
	}
	if input.LowStockThreshold != nil {
		p.LowStockThreshold = *input.LowStockThreshold
	}
	if input.IsActive != nil {
		p.IsActive = *input.IsActive
	}
	fillSlugs(p)

	if err := uc.repo.Create(ctx, p); err != nil {
		if conflict := uniqueConflict(err); conflict != nil {
			return nil, conflict
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	uc.logger.Info("product created", zap.String("product_id", p.ID), zap.String("sku", p.SKU))
	uc.afterWrite(p)
	return p, nil
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.WineProduct, error) {
	if !validID(input.ID) {
		return nil, apperror.ErrProductNotFound
	}
	p, err := uc.repo.FindByID(ctx, input.ID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if p == nil || p.DeletedAt != nil {
		return nil, apperror.ErrProductNotFound
	}

	if input.SKU != nil {
		sku := strings.TrimSpace(*input.SKU)
		if sku != p.SKU {
			unique, err := uc.repo.IsSKUUnique(ctx, sku, p.ID)
			if err != nil {
				return nil, fmt.Errorf("check sku: %w", err)
			}
			if !unique {
				return nil, apperror.ErrSKUExists
			}
			p.SKU = sku
		}
	}

	nameChanged := input.NameFR != nil || input.NameEN != nil || input.Vintage != nil
	setString(&p.NameFR, input.NameFR)
	setString(&p.NameEN, input.NameEN)
	if input.Vintage != nil {
		p.Vintage = positive(input.Vintage)
	}
	setString(&p.Varietal, input.Varietal)
	setString(&p.Region, input.Region)
	setString(&p.Appellation, input.Appellation)
	setString(&p.WineType, input.WineType)
	if input.VolumeML != nil {
		p.VolumeML = *input.VolumeML
	}
	if input.AlcoholPct != nil {
		p.AlcoholPct = input.AlcoholPct
	}
	if input.PriceCents != nil {
		p.PriceCents = *input.PriceCents
	}
	if input.CostCents != nil {
		p.CostCents = input.CostCents
	}
	if input.LowStockThreshold != nil {
		p.LowStockThreshold = *input.LowStockThreshold
	}
	if input.Certifications != nil {
		p.Certifications = normalizeCertifications(input.Certifications)
	}
	setString(&p.DescriptionFR, input.DescriptionFR)
	setString(&p.DescriptionEN, input.DescriptionEN)
	setString(&p.TastingNotesFR, input.TastingNotesFR)
	setString(&p.TastingNotesEN, input.TastingNotesEN)
	setString(&p.FoodPairingFR, input.FoodPairingFR)
	setString(&p.FoodPairingEN, input.FoodPairingEN)
	setString(&p.SEOTitleFR, input.SEOTitleFR)
	setString(&p.SEOTitleEN, input.SEOTitleEN)
	setString(&p.SEODescriptionFR, input.SEODescriptionFR)
	setString(&p.SEODescriptionEN, input.SEODescriptionEN)
	if input.ImageURL != nil {
		p.ImageURL = product.NormalizeImageURL(*input.ImageURL, uc.imageBase)
	}
	if input.GTIN != nil {
		p.GTIN = input.GTIN
		if *input.GTIN == "" {
			p.GTIN = nil
		}
	}
	if input.IsActive != nil {
		p.IsActive = *input.IsActive
	}

	// Explicit slugs win; otherwise slugs follow the name.
	switch {
	case input.SlugFR != nil || input.SlugEN != nil:
		setString(&p.SlugFR, input.SlugFR)
		setString(&p.SlugEN, input.SlugEN)
	case nameChanged:
		p.SlugFR, p.SlugEN = "", ""
	}
	fillSlugs(p)

	p.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, p); err != nil {
		if conflict := uniqueConflict(err); conflict != nil {
			return nil, conflict
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	uc.afterWrite(p)
	return p, nil
}

func (uc *productUseCase) DeleteProduct(ctx context.Context, id string) error {
	if !validID(id) {
		return apperror.ErrProductNotFound
	}
	deleted, err := uc.repo.SoftDelete(ctx, []string{id}, time.Now())
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if len(deleted) == 0 {
		return apperror.ErrProductNotFound
	}
	uc.logger.Info("product deleted", zap.String("product_id", id))
	uc.afterRemove(deleted)
	return nil
}

func (uc *productUseCase) afterRemove(ids []string) {
	uc.async(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		uc.invalidateProductCache(ctx)
		for _, id := range ids {
			uc.removeFromElastic(ctx, id)
		}
	})
}

func (uc *productUseCase) BulkUpdate(ctx context.Context, input *dto.BulkUpdateInput) ([]dto.BulkResult, error) {
	ids := dedupe(input.IDs)
	if len(ids) == 0 || len(ids) > dto.MaxBulkIDs {
		return nil, apperror.ErrInvalidRequest
	}

	set := 0
	for _, present := range []bool{
		input.IsActive != nil, input.PriceCents != nil, input.StockDelta != nil, input.StockQuantity != nil,
	} {
		if present {
			set++
		}
	}
	if set != 1 {
		return nil, apperror.Validation("invalid_request", "exactly one of is_active, price_cents, stock_delta, stock_quantity is required")
	}

	now := time.Now()
	var results []dto.BulkResult
	switch {
	case input.IsActive != nil:
		updated, err := uc.repo.SetActive(ctx, ids, *input.IsActive, now)
		if err != nil {
			return nil, fmt.Errorf("bulk set active: %w", err)
		}
		results = resultsFor(ids, updated)
	case input.PriceCents != nil:
		updated, err := uc.repo.SetPrice(ctx, ids, *input.PriceCents, now)
		if err != nil {
			return nil, fmt.Errorf("bulk set price: %w", err)
		}
		results = resultsFor(ids, updated)
	default:
		results = uc.bulkStock(ctx, ids, input)
	}

	uc.resync(results)
	return results, nil
}

// bulkStock routes each item through the audited adjustment path.
func (uc *productUseCase) bulkStock(ctx context.Context, ids []string, input *dto.BulkUpdateInput) []dto.BulkResult {
	results := make([]dto.BulkResult, 0, len(ids))
	for _, id := range ids {
		change := 0
		if input.StockDelta != nil {
			change = *input.StockDelta
		} else {
			p, err := uc.repo.FindByID(ctx, id)
			if err != nil {
				results = append(results, dto.BulkResult{ID: id, Error: "internal_error"})
				uc.logger.Error("bulk stock lookup failed", zap.String("product_id", id), zap.Error(err))
				continue
			}
			if p == nil || p.DeletedAt != nil {
				results = append(results, dto.BulkResult{ID: id, Error: apperror.ErrProductNotFound.Code})
				continue
			}
			change = *input.StockQuantity - p.StockQuantity
		}
		if change == 0 {
			results = append(results, dto.BulkResult{ID: id, OK: true})
			continue
		}

		_, err := uc.stock.AdjustStock(ctx, &inventorydto.AdjustStockInput{
			ProductID:      id,
			QuantityChange: change,
			MovementType:   model.MovementBulkUpdate,
			Reason:         "bulk update",
			ActorID:        input.ActorID,
		})
		if err != nil {
			appErr := apperror.As(err)
			if appErr.Kind == apperror.KindInternal {
				uc.logger.Error("bulk stock adjustment failed", zap.String("product_id", id), zap.Error(err))
			}
			results = append(results, dto.BulkResult{ID: id, Error: appErr.Code})
			continue
		}
		results = append(results, dto.BulkResult{ID: id, OK: true})
	}
	return results
}

// resync reloads changed products so the search index sees their new state.
func (uc *productUseCase) resync(results []dto.BulkResult) {
	var ids []string
	for _, r := range results {
		if r.OK {
			ids = append(ids, r.ID)
		}
	}
	if len(ids) == 0 {
		return
	}
	uc.async(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		uc.invalidateProductCache(ctx)
		if uc.es == nil {
			return
		}
		products, err := uc.repo.FindByIDs(ctx, ids)
		if err != nil {
			uc.logger.Error("failed to reload products for indexing", zap.Error(err))
			return
		}
		for i := range products {
			uc.syncToElastic(ctx, &products[i])
		}
	})
}

func (uc *productUseCase) BulkDelete(ctx context.Context, ids []string) ([]dto.BulkResult, error) {
	ids = dedupe(ids)
	if len(ids) == 0 || len(ids) > dto.MaxBulkIDs {
		return nil, apperror.ErrInvalidRequest
	}
	deleted, err := uc.repo.SoftDelete(ctx, ids, time.Now())
	if err != nil {
		return nil, fmt.Errorf("bulk delete: %w", err)
	}
	uc.logger.Info("products deleted", zap.Int("requested", len(ids)), zap.Int("deleted", len(deleted)))
	if len(deleted) > 0 {
		uc.afterRemove(deleted)
	}
	return resultsFor(ids, deleted), nil
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

func (uc *productUseCase) AddImage(ctx context.Context, input *dto.AddImageInput) (*model.ProductImage, error) {
	if uc.images == nil {
		return nil, apperror.Internal(errors.New("image storage is not configured"), "")
	}
	if !validID(input.ProductID) {
		return nil, apperror.ErrProductNotFound
	}
	if input.Size > dto.MaxImageBytes {
		return nil, apperror.ErrImageTooLarge
	}

	br := bufio.NewReaderSize(input.Body, 512)
	head, _ := br.Peek(512)
	contentType := http.DetectContentType(head)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, apperror.ErrImageTypeUnsupported.WithDetails(map[string]any{"content_type": contentType})
	}

	p, err := uc.repo.FindByID(ctx, input.ProductID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if p == nil || p.DeletedAt != nil {
		return nil, apperror.ErrProductNotFound
	}
	existing, err := uc.repo.ListImages(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list product images: %w", err)
	}

	img := &model.ProductImage{
		ID:        uuid.New().String(),
		ProductID: p.ID,
		AltText:   strings.TrimSpace(input.AltText),
		Position:  len(existing),
		IsPrimary: input.IsPrimary || len(existing) == 0,
		CreatedAt: time.Now(),
	}
	if img.AltText == "" {
		img.AltText = p.NameFR
	}

	object := path.Join("products", p.ID, img.ID+ext)
	url, err := uc.images.Upload(ctx, object, contentType, br)
	if err != nil {
		return nil, apperror.Upstream(err, "image upload failed")
	}
	img.URL = url

	if err := uc.repo.AddImage(ctx, img); err != nil {
		if delErr := uc.images.Delete(context.Background(), url); delErr != nil {
			uc.logger.Warn("failed to remove orphaned image", zap.String("url", url), zap.Error(delErr))
		}
		return nil, fmt.Errorf("add product image: %w", err)
	}

	if img.IsPrimary {
		p.ImageURL = img.URL
		uc.afterWrite(p)
	}
	return img, nil
}

func (uc *productUseCase) DeleteImage(ctx context.Context, productID, imageID string) error {
	if !validID(productID) || !validID(imageID) {
		return apperror.ErrImageNotFound
	}
	img, err := uc.repo.DeleteImage(ctx, productID, imageID)
	if err != nil {
		return fmt.Errorf("delete product image: %w", err)
	}
	if img == nil {
		return apperror.ErrImageNotFound
	}
	if uc.images != nil {
		if err := uc.images.Delete(ctx, img.URL); err != nil {
			uc.logger.Warn("failed to delete image object", zap.String("url", img.URL), zap.Error(err))
		}
	}
	if img.IsPrimary {
		uc.resync([]dto.BulkResult{{ID: productID, OK: true}})
	}
	return nil
}

// Reindex rebuilds the search index from every available product.
func (uc *productUseCase) Reindex(ctx context.Context) (int, error) {
	if uc.es == nil {
		return 0, apperror.Upstream(errors.New("search is not configured"), "")
	}
	products, err := uc.repo.FindAllAvailable(ctx)
	if err != nil {
		return 0, fmt.Errorf("load products: %w", err)
	}
	if err := uc.ensureIndex(ctx); err != nil {
		return 0, apperror.Upstream(err, "create search index")
	}
	indexed := 0
	for i := range products {
		if err := uc.es.Index(ctx, uc.index, products[i].ID, newSearchDocument(&products[i])); err != nil {
			uc.logger.Error("failed to index product", zap.String("product_id", products[i].ID), zap.Error(err))
			continue
		}
		indexed++
	}
	uc.logger.Info("search index rebuilt", zap.Int("indexed", indexed), zap.Int("total", len(products)))
	return indexed, nil
}

// uniqueConflict maps a unique violation on wine_products to the matching
// conflict error. It returns nil for any other error.
func uniqueConflict(err error) error {
	switch postgres.ViolatedConstraint(err) {
	case "":
		return nil
	case constraintSlugFR, constraintSlugEN:
		return apperror.ErrSlugExists
	default:
		return apperror.ErrSKUExists
	}
}

// validID reports whether id can be compared against a uuid column.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func fillSlugs(p *model.WineProduct) {
	vintage := 0
	if p.Vintage != nil {
		vintage = *p.Vintage
	}
	if p.SlugFR == "" {
		p.SlugFR = product.GenerateSlug(p.NameFR, vintage)
	} else {
		p.SlugFR = product.GenerateSlug(p.SlugFR, 0)
	}
	if p.SlugEN == "" {
		name := p.NameEN
		if name == "" {
			name = p.NameFR
		}
		p.SlugEN = product.GenerateSlug(name, vintage)
	} else {
		p.SlugEN = product.GenerateSlug(p.SlugEN, 0)
	}
}

func normalizeCertifications(in []string) model.StringList {
	out := make(model.StringList, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, c := range in {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func positive(v *int) *int {
	if v == nil || *v <= 0 {
		return nil
	}
	n := *v
	return &n
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func resultsFor(requested, changed []string) []dto.BulkResult {
	ok := make(map[string]bool, len(changed))
	for _, id := range changed {
		ok[id] = true
	}
	results := make([]dto.BulkResult, len(requested))
	for i, id := range requested {
		results[i] = dto.BulkResult{ID: id, OK: ok[id]}
		if !ok[id] {
			results[i].Error = apperror.ErrProductNotFound.Code
		}
	}
	return results
}
