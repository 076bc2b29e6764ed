package usecase

import (
	"context"
	"fmt"

	"github.com/fekuna/cave-storefront/internal/model"
	"github.com/fekuna/cave-storefront/internal/product/dto"
	"github.com/fekuna/cave-storefront/pkg/search"
	"go.uber.org/zap"
)

const indexMapping = `{
	"settings": {
		"analysis": {
			"analyzer": {
				"folded": { "tokenizer": "standard", "filter": ["lowercase", "asciifolding"] }
			}
		}
	},
	"mappings": {
		"properties": {
			"sku": { "type": "keyword" },
			"name_fr": { "type": "text", "analyzer": "folded" },
			"name_en": { "type": "text", "analyzer": "folded" },
			"varietal": { "type": "text", "analyzer": "folded", "fields": { "raw": { "type": "keyword", "normalizer": "lowercase" } } },
			"region": { "type": "text", "analyzer": "folded", "fields": { "raw": { "type": "keyword", "normalizer": "lowercase" } } },
			"appellation": { "type": "text", "analyzer": "folded" },
			"description_fr": { "type": "text", "analyzer": "folded" },
			"description_en": { "type": "text", "analyzer": "folded" },
			"wine_type": { "type": "keyword" },
			"certifications": { "type": "keyword" },
			"vintage": { "type": "integer" },
			"price_cents": { "type": "long" },
			"stock_quantity": { "type": "integer" },
			"is_active": { "type": "boolean" },
			"updated_at": { "type": "date" }
		}
	}
}`

// Searcher is the subset of the Elasticsearch client used for the catalog.
type Searcher interface {
	CreateIndex(ctx context.Context, index, mapping string) error
	Index(ctx context.Context, index, id string, doc any) error
	Delete(ctx context.Context, index, id string) error
	Search(ctx context.Context, index string, query map[string]any) (*search.SearchResult, error)
}

type searchDocument struct {
	SKU            string   `json:"sku"`
	NameFR         string   `json:"name_fr"`
	NameEN         string   `json:"name_en"`
	Varietal       string   `json:"varietal"`
	Region         string   `json:"region"`
	Appellation    string   `json:"appellation"`
	DescriptionFR  string   `json:"description_fr"`
	DescriptionEN  string   `json:"description_en"`
	WineType       string   `json:"wine_type"`
	Certifications []string `json:"certifications"`
	Vintage        *int     `json:"vintage,omitempty"`
	PriceCents     int64    `json:"price_cents"`
	StockQuantity  int      `json:"stock_quantity"`
	IsActive       bool     `json:"is_active"`
	UpdatedAt      string   `json:"updated_at"`
}

func newSearchDocument(p *model.WineProduct) searchDocument {
	return searchDocument{
		SKU:            p.SKU,
		NameFR:         p.NameFR,
		NameEN:         p.NameEN,
		Varietal:       p.Varietal,
		Region:         p.Region,
		Appellation:    p.Appellation,
		DescriptionFR:  p.DescriptionFR,
		DescriptionEN:  p.DescriptionEN,
		WineType:       p.WineType,
		Certifications: []string(p.Certifications),
		Vintage:        p.Vintage,
		PriceCents:     p.PriceCents,
		StockQuantity:  p.StockQuantity,
		IsActive:       p.IsActive,
		UpdatedAt:      p.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// buildSearchQuery mirrors the SQL filters of the catalog listing.
func buildSearchQuery(f *dto.ProductFilters) map[string]any {
	filters := []map[string]any{
		{"term": map[string]any{"is_active": true}},
	}
	if f.WineType != "" {
		filters = append(filters, map[string]any{"term": map[string]any{"wine_type": f.WineType}})
	}
	if f.Varietal != "" {
		filters = append(filters, map[string]any{"term": map[string]any{"varietal.raw": f.Varietal}})
	}
	if f.Region != "" {
		filters = append(filters, map[string]any{"term": map[string]any{"region.raw": f.Region}})
	}
	if f.Certification != "" {
		filters = append(filters, map[string]any{"term": map[string]any{"certifications": f.Certification}})
	}
	if f.Vintage > 0 {
		filters = append(filters, map[string]any{"term": map[string]any{"vintage": f.Vintage}})
	}
	price := map[string]any{}
	if f.MinPrice > 0 {
		price["gte"] = f.MinPrice
	}
	if f.MaxPrice > 0 {
		price["lte"] = f.MaxPrice
	}
	if len(price) > 0 {
		filters = append(filters, map[string]any{"range": map[string]any{"price_cents": price}})
	}
	if f.InStock {
		filters = append(filters, map[string]any{"range": map[string]any{"stock_quantity": map[string]any{"gt": 0}}})
	}

	q := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": []map[string]any{
					{
						"multi_match": map[string]any{
							"query": f.SearchQuery,
							"fields": []string{
								"name_fr^3", "name_en^3", "varietal", "region", "appellation",
								"description_fr", "description_en",
							},
							"fuzziness": "AUTO",
						},
					},
				},
				"filter": filters,
			},
		},
		"_source": false,
	}
	if f.PageSize > 0 {
		q["size"] = f.PageSize
		q["from"] = (max(f.Page, 1) - 1) * f.PageSize
	}
	return q
}

// searchCatalog resolves IDs through Elasticsearch, then loads fresh rows from
// the database in relevance order.
func (uc *productUseCase) searchCatalog(ctx context.Context, f *dto.ProductFilters) ([]model.WineProduct, int, error) {
	res, err := uc.es.Search(ctx, uc.index, buildSearchQuery(f))
	if err != nil {
		return nil, 0, err
	}

	ids := make([]string, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		ids = append(ids, hit.ID)
	}
	rows, err := uc.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("load search hits: %w", err)
	}

	byID := make(map[string]model.WineProduct, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
	}
	products := make([]model.WineProduct, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok || !p.Available() || (f.InStock && !p.InStock()) {
			continue
		}
		products = append(products, p)
	}
	return products, res.Hits.Total.Value, nil
}

func (uc *productUseCase) syncToElastic(ctx context.Context, p *model.WineProduct) {
	if uc.es == nil {
		return
	}
	if !p.Available() {
		uc.removeFromElastic(ctx, p.ID)
		return
	}
	if err := uc.ensureIndex(ctx); err != nil {
		uc.logger.Error("failed to create product index", zap.Error(err))
		return
	}
	if err := uc.es.Index(ctx, uc.index, p.ID, newSearchDocument(p)); err != nil {
		uc.logger.Error("failed to index product", zap.String("product_id", p.ID), zap.Error(err))
	}
}

func (uc *productUseCase) removeFromElastic(ctx context.Context, id string) {
	if uc.es == nil {
		return
	}
	if err := uc.es.Delete(ctx, uc.index, id); err != nil {
		uc.logger.Error("failed to delete product from ES", zap.String("product_id", id), zap.Error(err))
	}
}

func (uc *productUseCase) ensureIndex(ctx context.Context) error {
	return uc.es.CreateIndex(ctx, uc.index, indexMapping)
}
