package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/fekuna/cave-storefront/internal/apperror"
	inventorydto "github.com/fekuna/cave-storefront/internal/inventory/dto"
	"github.com/fekuna/cave-storefront/internal/model"
	"github.com/fekuna/cave-storefront/internal/product"
	"github.com/fekuna/cave-storefront/internal/product/dto"
	"github.com/fekuna/cave-storefront/pkg/logger"
	"github.com/fekuna/cave-storefront/pkg/search"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepo struct{ mock.Mock }

func (m *mockRepo) Create(ctx context.Context, p *model.WineProduct) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockRepo) FindByID(ctx context.Context, id string) (*model.WineProduct, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*model.WineProduct)
	return p, args.Error(1)
}

func (m *mockRepo) FindBySlug(ctx context.Context, slug string) (*model.WineProduct, error) {
	args := m.Called(ctx, slug)
	p, _ := args.Get(0).(*model.WineProduct)
	return p, args.Error(1)
}

func (m *mockRepo) FindByIDs(ctx context.Context, ids []string) ([]model.WineProduct, error) {
	args := m.Called(ctx, ids)
	p, _ := args.Get(0).([]model.WineProduct)
	return p, args.Error(1)
}

func (m *mockRepo) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.WineProduct, int, error) {
	args := m.Called(ctx, f)
	p, _ := args.Get(0).([]model.WineProduct)
	return p, args.Int(1), args.Error(2)
}

func (m *mockRepo) FindAllAvailable(ctx context.Context) ([]model.WineProduct, error) {
	args := m.Called(ctx)
	p, _ := args.Get(0).([]model.WineProduct)
	return p, args.Error(1)
}

func (m *mockRepo) ListSKUs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).([]string)
	return s, args.Error(1)
}

func (m *mockRepo) Update(ctx context.Context, p *model.WineProduct) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockRepo) IsSKUUnique(ctx context.Context, sku, excludeID string) (bool, error) {
	args := m.Called(ctx, sku, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) SoftDelete(ctx context.Context, ids []string, at time.Time) ([]string, error) {
	args := m.Called(ctx, ids, at)
	out, _ := args.Get(0).([]string)
	return out, args.Error(1)
}

func (m *mockRepo) SetActive(ctx context.Context, ids []string, active bool, at time.Time) ([]string, error) {
	args := m.Called(ctx, ids, active, at)
	out, _ := args.Get(0).([]string)
	return out, args.Error(1)
}

func (m *mockRepo) SetPrice(ctx context.Context, ids []string, price int64, at time.Time) ([]string, error) {
	args := m.Called(ctx, ids, price, at)
	out, _ := args.Get(0).([]string)
	return out, args.Error(1)
}

func (m *mockRepo) UpsertBySKU(ctx context.Context, p *model.WineProduct) (bool, error) {
	args := m.Called(ctx, p)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) ListImages(ctx context.Context, productID string) ([]model.ProductImage, error) {
	args := m.Called(ctx, productID)
	out, _ := args.Get(0).([]model.ProductImage)
	return out, args.Error(1)
}

func (m *mockRepo) AddImage(ctx context.Context, img *model.ProductImage) error {
	return m.Called(ctx, img).Error(0)
}

func (m *mockRepo) DeleteImage(ctx context.Context, productID, imageID string) (*model.ProductImage, error) {
	args := m.Called(ctx, productID, imageID)
	img, _ := args.Get(0).(*model.ProductImage)
	return img, args.Error(1)
}

type memCache struct {
	data    map[string][]byte
	deleted []string
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) { return c.data[key], nil }

func (c *memCache) Set(_ context.Context, key string, v []byte, _ time.Duration) error {
	c.data[key] = v
	return nil
}

func (c *memCache) DeleteByPattern(_ context.Context, pattern string) error {
	c.deleted = append(c.deleted, pattern)
	c.data = map[string][]byte{}
	return nil
}

type mockSearcher struct{ mock.Mock }

func (m *mockSearcher) CreateIndex(ctx context.Context, index, mapping string) error {
	return m.Called(ctx, index, mapping).Error(0)
}

func (m *mockSearcher) Index(ctx context.Context, index, id string, doc any) error {
	return m.Called(ctx, index, id, doc).Error(0)
}

func (m *mockSearcher) Delete(ctx context.Context, index, id string) error {
	return m.Called(ctx, index, id).Error(0)
}

func (m *mockSearcher) Search(ctx context.Context, index string, q map[string]any) (*search.SearchResult, error) {
	args := m.Called(ctx, index, q)
	res, _ := args.Get(0).(*search.SearchResult)
	return res, args.Error(1)
}

type mockStock struct{ mock.Mock }

func (m *mockStock) AdjustStock(ctx context.Context, in *inventorydto.AdjustStockInput) (*model.StockMovement, error) {
	args := m.Called(ctx, in)
	mv, _ := args.Get(0).(*model.StockMovement)
	return mv, args.Error(1)
}

type fakeImages struct {
	uploaded map[string][]byte
	deleted  []string
	err      error
}

func (f *fakeImages) Upload(_ context.Context, object, _ string, body io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	data, _ := io.ReadAll(body)
	f.uploaded[object] = data
	return "https://cdn.example.com/" + object, nil
}

func (f *fakeImages) Delete(_ context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

const (
	productID      = "6f1c1f8e-3b7a-4c1e-9d55-0a1b2c3d4e5f"
	otherID        = "7a2d2e9f-4c8b-4d2f-8e66-1b2c3d4e5f60"
	imageID        = "3e8b9d4f-5a6c-4d7e-9f0a-1b2c3d4e5f60"
	missingImageID = "4f9c0e5a-6b7d-4e8f-8a1b-2c3d4e5f6071"
)

type fixture struct {
	uc     *productUseCase
	repo   *mockRepo
	cache  *memCache
	es     *mockSearcher
	stock  *mockStock
	images *fakeImages
}

func newFixture(withSearch bool) *fixture {
	f := &fixture{
		repo:   &mockRepo{},
		cache:  newMemCache(),
		es:     &mockSearcher{},
		stock:  &mockStock{},
		images: &fakeImages{uploaded: map[string][]byte{}},
	}
	var searcher Searcher
	if withSearch {
		searcher = f.es
	}
	uc := NewProductUseCase(f.repo, f.cache, searcher, "wine_products", f.stock, f.images,
		"https://vendor.example.com", logger.NewNop()).(*productUseCase)
	uc.async = func(fn func()) { fn() }
	f.uc = uc
	return f
}

func wine(id string, stock int) model.WineProduct {
	v := 2019
	return model.WineProduct{
		BaseModel:         model.BaseModel{ID: id},
		SKU:               "SKU-" + id[:4],
		NameFR:            "Château Test",
		NameEN:            "Chateau Test",
		Vintage:           &v,
		WineType:          model.WineTypeRed,
		PriceCents:        2450,
		StockQuantity:     stock,
		LowStockThreshold: 6,
		IsActive:          true,
	}
}

func TestListCatalogCachesDatabaseResults(t *testing.T) {
	f := newFixture(false)
	filters := &dto.ProductFilters{WineType: "red", Page: 1, PageSize: 24}
	f.repo.On("FindAll", mock.Anything, mock.Anything).Return([]model.WineProduct{wine(productID, 3)}, 1, nil).Once()

	products, count, err := f.uc.ListCatalog(context.Background(), filters)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, products, 1)

	// Second call is served from the cache.
	products, count, err = f.uc.ListCatalog(context.Background(), &dto.ProductFilters{WineType: "red", Page: 1, PageSize: 24})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, productID, products[0].ID)
	f.repo.AssertExpectations(t)
}

func TestListCatalogForcesStorefrontVisibility(t *testing.T) {
	f := newFixture(false)
	filters := &dto.ProductFilters{IncludeInactive: true, IncludeDeleted: true}
	f.repo.On("FindAll", mock.Anything, mock.MatchedBy(func(f *dto.ProductFilters) bool {
		return !f.IncludeInactive && !f.IncludeDeleted
	})).Return([]model.WineProduct{}, 0, nil).Once()

	_, _, err := f.uc.ListCatalog(context.Background(), filters)
	require.NoError(t, err)
	f.repo.AssertExpectations(t)
}

func TestListCatalogSearchUsesElasticOrder(t *testing.T) {
	f := newFixture(true)
	res := &search.SearchResult{}
	res.Hits.Total.Value = 2
	res.Hits.Hits = []search.SearchHit{{ID: otherID}, {ID: productID}}

	f.es.On("Search", mock.Anything, "wine_products", mock.Anything).Return(res, nil).Once()
	f.repo.On("FindByIDs", mock.Anything, []string{otherID, productID}).
		Return([]model.WineProduct{wine(productID, 1), wine(otherID, 0)}, nil).Once()

	products, count, err := f.uc.ListCatalog(context.Background(), &dto.ProductFilters{SearchQuery: "pinot", Page: 1, PageSize: 24})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.Len(t, products, 2)
	assert.Equal(t, otherID, products[0].ID)
	assert.Equal(t, productID, products[1].ID)
	f.repo.AssertNotCalled(t, "FindAll", mock.Anything, mock.Anything)
}

func TestListCatalogSearchFallsBackToDatabase(t *testing.T) {
	f := newFixture(true)
	f.es.On("Search", mock.Anything, "wine_products", mock.Anything).Return(nil, errors.New("es down")).Once()
	f.repo.On("FindAll", mock.Anything, mock.Anything).Return([]model.WineProduct{wine(productID, 2)}, 1, nil).Once()

	products, _, err := f.uc.ListCatalog(context.Background(), &dto.ProductFilters{SearchQuery: "pinot"})
	require.NoError(t, err)
	assert.Len(t, products, 1)
	f.repo.AssertExpectations(t)
}

func TestGetCatalogProductBySlugAndVisibility(t *testing.T) {
	f := newFixture(false)
	p := wine(productID, 4)
	f.repo.On("FindBySlug", mock.Anything, "chateau-test-2019").Return(&p, nil).Once()
	f.repo.On("ListImages", mock.Anything, productID).Return([]model.ProductImage{{ID: "img"}}, nil).Once()

	got, err := f.uc.GetCatalogProduct(context.Background(), "Chateau-Test-2019")
	require.NoError(t, err)
	assert.Len(t, got.Images, 1)

	hidden := wine(otherID, 4)
	hidden.IsActive = false
	f.repo.On("FindByID", mock.Anything, otherID).Return(&hidden, nil).Once()
	_, err = f.uc.GetCatalogProduct(context.Background(), otherID)
	assert.ErrorIs(t, err, apperror.ErrProductNotFound)

	f.repo.On("FindBySlug", mock.Anything, "missing").Return(nil, nil).Once()
	_, err = f.uc.GetCatalogProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, apperror.ErrProductNotFound)
}

func TestCreateProductGeneratesSlugsAndInvalidates(t *testing.T) {
	f := newFixture(true)
	f.cache.data["products:list:abc"] = []byte("{}")
	vintage := 2020

	f.repo.On("IsSKUUnique", mock.Anything, "CH-2020", "").Return(true, nil).Once()
	f.repo.On("Create", mock.Anything, mock.AnythingOfType("*model.WineProduct")).Return(nil).Once()
	f.es.On("CreateIndex", mock.Anything, "wine_products", mock.Anything).Return(nil).Once()
	f.es.On("Index", mock.Anything, "wine_products", mock.Anything, mock.Anything).Return(nil).Once()

	p, err := f.uc.CreateProduct(context.Background(), &dto.CreateProductInput{
		SKU:            " CH-2020 ",
		NameFR:         "Côtes du Rhône Réserve",
		Vintage:        &vintage,
		WineType:       "red",
		PriceCents:     1890,
		Certifications: []string{"Organic", "organic", " vegan "},
		ImageURL:       "//cdn.vendor.example.com/x.jpg?w=200",
	})
	require.NoError(t, err)

	assert.Equal(t, "CH-2020", p.SKU)
	assert.Equal(t, "cotes-du-rhone-reserve-2020", p.SlugFR)
	assert.Equal(t, "cotes-du-rhone-reserve-2020", p.SlugEN)
	assert.Equal(t, "Côtes du Rhône Réserve", p.NameEN)
	assert.Equal(t, 750, p.VolumeML)
	assert.Equal(t, model.StringList{"organic", "vegan"}, p.Certifications)
	assert.Equal(t, "https://cdn.vendor.example.com/x.jpg", p.ImageURL)
	assert.True(t, p.IsActive)
	assert.Equal(t, []string{product.ListCachePattern}, f.cache.deleted)
	f.es.AssertExpectations(t)
}

func TestCreateProductDuplicateSKU(t *testing.T) {
	f := newFixture(false)
	f.repo.On("IsSKUUnique", mock.Anything, "DUP", "").Return(false, nil).Once()

	_, err := f.uc.CreateProduct(context.Background(), &dto.CreateProductInput{SKU: "DUP", NameFR: "x", WineType: "red", PriceCents: 1})
	assert.ErrorIs(t, err, apperror.ErrSKUExists)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestWriteConflictsFollowConstraint(t *testing.T) {
	f := newFixture(false)
	slugTaken := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "wine_products_slug_en_key"})
	skuTaken := &pgconn.PgError{Code: "23505", ConstraintName: "wine_products_sku_key"}

	f.repo.On("IsSKUUnique", mock.Anything, "NEW-1", "").Return(true, nil)
	f.repo.On("Create", mock.Anything, mock.AnythingOfType("*model.WineProduct")).Return(slugTaken).Once()
	_, err := f.uc.CreateProduct(context.Background(), &dto.CreateProductInput{SKU: "NEW-1", NameFR: "Cuvée", WineType: "red", PriceCents: 1})
	assert.ErrorIs(t, err, apperror.ErrSlugExists)

	p := wine(productID, 5)
	f.repo.On("FindByID", mock.Anything, productID).Return(&p, nil).Once()
	f.repo.On("Update", mock.Anything, mock.AnythingOfType("*model.WineProduct")).Return(skuTaken).Once()
	price := int64(990)
	_, err = f.uc.UpdateProduct(context.Background(), &dto.UpdateProductInput{ID: productID, PriceCents: &price})
	assert.ErrorIs(t, err, apperror.ErrSKUExists)
}

func TestUpdateProductPartial(t *testing.T) {
	f := newFixture(false)
	p := wine(productID, 5)
	p.SlugFR, p.SlugEN = "old", "old"
	f.repo.On("FindByID", mock.Anything, productID).Return(&p, nil).Once()
	f.repo.On("Update", mock.Anything, mock.AnythingOfType("*model.WineProduct")).Return(nil).Once()

	price := int64(2990)
	name := "Nouveau Nom"
	got, err := f.uc.UpdateProduct(context.Background(), &dto.UpdateProductInput{ID: productID, PriceCents: &price, NameFR: &name})
	require.NoError(t, err)

	assert.Equal(t, int64(2990), got.PriceCents)
	assert.Equal(t, "Nouveau Nom", got.NameFR)
	assert.Equal(t, "nouveau-nom-2019", got.SlugFR)
	assert.Equal(t, "chateau-test-2019", got.SlugEN)
	assert.Equal(t, 5, got.StockQuantity)
}

func TestDeleteProduct(t *testing.T) {
	f := newFixture(true)
	f.repo.On("SoftDelete", mock.Anything, []string{productID}, mock.Anything).Return([]string{productID}, nil).Once()
	f.es.On("Delete", mock.Anything, "wine_products", productID).Return(nil).Once()

	require.NoError(t, f.uc.DeleteProduct(context.Background(), productID))
	f.es.AssertExpectations(t)

	f.repo.On("SoftDelete", mock.Anything, []string{otherID}, mock.Anything).Return([]string{}, nil).Once()
	assert.ErrorIs(t, f.uc.DeleteProduct(context.Background(), otherID), apperror.ErrProductNotFound)
}

func TestBulkUpdateRequiresExactlyOneChange(t *testing.T) {
	f := newFixture(false)
	active := true
	price := int64(100)

	_, err := f.uc.BulkUpdate(context.Background(), &dto.BulkUpdateInput{IDs: []string{productID}})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = f.uc.BulkUpdate(context.Background(), &dto.BulkUpdateInput{IDs: []string{productID}, IsActive: &active, PriceCents: &price})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestBulkUpdatePriceReportsMissing(t *testing.T) {
	f := newFixture(false)
	price := int64(1500)
	f.repo.On("SetPrice", mock.Anything, []string{productID, otherID}, price, mock.Anything).Return([]string{productID}, nil).Once()

	results, err := f.uc.BulkUpdate(context.Background(), &dto.BulkUpdateInput{
		IDs:        []string{productID, otherID, productID},
		PriceCents: &price,
	})
	require.NoError(t, err)
	assert.Equal(t, []dto.BulkResult{
		{ID: productID, OK: true},
		{ID: otherID, OK: false, Error: "product_not_found"},
	}, results)
}

func TestBulkUpdateStockQuantityUsesAdjustments(t *testing.T) {
	f := newFixture(false)
	target := 10
	current := wine(productID, 4)
	short := wine(otherID, 2)

	f.repo.On("FindByID", mock.Anything, productID).Return(&current, nil).Once()
	f.repo.On("FindByID", mock.Anything, otherID).Return(&short, nil).Once()
	f.stock.On("AdjustStock", mock.Anything, mock.MatchedBy(func(in *inventorydto.AdjustStockInput) bool {
		return in.ProductID == productID && in.QuantityChange == 6 && in.MovementType == model.MovementBulkUpdate && in.ActorID == "admin-1"
	})).Return(&model.StockMovement{}, nil).Once()
	f.stock.On("AdjustStock", mock.Anything, mock.MatchedBy(func(in *inventorydto.AdjustStockInput) bool {
		return in.ProductID == otherID
	})).Return(nil, apperror.ErrStockLocked).Once()

	results, err := f.uc.BulkUpdate(context.Background(), &dto.BulkUpdateInput{
		IDs:           []string{productID, otherID},
		StockQuantity: &target,
		ActorID:       "admin-1",
	})
	require.NoError(t, err)
	assert.Equal(t, []dto.BulkResult{
		{ID: productID, OK: true},
		{ID: otherID, Error: "stock_locked"},
	}, results)
	f.stock.AssertExpectations(t)
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestAddImageFirstBecomesPrimary(t *testing.T) {
	f := newFixture(false)
	p := wine(productID, 1)
	f.repo.On("FindByID", mock.Anything, productID).Return(&p, nil).Once()
	f.repo.On("ListImages", mock.Anything, productID).Return([]model.ProductImage{}, nil).Once()
	f.repo.On("AddImage", mock.Anything, mock.AnythingOfType("*model.ProductImage")).Return(nil).Once()

	img, err := f.uc.AddImage(context.Background(), &dto.AddImageInput{
		ProductID: productID,
		Size:      int64(len(pngHeader)),
		Body:      bytes.NewReader(pngHeader),
	})
	require.NoError(t, err)
	assert.True(t, img.IsPrimary)
	assert.Equal(t, "Château Test", img.AltText)
	assert.Contains(t, img.URL, "products/"+productID+"/")
	assert.Contains(t, img.URL, ".png")
	assert.Len(t, f.images.uploaded, 1)
}

func TestAddImageRejects(t *testing.T) {
	f := newFixture(false)

	_, err := f.uc.AddImage(context.Background(), &dto.AddImageInput{ProductID: productID, Size: dto.MaxImageBytes + 1, Body: bytes.NewReader(pngHeader)})
	assert.ErrorIs(t, err, apperror.ErrImageTooLarge)

	_, err = f.uc.AddImage(context.Background(), &dto.AddImageInput{ProductID: productID, Size: 10, Body: bytes.NewReader([]byte("%PDF-1.4 not an image"))})
	assert.ErrorIs(t, err, apperror.ErrImageTypeUnsupported)
}

func TestDeleteImage(t *testing.T) {
	f := newFixture(false)
	f.repo.On("DeleteImage", mock.Anything, productID, imageID).
		Return(&model.ProductImage{ID: imageID, URL: "https://cdn.example.com/products/x.png"}, nil).Once()
	f.repo.On("DeleteImage", mock.Anything, productID, missingImageID).Return(nil, nil).Once()

	require.NoError(t, f.uc.DeleteImage(context.Background(), productID, imageID))
	assert.Equal(t, []string{"https://cdn.example.com/products/x.png"}, f.images.deleted)

	assert.ErrorIs(t, f.uc.DeleteImage(context.Background(), productID, missingImageID), apperror.ErrImageNotFound)
}

func TestMalformedIDIsNotFound(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()
	price := int64(100)

	_, err := f.uc.GetProduct(ctx, "abc")
	assert.ErrorIs(t, err, apperror.ErrProductNotFound)

	_, err = f.uc.UpdateProduct(ctx, &dto.UpdateProductInput{ID: "abc", PriceCents: &price})
	assert.ErrorIs(t, err, apperror.ErrProductNotFound)

	assert.ErrorIs(t, f.uc.DeleteProduct(ctx, "abc"), apperror.ErrProductNotFound)

	_, err = f.uc.AddImage(ctx, &dto.AddImageInput{ProductID: "abc", Size: int64(len(pngHeader)), Body: bytes.NewReader(pngHeader)})
	assert.ErrorIs(t, err, apperror.ErrProductNotFound)

	err = f.uc.DeleteImage(ctx, productID, "abc")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	f.repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "DeleteImage", mock.Anything, mock.Anything, mock.Anything)
}

func TestBuildSearchQueryFilters(t *testing.T) {
	q := buildSearchQuery(&dto.ProductFilters{
		SearchQuery: "syrah", WineType: "red", MinPrice: 1000, InStock: true, Page: 2, PageSize: 10,
	})
	assert.Equal(t, 10, q["from"])
	filters := q["query"].(map[string]any)["bool"].(map[string]any)["filter"].([]map[string]any)
	assert.Len(t, filters, 4)
}
