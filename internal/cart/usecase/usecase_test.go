package usecase

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/fekuna/cave-storefront/internal/apperror"
	"github.com/fekuna/cave-storefront/internal/model"
	"github.com/fekuna/cave-storefront/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepo struct{ mock.Mock }

func (m *mockRepo) FindLines(ctx context.Context, customerID string) ([]model.CartLine, error) {
	args := m.Called(ctx, customerID)
	out, _ := args.Get(0).([]model.CartLine)
	return out, args.Error(1)
}

func (m *mockRepo) FindItem(ctx context.Context, customerID, itemID string) (*model.CartItem, error) {
	args := m.Called(ctx, customerID, itemID)
	it, _ := args.Get(0).(*model.CartItem)
	return it, args.Error(1)
}

func (m *mockRepo) FindByProduct(ctx context.Context, customerID, productID string) (*model.CartItem, error) {
	args := m.Called(ctx, customerID, productID)
	it, _ := args.Get(0).(*model.CartItem)
	return it, args.Error(1)
}

func (m *mockRepo) Save(ctx context.Context, item *model.CartItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *mockRepo) Delete(ctx context.Context, customerID, itemID string) (bool, error) {
	args := m.Called(ctx, customerID, itemID)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) Clear(ctx context.Context, customerID string) error {
	return m.Called(ctx, customerID).Error(0)
}

type productMap map[string]*model.WineProduct

func (p productMap) FindByID(_ context.Context, id string) (*model.WineProduct, error) {
	return p[id], nil
}

const (
	customer = "cust-1"
	wineID   = "6f1c1f8e-3b7a-4c1e-9d55-0a1b2c3d4e5f"
	hiddenID = "7a2d2e9f-4c8b-4d2f-8e66-1b2c3d4e5f60"

	lineID    = "0b5e6a1c-2d3f-4a5b-8c6d-7e8f9a0b1c2d"
	foreignID = "1c6f7b2d-3e4a-4b5c-9d7e-8f9a0b1c2d3e"
	missingID = "2d7a8c3e-4f5b-4c6d-8e8f-9a0b1c2d3e4f"
)

func setup(stock int) (*cartUseCase, *mockRepo) {
	repo := &mockRepo{}
	products := productMap{
		wineID:   {BaseModel: model.BaseModel{ID: wineID}, StockQuantity: stock, PriceCents: 1500, IsActive: true},
		hiddenID: {BaseModel: model.BaseModel{ID: hiddenID}, StockQuantity: 50, IsActive: false},
	}
	return NewCartUseCase(repo, products, logger.NewNop()).(*cartUseCase), repo
}

func TestAddItemQuantityBounds(t *testing.T) {
	uc, _ := setup(100)
	for _, q := range []int{0, -1, 13} {
		_, err := uc.AddItem(context.Background(), customer, wineID, q)
		assert.ErrorIs(t, err, apperror.ErrQuantityOutOfRange, "q=%d", q)
	}
}

func TestAddItemNewLine(t *testing.T) {
	uc, repo := setup(10)
	repo.On("FindByProduct", mock.Anything, customer, wineID).Return(nil, nil).Once()
	repo.On("Save", mock.Anything, mock.MatchedBy(func(it *model.CartItem) bool {
		return it.Quantity == 3 && it.CustomerID == customer && it.ID != ""
	})).Return(nil).Once()

	item, err := uc.AddItem(context.Background(), customer, wineID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity)
	repo.AssertExpectations(t)
}

func TestAddItemMergesExistingLine(t *testing.T) {
	uc, repo := setup(20)
	created := time.Now().Add(-time.Hour)
	repo.On("FindByProduct", mock.Anything, customer, wineID).
		Return(&model.CartItem{ID: lineID, Quantity: 5, CreatedAt: created}, nil).Once()
	repo.On("Save", mock.Anything, mock.AnythingOfType("*model.CartItem")).Return(nil).Once()

	item, err := uc.AddItem(context.Background(), customer, wineID, 4)
	require.NoError(t, err)
	assert.Equal(t, lineID, item.ID)
	assert.Equal(t, 9, item.Quantity)
	assert.Equal(t, created, item.CreatedAt)
}

func TestAddItemMergedQuantityTooHigh(t *testing.T) {
	uc, repo := setup(100)
	repo.On("FindByProduct", mock.Anything, customer, wineID).Return(&model.CartItem{ID: lineID, Quantity: 10}, nil).Once()

	_, err := uc.AddItem(context.Background(), customer, wineID, 3)
	assert.ErrorIs(t, err, apperror.ErrQuantityOutOfRange)
	assert.Equal(t, 13, apperror.As(err).Details["requested"])
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAddItemInsufficientStock(t *testing.T) {
	uc, repo := setup(2)
	repo.On("FindByProduct", mock.Anything, customer, wineID).Return(nil, nil).Once()

	_, err := uc.AddItem(context.Background(), customer, wineID, 3)
	assert.ErrorIs(t, err, apperror.ErrInsufficientStock)
	assert.Equal(t, http.StatusConflict, apperror.As(err).Kind.HTTPStatus())
	assert.Equal(t, 2, apperror.As(err).Details["available"])
}

func TestAddItemUnavailableProduct(t *testing.T) {
	uc, _ := setup(10)

	_, err := uc.AddItem(context.Background(), customer, hiddenID, 1)
	assert.ErrorIs(t, err, apperror.ErrProductUnavailable)

	_, err = uc.AddItem(context.Background(), customer, "00000000-0000-0000-0000-000000000000", 1)
	assert.ErrorIs(t, err, apperror.ErrProductNotFound)
}

func TestUpdateItemZeroRemoves(t *testing.T) {
	uc, repo := setup(10)
	repo.On("FindItem", mock.Anything, customer, lineID).Return(&model.CartItem{ID: lineID, ProductID: wineID, Quantity: 2}, nil).Once()
	repo.On("Delete", mock.Anything, customer, lineID).Return(true, nil).Once()

	item, err := uc.UpdateItem(context.Background(), customer, lineID, 0)
	require.NoError(t, err)
	assert.Nil(t, item)
	repo.AssertExpectations(t)
}

func TestUpdateItemRules(t *testing.T) {
	uc, repo := setup(4)
	repo.On("FindItem", mock.Anything, customer, lineID).Return(&model.CartItem{ID: lineID, ProductID: wineID, Quantity: 2}, nil)
	repo.On("FindItem", mock.Anything, customer, foreignID).Return(nil, nil)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*model.CartItem")).Return(nil)

	_, err := uc.UpdateItem(context.Background(), customer, lineID, 13)
	assert.ErrorIs(t, err, apperror.ErrQuantityOutOfRange)

	_, err = uc.UpdateItem(context.Background(), customer, lineID, -2)
	assert.ErrorIs(t, err, apperror.ErrQuantityOutOfRange)

	_, err = uc.UpdateItem(context.Background(), customer, lineID, 5)
	assert.ErrorIs(t, err, apperror.ErrInsufficientStock)

	_, err = uc.UpdateItem(context.Background(), customer, foreignID, 1)
	assert.ErrorIs(t, err, apperror.ErrCartItemNotFound)

	item, err := uc.UpdateItem(context.Background(), customer, lineID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, item.Quantity)
}

func TestRemoveItemNotFound(t *testing.T) {
	uc, repo := setup(1)
	repo.On("Delete", mock.Anything, customer, missingID).Return(false, nil).Once()
	assert.ErrorIs(t, uc.RemoveItem(context.Background(), customer, missingID), apperror.ErrCartItemNotFound)
}

func TestMalformedItemIDIsNotFound(t *testing.T) {
	uc, repo := setup(10)

	_, err := uc.UpdateItem(context.Background(), customer, "abc", 2)
	assert.ErrorIs(t, err, apperror.ErrCartItemNotFound)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	err = uc.RemoveItem(context.Background(), customer, "abc")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	repo.AssertNotCalled(t, "FindItem", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetCartSummarizes(t *testing.T) {
	uc, repo := setup(1)
	p := &model.WineProduct{StockQuantity: 1, PriceCents: 1000, IsActive: true}
	repo.On("FindLines", mock.Anything, customer).Return([]model.CartLine{
		{CartItem: model.CartItem{ID: "a", Quantity: 2}, Product: p},
	}, nil).Once()

	s, err := uc.GetCart(context.Background(), customer)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), s.SubtotalCents)
	assert.True(t, s.HasWarnings)
	assert.Equal(t, []string{model.WarningInsufficientStock}, s.Lines[0].Warnings)
}
