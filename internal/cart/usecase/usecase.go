package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/cave-storefront/internal/apperror"
	"github.com/fekuna/cave-storefront/internal/cart"
	"github.com/fekuna/cave-storefront/internal/model"
	"github.com/fekuna/cave-storefront/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type cartUseCase struct {
	repo     cart.Repository
	products cart.ProductFinder
	logger   logger.ZapLogger
}

func NewCartUseCase(repo cart.Repository, products cart.ProductFinder, log logger.ZapLogger) cart.UseCase {
	return &cartUseCase{
		repo:     repo,
		products: products,
		logger:   log,
	}
}

func quantityError(requested int) error {
	return apperror.ErrQuantityOutOfRange.WithDetails(map[string]any{
		"min":       model.MinCartQuantity,
		"max":       model.MaxCartQuantity,
		"requested": requested,
	})
}

func stockError(productID string, available int) error {
	return apperror.ErrInsufficientStock.WithDetails(map[string]any{
		"product_id": productID,
		"available":  available,
	})
}

func (uc *cartUseCase) GetCart(ctx context.Context, customerID string) (*cart.Summary, error) {
	lines, err := uc.repo.FindLines(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	s := cart.Summarize(lines)
	return &s, nil
}

// orderableProduct loads the product and rejects missing or hidden ones.
func (uc *cartUseCase) orderableProduct(ctx context.Context, productID string) (*model.WineProduct, error) {
	p, err := uc.products.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if p == nil {
		return nil, apperror.ErrProductNotFound
	}
	if !p.Available() {
		return nil, apperror.ErrProductUnavailable
	}
	return p, nil
}

func (uc *cartUseCase) AddItem(ctx context.Context, customerID, productID string, quantity int) (*model.CartItem, error) {
	if !cart.ValidQuantity(quantity) {
		return nil, quantityError(quantity)
	}

	p, err := uc.orderableProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	existing, err := uc.repo.FindByProduct(ctx, customerID, productID)
	if err != nil {
		return nil, fmt.Errorf("find cart line: %w", err)
	}

	now := time.Now()
	item := &model.CartItem{
		ID:         uuid.New().String(),
		CustomerID: customerID,
		ProductID:  productID,
		Quantity:   quantity,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if existing != nil {
		item.ID = existing.ID
		item.CreatedAt = existing.CreatedAt
		item.Quantity = existing.Quantity + quantity
		if !cart.ValidQuantity(item.Quantity) {
			return nil, quantityError(item.Quantity)
		}
	}
	if item.Quantity > p.StockQuantity {
		return nil, stockError(productID, p.StockQuantity)
	}

	if err := uc.repo.Save(ctx, item); err != nil {
		return nil, fmt.Errorf("save cart line: %w", err)
	}
	uc.logger.Debug("cart line saved",
		zap.String("customer_id", customerID),
		zap.String("product_id", productID),
		zap.Int("quantity", item.Quantity),
	)
	return item, nil
}

func (uc *cartUseCase) UpdateItem(ctx context.Context, customerID, itemID string, quantity int) (*model.CartItem, error) {
	if quantity != 0 && !cart.ValidQuantity(quantity) {
		return nil, quantityError(quantity)
	}
	if _, err := uuid.Parse(itemID); err != nil {
		return nil, apperror.ErrCartItemNotFound
	}

	item, err := uc.repo.FindItem(ctx, customerID, itemID)
	if err != nil {
		return nil, fmt.Errorf("find cart line: %w", err)
	}
	if item == nil {
		return nil, apperror.ErrCartItemNotFound
	}

	if quantity == 0 {
		if err := uc.RemoveItem(ctx, customerID, itemID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	p, err := uc.orderableProduct(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}
	if quantity > p.StockQuantity {
		return nil, stockError(item.ProductID, p.StockQuantity)
	}

	item.Quantity = quantity
	item.UpdatedAt = time.Now()
	if err := uc.repo.Save(ctx, item); err != nil {
		return nil, fmt.Errorf("save cart line: %w", err)
	}
	return item, nil
}

func (uc *cartUseCase) RemoveItem(ctx context.Context, customerID, itemID string) error {
	if _, err := uuid.Parse(itemID); err != nil {
		return apperror.ErrCartItemNotFound
	}
	deleted, err := uc.repo.Delete(ctx, customerID, itemID)
	if err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}
	if !deleted {
		return apperror.ErrCartItemNotFound
	}
	return nil
}

func (uc *cartUseCase) Clear(ctx context.Context, customerID string) error {
	if err := uc.repo.Clear(ctx, customerID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
