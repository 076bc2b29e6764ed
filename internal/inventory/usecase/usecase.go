package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/cave-storefront/internal/apperror"
	"github.com/fekuna/cave-storefront/internal/inventory"
	"github.com/fekuna/cave-storefront/internal/inventory/dto"
	"github.com/fekuna/cave-storefront/internal/model"
	"github.com/fekuna/cave-storefront/internal/product"
	"github.com/fekuna/cave-storefront/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	lockAttempts = 3
	lockTTL      = 5 * time.Second
)

// Locker is the distributed lock used to serialize adjustments per product.
type Locker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}

type CacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

type inventoryUseCase struct {
	repo      inventory.Repository
	locker    Locker
	cache     CacheInvalidator
	logger    logger.ZapLogger
	lockRetry time.Duration
}

func NewInventoryUseCase(repo inventory.Repository, locker Locker, cache CacheInvalidator, log logger.ZapLogger) inventory.UseCase {
	return &inventoryUseCase{
		repo:      repo,
		locker:    locker,
		cache:     cache,
		logger:    log,
		lockRetry: 100 * time.Millisecond,
	}
}

func (uc *inventoryUseCase) acquire(ctx context.Context, key, value string) (bool, error) {
	for i := 0; i < lockAttempts; i++ {
		ok, err := uc.locker.AcquireLock(ctx, key, value, lockTTL)
		if err != nil {
			uc.logger.Error("failed to acquire lock redis error", zap.String("key", key), zap.Error(err))
		}
		if ok {
			return true, nil
		}
		if i == lockAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(uc.lockRetry):
		}
	}
	return false, nil
}

func (uc *inventoryUseCase) AdjustStock(ctx context.Context, input *dto.AdjustStockInput) (*model.StockMovement, error) {
	if input.QuantityChange == 0 {
		return nil, apperror.ErrInvalidRequest
	}

	if uc.locker != nil {
		lockKey := fmt.Sprintf("lock:inventory:%s", input.ProductID)
		lockValue := uuid.New().String()
		acquired, err := uc.acquire(ctx, lockKey, lockValue)
		if err != nil {
			return nil, err
		}
		if !acquired {
			return nil, apperror.ErrStockLocked
		}
		defer func() {
			if err := uc.locker.ReleaseLock(context.Background(), lockKey, lockValue); err != nil {
				uc.logger.Warn("failed to release inventory lock", zap.String("key", lockKey), zap.Error(err))
			}
		}()
	}

	movementType := input.MovementType
	if movementType == "" {
		movementType = model.MovementAdjustment
	}

	movement := &model.StockMovement{
		ID:             uuid.New().String(),
		ProductID:      input.ProductID,
		MovementType:   movementType,
		QuantityChange: input.QuantityChange,
		ReferenceType:  optional(input.ReferenceType),
		ReferenceID:    optional(input.ReferenceID),
		Notes:          input.Reason,
		CreatedBy:      optional(input.ActorID),
		CreatedAt:      time.Now(),
	}

	if err := uc.repo.AdjustStockWithMovement(ctx, movement); err != nil {
		var appErr *apperror.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, fmt.Errorf("adjust stock for %s: %w", input.ProductID, err)
	}

	uc.logger.Info("stock adjusted",
		zap.String("product_id", movement.ProductID),
		zap.String("movement_type", movement.MovementType),
		zap.Int("change", movement.QuantityChange),
		zap.Int("after", movement.QuantityAfter),
	)

	if uc.cache != nil {
		if err := uc.cache.DeleteByPattern(ctx, product.ListCachePattern); err != nil {
			uc.logger.Warn("failed to invalidate product list cache", zap.Error(err))
		}
	}

	return movement, nil
}

func (uc *inventoryUseCase) ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	items, count, err := uc.repo.ListMovements(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("list stock movements: %w", err)
	}
	return items, count, nil
}

func (uc *inventoryUseCase) ListLowStock(ctx context.Context, page, pageSize int) ([]model.WineProduct, int, error) {
	if page < 1 {
		page = 1
	}
	items, count, err := uc.repo.ListLowStock(ctx, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list low stock: %w", err)
	}
	return items, count, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
