package feed

import (
	"context"

	"github.com/fekuna/cave-storefront/internal/model"
)

type UseCase interface {
	SyncMeta(ctx context.Context) (*model.SyncLog, error)
	DeleteMeta(ctx context.Context, skus []string) (*model.SyncLog, error)
	SyncGoogle(ctx context.Context) (*model.SyncLog, error)
	DeleteGoogle(ctx context.Context, skus []string) (*model.SyncLog, error)
	GoogleFeed(ctx context.Context, locale string) ([]byte, error)
	SyncLogs(ctx context.Context, platform string, limit int) ([]model.SyncLog, error)
}

// ProductSource is the slice of the product repository feeds read from.
type ProductSource interface {
	FindAllAvailable(ctx context.Context) ([]model.WineProduct, error)
	ListSKUs(ctx context.Context) ([]string, error)
}
