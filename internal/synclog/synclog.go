// Package synclog records the outcome of every third-party integration run
// (feeds, payments, email) in the sync_logs table.
package synclog

import (
	"context"
	"time"

	"github.com/fekuna/cave-storefront/internal/model"
	"github.com/fekuna/cave-storefront/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultListLimit = 20

type Repository interface {
	Create(ctx context.Context, l *model.SyncLog) error
	ListRecent(ctx context.Context, platform string, limit int) ([]model.SyncLog, error)
}

type Recorder struct {
	repo   Repository
	logger logger.ZapLogger
}

func NewRecorder(repo Repository, log logger.ZapLogger) *Recorder {
	return &Recorder{repo: repo, logger: log}
}

// Record persists a run. A failure to write the row is logged and the entry
// is still returned.
func (r *Recorder) Record(ctx context.Context, platform, operation string, ok, failed int, message string, details model.JSONMap) *model.SyncLog {
	entry := &model.SyncLog{
		ID:          uuid.New().String(),
		Platform:    platform,
		Operation:   operation,
		Status:      model.SyncStatusFor(ok, failed),
		ItemsTotal:  ok + failed,
		ItemsOK:     ok,
		ItemsFailed: failed,
		Message:     message,
		Details:     details,
		CreatedAt:   time.Now(),
	}
	if r == nil || r.repo == nil {
		return entry
	}
	if err := r.repo.Create(context.WithoutCancel(ctx), entry); err != nil {
		r.logger.Error("failed to write sync log",
			zap.String("platform", platform),
			zap.String("operation", operation),
			zap.Error(err),
		)
	}
	return entry
}

// Failure records a run that did not complete at all.
func (r *Recorder) Failure(ctx context.Context, platform, operation string, err error, details model.JSONMap) *model.SyncLog {
	return r.Record(ctx, platform, operation, 0, 1, err.Error(), details)
}

func (r *Recorder) Recent(ctx context.Context, platform string, limit int) ([]model.SyncLog, error) {
	if limit <= 0 || limit > 100 {
		limit = DefaultListLimit
	}
	return r.repo.ListRecent(ctx, platform, limit)
}
