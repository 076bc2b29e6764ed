package repository

import (
	"context"

	"github.com/fekuna/cave-storefront/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const syncLogColumns = `id, platform, operation, status, items_total, items_ok, items_failed, message, details, created_at`

func (r *PGRepository) Create(ctx context.Context, l *model.SyncLog) error {
	_, err := r.DB.NamedExecContext(ctx, `
		INSERT INTO sync_logs (`+syncLogColumns+`)
		VALUES (:id, :platform, :operation, :status, :items_total, :items_ok, :items_failed, :message, :details, :created_at)`, l)
	return err
}

func (r *PGRepository) ListRecent(ctx context.Context, platform string, limit int) ([]model.SyncLog, error) {
	logs := []model.SyncLog{}
	err := r.DB.SelectContext(ctx, &logs,
		`SELECT `+syncLogColumns+` FROM sync_logs WHERE platform = $1 ORDER BY created_at DESC LIMIT $2`,
		platform, limit)
	return logs, err
}
