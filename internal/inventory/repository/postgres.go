package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/cave-storefront/internal/apperror"
	"github.com/fekuna/cave-storefront/internal/inventory/dto"
	"github.com/fekuna/cave-storefront/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const insertMovementQuery = `
	INSERT INTO stock_movements (
		id, product_id, movement_type, quantity_change, quantity_before, quantity_after,
		reference_type, reference_id, notes, created_by, created_at
	)
	VALUES (
		:id, :product_id, :movement_type, :quantity_change, :quantity_before, :quantity_after,
		:reference_type, :reference_id, :notes, :created_by, :created_at
	)`

// InsertMovement records a movement on db or an open transaction.
func InsertMovement(ctx context.Context, ext sqlx.ExtContext, m *model.StockMovement) error {
	_, err := sqlx.NamedExecContext(ctx, ext, insertMovementQuery, m)
	return err
}

// DecrementStock takes qty units only if that many are available. ok is
// false when stock is short or the product is gone.
func DecrementStock(ctx context.Context, ext sqlx.ExtContext, productID string, qty int) (after int, ok bool, err error) {
	err = sqlx.GetContext(ctx, ext, &after, `
		UPDATE wine_products
		SET stock_quantity = stock_quantity - $1, updated_at = NOW()
		WHERE id = $2 AND stock_quantity >= $1
		RETURNING stock_quantity`, qty, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return after, true, nil
}

// IncrementStock puts qty units back and returns the new quantity.
func IncrementStock(ctx context.Context, ext sqlx.ExtContext, productID string, qty int) (int, error) {
	var after int
	err := sqlx.GetContext(ctx, ext, &after, `
		UPDATE wine_products
		SET stock_quantity = stock_quantity + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING stock_quantity`, qty, productID)
	return after, err
}

func (r *PGRepository) AdjustStockWithMovement(ctx context.Context, m *model.StockMovement) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var before int
	err = tx.GetContext(ctx, &before,
		`SELECT stock_quantity FROM wine_products WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, m.ProductID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.ErrProductNotFound
		}
		return fmt.Errorf("failed to lock stock: %w", err)
	}

	after := before + m.QuantityChange
	if after < 0 {
		return apperror.ErrInsufficientStock.WithDetails(map[string]any{
			"product_id": m.ProductID,
			"available":  before,
		})
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE wine_products SET stock_quantity = $1, updated_at = NOW() WHERE id = $2`, after, m.ProductID); err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}

	m.QuantityBefore = before
	m.QuantityAfter = after
	if err := InsertMovement(ctx, tx, m); err != nil {
		return fmt.Errorf("failed to log movement: %w", err)
	}

	return tx.Commit()
}

func (r *PGRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.StockMovement, int, error) {
	var items []model.StockMovement
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.MovementType != "" {
		conditions = append(conditions, "movement_type = :movement_type")
		args["movement_type"] = f.MovementType
	}
	if f.From != nil {
		conditions = append(conditions, "created_at >= :from")
		args["from"] = *f.From
	}
	if f.To != nil {
		conditions = append(conditions, "created_at < :to")
		args["to"] = f.To.AddDate(0, 0, 1)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countStmt, err := r.DB.PrepareNamedContext(ctx, "SELECT count(*) FROM stock_movements"+whereClause)
	if err != nil {
		return nil, 0, err
	}
	defer countStmt.Close()
	if err := countStmt.GetContext(ctx, &count, args); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, product_id, movement_type, quantity_change, quantity_before, quantity_after,
		reference_type, reference_id, notes, created_by, created_at
		FROM stock_movements` + whereClause + " ORDER BY created_at DESC, id"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}

func (r *PGRepository) ListLowStock(ctx context.Context, page, pageSize int) ([]model.WineProduct, int, error) {
	const where = ` WHERE deleted_at IS NULL AND stock_quantity <= low_stock_threshold`

	var count int
	if err := r.DB.GetContext(ctx, &count, `SELECT count(*) FROM wine_products`+where); err != nil {
		return nil, 0, err
	}

	query := `SELECT * FROM wine_products` + where + ` ORDER BY stock_quantity ASC, sku`
	if pageSize > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize)
	}

	var items []model.WineProduct
	if err := r.DB.SelectContext(ctx, &items, query); err != nil {
		return nil, 0, err
	}
	return items, count, nil
}
