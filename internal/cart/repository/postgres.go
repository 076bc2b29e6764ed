package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fekuna/cave-storefront/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const itemColumns = `id, customer_id, product_id, quantity, created_at, updated_at`

func (r *PGRepository) FindLines(ctx context.Context, customerID string) ([]model.CartLine, error) {
	var items []model.CartItem
	err := r.DB.SelectContext(ctx, &items,
		`SELECT `+itemColumns+` FROM cart_items WHERE customer_id = $1 ORDER BY created_at, id`, customerID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []model.CartLine{}, nil
	}

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}
	query, args, err := sqlx.In(`SELECT * FROM wine_products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var products []model.WineProduct
	if err := r.DB.SelectContext(ctx, &products, r.DB.Rebind(query), args...); err != nil {
		return nil, err
	}

	byID := make(map[string]*model.WineProduct, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	lines := make([]model.CartLine, len(items))
	for i, it := range items {
		lines[i] = model.CartLine{CartItem: it, Product: byID[it.ProductID]}
	}
	return lines, nil
}

func (r *PGRepository) findOne(ctx context.Context, query string, args ...interface{}) (*model.CartItem, error) {
	var item model.CartItem
	if err := r.DB.GetContext(ctx, &item, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *PGRepository) FindItem(ctx context.Context, customerID, itemID string) (*model.CartItem, error) {
	return r.findOne(ctx,
		`SELECT `+itemColumns+` FROM cart_items WHERE id = $1 AND customer_id = $2`, itemID, customerID)
}

func (r *PGRepository) FindByProduct(ctx context.Context, customerID, productID string) (*model.CartItem, error) {
	return r.findOne(ctx,
		`SELECT `+itemColumns+` FROM cart_items WHERE customer_id = $1 AND product_id = $2`, customerID, productID)
}

// Save inserts the item or overwrites the quantity of the existing line for
// the same product. item.ID is updated to the stored row.
func (r *PGRepository) Save(ctx context.Context, item *model.CartItem) error {
	query := `
		INSERT INTO cart_items (id, customer_id, product_id, quantity, created_at, updated_at)
		VALUES (:id, :customer_id, :product_id, :quantity, :created_at, :updated_at)
		ON CONFLICT (customer_id, product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`
	rows, err := r.DB.NamedQueryContext(ctx, query, item)
	if err != nil {
		return err
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&item.ID, &item.CreatedAt); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r *PGRepository) Delete(ctx context.Context, customerID, itemID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1 AND customer_id = $2`, itemID, customerID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *PGRepository) Clear(ctx context.Context, customerID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM cart_items WHERE customer_id = $1`, customerID)
	return err
}
