package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/cave-storefront/internal/apperror"
	invrepo "github.com/fekuna/cave-storefront/internal/inventory/repository"
	"github.com/fekuna/cave-storefront/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var orderColumnList = []string{
	"id", "order_number", "customer_id", "email", "locale", "status", "payment_status", "country",
	"vat_rate", "subtotal_cents", "vat_cents", "shipping_cents", "total_cents",
	"shipping_name", "shipping_line1", "shipping_line2", "shipping_postal_code", "shipping_city",
	"shipping_phone", "payment_id", "payment_url", "created_at", "updated_at",
}

var (
	orderColumns = strings.Join(orderColumnList, ", ")
	orderValues  = ":" + strings.Join(orderColumnList, ", :")
)

const itemColumns = `id, order_id, product_id, sku, name, quantity, unit_price_cents, line_total_cents`

const referenceOrder = "order"

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, o *model.Order) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx,
		fmt.Sprintf(`INSERT INTO orders (%s) VALUES (%s)`, orderColumns, orderValues), o); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	refType := referenceOrder
	for i := range o.Items {
		item := &o.Items[i]
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		item.OrderID = o.ID

		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO order_items (`+itemColumns+`)
			VALUES (:id, :order_id, :product_id, :sku, :name, :quantity, :unit_price_cents, :line_total_cents)`, item); err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}

		after, ok, err := invrepo.DecrementStock(ctx, tx, item.ProductID, item.Quantity)
		if err != nil {
			return fmt.Errorf("failed to take stock: %w", err)
		}
		if !ok {
			return apperror.ErrInsufficientStock.WithDetails(map[string]any{
				"product_id": item.ProductID,
				"requested":  item.Quantity,
			})
		}

		if err := invrepo.InsertMovement(ctx, tx, &model.StockMovement{
			ID:             uuid.New().String(),
			ProductID:      item.ProductID,
			MovementType:   model.MovementSale,
			QuantityChange: -item.Quantity,
			QuantityBefore: after + item.Quantity,
			QuantityAfter:  after,
			ReferenceType:  &refType,
			ReferenceID:    &o.ID,
			Notes:          o.OrderNumber,
			CreatedBy:      &o.CustomerID,
			CreatedAt:      o.CreatedAt,
		}); err != nil {
			return fmt.Errorf("failed to log sale movement: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE customer_id = $1`, o.CustomerID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return tx.Commit()
}

func (r *PGRepository) findOne(ctx context.Context, where string, arg interface{}) (*model.Order, error) {
	var o model.Order
	if err := r.DB.GetContext(ctx, &o, `SELECT `+orderColumns+` FROM orders WHERE `+where+` LIMIT 1`, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	items, err := r.items(ctx, r.DB, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (r *PGRepository) items(ctx context.Context, q sqlx.QueryerContext, orderID string) ([]model.OrderItem, error) {
	items := []model.OrderItem{}
	err := sqlx.SelectContext(ctx, q, &items,
		`SELECT `+itemColumns+` FROM order_items WHERE order_id = $1 ORDER BY name, id`, orderID)
	return items, err
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	return r.findOne(ctx, "id = $1", id)
}

func (r *PGRepository) FindByPaymentID(ctx context.Context, paymentID string) (*model.Order, error) {
	return r.findOne(ctx, "payment_id = $1", paymentID)
}

func (r *PGRepository) FindByCustomer(ctx context.Context, customerID string, page, pageSize int) ([]model.Order, int, error) {
	var count int
	if err := r.DB.GetContext(ctx, &count, `SELECT count(*) FROM orders WHERE customer_id = $1`, customerID); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE customer_id = $1 ORDER BY created_at DESC, id`
	if pageSize > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize)
	}
	var orders []model.Order
	if err := r.DB.SelectContext(ctx, &orders, query, customerID); err != nil {
		return nil, 0, err
	}
	if len(orders) == 0 {
		return orders, count, nil
	}

	ids := make([]string, len(orders))
	byID := make(map[string]*model.Order, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		orders[i].Items = []model.OrderItem{}
		byID[orders[i].ID] = &orders[i]
	}
	q, args, err := sqlx.In(`SELECT `+itemColumns+` FROM order_items WHERE order_id IN (?) ORDER BY name, id`, ids)
	if err != nil {
		return nil, 0, err
	}
	var items []model.OrderItem
	if err := r.DB.SelectContext(ctx, &items, r.DB.Rebind(q), args...); err != nil {
		return nil, 0, err
	}
	for _, it := range items {
		if o := byID[it.OrderID]; o != nil {
			o.Items = append(o.Items, it)
		}
	}
	return orders, count, nil
}

func (r *PGRepository) SetPayment(ctx context.Context, orderID, paymentID, paymentURL string) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE orders SET payment_id = $1, payment_url = NULLIF($2, ''), updated_at = $3
		WHERE id = $4`, paymentID, paymentURL, time.Now(), orderID)
	return err
}

func (r *PGRepository) MarkPaid(ctx context.Context, orderID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE orders SET payment_status = $1, status = $2, updated_at = $3
		WHERE id = $4 AND payment_status = $5`,
		model.PaymentStatusPaid, model.OrderStatusPaid, time.Now(), orderID, model.PaymentStatusUnpaid)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *PGRepository) CancelAndRestock(ctx context.Context, orderID, paymentStatus string) (bool, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	now := time.Now()
	var number string
	err = tx.GetContext(ctx, &number, `
		UPDATE orders SET payment_status = $1, status = $2, updated_at = $3
		WHERE id = $4 AND payment_status = $5
		RETURNING order_number`,
		paymentStatus, model.OrderStatusCancelled, now, orderID, model.PaymentStatusUnpaid)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to cancel order: %w", err)
	}

	items, err := r.items(ctx, tx, orderID)
	if err != nil {
		return false, err
	}
	refType := referenceOrder
	for _, it := range items {
		after, err := invrepo.IncrementStock(ctx, tx, it.ProductID, it.Quantity)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("failed to restock: %w", err)
		}
		if err := invrepo.InsertMovement(ctx, tx, &model.StockMovement{
			ID:             uuid.New().String(),
			ProductID:      it.ProductID,
			MovementType:   model.MovementReturn,
			QuantityChange: it.Quantity,
			QuantityBefore: after - it.Quantity,
			QuantityAfter:  after,
			ReferenceType:  &refType,
			ReferenceID:    &orderID,
			Notes:          number + " " + paymentStatus,
			CreatedAt:      now,
		}); err != nil {
			return false, fmt.Errorf("failed to log return movement: %w", err)
		}
	}

	return true, tx.Commit()
}
