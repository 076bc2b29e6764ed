package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/cave-storefront/internal/model"
	"github.com/fekuna/cave-storefront/internal/product/dto"
	"github.com/jmoiron/sqlx"
)

var productColumnList = []string{
	"id", "sku", "name_fr", "name_en", "vintage", "varietal", "region", "appellation", "wine_type",
	"volume_ml", "alcohol_pct", "price_cents", "cost_cents", "stock_quantity", "low_stock_threshold",
	"certifications", "description_fr", "description_en", "tasting_notes_fr", "tasting_notes_en",
	"food_pairing_fr", "food_pairing_en", "slug_fr", "slug_en", "seo_title_fr", "seo_title_en",
	"seo_description_fr", "seo_description_en", "image_url", "gtin", "is_active", "deleted_at",
	"created_at", "updated_at",
}

var (
	productColumns = strings.Join(productColumnList, ", ")
	productValues  = ":" + strings.Join(productColumnList, ", :")
)

// assignments renders "col = <src>col" for every column except the keys.
func assignments(prefix string, skip ...string) string {
	skipped := map[string]bool{"id": true, "created_at": true}
	for _, s := range skip {
		skipped[s] = true
	}
	parts := make([]string, 0, len(productColumnList))
	for _, col := range productColumnList {
		if skipped[col] {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s = %s%s", col, prefix, col))
	}
	return strings.Join(parts, ",\n\t\t\t")
}

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, p *model.WineProduct) error {
	query := fmt.Sprintf(`INSERT INTO wine_products (%s) VALUES (%s)`, productColumns, productValues)
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.WineProduct, error) {
	var p model.WineProduct
	query := `SELECT ` + productColumns + ` FROM wine_products WHERE id = $1 LIMIT 1`
	if err := r.DB.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) FindBySlug(ctx context.Context, slug string) (*model.WineProduct, error) {
	var p model.WineProduct
	query := `
		SELECT ` + productColumns + `
		FROM wine_products
		WHERE (slug_fr = $1 OR slug_en = $1) AND deleted_at IS NULL
		ORDER BY is_active DESC, created_at ASC
		LIMIT 1`
	if err := r.DB.GetContext(ctx, &p, query, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) FindByIDs(ctx context.Context, ids []string) ([]model.WineProduct, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+productColumns+` FROM wine_products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var products []model.WineProduct
	if err := r.DB.SelectContext(ctx, &products, r.DB.Rebind(query), args...); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.WineProduct, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	switch {
	case !f.IncludeInactive:
		conditions = append(conditions, "is_active = TRUE", "deleted_at IS NULL")
	case !f.IncludeDeleted:
		conditions = append(conditions, "deleted_at IS NULL")
	}
	if f.WineType != "" {
		conditions = append(conditions, "wine_type = :wine_type")
		args["wine_type"] = f.WineType
	}
	if f.Varietal != "" {
		conditions = append(conditions, "lower(varietal) = lower(:varietal)")
		args["varietal"] = f.Varietal
	}
	if f.Region != "" {
		conditions = append(conditions, "lower(region) = lower(:region)")
		args["region"] = f.Region
	}
	if f.Certification != "" {
		conditions = append(conditions, "certifications @> jsonb_build_array(CAST(:certification AS text))")
		args["certification"] = f.Certification
	}
	if f.Vintage > 0 {
		conditions = append(conditions, "vintage = :vintage")
		args["vintage"] = f.Vintage
	}
	if f.MinPrice > 0 {
		conditions = append(conditions, "price_cents >= :min_price")
		args["min_price"] = f.MinPrice
	}
	if f.MaxPrice > 0 {
		conditions = append(conditions, "price_cents <= :max_price")
		args["max_price"] = f.MaxPrice
	}
	if f.InStock {
		conditions = append(conditions, "stock_quantity > 0")
	}
	if f.SearchQuery != "" {
		conditions = append(conditions, `(name_fr ILIKE :search OR name_en ILIKE :search OR sku ILIKE :search
			OR varietal ILIKE :search OR region ILIKE :search OR appellation ILIKE :search)`)
		args["search"] = "%" + f.SearchQuery + "%"
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	countStmt, err := r.DB.PrepareNamedContext(ctx, "SELECT count(*) FROM wine_products"+whereClause)
	if err != nil {
		return nil, 0, err
	}
	defer countStmt.Close()
	if err := countStmt.GetContext(ctx, &count, args); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM wine_products%s ORDER BY %s", productColumns, whereClause, orderBy(f))
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	var products []model.WineProduct
	if err := nstmt.SelectContext(ctx, &products, args); err != nil {
		return nil, 0, err
	}
	return products, count, nil
}

// orderBy whitelists sortable columns.
func orderBy(f *dto.ProductFilters) string {
	dir := "DESC"
	if strings.ToLower(f.SortOrder) == "asc" {
		dir = "ASC"
	}
	switch f.SortBy {
	case "name":
		if f.SortOrder == "" {
			dir = "ASC"
		}
		return "name_fr " + dir + ", id"
	case "price":
		if f.SortOrder == "" {
			dir = "ASC"
		}
		return "price_cents " + dir + ", id"
	case "vintage":
		return "vintage " + dir + " NULLS LAST, id"
	default:
		return "created_at " + dir + ", id"
	}
}

func (r *PGRepository) FindAllAvailable(ctx context.Context) ([]model.WineProduct, error) {
	var products []model.WineProduct
	query := `
		SELECT ` + productColumns + `
		FROM wine_products
		WHERE is_active = TRUE AND deleted_at IS NULL
		ORDER BY sku`
	if err := r.DB.SelectContext(ctx, &products, query); err != nil {
		return nil, err
	}
	return products, nil
}

// ListSKUs returns every SKU ever created, deleted products included.
func (r *PGRepository) ListSKUs(ctx context.Context) ([]string, error) {
	var skus []string
	if err := r.DB.SelectContext(ctx, &skus, `SELECT sku FROM wine_products ORDER BY sku`); err != nil {
		return nil, err
	}
	return skus, nil
}

// Update writes every column except stock, which only moves through
// inventory adjustments.
func (r *PGRepository) Update(ctx context.Context, p *model.WineProduct) error {
	query := `UPDATE wine_products SET ` + assignments(":", "stock_quantity") + ` WHERE id = :id`
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) IsSKUUnique(ctx context.Context, sku, excludeID string) (bool, error) {
	var count int
	query := `SELECT count(*) FROM wine_products WHERE sku = $1`
	args := []interface{}{sku}
	if excludeID != "" {
		query += ` AND id != $2`
		args = append(args, excludeID)
	}
	if err := r.DB.GetContext(ctx, &count, query, args...); err != nil {
		return false, err
	}
	return count == 0, nil
}

func (r *PGRepository) bulkUpdate(ctx context.Context, set string, ids []string, args ...interface{}) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, inArgs, err := sqlx.In(
		`UPDATE wine_products SET `+set+` WHERE id IN (?) AND deleted_at IS NULL RETURNING id`,
		append(args, ids)...,
	)
	if err != nil {
		return nil, err
	}
	var updated []string
	if err := r.DB.SelectContext(ctx, &updated, r.DB.Rebind(query), inArgs...); err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *PGRepository) SoftDelete(ctx context.Context, ids []string, at time.Time) ([]string, error) {
	return r.bulkUpdate(ctx, "deleted_at = ?, is_active = FALSE, updated_at = ?", ids, at, at)
}

func (r *PGRepository) SetActive(ctx context.Context, ids []string, active bool, at time.Time) ([]string, error) {
	return r.bulkUpdate(ctx, "is_active = ?, updated_at = ?", ids, active, at)
}

func (r *PGRepository) SetPrice(ctx context.Context, ids []string, priceCents int64, at time.Time) ([]string, error) {
	return r.bulkUpdate(ctx, "price_cents = ?, updated_at = ?", ids, priceCents, at)
}

func (r *PGRepository) UpsertBySKU(ctx context.Context, p *model.WineProduct) (bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO wine_products (%s) VALUES (%s)
		ON CONFLICT (sku) DO UPDATE SET
			%s
		RETURNING (xmax = 0) AS inserted`,
		productColumns, productValues, assignments("EXCLUDED.", "sku", "deleted_at"))

	rows, err := r.DB.NamedQueryContext(ctx, query, p)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	var inserted bool
	if rows.Next() {
		if err := rows.Scan(&inserted); err != nil {
			return false, err
		}
	}
	return inserted, rows.Err()
}

func (r *PGRepository) ListImages(ctx context.Context, productID string) ([]model.ProductImage, error) {
	var images []model.ProductImage
	query := `
		SELECT id, product_id, url, alt_text, position, is_primary, created_at
		FROM product_images
		WHERE product_id = $1
		ORDER BY position, created_at`
	if err := r.DB.SelectContext(ctx, &images, query, productID); err != nil {
		return nil, err
	}
	return images, nil
}

// AddImage inserts the image; a primary image also becomes the product's
// image_url.
func (r *PGRepository) AddImage(ctx context.Context, img *model.ProductImage) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if img.IsPrimary {
		if _, err := tx.ExecContext(ctx,
			`UPDATE product_images SET is_primary = FALSE WHERE product_id = $1`, img.ProductID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE wine_products SET image_url = $1, updated_at = NOW() WHERE id = $2`, img.URL, img.ProductID); err != nil {
			return err
		}
	}

	query := `
		INSERT INTO product_images (id, product_id, url, alt_text, position, is_primary, created_at)
		VALUES (:id, :product_id, :url, :alt_text, :position, :is_primary, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, img); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteImage removes the image and, when it was primary, promotes the next
// one. Returns nil when the image does not belong to the product.
func (r *PGRepository) DeleteImage(ctx context.Context, productID, imageID string) (*model.ProductImage, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var img model.ProductImage
	err = tx.GetContext(ctx, &img, `
		DELETE FROM product_images WHERE id = $1 AND product_id = $2
		RETURNING id, product_id, url, alt_text, position, is_primary, created_at`, imageID, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if img.IsPrimary {
		var next model.ProductImage
		err := tx.GetContext(ctx, &next, `
			SELECT id, product_id, url, alt_text, position, is_primary, created_at
			FROM product_images WHERE product_id = $1
			ORDER BY position, created_at LIMIT 1`, productID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			next.URL = ""
		case err != nil:
			return nil, err
		default:
			if _, err := tx.ExecContext(ctx,
				`UPDATE product_images SET is_primary = TRUE WHERE id = $1`, next.ID); err != nil {
				return nil, err
			}
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE wine_products SET image_url = $1, updated_at = NOW() WHERE id = $2`, next.URL, productID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &img, nil
}
