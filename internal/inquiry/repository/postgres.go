package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/cave-storefront/internal/inquiry/dto"
	"github.com/fekuna/cave-storefront/internal/model"
	"github.com/jmoiron/sqlx"
)

var inquiryColumnList = []string{
	"id", "name", "email", "phone", "company", "subject", "message", "inquiry_type", "status",
	"priority", "locale", "spam_score", "ip_address", "user_agent", "consent_given", "assigned_to",
	"response_notes", "processing_log", "anonymized_at", "resolved_at", "created_at", "updated_at",
}

var (
	inquiryColumns = strings.Join(inquiryColumnList, ", ")
	inquiryValues  = ":" + strings.Join(inquiryColumnList, ", :")
)

const priorityRank = `CASE priority WHEN 'urgent' THEN 4 WHEN 'high' THEN 3 WHEN 'normal' THEN 2 ELSE 1 END`

var sortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"status":     "status",
	"priority":   priorityRank,
}

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, in *model.ContactInquiry) error {
	query := fmt.Sprintf(`INSERT INTO contact_inquiries (%s) VALUES (%s)`, inquiryColumns, inquiryValues)
	_, err := r.DB.NamedExecContext(ctx, query, in)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.ContactInquiry, error) {
	var in model.ContactInquiry
	if err := r.DB.GetContext(ctx, &in, `SELECT `+inquiryColumns+` FROM contact_inquiries WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &in, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.InquiryFilters) ([]model.ContactInquiry, int, error) {
	var items []model.ContactInquiry
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}
	if f.Priority != "" {
		conditions = append(conditions, "priority = :priority")
		args["priority"] = f.Priority
	}
	if f.InquiryType != "" {
		conditions = append(conditions, "inquiry_type = :inquiry_type")
		args["inquiry_type"] = f.InquiryType
	}
	if f.Search != "" {
		conditions = append(conditions, "(name ILIKE :search OR email ILIKE :search OR subject ILIKE :search OR message ILIKE :search)")
		args["search"] = "%" + f.Search + "%"
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

	countStmt, err := r.DB.PrepareNamedContext(ctx, "SELECT count(*) FROM contact_inquiries"+whereClause)
	if err != nil {
		return nil, 0, err
	}
	defer countStmt.Close()
	if err := countStmt.GetContext(ctx, &count, args); err != nil {
		return nil, 0, err
	}

	sortCol, ok := sortColumns[f.SortBy]
	if !ok {
		sortCol = "created_at"
	}
	sortOrder := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		sortOrder = "ASC"
	}

	query := `SELECT ` + inquiryColumns + ` FROM contact_inquiries` + whereClause +
		fmt.Sprintf(" ORDER BY %s %s, created_at DESC, id", sortCol, sortOrder)
	if f.PageSize > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (f.Page-1)*f.PageSize)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}

func (r *PGRepository) Update(ctx context.Context, in *model.ContactInquiry) error {
	_, err := r.DB.NamedExecContext(ctx, `
		UPDATE contact_inquiries SET
			name = :name, email = :email, phone = :phone, company = :company,
			subject = :subject, message = :message, status = :status, priority = :priority,
			ip_address = :ip_address, user_agent = :user_agent, assigned_to = :assigned_to,
			response_notes = :response_notes, processing_log = :processing_log,
			anonymized_at = :anonymized_at, resolved_at = :resolved_at, updated_at = :updated_at
		WHERE id = :id`, in)
	return err
}

func (r *PGRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM contact_inquiries WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

type groupCount struct {
	Key   string `db:"key"`
	Count int    `db:"count"`
}

func (r *PGRepository) countBy(ctx context.Context, column string) (map[string]int, error) {
	var rows []groupCount
	query := fmt.Sprintf(`SELECT %s AS key, count(*) AS count FROM contact_inquiries GROUP BY %s`, column, column)
	if err := r.DB.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Count
	}
	return out, nil
}

func (r *PGRepository) Statistics(ctx context.Context, since time.Time) (*model.InquiryStatistics, error) {
	var totals struct {
		Total      int             `db:"total"`
		Recent     int             `db:"recent"`
		Spam       int             `db:"spam"`
		AvgResolve sql.NullFloat64 `db:"avg_resolution_hours"`
	}
	err := r.DB.GetContext(ctx, &totals, `
		SELECT
			count(*) AS total,
			count(*) FILTER (WHERE created_at >= $1) AS recent,
			count(*) FILTER (WHERE status = $2) AS spam,
			AVG(EXTRACT(EPOCH FROM (resolved_at - created_at)) / 3600.0)
				FILTER (WHERE resolved_at IS NOT NULL) AS avg_resolution_hours
		FROM contact_inquiries`, since, model.InquiryStatusSpam)
	if err != nil {
		return nil, err
	}

	stats := &model.InquiryStatistics{
		Total:      totals.Total,
		Last30Days: totals.Recent,
		SpamCount:  totals.Spam,
	}
	if totals.AvgResolve.Valid {
		hours := totals.AvgResolve.Float64
		stats.AverageResolutionHours = &hours
	}

	if stats.ByStatus, err = r.countBy(ctx, "status"); err != nil {
		return nil, err
	}
	if stats.ByPriority, err = r.countBy(ctx, "priority"); err != nil {
		return nil, err
	}
	if stats.ByType, err = r.countBy(ctx, "inquiry_type"); err != nil {
		return nil, err
	}
	return stats, nil
}
