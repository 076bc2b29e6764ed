package auth

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

type ProfileRepository struct {
	DB *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{DB: db}
}

func (r *ProfileRepository) GetRole(ctx context.Context, userID string) (string, error) {
	var role sql.NullString
	err := r.DB.GetContext(ctx, &role, `SELECT role FROM profiles WHERE id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return role.String, nil
}
