package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type BaseModel struct {
	ID        string    `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// StringList is a []string stored as a JSONB array.
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return jsonValue([]string(s))
}

func (s *StringList) Scan(src any) error {
	return scanJSON(src, s)
}

// JSONMap is a free-form JSONB object.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return jsonValue(map[string]any(m))
}

func (m *JSONMap) Scan(src any) error {
	return scanJSON(src, m)
}

func jsonValue(v any) (driver.Value, error) {
	return json.Marshal(v)
}

func scanJSON(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported JSON column type %T", src)
	}
}
