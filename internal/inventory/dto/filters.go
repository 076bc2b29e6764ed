package dto

import "time"

type MovementFilters struct {
	ProductID    string     `form:"product_id" binding:"omitempty,uuid"`
	MovementType string     `form:"movement_type" binding:"omitempty,oneof=adjustment sale return restock bulk_update"`
	From         *time.Time `form:"from" time_format:"2006-01-02"`
	To           *time.Time `form:"to" time_format:"2006-01-02"`
	Page         int        `form:"-"`
	PageSize     int        `form:"-"`
}
