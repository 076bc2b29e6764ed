package dto

import "time"

type InquiryFilters struct {
	Status      string     `form:"status" json:"status" binding:"omitempty,oneof=new in_progress waiting_customer resolved closed spam"`
	Priority    string     `form:"priority" json:"priority" binding:"omitempty,oneof=low normal high urgent"`
	InquiryType string     `form:"inquiry_type" json:"inquiry_type"`
	Search      string     `form:"q" json:"q"`
	From        *time.Time `form:"from" json:"from" time_format:"2006-01-02"`
	To          *time.Time `form:"to" json:"to" time_format:"2006-01-02"`
	SortBy      string     `form:"sort" json:"sort" binding:"omitempty,oneof=created_at updated_at priority status"`
	SortOrder   string     `form:"order" json:"order" binding:"omitempty,oneof=asc desc ASC DESC"`
	Page        int        `form:"-" json:"page"`
	PageSize    int        `form:"-" json:"page_size"`
}
