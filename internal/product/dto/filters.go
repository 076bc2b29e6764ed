package dto

type ProductFilters struct {
	WineType      string `form:"wine_type" json:"wine_type,omitempty" binding:"omitempty,oneof=red white rose sparkling sweet"`
	Varietal      string `form:"varietal" json:"varietal,omitempty"`
	Region        string `form:"region" json:"region,omitempty"`
	Certification string `form:"certification" json:"certification,omitempty" binding:"omitempty,oneof=organic biodynamic hve vegan"`
	Vintage       int    `form:"vintage" json:"vintage,omitempty" binding:"omitempty,min=1900,max=2100"`
	MinPrice      int64  `form:"min_price" json:"min_price,omitempty" binding:"omitempty,min=0"`
	MaxPrice      int64  `form:"max_price" json:"max_price,omitempty" binding:"omitempty,min=0"`
	InStock       bool   `form:"in_stock" json:"in_stock,omitempty"`
	SearchQuery   string `form:"q" json:"q,omitempty" binding:"max=200"`
	SortBy        string `form:"sort" json:"sort,omitempty" binding:"omitempty,oneof=name price vintage created_at"`
	SortOrder     string `form:"order" json:"order,omitempty" binding:"omitempty,oneof=asc desc"`
	Page          int    `form:"-" json:"page"`
	PageSize      int    `form:"-" json:"page_size"`

	// Admin listing only.
	IncludeInactive bool `form:"-" json:"include_inactive,omitempty"`
	IncludeDeleted  bool `form:"include_deleted" json:"include_deleted,omitempty"`
}
