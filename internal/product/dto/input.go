package dto

import "io"

type CreateProductInput struct {
	SKU               string   `json:"sku" binding:"required,max=64"`
	NameFR            string   `json:"name_fr" binding:"required,max=200"`
	NameEN            string   `json:"name_en" binding:"max=200"`
	Vintage           *int     `json:"vintage" binding:"omitempty,min=1900,max=2100"`
	Varietal          string   `json:"varietal" binding:"max=120"`
	Region            string   `json:"region" binding:"max=120"`
	Appellation       string   `json:"appellation" binding:"max=160"`
	WineType          string   `json:"wine_type" binding:"required,oneof=red white rose sparkling sweet"`
	VolumeML          int      `json:"volume_ml" binding:"omitempty,min=1,max=30000"`
	AlcoholPct        *float64 `json:"alcohol_pct" binding:"omitempty,min=0,max=25"`
	PriceCents        int64    `json:"price_cents" binding:"required,min=1"`
	CostCents         *int64   `json:"cost_cents" binding:"omitempty,min=0"`
	StockQuantity     int      `json:"stock_quantity" binding:"min=0"`
	LowStockThreshold *int     `json:"low_stock_threshold" binding:"omitempty,min=0"`
	Certifications    []string `json:"certifications" binding:"omitempty,dive,oneof=organic biodynamic hve vegan"`
	DescriptionFR     string   `json:"description_fr"`
	DescriptionEN     string   `json:"description_en"`
	TastingNotesFR    string   `json:"tasting_notes_fr"`
	TastingNotesEN    string   `json:"tasting_notes_en"`
	FoodPairingFR     string   `json:"food_pairing_fr"`
	FoodPairingEN     string   `json:"food_pairing_en"`
	SlugFR            string   `json:"slug_fr" binding:"max=200"`
	SlugEN            string   `json:"slug_en" binding:"max=200"`
	SEOTitleFR        string   `json:"seo_title_fr" binding:"max=200"`
	SEOTitleEN        string   `json:"seo_title_en" binding:"max=200"`
	SEODescriptionFR  string   `json:"seo_description_fr" binding:"max=320"`
	SEODescriptionEN  string   `json:"seo_description_en" binding:"max=320"`
	ImageURL          string   `json:"image_url"`
	GTIN              *string  `json:"gtin" binding:"omitempty,numeric,min=8,max=14"`
	IsActive          *bool    `json:"is_active"`
}

// UpdateProductInput is a partial update: nil fields are left untouched.
type UpdateProductInput struct {
	ID                string   `json:"-"`
	SKU               *string  `json:"sku" binding:"omitempty,min=1,max=64"`
	NameFR            *string  `json:"name_fr" binding:"omitempty,min=1,max=200"`
	NameEN            *string  `json:"name_en" binding:"omitempty,max=200"`
	Vintage           *int     `json:"vintage" binding:"omitempty,min=0,max=2100"`
	Varietal          *string  `json:"varietal" binding:"omitempty,max=120"`
	Region            *string  `json:"region" binding:"omitempty,max=120"`
	Appellation       *string  `json:"appellation" binding:"omitempty,max=160"`
	WineType          *string  `json:"wine_type" binding:"omitempty,oneof=red white rose sparkling sweet"`
	VolumeML          *int     `json:"volume_ml" binding:"omitempty,min=1,max=30000"`
	AlcoholPct        *float64 `json:"alcohol_pct" binding:"omitempty,min=0,max=25"`
	PriceCents        *int64   `json:"price_cents" binding:"omitempty,min=1"`
	CostCents         *int64   `json:"cost_cents" binding:"omitempty,min=0"`
	LowStockThreshold *int     `json:"low_stock_threshold" binding:"omitempty,min=0"`
	Certifications    []string `json:"certifications" binding:"omitempty,dive,oneof=organic biodynamic hve vegan"`
	DescriptionFR     *string  `json:"description_fr"`
	DescriptionEN     *string  `json:"description_en"`
	TastingNotesFR    *string  `json:"tasting_notes_fr"`
	TastingNotesEN    *string  `json:"tasting_notes_en"`
	FoodPairingFR     *string  `json:"food_pairing_fr"`
	FoodPairingEN     *string  `json:"food_pairing_en"`
	SlugFR            *string  `json:"slug_fr" binding:"omitempty,max=200"`
	SlugEN            *string  `json:"slug_en" binding:"omitempty,max=200"`
	SEOTitleFR        *string  `json:"seo_title_fr" binding:"omitempty,max=200"`
	SEOTitleEN        *string  `json:"seo_title_en" binding:"omitempty,max=200"`
	SEODescriptionFR  *string  `json:"seo_description_fr" binding:"omitempty,max=320"`
	SEODescriptionEN  *string  `json:"seo_description_en" binding:"omitempty,max=320"`
	ImageURL          *string  `json:"image_url"`
	GTIN              *string  `json:"gtin" binding:"omitempty,numeric,min=8,max=14"`
	IsActive          *bool    `json:"is_active"`
}

const MaxBulkIDs = 200

// BulkUpdateInput applies exactly one change to every listed product.
type BulkUpdateInput struct {
	IDs           []string `json:"ids" binding:"required,min=1,max=200,dive,uuid"`
	IsActive      *bool    `json:"is_active"`
	PriceCents    *int64   `json:"price_cents" binding:"omitempty,min=1"`
	StockDelta    *int     `json:"stock_delta"`
	StockQuantity *int     `json:"stock_quantity" binding:"omitempty,min=0"`
	ActorID       string   `json:"-"`
}

type BulkDeleteInput struct {
	IDs []string `json:"ids" binding:"required,min=1,max=200,dive,uuid"`
}

type BulkResult struct {
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

const MaxImageBytes = 5 << 20

type AddImageInput struct {
	ProductID string
	Filename  string
	Size      int64
	Body      io.Reader
	AltText   string
	IsPrimary bool
}
