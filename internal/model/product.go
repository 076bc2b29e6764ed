package model

import "time"

const (
	WineTypeRed       = "red"
	WineTypeWhite     = "white"
	WineTypeRose      = "rose"
	WineTypeSparkling = "sparkling"
	WineTypeSweet     = "sweet"
)

var WineTypes = []string{WineTypeRed, WineTypeWhite, WineTypeRose, WineTypeSparkling, WineTypeSweet}

// WineProduct is a row of wine_products. Money is in euro cents.
type WineProduct struct {
	BaseModel
	SKU               string     `db:"sku" json:"sku"`
	NameFR            string     `db:"name_fr" json:"name_fr"`
	NameEN            string     `db:"name_en" json:"name_en"`
	Vintage           *int       `db:"vintage" json:"vintage"`
	Varietal          string     `db:"varietal" json:"varietal"`
	Region            string     `db:"region" json:"region"`
	Appellation       string     `db:"appellation" json:"appellation"`
	WineType          string     `db:"wine_type" json:"wine_type"`
	VolumeML          int        `db:"volume_ml" json:"volume_ml"`
	AlcoholPct        *float64   `db:"alcohol_pct" json:"alcohol_pct"`
	PriceCents        int64      `db:"price_cents" json:"price_cents"`
	CostCents         *int64     `db:"cost_cents" json:"cost_cents,omitempty"`
	StockQuantity     int        `db:"stock_quantity" json:"stock_quantity"`
	LowStockThreshold int        `db:"low_stock_threshold" json:"low_stock_threshold"`
	Certifications    StringList `db:"certifications" json:"certifications"`
	DescriptionFR     string     `db:"description_fr" json:"description_fr"`
	DescriptionEN     string     `db:"description_en" json:"description_en"`
	TastingNotesFR    string     `db:"tasting_notes_fr" json:"tasting_notes_fr"`
	TastingNotesEN    string     `db:"tasting_notes_en" json:"tasting_notes_en"`
	FoodPairingFR     string     `db:"food_pairing_fr" json:"food_pairing_fr"`
	FoodPairingEN     string     `db:"food_pairing_en" json:"food_pairing_en"`
	SlugFR            string     `db:"slug_fr" json:"slug_fr"`
	SlugEN            string     `db:"slug_en" json:"slug_en"`
	SEOTitleFR        string     `db:"seo_title_fr" json:"seo_title_fr"`
	SEOTitleEN        string     `db:"seo_title_en" json:"seo_title_en"`
	SEODescriptionFR  string     `db:"seo_description_fr" json:"seo_description_fr"`
	SEODescriptionEN  string     `db:"seo_description_en" json:"seo_description_en"`
	ImageURL          string     `db:"image_url" json:"image_url"`
	GTIN              *string    `db:"gtin" json:"gtin"`
	IsActive          bool       `db:"is_active" json:"is_active"`
	DeletedAt         *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`

	Images []ProductImage `db:"-" json:"images,omitempty"`
}

func (p *WineProduct) InStock() bool {
	return p.StockQuantity > 0
}

func (p *WineProduct) LowStock() bool {
	return p.StockQuantity > 0 && p.StockQuantity <= p.LowStockThreshold
}

// Available reports whether the product can be shown and sold.
func (p *WineProduct) Available() bool {
	return p.IsActive && p.DeletedAt == nil
}

// Name returns the localized name, falling back to French.
func (p *WineProduct) Name(locale string) string {
	if locale == "en" && p.NameEN != "" {
		return p.NameEN
	}
	return p.NameFR
}

func (p *WineProduct) Description(locale string) string {
	if locale == "en" && p.DescriptionEN != "" {
		return p.DescriptionEN
	}
	return p.DescriptionFR
}

func (p *WineProduct) Slug(locale string) string {
	if locale == "en" && p.SlugEN != "" {
		return p.SlugEN
	}
	return p.SlugFR
}

type ProductImage struct {
	ID        string    `db:"id" json:"id"`
	ProductID string    `db:"product_id" json:"product_id"`
	URL       string    `db:"url" json:"url"`
	AltText   string    `db:"alt_text" json:"alt_text"`
	Position  int       `db:"position" json:"position"`
	IsPrimary bool      `db:"is_primary" json:"is_primary"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
