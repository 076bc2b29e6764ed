package dto

import "github.com/fekuna/cave-storefront/internal/model"

// CatalogProduct is the storefront view of a product in one locale.
type CatalogProduct struct {
	ID             string               `json:"id"`
	SKU            string               `json:"sku"`
	Name           string               `json:"name"`
	Description    string               `json:"description"`
	TastingNotes   string               `json:"tasting_notes"`
	FoodPairing    string               `json:"food_pairing"`
	Slug           string               `json:"slug"`
	Slugs          map[string]string    `json:"slugs"`
	Vintage        *int                 `json:"vintage"`
	Varietal       string               `json:"varietal"`
	Region         string               `json:"region"`
	Appellation    string               `json:"appellation"`
	WineType       string               `json:"wine_type"`
	VolumeML       int                  `json:"volume_ml"`
	AlcoholPct     *float64             `json:"alcohol_pct"`
	PriceCents     int64                `json:"price_cents"`
	InStock        bool                 `json:"in_stock"`
	LowStock       bool                 `json:"low_stock"`
	Certifications []string             `json:"certifications"`
	ImageURL       string               `json:"image_url"`
	Images         []model.ProductImage `json:"images,omitempty"`
	SEOTitle       string               `json:"seo_title"`
	SEODescription string               `json:"seo_description"`
}

func pick(locale, fr, en string) string {
	if locale == "en" && en != "" {
		return en
	}
	return fr
}

func NewCatalogProduct(p *model.WineProduct, locale string) CatalogProduct {
	certs := []string(p.Certifications)
	if certs == nil {
		certs = []string{}
	}
	return CatalogProduct{
		ID:             p.ID,
		SKU:            p.SKU,
		Name:           p.Name(locale),
		Description:    p.Description(locale),
		TastingNotes:   pick(locale, p.TastingNotesFR, p.TastingNotesEN),
		FoodPairing:    pick(locale, p.FoodPairingFR, p.FoodPairingEN),
		Slug:           p.Slug(locale),
		Slugs:          map[string]string{"fr": p.SlugFR, "en": p.Slug("en")},
		Vintage:        p.Vintage,
		Varietal:       p.Varietal,
		Region:         p.Region,
		Appellation:    p.Appellation,
		WineType:       p.WineType,
		VolumeML:       p.VolumeML,
		AlcoholPct:     p.AlcoholPct,
		PriceCents:     p.PriceCents,
		InStock:        p.InStock(),
		LowStock:       p.LowStock(),
		Certifications: certs,
		ImageURL:       p.ImageURL,
		Images:         p.Images,
		SEOTitle:       pick(locale, p.SEOTitleFR, p.SEOTitleEN),
		SEODescription: pick(locale, p.SEODescriptionFR, p.SEODescriptionEN),
	}
}

func NewCatalogProducts(products []model.WineProduct, locale string) []CatalogProduct {
	out := make([]CatalogProduct, len(products))
	for i := range products {
		out[i] = NewCatalogProduct(&products[i], locale)
	}
	return out
}
