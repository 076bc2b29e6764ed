// Package feed turns catalog products into the item shape shared by the
// Meta catalog, Google Merchant Center and the public XML feed.
package feed

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/fekuna/cave-storefront/internal/model"
	"github.com/fekuna/cave-storefront/internal/product"
	"github.com/fekuna/cave-storefront/pkg/i18n"
	"github.com/shopspring/decimal"
)

const (
	AvailabilityInStock    = "in stock"
	AvailabilityOutOfStock = "out of stock"
	ConditionNew           = "new"

	// GoogleCategoryWine is "Food, Beverages & Tobacco > Beverages > Alcoholic Beverages > Wine".
	GoogleCategoryWine = "421"

	maxDescriptionRunes = 5000
)

type Item struct {
	ID           string
	Title        string
	Description  string
	Link         string
	ImageLink    string
	Price        string
	PriceCents   int64
	Availability string
	Condition    string
	Brand        string
	GTIN         string
	ProductType  string
}

type Builder struct {
	PublicBaseURL string
	ShopName      string
	// ImageBaseURL resolves relative image paths.
	ImageBaseURL string
}

// FormatPrice renders cents as "12.50 EUR".
func FormatPrice(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2) + " EUR"
}

// Title appends the vintage to the localized name unless it already shows it.
func Title(p *model.WineProduct, locale string) string {
	name := strings.TrimSpace(p.Name(locale))
	if p.Vintage == nil {
		return name
	}
	year := strconv.Itoa(*p.Vintage)
	if strings.Contains(name, year) {
		return name
	}
	return name + " " + year
}

func (b *Builder) Link(p *model.WineProduct, locale string) string {
	return strings.TrimRight(b.PublicBaseURL, "/") + "/" + locale + "/vins/" + p.Slug(locale)
}

func (b *Builder) Build(p *model.WineProduct, locale string) Item {
	if locale = i18n.Normalize(locale); locale == "" {
		locale = i18n.DefaultLocale
	}
	title := Title(p, locale)

	description := strings.TrimSpace(p.Description(locale))
	if description == "" {
		description = title
	}
	if utf8.RuneCountInString(description) > maxDescriptionRunes {
		description = string([]rune(description)[:maxDescriptionRunes])
	}

	item := Item{
		ID:           p.SKU,
		Title:        title,
		Description:  description,
		Link:         b.Link(p, locale),
		ImageLink:    product.NormalizeImageURL(p.ImageURL, b.ImageBaseURL),
		Price:        FormatPrice(p.PriceCents),
		PriceCents:   p.PriceCents,
		Availability: AvailabilityOutOfStock,
		Condition:    ConditionNew,
		Brand:        b.ShopName,
		ProductType:  productType(p),
	}
	if p.InStock() {
		item.Availability = AvailabilityInStock
	}
	if p.GTIN != nil {
		item.GTIN = *p.GTIN
	}
	return item
}

// BuildAll skips inactive and deleted products.
func (b *Builder) BuildAll(products []model.WineProduct, locale string) []Item {
	items := make([]Item, 0, len(products))
	for i := range products {
		if !products[i].Available() {
			continue
		}
		items = append(items, b.Build(&products[i], locale))
	}
	return items
}

func productType(p *model.WineProduct) string {
	parts := []string{"Wine"}
	for _, s := range []string{p.WineType, p.Region, p.Appellation} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " > ")
}
