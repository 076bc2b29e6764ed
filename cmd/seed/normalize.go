package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fekuna/cave-storefront/internal/model"
	"github.com/fekuna/cave-storefront/internal/product"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	defaultVolumeML          = 750
	defaultLowStockThreshold = 6
)

// VendorRecord is one wine as scraped from the vendor site.
type VendorRecord struct {
	SKU            string   `json:"sku"`
	Name           string   `json:"name"`
	NameEN         string   `json:"name_en"`
	Vintage        string   `json:"vintage"`
	Price          string   `json:"price"`
	Varietal       string   `json:"varietal"`
	Region         string   `json:"region"`
	Appellation    string   `json:"appellation"`
	Type           string   `json:"type"`
	Volume         string   `json:"volume"`
	Alcohol        string   `json:"alcohol"`
	Stock          int      `json:"stock"`
	DescriptionFR  string   `json:"description_fr"`
	DescriptionEN  string   `json:"description_en"`
	Image          string   `json:"image"`
	Certifications []string `json:"certifications"`
}

// seedProduct holds the normalized values checked before the upsert.
type seedProduct struct {
	SKU        string   `validate:"required,max=64"`
	NameFR     string   `validate:"required,min=2,max=200"`
	NameEN     string   `validate:"required,min=2,max=200"`
	Vintage    *int     `validate:"omitempty,min=1900,max=2100"`
	WineType   string   `validate:"required,oneof=red white rose sparkling sweet"`
	PriceCents int64    `validate:"gt=0"`
	VolumeML   int      `validate:"gt=0,lte=15000"`
	AlcoholPct *float64 `validate:"omitempty,gte=0,lte=25"`
	Stock      int      `validate:"gte=0"`
}

var validate = validator.New()

var currencyStripper = strings.NewReplacer("€", "", "EUR", "", "eur", "", " ", "", "\u00a0", "", "\u202f", "")

// ParsePriceCents accepts "24,50 €", "24.50", "1 250,00 €" or "1.250,00".
func ParsePriceCents(raw string) (int64, error) {
	s := currencyStripper.Replace(strings.TrimSpace(raw))
	if s == "" {
		return 0, errors.New("empty price")
	}
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0 && lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastComma >= 0 && lastDot >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", raw)
	}
	return d.Shift(2).Round(0).IntPart(), nil
}

// ParseVintage maps "NV" and blanks to nil.
func ParseVintage(raw string) (*int, error) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "NV") || strings.EqualFold(s, "sans millésime") {
		return nil, nil
	}
	year, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("invalid vintage %q", raw)
	}
	return &year, nil
}

// ParseVolumeML understands ml, cl and l units with either decimal mark.
func ParseVolumeML(raw string) (int, error) {
	s := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(raw), " ", ""))
	if s == "" {
		return defaultVolumeML, nil
	}
	s = strings.Replace(s, ",", ".", 1)

	factor := decimal.NewFromInt(1)
	switch {
	case strings.HasSuffix(s, "ml"):
		s = strings.TrimSuffix(s, "ml")
	case strings.HasSuffix(s, "cl"):
		s = strings.TrimSuffix(s, "cl")
		factor = decimal.NewFromInt(10)
	case strings.HasSuffix(s, "l"):
		s = strings.TrimSuffix(s, "l")
		factor = decimal.NewFromInt(1000)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid volume %q", raw)
	}
	return int(d.Mul(factor).Round(0).IntPart()), nil
}

func ParseAlcohol(raw string) (*float64, error) {
	s := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(raw)), "vol")
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid alcohol %q", raw)
	}
	return &v, nil
}

var wineTypeLabels = map[string]string{
	"rouge":         model.WineTypeRed,
	"red":           model.WineTypeRed,
	"blanc":         model.WineTypeWhite,
	"white":         model.WineTypeWhite,
	"rosé":          model.WineTypeRose,
	"rose":          model.WineTypeRose,
	"pétillant":     model.WineTypeSparkling,
	"petillant":     model.WineTypeSparkling,
	"effervescent":  model.WineTypeSparkling,
	"crémant":       model.WineTypeSparkling,
	"cremant":       model.WineTypeSparkling,
	"champagne":     model.WineTypeSparkling,
	"sparkling":     model.WineTypeSparkling,
	"moelleux":      model.WineTypeSweet,
	"liquoreux":     model.WineTypeSweet,
	"doux":          model.WineTypeSweet,
	"sweet":         model.WineTypeSweet,
	"vin rouge":     model.WineTypeRed,
	"vin blanc":     model.WineTypeWhite,
	"vin rosé":      model.WineTypeRose,
	"vin pétillant": model.WineTypeSparkling,
}

// MapWineType returns "" for labels it does not know.
func MapWineType(raw string) string {
	return wineTypeLabels[strings.ToLower(strings.TrimSpace(raw))]
}

// NormalizeCertifications lower-cases and dedupes, keeping first-seen order.
func NormalizeCertifications(in []string) model.StringList {
	out := model.StringList{}
	seen := map[string]bool{}
	for _, c := range in {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// ToProduct normalizes and validates one record.
func ToProduct(r VendorRecord, vendorBaseURL string, now time.Time) (*model.WineProduct, error) {
	var errs []error
	price, err := ParsePriceCents(r.Price)
	errs = append(errs, err)
	vintage, err := ParseVintage(r.Vintage)
	errs = append(errs, err)
	volume, err := ParseVolumeML(r.Volume)
	errs = append(errs, err)
	alcohol, err := ParseAlcohol(r.Alcohol)
	errs = append(errs, err)
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	nameFR := strings.TrimSpace(r.Name)
	nameEN := strings.TrimSpace(r.NameEN)
	if nameEN == "" {
		nameEN = nameFR
	}
	sp := seedProduct{
		SKU:        strings.TrimSpace(r.SKU),
		NameFR:     nameFR,
		NameEN:     nameEN,
		Vintage:    vintage,
		WineType:   MapWineType(r.Type),
		PriceCents: price,
		VolumeML:   volume,
		AlcoholPct: alcohol,
		Stock:      r.Stock,
	}
	if err := validate.Struct(sp); err != nil {
		return nil, err
	}

	year := 0
	if vintage != nil {
		year = *vintage
	}
	return &model.WineProduct{
		BaseModel:         model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		SKU:               sp.SKU,
		NameFR:            nameFR,
		NameEN:            nameEN,
		Vintage:           vintage,
		Varietal:          strings.TrimSpace(r.Varietal),
		Region:            strings.TrimSpace(r.Region),
		Appellation:       strings.TrimSpace(r.Appellation),
		WineType:          sp.WineType,
		VolumeML:          volume,
		AlcoholPct:        alcohol,
		PriceCents:        price,
		StockQuantity:     r.Stock,
		LowStockThreshold: defaultLowStockThreshold,
		Certifications:    NormalizeCertifications(r.Certifications),
		DescriptionFR:     strings.TrimSpace(r.DescriptionFR),
		DescriptionEN:     strings.TrimSpace(r.DescriptionEN),
		SlugFR:            product.GenerateSlug(nameFR, year),
		SlugEN:            product.GenerateSlug(nameEN, year),
		ImageURL:          product.NormalizeImageURL(r.Image, vendorBaseURL),
		IsActive:          true,
	}, nil
}
