// Package vat computes order totals with per-country flat VAT rates.
//
// Product VAT and shipping VAT are rounded to the cent independently before
// being summed; the storefront quote endpoint and order verification share
// this code so both sides agree to the cent.
package vat

import (
	"sort"
	"strings"

	"github.com/fekuna/cave-storefront/internal/apperror"
	"github.com/shopspring/decimal"
)

// Tolerance is the maximum accepted difference, in cents, between a
// submitted amount and the server-computed one.
const Tolerance int64 = 10

var rates = map[string]decimal.Decimal{
	"FR": decimal.RequireFromString("0.20"),
	"DE": decimal.RequireFromString("0.19"),
	"IT": decimal.RequireFromString("0.22"),
	"ES": decimal.RequireFromString("0.21"),
	"BE": decimal.RequireFromString("0.21"),
	"NL": decimal.RequireFromString("0.21"),
	"LU": decimal.RequireFromString("0.17"),
	"AT": decimal.RequireFromString("0.20"),
	"PT": decimal.RequireFromString("0.23"),
	"IE": decimal.RequireFromString("0.23"),
	"DK": decimal.RequireFromString("0.25"),
	"SE": decimal.RequireFromString("0.25"),
	"FI": decimal.RequireFromString("0.255"),
	"PL": decimal.RequireFromString("0.23"),
	"CZ": decimal.RequireFromString("0.21"),
	"GR": decimal.RequireFromString("0.24"),
}

type Breakdown struct {
	Country       string `json:"country"`
	Rate          string `json:"rate"`
	SubtotalCents int64  `json:"subtotal_cents"`
	ShippingCents int64  `json:"shipping_cents"`
	ProductVAT    int64  `json:"product_vat_cents"`
	ShippingVAT   int64  `json:"shipping_vat_cents"`
	VATCents      int64  `json:"vat_cents"`
	TotalCents    int64  `json:"total_cents"`
}

// Totals are the amounts a client submits with an order.
type Totals struct {
	SubtotalCents int64 `json:"subtotal_cents"`
	VATCents      int64 `json:"vat_cents"`
	ShippingCents int64 `json:"shipping_cents"`
	TotalCents    int64 `json:"total_cents"`
}

type RateEntry struct {
	Country string `json:"country"`
	Rate    string `json:"rate"`
}

func NormalizeCountry(country string) string {
	return strings.ToUpper(strings.TrimSpace(country))
}

// Rate returns the flat VAT rate for a country code.
func Rate(country string) (decimal.Decimal, error) {
	r, ok := rates[NormalizeCountry(country)]
	if !ok {
		return decimal.Zero, apperror.ErrUnsupportedCountry.WithDetails(map[string]any{"country": country})
	}
	return r, nil
}

func Supported(country string) bool {
	_, ok := rates[NormalizeCountry(country)]
	return ok
}

// Rates lists the rate table sorted by country code.
func Rates() []RateEntry {
	out := make([]RateEntry, 0, len(rates))
	for c, r := range rates {
		out = append(out, RateEntry{Country: c, Rate: r.String()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Country < out[j].Country })
	return out
}

// RoundVAT applies rate to cents and rounds half away from zero to the cent.
func RoundVAT(cents int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(cents).Mul(rate).Round(0).IntPart()
}

func Calculate(subtotalCents, shippingCents int64, country string) (Breakdown, error) {
	if subtotalCents < 0 || shippingCents < 0 {
		return Breakdown{}, apperror.Validation("invalid_request", "amounts must not be negative")
	}
	rate, err := Rate(country)
	if err != nil {
		return Breakdown{}, err
	}

	productVAT := RoundVAT(subtotalCents, rate)
	shippingVAT := RoundVAT(shippingCents, rate)
	vatTotal := productVAT + shippingVAT

	return Breakdown{
		Country:       NormalizeCountry(country),
		Rate:          rate.String(),
		SubtotalCents: subtotalCents,
		ShippingCents: shippingCents,
		ProductVAT:    productVAT,
		ShippingVAT:   shippingVAT,
		VATCents:      vatTotal,
		TotalCents:    subtotalCents + shippingCents + vatTotal,
	}, nil
}

// Verify accepts submitted totals when every field is within Tolerance of
// the computed breakdown.
func Verify(submitted Totals, computed Breakdown) error {
	deltas := map[string]int64{
		"subtotal_cents": submitted.SubtotalCents - computed.SubtotalCents,
		"vat_cents":      submitted.VATCents - computed.VATCents,
		"shipping_cents": submitted.ShippingCents - computed.ShippingCents,
		"total_cents":    submitted.TotalCents - computed.TotalCents,
	}

	mismatched := map[string]any{}
	for field, d := range deltas {
		if abs(d) > Tolerance {
			mismatched[field] = d
		}
	}
	if len(mismatched) == 0 {
		return nil
	}
	return apperror.ErrOrderTotalMismatch.WithDetails(map[string]any{
		"deltas":   mismatched,
		"expected": computed,
	})
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
