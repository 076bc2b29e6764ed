package vat

import "github.com/fekuna/cave-storefront/internal/apperror"

// ShippingRules are flat rates: one for the home country, one for the rest
// of the supported countries, optionally free above a subtotal threshold.
type ShippingRules struct {
	HomeCountry        string
	DomesticCents      int64
	EUCents            int64
	FreeThresholdCents int64
}

func (r ShippingRules) Cost(subtotalCents int64, country string) (int64, error) {
	c := NormalizeCountry(country)
	if !Supported(c) {
		return 0, apperror.ErrUnsupportedCountry.WithDetails(map[string]any{"country": country})
	}
	if r.FreeThresholdCents > 0 && subtotalCents >= r.FreeThresholdCents {
		return 0, nil
	}
	if c == NormalizeCountry(r.HomeCountry) {
		return r.DomesticCents, nil
	}
	return r.EUCents, nil
}
