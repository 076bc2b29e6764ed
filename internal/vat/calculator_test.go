package vat

import (
	"errors"
	"testing"

	"github.com/fekuna/cave-storefront/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateItalyExample(t *testing.T) {
	b, err := Calculate(10000, 1500, "IT")
	require.NoError(t, err)

	assert.Equal(t, int64(2200), b.ProductVAT)
	assert.Equal(t, int64(330), b.ShippingVAT)
	assert.Equal(t, int64(2530), b.VATCents)
	assert.Equal(t, int64(14030), b.TotalCents)
	assert.Equal(t, "0.22", b.Rate)
}

func TestCalculateRoundsEachComponent(t *testing.T) {
	// 1999 * 0.19 = 379.81 -> 380 ; 495 * 0.19 = 94.05 -> 94
	b, err := Calculate(1999, 495, "de")
	require.NoError(t, err)

	assert.Equal(t, "DE", b.Country)
	assert.Equal(t, int64(380), b.ProductVAT)
	assert.Equal(t, int64(94), b.ShippingVAT)
	assert.Equal(t, int64(1999+495+474), b.TotalCents)
}

func TestCalculateHalfCentRoundsUp(t *testing.T) {
	// 2450 * 0.21 = 514.5 -> 515
	b, err := Calculate(2450, 0, "ES")
	require.NoError(t, err)
	assert.Equal(t, int64(515), b.ProductVAT)
}

func TestCalculateFinlandFractionalRate(t *testing.T) {
	// 1000 * 0.255 = 255
	b, err := Calculate(1000, 100, " fi ")
	require.NoError(t, err)
	assert.Equal(t, int64(255), b.ProductVAT)
	assert.Equal(t, int64(26), b.ShippingVAT) // 25.5 -> 26
}

func TestCalculateRejects(t *testing.T) {
	_, err := Calculate(1000, 0, "US")
	assert.True(t, errors.Is(err, apperror.ErrUnsupportedCountry))

	_, err = Calculate(-1, 0, "FR")
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestEveryCountryRoundTripsThroughVerify(t *testing.T) {
	for _, entry := range Rates() {
		t.Run(entry.Country, func(t *testing.T) {
			b, err := Calculate(12345, 990, entry.Country)
			require.NoError(t, err)
			assert.Equal(t, b.SubtotalCents+b.ShippingCents+b.ProductVAT+b.ShippingVAT, b.TotalCents)

			submitted := Totals{
				SubtotalCents: b.SubtotalCents,
				VATCents:      b.VATCents,
				ShippingCents: b.ShippingCents,
				TotalCents:    b.TotalCents,
			}
			assert.NoError(t, Verify(submitted, b))
		})
	}
}

func TestVerifyTolerance(t *testing.T) {
	b, err := Calculate(10000, 1500, "IT")
	require.NoError(t, err)

	tests := []struct {
		name    string
		totals  Totals
		wantErr bool
	}{
		{"exact", Totals{10000, 2530, 1500, 14030}, false},
		{"total off by 10", Totals{10000, 2530, 1500, 14040}, false},
		{"vat off by -10", Totals{10000, 2520, 1500, 14020}, false},
		{"total off by 11", Totals{10000, 2530, 1500, 14041}, true},
		{"subtotal off by 11", Totals{9989, 2530, 1500, 14030}, true},
		{"shipping dropped", Totals{10000, 2200, 0, 12200}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(tt.totals, b)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperror.ErrOrderTotalMismatch))
			assert.Contains(t, apperror.As(err).Details, "deltas")
		})
	}
}

func TestRatesSorted(t *testing.T) {
	rs := Rates()
	require.NotEmpty(t, rs)
	for i := 1; i < len(rs); i++ {
		assert.Less(t, rs[i-1].Country, rs[i].Country)
	}
}

func TestShippingCost(t *testing.T) {
	rules := ShippingRules{HomeCountry: "FR", DomesticCents: 990, EUCents: 1500, FreeThresholdCents: 15000}

	cost, err := rules.Cost(5000, "fr")
	require.NoError(t, err)
	assert.Equal(t, int64(990), cost)

	cost, err = rules.Cost(5000, "IT")
	require.NoError(t, err)
	assert.Equal(t, int64(1500), cost)

	cost, err = rules.Cost(15000, "IT")
	require.NoError(t, err)
	assert.Zero(t, cost)

	_, err = rules.Cost(5000, "CH")
	assert.True(t, errors.Is(err, apperror.ErrUnsupportedCountry))

	rules.FreeThresholdCents = 0
	cost, err = rules.Cost(1_000_000, "FR")
	require.NoError(t, err)
	assert.Equal(t, int64(990), cost)
}
