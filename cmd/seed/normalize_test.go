package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fekuna/cave-storefront/internal/model"
	"github.com/fekuna/cave-storefront/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriceCents(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"24,50 €", 2450},
		{"24.50", 2450},
		{"€ 9,9", 990},
		{"1 250,00 €", 125000},
		{"1.250,00", 125000},
		{"1,250.00", 125000},
		{"12 EUR", 1200},
		{"18,999", 1900},
	}
	for _, tt := range tests {
		got, err := ParsePriceCents(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "€", "sur demande"} {
		_, err := ParsePriceCents(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseVintage(t *testing.T) {
	v, err := ParseVintage("2019")
	require.NoError(t, err)
	assert.Equal(t, 2019, *v)

	for _, nv := range []string{"", "NV", "nv", " "} {
		v, err := ParseVintage(nv)
		require.NoError(t, err)
		assert.Nil(t, v, nv)
	}

	_, err = ParseVintage("vieux")
	assert.Error(t, err)
}

func TestParseVolumeML(t *testing.T) {
	tests := map[string]int{
		"75cl":    750,
		"37,5 cl": 375,
		"1.5L":    1500,
		"150 cl":  1500,
		"500ml":   500,
		"":        750,
	}
	for in, want := range tests {
		got, err := ParseVolumeML(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseAlcohol(t *testing.T) {
	for in, want := range map[string]float64{"13,5%": 13.5, "12.5 % vol": 12.5, "14": 14} {
		got, err := ParseAlcohol(in)
		require.NoError(t, err, in)
		assert.InDelta(t, want, *got, 0.0001, in)
	}
	got, err := ParseAlcohol("")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMapWineType(t *testing.T) {
	assert.Equal(t, model.WineTypeRed, MapWineType("Rouge"))
	assert.Equal(t, model.WineTypeRose, MapWineType("rosé"))
	assert.Equal(t, model.WineTypeSparkling, MapWineType("Pétillant"))
	assert.Equal(t, model.WineTypeSweet, MapWineType("moelleux"))
	assert.Equal(t, "", MapWineType("bière"))
}

func TestNormalizeCertifications(t *testing.T) {
	got := NormalizeCertifications([]string{" Bio ", "HVE", "bio", "", "Demeter"})
	assert.Equal(t, model.StringList{"bio", "hve", "demeter"}, got)
}

func record() VendorRecord {
	return VendorRecord{
		SKU:            "CHB-2019",
		Name:           "Chablis Premier Cru",
		Vintage:        "2019",
		Price:          "24,50 €",
		Type:           "blanc",
		Volume:         "75cl",
		Alcohol:        "12,5%",
		Stock:          18,
		Image:          "/img/chablis.jpg?w=300",
		Certifications: []string{"Bio", "bio"},
	}
}

func TestToProduct(t *testing.T) {
	p, err := ToProduct(record(), "https://vendor.example", time.Now())
	require.NoError(t, err)

	assert.Equal(t, "CHB-2019", p.SKU)
	assert.Equal(t, "Chablis Premier Cru", p.NameEN)
	assert.Equal(t, int64(2450), p.PriceCents)
	assert.Equal(t, 2019, *p.Vintage)
	assert.Equal(t, model.WineTypeWhite, p.WineType)
	assert.Equal(t, 750, p.VolumeML)
	assert.Equal(t, "chablis-premier-cru-2019", p.SlugFR)
	assert.Equal(t, p.SlugFR, p.SlugEN)
	assert.Equal(t, "https://vendor.example/img/chablis.jpg", p.ImageURL)
	assert.Equal(t, model.StringList{"bio"}, p.Certifications)
	assert.True(t, p.IsActive)
}

func TestToProductRejects(t *testing.T) {
	unknownType := record()
	unknownType.Type = "cidre"
	noSKU := record()
	noSKU.SKU = ""
	badPrice := record()
	badPrice.Price = "gratuit"

	for name, r := range map[string]VendorRecord{"type": unknownType, "sku": noSKU, "price": badPrice} {
		_, err := ToProduct(r, "", time.Now())
		assert.Error(t, err, name)
	}
}

type fakeUpserter struct {
	existing map[string]bool
	fail     string
}

func (f *fakeUpserter) UpsertBySKU(_ context.Context, p *model.WineProduct) (bool, error) {
	if p.SKU == f.fail {
		return false, errors.New("connection reset")
	}
	inserted := !f.existing[p.SKU]
	f.existing[p.SKU] = true
	return inserted, nil
}

func TestSeed(t *testing.T) {
	second := record()
	second.SKU = "SAN-NV"
	second.Vintage = "NV"
	invalid := record()
	invalid.SKU = "BAD"
	invalid.Type = "cidre"

	repo := &fakeUpserter{existing: map[string]bool{"CHB-2019": true}}
	rep, err := seed(context.Background(), []VendorRecord{record(), second, invalid}, repo, "", logger.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 3, rep.Read)
	assert.Equal(t, 1, rep.Inserted)
	assert.Equal(t, 1, rep.Updated)
	assert.Contains(t, rep.Skipped, "BAD")

	var out bytes.Buffer
	printReport(&out, rep, false)
	assert.True(t, strings.HasPrefix(out.String(), "3 read, 1 inserted, 1 updated, 1 skipped\n"))
}

func TestSeedDryRunAndAbort(t *testing.T) {
	rep, err := seed(context.Background(), []VendorRecord{record()}, nil, "", logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Inserted)

	_, err = seed(context.Background(), []VendorRecord{record()}, &fakeUpserter{existing: map[string]bool{}, fail: "CHB-2019"}, "", logger.NewNop())
	assert.ErrorContains(t, err, "upsert CHB-2019")
}

func TestReadRecords(t *testing.T) {
	recs, err := readRecords(strings.NewReader(`[{"sku":"A","name":"Vin","price":"10 €","stock":3}]`))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 3, recs[0].Stock)
}
