package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockFlags(t *testing.T) {
	tests := []struct {
		stock, threshold int
		inStock, low     bool
	}{
		{0, 5, false, false},
		{1, 5, true, true},
		{5, 5, true, true},
		{6, 5, true, false},
	}
	for _, tt := range tests {
		p := WineProduct{StockQuantity: tt.stock, LowStockThreshold: tt.threshold}
		assert.Equal(t, tt.inStock, p.InStock(), "stock=%d", tt.stock)
		assert.Equal(t, tt.low, p.LowStock(), "stock=%d", tt.stock)
	}
}

func TestAvailable(t *testing.T) {
	now := time.Now()
	assert.True(t, (&WineProduct{IsActive: true}).Available())
	assert.False(t, (&WineProduct{IsActive: false}).Available())
	assert.False(t, (&WineProduct{IsActive: true, DeletedAt: &now}).Available())
}

func TestLocalizedFieldsFallBackToFrench(t *testing.T) {
	p := WineProduct{NameFR: "Côtes du Rhône", SlugFR: "cotes-du-rhone", SlugEN: "rhone-red"}

	assert.Equal(t, "Côtes du Rhône", p.Name("en"))
	assert.Equal(t, "rhone-red", p.Slug("en"))
	assert.Equal(t, "cotes-du-rhone", p.Slug("fr"))
}

func TestStringListRoundTrip(t *testing.T) {
	v, err := StringList{"organic", "vegan"}.Value()
	require.NoError(t, err)

	var out StringList
	require.NoError(t, out.Scan(v))
	assert.Equal(t, StringList{"organic", "vegan"}, out)

	var empty StringList
	v, err = empty.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)
	require.NoError(t, out.Scan(nil))
}

func TestProcessingLogScanString(t *testing.T) {
	var l ProcessingLog
	require.NoError(t, l.Scan(`[{"at":"2026-01-02T10:00:00Z","actor":"system","action":"created"}]`))
	require.Len(t, l, 1)
	assert.Equal(t, "created", l[0].Action)

	assert.Error(t, l.Scan(42))
}

func TestSyncStatusFor(t *testing.T) {
	assert.Equal(t, SyncStatusSuccess, SyncStatusFor(10, 0))
	assert.Equal(t, SyncStatusSuccess, SyncStatusFor(0, 0))
	assert.Equal(t, SyncStatusPartial, SyncStatusFor(8, 2))
	assert.Equal(t, SyncStatusFailed, SyncStatusFor(0, 3))
}
