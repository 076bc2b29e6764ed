package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fekuna/cave-storefront/internal/vat"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func router() *gin.Engine {
	r := gin.New()
	NewVATHandler(vat.ShippingRules{HomeCountry: "FR", DomesticCents: 990, EUCents: 1500}).RegisterRoutes(r.Group("/api"))
	return r
}

func post(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/vat/quote", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestQuoteWithExplicitShipping(t *testing.T) {
	w := post(router(), `{"subtotal_cents":10000,"shipping_cents":1500,"country":"IT"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var b vat.Breakdown
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	assert.Equal(t, int64(2200), b.ProductVAT)
	assert.Equal(t, int64(330), b.ShippingVAT)
	assert.Equal(t, int64(14030), b.TotalCents)
}

func TestQuoteUsesShippingRules(t *testing.T) {
	w := post(router(), `{"subtotal_cents":1000,"country":"fr"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var b vat.Breakdown
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	assert.Equal(t, int64(990), b.ShippingCents)
	assert.Equal(t, int64(198), b.ShippingVAT)
}

func TestQuoteRejects(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, post(router(), `{"subtotal_cents":1000,"country":"US"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(router(), `{"subtotal_cents":-5,"country":"FR"}`).Code)
}

func TestRates(t *testing.T) {
	w := httptest.NewRecorder()
	router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/vat/rates", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `{"country":"FI","rate":"0.255"}`)
}
