package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fekuna/cave-storefront/internal/apperror"
	"github.com/fekuna/cave-storefront/internal/feed"
	"github.com/fekuna/cave-storefront/internal/model"
	"github.com/fekuna/cave-storefront/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUseCase struct {
	feed.UseCase
	deletedSKUs []string
	feedLocale  string
	syncErr     error
}

func (s *stubUseCase) SyncMeta(context.Context) (*model.SyncLog, error) {
	if s.syncErr != nil {
		return &model.SyncLog{ID: "log-9"}, s.syncErr
	}
	return &model.SyncLog{ID: "log-1", Status: model.SyncStatusSuccess}, nil
}

func (s *stubUseCase) DeleteMeta(_ context.Context, skus []string) (*model.SyncLog, error) {
	s.deletedSKUs = skus
	return &model.SyncLog{ID: "log-2"}, nil
}

func (s *stubUseCase) GoogleFeed(_ context.Context, locale string) ([]byte, error) {
	s.feedLocale = locale
	return []byte("<rss></rss>"), nil
}

func router(uc feed.UseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api")
	NewFeedHandler(uc, logger.NewNop()).RegisterRoutes(api, api.Group(""))
	return r
}

func TestGoogleFeedIsXML(t *testing.T) {
	uc := &stubUseCase{}
	w := httptest.NewRecorder()
	router(uc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/google-shopping/sync?locale=en", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/rss+xml; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "<rss></rss>", w.Body.String())
	assert.Equal(t, "en", uc.feedLocale)
}

func TestGoogleFeedLeavesDefaultLocaleToUseCase(t *testing.T) {
	uc := &stubUseCase{feedLocale: "unset"}
	req := httptest.NewRequest(http.MethodGet, "/api/google-shopping/sync", nil)
	req.Header.Set("Accept-Language", "en-GB")
	w := httptest.NewRecorder()
	router(uc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", uc.feedLocale)
}

func TestSyncMetaUpstreamFailure(t *testing.T) {
	uc := &stubUseCase{syncErr: apperror.Upstream(errors.New("timeout"), "meta sync failed").
		WithDetails(map[string]any{"sync_log_id": "log-9"})}
	w := httptest.NewRecorder()
	router(uc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/meta/sync", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	var body struct {
		Error   string         `json:"error"`
		Details map[string]any `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "upstream_failed", body.Error)
	assert.Equal(t, "log-9", body.Details["sync_log_id"])
}

func TestDeleteMetaParsesSKUs(t *testing.T) {
	uc := &stubUseCase{}
	w := httptest.NewRecorder()
	router(uc).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/meta/sync?skus=A,%20B&skus=C", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"A", "B", "C"}, uc.deletedSKUs)
}
