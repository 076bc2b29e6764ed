package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fekuna/cave-storefront/internal/apperror"
	"github.com/fekuna/cave-storefront/internal/inquiry"
	"github.com/fekuna/cave-storefront/internal/inquiry/dto"
	"github.com/fekuna/cave-storefront/internal/model"
	"github.com/fekuna/cave-storefront/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubUseCase struct {
	inquiry.UseCase
	submitted *dto.CreateInquiryInput
}

func (s *stubUseCase) Submit(_ context.Context, in *dto.CreateInquiryInput) (*model.ContactInquiry, error) {
	s.submitted = in
	return &model.ContactInquiry{BaseModel: model.BaseModel{ID: "inq-1"}, Status: model.InquiryStatusNew}, nil
}

func (s *stubUseCase) Anonymize(context.Context, string, string) (*model.ContactInquiry, error) {
	return nil, apperror.ErrAlreadyAnonymized
}

func router(uc inquiry.UseCase, guard ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	api := r.Group("/api")
	NewInquiryHandler(uc, logger.NewNop()).RegisterRoutes(api, api.Group("/admin"), guard...)
	return r
}

func post(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "test-agent")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const validBody = `{"name":"Marie","email":"marie@example.fr","subject":"Visite","message":"Peut-on visiter le chai ?","inquiry_type":"visit","consent":true}`

func TestSubmitCreated(t *testing.T) {
	uc := &stubUseCase{}
	w := post(router(uc), "/api/contact", validBody)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp dto.SubmissionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "inq-1", resp.ID)
	assert.Equal(t, "new", resp.Status)
	assert.Equal(t, "test-agent", uc.submitted.UserAgent)
	assert.Equal(t, "fr", uc.submitted.Locale)
}

func TestSubmitValidation(t *testing.T) {
	tests := map[string]string{
		"no consent":    `{"name":"Marie","email":"marie@example.fr","subject":"Visite","message":"Peut-on visiter le chai ?","consent":false}`,
		"short message": `{"name":"Marie","email":"marie@example.fr","subject":"Visite","message":"Salut","consent":true}`,
		"bad email":     `{"name":"Marie","email":"marie","subject":"Visite","message":"Peut-on visiter le chai ?","consent":true}`,
		"bad type":      `{"name":"Marie","email":"marie@example.fr","subject":"Visite","message":"Peut-on visiter le chai ?","inquiry_type":"job","consent":true}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			uc := &stubUseCase{}
			w := post(router(uc), "/api/contact", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Nil(t, uc.submitted)
		})
	}
}

func TestSubmitGuardRuns(t *testing.T) {
	blocked := func(c *gin.Context) { c.AbortWithStatus(http.StatusTooManyRequests) }
	uc := &stubUseCase{}
	w := post(router(uc, blocked), "/api/contact", validBody)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Nil(t, uc.submitted)
}

func TestAnonymizeConflict(t *testing.T) {
	w := post(router(&stubUseCase{}), "/api/admin/inquiries/abc/anonymize", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already_anonymized")
}
