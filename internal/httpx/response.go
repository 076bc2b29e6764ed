// Package httpx holds the JSON response and request binding conventions
// shared by every gin handler.
package httpx

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/fekuna/cave-storefront/internal/apperror"
	"github.com/fekuna/cave-storefront/pkg/i18n"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	localeKey     = "httpx.locale"
	translatorKey = "httpx.translator"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
	}
}

func jsonFieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

type ErrorBody struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// SetLocale is called by the locale middleware.
func SetLocale(c *gin.Context, locale string, tr *i18n.Translator) {
	c.Set(localeKey, locale)
	c.Set(translatorKey, tr)
}

func Locale(c *gin.Context) string {
	if v, ok := c.Get(localeKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return i18n.DefaultLocale
}

func translator(c *gin.Context) *i18n.Translator {
	if v, ok := c.Get(translatorKey); ok {
		if tr, ok := v.(*i18n.Translator); ok {
			return tr
		}
	}
	return nil
}

func OK(c *gin.Context, body any) {
	c.JSON(http.StatusOK, body)
}

func Created(c *gin.Context, body any) {
	c.JSON(http.StatusCreated, body)
}

// Error writes err as {error, message, details} and records it on the gin
// context so the request logger can report server-side failures.
func Error(c *gin.Context, err error) {
	appErr := apperror.As(err)
	status := appErr.Kind.HTTPStatus()
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}

	message := appErr.Message
	if tr := translator(c); tr != nil {
		if msg := tr.T(Locale(c), appErr.Code, nil); msg != appErr.Code {
			message = msg
		}
	}
	if message == "" {
		message = appErr.Code
	}

	body := ErrorBody{Error: appErr.Code, Message: message, Details: appErr.Details}
	if status >= http.StatusInternalServerError && appErr.Kind != apperror.KindBadGateway {
		body.Details = nil
	}
	c.AbortWithStatusJSON(status, body)
}

// BindJSON decodes and validates the body, mapping failures to a 400 app error.
func BindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return bindError(err)
	}
	return nil
}

func BindQuery(c *gin.Context, dst any) error {
	if err := c.ShouldBindQuery(dst); err != nil {
		return bindError(err)
	}
	return nil
}

func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperror.Validation("validation_failed", "").WithDetails(map[string]any{
			"fields": FieldErrors(verrs),
		})
	}
	return apperror.Validation("invalid_request", err.Error())
}

// FieldErrors flattens validator errors into field -> rule.
func FieldErrors(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		out[fe.Field()] = rule
	}
	return out
}

// Page reads page/page_size query params with bounds.
func Page(c *gin.Context, defaultSize, maxSize int) (page, size int) {
	page, _ = strconv.Atoi(c.Query("page"))
	if page < 1 {
		page = 1
	}
	size, _ = strconv.Atoi(c.Query("page_size"))
	if size < 1 {
		size = defaultSize
	}
	if size > maxSize {
		size = maxSize
	}
	return page, size
}

type ListResponse[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

func List[T any](c *gin.Context, items []T, total, page, size int) {
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, ListResponse[T]{Items: items, Total: total, Page: page, PageSize: size})
}
