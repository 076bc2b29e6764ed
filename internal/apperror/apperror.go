package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindTooManyRequests
	KindBadGateway
)

func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	case KindBadGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a stable machine code (also the i18n message ID) and an
// optional cause. Details are returned to the client as-is.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	msg := e.Code
	if e.Message != "" {
		msg = e.Code + ": " + e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// WithDetails returns a copy of e with details attached.
func (e *Error) WithDetails(details map[string]any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// Is matches on Kind and Code so sentinel errors work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Validation(code, message string) *Error { return New(KindValidation, code, message) }
func NotFound(code string) *Error            { return New(KindNotFound, code, "") }
func Conflict(code, message string) *Error   { return New(KindConflict, code, message) }

func Internal(err error, message string) *Error {
	return &Error{Kind: KindInternal, Code: "internal_error", Message: message, Err: err}
}

func Upstream(err error, message string) *Error {
	return &Error{Kind: KindBadGateway, Code: "upstream_failed", Message: message, Err: err}
}

// As extracts an *Error from err. Unknown errors become internal errors.
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err, "")
}

func KindOf(err error) Kind {
	return As(err).Kind
}

var (
	ErrUnauthorized         = New(KindUnauthorized, "unauthorized", "")
	ErrForbidden            = New(KindForbidden, "forbidden", "")
	ErrTooManyRequests      = New(KindTooManyRequests, "too_many_requests", "")
	ErrInvalidRequest       = New(KindValidation, "invalid_request", "")
	ErrUnsupportedCountry   = New(KindValidation, "unsupported_country", "")
	ErrQuantityOutOfRange   = New(KindValidation, "quantity_out_of_range", "")
	ErrOrderTotalMismatch   = New(KindValidation, "order_total_mismatch", "")
	ErrCartEmpty            = New(KindValidation, "cart_empty", "")
	ErrInsufficientStock    = New(KindConflict, "insufficient_stock", "")
	ErrProductNotFound      = New(KindNotFound, "product_not_found", "")
	ErrProductUnavailable   = New(KindNotFound, "product_unavailable", "")
	ErrCartItemNotFound     = New(KindNotFound, "cart_item_not_found", "")
	ErrOrderNotFound        = New(KindNotFound, "order_not_found", "")
	ErrInquiryNotFound      = New(KindNotFound, "inquiry_not_found", "")
	ErrImageNotFound        = New(KindNotFound, "image_not_found", "")
	ErrSKUExists            = New(KindConflict, "sku_exists", "")
	ErrSlugExists           = New(KindConflict, "slug_exists", "")
	ErrCartNotOrderable     = New(KindConflict, "cart_not_orderable", "")
	ErrStockLocked          = New(KindConflict, "stock_locked", "")
	ErrAlreadyAnonymized    = New(KindConflict, "already_anonymized", "")
	ErrInvalidStatusChange  = New(KindConflict, "invalid_status_transition", "")
	ErrImageTooLarge        = New(KindValidation, "image_too_large", "")
	ErrImageTypeUnsupported = New(KindValidation, "image_type_unsupported", "")
	ErrIntegrationDisabled  = New(KindBadGateway, "integration_not_configured", "")
)
