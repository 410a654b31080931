package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	invoicedomain "github.com/smallbiznis/invoicekit/internal/invoice/domain"
	productdomain "github.com/smallbiznis/invoicekit/internal/product/domain"
	"github.com/smallbiznis/invoicekit/internal/providers/email"
	settingsdomain "github.com/smallbiznis/invoicekit/internal/settings/domain"
	subscriptiondomain "github.com/smallbiznis/invoicekit/internal/subscription/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	var fieldErr *invoicedomain.ValidationError
	if errors.As(err, &fieldErr) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{{
				Field:   fieldErr.Field,
				Code:    "invalid_" + fieldErr.Field,
				Message: fieldErr.Message,
			}},
		}
	}

	if code, ok := validationCode(err); ok {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{{
				Code:    code,
				Message: "invalid value",
			}},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, invoicedomain.ErrQuotaExceeded):
		return http.StatusPaymentRequired, errorPayload{
			Type:    "quota_exceeded",
			Message: err.Error(),
		}
	case errors.Is(err, invoicedomain.ErrActionInFlight):
		return http.StatusConflict, errorPayload{
			Type:    "action_in_flight",
			Message: "the same action is already running",
		}
	case errors.Is(err, invoicedomain.ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, settingsdomain.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "logo storage is not configured",
		}
	case errors.Is(err, invoicedomain.ErrExternalService):
		return http.StatusBadGateway, errorPayload{
			Type:    "external_service_failure",
			Message: "an upstream service failed, please try again",
		}
	case errors.Is(err, invoicedomain.ErrExportFailed):
		return http.StatusInternalServerError, errorPayload{
			Type:    "export_failed",
			Message: "the document could not be exported",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

var validationErrors = []error{
	ErrInvalidRequest,
	invoicedomain.ErrInvalidKind,
	invoicedomain.ErrInvalidInvoiceID,
	invoicedomain.ErrItemOutOfRange,
	invoicedomain.ErrUnknownItemField,
	productdomain.ErrInvalidUser,
	productdomain.ErrInvalidName,
	productdomain.ErrInvalidPrice,
	productdomain.ErrInvalidID,
	settingsdomain.ErrInvalidUser,
	settingsdomain.ErrInvalidColor,
	settingsdomain.ErrUnsupportedImage,
	settingsdomain.ErrImageTooLarge,
	subscriptiondomain.ErrInvalidUser,
	subscriptiondomain.ErrInvalidPlan,
	email.ErrNoMailbox,
}

func validationCode(err error) (string, bool) {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return target.Error(), true
		}
	}
	return "", false
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, invoicedomain.ErrTemplateNotFound),
		errors.Is(err, invoicedomain.ErrInvoiceNotFound),
		errors.Is(err, productdomain.ErrNotFound):
		return true
	default:
		return false
	}
}

// classifyErrorForLog reports the payload type and HTTP status for request logs.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	return payload.Type, http.StatusText(status)
}
