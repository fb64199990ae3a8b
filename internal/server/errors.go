package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/orderpulse/internal/eventhandler"
	ingestdomain "github.com/smallbiznis/orderpulse/internal/ingest/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// contractError is the body the ingestion routes answer with on failure.
type contractError struct {
	Success *bool  `json:"success,omitempty"`
	Error   string `json:"error"`
}

var (
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrBodyTooLarge   = errors.New("body_too_large")
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

// respondContractError records err for the request log and writes the
// {error} body the ingestion contract expects.
func respondContractError(c *gin.Context, err error) {
	_ = c.Error(err)

	var invalid ingestdomain.Invalid
	switch {
	case errors.Is(err, ingestdomain.ErrInvalidSignature):
		c.AbortWithStatusJSON(http.StatusUnauthorized, contractError{Error: "Invalid signature"})
	case errors.As(err, &invalid):
		c.AbortWithStatusJSON(http.StatusBadRequest, contractError{Error: invalid.Error()})
	case errors.Is(err, ingestdomain.ErrInvalidPayload), errors.Is(err, ErrInvalidRequest):
		c.AbortWithStatusJSON(http.StatusBadRequest, contractError{Error: "Invalid request body"})
	case errors.Is(err, ErrBodyTooLarge):
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, contractError{Error: "Request body too large"})
	case errors.Is(err, ingestdomain.ErrNotFound):
		failed := false
		c.AbortWithStatusJSON(http.StatusNotFound, contractError{Success: &failed, Error: "Customer not found"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, contractError{Error: "Internal server error"})
	}
}

func mapError(err error) (int, errorPayload) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   "request",
					Code:    validationErrorCode(err),
					Message: err.Error(),
				},
			},
		}
	case errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge, errorPayload{
			Type:    "validation_error",
			Message: "request body too large",
			Errors: []ValidationError{
				{
					Field:   "request",
					Code:    "body_too_large",
					Message: err.Error(),
				},
			},
		}
	case errors.Is(err, ingestdomain.ErrInvalidSignature):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrNotFound), errors.Is(err, ingestdomain.ErrNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog returns (error_type, error_code) for the request log.
func classifyErrorForLog(err error) (string, string) {
	switch {
	case err == nil:
		return "", ""
	case errors.Is(err, ingestdomain.ErrInvalidSignature):
		return "unauthorized", "invalid_signature"
	case isValidationError(err):
		return "validation_error", validationErrorCode(err)
	case errors.Is(err, ErrNotFound), errors.Is(err, ingestdomain.ErrNotFound):
		return "not_found", "not_found"
	case errors.Is(err, ErrBodyTooLarge):
		return "validation_error", "body_too_large"
	default:
		return "internal_error", "internal_error"
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ingestdomain.ErrInvalidPayload),
		errors.Is(err, eventhandler.ErrInvalidEnvelope),
		errors.Is(err, eventhandler.ErrMissingOrderID),
		errors.Is(err, eventhandler.ErrMissingShopDomain):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ingestdomain.ErrInvalidPayload):
		return "invalid_payload"
	case errors.Is(err, eventhandler.ErrInvalidEnvelope):
		return "invalid_envelope"
	case errors.Is(err, eventhandler.ErrMissingOrderID):
		return "missing_order_id"
	case errors.Is(err, eventhandler.ErrMissingShopDomain):
		return "missing_shop_domain"
	default:
		return "invalid_request"
	}
}
