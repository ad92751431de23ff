package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"

	"delivery/internal/lifecycle"
	"delivery/internal/pricing"
	"delivery/internal/repository"
	"delivery/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// Machine-readable error codes.
const (
	CodeValidation            = "validation_error"
	CodeMissingStatus         = "missing_status"
	CodeInvalidStatus         = "invalid_status"
	CodeFailureReasonRequired = "failure_reason_required"
	CodeUnknownFailureReason  = "unknown_failure_reason"
	CodeTotalsMismatch        = "totals_mismatch"
	CodeNotFound              = "not_found"
	CodeConflict              = "conflict"
	CodeTerminalStatus        = "terminal_status"
	CodeIllegalTransition     = "illegal_transition"
	CodeStaleOrder            = "stale_order"
	CodeStockInsufficient     = "stock_insufficient"
	CodeAlreadyPaid           = "already_paid"
	CodeNotPaid               = "not_paid"
	CodePaymentInProgress     = "payment_in_progress"
	CodeInternal              = "internal_error"
)

// respondError sends an error response with the appropriate HTTP status code.
// Server errors never echo the underlying error text.
func respondError(c *gin.Context, err error) {
	status, code := mapError(err)
	_ = c.Error(err)

	if status >= http.StatusInternalServerError {
		if txn := nrgin.Transaction(c); txn != nil {
			txn.NoticeError(err)
		}
		c.JSON(status, ErrorResponse{
			Error:   "internal server error",
			Code:    code,
			Details: "failed to handle " + c.Request.Method + " " + c.FullPath(),
		})
		return
	}

	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

// respondBadRequest sends a 400 validation error with a fixed message.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: CodeValidation})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapError maps service/repository errors to HTTP status codes and error codes.
func mapError(err error) (int, string) {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, CodeNotFound

	// Validation errors - Bad Request
	case errors.Is(err, lifecycle.ErrMissingStatus):
		return http.StatusBadRequest, CodeMissingStatus
	case errors.Is(err, lifecycle.ErrInvalidStatus):
		return http.StatusBadRequest, CodeInvalidStatus
	case errors.Is(err, lifecycle.ErrFailureReasonRequired):
		return http.StatusBadRequest, CodeFailureReasonRequired
	case errors.Is(err, lifecycle.ErrUnknownFailureReason):
		return http.StatusBadRequest, CodeUnknownFailureReason
	case errors.Is(err, service.ErrTotalsMismatch):
		return http.StatusBadRequest, CodeTotalsMismatch
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, pricing.ErrEmptyCart):
		return http.StatusBadRequest, CodeValidation

	// Conflict errors
	case errors.Is(err, lifecycle.ErrTerminalStatus):
		return http.StatusConflict, CodeTerminalStatus
	case errors.Is(err, lifecycle.ErrIllegalTransition):
		return http.StatusConflict, CodeIllegalTransition
	case errors.Is(err, repository.ErrStaleOrder):
		return http.StatusConflict, CodeStaleOrder
	case errors.Is(err, repository.ErrStockInsufficient):
		return http.StatusConflict, CodeStockInsufficient
	case errors.Is(err, service.ErrOrderAlreadyPaid):
		return http.StatusConflict, CodeAlreadyPaid
	case errors.Is(err, service.ErrOrderNotPaid):
		return http.StatusConflict, CodeNotPaid
	case errors.Is(err, service.ErrPaymentInProgress):
		return http.StatusConflict, CodePaymentInProgress
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, CodeConflict

	// Default to internal server error
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}
