package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	accountingdomain "github.com/sepelio/nucleo/internal/accounting"
	"github.com/sepelio/nucleo/internal/allocator"
	cashmovementsdomain "github.com/sepelio/nucleo/internal/cashmovements"
	paymentdomain "github.com/sepelio/nucleo/internal/payment/domain"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrInternal       = errors.New("internal_error")
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

// mapError is the spec §7 error-taxonomy dispatch table: every domain
// failure mode this server exposes maps to exactly one HTTP status.
func mapError(err error) (int, errorPayload) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal server error"}

	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{Type: "unauthorized", Message: "unauthorized"}

	case errors.Is(err, ErrForbidden),
		errors.Is(err, paymentdomain.ErrOutOfScope),
		errors.Is(err, cashmovementsdomain.ErrNotAuthorized),
		errors.Is(err, accountingdomain.ErrNotAuthorized):
		return http.StatusForbidden, errorPayload{Type: "forbidden", Message: "forbidden"}

	case errors.Is(err, paymentdomain.ErrMemberNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{Type: "not_found", Message: "not found"}

	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, paymentdomain.ErrInvalidAmount),
		errors.Is(err, cashmovementsdomain.ErrInvalidAccount):
		return http.StatusBadRequest, errorPayload{Type: "invalid_request", Message: err.Error()}

	// Business conflicts (spec §7): arrears/up-to-date/race checks and the
	// allocator's period/overpay/breakdown/leftover failures all surface
	// as 409, never 400 — they report a business rule violation against
	// the member's current debt state, not a malformed request.
	case errors.Is(err, paymentdomain.ErrClientUpToDate),
		errors.Is(err, paymentdomain.ErrArrearsCutoff),
		errors.Is(err, paymentdomain.ErrRaceConditionOverpay),
		errors.Is(err, allocator.ErrPeriodInFuture),
		errors.Is(err, allocator.ErrOverpayPeriod),
		errors.Is(err, allocator.ErrBreakdownExceedsAmount),
		errors.Is(err, allocator.ErrNothingToAllocate),
		errors.Is(err, allocator.ErrLeftoverNotAllowed),
		errors.Is(err, cashmovementsdomain.ErrInsufficientFunds):
		return http.StatusConflict, errorPayload{Type: "conflict", Message: err.Error()}

	default:
		return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal server error"}
	}
}

func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	_, payload := mapError(err)
	return payload.Type, ""
}
