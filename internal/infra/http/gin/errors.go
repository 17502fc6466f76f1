package ginserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"campbook/internal/app/dto"
	availabilityapp "campbook/internal/app/handlers/availability"
	pricingapp "campbook/internal/app/handlers/pricing"
	"campbook/internal/app/middleware"
	"campbook/internal/app/uow"
	domainavailability "campbook/internal/domain/availability"
	domainbooking "campbook/internal/domain/booking"
	domaincampsites "campbook/internal/domain/campsites"
	domainpricing "campbook/internal/domain/pricing"
	"campbook/internal/domain/shared/daterange"
	"campbook/internal/domain/shared/money"
)

const (
	CodeBadRequest = "BAD_REQUEST"
	CodeInternal   = "INTERNAL"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// errorTable is checked top to bottom with errors.Is; the first match wins.
var errorTable = []errorMapping{
	{middleware.ErrValidation, http.StatusUnprocessableEntity, "VALIDATION_FAILED"},
	{daterange.ErrInvalidRange, http.StatusUnprocessableEntity, string(domainavailability.ReasonInvalidRange)},
	{domainavailability.ErrPastDate, http.StatusUnprocessableEntity, string(domainavailability.ReasonPastDate)},
	{domainbooking.ErrInvalidGuests, http.StatusUnprocessableEntity, string(domainavailability.ReasonInvalidGuests)},
	{domainavailability.ErrOverCapacity, http.StatusUnprocessableEntity, string(domainavailability.ReasonOverCapacity)},
	{domainavailability.ErrPetsNotAllowed, http.StatusUnprocessableEntity, string(domainavailability.ReasonPetsNotAllowed)},
	{domainavailability.ErrStayTooShort, http.StatusUnprocessableEntity, string(domainavailability.ReasonStayTooShort)},
	{domainavailability.ErrStayTooLong, http.StatusUnprocessableEntity, string(domainavailability.ReasonStayTooLong)},
	{domainavailability.ErrDateConflict, http.StatusConflict, string(domainavailability.ReasonDateConflict)},
	{domainavailability.ErrOverlappingRange, http.StatusConflict, "BLOCK_OVERLAP"},
	{domainavailability.ErrRangeNotFound, http.StatusNotFound, "BLOCK_NOT_FOUND"},
	{domainavailability.ErrBlockIDRequired, http.StatusUnprocessableEntity, "VALIDATION_FAILED"},
	{domainbooking.ErrAlreadyCanceled, http.StatusConflict, "ALREADY_CANCELED"},
	{domainbooking.ErrInvalidState, http.StatusConflict, "INVALID_STATE"},
	{domainbooking.ErrPaymentHoldRequired, http.StatusConflict, "PAYMENT_HOLD_REQUIRED"},
	{domainbooking.ErrNothingToRefund, http.StatusConflict, "NOTHING_TO_REFUND"},
	{domainbooking.ErrBookingNotFound, http.StatusNotFound, "BOOKING_NOT_FOUND"},
	{domainbooking.ErrUnknownPolicy, http.StatusUnprocessableEntity, "UNKNOWN_POLICY"},
	{domaincampsites.ErrCampsiteNotFound, http.StatusNotFound, "CAMPSITE_NOT_FOUND"},
	{domaincampsites.ErrNotBookable, http.StatusConflict, "CAMPSITE_NOT_BOOKABLE"},
	{domaincampsites.ErrInvalidState, http.StatusConflict, "INVALID_STATE"},
	{pricingapp.ErrCouponNotFound, http.StatusUnprocessableEntity, "COUPON_NOT_FOUND"},
	{domainpricing.ErrInvalidRules, http.StatusUnprocessableEntity, "INVALID_PRICING"},
	{money.ErrCurrencyMismatch, http.StatusUnprocessableEntity, "CURRENCY_MISMATCH"},
	{uow.ErrConcurrentUpdate, http.StatusConflict, "CONCURRENT_UPDATE"},
	{middleware.ErrIdempotencyKeyReused, http.StatusConflict, "IDEMPOTENCY_KEY_REUSED"},
	{middleware.ErrIdempotencyInProgress, http.StatusConflict, "IDEMPOTENCY_IN_PROGRESS"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "TIMEOUT"},
}

type errorBody struct {
	Error     string            `json:"error"`
	Code      string            `json:"code"`
	Conflicts []dto.ConflictDTO `json:"conflicts,omitempty"`
}

// classify resolves the status and code for err. Unknown errors are 500s.
func classify(err error) (int, string) {
	var unavailable *availabilityapp.UnavailableError
	if errors.As(err, &unavailable) {
		if unavailable.Result.Reason == domainavailability.ReasonDateConflict {
			return http.StatusConflict, string(unavailable.Result.Reason)
		}
		return http.StatusUnprocessableEntity, string(unavailable.Result.Reason)
	}
	var replayed *middleware.ReplayedError
	if errors.As(err, &replayed) {
		return http.StatusConflict, "IDEMPOTENT_REPLAY"
	}
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, CodeInternal
}

func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status, code := classify(err)
	body := errorBody{Error: err.Error(), Code: code}
	var unavailable *availabilityapp.UnavailableError
	if errors.As(err, &unavailable) {
		body.Conflicts = dto.MapAvailability(unavailable.CampsiteID, unavailable.Result).Conflicts
	}
	if status >= http.StatusInternalServerError {
		if logger != nil {
			logger.ErrorContext(c.Request.Context(), "request failed", "route", c.FullPath(), "error", err)
		}
		body.Error = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: err.Error(), Code: CodeBadRequest})
}
