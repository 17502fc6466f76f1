package ginserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"campbook/internal/app/commands"
	"campbook/internal/app/dto"
	bookingapp "campbook/internal/app/handlers/booking"
	"campbook/internal/app/queries"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createBookingRequest struct {
	stayRequest
	CampsiteID string `json:"campsite_id" binding:"required"`
	GuestID    string `json:"guest_id" binding:"required"`
	Adults     int    `json:"adults"`
	Children   int    `json:"children"`
	Pets       int    `json:"pets"`
	CouponCode string `json:"coupon_code"`
}

func (h BookingHandler) Create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	checkIn, checkOut, err := req.dates()
	if err != nil {
		badRequest(c, err)
		return
	}
	cmd := bookingapp.RequestBookingCommand{
		CampsiteID:      req.CampsiteID,
		GuestID:         req.GuestID,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Adults:          req.Adults,
		Children:        req.Children,
		Pets:            req.Pets,
		CouponCode:      req.CouponCode,
		IdempotencyKeyV: c.GetHeader(IdempotencyKeyHeader),
	}
	result, err := commands.Dispatch[bookingapp.RequestBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	query := bookingapp.GetBookingQuery{BookingID: c.Param("id")}
	result, err := queries.Ask[bookingapp.GetBookingQuery, dto.Booking](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) RefundPreview(c *gin.Context) {
	at, err := parseTimestamp("at", c.Query("at"))
	if err != nil {
		badRequest(c, err)
		return
	}
	query := bookingapp.RefundPreviewQuery{BookingID: c.Param("id"), At: at}
	result, err := queries.Ask[bookingapp.RefundPreviewQuery, dto.RefundDTO](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type cancelRequest struct {
	By     string `json:"by"`
	Reason string `json:"reason"`
}

func (h BookingHandler) Cancel(c *gin.Context) {
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}
	cmd := bookingapp.CancelBookingCommand{BookingID: c.Param("id"), By: req.By, Reason: req.Reason}
	h.dispatch(c, cmd)
}

func (h BookingHandler) Confirm(c *gin.Context) {
	h.dispatch(c, bookingapp.ConfirmBookingCommand{BookingID: c.Param("id")})
}

func (h BookingHandler) CheckIn(c *gin.Context) {
	h.dispatch(c, bookingapp.CheckInCommand{BookingID: c.Param("id")})
}

func (h BookingHandler) CheckOut(c *gin.Context) {
	h.dispatch(c, bookingapp.CheckOutCommand{BookingID: c.Param("id")})
}

func (h BookingHandler) Complete(c *gin.Context) {
	h.dispatch(c, bookingapp.CompleteStayCommand{BookingID: c.Param("id")})
}

func (h BookingHandler) NoShow(c *gin.Context) {
	h.dispatch(c, bookingapp.MarkNoShowCommand{BookingID: c.Param("id")})
}

func (h BookingHandler) dispatch(c *gin.Context, cmd commands.Command) {
	result, err := dispatchAction(c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func dispatchAction(ctx context.Context, bus commands.Bus, cmd commands.Command) (*dto.BookingActionResult, error) {
	return commands.Dispatch[commands.Command, *dto.BookingActionResult](ctx, bus, cmd)
}

var _ BookingHTTP = BookingHandler{}
