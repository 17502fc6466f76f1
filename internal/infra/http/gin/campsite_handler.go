package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"campbook/internal/app/commands"
	"campbook/internal/app/dto"
	availabilityapp "campbook/internal/app/handlers/availability"
	campsitesapp "campbook/internal/app/handlers/campsites"
	pricingapp "campbook/internal/app/handlers/pricing"
	"campbook/internal/app/queries"
)

// CampsiteHandler serves catalog, availability, pricing and calendar routes.
type CampsiteHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

func (h CampsiteHandler) List(c *gin.Context) {
	query := campsitesapp.ListCampsitesQuery{
		Query:     c.Query("q"),
		Category:  c.Query("category"),
		City:      c.Query("city"),
		State:     c.Query("state"),
		MinGuests: parseInt(c.Query("min_guests")),
		PetsOnly:  parseBool(c.Query("pets")),
		Sort:      c.Query("sort"),
		Limit:     parseInt(c.Query("limit")),
		Offset:    parseInt(c.Query("offset")),
	}
	result, err := queries.Ask[campsitesapp.ListCampsitesQuery, dto.CampsiteCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CampsiteHandler) Get(c *gin.Context) {
	query := campsitesapp.GetCampsiteQuery{CampsiteID: c.Param("id")}
	result, err := queries.Ask[campsitesapp.GetCampsiteQuery, dto.Campsite](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type availabilityRequest struct {
	stayRequest
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Pets     int `json:"pets"`
}

// Availability always answers 200; an unavailable stay is reported in the body.
func (h CampsiteHandler) Availability(c *gin.Context) {
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	checkIn, checkOut, err := req.dates()
	if err != nil {
		badRequest(c, err)
		return
	}
	query := availabilityapp.CheckAvailabilityQuery{
		CampsiteID: c.Param("id"),
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Adults:     req.Adults,
		Children:   req.Children,
		Pets:       req.Pets,
	}
	result, err := queries.Ask[availabilityapp.CheckAvailabilityQuery, dto.AvailabilityResult](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type quoteRequest struct {
	stayRequest
	CouponCode string `json:"coupon_code"`
}

func (h CampsiteHandler) Quote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	checkIn, checkOut, err := req.dates()
	if err != nil {
		badRequest(c, err)
		return
	}
	query := pricingapp.QuoteQuery{
		CampsiteID: c.Param("id"),
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		CouponCode: req.CouponCode,
	}
	result, err := queries.Ask[pricingapp.QuoteQuery, dto.PriceBreakdown](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CampsiteHandler) Calendar(c *gin.Context) {
	from, err := parseDay("from", c.Query("from"))
	if err != nil {
		badRequest(c, err)
		return
	}
	to, err := parseDay("to", c.Query("to"))
	if err != nil {
		badRequest(c, err)
		return
	}
	query := availabilityapp.GetCalendarQuery{CampsiteID: c.Param("id"), From: from, To: to}
	result, err := queries.Ask[availabilityapp.GetCalendarQuery, dto.Calendar](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type blockRequest struct {
	stayRequest
	Reason string `json:"reason"`
	Note   string `json:"note"`
}

func (h CampsiteHandler) Block(c *gin.Context) {
	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	checkIn, checkOut, err := req.dates()
	if err != nil {
		badRequest(c, err)
		return
	}
	cmd := availabilityapp.BlockDatesCommand{
		CampsiteID: c.Param("id"),
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Reason:     req.Reason,
		Note:       req.Note,
	}
	result, err := commands.Dispatch[availabilityapp.BlockDatesCommand, *dto.CalendarBlock](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h CampsiteHandler) Unblock(c *gin.Context) {
	cmd := availabilityapp.UnblockDatesCommand{CampsiteID: c.Param("id"), BlockID: c.Param("blockId")}
	result, err := commands.Dispatch[availabilityapp.UnblockDatesCommand, *dto.Calendar](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ CampsiteHTTP = CampsiteHandler{}
