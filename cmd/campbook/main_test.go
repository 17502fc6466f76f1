package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campbook/internal/app/dto"
	"campbook/internal/infra/config"
	"campbook/internal/infra/fixtures"
	ginserver "campbook/internal/infra/http/gin"
	"campbook/internal/infra/obs"
)

type testServer struct {
	t      *testing.T
	app    *application
	router *gin.Engine
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{
		Env:             "test",
		StorageMode:     config.StorageMemory,
		IdempotencyTTL:  time.Hour,
		DefaultCurrency: "USD",
	}
	app, err := buildApplication(context.Background(), cfg, logger)
	require.NoError(t, err)

	loader := fixtures.Loader{UoW: app.factory, DefaultCurrency: cfg.DefaultCurrency, Logger: logger}
	n, err := loader.LoadFile(context.Background(), "../../data/campsites.json")
	require.NoError(t, err)
	require.Equal(t, 6, n)

	router := ginserver.NewRouter(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Checks: app.checks}, app.handlers)
	return testServer{t: t, app: app, router: router}
}

func (s testServer) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	s.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func stayBody(campsite, guest string, checkIn, checkOut time.Time) string {
	return fmt.Sprintf(`{"campsite_id":%q,"guest_id":%q,"check_in":%q,"check_out":%q,"adults":2}`,
		campsite, guest, checkIn.Format(time.DateOnly), checkOut.Format(time.DateOnly))
}

func TestBookingFlowInMemory(t *testing.T) {
	s := newTestServer(t)
	today := time.Now().UTC().Truncate(24 * time.Hour)
	checkIn := today.AddDate(0, 0, 30)
	checkOut := checkIn.AddDate(0, 0, 2)

	rec := s.do(http.MethodPost, "/api/v1/bookings", stayBody("cs-promise-pines", "guest-1", checkIn, checkOut))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	booking := decodeBody[dto.Booking](t, rec)
	assert.Equal(t, "PENDING", booking.Status)
	assert.Equal(t, "MODERATE", booking.Policy)
	assert.Equal(t, 2, booking.Price.Nights)
	assert.Equal(t, int64(3600), booking.Price.Subtotal.Amount)
	assert.Equal(t, int64(360), booking.Price.ServiceFee.Amount)
	assert.Equal(t, int64(3960), booking.Price.Total.Amount)

	rec = s.do(http.MethodPost, "/api/v1/bookings", stayBody("cs-promise-pines", "guest-2", checkIn.AddDate(0, 0, 1), checkOut.AddDate(0, 0, 1)))
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	conflict := decodeBody[struct {
		Code      string            `json:"code"`
		Conflicts []dto.ConflictDTO `json:"conflicts"`
	}](t, rec)
	assert.Equal(t, "DATE_CONFLICT", conflict.Code)
	assert.NotEmpty(t, conflict.Conflicts)

	rec = s.do(http.MethodPost, "/api/v1/bookings/"+booking.ID+"/confirm", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(3960), s.app.payments.Holds[booking.ID].Amount)

	rec = s.do(http.MethodPost, "/api/v1/bookings/"+booking.ID+"/cancel", `{"reason":"plans changed"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decodeBody[dto.BookingActionResult](t, rec)
	assert.Equal(t, "REFUNDED", result.Status)
	require.NotNil(t, result.Refund)
	assert.Equal(t, 100, result.Refund.Percentage)
	assert.Equal(t, int64(3960), result.Refund.Amount.Amount)
	assert.Equal(t, int64(3960), s.app.payments.Refunds[booking.ID].Amount)

	rec = s.do(http.MethodPost, "/api/v1/bookings/"+booking.ID+"/cancel", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	// canceled dates are free again
	rec = s.do(http.MethodPost, "/api/v1/bookings", stayBody("cs-promise-pines", "guest-2", checkIn, checkOut))
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var templates []string
	for _, m := range s.app.notifier.Sent() {
		templates = append(templates, m.Template)
	}
	assert.Equal(t, []string{"booking_requested", "booking_confirmed", "booking_canceled", "refund_issued", "booking_requested"}, templates)
}

func TestBookingIdempotencyKeyReplays(t *testing.T) {
	s := newTestServer(t)
	checkIn := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, 45)
	body := stayBody("cs-react-lake", "guest-1", checkIn, checkIn.AddDate(0, 0, 3))

	first := s.do(http.MethodPost, "/api/v1/bookings", body, ginserver.IdempotencyKeyHeader, "key-123")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	second := s.do(http.MethodPost, "/api/v1/bookings", body, ginserver.IdempotencyKeyHeader, "key-123")
	require.Equal(t, http.StatusCreated, second.Code, second.Body.String())

	a := decodeBody[dto.Booking](t, first)
	b := decodeBody[dto.Booking](t, second)
	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, a.Price.Total, b.Price.Total)
}

func TestQuoteAndAvailabilityInMemory(t *testing.T) {
	s := newTestServer(t)
	checkIn := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, 20)
	dates := fmt.Sprintf(`{"check_in":%q,"check_out":%q}`, checkIn.Format(time.DateOnly), checkIn.AddDate(0, 0, 2).Format(time.DateOnly))

	rec := s.do(http.MethodPost, "/api/v1/campsites/cs-promise-pines/quote", dates)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	quote := decodeBody[dto.PriceBreakdown](t, rec)
	assert.Equal(t, int64(3960), quote.Total.Amount)

	withCoupon := strings.TrimSuffix(dates, "}") + `,"coupon_code":"NOPE"}`
	rec = s.do(http.MethodPost, "/api/v1/campsites/cs-promise-pines/quote", withCoupon)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/v1/campsites?category=tent", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[dto.CampsiteCollection](t, rec)
	for _, item := range list.Items {
		assert.Equal(t, "tent", item.Category)
	}

	rec = s.do(http.MethodGet, "/livez", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
