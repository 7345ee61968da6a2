package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"blueridge/models"
	"blueridge/services/booking"
	"blueridge/services/calendar"
	"blueridge/services/oauth"
	"blueridge/services/payment"
	"blueridge/services/scheduling"
	"blueridge/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var handlerNow = time.Date(2025, 9, 3, 14, 0, 0, 0, time.UTC)

type fakeAvailability struct {
	res       models.AvailabilityResult
	err       error
	from, to  time.Time
	durations []int
}

func (f *fakeAvailability) Availability(_ context.Context, from, to time.Time, d int) (models.AvailabilityResult, error) {
	f.from, f.to = from, to
	f.durations = append(f.durations, d)
	return f.res, f.err
}

type fakeBooking struct {
	res *models.BookingResult
	err error
	got models.BookingRequest
}

func (f *fakeBooking) Book(_ context.Context, req models.BookingRequest) (*models.BookingResult, error) {
	f.got = req
	return f.res, f.err
}

func (f *fakeBooking) Cancel(context.Context, models.CancelEventRequest) error {
	return f.err
}

type fakeChat struct {
	got models.ChatRequest
}

func (f *fakeChat) Chat(_ context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	f.got = req
	return &models.ChatResponse{Content: "hi", UI: &models.ChatUI{Type: "contact_form"}}, nil
}

type fakePayments struct {
	url string
	err error
	ev  *payment.WebhookEvent
	sig string
}

func (f *fakePayments) Checkout(_ context.Context, tier string) (string, error) {
	return f.url, f.err
}

func (f *fakePayments) Portal(_ context.Context, customerID string) (string, error) {
	return f.url, f.err
}

func (f *fakePayments) HandleWebhook(_ []byte, sig string) (*payment.WebhookEvent, error) {
	f.sig = sig
	return f.ev, f.err
}

func newRouter(hb *HandlerBundle) *gin.Engine {
	hb.Now = func() time.Time { return handlerNow }
	r := gin.New()
	r.GET("/api/availability", hb.GetAvailability)
	r.POST("/api/book", hb.Book)
	r.POST("/api/calendar/check-availability", hb.CheckAvailability)
	r.POST("/api/calendar/create-event", hb.CreateEvent)
	r.POST("/api/calendar/cancel-event", hb.CancelEvent)
	r.POST("/api/ai/chat", hb.AIChat)
	r.GET("/api/oauth/google", hb.OAuthStart)
	r.GET("/api/oauth/google/callback", hb.OAuthCallback)
	r.POST("/api/checkout", hb.Checkout)
	r.POST("/api/portal", hb.Portal)
	r.POST("/api/stripe/webhook", hb.StripeWebhook)
	r.GET("/health", Health)
	return r
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestGetAvailability(t *testing.T) {
	slotStart := handlerNow.Add(24 * time.Hour)
	avail := &fakeAvailability{res: models.AvailabilityResult{
		Slots:  []models.Slot{{Start: slotStart, End: slotStart.Add(30 * time.Minute)}},
		Phases: []string{scheduling.PhasePrimary},
	}}
	r := newRouter(&HandlerBundle{Availability: avail})

	w := do(r, http.MethodGet, "/api/availability?from=2025-09-01T00:00:00Z&to=2025-09-10T00:00:00Z&durationMins=60", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, []any{models.FormatISO(slotStart)}, body["slots"])
	assert.Equal(t, []any{"primary"}, body["phases"])
	assert.Equal(t, false, body["fabricated"])
	assert.Equal(t, handlerNow, avail.from, "past from is clamped to now")
	assert.Equal(t, []int{60}, avail.durations)
}

func TestGetAvailability_Errors(t *testing.T) {
	cases := []struct {
		name   string
		query  string
		err    error
		status int
		msg    string
	}{
		{"missing", "", nil, http.StatusBadRequest, "from and to required"},
		{"reversed", "?from=2025-09-10T00:00:00Z&to=2025-09-04T00:00:00Z", nil, http.StatusBadRequest, "Invalid range"},
		{"garbage", "?from=soon&to=later", nil, http.StatusBadRequest, "Invalid range"},
		{"auth", "?from=2025-09-04T00:00:00Z&to=2025-09-05T00:00:00Z", fmt.Errorf("busy: %w", calendar.ErrUnauthorized), http.StatusUnauthorized, "needs_reauth"},
		{"other", "?from=2025-09-04T00:00:00Z&to=2025-09-05T00:00:00Z", errors.New("boom"), http.StatusInternalServerError, "availability failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRouter(&HandlerBundle{Availability: &fakeAvailability{err: tc.err}})
			w := do(r, http.MethodGet, "/api/availability"+tc.query, "")
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.msg, decode(t, w)["error"])
		})
	}
}

func TestBook(t *testing.T) {
	r := newRouter(&HandlerBundle{Booking: &fakeBooking{res: &models.BookingResult{OK: true, UID: "u1", EventCreated: true}}})
	w := do(r, http.MethodPost, "/api/book", `{"start":"2025-09-04T14:00:00Z","durationMins":30}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "u1", body["uid"])
	assert.Equal(t, true, body["eventCreated"])
}

func TestBook_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", &booking.BookingError{Code: booking.CodeValidation, Message: "start in past"}, http.StatusBadRequest, "start in past"},
		{"conflict", &booking.BookingError{Code: booking.CodeConflict, Message: "slot taken"}, http.StatusConflict, "slot taken"},
		{"auth", &booking.BookingError{Code: booking.CodeCalendar, Message: "calendar create failed", Err: calendar.ErrUnauthorized}, http.StatusUnauthorized, "needs_reauth"},
		{"calendar", &booking.BookingError{Code: booking.CodeCalendar, Message: "calendar create failed", Err: calendar.ErrUnavailable}, http.StatusInternalServerError, "calendar create failed"},
		{"raw", errors.New("kaboom"), http.StatusInternalServerError, "booking failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRouter(&HandlerBundle{Booking: &fakeBooking{err: tc.err}})
			w := do(r, http.MethodPost, "/api/book", `{"start":"2025-09-04T14:00:00Z"}`)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.msg, decode(t, w)["error"])
		})
	}

	r := newRouter(&HandlerBundle{Booking: &fakeBooking{}})
	w := do(r, http.MethodPost, "/api/book", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelEvent(t *testing.T) {
	r := newRouter(&HandlerBundle{Booking: &fakeBooking{}})
	w := do(r, http.MethodPost, "/api/calendar/cancel-event", `{"eventId":"evt-1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "evt-1", decode(t, w)["eventId"])

	r = newRouter(&HandlerBundle{Booking: &fakeBooking{err: &booking.BookingError{Code: booking.CodeValidation, Message: "eventId required"}}})
	w = do(r, http.MethodPost, "/api/calendar/cancel-event", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckAvailability(t *testing.T) {
	slotStart := handlerNow.Add(24 * time.Hour)
	avail := &fakeAvailability{res: models.AvailabilityResult{
		Slots:  []models.Slot{{Start: slotStart, End: slotStart.Add(45 * time.Minute)}},
		Phases: []string{scheduling.PhasePrimary},
	}}
	r := newRouter(&HandlerBundle{Availability: avail})

	w := do(r, http.MethodPost, "/api/calendar/check-availability",
		`{"timeMinISO":"2025-09-04T00:00:00Z","timeMaxISO":"2025-09-06T00:00:00Z","durationMins":45}`)
	require.Equal(t, http.StatusOK, w.Code)
	slots := decode(t, w)["slots"].([]any)
	require.Len(t, slots, 1)
	pair := slots[0].(map[string]any)
	assert.Equal(t, models.FormatISO(slotStart), pair["start"])
	assert.Equal(t, models.FormatISO(slotStart.Add(45*time.Minute)), pair["end"])
	assert.Equal(t, []int{45}, avail.durations)

	w = do(r, http.MethodPost, "/api/calendar/check-availability", `{"timeMinISO":"2025-09-04T00:00:00Z","timeMaxISO":"2025-09-06T00:00:00Z"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateEvent(t *testing.T) {
	fb := &fakeBooking{res: &models.BookingResult{OK: true, UID: "u2"}}
	r := newRouter(&HandlerBundle{Booking: fb})

	w := do(r, http.MethodPost, "/api/calendar/create-event", `{
		"startISO":"2025-09-04T14:00:00Z","endISO":"2025-09-04T15:00:00Z","title":"Consultation",
		"description":"wants a demo","attendees":[{"email":"ann@example.com","name":"Ann"}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u2", decode(t, w)["uid"])
	assert.Equal(t, models.BookingRequest{
		Start: "2025-09-04T14:00:00.000Z", DurationMins: 60, Name: "Ann", Email: "ann@example.com", Notes: "wants a demo", Title: "Consultation",
	}, fb.got)

	w = do(r, http.MethodPost, "/api/calendar/create-event", `{"startISO":"2025-09-04T14:00:00Z","endISO":"2025-09-04T13:00:00Z"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid endISO", decode(t, w)["error"])
}

func TestAIChat(t *testing.T) {
	r := newRouter(&HandlerBundle{})
	w := do(r, http.MethodPost, "/api/ai/chat", `{"message":"hi"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	chat := &fakeChat{}
	r = newRouter(&HandlerBundle{Chat: chat})
	w = do(r, http.MethodPost, "/api/ai/chat", `{"messages":[{"role":"user","content":"hello"}],"session_id":"s1","lastSlots":[{"start":"2025-09-04T14:00:00Z","end":"2025-09-04T14:30:00Z"}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "hi", body["content"])
	assert.Equal(t, map[string]any{"type": "contact_form"}, body["ui"])
	assert.Equal(t, "s1", chat.got.SessionID)
	assert.Len(t, chat.got.LastSlots, 1)

	w = do(r, http.MethodPost, "/api/ai/chat", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOAuthRoutes(t *testing.T) {
	auth := oauth.NewGoogleAuth(oauth.Options{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "https://api.blueridge.test/api/oauth/google/callback",
	}, nil, zap.NewNop())
	r := newRouter(&HandlerBundle{OAuth: auth, AppBaseURL: "https://blueridge.test"})

	w := do(r, http.MethodGet, "/api/oauth/google?owner_id=owner-1", "")
	require.Equal(t, http.StatusFound, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", loc.Host)
	assert.Equal(t, "offline", loc.Query().Get("access_type"))
	assert.NotEmpty(t, loc.Query().Get("state"))

	w = do(r, http.MethodGet, "/api/oauth/google/callback?error=access_denied", "")
	assert.Equal(t, "https://blueridge.test/?oauth=error", w.Header().Get("Location"))

	w = do(r, http.MethodGet, "/api/oauth/google/callback?state=x", "")
	assert.Equal(t, "https://blueridge.test/?oauth=error", w.Header().Get("Location"), "missing code")

	unconfigured := newRouter(&HandlerBundle{OAuth: oauth.NewGoogleAuth(oauth.Options{}, nil, zap.NewNop())})
	w = do(unconfigured, http.MethodGet, "/api/oauth/google", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPaymentRoutes(t *testing.T) {
	pay := &fakePayments{url: "https://checkout.stripe.com/x"}
	r := newRouter(&HandlerBundle{Payments: pay})

	w := do(r, http.MethodPost, "/api/checkout", `{"tier":"starter"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://checkout.stripe.com/x", decode(t, w)["url"])

	w = do(r, http.MethodPost, "/api/portal", `{"customerId":"cus_1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	pay.err = payment.ErrUnknownTier
	w = do(r, http.MethodPost, "/api/checkout", `{"tier":"platinum"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Unknown tier", decode(t, w)["error"])

	pay.err = payment.ErrMissingCustomer
	w = do(r, http.MethodPost, "/api/portal", `{}`)
	assert.Equal(t, "Missing customerId", decode(t, w)["error"])

	pay.err = errors.New("stripe down")
	w = do(r, http.MethodPost, "/api/checkout", `{"tier":"starter"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "checkout error", decode(t, w)["error"])
}

func TestStripeWebhook(t *testing.T) {
	pay := &fakePayments{ev: &payment.WebhookEvent{ID: "evt_1", Type: "invoice.paid"}}
	r := newRouter(&HandlerBundle{Payments: pay})

	req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", strings.NewReader(`{"id":"evt_1"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["received"])
	assert.Equal(t, "t=1,v1=abc", pay.sig)

	pay.ev, pay.err = nil, payment.ErrInvalidSignature
	w = do(r, http.MethodPost, "/api/stripe/webhook", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Webhook Error", decode(t, w)["error"])
}

func TestHealth(t *testing.T) {
	r := gin.New()
	r.GET("/health", Health)

	utils.RunHealthChecks(context.Background(), map[string]utils.HealthCheck{
		"redis": func(context.Context) error { return nil },
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	utils.RunHealthChecks(context.Background(), map[string]utils.HealthCheck{
		"redis":           func(context.Context) error { return nil },
		"google_calendar": func(context.Context) error { return calendar.ErrUnauthorized },
	})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"google_calendar":false`)
}
