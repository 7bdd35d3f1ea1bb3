package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazelgrove/studio-scheduler/internal/appointments"
	"github.com/hazelgrove/studio-scheduler/internal/persistence"
	"github.com/hazelgrove/studio-scheduler/internal/schedule"
	"github.com/hazelgrove/studio-scheduler/internal/scheduling"
	"github.com/hazelgrove/studio-scheduler/pkg/logging"
)

const testAdminSecret = "router-test-secret"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	policy := schedule.DefaultPolicy()
	policy.Timezone = ""
	cal, err := schedule.NewCalendar(policy)
	require.NoError(t, err)

	logger := logging.Default()
	engine := scheduling.NewEngine(appointments.NewStore(), cal, persistence.NewMemoryBackend(), nil, nil, nil, logger)
	// A Sunday morning; the following Monday is fully open.
	engine = engine.WithClock(func() time.Time {
		return time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	})

	cfg := &Config{
		Logger:            logger,
		SchedulingHandler: scheduling.NewHandler(engine, logger),
		AdminAuthSecret:   testAdminSecret,
	}
	return New(cfg)
}

func bookBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(scheduling.BookingRequest{
		CustomerName: "Router Test",
		ServiceType:  "consultation",
		Start:        time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		Location:     appointments.LocationStudio,
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestRouterBookAndGet(t *testing.T) {
	router := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/appointments", bookBody(t)))
	require.Equal(t, http.StatusCreated, rr.Code)

	var booked scheduling.BookingResult
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&booked))
	require.NotNil(t, booked.Appointment)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/appointments/"+booked.Appointment.ID, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var fetched appointments.Appointment
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&fetched))
	assert.Equal(t, "Router Test", fetched.CustomerName)
}

func TestRouterBookConflictReturns409(t *testing.T) {
	router := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/appointments", bookBody(t)))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/appointments", bookBody(t)))
	require.Equal(t, http.StatusConflict, rr.Code)

	var resp map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "slot_unavailable", resp["kind"])
	assert.NotEmpty(t, resp["alternatives"])
}

func TestRouterGetUnknownAppointment(t *testing.T) {
	router := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/appointments/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouterAvailability(t *testing.T) {
	router := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/availability?from=2026-03-02&days=1", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Slots []schedule.TimeSlot `json:"slots"`
		Count int                 `json:"count"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, len(resp.Slots), resp.Count)
	assert.NotEmpty(t, resp.Slots)
}

func TestRouterAdminRequiresToken(t *testing.T) {
	router := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/appointments", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouterAdminWithValidToken(t *testing.T) {
	router := newTestRouter(t)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testAdminSecret))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp scheduling.ListAppointmentsResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 0, resp.Count)
}
