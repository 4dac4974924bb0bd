package app

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/cinetix/cinema-booking-system/internal/mocks"
	appvalidator "github.com/cinetix/cinema-booking-system/internal/validator"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

type testMocks struct {
	showtimeRepo *mocks.MockShowtimeRepo
	seatRepo     *mocks.MockSeatRepo
	comboRepo    *mocks.MockComboRepo
	bookingRepo  *mocks.MockBookingRepo
	redis        *mocks.MockRedisClient
}

func newTestApplication(t *testing.T) (*Application, *testMocks) {
	t.Helper()

	m := &testMocks{
		showtimeRepo: new(mocks.MockShowtimeRepo),
		seatRepo:     new(mocks.MockSeatRepo),
		comboRepo:    new(mocks.MockComboRepo),
		bookingRepo:  new(mocks.MockBookingRepo),
		redis:        new(mocks.MockRedisClient),
	}

	app := &Application{
		config: Config{
			Env: "test",
			JWT: JWTConfig{Secret: testJWTSecret},
		},
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		redis:        m.redis,
		validator:    appvalidator.NewValidator(),
		showtimeRepo: m.showtimeRepo,
		seatRepo:     m.seatRepo,
		comboRepo:    m.comboRepo,
		bookingRepo:  m.bookingRepo,
	}

	return app, m
}

func signedToken(t *testing.T, actorID int, role string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  strconv.Itoa(actorID),
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	return signed
}

func customerToken(t *testing.T, actorID int) string {
	return signedToken(t, actorID, "customer")
}

func staffToken(t *testing.T, actorID int) string {
	return signedToken(t, actorID, "staff")
}

func executeRequest(t *testing.T, app *Application, method, url string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, url, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	app.Routes().ServeHTTP(rec, req)

	return rec
}

func checkErrorResponse(t *testing.T, rec *httptest.ResponseRecorder, wantStatus int, wantMessage string) ErrorResponse {
	t.Helper()

	require.Equal(t, wantStatus, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, wantMessage, resp.Message)

	return resp
}

func checkValidationFailure(t *testing.T, rec *httptest.ResponseRecorder, wantFields ...string) {
	t.Helper()

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp ValidationErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	gotFields := make([]string, len(resp.ValidationErrors))
	for i, fieldError := range resp.ValidationErrors {
		gotFields[i] = fieldError.Field
	}

	for _, field := range wantFields {
		require.Contains(t, gotFields, field)
	}
}
