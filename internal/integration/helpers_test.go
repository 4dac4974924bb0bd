package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/cinetix/cinema-booking-system/internal/app"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type TestApp struct {
	App   *app.Application
	DB    *pgxpool.Pool
	Redis *redis.Client
}

func newTestApp(cfg app.Config) (*TestApp, error) {
	ctx := context.Background()

	db, err := pgxpool.New(ctx, cfg.DB.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err = db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.URL})

	if err = redisClient.Ping(ctx).Err(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &TestApp{
		App:   app.NewApplication(cfg, logger, db, redisClient),
		DB:    db,
		Redis: redisClient,
	}, nil
}

func (a *TestApp) Close() {
	a.DB.Close()
	a.Redis.Close()
}

// Catalog fixture shared by the whole suite.
const (
	theaterID    = 1
	screenNumber = 1
	movieID      = 1
	customerID   = 1
	otherUserID  = 2
	staffID      = 1

	showStartTime = "18:00:00"
	showEndTime   = "20:30:00"
	showDate      = "2026-09-01"
)

func seedCatalog(t testing.TB, testApp *TestApp) {
	t.Helper()

	ctx := context.Background()

	statements := []string{
		`INSERT INTO movies (movie_id, title) VALUES (1, 'Dune: Part Two')`,
		`INSERT INTO theaters (theater_id, name, address) VALUES (1, 'Galaxy Central', '1 Main St')`,
		`INSERT INTO customers (user_id, name, email, phone) VALUES
			(1, 'Linh Tran', 'linh@example.com', '0900000001'),
			(2, 'Minh Pham', 'minh@example.com', '0900000002')`,
		`INSERT INTO staff (user_id, name, email) VALUES (1, 'Thu Nguyen', 'thu@example.com')`,
		`INSERT INTO seats (theater_id, screen_number, seat_number, seat_type, price) VALUES
			(1, 1, 'A1', 'standard', 100000),
			(1, 1, 'A2', 'standard', 100000),
			(1, 1, 'A3', 'standard', 100000),
			(1, 1, 'C1', 'vip', 150000),
			(1, 1, 'C2', 'vip', 150000)`,
		`INSERT INTO showtimes (theater_id, screen_number, start_time, end_time, show_date, movie_id, created_by)
			VALUES (1, 1, '18:00:00', '20:30:00', '2026-09-01', 1, 1)`,
		`INSERT INTO combos (combo_id, name, price, image_url) VALUES
			(1, 'Popcorn + Coke', 50000, 'https://cdn.example.com/combo1.png'),
			(2, 'Nachos', 45000, 'https://cdn.example.com/combo2.png')`,
	}

	for _, stmt := range statements {
		_, err := testApp.DB.Exec(ctx, stmt)
		require.NoError(t, err)
	}
}

func actorToken(t testing.TB, actorID int, role string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  strconv.Itoa(actorID),
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	signed, err := token.SignedString([]byte(jwtSecret))
	require.NoError(t, err)

	return signed
}

func authHeaders(t testing.TB, actorID int, role string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + actorToken(t, actorID, role)}
}

func createBookingBody(t testing.TB, seats []string, combos map[int]int, discount int) io.Reader {
	t.Helper()

	comboLines := make([]map[string]int, 0, len(combos))
	for id, quantity := range combos {
		comboLines = append(comboLines, map[string]int{"combo_id": id, "quantity": quantity})
	}

	payload := map[string]any{
		"showtime": map[string]any{
			"theater_id":    theaterID,
			"screen_number": screenNumber,
			"start_time":    showStartTime,
			"end_time":      showEndTime,
			"date":          showDate,
		},
		"seats":           seats,
		"combos":          comboLines,
		"payment_method":  "card",
		"discount_amount": discount,
	}

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	return strings.NewReader(string(body))
}

func seatMapURL() string {
	return fmt.Sprintf(
		"/showtimes/seats?theater_id=%d&screen_number=%d&start_time=%s&end_time=%s&date=%s",
		theaterID, screenNumber, showStartTime, showEndTime, showDate,
	)
}

func countRows(t testing.TB, testApp *TestApp, table string) int {
	t.Helper()

	var count int
	err := testApp.DB.QueryRow(context.Background(), "SELECT count(*) FROM "+table).Scan(&count)
	require.NoError(t, err)

	return count
}

func prepareRequest(method, path string, body io.Reader, headers map[string]string) (*http.Request, error) {
	req := httptest.NewRequest(method, path, body)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

var keysToIgnore = map[string]struct{}{
	"timestamp":    {},
	"request_id":   {},
	"created_at":   {},
	"purchased_at": {},
	"reference":    {},
}

func compareResponse(t *testing.T, body io.Reader, expectedResponse string) {
	var actual map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&actual))

	cleanMap(actual)

	var expected map[string]any
	require.NoError(t, json.Unmarshal([]byte(expectedResponse), &expected))

	// ignore indeterministic fields while comparing
	opts := cmpopts.IgnoreMapEntries(func(k string, _ any) bool {
		_, ok := keysToIgnore[k]
		return ok
	})

	if diff := cmp.Diff(expected, actual, opts); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func cleanMap(m map[string]any) {
	for k := range m {
		if _, ok := keysToIgnore[k]; ok {
			delete(m, k)
			continue
		}
		if nested, ok := m[k].(map[string]any); ok {
			cleanMap(nested)
		}
	}
}
