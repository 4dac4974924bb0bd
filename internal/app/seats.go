package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cinetix/cinema-booking-system/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// bookedSeatsCacheTTL keeps the seat map cheap to poll while seats are being
// picked. The cache is advisory only; the booking transaction never reads it.
const bookedSeatsCacheTTL = 10 * time.Second

type SeatResponse struct {
	SeatNumber string          `json:"seat_number"`
	SeatType   string          `json:"seat_type"`
	Price      decimal.Decimal `json:"price"`
	Available  bool            `json:"available"`
}

type ShowtimeSeatMapResponse struct {
	Showtime    ShowtimeKeyPayload `json:"showtime"`
	MovieTitle  string             `json:"movie_title"`
	TheaterName string             `json:"theater_name"`
	Seats       []SeatResponse     `json:"seats"`
}

func (app *Application) GetShowtimeSeatsHandler(w http.ResponseWriter, r *http.Request) {
	payload, err := readShowtimeKeyParams(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.validator.Struct(payload); err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	key := toShowtimeKey(payload)

	showtime, err := app.showtimeRepo.FindByKey(r.Context(), key)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	seats, err := app.seatRepo.GetByAuditorium(r.Context(), key.TheaterID, key.ScreenNumber)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	if len(seats) == 0 {
		app.notFoundResponse(w, r)
		return
	}

	booked, err := app.getBookedSeatNumbers(r.Context(), key)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	bookedSet := make(map[string]bool, len(booked))
	for _, seatNumber := range booked {
		bookedSet[seatNumber] = true
	}

	seatResponses := make([]SeatResponse, len(seats))
	for i, seat := range seats {
		seatResponses[i] = SeatResponse{
			SeatNumber: seat.SeatNumber,
			SeatType:   seat.SeatType,
			Price:      seat.Price,
			Available:  !bookedSet[seat.SeatNumber],
		}
	}

	resp := ShowtimeSeatMapResponse{
		Showtime:    payload,
		MovieTitle:  showtime.MovieTitle,
		TheaterName: showtime.TheaterName,
		Seats:       seatResponses,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func readShowtimeKeyParams(r *http.Request) (ShowtimeKeyPayload, error) {
	var payload ShowtimeKeyPayload

	query := r.URL.Query()

	if theaterID := query.Get("theater_id"); theaterID != "" {
		id, err := strconv.Atoi(theaterID)
		if err != nil {
			return payload, fmt.Errorf("invalid theater_id parameter")
		}
		payload.TheaterID = id
	}

	if screenNumber := query.Get("screen_number"); screenNumber != "" {
		number, err := strconv.Atoi(screenNumber)
		if err != nil {
			return payload, fmt.Errorf("invalid screen_number parameter")
		}
		payload.ScreenNumber = number
	}

	payload.StartTime = query.Get("start_time")
	payload.EndTime = query.Get("end_time")
	payload.Date = query.Get("date")

	return payload, nil
}

// getBookedSeatNumbers serves the advisory availability check, reading
// through a short-lived redis cache. Cache failures degrade to the database,
// they never fail the request.
func (app *Application) getBookedSeatNumbers(ctx context.Context, key domain.ShowtimeKey) ([]string, error) {
	cacheKey := bookedSeatsKey(key)

	cached, err := app.redis.Get(ctx, cacheKey).Bytes()
	if err == nil {
		var seatNumbers []string
		if err = json.Unmarshal(cached, &seatNumbers); err == nil {
			return seatNumbers, nil
		}

		app.logger.Warn("discarding malformed booked seats cache entry", "key", cacheKey)
	} else if !errors.Is(err, redis.Nil) {
		app.logger.Warn("booked seats cache read failed", "key", cacheKey, "error", err)
	}

	seatNumbers, err := app.seatRepo.GetBookedSeatNumbers(ctx, key)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(seatNumbers)
	if err != nil {
		return nil, err
	}

	err = app.redis.Set(ctx, cacheKey, payload, bookedSeatsCacheTTL).Err()
	if err != nil {
		app.logger.Warn("booked seats cache write failed", "key", cacheKey, "error", err)
	}

	return seatNumbers, nil
}

func (app *Application) invalidateBookedSeats(ctx context.Context, keys ...domain.ShowtimeKey) {
	if len(keys) == 0 {
		return
	}

	cacheKeys := make([]string, len(keys))
	for i, key := range keys {
		cacheKeys[i] = bookedSeatsKey(key)
	}

	err := app.redis.Del(ctx, cacheKeys...).Err()
	if err != nil {
		app.logger.Warn("booked seats cache invalidation failed", "keys", cacheKeys, "error", err)
	}
}

func bookedSeatsKey(key domain.ShowtimeKey) string {
	return fmt.Sprintf("booked_seats:%s", key)
}
