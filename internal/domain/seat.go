package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

type Seat struct {
	TheaterID    int
	ScreenNumber int
	SeatNumber   string
	SeatType     string
	Price        decimal.Decimal
	Available    bool
}

type SeatRepository interface {
	GetByAuditorium(ctx context.Context, theaterID, screenNumber int) ([]Seat, error)

	// GetBookedSeatNumbers reports the seats of a showtime that already have a
	// ticket. Outside a transaction this is advisory only: the authoritative
	// check happens inside the booking transaction, backed by the uniqueness
	// constraint on tickets.
	GetBookedSeatNumbers(ctx context.Context, key ShowtimeKey) ([]string, error)
}
