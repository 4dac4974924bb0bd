package domain

import (
	"context"
	"fmt"
)

// ShowtimeKey is the natural composite identifier of one screening. Times and
// dates are kept as validated strings ("15:04:05", "2006-01-02") so they map
// onto the TIME and DATE columns without timezone juggling.
type ShowtimeKey struct {
	TheaterID    int
	ScreenNumber int
	StartTime    string
	EndTime      string
	Date         string
}

func (k ShowtimeKey) String() string {
	return fmt.Sprintf("%d:%d:%s:%s:%s", k.TheaterID, k.ScreenNumber, k.StartTime, k.EndTime, k.Date)
}

type Showtime struct {
	Key         ShowtimeKey
	MovieID     int
	MovieTitle  string
	TheaterName string
	CreatedBy   int
}

type ShowtimeRepository interface {
	FindByKey(ctx context.Context, key ShowtimeKey) (*Showtime, error)
}
