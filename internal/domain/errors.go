package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRecordNotFound  = errors.New("record not found")
	ErrInvalidDiscount = errors.New("discount exceeds order total")
)

// SeatsAlreadyBookedError reports which seats lost the reservation race. The
// caller is expected to re-query availability and let the user pick again.
type SeatsAlreadyBookedError struct {
	Seats []string
}

func (e *SeatsAlreadyBookedError) Error() string {
	return fmt.Sprintf("seat(s) already booked: %s", strings.Join(e.Seats, ", "))
}
