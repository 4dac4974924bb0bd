package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Booking struct {
	ID             int
	Reference      string
	CustomerID     int
	PaymentMethod  string
	DiscountAmount decimal.Decimal
	AmountPaid     decimal.Decimal
	CreatedAt      time.Time
	ScannedAt      *time.Time
}

type Ticket struct {
	ID          int
	BookingID   int
	SeatNumber  string
	Showtime    ShowtimeKey
	PricePaid   decimal.Decimal
	PurchasedAt time.Time
}

type Customer struct {
	ID    int
	Name  string
	Email string
	Phone string
}

type ComboSelection struct {
	ComboID  int
	Quantity int
}

// CreateBookingCommand is the input of the reservation coordinator. Seat
// numbers are expected to be de-duplicated and non-empty by the caller.
type CreateBookingCommand struct {
	CustomerID    int
	Showtime      ShowtimeKey
	SeatNumbers   []string
	Combos        []ComboSelection
	PaymentMethod string
	Discount      decimal.Decimal
}

type TicketDetail struct {
	Ticket
	SeatType    string
	SeatPrice   decimal.Decimal
	MovieTitle  string
	TheaterName string
}

type BookingComboDetail struct {
	ComboID  int
	Name     string
	Price    decimal.Decimal
	Quantity int
	ImageURL string
}

type BookingDetail struct {
	Booking
	Customer Customer
	Tickets  []TicketDetail
	Combos   []BookingComboDetail
}

type BookingSummary struct {
	Booking
	TicketCount   int
	CustomerName  string
	CustomerEmail string
}

type BookingFilters struct {
	Date string
	Pagination
}

type BookingRepository interface {
	// Create runs the whole reservation as one transaction: it re-resolves
	// the showtime, re-checks seat availability, prices the order and writes
	// the booking with its tickets and combo lines. Either everything is
	// committed or nothing is.
	Create(ctx context.Context, cmd CreateBookingCommand) (*Booking, error)

	GetByID(ctx context.Context, bookingID int) (*Booking, error)
	GetDetail(ctx context.Context, bookingID int) (*BookingDetail, error)
	GetSummariesByCustomer(ctx context.Context, customerID int, pagination Pagination) ([]BookingSummary, *Metadata, error)
	GetAll(ctx context.Context, filters BookingFilters) ([]BookingSummary, *Metadata, error)

	// Delete cancels a booking, removing the booking together with its
	// tickets and combo lines so the seats become available again.
	Delete(ctx context.Context, bookingID int) error

	MarkScanned(ctx context.Context, bookingID int) error
}
