package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cinetix/cinema-booking-system/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10

	// reservationTimeout bounds how long a reservation may wait on the
	// database, lock waits included. On expiry the transaction is rolled
	// back and the caller gets a retryable server error.
	reservationTimeout = 5 * time.Second
)

type ShowtimeKeyPayload struct {
	TheaterID    int    `json:"theater_id" validate:"required,min=1"`
	ScreenNumber int    `json:"screen_number" validate:"required,min=1"`
	StartTime    string `json:"start_time" validate:"required,datetime=15:04:05"`
	EndTime      string `json:"end_time" validate:"required,datetime=15:04:05"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
}

type ComboSelectionRequest struct {
	ComboID  int `json:"combo_id" validate:"required,min=1"`
	Quantity int `json:"quantity" validate:"required,min=1"`
}

type CreateBookingRequest struct {
	Showtime       ShowtimeKeyPayload      `json:"showtime"`
	Seats          []string                `json:"seats" validate:"required,min=1,dive,seat_number"`
	Combos         []ComboSelectionRequest `json:"combos" validate:"dive"`
	PaymentMethod  string                  `json:"payment_method" validate:"required,payment_method"`
	DiscountAmount decimal.Decimal         `json:"discount_amount"`
}

type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required,oneof=paid unpaid refunded"`
}

type BookingResponse struct {
	Id             int             `json:"id"`
	Reference      string          `json:"reference"`
	CustomerId     int             `json:"customer_id"`
	PaymentMethod  string          `json:"payment_method"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	CreatedAt      time.Time       `json:"created_at"`
	ScannedAt      *time.Time      `json:"scanned_at,omitempty"`
}

type CustomerResponse struct {
	Id    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type TicketResponse struct {
	Id          int                `json:"id"`
	SeatNumber  string             `json:"seat_number"`
	SeatType    string             `json:"seat_type"`
	PricePaid   decimal.Decimal    `json:"price_paid"`
	MovieTitle  string             `json:"movie_title"`
	TheaterName string             `json:"theater_name"`
	Showtime    ShowtimeKeyPayload `json:"showtime"`
	PurchasedAt time.Time          `json:"purchased_at"`
}

type BookingComboResponse struct {
	ComboId  int             `json:"combo_id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	ImageUrl string          `json:"image_url"`
}

type BookingDetailResponse struct {
	BookingResponse
	Customer CustomerResponse       `json:"customer"`
	Tickets  []TicketResponse       `json:"tickets"`
	Combos   []BookingComboResponse `json:"combos"`
}

type BookingSummaryResponse struct {
	BookingResponse
	TicketCount   int    `json:"ticket_count"`
	CustomerName  string `json:"customer_name,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`
}

type MetadataResponse struct {
	CurrentPage  int `json:"current_page"`
	FirstPage    int `json:"first_page"`
	LastPage     int `json:"last_page"`
	PageSize     int `json:"page_size"`
	TotalRecords int `json:"total_records"`
}

type BookingListResponse struct {
	Bookings []BookingSummaryResponse `json:"bookings"`
	Metadata MetadataResponse         `json:"metadata"`
}

type PaymentStatusResponse struct {
	BookingId     int    `json:"booking_id"`
	PaymentStatus string `json:"payment_status"`
}

func (app *Application) CreateBookingHandler(w http.ResponseWriter, r *http.Request) {
	actor := app.contextGetActor(r)

	var input CreateBookingRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	if input.DiscountAmount.IsNegative() {
		app.badRequestResponse(w, r, fmt.Errorf("discount_amount must not be negative"))
		return
	}

	key := toShowtimeKey(input.Showtime)
	seatNumbers := dedupeSeats(input.Seats)
	combos := mergeComboSelections(input.Combos)

	// Advisory pre-checks to short-circuit doomed requests cheaply. The
	// booking transaction repeats them authoritatively.
	_, err = app.showtimeRepo.FindByKey(r.Context(), key)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	booked, err := app.getBookedSeatNumbers(r.Context(), key)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	if conflicts := intersectSeats(seatNumbers, booked); len(conflicts) > 0 {
		app.seatConflictResponse(w, r, conflicts)
		return
	}

	if len(combos) > 0 {
		ids := make([]int, len(combos))
		for i, combo := range combos {
			ids[i] = combo.ComboID
		}

		found, err := app.comboRepo.GetByIDs(r.Context(), ids)
		if err != nil {
			app.serverErrorResponse(w, r, err)
			return
		}

		if len(found) != len(ids) {
			app.notFoundResponse(w, r)
			return
		}
	}

	cmd := domain.CreateBookingCommand{
		CustomerID:    actor.ID,
		Showtime:      key,
		SeatNumbers:   seatNumbers,
		Combos:        combos,
		PaymentMethod: input.PaymentMethod,
		Discount:      input.DiscountAmount,
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationTimeout)
	defer cancel()

	booking, err := app.bookingRepo.Create(ctx, cmd)
	if err != nil {
		var seatsErr *domain.SeatsAlreadyBookedError

		switch {
		case errors.As(err, &seatsErr):
			app.seatConflictResponse(w, r, seatsErr.Seats)
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, domain.ErrInvalidDiscount):
			app.badRequestResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	app.invalidateBookedSeats(r.Context(), key)

	app.logger.Info("booking created",
		"booking_id", booking.ID,
		"customer_id", booking.CustomerID,
		"seats", len(seatNumbers),
	)

	err = app.writeJSON(w, http.StatusCreated, toBookingResponse(*booking), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetBookingDetailHandler(w http.ResponseWriter, r *http.Request) {
	actor := app.contextGetActor(r)

	bookingID, err := app.readIDParam(r, "bookingID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	detail, err := app.bookingRepo.GetDetail(r.Context(), bookingID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	if actor.IsCustomer() && detail.CustomerID != actor.ID {
		app.forbiddenAccessResponse(w, r)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toBookingDetailResponse(detail), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) CancelBookingHandler(w http.ResponseWriter, r *http.Request) {
	actor := app.contextGetActor(r)

	bookingID, err := app.readIDParam(r, "bookingID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	detail, err := app.bookingRepo.GetDetail(r.Context(), bookingID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	if actor.IsCustomer() && detail.CustomerID != actor.ID {
		app.forbiddenAccessResponse(w, r)
		return
	}

	err = app.bookingRepo.Delete(r.Context(), bookingID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	app.invalidateBookedSeats(r.Context(), ticketShowtimeKeys(detail.Tickets)...)

	app.logger.Info("booking cancelled", "booking_id", bookingID, "actor_id", actor.ID, "role", actor.Role)

	w.WriteHeader(http.StatusNoContent)
}

// UpdatePaymentStatusHandler acknowledges a payment status change without
// persisting anything. The label is advisory: amount_paid is captured at
// booking time and no code path gates on payment status. This mirrors what
// an eventual payment integration would replace.
func (app *Application) UpdatePaymentStatusHandler(w http.ResponseWriter, r *http.Request) {
	actor := app.contextGetActor(r)

	bookingID, err := app.readIDParam(r, "bookingID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input UpdatePaymentStatusRequest

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	booking, err := app.bookingRepo.GetByID(r.Context(), bookingID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	if actor.IsCustomer() && booking.CustomerID != actor.ID {
		app.forbiddenAccessResponse(w, r)
		return
	}

	app.logger.Info("payment status update acknowledged",
		"booking_id", bookingID,
		"payment_status", input.PaymentStatus,
	)

	resp := PaymentStatusResponse{
		BookingId:     bookingID,
		PaymentStatus: input.PaymentStatus,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) ScanBookingHandler(w http.ResponseWriter, r *http.Request) {
	bookingID, err := app.readIDParam(r, "bookingID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.bookingRepo.MarkScanned(r.Context(), bookingID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type paginationParams struct {
	Page     int `validate:"min=1"`
	PageSize int `validate:"min=1,max=100"`
}

func (app *Application) GetMyBookingsHandler(w http.ResponseWriter, r *http.Request) {
	actor := app.contextGetActor(r)

	params, err := readPaginationParams(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.validator.Struct(params); err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	pagination := domain.Pagination{Page: params.Page, PageSize: params.PageSize}

	summaries, metadata, err := app.bookingRepo.GetSummariesByCustomer(r.Context(), actor.ID, pagination)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := BookingListResponse{
		Bookings: toBookingSummaryResponses(summaries),
		Metadata: toMetadataResponse(metadata),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type allBookingsParams struct {
	paginationParams
	Date string `validate:"omitempty,datetime=2006-01-02"`
}

func (app *Application) GetAllBookingsHandler(w http.ResponseWriter, r *http.Request) {
	pagination, err := readPaginationParams(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	params := allBookingsParams{
		paginationParams: pagination,
		Date:             r.URL.Query().Get("date"),
	}

	if err := app.validator.Struct(params); err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	filters := domain.BookingFilters{
		Date: params.Date,
		Pagination: domain.Pagination{
			Page:     params.Page,
			PageSize: params.PageSize,
		},
	}

	summaries, metadata, err := app.bookingRepo.GetAll(r.Context(), filters)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := BookingListResponse{
		Bookings: toBookingSummaryResponses(summaries),
		Metadata: toMetadataResponse(metadata),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func readPaginationParams(r *http.Request) (paginationParams, error) {
	params := paginationParams{
		Page:     DefaultPage,
		PageSize: DefaultPageSize,
	}

	if page := r.URL.Query().Get("page"); page != "" {
		pageNum, err := strconv.Atoi(page)
		if err != nil {
			return params, fmt.Errorf("invalid page parameter")
		}
		params.Page = pageNum
	}

	if pageSize := r.URL.Query().Get("pageSize"); pageSize != "" {
		pageSizeNum, err := strconv.Atoi(pageSize)
		if err != nil {
			return params, fmt.Errorf("invalid pageSize parameter")
		}
		params.PageSize = pageSizeNum
	}

	return params, nil
}

func toShowtimeKey(payload ShowtimeKeyPayload) domain.ShowtimeKey {
	return domain.ShowtimeKey{
		TheaterID:    payload.TheaterID,
		ScreenNumber: payload.ScreenNumber,
		StartTime:    payload.StartTime,
		EndTime:      payload.EndTime,
		Date:         payload.Date,
	}
}

func toShowtimeKeyPayload(key domain.ShowtimeKey) ShowtimeKeyPayload {
	return ShowtimeKeyPayload{
		TheaterID:    key.TheaterID,
		ScreenNumber: key.ScreenNumber,
		StartTime:    key.StartTime,
		EndTime:      key.EndTime,
		Date:         key.Date,
	}
}

func dedupeSeats(seats []string) []string {
	seen := make(map[string]bool, len(seats))
	deduped := make([]string, 0, len(seats))

	for _, seat := range seats {
		if seen[seat] {
			continue
		}

		seen[seat] = true
		deduped = append(deduped, seat)
	}

	return deduped
}

func mergeComboSelections(combos []ComboSelectionRequest) []domain.ComboSelection {
	quantities := make(map[int]int, len(combos))
	order := make([]int, 0, len(combos))

	for _, combo := range combos {
		if _, ok := quantities[combo.ComboID]; !ok {
			order = append(order, combo.ComboID)
		}

		quantities[combo.ComboID] += combo.Quantity
	}

	selections := make([]domain.ComboSelection, 0, len(order))
	for _, id := range order {
		selections = append(selections, domain.ComboSelection{ComboID: id, Quantity: quantities[id]})
	}

	return selections
}

func intersectSeats(requested, booked []string) []string {
	bookedSet := make(map[string]bool, len(booked))
	for _, seat := range booked {
		bookedSet[seat] = true
	}

	conflicts := make([]string, 0)
	for _, seat := range requested {
		if bookedSet[seat] {
			conflicts = append(conflicts, seat)
		}
	}

	return conflicts
}

func ticketShowtimeKeys(tickets []domain.TicketDetail) []domain.ShowtimeKey {
	seen := make(map[string]bool, len(tickets))
	keys := make([]domain.ShowtimeKey, 0, 1)

	for _, ticket := range tickets {
		if seen[ticket.Showtime.String()] {
			continue
		}

		seen[ticket.Showtime.String()] = true
		keys = append(keys, ticket.Showtime)
	}

	return keys
}

func toBookingResponse(booking domain.Booking) BookingResponse {
	return BookingResponse{
		Id:             booking.ID,
		Reference:      booking.Reference,
		CustomerId:     booking.CustomerID,
		PaymentMethod:  booking.PaymentMethod,
		DiscountAmount: booking.DiscountAmount,
		AmountPaid:     booking.AmountPaid,
		CreatedAt:      booking.CreatedAt,
		ScannedAt:      booking.ScannedAt,
	}
}

func toBookingDetailResponse(detail *domain.BookingDetail) BookingDetailResponse {
	tickets := make([]TicketResponse, len(detail.Tickets))

	for i, ticket := range detail.Tickets {
		tickets[i] = TicketResponse{
			Id:          ticket.ID,
			SeatNumber:  ticket.SeatNumber,
			SeatType:    ticket.SeatType,
			PricePaid:   ticket.PricePaid,
			MovieTitle:  ticket.MovieTitle,
			TheaterName: ticket.TheaterName,
			Showtime:    toShowtimeKeyPayload(ticket.Showtime),
			PurchasedAt: ticket.PurchasedAt,
		}
	}

	combos := make([]BookingComboResponse, len(detail.Combos))

	for i, combo := range detail.Combos {
		combos[i] = BookingComboResponse{
			ComboId:  combo.ComboID,
			Name:     combo.Name,
			Price:    combo.Price,
			Quantity: combo.Quantity,
			ImageUrl: combo.ImageURL,
		}
	}

	return BookingDetailResponse{
		BookingResponse: toBookingResponse(detail.Booking),
		Customer: CustomerResponse{
			Id:    detail.Customer.ID,
			Name:  detail.Customer.Name,
			Email: detail.Customer.Email,
			Phone: detail.Customer.Phone,
		},
		Tickets: tickets,
		Combos:  combos,
	}
}

func toBookingSummaryResponses(summaries []domain.BookingSummary) []BookingSummaryResponse {
	responses := make([]BookingSummaryResponse, len(summaries))

	for i, summary := range summaries {
		responses[i] = BookingSummaryResponse{
			BookingResponse: toBookingResponse(summary.Booking),
			TicketCount:     summary.TicketCount,
			CustomerName:    summary.CustomerName,
			CustomerEmail:   summary.CustomerEmail,
		}
	}

	return responses
}

func toMetadataResponse(metadata *domain.Metadata) MetadataResponse {
	if metadata == nil {
		return MetadataResponse{}
	}

	return MetadataResponse{
		CurrentPage:  metadata.CurrentPage,
		FirstPage:    metadata.FirstPage,
		LastPage:     metadata.LastPage,
		PageSize:     metadata.PageSize,
		TotalRecords: metadata.TotalRecords,
	}
}
