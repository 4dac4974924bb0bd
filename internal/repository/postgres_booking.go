package repository

import (
	"context"
	"errors"

	"github.com/cinetix/cinema-booking-system/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PostgresBookingRepository struct {
	db *pgxpool.Pool
}

func NewPostgresBookingRepository(db *pgxpool.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{
		db: db,
	}
}

// Create performs the whole reservation inside a single transaction. The
// showtime lookup and the availability check are repeated here even though the
// handler already ran them: the pre-checks outside the transaction are only
// advisory, two requests can both pass them for the same seat. The
// authoritative guard is the availability read below combined with the
// uniqueness constraint on tickets (theater_id, screen_number, start_time,
// end_time, show_date, seat_number), which rejects a conflicting insert even
// if the read raced.
func (p *PostgresBookingRepository) Create(ctx context.Context, cmd domain.CreateBookingCommand) (*domain.Booking, error) {
	booking := domain.Booking{
		Reference:      uuid.NewString(),
		CustomerID:     cmd.CustomerID,
		PaymentMethod:  cmd.PaymentMethod,
		DiscountAmount: cmd.Discount,
	}

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		err := p.checkShowtimeExists(ctx, tx, cmd.Showtime)
		if err != nil {
			return err
		}

		err = p.checkSeatsAvailable(ctx, tx, cmd.Showtime, cmd.SeatNumbers)
		if err != nil {
			return err
		}

		seats, err := p.getSeatsForBooking(ctx, tx, cmd.Showtime, cmd.SeatNumbers)
		if err != nil {
			return err
		}

		combos, err := p.getCombosForBooking(ctx, tx, cmd.Combos)
		if err != nil {
			return err
		}

		seatPrices := make([]decimal.Decimal, len(seats))
		for i, seat := range seats {
			seatPrices[i] = seat.Price
		}

		comboLines := make([]domain.ComboLine, 0, len(cmd.Combos))
		for _, selection := range cmd.Combos {
			comboLines = append(comboLines, domain.ComboLine{
				Price:    combos[selection.ComboID].Price,
				Quantity: selection.Quantity,
			})
		}

		total := domain.CalculateTotal(seatPrices, comboLines, cmd.Discount)
		if total.IsNegative() {
			return domain.ErrInvalidDiscount
		}

		booking.AmountPaid = total

		query := `
			INSERT INTO bookings (reference, user_id, payment_method, discount_amount, amount_paid)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING booking_id, created_at
		`

		err = tx.QueryRow(
			ctx,
			query,
			booking.Reference,
			booking.CustomerID,
			booking.PaymentMethod,
			booking.DiscountAmount,
			booking.AmountPaid).Scan(&booking.ID, &booking.CreatedAt)
		if err != nil {
			return err
		}

		err = p.insertTickets(ctx, tx, booking.ID, cmd.Showtime, seats)
		if err != nil {
			return err
		}

		return p.insertBookingCombos(ctx, tx, booking.ID, cmd.Combos)
	})

	if err != nil {
		return nil, err
	}

	return &booking, nil
}

func (p *PostgresBookingRepository) checkShowtimeExists(ctx context.Context, tx pgx.Tx, key domain.ShowtimeKey) error {
	query := `
		SELECT 1
		FROM showtimes
		WHERE theater_id = $1
			AND screen_number = $2
			AND start_time = $3::time
			AND end_time = $4::time
			AND show_date = $5::date
	`

	var exists int

	err := tx.QueryRow(
		ctx,
		query,
		key.TheaterID,
		key.ScreenNumber,
		key.StartTime,
		key.EndTime,
		key.Date).Scan(&exists)

	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrRecordNotFound
	}

	return err
}

// checkSeatsAvailable reads conflicting tickets under FOR UPDATE so a
// concurrent cancellation of the same seats cannot slip between this read and
// the inserts. Seats that have no ticket row yet are not lockable by a read;
// those are covered by the uniqueness constraint at insert time.
func (p *PostgresBookingRepository) checkSeatsAvailable(
	ctx context.Context,
	tx pgx.Tx,
	key domain.ShowtimeKey,
	seatNumbers []string) error {

	query := `
		SELECT seat_number
		FROM tickets
		WHERE theater_id = $1
			AND screen_number = $2
			AND start_time = $3::time
			AND end_time = $4::time
			AND show_date = $5::date
			AND seat_number = ANY($6)
		ORDER BY seat_number
		FOR UPDATE
	`

	rows, err := tx.Query(
		ctx,
		query,
		key.TheaterID,
		key.ScreenNumber,
		key.StartTime,
		key.EndTime,
		key.Date,
		seatNumbers)
	if err != nil {
		return err
	}
	defer rows.Close()

	conflicting := make([]string, 0)

	for rows.Next() {
		var seatNumber string

		if err = rows.Scan(&seatNumber); err != nil {
			return err
		}

		conflicting = append(conflicting, seatNumber)
	}

	if err = rows.Err(); err != nil {
		return err
	}

	if len(conflicting) > 0 {
		return &domain.SeatsAlreadyBookedError{Seats: conflicting}
	}

	return nil
}

func (p *PostgresBookingRepository) getSeatsForBooking(
	ctx context.Context,
	tx pgx.Tx,
	key domain.ShowtimeKey,
	seatNumbers []string) ([]domain.Seat, error) {

	query := `
		SELECT seat_number, seat_type, price
		FROM seats
		WHERE theater_id = $1 AND screen_number = $2 AND seat_number = ANY($3)
		ORDER BY seat_number
	`

	rows, err := tx.Query(ctx, query, key.TheaterID, key.ScreenNumber, seatNumbers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]domain.Seat, 0, len(seatNumbers))

	for rows.Next() {
		seat := domain.Seat{TheaterID: key.TheaterID, ScreenNumber: key.ScreenNumber}

		err = rows.Scan(&seat.SeatNumber, &seat.SeatType, &seat.Price)
		if err != nil {
			return nil, err
		}

		seats = append(seats, seat)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if len(seats) != len(seatNumbers) {
		return nil, domain.ErrRecordNotFound
	}

	return seats, nil
}

func (p *PostgresBookingRepository) getCombosForBooking(
	ctx context.Context,
	tx pgx.Tx,
	selections []domain.ComboSelection) (map[int]domain.Combo, error) {

	combos := make(map[int]domain.Combo, len(selections))

	if len(selections) == 0 {
		return combos, nil
	}

	ids := make([]int, len(selections))
	for i, selection := range selections {
		ids[i] = selection.ComboID
	}

	query := `
		SELECT combo_id, name, price
		FROM combos
		WHERE combo_id = ANY($1)
	`

	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var combo domain.Combo

		err = rows.Scan(&combo.ID, &combo.Name, &combo.Price)
		if err != nil {
			return nil, err
		}

		combos[combo.ID] = combo
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	for _, selection := range selections {
		if _, ok := combos[selection.ComboID]; !ok {
			return nil, domain.ErrRecordNotFound
		}
	}

	return combos, nil
}

func (p *PostgresBookingRepository) insertTickets(
	ctx context.Context,
	tx pgx.Tx,
	bookingID int,
	key domain.ShowtimeKey,
	seats []domain.Seat) error {

	query := `
		INSERT INTO tickets
			(booking_id, theater_id, screen_number, seat_number, start_time, end_time, show_date, price_paid)
		VALUES ($1, $2, $3, $4, $5::time, $6::time, $7::date, $8)
	`

	for _, seat := range seats {
		_, err := tx.Exec(
			ctx,
			query,
			bookingID,
			key.TheaterID,
			key.ScreenNumber,
			seat.SeatNumber,
			key.StartTime,
			key.EndTime,
			key.Date,
			seat.Price)

		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
				return &domain.SeatsAlreadyBookedError{Seats: []string{seat.SeatNumber}}
			}

			return err
		}
	}

	return nil
}

func (p *PostgresBookingRepository) insertBookingCombos(
	ctx context.Context,
	tx pgx.Tx,
	bookingID int,
	selections []domain.ComboSelection) error {

	rows := make([][]any, 0, len(selections))

	for _, selection := range selections {
		if selection.Quantity <= 0 {
			continue
		}

		rows = append(rows, []any{bookingID, selection.ComboID, selection.Quantity})
	}

	if len(rows) == 0 {
		return nil
	}

	_, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"booking_combos"},
		[]string{"booking_id", "combo_id", "quantity"},
		pgx.CopyFromRows(rows),
	)

	return err
}

func (p *PostgresBookingRepository) GetByID(ctx context.Context, bookingID int) (*domain.Booking, error) {
	query := `
		SELECT booking_id, reference, user_id, payment_method, discount_amount, amount_paid, created_at, scanned_at
		FROM bookings
		WHERE booking_id = $1
	`

	var booking domain.Booking

	err := p.db.QueryRow(ctx, query, bookingID).Scan(
		&booking.ID,
		&booking.Reference,
		&booking.CustomerID,
		&booking.PaymentMethod,
		&booking.DiscountAmount,
		&booking.AmountPaid,
		&booking.CreatedAt,
		&booking.ScannedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &booking, nil
}

func (p *PostgresBookingRepository) GetDetail(ctx context.Context, bookingID int) (*domain.BookingDetail, error) {
	query := `
		SELECT
			b.booking_id,
			b.reference,
			b.user_id,
			b.payment_method,
			b.discount_amount,
			b.amount_paid,
			b.created_at,
			b.scanned_at,
			c.name,
			c.email,
			c.phone
		FROM bookings b
		JOIN customers c ON b.user_id = c.user_id
		WHERE b.booking_id = $1
	`

	var detail domain.BookingDetail

	err := p.db.QueryRow(ctx, query, bookingID).Scan(
		&detail.ID,
		&detail.Reference,
		&detail.CustomerID,
		&detail.PaymentMethod,
		&detail.DiscountAmount,
		&detail.AmountPaid,
		&detail.CreatedAt,
		&detail.ScannedAt,
		&detail.Customer.Name,
		&detail.Customer.Email,
		&detail.Customer.Phone,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	detail.Customer.ID = detail.CustomerID

	tickets, err := p.retrieveTickets(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	combos, err := p.retrieveBookingCombos(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	detail.Tickets = tickets
	detail.Combos = combos

	return &detail, nil
}

func (p *PostgresBookingRepository) retrieveTickets(ctx context.Context, bookingID int) ([]domain.TicketDetail, error) {
	query := `
		SELECT
			t.ticket_id,
			t.booking_id,
			t.seat_number,
			t.theater_id,
			t.screen_number,
			to_char(t.start_time, 'HH24:MI:SS'),
			to_char(t.end_time, 'HH24:MI:SS'),
			to_char(t.show_date, 'YYYY-MM-DD'),
			t.price_paid,
			t.purchased_at,
			s.seat_type,
			s.price,
			m.title,
			th.name
		FROM tickets t
		JOIN seats s ON t.theater_id = s.theater_id
			AND t.screen_number = s.screen_number
			AND t.seat_number = s.seat_number
		JOIN showtimes st ON t.theater_id = st.theater_id
			AND t.screen_number = st.screen_number
			AND t.start_time = st.start_time
			AND t.end_time = st.end_time
			AND t.show_date = st.show_date
		JOIN movies m ON st.movie_id = m.movie_id
		JOIN theaters th ON t.theater_id = th.theater_id
		WHERE t.booking_id = $1
		ORDER BY t.seat_number
	`

	rows, err := p.db.Query(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]domain.TicketDetail, 0)

	for rows.Next() {
		var ticket domain.TicketDetail

		err = rows.Scan(
			&ticket.ID,
			&ticket.BookingID,
			&ticket.SeatNumber,
			&ticket.Showtime.TheaterID,
			&ticket.Showtime.ScreenNumber,
			&ticket.Showtime.StartTime,
			&ticket.Showtime.EndTime,
			&ticket.Showtime.Date,
			&ticket.PricePaid,
			&ticket.PurchasedAt,
			&ticket.SeatType,
			&ticket.SeatPrice,
			&ticket.MovieTitle,
			&ticket.TheaterName,
		)
		if err != nil {
			return nil, err
		}

		tickets = append(tickets, ticket)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return tickets, nil
}

func (p *PostgresBookingRepository) retrieveBookingCombos(ctx context.Context, bookingID int) ([]domain.BookingComboDetail, error) {
	query := `
		SELECT c.combo_id, c.name, c.price, bc.quantity, c.image_url
		FROM booking_combos bc
		JOIN combos c ON bc.combo_id = c.combo_id
		WHERE bc.booking_id = $1
		ORDER BY c.combo_id
	`

	rows, err := p.db.Query(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	combos := make([]domain.BookingComboDetail, 0)

	for rows.Next() {
		var combo domain.BookingComboDetail

		err = rows.Scan(&combo.ComboID, &combo.Name, &combo.Price, &combo.Quantity, &combo.ImageURL)
		if err != nil {
			return nil, err
		}

		combos = append(combos, combo)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return combos, nil
}

func (p *PostgresBookingRepository) GetSummariesByCustomer(
	ctx context.Context,
	customerID int,
	pagination domain.Pagination) ([]domain.BookingSummary, *domain.Metadata, error) {

	query := `
		SELECT
			COUNT(*) OVER(),
			b.booking_id,
			b.reference,
			b.user_id,
			b.payment_method,
			b.discount_amount,
			b.amount_paid,
			b.created_at,
			b.scanned_at,
			(SELECT COUNT(*) FROM tickets t WHERE t.booking_id = b.booking_id)
		FROM bookings b
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := p.db.Query(ctx, query, customerID, pagination.Limit(), pagination.Offset())
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	summaries := make([]domain.BookingSummary, 0)
	totalRecords := 0

	for rows.Next() {
		var summary domain.BookingSummary

		err = rows.Scan(
			&totalRecords,
			&summary.ID,
			&summary.Reference,
			&summary.CustomerID,
			&summary.PaymentMethod,
			&summary.DiscountAmount,
			&summary.AmountPaid,
			&summary.CreatedAt,
			&summary.ScannedAt,
			&summary.TicketCount,
		)
		if err != nil {
			return nil, nil, err
		}

		summaries = append(summaries, summary)
	}

	if err = rows.Err(); err != nil {
		return nil, nil, err
	}

	metadata := domain.NewMetadata(totalRecords, pagination.Page, pagination.PageSize)

	return summaries, metadata, nil
}

func (p *PostgresBookingRepository) GetAll(
	ctx context.Context,
	filters domain.BookingFilters) ([]domain.BookingSummary, *domain.Metadata, error) {

	query := `
		SELECT
			COUNT(*) OVER(),
			b.booking_id,
			b.reference,
			b.user_id,
			b.payment_method,
			b.discount_amount,
			b.amount_paid,
			b.created_at,
			b.scanned_at,
			c.name,
			c.email,
			(SELECT COUNT(*) FROM tickets t WHERE t.booking_id = b.booking_id)
		FROM bookings b
		JOIN customers c ON b.user_id = c.user_id
		WHERE ($1::date IS NULL OR b.created_at::date = $1::date)
		ORDER BY b.created_at DESC
		LIMIT $2 OFFSET $3
	`

	var date any
	if filters.Date != "" {
		date = filters.Date
	}

	rows, err := p.db.Query(ctx, query, date, filters.Limit(), filters.Offset())
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	summaries := make([]domain.BookingSummary, 0)
	totalRecords := 0

	for rows.Next() {
		var summary domain.BookingSummary

		err = rows.Scan(
			&totalRecords,
			&summary.ID,
			&summary.Reference,
			&summary.CustomerID,
			&summary.PaymentMethod,
			&summary.DiscountAmount,
			&summary.AmountPaid,
			&summary.CreatedAt,
			&summary.ScannedAt,
			&summary.CustomerName,
			&summary.CustomerEmail,
			&summary.TicketCount,
		)
		if err != nil {
			return nil, nil, err
		}

		summaries = append(summaries, summary)
	}

	if err = rows.Err(); err != nil {
		return nil, nil, err
	}

	metadata := domain.NewMetadata(totalRecords, filters.Page, filters.PageSize)

	return summaries, metadata, nil
}

// Delete removes the booking together with its tickets and combo lines in one
// transaction, so a cancelled booking can never be observed with dangling
// tickets. The child deletes are explicit even though the foreign keys
// cascade.
func (p *PostgresBookingRepository) Delete(ctx context.Context, bookingID int) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `DELETE FROM booking_combos WHERE booking_id = $1`, bookingID)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `DELETE FROM tickets WHERE booking_id = $1`, bookingID)
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM bookings WHERE booking_id = $1`, bookingID)
		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return domain.ErrRecordNotFound
		}

		return nil
	})
}

func (p *PostgresBookingRepository) MarkScanned(ctx context.Context, bookingID int) error {
	query := `
		UPDATE bookings
		SET scanned_at = NOW()
		WHERE booking_id = $1
	`

	tag, err := p.db.Exec(ctx, query, bookingID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}
