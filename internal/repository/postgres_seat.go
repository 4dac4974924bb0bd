package repository

import (
	"context"

	"github.com/cinetix/cinema-booking-system/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresSeatRepository struct {
	db *pgxpool.Pool
}

func NewPostgresSeatRepository(db *pgxpool.Pool) *PostgresSeatRepository {
	return &PostgresSeatRepository{
		db: db,
	}
}

func (p *PostgresSeatRepository) GetByAuditorium(ctx context.Context, theaterID, screenNumber int) ([]domain.Seat, error) {
	query := `
		SELECT theater_id, screen_number, seat_number, seat_type, price
		FROM seats
		WHERE theater_id = $1 AND screen_number = $2
		ORDER BY seat_number
	`

	rows, err := p.db.Query(ctx, query, theaterID, screenNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]domain.Seat, 0)

	for rows.Next() {
		var seat domain.Seat

		err = rows.Scan(
			&seat.TheaterID,
			&seat.ScreenNumber,
			&seat.SeatNumber,
			&seat.SeatType,
			&seat.Price,
		)
		if err != nil {
			return nil, err
		}

		seats = append(seats, seat)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return seats, nil
}

func (p *PostgresSeatRepository) GetBookedSeatNumbers(ctx context.Context, key domain.ShowtimeKey) ([]string, error) {
	query := `
		SELECT seat_number
		FROM tickets
		WHERE theater_id = $1
			AND screen_number = $2
			AND start_time = $3::time
			AND end_time = $4::time
			AND show_date = $5::date
		ORDER BY seat_number
	`

	rows, err := p.db.Query(
		ctx,
		query,
		key.TheaterID,
		key.ScreenNumber,
		key.StartTime,
		key.EndTime,
		key.Date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seatNumbers := make([]string, 0)

	for rows.Next() {
		var seatNumber string

		if err = rows.Scan(&seatNumber); err != nil {
			return nil, err
		}

		seatNumbers = append(seatNumbers, seatNumber)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return seatNumbers, nil
}
