package repository

import (
	"context"
	"errors"

	"github.com/cinetix/cinema-booking-system/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresShowtimeRepository struct {
	db *pgxpool.Pool
}

func NewPostgresShowtimeRepository(db *pgxpool.Pool) *PostgresShowtimeRepository {
	return &PostgresShowtimeRepository{
		db: db,
	}
}

func (p *PostgresShowtimeRepository) FindByKey(ctx context.Context, key domain.ShowtimeKey) (*domain.Showtime, error) {
	query := `
		SELECT s.movie_id, m.title, t.name, s.created_by
		FROM showtimes s
		JOIN movies m ON s.movie_id = m.movie_id
		JOIN theaters t ON s.theater_id = t.theater_id
		WHERE s.theater_id = $1
			AND s.screen_number = $2
			AND s.start_time = $3::time
			AND s.end_time = $4::time
			AND s.show_date = $5::date
	`

	showtime := domain.Showtime{Key: key}

	err := p.db.QueryRow(
		ctx,
		query,
		key.TheaterID,
		key.ScreenNumber,
		key.StartTime,
		key.EndTime,
		key.Date).Scan(
		&showtime.MovieID,
		&showtime.MovieTitle,
		&showtime.TheaterName,
		&showtime.CreatedBy,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &showtime, nil
}
