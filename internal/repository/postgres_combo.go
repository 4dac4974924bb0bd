package repository

import (
	"context"

	"github.com/cinetix/cinema-booking-system/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresComboRepository struct {
	db *pgxpool.Pool
}

func NewPostgresComboRepository(db *pgxpool.Pool) *PostgresComboRepository {
	return &PostgresComboRepository{
		db: db,
	}
}

func (p *PostgresComboRepository) GetByIDs(ctx context.Context, ids []int) ([]domain.Combo, error) {
	query := `
		SELECT combo_id, name, price, image_url
		FROM combos
		WHERE combo_id = ANY($1)
		ORDER BY combo_id
	`

	rows, err := p.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	combos := make([]domain.Combo, 0, len(ids))

	for rows.Next() {
		var combo domain.Combo

		err = rows.Scan(&combo.ID, &combo.Name, &combo.Price, &combo.ImageURL)
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
