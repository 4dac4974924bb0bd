package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

type Combo struct {
	ID       int
	Name     string
	Price    decimal.Decimal
	ImageURL string
}

type ComboRepository interface {
	GetByIDs(ctx context.Context, ids []int) ([]Combo, error)
}
