package domain

import "github.com/shopspring/decimal"

type ComboLine struct {
	Price    decimal.Decimal
	Quantity int
}

// CalculateTotal prices an order: sum of seat prices, plus unit price times
// quantity for every combo line, minus the flat discount. Pure function; the
// caller is responsible for having resolved every seat and combo beforehand.
func CalculateTotal(seatPrices []decimal.Decimal, combos []ComboLine, discount decimal.Decimal) decimal.Decimal {
	total := decimal.Zero

	for _, price := range seatPrices {
		total = total.Add(price)
	}

	for _, line := range combos {
		total = total.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	return total.Sub(discount)
}
