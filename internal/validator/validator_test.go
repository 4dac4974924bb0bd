package validator_test

import (
	"testing"

	appvalidator "github.com/cinetix/cinema-booking-system/internal/validator"
	"github.com/stretchr/testify/assert"
)

func TestPaymentMethodValidation(t *testing.T) {
	v := appvalidator.NewValidator()

	input := struct {
		PaymentMethod string `validate:"payment_method"`
	}{}

	for _, method := range []string{"card", "momo", "cash"} {
		input.PaymentMethod = method
		assert.NoError(t, v.Struct(input), "expected %q to be valid", method)
	}

	for _, method := range []string{"", "CARD", "paypal", "bank-transfer"} {
		input.PaymentMethod = method
		assert.Error(t, v.Struct(input), "expected %q to be invalid", method)
	}
}

func TestSeatNumberValidation(t *testing.T) {
	v := appvalidator.NewValidator()

	input := struct {
		SeatNumber string `validate:"seat_number"`
	}{}

	for _, seat := range []string{"A1", "B12", "AA1", "J100"} {
		input.SeatNumber = seat
		assert.NoError(t, v.Struct(input), "expected %q to be valid", seat)
	}

	for _, seat := range []string{"", "1A", "a1", "A", "A1234", "A-1"} {
		input.SeatNumber = seat
		assert.Error(t, v.Struct(input), "expected %q to be invalid", seat)
	}
}
