package validator

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

const (
	ErrRequired      = "is required"
	ErrMinValue      = "must be at least %s"
	ErrMaxValue      = "must be at most %s"
	ErrDatetime      = "must match the format %s"
	ErrOneOf         = "must be one of: %s"
	ErrPaymentMethod = "must be one of: card, momo, cash"
	ErrSeatNumber    = "must be a row letter followed by a seat number (e.g. A1)"
	ErrInvalid       = "is invalid"
)

var (
	paymentMethods = map[string]bool{
		"card": true,
		"momo": true,
		"cash": true,
	}

	seatNumberRgx = regexp.MustCompile(`^[A-Z]{1,2}[0-9]{1,3}$`)
)

func NewValidator() *validator.Validate {
	validator := validator.New(validator.WithRequiredStructEnabled())

	validator.RegisterValidation("payment_method", validatePaymentMethod)
	validator.RegisterValidation("seat_number", validateSeatNumber)

	return validator
}

func validatePaymentMethod(fl validator.FieldLevel) bool {
	return paymentMethods[fl.Field().String()]
}

func validateSeatNumber(fl validator.FieldLevel) bool {
	return seatNumberRgx.MatchString(fl.Field().String())
}

// ValidationMessage converts validator errors into readable messages
func ValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return ErrRequired
	case "min":
		return fmt.Sprintf(ErrMinValue, err.Param())
	case "max":
		return fmt.Sprintf(ErrMaxValue, err.Param())
	case "datetime":
		return fmt.Sprintf(ErrDatetime, err.Param())
	case "oneof":
		return fmt.Sprintf(ErrOneOf, err.Param())
	case "payment_method":
		return ErrPaymentMethod
	case "seat_number":
		return ErrSeatNumber
	default:
		return ErrInvalid
	}
}
