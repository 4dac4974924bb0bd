package mocks

import (
	"context"

	"github.com/cinetix/cinema-booking-system/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockSeatRepo struct {
	mock.Mock
	domain.SeatRepository
}

func (m *MockSeatRepo) GetByAuditorium(ctx context.Context, theaterID, screenNumber int) ([]domain.Seat, error) {
	args := m.Called(ctx, theaterID, screenNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Seat), args.Error(1)
}

func (m *MockSeatRepo) GetBookedSeatNumbers(ctx context.Context, key domain.ShowtimeKey) ([]string, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
