package mocks

import (
	"context"

	"github.com/cinetix/cinema-booking-system/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockShowtimeRepo struct {
	mock.Mock
	domain.ShowtimeRepository
}

func (m *MockShowtimeRepo) FindByKey(ctx context.Context, key domain.ShowtimeKey) (*domain.Showtime, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Showtime), args.Error(1)
}
