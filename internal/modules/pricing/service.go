// README: Pricing service computes booking cost estimates from day rates.
package pricing

import (
	"context"
	"errors"
	"math"

	"crewtrack/internal/types"
)

var (
	ErrNotFound   = errors.New("day rate not found")
	ErrBadRequest = errors.New("bad request")
)

type RateStore interface {
	GetRate(ctx context.Context, electricianID types.ID) (Rate, error)
}

type Service struct {
	store RateStore
}

// NewService builds the service. store may be nil when only Estimate is used.
func NewService(store RateStore) *Service {
	return &Service{store: store}
}

// Estimate prices hours of work at dayRate: round(hours * dayRate / 8).
func (s *Service) Estimate(hours int, dayRate types.Money) types.Money {
	amount := math.Round(float64(hours) * float64(dayRate.Amount) / WorkingDayHours)
	cur := dayRate.Currency
	if cur == "" {
		cur = DefaultCurrency
	}
	return types.Money{Amount: int64(amount), Currency: cur}
}

func (s *Service) DayRate(ctx context.Context, electricianID types.ID) (types.Money, error) {
	if electricianID == "" {
		return types.Money{}, ErrBadRequest
	}
	if s.store == nil {
		return types.Money{}, ErrNotFound
	}
	r, err := s.store.GetRate(ctx, electricianID)
	if err != nil {
		return types.Money{}, err
	}
	if r.DayRate.Amount < 0 {
		return types.Money{}, ErrBadRequest
	}
	if r.DayRate.Currency == "" {
		r.DayRate.Currency = DefaultCurrency
	}
	return r.DayRate, nil
}
