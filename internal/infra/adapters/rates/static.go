package rates

import (
	"context"

	"github.com/shopspring/decimal"

	"invoiceflow/internal/domain"
	"invoiceflow/internal/domain/model"
	"invoiceflow/internal/domain/ports/adapter"
)

var _ adapter.RateSource = (*StaticSource)(nil)

// staticRates are fixed USD rates for offline and dev runs.
var staticRates = map[model.Currency]decimal.Decimal{
	model.CurrencyBTC:  decimal.NewFromInt(43000),
	model.CurrencyETH:  decimal.NewFromInt(2400),
	model.CurrencyUSDT: decimal.NewFromInt(1),
	model.CurrencyUSDC: decimal.NewFromInt(1),
}

// StaticSource serves rates from a fixed table. No network involved.
type StaticSource struct{}

func NewStaticSource() *StaticSource { return &StaticSource{} }

func (s *StaticSource) USDRate(ctx context.Context, currency model.Currency) (decimal.Decimal, error) {
	rate, ok := staticRates[currency]
	if !ok {
		return decimal.Zero, domain.ErrInvalidArgument
	}
	return rate, nil
}
