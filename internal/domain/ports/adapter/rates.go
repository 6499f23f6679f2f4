package adapter

import (
	"context"

	"github.com/shopspring/decimal"

	"invoiceflow/internal/domain/model"
)

// RateSource quotes the USD price of one unit of a supported asset. It is
// consulted exactly once per subscription or ad hoc invoice, at creation
// time; the resulting fiat snapshot is never refreshed afterwards.
type RateSource interface {
	USDRate(ctx context.Context, currency model.Currency) (decimal.Decimal, error)
}
