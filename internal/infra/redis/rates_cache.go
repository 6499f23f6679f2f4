package redis

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"invoiceflow/internal/domain/model"
	"invoiceflow/internal/domain/ports/adapter"
)

// Ensure RatesCache implements adapter.RateSource
var _ adapter.RateSource = (*RatesCache)(nil)

// RatesCache memoizes USD rates from an upstream source so that a burst of
// fiat-snapshot lookups does not hammer the provider.
type RatesCache struct {
	client   *redClient
	upstream adapter.RateSource
	ttl      time.Duration
}

func NewRatesCache(client *redClient, upstream adapter.RateSource, ttl time.Duration) *RatesCache {
	return &RatesCache{
		client:   client,
		upstream: upstream,
		ttl:      ttl,
	}
}

func (c *RatesCache) USDRate(ctx context.Context, currency model.Currency) (decimal.Decimal, error) {
	key := "rate:usd:" + string(currency)
	if data, err := c.client.Get(ctx, key); err == nil {
		if rate, err := decimal.NewFromString(data); err == nil {
			return rate, nil
		}
	}

	rate, err := c.upstream.USDRate(ctx, currency)
	if err != nil {
		return decimal.Zero, err
	}
	// Best effort: a failed cache write must not fail the lookup.
	_ = c.client.Set(ctx, key, rate.String(), c.ttl)
	return rate, nil
}
