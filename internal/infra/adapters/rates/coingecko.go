package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"invoiceflow/internal/domain"
	"invoiceflow/internal/domain/model"
	"invoiceflow/internal/domain/ports/adapter"
)

var _ adapter.RateSource = (*CoinGeckoSource)(nil)

// coinGeckoIDs maps invoice currencies to CoinGecko coin ids.
var coinGeckoIDs = map[model.Currency]string{
	model.CurrencyBTC:  "bitcoin",
	model.CurrencyETH:  "ethereum",
	model.CurrencyUSDT: "tether",
	model.CurrencyUSDC: "usd-coin",
}

// CoinGeckoSource fetches spot USD prices from the CoinGecko simple-price API.
type CoinGeckoSource struct {
	baseURL string
	client  *http.Client
}

func NewCoinGeckoSource(baseURL string) *CoinGeckoSource {
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}
	return &CoinGeckoSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *CoinGeckoSource) USDRate(ctx context.Context, currency model.Currency) (decimal.Decimal, error) {
	id, ok := coinGeckoIDs[currency]
	if !ok {
		return decimal.Zero, domain.ErrInvalidArgument
	}

	endpoint := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", s.baseURL, url.QueryEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return decimal.Zero, domain.ErrRateUnavailable
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, domain.ErrRateUnavailable
	}

	var out map[string]map[string]json.Number
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return decimal.Zero, domain.ErrRateUnavailable
	}
	price, ok := out[id]["usd"]
	if !ok {
		return decimal.Zero, domain.ErrRateUnavailable
	}
	rate, err := decimal.NewFromString(price.String())
	if err != nil {
		return decimal.Zero, domain.ErrRateUnavailable
	}
	return rate, nil
}
