package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"invoiceflow/internal/domain"
)

type Currency string

const (
	CurrencyBTC  Currency = "BTC"
	CurrencyETH  Currency = "ETH"
	CurrencyUSDT Currency = "USDT"
	CurrencyUSDC Currency = "USDC"
)

// ParseCurrency maps user input onto the supported asset set.
func ParseCurrency(s string) (Currency, error) {
	switch Currency(strings.ToUpper(strings.TrimSpace(s))) {
	case CurrencyBTC:
		return CurrencyBTC, nil
	case CurrencyETH:
		return CurrencyETH, nil
	case CurrencyUSDT:
		return CurrencyUSDT, nil
	case CurrencyUSDC:
		return CurrencyUSDC, nil
	default:
		return "", domain.ErrInvalidArgument
	}
}

// decimals is the display precision per asset.
func (c Currency) decimals() int32 {
	switch c {
	case CurrencyBTC:
		return 8
	case CurrencyETH:
		return 6
	default:
		return 2
	}
}

// FormatAmount renders an amount with the asset's display precision.
func FormatAmount(amount decimal.Decimal, c Currency) string {
	return fmt.Sprintf("%s %s", amount.StringFixed(c.decimals()), c)
}

// PaymentURI builds the wallet deep link used for QR rendering.
// USDT/USDC are ERC-20 tokens, so they share the ethereum scheme.
func (c Currency) PaymentURI(address string, amount decimal.Decimal) string {
	switch c {
	case CurrencyBTC:
		return fmt.Sprintf("bitcoin:%s?amount=%s", address, amount.String())
	case CurrencyETH, CurrencyUSDT, CurrencyUSDC:
		return fmt.Sprintf("ethereum:%s?value=%s", address, amount.String())
	default:
		return fmt.Sprintf("%s:%s?amount=%s", strings.ToLower(string(c)), address, amount.String())
	}
}
