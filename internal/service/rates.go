package service

import (
	"context"
	"strings"

	"cake-marketplace/internal/apperr"

	"github.com/shopspring/decimal"
)

// RateProvider converts between currencies: amount_in_to = amount_in_from * Rate(from, to).
type RateProvider interface {
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

type Country struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// SupportedCountries are the destinations online payments can be charged in.
var SupportedCountries = []Country{
	{Name: "Nigeria", Currency: "NGN"},
	{Name: "Ghana", Currency: "GHS"},
	{Name: "Kenya", Currency: "KES"},
	{Name: "South Africa", Currency: "ZAR"},
	{Name: "Egypt", Currency: "EGP"},
	{Name: "Rwanda", Currency: "RWF"},
	{Name: "Côte d'Ivoire", Currency: "XOF"},
}

func CurrencyForCountry(country string) (string, bool) {
	for _, c := range SupportedCountries {
		if strings.EqualFold(c.Name, strings.TrimSpace(country)) {
			return c.Currency, true
		}
	}
	return "", false
}

// StaticRateProvider serves a fixed table of units per US dollar.
type StaticRateProvider struct {
	perUSD map[string]decimal.Decimal
}

func NewStaticRateProvider() *StaticRateProvider {
	return &StaticRateProvider{
		perUSD: map[string]decimal.Decimal{
			"USD": decimal.NewFromInt(1),
			"NGN": decimal.RequireFromString("1500"),
			"GHS": decimal.RequireFromString("12.5"),
			"KES": decimal.RequireFromString("129"),
			"ZAR": decimal.RequireFromString("18.5"),
			"EGP": decimal.RequireFromString("48.5"),
			"RWF": decimal.RequireFromString("1350"),
			"XOF": decimal.RequireFromString("605"),
		},
	}
}

func (p *StaticRateProvider) Rate(_ context.Context, from, to string) (decimal.Decimal, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	fromRate, ok := p.perUSD[from]
	if !ok {
		return decimal.Zero, apperr.Validation("no exchange rate for %s", from)
	}
	toRate, ok := p.perUSD[to]
	if !ok {
		return decimal.Zero, apperr.Validation("no exchange rate for %s", to)
	}

	return toRate.DivRound(fromRate, 8), nil
}

// toMinorUnits converts amount into to-currency minor units, rounded half away from zero.
func toMinorUnits(amount, rate decimal.Decimal) (decimal.Decimal, int64) {
	minor := amount.Mul(rate).Mul(decimal.NewFromInt(100)).Round(0)
	return minor.Shift(-2), minor.IntPart()
}
