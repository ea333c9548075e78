// Package commission converts raw vendor quotes into the single price shown on a cart.
//
// The markup is folded into that price. Nothing downstream of the cart sees the
// split; callers that need it for reporting keep a Quote.
package commission

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeQuote   = errors.New("quote must not be negative")
	ErrNegativePercent = errors.New("commission percent must not be negative")
)

var hundred = decimal.NewFromInt(100)

// Quote is one application of the engine.
type Quote struct {
	RawCents       int64
	Percent        decimal.Decimal
	DisplayedCents int64
	MarginCents    int64
}

// Apply prices a raw quote at the given commission percent.
func Apply(rawCents int64, percent decimal.Decimal) (Quote, error) {
	displayed, err := Displayed(rawCents, percent)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		RawCents:       rawCents,
		Percent:        percent,
		DisplayedCents: displayed,
		MarginCents:    Margin(displayed, rawCents),
	}, nil
}

// Displayed returns round(raw * (1 + percent/100)), halves rounded up.
func Displayed(rawCents int64, percent decimal.Decimal) (int64, error) {
	if rawCents < 0 {
		return 0, ErrNegativeQuote
	}
	if percent.IsNegative() {
		return 0, ErrNegativePercent
	}
	return decimal.NewFromInt(rawCents).Mul(multiplier(percent)).Round(0).IntPart(), nil
}

// RawFromDisplayed recovers the raw quote from a displayed price. The result is
// within one minor unit of the original quote; it is not an exact inverse.
func RawFromDisplayed(displayedCents int64, percent decimal.Decimal) (int64, error) {
	if displayedCents < 0 {
		return 0, ErrNegativeQuote
	}
	if percent.IsNegative() {
		return 0, ErrNegativePercent
	}
	return decimal.NewFromInt(displayedCents).Div(multiplier(percent)).Round(0).IntPart(), nil
}

func Margin(displayedCents, rawCents int64) int64 {
	return displayedCents - rawCents
}

func multiplier(percent decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(1).Add(percent.Div(hundred))
}
