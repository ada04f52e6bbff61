package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlayRequest is the query a caller sends to play one round.
type PlayRequest struct {
	Wager         string `form:"wager" binding:"required"`
	BetArg        string `form:"betArg" binding:"required"`
	GameSessionID int64  `form:"gameSessionId" binding:"min=0"`
}

// AllowedWagers is the set of denominations a round accepts.
var AllowedWagers = []decimal.Decimal{
	decimal.RequireFromString("0.05"),
	decimal.RequireFromString("0.10"),
	decimal.RequireFromString("0.50"),
	decimal.RequireFromString("1.00"),
	decimal.RequireFromString("2.00"),
	decimal.RequireFromString("5.00"),
	decimal.RequireFromString("10.00"),
	decimal.RequireFromString("25.00"),
	decimal.RequireFromString("50.00"),
}

func GenerateRoundID() string {
	return uuid.NewString()
}

// ParseWager parses s and checks it against AllowedWagers.
func ParseWager(s string) (decimal.Decimal, error) {
	w, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("wager %q is not a number", s)
	}
	if err := ValidateWager(w); err != nil {
		return decimal.Zero, err
	}
	return w, nil
}

func ValidateWager(w decimal.Decimal) error {
	if !w.IsPositive() {
		return fmt.Errorf("wager must be positive")
	}
	for _, allowed := range AllowedWagers {
		if w.Equal(allowed) {
			return nil
		}
	}

	opts := make([]string, len(AllowedWagers))
	for i, a := range AllowedWagers {
		opts[i] = a.StringFixed(2)
	}
	return fmt.Errorf("invalid wager amount %s, allowed: %s", w.String(), strings.Join(opts, ", "))
}

// CalculatePayout returns the payout and net gain for a settled wager,
// both rounded to cents half to even.
func CalculatePayout(wager, multiplier decimal.Decimal, win bool) (payout, netGain decimal.Decimal) {
	payout = decimal.Zero
	if win {
		payout = wager.Mul(multiplier).RoundBank(2)
	}
	netGain = payout.Sub(wager).RoundBank(2)
	return payout, netGain
}

func FormatCurrency(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}
