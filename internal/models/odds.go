package models

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// OddsTable maps each bet type to its payout multiplier. Multipliers
// already include the house edge and are applied to the wager as is.
// A table is never mutated after construction.
type OddsTable struct {
	odds map[BetType]decimal.Decimal
}

// OddsEntry is one row of an OddsTable.
type OddsEntry struct {
	BetType    BetType         `json:"bet_type"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

// houseOdds are fair odds scaled by 0.95.
var houseOdds = map[BetType]string{
	BetTwo:    "33.25",
	BetThree:  "16.15",
	BetFour:   "10.45",
	BetFive:   "7.60",
	BetSix:    "5.89",
	BetSeven:  "4.75",
	BetEight:  "5.89",
	BetNine:   "7.60",
	BetTen:    "10.45",
	BetEleven: "16.15",
	BetTwelve: "33.25",

	BetOdd:    "1.90",
	BetEven:   "1.90",
	BetUnder7: "1.33",
	BetOver7:  "1.33",

	BetPair1: "35.00",
	BetPair2: "35.00",
	BetPair3: "35.00",
	BetPair4: "35.00",
	BetPair5: "35.00",
	BetPair6: "35.00",
}

var defaultOdds = mustOddsTable(houseOdds)

// DefaultOdds returns the process-wide house odds table.
func DefaultOdds() *OddsTable {
	return defaultOdds
}

// NewOddsTable builds a table from decimal strings. Every declared bet
// type must be present and every multiplier must be positive.
func NewOddsTable(raw map[BetType]string) (*OddsTable, error) {
	odds := make(map[BetType]decimal.Decimal, len(raw))
	for bet, s := range raw {
		if !bet.Valid() {
			return nil, fmt.Errorf("odds for undeclared bet type %d", int(bet))
		}
		m, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("odds for %s: %w", bet, err)
		}
		if !m.IsPositive() {
			return nil, fmt.Errorf("odds for %s must be positive, got %s", bet, s)
		}
		odds[bet] = m.Round(2)
	}

	for _, bet := range AllBetTypes {
		if _, ok := odds[bet]; !ok {
			return nil, fmt.Errorf("no odds for bet type %s", bet)
		}
	}

	return &OddsTable{odds: odds}, nil
}

func mustOddsTable(raw map[BetType]string) *OddsTable {
	t, err := NewOddsTable(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the multiplier for bet.
func (t *OddsTable) Lookup(bet BetType) (decimal.Decimal, error) {
	m, ok := t.odds[bet]
	if !ok {
		return decimal.Zero, NewError(CodeUnknownBetType, fmt.Sprintf("no odds for bet type %s", bet))
	}
	return m, nil
}

// All returns every entry ordered by bet type code.
func (t *OddsTable) All() []OddsEntry {
	entries := make([]OddsEntry, 0, len(t.odds))
	for bet, m := range t.odds {
		entries = append(entries, OddsEntry{BetType: bet, Multiplier: m})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].BetType < entries[j].BetType
	})
	return entries
}
