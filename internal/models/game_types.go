package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// BetType identifies what a wager is placed on. Values match the
// numeric codes clients have always used, so they are never renumbered.
type BetType int

const (
	BetTwo    BetType = 2
	BetThree  BetType = 3
	BetFour   BetType = 4
	BetFive   BetType = 5
	BetSix    BetType = 6
	BetSeven  BetType = 7
	BetEight  BetType = 8
	BetNine   BetType = 9
	BetTen    BetType = 10
	BetEleven BetType = 11
	BetTwelve BetType = 12

	BetUnder7 BetType = 20
	BetOver7  BetType = 21

	BetPair1 BetType = 32
	BetPair2 BetType = 34
	BetPair3 BetType = 36
	BetPair4 BetType = 38
	BetPair5 BetType = 40
	BetPair6 BetType = 42

	BetOdd  BetType = 51
	BetEven BetType = 52
)

// BetFamily groups bet types that share a win predicate.
type BetFamily int

const (
	FamilyUnknown BetFamily = iota
	FamilySum
	FamilyParity
	FamilyThreshold
	FamilyPair
)

func (f BetFamily) String() string {
	switch f {
	case FamilySum:
		return "sum"
	case FamilyParity:
		return "parity"
	case FamilyThreshold:
		return "threshold"
	case FamilyPair:
		return "pair"
	default:
		return "unknown"
	}
}

// AllBetTypes lists every bet type in display order.
var AllBetTypes = []BetType{
	BetTwo, BetThree, BetFour, BetFive, BetSix, BetSeven,
	BetEight, BetNine, BetTen, BetEleven, BetTwelve,
	BetUnder7, BetOver7,
	BetPair1, BetPair2, BetPair3, BetPair4, BetPair5, BetPair6,
	BetOdd, BetEven,
}

var betTypeNames = map[BetType]string{
	BetTwo:    "Two",
	BetThree:  "Three",
	BetFour:   "Four",
	BetFive:   "Five",
	BetSix:    "Six",
	BetSeven:  "Seven",
	BetEight:  "Eight",
	BetNine:   "Nine",
	BetTen:    "Ten",
	BetEleven: "Eleven",
	BetTwelve: "Twelve",
	BetUnder7: "Under7",
	BetOver7:  "Over7",
	BetPair1:  "Pair1",
	BetPair2:  "Pair2",
	BetPair3:  "Pair3",
	BetPair4:  "Pair4",
	BetPair5:  "Pair5",
	BetPair6:  "Pair6",
	BetOdd:    "Odd",
	BetEven:   "Even",
}

func (b BetType) String() string {
	if name, ok := betTypeNames[b]; ok {
		return name
	}
	return fmt.Sprintf("BetType(%d)", int(b))
}

// Valid reports whether b is one of the declared bet types.
func (b BetType) Valid() bool {
	_, ok := betTypeNames[b]
	return ok
}

// Family returns the predicate family of b, or FamilyUnknown.
func (b BetType) Family() BetFamily {
	switch {
	case b >= BetTwo && b <= BetTwelve:
		return FamilySum
	case b == BetOdd || b == BetEven:
		return FamilyParity
	case b == BetUnder7 || b == BetOver7:
		return FamilyThreshold
	case b >= BetPair1 && b <= BetPair6 && b%2 == 0:
		return FamilyPair
	default:
		return FamilyUnknown
	}
}

// SumTarget is the dice total a sum bet needs. Zero for other families.
func (b BetType) SumTarget() int {
	if b.Family() != FamilySum {
		return 0
	}
	return int(b)
}

// PairFace is the face both dice must show for a pair bet. Zero for
// other families.
func (b BetType) PairFace() int {
	if b.Family() != FamilyPair {
		return 0
	}
	return (int(b)-int(BetPair1))/2 + 1
}

// ParseBetType accepts a bet name in any letter case ("seven", "Pair3",
// "OVER7") or a numeric dice total ("2" through "12").
func ParseBetType(s string) (BetType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, NewError(CodeUnknownBetType, "bet type is empty")
	}

	if n, err := strconv.Atoi(s); err == nil {
		b := BetType(n)
		if b.Family() == FamilySum {
			return b, nil
		}
		return 0, NewError(CodeUnknownBetType, fmt.Sprintf("unknown bet type %q", s))
	}

	for b, name := range betTypeNames {
		if strings.EqualFold(name, s) {
			return b, nil
		}
	}

	return 0, NewError(CodeUnknownBetType, fmt.Sprintf("unknown bet type %q", s))
}

func (b BetType) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

func (b *BetType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n int
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("bet type must be a string or number: %w", err)
		}
		if !BetType(n).Valid() {
			return NewError(CodeUnknownBetType, fmt.Sprintf("unknown bet type %d", n))
		}
		*b = BetType(n)
		return nil
	}

	parsed, err := ParseBetType(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
