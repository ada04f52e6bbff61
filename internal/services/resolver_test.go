package services_test

import (
	"errors"
	"testing"

	"telecasino-dice/internal/models"
	"telecasino-dice/internal/services"
)

func TestResolveBetExamples(t *testing.T) {
	tests := []struct {
		bet        models.BetType
		die1, die2 int
		want       bool
	}{
		{models.BetTwo, 1, 1, true},
		{models.BetTwelve, 6, 6, true},
		{models.BetSeven, 3, 4, true},
		{models.BetSeven, 6, 6, false},
		{models.BetPair3, 3, 3, true},
		{models.BetPair3, 3, 4, false},
		{models.BetPair3, 4, 4, false},
		{models.BetOdd, 2, 3, true},
		{models.BetEven, 2, 3, false},
		{models.BetEven, 2, 5, false},
		{models.BetUnder7, 1, 2, true},
		{models.BetOver7, 6, 6, true},
		{models.BetUnder7, 3, 4, false},
		{models.BetOver7, 3, 4, false},
	}

	for _, tt := range tests {
		got, err := services.ResolveBet(tt.bet, tt.die1, tt.die2)
		if err != nil {
			t.Fatalf("ResolveBet(%s, %d, %d) failed: %v", tt.bet, tt.die1, tt.die2, err)
		}
		if got != tt.want {
			t.Errorf("ResolveBet(%s, %d, %d) = %v, want %v", tt.bet, tt.die1, tt.die2, got, tt.want)
		}
	}
}

// TestResolveBetGrid checks every bet against every roll: results are
// stable across calls and each roll wins exactly the bets its predicates
// allow.
func TestResolveBetGrid(t *testing.T) {
	for d1 := 1; d1 <= 6; d1++ {
		for d2 := 1; d2 <= 6; d2++ {
			sum := d1 + d2
			wins := map[models.BetType]bool{}

			for _, bet := range models.AllBetTypes {
				first, err := services.ResolveBet(bet, d1, d2)
				if err != nil {
					t.Fatalf("ResolveBet(%s, %d, %d) failed: %v", bet, d1, d2, err)
				}
				second, _ := services.ResolveBet(bet, d1, d2)
				if first != second {
					t.Fatalf("ResolveBet(%s, %d, %d) is not deterministic", bet, d1, d2)
				}
				if first {
					wins[bet] = true
				}
			}

			sumWins := 0
			for b := models.BetTwo; b <= models.BetTwelve; b++ {
				if wins[b] {
					sumWins++
				}
			}
			if sumWins != 1 || !wins[models.BetType(sum)] {
				t.Errorf("(%d, %d): expected only the %d sum bet to win", d1, d2, sum)
			}

			if wins[models.BetOdd] == wins[models.BetEven] {
				t.Errorf("(%d, %d): exactly one of Odd/Even must win", d1, d2)
			}

			switch {
			case sum == 7 && (wins[models.BetUnder7] || wins[models.BetOver7]):
				t.Errorf("(%d, %d): seven must lose Under7 and Over7", d1, d2)
			case sum != 7 && wins[models.BetUnder7] == wins[models.BetOver7]:
				t.Errorf("(%d, %d): exactly one of Under7/Over7 must win", d1, d2)
			}

			pairWins := 0
			for _, b := range []models.BetType{
				models.BetPair1, models.BetPair2, models.BetPair3,
				models.BetPair4, models.BetPair5, models.BetPair6,
			} {
				if wins[b] {
					pairWins++
					if b.PairFace() != d1 || d1 != d2 {
						t.Errorf("(%d, %d): %s should not win", d1, d2, b)
					}
				}
			}
			if d1 == d2 && pairWins != 1 {
				t.Errorf("(%d, %d): expected exactly one pair bet to win, got %d", d1, d2, pairWins)
			}
			if d1 != d2 && pairWins != 0 {
				t.Errorf("(%d, %d): no pair bet should win", d1, d2)
			}
		}
	}
}

func TestResolveBetErrors(t *testing.T) {
	if _, err := services.ResolveBet(models.BetType(99), 1, 2); !errors.Is(err, models.ErrUnhandledBetType) {
		t.Errorf("expected ErrUnhandledBetType, got %v", err)
	}
	if _, err := services.ResolveBet(models.BetSeven, 0, 7); !errors.Is(err, models.ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange, got %v", err)
	}
}
