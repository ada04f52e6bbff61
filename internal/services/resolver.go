package services

import (
	"fmt"

	"telecasino-dice/internal/models"
)

// ResolveBet reports whether bet wins on the dice die1 and die2.
//
// Sum bets win when the total equals the bet's target. Odd and Even win on
// the parity of the total. Under7 and Over7 win strictly below or above
// seven, so a total of seven loses both. Pair bets win only when both dice
// show the bet's face.
func ResolveBet(bet models.BetType, die1, die2 int) (bool, error) {
	if !models.ValidFace(die1) || !models.ValidFace(die2) {
		return false, models.NewError(models.CodeInvalidRange,
			fmt.Sprintf("dice (%d, %d) outside %d..%d", die1, die2, models.MinFace, models.MaxFace))
	}

	sum := die1 + die2

	switch bet.Family() {
	case models.FamilySum:
		return sum == bet.SumTarget(), nil
	case models.FamilyParity:
		if bet == models.BetOdd {
			return sum%2 == 1, nil
		}
		return sum%2 == 0, nil
	case models.FamilyThreshold:
		if bet == models.BetUnder7 {
			return sum < 7, nil
		}
		return sum > 7, nil
	case models.FamilyPair:
		face := bet.PairFace()
		return die1 == face && die2 == face, nil
	default:
		return false, models.NewError(models.CodeUnhandledBetType, fmt.Sprintf("no win rule for %s", bet))
	}
}
