// Package rating computes Elo adjustments. It is pure: no storage,
// no clock, no logging, so it stays independently testable.
package rating

import (
	"math"

	"ludarena/domain"
)

// KFactor is applied to both seats. With a shared K the two deltas are
// equal in magnitude and opposite in sign, rounding aside.
const KFactor = 32

// Settle returns the post-session ratings for white and black.
func Settle(white, black int, outcome domain.Outcome) (int, int) {
	var scoreWhite, scoreBlack float64
	switch outcome {
	case domain.OutcomeWhiteWins:
		scoreWhite, scoreBlack = 1, 0
	case domain.OutcomeBlackWins:
		scoreWhite, scoreBlack = 0, 1
	default:
		scoreWhite, scoreBlack = 0.5, 0.5
	}
	return next(white, black, scoreWhite), next(black, white, scoreBlack)
}

func next(rating, opponent int, score float64) int {
	expected := 1 / (1 + math.Pow(10, float64(opponent-rating)/400))
	return int(math.Round(float64(rating) + KFactor*(score-expected)))
}
