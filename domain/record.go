package domain

import "time"

// CompletedRecord is the immutable settlement artifact of one session.
// Written exactly once, append-only.
type CompletedRecord struct {
	SessionID string
	Class     Class

	WhiteID string
	BlackID string
	Outcome Outcome
	Reason  TerminateReason

	// Moves is the full accepted transition log, in commit order.
	Moves []string

	WhiteRatingBefore int
	BlackRatingBefore int
	WhiteRatingAfter  int
	BlackRatingAfter  int

	PlayedAt time.Time
}

// DeltaFor returns the signed rating change this record applied to an account.
func (r CompletedRecord) DeltaFor(accountID string) int {
	switch accountID {
	case r.WhiteID:
		return r.WhiteRatingAfter - r.WhiteRatingBefore
	case r.BlackID:
		return r.BlackRatingAfter - r.BlackRatingBefore
	}
	return 0
}
