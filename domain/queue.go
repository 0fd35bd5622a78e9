package domain

import "time"

// Class is a matchmaking compatibility partition, a time format bucket.
// Only entries of the same class are ever paired.
type Class string

const (
	ClassBullet Class = "bullet"
	ClassBlitz  Class = "blitz"
	ClassRapid  Class = "rapid"
)

// Budget returns the clock allowance a class grants each seat.
func (c Class) Budget() ClockBudget {
	switch c {
	case ClassBullet:
		return ClockBudget{Initial: 1 * time.Minute, Increment: 0}
	case ClassRapid:
		return ClockBudget{Initial: 10 * time.Minute, Increment: 5 * time.Second}
	default:
		return ClockBudget{Initial: 5 * time.Minute, Increment: 2 * time.Second}
	}
}

func (c Class) Valid() bool {
	switch c {
	case ClassBullet, ClassBlitz, ClassRapid:
		return true
	}
	return false
}

// QueueEntry is one waiting account. At most one entry exists per
// account across all classes.
type QueueEntry struct {
	AccountID string
	Rating    int // snapshot at enqueue time
	Class     Class
	JoinedAt  time.Time
}
