// Package domain contains core concepts of the arena system.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

// DefaultRating is applied exactly once, at account construction.
// Every other component reads whatever the gateway returns.
const DefaultRating = 1200

type Account struct {
	ID           string
	Username     string
	PasswordHash string
	Rating       int
	GamesPlayed  int
	GamesWon     int
	GamesLost    int
	GamesDrawn   int
	CreatedAt    time.Time
	LastLogin    *time.Time // nil until the first login
}
