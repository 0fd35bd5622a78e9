package errors

import "fmt"

// Validation errors: recoverable, surfaced to the proposing client,
// the session is left untouched.
var (
	ErrNotYourTurn = fmt.Errorf("not your turn")
	ErrIllegalMove = fmt.Errorf("illegal move")
	ErrTimeExpired = fmt.Errorf("clock budget exhausted")
)

// Lifecycle errors: surfaced to the caller, no state change.
var (
	ErrSessionNotFound   = fmt.Errorf("session not found")
	ErrAlreadyQueued     = fmt.Errorf("account already in matchmaking queue")
	ErrAccountNotFound   = fmt.Errorf("account not found")
	ErrUserAlreadyExists = fmt.Errorf("username already taken")
	ErrNotAParticipant   = fmt.Errorf("account is not a participant of this session")
)

// Auth errors.
var (
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity rules")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrMissingToken       = fmt.Errorf("missing or malformed bearer token")
)

// Infrastructure errors.
var (
	ErrWorkerPanic       = fmt.Errorf("worker panic")
	ErrRecordExists      = fmt.Errorf("completed record already written for this session")
	ErrOracleUnreachable = fmt.Errorf("rules oracle unreachable")
)
