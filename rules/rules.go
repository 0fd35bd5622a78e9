//go:generate go run go.uber.org/mock/mockgen -source=rules.go -destination=../mocks/mock_oracle.go -package=mocks

// Package rules defines the contract with the rules oracle, the external
// collaborator that owns game legality and terminal-state detection.
// The coordinator never inspects the state blob; it only carries it.
package rules

import (
	"context"

	"ludarena/domain"
)

// Verdict is the oracle's answer to one proposed transition.
// When Accepted is false the remaining fields carry nothing.
type Verdict struct {
	Accepted bool
	NewState []byte
	Terminal bool
	Outcome  domain.Outcome
}

// Oracle validates proposed transitions. Apply must be a pure function
// of its two inputs so verdicts are reproducible.
type Oracle interface {
	// Initial returns the state blob every new session starts from.
	Initial(ctx context.Context) ([]byte, error)
	// Apply validates move against state and returns the verdict.
	Apply(ctx context.Context, state []byte, move string) (Verdict, error)
}
