package rules

import (
	"context"
	"encoding/json"
	"fmt"

	"ludarena/domain"
)

// scriptState is the blob format of the scripted oracle: the ply count
// and the last accepted move. Opaque to every caller.
type scriptState struct {
	Ply  int    `json:"ply"`
	Last string `json:"last,omitempty"`
}

// Script is a deterministic in-process oracle used by tests and local
// play. It accepts any move except those listed illegal, and ends the
// session on moves listed terminal. Real deployments point the
// coordinator at a remote oracle instead.
type Script struct {
	// Illegal moves are rejected without changing state.
	Illegal map[string]struct{}
	// Terminal maps a move to the outcome it produces once accepted.
	Terminal map[string]domain.Outcome
}

func NewScript() *Script {
	return &Script{
		Illegal:  make(map[string]struct{}),
		Terminal: make(map[string]domain.Outcome),
	}
}

func (s *Script) Reject(moves ...string) *Script {
	for _, m := range moves {
		s.Illegal[m] = struct{}{}
	}
	return s
}

func (s *Script) EndOn(move string, outcome domain.Outcome) *Script {
	s.Terminal[move] = outcome
	return s
}

func (s *Script) Initial(_ context.Context) ([]byte, error) {
	return json.Marshal(scriptState{Ply: 0})
}

func (s *Script) Apply(_ context.Context, state []byte, move string) (Verdict, error) {
	var st scriptState
	if err := json.Unmarshal(state, &st); err != nil {
		return Verdict{}, fmt.Errorf("decode oracle state: %w", err)
	}
	if move == "" {
		return Verdict{}, nil
	}
	if _, ok := s.Illegal[move]; ok {
		return Verdict{}, nil
	}

	st.Ply++
	st.Last = move
	blob, err := json.Marshal(st)
	if err != nil {
		return Verdict{}, err
	}

	verdict := Verdict{Accepted: true, NewState: blob}
	if outcome, ok := s.Terminal[move]; ok {
		verdict.Terminal = true
		verdict.Outcome = outcome
	}
	return verdict, nil
}
