// Package session owns the authoritative in-memory state of every live
// session. Nothing else mutates a GameSession; every write goes through
// the commit protocol under that session's lock, so commits against one
// session are totally ordered while distinct sessions proceed in parallel.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"ludarena/domain"
	apperrors "ludarena/errors"
	"ludarena/rules"
)

// live wraps one session with its exclusion and its settlement guard.
// The settled flag lives under the same mutex as the commit path so a
// terminal move and a racing disconnect cannot both claim settlement.
type live struct {
	mu      sync.Mutex
	state   domain.GameSession
	settled bool
}

type Manager struct {
	log    *slog.Logger
	oracle rules.Oracle
	now    func() time.Time

	// onCommit runs inside the session lock, right after a transition
	// is accepted. The hub hangs its fanout here: because the lock is
	// still held, publishes happen in commit order, which is what gives
	// subscribers a FIFO view of one session. The hook must not block.
	onCommit func(CommitResult)

	// mu guards the map only, never a session's content.
	mu       sync.RWMutex
	sessions map[string]*live
}

func NewManager(log *slog.Logger, oracle rules.Oracle) *Manager {
	return &Manager{
		log:      log,
		oracle:   oracle,
		now:      time.Now,
		sessions: make(map[string]*live),
	}
}

// OnCommit installs the post-commit hook. Call before serving traffic.
func (m *Manager) OnCommit(fn func(CommitResult)) {
	m.onCommit = fn
}

// CommitResult is what a successful proposal yields: the post-commit
// snapshot plus the terminal verdict, if any.
type CommitResult struct {
	Session  domain.GameSession
	Terminal bool
	Outcome  domain.Outcome
}

// Create builds a new session for a matched pair and immediately
// activates it: both participants are known here, so the WAITING stop
// is only a formality between construction and clock arming.
func (m *Manager) Create(ctx context.Context, white, black domain.Participant, class domain.Class) (domain.GameSession, error) {
	initial, err := m.oracle.Initial(ctx)
	if err != nil {
		return domain.GameSession{}, fmt.Errorf("oracle initial state: %w", err)
	}

	budget := class.Budget()
	now := m.now().UTC()
	s := domain.GameSession{
		ID:             uuid.New().String(),
		Class:          class,
		White:          white,
		Black:          black,
		Status:         domain.StatusWaiting,
		State:          initial,
		Clock:          budget,
		WhiteRemaining: budget.Initial,
		BlackRemaining: budget.Initial,
		CreatedAt:      now,
		LastMoveAt:     now,
	}
	s.Status = domain.StatusActive

	m.mu.Lock()
	m.sessions[s.ID] = &live{state: s}
	m.mu.Unlock()

	m.log.Info("Session created", "session", s.ID, "class", class,
		"white", white.AccountID, "black", black.AccountID)
	return snapshot(&s), nil
}

func (m *Manager) lookup(sessionID string) (*live, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.sessions[sessionID]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	return l, nil
}

// Propose runs the five commit steps for one proposed transition.
// The whole path, oracle call included, holds the session lock: no two
// proposals against the same session can interleave, and the clock
// check cannot race a simultaneous legal move.
func (m *Manager) Propose(ctx context.Context, sessionID, actorID, move string) (CommitResult, error) {
	l, err := m.lookup(sessionID)
	if err != nil {
		return CommitResult{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	s := &l.state

	// 1. Terminal sessions reject everything, same answer as unknown ids.
	if s.Status.Terminal() {
		return CommitResult{}, apperrors.ErrSessionNotFound
	}

	// 2. The actor must hold the seat whose turn it is.
	role := s.RoleOf(actorID)
	if role == domain.RoleSpectator {
		return CommitResult{}, apperrors.ErrNotAParticipant
	}
	if role != s.Turn() {
		return CommitResult{}, apperrors.ErrNotYourTurn
	}

	// Clock check before consulting the oracle: a flagged seat forfeits.
	now := m.now().UTC()
	consumed := now.Sub(s.LastMoveAt)
	if s.Remaining(role)-consumed <= 0 {
		m.terminateLocked(s, domain.WonBy(role.Opponent()), domain.ReasonTimeout)
		return CommitResult{}, apperrors.ErrTimeExpired
	}

	// 3. Delegate legality to the oracle.
	verdict, err := m.oracle.Apply(ctx, s.State, move)
	if err != nil {
		return CommitResult{}, fmt.Errorf("oracle apply: %w", err)
	}
	if !verdict.Accepted {
		return CommitResult{}, apperrors.ErrIllegalMove
	}

	// 4. Commit: log append, state swap, clock debit, turn advance.
	s.Moves = append(s.Moves, move)
	s.State = verdict.NewState
	if role == domain.RoleWhite {
		s.WhiteRemaining += s.Clock.Increment - consumed
	} else {
		s.BlackRemaining += s.Clock.Increment - consumed
	}
	s.LastMoveAt = now

	// 5. Terminal verdicts complete the session in the same commit.
	if verdict.Terminal {
		s.Status = domain.StatusCompleted
		s.Outcome = verdict.Outcome
		m.log.Info("Session completed", "session", s.ID, "outcome", s.Outcome, "plies", len(s.Moves))
	}

	result := CommitResult{Session: snapshot(s), Terminal: verdict.Terminal, Outcome: verdict.Outcome}
	if m.onCommit != nil {
		m.onCommit(result)
	}
	return result, nil
}

// ForceTerminate drives a session to a terminal status outside the move
// path: resignation, disconnect, timeout sweep, admin cancel. Terminal
// sessions are left untouched and reported as such, so racing terminal
// triggers collapse into one transition.
func (m *Manager) ForceTerminate(sessionID string, outcome domain.Outcome, reason domain.TerminateReason) (domain.GameSession, error) {
	l, err := m.lookup(sessionID)
	if err != nil {
		return domain.GameSession{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	s := &l.state

	if s.Status.Terminal() {
		return domain.GameSession{}, apperrors.ErrSessionNotFound
	}
	m.terminateLocked(s, outcome, reason)
	return snapshot(s), nil
}

// terminateLocked finishes a session under its already-held lock.
// A session abandoned before any accepted transition is ABORTED and
// carries no outcome; afterwards it is COMPLETED with the given one.
func (m *Manager) terminateLocked(s *domain.GameSession, outcome domain.Outcome, reason domain.TerminateReason) {
	if reason == domain.ReasonDisconnect && len(s.Moves) == 0 || reason == domain.ReasonAdmin {
		s.Status = domain.StatusAborted
		s.Outcome = domain.OutcomeNone
	} else {
		s.Status = domain.StatusCompleted
		s.Outcome = outcome
	}
	s.Reason = reason
	m.log.Info("Session terminated", "session", s.ID, "status", s.Status,
		"outcome", s.Outcome, "reason", reason)
}

// ClaimSettlement atomically marks a session as settled and returns its
// final state. The second and every later claim reports false: this is
// the exactly-once guard in front of rating updates and record writes.
func (m *Manager) ClaimSettlement(sessionID string) (domain.GameSession, bool) {
	l, err := m.lookup(sessionID)
	if err != nil {
		return domain.GameSession{}, false
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.state.Status.Terminal() || l.settled {
		return domain.GameSession{}, false
	}
	l.settled = true
	return snapshot(&l.state), true
}

// Snapshot returns a copy of the session's current state.
func (m *Manager) Snapshot(sessionID string) (domain.GameSession, error) {
	l, err := m.lookup(sessionID)
	if err != nil {
		return domain.GameSession{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return snapshot(&l.state), nil
}

// Evict drops a settled session from the live set. Proposals against it
// keep failing with ErrSessionNotFound, now via the map lookup.
func (m *Manager) Evict(sessionID string) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
}

// Active returns snapshots of every non-terminal session, for the
// durable mirror.
func (m *Manager) Active() []domain.GameSession {
	m.mu.RLock()
	all := make([]*live, 0, len(m.sessions))
	for _, l := range m.sessions {
		all = append(all, l)
	}
	m.mu.RUnlock()

	var out []domain.GameSession
	for _, l := range all {
		l.mu.Lock()
		if !l.state.Status.Terminal() {
			out = append(out, snapshot(&l.state))
		}
		l.mu.Unlock()
	}
	return out
}

// Restore reinstates sessions persisted by a previous process.
func (m *Manager) Restore(sessions []domain.GameSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range sessions {
		if s.Status.Terminal() {
			continue
		}
		s := s
		m.sessions[s.ID] = &live{state: snapshot(&s)}
	}
	if len(sessions) > 0 {
		m.log.Info("Restored sessions from snapshot", "count", len(sessions))
	}
}

// snapshot deep-copies the mutable parts so callers can never alias the
// authoritative state.
func snapshot(s *domain.GameSession) domain.GameSession {
	out := *s
	out.State = append([]byte(nil), s.State...)
	out.Moves = append([]string(nil), s.Moves...)
	return out
}
