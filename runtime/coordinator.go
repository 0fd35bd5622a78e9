// Package runtime composes the queue, the session manager, the hub and
// the persistence gateway into the session lifecycle: match to creation,
// validated move to broadcast, terminal transition to settlement.
// It orchestrates; domain rules stay out of here.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"ludarena/contract"
	"ludarena/domain"
	"ludarena/domain/event"
	apperrors "ludarena/errors"
	"ludarena/matchmaking"
	"ludarena/rating"
	"ludarena/repositories"
	"ludarena/session"
)

type Coordinator struct {
	log       *slog.Logger
	queue     *matchmaking.Queue
	manager   *session.Manager
	hub       contract.IHub
	accounts  repositories.IAccountRepository
	records   repositories.IRecordRepository
	snapshots repositories.ISessionSnapshotRepository
	queueSnap repositories.IQueueSnapshotRepository
	pending   *PendingSettlements
	metrics   contract.ArenaMetrics
	coin      func() bool // color toss, injectable for tests
}

// nopMetrics keeps the hot path free of nil checks when no monitoring
// manager is attached (tests, tooling).
type nopMetrics struct{}

func (nopMetrics) IncrMatchesMade()        {}
func (nopMetrics) IncrMovesCommitted()     {}
func (nopMetrics) IncrSettlementsApplied() {}
func (nopMetrics) IncrEventsPublished()    {}
func (nopMetrics) IncrErrorCount()         {}

func NewCoordinator(
	log *slog.Logger,
	queue *matchmaking.Queue,
	manager *session.Manager,
	hub contract.IHub,
	accounts repositories.IAccountRepository,
	records repositories.IRecordRepository,
	snapshots repositories.ISessionSnapshotRepository,
	queueSnap repositories.IQueueSnapshotRepository,
) *Coordinator {
	c := &Coordinator{
		log:       log,
		queue:     queue,
		manager:   manager,
		hub:       hub,
		accounts:  accounts,
		records:   records,
		snapshots: snapshots,
		queueSnap: queueSnap,
		pending:   NewPendingSettlements(),
		metrics:   nopMetrics{},
		coin:      func() bool { return rand.IntN(2) == 0 },
	}
	manager.OnCommit(c.fanoutCommit)
	return c
}

// SetMetrics attaches the activity counters. Call before serving.
func (c *Coordinator) SetMetrics(m contract.ArenaMetrics) {
	if m != nil {
		c.metrics = m
	}
}

// Pending exposes the unsettled backlog to the retry worker.
func (c *Coordinator) Pending() *PendingSettlements { return c.pending }

// fanoutCommit runs inside the session commit lock, so subscribers see
// one session's transitions in exactly the commit order.
func (c *Coordinator) fanoutCommit(res session.CommitResult) {
	s := res.Session
	c.hub.Publish(context.Background(), s.ID, event.MoveAccepted{
		Session:        s.ID,
		Move:           s.Moves[len(s.Moves)-1],
		NewState:       s.State,
		Turn:           s.Turn(),
		Terminal:       res.Terminal,
		Outcome:        res.Outcome,
		WhiteRemaining: s.WhiteRemaining,
		BlackRemaining: s.BlackRemaining,
	})
	c.metrics.IncrMovesCommitted()
	c.metrics.IncrEventsPublished()
}

// JoinResult is the answer to a queue join: either still waiting, or
// matched into a freshly created session.
type JoinResult struct {
	Matched    bool
	SessionID  string
	Role       domain.Role
	OpponentID string
}

// JoinQueue enqueues the account and immediately attempts a pairing.
// When a match lands, both entries are already gone from the queue, the
// session exists, and both accounts have been notified.
func (c *Coordinator) JoinQueue(ctx context.Context, accountID string, class domain.Class) (JoinResult, error) {
	acc, err := c.accounts.GetByID(accountID)
	if err != nil {
		return JoinResult{}, err
	}

	entry, err := c.queue.Join(accountID, acc.Rating, class)
	if err != nil {
		return JoinResult{}, err
	}
	if err := c.queueSnap.Put(entry); err != nil {
		c.log.Warn("Queue mirror write failed", "account", accountID, "error", err)
	}

	caller, opponent, ok := c.queue.TryMatch(accountID)
	if !ok {
		// A concurrent joiner can consume this entry between Join and
		// the mirror write above, leaving a stale row for an account
		// already in a session. Drop it rather than re-queue them on
		// the next restart.
		if !c.queue.Queued(accountID) {
			if err := c.queueSnap.Delete(accountID); err != nil {
				c.log.Warn("Queue mirror delete failed", "account", accountID, "error", err)
			}
		}
		return JoinResult{}, nil
	}
	for _, id := range []string{caller.AccountID, opponent.AccountID} {
		if err := c.queueSnap.Delete(id); err != nil {
			c.log.Warn("Queue mirror delete failed", "account", id, "error", err)
		}
	}

	white, black := caller, opponent
	if c.coin() {
		white, black = black, white
	}

	s, err := c.manager.Create(ctx,
		domain.Participant{AccountID: white.AccountID, Rating: white.Rating},
		domain.Participant{AccountID: black.AccountID, Rating: black.Rating},
		class,
	)
	if err != nil {
		// The entries are consumed; putting them back silently could
		// pair them behind the callers' backs. Surface the failure.
		return JoinResult{}, fmt.Errorf("create session for match: %w", err)
	}
	c.mirrorSession(s)

	c.hub.Notify(ctx, white.AccountID, event.MatchFound{
		Session: s.ID, Role: domain.RoleWhite, OpponentID: black.AccountID, Class: class,
	})
	c.hub.Notify(ctx, black.AccountID, event.MatchFound{
		Session: s.ID, Role: domain.RoleBlack, OpponentID: white.AccountID, Class: class,
	})
	c.metrics.IncrMatchesMade()

	role := domain.RoleWhite
	opponentID := black.AccountID
	if accountID == black.AccountID {
		role = domain.RoleBlack
		opponentID = white.AccountID
	}
	return JoinResult{Matched: true, SessionID: s.ID, Role: role, OpponentID: opponentID}, nil
}

// LeaveQueue is idempotent: leaving while not queued is fine.
func (c *Coordinator) LeaveQueue(accountID string) {
	c.queue.Leave(accountID)
	if err := c.queueSnap.Delete(accountID); err != nil {
		c.log.Warn("Queue mirror delete failed", "account", accountID, "error", err)
	}
}

// Attach subscribes a connection to a session and hands back the current
// snapshot plus the account's seat. Unknown accounts spectate. The
// subscription goes in before the snapshot is taken so a move committed
// in between is delivered rather than lost; a duplicate is harmless
// because MoveAccepted carries the full state.
func (c *Coordinator) Attach(sessionID, accountID, connID string, sink contract.EventSink) (domain.GameSession, domain.Role, error) {
	c.hub.Subscribe(sessionID, connID, sink)
	s, err := c.manager.Snapshot(sessionID)
	if err != nil {
		c.hub.Unsubscribe(sessionID, connID)
		return domain.GameSession{}, "", err
	}
	return s, s.RoleOf(accountID), nil
}

// Detach unsubscribes a connection without touching the session: an
// observer leaving is not a participant forfeiting.
func (c *Coordinator) Detach(sessionID, connID string) {
	c.hub.Unsubscribe(sessionID, connID)
}

// ProposeMove validates and commits one transition. The accepted fanout
// happens inside the commit; this layer only drives settlement when the
// session just turned terminal, including the flag fall case.
func (c *Coordinator) ProposeMove(ctx context.Context, sessionID, accountID, move string) (session.CommitResult, error) {
	res, err := c.manager.Propose(ctx, sessionID, accountID, move)
	if err != nil {
		if errors.Is(err, apperrors.ErrTimeExpired) {
			c.settle(ctx, sessionID)
		}
		return session.CommitResult{}, err
	}
	if res.Terminal {
		c.settle(ctx, sessionID)
	} else {
		c.mirrorSession(res.Session)
	}
	return res, nil
}

// Resign forfeits the caller's session to the opponent.
func (c *Coordinator) Resign(ctx context.Context, sessionID, accountID string) error {
	s, err := c.manager.Snapshot(sessionID)
	if err != nil {
		return err
	}
	role := s.RoleOf(accountID)
	if role == domain.RoleSpectator {
		return apperrors.ErrNotAParticipant
	}

	if _, err := c.manager.ForceTerminate(sessionID, domain.WonBy(role.Opponent()), domain.ReasonResignation); err != nil {
		return err
	}
	c.hub.Publish(ctx, sessionID, event.ParticipantLeft{
		Session: sessionID, AccountID: accountID, Reason: domain.ReasonResignation,
	})
	c.settle(ctx, sessionID)
	return nil
}

// Disconnect handles an abrupt connection loss of a participant. After a
// terminal state it is a no-op; before the first accepted transition the
// session aborts without touching ratings; afterwards the opponent wins.
func (c *Coordinator) Disconnect(ctx context.Context, sessionID, accountID string) {
	s, err := c.manager.Snapshot(sessionID)
	if err != nil {
		return // already settled and evicted, or never existed
	}
	role := s.RoleOf(accountID)
	if role == domain.RoleSpectator {
		return
	}

	if _, err := c.manager.ForceTerminate(sessionID, domain.WonBy(role.Opponent()), domain.ReasonDisconnect); err != nil {
		return // lost the race against another terminal trigger
	}
	c.hub.Publish(ctx, sessionID, event.ParticipantLeft{
		Session: sessionID, AccountID: accountID, Reason: domain.ReasonDisconnect,
	})
	c.settle(ctx, sessionID)
}

// Terminate is the administrative kill switch: the session aborts and
// nothing is rated, whatever its progress.
func (c *Coordinator) Terminate(ctx context.Context, sessionID string) error {
	if _, err := c.manager.ForceTerminate(sessionID, domain.OutcomeNone, domain.ReasonAdmin); err != nil {
		return err
	}
	c.hub.Publish(ctx, sessionID, event.ParticipantLeft{
		Session: sessionID, Reason: domain.ReasonAdmin,
	})
	c.settle(ctx, sessionID)
	return nil
}

// settle converts a terminal session into its permanent record, exactly
// once: the manager's claim is the gate, so however many terminal
// triggers race here, one of them does the work and the rest return.
func (c *Coordinator) settle(ctx context.Context, sessionID string) {
	final, ok := c.manager.ClaimSettlement(sessionID)
	if !ok {
		return
	}

	if final.Status == domain.StatusAborted || final.Outcome == domain.OutcomeNone {
		// Nothing counted: drop the mirror and forget the session.
		c.cleanup(final.ID)
		return
	}

	record := c.buildRecord(final)
	if err := c.records.ApplySettlement(record); err != nil {
		// Never drop a settlement: park it for the retry worker. The
		// session stays claimed, so no new transitions can sneak in.
		c.log.Error("Settlement persistence failed, parking for retry",
			"session", final.ID, "error", err)
		c.metrics.IncrErrorCount()
		c.pending.Park(record)
		return
	}
	c.finishSettlement(ctx, record)
}

// RetrySettlement is called by the retry worker for parked records.
func (c *Coordinator) RetrySettlement(ctx context.Context, record domain.CompletedRecord) error {
	err := c.records.ApplySettlement(record)
	if errors.Is(err, apperrors.ErrRecordExists) {
		// A previous attempt made it through after all.
		err = nil
	}
	if err != nil {
		return err
	}
	c.finishSettlement(ctx, record)
	return nil
}

func (c *Coordinator) finishSettlement(ctx context.Context, record domain.CompletedRecord) {
	c.hub.Publish(ctx, record.SessionID, event.SettlementApplied{
		Session:    record.SessionID,
		Outcome:    record.Outcome,
		WhiteDelta: record.WhiteRatingAfter - record.WhiteRatingBefore,
		BlackDelta: record.BlackRatingAfter - record.BlackRatingBefore,
	})
	c.cleanup(record.SessionID)
	c.metrics.IncrSettlementsApplied()
	c.metrics.IncrEventsPublished()
	c.log.Info("Settlement applied", "session", record.SessionID, "outcome", record.Outcome,
		"whiteDelta", record.WhiteRatingAfter-record.WhiteRatingBefore,
		"blackDelta", record.BlackRatingAfter-record.BlackRatingBefore)
}

func (c *Coordinator) buildRecord(final domain.GameSession) domain.CompletedRecord {
	whiteAfter, blackAfter := rating.Settle(final.White.Rating, final.Black.Rating, final.Outcome)
	return domain.CompletedRecord{
		SessionID:         final.ID,
		Class:             final.Class,
		WhiteID:           final.White.AccountID,
		BlackID:           final.Black.AccountID,
		Outcome:           final.Outcome,
		Reason:            final.Reason,
		Moves:             final.Moves,
		WhiteRatingBefore: final.White.Rating,
		BlackRatingBefore: final.Black.Rating,
		WhiteRatingAfter:  whiteAfter,
		BlackRatingAfter:  blackAfter,
		PlayedAt:          final.LastMoveAt,
	}
}

func (c *Coordinator) cleanup(sessionID string) {
	if err := c.snapshots.Delete(sessionID); err != nil {
		c.log.Warn("Session mirror delete failed", "session", sessionID, "error", err)
	}
	c.manager.Evict(sessionID)
}

// mirrorSession writes the eventually-consistent durable copy of a live
// session. Failures only cost crash-recovery fidelity, never the move.
func (c *Coordinator) mirrorSession(s domain.GameSession) {
	if err := c.snapshots.Put(s); err != nil {
		c.log.Warn("Session mirror write failed", "session", s.ID, "error", err)
	}
}

// MirrorAll is the sweeper's entry point: persist every live session.
func (c *Coordinator) MirrorAll() {
	for _, s := range c.manager.Active() {
		c.mirrorSession(s)
	}
}

// Restore reloads queue entries and live sessions from the durable
// mirror after a restart.
func (c *Coordinator) Restore() error {
	entries, err := c.queueSnap.All()
	if err != nil {
		return fmt.Errorf("restore queue: %w", err)
	}
	c.queue.Restore(entries)

	sessions, err := c.snapshots.All()
	if err != nil {
		return fmt.Errorf("restore sessions: %w", err)
	}
	c.manager.Restore(sessions)
	return nil
}
