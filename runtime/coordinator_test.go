package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"ludarena/contract"
	"ludarena/domain"
	"ludarena/domain/event"
	"ludarena/errors"
	"ludarena/matchmaking"
	"ludarena/repositories"
	"ludarena/rules"
	"ludarena/session"
)

type fixture struct {
	coordinator *Coordinator
	hub         *Hub
	manager     *session.Manager
	accounts    repositories.AccountRepository
	records     repositories.IRecordRepository
	snapshots   repositories.SessionSnapshotRepository
	queueSnap   repositories.QueueSnapshotRepository
}

func newFixture(t *testing.T, oracle rules.Oracle, records repositories.IRecordRepository) *fixture {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := slog.Default()
	f := &fixture{
		hub:       NewHub(log),
		manager:   session.NewManager(log, oracle),
		accounts:  repositories.NewAccountRepository(db),
		snapshots: repositories.NewSessionSnapshotRepository(db),
		queueSnap: repositories.NewQueueSnapshotRepository(db),
	}
	if records == nil {
		records = repositories.NewRecordRepository(db, log)
	}
	f.records = records
	f.coordinator = NewCoordinator(log, matchmaking.NewQueue(log, 0), f.manager, f.hub,
		f.accounts, f.records, f.snapshots, f.queueSnap)
	// Deterministic seats: the later joiner, who triggers the match,
	// takes black.
	f.coordinator.coin = func() bool { return true }
	return f
}

func (f *fixture) createAccounts(t *testing.T, usernames ...string) []domain.Account {
	t.Helper()
	var out []domain.Account
	for _, name := range usernames {
		acc, err := f.accounts.Create(name, "hash")
		require.NoError(t, err)
		out = append(out, acc)
	}
	return out
}

func Test_Join_Without_Partner_Queues(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, rules.NewScript(), nil)
	ctx := context.Background()
	accs := f.createAccounts(t, "alice")

	res, err := f.coordinator.JoinQueue(ctx, accs[0].ID, domain.ClassBlitz)
	req.NoError(err)
	req.False(res.Matched)

	mirrored, err := f.queueSnap.All()
	req.NoError(err)
	req.Len(mirrored, 1)

	_, err = f.coordinator.JoinQueue(ctx, accs[0].ID, domain.ClassBlitz)
	req.ErrorIs(err, errors.ErrAlreadyQueued)
}

func Test_Join_Unknown_Account_Fails(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, rules.NewScript(), nil)

	_, err := f.coordinator.JoinQueue(context.Background(), "ghost", domain.ClassBlitz)
	req.ErrorIs(err, errors.ErrAccountNotFound)
}

func Test_Second_Join_Creates_Match(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, rules.NewScript(), nil)
	ctx := context.Background()
	accs := f.createAccounts(t, "alice", "bob")
	alice, bob := accs[0], accs[1]

	aliceSink, bobSink := &recordingSink{}, &recordingSink{}
	f.hub.Register(alice.ID, "c1", aliceSink)
	f.hub.Register(bob.ID, "c2", bobSink)

	_, err := f.coordinator.JoinQueue(ctx, alice.ID, domain.ClassBlitz)
	req.NoError(err)
	res, err := f.coordinator.JoinQueue(ctx, bob.ID, domain.ClassBlitz)
	req.NoError(err)

	req.True(res.Matched)
	req.Equal(domain.RoleBlack, res.Role)
	req.Equal(alice.ID, res.OpponentID)
	req.NotEmpty(res.SessionID)

	// Both accounts got a pairing notification with their own seat.
	req.Len(aliceSink.seen(), 1)
	found := aliceSink.seen()[0].(event.MatchFound)
	req.Equal(domain.RoleWhite, found.Role)
	req.Equal(bob.ID, found.OpponentID)
	req.Len(bobSink.seen(), 1)

	// Queue mirror drained, session mirrored.
	queued, err := f.queueSnap.All()
	req.NoError(err)
	req.Empty(queued)
	live, err := f.snapshots.All()
	req.NoError(err)
	req.Len(live, 1)
	req.Equal(domain.StatusActive, live[0].Status)
}

func Test_Leave_Queue_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, rules.NewScript(), nil)
	ctx := context.Background()
	accs := f.createAccounts(t, "alice")

	_, err := f.coordinator.JoinQueue(ctx, accs[0].ID, domain.ClassBlitz)
	req.NoError(err)

	f.coordinator.LeaveQueue(accs[0].ID)
	f.coordinator.LeaveQueue(accs[0].ID)

	mirrored, err := f.queueSnap.All()
	req.NoError(err)
	req.Empty(mirrored)

	// Free to join again.
	_, err = f.coordinator.JoinQueue(ctx, accs[0].ID, domain.ClassBlitz)
	req.NoError(err)
}

// racingQueueMirror runs a callback before the mirror write lands,
// opening the window between the queue insert and its durable copy.
type racingQueueMirror struct {
	repositories.IQueueSnapshotRepository
	beforePut func(domain.QueueEntry)
}

func (m *racingQueueMirror) Put(e domain.QueueEntry) error {
	if m.beforePut != nil {
		m.beforePut(e)
	}
	return m.IQueueSnapshotRepository.Put(e)
}

func Test_Join_Race_Leaves_No_Stale_Queue_Mirror(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, rules.NewScript(), nil)
	ctx := context.Background()
	accs := f.createAccounts(t, "alice", "bob")
	alice, bob := accs[0], accs[1]

	mirror := &racingQueueMirror{IQueueSnapshotRepository: f.queueSnap}
	mirror.beforePut = func(e domain.QueueEntry) {
		if e.AccountID != alice.ID {
			return
		}
		mirror.beforePut = nil
		// Bob joins while Alice's mirror write is still in flight,
		// matching her and draining both mirror rows before hers lands.
		res, err := f.coordinator.JoinQueue(ctx, bob.ID, domain.ClassBlitz)
		require.NoError(t, err)
		require.True(t, res.Matched)
	}
	f.coordinator.queueSnap = mirror

	res, err := f.coordinator.JoinQueue(ctx, alice.ID, domain.ClassBlitz)
	req.NoError(err)
	// Alice's own call finds no partner; her match arrived via the hub.
	req.False(res.Matched)

	// The re-created row was cleaned up: a restart would not re-queue
	// an account already playing.
	rows, err := f.queueSnap.All()
	req.NoError(err)
	req.Empty(rows)
	req.Len(f.manager.Active(), 1)
}

// movingHub commits a move right after a subscription is taken, inside
// the attach window.
type movingHub struct {
	contract.IHub
	onSubscribe func()
}

func (h *movingHub) Subscribe(sessionID, connID string, sink contract.EventSink) {
	h.IHub.Subscribe(sessionID, connID, sink)
	if h.onSubscribe != nil {
		h.onSubscribe()
	}
}

func Test_Attach_Sees_Move_Committed_During_Attach(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, rules.NewScript(), nil)
	ctx := context.Background()
	accs := f.createAccounts(t, "alice", "bob")
	alice, bob := accs[0], accs[1]
	sid := matchPair(t, f, alice, bob)

	wrapped := &movingHub{IHub: f.hub}
	wrapped.onSubscribe = func() {
		wrapped.onSubscribe = nil
		_, err := f.coordinator.ProposeMove(ctx, sid, alice.ID, "e2e4")
		require.NoError(t, err)
	}
	f.coordinator.hub = wrapped

	sink := &recordingSink{}
	snapshot, role, err := f.coordinator.Attach(sid, "watcher", "conn-1", sink)
	req.NoError(err)
	req.Equal(domain.RoleSpectator, role)

	// The subscription predates the snapshot, so the mid-attach move is
	// both in the snapshot and delivered to the fresh sink.
	req.Equal([]string{"e2e4"}, snapshot.Moves)
	req.Len(sink.seen(), 1)
}

func Test_Attach_Unknown_Session_Leaves_No_Subscription(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, rules.NewScript(), nil)
	ctx := context.Background()

	sink := &recordingSink{}
	_, _, err := f.coordinator.Attach("ghost", "nobody", "conn-1", sink)
	req.ErrorIs(err, errors.ErrSessionNotFound)

	f.hub.Publish(ctx, "ghost", event.ParticipantLeft{Session: "ghost"})
	req.Empty(sink.seen())
}

// matchPair joins both accounts and returns the session id. The second
// account takes black with the fixture's coin.
func matchPair(t *testing.T, f *fixture, white, black domain.Account) string {
	t.Helper()
	ctx := context.Background()
	_, err := f.coordinator.JoinQueue(ctx, white.ID, domain.ClassBlitz)
	require.NoError(t, err)
	res, err := f.coordinator.JoinQueue(ctx, black.ID, domain.ClassBlitz)
	require.NoError(t, err)
	require.True(t, res.Matched)
	return res.SessionID
}

func Test_Terminal_Move_Settles_Exactly_Once(t *testing.T) {
	req := require.New(t)
	oracle := rules.NewScript().EndOn("checkmate", domain.OutcomeWhiteWins)
	f := newFixture(t, oracle, nil)
	ctx := context.Background()
	accs := f.createAccounts(t, "alice", "bob")
	alice, bob := accs[0], accs[1]

	sid := matchPair(t, f, alice, bob)

	sink := &recordingSink{}
	_, role, err := f.coordinator.Attach(sid, alice.ID, "c1", sink)
	req.NoError(err)
	req.Equal(domain.RoleWhite, role)

	_, err = f.coordinator.ProposeMove(ctx, sid, alice.ID, "e2e4")
	req.NoError(err)
	_, err = f.coordinator.ProposeMove(ctx, sid, bob.ID, "e7e5")
	req.NoError(err)
	res, err := f.coordinator.ProposeMove(ctx, sid, alice.ID, "checkmate")
	req.NoError(err)
	req.True(res.Terminal)

	// Ratings moved durably: the winner up, the loser down.
	updatedAlice, err := f.accounts.GetByID(alice.ID)
	req.NoError(err)
	req.Greater(updatedAlice.Rating, domain.DefaultRating)
	req.Equal(1, updatedAlice.GamesWon)
	updatedBob, err := f.accounts.GetByID(bob.ID)
	req.NoError(err)
	req.Less(updatedBob.Rating, domain.DefaultRating)

	// Record written once, session gone everywhere.
	record, err := f.records.GetBySession(sid)
	req.NoError(err)
	req.Equal([]string{"e2e4", "e7e5", "checkmate"}, record.Moves)
	_, err = f.manager.Snapshot(sid)
	req.ErrorIs(err, errors.ErrSessionNotFound)
	mirrored, err := f.snapshots.All()
	req.NoError(err)
	req.Empty(mirrored)

	// The subscriber saw every transition, then the settlement, in order.
	events := sink.seen()
	req.Len(events, 4)
	req.Equal("move_accepted", events[0].Kind())
	req.Equal("move_accepted", events[2].Kind())
	settled := events[3].(event.SettlementApplied)
	req.Positive(settled.WhiteDelta)
	req.Negative(settled.BlackDelta)
}

func Test_Resign_Forfeits_To_Opponent(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, rules.NewScript(), nil)
	ctx := context.Background()
	accs := f.createAccounts(t, "alice", "bob")
	alice, bob := accs[0], accs[1]

	sid := matchPair(t, f, alice, bob)
	_, err := f.coordinator.ProposeMove(ctx, sid, alice.ID, "e2e4")
	req.NoError(err)

	req.NoError(f.coordinator.Resign(ctx, sid, alice.ID))

	record, err := f.records.GetBySession(sid)
	req.NoError(err)
	req.Equal(domain.OutcomeBlackWins, record.Outcome)
	req.Equal(domain.ReasonResignation, record.Reason)

	// Settled sessions reject further resignations.
	req.ErrorIs(f.coordinator.Resign(ctx, sid, bob.ID), errors.ErrSessionNotFound)
}

func Test_Spectator_Cannot_Resign(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, rules.NewScript(), nil)
	accs := f.createAccounts(t, "alice", "bob")

	sid := matchPair(t, f, accs[0], accs[1])
	req.ErrorIs(f.coordinator.Resign(context.Background(), sid, "stranger"), errors.ErrNotAParticipant)
}

func Test_Disconnect_Before_First_Move_Aborts(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, rules.NewScript(), nil)
	ctx := context.Background()
	accs := f.createAccounts(t, "alice", "bob")
	alice, bob := accs[0], accs[1]

	sid := matchPair(t, f, alice, bob)
	f.coordinator.Disconnect(ctx, sid, alice.ID)

	// No rating movement, no record, session gone.
	updatedAlice, err := f.accounts.GetByID(alice.ID)
	req.NoError(err)
	req.Equal(domain.DefaultRating, updatedAlice.Rating)
	req.Zero(updatedAlice.GamesPlayed)
	_, err = f.records.GetBySession(sid)
	req.ErrorIs(err, errors.ErrSessionNotFound)
	_, err = f.manager.Snapshot(sid)
	req.ErrorIs(err, errors.ErrSessionNotFound)

	// Further disconnects are silent no-ops.
	f.coordinator.Disconnect(ctx, sid, bob.ID)
}

func Test_Disconnect_Mid_Game_Forfeits(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, rules.NewScript(), nil)
	ctx := context.Background()
	accs := f.createAccounts(t, "alice", "bob")
	alice, bob := accs[0], accs[1]

	sid := matchPair(t, f, alice, bob)
	_, err := f.coordinator.ProposeMove(ctx, sid, alice.ID, "e2e4")
	req.NoError(err)

	f.coordinator.Disconnect(ctx, sid, bob.ID)

	record, err := f.records.GetBySession(sid)
	req.NoError(err)
	req.Equal(domain.OutcomeWhiteWins, record.Outcome)
	req.Equal(domain.ReasonDisconnect, record.Reason)
}

func Test_Admin_Terminate_Aborts_Without_Rating(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, rules.NewScript(), nil)
	ctx := context.Background()
	accs := f.createAccounts(t, "alice", "bob")
	alice, bob := accs[0], accs[1]

	sid := matchPair(t, f, alice, bob)
	_, err := f.coordinator.ProposeMove(ctx, sid, alice.ID, "e2e4")
	req.NoError(err)

	// Even mid-game, the kill switch rates nothing.
	req.NoError(f.coordinator.Terminate(ctx, sid))

	for _, acc := range []domain.Account{alice, bob} {
		updated, err := f.accounts.GetByID(acc.ID)
		req.NoError(err)
		req.Equal(domain.DefaultRating, updated.Rating)
		req.Zero(updated.GamesPlayed)
	}
	_, err = f.records.GetBySession(sid)
	req.ErrorIs(err, errors.ErrSessionNotFound)
	_, err = f.manager.Snapshot(sid)
	req.ErrorIs(err, errors.ErrSessionNotFound)

	req.ErrorIs(f.coordinator.Terminate(ctx, sid), errors.ErrSessionNotFound)
}

// flakyRecords fails ApplySettlement until allowed, simulating a
// persistence outage at settlement time.
type flakyRecords struct {
	repositories.IRecordRepository
	allow bool
}

func (r *flakyRecords) ApplySettlement(record domain.CompletedRecord) error {
	if !r.allow {
		return fmt.Errorf("disk on fire")
	}
	return r.IRecordRepository.ApplySettlement(record)
}

func Test_Failed_Settlement_Is_Parked_And_Retried(t *testing.T) {
	req := require.New(t)
	oracle := rules.NewScript().EndOn("checkmate", domain.OutcomeWhiteWins)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })
	flaky := &flakyRecords{IRecordRepository: repositories.NewRecordRepository(db, slog.Default())}

	f := newFixture(t, oracle, flaky)
	// The fixture opened its own store; point the account side at ours
	// so the flaky wrapper and the assertions share one database.
	f.accounts = repositories.NewAccountRepository(db)
	f.coordinator.accounts = f.accounts
	ctx := context.Background()
	accs := f.createAccounts(t, "alice", "bob")
	alice, bob := accs[0], accs[1]

	sid := matchPair(t, f, alice, bob)
	_, err = f.coordinator.ProposeMove(ctx, sid, alice.ID, "e2e4")
	req.NoError(err)
	_, err = f.coordinator.ProposeMove(ctx, sid, bob.ID, "e7e5")
	req.NoError(err)
	res, err := f.coordinator.ProposeMove(ctx, sid, alice.ID, "checkmate")
	req.NoError(err)
	req.True(res.Terminal)

	// The write failed: settlement is parked, nothing durable yet.
	req.Equal(1, f.coordinator.Pending().Len())
	_, err = f.records.GetBySession(sid)
	req.Error(err)

	// The outage ends; the retry drains the backlog.
	flaky.allow = true
	pending := f.coordinator.Pending()
	pending.now = func() time.Time { return time.Now().Add(time.Minute) }
	due := pending.Due()
	req.Len(due, 1)
	req.NoError(f.coordinator.RetrySettlement(ctx, due[0]))
	pending.Resolve(due[0].SessionID)
	req.Zero(pending.Len())

	record, err := f.records.GetBySession(sid)
	req.NoError(err)
	req.Equal(domain.OutcomeWhiteWins, record.Outcome)
	updatedAlice, err := f.accounts.GetByID(alice.ID)
	req.NoError(err)
	req.Greater(updatedAlice.Rating, domain.DefaultRating)
}
