package runtime

import (
	"context"
	"log/slog"
	"sync"

	"ludarena/contract"
	"ludarena/domain/event"
)

// subscribers is the set of live sinks of one session. Its mutex is held
// for a whole Publish so events of one session reach every sink in the
// order Publish was called; distinct sessions deliver in parallel.
type subscribers struct {
	mu    sync.Mutex
	conns map[string]contract.EventSink
}

// Hub maps sessions to their currently connected observers and fans
// confirmed events out to them. It knows nothing about session
// semantics; delivery is best-effort and a failing sink is dropped and
// implicitly unsubscribed.
type Hub struct {
	log *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*subscribers
	// accounts indexes the same sinks by account, for pushes that happen
	// before any session exists (a match landing on a waiting account).
	accounts map[string]map[string]contract.EventSink
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log:      log,
		sessions: make(map[string]*subscribers),
		accounts: make(map[string]map[string]contract.EventSink),
	}
}

// Subscribe attaches a connection to a session's observer set. Idempotent.
// The insert happens under h.mu: Unsubscribe's empty-set cleanup re-checks
// under the same lock, so it can never drop the map entry between our
// lookup and the insert, leaving the sink unreachable from Publish.
func (h *Hub) Subscribe(sessionID, connID string, sink contract.EventSink) {
	h.mu.Lock()
	subs, ok := h.sessions[sessionID]
	if !ok {
		subs = &subscribers{conns: make(map[string]contract.EventSink)}
		h.sessions[sessionID] = subs
	}
	subs.mu.Lock()
	subs.conns[connID] = sink
	subs.mu.Unlock()
	h.mu.Unlock()

	h.log.Debug("Subscribed", "session", sessionID, "conn", connID)
}

// Unsubscribe detaches a connection from a session. Idempotent.
func (h *Hub) Unsubscribe(sessionID, connID string) {
	h.mu.Lock()
	subs, ok := h.sessions[sessionID]
	h.mu.Unlock()
	if !ok {
		return
	}

	subs.mu.Lock()
	delete(subs.conns, connID)
	empty := len(subs.conns) == 0
	subs.mu.Unlock()

	if empty {
		h.mu.Lock()
		if s, ok := h.sessions[sessionID]; ok {
			s.mu.Lock()
			if len(s.conns) == 0 {
				delete(h.sessions, sessionID)
			}
			s.mu.Unlock()
		}
		h.mu.Unlock()
	}
}

// Register binds a connection to an account for session-less pushes.
func (h *Hub) Register(accountID, connID string, sink contract.EventSink) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.accounts[accountID]
	if !ok {
		conns = make(map[string]contract.EventSink)
		h.accounts[accountID] = conns
	}
	conns[connID] = sink
}

// Unregister drops an account binding. Idempotent.
func (h *Hub) Unregister(accountID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.accounts[accountID]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(h.accounts, accountID)
		}
	}
}

// Publish delivers an event to every current subscriber of its session,
// FIFO per session. Sinks that error out are removed on the spot.
func (h *Hub) Publish(ctx context.Context, sessionID string, e event.Event) {
	h.mu.RLock()
	subs, ok := h.sessions[sessionID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	subs.mu.Lock()
	defer subs.mu.Unlock()
	for connID, sink := range subs.conns {
		if err := sink.Consume(ctx, e); err != nil {
			delete(subs.conns, connID)
			h.log.Debug("Dropped dead subscriber", "session", sessionID, "conn", connID, "error", err)
		}
	}
}

// Notify pushes an event to every connection of one account.
func (h *Hub) Notify(ctx context.Context, accountID string, e event.Event) {
	h.mu.RLock()
	conns := make(map[string]contract.EventSink, len(h.accounts[accountID]))
	for id, sink := range h.accounts[accountID] {
		conns[id] = sink
	}
	h.mu.RUnlock()

	for connID, sink := range conns {
		if err := sink.Consume(ctx, e); err != nil {
			h.Unregister(accountID, connID)
		}
	}
}
