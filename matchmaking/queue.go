// Package matchmaking pairs waiting accounts by rating proximity inside
// a compatibility class. All operations touching one class are serialized
// by that class's lock; distinct classes never block each other.
package matchmaking

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ludarena/domain"
	apperrors "ludarena/errors"
)

// DefaultTolerance is the maximum rating distance between paired entries.
const DefaultTolerance = 200

type classQueue struct {
	mu      sync.Mutex
	entries []domain.QueueEntry
}

type Queue struct {
	log       *slog.Logger
	tolerance int
	now       func() time.Time

	// classesMu only guards the class map itself; entries live behind
	// each class's own lock.
	classesMu sync.Mutex
	classes   map[domain.Class]*classQueue

	// ownersMu guards the account -> class index that enforces the
	// one-entry-per-account invariant. Lock order: class before owners.
	ownersMu sync.Mutex
	owners   map[string]domain.Class
}

func NewQueue(log *slog.Logger, tolerance int) *Queue {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Queue{
		log:       log,
		tolerance: tolerance,
		now:       time.Now,
		classes:   make(map[domain.Class]*classQueue),
		owners:    make(map[string]domain.Class),
	}
}

func (q *Queue) class(c domain.Class) *classQueue {
	q.classesMu.Lock()
	defer q.classesMu.Unlock()
	cq, ok := q.classes[c]
	if !ok {
		cq = &classQueue{}
		q.classes[c] = cq
	}
	return cq
}

// Join enqueues an account. An account holds at most one entry across
// all classes; a second join without leave fails with ErrAlreadyQueued.
func (q *Queue) Join(accountID string, ratingSnapshot int, class domain.Class) (domain.QueueEntry, error) {
	cq := q.class(class)
	cq.mu.Lock()
	defer cq.mu.Unlock()

	q.ownersMu.Lock()
	if held, ok := q.owners[accountID]; ok {
		q.ownersMu.Unlock()
		return domain.QueueEntry{}, fmt.Errorf("%w: already waiting in %q", apperrors.ErrAlreadyQueued, held)
	}
	q.owners[accountID] = class
	q.ownersMu.Unlock()

	entry := domain.QueueEntry{
		AccountID: accountID,
		Rating:    ratingSnapshot,
		Class:     class,
		JoinedAt:  q.now().UTC(),
	}
	cq.entries = append(cq.entries, entry)
	q.log.Debug("Account joined matchmaking", "account", accountID, "class", class, "waiting", len(cq.entries))
	return entry, nil
}

// Leave removes an account's entry if it still has one. Idempotent.
func (q *Queue) Leave(accountID string) {
	q.ownersMu.Lock()
	class, ok := q.owners[accountID]
	q.ownersMu.Unlock()
	if !ok {
		return
	}

	cq := q.class(class)
	cq.mu.Lock()
	defer cq.mu.Unlock()

	for i, e := range cq.entries {
		if e.AccountID == accountID {
			cq.entries = append(cq.entries[:i], cq.entries[i+1:]...)
			break
		}
	}
	q.ownersMu.Lock()
	delete(q.owners, accountID)
	q.ownersMu.Unlock()
	q.log.Debug("Account left matchmaking", "account", accountID, "class", class)
}

// TryMatch pairs the caller with the waiting entry of the same class
// whose rating is closest within the tolerance window, oldest entry
// winning ties so the longest waiter is served first. On success both
// entries are removed before they are returned, under the class lock,
// so neither can be matched a second time.
func (q *Queue) TryMatch(accountID string) (caller, opponent domain.QueueEntry, ok bool) {
	q.ownersMu.Lock()
	class, queued := q.owners[accountID]
	q.ownersMu.Unlock()
	if !queued {
		return domain.QueueEntry{}, domain.QueueEntry{}, false
	}

	cq := q.class(class)
	cq.mu.Lock()
	defer cq.mu.Unlock()

	callerIdx := -1
	for i, e := range cq.entries {
		if e.AccountID == accountID {
			callerIdx = i
			break
		}
	}
	if callerIdx < 0 {
		return domain.QueueEntry{}, domain.QueueEntry{}, false
	}
	caller = cq.entries[callerIdx]

	bestIdx := -1
	bestGap := q.tolerance + 1
	for i, e := range cq.entries {
		if i == callerIdx {
			continue
		}
		gap := caller.Rating - e.Rating
		if gap < 0 {
			gap = -gap
		}
		if gap > q.tolerance {
			continue
		}
		better := gap < bestGap ||
			(gap == bestGap && bestIdx >= 0 && e.JoinedAt.Before(cq.entries[bestIdx].JoinedAt))
		if better {
			bestIdx, bestGap = i, gap
		}
	}
	if bestIdx < 0 {
		return domain.QueueEntry{}, domain.QueueEntry{}, false
	}
	opponent = cq.entries[bestIdx]

	// Remove the higher index first so the lower one stays valid.
	hi, lo := callerIdx, bestIdx
	if lo > hi {
		hi, lo = lo, hi
	}
	cq.entries = append(cq.entries[:hi], cq.entries[hi+1:]...)
	cq.entries = append(cq.entries[:lo], cq.entries[lo+1:]...)

	q.ownersMu.Lock()
	delete(q.owners, caller.AccountID)
	delete(q.owners, opponent.AccountID)
	q.ownersMu.Unlock()

	q.log.Info("Match found", "class", class,
		"a", caller.AccountID, "b", opponent.AccountID,
		"gap", bestGap, "waiting", len(cq.entries))
	return caller, opponent, true
}

// Queued reports whether the account currently holds an entry.
func (q *Queue) Queued(accountID string) bool {
	q.ownersMu.Lock()
	defer q.ownersMu.Unlock()
	_, ok := q.owners[accountID]
	return ok
}

// Snapshot returns a copy of every waiting entry, for the durable
// queue mirror.
func (q *Queue) Snapshot() []domain.QueueEntry {
	q.classesMu.Lock()
	classes := make([]*classQueue, 0, len(q.classes))
	for _, cq := range q.classes {
		classes = append(classes, cq)
	}
	q.classesMu.Unlock()

	var out []domain.QueueEntry
	for _, cq := range classes {
		cq.mu.Lock()
		out = append(out, cq.entries...)
		cq.mu.Unlock()
	}
	return out
}

// Restore reloads entries persisted by a previous process. Entries whose
// account already holds one are skipped, preserving the invariant.
func (q *Queue) Restore(entries []domain.QueueEntry) {
	for _, e := range entries {
		cq := q.class(e.Class)
		cq.mu.Lock()
		q.ownersMu.Lock()
		if _, ok := q.owners[e.AccountID]; !ok {
			q.owners[e.AccountID] = e.Class
			cq.entries = append(cq.entries, e)
		}
		q.ownersMu.Unlock()
		cq.mu.Unlock()
	}
}
