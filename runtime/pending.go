package runtime

import (
	"sync"
	"time"

	"ludarena/domain"
)

// PendingSettlements holds settlements whose durable write failed. The
// session side is already final and claimed; only persistence is owed.
// A worker drains this with exponential spacing between attempts.
type PendingSettlements struct {
	mu    sync.Mutex
	items map[string]*parked
	now   func() time.Time
}

type parked struct {
	record   domain.CompletedRecord
	attempts int
	nextTry  time.Time
}

const retryBaseDelay = 2 * time.Second

func NewPendingSettlements() *PendingSettlements {
	return &PendingSettlements{
		items: make(map[string]*parked),
		now:   time.Now,
	}
}

func (p *PendingSettlements) Park(record domain.CompletedRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.items[record.SessionID]; ok {
		return
	}
	p.items[record.SessionID] = &parked{record: record, nextTry: p.now().Add(retryBaseDelay)}
}

// Due returns the records whose backoff has elapsed and bumps their
// next attempt. Resolve removes them once the write finally lands.
func (p *PendingSettlements) Due() []domain.CompletedRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	var due []domain.CompletedRecord
	for _, item := range p.items {
		if item.nextTry.After(now) {
			continue
		}
		due = append(due, item.record)
		item.attempts++
		item.nextTry = now.Add(retryBaseDelay << min(item.attempts, 6))
	}
	return due
}

func (p *PendingSettlements) Resolve(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.items, sessionID)
}

func (p *PendingSettlements) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}
