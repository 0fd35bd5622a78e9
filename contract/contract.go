//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"ludarena/domain/event"
)

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives pushed events for one connection. A sink that
// returns an error is considered gone and is implicitly unsubscribed.
type EventSink interface {
	Consume(ctx context.Context, e event.Event) error
}

// ArenaMetrics receives activity ticks from the runtime. Implemented
// by the monitoring manager; the runtime never reads them back.
type ArenaMetrics interface {
	IncrMatchesMade()
	IncrMovesCommitted()
	IncrSettlementsApplied()
	IncrEventsPublished()
	IncrErrorCount()
}

// IHub maps sessions to their currently subscribed sinks and fans
// events out to them, FIFO per session.
type IHub interface {
	Subscribe(sessionID, connID string, sink EventSink)
	Unsubscribe(sessionID, connID string)
	Register(accountID, connID string, sink EventSink)
	Unregister(accountID, connID string)
	Publish(ctx context.Context, sessionID string, e event.Event)
	Notify(ctx context.Context, accountID string, e event.Event)
}
