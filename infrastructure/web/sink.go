package web

import (
	"context"
	"fmt"

	"ludarena/domain/event"
)

// wsSink bridges the hub to one websocket connection. Consume never
// blocks: when the outbound buffer is full the connection is too slow
// to keep up, the event is reported lost and the hub drops the sink.
type wsSink struct {
	send chan outboundMessage
}

func newWsSink(buffer int) *wsSink {
	return &wsSink{send: make(chan outboundMessage, buffer)}
}

func (s *wsSink) Consume(ctx context.Context, e event.Event) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case s.send <- toOutbound(e):
		return nil
	default:
		return fmt.Errorf("outbound buffer full, dropping subscriber")
	}
}
