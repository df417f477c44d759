package workers

import (
	"cipher-chat/contract"
	"cipher-chat/domain/event"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// EventFanout hands every domain event to all registered sinks.
//
// It provides best-effort fan-out with no guarantees regarding delivery,
// durability, or retries. Each sink gets its own deadline and an error or a
// timeout from one sink never prevents the others from receiving the event.
// Events are processed one after the other, so sinks see them in the order
// rooms published them.
type EventFanout struct {
	log         *slog.Logger
	events      chan event.DomainEvent
	sinks       []contract.EventSink
	sinkTimeout time.Duration
}

func NewEventFanout(log *slog.Logger, events chan event.DomainEvent,
	sinkTimeout time.Duration, sinks ...contract.EventSink) *EventFanout {
	return &EventFanout{log: log, events: events, sinks: sinks, sinkTimeout: sinkTimeout}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-w.events:
			w.Fanout(ctx, evt)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping event fanout")
			return nil
		}
	}
}

// Fanout delivers one event to every sink concurrently and waits for all of
// them to return or time out.
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	var wg sync.WaitGroup
	for _, sink := range w.sinks {
		wg.Add(1)
		go func(sink contract.EventSink) {
			defer wg.Done()
			sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
			defer cancel()
			if err := sink.Consume(sinkCtx, evt); err != nil {
				w.log.Warn("Sink failed to consume event",
					"sink", fmt.Sprintf("%T", sink), "room", evt.RoomName(), "error", err)
			}
		}(sink)
	}
	wg.Wait()
}
