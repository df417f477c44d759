// Package runtime wires the rooms to their side effects. It owns the room
// registry, the event pipeline and the supervised workers, without containing
// any chat rule itself.
package runtime

import (
	"cipher-chat/contract"
	"cipher-chat/domain"
	"cipher-chat/domain/event"
	"cipher-chat/runtime/workers"
	"context"
	"log/slog"
	"sync"
	"time"
)

type Orchestrator struct {
	mu          sync.Mutex
	log         *slog.Logger
	supervisor  contract.ISupervisor
	events      chan event.DomainEvent
	sinks       []contract.EventSink
	workers     []contract.Worker
	sinkTimeout time.Duration
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor,
	bufferSize int, sinkTimeout time.Duration) *Orchestrator {
	return &Orchestrator{
		log:         log,
		supervisor:  supervisor,
		events:      make(chan event.DomainEvent, bufferSize),
		sinkTimeout: sinkTimeout,
	}
}

// Add registers sinks fed by the event fanout. Sinks must be added before Start.
func (o *Orchestrator) Add(sinks ...contract.EventSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sinks = append(o.sinks, sinks...)
}

// AddWorkers registers extra workers run under the same supervisor.
func (o *Orchestrator) AddWorkers(workers ...contract.Worker) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.workers = append(o.workers, workers...)
}

// Events exposes the event channel, for capacity sampling.
func (o *Orchestrator) Events() chan event.DomainEvent {
	return o.events
}

// Publish never blocks: a room calls it while holding its lock, so a full
// pipeline drops the event instead of stalling the room.
func (o *Orchestrator) Publish(evt event.DomainEvent) bool {
	select {
	case o.events <- evt:
		return true
	default:
		o.log.Warn("Event channel full, dropping event", "room", evt.RoomName())
		return false
	}
}

// PublishMessage is the room publisher hook.
func (o *Orchestrator) PublishMessage(msg domain.Message) {
	o.Publish(event.FromMessage(msg))
}

// Start registers the fanout and the extra workers, then runs the supervisor.
// It blocks until the context is canceled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	fanout := workers.NewEventFanout(o.log, o.events, o.sinkTimeout, o.sinks...)
	o.supervisor.Add(fanout)
	o.supervisor.Add(o.workers...)
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers", "sinks", len(o.sinks), "workers", len(o.workers)+1)
	o.supervisor.Run(ctx)
}

// Stop cancels the supervised workers.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}
