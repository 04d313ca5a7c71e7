package workers

import (
	"context"
	"log/slog"
	"time"

	"unicomm/contract"
	"unicomm/domain/event"
	"unicomm/observability"
)

// Compile-time check that the worker satisfies the contract.
var _ contract.Worker = (*EventFanout)(nil)

// EventFanout drains the domain event channel and delivers each event to
// the sinks of its audience (resolved through the registry) plus the
// permanent sinks. Delivery is best-effort, bounded per sink by a
// timeout: a slow consumer loses events, it never stalls the core.
type EventFanout struct {
	log            *slog.Logger
	events         <-chan event.DomainEvent
	registry       contract.IRegistry
	permanentSinks []contract.EventSink
	sinkTimeout    time.Duration
	monitoring     *observability.MonitoringManager
}

func NewEventFanout(log *slog.Logger, events <-chan event.DomainEvent,
	registry contract.IRegistry, permanentSinks []contract.EventSink,
	sinkTimeout time.Duration, monitoring *observability.MonitoringManager) *EventFanout {
	return &EventFanout{
		log:            log,
		events:         events,
		registry:       registry,
		permanentSinks: permanentSinks,
		sinkTimeout:    sinkTimeout,
		monitoring:     monitoring,
	}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping event fanout")
			return ctx.Err()
		case evt, ok := <-w.events:
			if !ok {
				w.log.Debug("Event channel closed")
				return nil
			}
			w.fanout(ctx, evt)
		}
	}
}

func (w *EventFanout) fanout(ctx context.Context, evt event.DomainEvent) {
	sinks := w.registry.SinksFor(evt.Audience())
	sinks = append(sinks, w.permanentSinks...)

	for _, sink := range sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
		if err := sink.Consume(sinkCtx, evt); err != nil {
			w.log.Debug("Sink dropped event", "error", err)
			w.monitoring.IncrEventsDropped()
		} else {
			w.monitoring.IncrEventsDelivered()
		}
		cancel()
	}
}
