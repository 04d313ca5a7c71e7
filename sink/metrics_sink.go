package sink

import (
	"context"

	"unicomm/contract"
	"unicomm/domain"
	"unicomm/domain/event"
	"unicomm/observability"
)

var _ contract.EventSink = (*MetricsSink)(nil)

// MetricsSink feeds the monitoring counters from the event stream, so
// services never touch telemetry directly.
type MetricsSink struct {
	monitoring *observability.MonitoringManager
}

func NewMetricsSink(monitoring *observability.MonitoringManager) *MetricsSink {
	return &MetricsSink{monitoring: monitoring}
}

func (s *MetricsSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch ev := e.(type) {
	case event.MessagePosted:
		s.monitoring.IncrMessagesPosted()
	case event.CallStateChanged:
		if ev.From == domain.CallInitiating {
			s.monitoring.IncrCallsInitiated()
		}
	case event.SMSSent:
		s.monitoring.IncrSMSSent()
	}
	return nil
}
