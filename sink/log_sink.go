// Package sink provides permanent event consumers attached to the
// fanout pipeline regardless of who is connected.
package sink

import (
	"context"
	"fmt"
	"log/slog"

	"unicomm/contract"
	"unicomm/domain/event"
)

var _ contract.EventSink = (*LogSink)(nil)

// LogSink records every domain event in the structured log. Useful as an
// audit trail and as the minimal proof that the pipeline is alive.
type LogSink struct {
	log *slog.Logger
}

func NewLogSink(log *slog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Consume(_ context.Context, e event.DomainEvent) error {
	s.log.Info("Domain event", "type", fmt.Sprintf("%T", e), "audience", e.Audience())
	return nil
}
