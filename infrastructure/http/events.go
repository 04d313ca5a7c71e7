package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"unicomm/contract"
	"unicomm/domain/event"
	"unicomm/observability"
)

var _ contract.EventSink = (*sessionSink)(nil)

// sessionSink bridges the fanout to one live SSE connection. The
// buffered channel absorbs bursts; when it is full the event is lost for
// this session only.
type sessionSink struct {
	ch chan event.DomainEvent
}

func newSessionSink(buffer int) *sessionSink {
	return &sessionSink{ch: make(chan event.DomainEvent, buffer)}
}

func (s *sessionSink) Consume(_ context.Context, e event.DomainEvent) error {
	select {
	case s.ch <- e:
		return nil
	default:
		return fmt.Errorf("session buffer full")
	}
}

// EventStream subscribes the caller to their event feed over
// server-sent events until the connection drops.
func EventStream(registry contract.IRegistry, monitoring *observability.MonitoringManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}
		identity := IdentityFrom(r.Context())

		sink := newSessionSink(64)
		registry.Subscribe(identity.UserID, sink)
		monitoring.SessionOpened()
		defer func() {
			registry.Unsubscribe(identity.UserID)
			monitoring.SessionClosed()
		}()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case e := <-sink.ch:
				payload, err := json.Marshal(e)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "event: %T\ndata: %s\n\n", e, payload)
				flusher.Flush()
			}
		}
	}
}
