package runtime

import (
	"sync"

	"unicomm/contract"
)

// Registry tracks the active event sink of each connected user. The
// fanout worker resolves an event's audience through it; users without
// a live sink are simply skipped.
type Registry struct {
	mu       sync.RWMutex
	sessions map[int64]contract.EventSink
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[int64]contract.EventSink)}
}

// Subscribe registers a user's active connection. A reconnect replaces
// the previous sink.
func (r *Registry) Subscribe(userID int64, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[userID] = sink
}

func (r *Registry) Unsubscribe(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
}

// SinksFor resolves the audience user ids into live sinks. Returns nil
// when nobody in the audience is connected.
func (r *Registry) SinksFor(audience []int64) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sinks []contract.EventSink
	for _, userID := range audience {
		if sink, ok := r.sessions[userID]; ok {
			sinks = append(sinks, sink)
		}
	}
	return sinks
}
