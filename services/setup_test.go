package services

import (
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"unicomm/domain"
	"unicomm/domain/event"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// testEvents returns a channel large enough that no test ever blocks or
// drops on publish.
func testEvents() chan event.DomainEvent {
	return make(chan event.DomainEvent, 1024)
}

func testLogger() *slog.Logger {
	return slog.Default()
}

func asUser(id int64) domain.Identity {
	return domain.Identity{UserID: id, Role: domain.RoleUser}
}

func asAgent(id int64) domain.Identity {
	return domain.Identity{UserID: id, Role: domain.RoleAgent}
}

func asAdmin(id int64) domain.Identity {
	return domain.Identity{UserID: id, Role: domain.RoleAdmin}
}

// drain collects every event currently buffered in the channel.
func drain(events chan event.DomainEvent) []event.DomainEvent {
	var out []event.DomainEvent
	for {
		select {
		case e := <-events:
			out = append(out, e)
		default:
			return out
		}
	}
}
