package repositories

import (
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_NextID_IsMonotonic(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	var first, second int64
	err := db.Update(func(txn *badger.Txn) error {
		var err error
		first, err = nextID(txn, "thing")
		if err != nil {
			return err
		}
		second, err = nextID(txn, "thing")
		return err
	})
	req.NoError(err)
	req.Equal(int64(1), first)
	req.Equal(int64(2), second)

	// Independent counters do not interfere.
	var other int64
	err = db.Update(func(txn *badger.Txn) error {
		var err error
		other, err = nextID(txn, "other")
		return err
	})
	req.NoError(err)
	req.Equal(int64(1), other)
}
