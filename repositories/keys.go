// Package repositories persists the platform records in BadgerDB.
// Keys are built so that a lexicographic scan yields the order the
// services need: numeric ids are zero-padded to 19 digits, message keys
// embed the per-chat sequence, per-owner prefixes give creation order.
// Values are JSON documents.
package repositories

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v4"

	"unicomm/errors"
)

func pad(id int64) string {
	return fmt.Sprintf("%019d", id)
}

// update runs fn in a read-write transaction, retrying when badger's
// optimistic conflict detection aborts the commit. Creates of distinct
// records touch the same id counter key, so without the retry two
// concurrent creates would surface a transient conflict as a storage
// failure. Each retry re-runs fn against a fresh snapshot and always
// makes progress.
func update(db *badger.DB, fn func(txn *badger.Txn) error) error {
	for {
		err := db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
}

// nextID increments the named counter inside the given transaction, so
// id allocation commits or rolls back together with the record it is
// allocated for.
func nextID(txn *badger.Txn, name string) (int64, error) {
	key := []byte("counter:" + name)
	var current int64
	item, err := txn.Get(key)
	switch err {
	case nil:
		err = item.Value(func(val []byte) error {
			current, err = strconv.ParseInt(string(val), 10, 64)
			return err
		})
		if err != nil {
			return 0, err
		}
	case badger.ErrKeyNotFound:
		current = 0
	default:
		return 0, err
	}
	current++
	if err := txn.Set(key, []byte(strconv.FormatInt(current, 10))); err != nil {
		return 0, err
	}
	return current, nil
}

func setJSON(txn *badger.Txn, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set([]byte(key), data)
}

func getJSON(txn *badger.Txn, key string, v any) error {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

// storageErr maps badger errors to the core taxonomy: a missing key is
// ErrNotFound, everything else is a fatal ErrStorage.
func storageErr(err error) error {
	if err == nil {
		return nil
	}
	if err == badger.ErrKeyNotFound {
		return errors.ErrNotFound
	}
	return fmt.Errorf("%w: %v", errors.ErrStorage, err)
}
