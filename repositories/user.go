package repositories

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"

	"unicomm/contract"
	"unicomm/domain"
	"unicomm/errors"
)

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) contract.IUserRepository {
	return &UserRepository{db: db}
}

// CreateUser persists a new user and the username index in one
// transaction. The username must be free.
func (r *UserRepository) CreateUser(username, passwordHash string, role domain.Role) (domain.User, error) {
	var user domain.User
	err := update(r.db, func(txn *badger.Txn) error {
		nameKey := []byte("user_name:" + username)
		if _, err := txn.Get(nameKey); err == nil {
			return errors.ErrUserAlreadyExists
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		id, err := nextID(txn, "user")
		if err != nil {
			return err
		}
		user = domain.User{
			ID:           id,
			Username:     username,
			Role:         role,
			PasswordHash: passwordHash,
			Active:       true,
			CreatedAt:    time.Now().UTC(),
		}
		if err := txn.Set(nameKey, []byte(strconv.FormatInt(id, 10))); err != nil {
			return err
		}
		return setJSON(txn, "user:"+pad(id), user)
	})
	if err == errors.ErrUserAlreadyExists {
		return domain.User{}, err
	}
	return user, storageErr(err)
}

func (r *UserRepository) GetUser(id int64) (domain.User, error) {
	var user domain.User
	err := r.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, "user:"+pad(id), &user)
	})
	return user, storageErr(err)
}

func (r *UserRepository) GetUserByUsername(username string) (domain.User, error) {
	var user domain.User
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("user_name:" + username))
		if err != nil {
			return err
		}
		var id int64
		if err := item.Value(func(val []byte) error {
			id, err = strconv.ParseInt(string(val), 10, 64)
			return err
		}); err != nil {
			return err
		}
		return getJSON(txn, "user:"+pad(id), &user)
	})
	return user, storageErr(err)
}

// UpdateUser overwrites the record. The username index is immutable, so
// only the record value changes.
func (r *UserRepository) UpdateUser(u domain.User) error {
	err := update(r.db, func(txn *badger.Txn) error {
		var existing domain.User
		if err := getJSON(txn, "user:"+pad(u.ID), &existing); err != nil {
			return err
		}
		return setJSON(txn, "user:"+pad(u.ID), u)
	})
	return storageErr(err)
}

func (r *UserRepository) ListUsers() ([]domain.User, error) {
	var users []domain.User
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("user:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var user domain.User
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &user)
			}); err != nil {
				return err
			}
			users = append(users, user)
		}
		return nil
	})
	return users, storageErr(err)
}
