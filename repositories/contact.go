package repositories

import (
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"

	"unicomm/contract"
	"unicomm/domain"
)

type ContactRepository struct {
	db *badger.DB
}

func NewContactRepository(db *badger.DB) contract.IContactRepository {
	return &ContactRepository{db: db}
}

// Contacts live under "contact:{owner}:{id}" so a prefix scan per owner
// returns creation order. "contact_idx:{id}" points back at the primary
// key for lookups that only carry the contact id.
func contactKey(ownerID, id int64) string {
	return "contact:" + pad(ownerID) + ":" + pad(id)
}

func contactIdxKey(id int64) string {
	return "contact_idx:" + pad(id)
}

func (r *ContactRepository) CreateContact(ownerID int64, fields domain.ContactFields) (domain.Contact, error) {
	var contact domain.Contact
	err := update(r.db, func(txn *badger.Txn) error {
		id, err := nextID(txn, "contact")
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		contact = domain.Contact{
			ID:        id,
			OwnerID:   ownerID,
			Name:      fields.Name,
			Phone:     fields.Phone,
			Email:     fields.Email,
			Company:   fields.Company,
			Notes:     fields.Notes,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := txn.Set([]byte(contactIdxKey(id)), []byte(contactKey(ownerID, id))); err != nil {
			return err
		}
		return setJSON(txn, contactKey(ownerID, id), contact)
	})
	return contact, storageErr(err)
}

func (r *ContactRepository) GetContact(id int64) (domain.Contact, error) {
	var contact domain.Contact
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(contactIdxKey(id)))
		if err != nil {
			return err
		}
		var primary string
		if err := item.Value(func(val []byte) error {
			primary = string(val)
			return nil
		}); err != nil {
			return err
		}
		return getJSON(txn, primary, &contact)
	})
	return contact, storageErr(err)
}

// UpdateContact rewrites the whole record in one transaction; either all
// fields persist or none do.
func (r *ContactRepository) UpdateContact(c domain.Contact) error {
	err := update(r.db, func(txn *badger.Txn) error {
		key := contactKey(c.OwnerID, c.ID)
		var existing domain.Contact
		if err := getJSON(txn, key, &existing); err != nil {
			return err
		}
		c.CreatedAt = existing.CreatedAt
		c.UpdatedAt = time.Now().UTC()
		return setJSON(txn, key, c)
	})
	return storageErr(err)
}

func (r *ContactRepository) DeleteContact(ownerID, id int64) error {
	err := update(r.db, func(txn *badger.Txn) error {
		key := []byte(contactKey(ownerID, id))
		if _, err := txn.Get(key); err != nil {
			return err
		}
		if err := txn.Delete([]byte(contactIdxKey(id))); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	return storageErr(err)
}

func (r *ContactRepository) ListContacts(ownerID int64) ([]domain.Contact, error) {
	var contacts []domain.Contact
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("contact:" + pad(ownerID) + ":")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var contact domain.Contact
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &contact)
			}); err != nil {
				return err
			}
			contacts = append(contacts, contact)
		}
		return nil
	})
	return contacts, storageErr(err)
}
