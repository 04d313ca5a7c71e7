package repositories

import (
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"

	"unicomm/contract"
	"unicomm/domain"
)

type CallRepository struct {
	db *badger.DB
}

func NewCallRepository(db *badger.DB) contract.ICallRepository {
	return &CallRepository{db: db}
}

// Call ids are opaque strings issued by the service, so the key is the
// id itself. Voicemails follow the owner-prefixed layout of contacts.
func callKey(id string) string {
	return "call:" + id
}

func vmKey(ownerID, id int64) string {
	return "vm:" + pad(ownerID) + ":" + pad(id)
}

func vmIdxKey(id int64) string {
	return "vm_idx:" + pad(id)
}

func (r *CallRepository) SaveCall(c domain.Call) error {
	err := update(r.db, func(txn *badger.Txn) error {
		return setJSON(txn, callKey(c.ID), c)
	})
	return storageErr(err)
}

func (r *CallRepository) GetCall(id string) (domain.Call, error) {
	var call domain.Call
	err := r.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, callKey(id), &call)
	})
	return call, storageErr(err)
}

func (r *CallRepository) CreateVoicemail(vm domain.Voicemail) (domain.Voicemail, error) {
	err := update(r.db, func(txn *badger.Txn) error {
		id, err := nextID(txn, "voicemail")
		if err != nil {
			return err
		}
		vm.ID = id
		vm.CreatedAt = time.Now().UTC()
		if err := txn.Set([]byte(vmIdxKey(id)), []byte(vmKey(vm.OwnerID, id))); err != nil {
			return err
		}
		return setJSON(txn, vmKey(vm.OwnerID, id), vm)
	})
	return vm, storageErr(err)
}

func (r *CallRepository) GetVoicemail(id int64) (domain.Voicemail, error) {
	var vm domain.Voicemail
	err := r.db.View(func(txn *badger.Txn) error {
		primary, err := r.resolve(txn, id)
		if err != nil {
			return err
		}
		return getJSON(txn, primary, &vm)
	})
	return vm, storageErr(err)
}

func (r *CallRepository) UpdateVoicemail(vm domain.Voicemail) error {
	err := update(r.db, func(txn *badger.Txn) error {
		key := vmKey(vm.OwnerID, vm.ID)
		var existing domain.Voicemail
		if err := getJSON(txn, key, &existing); err != nil {
			return err
		}
		return setJSON(txn, key, vm)
	})
	return storageErr(err)
}

func (r *CallRepository) DeleteVoicemail(id int64) error {
	err := update(r.db, func(txn *badger.Txn) error {
		primary, err := r.resolve(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete([]byte(vmIdxKey(id))); err != nil {
			return err
		}
		return txn.Delete([]byte(primary))
	})
	return storageErr(err)
}

func (r *CallRepository) ListVoicemails(ownerID int64) ([]domain.Voicemail, error) {
	var vms []domain.Voicemail
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("vm:" + pad(ownerID) + ":")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var vm domain.Voicemail
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &vm)
			}); err != nil {
				return err
			}
			vms = append(vms, vm)
		}
		return nil
	})
	return vms, storageErr(err)
}

func (r *CallRepository) resolve(txn *badger.Txn, id int64) (string, error) {
	item, err := txn.Get([]byte(vmIdxKey(id)))
	if err != nil {
		return "", err
	}
	var primary string
	err = item.Value(func(val []byte) error {
		primary = string(val)
		return nil
	})
	return primary, err
}
