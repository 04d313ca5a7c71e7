package repositories

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"unicomm/domain"
	"unicomm/errors"
)

func Test_Contact_CRUD(t *testing.T) {
	req := require.New(t)
	repo := NewContactRepository(openTestDB(t))

	created, err := repo.CreateContact(1, domain.ContactFields{Name: "Bob", Phone: "+33612345678"})
	req.NoError(err)
	req.Equal(int64(1), created.ID)
	req.Equal(int64(1), created.OwnerID)

	fetched, err := repo.GetContact(created.ID)
	req.NoError(err)
	req.Equal("Bob", fetched.Name)

	fetched.Notes = "met at the conference"
	req.NoError(repo.UpdateContact(fetched))

	updated, err := repo.GetContact(created.ID)
	req.NoError(err)
	req.Equal("met at the conference", updated.Notes)
	req.Equal(created.CreatedAt, updated.CreatedAt)

	req.NoError(repo.DeleteContact(1, created.ID))
	_, err = repo.GetContact(created.ID)
	req.ErrorIs(err, errors.ErrNotFound)
}

func Test_ListContacts_CreationOrderPerOwner(t *testing.T) {
	req := require.New(t)
	repo := NewContactRepository(openTestDB(t))

	names := []string{"Alpha", "Beta", "Gamma"}
	for _, name := range names {
		_, err := repo.CreateContact(1, domain.ContactFields{Name: name, Phone: "+33612345678"})
		req.NoError(err)
	}
	_, err := repo.CreateContact(2, domain.ContactFields{Name: "Other", Phone: "+33698765432"})
	req.NoError(err)

	contacts, err := repo.ListContacts(1)
	req.NoError(err)
	req.Len(contacts, 3)
	for i, c := range contacts {
		req.Equal(names[i], c.Name)
	}
}

// Creates of distinct resources share nothing but the id counter, so
// they must all succeed when run concurrently.
func Test_CreateContact_ConcurrentDistinctOwners(t *testing.T) {
	req := require.New(t)
	repo := NewContactRepository(openTestDB(t))

	const n = 32
	ids := make([]int64, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			contact, err := repo.CreateContact(int64(i+1), domain.ContactFields{
				Name:  "Concurrent",
				Phone: "+33612345678",
			})
			ids[i] = contact.ID
			errs[i] = err
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool, n)
	for i := 0; i < n; i++ {
		req.NoError(errs[i], "owner %d", i+1)
		req.False(seen[ids[i]], "duplicate id %d", ids[i])
		seen[ids[i]] = true
	}
}

func Test_DeleteContact_WrongOwner(t *testing.T) {
	req := require.New(t)
	repo := NewContactRepository(openTestDB(t))

	created, err := repo.CreateContact(1, domain.ContactFields{Name: "Bob", Phone: "+33612345678"})
	req.NoError(err)

	err = repo.DeleteContact(2, created.ID)
	req.ErrorIs(err, errors.ErrNotFound)

	// The record is untouched.
	_, err = repo.GetContact(created.ID)
	req.NoError(err)
}
