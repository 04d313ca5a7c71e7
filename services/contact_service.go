package services

import (
	"fmt"
	"log/slog"

	"unicomm/auth"
	"unicomm/contract"
	"unicomm/domain"
	"unicomm/domain/event"
	"unicomm/errors"
)

type IContactService interface {
	Add(id domain.Identity, ownerID int64, fields domain.ContactFields) (domain.Contact, error)
	Update(id domain.Identity, ownerID, contactID int64, fields domain.ContactFields) (domain.Contact, error)
	Remove(id domain.Identity, ownerID, contactID int64) error
	List(id domain.Identity, ownerID int64) ([]domain.Contact, error)
}

type ContactService struct {
	log      *slog.Logger
	contacts contract.IContactRepository
	events   chan<- event.DomainEvent
}

func NewContactService(log *slog.Logger, contacts contract.IContactRepository,
	events chan<- event.DomainEvent) *ContactService {
	return &ContactService{log: log, contacts: contacts, events: events}
}

func (s *ContactService) Add(id domain.Identity, ownerID int64, fields domain.ContactFields) (domain.Contact, error) {
	if err := auth.Authorize(id, auth.ActionCreate, auth.Resource{Kind: auth.KindContact, OwnerID: ownerID}); err != nil {
		return domain.Contact{}, err
	}
	if err := auth.ValidateContact(fields); err != nil {
		return domain.Contact{}, err
	}
	contact, err := s.contacts.CreateContact(ownerID, fields)
	if err != nil {
		return domain.Contact{}, err
	}
	publish(s.log, s.events, event.ContactChanged{ContactID: contact.ID, OwnerID: ownerID, Op: "added"})
	return contact, nil
}

func (s *ContactService) Update(id domain.Identity, ownerID, contactID int64, fields domain.ContactFields) (domain.Contact, error) {
	if err := auth.Authorize(id, auth.ActionUpdate, auth.Resource{Kind: auth.KindContact, OwnerID: ownerID}); err != nil {
		return domain.Contact{}, err
	}
	contact, err := s.contacts.GetContact(contactID)
	if err != nil {
		return domain.Contact{}, err
	}
	// A contact of another owner is indistinguishable from a missing one.
	if contact.OwnerID != ownerID {
		return domain.Contact{}, fmt.Errorf("%w: contact %d", errors.ErrNotFound, contactID)
	}
	if err := auth.ValidateContact(fields); err != nil {
		return domain.Contact{}, err
	}

	contact.Name = fields.Name
	contact.Phone = fields.Phone
	contact.Email = fields.Email
	contact.Company = fields.Company
	contact.Notes = fields.Notes
	if err := s.contacts.UpdateContact(contact); err != nil {
		return domain.Contact{}, err
	}
	publish(s.log, s.events, event.ContactChanged{ContactID: contact.ID, OwnerID: ownerID, Op: "updated"})
	return contact, nil
}

func (s *ContactService) Remove(id domain.Identity, ownerID, contactID int64) error {
	if err := auth.Authorize(id, auth.ActionDelete, auth.Resource{Kind: auth.KindContact, OwnerID: ownerID}); err != nil {
		return err
	}
	contact, err := s.contacts.GetContact(contactID)
	if err != nil {
		return err
	}
	if contact.OwnerID != ownerID {
		return fmt.Errorf("%w: contact %d", errors.ErrNotFound, contactID)
	}
	if err := s.contacts.DeleteContact(ownerID, contactID); err != nil {
		return err
	}
	publish(s.log, s.events, event.ContactChanged{ContactID: contactID, OwnerID: ownerID, Op: "removed"})
	return nil
}

// List returns the owner's contacts in creation order.
func (s *ContactService) List(id domain.Identity, ownerID int64) ([]domain.Contact, error) {
	if err := auth.Authorize(id, auth.ActionRead, auth.Resource{Kind: auth.KindContact, OwnerID: ownerID}); err != nil {
		return nil, err
	}
	return s.contacts.ListContacts(ownerID)
}
