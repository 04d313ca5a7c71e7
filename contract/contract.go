//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"time"

	"unicomm/domain"
	"unicomm/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker is a supervised long-running unit. It does not protect itself;
// the supervisor recovers panics and restarts it.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker
// for logging and supervision, avoiding manual naming in the interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives domain events for one consumer (a user session, a
// log, a projection). Delivery is best-effort.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

type IRegistry interface {
	Subscribe(userID int64, sink EventSink)
	Unsubscribe(userID int64)
	SinksFor(audience []int64) []EventSink
}

// TransportGateway is the carrier-side collaborator. References it
// returns are opaque to the core; delivery semantics belong to the
// gateway. A simulated and a production implementation share this
// interface, selected at process startup.
type TransportGateway interface {
	Dial(ctx context.Context, target string, callType domain.CallType) (string, error)
	SendSMS(ctx context.Context, number, text string) (string, error)
}

type IUserRepository interface {
	CreateUser(username, passwordHash string, role domain.Role) (domain.User, error)
	GetUser(id int64) (domain.User, error)
	GetUserByUsername(username string) (domain.User, error)
	UpdateUser(u domain.User) error
	ListUsers() ([]domain.User, error)
}

type IContactRepository interface {
	CreateContact(ownerID int64, fields domain.ContactFields) (domain.Contact, error)
	GetContact(id int64) (domain.Contact, error)
	UpdateContact(c domain.Contact) error
	DeleteContact(ownerID, id int64) error
	ListContacts(ownerID int64) ([]domain.Contact, error)
}

type IChatRepository interface {
	CreateChat(chatType domain.ChatType, participants []int64) (domain.Chat, error)
	GetChat(id int64) (domain.Chat, error)
	// GetDirectChat resolves the order-independent pair key built by
	// domain.DirectKey. Returns errors.ErrNotFound when absent.
	GetDirectChat(pairKey string) (domain.Chat, error)
	ListChatsFor(userID int64) ([]domain.Chat, error)
	// AppendMessage allocates the next sequence number and writes the
	// message and the chat head in one transaction.
	AppendMessage(chatID, senderID int64, content string, at time.Time) (domain.Message, error)
	ListMessages(chatID int64, sinceSeq uint64) ([]domain.Message, error)
}

type ICallRepository interface {
	SaveCall(c domain.Call) error
	GetCall(id string) (domain.Call, error)
	CreateVoicemail(vm domain.Voicemail) (domain.Voicemail, error)
	GetVoicemail(id int64) (domain.Voicemail, error)
	UpdateVoicemail(vm domain.Voicemail) error
	DeleteVoicemail(id int64) error
	ListVoicemails(ownerID int64) ([]domain.Voicemail, error)
}
