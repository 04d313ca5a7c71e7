package repositories

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/dgraph-io/badger/v4"

	"unicomm/contract"
	"unicomm/domain"
	"unicomm/errors"
)

type ChatRepository struct {
	db *badger.DB
}

func NewChatRepository(db *badger.DB) contract.IChatRepository {
	return &ChatRepository{db: db}
}

// Message keys embed the zero-padded sequence number so a prefix scan
// over "msg:{chat}:" yields ascending sequence order for free.
func msgKey(chatID int64, seq uint64) string {
	return fmt.Sprintf("msg:%s:%019d", pad(chatID), seq)
}

func chatKey(id int64) string {
	return "chat:" + pad(id)
}

func memberKey(userID, chatID int64) string {
	return "chat_member:" + pad(userID) + ":" + pad(chatID)
}

// CreateChat writes the chat record, the membership index for every
// participant and, for direct chats, the pair-key index in one
// transaction.
func (r *ChatRepository) CreateChat(chatType domain.ChatType, participants []int64) (domain.Chat, error) {
	var chat domain.Chat
	err := update(r.db, func(txn *badger.Txn) error {
		id, err := nextID(txn, "chat")
		if err != nil {
			return err
		}
		chat = domain.Chat{
			ID:           id,
			Type:         chatType,
			Participants: participants,
			CreatedAt:    time.Now().UTC(),
		}
		if chatType == domain.ChatDirect {
			pairKey := domain.DirectKey(participants[0], participants[1])
			if err := txn.Set([]byte("chat_direct:"+pairKey), []byte(pad(id))); err != nil {
				return err
			}
		}
		for _, p := range participants {
			if err := txn.Set([]byte(memberKey(p, id)), nil); err != nil {
				return err
			}
		}
		return setJSON(txn, chatKey(id), chat)
	})
	return chat, storageErr(err)
}

func (r *ChatRepository) GetChat(id int64) (domain.Chat, error) {
	var chat domain.Chat
	err := r.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, chatKey(id), &chat)
	})
	return chat, storageErr(err)
}

func (r *ChatRepository) GetDirectChat(pairKey string) (domain.Chat, error) {
	var chat domain.Chat
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("chat_direct:" + pairKey))
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
		return getJSON(txn, "chat:"+primary, &chat)
	})
	return chat, storageErr(err)
}

func (r *ChatRepository) ListChatsFor(userID int64) ([]domain.Chat, error) {
	var chats []domain.Chat
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("chat_member:" + pad(userID) + ":")
		prefixLen := len(prefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			chatID := string(it.Item().Key()[prefixLen:])
			var chat domain.Chat
			if err := getJSON(txn, "chat:"+chatID, &chat); err != nil {
				return err
			}
			chats = append(chats, chat)
		}
		return nil
	})
	return chats, storageErr(err)
}

// AppendMessage allocates the next per-chat sequence number and writes
// the message together with the updated chat head. Callers serialize
// appends per chat, so the read-increment-write here never races.
func (r *ChatRepository) AppendMessage(chatID, senderID int64, content string, at time.Time) (domain.Message, error) {
	var message domain.Message
	err := update(r.db, func(txn *badger.Txn) error {
		var chat domain.Chat
		if err := getJSON(txn, chatKey(chatID), &chat); err != nil {
			return err
		}
		chat.LastSeq++
		message = domain.Message{
			Seq:       chat.LastSeq,
			ChatID:    chatID,
			SenderID:  senderID,
			Content:   content,
			CreatedAt: at,
		}
		if err := setJSON(txn, msgKey(chatID, message.Seq), message); err != nil {
			return err
		}
		return setJSON(txn, chatKey(chatID), chat)
	})
	if err == badger.ErrKeyNotFound {
		return domain.Message{}, errors.ErrNotFound
	}
	return message, storageErr(err)
}

// ListMessages returns messages with Seq > sinceSeq in ascending
// sequence order, supporting incremental fetch.
func (r *ChatRepository) ListMessages(chatID int64, sinceSeq uint64) ([]domain.Message, error) {
	// sinceSeq+1 below would wrap to 0 and return the full history.
	if sinceSeq == math.MaxUint64 {
		return nil, nil
	}
	var messages []domain.Message
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("msg:" + pad(chatID) + ":")
		seek := []byte(msgKey(chatID, sinceSeq+1))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			var message domain.Message
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &message)
			}); err != nil {
				return err
			}
			messages = append(messages, message)
		}
		return nil
	})
	return messages, storageErr(err)
}
