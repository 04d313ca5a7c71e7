package services

import (
	"fmt"
	"log/slog"
	"time"

	"unicomm/auth"
	"unicomm/contract"
	"unicomm/domain"
	"unicomm/domain/event"
	"unicomm/errors"
	"unicomm/moderation"
	"unicomm/runtime"
)

type IChatService interface {
	CreateOrGetDirectChat(id domain.Identity, userA, userB int64) (domain.Chat, error)
	CreateGroupChat(id domain.Identity, creatorID int64, participantIDs []int64) (domain.Chat, error)
	PostMessage(id domain.Identity, chatID, senderID int64, content string) (domain.Message, error)
	ListMessages(id domain.Identity, chatID int64, sinceSeq uint64) ([]domain.Message, error)
	ListChats(id domain.Identity, userID int64) ([]domain.Chat, error)
}

type ChatService struct {
	log       *slog.Logger
	chats     contract.IChatRepository
	users     contract.IUserRepository
	locks     *runtime.KeyedMutex
	events    chan<- event.DomainEvent
	moderator *moderation.Moderator // nil disables the content filter
}

func NewChatService(log *slog.Logger, chats contract.IChatRepository,
	users contract.IUserRepository, locks *runtime.KeyedMutex,
	events chan<- event.DomainEvent, moderator *moderation.Moderator) *ChatService {
	return &ChatService{
		log:       log,
		chats:     chats,
		users:     users,
		locks:     locks,
		events:    events,
		moderator: moderator,
	}
}

// CreateOrGetDirectChat returns the unique direct chat between the two
// users, creating it on first use. The pair lock makes concurrent
// first calls agree on a single chat.
func (s *ChatService) CreateOrGetDirectChat(id domain.Identity, userA, userB int64) (domain.Chat, error) {
	if err := auth.Authorize(id, auth.ActionCreate,
		auth.Resource{Kind: auth.KindChat, Participants: []int64{userA, userB}}); err != nil {
		return domain.Chat{}, err
	}
	if userA == userB {
		return domain.Chat{}, fmt.Errorf("%w: direct chat needs two distinct users", errors.ErrValidation)
	}
	for _, userID := range []int64{userA, userB} {
		if _, err := s.users.GetUser(userID); err != nil {
			return domain.Chat{}, fmt.Errorf("%w: user %d", errors.ErrNotFound, userID)
		}
	}

	pairKey := domain.DirectKey(userA, userB)
	unlock := s.locks.Lock(lockKey("direct", pairKey))
	defer unlock()

	chat, err := s.chats.GetDirectChat(pairKey)
	switch {
	case err == nil:
		return chat, nil
	case errors.Is(err, errors.ErrNotFound):
	default:
		return domain.Chat{}, err
	}

	chat, err = s.chats.CreateChat(domain.ChatDirect, []int64{userA, userB})
	if err != nil {
		return domain.Chat{}, err
	}
	publish(s.log, s.events, event.ChatCreated{ChatID: chat.ID, Type: chat.Type, Participants: chat.Participants})
	return chat, nil
}

// CreateGroupChat requires at least two distinct participants including
// the creator.
func (s *ChatService) CreateGroupChat(id domain.Identity, creatorID int64, participantIDs []int64) (domain.Chat, error) {
	if err := auth.Authorize(id, auth.ActionCreate,
		auth.Resource{Kind: auth.KindChat, Participants: participantIDs}); err != nil {
		return domain.Chat{}, err
	}

	seen := make(map[int64]struct{}, len(participantIDs)+1)
	participants := make([]int64, 0, len(participantIDs)+1)
	for _, p := range append([]int64{creatorID}, participantIDs...) {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		participants = append(participants, p)
	}
	if len(participants) < 2 {
		return domain.Chat{}, fmt.Errorf("%w: group chat needs at least 2 distinct participants", errors.ErrValidation)
	}
	for _, userID := range participants {
		if _, err := s.users.GetUser(userID); err != nil {
			return domain.Chat{}, fmt.Errorf("%w: user %d", errors.ErrNotFound, userID)
		}
	}

	chat, err := s.chats.CreateChat(domain.ChatGroup, participants)
	if err != nil {
		return domain.Chat{}, err
	}
	publish(s.log, s.events, event.ChatCreated{ChatID: chat.ID, Type: chat.Type, Participants: chat.Participants})
	return chat, nil
}

// PostMessage appends to the chat under its lock, so sequence numbers
// are strictly increasing and gap-free even under concurrent posts.
func (s *ChatService) PostMessage(id domain.Identity, chatID, senderID int64, content string) (domain.Message, error) {
	chat, err := s.chats.GetChat(chatID)
	if err != nil {
		return domain.Message{}, err
	}
	if err := auth.Authorize(id, auth.ActionCreate,
		auth.Resource{Kind: auth.KindChat, Participants: chat.Participants}); err != nil {
		return domain.Message{}, err
	}
	if !chat.HasParticipant(senderID) {
		return domain.Message{}, fmt.Errorf("%w: user %d in chat %d", errors.ErrNotParticipant, senderID, chatID)
	}
	if content == "" {
		return domain.Message{}, fmt.Errorf("%w: empty message content", errors.ErrValidation)
	}
	if s.moderator != nil {
		content = s.moderator.Mask(content)
	}

	unlock := s.locks.Lock(lockKey("chat", chatID))
	defer unlock()

	message, err := s.chats.AppendMessage(chatID, senderID, content, time.Now().UTC())
	if err != nil {
		return domain.Message{}, err
	}
	publish(s.log, s.events, event.MessagePosted{
		ChatID:       chatID,
		Seq:          message.Seq,
		SenderID:     senderID,
		Content:      message.Content,
		At:           message.CreatedAt,
		Participants: chat.Participants,
	})
	return message, nil
}

// ListMessages returns messages after sinceSeq in ascending sequence
// order; sinceSeq 0 fetches the full history.
func (s *ChatService) ListMessages(id domain.Identity, chatID int64, sinceSeq uint64) ([]domain.Message, error) {
	chat, err := s.chats.GetChat(chatID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(id, auth.ActionRead,
		auth.Resource{Kind: auth.KindChat, Participants: chat.Participants}); err != nil {
		return nil, err
	}
	return s.chats.ListMessages(chatID, sinceSeq)
}

func (s *ChatService) ListChats(id domain.Identity, userID int64) ([]domain.Chat, error) {
	if err := auth.Authorize(id, auth.ActionRead,
		auth.Resource{Kind: auth.KindChat, OwnerID: userID}); err != nil {
		return nil, err
	}
	return s.chats.ListChatsFor(userID)
}
