package domain

import (
	"fmt"
	"time"
)

type ChatType string

const (
	ChatDirect ChatType = "direct"
	ChatGroup  ChatType = "group"
)

type Chat struct {
	ID           int64
	Type         ChatType
	Participants []int64
	CreatedAt    time.Time
	LastSeq      uint64
}

func (c *Chat) HasParticipant(userID int64) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// DirectKey builds the deterministic lookup key for a direct chat.
// The key is independent of argument order, which is what makes a
// direct chat unique per unordered pair of users.
func DirectKey(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// Message is an immutable, append-only chat entry. Seq is strictly
// increasing and gap-free within one chat and is the tie-break for
// messages sharing a timestamp.
type Message struct {
	Seq       uint64
	ChatID    int64
	SenderID  int64
	Content   string
	CreatedAt time.Time
}
