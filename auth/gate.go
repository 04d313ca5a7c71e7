package auth

import (
	"fmt"

	"unicomm/domain"
	"unicomm/errors"
)

// Action is what the caller wants to do with a resource.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	// ActionManage covers administrative operations (role changes,
	// deactivation). Only admins ever pass it.
	ActionManage Action = "manage"
)

type ResourceKind string

const (
	KindContact   ResourceKind = "contact"
	KindChat      ResourceKind = "chat"
	KindCall      ResourceKind = "call"
	KindVoicemail ResourceKind = "voicemail"
	KindUser      ResourceKind = "user"
	KindSMS       ResourceKind = "sms"
)

// Resource describes the target of an operation for authorization.
// OwnerID is the owning user (0 when ownership does not apply) and
// Participants the users taking part in it (chats, calls).
type Resource struct {
	Kind         ResourceKind
	OwnerID      int64
	Participants []int64
}

// Authorize is the role gate: a pure decision over role, action and
// ownership. Every mutating core operation calls it before touching
// state, so a deny has no side effects.
//
// Admin may act on any resource. Agent may act on call, chat and sms
// resources freely, and on everything else only when owning or taking
// part. User may only act on resources they own or participate in.
func Authorize(id domain.Identity, action Action, res Resource) error {
	switch id.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleAgent:
		if action == ActionManage {
			break
		}
		switch res.Kind {
		case KindChat, KindCall, KindSMS:
			return nil
		}
		if involved(id.UserID, res) {
			return nil
		}
	case domain.RoleUser:
		if action == ActionManage {
			break
		}
		if involved(id.UserID, res) {
			return nil
		}
	}
	return fmt.Errorf("%w: role %s may not %s %s", errors.ErrPermissionDenied, id.Role, action, res.Kind)
}

func involved(userID int64, res Resource) bool {
	if res.OwnerID == userID {
		return true
	}
	for _, p := range res.Participants {
		if p == userID {
			return true
		}
	}
	return false
}
