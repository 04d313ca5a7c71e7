// Package domain contains the core concepts of the communication platform:
// users, contacts, chats, calls and voicemails. Records are plain values;
// rules that span records live in the services layer.
package domain

import (
	"fmt"
	"time"
)

// Role is the closed set of authorization roles. Authorization decisions
// are made over this enum, never over free-form strings.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleAgent Role = "agent"
	RoleUser  Role = "user"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleAgent, RoleUser:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

type User struct {
	ID           int64
	Username     string
	Role         Role
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
}

// Identity is the request-scoped caller identity resolved by the shell
// and passed into every core operation. The core holds no ambient
// "current user".
type Identity struct {
	UserID int64
	Role   Role
}
