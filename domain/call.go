package domain

import (
	"fmt"
	"time"
)

// CallState is the closed set of call lifecycle states. A call walks the
// states monotonically; no state is reachable twice within one call.
type CallState string

const (
	CallInitiating CallState = "initiating"
	CallRinging    CallState = "ringing"
	CallConnected  CallState = "connected"
	CallVoicemail  CallState = "voicemail"
	CallEnded      CallState = "ended"
	CallFailed     CallState = "failed"
)

// transitions is the whole state machine. Ended and Failed have no
// outgoing edges.
var transitions = map[CallState][]CallState{
	CallInitiating: {CallRinging, CallFailed},
	CallRinging:    {CallConnected, CallVoicemail, CallEnded, CallFailed},
	CallConnected:  {CallEnded},
	CallVoicemail:  {CallEnded},
	CallEnded:      {},
	CallFailed:     {},
}

func (s CallState) CanTransition(to CallState) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the state admits no further transition.
func (s CallState) Terminal() bool {
	return len(transitions[s]) == 0
}

type CallType string

const (
	CallVoice CallType = "voice"
	CallVideo CallType = "video"
)

func ParseCallType(s string) (CallType, error) {
	switch CallType(s) {
	case CallVoice, CallVideo:
		return CallType(s), nil
	}
	return "", fmt.Errorf("unknown call type %q", s)
}

// Call is a call session. ID is an opaque token. TrunkRef holds the
// gateway-issued reference for external calls and is never interpreted
// by the core.
type Call struct {
	ID           string
	InitiatorID  int64
	TargetUserID int64 // 0 for external calls
	TargetNumber string
	Type         CallType
	State        CallState
	TrunkRef     string
	FailReason   string
	StartedAt    time.Time
	AnsweredAt   *time.Time
	EndedAt      *time.Time
}

// External reports whether the call is routed through the trunk rather
// than to an internal user.
func (c *Call) External() bool {
	return c.TargetUserID == 0
}

// Parties lists the user ids with a stake in the call. External calls
// only involve the initiator.
func (c *Call) Parties() []int64 {
	if c.External() {
		return []int64{c.InitiatorID}
	}
	return []int64{c.InitiatorID, c.TargetUserID}
}

// Voicemail is the record left when a ringing call drops off to
// voicemail. OwnerID is the user whose mailbox it landed in.
type Voicemail struct {
	ID           int64
	CallID       string
	OwnerID      int64
	CallerNumber string
	CallerName   string
	Duration     int
	Transcript   string
	Read         bool
	CreatedAt    time.Time
}
