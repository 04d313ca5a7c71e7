// Package event defines the domain events published by the core after a
// successful mutation. Events carry their own audience so the fanout
// layer needs no domain knowledge to route them.
package event

import (
	"time"

	"unicomm/domain"
)

type DomainEvent interface {
	// Audience lists the user ids the event should be delivered to.
	Audience() []int64
}

type MessagePosted struct {
	ChatID       int64
	Seq          uint64
	SenderID     int64
	Content      string
	At           time.Time
	Participants []int64
}

func (e MessagePosted) Audience() []int64 { return e.Participants }

type ChatCreated struct {
	ChatID       int64
	Type         domain.ChatType
	Participants []int64
}

func (e ChatCreated) Audience() []int64 { return e.Participants }

type CallStateChanged struct {
	CallID  string
	From    domain.CallState
	To      domain.CallState
	Parties []int64
}

func (e CallStateChanged) Audience() []int64 { return e.Parties }

type VoicemailLeft struct {
	VoicemailID int64
	CallID      string
	OwnerID     int64
}

func (e VoicemailLeft) Audience() []int64 { return []int64{e.OwnerID} }

type ContactChanged struct {
	ContactID int64
	OwnerID   int64
	Op        string // added, updated, removed
}

func (e ContactChanged) Audience() []int64 { return []int64{e.OwnerID} }

type SMSSent struct {
	ReceiptID string
	SenderID  int64
	Number    string
}

func (e SMSSent) Audience() []int64 { return []int64{e.SenderID} }
