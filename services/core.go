// Package services implements the session core: the single entry point
// around the contact directory, the chat store and the call session
// manager. Every mutation runs gate, then per-resource lock, then
// repository transaction, then event publication.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"unicomm/auth"
	"unicomm/contract"
	"unicomm/domain"
	"unicomm/domain/event"
	"unicomm/errors"
)

// Core is the facade the shell talks to. It owns the sub-services and
// the outbound collaborators shared between them.
type Core struct {
	Auth     *AuthService
	Contacts *ContactService
	Chats    *ChatService
	Calls    *CallService

	log        *slog.Logger
	gateway    contract.TransportGateway
	events     chan<- event.DomainEvent
	smsTimeout time.Duration
}

func NewCore(log *slog.Logger, authSvc *AuthService, contacts *ContactService,
	chats *ChatService, calls *CallService, gateway contract.TransportGateway,
	events chan<- event.DomainEvent, smsTimeout time.Duration) *Core {
	return &Core{
		Auth:       authSvc,
		Contacts:   contacts,
		Chats:      chats,
		Calls:      calls,
		log:        log,
		gateway:    gateway,
		events:     events,
		smsTimeout: smsTimeout,
	}
}

// SendSMS validates the number and hands the text to the gateway. The
// receipt id is opaque; the gateway owns delivery semantics and any
// retry policy.
func (c *Core) SendSMS(ctx context.Context, id domain.Identity, number, text string) (string, error) {
	if err := auth.Authorize(id, auth.ActionCreate, auth.Resource{Kind: auth.KindSMS, OwnerID: id.UserID}); err != nil {
		return "", err
	}
	if !domain.ValidNumber(number) {
		return "", fmt.Errorf("%w: number must be '+' followed by digits", errors.ErrValidation)
	}
	if text == "" {
		return "", fmt.Errorf("%w: empty sms text", errors.ErrValidation)
	}

	smsCtx, cancel := context.WithTimeout(ctx, c.smsTimeout)
	defer cancel()
	receipt, err := c.gateway.SendSMS(smsCtx, number, text)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrTransport, err)
	}

	publish(c.log, c.events, event.SMSSent{ReceiptID: receipt, SenderID: id.UserID, Number: number})
	return receipt, nil
}

// publish hands an event to the fanout pipeline without ever blocking a
// core mutation; a full channel drops the event.
func publish(log *slog.Logger, events chan<- event.DomainEvent, e event.DomainEvent) {
	select {
	case events <- e:
	default:
		log.Warn("Event channel full, dropping event", "type", fmt.Sprintf("%T", e))
	}
}

// lockKey namespaces keyed-mutex entries per resource type.
func lockKey(kind string, id any) string {
	return fmt.Sprintf("%s:%v", kind, id)
}
