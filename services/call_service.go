package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"unicomm/auth"
	"unicomm/contract"
	"unicomm/domain"
	"unicomm/domain/event"
	"unicomm/errors"
	"unicomm/runtime"
)

type ICallService interface {
	Initiate(ctx context.Context, id domain.Identity, callerID int64, target, callType string) (domain.Call, error)
	Answer(id domain.Identity, callID string) (domain.Call, error)
	RouteToVoicemail(id domain.Identity, callID string) (domain.Call, error)
	End(id domain.Identity, callID string) (domain.Call, error)
	Fail(id domain.Identity, callID, reason string) (domain.Call, error)
	ListVoicemails(id domain.Identity, ownerID int64) ([]domain.Voicemail, error)
	MarkVoicemailRead(id domain.Identity, voicemailID int64) error
	DeleteVoicemail(id domain.Identity, voicemailID int64) error
}

// CallService drives the call state machine. All transitions on one
// call id run under its keyed lock, so concurrent events (an end racing
// an answer) are linearized: the first transition wins and the loser
// observes ErrInvalidTransition against the new state.
type CallService struct {
	log         *slog.Logger
	calls       contract.ICallRepository
	users       contract.IUserRepository
	gateway     contract.TransportGateway
	locks       *runtime.KeyedMutex
	events      chan<- event.DomainEvent
	dialTimeout time.Duration
	ringTimeout time.Duration
}

func NewCallService(log *slog.Logger, calls contract.ICallRepository,
	users contract.IUserRepository, gateway contract.TransportGateway,
	locks *runtime.KeyedMutex, events chan<- event.DomainEvent,
	dialTimeout, ringTimeout time.Duration) *CallService {
	return &CallService{
		log:         log,
		calls:       calls,
		users:       users,
		gateway:     gateway,
		locks:       locks,
		events:      events,
		dialTimeout: dialTimeout,
		ringTimeout: ringTimeout,
	}
}

// Initiate creates the call and advances it to Ringing synchronously.
// An internal target is an existing user id; anything else must be an
// E.164-like number routed through the trunk, whose reference is stored
// verbatim. The gateway dial is bounded by the configured timeout; on
// gateway failure the call lands in Failed and the diagnostic is
// surfaced, never retried here.
func (s *CallService) Initiate(ctx context.Context, id domain.Identity, callerID int64, target, callType string) (domain.Call, error) {
	if err := auth.Authorize(id, auth.ActionCreate, auth.Resource{Kind: auth.KindCall, OwnerID: callerID}); err != nil {
		return domain.Call{}, err
	}
	ct, err := domain.ParseCallType(callType)
	if err != nil {
		return domain.Call{}, fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}

	call := domain.Call{
		ID:          uuid.NewString(),
		InitiatorID: callerID,
		Type:        ct,
		State:       domain.CallInitiating,
		StartedAt:   time.Now().UTC(),
	}

	if userID, parseErr := strconv.ParseInt(target, 10, 64); parseErr == nil {
		if _, err := s.users.GetUser(userID); err != nil {
			return domain.Call{}, fmt.Errorf("%w: no user %d", errors.ErrInvalidTarget, userID)
		}
		call.TargetUserID = userID
	} else if domain.ValidNumber(target) {
		call.TargetNumber = target
	} else {
		return domain.Call{}, fmt.Errorf("%w: %q", errors.ErrInvalidTarget, target)
	}

	if err := s.calls.SaveCall(call); err != nil {
		return domain.Call{}, err
	}

	if call.External() {
		dialCtx, cancel := context.WithTimeout(ctx, s.dialTimeout)
		ref, dialErr := s.gateway.Dial(dialCtx, call.TargetNumber, call.Type)
		cancel()
		if dialErr != nil {
			return s.failLocked(call, fmt.Sprintf("dial: %v", dialErr))
		}
		call.TrunkRef = ref
	}

	if updated, err := s.transition(call, domain.CallRinging); err != nil {
		return domain.Call{}, err
	} else {
		call = updated
	}
	s.scheduleRingTimeout(call.ID)
	return call, nil
}

// scheduleRingTimeout arms the no-answer timer. When it fires and the
// call still rings, the call is routed to voicemail as if the shell had
// reported it. A zero timeout disables the timer; the shell then owns
// the no-answer decision.
func (s *CallService) scheduleRingTimeout(callID string) {
	if s.ringTimeout <= 0 {
		return
	}
	time.AfterFunc(s.ringTimeout, func() {
		unlock := s.locks.Lock(lockKey("call", callID))
		defer unlock()

		call, err := s.calls.GetCall(callID)
		if err != nil || call.State != domain.CallRinging {
			return
		}
		if _, err := s.voicemailLocked(call); err != nil {
			s.log.Warn("Ring timeout voicemail routing failed", "call_id", callID, "err", err)
		}
	})
}

// Answer is only legal from Ringing.
func (s *CallService) Answer(id domain.Identity, callID string) (domain.Call, error) {
	unlock := s.locks.Lock(lockKey("call", callID))
	defer unlock()

	call, err := s.loadAuthorized(id, callID, auth.ActionUpdate)
	if err != nil {
		return domain.Call{}, err
	}
	now := time.Now().UTC()
	call.AnsweredAt = &now
	return s.transition(call, domain.CallConnected)
}

// RouteToVoicemail handles the no-answer path: the call passes through
// Voicemail, leaving a record in the callee's mailbox (the initiator's
// for external calls, which have no internal mailbox), and ends.
func (s *CallService) RouteToVoicemail(id domain.Identity, callID string) (domain.Call, error) {
	unlock := s.locks.Lock(lockKey("call", callID))
	defer unlock()

	call, err := s.loadAuthorized(id, callID, auth.ActionUpdate)
	if err != nil {
		return domain.Call{}, err
	}
	return s.voicemailLocked(call)
}

// voicemailLocked runs the Voicemail passage under an already held call
// lock, shared between the explicit shell event and the ring timer.
func (s *CallService) voicemailLocked(call domain.Call) (domain.Call, error) {
	call, err := s.transition(call, domain.CallVoicemail)
	if err != nil {
		return domain.Call{}, err
	}

	ownerID := call.TargetUserID
	callerName := ""
	if call.External() {
		ownerID = call.InitiatorID
	} else if caller, err := s.users.GetUser(call.InitiatorID); err == nil {
		callerName = caller.Username
	}
	vm, err := s.calls.CreateVoicemail(domain.Voicemail{
		CallID:       call.ID,
		OwnerID:      ownerID,
		CallerNumber: call.TargetNumber,
		CallerName:   callerName,
	})
	if err != nil {
		return domain.Call{}, err
	}
	publish(s.log, s.events, event.VoicemailLeft{VoicemailID: vm.ID, CallID: call.ID, OwnerID: ownerID})

	now := time.Now().UTC()
	call.EndedAt = &now
	return s.transition(call, domain.CallEnded)
}

// End terminates the call from Connected, Ringing or Voicemail. Ending
// an already-ended call is a no-op, not an error; a Failed call stays
// Failed.
func (s *CallService) End(id domain.Identity, callID string) (domain.Call, error) {
	unlock := s.locks.Lock(lockKey("call", callID))
	defer unlock()

	call, err := s.loadAuthorized(id, callID, auth.ActionUpdate)
	if err != nil {
		return domain.Call{}, err
	}
	if call.State == domain.CallEnded {
		return call, nil
	}
	now := time.Now().UTC()
	call.EndedAt = &now
	return s.transition(call, domain.CallEnded)
}

// Fail records a transport-reported failure. Legal from Initiating and
// Ringing only; Failed is terminal and distinct from Ended.
func (s *CallService) Fail(id domain.Identity, callID, reason string) (domain.Call, error) {
	unlock := s.locks.Lock(lockKey("call", callID))
	defer unlock()

	call, err := s.loadAuthorized(id, callID, auth.ActionUpdate)
	if err != nil {
		return domain.Call{}, err
	}
	call.FailReason = reason
	return s.transition(call, domain.CallFailed)
}

func (s *CallService) ListVoicemails(id domain.Identity, ownerID int64) ([]domain.Voicemail, error) {
	if err := auth.Authorize(id, auth.ActionRead, auth.Resource{Kind: auth.KindVoicemail, OwnerID: ownerID}); err != nil {
		return nil, err
	}
	return s.calls.ListVoicemails(ownerID)
}

func (s *CallService) MarkVoicemailRead(id domain.Identity, voicemailID int64) error {
	vm, err := s.calls.GetVoicemail(voicemailID)
	if err != nil {
		return err
	}
	if err := auth.Authorize(id, auth.ActionUpdate, auth.Resource{Kind: auth.KindVoicemail, OwnerID: vm.OwnerID}); err != nil {
		return err
	}
	vm.Read = true
	return s.calls.UpdateVoicemail(vm)
}

func (s *CallService) DeleteVoicemail(id domain.Identity, voicemailID int64) error {
	vm, err := s.calls.GetVoicemail(voicemailID)
	if err != nil {
		return err
	}
	if err := auth.Authorize(id, auth.ActionDelete, auth.Resource{Kind: auth.KindVoicemail, OwnerID: vm.OwnerID}); err != nil {
		return err
	}
	return s.calls.DeleteVoicemail(voicemailID)
}

// transition applies one edge of the state machine, persists the call
// and publishes the change. The caller holds the call lock.
func (s *CallService) transition(call domain.Call, to domain.CallState) (domain.Call, error) {
	if !call.State.CanTransition(to) {
		return domain.Call{}, fmt.Errorf("%w: %s -> %s", errors.ErrInvalidTransition, call.State, to)
	}
	from := call.State
	call.State = to
	if err := s.calls.SaveCall(call); err != nil {
		return domain.Call{}, err
	}
	publish(s.log, s.events, event.CallStateChanged{CallID: call.ID, From: from, To: to, Parties: call.Parties()})
	return call, nil
}

// failLocked moves a freshly created call to Failed after a gateway
// error and surfaces the diagnostic as ErrTransport.
func (s *CallService) failLocked(call domain.Call, reason string) (domain.Call, error) {
	call.FailReason = reason
	failed, err := s.transition(call, domain.CallFailed)
	if err != nil {
		return domain.Call{}, err
	}
	return failed, fmt.Errorf("%w: %s", errors.ErrTransport, reason)
}

// loadAuthorized fetches the call and runs the gate against its
// parties.
func (s *CallService) loadAuthorized(id domain.Identity, callID string, action auth.Action) (domain.Call, error) {
	call, err := s.calls.GetCall(callID)
	if err != nil {
		return domain.Call{}, err
	}
	if err := auth.Authorize(id, action, auth.Resource{
		Kind:         auth.KindCall,
		OwnerID:      call.InitiatorID,
		Participants: call.Parties(),
	}); err != nil {
		return domain.Call{}, err
	}
	return call, nil
}
