package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"unicomm/contract"
	"unicomm/domain"
	"unicomm/domain/event"
	"unicomm/errors"
	"unicomm/mocks"
	"unicomm/repositories"
	"unicomm/runtime"
)

type callFixture struct {
	svc     *CallService
	calls   contract.ICallRepository
	users   contract.IUserRepository
	gateway *mocks.MockTransportGateway
	events  chan event.DomainEvent
}

func newCallFixture(t *testing.T, ringTimeout time.Duration) callFixture {
	t.Helper()
	db := openTestDB(t)
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := callFixture{
		calls:   repositories.NewCallRepository(db),
		users:   repositories.NewUserRepository(db),
		gateway: mocks.NewMockTransportGateway(ctrl),
		events:  testEvents(),
	}
	f.svc = NewCallService(testLogger(), f.calls, f.users, f.gateway,
		runtime.NewKeyedMutex(), f.events, time.Second, ringTimeout)
	return f
}

func (f callFixture) registerUsers(t *testing.T, names ...string) []int64 {
	t.Helper()
	ids := make([]int64, len(names))
	for i, name := range names {
		user, err := f.users.CreateUser(name, "hash", domain.RoleUser)
		require.NoError(t, err)
		ids[i] = user.ID
	}
	return ids
}

func TestCallService_InternalCallFullLifecycle(t *testing.T) {
	req := require.New(t)
	f := newCallFixture(t, 0)
	ids := f.registerUsers(t, "alice", "bob")

	call, err := f.svc.Initiate(context.Background(), asUser(ids[0]), ids[0], "2", "voice")
	req.NoError(err)
	req.Equal(domain.CallRinging, call.State)
	req.Equal(ids[1], call.TargetUserID)
	req.Empty(call.TrunkRef)

	call, err = f.svc.Answer(asUser(ids[1]), call.ID)
	req.NoError(err)
	req.Equal(domain.CallConnected, call.State)
	req.NotNil(call.AnsweredAt)

	call, err = f.svc.End(asUser(ids[0]), call.ID)
	req.NoError(err)
	req.Equal(domain.CallEnded, call.State)
	req.NotNil(call.EndedAt)

	// Ending an ended call is a no-op.
	again, err := f.svc.End(asUser(ids[0]), call.ID)
	req.NoError(err)
	req.Equal(domain.CallEnded, again.State)
}

func TestCallService_AnswerAfterConnectIsInvalid(t *testing.T) {
	req := require.New(t)
	f := newCallFixture(t, 0)
	ids := f.registerUsers(t, "alice", "bob")

	call, err := f.svc.Initiate(context.Background(), asUser(ids[0]), ids[0], "2", "voice")
	req.NoError(err)

	_, err = f.svc.Answer(asUser(ids[1]), call.ID)
	req.NoError(err)

	_, err = f.svc.Answer(asUser(ids[1]), call.ID)
	req.ErrorIs(err, errors.ErrInvalidTransition)
}

func TestCallService_EndVsAnswerRaceHasOneWinner(t *testing.T) {
	req := require.New(t)
	f := newCallFixture(t, 0)
	ids := f.registerUsers(t, "alice", "bob")

	call, err := f.svc.Initiate(context.Background(), asUser(ids[0]), ids[0], "2", "voice")
	req.NoError(err)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := f.svc.Answer(asUser(ids[1]), call.ID)
		results <- err
	}()
	go func() {
		defer wg.Done()
		_, err := f.svc.End(asUser(ids[0]), call.ID)
		results <- err
	}()
	wg.Wait()
	close(results)

	// Whichever transition wins, the call always lands in Ended: either
	// it was answered then hung up, or it ended first and the late
	// answer is rejected.
	final, err := f.calls.GetCall(call.ID)
	req.NoError(err)
	req.Equal(domain.CallEnded, final.State)
	for err := range results {
		if err != nil {
			req.ErrorIs(err, errors.ErrInvalidTransition)
		}
	}
}

func TestCallService_ExternalCallDialsTrunk(t *testing.T) {
	req := require.New(t)
	f := newCallFixture(t, 0)
	ids := f.registerUsers(t, "alice")

	f.gateway.EXPECT().
		Dial(gomock.Any(), "+33612345678", domain.CallVoice).
		Return("trunk-ref-42", nil).
		Times(1)

	call, err := f.svc.Initiate(context.Background(), asUser(ids[0]), ids[0], "+33612345678", "voice")
	req.NoError(err)
	req.True(call.External())
	req.Equal("trunk-ref-42", call.TrunkRef)
	req.Equal(domain.CallRinging, call.State)
}

func TestCallService_DialFailureFailsCall(t *testing.T) {
	req := require.New(t)
	f := newCallFixture(t, 0)
	ids := f.registerUsers(t, "alice")

	f.gateway.EXPECT().
		Dial(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", context.DeadlineExceeded).
		Times(1)

	call, err := f.svc.Initiate(context.Background(), asUser(ids[0]), ids[0], "+33612345678", "voice")
	req.ErrorIs(err, errors.ErrTransport)
	req.Equal(domain.CallFailed, call.State)
	req.NotEmpty(call.FailReason)

	persisted, err := f.calls.GetCall(call.ID)
	req.NoError(err)
	req.Equal(domain.CallFailed, persisted.State)
}

func TestCallService_InvalidTargets(t *testing.T) {
	req := require.New(t)
	f := newCallFixture(t, 0)
	ids := f.registerUsers(t, "alice")

	// Unknown user id.
	_, err := f.svc.Initiate(context.Background(), asUser(ids[0]), ids[0], "999", "voice")
	req.ErrorIs(err, errors.ErrInvalidTarget)

	// Neither a user id nor a number.
	_, err = f.svc.Initiate(context.Background(), asUser(ids[0]), ids[0], "not-a-target", "voice")
	req.ErrorIs(err, errors.ErrInvalidTarget)

	// Unknown call type.
	_, err = f.svc.Initiate(context.Background(), asUser(ids[0]), ids[0], "1", "hologram")
	req.ErrorIs(err, errors.ErrValidation)
}

func TestCallService_VoicemailRouting(t *testing.T) {
	req := require.New(t)
	f := newCallFixture(t, 0)
	ids := f.registerUsers(t, "alice", "bob")

	call, err := f.svc.Initiate(context.Background(), asUser(ids[0]), ids[0], "2", "voice")
	req.NoError(err)

	call, err = f.svc.RouteToVoicemail(asUser(ids[1]), call.ID)
	req.NoError(err)
	req.Equal(domain.CallEnded, call.State)

	// The record lands in the callee's mailbox with the caller's name.
	vms, err := f.svc.ListVoicemails(asUser(ids[1]), ids[1])
	req.NoError(err)
	req.Len(vms, 1)
	req.Equal(call.ID, vms[0].CallID)
	req.Equal("alice", vms[0].CallerName)

	// A connected call cannot drop to voicemail anymore.
	other, err := f.svc.Initiate(context.Background(), asUser(ids[0]), ids[0], "2", "voice")
	req.NoError(err)
	_, err = f.svc.Answer(asUser(ids[1]), other.ID)
	req.NoError(err)
	_, err = f.svc.RouteToVoicemail(asUser(ids[1]), other.ID)
	req.ErrorIs(err, errors.ErrInvalidTransition)
}

func TestCallService_ExternalVoicemailGoesToInitiator(t *testing.T) {
	req := require.New(t)
	f := newCallFixture(t, 0)
	ids := f.registerUsers(t, "alice")

	f.gateway.EXPECT().
		Dial(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("trunk-ref", nil).
		Times(1)

	call, err := f.svc.Initiate(context.Background(), asUser(ids[0]), ids[0], "+33612345678", "voice")
	req.NoError(err)

	_, err = f.svc.RouteToVoicemail(asUser(ids[0]), call.ID)
	req.NoError(err)

	vms, err := f.svc.ListVoicemails(asUser(ids[0]), ids[0])
	req.NoError(err)
	req.Len(vms, 1)
	req.Equal("+33612345678", vms[0].CallerNumber)
}

func TestCallService_RingTimeoutRoutesToVoicemail(t *testing.T) {
	req := require.New(t)
	f := newCallFixture(t, 50*time.Millisecond)
	ids := f.registerUsers(t, "alice", "bob")

	call, err := f.svc.Initiate(context.Background(), asUser(ids[0]), ids[0], "2", "voice")
	req.NoError(err)
	req.Equal(domain.CallRinging, call.State)

	req.Eventually(func() bool {
		current, err := f.calls.GetCall(call.ID)
		return err == nil && current.State == domain.CallEnded
	}, time.Second, 10*time.Millisecond)

	vms, err := f.svc.ListVoicemails(asUser(ids[1]), ids[1])
	req.NoError(err)
	req.Len(vms, 1)
}

func TestCallService_FailFromRinging(t *testing.T) {
	req := require.New(t)
	f := newCallFixture(t, 0)
	ids := f.registerUsers(t, "alice", "bob")

	call, err := f.svc.Initiate(context.Background(), asUser(ids[0]), ids[0], "2", "voice")
	req.NoError(err)

	call, err = f.svc.Fail(asAgent(99), call.ID, "trunk reset")
	req.NoError(err)
	req.Equal(domain.CallFailed, call.State)
	req.Equal("trunk reset", call.FailReason)

	// Failed is terminal, distinct from Ended.
	_, err = f.svc.End(asUser(ids[0]), call.ID)
	req.ErrorIs(err, errors.ErrInvalidTransition)
}

func TestCallService_VoicemailOwnership(t *testing.T) {
	req := require.New(t)
	f := newCallFixture(t, 0)
	ids := f.registerUsers(t, "alice", "bob")

	call, err := f.svc.Initiate(context.Background(), asUser(ids[0]), ids[0], "2", "voice")
	req.NoError(err)
	_, err = f.svc.RouteToVoicemail(asUser(ids[1]), call.ID)
	req.NoError(err)

	vms, err := f.svc.ListVoicemails(asUser(ids[1]), ids[1])
	req.NoError(err)
	req.Len(vms, 1)
	vmID := vms[0].ID

	// The caller does not own the callee's mailbox.
	err = f.svc.MarkVoicemailRead(asUser(ids[0]), vmID)
	req.ErrorIs(err, errors.ErrPermissionDenied)
	err = f.svc.DeleteVoicemail(asUser(ids[0]), vmID)
	req.ErrorIs(err, errors.ErrPermissionDenied)

	req.NoError(f.svc.MarkVoicemailRead(asUser(ids[1]), vmID))
	vms, err = f.svc.ListVoicemails(asUser(ids[1]), ids[1])
	req.NoError(err)
	req.True(vms[0].Read)

	req.NoError(f.svc.DeleteVoicemail(asUser(ids[1]), vmID))
	vms, err = f.svc.ListVoicemails(asUser(ids[1]), ids[1])
	req.NoError(err)
	req.Empty(vms)
}

func TestCallService_StateChangeEventsPublished(t *testing.T) {
	req := require.New(t)
	f := newCallFixture(t, 0)
	ids := f.registerUsers(t, "alice", "bob")

	call, err := f.svc.Initiate(context.Background(), asUser(ids[0]), ids[0], "2", "voice")
	req.NoError(err)
	_, err = f.svc.Answer(asUser(ids[1]), call.ID)
	req.NoError(err)
	_, err = f.svc.End(asUser(ids[0]), call.ID)
	req.NoError(err)

	var changes []event.CallStateChanged
	for _, e := range drain(f.events) {
		if c, ok := e.(event.CallStateChanged); ok {
			changes = append(changes, c)
		}
	}
	req.Len(changes, 3)
	req.Equal(domain.CallRinging, changes[0].To)
	req.Equal(domain.CallConnected, changes[1].To)
	req.Equal(domain.CallEnded, changes[2].To)
	req.ElementsMatch(ids, changes[0].Audience())
}
