package workers

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"unicomm/contract"
	"unicomm/domain/event"
	"unicomm/mocks"
	"unicomm/observability"
	"unicomm/runtime"
)

func TestEventFanout_DeliversToAudienceAndPermanentSinks(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	aliceSink := mocks.NewMockEventSink(ctrl)
	permanent := mocks.NewMockEventSink(ctrl)

	registry := runtime.NewRegistry()
	registry.Subscribe(1, aliceSink)
	// User 2 has no live sink and is silently skipped.

	evt := event.MessagePosted{ChatID: 1, Seq: 1, SenderID: 1, Participants: []int64{1, 2}}

	delivered := make(chan struct{}, 2)
	aliceSink.EXPECT().Consume(gomock.Any(), evt).DoAndReturn(
		func(ctx context.Context, e event.DomainEvent) error {
			delivered <- struct{}{}
			return nil
		}).Times(1)
	permanent.EXPECT().Consume(gomock.Any(), evt).DoAndReturn(
		func(ctx context.Context, e event.DomainEvent) error {
			delivered <- struct{}{}
			return nil
		}).Times(1)

	events := make(chan event.DomainEvent, 1)
	fanout := NewEventFanout(slog.Default(), events, registry,
		[]contract.EventSink{permanent}, time.Second, observability.NewMonitoringManager(slog.Default()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = fanout.Run(ctx) }()

	events <- evt

	for i := 0; i < 2; i++ {
		select {
		case <-delivered:
		case <-time.After(time.Second):
			req.Fail("event should have been delivered to both sinks")
		}
	}
}

func TestEventFanout_SlowSinkDoesNotStopOthers(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	failing := mocks.NewMockEventSink(ctrl)
	healthy := mocks.NewMockEventSink(ctrl)

	evt := event.VoicemailLeft{VoicemailID: 1, OwnerID: 1}

	failing.EXPECT().Consume(gomock.Any(), evt).Return(context.DeadlineExceeded).Times(1)
	delivered := make(chan struct{}, 1)
	healthy.EXPECT().Consume(gomock.Any(), evt).DoAndReturn(
		func(ctx context.Context, e event.DomainEvent) error {
			delivered <- struct{}{}
			return nil
		}).Times(1)

	events := make(chan event.DomainEvent, 1)
	monitoring := observability.NewMonitoringManager(slog.Default())
	fanout := NewEventFanout(slog.Default(), events, runtime.NewRegistry(),
		[]contract.EventSink{failing, healthy}, 50*time.Millisecond, monitoring)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = fanout.Run(ctx) }()

	events <- evt

	select {
	case <-delivered:
	case <-time.After(time.Second):
		req.Fail("healthy sink should still receive the event")
	}
}

func TestEventFanout_StopsOnClosedChannel(t *testing.T) {
	req := require.New(t)

	events := make(chan event.DomainEvent)
	fanout := NewEventFanout(slog.Default(), events, runtime.NewRegistry(),
		nil, time.Second, observability.NewMonitoringManager(slog.Default()))

	done := make(chan error, 1)
	go func() { done <- fanout.Run(context.Background()) }()

	close(events)

	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(time.Second):
		req.Fail("fanout should stop when the channel closes")
	}
}
