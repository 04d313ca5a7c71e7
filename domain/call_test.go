package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCallState_Transitions(t *testing.T) {
	req := require.New(t)

	tests := []struct {
		from    CallState
		to      CallState
		allowed bool
	}{
		{CallInitiating, CallRinging, true},
		{CallInitiating, CallFailed, true},
		{CallInitiating, CallConnected, false},
		{CallInitiating, CallEnded, false},
		{CallRinging, CallConnected, true},
		{CallRinging, CallVoicemail, true},
		{CallRinging, CallEnded, true},
		{CallRinging, CallFailed, true},
		{CallConnected, CallEnded, true},
		{CallConnected, CallRinging, false},
		{CallConnected, CallVoicemail, false},
		{CallConnected, CallFailed, false},
		{CallVoicemail, CallEnded, true},
		{CallVoicemail, CallConnected, false},
		{CallEnded, CallRinging, false},
		{CallEnded, CallEnded, false},
		{CallFailed, CallRinging, false},
		{CallFailed, CallEnded, false},
	}

	for _, tt := range tests {
		req.Equal(tt.allowed, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestCallState_Terminal(t *testing.T) {
	req := require.New(t)
	req.True(CallEnded.Terminal())
	req.True(CallFailed.Terminal())
	req.False(CallInitiating.Terminal())
	req.False(CallRinging.Terminal())
	req.False(CallConnected.Terminal())
	req.False(CallVoicemail.Terminal())
}

func TestParseCallType(t *testing.T) {
	req := require.New(t)

	voice, err := ParseCallType("voice")
	req.NoError(err)
	req.Equal(CallVoice, voice)

	video, err := ParseCallType("video")
	req.NoError(err)
	req.Equal(CallVideo, video)

	_, err = ParseCallType("hologram")
	req.Error(err)
}

func TestCall_ExternalAndParties(t *testing.T) {
	req := require.New(t)

	internal := Call{InitiatorID: 1, TargetUserID: 2}
	req.False(internal.External())
	req.Equal([]int64{1, 2}, internal.Parties())

	external := Call{InitiatorID: 1, TargetNumber: "+33612345678"}
	req.True(external.External())
	req.Equal([]int64{1}, external.Parties())
}
