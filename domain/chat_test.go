package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDirectKey_OrderIndependent(t *testing.T) {
	req := require.New(t)
	req.Equal(DirectKey(1, 2), DirectKey(2, 1))
	req.Equal("1:2", DirectKey(2, 1))
	req.NotEqual(DirectKey(1, 2), DirectKey(1, 3))
}

func TestChat_HasParticipant(t *testing.T) {
	req := require.New(t)
	chat := Chat{Participants: []int64{1, 2, 5}}
	req.True(chat.HasParticipant(1))
	req.True(chat.HasParticipant(5))
	req.False(chat.HasParticipant(3))
}
