package fsm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNext_IdleToOpenSent(t *testing.T) {
	to, ok := Next(IDLE, EvTCPEstablished)
	assert.True(t, ok)
	assert.Equal(t, OPEN_SENT, to)
}

func TestNext_OpenSentToOpenConfirm(t *testing.T) {
	to, ok := Next(OPEN_SENT, EvRecvOpen)
	assert.True(t, ok)
	assert.Equal(t, OPEN_CONFIRM, to)
}

func TestNext_OpenConfirmToEstablished(t *testing.T) {
	to, ok := Next(OPEN_CONFIRM, EvRecvKeepalive)
	assert.True(t, ok)
	assert.Equal(t, ESTABLISHED, to)
}

func TestNext_EstablishedUnexpectedDoesNotMove(t *testing.T) {
	to, ok := Next(ESTABLISHED, EvRecvOther)
	assert.True(t, ok)
	assert.Equal(t, ESTABLISHED, to)
}

func TestNext_OpenConfirmUnexpectedOpenGoesIdle(t *testing.T) {
	to, ok := Next(OPEN_CONFIRM, EvRecvOpen)
	assert.True(t, ok)
	assert.Equal(t, IDLE, to)
}

func TestNext_HoldExpiresAlwaysGoesIdle(t *testing.T) {
	for _, s := range []State{OPEN_CONFIRM, ESTABLISHED} {
		to, ok := Next(s, EvHoldExpires)
		assert.True(t, ok)
		assert.Equal(t, IDLE, to)
	}
}

func TestNext_IllegalTransition(t *testing.T) {
	_, ok := Next(IDLE, EvRecvUpdate)
	assert.False(t, ok)
}
