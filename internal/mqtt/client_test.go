package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandForEnabled(t *testing.T) {
	assert.Equal(t, Command{Action: ActionBypassOff}, commandForEnabled([]byte("ON")))
	assert.Equal(t, Command{Action: ActionBypassOff}, commandForEnabled([]byte(" ON\n")))
	assert.Equal(t, Command{Action: ActionBypassOn}, commandForEnabled([]byte("OFF")))
}

func TestCommandForPreamp(t *testing.T) {
	cmd, ok := commandForPreamp([]byte("-4.5"))
	assert.True(t, ok)
	assert.Equal(t, Command{Action: ActionSetPreamp, Value: -4.5}, cmd)

	_, ok = commandForPreamp([]byte("loud"))
	assert.False(t, ok)
}

func TestCommandForProfile(t *testing.T) {
	text := "Preamp: -3 dB\nFilter 1: ON PK Fc 100 Hz Gain 2 dB Q 1"
	assert.Equal(t, Command{Action: ActionSetProfile, Text: text}, commandForProfile([]byte(text)))
}

func TestSendCommand_DropsWhenFull(t *testing.T) {
	ch := make(chan Command, 1)
	c := &Client{commandChan: ch}

	c.sendCommand(Command{Action: ActionReset})
	c.sendCommand(Command{Action: ActionReload})

	assert.Len(t, ch, 1)
	assert.Equal(t, ActionReset, (<-ch).Action)
}
