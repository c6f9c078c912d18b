package host

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingButton struct {
	visible bool
	handler func()
}

func (b *recordingButton) Show()            { b.visible = true }
func (b *recordingButton) Hide()            { b.visible = false }
func (b *recordingButton) OnClick(h func()) { b.handler = h }

type recordingShell struct {
	calls      []string
	background string
	header     string
	back       *recordingButton
	confirm    string
	accept     func()
	closed     bool
	sent       [][]byte
}

func (s *recordingShell) Expand()                    { s.calls = append(s.calls, "expand") }
func (s *recordingShell) EnableClosingConfirmation() { s.calls = append(s.calls, "confirm_close") }
func (s *recordingShell) SetBackgroundColor(c string) {
	s.background = c
}
func (s *recordingShell) SetHeaderColor(c string) { s.header = c }
func (s *recordingShell) BackButton() BackButton  { return s.back }
func (s *recordingShell) ShowConfirm(msg string, onAccept func()) {
	s.confirm = msg
	s.accept = onAccept
}
func (s *recordingShell) Close() { s.closed = true }
func (s *recordingShell) SendData(p []byte) error {
	s.sent = append(s.sent, p)
	return nil
}

func TestBootstrap(t *testing.T) {
	shell := &recordingShell{back: &recordingButton{}}
	Bootstrap(shell, DefaultTheme)

	assert.Equal(t, []string{"expand", "confirm_close"}, shell.calls)
	assert.Equal(t, "#1a1a1a", shell.background)
	assert.Equal(t, "#6a11cb", shell.header)
	assert.True(t, shell.back.visible)
	require.NotNil(t, shell.back.handler)

	// Back asks first, and only closes once accepted.
	shell.back.handler()
	assert.Equal(t, ExitPrompt, shell.confirm)
	assert.False(t, shell.closed)

	require.NotNil(t, shell.accept)
	shell.accept()
	assert.True(t, shell.closed)
}

func TestBootstrap_NilShell(t *testing.T) {
	assert.NotPanics(t, func() { Bootstrap(nil, DefaultTheme) })
	assert.NotPanics(t, func() { Bootstrap(Noop{}, DefaultTheme) })
}

func TestEncodeChoice(t *testing.T) {
	data, err := EncodeChoice("start", "Go left, towards the light")
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, map[string]string{
		"action": "choice_made",
		"scene":  "start",
		"choice": "Go left, towards the light",
	}, got)
}
