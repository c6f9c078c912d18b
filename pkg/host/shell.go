// Package host describes the shell a game is embedded in: the window chrome,
// the back button, confirmation dialogs and an outbound data channel. The
// engine runs the same with or without one; Noop stands in when there is no
// host at all.
package host

import (
	"encoding/json"
)

// BackButton is the host's back/close affordance.
type BackButton interface {
	Show()
	Hide()
	OnClick(handler func())
}

// Shell is the host environment around the game.
type Shell interface {
	Expand()
	EnableClosingConfirmation()
	SetBackgroundColor(color string)
	SetHeaderColor(color string)
	BackButton() BackButton
	ShowConfirm(message string, onAccept func())
	Close()
	SendData(payload []byte) error
}

// ActionChoiceMade is the action name sent after every choice.
const ActionChoiceMade = "choice_made"

// ChoicePayload is the telemetry record sent once per choice.
type ChoicePayload struct {
	Action string `json:"action"`
	Scene  string `json:"scene"`  // scene the choice was made in
	Choice string `json:"choice"` // label of the choice
}

// EncodeChoice builds the payload for a choice made in sceneID.
func EncodeChoice(sceneID, label string) ([]byte, error) {
	return json.Marshal(ChoicePayload{
		Action: ActionChoiceMade,
		Scene:  sceneID,
		Choice: label,
	})
}

// Theme holds the colours applied at start-up.
type Theme struct {
	Background string
	Header     string
}

// DefaultTheme matches the dark forest palette.
var DefaultTheme = Theme{
	Background: "#1a1a1a",
	Header:     "#6a11cb",
}

// ExitPrompt is asked before leaving through the back button.
const ExitPrompt = "Exit the game?"

// Bootstrap prepares the shell: full size, confirm on close, theme colours
// and a back button that asks before closing. A nil shell is ignored.
func Bootstrap(shell Shell, theme Theme) {
	if shell == nil {
		return
	}
	shell.Expand()
	shell.EnableClosingConfirmation()
	shell.SetBackgroundColor(theme.Background)
	shell.SetHeaderColor(theme.Header)

	back := shell.BackButton()
	if back == nil {
		return
	}
	back.OnClick(func() {
		shell.ShowConfirm(ExitPrompt, shell.Close)
	})
	back.Show()
}

// Noop is a shell that does nothing.
type Noop struct{}

var _ Shell = Noop{}

func (Noop) Expand() {}
func (Noop) EnableClosingConfirmation() {}
func (Noop) SetBackgroundColor(string) {}
func (Noop) SetHeaderColor(string) {}
func (Noop) BackButton() BackButton { return noopButton{} }
func (Noop) ShowConfirm(string, func()) {}
func (Noop) Close() {}
func (Noop) SendData([]byte) error { return nil }

type noopButton struct{}

func (noopButton) Show() {}
func (noopButton) Hide() {}
func (noopButton) OnClick(func()) {}
