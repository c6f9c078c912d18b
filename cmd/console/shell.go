package main

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jwebster45206/scene-engine/pkg/host"
)

// Publisher sends choice telemetry somewhere. *telemetry.Publisher implements it.
type Publisher interface {
	Publish(ctx context.Context, payload []byte) error
}

// escButton is the back button: the esc key while it is visible.
type escButton struct {
	visible bool
	handler func()
}

func (b *escButton) Show()            { b.visible = true }
func (b *escButton) Hide()            { b.visible = false }
func (b *escButton) OnClick(h func()) { b.handler = h }

// Click runs the handler if the button is showing. It reports whether
// anything happened.
func (b *escButton) Click() bool {
	if !b.visible || b.handler == nil {
		return false
	}
	b.handler()
	return true
}

type confirmDialog struct {
	message  string
	onAccept func()
}

// terminalShell is the host.Shell for the terminal. The bubbletea model reads
// its fields when rendering; everything except SendData runs on the update
// loop.
type terminalShell struct {
	expanded       bool
	confirmOnClose bool
	background     string
	header         string
	back           *escButton
	confirm        *confirmDialog
	closed         bool

	publisher Publisher
	sending   sync.WaitGroup
	logger    *slog.Logger
}

var _ host.Shell = (*terminalShell)(nil)

func newTerminalShell(publisher Publisher, logger *slog.Logger) *terminalShell {
	if logger == nil {
		logger = slog.Default()
	}
	return &terminalShell{
		back:      &escButton{},
		publisher: publisher,
		logger:    logger,
	}
}

func (s *terminalShell) Expand()                         { s.expanded = true }
func (s *terminalShell) EnableClosingConfirmation()      { s.confirmOnClose = true }
func (s *terminalShell) SetBackgroundColor(color string) { s.background = color }
func (s *terminalShell) SetHeaderColor(color string)     { s.header = color }
func (s *terminalShell) BackButton() host.BackButton     { return s.back }

func (s *terminalShell) ShowConfirm(message string, onAccept func()) {
	s.confirm = &confirmDialog{message: message, onAccept: onAccept}
}

func (s *terminalShell) Close() { s.closed = true }

// SendData publishes in the background so the update loop never waits on
// the network.
func (s *terminalShell) SendData(payload []byte) error {
	if s.publisher == nil {
		return nil
	}
	s.sending.Add(1)
	go func() {
		defer s.sending.Done()
		if err := s.publisher.Publish(context.Background(), payload); err != nil {
			s.logger.Warn("Failed to publish choice", "error", err)
		}
	}()
	return nil
}

// flush waits for publishes started by SendData. Call it before closing the
// publisher.
func (s *terminalShell) flush() {
	s.sending.Wait()
}

// accept answers the open dialog with yes.
func (s *terminalShell) accept() {
	d := s.confirm
	s.confirm = nil
	if d != nil && d.onAccept != nil {
		d.onAccept()
	}
}

// dismiss answers the open dialog with no.
func (s *terminalShell) dismiss() {
	s.confirm = nil
}
