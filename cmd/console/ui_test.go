package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/scene-engine/pkg/engine"
	"github.com/jwebster45206/scene-engine/pkg/host"
	"github.com/jwebster45206/scene-engine/pkg/scene"
	"github.com/jwebster45206/scene-engine/pkg/state"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent [][]byte
}

func (p *recordingPublisher) Publish(ctx context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, payload)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

func newTestUI(t *testing.T, stagger time.Duration) (GameUI, *terminalShell, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	shell := newTerminalShell(pub, testLogger())
	host.Bootstrap(shell, host.DefaultTheme)

	ctrl := engine.New(scene.ForestStore(), state.New(),
		engine.WithLogger(testLogger()),
		engine.WithShell(shell),
	)
	m := NewGameUI(ctrl, shell, ctrl.Start(), stagger, testLogger())
	m.copy = func(string) error { return nil }

	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(GameUI), shell, pub
}

func update(t *testing.T, m GameUI, msg tea.Msg) (GameUI, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	ui, ok := next.(GameUI)
	require.True(t, ok)
	return ui, cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// revealAll delivers reveal ticks until every choice is shown.
func revealAll(t *testing.T, m GameUI) GameUI {
	t.Helper()
	for m.shown < len(m.view.Choices) {
		m, _ = update(t, m, revealChoiceMsg{generation: m.view.Generation})
	}
	return m
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestGameUI_StaggeredReveal(t *testing.T) {
	m, _, _ := newTestUI(t, 100*time.Millisecond)

	require.Equal(t, scene.StartID, m.view.SceneID)
	require.Len(t, m.view.Choices, 2)
	assert.Equal(t, 1, m.shown, "first choice shows at once")
	assert.NotNil(t, m.Init(), "the rest is scheduled")

	m, cmd := update(t, m, revealChoiceMsg{generation: m.view.Generation})
	assert.Equal(t, 2, m.shown)
	assert.Nil(t, cmd, "nothing left to schedule")
}

func TestGameUI_NoStagger(t *testing.T) {
	m, _, _ := newTestUI(t, 0)
	assert.Equal(t, len(m.view.Choices), m.shown)
}

func TestGameUI_StaleRevealDropped(t *testing.T) {
	m, _, _ := newTestUI(t, 100*time.Millisecond)
	old := m.view.Generation

	m, _ = update(t, m, key("1")) // start -> light_path
	require.Equal(t, "light_path", m.view.SceneID)
	shown := m.shown

	m, cmd := update(t, m, revealChoiceMsg{generation: old})
	assert.Equal(t, shown, m.shown, "tick for the old scene is ignored")
	assert.Nil(t, cmd)
}

func TestGameUI_UnrevealedChoiceIgnored(t *testing.T) {
	m, _, _ := newTestUI(t, 100*time.Millisecond)
	require.Equal(t, 1, m.shown)

	m, _ = update(t, m, key("2"))
	assert.Equal(t, scene.StartID, m.view.SceneID)

	m = revealAll(t, m)
	m, _ = update(t, m, key("2"))
	assert.Equal(t, "dark_forest", m.view.SceneID)
	assert.Equal(t, 90, m.view.Stats.DisplayedHealth)
}

func TestGameUI_CursorAndEnter(t *testing.T) {
	m, _, _ := newTestUI(t, 0)

	m, _ = update(t, m, key("down"))
	assert.Equal(t, 1, m.cursor)
	m, _ = update(t, m, key("down"))
	assert.Equal(t, 1, m.cursor, "cursor stays on the last choice")

	m, _ = update(t, m, key("enter"))
	assert.Equal(t, "dark_forest", m.view.SceneID)
	assert.Equal(t, 0, m.cursor)
}

func TestGameUI_ChoiceSendsTelemetry(t *testing.T) {
	m, _, pub := newTestUI(t, 0)

	_, _ = update(t, m, key("1"))
	assert.Eventually(t, func() bool { return pub.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestGameUI_BackButtonConfirm(t *testing.T) {
	m, shell, _ := newTestUI(t, 0)

	m, cmd := update(t, m, key("esc"))
	require.NotNil(t, shell.confirm)
	assert.Equal(t, host.ExitPrompt, shell.confirm.message)
	assert.False(t, isQuit(cmd))
	assert.Contains(t, m.View(), host.ExitPrompt)

	m, cmd = update(t, m, key("n"))
	assert.Nil(t, shell.confirm)
	assert.False(t, isQuit(cmd))
	assert.False(t, shell.closed)

	m, _ = update(t, m, key("esc"))
	_, cmd = update(t, m, key("y"))
	assert.True(t, shell.closed)
	assert.True(t, isQuit(cmd))
}

func TestGameUI_ChoicesBlockedWhileConfirming(t *testing.T) {
	m, _, _ := newTestUI(t, 0)

	m, _ = update(t, m, key("esc"))
	m, _ = update(t, m, key("1"))
	assert.Equal(t, scene.StartID, m.view.SceneID)
}

func TestGameUI_NoticeExpires(t *testing.T) {
	m, _, _ := newTestUI(t, 0)

	m.show(engine.Result{View: m.view, Notice: engine.RestartNotice})
	id := m.noticeID
	assert.Contains(t, m.View(), engine.RestartNotice)

	m, _ = update(t, m, noticeExpiredMsg{id: id - 1})
	assert.Equal(t, engine.RestartNotice, m.notice, "older timer does not clear a newer notice")

	m, _ = update(t, m, noticeExpiredMsg{id: id})
	assert.Empty(t, m.notice)
	assert.NotContains(t, m.View(), engine.RestartNotice)
}

func TestGameUI_Restart(t *testing.T) {
	m, _, _ := newTestUI(t, 0)

	m, _ = update(t, m, key("2")) // dark_forest, -10 health
	require.Equal(t, 90, m.view.Stats.DisplayedHealth)

	m, _ = update(t, m, key("r"))
	assert.Equal(t, scene.StartID, m.view.SceneID)
	assert.Equal(t, 100, m.view.Stats.DisplayedHealth)
	assert.Equal(t, "empty", m.view.Stats.InventorySummary)
}

func TestGameUI_Copy(t *testing.T) {
	m, _, _ := newTestUI(t, 0)

	var copied string
	m.copy = func(s string) error { copied = s; return nil }
	m, _ = update(t, m, key("c"))
	assert.Equal(t, m.view.Text, copied)
	assert.Equal(t, "Scene text copied", m.status)

	m.copy = func(string) error { return errors.New("no clipboard") }
	m, _ = update(t, m, key("c"))
	assert.Contains(t, m.status, "Could not copy")
}

func TestGameUI_ViewShowsStats(t *testing.T) {
	m, _, _ := newTestUI(t, 0)

	out := m.View()
	assert.Contains(t, out, "Start")
	assert.Contains(t, out, "Health: 100")
	assert.Contains(t, out, "Inventory: empty")
	assert.Contains(t, out, "1. ")
}

func TestTerminalShell_Bootstrap(t *testing.T) {
	shell := newTerminalShell(nil, testLogger())
	host.Bootstrap(shell, host.DefaultTheme)

	assert.True(t, shell.expanded)
	assert.True(t, shell.confirmOnClose)
	assert.Equal(t, host.DefaultTheme.Background, shell.background)
	assert.Equal(t, host.DefaultTheme.Header, shell.header)
	assert.True(t, shell.back.visible)
	assert.NoError(t, shell.SendData([]byte(`{}`)), "no publisher is fine")
}

func TestSceneTitle(t *testing.T) {
	assert.Equal(t, "Forest Crossroads", sceneTitle("forest_crossroads"))
	assert.Equal(t, "Start", sceneTitle("start"))
}

// gatedPublisher holds every publish until release is closed.
type gatedPublisher struct {
	recordingPublisher
	release chan struct{}
}

func (p *gatedPublisher) Publish(ctx context.Context, payload []byte) error {
	<-p.release
	return p.recordingPublisher.Publish(ctx, payload)
}

func TestTerminalShell_FlushWaitsForPublishes(t *testing.T) {
	pub := &gatedPublisher{release: make(chan struct{})}
	shell := newTerminalShell(pub, testLogger())

	require.NoError(t, shell.SendData([]byte(`{"action":"choice"}`)))
	require.NoError(t, shell.SendData([]byte(`{"action":"choice"}`)))

	flushed := make(chan struct{})
	go func() {
		shell.flush()
		close(flushed)
	}()

	select {
	case <-flushed:
		t.Fatal("flush returned before the publishes finished")
	case <-time.After(20 * time.Millisecond):
	}

	close(pub.release)
	<-flushed
	assert.Equal(t, 2, pub.count())
}
