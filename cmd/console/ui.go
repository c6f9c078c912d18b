package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/scene-engine/pkg/engine"
)

const helpText = "1-9 choose • ↑/↓ + enter • c copy text • r restart • esc exit"

// GameUI is the BubbleTea model that runs the game.
// https://github.com/charmbracelet/bubbletea
type GameUI struct {
	ctrl    *engine.Controller
	shell   *terminalShell
	logger  *slog.Logger
	stagger time.Duration
	copy    func(string) error

	view   engine.View
	shown  int // choices revealed so far
	cursor int

	notice   string
	noticeID int
	status   string

	textViewport viewport.Model
	ready        bool
	width        int
	height       int
}

// revealChoiceMsg reveals the next choice of the view it was scheduled for.
type revealChoiceMsg struct {
	generation uint64
}

type noticeExpiredMsg struct {
	id int
}

var (
	framePanelStyle = lipgloss.NewStyle().
			Padding(1, 3)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Bold(true).
			Padding(0, 1)

	statsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	selectedChoiceStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

var titleCaser = cases.Title(language.English)

// NewGameUI creates the model around an already started controller. first is
// the result that produced the opening view.
func NewGameUI(ctrl *engine.Controller, shell *terminalShell, first engine.Result, stagger time.Duration, logger *slog.Logger) GameUI {
	if logger == nil {
		logger = slog.Default()
	}
	vp := viewport.New(60, 12)
	vp.MouseWheelEnabled = true

	m := GameUI{
		ctrl:         ctrl,
		shell:        shell,
		logger:       logger,
		stagger:      stagger,
		copy:         clipboard.WriteAll,
		textViewport: vp,
	}
	m.show(first)
	return m
}

func (m GameUI) Init() tea.Cmd {
	return m.scheduled()
}

// show replaces the current view with the one in res. Previously scheduled
// reveals become stale because the view generation changed.
func (m *GameUI) show(res engine.Result) {
	for _, ev := range res.Events {
		m.logger.Info("Recovered during transition", "event", ev.Kind, "scene", ev.SceneID, "error", ev.Err)
	}

	m.view = res.View
	m.cursor = 0
	m.status = ""
	m.shown = len(m.view.Choices)
	if m.stagger > 0 && m.shown > 1 {
		m.shown = 1
	}

	if res.Notice != "" {
		m.notice = res.Notice
		m.noticeID++
	}
	m.writeSceneText()
}

// scheduled returns the timers the current view still needs: the next
// choice reveal and the notice expiry.
func (m GameUI) scheduled() tea.Cmd {
	var cmds []tea.Cmd
	if m.shown < len(m.view.Choices) {
		cmds = append(cmds, revealAfter(m.stagger, m.view.Generation))
	}
	if m.notice != "" {
		cmds = append(cmds, expireNotice(engine.RestartNoticeDuration, m.noticeID))
	}
	return tea.Batch(cmds...)
}

func revealAfter(d time.Duration, generation uint64) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return revealChoiceMsg{generation: generation}
	})
}

func expireNotice(d time.Duration, id int) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return noticeExpiredMsg{id: id}
	})
}

// writeSceneText wraps the scene text for the current width.
func (m *GameUI) writeSceneText() {
	width := m.textViewport.Width
	if width <= 0 {
		width = 60
	}
	m.textViewport.SetContent(wordwrap.String(m.view.Text, width))
	m.textViewport.GotoTop()
}

func (m GameUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textViewport.Width = max(20, m.width-8)
		m.textViewport.Height = max(3, m.height-len(m.view.Choices)-12)
		m.ready = true
		m.writeSceneText()
		return m, nil

	case revealChoiceMsg:
		if msg.generation != m.view.Generation {
			return m, nil // the view moved on
		}
		if m.shown < len(m.view.Choices) {
			m.shown++
		}
		if m.shown < len(m.view.Choices) {
			return m, revealAfter(m.stagger, m.view.Generation)
		}
		return m, nil

	case noticeExpiredMsg:
		if msg.id == m.noticeID {
			m.notice = ""
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.shell.confirm != nil {
			return m.updateConfirm(msg)
		}
		return m.updateKeys(msg)
	}

	var cmd tea.Cmd
	m.textViewport, cmd = m.textViewport.Update(msg)
	return m, cmd
}

func (m GameUI) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "esc":
		if !m.shell.back.Click() {
			return m, tea.Quit
		}
		return m, nil

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.cursor < m.shown-1 {
			m.cursor++
		}
		return m, nil

	case "enter":
		return m.choose(m.cursor + 1)

	case "r":
		m.show(m.ctrl.Restart())
		return m, m.scheduled()

	case "c":
		if err := m.copy(m.view.Text); err != nil {
			m.logger.Warn("Failed to copy scene text", "error", err)
			m.status = errorStyle.Render("Could not copy to clipboard")
		} else {
			m.status = "Scene text copied"
		}
		return m, nil

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		return m.choose(int(key[0] - '0'))
	}

	var cmd tea.Cmd
	m.textViewport, cmd = m.textViewport.Update(msg)
	return m, cmd
}

func (m GameUI) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		m.shell.accept()
		if m.shell.closed {
			return m, tea.Quit
		}
	case "n", "N", "esc":
		m.shell.dismiss()
	}
	return m, nil
}

// choose selects the choice with display number n. Choices that have not
// been revealed yet cannot be picked.
func (m GameUI) choose(n int) (tea.Model, tea.Cmd) {
	if n < 1 || n > m.shown {
		return m, nil
	}
	cv, ok := m.view.Choice(n)
	if !ok {
		return m, nil
	}

	res, err := m.ctrl.Select(cv)
	if err != nil {
		if errors.Is(err, engine.ErrStaleChoice) {
			m.logger.Debug("Ignoring stale choice", "choice", cv.Label)
		} else {
			m.logger.Warn("Choice rejected", "error", err)
		}
		return m, nil
	}

	m.show(res)
	return m, m.scheduled()
}

func sceneTitle(id string) string {
	return titleCaser.String(strings.ReplaceAll(id, "_", " "))
}

func (m GameUI) renderConfirm() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render(m.shell.confirm.message))
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to confirm, N to stay"))

	modal := modalStyle.Width(40).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m GameUI) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}
	if m.shell.confirm != nil {
		return m.renderConfirm()
	}

	header := titleStyle
	if m.shell.header != "" {
		header = header.Background(lipgloss.Color(m.shell.header))
	}

	var b strings.Builder
	b.WriteString(header.Render(sceneTitle(m.view.SceneID)) + "\n\n")
	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice) + "\n\n")
	}
	b.WriteString(m.textViewport.View() + "\n\n")

	stats := m.view.Stats
	b.WriteString(statsStyle.Render(fmt.Sprintf("Health: %d   Inventory: %s", stats.DisplayedHealth, stats.InventorySummary)) + "\n")
	b.WriteString(separatorStyle.Render(strings.Repeat("─", max(10, m.textViewport.Width))) + "\n\n")

	for i := 0; i < m.shown && i < len(m.view.Choices); i++ {
		ch := m.view.Choices[i]
		line := fmt.Sprintf(" %d. %s ", ch.Number, ch.Label)
		if i == m.cursor {
			b.WriteString(selectedChoiceStyle.Render(line))
		} else {
			b.WriteString(choiceStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(m.status + "\n")
	}
	b.WriteString(promptStyle.Render(helpText))

	frame := framePanelStyle
	if m.shell.background != "" {
		frame = frame.Background(lipgloss.Color(m.shell.background))
	}
	return frame.Width(m.width).Height(m.height).Render(b.String())
}
