package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/jwebster45206/scene-engine/internal/config"
	"github.com/jwebster45206/scene-engine/internal/logger"
	"github.com/jwebster45206/scene-engine/internal/persistence"
	"github.com/jwebster45206/scene-engine/internal/storage"
	"github.com/jwebster45206/scene-engine/internal/telemetry"
	"github.com/jwebster45206/scene-engine/pkg/engine"
	"github.com/jwebster45206/scene-engine/pkg/host"
	"github.com/jwebster45206/scene-engine/pkg/scene"
	"github.com/jwebster45206/scene-engine/pkg/state"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// The terminal belongs to the UI, so logs go to a file.
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	sessionID := uuid.New().String()
	log := logger.WithSession(logger.Setup(cfg, logFile), sessionID)

	store, err := loadStory(cfg.StoryFile)
	if err != nil {
		return err
	}
	for _, issue := range store.Validate() {
		log.Warn("Story issue", "issue", issue.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	slots, err := storage.Open(ctx, cfg, log)
	if err != nil {
		// Saving is best effort; play on without it.
		log.Warn("Save storage unavailable, using memory", "backend", cfg.SaveBackend, "error", err)
		slots = storage.NewMockStorage()
	}
	defer slots.Close()

	saves := persistence.New(slots, cfg.SaveKey, log)
	saves.Start(ctx)
	defer saves.Close()

	publisher, err := telemetry.Dial(cfg.RedisURL, cfg.TelemetryChannel, sessionID, log)
	if err != nil {
		log.Warn("Telemetry disabled", "error", err)
		publisher = telemetry.NewPublisher(nil, "", sessionID, log)
	}
	defer publisher.Close()

	shell := newTerminalShell(publisher, log)
	defer shell.flush() // runs before publisher.Close
	host.Bootstrap(shell, host.DefaultTheme)

	ctrl := engine.New(store, state.New(),
		engine.WithLogger(log),
		engine.WithSaver(saves),
		engine.WithShell(shell),
	)

	first := resumeOrStart(ctx, ctrl, saves, cfg.NewGame, log)

	opts := []tea.ProgramOption{tea.WithMouseCellMotion()}
	if shell.expanded {
		opts = append(opts, tea.WithAltScreen())
	}
	p := tea.NewProgram(NewGameUI(ctrl, shell, first, cfg.ChoiceStagger, log), opts...)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}

	log.Info("Game closed", "scene", ctrl.State().CurrentScene)
	return nil
}

// resumeOrStart resumes the saved game, or starts fresh when there is none
// or newGame asks to discard it.
func resumeOrStart(ctx context.Context, ctrl *engine.Controller, saves *persistence.Adapter, newGame bool, log *slog.Logger) engine.Result {
	if newGame {
		if err := saves.Clear(ctx); err != nil {
			log.Warn("Failed to discard saved game", "error", err)
		}
		log.Info("Starting a new game")
		return ctrl.Start()
	}
	if snap, ok := saves.Load(ctx); ok {
		log.Info("Resuming saved game", "scene", snap.CurrentScene, "health", snap.Health)
		return ctrl.Resume(*snap)
	}
	return ctrl.Start()
}

// loadStory reads the story file, or the built-in forest story when path is
// empty.
func loadStory(path string) (*scene.Store, error) {
	story := scene.Forest()
	if path != "" {
		var err error
		story, err = scene.LoadFile(path, false)
		if err != nil {
			return nil, fmt.Errorf("load story: %w", err)
		}
	}
	store, err := story.Store()
	if err != nil {
		return nil, fmt.Errorf("build story %q: %w", story.Name, err)
	}
	slog.Debug("Story loaded", "name", story.Name, "scenes", store.Len())
	return store, nil
}
