package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkendall/sluice/internal/analyze"
	"github.com/pkendall/sluice/internal/annotate"
	"github.com/pkendall/sluice/internal/api"
	"github.com/pkendall/sluice/internal/config"
	"github.com/pkendall/sluice/internal/prefs"
	"github.com/pkendall/sluice/internal/state"
	"github.com/pkendall/sluice/internal/ui"
)

// Options configure the sluice application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/sluice/prefs.toml
	NotesPath  string // empty derives from the config log root
}

// Run boots the sluice TUI until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		return fmt.Errorf("load prefs: %w", err)
	}

	client, err := api.NewClient(cfg.APIBind)
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}

	rules, err := analyze.LoadRules(cfg.RulesPath)
	if err != nil {
		return fmt.Errorf("load detection rules: %w", err)
	}

	notesPath := opts.NotesPath
	if strings.TrimSpace(notesPath) == "" {
		notesPath = filepath.Join(cfg.LogRoot, ".sluice-annotations.json")
	}
	notes, err := annotate.Open(notesPath)
	if err != nil {
		return fmt.Errorf("open annotations: %w", err)
	}

	store := &state.Store{}

	// Start background poller
	StartPoller(ctx, store, client, cfg.PollInterval)

	// Do initial refresh to populate store before UI starts
	refresh(ctx, store, client)

	return ui.Run(ui.Options{
		Context:   ctx,
		Client:    client,
		Store:     store,
		Notes:     notes,
		Rules:     rules,
		Config:    &cfg,
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
		PollTick:  cfg.PollInterval,
	})
}
