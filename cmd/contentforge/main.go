package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pbaille/contentforge/internal/config"
	"github.com/pbaille/contentforge/internal/embedding"
	"github.com/pbaille/contentforge/internal/fetcher"
	"github.com/pbaille/contentforge/internal/generator"
	"github.com/pbaille/contentforge/internal/logger"
	"github.com/pbaille/contentforge/internal/persist"
	"github.com/pbaille/contentforge/internal/planner"
	"github.com/pbaille/contentforge/internal/session"
	"github.com/pbaille/contentforge/internal/tier"
	"github.com/pbaille/contentforge/internal/workflow"
)

var (
	envFile string
	dataDir string
	backend string
	plan    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "contentforge",
		Short:         "Caption generation, scoring and weekly post planning",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional .env file")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.contentforge)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "storage backend: json or sqlite")
	rootCmd.PersistentFlags().StringVar(&plan, "plan", "", "plan tier: Starter or Pro")

	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(scoreCmd())
	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(weekCmd())
	rootCmd.AddCommand(doneCmd())
	rootCmd.AddCommand(removeCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if errors.Is(err, session.ErrQuotaExceeded) {
			fmt.Fprintln(os.Stderr, "Upgrade to Pro or try again tomorrow.")
		}
		os.Exit(1)
	}
}

// app is the loaded state shared by every command
type app struct {
	cfg     *config.Config
	tier    tier.Tier
	log     *logrus.Logger
	backend persist.Backend
	planner *planner.Store
	sess    *session.Session
}

// openApp loads config, applies flag overrides and restores the last snapshot
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if backend != "" {
		cfg.Backend = backend
	}
	if plan != "" {
		cfg.Plan = plan
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t, err := tier.Lookup(cfg.Plan)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	if err != nil {
		return nil, err
	}

	b, err := persist.Open(cfg.Backend, cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.Backend, err)
	}

	snap, err := b.Load(ctx)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("load data: %w", err)
	}

	sess := snap.Session
	if sess == nil {
		sess = session.New(time.Now())
	}

	return &app{
		cfg:     cfg,
		tier:    t,
		log:     log,
		backend: b,
		planner: planner.Restore(snap.Planner, snap.History),
		sess:    sess,
	}, nil
}

func (a *app) save(ctx context.Context) error {
	live, history := a.planner.Snapshot()
	if err := a.backend.Save(ctx, persist.Snapshot{Planner: live, History: history, Session: a.sess}); err != nil {
		return fmt.Errorf("save data: %w", err)
	}
	return nil
}

func (a *app) Close() error {
	return a.backend.Close()
}

// deps picks the generator and the optional repetition check
func (a *app) deps(local bool) workflow.Deps {
	d := workflow.Deps{
		Generator:     generator.NewTemplate(),
		GeneratorName: "template",
		Planner:       a.planner,
		Fetcher:       fetcher.New(),
		Log:           a.log,
	}

	if !local {
		if g, err := generator.NewAnthropic(a.cfg.AnthropicAPIKey, generator.WithModel(a.cfg.AnthropicModel)); err == nil {
			d.Generator = g
			d.GeneratorName = "anthropic"
		} else {
			a.log.WithError(err).Debug("using local templates")
		}
	}

	if e, err := embedding.New(a.cfg.VoyageAPIKey); err == nil {
		d.Embedder = e
	}
	return d
}

// resolveID expands a unique id prefix
func (a *app) resolveID(prefix string) (string, error) {
	id, err := a.planner.Resolve(prefix)
	if err != nil {
		if errors.Is(err, planner.ErrNotFound) {
			return "", fmt.Errorf("event not found: %s", prefix)
		}
		return "", err
	}
	return id, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, max int) string {
	// Replace newlines with spaces for display
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
