package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/abhisek/stepwise/internal/annotation"
	"github.com/abhisek/stepwise/internal/config"
	"github.com/abhisek/stepwise/internal/llm"
	"github.com/abhisek/stepwise/internal/logger"
	"github.com/abhisek/stepwise/internal/problem"
	"github.com/abhisek/stepwise/internal/solution"
	"github.com/abhisek/stepwise/internal/store"
	"github.com/spf13/cobra"
)

// loadConfig reads --config and applies --db on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.Store.Path = p
	}
	return cfg, nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the config file and STEPWISE_DB, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	return cfg.DBPath()
}

// deps is everything a command needs to drive the services.
type deps struct {
	cfg         *config.Config
	store       *store.Store
	log         *logger.Logger
	problems    *problem.Service
	annotations *annotation.Service
}

func (d *deps) Close() {
	d.log.Sync()
	_ = d.store.Close()
}

type depsOptions struct {
	// withLLM builds the solution generator. Commands that only read
	// stored data leave it off so they work without an API key.
	withLLM bool
	// logFile sends logs to a file instead of stderr.
	logFile string
}

// openDeps opens the store, builds the logger and wires the services.
func openDeps(cmd *cobra.Command, opts depsOptions) (*deps, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logOpts := logger.Options{Mode: cfg.Log.Mode, Level: cfg.Log.Level}
	if opts.logFile != "" {
		logOpts.OutputPaths = []string{opts.logFile}
	}
	log, err := logger.New(logOpts)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	dbPath, err := cfg.DBPath()
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	problems := problem.NewService(st.Problems(), problem.WithLogger(log))

	var gen solution.Generator = unavailableGenerator{err: errors.New("solution generation is not enabled for this command")}
	if opts.withLLM {
		gen = buildGenerator(cmd.Context(), cfg, st, log)
	}

	return &deps{
		cfg:         cfg,
		store:       st,
		log:         log,
		problems:    problems,
		annotations: annotation.NewService(st, problems, gen, annotation.WithLogger(log)),
	}, nil
}

// buildGenerator creates the LLM-backed generator. Without a usable
// provider the app still runs; starting an annotation then fails.
func buildGenerator(ctx context.Context, cfg *config.Config, st *store.Store, log *logger.Logger) solution.Generator {
	if ctx == nil {
		ctx = context.Background()
	}
	provider, err := llm.NewProvider(ctx, cfg.ProviderConfig(), st.EventRepo(), log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "LLM provider not configured:", err)
		fmt.Fprintln(os.Stderr, "Solution generation will be unavailable (set STEPWISE_PROVIDER=mock for an offline demo).")
		log.Warn("llm provider unavailable", "error", err)
		return unavailableGenerator{err: err}
	}
	log.Info("llm provider ready", "provider", cfg.LLM.Provider, "model", provider.ModelID())
	return solution.New(provider, cfg.GeneratorConfig())
}

// unavailableGenerator fails every call with the reason no provider exists.
type unavailableGenerator struct {
	err error
}

func (g unavailableGenerator) Initial(context.Context, string) ([]string, error) {
	return nil, g.err
}

func (g unavailableGenerator) Revise(context.Context, solution.Revision) ([]string, error) {
	return nil, g.err
}

// tuiLogPath returns <data dir>/stepwise.log.
func tuiLogPath() (string, error) {
	dir, err := store.DataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "stepwise.log"), nil
}
