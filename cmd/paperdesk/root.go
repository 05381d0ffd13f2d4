package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/csheth/paperdesk/internal/arxiv"
	"github.com/csheth/paperdesk/internal/config"
	"github.com/csheth/paperdesk/internal/gateway"
	"github.com/csheth/paperdesk/internal/llm"
	"github.com/csheth/paperdesk/internal/logging"
	"github.com/csheth/paperdesk/internal/papers"
	"github.com/csheth/paperdesk/internal/tui"
	"github.com/csheth/paperdesk/internal/workspace"
)

type rootOptions struct {
	configPath  string
	libraryPath string
	noDemo      bool
	provider    string
	model       string
	endpoint    string
	logLevel    string
	logFile     string
	noAltScreen bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "paperdesk",
		Short:        "Write, read and review academic papers with an AI assistant",
		Long:         "PaperDesk is a terminal workspace for drafting papers, reading them with an AI chat, and requesting AI reviews, summaries and rewrites.",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "YAML configuration file (default: $PAPERDESK_CONFIG)")
	flags.StringVar(&opts.libraryPath, "library", "", "JSON or YAML file of extra papers to load")
	flags.BoolVar(&opts.noDemo, "no-demo", false, "start without the demo papers")
	flags.StringVar(&opts.provider, "provider", "", "AI backend: gemini, openai or ollama (default: auto)")
	flags.StringVar(&opts.model, "model", "", "override the backend model")
	flags.StringVar(&opts.endpoint, "endpoint", "", "override the backend endpoint (eg. http://localhost:11434)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&opts.logFile, "log-file", "", "write logs to this file")
	cmd.Flags().BoolVar(&opts.noAltScreen, "no-alt-screen", false, "disable the alternate screen buffer")

	cmd.AddCommand(newImportCmd(opts), newListCmd(opts))
	return cmd
}

// loadConfig reads the configuration and applies command-line overrides,
// which win over both the file and the environment.
func (o *rootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if o.libraryPath != "" {
		cfg.Library.Path = o.libraryPath
	}
	if o.noDemo {
		cfg.Library.SkipDemo = true
	}
	if o.provider != "" && !strings.EqualFold(o.provider, cfg.AI.Provider) {
		// A key loaded for another provider must not leak to this one.
		cfg.AI.Provider = o.provider
		cfg.AI.APIKey = ""
	}
	if o.model != "" {
		cfg.AI.Model = o.model
	}
	if o.endpoint != "" {
		cfg.AI.Endpoint = o.endpoint
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.logFile != "" {
		cfg.Logging.File = o.logFile
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newLogger builds the zap logger. The terminal UI owns the screen, so in
// that mode logs always go to a file.
func newLogger(cfg config.Config, interactive bool) (*zap.Logger, error) {
	file := cfg.Logging.File
	if interactive && file == "" {
		file = logging.DefaultFile()
	}
	return logging.New(logging.Options{Level: cfg.Logging.Level, File: file})
}

func buildRepository(cfg config.Config, logger *zap.Logger) (*papers.Repository, error) {
	var seed []papers.Paper
	if !cfg.Library.SkipDemo {
		seed = papers.Seed(cfg.Author())
	}
	repo := papers.NewRepository(seed, papers.WithLogger(logger))
	if cfg.Library.Path == "" {
		return repo, nil
	}
	loaded, err := papers.LoadLibrary(cfg.Library.Path)
	if err != nil {
		return nil, fmt.Errorf("load library: %w", err)
	}
	// Add prepends, so walk backwards to keep the file order on top.
	for i := len(loaded) - 1; i >= 0; i-- {
		repo.Add(loaded[i])
	}
	logger.Info("library loaded", zap.String("path", cfg.Library.Path), zap.Int("papers", len(loaded)))
	return repo, nil
}

func buildImporter(cfg config.Config, logger *zap.Logger) (*arxiv.Client, error) {
	opts := []arxiv.Option{
		arxiv.WithLogger(logger),
		arxiv.WithEndpoints(cfg.Import.APIURL, cfg.Import.PDFBase),
	}
	if cfg.Import.CacheDir != "" {
		opts = append(opts, arxiv.WithCacheDir(cfg.Import.CacheDir))
	}
	if cfg.Import.SkipFullText {
		opts = append(opts, arxiv.WithoutFullText())
	}
	client, err := arxiv.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("arxiv client: %w", err)
	}
	return client, nil
}

func runTUI(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, true)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	backend, err := llm.NewFromConfig(ctx, cfg.LLM())
	if err != nil {
		// Without a backend every AI action degrades to its fallback text.
		fmt.Fprintln(cmd.ErrOrStderr(), "AI disabled:", err)
		logger.Warn("ai backend unavailable", zap.Error(err))
		backend = nil
	}
	gw := gateway.New(backend,
		gateway.WithLimits(cfg.GatewayLimits()),
		gateway.WithLogger(logger),
	)

	repo, err := buildRepository(cfg, logger)
	if err != nil {
		return err
	}
	importer, err := buildImporter(cfg, logger)
	if err != nil {
		return err
	}
	ctrl := workspace.New(repo, gw,
		workspace.WithUser(cfg.Author()),
		workspace.WithImporter(importer),
		workspace.WithLogger(logger),
	)
	defer ctrl.Close()

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if !opts.noAltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	program := tea.NewProgram(
		tui.New(tui.Config{
			Controller: ctrl,
			Backend:    gw.Backend(),
			Logger:     logger,
		}),
		programOpts...,
	)
	logger.Info("starting", zap.String("backend", gw.Backend()), zap.Int("papers", repo.Len()))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}
