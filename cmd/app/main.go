package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/elinsky/execution-service/internal"
	"github.com/elinsky/execution-service/internal/mcpserver"
	"github.com/elinsky/execution-service/internal/storage"
	"github.com/elinsky/execution-service/internal/store"
	syncengine "github.com/elinsky/execution-service/internal/sync"
	pkgconfig "github.com/elinsky/execution-service/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// stderrLogger builds a logger for commands whose stdout is a data channel
// (the sync summary, the MCP stdio transport).
func stderrLogger(level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runSync(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := stderrLogger(cfg.App.LogLevel)

	email := cmd.String("user")
	if email == "" {
		email = cfg.Sync.User
	}
	if email == "" {
		return fmt.Errorf("no user given: pass --user or set sync.user in the config")
	}

	source := cmd.String("source")
	if source == "" {
		source = cfg.Source.Path
	}

	st, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	user, err := st.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("resolve user %q: %w", email, err)
	}

	fs, err := storage.NewFS(source)
	if err != nil {
		return err
	}

	engine := syncengine.New(st, fs, logger)
	opts := syncengine.Options{
		DryRun: cmd.Bool("dry-run"),
		Force:  cmd.Bool("force"),
	}

	report, err := engine.Run(ctx, user.ID, opts)
	if err != nil {
		return err
	}
	fmt.Print(report.Summary())

	if cmd.Bool("watch") {
		return engine.Watch(ctx, source, user.ID, opts)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	stderrLogger(cfg.App.LogLevel)

	email := cmd.String("user")
	if email == "" {
		email = cfg.Sync.User
	}
	if email == "" {
		return fmt.Errorf("no user given: pass --user or set sync.user in the config")
	}

	st, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	user, err := st.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("resolve user %q: %w", email, err)
	}

	return mcpserver.New(st, user.ID).ServeStdio()
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}
	userFlag := &cli.StringFlag{
		Name:    "user",
		Aliases: []string{"u"},
		Usage:   "Account email to operate as (defaults to sync.user from the config)",
	}

	cmd := &cli.Command{
		Name:  "execd",
		Usage: "GTD execution backend: projects, goals, actions, and timers over a markdown source tree",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server",
				Action: serve,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:   "sync",
				Usage:  "Reconcile the markdown source tree with the database",
				Action: runSync,
				Flags: []cli.Flag{
					configFlag,
					userFlag,
					&cli.StringFlag{
						Name:  "source",
						Usage: "Markdown source tree root (defaults to source.path from the config)",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Compute and report actions without writing anything",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Push every matched file into the database regardless of timestamps",
					},
					&cli.BoolFlag{
						Name:  "watch",
						Usage: "Keep running and re-sync on file changes",
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP stdio server exposing GTD tools",
				Action: runMCP,
				Flags:  []cli.Flag{configFlag, userFlag},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
