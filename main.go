package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"property-desk/api"
	"property-desk/app"
	"property-desk/config"
	"property-desk/console"
	"property-desk/database"
	"property-desk/handlers"
	"property-desk/menu"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "property-desk",
	Short: "Property Desk - client, property and service records",
	Long: `Property Desk is a menu-driven console for managing clients, properties,
employees, recurring services and logged work.

Run without arguments to start the interactive menu.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), runMenu)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the schema and seed service types, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App, _ *api.Registry) error {
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date.")
			return nil
		})
	},
}

var endpointsCmd = &cobra.Command{
	Use:   "endpoints",
	Short: "List the menu entries and whether each one is available",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App, reg *api.Registry) error {
			out := cmd.OutOrStdout()
			category := ""
			for _, entry := range reg.Entries() {
				if entry.Category != category {
					category = entry.Category
					fmt.Fprintln(out, category)
				}
				fmt.Fprintf(out, "  %s\n", entry.Endpoint.Brief(entry.Index))
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, endpointsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type runFunc func(ctx context.Context, a *app.App, reg *api.Registry) error

// withApp loads configuration, opens and migrates the database, builds the
// endpoint registry and hands everything to run.
func withApp(ctx context.Context, run runFunc) error {
	if err := config.Load(); err != nil {
		return err
	}

	logger, closeLog, err := setupLogger()
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	db, err := database.Open(config.AppConfig.DBDriver, config.AppConfig.DBDSN)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		return err
	}
	logger.Info("database initialized", "driver", db.Driver)

	a := app.New(db, logger)
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("failed to release templates", "error", err)
		}
	}()

	layout, err := api.LoadLayout(config.AppConfig.MenuLayout)
	if err != nil {
		logger.Error("failed to load menu layout", "error", err)
		return err
	}

	reg, err := handlers.Register(ctx, a, layout)
	if err != nil {
		logger.Error("failed to register endpoints", "error", err)
		return err
	}
	logger.Info("endpoints registered", "count", reg.Len(), "templates", a.Templates.Len())

	defer writeMetrics(a, logger)
	return run(ctx, a, reg)
}

func runMenu(ctx context.Context, a *app.App, reg *api.Registry) error {
	m := menu.New("Property Desk", reg,
		console.NewPrompt(os.Stdin, os.Stdout),
		console.NewRenderer(os.Stdout),
		a.Logger,
	)
	if err := m.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	a.Logger.Info("menu closed")
	return nil
}

func writeMetrics(a *app.App, logger *slog.Logger) {
	path := config.AppConfig.MetricsFile
	if path == "" {
		return
	}
	if err := a.Metrics.WriteFile(path); err != nil {
		logger.Warn("failed to write metrics", "path", path, "error", err)
	}
}

// setupLogger writes to stderr, or LOG_FILE when set, so log lines never
// interleave with the menu on stdout.
func setupLogger() (*slog.Logger, func(), error) {
	var w io.Writer = os.Stderr
	closeFn := func() {}

	if path := config.AppConfig.LogFile; path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeFn = func() { _ = f.Close() }
	}

	opts := &slog.HandlerOptions{
		Level:     getLogLevel(),
		AddSource: config.AppConfig.Env == "development",
	}

	var handler slog.Handler
	if config.AppConfig.IsProduction() {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler), closeFn, nil
}

func getLogLevel() slog.Level {
	switch config.AppConfig.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
