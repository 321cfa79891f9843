// Package cli provides the command-line interface for the journal application.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tradevault/internal/config"
	"tradevault/internal/logging"
	"tradevault/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2025-06-01"
)

// App holds the application dependencies.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Local    *store.LocalStore
	Remote   store.RemoteStore
	Store    *store.Store
	Migrator *store.Migrator
}

// Close releases the stores owned by the app.
func (a *App) Close() {
	if a.Store != nil {
		a.Store.Close()
	}
	if a.Remote != nil {
		a.Remote.Close()
	}
	if a.Local != nil {
		a.Local.Close()
	}
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) (*cobra.Command, *App) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	local, err := store.NewLocalStore(cfg.Storage.DBPath, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to open local store, journal commands unavailable")
	} else {
		app.Local = local
		logger.Debug().Str("path", cfg.Storage.DBPath).Msg("Local store opened")
	}

	// Without a remote address the app runs local-only; sync commands will
	// report not-signed-in.
	if cfg.Remote.RedisAddr != "" {
		app.Remote = store.NewRedisRemote(cfg.Remote.RedisAddr, cfg.Remote.RedisPassword, cfg.Remote.RedisDB, logger)
		logger.Debug().Str("addr", cfg.Remote.RedisAddr).Msg("Redis remote initialized")
	}

	if app.Local != nil {
		app.Migrator = store.NewMigrator(app.Local, app.Remote, logger)
		app.Store = store.NewStore(app.Local, app.Remote, app.Migrator, cfg.Backup.Dir, logger)
	}

	rootCmd := &cobra.Command{
		Use:   "tradevault",
		Short: "TradeVault - local-first trading journal CLI",
		Long: `TradeVault is a local-first trading journal with optional cloud sync.

Trades, accounts, strategies, and tags live in a local SQLite store and
optionally mirror to a Redis-backed remote once you sign in. Account
balances are always derived from the trade ledger, never stored.

Use 'tradevault help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/tradevault)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	// Add all command groups
	addCoreCommands(rootCmd, app)
	addTradeCommands(rootCmd, app)
	addAccountCommands(rootCmd, app)
	addStrategyCommands(rootCmd, app)
	addTagCommands(rootCmd, app)
	addBackupCommands(rootCmd, app)
	addSyncCommands(rootCmd, app)

	return rootCmd, app
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("TradeVault v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Storage")
	output.Printf("  DB Path:     %s\n", cfg.Storage.DBPath)
	output.Println()

	output.Bold("Remote")
	if cfg.Remote.RedisAddr == "" {
		output.Printf("  Redis:       (not configured, local-only)\n")
	} else {
		output.Printf("  Redis:       %s (db %d)\n", cfg.Remote.RedisAddr, cfg.Remote.RedisDB)
	}
	output.Printf("  Identity:    %s\n", cfg.Remote.Identity)
	output.Println()

	output.Bold("Backup")
	output.Printf("  Directory:   %s\n", cfg.Backup.Dir)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:       %s\n", cfg.Logging.Level)
	output.Printf("  Console:     %v\n", cfg.Logging.Console)
	output.Printf("  File:        %v\n", cfg.Logging.File)
}
