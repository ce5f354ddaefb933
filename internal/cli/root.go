package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/me/tourtrack/internal/app"
	"github.com/me/tourtrack/internal/config"
	"github.com/me/tourtrack/internal/logging"
	"github.com/me/tourtrack/internal/notify"
)

var (
	flagConfig    string
	flagServer    string
	flagTimeout   time.Duration
	flagDB        string
	flagEphemeral bool
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string
	flagOutput    string

	logger      *slog.Logger
	application *app.App
	input       *bufio.Reader
)

// NewRootCmd creates the root cobra command for the tourtrack CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tourtrack",
		Short: "tourtrack: browse and manage recorded GPS tours",
		Long:  "tourtrack signs in to a tour backend, lists and filters tours, uploads GPX files and administers accounts.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger = logging.FromStrings(cfg.LogLevel, cfg.LogFormat)

			application, err = app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			application.Notify.Subscribe(func(ev notify.Event) {
				if ev.Type == notify.Added {
					fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", ev.Notification.Kind, ev.Notification.Message)
				}
			})
			input = bufio.NewReader(cmd.InOrStdin())
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	def := config.DefaultClientConfig()
	pf := root.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Config file (default ~/.tourtrack/config.yaml)")
	pf.StringVar(&flagServer, "server", def.Server, "Backend URL (or TOURTRACK_SERVER env)")
	pf.DurationVar(&flagTimeout, "timeout", def.Timeout, "Per-request timeout")
	pf.StringVar(&flagDB, "db", def.DBPath, "Credential store path")
	pf.BoolVar(&flagEphemeral, "ephemeral", false, "Keep credentials in memory only")
	pf.BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	pf.StringVar(&flagLogLevel, "log-level", def.LogLevel, "Log level (debug, info, warn, error)")
	pf.StringVar(&flagLogFormat, "log-format", def.LogFormat, "Log format (text, json)")
	pf.StringVarP(&flagOutput, "output", "o", def.Output, "Output format (table, json, yaml)")

	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newRegisterCmd(),
		newPasswdCmd(),
		newToursCmd(),
		newUploadCmd(),
		newUsersCmd(),
		newProfileCmd(),
		newAccountCmd(),
		newThemeCmd(),
		newOpenCmd(),
	)

	return root
}

// Execute runs the CLI and releases the application afterwards.
func Execute(ctx context.Context) error {
	defer closeApp()
	return NewRootCmd().ExecuteContext(ctx)
}

func closeApp() {
	if application == nil {
		return
	}
	if err := application.Close(); err != nil {
		logger.Warn("close application", "error", err)
	}
	application = nil
}

// loadConfig layers explicitly set flags over the file/env configuration.
func loadConfig(cmd *cobra.Command) (config.ClientConfig, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.Server = flagServer
	}
	if flags.Changed("timeout") {
		cfg.Timeout = flagTimeout
	}
	if flags.Changed("db") {
		cfg.DBPath = flagDB
	}
	if flags.Changed("ephemeral") {
		cfg.Ephemeral = flagEphemeral
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = flagLogFormat
	}
	if flags.Changed("output") {
		cfg.Output = flagOutput
	}
	if flagDebug {
		cfg.LogLevel = "debug"
	}
	return cfg, cfg.Validate()
}
