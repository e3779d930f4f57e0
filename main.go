package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/bassamadnan/tmail/config"
	"github.com/bassamadnan/tmail/gmail"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// app carries what every subcommand shares once the root command has
// loaded settings.
type app struct {
	configPath string
	settings   config.Settings
	logger     *log.Logger
	logFile    io.Closer
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "tmail",
		Short:         "Read Gmail message bodies from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.close()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultSettingsFile, "settings file")

	cmd.AddCommand(
		newGetCmd(a),
		newSearchCmd(a),
		newResolveCmd(a),
		newBrowseCmd(a),
		newFilterCmd(a),
	)
	return cmd
}

func (a *app) setup() error {
	settings, err := config.LoadSettings(a.configPath)
	if err != nil {
		return fmt.Errorf("error loading settings: %w", err)
	}
	a.settings = settings

	level, err := log.ParseLevel(settings.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", settings.LogLevel, err)
	}
	f, err := os.OpenFile(settings.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o660)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	a.logFile = f
	a.logger = log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})
	a.logger.Debug("settings loaded", "config", a.configPath)
	return nil
}

func (a *app) close() error {
	if a.logFile == nil {
		return nil
	}
	err := a.logFile.Close()
	a.logFile = nil
	return err
}

func (a *app) filters() (*config.Manager, error) {
	m, err := config.NewManager(a.settings.FiltersFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize filters: %w", err)
	}
	return m, nil
}

func (a *app) client(ctx context.Context) (*gmail.Client, error) {
	filters, err := a.filters()
	if err != nil {
		return nil, err
	}
	c, err := gmail.NewClient(ctx, a.settings, filters, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gmail client: %w (is %s present and valid?)", err, a.settings.CredentialsFile)
	}
	return c, nil
}

// render writes v the way every command reports results.
func render(cmd *cobra.Command, title string, v any) error {
	out, err := gmail.RenderResult(title, v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}
