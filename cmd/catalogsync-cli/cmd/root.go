package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"catalogsync/internal/app"
	"catalogsync/internal/config"
	"catalogsync/internal/logging"
)

// skipConfigLoad marks commands that run without an open session
const skipConfigLoad = "skipConfigLoad"

var (
	configPath string
	jsonOutput bool
	reverse    bool
	verbose    bool

	current   *app.App
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "catalogsync-cli",
	Short: "CLI for pairing items between two catalogs",
	Long: `catalogsync-cli pairs the items of two hierarchical catalogs
(subject, package, theme, knowledge) and records the pairs in a local
database.

Paths are comma separated ids from the subject down: "" lists subjects,
"1" lists the packages of subject 1, "1,11" the themes of package 11 and
so on.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Annotations[skipConfigLoad] == "true" {
			return nil
		}
		return openSession(cmd.Context())
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeSession()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		closeSession()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the configuration file (default $"+config.EnvConfigPath+" or ~/.config/catalogsync/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&reverse, "reverse", "r", false, "use the target catalog as the source")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr when no log file is configured")
}

func openSession(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var fallback io.Writer = io.Discard
	if verbose {
		fallback = os.Stderr
	}
	logger, closer, err := logging.NewFromConfig(cfg, fallback)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	logCloser = closer

	current, err = app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if reverse {
		current.Session.SwitchRoles()
	}
	return nil
}

func closeSession() error {
	var err error
	if current != nil {
		err = current.Close()
		current = nil
	}
	if logCloser != nil {
		logCloser.Close()
		logCloser = nil
	}
	return err
}

// GetApp returns the opened application
func GetApp() *app.App {
	return current
}
