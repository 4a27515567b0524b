package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"catalogsync/internal/adapters/editor"
	"catalogsync/internal/config"
)

var (
	initPath      string
	initOverwrite bool
)

var configCmd = &cobra.Command{
	Use:         "config",
	Short:       "Configuration utilities",
	Annotations: map[string]string{skipConfigLoad: "true"},
}

var configInitCmd = &cobra.Command{
	Use:         "init",
	Short:       "Create a sample configuration file",
	Annotations: map[string]string{skipConfigLoad: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		target := strings.TrimSpace(initPath)
		if target == "" {
			defaultPath, err := config.DefaultConfigPath()
			if err != nil {
				return fmt.Errorf("determine default config path: %w", err)
			}
			target = defaultPath
		} else {
			expanded, err := config.ExpandPath(target)
			if err != nil {
				return fmt.Errorf("resolve config path: %w", err)
			}
			target = expanded
		}

		dir := filepath.Dir(target)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory %q: %w", dir, err)
		}
		if !initOverwrite {
			if _, err := os.Stat(target); err == nil {
				return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
			} else if !os.IsNotExist(err) {
				return fmt.Errorf("check config path: %w", err)
			}
		}

		if err := config.CreateSample(target); err != nil {
			return fmt.Errorf("create sample config: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
		fmt.Fprintln(out, "Edit the catalog paths (and the [search] table, or export "+config.EnvSearchAPIKey+") before running catalogsync.")
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:         "validate",
	Short:       "Validate the configuration file",
	Annotations: map[string]string{skipConfigLoad: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, exists, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Config path: %s\n", path)
		if !exists {
			fmt.Fprintln(out, "Config file did not exist; defaults were used")
		}
		for _, name := range []string{cfg.Sync.Source, cfg.Sync.Target} {
			catalog, err := cfg.CatalogPath(name)
			if err != nil {
				return err
			}
			if _, err := os.Stat(catalog); err != nil {
				return fmt.Errorf("catalog %s: %w", name, err)
			}
		}
		if !cfg.SearchEnabled() {
			fmt.Fprintln(out, "Search index not configured; auto-sync will find no candidates")
		}
		fmt.Fprintln(out, "Configuration valid")
		return nil
	},
}

var configEditCmd = &cobra.Command{
	Use:         "edit",
	Short:       "Open the configuration file in $VISUAL or $EDITOR",
	Annotations: map[string]string{skipConfigLoad: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		target := configPath
		if target == "" {
			target = os.Getenv(config.EnvConfigPath)
		}
		if target == "" {
			defaultPath, err := config.DefaultConfigPath()
			if err != nil {
				return fmt.Errorf("determine default config path: %w", err)
			}
			target = defaultPath
		}
		expanded, err := config.ExpandPath(target)
		if err != nil {
			return fmt.Errorf("resolve config path: %w", err)
		}
		if _, err := os.Stat(expanded); err != nil {
			return fmt.Errorf("config file %s: %w (run 'catalogsync-cli config init' first)", expanded, err)
		}
		return editor.NewOpener().Edit(expanded)
	},
}

func init() {
	configInitCmd.Flags().StringVarP(&initPath, "path", "p", "", "destination for the configuration file")
	configInitCmd.Flags().BoolVar(&initOverwrite, "overwrite", false, "overwrite an existing configuration")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}
