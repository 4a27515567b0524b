package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"catalogsync/internal/adapters/tui"
	"catalogsync/internal/app"
	"catalogsync/internal/config"
	"catalogsync/internal/logging"
)

func main() {
	configFlag := flag.String("config", "", "path to the configuration file")
	reverse := flag.Bool("reverse", false, "use the target catalog as the source")
	flag.Parse()

	if err := run(*configFlag, *reverse); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, reverse bool) error {
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Records only reach a configured log file; the terminal belongs to the TUI
	logger, closer, err := logging.NewFromConfig(cfg, io.Discard)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closer.Close()

	a, err := app.Open(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if reverse {
		a.Session.SwitchRoles()
	}
	source, target := a.CatalogNames()

	p := tea.NewProgram(tui.NewApp(a.Session, source, target), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
