package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/radekstepan/apply-llm-changes/apply"
	"github.com/radekstepan/apply-llm-changes/cli"
	"github.com/radekstepan/apply-llm-changes/internal/tui"
	"github.com/radekstepan/apply-llm-changes/internal/ui"
)

func main() {
	// Credentials may live in a .env file next to the invocation.
	_ = godotenv.Load()

	cfg, err := cli.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	app, err := apply.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if cfg.NoAnimation || cfg.DryRun {
		summary, err := app.Execute()
		if err != nil {
			ui.Error("Error: %v", err)
			os.Exit(1)
		}
		ui.PrintSummary(summary)
		os.Exit(app.ExitCode())
	}

	m := tui.New(app)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
	os.Exit(app.ExitCode())
}
