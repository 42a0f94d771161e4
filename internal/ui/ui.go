package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/radekstepan/apply-llm-changes/internal/model"
)

var (
	HeaderColor  = color.New(color.FgBlue, color.Bold)
	InfoColor    = color.New(color.FgCyan)
	SuccessColor = color.New(color.FgGreen)
	WarningColor = color.New(color.FgYellow)
	ErrorColor   = color.New(color.FgRed)
	PathColor    = color.New(color.FgYellow)
)

func Header(format string, a ...interface{}) {
	HeaderColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Info(format string, a ...interface{}) {
	InfoColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Success(format string, a ...interface{}) {
	SuccessColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Warning(format string, a ...interface{}) {
	WarningColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Error(format string, a ...interface{}) {
	ErrorColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Path(format string, a ...interface{}) {
	PathColor.Fprintf(os.Stderr, "  "+format+"\n", a...)
}

// PrintSummary reports the outcome of a run when the TUI is not in use.
func PrintSummary(s model.Summary) {
	Header("\n--- Summary ---")

	if s.Message != "" {
		Info(s.Message)
	}
	if len(s.Created) == 0 && len(s.Modified) == 0 && len(s.Failed) == 0 {
		if s.Message == "" {
			Info("No files were written.")
		}
		return
	}

	if len(s.Created) > 0 {
		Success("Created %d file(s):", len(s.Created))
		for _, f := range s.Created {
			fmt.Printf("  - %s\n", f)
		}
	}
	if len(s.Modified) > 0 {
		Success("Modified %d file(s):", len(s.Modified))
		for _, f := range s.Modified {
			fmt.Printf("  - %s\n", f)
		}
	}
	if len(s.Failed) > 0 {
		Error("Failed to write %d file(s):", len(s.Failed))
		for _, f := range s.Failed {
			fmt.Printf("  - %s\n", f)
		}
	}
}
