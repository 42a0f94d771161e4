package cli

import (
	"fmt"

	"github.com/spf13/pflag"
)

// Config holds all the command-line flag values.
type Config struct {
	DryRun       bool
	NoAnimation  bool
	Parallel     bool
	OraclePolicy string
	Dir          string
}

// ParseFlags defines and parses command-line flags using pflag.
func ParseFlags() (*Config, error) {
	cfg := &Config{}

	pflag.BoolVarP(&cfg.DryRun, "dry-run", "n", false, "Show which files would be written without touching the disk.")
	pflag.BoolVar(&cfg.NoAnimation, "no-animation", false, "Disable the spinner; print plain output.")
	pflag.BoolVarP(&cfg.Parallel, "parallel", "p", false, "Issue path oracle calls concurrently.")
	pflag.StringVarP(&cfg.OraclePolicy, "oracle", "o", "", "Path oracle policy: fallback, always or off (default from ORACLE_POLICY).")
	pflag.StringVarP(&cfg.Dir, "dir", "C", "", "Directory to write files into (default: current directory).")

	pflag.Usage = func() {
		fmt.Println("Usage: apply-llm-changes [flags]")
		fmt.Println("\nParse LLM output from stdin (pipe) or clipboard and write the embedded file blocks to disk.")
		fmt.Println("\nExample: pbpaste | apply-llm-changes -o off")
		fmt.Println("\nFlags:")
		pflag.PrintDefaults()
	}

	pflag.Parse()

	switch cfg.OraclePolicy {
	case "", "fallback", "always", "off":
	default:
		return nil, fmt.Errorf("error: --oracle must be fallback, always or off")
	}

	return cfg, nil
}
