package apply

import (
	"context"

	"github.com/radekstepan/apply-llm-changes/internal/config"
	"github.com/radekstepan/apply-llm-changes/internal/oracle"
	"github.com/radekstepan/apply-llm-changes/internal/parser"
)

// Options configure the one-shot library entry point.
type Options struct {
	// Policy is the oracle policy name: fallback, always or off. Empty means
	// the ORACLE_POLICY environment default.
	Policy string
	// Parallel issues oracle calls concurrently.
	Parallel bool
	// Oracle substitutes the production client, e.g. with a stub in tests.
	Oracle oracle.Oracle
}

// Extract parses content and returns the resolved path-to-content map
// without touching the filesystem.
func Extract(ctx context.Context, content string, opts Options) (map[string]string, error) {
	conf := config.Load()
	if opts.Policy != "" {
		conf.OraclePolicy = opts.Policy
	}
	policy, err := oracle.ParsePolicy(conf.OraclePolicy)
	if err != nil {
		return nil, err
	}

	o := opts.Oracle
	if o == nil && policy != oracle.PolicyOff {
		o = oracle.NewClient(conf)
	}

	res, err := parser.Extract(ctx, content, o, parser.Options{
		Policy:   policy,
		Parallel: opts.Parallel,
	})
	if err != nil {
		return nil, err
	}

	changes := make(map[string]string, len(res.Files))
	for path, block := range res.Files {
		changes[path] = block.Content
	}
	return changes, nil
}
