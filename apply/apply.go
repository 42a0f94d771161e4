// Package apply orchestrates the application: read source content, extract
// file blocks, and write them to disk.
package apply

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/radekstepan/apply-llm-changes/cli"
	"github.com/radekstepan/apply-llm-changes/internal/config"
	"github.com/radekstepan/apply-llm-changes/internal/fs"
	"github.com/radekstepan/apply-llm-changes/internal/model"
	"github.com/radekstepan/apply-llm-changes/internal/oracle"
	"github.com/radekstepan/apply-llm-changes/internal/parser"
	"github.com/radekstepan/apply-llm-changes/internal/source"
	"github.com/radekstepan/apply-llm-changes/internal/ui"
)

// ErrNoBlocksResolved is returned when the input plainly contained file
// block markers but nothing could be resolved into a path.
var ErrNoBlocksResolved = errors.New("no file blocks could be resolved from the input")

// App orchestrates the entire application logic.
type App struct {
	cfg      *cli.Config
	conf     config.Config
	policy   oracle.Policy
	provider *source.Provider
	oracle   oracle.Oracle
	exitCode int
}

// DetailedError enhances a standard error with a stack trace.
type DetailedError struct {
	Err   error
	Stack []byte
}

func (e *DetailedError) Error() string {
	return e.Err.Error()
}

// New creates a new App instance.
func New(cfg *cli.Config) (*App, error) {
	conf := config.Load()
	if cfg.OraclePolicy != "" {
		conf.OraclePolicy = cfg.OraclePolicy
	}
	policy, err := oracle.ParsePolicy(conf.OraclePolicy)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:      cfg,
		conf:     conf,
		policy:   policy,
		provider: source.New(),
	}
	if policy != oracle.PolicyOff {
		a.oracle = oracle.NewClient(conf)
	}
	return a, nil
}

// ExitCode reports the process exit code for the last Execute call.
func (a *App) ExitCode() int {
	return a.exitCode
}

// Execute runs the full pipeline: read source, extract, write.
func (a *App) Execute() (summary model.Summary, err error) {
	// Centralized panic recovery.
	defer func() {
		if r := recover(); r != nil {
			a.exitCode = 1
			err = &DetailedError{
				Err:   fmt.Errorf("internal panic: %v", r),
				Stack: debug.Stack(),
			}
		}
	}()

	content, err := a.provider.GetContent()
	if err != nil {
		a.exitCode = 1
		return model.Summary{}, err
	}
	if strings.TrimSpace(content) == "" {
		return model.Summary{Message: "Source is empty. Nothing to process."}, nil
	}

	res, err := parser.Extract(context.Background(), content, a.oracle, parser.Options{
		Policy:   a.policy,
		Parallel: a.cfg.Parallel,
	})
	if err != nil {
		a.exitCode = 1
		return model.Summary{}, fmt.Errorf("extraction failed: %w", err)
	}

	if len(res.Files) == 0 {
		if res.BlocksSeen > 0 {
			a.exitCode = 1
			return model.Summary{}, ErrNoBlocksResolved
		}
		return model.Summary{Message: "No file blocks found. Nothing to do."}, nil
	}

	return a.applyBlocks(res)
}

// Parse extracts file blocks from content and returns a map of relative
// paths to their content, without touching the filesystem.
func (a *App) Parse(content string) (map[string]string, error) {
	res, err := parser.Extract(context.Background(), content, a.oracle, parser.Options{
		Policy:   a.policy,
		Parallel: a.cfg.Parallel,
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

// Apply writes a map of relative paths to content into the configured
// target directory, as if the entries had been extracted from a document.
func (a *App) Apply(changes map[string]string) (model.Summary, error) {
	paths := make([]string, 0, len(changes))
	for path := range changes {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	res := &parser.Result{Files: make(map[string]model.FileBlock, len(changes))}
	for _, path := range paths {
		res.Order = append(res.Order, path)
		res.Files[path] = model.FileBlock{Path: path, Content: changes[path], Source: model.SourceHeuristic}
	}
	return a.applyBlocks(res)
}

// applyBlocks resolves every extracted block against the target directory
// and writes it, collecting a summary along the way.
func (a *App) applyBlocks(res *parser.Result) (model.Summary, error) {
	root := a.cfg.Dir
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			a.exitCode = 1
			return model.Summary{}, fmt.Errorf("could not get working directory: %w", err)
		}
		root = wd
	}

	type target struct {
		rel string
		abs string
	}
	var (
		targets []target
		failed  []string
		abs     []string
	)
	for _, rel := range res.Order {
		resolved, err := fs.ResolveWithin(root, rel)
		if err != nil {
			ui.Warning("Refusing to write %s: %v", rel, err)
			failed = append(failed, rel)
			continue
		}
		targets = append(targets, target{rel: rel, abs: resolved})
		abs = append(abs, resolved)
	}

	actions, dirs := fs.Classify(abs)

	if a.cfg.DryRun {
		summary := model.Summary{Message: "Dry run; no files were written.", Failed: failed}
		for _, t := range targets {
			if actions[t.abs] == "create" {
				summary.Created = append(summary.Created, t.rel)
			} else {
				summary.Modified = append(summary.Modified, t.rel)
			}
		}
		return summary, nil
	}

	if err := fs.CreateDirs(dirs); err != nil {
		a.exitCode = 1
		return model.Summary{}, err
	}

	summary := model.Summary{}
	for _, t := range targets {
		block := res.Files[t.rel]
		if err := fs.WriteFile(t.abs, block.Content); err != nil {
			ui.Error("Failed to write %s: %v", t.rel, err)
			failed = append(failed, t.rel)
			continue
		}
		if actions[t.abs] == "create" {
			summary.Created = append(summary.Created, t.rel)
		} else {
			summary.Modified = append(summary.Modified, t.rel)
		}
	}
	summary.Failed = failed
	if len(failed) > 0 {
		a.exitCode = 1
	}
	return summary, nil
}
