package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/intact-tools/intact/pkg/intact/config"
	"github.com/intact-tools/intact/pkg/intact/ignore"
	"github.com/intact-tools/intact/pkg/intact/index"
	"github.com/intact-tools/intact/pkg/intact/output"
	"github.com/intact-tools/intact/pkg/intact/recon"
	"github.com/intact-tools/intact/pkg/intact/walker"
)

// resolveRoot turns the optional positional argument into an absolute
// directory path, defaulting to the current directory.
func resolveRoot(args []string) (string, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	expanded, err := config.ExpandPath(root)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: not a directory", abs)
	}
	return abs, nil
}

// loadMatcher builds the root's ignore matcher. The index files are
// always excluded so the audit never indexes its own state.
func loadMatcher(root string) (*ignore.Matcher, error) {
	return ignore.Load(root, index.HashIndexName, index.MetaIndexName)
}

// runResult bundles one reconciliation's outcome for rendering.
type runResult struct {
	changes  *recon.ChangeSet
	index    *index.Index
	warnings []walker.Warning
	duration time.Duration
}

// reconcile runs the walk-hash-classify pipeline for one root. The
// progress line covers both phases; prior may be empty for init.
func reconcile(ctx context.Context, root string, matcher *ignore.Matcher, prior *index.Index, mode recon.Mode, prog *progressLine) (*runResult, error) {
	start := time.Now()

	walked, err := walker.Walk(ctx, walker.Options{
		Root:       root,
		Matcher:    matcher,
		OnProgress: prog.Walking,
	})
	if err != nil {
		return nil, err
	}

	if mode == recon.ModeAudit {
		prog.StartHashing(walked.TotalBytes)
	} else {
		prog.StartHashing(0)
	}

	engine := recon.New(recon.Options{
		Mode:     mode,
		Workers:  viper.GetInt("workers"),
		OnHashed: prog.Hashed,
	})

	changes, newIdx, hashWarnings, err := engine.Run(ctx, root, prior, walked.Entries)
	if err != nil {
		return nil, err
	}

	return &runResult{
		changes:  changes,
		index:    newIdx,
		warnings: append(walked.Warnings, hashWarnings...),
		duration: time.Since(start),
	}, nil
}

// buildReport converts a runResult to the formatter's input.
func buildReport(root, mode string, res *runResult, persisted bool) *output.Result {
	cs := res.changes

	r := &output.Result{
		Root:        root,
		Mode:        mode,
		Unchanged:   cs.Unchanged,
		Total:       cs.Total,
		BytesHashed: cs.BytesHashed,
		Duration:    res.duration,
		Persisted:   persisted,
	}
	for _, e := range cs.Added {
		r.Added = append(r.Added, e.Path)
	}
	for _, e := range cs.Removed {
		r.Removed = append(r.Removed, e.Path)
	}
	for _, e := range cs.Updated {
		r.Updated = append(r.Updated, e.Path)
	}
	for _, e := range cs.Bitrot {
		r.Bitrot = append(r.Bitrot, e.Path)
	}
	for _, m := range cs.Moved {
		r.Moved = append(r.Moved, output.Move{From: m.From, To: m.To})
	}
	for _, w := range res.warnings {
		r.Warnings = append(r.Warnings, fmt.Sprintf("%s: %s", w.Path, w.Err))
	}
	return r
}

// render prints the report with the configured formatter.
func render(r *output.Result) error {
	name := viper.GetString("output")
	if name == "" {
		name = config.DefaultOutput
	}

	formatter, err := output.Get(name)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, r); err != nil {
		return err
	}
	fmt.Print(buf.String())
	return nil
}

// exitCode maps a reconciliation outcome to the process exit code.
// Bitrot dominates other differences; warnings alone signal failure
// because an unreadable file is an unverified file.
func exitCode(res *runResult) int {
	switch {
	case res.changes.HasBitrot():
		return exitBitrot
	case res.changes.Modified():
		return exitDiff
	case len(res.warnings) > 0:
		return exitFatal
	default:
		return exitClean
	}
}
