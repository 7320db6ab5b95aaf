// Package walker enumerates the regular files under an audited root,
// honoring the ignore matcher's pruning decisions. It uses fastwalk for
// parallel traversal and returns a deterministic, path-sorted result.
package walker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"

	"github.com/intact-tools/intact/pkg/intact/ignore"
	"github.com/intact-tools/intact/pkg/intact/index"
	"github.com/intact-tools/intact/pkg/intact/logging"
)

// Warning records a per-entry failure that did not abort the walk.
// One unreadable file must not prevent auditing the rest of the tree.
type Warning struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// Progress receives running counters during the walk.
type Progress func(files, bytes int64)

// Options configures a walk.
type Options struct {
	// Root is the audited directory.
	Root string

	// Matcher filters which paths participate. Nil includes everything.
	Matcher *ignore.Matcher

	// OnProgress, if non-nil, is called as files are discovered.
	OnProgress Progress
}

// Result is the outcome of a walk: metadata entries for every reachable
// regular file, sorted by path, plus non-fatal per-entry warnings.
type Result struct {
	Entries    []index.Entry
	Warnings   []Warning
	TotalBytes int64
}

// Walk enumerates the tree under opts.Root. Traversal is concurrent, but
// the returned entries are path-sorted so output is reproducible.
// Symlinks are not followed, so cycles cannot occur.
func Walk(ctx context.Context, opts Options) (*Result, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", root)
	}

	w := &walk{
		root:    root,
		matcher: opts.Matcher,
		onProg:  opts.OnProgress,
		log:     logging.Get("walker"),
	}

	conf := fastwalk.Config{
		Follow: false, // never follow symlinks into directories
	}

	done := make(chan struct{})
	stop := context.AfterFunc(ctx, func() { close(done) })
	defer stop()

	walkErr := fastwalk.Walk(&conf, root, w.callback(done))
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if walkErr != nil && !errors.Is(walkErr, fastwalk.ErrSkipFiles) {
		return nil, walkErr
	}

	sort.Slice(w.entries, func(i, j int) bool {
		return w.entries[i].Path < w.entries[j].Path
	})

	return &Result{
		Entries:    w.entries,
		Warnings:   w.warnings,
		TotalBytes: w.bytes.Load(),
	}, nil
}

type walk struct {
	root    string
	matcher *ignore.Matcher
	onProg  Progress
	log     *logging.Logger

	mu       sync.Mutex
	entries  []index.Entry
	warnings []Warning

	files atomic.Int64
	bytes atomic.Int64
}

// callback returns the fastwalk callback. Per-entry failures are recorded
// as warnings and the walk continues.
func (w *walk) callback(done <-chan struct{}) fs.WalkDirFunc {
	return func(path string, d fs.DirEntry, err error) error {
		select {
		case <-done:
			return fastwalk.ErrSkipFiles
		default:
		}

		if err != nil {
			w.addWarning(path, err)
			return nil
		}

		rel, relErr := w.relPath(path)
		if relErr != nil {
			w.addWarning(path, relErr)
			return nil
		}

		if d.IsDir() {
			if rel != "" && w.excluded(rel) {
				// Prune: do not descend into excluded directories.
				return fastwalk.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if w.excluded(rel) {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			w.addWarning(path, infoErr)
			return nil
		}

		w.addEntry(index.Entry{
			Path:    rel,
			Size:    info.Size(),
			ModTime: info.ModTime().UnixMilli(),
		})
		return nil
	}
}

// relPath converts an absolute walk path to the slash-separated path
// relative to the root. The root itself maps to "".
func (w *walk) relPath(path string) (string, error) {
	if path == w.root {
		return "", nil
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

func (w *walk) excluded(rel string) bool {
	return w.matcher != nil && !w.matcher.Match(rel)
}

func (w *walk) addEntry(e index.Entry) {
	w.mu.Lock()
	w.entries = append(w.entries, e)
	w.mu.Unlock()

	files := w.files.Add(1)
	bytes := w.bytes.Add(e.Size)
	if w.onProg != nil {
		w.onProg(files, bytes)
	}
}

func (w *walk) addWarning(path string, err error) {
	w.log.Warn("skipping unreadable entry", "path", path, "error", err)

	rel, relErr := w.relPath(path)
	if relErr != nil || rel == "" {
		rel = path
	}

	w.mu.Lock()
	w.warnings = append(w.warnings, Warning{Path: rel, Err: err.Error()})
	w.mu.Unlock()
}
