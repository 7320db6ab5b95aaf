// Package watch provides live divergence monitoring: it watches an
// audited tree with fsnotify and reports filesystem events as tentative
// deviations from the loaded index. Events are metadata-level hints, not
// a substitute for an audit; only a full re-hash can prove integrity.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/intact-tools/intact/pkg/intact/ignore"
	"github.com/intact-tools/intact/pkg/intact/index"
	"github.com/intact-tools/intact/pkg/intact/logging"
)

// Kind classifies a live event relative to the index.
type Kind string

// Event kinds.
const (
	KindAdded   Kind = "added"
	KindRemoved Kind = "removed"
	KindChanged Kind = "changed"
)

// Event is one observed deviation from the index.
type Event struct {
	Kind Kind
	Path string // relative to the watched root
}

// Monitor watches a tree and emits Events until its context is done.
type Monitor struct {
	root    string
	idx     *index.Index
	matcher *ignore.Matcher
	onEvent func(Event)
	log     *logging.Logger

	watcher *fsnotify.Watcher

	mu    sync.Mutex
	paths map[string]bool
}

// New creates a Monitor for the given root against the loaded index.
// The callback runs on the monitor goroutine and must not block.
func New(root string, idx *index.Index, matcher *ignore.Matcher, onEvent func(Event)) (*Monitor, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Monitor{
		root:    absRoot,
		idx:     idx,
		matcher: matcher,
		onEvent: onEvent,
		log:     logging.Get("watch"),
		watcher: fsw,
		paths:   make(map[string]bool),
	}, nil
}

// Run adds recursive watches and processes events until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	defer m.watcher.Close()

	if err := m.watchTree(m.root); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			m.handle(event)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			m.log.Warn("watch error", "error", err)
		}
	}
}

// watchTree adds watches for root and all non-excluded subdirectories.
// Symlinks are not followed to avoid loops.
func (m *Monitor) watchTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			m.log.Warn("skipping unwatchable entry", "path", path, "error", walkErr)
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		rel := m.relPath(path)
		if rel != "" && m.excluded(rel) {
			return fs.SkipDir
		}

		return m.addWatch(path)
	})
}

// addWatch registers a single directory with fsnotify.
func (m *Monitor) addWatch(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.paths[path] {
		return nil
	}
	if err := m.watcher.Add(path); err != nil {
		m.log.Warn("failed to add watch", "path", path, "error", err)
		return nil
	}
	m.paths[path] = true
	return nil
}

// handle classifies one fsnotify event against the index.
func (m *Monitor) handle(event fsnotify.Event) {
	rel := m.relPath(event.Name)
	if rel == "" || m.excluded(rel) {
		return
	}

	switch {
	case event.Op.Has(fsnotify.Create):
		info, err := os.Lstat(event.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			// New directory: extend the watch, report nothing yet;
			// its files produce their own Create events.
			_ = m.watchTree(event.Name)
			return
		}
		if info.Mode().IsRegular() {
			m.emitFileEvent(rel, info)
		}

	case event.Op.Has(fsnotify.Write):
		info, err := os.Lstat(event.Name)
		if err != nil || !info.Mode().IsRegular() {
			return
		}
		m.emitFileEvent(rel, info)

	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		if _, ok := m.idx.Get(rel); ok {
			m.emit(Event{Kind: KindRemoved, Path: rel})
		}
	}
}

// emitFileEvent reports a created or written file, suppressing writes
// that leave the indexed metadata unchanged.
func (m *Monitor) emitFileEvent(rel string, info os.FileInfo) {
	old, ok := m.idx.Get(rel)
	if !ok {
		m.emit(Event{Kind: KindAdded, Path: rel})
		return
	}

	cur := index.Entry{Path: rel, Size: info.Size(), ModTime: info.ModTime().UnixMilli()}
	if cur.SameMeta(old) {
		return
	}
	m.emit(Event{Kind: KindChanged, Path: rel})
}

func (m *Monitor) emit(e Event) {
	m.log.Debug("divergence", "kind", string(e.Kind), "path", e.Path)
	if m.onEvent != nil {
		m.onEvent(e)
	}
}

// relPath converts an absolute event path to a slash-relative one.
// Paths outside the root map to "".
func (m *Monitor) relPath(path string) string {
	rel, err := filepath.Rel(m.root, path)
	if err != nil || rel == "." || filepath.IsAbs(rel) || rel == ".." ||
		len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator) {
		return ""
	}
	return filepath.ToSlash(rel)
}

func (m *Monitor) excluded(rel string) bool {
	return m.matcher != nil && !m.matcher.Match(rel)
}
