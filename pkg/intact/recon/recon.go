// Package recon is the reconciliation engine: it takes the walker's
// observations and the prior index, decides which files need re-hashing,
// classifies every path, and assembles the replacement index.
package recon

import (
	"context"
	"path/filepath"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/intact-tools/intact/pkg/intact/hashing"
	"github.com/intact-tools/intact/pkg/intact/index"
	"github.com/intact-tools/intact/pkg/intact/logging"
	"github.com/intact-tools/intact/pkg/intact/walker"
)

// Mode selects the re-hash policy.
type Mode int

const (
	// ModeUpdate trusts the stored digest when size and mtime are
	// unchanged and hashes only new or metadata-changed files. This is
	// the incremental optimization that makes repeated runs cheap.
	ModeUpdate Mode = iota

	// ModeAudit hashes every file regardless of metadata. Bitrot
	// manifests as a digest change with unchanged metadata, so skipping
	// any hash would make it undetectable. Audit never weakens this.
	ModeAudit
)

// String returns the mode name.
func (m Mode) String() string {
	if m == ModeAudit {
		return "audit"
	}
	return "update"
}

// maxDefaultWorkers caps the automatic hash worker count; hashing is
// I/O-bound long before it saturates that many cores.
const maxDefaultWorkers = 16

// DefaultWorkers returns the default hash concurrency for this machine.
func DefaultWorkers() int {
	n := runtime.NumCPU()
	if n < 4 {
		n = 4
	}
	if n > maxDefaultWorkers {
		n = maxDefaultWorkers
	}
	return n
}

// Move records a rename: identical content disappeared at From and
// appeared at To.
type Move struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ChangeSet is the classified result of one reconciliation. Every path in
// either index appears in exactly one category; unchanged paths are only
// counted.
type ChangeSet struct {
	Added   []index.Entry `json:"added"`
	Removed []index.Entry `json:"removed"`
	Updated []index.Entry `json:"updated"`
	Bitrot  []index.Entry `json:"bitrot"`
	Moved   []Move        `json:"moved"`

	// Unchanged is the number of paths with identical digest and metadata.
	Unchanged int `json:"unchanged"`

	// Total is the number of observed paths that were classified.
	Total int `json:"total"`

	// BytesHashed is the number of content bytes fed to the hash engine.
	BytesHashed int64 `json:"bytes_hashed"`
}

// Modified reports whether any difference was detected.
func (c *ChangeSet) Modified() bool {
	return len(c.Added) > 0 || len(c.Removed) > 0 ||
		len(c.Updated) > 0 || len(c.Bitrot) > 0 || len(c.Moved) > 0
}

// HasBitrot reports whether silent corruption was detected.
func (c *ChangeSet) HasBitrot() bool {
	return len(c.Bitrot) > 0
}

// Options configures a Reconciler.
type Options struct {
	// Mode is the re-hash policy.
	Mode Mode

	// Workers bounds hash concurrency. Zero or negative uses
	// DefaultWorkers().
	Workers int

	// Hasher computes content digests. Nil uses SHA-256.
	Hasher hashing.Hasher

	// OnHashed, if non-nil, receives the byte count of each completed
	// read during hashing, for progress reporting.
	OnHashed func(bytes int64)
}

// Reconciler reconciles walker observations against a prior index.
type Reconciler struct {
	opts Options
	log  *logging.Logger
}

// New creates a Reconciler, applying option defaults.
func New(opts Options) *Reconciler {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers()
	}
	if opts.Hasher == nil {
		opts.Hasher = hashing.NewSHA256()
	}
	return &Reconciler{opts: opts, log: logging.Get("recon")}
}

// Run reconciles observed entries against the prior index and returns the
// change set, the replacement index, and per-path hash warnings. The
// prior index is read-only for the whole run; the result is independent
// of the order in which files were hashed.
func (r *Reconciler) Run(ctx context.Context, root string, prior *index.Index, observed []index.Entry) (*ChangeSet, *index.Index, []walker.Warning, error) {
	hashed, warnings, bytesHashed, err := r.resolveDigests(ctx, root, prior, observed)
	if err != nil {
		return nil, nil, nil, err
	}

	failed := make(map[string]bool, len(warnings))
	for _, w := range warnings {
		failed[w.Path] = true
	}

	cs := classify(prior, hashed, failed)
	cs.BytesHashed = bytesHashed
	resolveMoves(cs)

	newIdx, err := index.FromEntries(hashed)
	if err != nil {
		return nil, nil, nil, err
	}

	r.log.Info("reconciliation complete",
		"mode", r.opts.Mode.String(),
		"total", cs.Total,
		"added", len(cs.Added),
		"removed", len(cs.Removed),
		"updated", len(cs.Updated),
		"bitrot", len(cs.Bitrot),
		"moved", len(cs.Moved),
		"warnings", len(warnings))

	return cs, newIdx, warnings, nil
}

// resolveDigests ensures every observed entry carries a digest: carried
// over from the prior index when the mode allows it, computed otherwise.
// Hashing runs in parallel; entries whose hash failed are dropped and
// reported as warnings.
func (r *Reconciler) resolveDigests(ctx context.Context, root string, prior *index.Index, observed []index.Entry) ([]index.Entry, []walker.Warning, int64, error) {
	results := make([]index.Entry, len(observed))
	copy(results, observed)

	var (
		mu          sync.Mutex
		warnings    []walker.Warning
		bytesHashed int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)

	for i := range results {
		e := &results[i]

		if r.opts.Mode == ModeUpdate {
			if old, ok := prior.Get(e.Path); ok && e.SameMeta(old) && old.Digest != "" {
				// Metadata unchanged: trust the stored digest.
				e.Digest = old.Digest
				continue
			}
		}

		g.Go(func() error {
			abs := filepath.Join(root, filepath.FromSlash(e.Path))
			digest, err := r.opts.Hasher.HashFile(gctx, abs, func(n int64) {
				mu.Lock()
				bytesHashed += n
				mu.Unlock()
				if r.opts.OnHashed != nil {
					r.opts.OnHashed(n)
				}
			})
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				r.log.Warn("hashing failed", "path", e.Path, "error", err)
				mu.Lock()
				warnings = append(warnings, walker.Warning{Path: e.Path, Err: err.Error()})
				mu.Unlock()
				return nil
			}
			e.Digest = digest
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, 0, err
	}

	// Drop entries that could not be hashed; they are excluded from
	// classification and from the new index.
	kept := results[:0]
	for _, e := range results {
		if e.Digest != "" {
			kept = append(kept, e)
		}
	}

	return kept, warnings, bytesHashed, nil
}

// classify walks the prior and observed entries (both path-sorted) with a
// merge join and buckets every path. Paths whose hash failed are skipped
// entirely: they belong to no category.
func classify(prior *index.Index, observed []index.Entry, failed map[string]bool) *ChangeSet {
	cs := &ChangeSet{}

	old := prior.Entries()
	i, j := 0, 0
	for i < len(old) || j < len(observed) {
		switch {
		case i >= len(old):
			cs.Added = append(cs.Added, observed[j])
			cs.Total++
			j++
		case j >= len(observed):
			if !failed[old[i].Path] {
				cs.Removed = append(cs.Removed, old[i])
			}
			i++
		case old[i].Path < observed[j].Path:
			if !failed[old[i].Path] {
				cs.Removed = append(cs.Removed, old[i])
			}
			i++
		case old[i].Path > observed[j].Path:
			cs.Added = append(cs.Added, observed[j])
			cs.Total++
			j++
		default:
			classifyPair(cs, old[i], observed[j])
			i++
			j++
		}
	}

	return cs
}

// classifyPair buckets a path present in both indexes.
func classifyPair(cs *ChangeSet, old, cur index.Entry) {
	cs.Total++

	switch {
	case old.SameDigest(cur) && old.SameMeta(cur):
		cs.Unchanged++
	case old.SameDigest(cur):
		// Metadata-only change still counts as an update: the contract
		// is detecting any observable change.
		cs.Updated = append(cs.Updated, cur)
	case old.ModTime == cur.ModTime:
		// Content changed while the modification timestamp did not:
		// the signature case this system exists to catch.
		cs.Bitrot = append(cs.Bitrot, cur)
	default:
		cs.Updated = append(cs.Updated, cur)
	}
}

// resolveMoves pairs tentatively removed paths with tentatively added
// paths that carry the same digest. Both sides are in path order, so
// pairing is positional within each digest group and deterministic.
// Leftovers stay Added or Removed; each path joins at most one move.
func resolveMoves(cs *ChangeSet) {
	if len(cs.Added) == 0 || len(cs.Removed) == 0 {
		return
	}

	removedByDigest := make(map[string][]index.Entry)
	for _, e := range cs.Removed {
		removedByDigest[e.Digest] = append(removedByDigest[e.Digest], e)
	}

	claimed := make(map[string]bool)
	var added []index.Entry
	for _, a := range cs.Added {
		candidates := removedByDigest[a.Digest]
		if len(candidates) == 0 {
			added = append(added, a)
			continue
		}
		from := candidates[0]
		removedByDigest[a.Digest] = candidates[1:]
		claimed[from.Path] = true
		cs.Moved = append(cs.Moved, Move{From: from.Path, To: a.Path})
	}

	var removed []index.Entry
	for _, e := range cs.Removed {
		if !claimed[e.Path] {
			removed = append(removed, e)
		}
	}

	cs.Added = added
	cs.Removed = removed
}
