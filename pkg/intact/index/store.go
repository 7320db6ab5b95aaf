package index

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/intact-tools/intact/pkg/intact/ignore"
)

// Index file names, rooted at the audited directory. The hash index is
// byte-compatible with sha256sum output so it can be verified with
// "sha256sum -c .checksums.sha256".
const (
	HashIndexName = ".checksums.sha256"
	MetaIndexName = ".checksums.meta"
)

// fieldSep separates fields within an index line. Two spaces is what
// sha256sum emits between digest and path.
const fieldSep = "  "

// digestLen is the hex length of a SHA-256 digest.
const digestLen = 64

// Sentinel errors for index persistence.
var (
	// ErrNoIndex indicates that no index exists at the root.
	ErrNoIndex = errors.New("no index found")

	// ErrIndexExists indicates an attempt to initialize over an existing
	// index.
	ErrIndexExists = errors.New("index already exists")

	// ErrCorruptIndex indicates a malformed persisted index. Loading
	// stops at the first malformed line: a partially trusted baseline
	// would produce misleading classifications.
	ErrCorruptIndex = errors.New("corrupt index")
)

// Exists reports whether either index file is present at the root.
func Exists(root string) bool {
	for _, name := range []string{HashIndexName, MetaIndexName} {
		if _, err := os.Stat(filepath.Join(root, name)); err == nil {
			return true
		}
	}
	return false
}

// Load reads the persisted index at root. Entries excluded by the matcher
// are dropped so the prior index stays consistent with walk visibility;
// a nil matcher keeps everything. Returns ErrNoIndex when neither file
// exists.
func Load(root string, matcher *ignore.Matcher) (*Index, error) {
	if !Exists(root) {
		return nil, fmt.Errorf("%w in %s", ErrNoIndex, root)
	}

	hashEntries, err := readIndexFile(filepath.Join(root, HashIndexName), parseHashLine)
	if err != nil {
		return nil, err
	}
	metaEntries, err := readIndexFile(filepath.Join(root, MetaIndexName), parseMetaLine)
	if err != nil {
		return nil, err
	}

	joined, err := join(hashEntries, metaEntries)
	if err != nil {
		return nil, err
	}

	if matcher != nil {
		kept := joined[:0]
		for _, e := range joined {
			if matcher.Match(e.Path) {
				kept = append(kept, e)
			}
		}
		joined = kept
	}

	return FromEntries(joined)
}

// Save persists the index at root, overwriting any prior index. Both
// files are written to temporary siblings and renamed into place, so an
// interrupted save never leaves a truncated index.
func Save(root string, ix *Index) error {
	var hashLines, metaLines strings.Builder
	for _, e := range ix.Entries() {
		hashLines.WriteString(e.Digest)
		hashLines.WriteString(fieldSep)
		hashLines.WriteString(e.Path)
		hashLines.WriteByte('\n')

		metaLines.WriteString(strconv.FormatInt(e.ModTime, 10))
		metaLines.WriteString(fieldSep)
		metaLines.WriteString(strconv.FormatInt(e.Size, 10))
		metaLines.WriteString(fieldSep)
		metaLines.WriteString(e.Path)
		metaLines.WriteByte('\n')
	}

	if err := writeFileAtomic(filepath.Join(root, HashIndexName), hashLines.String()); err != nil {
		return fmt.Errorf("writing hash index: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(root, MetaIndexName), metaLines.String()); err != nil {
		return fmt.Errorf("writing meta index: %w", err)
	}
	return nil
}

// writeFileAtomic writes content to a temporary file next to path, syncs
// it, and renames it into place.
func writeFileAtomic(path, content string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// readIndexFile parses one index file line by line.
func readIndexFile(path string, parse func(string) (Entry, error)) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}

		entry, err := parse(line)
		if err != nil {
			return nil, fmt.Errorf("%w: %s:%d: %v", ErrCorruptIndex, filepath.Base(path), lineNo, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}

	return entries, nil
}

// parseHashLine parses "<hex digest>  <path>".
func parseHashLine(line string) (Entry, error) {
	parts := strings.SplitN(line, fieldSep, 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Entry{}, errors.New("expected \"<digest>  <path>\"")
	}
	if !validDigest(parts[0]) {
		return Entry{}, fmt.Errorf("invalid digest %q", parts[0])
	}
	return Entry{Path: parts[1], Digest: parts[0]}, nil
}

// validDigest reports whether s is a well-formed stored digest:
// exactly 64 lowercase hex characters.
func validDigest(s string) bool {
	if len(s) != digestLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// parseMetaLine parses "<mtime ms>  <size>  <path>".
func parseMetaLine(line string) (Entry, error) {
	parts := strings.SplitN(line, fieldSep, 3)
	if len(parts) != 3 || parts[2] == "" {
		return Entry{}, errors.New("expected \"<mtime>  <size>  <path>\"")
	}

	mtime, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid modified timestamp: %v", err)
	}
	size, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid length: %v", err)
	}

	return Entry{Path: parts[2], Size: size, ModTime: mtime}, nil
}

// join merges the two index files positionally. Both must list the same
// paths in the same order.
func join(hashEntries, metaEntries []Entry) ([]Entry, error) {
	if len(hashEntries) != len(metaEntries) {
		return nil, fmt.Errorf("%w: index files have different entry counts (%d vs %d)",
			ErrCorruptIndex, len(hashEntries), len(metaEntries))
	}

	joined := make([]Entry, len(hashEntries))
	for i, h := range hashEntries {
		m := metaEntries[i]
		if h.Path != m.Path {
			return nil, fmt.Errorf("%w: entry %d: path mismatch (%q vs %q)",
				ErrCorruptIndex, i+1, h.Path, m.Path)
		}
		joined[i] = Entry{
			Path:    h.Path,
			Digest:  h.Digest,
			Size:    m.Size,
			ModTime: m.ModTime,
		}
	}
	return joined, nil
}
