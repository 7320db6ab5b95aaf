// Package ignore decides which paths participate in an audit.
//
// Rules come from a per-root ignore file, one glob pattern per line.
// Blank lines and lines starting with "#" are skipped; a leading "!"
// marks an include rule, every other non-empty line is an exclude rule.
// Evaluation is first-match-wins over the complete relative path, with
// include-by-default when nothing matches.
package ignore

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// FileName is the per-root ignore file consulted by Load.
const FileName = ".intactignore"

// Rule is one ignore/include directive: a glob pattern and a polarity.
type Rule struct {
	pattern string
	glob    glob.Glob
	include bool
}

// Compile builds a Rule from a glob pattern. Patterns match the complete
// relative path; "/" is the separator, so "*" does not cross directories
// while "**" does.
func Compile(pattern string, include bool) (Rule, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return Rule{}, fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
	}
	return Rule{pattern: pattern, glob: g, include: include}, nil
}

// Pattern returns the rule's source pattern.
func (r Rule) Pattern() string { return r.pattern }

// Include reports the rule's polarity.
func (r Rule) Include() bool { return r.include }

// String renders the rule the way it would appear in an ignore file.
func (r Rule) String() string {
	if r.include {
		return "!" + r.pattern
	}
	return r.pattern
}

// Matcher evaluates an ordered rule sequence against relative paths.
type Matcher struct {
	rules []Rule
}

// NewMatcher creates a Matcher over the given rules. Rule order is
// significant and preserved.
func NewMatcher(rules []Rule) *Matcher {
	return &Matcher{rules: rules}
}

// Load reads the root's ignore file, if present, and returns a Matcher.
// The given exclude patterns (typically the index file names) are
// prepended as exclude rules so they always win.
func Load(root string, exclude ...string) (*Matcher, error) {
	rules := make([]Rule, 0, len(exclude))
	for _, pattern := range exclude {
		rule, err := Compile(pattern, false)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	f, err := os.Open(filepath.Join(root, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return NewMatcher(rules), nil
		}
		return nil, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()

	parsed, err := Parse(f)
	if err != nil {
		return nil, err
	}

	return NewMatcher(append(rules, parsed...)), nil
}

// Parse reads rules from an ignore file, one per line.
func Parse(r io.Reader) ([]Rule, error) {
	var rules []Rule

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Comment lines and blank lines are not rules.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		include := false
		if strings.HasPrefix(line, "!") {
			include = true
			line = strings.TrimSpace(line[1:])
			if line == "" {
				return nil, fmt.Errorf("line %d: include rule without pattern", lineNo)
			}
		}

		rule, err := Compile(line, include)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		rules = append(rules, rule)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}

	return rules, nil
}

// Rules returns the matcher's rules in evaluation order.
func (m *Matcher) Rules() []Rule {
	return m.rules
}

// Match reports whether the relative path participates in the audit.
// The first rule whose pattern matches decides; unmatched paths are
// included. Directories are evaluated exactly like files, so the walker
// can prune excluded directories without descending into them.
func (m *Matcher) Match(relPath string) bool {
	for _, rule := range m.rules {
		if rule.glob.Match(relPath) {
			return rule.include
		}
	}
	return true
}
