package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// PrettyFormatter renders the report with colors and styling using
// lipgloss. It is the default formatter for terminal display.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")

	if r.Modified() {
		w.WriteString(f.formatChanges(r))
	}

	w.WriteString(f.formatFooter(r))
	w.WriteString("\n")

	if len(r.Warnings) > 0 {
		w.WriteString(f.formatWarnings(r.Warnings))
	}

	return nil
}

// formatHeader builds the header box with run metadata.
func (f *PrettyFormatter) formatHeader(r *Result) string {
	var lines []string

	rootLabel := LabelStyle.Render("Root:")
	rootValue := ValueStyle.Render(r.Root)
	lines = append(lines, fmt.Sprintf("%s %s", rootLabel, rootValue))

	modeLabel := LabelStyle.Render("Mode:")
	modeValue := ValueStyle.Render(r.Mode)
	hashedLabel := LabelStyle.Render("Hashed:")
	hashedValue := ValueStyle.Render(fmt.Sprintf("%s in %s",
		humanize.IBytes(uint64(r.BytesHashed)), formatDuration(r.Duration)))
	lines = append(lines, fmt.Sprintf("%s %s  %s %s", modeLabel, modeValue, hashedLabel, hashedValue))

	return HeaderBox.Render(strings.Join(lines, "\n"))
}

// formatChanges renders one styled line per classified path.
func (f *PrettyFormatter) formatChanges(r *Result) string {
	var b strings.Builder

	for _, p := range r.Added {
		b.WriteString(AddedStyle.Render(fmt.Sprintf("%s %s", SymbolAdded, p)))
		b.WriteString("\n")
	}
	for _, p := range r.Updated {
		b.WriteString(UpdatedStyle.Render(fmt.Sprintf("%s %s", SymbolUpdated, p)))
		b.WriteString("\n")
	}
	for _, p := range r.Bitrot {
		b.WriteString(BitrotStyle.Render(fmt.Sprintf("%s %s", SymbolBitrot, p)))
		b.WriteString("\n")
	}
	for _, p := range r.Removed {
		b.WriteString(RemovedStyle.Render(fmt.Sprintf("%s %s", SymbolRemoved, p)))
		b.WriteString("\n")
	}
	for _, m := range r.Moved {
		b.WriteString(MovedStyle.Render(fmt.Sprintf("%s %s (from %s)", SymbolMoved, m.To, m.From)))
		b.WriteString("\n")
	}

	return b.String()
}

// formatFooter builds the summary box with per-category counts.
func (f *PrettyFormatter) formatFooter(r *Result) string {
	var parts []string

	add := func(label string, count int, style func(...string) string) {
		if count == 0 {
			return
		}
		parts = append(parts, style(fmt.Sprintf("%s %d", label, count)))
	}

	add("added", len(r.Added), AddedStyle.Render)
	add("removed", len(r.Removed), RemovedStyle.Render)
	add("updated", len(r.Updated), UpdatedStyle.Render)
	add("bitrot", len(r.Bitrot), BitrotStyle.Render)
	add("moved", len(r.Moved), MovedStyle.Render)

	if len(parts) == 0 {
		parts = append(parts, ValueStyle.Render("no changes"))
	}
	parts = append(parts, MutedStyle.Render(
		fmt.Sprintf("unchanged %d", r.Unchanged)))
	parts = append(parts, MutedStyle.Render(
		fmt.Sprintf("total %d", r.Total)))

	return FooterBox.Render(strings.Join(parts, "  "))
}

// formatWarnings renders per-path I/O warnings below the report.
func (f *PrettyFormatter) formatWarnings(warnings []string) string {
	var b strings.Builder
	for _, warning := range warnings {
		b.WriteString(WarningStyle.Render("warning: " + warning))
		b.WriteString("\n")
	}
	return b.String()
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
