package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
)

// PlainFormatter renders the report as unstyled text suitable for
// scripting and piping. Change lines come first, one per path with the
// category symbol, followed by a stats block.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	if r.Modified() {
		for _, p := range r.Added {
			fmt.Fprintf(w, "%s %s\n", SymbolAdded, p)
		}
		for _, p := range r.Updated {
			fmt.Fprintf(w, "%s %s\n", SymbolUpdated, p)
		}
		for _, p := range r.Bitrot {
			fmt.Fprintf(w, "%s %s\n", SymbolBitrot, p)
		}
		for _, p := range r.Removed {
			fmt.Fprintf(w, "%s %s\n", SymbolRemoved, p)
		}
		for _, m := range r.Moved {
			fmt.Fprintf(w, "%s %s (from %s)\n", SymbolMoved, m.To, m.From)
		}
		w.WriteByte('\n')
	}

	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	writeStat(tw, "Added:", len(r.Added))
	writeStat(tw, "Removed:", len(r.Removed))
	writeStat(tw, "Updated:", len(r.Updated))
	writeStat(tw, "Bitrot:", len(r.Bitrot))
	writeStat(tw, "Moved:", len(r.Moved))
	writeStat(tw, "Unchanged:", r.Unchanged)
	writeStat(tw, "Total:", r.Total)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nHashed %s in %s\n",
		humanize.IBytes(uint64(r.BytesHashed)), formatDuration(r.Duration))

	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}

	return nil
}

// writeStat writes one stats row, skipping zero counts except Total.
func writeStat(w *tabwriter.Writer, label string, count int) {
	if count == 0 && label != "Total:" {
		return
	}
	fmt.Fprintf(w, "%s\t%d\n", label, count)
}

// formatDuration renders a duration with sensible precision.
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Minute:
		return d.Round(time.Second).String()
	case d >= time.Second:
		return d.Round(10 * time.Millisecond).String()
	default:
		return d.Round(time.Millisecond).String()
	}
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
