package output

import (
	"bytes"
	"encoding/json"
)

// jsonOutput represents the full JSON output structure.
type jsonOutput struct {
	Changes jsonChanges `json:"changes"`
	Stats   jsonStats   `json:"stats"`
	Meta    jsonMeta    `json:"meta"`
}

// jsonChanges lists the classified paths per category.
type jsonChanges struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
	Updated []string `json:"updated"`
	Bitrot  []string `json:"bitrot"`
	Moved   []Move   `json:"moved"`
}

// jsonStats represents reconciliation statistics in JSON output.
type jsonStats struct {
	Added       int    `json:"added"`
	Removed     int    `json:"removed"`
	Updated     int    `json:"updated"`
	Bitrot      int    `json:"bitrot"`
	Moved       int    `json:"moved"`
	Unchanged   int    `json:"unchanged"`
	Total       int    `json:"total"`
	BytesHashed int64  `json:"bytes_hashed"`
	Duration    string `json:"duration"`
}

// jsonMeta represents metadata in JSON output.
type jsonMeta struct {
	Root      string   `json:"root"`
	Mode      string   `json:"mode"`
	Modified  bool     `json:"modified"`
	Persisted bool     `json:"persisted"`
	Warnings  []string `json:"warnings,omitempty"`
}

// JSONFormatter formats the report as a single indented JSON object.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	out := jsonOutput{
		Changes: jsonChanges{
			Added:   emptyIfNil(r.Added),
			Removed: emptyIfNil(r.Removed),
			Updated: emptyIfNil(r.Updated),
			Bitrot:  emptyIfNil(r.Bitrot),
			Moved:   r.Moved,
		},
		Stats: jsonStats{
			Added:       len(r.Added),
			Removed:     len(r.Removed),
			Updated:     len(r.Updated),
			Bitrot:      len(r.Bitrot),
			Moved:       len(r.Moved),
			Unchanged:   r.Unchanged,
			Total:       r.Total,
			BytesHashed: r.BytesHashed,
			Duration:    r.Duration.String(),
		},
		Meta: jsonMeta{
			Root:      r.Root,
			Mode:      r.Mode,
			Modified:  r.Modified(),
			Persisted: r.Persisted,
			Warnings:  r.Warnings,
		},
	}
	if out.Changes.Moved == nil {
		out.Changes.Moved = []Move{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

// emptyIfNil keeps JSON arrays as [] rather than null.
func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)
