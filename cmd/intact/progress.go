package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// progressInterval throttles progress redraws.
const progressInterval = 100 * time.Millisecond

// progressLine renders a single overwriting status line on stderr.
// It is safe for concurrent use by the hash workers.
type progressLine struct {
	enabled bool

	mu       sync.Mutex
	last     time.Time
	lastLen  int
	hashed   int64
	total    int64
	phase    string
	files    int64
	rendered bool
}

func newProgressLine(enabled bool) *progressLine {
	return &progressLine{enabled: enabled}
}

// Walking reports walk progress: files discovered and bytes seen.
func (p *progressLine) Walking(files, bytes int64) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.phase = "walking"
	p.files = files
	p.total = bytes
	p.draw(false)
}

// StartHashing switches the line to the hashing phase with a known
// byte total.
func (p *progressLine) StartHashing(totalBytes int64) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.phase = "hashing"
	p.hashed = 0
	p.total = totalBytes
	p.draw(true)
}

// Hashed adds completed hash bytes.
func (p *progressLine) Hashed(n int64) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hashed += n
	p.draw(false)
}

// Done clears the progress line before the report is printed.
func (p *progressLine) Done() {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rendered {
		fmt.Fprintf(os.Stderr, "\r%*s\r", p.lastLen, "")
		p.rendered = false
	}
}

// draw renders the line, throttled unless forced. Caller holds p.mu.
func (p *progressLine) draw(force bool) {
	now := time.Now()
	if !force && now.Sub(p.last) < progressInterval {
		return
	}
	p.last = now

	var line string
	switch p.phase {
	case "walking":
		line = fmt.Sprintf("walking: %d files, %s", p.files, humanize.IBytes(uint64(p.total)))
	case "hashing":
		if p.total > 0 {
			line = fmt.Sprintf("hashing: %s / %s", humanize.IBytes(uint64(p.hashed)), humanize.IBytes(uint64(p.total)))
		} else {
			// Incremental runs do not know the hash volume up front.
			line = fmt.Sprintf("hashing: %s", humanize.IBytes(uint64(p.hashed)))
		}
	default:
		return
	}

	// Pad over the previous line so a shorter redraw leaves no residue.
	pad := p.lastLen - len(line)
	if pad < 0 {
		pad = 0
	}
	fmt.Fprintf(os.Stderr, "\r%s%*s", line, pad, "")
	p.lastLen = len(line)
	p.rendered = true
}
