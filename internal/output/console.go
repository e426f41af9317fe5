package output

import (
	"io"
	"strings"
	"sync"
)

// resetLine moves the cursor to column 1 and clears the line.
const resetLine = "\x1b[1G\x1b[2K"

// ConsoleSink redraws a single status line in place on an ANSI terminal.
// Diagnostics are written above it and never interleave with a redraw.
type ConsoleSink struct {
	mu     sync.Mutex
	w      io.Writer
	drawn  bool
	closed bool
}

// NewConsoleSink creates a console sink writing to w.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	if w == nil {
		w = io.Discard
	}
	return &ConsoleSink{w: w}
}

// Render overwrites the current line with the status.
func (c *ConsoleSink) Render(status Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	io.WriteString(c.w, resetLine+status.String())
	c.drawn = true
}

// Diagnostic replaces the status line with line and leaves a blank line for
// the next redraw to land on. Lines arriving after Close are dropped.
func (c *ConsoleSink) Diagnostic(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	var b strings.Builder
	b.WriteString(resetLine)
	b.WriteString(line)
	b.WriteString("\n\n")
	io.WriteString(c.w, b.String())
	c.drawn = false
}

// Close terminates the status line so later output starts on a fresh line.
func (c *ConsoleSink) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.drawn {
		io.WriteString(c.w, "\n")
	}
}
