package output

import (
	"fmt"
	"time"
)

// Status is one frame of run progress.
type Status struct {
	Done           int64
	Total          int64
	Remaining      time.Duration
	SecondsPerItem float64
}

// Percent returns completion in the range [0, 100].
func (s Status) Percent() float64 {
	if s.Total <= 0 {
		return 100
	}
	p := float64(s.Done) / float64(s.Total) * 100
	if p > 100 {
		return 100
	}
	return p
}

// String renders the status line shown on the console.
func (s Status) String() string {
	return fmt.Sprintf("%d/%d (%.2f%%) %s remaining, %.6f s/item",
		s.Done, s.Total, s.Percent(), FormatRemaining(s.Remaining), s.SecondsPerItem)
}

// FormatRemaining renders a duration as minutes and seconds, omitting the
// minutes when there are none: "1m05s", "5s".
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d.Round(time.Second) / time.Second)
	minutes, seconds := total/60, total%60
	if minutes == 0 {
		return fmt.Sprintf("%ds", seconds)
	}
	return fmt.Sprintf("%dm%02ds", minutes, seconds)
}

// Sink receives status redraws from the monitor and diagnostics from workers.
// Implementations must be safe for concurrent use.
type Sink interface {
	Render(status Status)
	Diagnostic(line string)
	Close()
}
