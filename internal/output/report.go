package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/torosent/corpusrun/internal/metrics"
	"github.com/torosent/corpusrun/internal/threshold"
)

// Summary describes a run that reached natural completion.
type Summary struct {
	RunID          string             `json:"run_id" yaml:"run_id"`
	Lists          []string           `json:"lists" yaml:"lists"`
	Workers        int                `json:"workers" yaml:"workers"`
	Total          int64              `json:"total" yaml:"total"`
	Completed      int64              `json:"completed" yaml:"completed"`
	Elapsed        time.Duration      `json:"-" yaml:"-"`
	ElapsedSeconds float64            `json:"elapsed_seconds" yaml:"elapsed_seconds"`
	SecondsPerItem float64            `json:"seconds_per_item" yaml:"seconds_per_item"`
	Attempts       metrics.Stats      `json:"attempts" yaml:"attempts"`
	Thresholds     []threshold.Result `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
}

// NewSummary fills the derived fields. The per-item average is zero when
// nothing completed.
func NewSummary(runID string, lists []string, workers int, total, completed int64, elapsed time.Duration, stats metrics.Stats) Summary {
	s := Summary{
		RunID:          runID,
		Lists:          lists,
		Workers:        workers,
		Total:          total,
		Completed:      completed,
		Elapsed:        elapsed,
		ElapsedSeconds: elapsed.Seconds(),
		Attempts:       stats,
	}
	if completed > 0 {
		s.SecondsPerItem = elapsed.Seconds() / float64(completed)
	}
	return s
}

// PrintSummary writes the human-readable summary: one line of totals, then a
// line for outcome counts when anything failed, then threshold results.
func PrintSummary(w io.Writer, s Summary) {
	fmt.Fprintf(w, "Finished %d items in %.1fs (%.6f s/item)\n", s.Completed, s.ElapsedSeconds, s.SecondsPerItem)
	if s.Attempts.Failures > 0 {
		fmt.Fprint(w, "Outcomes:")
		for _, b := range metrics.SortedOutcomes(s.Attempts.Outcomes) {
			fmt.Fprintf(w, " %s=%d", b.Kind, b.Count)
		}
		fmt.Fprintln(w)
	}
	for _, r := range s.Thresholds {
		fmt.Fprintf(w, "  %s\n", r.Message)
	}
}

func PrintJSONSummary(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func PrintYAMLSummary(w io.Writer, s Summary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}
