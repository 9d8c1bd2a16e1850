package output

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/hitcheck/packages/assertions"
	"github.com/abdul-hamid-achik/hitcheck/packages/core/runner"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	RunID    string      `json:"runId,omitempty"`
	Summary  JSONSummary `json:"summary"`
	Tests    []JSONTest  `json:"tests"`
	Duration float64     `json:"duration"`
	Time     string      `json:"time"`
}

// JSONSummary represents the test summary
type JSONSummary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Updated int `json:"updated"`
}

// JSONTest represents a single named check
type JSONTest struct {
	Name        string           `json:"name"`
	Case        string           `json:"case"`
	File        string           `json:"file"`
	Passed      bool             `json:"passed"`
	Skipped     bool             `json:"skipped,omitempty"`
	SkipReason  string           `json:"skipReason,omitempty"`
	Duration    float64          `json:"duration"`
	Error       string           `json:"error,omitempty"`
	Expected    any              `json:"expected,omitempty"`
	Actual      any              `json:"actual,omitempty"`
	Differences []JSONDifference `json:"differences,omitempty"`
}

// JSONDifference represents one body mismatch
type JSONDifference struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	Expected any    `json:"expected"`
	Actual   any    `json:"actual"`
}

// JSONFormatter formats test results as JSON
type JSONFormatter struct {
	writer  io.Writer
	runID   string
	updated int
	results []JSONTest
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer:  os.Stdout,
		results: make([]JSONTest, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatResult(result *runner.RunResult) {
	f.runID = result.RunID
	f.updated += result.Updated

	for _, t := range namedTests(result) {
		test := JSONTest{
			Name:       t.Name,
			Case:       t.Case,
			File:       result.File,
			Passed:     t.Passed,
			Skipped:    t.Skipped,
			SkipReason: t.SkipReason,
			Duration:   float64(t.Duration.Milliseconds()),
			Error:      t.Message,
		}

		var statusErr *assertions.StatusMismatchError
		var bodyErr *assertions.BodyMismatchError
		switch {
		case errors.As(t.Error, &statusErr):
			test.Expected = statusErr.Expected
			test.Actual = statusErr.Actual
		case errors.As(t.Error, &bodyErr):
			test.Expected = bodyErr.Expected
			test.Actual = bodyErr.Actual
			for _, d := range bodyErr.Differences {
				test.Differences = append(test.Differences, JSONDifference{
					Path:     d.Path,
					Kind:     string(d.Kind),
					Expected: d.Expected,
					Actual:   d.Actual,
				})
			}
		}

		f.results = append(f.results, test)
	}
}

// FormatError records a case file that could not run as a failed test.
func (f *JSONFormatter) FormatError(err error) {
	fe := newFileError(err)
	f.results = append(f.results, JSONTest{
		Name:  fe.File,
		File:  fe.File,
		Error: fe.Message,
	})
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	var passed, failed, skipped int
	for _, t := range f.results {
		if t.Skipped {
			skipped++
		} else if t.Passed {
			passed++
		} else {
			failed++
		}
	}

	output := JSONOutput{
		RunID: f.runID,
		Summary: JSONSummary{
			Total:   len(f.results),
			Passed:  passed,
			Failed:  failed,
			Skipped: skipped,
			Updated: f.updated,
		},
		Tests:    f.results,
		Duration: float64(totalDuration.Milliseconds()),
		Time:     time.Now().Format(time.RFC3339),
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
