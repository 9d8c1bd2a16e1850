package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitcheck/packages/assertions"
	"github.com/abdul-hamid-achik/hitcheck/packages/core/runner"
	"gopkg.in/yaml.v3"
)

// TAPFormatter formats test results in TAP (Test Anything Protocol) format
type TAPFormatter struct {
	writer    io.Writer
	testCount int
	results   []tapResult
}

type tapResult struct {
	number     int
	name       string
	passed     bool
	skipped    bool
	skipReason string
	diag       *tapDiagnostic
}

// tapDiagnostic is rendered as the YAML block under a failing test.
type tapDiagnostic struct {
	Message  string   `yaml:"message"`
	Severity string   `yaml:"severity"`
	Case     string   `yaml:"case,omitempty"`
	Expected any      `yaml:"expected,omitempty"`
	Actual   any      `yaml:"actual,omitempty"`
	Failures []string `yaml:"failures,omitempty"`
}

type TAPOption func(*TAPFormatter)

func NewTAPFormatter(opts ...TAPOption) *TAPFormatter {
	f := &TAPFormatter{
		writer:  os.Stdout,
		results: make([]tapResult, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func TAPWithWriter(w io.Writer) TAPOption {
	return func(f *TAPFormatter) {
		f.writer = w
	}
}

func (f *TAPFormatter) FormatResult(result *runner.RunResult) {
	for _, t := range namedTests(result) {
		f.testCount++
		tr := tapResult{
			number:     f.testCount,
			name:       t.Name,
			passed:     t.Passed,
			skipped:    t.Skipped,
			skipReason: t.SkipReason,
		}
		if !t.Passed && !t.Skipped {
			tr.diag = newTAPDiagnostic(t)
		}
		f.results = append(f.results, tr)
	}
}

func newTAPDiagnostic(t namedTest) *tapDiagnostic {
	diag := &tapDiagnostic{
		Message:  t.Message,
		Severity: "fail",
		Case:     t.Case,
	}

	var statusErr *assertions.StatusMismatchError
	var bodyErr *assertions.BodyMismatchError
	switch {
	case errors.As(t.Error, &statusErr):
		diag.Expected = statusErr.Expected
		diag.Actual = statusErr.Actual
	case errors.As(t.Error, &bodyErr):
		diag.Message = "response body mismatch"
		for _, d := range bodyErr.Differences {
			diag.Failures = append(diag.Failures, d.String())
		}
	default:
		diag.Severity = "error"
	}
	return diag
}

// FormatError reports a case file that could not run as a failing test.
func (f *TAPFormatter) FormatError(err error) {
	fe := newFileError(err)
	f.testCount++
	f.results = append(f.results, tapResult{
		number: f.testCount,
		name:   fe.File,
		diag: &tapDiagnostic{
			Message:  fe.Message,
			Severity: "error",
		},
	})
}

func (f *TAPFormatter) FormatHeader(version string) {
	// Header is written in Flush
}

// Flush writes the accumulated TAP output
func (f *TAPFormatter) Flush(totalDuration time.Duration) error {
	fmt.Fprintf(f.writer, "TAP version 13\n")
	fmt.Fprintf(f.writer, "1..%d\n", f.testCount)

	for _, r := range f.results {
		if r.skipped {
			fmt.Fprintf(f.writer, "ok %d - %s # SKIP %s\n", r.number, r.name, r.skipReason)
			continue
		}
		if r.passed {
			fmt.Fprintf(f.writer, "ok %d - %s\n", r.number, r.name)
			continue
		}

		fmt.Fprintf(f.writer, "not ok %d - %s\n", r.number, r.name)
		if r.diag == nil {
			continue
		}
		block, err := yaml.Marshal(r.diag)
		if err != nil {
			return fmt.Errorf("encoding TAP diagnostic: %w", err)
		}
		fmt.Fprintf(f.writer, "  ---\n")
		for _, line := range strings.Split(strings.TrimRight(string(block), "\n"), "\n") {
			fmt.Fprintf(f.writer, "  %s\n", line)
		}
		fmt.Fprintf(f.writer, "  ...\n")
	}

	fmt.Fprintf(f.writer, "# time %dms\n", totalDuration.Milliseconds())
	return nil
}
