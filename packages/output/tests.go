package output

import (
	"errors"
	"time"

	"github.com/abdul-hamid-achik/hitcheck/packages/core/cases"
	"github.com/abdul-hamid-achik/hitcheck/packages/core/runner"
)

// namedTest is one reported line item: a named check, or a case that did not run.
type namedTest struct {
	Case       string
	Name       string
	Passed     bool
	Skipped    bool
	SkipReason string
	Message    string
	Error      error
	Duration   time.Duration
}

func namedTests(result *runner.RunResult) []namedTest {
	var out []namedTest
	for _, c := range result.Cases {
		if c.Skipped {
			out = append(out, namedTest{
				Case:       c.Name,
				Name:       c.Name,
				Skipped:    true,
				SkipReason: c.SkipReason,
			})
			continue
		}
		for _, r := range c.Results {
			out = append(out, namedTest{
				Case:     c.Name,
				Name:     r.Name,
				Passed:   r.Passed,
				Message:  r.Message(),
				Error:    r.Err,
				Duration: r.Duration,
			})
		}
	}
	return out
}

// fileError describes an error that kept a whole case file from running.
type fileError struct {
	File    string
	Kind    string
	Message string
}

func newFileError(err error) fileError {
	var parseErr *cases.ParseError
	if errors.As(err, &parseErr) {
		return fileError{File: parseErr.Path, Kind: "ParseError", Message: parseErr.Err.Error()}
	}
	return fileError{File: "hitcheck", Kind: "Error", Message: err.Error()}
}
