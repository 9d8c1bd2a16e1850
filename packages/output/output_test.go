package output

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/hitcheck/packages/assertions"
	"github.com/abdul-hamid-achik/hitcheck/packages/core/cases"
	"github.com/abdul-hamid-achik/hitcheck/packages/core/runner"
	"github.com/abdul-hamid-achik/hitcheck/packages/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *runner.RunResult {
	bodyErr := &assertions.BodyMismatchError{
		Expected: map[string]any{"id": float64(123)},
		Actual:   map[string]any{"id": float64(124)},
		Differences: []assertions.Difference{
			{Path: "id", Kind: assertions.DiffValue, Expected: float64(123), Actual: float64(124)},
		},
	}
	statusErr := &assertions.StatusMismatchError{Expected: 200, Actual: 404}

	return &runner.RunResult{
		RunID:    "run-1",
		File:     "api.case.yaml",
		Duration: 42 * time.Millisecond,
		Passed:   2,
		Failed:   2,
		Skipped:  1,
		Cases: []*runner.CaseResult{
			{
				Name:     "getUser",
				Passed:   false,
				Request:  &http.Request{Method: "GET", URL: "http://api.local/users/123"},
				Response: &http.Response{StatusCode: 200},
				Results: []*assertions.Result{
					{Name: "Status code is 200", Passed: true},
					{Name: "getUser response matches expected body", Err: bodyErr},
				},
			},
			{
				Name:     "listUsers",
				Passed:   false,
				Response: &http.Response{StatusCode: 404},
				Results: []*assertions.Result{
					{Name: "Status code is 200", Err: statusErr},
					{Name: "listUsers response matches expected body", Passed: true},
				},
			},
			{
				Name:       "deleteUser",
				Skipped:    true,
				SkipReason: runner.SkipReasonBail,
			},
		},
	}
}

func TestNamedTests(t *testing.T) {
	tests := namedTests(sampleResult())

	require.Len(t, tests, 5)
	assert.Equal(t, "getUser", tests[0].Case)
	assert.True(t, tests[0].Passed)
	assert.False(t, tests[1].Passed)
	assert.Contains(t, tests[1].Message, "id: expected 123, got 124")
	assert.True(t, tests[4].Skipped)
	assert.Equal(t, "deleteUser", tests[4].Name)
}

func TestConsoleFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true))

	f.FormatHeader("1.0.0")
	f.FormatResult(sampleResult())

	out := buf.String()
	assert.Contains(t, out, "hitcheck 1.0.0")
	assert.Contains(t, out, "Checking: api.case.yaml")
	assert.Contains(t, out, "✓ Status code is 200")
	assert.Contains(t, out, "✗ getUser response matches expected body")
	assert.Contains(t, out, "→ id: expected 123, got 124")
	assert.Contains(t, out, "Expected: 200")
	assert.Contains(t, out, "Actual:   404")
	assert.Contains(t, out, "GET http://api.local/users/123")
	assert.Contains(t, out, "- deleteUser (bail)")
	assert.Contains(t, out, "2 passed")
	assert.Contains(t, out, "2 failed")
	assert.Contains(t, out, "4 total")
	assert.Contains(t, out, `"id": 124`)
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(JSONWithWriter(&buf))

	f.FormatResult(sampleResult())
	require.NoError(t, f.Flush(time.Second))

	var out JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	assert.Equal(t, "run-1", out.RunID)
	assert.Equal(t, JSONSummary{Total: 5, Passed: 2, Failed: 2, Skipped: 1}, out.Summary)
	require.Len(t, out.Tests, 5)

	body := out.Tests[1]
	assert.Equal(t, "getUser", body.Case)
	assert.False(t, body.Passed)
	require.Len(t, body.Differences, 1)
	assert.Equal(t, "id", body.Differences[0].Path)
	assert.Equal(t, "value", body.Differences[0].Kind)

	status := out.Tests[2]
	assert.Equal(t, float64(200), status.Expected)
	assert.Equal(t, float64(404), status.Actual)

	assert.Equal(t, "bail", out.Tests[4].SkipReason)
}

func TestJUnitFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJUnitFormatter(JUnitWithWriter(&buf))

	f.FormatResult(sampleResult())
	require.NoError(t, f.Flush(time.Second))

	assert.Contains(t, buf.String(), `<?xml version="1.0" encoding="UTF-8"?>`)

	var suites JUnitTestSuites
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &suites))

	assert.Equal(t, "hitcheck", suites.Name)
	assert.Equal(t, 5, suites.Tests)
	assert.Equal(t, 2, suites.Failures)
	assert.Equal(t, 0, suites.Errors)
	assert.Equal(t, 1, suites.Skipped)
	require.Len(t, suites.TestSuites, 1)

	testCases := suites.TestSuites[0].TestCases
	require.Len(t, testCases, 5)
	assert.Nil(t, testCases[0].Failure)
	require.NotNil(t, testCases[1].Failure)
	assert.Equal(t, "AssertionError", testCases[1].Failure.Type)
	assert.Contains(t, testCases[1].Failure.Content, "Expected:")
	assert.Equal(t, "api.case.yaml.getUser", testCases[1].ClassName)
	require.NotNil(t, testCases[4].Skipped)
}

func TestJUnitFormatter_TransportErrorIsError(t *testing.T) {
	var buf bytes.Buffer
	f := NewJUnitFormatter(JUnitWithWriter(&buf))

	f.FormatResult(&runner.RunResult{
		File: "api.case.yaml",
		Cases: []*runner.CaseResult{{
			Name: "down",
			Results: []*assertions.Result{
				{Name: "Status code is 200", Err: assert.AnError},
			},
		}},
	})
	require.NoError(t, f.Flush(time.Second))

	var suites JUnitTestSuites
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &suites))
	assert.Equal(t, 1, suites.Errors)
	assert.Equal(t, 0, suites.Failures)
}

func TestTAPFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewTAPFormatter(TAPWithWriter(&buf))

	f.FormatResult(sampleResult())
	require.NoError(t, f.Flush(time.Second))

	out := buf.String()
	assert.Contains(t, out, "TAP version 13\n1..5\n")
	assert.Contains(t, out, "ok 1 - Status code is 200\n")
	assert.Contains(t, out, "not ok 2 - getUser response matches expected body\n")
	assert.Contains(t, out, "  ---\n")
	assert.Contains(t, out, "id: expected 123, got 124")
	assert.Contains(t, out, "not ok 3 - Status code is 200\n")
	assert.Contains(t, out, "expected: 200")
	assert.Contains(t, out, "actual: 404")
	assert.Contains(t, out, "ok 5 - deleteUser # SKIP bail\n")
}

func brokenFileError() error {
	return &cases.ParseError{Path: "broken.case.yaml", Err: errors.New("no cases defined")}
}

func TestJSONFormatter_FileError(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(JSONWithWriter(&buf))

	f.FormatResult(sampleResult())
	f.FormatError(brokenFileError())
	require.NoError(t, f.Flush(time.Second))

	var out JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, 6, out.Summary.Total)
	assert.Equal(t, 3, out.Summary.Failed)

	last := out.Tests[len(out.Tests)-1]
	assert.Equal(t, "broken.case.yaml", last.File)
	assert.False(t, last.Passed)
	assert.Equal(t, "no cases defined", last.Error)
}

func TestJSONFormatter_NullDifferenceKeepsExpected(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(JSONWithWriter(&buf))

	f.FormatResult(&runner.RunResult{
		File: "api.case.yaml",
		Cases: []*runner.CaseResult{{
			Name: "nullable",
			Results: []*assertions.Result{{
				Name: "nullable response matches expected body",
				Err: &assertions.BodyMismatchError{
					Differences: []assertions.Difference{
						{Path: "v", Kind: assertions.DiffType, Expected: nil, Actual: float64(1)},
					},
				},
			}},
		}},
	})
	require.NoError(t, f.Flush(time.Second))

	assert.Contains(t, buf.String(), `"expected": null`)
	assert.Contains(t, buf.String(), `"actual": 1`)
}

func TestJUnitFormatter_FileError(t *testing.T) {
	var buf bytes.Buffer
	f := NewJUnitFormatter(JUnitWithWriter(&buf))

	f.FormatError(brokenFileError())
	require.NoError(t, f.Flush(time.Second))

	var suites JUnitTestSuites
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &suites))
	assert.Equal(t, 1, suites.Tests)
	assert.Equal(t, 1, suites.Errors)
	require.Len(t, suites.TestSuites, 1)
	require.Len(t, suites.TestSuites[0].TestCases, 1)

	tc := suites.TestSuites[0].TestCases[0]
	assert.Equal(t, "broken.case.yaml", tc.Name)
	require.NotNil(t, tc.Error)
	assert.Equal(t, "ParseError", tc.Error.Type)
	assert.Equal(t, "no cases defined", tc.Error.Message)
}

func TestTAPFormatter_FileError(t *testing.T) {
	var buf bytes.Buffer
	f := NewTAPFormatter(TAPWithWriter(&buf))

	f.FormatResult(sampleResult())
	f.FormatError(brokenFileError())
	require.NoError(t, f.Flush(time.Second))

	out := buf.String()
	assert.Contains(t, out, "1..6\n")
	assert.Contains(t, out, "not ok 6 - broken.case.yaml\n")
	assert.Contains(t, out, "message: no cases defined")
	assert.Contains(t, out, "severity: error")
}
