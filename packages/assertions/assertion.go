package assertions

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// DefaultName is used in test titles when an Expectation has no name.
const DefaultName = "Request"

// Response is the part of an HTTP response the checks read.
type Response interface {
	Code() int
	BodyJSON() (any, error)
}

// Logger receives human-readable diagnostics. logrus.FieldLogger satisfies it.
type Logger interface {
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

// Expectation is what the operator expects a single request to return.
type Expectation struct {
	Name   string
	Status int
	Body   any
}

// ResponseAssertion checks responses against a fixed Expectation.
type ResponseAssertion struct {
	expect   Expectation
	expected any
	normErr  error
	log      Logger
}

type Option func(*ResponseAssertion)

// WithLogger routes diagnostics to l instead of the standard logrus logger.
func WithLogger(l Logger) Option {
	return func(a *ResponseAssertion) {
		if l != nil {
			a.log = l
		}
	}
}

func New(expect Expectation, opts ...Option) *ResponseAssertion {
	a := &ResponseAssertion{
		expect: expect,
		log:    logrus.StandardLogger(),
	}
	a.expected, a.normErr = Normalize(expect.Body)
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *ResponseAssertion) Expectation() Expectation {
	return a.expect
}

func (a *ResponseAssertion) name() string {
	if a.expect.Name == "" {
		return DefaultName
	}
	return a.expect.Name
}

// StatusTestName is the name the status check registers under.
func (a *ResponseAssertion) StatusTestName() string {
	return fmt.Sprintf("Status code is %d", a.expect.Status)
}

// BodyTestName is the name the body check registers under.
func (a *ResponseAssertion) BodyTestName() string {
	return fmt.Sprintf("%s response matches expected body", a.name())
}

// Run registers the status check and then the body check. Each is recorded
// on its own, so a status failure does not skip the body check.
func (a *ResponseAssertion) Run(reg Registrar, resp Response) {
	a.CheckStatus(reg, resp)
	a.CheckBody(reg, resp)
}

func (a *ResponseAssertion) CheckStatus(reg Registrar, resp Response) {
	reg.Test(a.StatusTestName(), func() error {
		return a.VerifyStatus(resp)
	})
}

func (a *ResponseAssertion) CheckBody(reg Registrar, resp Response) {
	reg.Test(a.BodyTestName(), func() error {
		return a.VerifyBody(resp)
	})
}

// VerifyStatus returns a *StatusMismatchError when the status differs.
func (a *ResponseAssertion) VerifyStatus(resp Response) error {
	actual := resp.Code()
	if actual == a.expect.Status {
		return nil
	}

	err := &StatusMismatchError{Expected: a.expect.Status, Actual: actual}
	a.log.Errorf("❌ %s failed: %v", a.name(), err)
	return err
}

// VerifyBody parses the response body and compares it to the expected body.
// On mismatch both documents are logged and a *BodyMismatchError is returned.
func (a *ResponseAssertion) VerifyBody(resp Response) error {
	if a.normErr != nil {
		err := fmt.Errorf("expected body is not JSON-compatible: %w", a.normErr)
		a.log.Errorf("❌ %s failed: %v", a.name(), err)
		a.log.Errorf("Expected:\n%s", FormatJSON(a.expect.Body))
		return err
	}

	actual, err := resp.BodyJSON()
	if err != nil {
		a.log.Errorf("❌ %s failed: cannot parse response body: %v", a.name(), err)
		a.log.Errorf("Expected:\n%s", FormatJSON(a.expected))
		return fmt.Errorf("parsing response body: %w", err)
	}

	diffs, err := Diff(a.expected, actual)
	if err != nil {
		a.log.Errorf("❌ %s failed: cannot compare response body: %v", a.name(), err)
		a.log.Errorf("Expected:\n%s", FormatJSON(a.expected))
		a.log.Errorf("Actual:\n%s", FormatJSON(actual))
		return err
	}

	if len(diffs) == 0 {
		a.log.Infof("✅ %s success: Response matches expected", a.name())
		a.log.Infof("Response:\n%s", FormatJSON(a.expected))
		return nil
	}

	a.log.Errorf("❌ %s failed: Response does not match expected value.", a.name())
	a.log.Errorf("Expected:\n%s", FormatJSON(a.expected))
	a.log.Errorf("Actual:\n%s", FormatJSON(actual))
	for _, d := range diffs {
		a.log.Errorf("  %s", d)
	}

	return &BodyMismatchError{
		Expected:    a.expected,
		Actual:      actual,
		Differences: diffs,
	}
}
