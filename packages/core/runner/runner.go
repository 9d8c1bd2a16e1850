package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitcheck/packages/assertions"
	"github.com/abdul-hamid-achik/hitcheck/packages/core/cases"
	"github.com/abdul-hamid-achik/hitcheck/packages/core/env"
	"github.com/abdul-hamid-achik/hitcheck/packages/http"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// SkipReasonBail is recorded for cases not run after a failure with Bail set
	SkipReasonBail = "bail"
	// SkipReasonCanceled is recorded for cases not run after the context ended
	SkipReasonCanceled = "canceled"
)

type Config struct {
	Timeout        time.Duration
	FollowRedirect bool
	MaxRedirects   int
	ValidateSSL    bool
	Proxy          string
	DefaultHeaders map[string]string
	Bail           bool
	NameFilter     string
	Update         bool
	Logger         logrus.FieldLogger
}

type Runner struct {
	client   *http.Client
	resolver *env.Resolver
	config   *Config
	log      logrus.FieldLogger
	runID    string
}

type RunnerOption func(*Runner)

// WithHTTPClient replaces the client built from Config.
func WithHTTPClient(c *http.Client) RunnerOption {
	return func(r *Runner) {
		r.client = c
	}
}

// WithResolver replaces the default ${VAR} resolver.
func WithResolver(res *env.Resolver) RunnerOption {
	return func(r *Runner) {
		r.resolver = res
	}
}

func NewRunner(cfg *Config, opts ...RunnerOption) *Runner {
	if cfg == nil {
		cfg = &Config{FollowRedirect: true, ValidateSSL: true}
	}

	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	r := &Runner{
		resolver: env.NewResolver(),
		config:   cfg,
		log:      log,
		runID:    uuid.NewString(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.client == nil {
		clientOpts := []http.ClientOption{
			http.WithFollowRedirects(cfg.FollowRedirect),
			http.WithValidateSSL(cfg.ValidateSSL),
		}
		if cfg.Timeout > 0 {
			clientOpts = append(clientOpts, http.WithTimeout(cfg.Timeout))
		}
		if cfg.MaxRedirects > 0 {
			clientOpts = append(clientOpts, http.WithMaxRedirects(cfg.MaxRedirects))
		}
		if cfg.Proxy != "" {
			clientOpts = append(clientOpts, http.WithProxy(cfg.Proxy))
		}
		if len(cfg.DefaultHeaders) > 0 {
			clientOpts = append(clientOpts, http.WithDefaultHeaders(cfg.DefaultHeaders))
		}
		r.client = http.NewClient(clientOpts...)
	}

	r.resolver.SetWarnFunc(func(format string, args ...any) {
		r.log.Warnf(format, args...)
	})

	return r
}

// RunID identifies every result produced by this runner.
func (r *Runner) RunID() string {
	return r.runID
}

type RunResult struct {
	RunID    string
	File     string
	Cases    []*CaseResult
	Duration time.Duration
	Passed   int // named tests passed
	Failed   int // named tests failed
	Skipped  int // cases not run
	Updated  int // cases whose expectation was rewritten
}

type CaseResult struct {
	Name       string
	Passed     bool
	Skipped    bool
	SkipReason string
	Updated    bool
	Duration   time.Duration
	Request    *http.Request
	Response   *http.Response
	Results    []*assertions.Result
	Error      error
}

func (r *Runner) RunFile(ctx context.Context, path string) (*RunResult, error) {
	file, err := cases.Load(path)
	if err != nil {
		return nil, err
	}
	return r.RunCases(ctx, file)
}

// RunCases runs every selected case of file in order.
func (r *Runner) RunCases(ctx context.Context, file *cases.File) (*RunResult, error) {
	start := time.Now()
	result := &RunResult{
		RunID: r.runID,
		File:  file.Path,
	}

	stopReason := ""
	for _, c := range file.Cases {
		if !r.matches(c) {
			continue
		}

		if stopReason == "" && ctx.Err() != nil {
			stopReason = SkipReasonCanceled
		}
		if stopReason != "" {
			result.Cases = append(result.Cases, &CaseResult{
				Name:       c.Name,
				Skipped:    true,
				SkipReason: stopReason,
			})
			result.Skipped++
			continue
		}

		caseResult := r.runCase(ctx, c)
		result.Cases = append(result.Cases, caseResult)

		for _, res := range caseResult.Results {
			if res.Passed {
				result.Passed++
			} else {
				result.Failed++
			}
		}
		if caseResult.Updated {
			result.Updated++
		}
		if !caseResult.Passed && r.config.Bail {
			stopReason = SkipReasonBail
		}
	}

	if result.Updated > 0 {
		if err := file.Save(); err != nil {
			return result, fmt.Errorf("saving updated expectations: %w", err)
		}
		r.log.WithField("file", file.Path).Infof("updated %d expectation(s)", result.Updated)
	}

	result.Duration = time.Since(start)
	return result, nil
}

func (r *Runner) matches(c *cases.Case) bool {
	if r.config.NameFilter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Name), strings.ToLower(r.config.NameFilter))
}

func (r *Runner) runCase(ctx context.Context, c *cases.Case) *CaseResult {
	start := time.Now()
	log := r.log.WithFields(logrus.Fields{
		"run":  r.runID,
		"case": c.Name,
	})

	req, missing := c.BuildRequest(r.resolver)
	if len(missing) > 0 {
		log.Warnf("request references unset variables: %s", strings.Join(missing, ", "))
	}

	cr := &CaseResult{
		Name:    c.Name,
		Request: req,
	}

	check := assertions.New(c.Expectation(), assertions.WithLogger(log))
	rec := assertions.NewRecorder()

	resp, err := r.client.Do(ctx, req)
	if err != nil {
		cr.Error = fmt.Errorf("request failed: %w", err)
		log.Errorf("❌ %s failed: %v", c.Name, cr.Error)
		rec.Record(&assertions.Result{Name: check.StatusTestName(), Err: cr.Error})
		rec.Record(&assertions.Result{Name: check.BodyTestName(), Err: cr.Error})
		return r.finish(cr, rec, start)
	}
	cr.Response = resp

	check.Run(rec, resp)

	if !rec.Passed() && r.config.Update {
		if rec2, ok := r.update(c, resp, log); ok {
			cr.Updated = true
			rec = rec2
		}
	}

	return r.finish(cr, rec, start)
}

// update rewrites the case's expectation from resp and re-checks it. It
// reports false when the response body is not JSON and cannot be recorded.
func (r *Runner) update(c *cases.Case, resp *http.Response, log logrus.FieldLogger) (*assertions.Recorder, bool) {
	body, err := resp.BodyJSON()
	if err != nil {
		log.Warnf("cannot record expectation: %v", err)
		return nil, false
	}

	c.Expect.Status = resp.StatusCode
	c.Expect.SetBody(body)
	log.Infof("recorded expectation: status %d", resp.StatusCode)

	rec := assertions.NewRecorder()
	assertions.New(c.Expectation(), assertions.WithLogger(log)).Run(rec, resp)
	return rec, true
}

func (r *Runner) finish(cr *CaseResult, rec *assertions.Recorder, start time.Time) *CaseResult {
	cr.Results = rec.Results()
	cr.Passed = rec.Passed()
	cr.Duration = time.Since(start)
	return cr
}
