package assertions

import (
	"fmt"
	"sync"
	"time"
)

// Registrar records named checks. Test runs fn and records a pass when it
// returns nil, or a failure carrying the returned error.
type Registrar interface {
	Test(name string, fn func() error)
}

type Result struct {
	Name     string
	Passed   bool
	Err      error
	Duration time.Duration
}

// Message returns the failure text, or "" for a passing result.
func (r *Result) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Recorder is an in-memory Registrar that keeps results in registration
// order. A panicking check is recorded as a failure.
type Recorder struct {
	mu      sync.Mutex
	results []*Result
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Test(name string, fn func() error) {
	start := time.Now()
	err := runCheck(fn)
	r.Record(&Result{
		Name:     name,
		Passed:   err == nil,
		Err:      err,
		Duration: time.Since(start),
	})
}

// Record appends a result produced outside of Test, such as a transport
// failure that prevented the checks from running.
func (r *Recorder) Record(result *Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

func (r *Recorder) Results() []*Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Result, len(r.results))
	copy(out, r.results)
	return out
}

func (r *Recorder) Failed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, res := range r.results {
		if !res.Passed {
			n++
		}
	}
	return n
}

// Passed reports whether every recorded result passed.
func (r *Recorder) Passed() bool {
	return r.Failed() == 0
}

func runCheck(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("check panicked: %v", p)
		}
	}()
	return fn()
}
