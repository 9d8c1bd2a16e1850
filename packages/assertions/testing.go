package assertions

import "testing"

// TestingRegistrar hosts checks inside a Go test, one subtest per check.
type TestingRegistrar struct {
	t *testing.T
}

func NewTestingRegistrar(t *testing.T) *TestingRegistrar {
	return &TestingRegistrar{t: t}
}

func (r *TestingRegistrar) Test(name string, fn func() error) {
	r.t.Helper()
	r.t.Run(name, func(t *testing.T) {
		t.Helper()
		if err := fn(); err != nil {
			t.Error(err)
		}
	})
}
