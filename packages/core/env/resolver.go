package env

import (
	"os"
	"sort"
	"sync"
)

// WarnFunc is a function type for handling warnings
type WarnFunc func(format string, args ...any)

// Resolver expands ${VAR} references. Explicit variables win over the
// process environment.
type Resolver struct {
	mu        sync.RWMutex
	variables map[string]string
	warnFunc  WarnFunc
}

func NewResolver() *Resolver {
	return &Resolver{
		variables: make(map[string]string),
	}
}

// SetWarnFunc sets a function to be called when a reference cannot be resolved
func (r *Resolver) SetWarnFunc(fn WarnFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnFunc = fn
}

func (r *Resolver) warn(format string, args ...any) {
	r.mu.RLock()
	fn := r.warnFunc
	r.mu.RUnlock()
	if fn != nil {
		fn(format, args...)
	}
}

func (r *Resolver) SetVariables(vars map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range vars {
		r.variables[k] = v
	}
}

func (r *Resolver) SetVariable(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variables[name] = value
}

func (r *Resolver) lookup(name string) (string, bool) {
	r.mu.RLock()
	v, ok := r.variables[name]
	r.mu.RUnlock()
	if ok {
		return v, true
	}
	return os.LookupEnv(name)
}

// Resolve expands references in s. Unresolved references expand to "" and
// are returned, sorted and deduplicated.
func (r *Resolver) Resolve(s string) (string, []string) {
	seen := make(map[string]bool)
	out := os.Expand(s, func(name string) string {
		v, ok := r.lookup(name)
		if !ok {
			seen[name] = true
		}
		return v
	})

	missing := make([]string, 0, len(seen))
	for name := range seen {
		missing = append(missing, name)
	}
	sort.Strings(missing)
	for _, name := range missing {
		r.warn("unresolved variable: ${%s}", name)
	}
	return out, missing
}

// ResolveMap expands every value of m in place and returns the unresolved names.
func (r *Resolver) ResolveMap(m map[string]string) []string {
	var missing []string
	for k, v := range m {
		resolved, miss := r.Resolve(v)
		m[k] = resolved
		missing = append(missing, miss...)
	}
	return missing
}
