// Package health aggregates readiness checks for the server's subsystems
// (database, scoring backend) behind a single registry.
package health

import (
	"context"
	"sync"
)

// Status is the outcome of one subsystem check.
type Status struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

// OK builds a healthy status. detail is optional context (e.g. the active
// backend name) and may be empty.
func OK(name, detail string) Status {
	return Status{Name: name, Healthy: true, Detail: detail}
}

// Fail builds an unhealthy status carrying the failure reason.
func Fail(name string, err error) Status {
	return Status{Name: name, Healthy: false, Detail: err.Error()}
}

// Checker probes one subsystem. Implementations should respect ctx deadlines;
// the registry does not impose one.
type Checker func(ctx context.Context) Status

// Registry runs a fixed-order set of named checkers on demand. Registration
// order is preserved so health output stays stable across calls.
type Registry struct {
	mu     sync.RWMutex
	checks []registered
}

type registered struct {
	name string
	run  Checker
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a checker under the given name.
func (r *Registry) Register(name string, check Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks = append(r.checks, registered{name: name, run: check})
}

// CheckAll runs every registered checker and reports whether all passed,
// along with the per-subsystem results in registration order.
func (r *Registry) CheckAll(ctx context.Context) (bool, []Status) {
	r.mu.RLock()
	checks := make([]registered, len(r.checks))
	copy(checks, r.checks)
	r.mu.RUnlock()

	healthy := true
	statuses := make([]Status, 0, len(checks))
	for _, c := range checks {
		st := c.run(ctx)
		if !st.Healthy {
			healthy = false
		}
		statuses = append(statuses, st)
	}
	return healthy, statuses
}
