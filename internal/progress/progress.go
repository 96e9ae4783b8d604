// Package progress carries progress reports and cooperative cancellation
// through long-running image operations.
//
// A Sink receives a fraction in [0, 1] and answers whether the operation
// should stop. Operations poll their sink at safe points only, so a
// cancelled operation never leaves partial results behind.
package progress

import (
	"context"
	"errors"
	"sync"
)

// ErrCancelled is returned by an operation whose sink requested cancellation.
var ErrCancelled = errors.New("operation cancelled")

// Sink receives progress reports. Report returns true to request that the
// operation stop at its next safe point.
type Sink interface {
	Report(progress float32) (cancel bool)
}

// Func adapts a plain function to a Sink.
type Func func(progress float32) bool

// Report calls f.
func (f Func) Report(progress float32) bool {
	return f(progress)
}

type nop struct{}

func (nop) Report(float32) bool { return false }

// Nop returns a sink that ignores reports and never cancels.
func Nop() Sink { return nop{} }

// OrNop returns s, or a no-op sink when s is nil.
func OrNop(s Sink) Sink {
	if s == nil {
		return nop{}
	}
	return s
}

// Check reports p to s and converts a cancellation request into
// ErrCancelled.
func Check(s Sink, p float32) error {
	if s != nil && s.Report(clamp(p)) {
		return ErrCancelled
	}
	return nil
}

type scaled struct {
	parent   Sink
	from, to float32
}

func (s scaled) Report(p float32) bool {
	return s.parent.Report(s.from + clamp(p)*(s.to-s.from))
}

// Range maps reports in [0, 1] onto [from, to] of the parent sink. It is
// used to give a sub-operation a slice of the caller's progress budget.
func Range(parent Sink, from, to float32) Sink {
	return scaled{parent: OrNop(parent), from: from, to: to}
}

type withContext struct {
	ctx    context.Context
	parent Sink
}

func (w withContext) Report(p float32) bool {
	if w.ctx.Err() != nil {
		return true
	}
	return w.parent.Report(p)
}

// WithContext returns a sink that also cancels once ctx is done.
func WithContext(ctx context.Context, parent Sink) Sink {
	return withContext{ctx: ctx, parent: OrNop(parent)}
}

// Steps divides progress into equal steps. Step s with sub-progress p in
// [0, 1] reports min(s/n + p/n, 1).
type Steps struct {
	parent Sink
	step   float32
}

// NewSteps creates a step tracker over n steps reporting to parent.
func NewSteps(parent Sink, n int) *Steps {
	if n < 1 {
		n = 1
	}
	return &Steps{parent: OrNop(parent), step: 1 / float32(n)}
}

// Report forwards the progress of step s.
func (st *Steps) Report(s int, p float32) bool {
	v := st.step*float32(s) + st.step*clamp(p)
	if v > 1 {
		v = 1
	}
	return st.parent.Report(v)
}

// Step returns a sink bound to step s.
func (st *Steps) Step(s int) Sink {
	return Func(func(p float32) bool { return st.Report(s, p) })
}

func clamp(p float32) float32 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

type monotonic struct {
	parent Sink
	mu     sync.Mutex
	last   float32
}

func (m *monotonic) Report(p float32) bool {
	m.mu.Lock()
	if p < m.last {
		p = m.last
	}
	m.last = p
	m.mu.Unlock()
	return m.parent.Report(p)
}

// Monotonic returns a sink that never reports a value below one it has
// already forwarded.
func Monotonic(parent Sink) Sink {
	return &monotonic{parent: OrNop(parent)}
}
