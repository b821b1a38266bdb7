package hotspot

import (
	"go.uber.org/atomic"
)

// Pending holds an attempt that was issued and awaits its outcome. It
// resolves exactly once; resolving it again is a programming error.
type Pending struct {
	resolved *atomic.Bool
	done     chan struct{}
	outcome  Outcome
}

func NewPending() *Pending {
	return &Pending{
		resolved: atomic.NewBool(false),
		done:     make(chan struct{}),
	}
}

// Resolve stores the outcome and releases all waiters.
func (p *Pending) Resolve(outcome Outcome) {
	if !p.resolved.CompareAndSwap(false, true) {
		panic("hotspot: attempt resolved twice")
	}

	p.outcome = outcome
	close(p.done)
}

// TryResolve resolves the attempt unless it already was and reports
// whether this call won.
func (p *Pending) TryResolve(outcome Outcome) bool {
	if !p.resolved.CompareAndSwap(false, true) {
		return false
	}

	p.outcome = outcome
	close(p.done)

	return true
}

func (p *Pending) Resolved() bool {
	return p.resolved.Load()
}

// Done is closed once the attempt is resolved.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Outcome blocks until the attempt is resolved.
func (p *Pending) Outcome() Outcome {
	<-p.done
	return p.outcome
}
