// internal/dispatch/dispatch.go
//
// Step dispatch strategies. After a write leaves the task record in
// processing, exactly one follow-up step must be triggered without
// blocking the current execution. The chain guard below reproduces the
// attach-once/detach-after-fire contract: scheduling arms the guard,
// the scheduled step releases it when it begins, and an armed guard
// swallows any further trigger so one persisted transition cannot spawn
// duplicate dispatch chains.
//
// Dispatch is best-effort. A trigger lost in transit leaves the job
// stalled in processing; recovery is a manual re-trigger of the step
// endpoint, not an automatic retry.
package dispatch

import "sync/atomic"

type chainGuard struct {
	armed atomic.Bool
}

// arm reports whether this caller won the right to schedule. A false
// return means a trigger is already pending.
func (g *chainGuard) arm() bool {
	return g.armed.CompareAndSwap(false, true)
}

func (g *chainGuard) release() {
	g.armed.Store(false)
}
