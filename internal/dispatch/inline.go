// internal/dispatch/inline.go
package dispatch

import "context"

// Inline runs the next step immediately in the calling goroutine: the
// dispatch chain degenerates to a direct loop. Used by tests and
// non-interactive callers that want the whole batch driven to a
// terminal state in-process.
type Inline struct {
	guard  chainGuard
	runner func(ctx context.Context)
}

func NewInline() *Inline {
	return &Inline{}
}

// Bind sets the step runner; must be called before the first dispatch
func (i *Inline) Bind(runner func(ctx context.Context)) {
	i.runner = runner
}

func (i *Inline) ScheduleNextStep(ctx context.Context) {
	if !i.guard.arm() {
		return
	}
	if i.runner != nil {
		i.runner(ctx)
	}
}

func (i *Inline) StepStarted() {
	i.guard.release()
}
