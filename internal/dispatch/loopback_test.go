// internal/dispatch/loopback_test.go
package dispatch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/CortezCreations/ck-ld-group-enroll/internal/auth"
	"github.com/CortezCreations/ck-ld-group-enroll/internal/config"
	"go.uber.org/zap"
)

func TestChainGuard(t *testing.T) {
	var g chainGuard
	if !g.arm() {
		t.Fatal("first arm must win")
	}
	if g.arm() {
		t.Fatal("second arm must be refused while pending")
	}
	g.release()
	if !g.arm() {
		t.Fatal("arm after release must win again")
	}
}

func TestLoopbackFiresExactlyOneStep(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret", "enroll", time.Minute)

	var calls atomic.Int32
	received := make(chan *http.Request, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		received <- r
	}))
	defer srv.Close()

	l := NewLoopback(config.DispatchConfig{SelfURL: srv.URL}, issuer, zap.NewNop())

	ctx := context.Background()
	l.ScheduleNextStep(ctx)
	l.ScheduleNextStep(ctx) // armed, must be swallowed

	var req *http.Request
	select {
	case req = <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("step endpoint was never called")
	}

	if req.Method != http.MethodPost || req.URL.Path != StepPath {
		t.Fatalf("unexpected request %s %s", req.Method, req.URL.Path)
	}
	if err := issuer.Validate(req.URL.Query().Get("token")); err != nil {
		t.Fatalf("dispatched token rejected: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Fatalf("expected one dispatch, got %d", n)
	}
}

func TestLoopbackReschedulesAfterStepStarted(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret", "enroll", time.Minute)

	received := make(chan struct{}, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- struct{}{}
	}))
	defer srv.Close()

	l := NewLoopback(config.DispatchConfig{SelfURL: srv.URL}, issuer, zap.NewNop())

	ctx := context.Background()
	l.ScheduleNextStep(ctx)
	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("first step never dispatched")
	}

	l.StepStarted()
	l.ScheduleNextStep(ctx)
	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("released guard must allow the next dispatch")
	}
}

func TestInlineRunsChainToCompletion(t *testing.T) {
	i := NewInline()

	remaining := 3
	steps := 0
	i.Bind(func(ctx context.Context) {
		i.StepStarted()
		steps++
		remaining--
		if remaining > 0 {
			i.ScheduleNextStep(ctx)
		}
	})

	i.ScheduleNextStep(context.Background())
	if steps != 3 {
		t.Fatalf("expected 3 chained steps, got %d", steps)
	}
}
