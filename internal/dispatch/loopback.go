// internal/dispatch/loopback.go
package dispatch

import (
	"context"
	"net/http"
	"time"

	"github.com/CortezCreations/ck-ld-group-enroll/internal/auth"
	"github.com/CortezCreations/ck-ld-group-enroll/internal/config"
	"go.uber.org/zap"
)

// Loopback chains steps through a fire-and-forget POST to this service's
// own step endpoint, authorized by a single-use token. Used in the
// stateless-request deployment mode where each step is its own request.
type Loopback struct {
	guard  chainGuard
	url    string
	issuer *auth.TokenIssuer
	client *http.Client
	logger *zap.Logger
}

// StepPath is the internal endpoint loopback dispatch posts to
const StepPath = "/internal/v1/task/step"

func NewLoopback(cfg config.DispatchConfig, issuer *auth.TokenIssuer, logger *zap.Logger) *Loopback {
	return &Loopback{
		url:    cfg.SelfURL + StepPath,
		issuer: issuer,
		client: &http.Client{Timeout: 5 * time.Second},
		logger: logger,
	}
}

// ScheduleNextStep posts to the step endpoint in the background. The
// response is never inspected; the step request re-reads everything it
// needs from the persisted record.
func (l *Loopback) ScheduleNextStep(ctx context.Context) {
	if !l.guard.arm() {
		l.logger.Debug("dispatch already pending, skipping")
		return
	}

	token, err := l.issuer.Generate()
	if err != nil {
		l.guard.release()
		l.logger.Error("failed to generate step token", zap.Error(err))
		return
	}

	go func() {
		// The originating request context may be gone before the
		// loopback call lands.
		req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, l.url+"?token="+token, nil)
		if err != nil {
			l.logger.Error("failed to build step request", zap.Error(err))
			return
		}
		resp, err := l.client.Do(req)
		if err != nil {
			l.logger.Warn("step dispatch not confirmed", zap.Error(err))
			return
		}
		resp.Body.Close()
	}()
}

func (l *Loopback) StepStarted() {
	l.guard.release()
}
