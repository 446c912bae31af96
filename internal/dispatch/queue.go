// internal/dispatch/queue.go
package dispatch

import (
	"context"

	"github.com/CortezCreations/ck-ld-group-enroll/internal/config"
	"github.com/CortezCreations/ck-ld-group-enroll/internal/store"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Queue chains steps through a NATS subject consumed by this same
// process. Publish does not wait for delivery, which keeps the
// fire-and-forget contract while avoiding a network hop back through
// the HTTP listener. Used in the synchronous-server deployment mode.
type Queue struct {
	guard   chainGuard
	conn    *nats.Conn
	subject string
	sub     *nats.Subscription
	logger  *zap.Logger
}

func NewQueue(cfg config.DispatchConfig, logger *zap.Logger) (*Queue, error) {
	conn, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, err
	}
	return &Queue{
		conn:    conn,
		subject: cfg.NATSSubject,
		logger:  logger,
	}, nil
}

// Subscribe binds the step runner to the dispatch subject. Must be
// called once before the first job is accepted.
func (q *Queue) Subscribe(runner func(ctx context.Context)) error {
	sub, err := q.conn.Subscribe(q.subject, func(msg *nats.Msg) {
		runner(context.Background())
	})
	if err != nil {
		return err
	}
	q.sub = sub
	return nil
}

func (q *Queue) ScheduleNextStep(ctx context.Context) {
	if !q.guard.arm() {
		q.logger.Debug("dispatch already pending, skipping")
		return
	}
	if err := q.conn.Publish(q.subject, []byte(store.RecordKey)); err != nil {
		q.guard.release()
		q.logger.Warn("step dispatch not confirmed", zap.Error(err))
	}
}

func (q *Queue) StepStarted() {
	q.guard.release()
}

func (q *Queue) Close() {
	if q.sub != nil {
		q.sub.Unsubscribe()
	}
	q.conn.Close()
}
