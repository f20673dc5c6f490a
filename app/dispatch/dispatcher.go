package dispatch

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/neobotlabs/neobot/app/factory"
)

var (
	ErrClosed    = errors.New("dispatcher is closed")
	ErrQueueFull = errors.New("dispatch queue is full")
)

type Task func(ctx context.Context)

// Dispatcher bridges HTTP handler goroutines into the bot runtime. Handlers
// submit tasks and return immediately; a single drain goroutine owned by the
// bot runtime executes them serially, so all gateway-bound work shares one
// execution context and its rate-limit state.
type Dispatcher struct {
	tasks     chan Task
	closed    chan struct{}
	closeOnce sync.Once
	logger    logrus.FieldLogger
}

func New(queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Dispatcher{
		tasks:  make(chan Task, queueSize),
		closed: make(chan struct{}),
		logger: factory.NewModuleLogger("dispatcher"),
	}
}

// Submit enqueues a task without blocking the caller. The webhook handler must
// acknowledge the processor immediately, so a full queue rejects instead of
// waiting and a closed dispatcher reports ErrClosed.
func (d *Dispatcher) Submit(task Task) error {
	if task == nil {
		return nil
	}
	select {
	case <-d.closed:
		return ErrClosed
	default:
	}
	select {
	case d.tasks <- task:
		return nil
	case <-d.closed:
		return ErrClosed
	default:
		return ErrQueueFull
	}
}

// Run drains the queue serially until ctx is canceled. Tasks still queued at
// cancellation are dropped and counted; delivery is at-least-once from the
// processor's side, never guaranteed by this process.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			if dropped := len(d.tasks); dropped > 0 {
				d.logger.WithField("dropped", dropped).Warn("pending_tasks_dropped")
			}
			return
		case task := <-d.tasks:
			d.execute(ctx, task)
		}
	}
}

// Close stops accepting new tasks. Idempotent.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.closed)
	})
}

// A panicking task must not take down the drain loop.
func (d *Dispatcher) execute(ctx context.Context, task Task) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.WithFields(logrus.Fields{
				"panic": r,
				"stack": string(debug.Stack()),
			}).Error("task_panicked")
		}
	}()
	task(ctx)
}
