package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a unit of background work identified by a type string. Attempt is
// incremented by the dispatcher on every retry.
type Task struct {
	ID      string
	Type    string
	Payload interface{}
	Attempt int
}

// HandlerFunc executes a task. Returning an error triggers a retry.
type HandlerFunc func(ctx context.Context, task Task) error

// Options tune the dispatcher worker pool.
type Options struct {
	Workers    int
	Buffer     int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Dispatcher fans tasks out to a fixed pool of goroutine workers. Handlers
// are registered per task type before Start.
type Dispatcher struct {
	opts     Options
	handlers map[string]HandlerFunc

	tasks  chan Task
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool
}

// NewDispatcher builds an idle dispatcher. Call Register then Start.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.Buffer <= 0 {
		opts.Buffer = opts.Workers * 8
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Dispatcher{
		opts:     opts,
		handlers: make(map[string]HandlerFunc),
		tasks:    make(chan Task, opts.Buffer),
	}
}

// Register binds a handler to a task type. Must be called before Start.
func (d *Dispatcher) Register(taskType string, handler HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[taskType] = handler
}

// Start launches the worker pool. Calling Start twice is a no-op.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}
	d.ctx, d.cancel = context.WithCancel(ctx)
	for i := 0; i < d.opts.Workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
	d.running = true
	d.opts.Logger.Sugar().Infow("job dispatcher started", "workers", d.opts.Workers)
}

// Stop signals workers to finish and blocks until they exit.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.cancel()
	d.mu.Unlock()

	d.wg.Wait()
	d.opts.Logger.Sugar().Infow("job dispatcher stopped")
}

// Submit queues a task for execution.
func (d *Dispatcher) Submit(task Task) error {
	d.mu.Lock()
	running := d.running
	ctx := d.ctx
	d.mu.Unlock()

	if !running {
		return fmt.Errorf("dispatcher not running")
	}
	if _, ok := d.handlers[task.Type]; !ok {
		return fmt.Errorf("no handler registered for task type %q", task.Type)
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("dispatcher shutting down: %w", ctx.Err())
	case d.tasks <- task:
		return nil
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case task := <-d.tasks:
			d.execute(task)
		}
	}
}

func (d *Dispatcher) execute(task Task) {
	handler := d.handlers[task.Type]
	if err := handler(d.ctx, task); err != nil {
		d.retry(task, err)
	}
}

func (d *Dispatcher) retry(task Task, cause error) {
	log := d.opts.Logger.Sugar()
	task.Attempt++
	if task.Attempt > d.opts.MaxRetries {
		log.Errorw("task failed permanently",
			"task_id", task.ID, "type", task.Type, "attempts", task.Attempt, "error", cause)
		return
	}
	log.Warnw("task failed, scheduling retry",
		"task_id", task.ID, "type", task.Type, "attempt", task.Attempt, "error", cause)

	go func(t Task) {
		timer := time.NewTimer(d.opts.RetryDelay * time.Duration(t.Attempt))
		defer timer.Stop()
		select {
		case <-d.ctx.Done():
		case <-timer.C:
			select {
			case <-d.ctx.Done():
			case d.tasks <- t:
			}
		}
	}(task)
}
