package racunis

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// Queue event names, passed to Queue.On.
const (
	EventActivated = "activated"
	EventCompleted = "completed"
	EventFailed    = "failed"
	EventError     = "error"
)

// Worker event names, passed to Worker.On. Worker reuses EventActivated,
// EventCompleted, and EventFailed above alongside its own EventWaiting.
const EventWaiting = "waiting"

// registry is the process-wide map of live Queue names, guarded by its own
// mutex rather than left to sync.Map so construction and close can perform
// a single atomic check-and-set (sync.Map has no compare-and-delete that
// also reports presence in one call across the versions this module
// targets).
var registry = struct {
	mu    sync.Mutex
	names map[string]struct{}
}{names: make(map[string]struct{})}

func registerName(name string) error {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, exists := registry.names[name]; exists {
		return &DuplicateQueueNameError{Name: name}
	}
	registry.names[name] = struct{}{}
	return nil
}

func unregisterName(name string) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	delete(registry.names, name)
}

// QueueOptions configures Queue construction.
type QueueOptions struct {
	// Autostart starts the Queue as soon as construction succeeds. It is
	// true when CreateQueue is given nil options; a non-nil QueueOptions
	// uses the field's value as given.
	Autostart bool
	// Logger receives structured log lines. Defaults to slog.Default().
	Logger *slog.Logger
}

// Queue is the named, process-unique façade over one backend table: one
// Pool, a set of attached Workers, and a running flag. Construct with
// CreateQueue.
type Queue struct {
	name        string
	poolFactory PoolFactory
	pool        Pool
	log         *slog.Logger
	events      *emitter

	mu      sync.Mutex
	running bool
	workers map[*Worker]struct{}
}

// CreateQueue registers name in the process-wide queue registry, builds a
// Pool via poolFactory, and runs InitQueueData through a temporary Client
// before returning — the two-phase new+initialize construction spec §4.3
// requires, combined into one static factory so DDL always lands before any
// enqueue. CreateQueue fails synchronously with *DuplicateQueueNameError if
// name is already registered to a live Queue in this process.
func CreateQueue(ctx context.Context, name string, poolFactory PoolFactory, opts *QueueOptions) (*Queue, error) {
	if opts == nil {
		opts = &QueueOptions{Autostart: true}
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	if err := registerName(name); err != nil {
		return nil, err
	}

	pool, err := poolFactory()
	if err != nil {
		unregisterName(name)
		return nil, err
	}

	q := &Queue{
		name:        name,
		poolFactory: poolFactory,
		pool:        pool,
		log:         log.With("queue", name),
		events:      newEmitter(log),
		workers:     make(map[*Worker]struct{}),
	}

	if err := q.initialize(ctx); err != nil {
		_ = pool.Close()
		unregisterName(name)
		return nil, err
	}

	if opts.Autostart {
		q.Start()
	}
	return q, nil
}

func (q *Queue) initialize(ctx context.Context) error {
	client, err := q.pool.GetClient(ctx, q.name)
	if err != nil {
		return err
	}
	defer client.Release()
	return client.InitQueueData(ctx)
}

// Name returns the queue's registered name.
func (q *Queue) Name() string {
	return q.name
}

// On registers handler for event, one of EventActivated, EventCompleted,
// EventFailed, or EventError. Handlers are invoked synchronously, in
// registration order, on the goroutine that emits the event; a panicking
// handler is recovered and logged, never breaking the caller.
func (q *Queue) On(event string, handler EventHandler) {
	q.events.on(event, handler)
}

func (q *Queue) emit(event string, job *Job, err error) {
	q.events.emit(event, job, err)
}

// Add inserts payload as a waiting job and returns the fully populated Job.
// priority defaults to DefaultPriority when omitted.
func (q *Queue) Add(ctx context.Context, payload json.RawMessage, priority ...int) (*Job, error) {
	p := DefaultPriority
	if len(priority) > 0 {
		p = priority[0]
	}
	client, err := q.pool.GetClient(ctx, q.name)
	if err != nil {
		return nil, err
	}
	defer client.Release()
	return client.InsertJob(ctx, payload, StateWaiting, p)
}

// GetJobCounts returns a count of jobs per requested state.
func (q *Queue) GetJobCounts(ctx context.Context, states ...State) (map[State]int64, error) {
	client, err := q.pool.GetClient(ctx, q.name)
	if err != nil {
		return nil, err
	}
	defer client.Release()
	return client.CountJobsByState(ctx, states...)
}

// Drain deletes all waiting jobs. Active jobs are untouched.
func (q *Queue) Drain(ctx context.Context) error {
	client, err := q.pool.GetClient(ctx, q.name)
	if err != nil {
		return err
	}
	defer client.Release()
	return client.DeleteJobsByState(ctx, StateWaiting)
}

// Empty deletes jobs in all four states. Callers should stop workers first
// to avoid a race with an in-flight lease; Empty does not enforce this (see
// SPEC_FULL.md §9 — an Empty concurrent with an in-flight lease can cause a
// Worker's final UpdateJobStateByID to fail with *JobNotFoundError, surfaced
// on EventError; this is a documented hazard, not a bug to silently mask).
func (q *Queue) Empty(ctx context.Context) error {
	client, err := q.pool.GetClient(ctx, q.name)
	if err != nil {
		return err
	}
	defer client.Release()
	return client.DeleteJobsByState(ctx, StateWaiting, StateActive, StateCompleted, StateFailed)
}

func (q *Queue) isRunning() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

func (q *Queue) attachedWorkers() []*Worker {
	q.mu.Lock()
	defer q.mu.Unlock()
	workers := make([]*Worker, 0, len(q.workers))
	for w := range q.workers {
		workers = append(workers, w)
	}
	return workers
}

func (q *Queue) registerWorker(w *Worker) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.workers[w] = struct{}{}
}

func (q *Queue) unregisterWorker(w *Worker) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.workers, w)
}

// Start sets the running flag and starts every attached Worker in parallel.
// It is idempotent: calling Start on an already-running Queue does nothing.
func (q *Queue) Start() {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.mu.Unlock()

	for _, w := range q.attachedWorkers() {
		w.Start()
	}
}

// Stop clears the running flag and stops every attached Worker in parallel,
// waiting for each to observe the flag and exit its loop. Idempotent.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	q.mu.Unlock()

	workers := q.attachedWorkers()
	var wg sync.WaitGroup
	wg.Add(len(workers))
	for _, w := range workers {
		go func(w *Worker) {
			defer wg.Done()
			w.Stop()
		}(w)
	}
	wg.Wait()
}

// Close stops the Queue, closes every attached Worker (including each
// Worker's own Pool), closes the Queue's Pool, and unregisters its name.
// After Close, the Queue handle is unusable.
func (q *Queue) Close() error {
	q.Stop()

	var firstErr error
	for _, w := range q.attachedWorkers() {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if err := q.pool.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	unregisterName(q.name)
	return firstErr
}
