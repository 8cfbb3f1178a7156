package racunis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mrcointreau/racunis/internal"
)

// Processor runs one job. A non-nil error triggers the retry utility; a
// panic inside a Processor call is recovered by the retry loop and treated
// as a failed attempt.
type Processor func(ctx context.Context, job *Job) error

// WorkerOptions configures Worker construction. A nil *WorkerOptions passed
// to NewWorker uses DefaultWorkerOptions. In a non-nil WorkerOptions, a zero
// or negative WaitingInterval or MaxRetries and a negative RetryInterval are
// replaced by their defaults; Autostart, ProcessingInterval and a zero
// RetryInterval are used as given.
type WorkerOptions struct {
	// Autostart starts the Worker immediately if its Queue is already
	// running. Default true.
	Autostart bool
	// ProcessingInterval is slept before every acquire attempt, so it also
	// separates one acquire+process cycle from the next. Default 0.
	ProcessingInterval time.Duration
	// WaitingInterval is slept after a cycle that found no job or errored
	// before acquiring one. Default 1000ms.
	WaitingInterval time.Duration
	// MaxRetries is the number of attempts (not additional retries) the
	// processor gets. Default 3.
	MaxRetries int
	// RetryInterval is slept between processor attempts. Default 500ms.
	RetryInterval time.Duration
	// Logger receives structured log lines. Defaults to the Queue's.
	Logger *slog.Logger
}

// DefaultWorkerOptions returns the spec-mandated defaults.
func DefaultWorkerOptions() WorkerOptions {
	return WorkerOptions{
		Autostart:          true,
		ProcessingInterval: 0,
		WaitingInterval:    1000 * time.Millisecond,
		MaxRetries:         3,
		RetryInterval:      500 * time.Millisecond,
	}
}

func (o WorkerOptions) withDefaults() WorkerOptions {
	d := DefaultWorkerOptions()
	if o.WaitingInterval <= 0 {
		o.WaitingInterval = d.WaitingInterval
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = d.MaxRetries
	}
	if o.RetryInterval < 0 {
		o.RetryInterval = d.RetryInterval
	}
	return o
}

// Worker drives the processing loop for one Queue: it acquires jobs,
// retries the processor on failure, and finalises each job's state. Each
// Worker owns an independent Pool built from the Queue's pool factory, so
// worker connection demand never starves enqueuers.
type Worker struct {
	id        uuid.UUID
	queue     *Queue
	processor Processor
	pool      Pool
	opts      WorkerOptions
	log       *slog.Logger
	events    *emitter
	gate      internal.Gate
}

// NewWorker constructs a Worker bound to queue, registers it in the Queue's
// worker set, and — if the Worker's Autostart is set and the Queue is
// running — starts its loop immediately.
func NewWorker(queue *Queue, processor Processor, opts *WorkerOptions) (*Worker, error) {
	o := DefaultWorkerOptions()
	if opts != nil {
		o = *opts
	}
	o = o.withDefaults()

	log := o.Logger
	if log == nil {
		log = queue.log
	}

	pool, err := queue.poolFactory()
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	w := &Worker{
		id:        id,
		queue:     queue,
		processor: processor,
		pool:      pool,
		opts:      o,
		log:       log.With("worker", id.String()),
		events:    newEmitter(log),
	}
	queue.registerWorker(w)

	if o.Autostart {
		w.Start()
	}
	return w, nil
}

// ID is the Worker's correlation identifier, carried in every log line this
// Worker emits so operators can trace a job's lifecycle across a specific
// worker instance when several workers share a queue. Event payloads carry
// only the job and error, per spec.md §5 — call ID() from within a handler
// if you need to tag an event with the worker that raised it.
func (w *Worker) ID() uuid.UUID {
	return w.id
}

// On registers handler for event, one of EventWaiting, EventActivated,
// EventCompleted, or EventFailed.
func (w *Worker) On(event string, handler EventHandler) {
	w.events.on(event, handler)
}

// Start launches the polling loop if the Queue is running and the Worker is
// not already started. If the Queue is not running, Start does nothing —
// workers cannot outrun their Queue. Idempotent.
func (w *Worker) Start() {
	if !w.queue.isRunning() {
		return
	}
	w.gate.Start(context.Background(), w.loop)
}

// Stop cancels the gate and waits for the loop goroutine to exit. The loop
// only observes cancellation at its between-cycles sleep points — a job
// already in flight (acquired, processing, or finalising) runs to
// completion first, per spec.md §5's no-mid-job-cancellation rule, so Stop
// can block for as long as the in-flight job takes. Idempotent.
func (w *Worker) Stop() {
	w.gate.Stop()
}

// Close stops the Worker, closes its Pool, and deregisters it from its
// Queue.
func (w *Worker) Close() error {
	w.Stop()
	err := w.pool.Close()
	w.queue.unregisterWorker(w)
	return err
}

func (w *Worker) loop(ctx context.Context) {
	for {
		if !internal.Sleep(ctx, w.opts.ProcessingInterval) {
			return
		}
		if !w.cycle(ctx) {
			return
		}
	}
}

// cycle runs one acquire/process/finalise iteration. loopCtx gates only the
// sleeps between cycles: per spec.md §5 ("no mid-job cancellation; a
// processor that hangs will pin its Worker") and §4.4.2 ("the loop observes
// the flag only between cycles"), once a job is acquired nothing in this
// function may be cancelled by a concurrent Stop. cycle therefore runs its
// own work — GetClient, AcquireJob, the processor retries, and the
// finalising UpdateJobStateByID — on a detached context, and only consults
// loopCtx at the two points where the loop is allowed to exit: before
// starting work, and in the no-job/error backoff sleep. It returns false
// only when loopCtx was cancelled while sleeping, signalling the loop should
// exit.
func (w *Worker) cycle(loopCtx context.Context) bool {
	jobCtx := context.Background()

	client, err := w.pool.GetClient(jobCtx, w.queue.name)
	if err != nil {
		w.log.Error("get client failed", "err", err)
		w.queue.emit(EventError, nil, err)
		return internal.Sleep(loopCtx, w.opts.WaitingInterval)
	}
	defer client.Release()

	job, err := client.AcquireJob(jobCtx)
	if err != nil {
		var notFound *AcquirableJobNotFoundError
		if errors.As(err, &notFound) {
			w.events.emit(EventWaiting, nil, nil)
		} else {
			w.log.Error("acquire job failed", "err", err)
			w.queue.emit(EventError, nil, err)
		}
		return internal.Sleep(loopCtx, w.opts.WaitingInterval)
	}

	w.log.Debug("job activated", "job_id", job.ID)
	w.events.emit(EventActivated, job, nil)
	w.queue.emit(EventActivated, job, nil)

	procErr := retryProcessor(jobCtx, func(ctx context.Context) error {
		return w.processor(ctx, job)
	}, w.opts.MaxRetries, w.opts.RetryInterval)

	if procErr == nil {
		updated, err := client.UpdateJobStateByID(jobCtx, job.ID, StateCompleted, nil)
		if err != nil {
			w.log.Error("update to completed failed", "job_id", job.ID, "err", err)
			w.queue.emit(EventError, job, err)
			return true
		}
		w.events.emit(EventCompleted, updated, nil)
		w.queue.emit(EventCompleted, updated, nil)
		return true
	}

	message := procErr.Error()
	updated, err := client.UpdateJobStateByID(jobCtx, job.ID, StateFailed, &message)
	if err != nil {
		w.log.Error("update to failed failed", "job_id", job.ID, "err", err)
		w.queue.emit(EventError, job, err)
		return true
	}
	w.events.emit(EventFailed, updated, procErr)
	w.queue.emit(EventFailed, updated, procErr)
	return true
}
