package racunis_test

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/mrcointreau/racunis"
)

// fakeBackend is the in-memory store shared by every fakeClient handed out
// by a fakePool, grounded on gqs's clean_worker_test.go mockCleaner idiom:
// a hand-rolled mock implementing the storage interface with no database
// involved, guarded by a mutex instead of an atomic counter since the
// surface here is wider than a single count.
type fakeBackend struct {
	mu        sync.Mutex
	seq       int64
	jobs      map[int64]*racunis.Job
	initCalls int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{jobs: make(map[int64]*racunis.Job)}
}

type fakePool struct {
	backend *fakeBackend
	closed  bool
}

func newFakePool(backend *fakeBackend) racunis.PoolFactory {
	return func() (racunis.Pool, error) {
		return &fakePool{backend: backend}, nil
	}
}

func (p *fakePool) GetClient(ctx context.Context, queueName string) (racunis.Client, error) {
	return &fakeClient{backend: p.backend, queue: queueName}, nil
}

func (p *fakePool) Close() error {
	p.closed = true
	return nil
}

type fakeClient struct {
	backend *fakeBackend
	queue   string
}

func (c *fakeClient) InitQueueData(ctx context.Context) error {
	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()
	c.backend.initCalls++
	return nil
}

func (c *fakeClient) InsertJob(ctx context.Context, payload json.RawMessage, state racunis.State, priority int) (*racunis.Job, error) {
	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()
	c.backend.seq++
	now := time.Now()
	job := &racunis.Job{
		ID:        c.backend.seq,
		Payload:   append(json.RawMessage(nil), payload...),
		State:     state,
		Priority:  priority,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.backend.jobs[job.ID] = job
	return job.Clone(), nil
}

func (c *fakeClient) AcquireJob(ctx context.Context) (*racunis.Job, error) {
	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()

	var best *racunis.Job
	for _, j := range c.backend.jobs {
		if j.State != racunis.StateWaiting {
			continue
		}
		if best == nil || racunis.Less(j, best) {
			best = j
		}
	}
	if best == nil {
		return nil, &racunis.AcquirableJobNotFoundError{Queue: c.queue}
	}
	best.State = racunis.StateActive
	best.UpdatedAt = time.Now()
	return best.Clone(), nil
}

func (c *fakeClient) UpdateJobStateByID(ctx context.Context, id int64, state racunis.State, errorMessage *string) (*racunis.Job, error) {
	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()
	job, ok := c.backend.jobs[id]
	if !ok {
		return nil, &racunis.JobNotFoundError{Queue: c.queue, ID: id}
	}
	job.State = state
	job.ErrorMessage = errorMessage
	job.UpdatedAt = time.Now()
	return job.Clone(), nil
}

func (c *fakeClient) CountJobsByState(ctx context.Context, states ...racunis.State) (map[racunis.State]int64, error) {
	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()
	counts := make(map[racunis.State]int64, len(states))
	for _, s := range states {
		counts[s] = 0
	}
	for _, j := range c.backend.jobs {
		if _, ok := counts[j.State]; ok {
			counts[j.State]++
		}
	}
	return counts, nil
}

func (c *fakeClient) DeleteJobsByState(ctx context.Context, states ...racunis.State) error {
	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()
	match := make(map[racunis.State]bool, len(states))
	for _, s := range states {
		match[s] = true
	}
	for id, j := range c.backend.jobs {
		if match[j.State] {
			delete(c.backend.jobs, id)
		}
	}
	return nil
}

func (c *fakeClient) BeginTransaction(ctx context.Context) error    { return nil }
func (c *fakeClient) CommitTransaction(ctx context.Context) error  { return nil }
func (c *fakeClient) RollbackTransaction(ctx context.Context) error { return nil }
func (c *fakeClient) Release() error                                { return nil }
