package racunis_test

import (
	"context"
	"testing"

	"github.com/mrcointreau/racunis"
)

func TestCreateQueueRejectsDuplicateName(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()

	q1, err := racunis.CreateQueue(ctx, "Q", newFakePool(backend), &racunis.QueueOptions{Autostart: false})
	if err != nil {
		t.Fatalf("first CreateQueue: %v", err)
	}
	t.Cleanup(func() { _ = q1.Close() })

	_, err = racunis.CreateQueue(ctx, "Q", newFakePool(backend), &racunis.QueueOptions{Autostart: false})
	if err == nil {
		t.Fatal("expected second CreateQueue with the same name to fail")
	}
	want := "Queue with name 'Q' already exists"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}

func TestCloseFreesQueueName(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()

	q, err := racunis.CreateQueue(ctx, "reusable", newFakePool(backend), &racunis.QueueOptions{Autostart: false})
	if err != nil {
		t.Fatalf("CreateQueue: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	q2, err := racunis.CreateQueue(ctx, "reusable", newFakePool(backend), &racunis.QueueOptions{Autostart: false})
	if err != nil {
		t.Fatalf("expected name to be free after Close, got: %v", err)
	}
	_ = q2.Close()
}

func TestAddDefaultsPriorityToFive(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	q, err := racunis.CreateQueue(ctx, "default-priority", newFakePool(backend), &racunis.QueueOptions{Autostart: false})
	if err != nil {
		t.Fatalf("CreateQueue: %v", err)
	}
	t.Cleanup(func() { _ = q.Close() })

	job, err := q.Add(ctx, []byte(`{}`))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if job.Priority != racunis.DefaultPriority {
		t.Fatalf("got priority %d, want default %d", job.Priority, racunis.DefaultPriority)
	}
}

func TestAddIncrementsWaitingCount(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	q, err := racunis.CreateQueue(ctx, "counts", newFakePool(backend), &racunis.QueueOptions{Autostart: false})
	if err != nil {
		t.Fatalf("CreateQueue: %v", err)
	}
	t.Cleanup(func() { _ = q.Close() })

	before, err := q.GetJobCounts(ctx, racunis.StateWaiting)
	if err != nil {
		t.Fatalf("GetJobCounts: %v", err)
	}

	if _, err := q.Add(ctx, []byte(`{}`)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	after, err := q.GetJobCounts(ctx, racunis.StateWaiting)
	if err != nil {
		t.Fatalf("GetJobCounts: %v", err)
	}
	if after[racunis.StateWaiting] != before[racunis.StateWaiting]+1 {
		t.Fatalf("got %d waiting jobs, want %d", after[racunis.StateWaiting], before[racunis.StateWaiting]+1)
	}
}

func TestDrainLeavesActiveJobsUntouched(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	q, err := racunis.CreateQueue(ctx, "drain", newFakePool(backend), &racunis.QueueOptions{Autostart: false})
	if err != nil {
		t.Fatalf("CreateQueue: %v", err)
	}
	t.Cleanup(func() { _ = q.Close() })

	if _, err := q.Add(ctx, []byte(`{}`)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := q.Add(ctx, []byte(`{}`)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	direct := &fakeClient{backend: backend, queue: "drain"}
	if _, err := direct.AcquireJob(ctx); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	if err := q.Drain(ctx); err != nil {
		t.Fatalf("Drain: %v", err)
	}

	counts, err := q.GetJobCounts(ctx, racunis.StateWaiting, racunis.StateActive)
	if err != nil {
		t.Fatalf("GetJobCounts: %v", err)
	}
	if counts[racunis.StateWaiting] != 0 {
		t.Fatalf("expected 0 waiting jobs after Drain, got %d", counts[racunis.StateWaiting])
	}
	if counts[racunis.StateActive] != 1 {
		t.Fatalf("expected the active job to survive Drain, got %d active", counts[racunis.StateActive])
	}
}

func TestEmptyRemovesAllStates(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	q, err := racunis.CreateQueue(ctx, "empty", newFakePool(backend), &racunis.QueueOptions{Autostart: false})
	if err != nil {
		t.Fatalf("CreateQueue: %v", err)
	}
	t.Cleanup(func() { _ = q.Close() })

	for i := 0; i < 4; i++ {
		if _, err := q.Add(ctx, []byte(`{}`)); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	// Move three of the four jobs out of waiting: one active, one completed,
	// one failed.
	direct := &fakeClient{backend: backend, queue: "empty"}
	for _, state := range []racunis.State{racunis.StateActive, racunis.StateCompleted, racunis.StateFailed} {
		job, err := direct.AcquireJob(ctx)
		if err != nil {
			t.Fatalf("acquire: %v", err)
		}
		if state != racunis.StateActive {
			if _, err := direct.UpdateJobStateByID(ctx, job.ID, state, nil); err != nil {
				t.Fatalf("update: %v", err)
			}
		}
	}

	if err := q.Empty(ctx); err != nil {
		t.Fatalf("Empty: %v", err)
	}

	counts, err := q.GetJobCounts(ctx, racunis.StateWaiting, racunis.StateActive, racunis.StateCompleted, racunis.StateFailed)
	if err != nil {
		t.Fatalf("GetJobCounts: %v", err)
	}
	for state, count := range counts {
		if count != 0 {
			t.Fatalf("expected Empty to remove all jobs, state %v still has %d", state, count)
		}
	}
}
