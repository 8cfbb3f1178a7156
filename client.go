package racunis

import (
	"context"
	"encoding/json"
)

// Client encapsulates every SQL interaction for a single queue. A Client is
// short-lived (one logical operation, occasionally a handful in the case of
// AcquireJob's internal transaction) and must be Released exactly once, on
// every exit path, including failures.
type Client interface {
	// InitQueueData ensures the DDL described in SPEC_FULL.md §4.2.1
	// exists: the job-state enum (if supported), the queue table, the
	// dequeue index, and the updatedAt auto-update mechanism. Idempotent:
	// implementations swallow exactly the backend error codes that signal
	// "object already exists" and rethrow everything else.
	InitQueueData(ctx context.Context) error

	// InsertJob inserts a row and returns the fully populated Job, with id
	// and timestamps filled in by the database.
	InsertJob(ctx context.Context, payload json.RawMessage, state State, priority int) (*Job, error)

	// AcquireJob atomically leases the highest-priority waiting job and
	// flips it to active, per the BEGIN / SELECT ... FOR UPDATE SKIP
	// LOCKED / UPDATE / COMMIT protocol in SPEC_FULL.md §4.2. Returns
	// *AcquirableJobNotFoundError when no waiting job is available.
	AcquireJob(ctx context.Context) (*Job, error)

	// UpdateJobStateByID updates the row by id and returns the updated
	// row. errorMessage is only meaningful when state is StateFailed; pass
	// nil on every other transition so a retried-then-succeeded job never
	// carries a stale error message (see SPEC_FULL.md §9). Returns
	// *JobNotFoundError when no row matched.
	UpdateJobStateByID(ctx context.Context, id int64, state State, errorMessage *string) (*Job, error)

	// CountJobsByState returns a count for every requested state,
	// including zero for states with no matching rows.
	CountJobsByState(ctx context.Context, states ...State) (map[State]int64, error)

	// DeleteJobsByState deletes every row whose state is in states.
	DeleteJobsByState(ctx context.Context, states ...State) error

	// BeginTransaction, CommitTransaction, and RollbackTransaction are
	// pass-throughs to the underlying connection, exposed for callers that
	// need transactional control beyond AcquireJob's internal protocol.
	BeginTransaction(ctx context.Context) error
	CommitTransaction(ctx context.Context) error
	RollbackTransaction(ctx context.Context) error

	// Release returns the connection to the Pool. Must be called exactly
	// once per Client.
	Release() error
}
