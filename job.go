package racunis

import (
	"encoding/json"
	"time"
)

// DefaultPriority is applied by Queue.Add when no priority is given.
const DefaultPriority = 5

// Job is the sole persisted entity: one row per job, one table per queue.
// Values returned by Client and Queue operations are independent snapshots;
// mutating a returned *Job does not affect storage.
type Job struct {
	ID           int64
	Payload      json.RawMessage
	State        State
	Priority     int
	ErrorMessage *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Clone returns an independent copy of j, safe to mutate.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	clone := *j
	if j.Payload != nil {
		clone.Payload = append(json.RawMessage(nil), j.Payload...)
	}
	if j.ErrorMessage != nil {
		msg := *j.ErrorMessage
		clone.ErrorMessage = &msg
	}
	return &clone
}

// Less implements the dequeue ordering relation: priority descending, then
// createdAt ascending, then id ascending.
func Less(a, b *Job) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}
