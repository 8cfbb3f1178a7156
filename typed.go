package racunis

import (
	"context"
	"encoding/json"
	"fmt"
)

// AddTyped marshals payload to JSON and enqueues it on q, returning the
// inserted Job. It is a thin generic convenience over Queue.Add, in the
// spirit of the teacher's generic message.Get[T]/Set[T] helpers: the core
// Queue/Worker/Client surface stays payload-agnostic (json.RawMessage),
// while callers who want static payload types can thread one through here.
func AddTyped[T any](ctx context.Context, q *Queue, payload T, priority ...int) (*Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("racunis: marshal payload: %w", err)
	}
	return q.Add(ctx, raw, priority...)
}

// ProcessorOf adapts a processor that wants a typed payload into a
// Processor: it unmarshals job.Payload into T before calling fn. A
// malformed payload is reported as a processor failure (and so follows the
// normal retry/failed path) rather than panicking the Worker loop.
func ProcessorOf[T any](fn func(ctx context.Context, job *Job, payload T) error) Processor {
	return func(ctx context.Context, job *Job) error {
		var payload T
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("racunis: unmarshal payload: %w", err)
		}
		return fn(ctx, job, payload)
	}
}
