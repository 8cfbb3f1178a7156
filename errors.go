package racunis

import "fmt"

// JobNotFoundError is returned when an update or select by id finds no row.
type JobNotFoundError struct {
	Queue string
	ID    int64
}

func (e *JobNotFoundError) Error() string {
	return fmt.Sprintf("racunis: job %d not found in queue %q", e.ID, e.Queue)
}

// AcquirableJobNotFoundError is returned by Client.AcquireJob when no
// waiting job is available. It is a JobNotFoundError variant: callers that
// check for JobNotFoundError via errors.As also match this error, but the
// Worker loop catches it specifically before it can surface to a processor
// or an application caller.
type AcquirableJobNotFoundError struct {
	Queue string
}

func (e *AcquirableJobNotFoundError) Error() string {
	return fmt.Sprintf("racunis: no acquirable job in queue %q", e.Queue)
}

func (e *AcquirableJobNotFoundError) Unwrap() error {
	return &JobNotFoundError{Queue: e.Queue}
}

// MaxRetriesError wraps the last error from a processor that exhausted all
// retry attempts. Its message is the stored errorMessage of a failed Job.
type MaxRetriesError struct {
	Attempts int
	Cause    error
}

func (e *MaxRetriesError) Error() string {
	return fmt.Sprintf("Function failed after %d retries: %s", e.Attempts, e.Cause.Error())
}

func (e *MaxRetriesError) Unwrap() error {
	return e.Cause
}

// DuplicateQueueNameError is returned when constructing a Queue whose name
// is already registered to a live Queue in this process.
type DuplicateQueueNameError struct {
	Name string
}

func (e *DuplicateQueueNameError) Error() string {
	return fmt.Sprintf("Queue with name '%s' already exists", e.Name)
}

// normaliseError coerces a recovered panic value or a bare error into an
// error, matching the error-normalisation rule in spec §7: anything that is
// not already error-like is wrapped by its string form.
func normaliseError(v any) error {
	if v == nil {
		return fmt.Errorf("null")
	}
	if err, ok := v.(error); ok {
		return err
	}
	return fmt.Errorf("%v", v)
}
