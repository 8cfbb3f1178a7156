package racunis_test

import (
	"errors"
	"testing"

	"github.com/mrcointreau/racunis"
)

func TestAcquirableJobNotFoundUnwrapsToJobNotFound(t *testing.T) {
	var err error = &racunis.AcquirableJobNotFoundError{Queue: "Q"}
	var jobNotFound *racunis.JobNotFoundError
	if !errors.As(err, &jobNotFound) {
		t.Fatalf("expected AcquirableJobNotFoundError to match JobNotFoundError via errors.As")
	}
}

func TestMaxRetriesErrorMessage(t *testing.T) {
	err := &racunis.MaxRetriesError{Attempts: 3, Cause: errors.New("boom")}
	want := "Function failed after 3 retries: boom"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}

func TestDuplicateQueueNameErrorMessage(t *testing.T) {
	err := &racunis.DuplicateQueueNameError{Name: "Q"}
	want := "Queue with name 'Q' already exists"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}
