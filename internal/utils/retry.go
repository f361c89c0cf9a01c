package utils

import "time"

// Operation is a function that performs an action and returns an error if it fails.
type Operation func() error

// Retryable reports whether a failure is worth another attempt.
type Retryable func(err error) bool

// WithRetries executes an operation, retrying up to maxRetries times when
// the failure is deemed retryable. Any other error is returned immediately.
// A short incremental backoff separates attempts.
func WithRetries(op Operation, maxRetries int, retryable Retryable) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if attempt == maxRetries {
			break
		}
		if retryable(err) {
			time.Sleep(time.Duration(50*(attempt+1)) * time.Millisecond)
		} else {
			return err
		}
	}
	return err
}
