package notify

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// PermanentError marks a delivery failure that retrying cannot fix, such as
// the recipient having blocked the bot. Callers use IsPermanent to decide
// whether to drop the recipient's record.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return "permanent: " + e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err as a PermanentError.
func Permanent(err error) error {
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err carries a PermanentError anywhere in its chain.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// RetryPolicy retries an operation a fixed number of times with a fixed
// pause in between. Permanent errors abort immediately.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultRetry matches the deployment defaults: three attempts, five seconds apart.
var DefaultRetry = RetryPolicy{Attempts: 3, Backoff: 5 * time.Second}

// Do runs op until it succeeds, returns a permanent error, or the attempt
// budget is spent. The backoff pause respects ctx cancellation.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	var last error
	for i := 0; i < p.Attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.Backoff):
			}
		}
		last = op()
		if last == nil {
			return nil
		}
		if IsPermanent(last) {
			return last
		}
	}
	return fmt.Errorf("giving up after %d attempts: %w", p.Attempts, last)
}
