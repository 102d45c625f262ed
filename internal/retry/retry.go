package retry

import (
	"context"
	"time"

	"github.com/ilcsoft/mokkadump/pkg/mokka"
)

// Attempt describes a failed try that is about to be repeated.
type Attempt struct {
	Number int // 1 for the first retry
	Err    error
	Delay  time.Duration
}

// Retrier repeats operations that fail with transient errors.
// Safe for concurrent use.
type Retrier struct {
	classifier mokka.ErrorClassifier
	policy     Policy
	onRetry    func(Attempt)
}

// New creates a Retrier. A nil classifier treats every error as fatal.
func New(classifier mokka.ErrorClassifier, policy Policy, onRetry func(Attempt)) *Retrier {
	return &Retrier{
		classifier: classifier,
		policy:     policy,
		onRetry:    onRetry,
	}
}

// Policy returns the policy r was built with.
func (r *Retrier) Policy() Policy {
	return r.policy
}

func (r *Retrier) transient(err error) bool {
	return r.classifier != nil && r.classifier.IsTransient(err)
}

// Do runs op until it succeeds, fails with a fatal error or the policy runs
// out of retries. It returns the last error, or the context error if ctx
// ends while waiting.
func Do[T any](ctx context.Context, r *Retrier, op func(ctx context.Context) (T, error)) (T, error) {
	v, err := op(ctx)
	if err == nil || !r.transient(err) {
		return v, err
	}

	for attempt := 0; attempt < r.policy.Retries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			var zero T
			return zero, ctxErr
		}

		delay := r.policy.Delay(attempt)
		if r.onRetry != nil {
			r.onRetry(Attempt{Number: attempt + 1, Err: err, Delay: delay})
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			var zero T
			return zero, ctx.Err()
		case <-timer.C:
		}

		v, err = op(ctx)
		if err == nil || !r.transient(err) {
			return v, err
		}
	}

	return v, err
}
