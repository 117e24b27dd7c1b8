package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Policy retries an operation with exponential backoff
type Policy struct {
	maxAttempts  int
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
	permanent    []error
}

// NewPolicy creates a new retry policy
func NewPolicy(maxAttempts int, initialDelay time.Duration) *Policy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Policy{
		maxAttempts:  maxAttempts,
		initialDelay: initialDelay,
		maxDelay:     30 * time.Second,
		multiplier:   1.5,
	}
}

// StopOn returns a copy of the policy that gives up at once on any error
// matching one of errs
func (p *Policy) StopOn(errs ...error) *Policy {
	c := *p
	c.permanent = append(append([]error(nil), p.permanent...), errs...)
	return &c
}

// Do runs fn until it succeeds, attempts run out, or ctx is done
func (p *Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	delay := p.initialDelay

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				return err
			}
			return fmt.Errorf("gave up after %d attempts: %w", attempt-1, lastErr)
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if p.isPermanent(err) {
			return fmt.Errorf("failed after %d attempts: %w", attempt, err)
		}
		if attempt == p.maxAttempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("gave up after %d attempts: %w", attempt, lastErr)
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * p.multiplier)
		if delay > p.maxDelay {
			delay = p.maxDelay
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", p.maxAttempts, lastErr)
}

func (p *Policy) isPermanent(err error) bool {
	for _, target := range p.permanent {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
