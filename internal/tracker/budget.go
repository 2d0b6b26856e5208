package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/go-github/v81/github"
)

// Budget paces requests against the GitHub rate limit. It starts optimistic; once a
// response reports an exhausted limit, Acquire blocks until the reported reset time.
type Budget struct {
	mu        sync.Mutex
	known     bool
	remaining int
	reset     time.Time
	now       func() time.Time
}

func NewBudget() *Budget {
	return &Budget{now: time.Now}
}

// Remaining returns the last observed remaining request count, or -1 if unknown.
func (b *Budget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.known {
		return -1
	}
	return b.remaining
}

func (b *Budget) Acquire(ctx context.Context) error {
	if b == nil {
		return fmt.Errorf("Acquire: nil Budget")
	}
	for {
		b.mu.Lock()
		now := b.now()
		if b.known && !now.Before(b.reset) {
			// Window rolled over; unknown until the next response says otherwise.
			b.known = false
		}
		if !b.known || b.remaining > 0 {
			if b.known {
				b.remaining--
			}
			b.mu.Unlock()
			return nil
		}
		wait := b.reset.Sub(now)
		b.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Update records the rate limit reported by resp. Responses without rate headers are
// ignored.
func (b *Budget) Update(resp *github.Response) {
	if b == nil || resp == nil {
		return
	}
	rate := resp.Rate
	if rate.Limit == 0 && rate.Remaining == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.known = true
	b.remaining = rate.Remaining
	b.reset = rate.Reset.Time
}
