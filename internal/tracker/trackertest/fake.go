// Package trackertest provides an in-memory tracker.Client for tests.
package trackertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"payloadmedic/internal/tracker"
)

// Fake serves issues from memory. Unknown URLs report tracker.ErrNotFound.
type Fake struct {
	mu     sync.Mutex
	issues map[string]*tracker.Issue
	errs   map[string]error
	delays map[string]time.Duration
	calls  []string
}

func NewFake(issues ...*tracker.Issue) *Fake {
	f := &Fake{
		issues: make(map[string]*tracker.Issue),
		errs:   make(map[string]error),
		delays: make(map[string]time.Duration),
	}
	for _, is := range issues {
		f.Add(is)
	}
	return f
}

func (f *Fake) Add(issue *tracker.Issue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issues[issue.URL] = issue
}

// FailWith makes lookups of url return err.
func (f *Fake) FailWith(url string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[url] = err
}

// Delay makes lookups of url take d (or until the context ends).
func (f *Fake) Delay(url string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delays[url] = d
}

// Calls returns the looked-up URLs in call order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *Fake) GetIssue(ctx context.Context, url string) (*tracker.Issue, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	issue, ok := f.issues[url]
	err := f.errs[url]
	delay := f.delays[url]
	f.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", tracker.ErrNotFound, url)
	}
	return issue, nil
}

// GetTrackingIssue serves tracking issues like any other issue.
func (f *Fake) GetTrackingIssue(ctx context.Context, url string) (*tracker.Issue, error) {
	return f.GetIssue(ctx, url)
}

// Issue builds a minimal open issue for url.
func Issue(url string, dependsOn ...string) *tracker.Issue {
	return &tracker.Issue{URL: url, Title: url, State: "open", DependsOn: dependsOn}
}
