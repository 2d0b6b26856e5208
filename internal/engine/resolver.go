package engine

import (
	"context"
	"errors"
	"fmt"

	"payloadmedic/internal/pool"
	"payloadmedic/internal/tracker"
)

// resolve looks up parent's dependencies, in declaration order, as a single unit of
// work on the retrieval pool. Issues the tracker does not know are skipped. A lookup
// failure or an expired ResolveTimeout abandons the retrieval pool and is returned as
// a plain error; only the caller's own cancellation or an unusable pool comes back as
// a *ProcessingError.
func (p *Processor) resolve(ctx context.Context, batchID string, parent *tracker.Issue) ([]*tracker.Issue, error) {
	urls := parent.DependencyURLs()
	if len(urls) == 0 {
		return nil, nil
	}

	rp, err := p.pools.Retrieval()
	if err != nil {
		return nil, &ProcessingError{Op: OpResolve, Subject: parent.URL, Err: err}
	}
	fut, err := pool.Submit(ctx, rp, func(ctx context.Context) ([]*tracker.Issue, error) {
		return p.lookupAll(ctx, batchID, urls)
	})
	if err != nil {
		return nil, &ProcessingError{Op: OpResolve, Subject: parent.URL, Err: err}
	}

	waitCtx, cancel := context.WithTimeout(ctx, p.opts.ResolveTimeout)
	defer cancel()
	deps, err := fut.Wait(waitCtx)
	if err == nil {
		return deps, nil
	}

	fut.Cancel()
	p.pools.AbandonRetrieval()
	if ctx.Err() != nil {
		return nil, &ProcessingError{Op: OpResolve, Subject: parent.URL, Err: ctx.Err()}
	}
	if errors.Is(err, context.DeadlineExceeded) && waitCtx.Err() != nil {
		return nil, fmt.Errorf("%w after %s", ErrResolutionTimeout, p.opts.ResolveTimeout)
	}
	return nil, err
}

func (p *Processor) lookupAll(ctx context.Context, batchID string, urls []string) ([]*tracker.Issue, error) {
	deps := make([]*tracker.Issue, 0, len(urls))
	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		issue, err := p.client.GetIssue(ctx, u)
		switch {
		case errors.Is(err, tracker.ErrNotFound):
			p.log.Warnf("batch %s: failed to find dependency issue %s", batchID, u)
			continue
		case err != nil:
			return nil, fmt.Errorf("lookup %s: %w", u, err)
		case issue == nil:
			p.log.Warnf("batch %s: tracker returned no issue for %s", batchID, u)
			continue
		}
		deps = append(deps, issue)
	}
	return deps, nil
}
