package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"payloadmedic/internal/evaluator"
	"payloadmedic/internal/logging"
	"payloadmedic/internal/pool"
	"payloadmedic/internal/tracker"
)

// Processor turns dependency issues into evaluation records. It owns a retrieval
// pool for resolving a payload tracker's dependencies and an evaluation pool for
// running the evaluator chain over each dependency. One batch runs at a time.
type Processor struct {
	client     tracker.Client
	evaluators []evaluator.Evaluator
	opts       Options
	log        *logging.Logger

	pools  *pool.Manager
	slot   *semaphore.Weighted
	closed atomic.Bool
}

func NewProcessor(client tracker.Client, evaluators []evaluator.Evaluator, opts Options, log *logging.Logger) (*Processor, error) {
	if client == nil {
		return nil, errors.New("tracker client is nil")
	}
	for i, e := range evaluators {
		if e == nil {
			return nil, fmt.Errorf("evaluator %d is nil", i)
		}
	}
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Nop()
	}
	pools, err := pool.NewManager(opts.Workers, opts.QueueSize, log)
	if err != nil {
		return nil, err
	}
	return &Processor{
		client:     client,
		evaluators: slices.Clone(evaluators),
		opts:       opts,
		log:        log.Named("engine"),
		pools:      pools,
		slot:       semaphore.NewWeighted(1),
	}, nil
}

// Options returns the effective options, defaults applied.
func (p *Processor) Options() Options { return p.opts }

// ProcessTransitive resolves the dependencies declared by parent and evaluates each
// of them. Dependencies that cannot be found or evaluated are left out of the result;
// a resolution that fails or times out yields an empty result. The returned error is
// always a *ProcessingError.
func (p *Processor) ProcessTransitive(ctx context.Context, parent *tracker.Issue, stream tracker.Stream) ([]evaluator.Record, error) {
	if parent == nil {
		return nil, &ProcessingError{Op: OpTransitive, Err: errors.New("payload tracker is nil")}
	}
	release, err := p.enter(ctx, p.opts.TransitiveAccessTimeout)
	if err != nil {
		return nil, &ProcessingError{Op: OpTransitive, Subject: parent.URL, Err: err}
	}
	defer release()
	defer p.releaseRetrieval()

	id := BatchID(ctx)
	p.log.Infof("batch %s: processing dependencies of %s for %s", id, parent.URL, stream)

	deps, err := p.resolve(ctx, id, parent)
	if err != nil {
		var pe *ProcessingError
		if errors.As(err, &pe) {
			return nil, err
		}
		p.log.Warnf("batch %s: failed to retrieve dependencies of %s: %v", id, parent.URL, err)
		deps = nil
	}
	if limit := p.opts.MaxIssues; limit > 0 && len(deps) > limit {
		p.log.Infof("batch %s: limiting %d dependencies to %d", id, len(deps), limit)
		deps = deps[:limit]
	}

	tasks := make([]evaluationTask, 0, len(deps))
	for _, dep := range deps {
		tasks = append(tasks, p.newTask(id, evaluator.NewTransitiveContext(dep, parent, p.opts.TransitiveTracker, stream)))
	}
	records, err := p.processBatch(ctx, id, tasks)
	if err != nil {
		return nil, err
	}
	p.log.Infof("batch %s: %d/%d dependencies of %s evaluated", id, len(records), len(parent.DependsOn), parent.URL)
	return records, nil
}

// ProcessExplicit evaluates deps against fixVersion. Nil entries are skipped.
func (p *Processor) ProcessExplicit(ctx context.Context, fixVersion string, deps []*tracker.Issue, stream tracker.Stream) ([]evaluator.Record, error) {
	release, err := p.enter(ctx, p.opts.ExplicitAccessTimeout)
	if err != nil {
		return nil, &ProcessingError{Op: OpExplicit, Subject: fixVersion, Err: err}
	}
	defer release()

	id := BatchID(ctx)
	p.log.Infof("batch %s: processing %d issues for fix version %s on %s", id, len(deps), fixVersion, stream)

	tasks := make([]evaluationTask, 0, len(deps))
	for i, dep := range deps {
		if dep == nil {
			p.log.Warnf("batch %s: skipping nil issue at position %d", id, i)
			continue
		}
		tasks = append(tasks, p.newTask(id, evaluator.NewExplicitContext(dep, fixVersion, p.opts.ExplicitTracker, stream)))
	}
	records, err := p.processBatch(ctx, id, tasks)
	if err != nil {
		return nil, err
	}
	p.log.Infof("batch %s: %d/%d issues for fix version %s evaluated", id, len(records), len(deps), fixVersion)
	return records, nil
}

// Close waits for a running batch, bounded by ctx, and releases both pools. Calls
// made after Close fail with ErrClosed.
func (p *Processor) Close(ctx context.Context) error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := p.slot.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("close processor: %w", err)
	}
	defer p.slot.Release(1)
	return p.pools.Close(ctx)
}

func (p *Processor) enter(ctx context.Context, timeout time.Duration) (func(), error) {
	if ctx == nil {
		return nil, errors.New("nil context")
	}
	if p.closed.Load() {
		return nil, ErrClosed
	}
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := p.slot.Acquire(actx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w (waited %s)", ErrBusy, timeout)
	}
	if p.closed.Load() {
		p.slot.Release(1)
		return nil, ErrClosed
	}
	return func() { p.slot.Release(1) }, nil
}

func (p *Processor) newTask(batchID string, ec *evaluator.Context) evaluationTask {
	return evaluationTask{
		batchID:    batchID,
		ec:         ec,
		evaluators: p.evaluators,
		log:        p.log,
	}
}

func (p *Processor) releaseRetrieval() {
	ctx, cancel := context.WithTimeout(context.Background(), p.opts.DrainTimeout)
	defer cancel()
	if err := p.pools.ReleaseRetrieval(ctx); err != nil {
		p.log.Warnf("%v", err)
	}
}

func (p *Processor) releaseEvaluation(batchID string) {
	ctx, cancel := context.WithTimeout(context.Background(), p.opts.DrainTimeout)
	defer cancel()
	if err := p.pools.ReleaseEvaluation(ctx); err != nil {
		p.log.Warnf("batch %s: %v", batchID, err)
	}
}

type batchIDKey struct{}

// WithBatchID makes the next batch started with ctx log under id.
func WithBatchID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, batchIDKey{}, id)
}

// BatchID returns the id set by WithBatchID, or a new random one.
func BatchID(ctx context.Context) string {
	if ctx != nil {
		if id, ok := ctx.Value(batchIDKey{}).(string); ok && id != "" {
			return id
		}
	}
	return uuid.NewString()
}
