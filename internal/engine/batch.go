package engine

import (
	"context"
	"errors"
	"fmt"

	"payloadmedic/internal/evaluator"
	"payloadmedic/internal/pool"
)

// processBatch runs every task on the evaluation pool and collects the successful
// records in submission order. Tasks still unfinished when BatchTimeout expires are
// cancelled and left out, as are tasks that failed. The evaluation pool is released
// before returning.
func (p *Processor) processBatch(ctx context.Context, batchID string, tasks []evaluationTask) ([]evaluator.Record, error) {
	if len(tasks) == 0 {
		return []evaluator.Record{}, nil
	}

	ep, err := p.pools.Evaluation()
	if err != nil {
		return nil, &ProcessingError{Op: OpBatch, Subject: batchID, Err: err}
	}
	defer p.releaseEvaluation(batchID)

	batchCtx, cancel := context.WithTimeout(ctx, p.opts.BatchTimeout)
	defer cancel()

	futures := make([]*pool.Future[evaluator.Record], 0, len(tasks))
	for _, t := range tasks {
		f, err := pool.Submit(batchCtx, ep, t.run)
		if err != nil {
			cancelAll(futures)
			return nil, &ProcessingError{Op: OpBatch, Subject: batchID, Err: fmt.Errorf("submit %s: %w", t.issueURL(), err)}
		}
		futures = append(futures, f)
	}

	records := make([]evaluator.Record, 0, len(tasks))
	for i, f := range futures {
		rec, err := f.Wait(batchCtx)
		if err == nil {
			records = append(records, rec)
			continue
		}
		if ctx.Err() != nil {
			cancelAll(futures[i:])
			return nil, &ProcessingError{Op: OpBatch, Subject: batchID, Err: ctx.Err()}
		}

		url := tasks[i].issueURL()
		var te *TaskError
		switch {
		case errors.As(err, &te):
			p.log.Warnf("batch %s: %v", batchID, err)
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			f.Cancel()
			p.log.Warnf("batch %s: unfinished evaluation of %s cancelled after %s", batchID, url, p.opts.BatchTimeout)
		default:
			p.log.Warnf("batch %s: evaluation of %s failed: %v", batchID, url, err)
		}
	}
	return records, nil
}

func cancelAll[T any](futures []*pool.Future[T]) {
	for _, f := range futures {
		f.Cancel()
	}
}
