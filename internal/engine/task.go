package engine

import (
	"context"
	"runtime/debug"

	"payloadmedic/internal/evaluator"
	"payloadmedic/internal/logging"
	"payloadmedic/internal/pool"
)

// evaluationTask runs the evaluator chain over one dependency issue.
type evaluationTask struct {
	batchID    string
	ec         *evaluator.Context
	evaluators []evaluator.Evaluator
	log        *logging.Logger
}

func (t evaluationTask) issueURL() string {
	if issue := t.ec.Issue(); issue != nil {
		return issue.URL
	}
	return ""
}

// run applies every evaluator in chain order to a fresh record. The first evaluator
// error or panic discards the record. A cancelled ctx stops the chain between
// evaluators and is returned as is.
func (t evaluationTask) run(ctx context.Context) (rec evaluator.Record, err error) {
	url := t.issueURL()
	current := ""
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			err = &TaskError{Issue: url, Evaluator: current, Err: &pool.PanicError{Value: r, Stack: debug.Stack()}}
		}
	}()

	rec = evaluator.Record{}
	for _, e := range t.evaluators {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current = e.ID()
		t.log.Debugf("batch %s: issue %s is applying evaluator %s", t.batchID, url, e.Name())
		if err := e.Eval(ctx, t.ec, rec); err != nil {
			return nil, &TaskError{Issue: url, Evaluator: e.ID(), Err: err}
		}
	}
	return rec, nil
}
