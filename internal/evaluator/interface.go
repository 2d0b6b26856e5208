package evaluator

import (
	"context"
)

// Record collects the values evaluators produce for one dependency issue. Evaluators
// write in chain order; a later evaluator writing an existing key overwrites it.
type Record map[string]any

type Evaluator interface {
	// ID is the stable identifier used in selectors (e.g. "severity").
	ID() string
	// Name is a human-readable label used in logs and listings.
	Name() string

	// Eval inspects ec and writes zero or more entries into rec.
	// Evaluators MUST NOT call tracker APIs; everything they need is on ec.
	Eval(ctx context.Context, ec *Context, rec Record) error
}

// Described is implemented by evaluators that document the keys they write.
type Described interface {
	Description() string
	Keys() []string
}

type EvalFunc func(ctx context.Context, ec *Context, rec Record) error

type funcEvaluator struct {
	id   string
	name string
	fn   EvalFunc
}

// New adapts fn to an Evaluator.
func New(id, name string, fn EvalFunc) Evaluator {
	return &funcEvaluator{id: id, name: name, fn: fn}
}

func (f *funcEvaluator) ID() string   { return f.id }
func (f *funcEvaluator) Name() string { return f.name }

func (f *funcEvaluator) Eval(ctx context.Context, ec *Context, rec Record) error {
	return f.fn(ctx, ec, rec)
}
