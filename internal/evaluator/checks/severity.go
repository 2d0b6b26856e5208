package checks

import (
	"context"
	"strings"

	"payloadmedic/internal/evaluator"
)

const unspecifiedSeverity = "unspecified"

type SeverityEvaluator struct{}

func (e *SeverityEvaluator) ID() string   { return "severity" }
func (e *SeverityEvaluator) Name() string { return "Severity Evaluator" }

func (e *SeverityEvaluator) Description() string {
	return "Severity of the dependency from severity/<x> labels, falling back to priority/<x>."
}

func (e *SeverityEvaluator) Keys() []string { return []string{"severity"} }

func (e *SeverityEvaluator) Eval(ctx context.Context, ec *evaluator.Context, rec evaluator.Record) error {
	var priority string
	for _, l := range ec.Issue().Labels {
		l = strings.ToLower(strings.TrimSpace(l))
		if v, ok := strings.CutPrefix(l, "severity/"); ok && v != "" {
			rec["severity"] = v
			return nil
		}
		if v, ok := strings.CutPrefix(l, "priority/"); ok && v != "" && priority == "" {
			priority = v
		}
	}
	if priority != "" {
		rec["severity"] = priority
		return nil
	}
	rec["severity"] = unspecifiedSeverity
	return nil
}
