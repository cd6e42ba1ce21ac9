package domain

import (
	"context"
	"errors"
	"testing"
)

type staticRule struct {
	name       string
	violations []Violation
	err        error
}

func (r staticRule) Name() string { return r.name }

func (r staticRule) Evaluate(context.Context, RuleView, []Change) (Result, error) {
	return Result{Violations: r.violations}, r.err
}

func TestRulesEngineAggregates(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(staticRule{name: "warn", violations: []Violation{{Rule: "warn", Severity: SeverityWarn}}})
	engine.Register(staticRule{name: "clean"})
	engine.Register(staticRule{name: "block", violations: []Violation{{Rule: "block", Severity: SeverityBlock}}})

	res, err := engine.Evaluate(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 2 {
		t.Fatalf("expected aggregated violations, got %v", res.Violations)
	}
	if !res.HasBlocking() {
		t.Fatalf("expected blocking result")
	}
}

func TestRulesEngineStopsOnError(t *testing.T) {
	boom := errors.New("rule exploded")
	engine := NewRulesEngine()
	engine.Register(staticRule{name: "ok", violations: []Violation{{Rule: "ok", Severity: SeverityLog}}})
	engine.Register(staticRule{name: "broken", err: boom})

	res, err := engine.Evaluate(context.Background(), nil, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected rule error surfaced, got %v", err)
	}
	if len(res.Violations) != 0 {
		t.Fatalf("expected empty result on error, got %v", res.Violations)
	}
}

func TestRulesEngineEmpty(t *testing.T) {
	res, err := NewRulesEngine().Evaluate(context.Background(), nil, nil)
	if err != nil || len(res.Violations) != 0 {
		t.Fatalf("expected clean empty evaluation, got %v %v", res, err)
	}
}
