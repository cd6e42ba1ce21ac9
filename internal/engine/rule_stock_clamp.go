package engine

import (
	"context"
	"fmt"

	"laundrycore/pkg/domain"
)

// stockClampRule observes stock movements that were clamped at zero. The
// clamp itself happens in the transaction; this rule only leaves an audit
// trail for reporting.
type stockClampRule struct{}

func (stockClampRule) Name() string { return "stock_clamped_at_zero" }

func (stockClampRule) Evaluate(_ context.Context, _ RuleView, changes []Change) (Result, error) {
	var result Result
	for _, change := range changes {
		if change.Entity != domain.EntityInventoryItem || change.Action != domain.ActionUpdate {
			continue
		}
		after, ok := change.After.(InventoryItem)
		if !ok || after.CurrentStock != 0 {
			continue
		}
		before, ok := change.Before.(InventoryItem)
		if !ok || before.CurrentStock == 0 {
			continue
		}
		result.Violations = append(result.Violations, Violation{
			Rule:     "stock_clamped_at_zero",
			Severity: SeverityLog,
			Message:  fmt.Sprintf("stock for %q reached zero", after.Name),
			Entity:   domain.EntityInventoryItem,
			EntityID: after.ID,
		})
	}
	return result, nil
}
