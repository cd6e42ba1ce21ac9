package engine

import (
	"context"

	"laundrycore/pkg/domain"
)

// orderTotalsRule blocks commits that would store an order whose total does
// not match its subtotal/tax/charge/discount breakdown.
type orderTotalsRule struct{}

func (orderTotalsRule) Name() string { return "order_totals_consistent" }

func (orderTotalsRule) Evaluate(_ context.Context, _ RuleView, changes []Change) (Result, error) {
	var result Result
	for _, change := range changes {
		if change.Entity != domain.EntityOrder || change.Action == domain.ActionDelete {
			continue
		}
		order, ok := change.After.(Order)
		if !ok {
			continue
		}
		if order.TotalsConsistent() {
			continue
		}
		result.Violations = append(result.Violations, Violation{
			Rule:     "order_totals_consistent",
			Severity: SeverityBlock,
			Message:  "order total does not match subtotal + tax + service charge - discount",
			Entity:   domain.EntityOrder,
			EntityID: order.ID,
		})
	}
	return result, nil
}
