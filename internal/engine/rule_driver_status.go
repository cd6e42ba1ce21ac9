package engine

import (
	"context"
	"fmt"

	"laundrycore/pkg/domain"
)

// driverStatusRule warns when a driver's status disagrees with their
// assignment set: assigned orders with a non-busy status, or busy with none.
// The assignment methods keep the two consistent; external updates only get
// flagged, never rejected.
type driverStatusRule struct{}

func (driverStatusRule) Name() string { return "driver_status_consistent" }

func (driverStatusRule) Evaluate(_ context.Context, _ RuleView, changes []Change) (Result, error) {
	var result Result
	for _, change := range changes {
		if change.Entity != domain.EntityDriver || change.Action == domain.ActionDelete {
			continue
		}
		driver, ok := change.After.(Driver)
		if !ok {
			continue
		}
		assigned := len(driver.AssignedOrders)
		if assigned > 0 && driver.Status != domain.DriverBusy {
			result.Violations = append(result.Violations, Violation{
				Rule:     "driver_status_consistent",
				Severity: SeverityWarn,
				Message:  fmt.Sprintf("driver has %d assigned orders but status %q", assigned, driver.Status),
				Entity:   domain.EntityDriver,
				EntityID: driver.ID,
			})
		}
		if assigned == 0 && driver.Status == domain.DriverBusy {
			result.Violations = append(result.Violations, Violation{
				Rule:     "driver_status_consistent",
				Severity: SeverityWarn,
				Message:  "driver is busy with no assigned orders",
				Entity:   domain.EntityDriver,
				EntityID: driver.ID,
			})
		}
	}
	return result, nil
}
