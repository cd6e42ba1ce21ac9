package engine

import (
	"laundrycore/pkg/domain"
)

// DefaultMinutesPerStop is the per-stop travel estimate used when no
// override is configured.
const DefaultMinutesPerStop = 15

// RouteAssigner builds timed delivery routes from a driver's assignment set.
// Stops follow assignment order; the i-th stop (zero-based) is estimated at
// minutesPerStop*(i+1) minutes from departure.
type RouteAssigner struct {
	minutesPerStop int
}

// NewRouteAssigner constructs an assigner. Non-positive minutesPerStop falls
// back to DefaultMinutesPerStop.
func NewRouteAssigner(minutesPerStop int) *RouteAssigner {
	if minutesPerStop <= 0 {
		minutesPerStop = DefaultMinutesPerStop
	}
	return &RouteAssigner{minutesPerStop: minutesPerStop}
}

// MinutesPerStop returns the configured per-stop estimate.
func (a *RouteAssigner) MinutesPerStop() int {
	return a.minutesPerStop
}

// BuildRoute derives a pending route for the driver's current assignments,
// resolving each order's delivery address from orders. It returns nil when
// the driver has no assigned orders. Orders missing from the lookup still
// produce a stop with an empty address; the assignment set is authoritative.
func (a *RouteAssigner) BuildRoute(driver domain.Driver, orders map[string]domain.Order) *domain.DeliveryRoute {
	if len(driver.AssignedOrders) == 0 {
		return nil
	}

	stops := make([]domain.RouteStop, 0, len(driver.AssignedOrders))
	assigned := make([]string, 0, len(driver.AssignedOrders))
	total := 0
	for i, orderID := range driver.AssignedOrders {
		estimate := a.minutesPerStop * (i + 1)
		total += estimate
		stop := domain.RouteStop{OrderID: orderID, EstimatedMinutes: estimate}
		if order, ok := orders[orderID]; ok {
			stop.Address = order.DeliveryAddress
		}
		stops = append(stops, stop)
		assigned = append(assigned, orderID)
	}

	return &domain.DeliveryRoute{
		Base:             domain.Base{TenantID: driver.TenantID},
		DriverID:         driver.ID,
		Orders:           assigned,
		Stops:            stops,
		Status:           domain.RoutePending,
		EstimatedMinutes: total,
	}
}
