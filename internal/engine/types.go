// Package engine hosts the operational core: the service facade, the
// operation runner, route assignment and the registered business rules.
package engine

import "laundrycore/pkg/domain"

// Re-exported domain types so engine code and rule implementations read
// without the package qualifier.
type (
	Order         = domain.Order
	OrderItem     = domain.OrderItem
	InventoryItem = domain.InventoryItem
	Driver        = domain.Driver
	DeliveryRoute = domain.DeliveryRoute
	RouteStop     = domain.RouteStop
	OrderStats    = domain.OrderStats
	DriverStats   = domain.DriverStats

	Change    = domain.Change
	Violation = domain.Violation
	Result    = domain.Result
	RuleView  = domain.RuleView
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)
