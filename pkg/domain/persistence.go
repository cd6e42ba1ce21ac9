package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateOrder(Order) (Order, error)
	UpdateOrder(id string, patch OrderPatch) (Order, error)
	DeleteOrder(id string) error
	CreateInventoryItem(InventoryItem) (InventoryItem, error)
	UpdateInventoryItem(id string, patch InventoryPatch) (InventoryItem, error)
	DeleteInventoryItem(id string) error
	AdjustStock(id string, delta float64) (InventoryItem, error)
	ReplaceInventory(tenantID string, items []InventoryItem) ([]InventoryItem, error)
	CreateDriver(Driver) (Driver, error)
	UpdateDriver(id string, patch DriverPatch) (Driver, error)
	DeleteDriver(id string) error
	AssignOrders(driverID string, orderIDs []string) (Driver, error)
	CreateRoute(DeliveryRoute) (DeliveryRoute, error)
	UpdateRoute(id string, patch RoutePatch) (DeliveryRoute, error)
	FindOrder(id string) (Order, bool)
	FindInventoryItem(id string) (InventoryItem, bool)
	FindDriver(id string) (Driver, bool)
	FindRoute(id string) (DeliveryRoute, bool)
}

// TransactionView provides read-only access to snapshot data for rules and
// in-transaction reference checks.
type TransactionView interface {
	ListOrders(tenantID string) []Order
	ListInventory(tenantID string) []InventoryItem
	ListDrivers(tenantID string) []Driver
	ListRoutes(tenantID string) []DeliveryRoute
	FindOrder(id string) (Order, bool)
	FindInventoryItem(id string) (InventoryItem, bool)
	FindDriver(id string) (Driver, bool)
	FindRoute(id string) (DeliveryRoute, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetOrder(id string) (Order, bool)
	ListOrders(tenantID string) []Order
	GetInventoryItem(id string) (InventoryItem, bool)
	ListInventory(tenantID string) []InventoryItem
	GetDriver(id string) (Driver, bool)
	ListDrivers(tenantID string) []Driver
	GetRoute(id string) (DeliveryRoute, bool)
	ListRoutes(tenantID string) []DeliveryRoute
}
