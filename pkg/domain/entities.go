// Package domain defines the persistent entities, value types, typed patches,
// and rule evaluation primitives used by laundrycore. Every entity is scoped
// to a tenant; the engine trusts the caller-supplied tenant id and performs no
// isolation beyond filtering.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityOrder identifies a customer order record.
	EntityOrder EntityType = "order"
	// EntityInventoryItem identifies an inventory item record.
	EntityInventoryItem EntityType = "inventory_item"
	// EntityDriver identifies a delivery driver record.
	EntityDriver EntityType = "driver"
	// EntityRoute identifies a delivery route record.
	EntityRoute EntityType = "route"
)

// OrderStatus represents the canonical order workflow states.
type OrderStatus string

// Canonical order statuses used for dashboards and revenue aggregation.
const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusProcessing     OrderStatus = "processing"
	OrderStatusReady          OrderStatus = "ready"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// DriverStatus enumerates driver availability states.
type DriverStatus string

// Canonical driver statuses. A driver with assigned orders is busy; the
// assignment methods maintain this, external updates are only flagged by the
// driver consistency rule.
const (
	DriverAvailable DriverStatus = "available"
	DriverBusy      DriverStatus = "busy"
	DriverOffline   DriverStatus = "offline"
)

// RouteStatus enumerates delivery route lifecycle states.
type RouteStatus string

// Route statuses transition pending -> in_progress -> completed, only via
// explicit route updates.
const (
	RoutePending    RouteStatus = "pending"
	RouteInProgress RouteStatus = "in_progress"
	RouteCompleted  RouteStatus = "completed"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrderItem is a single ordered line: a priced quantity of a service item.
type OrderItem struct {
	ItemID    string  `json:"item_id"`
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Service   string  `json:"service"`
}

// Order represents a customer order with its priced line items and totals.
// The engine does not recompute totals on read; callers supply a consistent
// breakdown and the order total rule blocks commits that violate
// Total == Subtotal + Tax + ServiceCharge - Discount.
type Order struct {
	Base
	CustomerID      string      `json:"customer_id"`
	CustomerName    string      `json:"customer_name"`
	CustomerPhone   string      `json:"customer_phone"`
	Items           []OrderItem `json:"items"`
	Subtotal        float64     `json:"subtotal"`
	Tax             float64     `json:"tax"`
	Discount        float64     `json:"discount"`
	ServiceCharge   float64     `json:"service_charge"`
	Total           float64     `json:"total"`
	PaymentMethod   string      `json:"payment_method"`
	ServiceType     string      `json:"service_type"`
	PickupAt        time.Time   `json:"pickup_at"`
	DeliveryAddress string      `json:"delivery_address"`
	Notes           string      `json:"notes"`
	Status          OrderStatus `json:"status"`
}

// TotalsConsistent reports whether the order's total matches its breakdown
// within a half-cent tolerance.
func (o Order) TotalsConsistent() bool {
	diff := o.Total - (o.Subtotal + o.Tax + o.ServiceCharge - o.Discount)
	return diff < 0.005 && diff > -0.005
}

// InventoryItem tracks a stocked supply and its per-service enablement flags.
// CurrentStock never goes negative; stock movements clamp at zero.
type InventoryItem struct {
	Base
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	CurrentStock  float64         `json:"current_stock"`
	ReorderLevel  float64         `json:"reorder_level"`
	Unit          string          `json:"unit"`
	LastRestockAt time.Time       `json:"last_restock_at"`
	CostPerUnit   float64         `json:"cost_per_unit"`
	Supplier      string          `json:"supplier"`
	ServiceFlags  map[string]bool `json:"service_flags"`
}

// DefaultServiceFlags returns the enablement map assumed for records stored
// before per-service flags existed.
func DefaultServiceFlags() map[string]bool {
	return map[string]bool{
		"wash_and_fold": true,
		"dry_cleaning":  false,
		"ironing":       false,
	}
}

// LowStock reports whether the item is at or below its reorder level.
func (i InventoryItem) LowStock() bool {
	return i.CurrentStock <= i.ReorderLevel
}

// GeoPoint is a driver's last reported position.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Driver represents a delivery driver and the ordered set of orders currently
// assigned to them. AssignedOrders holds order ids in assignment order with no
// duplicates.
type Driver struct {
	Base
	Name            string       `json:"name"`
	Phone           string       `json:"phone"`
	Email           string       `json:"email"`
	Status          DriverStatus `json:"status"`
	AssignedOrders  []string     `json:"assigned_orders"`
	VehicleInfo     string       `json:"vehicle_info"`
	CurrentLocation *GeoPoint    `json:"current_location,omitempty"`
}

// RouteStop is one entry in a route's ordered stop sequence.
type RouteStop struct {
	OrderID          string `json:"order_id"`
	Address          string `json:"address"`
	EstimatedMinutes int    `json:"estimated_minutes"`
}

// DeliveryRoute is an immutable snapshot of a driver's assignment set with a
// timed stop sequence. Orders and Stops never change after creation;
// re-assignment requires a new route.
type DeliveryRoute struct {
	Base
	DriverID         string      `json:"driver_id"`
	Orders           []string    `json:"orders"`
	Stops            []RouteStop `json:"stops"`
	Status           RouteStatus `json:"status"`
	EstimatedMinutes int         `json:"estimated_minutes"`
	ActualMinutes    *int        `json:"actual_minutes,omitempty"`
	StartedAt        *time.Time  `json:"started_at,omitempty"`
	CompletedAt      *time.Time  `json:"completed_at,omitempty"`
}

// OrderStats aggregates per-status counts and revenue for a tenant. Revenue
// sums the totals of orders that are not cancelled.
type OrderStats struct {
	Total    int                 `json:"total"`
	ByStatus map[OrderStatus]int `json:"by_status"`
	Revenue  float64             `json:"revenue"`
}

// DriverStats aggregates driver availability for a tenant.
type DriverStats struct {
	Total          int `json:"total"`
	Available      int `json:"available"`
	Busy           int `json:"busy"`
	Offline        int `json:"offline"`
	AssignedOrders int `json:"assigned_orders"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured for rules.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
