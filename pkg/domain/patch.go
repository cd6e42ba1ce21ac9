package domain

import "time"

// Typed patches name the set of fields each entity allows through Update.
// A nil field leaves the current value untouched; fields outside the patch
// type cannot be changed at all, which replaces ad-hoc map merging with an
// explicit boundary.

// OrderPatch enumerates the updatable fields of an Order.
type OrderPatch struct {
	CustomerID      *string
	CustomerName    *string
	CustomerPhone   *string
	Items           []OrderItem
	Subtotal        *float64
	Tax             *float64
	Discount        *float64
	ServiceCharge   *float64
	Total           *float64
	PaymentMethod   *string
	ServiceType     *string
	PickupAt        *time.Time
	DeliveryAddress *string
	Notes           *string
	Status          *OrderStatus
}

// Apply merges the patch into the order.
func (p OrderPatch) Apply(o *Order) {
	setString(&o.CustomerID, p.CustomerID)
	setString(&o.CustomerName, p.CustomerName)
	setString(&o.CustomerPhone, p.CustomerPhone)
	if p.Items != nil {
		o.Items = append([]OrderItem(nil), p.Items...)
	}
	setFloat(&o.Subtotal, p.Subtotal)
	setFloat(&o.Tax, p.Tax)
	setFloat(&o.Discount, p.Discount)
	setFloat(&o.ServiceCharge, p.ServiceCharge)
	setFloat(&o.Total, p.Total)
	setString(&o.PaymentMethod, p.PaymentMethod)
	setString(&o.ServiceType, p.ServiceType)
	if p.PickupAt != nil {
		o.PickupAt = *p.PickupAt
	}
	setString(&o.DeliveryAddress, p.DeliveryAddress)
	setString(&o.Notes, p.Notes)
	if p.Status != nil {
		o.Status = *p.Status
	}
}

// InventoryPatch enumerates the updatable fields of an InventoryItem. Stock
// levels move through AdjustStock, not through the patch, so clamping stays in
// one place.
type InventoryPatch struct {
	Name         *string
	Category     *string
	ReorderLevel *float64
	Unit         *string
	CostPerUnit  *float64
	Supplier     *string
	ServiceFlags map[string]bool
}

// Apply merges the patch into the item.
func (p InventoryPatch) Apply(i *InventoryItem) {
	setString(&i.Name, p.Name)
	setString(&i.Category, p.Category)
	setFloat(&i.ReorderLevel, p.ReorderLevel)
	setString(&i.Unit, p.Unit)
	setFloat(&i.CostPerUnit, p.CostPerUnit)
	setString(&i.Supplier, p.Supplier)
	if p.ServiceFlags != nil {
		flags := make(map[string]bool, len(p.ServiceFlags))
		for k, v := range p.ServiceFlags {
			flags[k] = v
		}
		i.ServiceFlags = flags
	}
}

// DriverPatch enumerates the updatable fields of a Driver. AssignedOrders is
// deliberately absent: assignment goes through the route assigner so the set
// stays duplicate-free and status stays consistent.
type DriverPatch struct {
	Name            *string
	Phone           *string
	Email           *string
	Status          *DriverStatus
	VehicleInfo     *string
	CurrentLocation *GeoPoint
	ClearLocation   bool
}

// Apply merges the patch into the driver.
func (p DriverPatch) Apply(d *Driver) {
	setString(&d.Name, p.Name)
	setString(&d.Phone, p.Phone)
	setString(&d.Email, p.Email)
	if p.Status != nil {
		d.Status = *p.Status
	}
	setString(&d.VehicleInfo, p.VehicleInfo)
	if p.ClearLocation {
		d.CurrentLocation = nil
	} else if p.CurrentLocation != nil {
		loc := *p.CurrentLocation
		d.CurrentLocation = &loc
	}
}

// RoutePatch enumerates the updatable fields of a DeliveryRoute. Orders and
// Stops are immutable after creation and have no patch fields.
type RoutePatch struct {
	Status        *RouteStatus
	ActualMinutes *int
}

// Apply merges the patch into the route. Status transition legality is
// enforced by the transaction, not here.
func (p RoutePatch) Apply(r *DeliveryRoute) {
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.ActualMinutes != nil {
		m := *p.ActualMinutes
		r.ActualMinutes = &m
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}
