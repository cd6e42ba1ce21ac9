package domain

import "time"

// Normalization reconciles records read from older stored shapes with the
// current schema: zero timestamps become now, absent per-service flags get
// the historical default, and list fields are deduplicated. Every load path
// (gateway reads, snapshot import) runs these before the record is visible.

// Normalize backfills an order loaded from durable storage.
func (o *Order) Normalize(now time.Time) {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = o.CreatedAt
	}
	if o.PickupAt.IsZero() {
		o.PickupAt = o.CreatedAt
	}
	if o.Status == "" {
		o.Status = OrderStatusPending
	}
}

// Normalize backfills an inventory item loaded from durable storage.
func (i *InventoryItem) Normalize(now time.Time) {
	if i.CreatedAt.IsZero() {
		i.CreatedAt = now
	}
	if i.UpdatedAt.IsZero() {
		i.UpdatedAt = i.CreatedAt
	}
	if i.LastRestockAt.IsZero() {
		i.LastRestockAt = i.CreatedAt
	}
	if i.CurrentStock < 0 {
		i.CurrentStock = 0
	}
	if i.ServiceFlags == nil {
		i.ServiceFlags = DefaultServiceFlags()
	}
}

// Normalize backfills a driver loaded from durable storage.
func (d *Driver) Normalize(now time.Time) {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = d.CreatedAt
	}
	if d.Status == "" {
		d.Status = DriverAvailable
	}
	d.AssignedOrders = dedupeStrings(d.AssignedOrders)
}

// Normalize backfills a delivery route loaded from durable storage.
func (r *DeliveryRoute) Normalize(now time.Time) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = r.CreatedAt
	}
	if r.Status == "" {
		r.Status = RoutePending
	}
}

func dedupeStrings(values []string) []string {
	if len(values) <= 1 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
