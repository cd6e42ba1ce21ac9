package memory

import (
	"time"

	"laundrycore/pkg/domain"
)

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// FindOrder exposes order lookup within the transaction scope.
func (tx *transaction) FindOrder(id string) (Order, bool) {
	o, ok := tx.state.orders[id]
	if !ok {
		return Order{}, false
	}
	return cloneOrder(o), true
}

// FindInventoryItem exposes inventory lookup within the transaction scope.
func (tx *transaction) FindInventoryItem(id string) (InventoryItem, bool) {
	i, ok := tx.state.inventory[id]
	if !ok {
		return InventoryItem{}, false
	}
	return cloneInventoryItem(i), true
}

// FindDriver exposes driver lookup within the transaction scope.
func (tx *transaction) FindDriver(id string) (Driver, bool) {
	d, ok := tx.state.drivers[id]
	if !ok {
		return Driver{}, false
	}
	return cloneDriver(d), true
}

// FindRoute exposes route lookup within the transaction scope.
func (tx *transaction) FindRoute(id string) (DeliveryRoute, bool) {
	r, ok := tx.state.routes[id]
	if !ok {
		return DeliveryRoute{}, false
	}
	return cloneRoute(r), true
}

// CreateOrder validates and stores a new order within the transaction.
func (tx *transaction) CreateOrder(o Order) (Order, error) {
	if o.TenantID == "" {
		return Order{}, domain.ValidationError{Entity: domain.EntityOrder, Field: "tenant_id", Reason: "required"}
	}
	if o.CustomerName == "" {
		return Order{}, domain.ValidationError{Entity: domain.EntityOrder, Field: "customer_name", Reason: "required"}
	}
	if len(o.Items) == 0 {
		return Order{}, domain.ValidationError{Entity: domain.EntityOrder, Field: "items", Reason: "must not be empty"}
	}
	if o.ID == "" {
		o.ID = tx.store.newID()
	}
	if _, exists := tx.state.orders[o.ID]; exists {
		return Order{}, domain.ConflictError{Entity: domain.EntityOrder, ID: o.ID}
	}
	if o.Status == "" {
		o.Status = domain.OrderStatusPending
	}
	o.CreatedAt = tx.now
	o.UpdatedAt = tx.now
	tx.state.orders[o.ID] = cloneOrder(o)
	tx.recordChange(Change{Entity: domain.EntityOrder, Action: domain.ActionCreate, After: cloneOrder(o)})
	return cloneOrder(o), nil
}

// UpdateOrder applies a typed patch to an existing order.
func (tx *transaction) UpdateOrder(id string, patch domain.OrderPatch) (Order, error) {
	current, ok := tx.state.orders[id]
	if !ok {
		return Order{}, domain.NotFoundError{Entity: domain.EntityOrder, ID: id}
	}
	before := cloneOrder(current)
	patch.Apply(&current)
	if len(current.Items) == 0 {
		return Order{}, domain.ValidationError{Entity: domain.EntityOrder, Field: "items", Reason: "must not be empty"}
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.orders[id] = cloneOrder(current)
	tx.recordChange(Change{Entity: domain.EntityOrder, Action: domain.ActionUpdate, Before: before, After: cloneOrder(current)})
	return cloneOrder(current), nil
}

// DeleteOrder removes an order and drops it from any driver's assignment set.
func (tx *transaction) DeleteOrder(id string) error {
	current, ok := tx.state.orders[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityOrder, ID: id}
	}
	delete(tx.state.orders, id)
	for driverID, driver := range tx.state.drivers {
		if !containsString(driver.AssignedOrders, id) {
			continue
		}
		kept := make([]string, 0, len(driver.AssignedOrders)-1)
		for _, orderID := range driver.AssignedOrders {
			if orderID != id {
				kept = append(kept, orderID)
			}
		}
		driver.AssignedOrders = kept
		if len(kept) == 0 && driver.Status == domain.DriverBusy {
			driver.Status = domain.DriverAvailable
		}
		driver.UpdatedAt = tx.now
		tx.state.drivers[driverID] = driver
	}
	tx.recordChange(Change{Entity: domain.EntityOrder, Action: domain.ActionDelete, Before: cloneOrder(current)})
	return nil
}

// CreateInventoryItem validates and stores a new inventory item.
func (tx *transaction) CreateInventoryItem(i InventoryItem) (InventoryItem, error) {
	if i.TenantID == "" {
		return InventoryItem{}, domain.ValidationError{Entity: domain.EntityInventoryItem, Field: "tenant_id", Reason: "required"}
	}
	if i.Name == "" {
		return InventoryItem{}, domain.ValidationError{Entity: domain.EntityInventoryItem, Field: "name", Reason: "required"}
	}
	if i.ID == "" {
		i.ID = tx.store.newID()
	}
	if _, exists := tx.state.inventory[i.ID]; exists {
		return InventoryItem{}, domain.ConflictError{Entity: domain.EntityInventoryItem, ID: i.ID}
	}
	if i.CurrentStock < 0 {
		i.CurrentStock = 0
	}
	if i.ServiceFlags == nil {
		i.ServiceFlags = domain.DefaultServiceFlags()
	}
	i.CreatedAt = tx.now
	i.UpdatedAt = tx.now
	if i.LastRestockAt.IsZero() {
		i.LastRestockAt = tx.now
	}
	tx.state.inventory[i.ID] = cloneInventoryItem(i)
	tx.recordChange(Change{Entity: domain.EntityInventoryItem, Action: domain.ActionCreate, After: cloneInventoryItem(i)})
	return cloneInventoryItem(i), nil
}

// UpdateInventoryItem applies a typed patch to an existing item.
func (tx *transaction) UpdateInventoryItem(id string, patch domain.InventoryPatch) (InventoryItem, error) {
	current, ok := tx.state.inventory[id]
	if !ok {
		return InventoryItem{}, domain.NotFoundError{Entity: domain.EntityInventoryItem, ID: id}
	}
	before := cloneInventoryItem(current)
	patch.Apply(&current)
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.inventory[id] = cloneInventoryItem(current)
	tx.recordChange(Change{Entity: domain.EntityInventoryItem, Action: domain.ActionUpdate, Before: before, After: cloneInventoryItem(current)})
	return cloneInventoryItem(current), nil
}

// DeleteInventoryItem removes an item from state.
func (tx *transaction) DeleteInventoryItem(id string) error {
	current, ok := tx.state.inventory[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityInventoryItem, ID: id}
	}
	delete(tx.state.inventory, id)
	tx.recordChange(Change{Entity: domain.EntityInventoryItem, Action: domain.ActionDelete, Before: cloneInventoryItem(current)})
	return nil
}

// AdjustStock moves an item's stock by delta, clamping at zero. Positive
// deltas count as a restock and stamp LastRestockAt.
func (tx *transaction) AdjustStock(id string, delta float64) (InventoryItem, error) {
	current, ok := tx.state.inventory[id]
	if !ok {
		return InventoryItem{}, domain.NotFoundError{Entity: domain.EntityInventoryItem, ID: id}
	}
	before := cloneInventoryItem(current)
	current.CurrentStock += delta
	if current.CurrentStock < 0 {
		current.CurrentStock = 0
	}
	if delta > 0 {
		current.LastRestockAt = tx.now
	}
	current.UpdatedAt = tx.now
	tx.state.inventory[id] = cloneInventoryItem(current)
	tx.recordChange(Change{Entity: domain.EntityInventoryItem, Action: domain.ActionUpdate, Before: before, After: cloneInventoryItem(current)})
	return cloneInventoryItem(current), nil
}

// ReplaceInventory swaps out a tenant's entire inventory collection for the
// provided items (the whole-collection update the inventory screen performs).
func (tx *transaction) ReplaceInventory(tenantID string, items []InventoryItem) ([]InventoryItem, error) {
	if tenantID == "" {
		return nil, domain.ValidationError{Entity: domain.EntityInventoryItem, Field: "tenant_id", Reason: "required"}
	}
	for id, existing := range tx.state.inventory {
		if existing.TenantID == tenantID {
			delete(tx.state.inventory, id)
			tx.recordChange(Change{Entity: domain.EntityInventoryItem, Action: domain.ActionDelete, Before: cloneInventoryItem(existing)})
		}
	}
	out := make([]InventoryItem, 0, len(items))
	for _, item := range items {
		item.TenantID = tenantID
		created, err := tx.CreateInventoryItem(item)
		if err != nil {
			return nil, err
		}
		out = append(out, created)
	}
	return out, nil
}

// CreateDriver validates and stores a new driver.
func (tx *transaction) CreateDriver(d Driver) (Driver, error) {
	if d.TenantID == "" {
		return Driver{}, domain.ValidationError{Entity: domain.EntityDriver, Field: "tenant_id", Reason: "required"}
	}
	if d.Name == "" {
		return Driver{}, domain.ValidationError{Entity: domain.EntityDriver, Field: "name", Reason: "required"}
	}
	if d.ID == "" {
		d.ID = tx.store.newID()
	}
	if _, exists := tx.state.drivers[d.ID]; exists {
		return Driver{}, domain.ConflictError{Entity: domain.EntityDriver, ID: d.ID}
	}
	if d.Status == "" {
		d.Status = domain.DriverAvailable
	}
	d.AssignedOrders = nil
	d.CreatedAt = tx.now
	d.UpdatedAt = tx.now
	tx.state.drivers[d.ID] = cloneDriver(d)
	tx.recordChange(Change{Entity: domain.EntityDriver, Action: domain.ActionCreate, After: cloneDriver(d)})
	return cloneDriver(d), nil
}

// UpdateDriver applies a typed patch to an existing driver. The patch cannot
// touch AssignedOrders; status changes that contradict the assignment set are
// allowed but flagged by the driver consistency rule.
func (tx *transaction) UpdateDriver(id string, patch domain.DriverPatch) (Driver, error) {
	current, ok := tx.state.drivers[id]
	if !ok {
		return Driver{}, domain.NotFoundError{Entity: domain.EntityDriver, ID: id}
	}
	before := cloneDriver(current)
	patch.Apply(&current)
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.drivers[id] = cloneDriver(current)
	tx.recordChange(Change{Entity: domain.EntityDriver, Action: domain.ActionUpdate, Before: before, After: cloneDriver(current)})
	return cloneDriver(current), nil
}

// DeleteDriver removes a driver. Routes referencing the driver survive as
// historical records.
func (tx *transaction) DeleteDriver(id string) error {
	current, ok := tx.state.drivers[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityDriver, ID: id}
	}
	delete(tx.state.drivers, id)
	tx.recordChange(Change{Entity: domain.EntityDriver, Action: domain.ActionDelete, Before: cloneDriver(current)})
	return nil
}

// AssignOrders appends order ids to the driver's assignment set, skipping ids
// already present, and marks the driver busy.
func (tx *transaction) AssignOrders(driverID string, orderIDs []string) (Driver, error) {
	current, ok := tx.state.drivers[driverID]
	if !ok {
		return Driver{}, domain.NotFoundError{Entity: domain.EntityDriver, ID: driverID}
	}
	before := cloneDriver(current)
	for _, orderID := range orderIDs {
		if !containsString(current.AssignedOrders, orderID) {
			current.AssignedOrders = append(current.AssignedOrders, orderID)
		}
	}
	if len(current.AssignedOrders) > 0 {
		current.Status = domain.DriverBusy
	}
	current.UpdatedAt = tx.now
	tx.state.drivers[driverID] = cloneDriver(current)
	tx.recordChange(Change{Entity: domain.EntityDriver, Action: domain.ActionUpdate, Before: before, After: cloneDriver(current)})
	return cloneDriver(current), nil
}

// CreateRoute stores a new route. Routes are append-only; Orders and Stops
// are frozen here.
func (tx *transaction) CreateRoute(r DeliveryRoute) (DeliveryRoute, error) {
	if r.DriverID == "" {
		return DeliveryRoute{}, domain.ValidationError{Entity: domain.EntityRoute, Field: "driver_id", Reason: "required"}
	}
	if _, ok := tx.state.drivers[r.DriverID]; !ok {
		return DeliveryRoute{}, domain.NotFoundError{Entity: domain.EntityDriver, ID: r.DriverID}
	}
	if r.ID == "" {
		r.ID = tx.store.newID()
	}
	if _, exists := tx.state.routes[r.ID]; exists {
		return DeliveryRoute{}, domain.ConflictError{Entity: domain.EntityRoute, ID: r.ID}
	}
	if r.Status == "" {
		r.Status = domain.RoutePending
	}
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	tx.state.routes[r.ID] = cloneRoute(r)
	tx.recordChange(Change{Entity: domain.EntityRoute, Action: domain.ActionCreate, After: cloneRoute(r)})
	return cloneRoute(r), nil
}

var routeTransitions = map[domain.RouteStatus]domain.RouteStatus{
	domain.RoutePending:    domain.RouteInProgress,
	domain.RouteInProgress: domain.RouteCompleted,
}

// UpdateRoute applies a typed patch to an existing route, enforcing the
// pending -> in_progress -> completed transition order and stamping the
// transition timestamps.
func (tx *transaction) UpdateRoute(id string, patch domain.RoutePatch) (DeliveryRoute, error) {
	current, ok := tx.state.routes[id]
	if !ok {
		return DeliveryRoute{}, domain.NotFoundError{Entity: domain.EntityRoute, ID: id}
	}
	before := cloneRoute(current)
	if patch.Status != nil && *patch.Status != current.Status {
		if routeTransitions[current.Status] != *patch.Status {
			return DeliveryRoute{}, domain.TransitionError{From: current.Status, To: *patch.Status}
		}
	}
	patch.Apply(&current)
	if before.Status != current.Status {
		switch current.Status {
		case domain.RouteInProgress:
			t := tx.now
			current.StartedAt = &t
		case domain.RouteCompleted:
			t := tx.now
			current.CompletedAt = &t
			if current.ActualMinutes == nil && current.StartedAt != nil {
				minutes := int(tx.now.Sub(*current.StartedAt) / time.Minute)
				current.ActualMinutes = &minutes
			}
		}
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.routes[id] = cloneRoute(current)
	tx.recordChange(Change{Entity: domain.EntityRoute, Action: domain.ActionUpdate, Before: before, After: cloneRoute(current)})
	return cloneRoute(current), nil
}
