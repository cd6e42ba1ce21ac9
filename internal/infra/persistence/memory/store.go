// Package memory provides the in-memory transactional mirror of the tenant
// state. It is the store used for tests and ephemeral environments, and the
// base every durable store builds on.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"laundrycore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain
// persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Order aliases domain.Order for in-memory persistence operations.
	Order = domain.Order
	// InventoryItem aliases domain.InventoryItem.
	InventoryItem = domain.InventoryItem
	// Driver aliases domain.Driver.
	Driver = domain.Driver
	// DeliveryRoute aliases domain.DeliveryRoute.
	DeliveryRoute = domain.DeliveryRoute
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
	// PersistentStore aliases domain.PersistentStore abstraction.
	PersistentStore = domain.PersistentStore
)

type state struct {
	orders    map[string]Order
	inventory map[string]InventoryItem
	drivers   map[string]Driver
	routes    map[string]DeliveryRoute
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Orders    map[string]Order         `json:"orders"`
	Inventory map[string]InventoryItem `json:"inventory"`
	Drivers   map[string]Driver        `json:"drivers"`
	Routes    map[string]DeliveryRoute `json:"routes"`
}

func newState() state {
	return state{
		orders:    make(map[string]Order),
		inventory: make(map[string]InventoryItem),
		drivers:   make(map[string]Driver),
		routes:    make(map[string]DeliveryRoute),
	}
}

func snapshotFromState(s state) Snapshot {
	snap := Snapshot{
		Orders:    make(map[string]Order, len(s.orders)),
		Inventory: make(map[string]InventoryItem, len(s.inventory)),
		Drivers:   make(map[string]Driver, len(s.drivers)),
		Routes:    make(map[string]DeliveryRoute, len(s.routes)),
	}
	for k, v := range s.orders {
		snap.Orders[k] = cloneOrder(v)
	}
	for k, v := range s.inventory {
		snap.Inventory[k] = cloneInventoryItem(v)
	}
	for k, v := range s.drivers {
		snap.Drivers[k] = cloneDriver(v)
	}
	for k, v := range s.routes {
		snap.Routes[k] = cloneRoute(v)
	}
	return snap
}

func stateFromSnapshot(snap Snapshot) state {
	st := newState()
	for k, v := range snap.Orders {
		st.orders[k] = cloneOrder(v)
	}
	for k, v := range snap.Inventory {
		st.inventory[k] = cloneInventoryItem(v)
	}
	for k, v := range snap.Drivers {
		st.drivers[k] = cloneDriver(v)
	}
	for k, v := range snap.Routes {
		st.routes[k] = cloneRoute(v)
	}
	return st
}

// migrateSnapshot reconciles older stored shapes with the current schema:
// nil buckets become empty maps, records are normalized (dates, service
// flags, stock clamp), assignment sets drop order ids that no longer exist,
// and routes whose driver is gone are removed.
func migrateSnapshot(snapshot Snapshot, now time.Time) Snapshot {
	if snapshot.Orders == nil {
		snapshot.Orders = map[string]Order{}
	}
	if snapshot.Inventory == nil {
		snapshot.Inventory = map[string]InventoryItem{}
	}
	if snapshot.Drivers == nil {
		snapshot.Drivers = map[string]Driver{}
	}
	if snapshot.Routes == nil {
		snapshot.Routes = map[string]DeliveryRoute{}
	}

	for id, order := range snapshot.Orders {
		order.Normalize(now)
		snapshot.Orders[id] = order
	}
	for id, item := range snapshot.Inventory {
		item.Normalize(now)
		snapshot.Inventory[id] = item
	}

	orderExists := func(id string) bool {
		_, ok := snapshot.Orders[id]
		return ok
	}
	for id, driver := range snapshot.Drivers {
		driver.Normalize(now)
		kept := driver.AssignedOrders[:0]
		for _, orderID := range driver.AssignedOrders {
			if orderExists(orderID) {
				kept = append(kept, orderID)
			}
		}
		driver.AssignedOrders = kept
		snapshot.Drivers[id] = driver
	}

	for id, route := range snapshot.Routes {
		if _, ok := snapshot.Drivers[route.DriverID]; !ok {
			delete(snapshot.Routes, id)
			continue
		}
		route.Normalize(now)
		snapshot.Routes[id] = route
	}
	return snapshot
}

func (s state) clone() state {
	cloned := newState()
	for k, v := range s.orders {
		cloned.orders[k] = cloneOrder(v)
	}
	for k, v := range s.inventory {
		cloned.inventory[k] = cloneInventoryItem(v)
	}
	for k, v := range s.drivers {
		cloned.drivers[k] = cloneDriver(v)
	}
	for k, v := range s.routes {
		cloned.routes[k] = cloneRoute(v)
	}
	return cloned
}

func cloneOrder(o Order) Order {
	cp := o
	if len(o.Items) != 0 {
		cp.Items = append([]domain.OrderItem(nil), o.Items...)
	}
	return cp
}

func cloneInventoryItem(i InventoryItem) InventoryItem {
	cp := i
	if i.ServiceFlags != nil {
		flags := make(map[string]bool, len(i.ServiceFlags))
		for k, v := range i.ServiceFlags {
			flags[k] = v
		}
		cp.ServiceFlags = flags
	}
	return cp
}

func cloneDriver(d Driver) Driver {
	cp := d
	cp.AssignedOrders = append([]string(nil), d.AssignedOrders...)
	if d.CurrentLocation != nil {
		loc := *d.CurrentLocation
		cp.CurrentLocation = &loc
	}
	return cp
}

func cloneRoute(r DeliveryRoute) DeliveryRoute {
	cp := r
	cp.Orders = append([]string(nil), r.Orders...)
	cp.Stops = append([]domain.RouteStop(nil), r.Stops...)
	if r.ActualMinutes != nil {
		m := *r.ActualMinutes
		cp.ActualMinutes = &m
	}
	if r.StartedAt != nil {
		t := *r.StartedAt
		cp.StartedAt = &t
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		cp.CompletedAt = &t
	}
	return cp
}

func containsString(values []string, id string) bool {
	for _, existing := range values {
		if existing == id {
			return true
		}
	}
	return false
}

// Store provides an in-memory transactional store for the core domain. A
// single mutex serializes transactions, so overlapping writers cannot lose
// each other's updates.
type Store struct {
	mu        sync.RWMutex
	state     state
	engine    *RulesEngine
	nowFn     func() time.Time
	persistFn func(ctx context.Context, snapshot Snapshot) error
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// SetPersistFunc installs the hook durable stores use to flush a snapshot
// after rule evaluation. When the hook fails the transaction does not commit:
// the mirror and the persisted copy never diverge.
func (s *Store) SetPersistFunc(fn func(ctx context.Context, snapshot Snapshot) error) {
	s.mu.Lock()
	s.persistFn = fn
	s.mu.Unlock()
}

// SetNowFunc overrides the clock, for tests.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	s.nowFn = fn
	s.mu.Unlock()
}

// newID generates a collision-resistant id: millisecond timestamp plus a
// random suffix, so rapid successive creates stay unique and roughly sort by
// creation time.
func (s *Store) newID() string {
	var b [6]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return fmt.Sprintf("%d-%s", s.nowFn().UnixMilli(), hex.EncodeToString(b[:]))
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = stateFromSnapshot(migrateSnapshot(snapshot, s.nowFn()))
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// transaction represents a mutation set applied to the store state.
type transaction struct {
	store   *Store
	state   state
	changes []Change
	now     time.Time
}

// transactionView exposes a read-only snapshot of the transactional state.
type transactionView struct {
	state *state
}

func newTransactionView(st *state) transactionView {
	return transactionView{state: st}
}

// ListOrders returns the tenant's orders sorted by creation time then id.
func (v transactionView) ListOrders(tenantID string) []Order {
	out := make([]Order, 0, len(v.state.orders))
	for _, o := range v.state.orders {
		if o.TenantID == tenantID {
			out = append(out, cloneOrder(o))
		}
	}
	sortByCreation(out, func(o Order) (time.Time, string) { return o.CreatedAt, o.ID })
	return out
}

// ListInventory returns the tenant's inventory sorted by creation time then id.
func (v transactionView) ListInventory(tenantID string) []InventoryItem {
	out := make([]InventoryItem, 0, len(v.state.inventory))
	for _, i := range v.state.inventory {
		if i.TenantID == tenantID {
			out = append(out, cloneInventoryItem(i))
		}
	}
	sortByCreation(out, func(i InventoryItem) (time.Time, string) { return i.CreatedAt, i.ID })
	return out
}

// ListDrivers returns the tenant's drivers sorted by creation time then id.
func (v transactionView) ListDrivers(tenantID string) []Driver {
	out := make([]Driver, 0, len(v.state.drivers))
	for _, d := range v.state.drivers {
		if d.TenantID == tenantID {
			out = append(out, cloneDriver(d))
		}
	}
	sortByCreation(out, func(d Driver) (time.Time, string) { return d.CreatedAt, d.ID })
	return out
}

// ListRoutes returns the tenant's routes sorted by creation time then id.
func (v transactionView) ListRoutes(tenantID string) []DeliveryRoute {
	out := make([]DeliveryRoute, 0, len(v.state.routes))
	for _, r := range v.state.routes {
		if r.TenantID == tenantID {
			out = append(out, cloneRoute(r))
		}
	}
	sortByCreation(out, func(r DeliveryRoute) (time.Time, string) { return r.CreatedAt, r.ID })
	return out
}

// FindOrder retrieves an order by id from the snapshot.
func (v transactionView) FindOrder(id string) (Order, bool) {
	o, ok := v.state.orders[id]
	if !ok {
		return Order{}, false
	}
	return cloneOrder(o), true
}

// FindInventoryItem retrieves an inventory item by id from the snapshot.
func (v transactionView) FindInventoryItem(id string) (InventoryItem, bool) {
	i, ok := v.state.inventory[id]
	if !ok {
		return InventoryItem{}, false
	}
	return cloneInventoryItem(i), true
}

// FindDriver retrieves a driver by id from the snapshot.
func (v transactionView) FindDriver(id string) (Driver, bool) {
	d, ok := v.state.drivers[id]
	if !ok {
		return Driver{}, false
	}
	return cloneDriver(d), true
}

// FindRoute retrieves a route by id from the snapshot.
func (v transactionView) FindRoute(id string) (DeliveryRoute, bool) {
	r, ok := v.state.routes[id]
	if !ok {
		return DeliveryRoute{}, false
	}
	return cloneRoute(r), true
}

func sortByCreation[T any](items []T, key func(T) (time.Time, string)) {
	sort.Slice(items, func(a, b int) bool {
		ta, ia := key(items[a])
		tb, ib := key(items[b])
		if ta.Equal(tb) {
			return ia < ib
		}
		return ta.Before(tb)
	})
}

// RunInTransaction executes fn within a transactional copy of the store
// state, evaluates rules against the staged state, persists the snapshot via
// the configured hook, and only then commits. Any error leaves the mirror
// untouched.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	if s.persistFn != nil {
		if err := s.persistFn(ctx, snapshotFromState(tx.state)); err != nil {
			return result, err
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

// GetOrder retrieves an order by id.
func (s *Store) GetOrder(id string) (Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.state.orders[id]
	if !ok {
		return Order{}, false
	}
	return cloneOrder(o), true
}

// ListOrders returns the tenant's orders.
func (s *Store) ListOrders(tenantID string) []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListOrders(tenantID)
}

// GetInventoryItem retrieves an inventory item by id.
func (s *Store) GetInventoryItem(id string) (InventoryItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.state.inventory[id]
	if !ok {
		return InventoryItem{}, false
	}
	return cloneInventoryItem(i), true
}

// ListInventory returns the tenant's inventory items.
func (s *Store) ListInventory(tenantID string) []InventoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListInventory(tenantID)
}

// GetDriver retrieves a driver by id.
func (s *Store) GetDriver(id string) (Driver, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.state.drivers[id]
	if !ok {
		return Driver{}, false
	}
	return cloneDriver(d), true
}

// ListDrivers returns the tenant's drivers.
func (s *Store) ListDrivers(tenantID string) []Driver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListDrivers(tenantID)
}

// GetRoute retrieves a route by id.
func (s *Store) GetRoute(id string) (DeliveryRoute, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.state.routes[id]
	if !ok {
		return DeliveryRoute{}, false
	}
	return cloneRoute(r), true
}

// ListRoutes returns the tenant's routes.
func (s *Store) ListRoutes(tenantID string) []DeliveryRoute {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListRoutes(tenantID)
}
