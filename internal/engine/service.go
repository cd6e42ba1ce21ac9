package engine

import (
	"context"
	"sync/atomic"
	"time"

	"laundrycore/pkg/domain"
)

// Service is the single read/write facade over the durable store. One
// instance serves one tenant session; all mutable state lives in the store
// the instance was constructed over, never in package globals.
//
// Mutations run inside store transactions through the operation runner:
// callers observe failure via the returned ok flag, never an error value.
// Reads hit the in-memory mirror directly and perform no I/O.
type Service struct {
	store    domain.PersistentStore
	runner   *Runner
	assigner *RouteAssigner
	logger   Logger
	nowFn    func() time.Time
	ready    atomic.Bool
}

// ServiceOption customises Service construction.
type ServiceOption func(*serviceConfig)

type serviceConfig struct {
	notifier       Notifier
	metrics        MetricsRecorder
	tracer         Tracer
	logger         Logger
	minutesPerStop int
	nowFn          func() time.Time
}

// WithNotifier routes operation outcomes to sink.
func WithNotifier(sink Notifier) ServiceOption {
	return func(c *serviceConfig) {
		if sink != nil {
			c.notifier = sink
		}
	}
}

// WithMetricsRecorder records per-operation timings and results.
func WithMetricsRecorder(recorder MetricsRecorder) ServiceOption {
	return func(c *serviceConfig) {
		if recorder != nil {
			c.metrics = recorder
		}
	}
}

// WithTracer wraps every operation in a trace span.
func WithTracer(tracer Tracer) ServiceOption {
	return func(c *serviceConfig) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// WithLogger sets the structured logger for the service and its runner.
func WithLogger(logger Logger) ServiceOption {
	return func(c *serviceConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMinutesPerStop overrides the per-stop route estimate.
func WithMinutesPerStop(minutes int) ServiceOption {
	return func(c *serviceConfig) {
		if minutes > 0 {
			c.minutesPerStop = minutes
		}
	}
}

// WithClock overrides the service clock. Intended for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(c *serviceConfig) {
		if now != nil {
			c.nowFn = now
		}
	}
}

// RegisterDefaultRules installs the standard business rules on engine.
func RegisterDefaultRules(engine *domain.RulesEngine) {
	engine.Register(orderTotalsRule{})
	engine.Register(stockClampRule{})
	engine.Register(driverStatusRule{})
}

// NewService constructs the facade over an already hydrated store. The
// service is ready as soon as the constructor returns.
func NewService(store domain.PersistentStore, opts ...ServiceOption) *Service {
	cfg := serviceConfig{
		notifier:       noopNotifier{},
		metrics:        noopMetrics{},
		tracer:         noopTracer{},
		logger:         noopLogger{},
		minutesPerStop: DefaultMinutesPerStop,
		nowFn:          time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	svc := &Service{
		store: store,
		runner: NewRunner(
			WithRunnerNotifier(cfg.notifier),
			WithRunnerMetrics(cfg.metrics),
			WithRunnerTracer(cfg.tracer),
			WithRunnerLogger(cfg.logger),
		),
		assigner: NewRouteAssigner(cfg.minutesPerStop),
		logger:   cfg.logger,
		nowFn:    cfg.nowFn,
	}
	svc.runner.SetNowFunc(cfg.nowFn)
	svc.ready.Store(store != nil)
	return svc
}

// Ready reports whether the service can accept operations.
func (s *Service) Ready() bool {
	return s.ready.Load()
}

// Runner exposes the operation runner, mainly so callers can inspect the
// last operation state.
func (s *Service) Runner() *Runner {
	return s.runner
}

// mutate wraps a transactional mutation in runner bookkeeping and logs any
// non-blocking rule violations the commit produced.
func mutate[T any](ctx context.Context, s *Service, operation, successMsg string, fn func(tx domain.Transaction) (T, error)) (T, bool) {
	return Run(ctx, s.runner, operation, successMsg, func(ctx context.Context) (T, error) {
		var out T
		result, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			value, err := fn(tx)
			if err != nil {
				return err
			}
			out = value
			return nil
		})
		for _, violation := range result.Violations {
			if violation.Severity == SeverityBlock {
				continue
			}
			s.logger.Warn(ctx, "rule violation",
				"rule", violation.Rule,
				"severity", string(violation.Severity),
				"entity", string(violation.Entity),
				"entity_id", violation.EntityID,
				"message", violation.Message)
		}
		return out, err
	})
}

// AddOrder validates and stores a new order.
func (s *Service) AddOrder(ctx context.Context, order Order) (Order, bool) {
	return mutate(ctx, s, "add_order", "order created", func(tx domain.Transaction) (Order, error) {
		return tx.CreateOrder(order)
	})
}

// UpdateOrder applies a typed patch to an existing order.
func (s *Service) UpdateOrder(ctx context.Context, id string, patch domain.OrderPatch) (Order, bool) {
	return mutate(ctx, s, "update_order", "order updated", func(tx domain.Transaction) (Order, error) {
		return tx.UpdateOrder(id, patch)
	})
}

// UpdateOrderStatus moves an order to the given status.
func (s *Service) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) (Order, bool) {
	patch := domain.OrderPatch{Status: &status}
	return mutate(ctx, s, "update_order_status", "order status updated", func(tx domain.Transaction) (Order, error) {
		return tx.UpdateOrder(id, patch)
	})
}

// DeleteOrder removes an order and drops it from any driver assignment set.
func (s *Service) DeleteOrder(ctx context.Context, id string) bool {
	_, ok := mutate(ctx, s, "delete_order", "order deleted", func(tx domain.Transaction) (struct{}, error) {
		return struct{}{}, tx.DeleteOrder(id)
	})
	return ok
}

// OrdersByTenant lists the tenant's orders in creation order.
func (s *Service) OrdersByTenant(_ context.Context, tenantID string) []Order {
	return s.store.ListOrders(tenantID)
}

// TotalRevenue sums the totals of the tenant's non-cancelled orders.
func (s *Service) TotalRevenue(_ context.Context, tenantID string) float64 {
	var revenue float64
	for _, order := range s.store.ListOrders(tenantID) {
		if order.Status == domain.OrderStatusCancelled {
			continue
		}
		revenue += order.Total
	}
	return revenue
}

// OrderStats derives per-status counts and revenue for a tenant. Purely
// computed from the mirror, never cached.
func (s *Service) OrderStats(_ context.Context, tenantID string) OrderStats {
	stats := OrderStats{ByStatus: make(map[domain.OrderStatus]int)}
	for _, order := range s.store.ListOrders(tenantID) {
		stats.Total++
		stats.ByStatus[order.Status]++
		if order.Status != domain.OrderStatusCancelled {
			stats.Revenue += order.Total
		}
	}
	return stats
}

// ReplaceInventory swaps the tenant's whole inventory collection.
func (s *Service) ReplaceInventory(ctx context.Context, tenantID string, items []InventoryItem) ([]InventoryItem, bool) {
	return mutate(ctx, s, "replace_inventory", "inventory updated", func(tx domain.Transaction) ([]InventoryItem, error) {
		return tx.ReplaceInventory(tenantID, items)
	})
}

// Inventory lists the tenant's inventory items in creation order.
func (s *Service) Inventory(_ context.Context, tenantID string) []InventoryItem {
	return s.store.ListInventory(tenantID)
}

// AdjustStock applies a stock movement. Negative deltas clamp at zero;
// positive deltas stamp the restock time.
func (s *Service) AdjustStock(ctx context.Context, id string, delta float64) (InventoryItem, bool) {
	return mutate(ctx, s, "adjust_stock", "stock adjusted", func(tx domain.Transaction) (InventoryItem, error) {
		return tx.AdjustStock(id, delta)
	})
}

// LowStock lists the tenant's items at or below their reorder level.
func (s *Service) LowStock(_ context.Context, tenantID string) []InventoryItem {
	var low []InventoryItem
	for _, item := range s.store.ListInventory(tenantID) {
		if item.LowStock() {
			low = append(low, item)
		}
	}
	return low
}

// AddDriver stores a new driver.
func (s *Service) AddDriver(ctx context.Context, driver Driver) (Driver, bool) {
	return mutate(ctx, s, "add_driver", "driver created", func(tx domain.Transaction) (Driver, error) {
		return tx.CreateDriver(driver)
	})
}

// UpdateDriver applies a typed patch to an existing driver.
func (s *Service) UpdateDriver(ctx context.Context, id string, patch domain.DriverPatch) (Driver, bool) {
	return mutate(ctx, s, "update_driver", "driver updated", func(tx domain.Transaction) (Driver, error) {
		return tx.UpdateDriver(id, patch)
	})
}

// RemoveDriver deletes a driver. Their routes are kept for history.
func (s *Service) RemoveDriver(ctx context.Context, id string) bool {
	_, ok := mutate(ctx, s, "remove_driver", "driver removed", func(tx domain.Transaction) (struct{}, error) {
		return struct{}{}, tx.DeleteDriver(id)
	})
	return ok
}

// DriversByTenant lists the tenant's drivers in creation order.
func (s *Service) DriversByTenant(_ context.Context, tenantID string) []Driver {
	return s.store.ListDrivers(tenantID)
}

// AssignOrdersToDriver appends orderIDs to the driver's assignment set,
// deduplicated, and flips the driver to busy. A missing driver fails the
// operation.
func (s *Service) AssignOrdersToDriver(ctx context.Context, driverID string, orderIDs []string) (Driver, bool) {
	return mutate(ctx, s, "assign_orders", "orders assigned", func(tx domain.Transaction) (Driver, error) {
		return tx.AssignOrders(driverID, orderIDs)
	})
}

// OptimizeRoute builds and stores a pending route over the driver's current
// assignment set, visiting stops in assignment order with flat per-stop time
// estimates. A driver with no assignments yields a nil route and ok=true; a
// missing driver fails the operation.
func (s *Service) OptimizeRoute(ctx context.Context, driverID string) (*DeliveryRoute, bool) {
	return mutate(ctx, s, "optimize_route", "route created", func(tx domain.Transaction) (*DeliveryRoute, error) {
		driver, ok := tx.FindDriver(driverID)
		if !ok {
			return nil, domain.NotFoundError{Entity: domain.EntityDriver, ID: driverID}
		}
		if len(driver.AssignedOrders) == 0 {
			return nil, nil
		}
		orders := make(map[string]Order, len(driver.AssignedOrders))
		for _, orderID := range driver.AssignedOrders {
			if order, found := tx.FindOrder(orderID); found {
				orders[orderID] = order
			}
		}
		route := s.assigner.BuildRoute(driver, orders)
		created, err := tx.CreateRoute(*route)
		if err != nil {
			return nil, err
		}
		return &created, nil
	})
}

// RoutesByTenant lists the tenant's routes in creation order.
func (s *Service) RoutesByTenant(_ context.Context, tenantID string) []DeliveryRoute {
	return s.store.ListRoutes(tenantID)
}

// UpdateRoute transitions a route through its lifecycle, stamping start and
// completion times.
func (s *Service) UpdateRoute(ctx context.Context, id string, patch domain.RoutePatch) (DeliveryRoute, bool) {
	return mutate(ctx, s, "update_route", "route updated", func(tx domain.Transaction) (DeliveryRoute, error) {
		return tx.UpdateRoute(id, patch)
	})
}

// DriverStats derives driver availability counts for a tenant.
func (s *Service) DriverStats(_ context.Context, tenantID string) DriverStats {
	var stats DriverStats
	for _, driver := range s.store.ListDrivers(tenantID) {
		stats.Total++
		switch driver.Status {
		case domain.DriverAvailable:
			stats.Available++
		case domain.DriverBusy:
			stats.Busy++
		case domain.DriverOffline:
			stats.Offline++
		}
		stats.AssignedOrders += len(driver.AssignedOrders)
	}
	return stats
}
