package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"laundrycore/internal/cache"
	"laundrycore/internal/gateway"
	kvcore "laundrycore/internal/infra/kv/core"
	kvmem "laundrycore/internal/infra/kv/memory"
	"laundrycore/pkg/domain"
)

func newOrder(tenantID, customer string) domain.Order {
	return domain.Order{
		Base:         domain.Base{TenantID: tenantID},
		CustomerName: customer,
		Items:        []domain.OrderItem{{Name: "Shirts", Quantity: 2, UnitPrice: 3}},
		Subtotal:     6,
		Total:        6,
	}
}

func TestNewHydratesFromBackend(t *testing.T) {
	ctx := context.Background()
	backend := kvmem.New()

	seed := map[string]domain.Order{
		"o1": {Base: domain.Base{ID: "o1", TenantID: "acme"}, CustomerName: "Ada", Items: []domain.OrderItem{{Name: "x"}}},
	}
	raw, err := json.Marshal(seed)
	if err != nil {
		t.Fatalf("marshal seed: %v", err)
	}
	if err := backend.Set(ctx, BucketOrders, raw); err != nil {
		t.Fatalf("seed backend: %v", err)
	}

	store, err := New(ctx, gateway.New(backend, cache.New()), nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	orders := store.ListOrders("acme")
	if len(orders) != 1 || orders[0].ID != "o1" {
		t.Fatalf("expected hydrated order, got %+v", orders)
	}
	if orders[0].Status != domain.OrderStatusPending {
		t.Fatalf("expected normalized status, got %q", orders[0].Status)
	}
}

func TestNewToleratesCorruptBucket(t *testing.T) {
	ctx := context.Background()
	backend := kvmem.New()
	if err := backend.Set(ctx, BucketDrivers, []byte("{corrupt")); err != nil {
		t.Fatalf("seed corrupt bucket: %v", err)
	}

	store, err := New(ctx, gateway.New(backend, cache.New()), nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if len(store.ListDrivers("acme")) != 0 {
		t.Fatalf("expected empty collection for corrupt bucket")
	}
}

func TestMutationPersistsAllBuckets(t *testing.T) {
	ctx := context.Background()
	backend := kvmem.New()
	store, err := New(ctx, gateway.New(backend, cache.New()), nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateOrder(newOrder("acme", "Ada"))
		return err
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}

	for _, bucket := range []string{BucketOrders, BucketInventory, BucketDrivers, BucketRoutes} {
		if _, found, _ := backend.Get(ctx, bucket); !found {
			t.Fatalf("expected bucket %s written", bucket)
		}
	}

	raw, _, _ := backend.Get(ctx, BucketOrders)
	var persisted map[string]domain.Order
	if err := json.Unmarshal(raw, &persisted); err != nil {
		t.Fatalf("decode persisted orders: %v", err)
	}
	if len(persisted) != 1 {
		t.Fatalf("expected one persisted order, got %d", len(persisted))
	}
}

func TestReloadSeesPriorWrites(t *testing.T) {
	ctx := context.Background()
	backend := kvmem.New()

	first, err := New(ctx, gateway.New(backend, cache.New()), nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	_, err = first.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.CreateOrder(newOrder("acme", "Ada")); err != nil {
			return err
		}
		_, err := tx.CreateDriver(domain.Driver{Base: domain.Base{TenantID: "acme"}, Name: "Max"})
		return err
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}

	second, err := New(ctx, gateway.New(backend, cache.New()), nil)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	if len(second.ListOrders("acme")) != 1 {
		t.Fatalf("expected reloaded order")
	}
	if len(second.ListDrivers("acme")) != 1 {
		t.Fatalf("expected reloaded driver")
	}
}

// brokenStore fails every write after the fuse burns out.
type brokenStore struct {
	inner  kvcore.Store
	broken bool
}

func (b *brokenStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return b.inner.Get(ctx, key)
}

func (b *brokenStore) Set(ctx context.Context, key string, value []byte) error {
	if b.broken {
		return errors.New("backend unavailable")
	}
	return b.inner.Set(ctx, key, value)
}

func (b *brokenStore) Delete(ctx context.Context, key string) error {
	return b.inner.Delete(ctx, key)
}

func (b *brokenStore) Driver() kvcore.Driver { return b.inner.Driver() }

func TestWriteFailureLeavesMirrorUnchanged(t *testing.T) {
	ctx := context.Background()
	backend := &brokenStore{inner: kvmem.New()}
	store, err := New(ctx, gateway.New(backend, cache.New()), nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateOrder(newOrder("acme", "Ada"))
		return err
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	orderID := store.ListOrders("acme")[0].ID

	backend.broken = true
	notes := "should not stick"
	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.UpdateOrder(orderID, domain.OrderPatch{Notes: &notes})
		return err
	})
	if err == nil {
		t.Fatalf("expected persist failure to surface")
	}

	got, _ := store.GetOrder(orderID)
	if got.Notes != "" {
		t.Fatalf("expected mirror unchanged after failed write, got %+v", got)
	}
}
