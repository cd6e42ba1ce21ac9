package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"laundrycore/internal/cache"
	kvcore "laundrycore/internal/infra/kv/core"
	kvmem "laundrycore/internal/infra/kv/memory"
)

type faultyStore struct {
	getErr error
	setErr error
	data   map[string][]byte
}

func (f *faultyStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *faultyStore) Set(_ context.Context, key string, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	if f.data == nil {
		f.data = make(map[string][]byte)
	}
	f.data[key] = value
	return nil
}

func (f *faultyStore) Delete(_ context.Context, key string) error { return nil }

func (f *faultyStore) Driver() kvcore.Driver { return kvcore.DriverMemory }

type record struct {
	Name  string  `json:"name"`
	Count float64 `json:"count"`
}

func TestSetThenGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	g := New(kvmem.New(), cache.New())

	if !SetItem(ctx, g, "inventory", []record{{Name: "detergent", Count: 3}}, SetOptions{}) {
		t.Fatalf("expected write to succeed")
	}
	got := GetItem(ctx, g, "inventory", GetOptions[[]record]{})
	if len(got) != 1 || got[0].Name != "detergent" || got[0].Count != 3 {
		t.Fatalf("unexpected round trip value %+v", got)
	}
}

func TestGetItemFallbackOnMiss(t *testing.T) {
	ctx := context.Background()
	g := New(kvmem.New(), cache.New())

	fallback := []record{{Name: "default"}}
	got := GetItem(ctx, g, "absent", GetOptions[[]record]{Fallback: fallback})
	if len(got) != 1 || got[0].Name != "default" {
		t.Fatalf("expected fallback, got %+v", got)
	}
}

func TestGetItemFallbackOnReadFailure(t *testing.T) {
	ctx := context.Background()
	var reported []PersistenceError
	g := New(&faultyStore{getErr: errors.New("disk gone")}, cache.New(),
		WithErrorHook(func(e PersistenceError) { reported = append(reported, e) }))

	got := GetItem(ctx, g, "orders", GetOptions[[]record]{Fallback: []record{{Name: "f"}}})
	if len(got) != 1 || got[0].Name != "f" {
		t.Fatalf("expected fallback on read failure, got %+v", got)
	}
	if len(reported) != 1 || reported[0].Op != "read" {
		t.Fatalf("expected one reported read failure, got %+v", reported)
	}
}

func TestGetItemFallbackOnCorruptPayload(t *testing.T) {
	ctx := context.Background()
	backend := kvmem.New()
	if err := backend.Set(ctx, "orders", []byte("{not json")); err != nil {
		t.Fatalf("seed corrupt payload: %v", err)
	}
	var reported []PersistenceError
	g := New(backend, cache.New(),
		WithErrorHook(func(e PersistenceError) { reported = append(reported, e) }))

	got := GetItem(ctx, g, "orders", GetOptions[[]record]{Fallback: nil})
	if got != nil {
		t.Fatalf("expected nil fallback on corrupt payload, got %+v", got)
	}
	if len(reported) != 1 || reported[0].Op != "decode" {
		t.Fatalf("expected one reported decode failure, got %+v", reported)
	}
}

func TestSetItemReportsWriteFailure(t *testing.T) {
	ctx := context.Background()
	var reported []PersistenceError
	g := New(&faultyStore{setErr: errors.New("read-only filesystem")}, cache.New(),
		WithErrorHook(func(e PersistenceError) { reported = append(reported, e) }))

	if SetItem(ctx, g, "drivers", []record{{Name: "x"}}, SetOptions{}) {
		t.Fatalf("expected write failure to report false")
	}
	if len(reported) != 1 || reported[0].Op != "write" {
		t.Fatalf("expected one reported write failure, got %+v", reported)
	}
	// A failed write must not warm the cache either.
	if _, ok := g.Cache().Lookup("drivers"); ok {
		t.Fatalf("expected cache untouched after failed write")
	}
}

func TestGetItemServesFromCache(t *testing.T) {
	ctx := context.Background()
	backend := kvmem.New()
	g := New(backend, cache.New())

	SetItem(ctx, g, "routes", []record{{Name: "cached"}}, SetOptions{CacheTTL: time.Minute})

	// Poison the durable copy; a cached read must not notice.
	if err := backend.Set(ctx, "routes", []byte("garbage")); err != nil {
		t.Fatalf("overwrite backend: %v", err)
	}
	got := GetItem(ctx, g, "routes", GetOptions[[]record]{})
	if len(got) != 1 || got[0].Name != "cached" {
		t.Fatalf("expected cached value, got %+v", got)
	}

	// SkipCache goes straight to the backend and hits the corruption.
	got = GetItem(ctx, g, "routes", GetOptions[[]record]{SkipCache: true, Fallback: nil})
	if got != nil {
		t.Fatalf("expected fallback when bypassing cache, got %+v", got)
	}
}

func TestGetItemNormalizeRunsBeforeCaching(t *testing.T) {
	ctx := context.Background()
	backend := kvmem.New()
	if err := backend.Set(ctx, "inventory", []byte(`[{"name":"","count":-4}]`)); err != nil {
		t.Fatalf("seed payload: %v", err)
	}
	g := New(backend, cache.New())

	normalize := func(items *[]record) {
		for i := range *items {
			if (*items)[i].Count < 0 {
				(*items)[i].Count = 0
			}
			if (*items)[i].Name == "" {
				(*items)[i].Name = "unnamed"
			}
		}
	}
	got := GetItem(ctx, g, "inventory", GetOptions[[]record]{Normalize: normalize})
	if len(got) != 1 || got[0].Name != "unnamed" || got[0].Count != 0 {
		t.Fatalf("expected normalized value, got %+v", got)
	}

	// The cached copy must be the normalized one.
	cached, ok := g.Cache().Lookup("inventory")
	if !ok {
		t.Fatalf("expected cache warmed")
	}
	items := cached.([]record)
	if items[0].Name != "unnamed" {
		t.Fatalf("expected normalized value in cache, got %+v", items)
	}
}

func TestGatewayWithoutCache(t *testing.T) {
	ctx := context.Background()
	g := New(kvmem.New(), nil)
	if !SetItem(ctx, g, "orders", []record{{Name: "a"}}, SetOptions{}) {
		t.Fatalf("expected write to succeed without cache")
	}
	got := GetItem(ctx, g, "orders", GetOptions[[]record]{})
	if len(got) != 1 || got[0].Name != "a" {
		t.Fatalf("unexpected value without cache %+v", got)
	}
}

func TestInvalidateDropsCachedValue(t *testing.T) {
	ctx := context.Background()
	backend := kvmem.New()
	g := New(backend, cache.New())

	SetItem(ctx, g, "orders", []record{{Name: "v1"}}, SetOptions{})
	if err := backend.Set(ctx, "orders", []byte(`[{"name":"v2","count":0}]`)); err != nil {
		t.Fatalf("overwrite backend: %v", err)
	}
	g.Invalidate("orders")

	got := GetItem(ctx, g, "orders", GetOptions[[]record]{})
	if len(got) != 1 || got[0].Name != "v2" {
		t.Fatalf("expected fresh durable read after invalidate, got %+v", got)
	}
}
