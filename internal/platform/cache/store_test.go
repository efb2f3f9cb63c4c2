package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var errUnexpectedValue = errors.New("unexpected cached value")

func TestStore_GetOrLoad_UsesSingleFlight(t *testing.T) {
	t.Parallel()

	store := NewStore[time.Time](0)
	var calls atomic.Int32
	birth := time.Date(1996, 10, 26, 0, 0, 0, 0, time.UTC)

	loader := func(context.Context) (time.Time, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return birth, nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrLoad(context.Background(), "athlete:3425", loader)
			if err != nil {
				errCh <- err
				return
			}
			if !v.Equal(birth) {
				errCh <- errUnexpectedValue
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_DoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	store := NewStore[string](0)
	var calls atomic.Int32
	loader := func(context.Context) (string, error) {
		if calls.Add(1) == 1 {
			return "", errors.New("timeout")
		}
		return "ok", nil
	}

	if _, err := store.GetOrLoad(context.Background(), "k", loader); err == nil {
		t.Fatalf("expected first load to fail")
	}
	got, err := store.GetOrLoad(context.Background(), "k", loader)
	if err != nil || got != "ok" {
		t.Fatalf("second load = %q, %v", got, err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected one cached entry, got %d", store.Len())
	}
}

func TestStore_TTLExpiry(t *testing.T) {
	t.Parallel()

	store := NewStore[int](time.Minute)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Set(context.Background(), "quota:NOR", 6)
	if v, ok := store.Get(context.Background(), "quota:NOR"); !ok || v != 6 {
		t.Fatalf("expected cached value 6, got %d ok=%v", v, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := store.Get(context.Background(), "quota:NOR"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestStore_Stats(t *testing.T) {
	t.Parallel()

	store := NewStore[string](0)
	ctx := context.Background()

	if _, ok := store.Get(ctx, "resolve:men:NOR:erik valnes"); ok {
		t.Fatalf("expected miss on empty store")
	}
	store.Set(ctx, "resolve:men:NOR:erik valnes", "3422619")
	store.Get(ctx, "resolve:men:NOR:erik valnes")
	store.Get(ctx, "resolve:men:NOR:erik valnes")
	store.Get(ctx, "")

	got := store.Stats()
	if got.Hits != 2 || got.Misses != 1 || got.Entries != 1 {
		t.Fatalf("unexpected stats: %+v", got)
	}
}
