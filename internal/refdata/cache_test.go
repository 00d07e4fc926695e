package refdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeFetcher serves canned list/catalog responses and records call counts.
type fakeFetcher struct {
	lists     map[string]map[string]int // keyed by keyName
	listErr   error
	listCalls map[string]int

	catalog     map[string]any
	catalogErr  error
	catalogCall int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		lists:     map[string]map[string]int{},
		listCalls: map[string]int{},
	}
}

func (f *fakeFetcher) FetchList(_ context.Context, _, keyName, _ string, _ map[string]string) (map[string]int, error) {
	f.listCalls[keyName]++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.lists[keyName], nil
}

func (f *fakeFetcher) Get(_ context.Context, _ string, _ map[string]string) (map[string]any, error) {
	f.catalogCall++
	if f.catalogErr != nil {
		return nil, f.catalogErr
	}
	return f.catalog, nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestCache(f Fetcher, clock *fakeClock) *Cache {
	return New(Config{
		Endpoints: Endpoints{
			Country:  "http://up/listcountry",
			Dep:      "http://up/listdep",
			Hotel:    "http://up/listhotel",
			Meal:     "http://up/listmeal",
			Room:     "http://up/listroom",
			Operator: "http://up/listoperator",
			Dev:      "http://up/listdev",
		},
		TTL: time.Hour,
	}, f, zap.NewNop()).WithClock(clock.Now)
}

func TestCache_Freshness(t *testing.T) {
	f := newFakeFetcher()
	f.lists["country"] = map[string]int{"египет": 1}
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	cache := newTestCache(f, clock)

	got := cache.CountryIDs(context.Background())
	assert.Equal(t, 1, got["египет"])
	require.Equal(t, 1, f.listCalls["country"])

	// Within TTL: no new upstream call.
	clock.Advance(30 * time.Minute)
	_ = cache.CountryIDs(context.Background())
	require.Equal(t, 1, f.listCalls["country"])

	// After TTL expiry: refreshed lazily on access.
	clock.Advance(31 * time.Minute)
	_ = cache.CountryIDs(context.Background())
	require.Equal(t, 2, f.listCalls["country"])
}

func TestCache_CountryFallback(t *testing.T) {
	tests := []struct {
		name    string
		listErr error
		lists   map[string]int
	}{
		{"fetch error", errors.New("connection refused"), nil},
		{"empty list", nil, map[string]int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeFetcher()
			f.listErr = tt.listErr
			f.lists["country"] = tt.lists
			clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
			cache := newTestCache(f, clock)

			got := cache.CountryIDs(context.Background())
			assert.Equal(t, 1, got["египет"])
			assert.Equal(t, 4, got["турция"])
			assert.GreaterOrEqual(t, len(got), 10)
		})
	}
}

func TestCache_DepartureFallback(t *testing.T) {
	f := newFakeFetcher()
	f.listErr = errors.New("boom")
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	cache := newTestCache(f, clock)

	got := cache.DepartureIDs(context.Background())
	assert.Equal(t, 1, got["москва"])
	assert.Equal(t, 5, got["спб"])
}

func TestCache_MealNames_EmptyOnFailure(t *testing.T) {
	f := newFakeFetcher()
	f.listErr = errors.New("boom")
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	cache := newTestCache(f, clock)

	got := cache.MealNames(context.Background())
	assert.Empty(t, got)

	// The empty result is cached with a timestamp, not retried per access.
	_ = cache.MealNames(context.Background())
	assert.Equal(t, 1, f.listCalls["meal"])
}

func TestCache_IDTables_Inverted(t *testing.T) {
	f := newFakeFetcher()
	f.lists["meal"] = map[string]int{"bb": 2, "ai": 4}
	f.lists["room"] = map[string]int{"standard": 2}
	f.lists["operator"] = map[string]int{"sunny tour": 16}
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	cache := newTestCache(f, clock)

	assert.Equal(t, map[int]string{2: "bb", 4: "ai"}, cache.MealNames(context.Background()))
	assert.Equal(t, map[int]string{2: "standard"}, cache.RoomNames(context.Background()))
	assert.Equal(t, map[int]string{16: "sunny tour"}, cache.OperatorNames(context.Background()))
}

func TestCache_HotelNames(t *testing.T) {
	tests := []struct {
		name    string
		catalog map[string]any
		list    map[string]int
		want    map[int]string
	}{
		{
			name: "listdev nested shape",
			catalog: map[string]any{"lists": map[string]any{"hotels": map[string]any{"hotel": []any{
				map[string]any{"id": float64(501), "name": "Coral Beach"},
				map[string]any{"hotelid": "502", "name": "Sunrise Palace"},
			}}}},
			want: map[int]string{501: "Coral Beach", 502: "Sunrise Palace"},
		},
		{
			name: "top-level hotels list",
			catalog: map[string]any{"hotels": []any{
				map[string]any{"id": float64(7), "name": "Laguna"},
			}},
			want: map[int]string{7: "Laguna"},
		},
		{
			name: "hotel mapping keyed by id",
			catalog: map[string]any{"hotel": map[string]any{
				"9": map[string]any{"name": "Vista"},
			}},
			want: map[int]string{9: "Vista"},
		},
		{
			name: "numeric top-level keys",
			catalog: map[string]any{
				"11":     map[string]any{"name": "Delta"},
				"status": "ok",
			},
			want: map[int]string{11: "Delta"},
		},
		{
			name: "data wrapper around catalog",
			catalog: map[string]any{"data": map[string]any{"hotels": []any{
				map[string]any{"id": float64(3), "name": "Wrapped"},
			}}},
			want: map[int]string{3: "Wrapped"},
		},
		{
			name:    "empty catalog falls back to hotel list endpoint",
			catalog: map[string]any{"status": "none"},
			list:    map[string]int{"fallback inn": 77},
			want:    map[int]string{77: "fallback inn"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeFetcher()
			f.catalog = tt.catalog
			f.lists["hotel"] = tt.list
			clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
			cache := newTestCache(f, clock)

			got := cache.HotelNames(context.Background(), 1, "s", "r", false)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCache_HotelNames_ForceRefresh(t *testing.T) {
	f := newFakeFetcher()
	f.catalog = map[string]any{"hotels": []any{map[string]any{"id": float64(1), "name": "A"}}}
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	cache := newTestCache(f, clock)

	_ = cache.HotelNames(context.Background(), 1, "", "", false)
	require.Equal(t, 1, f.catalogCall)

	// Fresh entry: served from cache.
	_ = cache.HotelNames(context.Background(), 1, "", "", false)
	require.Equal(t, 1, f.catalogCall)

	// force refresh bypasses the TTL check for this category only.
	_ = cache.HotelNames(context.Background(), 1, "", "", true)
	require.Equal(t, 2, f.catalogCall)
}

func TestCache_HotelNames_PerCountry(t *testing.T) {
	f := newFakeFetcher()
	f.catalog = map[string]any{"hotels": []any{map[string]any{"id": float64(1), "name": "A"}}}
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	cache := newTestCache(f, clock)

	_ = cache.HotelNames(context.Background(), 1, "", "", false)
	_ = cache.HotelNames(context.Background(), 4, "", "", false)
	assert.Equal(t, 2, f.catalogCall)

	assert.Empty(t, cache.HotelNames(context.Background(), 0, "", "", false))
}
