// Package refdata caches the upstream's slow-changing reference lists:
// countries, departure cities, meal plans, room types, operators and the
// per-country hotel catalogs. Entries refresh lazily on access after the TTL
// expires; lookups degrade to static fallback tables (country, departure) or
// to empty mappings instead of failing the caller.
package refdata

import (
	"context"
	"encoding/json"
	"maps"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alex-user-go/tours/internal/obs"
	"github.com/alex-user-go/tours/internal/tourvisor"
)

// Fetcher is the subset of the upstream client the cache needs. Tests
// substitute canned responses through it.
type Fetcher interface {
	Get(ctx context.Context, rawURL string, params map[string]string) (map[string]any, error)
	FetchList(ctx context.Context, rawURL, keyName, idField string, params map[string]string) (map[string]int, error)
}

// Endpoints holds the reference-list URLs.
type Endpoints struct {
	Country  string
	Dep      string
	Hotel    string
	Meal     string
	Room     string
	Operator string
	// Dev is the richer per-country hotel catalog endpoint tried before
	// the plain hotel list.
	Dev string
}

// Config configures the cache.
type Config struct {
	Endpoints       Endpoints
	TTL             time.Duration
	DefaultSession  string
	DefaultReferrer string
}

// Fallback tables keep the gateway functional when the country/departure
// list endpoints are unreachable. Keys are lowercased upstream names.
var countryFallback = map[string]int{
	"египет":    1,
	"турция":    4,
	"оаэ":       9,
	"таиланд":   2,
	"кипр":      15,
	"греция":    6,
	"испания":   14,
	"италия":    24,
	"франция":   32,
	"мальдивы":  8,
	"вьетнам":   16,
	"индонезия": 7,
	"доминикана": 11,
	"куба":      10,
	"тунис":     5,
}

var departureFallback = map[string]int{
	"москва":          1,
	"санкт-петербург": 5,
	"спб":             5,
	"питер":           5,
	"казань":          10,
	"екатеринбург":    3,
	"новосибирск":     9,
	"минск":           57,
	"алматы":          60,
	"астана":          59,
}

type nameEntry struct {
	mu        sync.Mutex
	fetchedAt time.Time
	data      map[string]int
}

type idEntry struct {
	mu        sync.Mutex
	fetchedAt time.Time
	data      map[int]string
}

type hotelEntry struct {
	fetchedAt time.Time
	data      map[int]string
}

// Cache is the six-category reference-data cache. Each category is guarded
// by its own mutex; no code path takes two category locks at once.
type Cache struct {
	cfg     Config
	fetcher Fetcher
	now     func() time.Time
	logger  *zap.Logger

	country   nameEntry
	departure nameEntry
	meal      idEntry
	room      idEntry
	operator  idEntry

	hotelMu sync.Mutex
	hotels  map[int]*hotelEntry
}

// New creates a Cache. The clock defaults to time.Now and exists so tests
// can drive TTL expiry without sleeping.
func New(cfg Config, fetcher Fetcher, logger *zap.Logger) *Cache {
	return &Cache{
		cfg:     cfg,
		fetcher: fetcher,
		now:     time.Now,
		logger:  logger,
		hotels:  map[int]*hotelEntry{},
	}
}

// WithClock replaces the cache clock. Intended for tests.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

func (c *Cache) fresh(fetchedAt time.Time) bool {
	return !fetchedAt.IsZero() && c.now().Sub(fetchedAt) < c.cfg.TTL
}

// CountryIDs returns the country name→id table, falling back to the static
// table when the upstream yields nothing.
func (c *Cache) CountryIDs(ctx context.Context) map[string]int {
	return c.nameTable(ctx, &c.country, "country", c.cfg.Endpoints.Country, countryFallback)
}

// DepartureIDs returns the departure-city name→id table with its fallback.
func (c *Cache) DepartureIDs(ctx context.Context) map[string]int {
	return c.nameTable(ctx, &c.departure, "departure", c.cfg.Endpoints.Dep, departureFallback)
}

// MealNames returns the meal-plan id→name table; empty when unavailable.
func (c *Cache) MealNames(ctx context.Context) map[int]string {
	return c.idTable(ctx, &c.meal, "meal", c.cfg.Endpoints.Meal)
}

// RoomNames returns the room-type id→name table; empty when unavailable.
func (c *Cache) RoomNames(ctx context.Context) map[int]string {
	return c.idTable(ctx, &c.room, "room", c.cfg.Endpoints.Room)
}

// OperatorNames returns the operator id→name table; empty when unavailable.
func (c *Cache) OperatorNames(ctx context.Context) map[int]string {
	return c.idTable(ctx, &c.operator, "operator", c.cfg.Endpoints.Operator)
}

func (c *Cache) nameTable(ctx context.Context, e *nameEntry, category, url string, fallback map[string]int) map[string]int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if c.fresh(e.fetchedAt) {
		obs.CacheLookups.WithLabelValues(category, "hit").Inc()
		return e.data
	}
	obs.CacheLookups.WithLabelValues(category, "miss").Inc()

	data, err := c.fetcher.FetchList(ctx, url, category, "id", nil)
	if err != nil || len(data) == 0 {
		if err != nil {
			c.logger.Warn("reference list fetch failed, using fallback",
				zap.String("category", category), zap.Error(err))
		}
		obs.CacheLookups.WithLabelValues(category, "fallback").Inc()
		data = maps.Clone(fallback)
	}
	e.data = data
	e.fetchedAt = c.now()
	return e.data
}

func (c *Cache) idTable(ctx context.Context, e *idEntry, category, url string) map[int]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if c.fresh(e.fetchedAt) {
		obs.CacheLookups.WithLabelValues(category, "hit").Inc()
		return e.data
	}
	obs.CacheLookups.WithLabelValues(category, "miss").Inc()

	out := map[int]string{}
	raw, err := c.fetcher.FetchList(ctx, url, category, "id", nil)
	if err != nil {
		c.logger.Warn("reference list fetch failed",
			zap.String("category", category), zap.Error(err))
	}
	for name, id := range raw {
		out[id] = name
	}
	e.data = out
	e.fetchedAt = c.now()
	return e.data
}

// HotelNames returns the hotel id→name table for a country. The catalog
// endpoint is tried first (it supports several response shapes), then the
// plain per-country hotel list. forceRefresh bypasses the TTL check for
// this category only.
func (c *Cache) HotelNames(ctx context.Context, countryID int, session, referrer string, forceRefresh bool) map[int]string {
	if countryID == 0 {
		return map[int]string{}
	}

	c.hotelMu.Lock()
	defer c.hotelMu.Unlock()

	if !forceRefresh {
		if e, ok := c.hotels[countryID]; ok && c.fresh(e.fetchedAt) && len(e.data) > 0 {
			obs.CacheLookups.WithLabelValues("hotel", "hit").Inc()
			return e.data
		}
	}
	obs.CacheLookups.WithLabelValues("hotel", "miss").Inc()

	out := c.fetchHotelCatalog(ctx, countryID, session, referrer)
	if len(out) == 0 {
		out = c.fetchHotelList(ctx, countryID)
	}

	c.hotels[countryID] = &hotelEntry{fetchedAt: c.now(), data: out}
	return out
}

func (c *Cache) fetchHotelCatalog(ctx context.Context, countryID int, session, referrer string) map[int]string {
	params := map[string]string{
		"type":       "allhotel",
		"hotcountry": strconv.Itoa(countryID),
		"format":     "json",
	}
	if referrer == "" {
		referrer = c.cfg.DefaultReferrer
	}
	if referrer != "" {
		params["referrer"] = referrer
	}
	if session == "" {
		session = c.cfg.DefaultSession
	}
	if session != "" {
		params["session"] = session
	}

	data, err := c.fetcher.Get(ctx, c.cfg.Endpoints.Dev, params)
	if err != nil {
		c.logger.Warn("hotel catalog fetch failed",
			zap.Int("country", countryID), zap.Error(err))
		return map[int]string{}
	}
	return parseHotelCatalog(data)
}

// parseHotelCatalog digs hotel entries out of the catalog response. Observed
// shapes: {"lists":{"hotels":{"hotel":[...]}}}, a top-level hotel/hotels/items
// list or mapping, and hotels keyed directly by numeric id at the top level.
// The payload is sometimes wrapped in "data" or "result".
func parseHotelCatalog(data map[string]any) map[int]string {
	out := map[int]string{}

	if raw, ok := data["raw_text"].(string); ok {
		data = decodeRawJSON(raw)
	}
	if inner := tourvisor.AsMap(data["data"]); inner != nil {
		data = inner
	}
	if inner := tourvisor.AsMap(data["result"]); inner != nil {
		data = inner
	}

	var hotels any
	if lists := tourvisor.AsMap(data["lists"]); lists != nil {
		if hs := tourvisor.AsMap(lists["hotels"]); hs != nil {
			hotels = hs["hotel"]
		}
		if hotels == nil {
			if l, ok := lists["hotel"].([]any); ok {
				hotels = l
			}
		}
	} else {
		hotels = tourvisor.FirstKey(data, "hotel", "hotels", "items")
	}

	switch t := hotels.(type) {
	case []any:
		for _, raw := range t {
			h := tourvisor.AsMap(raw)
			if h == nil {
				continue
			}
			id, ok := tourvisor.ToInt(tourvisor.FirstKey(h, "id", "hotelid"))
			name := tourvisor.ToStr(h["name"])
			if !ok || name == "" {
				continue
			}
			out[id] = name
		}
	case map[string]any:
		for key, raw := range t {
			h := tourvisor.AsMap(raw)
			if h == nil {
				continue
			}
			id, ok := tourvisor.ToInt(key)
			name := tourvisor.ToStr(h["name"])
			if !ok || name == "" {
				continue
			}
			out[id] = name
		}
	}

	if len(out) == 0 {
		// Hotels keyed by numeric id at the top level.
		for key, raw := range data {
			if _, err := strconv.Atoi(key); err != nil {
				continue
			}
			h := tourvisor.AsMap(raw)
			if h == nil || h["name"] == nil {
				continue
			}
			id, _ := tourvisor.ToInt(key)
			out[id] = tourvisor.ToStr(h["name"])
		}
	}
	return out
}

func (c *Cache) fetchHotelList(ctx context.Context, countryID int) map[int]string {
	out := map[int]string{}
	raw, err := c.fetcher.FetchList(ctx, c.cfg.Endpoints.Hotel, "hotel", "id",
		map[string]string{"country": strconv.Itoa(countryID)})
	if err != nil {
		c.logger.Warn("hotel list fetch failed",
			zap.Int("country", countryID), zap.Error(err))
		return out
	}
	for name, id := range raw {
		out[id] = name
	}
	return out
}

func decodeRawJSON(raw string) map[string]any {
	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return map[string]any{}
	}
	return data
}
