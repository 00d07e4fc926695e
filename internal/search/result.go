package search

import (
	"context"
	"strconv"

	"github.com/alex-user-go/tours/internal/refdata"
	"github.com/alex-user-go/tours/internal/search/types"
	"github.com/alex-user-go/tours/internal/tourvisor"
)

// ResultNormalizer flattens the raw block→hotel→tour structure of a poll
// response into TourRecords. Display names prefer dictionaries embedded in
// the response itself; categories absent from the response fall back to the
// reference-data cache, and hotels finally degrade to a "Hotel <id>"
// placeholder. Name resolution never fails a search.
type ResultNormalizer struct {
	ref           *refdata.Cache
	hotelLinkBase string
}

func NewResultNormalizer(ref *refdata.Cache, hotelLinkBase string) *ResultNormalizer {
	return &ResultNormalizer{ref: ref, hotelLinkBase: hotelLinkBase}
}

// ResultContext carries per-search context to name resolution: the country
// for hotel catalog lookups and the auth tokens those lookups reuse.
type ResultContext struct {
	CountryID     int
	Session       string
	Referrer      string
	RefreshHotels bool
}

// nameSources is the resolver chain for one response: embedded dictionaries
// first, cache tables second.
type nameSources struct {
	hotelDict map[string]any
	roomDict  map[string]any
	mealDict  map[string]any
	opDict    map[int]string

	hotelNames map[int]string
	roomNames  map[int]string
	mealNames  map[int]string
	opNames    map[int]string
}

// HasPricedTour reports whether any nested tour entry carries a resolvable
// positive price. The block marker alone is not enough for readiness.
func HasPricedTour(raw map[string]any) bool {
	data := payloadOf(raw)
	for _, b := range tourvisor.AsList(data["block"]) {
		bm := tourvisor.AsMap(b)
		if bm == nil {
			continue
		}
		for _, h := range tourvisor.AsList(bm["hotel"]) {
			hm := tourvisor.AsMap(h)
			if hm == nil {
				continue
			}
			for _, t := range tourvisor.AsList(hm["tour"]) {
				tm := tourvisor.AsMap(t)
				if tm == nil {
					continue
				}
				if price, ok := tourvisor.ToInt(tourvisor.FirstKey(tm, "price", "pr")); ok && price > 0 {
					return true
				}
			}
		}
	}
	return false
}

// HasBlock reports whether the readiness marker is present, directly or one
// level under "data".
func HasBlock(raw map[string]any) bool {
	if _, ok := raw["block"]; ok {
		return true
	}
	if inner := tourvisor.AsMap(raw["data"]); inner != nil {
		_, ok := inner["block"]
		return ok
	}
	return false
}

// Normalize flattens the poll response into tour records. Tours without a
// parseable price are dropped.
func (rn *ResultNormalizer) Normalize(ctx context.Context, raw map[string]any, rctx ResultContext) []types.TourRecord {
	data := payloadOf(raw)
	block := tourvisor.AsList(data["block"])
	if block == nil {
		return nil
	}

	src := rn.collectSources(ctx, data, rctx)

	var tours []types.TourRecord
	for _, b := range block {
		bm := tourvisor.AsMap(b)
		if bm == nil {
			continue
		}
		for _, h := range tourvisor.AsList(bm["hotel"]) {
			hm := tourvisor.AsMap(h)
			if hm == nil {
				continue
			}
			hotelID, _ := tourvisor.ToInt(tourvisor.FirstKey(hm, "hotelid", "id"))
			for _, t := range tourvisor.AsList(hm["tour"]) {
				tm := tourvisor.AsMap(t)
				if tm == nil {
					continue
				}
				price, ok := tourvisor.ToInt(tourvisor.FirstKey(tm, "price", "pr"))
				if !ok {
					continue
				}
				tours = append(tours, rn.buildRecord(tm, hotelID, price, src))
			}
		}
	}
	return tours
}

func (rn *ResultNormalizer) buildRecord(tm map[string]any, hotelID, price int, src nameSources) types.TourRecord {
	rec := types.TourRecord{
		HotelID: hotelID,
		Price:   price,
		Date:    toISODate(tourvisor.FirstKey(tm, "date", "dt")),
	}
	rec.Nights, _ = tourvisor.ToInt(tourvisor.FirstKey(tm, "nights", "nt"))
	rec.Operator, _ = tourvisor.ToInt(tourvisor.FirstKey(tm, "operator", "op"))
	rec.Room, _ = tourvisor.ToInt(tourvisor.FirstKey(tm, "room", "rm"))
	rec.Meal, _ = tourvisor.ToInt(tourvisor.FirstKey(tm, "meal", "ml"))

	rec.HotelName, rec.HotelLink = rn.resolveHotel(hotelID, src)
	rec.OperatorName = resolveOperator(rec.Operator, src)
	rec.RoomName = resolveDictOrTable(rec.Room, src.roomDict, src.roomNames)
	rec.MealName = resolveDictOrTable(rec.Meal, src.mealDict, src.mealNames)
	return rec
}

func (rn *ResultNormalizer) collectSources(ctx context.Context, data map[string]any, rctx ResultContext) nameSources {
	src := nameSources{
		hotelDict: embeddedHotelDict(data),
		roomDict:  tourvisor.AsMap(data["rooms"]),
		mealDict:  tourvisor.AsMap(data["meal"]),
		opDict:    embeddedOperators(data),
	}
	if src.hotelDict == nil {
		src.hotelNames = rn.ref.HotelNames(ctx, rctx.CountryID, rctx.Session, rctx.Referrer, rctx.RefreshHotels)
	}
	if src.roomDict == nil {
		src.roomNames = rn.ref.RoomNames(ctx)
	}
	if src.mealDict == nil {
		src.mealNames = rn.ref.MealNames(ctx)
	}
	if src.opDict == nil {
		src.opNames = rn.ref.OperatorNames(ctx)
	}
	return src
}

func (rn *ResultNormalizer) resolveHotel(hotelID int, src nameSources) (name, link string) {
	if hotelID == 0 {
		return "", ""
	}
	if src.hotelDict != nil {
		if h := tourvisor.AsMap(src.hotelDict[strconv.Itoa(hotelID)]); h != nil {
			name = tourvisor.ToStr(h["name"])
			if l := tourvisor.ToStr(h["link"]); l != "" {
				link = rn.hotelLinkBase + l
			}
		}
		if name != "" {
			return name, link
		}
	}
	if n, ok := src.hotelNames[hotelID]; ok && n != "" {
		return n, link
	}
	return "Hotel " + strconv.Itoa(hotelID), link
}

func resolveOperator(id int, src nameSources) string {
	if id == 0 {
		return ""
	}
	if src.opDict != nil {
		return src.opDict[id]
	}
	return src.opNames[id]
}

func resolveDictOrTable(id int, dict map[string]any, table map[int]string) string {
	if id == 0 {
		return ""
	}
	if dict != nil {
		if entry := tourvisor.AsMap(dict[strconv.Itoa(id)]); entry != nil {
			return tourvisor.ToStr(entry["name"])
		}
		return ""
	}
	return table[id]
}

// embeddedHotelDict finds a hotel dictionary inside the response: a "hotels"
// mapping, a "hotel" mapping whose values are all objects, or numeric
// top-level keys pointing at hotel-shaped objects.
func embeddedHotelDict(data map[string]any) map[string]any {
	if d := tourvisor.AsMap(data["hotels"]); d != nil {
		return d
	}
	if d := tourvisor.AsMap(data["hotel"]); d != nil {
		allObjects := true
		for _, v := range d {
			if tourvisor.AsMap(v) == nil {
				allObjects = false
				break
			}
		}
		if allObjects {
			return d
		}
	}
	filtered := map[string]any{}
	for k, v := range data {
		if _, err := strconv.Atoi(k); err != nil {
			continue
		}
		h := tourvisor.AsMap(v)
		if h == nil || h["name"] == nil {
			continue
		}
		if !hasAnyKey(h, "countrycode", "stars", "region", "link") {
			continue
		}
		filtered[k] = v
	}
	if len(filtered) > 0 {
		return filtered
	}
	return nil
}

func embeddedOperators(data map[string]any) map[int]string {
	ops, ok := data["operators"].([]any)
	if !ok {
		return nil
	}
	out := map[int]string{}
	for _, raw := range ops {
		o := tourvisor.AsMap(raw)
		if o == nil {
			continue
		}
		id, ok := tourvisor.ToInt(o["id"])
		if !ok {
			continue
		}
		out[id] = tourvisor.ToStr(o["name"])
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func hasAnyKey(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

// payloadOf unwraps the optional "data" envelope around poll payloads.
func payloadOf(raw map[string]any) map[string]any {
	if inner := tourvisor.AsMap(raw["data"]); inner != nil {
		if _, ok := inner["block"]; ok {
			return inner
		}
	}
	return raw
}
