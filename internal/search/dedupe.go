package search

import "github.com/alex-user-go/tours/internal/search/types"

// UniqueHotels keeps the cheapest tour per hotel. Ties keep the first record
// encountered; records without a hotel id are dropped. Output preserves the
// first-seen order of the surviving hotels.
func UniqueHotels(tours []types.TourRecord) []types.TourRecord {
	best := map[int]int{} // hotel id → index into out
	var out []types.TourRecord
	for _, t := range tours {
		if t.HotelID == 0 {
			continue
		}
		if i, ok := best[t.HotelID]; ok {
			if t.Price < out[i].Price {
				out[i] = t
			}
			continue
		}
		best[t.HotelID] = len(out)
		out = append(out, t)
	}
	return out
}
