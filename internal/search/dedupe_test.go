package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alex-user-go/tours/internal/search/types"
)

func TestUniqueHotels(t *testing.T) {
	tests := []struct {
		name string
		in   []types.TourRecord
		want []types.TourRecord
	}{
		{
			name: "cheapest tour wins per hotel",
			in: []types.TourRecord{
				{HotelID: 1, Price: 500, Room: 1},
				{HotelID: 2, Price: 300},
				{HotelID: 1, Price: 400, Room: 2},
			},
			want: []types.TourRecord{
				{HotelID: 1, Price: 400, Room: 2},
				{HotelID: 2, Price: 300},
			},
		},
		{
			name: "price tie keeps the first record",
			in: []types.TourRecord{
				{HotelID: 1, Price: 400, Operator: 7},
				{HotelID: 1, Price: 400, Operator: 9},
			},
			want: []types.TourRecord{
				{HotelID: 1, Price: 400, Operator: 7},
			},
		},
		{
			name: "records without a hotel id are dropped",
			in: []types.TourRecord{
				{HotelID: 0, Price: 100},
				{HotelID: 3, Price: 200},
			},
			want: []types.TourRecord{
				{HotelID: 3, Price: 200},
			},
		},
		{
			name: "first-seen order preserved after replacement",
			in: []types.TourRecord{
				{HotelID: 5, Price: 900},
				{HotelID: 6, Price: 100},
				{HotelID: 5, Price: 150},
				{HotelID: 7, Price: 50},
			},
			want: []types.TourRecord{
				{HotelID: 5, Price: 150},
				{HotelID: 6, Price: 100},
				{HotelID: 7, Price: 50},
			},
		},
		{
			name: "empty input",
			in:   nil,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UniqueHotels(tt.in))
		})
	}
}

func TestUniqueHotels_PriceNeverAboveInput(t *testing.T) {
	in := []types.TourRecord{
		{HotelID: 1, Price: 820}, {HotelID: 2, Price: 415},
		{HotelID: 1, Price: 610}, {HotelID: 1, Price: 990},
		{HotelID: 2, Price: 380}, {HotelID: 3, Price: 275},
	}
	minPrice := map[int]int{}
	for _, t2 := range in {
		if p, ok := minPrice[t2.HotelID]; !ok || t2.Price < p {
			minPrice[t2.HotelID] = t2.Price
		}
	}

	out := UniqueHotels(in)
	assert.Len(t, out, 3)
	seen := map[int]bool{}
	for _, rec := range out {
		assert.False(t, seen[rec.HotelID], "hotel %d appears twice", rec.HotelID)
		seen[rec.HotelID] = true
		assert.Equal(t, minPrice[rec.HotelID], rec.Price)
	}
}
