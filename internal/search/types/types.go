package types

// TourRecord is the flattened, canonical representation of one priced tour
// offer. Price is always present; entries without a resolvable price never
// become records. Zero-valued ids mean the upstream did not supply the field.
type TourRecord struct {
	HotelID      int    `json:"hotel_id"`
	HotelName    string `json:"hotel_name,omitempty"`
	HotelLink    string `json:"hotel_link,omitempty"`
	Operator     int    `json:"operator,omitempty"`
	OperatorName string `json:"operator_name,omitempty"`
	Date         string `json:"date,omitempty"`
	Nights       int    `json:"nights,omitempty"`
	Price        int    `json:"price"`
	Room         int    `json:"room,omitempty"`
	RoomName     string `json:"room_name,omitempty"`
	Meal         int    `json:"meal,omitempty"`
	MealName     string `json:"meal_name,omitempty"`
}

// SearchResult is a completed search: the upstream request identifier and
// the normalized tour list.
type SearchResult struct {
	RequestID string       `json:"requestid"`
	Tours     []TourRecord `json:"tours"`
}
