package entity

// Wagon types recognized by the provider.
const (
	WagonTypePlatzcart = "PLATZCART"
	WagonTypeCoupe     = "COUPE"
)

// Seat positions derived from seat number parity.
const (
	PositionUpper = "upper"
	PositionLower = "lower"
)

// BookingRequest is one booking task as delivered from the queue.
// Identifiers are optional; which ones are present decides the
// resolution tier.
type BookingRequest struct {
	UserID        int64    `json:"user_id"`
	TrainID       *int64   `json:"train_id,omitempty"`
	WagonID       *int64   `json:"wagon_id,omitempty"`
	SeatID        *int64   `json:"seat_id,omitempty"`
	Route         string   `json:"route"`
	DateFrom      string   `json:"date_from"`
	DateTo        string   `json:"date_to"`
	WagonType     string   `json:"wagon_type,omitempty"`
	PlacePosition []string `json:"place_position,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	SeatsQty      int      `json:"seats_qty,omitempty"`
	NeedNearby    bool     `json:"need_nearby,omitempty"`
}

// WantedSeats returns the number of seats the request asks for.
// Unset means exactly one.
func (r *BookingRequest) WantedSeats() int {
	if r.SeatsQty > 0 {
		return r.SeatsQty
	}
	return 1
}

// WantsPosition reports whether the given seat position satisfies the
// request's place constraint. An empty constraint accepts everything.
func (r *BookingRequest) WantsPosition(position string) bool {
	if len(r.PlacePosition) == 0 {
		return true
	}
	for _, p := range r.PlacePosition {
		if p == position {
			return true
		}
	}
	return false
}
