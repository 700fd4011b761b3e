package entity

// SeatStatusFree marks a seat the provider still accepts bookings for.
const SeatStatusFree = "FREE"

// WagonSummary is the wagon entry inside a train response.
type WagonSummary struct {
	WagonID int64  `json:"wagon_id"`
	Type    string `json:"wagonType"`
}

// Train is one train as returned by the provider. Fetched fresh per
// request, never cached.
type Train struct {
	TrainID             int64          `json:"train_id"`
	StartpointDeparture string         `json:"startpoint_departure"`
	WagonsInfo          []WagonSummary `json:"wagons_info"`
	AvailableSeatsCount int            `json:"available_seats_count"`
}

// Seat is one seat inside a wagon. The seat number's parity determines
// its upper/lower position.
type Seat struct {
	SeatID        int64   `json:"seat_id"`
	SeatNum       string  `json:"seatNum"`
	Block         string  `json:"block"`
	Price         float64 `json:"price"`
	BookingStatus string  `json:"bookingStatus"`
}

// Free reports whether the seat can still be booked.
func (s *Seat) Free() bool {
	return s.BookingStatus == SeatStatusFree
}

// CandidateSeat is a seat that passed filtering for one request.
type CandidateSeat struct {
	TrainID int64
	WagonID int64
	Seat    Seat
}
