package entity

// MaxSeatsPerOrder is the provider's cap on seats within one order.
const MaxSeatsPerOrder = 10

// OrderDraft accumulates selected seats for one (train, wagon) pair
// before the per-order cap is applied.
type OrderDraft struct {
	TrainID int64
	WagonID int64
	UserID  int64
	SeatIDs []int64
}

// AddSeat appends a seat id, ignoring duplicates.
func (d *OrderDraft) AddSeat(seatID int64) {
	for _, id := range d.SeatIDs {
		if id == seatID {
			return
		}
	}
	d.SeatIDs = append(d.SeatIDs, seatID)
}

// FinalOrder is the provider-submittable booking unit. Carries at most
// MaxSeatsPerOrder seat ids.
type FinalOrder struct {
	TrainID int64   `json:"train_id"`
	WagonID int64   `json:"wagon_id"`
	SeatIDs []int64 `json:"seat_ids"`
	UserID  int64   `json:"-"`
}

// BookingResult echoes a submitted order back to the backoffice.
type BookingResult struct {
	TrainID     int64   `json:"train_id"`
	WagonID     int64   `json:"wagon_id"`
	SeatIDs     []int64 `json:"seat_ids"`
	UserID      int64   `json:"user_id"`
	BookingDate string  `json:"booking_date"`
	OrderID     int64   `json:"order_id"`
}
