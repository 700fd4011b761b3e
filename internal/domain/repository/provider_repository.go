package repository

import (
	"context"

	"railbook-service/internal/domain/entity"
)

// InventoryProvider defines typed access to the train inventory and
// booking API. Implementations absorb transient provider failures and
// return empty results; only authentication failures surface as errors.
type InventoryProvider interface {
	SearchTrains(ctx context.Context, from, to string) ([]entity.Train, error)
	GetTrain(ctx context.Context, trainID int64) (*entity.Train, error)
	GetWagonSeats(ctx context.Context, trainID, wagonID int64) ([]entity.Seat, error)
	// SubmitOrders dispatches all orders concurrently and returns
	// positional results: nil at a position means that order failed.
	SubmitOrders(ctx context.Context, orders []entity.FinalOrder) ([]*entity.BookingResult, error)
}
