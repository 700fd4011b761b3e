package repository

import (
	"context"

	"railbook-service/internal/domain/entity"
)

// OrderNotifier forwards completed bookings to the internal backoffice.
type OrderNotifier interface {
	SaveNewOrder(ctx context.Context, result *entity.BookingResult) error
}
