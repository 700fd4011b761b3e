package router

import (
	"railbook-service/internal/domain/entity"
	"railbook-service/internal/usecase"
	"railbook-service/pkg/logger"
)

// TierRouter routes booking requests to resolution tiers. Registration
// order is priority order: the first handler that accepts the request
// wins.
type TierRouter struct {
	handlers []usecase.TierHandler
	logger   logger.Logger
}

// NewTierRouter creates a new tier router
func NewTierRouter(logger logger.Logger) *TierRouter {
	return &TierRouter{
		handlers: make([]usecase.TierHandler, 0),
		logger:   logger,
	}
}

// Register appends a handler at the lowest priority so far.
func (r *TierRouter) Register(handler usecase.TierHandler) {
	r.handlers = append(r.handlers, handler)
	r.logger.Info("Registered resolution tier", "tier", len(r.handlers))
}

// GetHandler returns the highest-priority handler accepting the request.
func (r *TierRouter) GetHandler(req *entity.BookingRequest) usecase.TierHandler {
	for _, handler := range r.handlers {
		if handler.CanHandle(req) {
			return handler
		}
	}
	return nil
}
