package usecase

import (
	"context"
	"fmt"
	"time"

	"railbook-service/internal/domain/entity"
	"railbook-service/internal/domain/repository"
	"railbook-service/pkg/logger"
	"railbook-service/pkg/utils"
)

// Status is the terminal outcome of one booking request.
type Status int

const (
	// StatusResolved means at least one order was booked.
	StatusResolved Status = iota
	// StatusNoBooking means no seats matched the constraints. A normal
	// negative result, not an error.
	StatusNoBooking
	// StatusExpired means the request's date window already passed.
	StatusExpired
)

// Result is the outcome of Pipeline.Process.
type Result struct {
	Status Status
	Orders []*entity.BookingResult
}

// TierSelector picks the resolution tier for a request.
type TierSelector interface {
	GetHandler(req *entity.BookingRequest) TierHandler
}

// Pipeline is the top-level booking orchestrator: pick a tier, resolve
// drafts, aggregate them into final orders and submit.
type Pipeline struct {
	tiers      TierSelector
	provider   repository.InventoryProvider
	aggregator *Aggregator
	logger     logger.Logger
	now        func() time.Time
}

// NewPipeline creates a new booking pipeline
func NewPipeline(tiers TierSelector, provider repository.InventoryProvider, aggregator *Aggregator, log logger.Logger) *Pipeline {
	return &Pipeline{
		tiers:      tiers,
		provider:   provider,
		aggregator: aggregator,
		logger:     log,
		now:        time.Now,
	}
}

// Process resolves and books one request. Errors mean an internal
// fault (the message should requeue); every legitimate outcome,
// including "nothing bookable", comes back as a Result.
func (p *Pipeline) Process(ctx context.Context, req *entity.BookingRequest) (*Result, error) {
	dateTo, err := utils.ParseProviderTime(req.DateTo)
	if err != nil {
		return nil, fmt.Errorf("invalid date_to: %w", err)
	}
	if !dateTo.After(p.now()) {
		return &Result{Status: StatusExpired}, nil
	}

	handler := p.tiers.GetHandler(req)
	if handler == nil {
		return nil, fmt.Errorf("no resolution tier accepts the request")
	}

	drafts, err := handler.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(drafts) == 0 {
		return &Result{Status: StatusNoBooking}, nil
	}

	drafts = p.aggregator.GroupCommonTrain(drafts)
	drafts = p.aggregator.MergeSmallDrafts(drafts)
	orders := p.aggregator.SplitDrafts(drafts)
	for _, order := range orders {
		if len(order.SeatIDs) == 0 {
			return nil, fmt.Errorf("order without seats for train %d wagon %d", order.TrainID, order.WagonID)
		}
	}

	results, err := p.provider.SubmitOrders(ctx, orders)
	if err != nil {
		return nil, err
	}

	var booked []*entity.BookingResult
	for _, result := range results {
		if result != nil {
			booked = append(booked, result)
		}
	}
	if len(booked) == 0 {
		return nil, fmt.Errorf("provider accepted none of %d orders", len(orders))
	}
	if len(booked) < len(orders) {
		p.logger.Warn("partial booking", "requested", len(orders), "booked", len(booked))
	}
	return &Result{Status: StatusResolved, Orders: booked}, nil
}
