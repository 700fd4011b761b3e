package usecase

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"railbook-service/internal/domain/entity"
	"railbook-service/internal/domain/repository"
	"railbook-service/pkg/logger"
	"railbook-service/pkg/utils"
)

// TierHandler resolves one class of booking request into order drafts.
// An empty draft list means this request cannot be booked; an error
// means the whole attempt failed (e.g. authentication).
type TierHandler interface {
	CanHandle(req *entity.BookingRequest) bool
	Resolve(ctx context.Context, req *entity.BookingRequest) ([]*entity.OrderDraft, error)
}

// tierDeps is the shared plumbing of every tier.
type tierDeps struct {
	provider   repository.InventoryProvider
	aggregator *Aggregator
	logger     logger.Logger
}

// resolveWagon filters one wagon's seats against the request and
// enforces the adjacency rule on the selection.
func (t *tierDeps) resolveWagon(ctx context.Context, req *entity.BookingRequest, trainID, wagonID int64) ([]entity.CandidateSeat, error) {
	seats, err := t.provider.GetWagonSeats(ctx, trainID, wagonID)
	if err != nil {
		return nil, err
	}
	chosen := t.aggregator.SelectSeats(trainID, wagonID, seats, req)
	if len(chosen) == 0 {
		return nil, nil
	}
	if req.NeedNearby && !t.aggregator.CheckAdjacency(chosen) {
		t.logger.Info("selected seats are not adjacent", "trainId", trainID, "wagonId", wagonID)
		return nil, nil
	}
	return chosen, nil
}

// resolveTrain fans out over the train's wagons concurrently and keeps
// the first wagon, in provider order, that produced a selection. A
// wagon whose query came back empty simply contributes no candidates.
func (t *tierDeps) resolveTrain(ctx context.Context, req *entity.BookingRequest, train *entity.Train) ([]entity.CandidateSeat, error) {
	if train == nil || train.AvailableSeatsCount == 0 {
		return nil, nil
	}

	var wagons []entity.WagonSummary
	for _, wagon := range train.WagonsInfo {
		if req.WagonType != "" && wagon.Type != req.WagonType {
			continue
		}
		wagons = append(wagons, wagon)
	}

	selections := make([][]entity.CandidateSeat, len(wagons))
	g, gctx := errgroup.WithContext(ctx)
	for i, wagon := range wagons {
		g.Go(func() error {
			chosen, err := t.resolveWagon(gctx, req, train.TrainID, wagon.WagonID)
			if err != nil {
				return err
			}
			selections[i] = chosen
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, chosen := range selections {
		if len(chosen) > 0 {
			return chosen, nil
		}
	}
	return nil, nil
}

// ExplicitSeatTier books the exact seat the request names. No search.
type ExplicitSeatTier struct {
	tierDeps
}

// NewExplicitSeatTier creates the explicit-seat tier
func NewExplicitSeatTier(provider repository.InventoryProvider, aggregator *Aggregator, log logger.Logger) *ExplicitSeatTier {
	return &ExplicitSeatTier{tierDeps{provider: provider, aggregator: aggregator, logger: log}}
}

func (h *ExplicitSeatTier) CanHandle(req *entity.BookingRequest) bool {
	return req.TrainID != nil && req.WagonID != nil && req.SeatID != nil
}

func (h *ExplicitSeatTier) Resolve(ctx context.Context, req *entity.BookingRequest) ([]*entity.OrderDraft, error) {
	return []*entity.OrderDraft{{
		TrainID: *req.TrainID,
		WagonID: *req.WagonID,
		UserID:  req.UserID,
		SeatIDs: []int64{*req.SeatID},
	}}, nil
}

// ExplicitWagonTier filters seats inside the named wagon only.
type ExplicitWagonTier struct {
	tierDeps
}

// NewExplicitWagonTier creates the explicit-wagon tier
func NewExplicitWagonTier(provider repository.InventoryProvider, aggregator *Aggregator, log logger.Logger) *ExplicitWagonTier {
	return &ExplicitWagonTier{tierDeps{provider: provider, aggregator: aggregator, logger: log}}
}

func (h *ExplicitWagonTier) CanHandle(req *entity.BookingRequest) bool {
	return req.TrainID != nil && req.WagonID != nil && req.SeatID == nil
}

func (h *ExplicitWagonTier) Resolve(ctx context.Context, req *entity.BookingRequest) ([]*entity.OrderDraft, error) {
	chosen, err := h.resolveWagon(ctx, req, *req.TrainID, *req.WagonID)
	if err != nil {
		return nil, err
	}
	return h.aggregator.BuildDrafts(req.UserID, chosen), nil
}

// ExplicitTrainTier searches every wagon of the named train.
type ExplicitTrainTier struct {
	tierDeps
}

// NewExplicitTrainTier creates the explicit-train tier
func NewExplicitTrainTier(provider repository.InventoryProvider, aggregator *Aggregator, log logger.Logger) *ExplicitTrainTier {
	return &ExplicitTrainTier{tierDeps{provider: provider, aggregator: aggregator, logger: log}}
}

func (h *ExplicitTrainTier) CanHandle(req *entity.BookingRequest) bool {
	return req.TrainID != nil && req.WagonID == nil && req.SeatID == nil
}

func (h *ExplicitTrainTier) Resolve(ctx context.Context, req *entity.BookingRequest) ([]*entity.OrderDraft, error) {
	train, err := h.provider.GetTrain(ctx, *req.TrainID)
	if err != nil {
		return nil, err
	}
	chosen, err := h.resolveTrain(ctx, req, train)
	if err != nil {
		return nil, err
	}
	return h.aggregator.BuildDrafts(req.UserID, chosen), nil
}

// RouteSearchTier handles requests with no identifiers at all: search
// the route, keep trains departing inside the date window with seats
// available, then resolve each train the same way as the explicit-train
// tier. Registered last; matches everything.
type RouteSearchTier struct {
	tierDeps
}

// NewRouteSearchTier creates the route-search tier
func NewRouteSearchTier(provider repository.InventoryProvider, aggregator *Aggregator, log logger.Logger) *RouteSearchTier {
	return &RouteSearchTier{tierDeps{provider: provider, aggregator: aggregator, logger: log}}
}

func (h *RouteSearchTier) CanHandle(req *entity.BookingRequest) bool {
	return true
}

func (h *RouteSearchTier) Resolve(ctx context.Context, req *entity.BookingRequest) ([]*entity.OrderDraft, error) {
	from, to, err := utils.ParseRoute(req.Route)
	if err != nil {
		return nil, err
	}
	dateFrom, err := utils.ParseProviderTime(req.DateFrom)
	if err != nil {
		return nil, fmt.Errorf("invalid date_from: %w", err)
	}
	dateTo, err := utils.ParseProviderTime(req.DateTo)
	if err != nil {
		return nil, fmt.Errorf("invalid date_to: %w", err)
	}

	trains, err := h.provider.SearchTrains(ctx, from, to)
	if err != nil {
		return nil, err
	}
	h.logger.Info("trains found for route", "from", from, "to", to, "count", len(trains))

	var suitable []entity.Train
	for _, train := range trains {
		departure, err := utils.ParseProviderTime(train.StartpointDeparture)
		if err != nil {
			h.logger.Warn("skipping train with malformed departure", "trainId", train.TrainID, "error", err)
			continue
		}
		if departure.Before(dateFrom) || departure.After(dateTo) {
			continue
		}
		if train.AvailableSeatsCount == 0 {
			continue
		}
		suitable = append(suitable, train)
	}
	h.logger.Info("trains matching window with free seats", "count", len(suitable))

	for _, train := range suitable {
		chosen, err := h.resolveTrain(ctx, req, &train)
		if err != nil {
			return nil, err
		}
		if len(chosen) > 0 {
			return h.aggregator.BuildDrafts(req.UserID, chosen), nil
		}
	}
	return nil, nil
}
