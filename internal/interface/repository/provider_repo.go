package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"railbook-service/internal/domain/entity"
	"railbook-service/internal/domain/repository"
	"railbook-service/internal/infrastructure/provider"
	"railbook-service/pkg/logger"
	"railbook-service/pkg/metrics"
	"railbook-service/pkg/utils"
)

const (
	trainsPath = "/api/info/trains"
	trainPath  = "/api/info/train"
	seatsPath  = "/api/info/seats"
	orderPath  = "/api/order"
)

// InventoryClient implements repository.InventoryProvider against the
// provider HTTP API. Transient failures come back as empty results; 403
// drops the session so the next call re-authenticates.
type InventoryClient struct {
	transport *provider.Transport
	session   *provider.Session
	baseURL   string
	logger    logger.Logger
	metrics   *metrics.Metrics
}

// NewInventoryClient creates a new inventory client
func NewInventoryClient(transport *provider.Transport, session *provider.Session, baseURL string, m *metrics.Metrics, log logger.Logger) repository.InventoryProvider {
	return &InventoryClient{
		transport: transport,
		session:   session,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    log,
		metrics:   m,
	}
}

// SearchTrains fetches bookable trains for a route.
func (c *InventoryClient) SearchTrains(ctx context.Context, from, to string) ([]entity.Train, error) {
	token, err := c.session.EnsureToken(ctx)
	if err != nil {
		return nil, err
	}

	var trains []entity.Train
	outcome := c.transport.Send(ctx, provider.Request{
		Method: http.MethodGet,
		URL:    c.baseURL + trainsPath,
		Query: url.Values{
			"booking_available": {"true"},
			"start_point":       {from},
			"end_point":         {to},
		},
		Header:  bearer(token),
		Limited: true,
		Out:     &trains,
	})

	switch outcome.Kind {
	case provider.OutcomeSuccess:
		c.logger.Info("fetched trains for route", "from", from, "to", to, "count", len(trains))
		return trains, nil
	case provider.OutcomeHTTPError:
		c.failed(outcome, "search_trains")
		return nil, nil
	default:
		c.metrics.ErrorsCount.WithLabelValues("search_trains").Inc()
		return nil, nil
	}
}

// GetTrain fetches one train by id. Returns nil on provider failure.
func (c *InventoryClient) GetTrain(ctx context.Context, trainID int64) (*entity.Train, error) {
	token, err := c.session.EnsureToken(ctx)
	if err != nil {
		return nil, err
	}

	var train entity.Train
	outcome := c.transport.Send(ctx, provider.Request{
		Method:  http.MethodGet,
		URL:     fmt.Sprintf("%s%s/%d", c.baseURL, trainPath, trainID),
		Header:  bearer(token),
		Limited: true,
		Out:     &train,
	})

	switch outcome.Kind {
	case provider.OutcomeSuccess:
		c.logger.Info("fetched train", "trainId", trainID)
		return &train, nil
	case provider.OutcomeHTTPError:
		c.failed(outcome, "get_train")
		return nil, nil
	default:
		c.metrics.ErrorsCount.WithLabelValues("get_train").Inc()
		return nil, nil
	}
}

// GetWagonSeats fetches the seat list for one wagon.
func (c *InventoryClient) GetWagonSeats(ctx context.Context, trainID, wagonID int64) ([]entity.Seat, error) {
	token, err := c.session.EnsureToken(ctx)
	if err != nil {
		return nil, err
	}

	var seats []entity.Seat
	outcome := c.transport.Send(ctx, provider.Request{
		Method:  http.MethodGet,
		URL:     c.baseURL + seatsPath,
		Query:   url.Values{"wagonId": {fmt.Sprintf("%d", wagonID)}},
		Header:  bearer(token),
		Limited: true,
		Out:     &seats,
	})

	switch outcome.Kind {
	case provider.OutcomeSuccess:
		c.logger.Info("fetched wagon seats", "trainId", trainID, "wagonId", wagonID, "count", len(seats))
		return seats, nil
	case provider.OutcomeHTTPError:
		c.failed(outcome, "get_wagon_seats")
		return nil, nil
	default:
		c.metrics.ErrorsCount.WithLabelValues("get_wagon_seats").Inc()
		return nil, nil
	}
}

// SubmitOrders dispatches all orders concurrently under one token epoch
// and returns positional results: nil marks a failed order, so partial
// success stays representable.
func (c *InventoryClient) SubmitOrders(ctx context.Context, orders []entity.FinalOrder) ([]*entity.BookingResult, error) {
	token, err := c.session.EnsureToken(ctx)
	if err != nil {
		return nil, err
	}

	c.logger.Info("submitting orders", "count", len(orders))
	results := make([]*entity.BookingResult, len(orders))
	g := new(errgroup.Group)
	for i, order := range orders {
		g.Go(func() error {
			results[i] = c.submitOne(ctx, token, order)
			return nil
		})
	}
	g.Wait()
	return results, nil
}

func (c *InventoryClient) submitOne(ctx context.Context, token string, order entity.FinalOrder) *entity.BookingResult {
	c.logger.Info("booking seats",
		"userId", order.UserID,
		"trainId", order.TrainID,
		"wagonId", order.WagonID,
		"seatIds", order.SeatIDs)

	var parsed struct {
		OrderID int64 `json:"order_id"`
	}
	outcome := c.transport.Send(ctx, provider.Request{
		Method:   http.MethodPost,
		URL:      c.baseURL + orderPath,
		Header:   bearer(token),
		JSONBody: order,
		Limited:  true,
		Out:      &parsed,
	})

	switch outcome.Kind {
	case provider.OutcomeSuccess:
		if parsed.OrderID == 0 {
			c.logger.Error("order response carries no order id", "userId", order.UserID)
			c.metrics.ErrorsCount.WithLabelValues("submit_order").Inc()
			return nil
		}
		c.logger.Info("order booked", "userId", order.UserID, "orderId", parsed.OrderID)
		c.metrics.OrdersSubmitted.Inc()
		return &entity.BookingResult{
			TrainID:     order.TrainID,
			WagonID:     order.WagonID,
			SeatIDs:     order.SeatIDs,
			UserID:      order.UserID,
			BookingDate: utils.FormatProviderTime(time.Now()),
			OrderID:     parsed.OrderID,
		}
	case provider.OutcomeHTTPError:
		c.failed(outcome, "submit_order")
		return nil
	default:
		c.metrics.ErrorsCount.WithLabelValues("submit_order").Inc()
		return nil
	}
}

// failed handles a terminal HTTP outcome: 403 invalidates the session.
func (c *InventoryClient) failed(outcome provider.Outcome, operation string) {
	if outcome.Status == http.StatusForbidden {
		c.session.Invalidate()
	}
	c.logger.Error("provider rejected call", "operation", operation, "status", outcome.Status)
	c.metrics.ErrorsCount.WithLabelValues(operation).Inc()
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": {"Bearer " + token}}
}
