package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"railbook-service/internal/domain/entity"
	"railbook-service/internal/domain/repository"
	"railbook-service/pkg/logger"
)

// BackofficeNotifier hands booked orders over to the internal
// backoffice API.
type BackofficeNotifier struct {
	logger logger.Logger
	client *http.Client
	url    string
	key    string
}

// NewBackofficeNotifier creates a new backoffice notifier
func NewBackofficeNotifier(url, key string, timeout time.Duration, log logger.Logger) repository.OrderNotifier {
	return &BackofficeNotifier{
		logger: log,
		client: &http.Client{Timeout: timeout},
		url:    url,
		key:    key,
	}
}

// SaveNewOrder posts one booking result. A non-2xx answer is reported
// as an error for the caller to log; it is never retried.
func (n *BackofficeNotifier) SaveNewOrder(ctx context.Context, result *entity.BookingResult) error {
	jsonData, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-key", n.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send order %d: %w", result.OrderID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("backoffice returned status %d for order %d: %s",
			resp.StatusCode, result.OrderID, string(body))
	}

	n.logger.Info("order handed over", "orderId", result.OrderID, "userId", result.UserID)
	return nil
}
