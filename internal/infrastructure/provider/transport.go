package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"railbook-service/pkg/logger"
	"railbook-service/pkg/metrics"
)

// OutcomeKind tags the classified result of a Send.
type OutcomeKind int

const (
	// OutcomeSuccess means an expected status with a decodable body.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeHTTPError means the provider answered with a status the
	// caller did not expect. The caller decides what it means (403
	// invalidates the session).
	OutcomeHTTPError
	// OutcomeNetworkError means the call never produced a usable
	// response after all retries.
	OutcomeNetworkError
)

// Outcome is the result of one Send.
type Outcome struct {
	Kind   OutcomeKind
	Status int
	Body   []byte
}

// Request describes one provider call.
type Request struct {
	Method   string
	URL      string
	Query    url.Values
	Header   http.Header
	JSONBody interface{}
	// Limited marks calls that count against the provider quota.
	Limited bool
	// Expected lists statuses whose body is decoded as success.
	// Empty means 200 only.
	Expected []int
	// Out, when non-nil, receives the decoded success body. A body
	// that fails to decode counts as a retriable failure.
	Out interface{}
}

// Transport performs provider calls with admission control and bounded
// retries. Network errors, timeouts, 5xx statuses and undecodable
// success bodies are retried; any other unexpected status is terminal.
type Transport struct {
	client     *http.Client
	limiter    *Limiter
	maxRetries int
	logger     logger.Logger
	metrics    *metrics.Metrics
}

// NewTransport creates a transport with a per-call timeout.
func NewTransport(limiter *Limiter, maxRetries int, timeout time.Duration, m *metrics.Metrics, log logger.Logger) *Transport {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Transport{
		client:     &http.Client{Timeout: timeout},
		limiter:    limiter,
		maxRetries: maxRetries,
		logger:     log,
		metrics:    m,
	}
}

// Send performs the call with up to maxRetries attempts and returns the
// last classified outcome. Every attempt is logged under one
// correlation id so concurrent calls can be traced apart.
func (t *Transport) Send(ctx context.Context, req Request) Outcome {
	log := t.logger.With("callId", uuid.New().String()[:8], "method", req.Method, "url", req.URL)

	last := Outcome{Kind: OutcomeNetworkError}
	for attempt := 1; attempt <= t.maxRetries; attempt++ {
		outcome, retriable := t.attempt(ctx, req, log, attempt)
		if !retriable {
			return outcome
		}
		last = outcome
		t.metrics.ProviderRetries.Inc()
		if ctx.Err() != nil {
			break
		}
	}
	log.Error("provider call failed after all attempts", "attempts", t.maxRetries)
	return last
}

func (t *Transport) attempt(ctx context.Context, req Request, log logger.Logger, attempt int) (Outcome, bool) {
	httpReq, err := t.build(ctx, req)
	if err != nil {
		log.Error("failed to build request", "error", err)
		return Outcome{Kind: OutcomeNetworkError}, false
	}

	if req.Limited {
		token, err := t.limiter.Wait(ctx)
		if err != nil {
			return Outcome{Kind: OutcomeNetworkError}, false
		}
		defer t.limiter.Commit(token)
	}

	log.Debug("sending provider request", "attempt", attempt)
	start := time.Now()
	resp, err := t.client.Do(httpReq)
	if err != nil {
		log.Warn("provider call failed", "attempt", attempt, "error", err)
		return Outcome{Kind: OutcomeNetworkError}, true
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn("failed to read provider response", "attempt", attempt, "error", err)
		return Outcome{Kind: OutcomeNetworkError}, true
	}

	log.Debug("provider response",
		"attempt", attempt,
		"status", resp.StatusCode,
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
		"size", len(body))

	outcome := Outcome{Status: resp.StatusCode, Body: body}
	switch {
	case resp.StatusCode >= 500 && resp.StatusCode <= 504:
		log.Warn("provider server error", "attempt", attempt, "status", resp.StatusCode)
		outcome.Kind = OutcomeHTTPError
		return outcome, true
	case !statusExpected(req.Expected, resp.StatusCode):
		log.Error("unexpected provider status", "status", resp.StatusCode, "body", truncate(body))
		outcome.Kind = OutcomeHTTPError
		return outcome, false
	}

	if req.Out != nil {
		if err := json.Unmarshal(body, req.Out); err != nil {
			log.Warn("malformed provider response", "attempt", attempt, "error", err, "body", truncate(body))
			outcome.Kind = OutcomeHTTPError
			return outcome, true
		}
	}

	outcome.Kind = OutcomeSuccess
	return outcome, false
}

func (t *Transport) build(ctx context.Context, req Request) (*http.Request, error) {
	var body io.Reader
	if req.JSONBody != nil {
		data, err := json.Marshal(req.JSONBody)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	target := req.URL
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, err
	}
	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	if req.JSONBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	return httpReq, nil
}

func statusExpected(expected []int, status int) bool {
	if len(expected) == 0 {
		return status == http.StatusOK
	}
	for _, s := range expected {
		if s == status {
			return true
		}
	}
	return false
}

func truncate(body []byte) string {
	const limit = 1000
	if len(body) > limit {
		return string(body[:limit])
	}
	return string(body)
}
