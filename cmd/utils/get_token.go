// get_token logs in to the inventory provider with the configured
// credentials and prints the bearer token. Useful for poking the
// provider API by hand.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"railbook-service/internal/infrastructure/config"
	"railbook-service/internal/infrastructure/provider"
	"railbook-service/pkg/logger"
	"railbook-service/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger("warn")
	m := metrics.NewMetrics("railbook_get_token")

	limiter := provider.NewLimiter(cfg.RateQuota, cfg.RateWindow, cfg.RatePoll)
	transport := provider.NewTransport(limiter, cfg.MaxRetries, cfg.RequestTimeout, m, log)
	session := provider.NewSession(transport, cfg.ProviderBaseURL, cfg.ProviderLogin, cfg.ProviderPassword, log)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	token, err := session.EnsureToken(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nToken: %s\n\n", token)
}
