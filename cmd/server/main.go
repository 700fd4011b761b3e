package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"railbook-service/internal/infrastructure/config"
	"railbook-service/internal/infrastructure/provider"
	"railbook-service/internal/infrastructure/router"
	"railbook-service/internal/interface/queue"
	"railbook-service/internal/interface/repository"
	"railbook-service/internal/usecase"
	"railbook-service/pkg/logger"
	"railbook-service/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Starting Railbook Service", "version", cfg.AppVersion)

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up metrics
	m := metrics.NewMetrics("railbook")

	// Set up the provider client layer
	limiter := provider.NewLimiter(cfg.RateQuota, cfg.RateWindow, cfg.RatePoll)
	transport := provider.NewTransport(limiter, cfg.MaxRetries, cfg.RequestTimeout, m, log)
	session := provider.NewSession(transport, cfg.ProviderBaseURL, cfg.ProviderLogin, cfg.ProviderPassword, log)
	inventory := repository.NewInventoryClient(transport, session, cfg.ProviderBaseURL, m, log)
	notifier := repository.NewBackofficeNotifier(cfg.BackofficeURL, cfg.BackofficeKey, cfg.RequestTimeout, log)

	// Set up the booking pipeline
	aggregator := usecase.NewAggregator(log)
	tiers := router.NewTierRouter(log)
	tiers.Register(usecase.NewExplicitSeatTier(inventory, aggregator, log))
	tiers.Register(usecase.NewExplicitWagonTier(inventory, aggregator, log))
	tiers.Register(usecase.NewExplicitTrainTier(inventory, aggregator, log))
	tiers.Register(usecase.NewRouteSearchTier(inventory, aggregator, log))
	pipeline := usecase.NewPipeline(tiers, inventory, aggregator, log)

	// Start the queue consumer in a goroutine, reconnecting on broker failures
	consumer := queue.NewRabbitConsumer(cfg.AMQPURL(), cfg.AMQPQueue, cfg.Prefetch, pipeline, notifier, m, log)
	go func() {
		for {
			if err := consumer.Run(ctx); err != nil {
				log.Error("Consumer stopped", "error", err)
			}
			select {
			case <-ctx.Done():
				log.Info("Consumer shut down")
				return
			case <-time.After(5 * time.Second):
				log.Info("Reconnecting to broker")
			}
		}
	}()

	// Set up HTTP server for metrics
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Healthy"))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal", "signal", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	cancel() // Cancel the context to stop the consumer

	log.Info("Railbook Service stopped")
}
