package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/faultline-io/faultline/common/logging"
	"github.com/faultline-io/faultline/common/messaging"
	"github.com/faultline-io/faultline/internal/config"
	"github.com/faultline-io/faultline/internal/consumer"
	"github.com/faultline-io/faultline/internal/consumer/claims"
	"github.com/faultline-io/faultline/internal/dlq"
	"github.com/faultline-io/faultline/internal/store"

	natsclient "github.com/faultline-io/faultline/common/messaging/nats"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("consumer"))
	logging.SetDefault(logger)

	slog.Info("Starting ingest consumer",
		slog.String("nats_url", cfg.NATS.URL),
		slog.String("opensearch_url", cfg.OpenSearch.URL),
		slog.String("log_level", cfg.Logging.Level),
	)
	if *configPath != "" {
		slog.Info("Loaded configuration", slog.String("config_path", *configPath))
	}

	// Event store
	backing, err := store.NewOpenSearchStore(store.OpenSearchConfig{
		URL:           cfg.OpenSearch.URL,
		Username:      cfg.OpenSearch.Username,
		Password:      cfg.OpenSearch.Password,
		TLSSkipVerify: cfg.OpenSearch.TLSSkipVerify,
		IndexPrefix:   cfg.OpenSearch.IndexPrefix,
	})
	if err != nil {
		log.Fatalf("Failed to connect to OpenSearch: %v", err)
	}
	persistence := store.NewManager(backing, logger)

	// Claim store: Redis shares claims across instances; the in-memory
	// fallback only dedupes within a single process.
	var claimStore claims.Store
	if cfg.Redis.Enabled {
		redisClaims, err := claims.NewRedisStore(cfg.Redis.URL, cfg.Consumer.ClaimTTL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		claimStore = redisClaims
		slog.Info("Using Redis claim store", slog.Duration("claim_ttl", cfg.Consumer.ClaimTTL))
	} else {
		claimStore = claims.NewMemoryStore(cfg.Consumer.ClaimTTL)
		slog.Warn("Redis disabled - duplicate suppression is per-process only")
	}
	defer claimStore.Close()

	// Queue
	natsCfg := natsclient.DefaultConfig()
	natsCfg.URL = cfg.NATS.URL
	natsCfg.Name = cfg.NATS.Name + "-consumer"

	js, err := natsclient.NewJetStreamClient(natsCfg)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer js.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := js.CreateOrUpdateStream(ctx, natsclient.IngestEventsStream); err != nil {
		log.Fatalf("Failed to ensure ingest stream: %v", err)
	}

	deadLetter, err := dlq.NewJetStreamWriter(ctx, js, logger)
	if err != nil {
		log.Fatalf("Failed to initialize DLQ: %v", err)
	}

	consumerCfg := natsclient.DefaultConsumerConfig(messaging.QueueIngestWorkers, messaging.SubjectIngestEventsAll)
	consumerCfg.AckWait = cfg.Consumer.AckWait
	consumerCfg.MaxDeliver = cfg.Consumer.MaxDeliver
	consumerCfg.MaxAckPending = cfg.Consumer.MaxAckPending

	durable, err := js.CreateOrUpdateConsumer(ctx, natsclient.IngestEventsStream.Name, consumerCfg)
	if err != nil {
		log.Fatalf("Failed to create durable consumer: %v", err)
	}

	ingest := consumer.New(persistence, claimStore, deadLetter, logger)

	stop, err := js.Consume(durable, ingest.Consume)
	if err != nil {
		log.Fatalf("Failed to start consuming: %v", err)
	}
	slog.Info("Consuming ingest events",
		slog.String("stream", natsclient.IngestEventsStream.Name),
		slog.String("durable", consumerCfg.Name),
	)

	// Health and metrics endpoint
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !js.IsConnected() {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"status":"degraded","nats":"disconnected"}`)
			return
		}
		fmt.Fprint(w, `{"status":"ok"}`)
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("Health endpoint listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Health server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down ingest consumer")

	stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Health server shutdown failed", slog.Any("error", err))
	}

	if err := js.Drain(); err != nil {
		slog.Error("NATS drain failed", slog.Any("error", err))
	}

	slog.Info("Ingest consumer stopped")
}
