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

	"github.com/faultline-io/faultline/common/logging"
	"github.com/faultline-io/faultline/internal/config"
	"github.com/faultline-io/faultline/internal/relay"

	natsclient "github.com/faultline-io/faultline/common/messaging/nats"

	"github.com/faultline-io/faultline/common/messaging"
)

// syncPublisher publishes through JetStream and waits for the stream
// pub-ack, so the intake only acknowledges durably queued envelopes.
type syncPublisher struct {
	*natsclient.JetStreamClient
}

func (p syncPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	_, err := p.PublishSync(ctx, subject, data)
	return err
}

func (p syncPublisher) PublishMsg(ctx context.Context, msg *messaging.Message) error {
	return p.Publish(ctx, msg.Subject, msg.Data)
}

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
	).With(logging.Service("relay"))
	logging.SetDefault(logger)

	slog.Info("Starting relay service",
		slog.Int("port", cfg.Server.Port),
		slog.String("nats_url", cfg.NATS.URL),
		slog.String("log_level", cfg.Logging.Level),
	)
	if *configPath != "" {
		slog.Info("Loaded configuration", slog.String("config_path", *configPath))
	}

	natsCfg := natsclient.DefaultConfig()
	natsCfg.URL = cfg.NATS.URL
	natsCfg.Name = cfg.NATS.Name + "-relay"

	js, err := natsclient.NewJetStreamClient(natsCfg)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer js.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if _, err := js.CreateOrUpdateStream(ctx, natsclient.IngestEventsStream); err != nil {
		cancel()
		log.Fatalf("Failed to ensure ingest stream: %v", err)
	}
	cancel()
	slog.Info("Ingest stream ready", slog.String("stream", natsclient.IngestEventsStream.Name))

	handler := relay.NewHandler(syncPublisher{js}, cfg.Relay.MaxEnvelopeSize, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      relay.NewRouter(handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("Relay listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down relay service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", slog.Any("error", err))
	}

	if err := js.Drain(); err != nil {
		slog.Error("NATS drain failed", slog.Any("error", err))
	}

	slog.Info("Relay service stopped")
}
