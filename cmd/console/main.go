package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sigmatax/console/internal/access"
	"github.com/sigmatax/console/internal/api"
	"github.com/sigmatax/console/internal/config"
	internalhttp "github.com/sigmatax/console/internal/http"
	"github.com/sigmatax/console/internal/monitor"
	"github.com/sigmatax/console/internal/notify"
	"github.com/sigmatax/console/internal/session"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("console exited with error")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	var store session.Store
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis parse: %w", err)
		}
		redisClient := redis.NewClient(redisOpts)
		defer redisClient.Close()
		store = session.NewRedisStore(redisClient)
	} else {
		log.Warn().Msg("REDIS_URL not set, sessions are kept in memory")
		store = session.NewMemoryStore()
	}

	client, err := api.New(api.Config{BaseURL: cfg.APIBaseURL, Timeout: cfg.APITimeout})
	if err != nil {
		return fmt.Errorf("api: %w", err)
	}

	guard, err := access.NewGuard()
	if err != nil {
		return fmt.Errorf("access: %w", err)
	}

	sessions := session.NewManager(store, client, log.Logger)
	hub := notify.NewHub(cfg.NotifyDuration)

	var alerts monitor.Notifier
	if slack := monitor.NewSlackNotifier(cfg.Monitoring.AlertWebhookURL, cfg.Monitoring.AlertSource); slack != nil {
		alerts = slack
	}
	upstream := monitor.NewService(monitor.Config{
		URL:            cfg.Monitoring.ProbeURL,
		Interval:       cfg.Monitoring.Interval,
		RequestTimeout: cfg.Monitoring.RequestTimeout,
		LatencyWarning: cfg.Monitoring.LatencyWarning,
		IdleAfter:      cfg.Monitoring.IdleAfter,
	}, log.Logger, alerts, hub)
	upstream.Start(context.Background())
	defer upstream.Stop()

	handler, err := internalhttp.NewRouter(cfg, sessions, store, guard, hub, upstream, log.Logger)
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("api", cfg.APIBaseURL).Msgf("console listening on :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down...")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
