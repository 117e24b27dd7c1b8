package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/config"
	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/consumer"
	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/decay"
	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/dedup"
	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/engine"
	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/handlers"
	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/logger"
	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/picks"
	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/publisher"
	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/writer"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Consume snapshot streams and serve the read API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.URL,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Info().Str("addr", cfg.Redis.URL).Msg("connected to Redis")

	holocronDB, err := sql.Open("postgres", cfg.Postgres.HolocronDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to Holocron: %w", err)
	}
	defer holocronDB.Close()

	if err := holocronDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping Holocron: %w", err)
	}
	log.Info().Msg("connected to Holocron DB")

	holocronWriter := writer.NewHolocronWriter(holocronDB)
	tracker := picks.NewTracker(decay.NewEngine(cfg.Engine))

	pickEngine := engine.NewEngine(
		picks.NewGenerator(cfg.Engine, log),
		tracker,
		consumer.NewStreamConsumer(redisClient, cfg.Stream.ConsumerID, cfg.Stream.ConsumerGroup),
		holocronWriter,
		publisher.NewStreamPublisher(redisClient, cfg.Stream.PicksStream, cfg.Stream.TierChangesStream),
		dedup.NewDeduplicator(redisClient, cfg.Stream.DedupTTLMinutes),
		cfg.Stream,
		log,
	)

	if _, err := pickEngine.Restore(ctx, holocronWriter, sportKeys(cfg.Stream.SnapshotStreams)); err != nil {
		return fmt.Errorf("failed to restore open picks: %w", err)
	}

	handler := handlers.NewHandler(tracker, map[string]handlers.HealthCheck{
		"redis": func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
		"holocron": holocronDB.PingContext,
	}, log)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handlers.NewRouter(handler, cfg.Server.CORSOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 2)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	go func() {
		errChan <- pickEngine.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down gracefully")
	case err = <-errChan:
		if err != nil {
			log.Error().Err(err).Msg("pick engine stopped")
		}
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Warn().Err(shutdownErr).Msg("error shutting down HTTP server")
	}

	log.Info().Msg("shutdown complete")
	return err
}

// sportKeys recovers the sport suffix of each snapshot stream
func sportKeys(streams []string) []string {
	keys := make([]string, 0, len(streams))
	for _, s := range streams {
		if i := strings.LastIndex(s, "."); i >= 0 && i < len(s)-1 {
			keys = append(keys, s[i+1:])
		}
	}
	return keys
}
