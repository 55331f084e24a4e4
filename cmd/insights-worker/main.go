package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/photostream/photostream-api/internal/app"
	"github.com/photostream/photostream-api/internal/config"
	"github.com/photostream/photostream-api/internal/domain/photo"
	"github.com/photostream/photostream-api/internal/pkg/logger"
)

const idleLogEvery = 1 * time.Minute

// processor handles one queued photo per call.
type processor interface {
	ProcessNextInsights(ctx context.Context) (bool, error)
}

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env, Service: "insights-worker", Region: cfg.RegionName})

	if !cfg.VisionEnabled() {
		log.Warn().Msg("VISION_ENDPOINT/VISION_KEY not set, insights-worker has nothing to do")
		return
	}

	log.Info().Dur("poll_interval", cfg.WorkerPollInterval).Msg("Starting insights-worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise application")
	}
	defer application.Close()

	// Redis pub/sub wake-up (polling still runs)
	wake := make(chan struct{}, 1)
	go photo.SubscribeCreated(ctx, application.Redis, wake)

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigChan
		log.Info().Msg("Shutdown signal received")
		cancel()
	}()

	run(ctx, application.Photos, wake, cfg.WorkerPollInterval)
	log.Info().Msg("insights-worker stopped")
}

// run polls until ctx is done. After a processed photo it polls again
// immediately so a backlog drains without waiting for the ticker.
func run(ctx context.Context, p processor, wake <-chan struct{}, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastIdleLog := time.Time{}
	for {
		select {
		case <-ctx.Done():
			return
		case <-wake:
			// immediate poll
		case <-ticker.C:
		}

		for ctx.Err() == nil {
			start := time.Now()
			processed, err := p.ProcessNextInsights(ctx)
			if err != nil {
				log.Error().Err(err).Msg("Insights processing failed")
				break
			}
			if !processed {
				now := time.Now()
				if lastIdleLog.IsZero() || now.Sub(lastIdleLog) >= idleLogEvery {
					log.Info().Msg("Idle: no photos waiting for insights")
					lastIdleLog = now
				}
				break
			}
			log.Debug().Dur("took", time.Since(start)).Msg("Insights processed")
		}
	}
}
