package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/config"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/feed"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/kafka"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/logging"
)

func main() {
	configPath := flag.String("config", os.Getenv("VCT_CONFIG"), "YAML config file (optional)")
	url := flag.String("url", "", "vessel-state endpoint (overrides feed.url)")
	interval := flag.Duration("interval", 0, "poll interval (overrides feed.interval)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *url != "" {
		cfg.Feed.URL = *url
	}
	if *interval > 0 {
		cfg.Feed.Interval = *interval
	}
	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Feed.URL == "" {
		logger.Fatal("no vessel-state endpoint: set feed.url or -url")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := feed.NewClient(cfg.Feed.URL, cfg.Feed.Timeout)
	pub := kafka.NewPublisher(kafka.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.VesselTopic))
	defer pub.Close()

	logger.Info("starting ingestor",
		logging.String("url", cfg.Feed.URL),
		logging.String("topic", cfg.Kafka.VesselTopic),
		logging.Duration("interval", cfg.Feed.Interval),
	)

	ticker := time.NewTicker(cfg.Feed.Interval)
	defer ticker.Stop()

	poll(ctx, client, pub, logger)
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down ingestor")
			return
		case <-ticker.C:
			poll(ctx, client, pub, logger)
		}
	}
}

func poll(ctx context.Context, client *feed.Client, pub *kafka.Publisher, logger logging.Logger) {
	updates, skipped, err := client.FetchVessels(ctx)
	if err != nil {
		logger.Error("fetch failed", logging.Err(err))
		return
	}
	if err := pub.PublishVessels(ctx, updates); err != nil {
		logger.Error("publish failed", logging.Int("vessels", len(updates)), logging.Err(err))
		return
	}
	logger.Info("published vessels", logging.Int("vessels", len(updates)), logging.Int("skipped", skipped))
}
