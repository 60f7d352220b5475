package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	segkafka "github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"

	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/config"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/kafka"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/logging"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/stream"
)

func main() {
	configPath := flag.String("config", os.Getenv("VCT_CONFIG"), "YAML config file (optional)")
	interval := flag.Duration("interval", stream.DefaultBroadcastInterval, "broadcast interval")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *interval, logger); err != nil {
		logger.Fatal("websocket server stopped", logging.Err(err))
	}
	logger.Info("shutting down")
}

func run(ctx context.Context, cfg *config.Config, interval time.Duration, logger logging.Logger) error {
	// Ticks for a subject stop when the detector evicts it, so anything older
	// than the store max age is stale.
	hub := stream.NewHub(logger.Named("hub"), cfg.Store.MaxAge)

	reader, err := newRiskReader(cfg.Kafka.Brokers, cfg.Kafka.RiskTopic)
	if err != nil {
		return err
	}
	defer reader.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWebSocket)
	srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	logger.Info("websocket server starting",
		logging.String("addr", cfg.HTTP.Addr),
		logging.String("topic", cfg.Kafka.RiskTopic),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return kafka.Consume(gctx, groupless{reader}, func(ctx context.Context, m segkafka.Message) error {
			out, err := kafka.DecodeTickOutput(m)
			if err != nil {
				return err
			}
			return hub.Render(ctx, out)
		}, logger.Named("consumer"))
	})
	g.Go(func() error {
		hub.Run(gctx, interval)
		return nil
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newRiskReader opens the risk topic at its newest offset. Every gateway
// instance needs every tick, so it reads the single risk partition directly
// instead of joining a group. StartOffset only applies to group readers, so
// the offset is set explicitly.
func newRiskReader(brokers []string, topic string) (*segkafka.Reader, error) {
	reader := segkafka.NewReader(segkafka.ReaderConfig{
		Brokers:         brokers,
		Topic:           topic,
		MinBytes:        1e3,
		MaxBytes:        10e6,
		MaxWait:         time.Second,
		ReadLagInterval: -1,
	})
	if err := reader.SetOffset(segkafka.LastOffset); err != nil {
		reader.Close()
		return nil, fmt.Errorf("seek %s to newest offset: %w", topic, err)
	}
	return reader, nil
}

// groupless adapts a partition reader, which has no offsets to commit.
type groupless struct {
	*segkafka.Reader
}

func (groupless) CommitMessages(context.Context, ...segkafka.Message) error { return nil }
