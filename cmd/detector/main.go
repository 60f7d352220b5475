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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/alerts"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/collision"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/config"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/detector"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/kafka"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/logging"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/metrics"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/tracker"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/vessels"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", os.Getenv("VCT_CONFIG"), "YAML config file (optional)")
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

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("detector stopped", logging.Err(err))
	}
	logger.Info("shutting down")
}

func run(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	k := cfg.Kafka
	if err := kafka.CreateTopics(k.Brokers[0], kafka.Topics(k.VesselTopic, k.RiskTopic, k.AlertTopic)); err != nil {
		logger.Warn("topic setup failed, relying on broker auto-create", logging.Err(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	gate, closeGate, err := newAlertGate(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeGate()

	alertPub := kafka.NewPublisher(kafka.NewWriter(k.Brokers, k.AlertTopic))
	defer alertPub.Close()
	riskPub := kafka.NewPublisher(kafka.NewWriter(k.Brokers, k.RiskTopic))
	defer riskPub.Close()

	engine := collision.NewEngine(
		collision.WithResolver(cfg.Resolver()),
		collision.WithThresholds(cfg.Thresholds()),
		collision.WithAlertSink(alerts.MultiSink{
			alerts.NewLogSink(logger.Named("alerts")),
			kafka.NewAlertSink(alertPub),
		}),
		collision.WithRenderer(kafka.NewTickRenderer(riskPub)),
		collision.WithAlertGate(gate),
		collision.WithLogger(logger.Named("engine")),
		collision.WithMetrics(m),
	)

	store := vessels.NewStore(cfg.StoreConfig(), logger.Named("store"))
	trk := tracker.New(store, engine, cfg.Engine.TickInterval, logger.Named("tracker"), m)
	defer trk.Close()
	svc := detector.NewService(store, trk, cfg.Engine.Subjects, logger.Named("detector"), m)

	reader := kafka.NewReader(k.Brokers, k.VesselTopic, k.GroupID)
	defer reader.Close()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok tracked=%d vessels=%d\n", len(trk.Tracked()), store.Len())
	})
	srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	logger.Info("starting collision detector",
		logging.Any("brokers", k.Brokers),
		logging.String("topic", k.VesselTopic),
		logging.String("http", cfg.HTTP.Addr),
		logging.Duration("tick_interval", cfg.Engine.TickInterval),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return kafka.Consume(gctx, reader, svc.HandleMessage, logger.Named("consumer"))
	})
	g.Go(func() error {
		store.RunCleanup(gctx, svc.Evicted)
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
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newAlertGate picks the alert debounce. A zero cooldown disables it.
func newAlertGate(ctx context.Context, cfg *config.Config, logger logging.Logger) (collision.AlertGate, func(), error) {
	window := cfg.Engine.AlertCooldown
	if window <= 0 {
		return nil, func() {}, nil
	}
	if cfg.Redis.Addr == "" {
		logger.Info("alert cooldown in memory", logging.Duration("window", window))
		return alerts.NewMemoryCooldown(window), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
	}
	logger.Info("alert cooldown in redis", logging.String("addr", cfg.Redis.Addr), logging.Duration("window", window))
	return alerts.NewRedisCooldown(client, window), func() { client.Close() }, nil
}
