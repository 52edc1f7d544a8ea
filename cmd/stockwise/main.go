// Command stockwise projects live shelf telemetry against configured slots and
// publishes slot status transitions to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sweeney/stockwise/internal/aggregate"
	"github.com/sweeney/stockwise/internal/config"
	"github.com/sweeney/stockwise/internal/gpio"
	"github.com/sweeney/stockwise/internal/kafka"
	"github.com/sweeney/stockwise/internal/monitor"
	"github.com/sweeney/stockwise/internal/mqtt"
	"github.com/sweeney/stockwise/internal/status"
	"github.com/sweeney/stockwise/internal/store"
	"github.com/sweeney/stockwise/internal/telemetry"
	"github.com/sweeney/stockwise/internal/web"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "stockwise.yaml", "Path to YAML config file")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Parse()

	if *showVersion {
		fmt.Println("stockwise", version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
	logger := config.SetupLogger(cfg.Log, os.Stderr)

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("fatal")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	db, err := store.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	source := store.NewSource(db, logger)

	tracker := status.NewTracker(time.Now(), trackerConfig(cfg))

	hub := telemetry.NewHub(logger)
	var sink telemetry.Sink = hub
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rdb.Ping(ctx).Err()
		tracker.SetRedisConnected(err == nil)
		mirror := telemetry.NewRedisMirror(rdb, hub, logger)
		if err != nil {
			logger.Warn().Err(err).Str("address", cfg.Redis.Address).Msg("redis unavailable, live records will not survive restarts")
		} else if n, err := mirror.Restore(ctx, locationIDs(cfg.Monitor.Watch)); err != nil {
			logger.Warn().Err(err).Msg("restore live records")
		} else {
			logger.Info().Int("records", n).Msg("restored live records from redis")
		}
		cancel()
		sink = mirror
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	switch cfg.Telemetry.Backend {
	case "kafka":
		consumer := kafka.NewConsumer(kafka.Config{
			Brokers:     cfg.Kafka.Brokers,
			Topic:       cfg.Kafka.Topic,
			GroupID:     cfg.Kafka.GroupID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			Logger:      logger,
		}, sink)
		defer consumer.Close()
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("kafka consumer stopped")
			}
		}()
	default:
		sub, err := mqtt.NewRealSubscriber(mqtt.SubscriberConfig{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID + "-telemetry",
			TopicPrefix: cfg.MQTT.TopicPrefix,
			Logger:      logger,
		}, sink)
		if err != nil {
			return fmt.Errorf("init telemetry subscriber: %w", err)
		}
		defer sub.Close()
	}

	publisher, err := mqtt.NewRealPublisher(mqtt.PublisherConfig{
		Broker:      cfg.MQTT.Broker,
		ClientID:    cfg.MQTT.ClientID,
		EventPrefix: cfg.MQTT.EventPrefix,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("init mqtt publisher: %w", err)
	}
	defer publisher.Close()

	var lamp gpio.Lamp
	if cfg.AlertLamp.Enabled {
		l, err := gpio.NewRealLamp(cfg.AlertLamp.Chip, cfg.AlertLamp.Pin)
		if err != nil {
			return fmt.Errorf("init alert lamp: %w", err)
		}
		defer l.Close()
		lamp = l
	}

	mon := monitor.New(source, hub, monitor.Config{
		Watch:        watchKeys(cfg.Monitor.Watch),
		Debounce:     cfg.Projection.Debounce,
		LowThreshold: cfg.Projection.LowThreshold,
		Publisher:    publisher,
		MQTT:         publisher,
		Tracker:      tracker,
		Lamp:         lamp,
		Live:         hub,
		Logger:       logger,
	})
	mon.Start()

	if cfg.Web.Addr != "" {
		views := web.NewViewCache(source, hub, cfg.Web.ViewCacheSize, cfg.Web.ViewTTL, aggregate.InventoryConfig{
			Debounce:     cfg.Projection.Debounce,
			LowThreshold: cfg.Projection.LowThreshold,
			Logger:       logger,
		})
		defer views.Close()

		srv := web.New(cfg.Web.Addr, tracker, db, views, logger)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("http server error")
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
		logger.Info().Str("addr", cfg.Web.Addr).Msg("http server listening")
	}

	logger.Info().
		Str("backend", cfg.Telemetry.Backend).
		Str("database", cfg.Database.Driver).
		Int("locations", len(cfg.Monitor.Watch)).
		Dur("debounce", cfg.Projection.Debounce).
		Dur("refresh", cfg.Monitor.Refresh).
		Dur("heartbeat", cfg.Monitor.Heartbeat).
		Msg("started")

	refresh, stopRefresh := tick(cfg.Monitor.Refresh)
	defer stopRefresh()
	heartbeat, stopHeartbeat := tick(cfg.Monitor.Heartbeat)
	defer stopHeartbeat()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return mon.Run(refresh, heartbeat, sigCh)
}

// tick returns a ticker channel for d. A zero interval yields a nil channel,
// which never fires.
func tick(d time.Duration) (<-chan time.Time, func()) {
	if d <= 0 {
		return nil, func() {}
	}
	t := time.NewTicker(d)
	return t.C, t.Stop
}

func watchKeys(targets []config.WatchTarget) []aggregate.Key {
	keys := make([]aggregate.Key, 0, len(targets))
	for _, w := range targets {
		keys = append(keys, aggregate.Key{NetworkID: w.NetworkID, LocationID: w.LocationID})
	}
	return keys
}

func locationIDs(targets []config.WatchTarget) []string {
	seen := make(map[string]bool, len(targets))
	var ids []string
	for _, w := range targets {
		if seen[w.LocationID] {
			continue
		}
		seen[w.LocationID] = true
		ids = append(ids, w.LocationID)
	}
	return ids
}

func trackerConfig(cfg *config.Config) status.Config {
	broker := cfg.MQTT.Broker
	if cfg.Telemetry.Backend == "kafka" && len(cfg.Kafka.Brokers) > 0 {
		broker = cfg.Kafka.Brokers[0]
	}
	return status.Config{
		Backend:      cfg.Telemetry.Backend,
		Broker:       broker,
		Database:     cfg.Database.Driver,
		HTTPAddr:     cfg.Web.Addr,
		LowThreshold: cfg.Projection.LowThreshold,
		DebounceMs:   cfg.Projection.Debounce.Milliseconds(),
		RefreshMs:    cfg.Monitor.Refresh.Milliseconds(),
		HeartbeatMs:  cfg.Monitor.Heartbeat.Milliseconds(),
	}
}
