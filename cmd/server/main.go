package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"bridges/internal/bridge"
	bridgehandler "bridges/internal/bridge/handler"
	"bridges/internal/counter"
	"bridges/internal/engagement"
	engagementhandler "bridges/internal/engagement/handler"
	"bridges/internal/follow"
	followhandler "bridges/internal/follow/handler"
	"bridges/internal/identity"
	identityhandler "bridges/internal/identity/handler"
	"bridges/internal/messaging"
	messaginghandler "bridges/internal/messaging/handler"
	"bridges/internal/notification"
	notificationhandler "bridges/internal/notification/handler"
	"bridges/internal/platform/config"
	"bridges/internal/platform/httpserver"
	"bridges/internal/platform/kafka"
	"bridges/internal/platform/logger"
	"bridges/internal/platform/metrics"
	"bridges/internal/platform/postgres"
	redisclient "bridges/internal/platform/redis"
	"bridges/internal/platform/tracing"
	"bridges/internal/realtime"
	httptransport "bridges/internal/transport/http"
	"bridges/internal/visibility"
	"bridges/pkg/platform/circuit"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("bridges exited", "error", err)
		os.Exit(1)
	}
}

// run wires high-level dependencies and owns the server lifecycle. Business
// logic lives in the internal service packages.
func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	infra, err := openInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.close()

	reg := prometheus.DefaultRegisterer
	stores := infra.stores()

	verifier := identity.NewTokenVerifier(cfg.JWTSigningKey, cfg.JWTIssuer,
		identity.WithRevocationList(stores.revocations))

	events := realtime.NewRouter(verifier,
		realtime.WithLogger(log),
		realtime.WithMetrics(realtime.NewMetrics(reg)),
		realtime.WithTopicAuthorizer(messaging.Topics{}),
		realtime.WithSendBuffer(cfg.Realtime.SendBuffer),
	)

	ledger := counter.NewLedger(stores.counters,
		counter.WithLogger(log),
		counter.WithMetrics(counter.NewMetrics(reg)),
	)
	notifier := notification.NewNotifier(stores.notificationSink,
		notification.WithLogger(log),
		notification.WithMetrics(notification.NewMetrics(reg)),
	)

	identities := identity.NewService(stores.identities, ledger, identity.WithLogger(log))
	follows := follow.NewService(stores.follows, identities, ledger,
		follow.WithLogger(log),
		follow.WithMetrics(follow.NewMetrics(reg)),
		follow.WithDispatcher(events),
		follow.WithNotifier(notifier),
	)
	bridges := bridge.NewService(stores.bridges, visibility.NewGuard(identities, follows), ledger,
		bridge.WithLogger(log),
	)
	engagements := engagement.NewService(stores.engagement, bridges, ledger,
		engagement.WithLogger(log),
		engagement.WithMetrics(engagement.NewMetrics(reg)),
		engagement.WithDispatcher(events),
		engagement.WithNotifier(notifier),
	)
	messages := messaging.NewService(stores.messages, identities,
		messaging.WithLogger(log),
		messaging.WithMetrics(messaging.NewMetrics(reg)),
		messaging.WithDispatcher(events),
		messaging.WithBroadcaster(events),
		messaging.WithNotifier(notifier),
	)
	notifications := notification.NewService(stores.notifications)

	router := httptransport.NewRouter(httptransport.Deps{
		Verifier: verifier,
		Handlers: []httptransport.Routes{
			identityhandler.New(identities, log),
			followhandler.New(follows, log),
			bridgehandler.New(bridges, log),
			engagementhandler.New(engagements, log),
			messaginghandler.New(messages, log),
			notificationhandler.New(notifications, log),
		},
		Realtime:     realtime.NewWSHandler(events, messages, cfg.Realtime, log),
		Metrics:      metrics.New(reg),
		HealthChecks: infra.healthChecks(),
		Logger:       log,
	})
	srv := httpserver.New(cfg.Addr, router, log, events.Close)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting bridges", "addr", cfg.Addr, "backends", infra.describe())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// infra holds the optional backing services. A nil field selects the
// in-memory implementation for that concern.
type infra struct {
	db    *sql.DB
	redis *redisclient.Client
	kafka *kgo.Client
	cfg   config.Server
	log   *slog.Logger
}

func openInfra(ctx context.Context, cfg config.Server, log *slog.Logger) (*infra, error) {
	in := &infra{cfg: cfg, log: log}

	if cfg.Database.URL != "" {
		if cfg.Database.MigrateOnStart {
			if err := postgres.Migrate(cfg.Database.URL); err != nil {
				return nil, err
			}
		}
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		in.db = db
	}

	rc, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		in.close()
		return nil, err
	}
	in.redis = rc

	kc, err := kafka.NewClient(ctx, cfg.Kafka)
	if err != nil {
		in.close()
		return nil, err
	}
	in.kafka = kc
	if kc != nil {
		if err := kafka.EnsureTopic(ctx, kc, cfg.Kafka.NotificationTopic, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor); err != nil {
			in.close()
			return nil, err
		}
	}
	return in, nil
}

func (in *infra) close() {
	if in.kafka != nil {
		in.kafka.Close()
	}
	if in.redis != nil {
		if err := in.redis.Close(); err != nil {
			in.log.Warn("redis close failed", "error", err)
		}
	}
	if in.db != nil {
		if err := in.db.Close(); err != nil {
			in.log.Warn("database close failed", "error", err)
		}
	}
}

func (in *infra) describe() map[string]string {
	backend := func(enabled bool, name string) string {
		if enabled {
			return name
		}
		return "memory"
	}
	counters := backend(in.db != nil, "postgres")
	if in.redis != nil {
		counters = "redis"
	}
	return map[string]string{
		"storage":       backend(in.db != nil, "postgres"),
		"counters":      counters,
		"revocation":    backend(in.redis != nil, "redis"),
		"notifications": backend(in.kafka != nil, "kafka+store"),
	}
}

func (in *infra) healthChecks() map[string]httptransport.HealthCheck {
	checks := make(map[string]httptransport.HealthCheck)
	if in.db != nil {
		checks["postgres"] = in.db.PingContext
	}
	if in.redis != nil {
		checks["redis"] = in.redis.Health
	}
	if in.kafka != nil {
		checks["kafka"] = in.kafka.Ping
	}
	return checks
}

type storeSet struct {
	identities       identity.Store
	revocations      identity.RevocationList
	follows          follow.Store
	counters         counter.Store
	bridges          bridge.Store
	engagement       engagement.Store
	messages         messaging.Store
	notifications    notification.Store
	notificationSink notification.Sink
}

func (in *infra) stores() storeSet {
	var s storeSet
	if in.db != nil {
		s.identities = identity.NewPostgres(in.db)
		s.follows = follow.NewPostgres(in.db)
		s.counters = counter.NewPostgres(in.db)
		s.bridges = bridge.NewPostgres(in.db)
		s.engagement = engagement.NewPostgres(in.db)
		s.messages = messaging.NewPostgres(in.db)
		s.notifications = notification.NewPostgres(in.db)
	} else {
		s.identities = identity.NewInMemoryStore()
		s.follows = follow.NewInMemoryStore()
		s.counters = counter.NewInMemoryStore()
		engagementStore := engagement.NewInMemoryStore()
		s.bridges = bridge.NewInMemoryStore(engagementStore)
		s.engagement = engagementStore
		s.messages = messaging.NewInMemoryStore()
		s.notifications = notification.NewInMemoryStore()
	}

	if in.redis != nil {
		s.counters = counter.NewRedis(in.redis.Client, in.redis.Namespace)
		s.revocations = identity.NewRedisTRL(in.redis.Client, in.redis.Namespace)
	} else {
		s.revocations = identity.NewInMemoryTRL()
	}

	s.notificationSink = s.notifications
	if in.kafka != nil {
		kafkaSink := notification.Guard(
			notification.NewKafkaSink(in.kafka, in.cfg.Kafka.NotificationTopic),
			circuit.New("kafka", circuit.WithFailureThreshold(5), circuit.WithCooldown(30*time.Second)),
			in.log,
		)
		s.notificationSink = notification.Tee(s.notifications, kafkaSink)
	}
	return s
}
