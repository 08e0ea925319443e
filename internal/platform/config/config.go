package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server captures process-level configuration. Backends are optional: an empty
// URL selects the in-memory implementation for that concern.
type Server struct {
	Addr          string `env:"BRIDGES_ADDR" envDefault:":8080"`
	LogLevel      string `env:"BRIDGES_LOG_LEVEL" envDefault:"info"`
	JWTSigningKey string `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	JWTIssuer     string `env:"JWT_ISSUER" envDefault:"bridges"`

	Database DatabaseConfig `envPrefix:"DATABASE_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`
	Kafka    KafkaConfig    `envPrefix:"KAFKA_"`
	Realtime RealtimeConfig `envPrefix:"REALTIME_"`
	Tracing  TracingConfig  `envPrefix:"OTEL_"`
}

// DatabaseConfig selects the SQL driver. Both lib/pq ("postgres") and the pgx
// stdlib adapter ("pgx") are registered.
type DatabaseConfig struct {
	URL            string        `env:"URL"`
	Driver         string        `env:"DRIVER" envDefault:"pgx"`
	MaxOpenConns   int           `env:"MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns   int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxIdle    time.Duration `env:"CONN_MAX_IDLE" envDefault:"5m"`
	MigrateOnStart bool          `env:"MIGRATE_ON_START" envDefault:"true"`
}

// RedisConfig mirrors the go-redis options we override.
type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
	Namespace    string        `env:"NAMESPACE" envDefault:"bridges:"`
}

// KafkaConfig configures the notification sink producer.
type KafkaConfig struct {
	Brokers           []string `env:"BROKERS" envSeparator:","`
	NotificationTopic string   `env:"NOTIFICATION_TOPIC" envDefault:"bridges.notifications"`
	Partitions        int32    `env:"PARTITIONS" envDefault:"3"`
	ReplicationFactor int16    `env:"REPLICATION_FACTOR" envDefault:"1"`
}

// RealtimeConfig bounds per-connection resources of the event router.
type RealtimeConfig struct {
	SendBuffer      int           `env:"SEND_BUFFER" envDefault:"64"`
	FramesPerSecond float64       `env:"FRAMES_PER_SECOND" envDefault:"10"`
	FrameBurst      int           `env:"FRAME_BURST" envDefault:"20"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
}

// TracingConfig enables OTLP trace export when Endpoint is set.
type TracingConfig struct {
	Endpoint    string `env:"ENDPOINT"`
	Enabled     bool   `env:"ENABLED" envDefault:"true"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"bridges"`
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Database.Driver != "pgx" && cfg.Database.Driver != "postgres" {
		return Server{}, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.Database.Driver)
	}
	if cfg.Realtime.SendBuffer <= 0 {
		return Server{}, fmt.Errorf("REALTIME_SEND_BUFFER must be positive")
	}
	return cfg, nil
}
