package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	t.Run("defaults select in-memory backends", func(t *testing.T) {
		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Empty(t, cfg.Database.URL)
		assert.Empty(t, cfg.Redis.URL)
		assert.Equal(t, "bridges:", cfg.Redis.Namespace)
		assert.Empty(t, cfg.Kafka.Brokers)
		assert.Equal(t, "pgx", cfg.Database.Driver)
		assert.Equal(t, 64, cfg.Realtime.SendBuffer)
	})

	t.Run("reads prefixed nested values", func(t *testing.T) {
		t.Setenv("BRIDGES_ADDR", ":9090")
		t.Setenv("DATABASE_DRIVER", "postgres")
		t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
		t.Setenv("REDIS_DIAL_TIMEOUT", "2s")
		t.Setenv("REALTIME_SEND_BUFFER", "8")

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, ":9090", cfg.Addr)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
		assert.Equal(t, 2*time.Second, cfg.Redis.DialTimeout)
		assert.Equal(t, 8, cfg.Realtime.SendBuffer)
	})

	t.Run("rejects unknown driver", func(t *testing.T) {
		t.Setenv("DATABASE_DRIVER", "mysql")
		_, err := FromEnv()
		require.Error(t, err)
	})
}
