package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialiseFromEnvDefaults(t *testing.T) {
	cfg, err := Initialise("", true)
	require.NoError(t, err)

	assert.Equal(t, "8085", cfg.Port)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "booking-activity", cfg.Kafka.ActivityTopic)
	assert.Equal(t, "activity-service", cfg.Kafka.ConsumerGroup)
	assert.Equal(t, 8, cfg.Worker.Count)
	assert.Equal(t, 30*time.Second, cfg.Worker.ReportInterval())
}

func TestInitialiseFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
port: "9000"
kafka:
  brokers: ["kafka-1:9092", "kafka-2:9092"]
  activity_topic: audit
worker:
  count: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Initialise(path, false)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "audit", cfg.Kafka.ActivityTopic)
	assert.Equal(t, 2, cfg.Worker.Count)
}

func TestInitialiseRejectsZeroWorkers(t *testing.T) {
	t.Setenv("WORKER_COUNT", "0")

	_, err := Initialise("", true)
	assert.Error(t, err)
}
