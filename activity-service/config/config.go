package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string `yaml:"port" env:"PORT" env-default:"8085"`
	Environment string `yaml:"environment" env:"ENVIRONMENT" env-default:"development"`
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Kafka       Kafka  `yaml:"kafka"`
	Worker      Worker `yaml:"worker"`
}

type Kafka struct {
	Brokers       []string `yaml:"brokers" env:"KAFKA_BROKERS" env-default:"localhost:9092" env-separator:","`
	ActivityTopic string   `yaml:"activity_topic" env:"KAFKA_ACTIVITY_TOPIC" env-default:"booking-activity"`
	ConsumerGroup string   `yaml:"consumer_group" env:"KAFKA_CONSUMER_GROUP" env-default:"activity-service"`
}

type Worker struct {
	Count                 int `yaml:"count" env:"WORKER_COUNT" env-default:"8"`
	ReportIntervalSeconds int `yaml:"report_interval_seconds" env:"WORKER_REPORT_INTERVAL_SECONDS" env-default:"30"`
}

func (w *Worker) ReportInterval() time.Duration {
	return time.Duration(w.ReportIntervalSeconds) * time.Second
}

func Initialise(configPath string, useEnv bool) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	if useEnv {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment variables: %w", err)
		}
		return validated(cfg)
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := cleanenv.ReadConfig(configPath, cfg); err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
			}
			return validated(cfg)
		}
	}

	// Fallback to environment variables
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment variables: %w", err)
	}

	return validated(cfg)
}

func validated(cfg *Config) (*Config, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("invalid configuration: no kafka brokers configured")
	}
	if cfg.Worker.Count <= 0 {
		return nil, fmt.Errorf("invalid configuration: worker count must be positive, got %d", cfg.Worker.Count)
	}
	return cfg, nil
}
