package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"

	UploadLocal = "local"
	UploadMinIO = "minio"
)

type Config struct {
	Port        string    `yaml:"port" env:"PORT" env-default:"8080"`
	Environment string    `yaml:"environment" env:"ENVIRONMENT" env-default:"development"`
	Log         Log       `yaml:"log"`
	JWT         JWT       `yaml:"jwt"`
	Database    Database  `yaml:"database"`
	Redis       Redis     `yaml:"redis"`
	Kafka       Kafka     `yaml:"kafka"`
	Upload      Upload    `yaml:"upload"`
	MinIO       MinIO     `yaml:"minio"`
	RateLimit   RateLimit `yaml:"rate_limit"`
	CORS        CORS      `yaml:"cors"`
}

type Log struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

type JWT struct {
	Secret           string `yaml:"secret" env:"JWT_SECRET" env-required:"true"`
	AccessTTLMinutes int    `yaml:"access_ttl_minutes" env:"JWT_ACCESS_TTL_MINUTES" env-default:"60"`
	RefreshTTLHours  int    `yaml:"refresh_ttl_hours" env:"JWT_REFRESH_TTL_HOURS" env-default:"168"`
	CookieName       string `yaml:"cookie_name" env:"JWT_COOKIE_NAME" env-default:"jwt_token"`
	SecureCookie     bool   `yaml:"secure_cookie" env:"JWT_SECURE_COOKIE" env-default:"false"`
}

func (j *JWT) AccessTTL() time.Duration {
	return time.Duration(j.AccessTTLMinutes) * time.Minute
}

func (j *JWT) RefreshTTL() time.Duration {
	return time.Duration(j.RefreshTTLHours) * time.Hour
}

type Database struct {
	Driver       string `yaml:"driver" env:"DB_DRIVER" env-default:"postgres"`
	URL          string `yaml:"url" env:"DATABASE_URL" env-default:""`
	User         string `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password     string `yaml:"password" env:"DB_PASSWORD" env-default:""`
	DatabaseName string `yaml:"database_name" env:"DB_NAME" env-default:"ticketing"`
	Host         string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port         string `yaml:"port" env:"DB_PORT" env-default:"5432"`
	SSLMode      string `yaml:"ssl_mode" env:"DB_SSL_MODE" env-default:"disable"`

	// Connection Pool Settings
	MaxOpenConns    int `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns    int `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	ConnMaxLifetime int `yaml:"conn_max_lifetime_minutes" env:"DB_CONN_MAX_LIFETIME" env-default:"30"`

	Mongo Mongo `yaml:"mongo"`
}

// GetDatabaseURL prefers an explicit URL over the individual fields.
func (d *Database) GetDatabaseURL() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DatabaseName, d.SSLMode)
}

// Mongo transactions need a replica set, even a single-node one.
type Mongo struct {
	URI      string `yaml:"uri" env:"MONGO_URI" env-default:"mongodb://localhost:27017/?replicaSet=rs0"`
	Database string `yaml:"database" env:"MONGO_DATABASE" env-default:"ticketing"`
}

type Redis struct {
	Enabled         bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"true"`
	Host            string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port            string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password        string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB              int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	CacheTTLMinutes int    `yaml:"cache_ttl_minutes" env:"REDIS_CACHE_TTL_MINUTES" env-default:"10"`
}

func (r *Redis) GetRedisURL() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

func (r *Redis) CacheTTL() time.Duration {
	return time.Duration(r.CacheTTLMinutes) * time.Minute
}

type Kafka struct {
	Enabled       bool     `yaml:"enabled" env:"KAFKA_ENABLED" env-default:"false"`
	Brokers       []string `yaml:"brokers" env:"KAFKA_BROKERS" env-default:"localhost:9092" env-separator:","`
	ActivityTopic string   `yaml:"activity_topic" env:"KAFKA_ACTIVITY_TOPIC" env-default:"booking-activity"`
}

type Upload struct {
	Backend   string `yaml:"backend" env:"UPLOAD_BACKEND" env-default:"local"`
	Dir       string `yaml:"dir" env:"UPLOAD_DIR" env-default:"uploads"`
	MaxSizeMB int    `yaml:"max_size_mb" env:"UPLOAD_MAX_SIZE_MB" env-default:"5"`
}

func (u *Upload) MaxSizeBytes() int64 {
	return int64(u.MaxSizeMB) << 20
}

type MinIO struct {
	Endpoint      string `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:"localhost:9000"`
	AccessKey     string `yaml:"access_key" env:"MINIO_ACCESS_KEY" env-default:""`
	SecretKey     string `yaml:"secret_key" env:"MINIO_SECRET_KEY" env-default:""`
	Bucket        string `yaml:"bucket" env:"MINIO_BUCKET" env-default:"event-images"`
	UseSSL        bool   `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
	PublicBaseURL string `yaml:"public_base_url" env:"MINIO_PUBLIC_BASE_URL" env-default:""`
}

type RateLimit struct {
	Enabled       bool `yaml:"enabled" env:"RATE_LIMIT_ENABLED" env-default:"true"`
	Requests      int  `yaml:"requests" env:"RATE_LIMIT_REQUESTS" env-default:"10"`
	WindowSeconds int  `yaml:"window_seconds" env:"RATE_LIMIT_WINDOW_SECONDS" env-default:"60"`
}

func (r *RateLimit) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"*" env-separator:","`
}

// Validate reports configuration values cleanenv cannot check on its own.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverMongo, DriverMemory:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	switch c.Upload.Backend {
	case UploadLocal, UploadMinIO:
	default:
		return fmt.Errorf("unsupported upload backend %q", c.Upload.Backend)
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka is enabled but no brokers are configured")
	}

	if c.RateLimit.Enabled && (c.RateLimit.Requests <= 0 || c.RateLimit.WindowSeconds <= 0) {
		return errors.New("rate limit requests and window must be positive")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func Initialise(configPath string, useEnv bool) (*Config, error) {
	// A missing .env file is fine; real deployments inject the environment.
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
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
