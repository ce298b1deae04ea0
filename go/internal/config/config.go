package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration. Values come from defaults, then
// an optional YAML file, then the environment.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Goal     int            `yaml:"goal"`
	Store    StoreConfig    `yaml:"store"`
	Bus      BusConfig      `yaml:"bus"`
	NATS     NATSConfig     `yaml:"nats"`
	Postgres DatabaseConfig `yaml:"postgres"`
	Display  DisplayConfig  `yaml:"display"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Port      string `yaml:"port"`
	PublicURL string `yaml:"public_url"`
}

type StoreConfig struct {
	Driver     string `yaml:"driver"`
	SQLitePath string `yaml:"sqlite_path"`
	NATSBucket string `yaml:"nats_bucket"`
}

type BusConfig struct {
	Driver  string `yaml:"driver"`
	Subject string `yaml:"subject"`
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

type DisplayConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// DSN returns the Postgres connection URL.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Port:      "8080",
			PublicURL: "http://localhost:8080",
		},
		Goal: 10,
		Store: StoreConfig{
			Driver:     "memory",
			SQLitePath: "focus-arcade.db",
			NATSBucket: "focus_arcade",
		},
		Bus: BusConfig{
			Driver:  "local",
			Subject: "focus-arcade",
		},
		NATS: NATSConfig{
			URL: "nats://127.0.0.1:4222",
		},
		Postgres: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Password: "postgres",
			Database: "focus_arcade",
			SSLMode:  "disable",
		},
		Display: DisplayConfig{
			PollInterval: 500 * time.Millisecond,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadDotEnv loads .env files into the environment. A missing file is only
// a warning.
func LoadDotEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}
}

// Load builds the configuration. An empty path skips the YAML file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.HTTP.Port = getEnv("PORT", cfg.HTTP.Port)
	cfg.HTTP.PublicURL = getEnv("PUBLIC_URL", cfg.HTTP.PublicURL)
	cfg.Goal = getEnvAsInt("FOCUS_GOAL", cfg.Goal)

	cfg.Store.Driver = getEnv("STORE_DRIVER", cfg.Store.Driver)
	cfg.Store.SQLitePath = getEnv("SQLITE_PATH", cfg.Store.SQLitePath)
	cfg.Store.NATSBucket = getEnv("NATS_KV_BUCKET", cfg.Store.NATSBucket)

	cfg.Bus.Driver = getEnv("BUS_DRIVER", cfg.Bus.Driver)
	cfg.Bus.Subject = getEnv("BUS_SUBJECT", cfg.Bus.Subject)

	cfg.NATS.URL = getEnv("NATS_URL", cfg.NATS.URL)

	cfg.Postgres.Host = getEnv("DB_HOST", cfg.Postgres.Host)
	cfg.Postgres.Port = getEnvAsInt("DB_PORT", cfg.Postgres.Port)
	cfg.Postgres.User = getEnv("DB_USER", cfg.Postgres.User)
	cfg.Postgres.Password = getEnv("DB_PASSWORD", cfg.Postgres.Password)
	cfg.Postgres.Database = getEnv("DB_NAME", cfg.Postgres.Database)
	cfg.Postgres.SSLMode = getEnv("DB_SSLMODE", cfg.Postgres.SSLMode)

	cfg.Display.PollInterval = getEnvAsDuration("DISPLAY_POLL_INTERVAL", cfg.Display.PollInterval)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
}

// Validate rejects values nothing downstream can work with.
func (c Config) Validate() error {
	var errs []error
	if c.Goal <= 0 {
		errs = append(errs, fmt.Errorf("goal must be positive, got %d", c.Goal))
	}
	if c.Display.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("display poll interval must be positive, got %s", c.Display.PollInterval))
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("invalid log level %q: %w", c.Log.Level, err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// LogLevel parses the configured level, falling back to info.
func (c Config) LogLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("ignoring non-integer environment value")
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Warn().Str("key", key).Str("value", value).Msg("ignoring invalid duration environment value")
	}
	return defaultValue
}
