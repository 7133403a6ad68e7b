package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Activity  ActivityConfig  `yaml:"activity"`
	Progress  ProgressConfig  `yaml:"progress"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type TransportConfig struct {
	// Mode is "http" or "stdio".
	Mode string `yaml:"mode"`
}

type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
	// DefaultActor is the user ID used when auth is disabled.
	DefaultActor string `yaml:"default_actor"`
}

type DBConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

type ActivityConfig struct {
	// Buffer is the async queue size; 0 writes synchronously.
	Buffer int `yaml:"buffer"`
}

type ProgressConfig struct {
	// Schedule is a cron spec for the progress sweep; empty disables it.
	Schedule string `yaml:"schedule"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 5 * time.Second,
		},
		Transport: TransportConfig{Mode: "http"},
		Auth:      AuthConfig{Enabled: true},
		DB: DBConfig{
			Driver:   "sqlite",
			Path:     "waypoint.db",
			MaxConns: 10,
		},
		Log:       LogConfig{Level: "info"},
		Activity:  ActivityConfig{Buffer: 256},
		Progress:  ProgressConfig{Schedule: "@every 5m"},
		RateLimit: RateLimitConfig{RPS: 20, Burst: 40},
	}
}

// Load reads configuration from defaults, an optional .env file, an optional
// YAML file and environment variables, in that order of precedence.
func Load() (Config, error) {
	envFile := os.Getenv("WAYPOINT_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	cfg := Default()

	if path := os.Getenv("WAYPOINT_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects unusable settings.
func (c Config) Validate() error {
	switch c.Transport.Mode {
	case "http", "stdio":
	default:
		return fmt.Errorf("invalid transport mode %q", c.Transport.Mode)
	}
	switch c.DB.Driver {
	case "sqlite":
		if c.DB.Path == "" {
			return errors.New("db.path is required for sqlite")
		}
	case "postgres":
		if c.DB.URL == "" {
			return errors.New("db.url is required for postgres")
		}
	default:
		return fmt.Errorf("invalid db driver %q", c.DB.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Activity.Buffer < 0 {
		return errors.New("activity.buffer must not be negative")
	}
	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		return errors.New("rate_limit values must not be negative")
	}
	if (!c.Auth.Enabled || c.Transport.Mode == "stdio") && c.Auth.DefaultActor == "" {
		return errors.New("auth.default_actor is required for stdio or when auth is disabled")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv("WAYPOINT_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if err := envInt("WAYPOINT_SERVER_PORT", &cfg.Server.Port); err != nil {
		return err
	}
	if mode := os.Getenv("WAYPOINT_TRANSPORT_MODE"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if v := os.Getenv("WAYPOINT_AUTH_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid WAYPOINT_AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = enabled
	}
	if actor := os.Getenv("WAYPOINT_DEFAULT_ACTOR"); actor != "" {
		cfg.Auth.DefaultActor = actor
	}
	if driver := os.Getenv("WAYPOINT_DB_DRIVER"); driver != "" {
		cfg.DB.Driver = driver
	}
	if dbPath := os.Getenv("WAYPOINT_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if url := os.Getenv("WAYPOINT_DB_URL"); url != "" {
		cfg.DB.URL = url
	}
	if level := os.Getenv("WAYPOINT_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := os.Getenv("WAYPOINT_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}
	if err := envInt("WAYPOINT_ACTIVITY_BUFFER", &cfg.Activity.Buffer); err != nil {
		return err
	}
	if schedule, ok := os.LookupEnv("WAYPOINT_PROGRESS_SCHEDULE"); ok {
		cfg.Progress.Schedule = schedule
	}
	if v := os.Getenv("WAYPOINT_RATE_LIMIT_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid WAYPOINT_RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimit.RPS = rps
	}
	return envInt("WAYPOINT_RATE_LIMIT_BURST", &cfg.RateLimit.Burst)
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
