package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	DB       DBConfig       `yaml:"db"`
	Log      LogConfig      `yaml:"log"`
	Auth     AuthConfig     `yaml:"auth"`
	Stream   StreamConfig   `yaml:"stream"`
	NATS     NATSConfig     `yaml:"nats"`
	Redis    RedisConfig    `yaml:"redis"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Instance InstanceConfig `yaml:"instance"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// AuthConfig controls bearer authentication of the REST API and MCP
// endpoint. With auth disabled every request acts as DefaultTenant.
type AuthConfig struct {
	Enabled       bool   `yaml:"enabled"`
	DefaultTenant string `yaml:"default_tenant"`
	// BootstrapKey, when set, is registered for DefaultTenant on startup.
	BootstrapKey string `yaml:"bootstrap_key"`
}

type StreamConfig struct {
	Heartbeat      time.Duration `yaml:"heartbeat"`
	Buffer         int           `yaml:"buffer"`
	// OriginPatterns are the cross-origin hosts allowed on /activity/ws.
	OriginPatterns []string      `yaml:"origin_patterns"`
}

// NATSConfig enables cross-instance fan-out when URL is set.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig enables shared stream presence when Addr is set.
type RedisConfig struct {
	Addr string `yaml:"addr"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type InstanceConfig struct {
	Name string `yaml:"name"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "huddle.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Auth: AuthConfig{
			Enabled:       false,
			DefaultTenant: "default",
		},
		Stream: StreamConfig{
			Heartbeat: 30 * time.Second,
			Buffer:    64,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}

	if path := os.Getenv("HUDDLE_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("HUDDLE_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("HUDDLE_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid HUDDLE_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("HUDDLE_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("HUDDLE_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if v := os.Getenv("HUDDLE_AUTH_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid HUDDLE_AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = enabled
	}
	if tenant := os.Getenv("HUDDLE_DEFAULT_TENANT"); tenant != "" {
		cfg.Auth.DefaultTenant = tenant
	}
	if key := os.Getenv("HUDDLE_BOOTSTRAP_API_KEY"); key != "" {
		cfg.Auth.BootstrapKey = key
	}
	if v := os.Getenv("HUDDLE_STREAM_HEARTBEAT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid HUDDLE_STREAM_HEARTBEAT: %w", err)
		}
		cfg.Stream.Heartbeat = d
	}
	if v := os.Getenv("HUDDLE_STREAM_BUFFER"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid HUDDLE_STREAM_BUFFER: %w", err)
		}
		cfg.Stream.Buffer = n
	}
	if v := os.Getenv("HUDDLE_STREAM_ORIGINS"); v != "" {
		cfg.Stream.OriginPatterns = splitList(v)
	}
	if url := os.Getenv("HUDDLE_NATS_URL"); url != "" {
		cfg.NATS.URL = url
	}
	if addr := os.Getenv("HUDDLE_REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if v := os.Getenv("HUDDLE_METRICS_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid HUDDLE_METRICS_ENABLED: %w", err)
		}
		cfg.Metrics.Enabled = enabled
	}
	if name := os.Getenv("HUDDLE_INSTANCE_NAME"); name != "" {
		cfg.Instance.Name = name
	}
	if cfg.Instance.Name == "" {
		cfg.Instance.Name, _ = os.Hostname()
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Stream.Heartbeat <= 0 {
		return fmt.Errorf("stream heartbeat must be positive")
	}
	if c.Stream.Buffer <= 0 {
		return fmt.Errorf("stream buffer must be positive")
	}
	if !c.Auth.Enabled && c.Auth.DefaultTenant == "" {
		return fmt.Errorf("default tenant is required when auth is disabled")
	}
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

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
