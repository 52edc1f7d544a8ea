// Package config loads the daemon configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Log        LogConfig        `yaml:"log"`
	Web        WebConfig        `yaml:"web"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Projection ProjectionConfig `yaml:"projection"`
	Monitor    MonitorConfig    `yaml:"monitor"`
	AlertLamp  AlertLampConfig  `yaml:"alert_lamp"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

type WebConfig struct {
	Addr          string        `yaml:"addr"` // empty disables the HTTP server
	ViewCacheSize int           `yaml:"view_cache_size"`
	ViewTTL       time.Duration `yaml:"view_ttl"`
}

type DatabaseConfig struct {
	Driver   string         `yaml:"driver"` // sqlite or postgres
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type TelemetryConfig struct {
	Backend string `yaml:"backend"` // mqtt or kafka
}

type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"` // telemetry topics live under this prefix
	EventPrefix string `yaml:"event_prefix"` // published transitions and system events
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
}

type ProjectionConfig struct {
	LowThreshold int           `yaml:"low_threshold"`
	Debounce     time.Duration `yaml:"debounce"`
}

type MonitorConfig struct {
	Heartbeat time.Duration `yaml:"heartbeat"` // 0 disables
	Refresh   time.Duration `yaml:"refresh"`   // 0 disables
	Watch     []WatchTarget `yaml:"watch"`
}

type WatchTarget struct {
	NetworkID  string `yaml:"network_id"`
	LocationID string `yaml:"location_id"`
}

type AlertLampConfig struct {
	Enabled bool   `yaml:"enabled"`
	Chip    string `yaml:"chip"`
	Pin     int    `yaml:"pin"`
}

// Defaults returns the configuration used when no file is present.
func Defaults() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "json"},
		Web: WebConfig{Addr: ":8080", ViewCacheSize: 64, ViewTTL: 10 * time.Minute},
		Database: DatabaseConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{Path: "stockwise.db"},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "stockwise",
				User:     "stockwise",
				SSLMode:  "disable",
			},
		},
		Redis:     RedisConfig{Address: "localhost:6379"},
		Telemetry: TelemetryConfig{Backend: "mqtt"},
		MQTT: MQTTConfig{
			Broker:      "tcp://localhost:1883",
			ClientID:    "stockwise",
			TopicPrefix: "tenants",
			EventPrefix: "stockwise",
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "stockwise.telemetry",
			GroupID: "stockwise",
		},
		Projection: ProjectionConfig{LowThreshold: 2, Debounce: 100 * time.Millisecond},
		Monitor:    MonitorConfig{Heartbeat: 15 * time.Minute, Refresh: 30 * time.Second},
		AlertLamp:  AlertLampConfig{Chip: "gpiochip0", Pin: 17},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the daemon cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unsupported database driver %q", c.Database.Driver)
	}
	switch c.Telemetry.Backend {
	case "mqtt", "kafka":
	default:
		return fmt.Errorf("config: unsupported telemetry backend %q", c.Telemetry.Backend)
	}
	if c.Projection.Debounce <= 0 {
		return fmt.Errorf("config: projection.debounce must be positive, got %v", c.Projection.Debounce)
	}
	if c.Projection.LowThreshold <= 0 {
		return fmt.Errorf("config: projection.low_threshold must be positive, got %d", c.Projection.LowThreshold)
	}
	for i, w := range c.Monitor.Watch {
		if w.NetworkID == "" || w.LocationID == "" {
			return fmt.Errorf("config: monitor.watch[%d] needs network_id and location_id", i)
		}
	}
	return nil
}
