package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Cloud     CloudConfig     `mapstructure:"cloud"`
	Actuation ActuationConfig `mapstructure:"actuation"`
	Ingestion IngestionConfig `mapstructure:"ingestion"`
	Redis     RedisConfig     `mapstructure:"redis"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
	InfluxDB  InfluxDBConfig  `mapstructure:"influxdb"`
	Retention RetentionConfig `mapstructure:"retention"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig selects the store backend. Driver is "sqlite" or "postgres".
type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type SQLiteConfig struct {
	Path        string `mapstructure:"path"`
	BusyTimeout int    `mapstructure:"busy_timeout"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// CloudConfig describes the sensor cloud the hub polls and pushes to.
// Pins maps snapshot fields (soil, temperature, humidity, light, pressure)
// to the cloud's virtual pin names.
type CloudConfig struct {
	BaseURL string            `mapstructure:"base_url"`
	Token   string            `mapstructure:"token"`
	Timeout time.Duration     `mapstructure:"timeout"`
	Pins    map[string]string `mapstructure:"pins"`
}

type ActuationConfig struct {
	QueueSize   int           `mapstructure:"queue_size"`
	Workers     int           `mapstructure:"workers"`
	PushTimeout time.Duration `mapstructure:"push_timeout"`
}

type IngestionConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Interval     time.Duration `mapstructure:"interval"`
	ErrorBackoff time.Duration `mapstructure:"error_backoff"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	QoS         int    `mapstructure:"qos"`
}

type InfluxDBConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	URL           string `mapstructure:"url"`
	Token         string `mapstructure:"token"`
	Org           string `mapstructure:"org"`
	Bucket        string `mapstructure:"bucket"`
	BatchSize     int    `mapstructure:"batch_size"`
	FlushInterval int    `mapstructure:"flush_interval"`
}

// RetentionConfig controls periodic pruning. A day count of 0 keeps rows forever.
type RetentionConfig struct {
	Interval       time.Duration `mapstructure:"interval"`
	SensorDataDays int           `mapstructure:"sensor_data_days"`
	ReadAlertDays  int           `mapstructure:"read_alert_days"`
}

// Load initializes configuration from environment variables and config file
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GARDEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 5050)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.sqlite.path", "./data/garden.db")
	v.SetDefault("database.sqlite.busy_timeout", 5)
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.sslmode", "disable")

	// Cloud defaults
	v.SetDefault("cloud.base_url", "https://blynk.cloud")
	v.SetDefault("cloud.timeout", "10s")
	v.SetDefault("cloud.pins", map[string]string{
		"soil":        "v1",
		"temperature": "v2",
		"humidity":    "v3",
		"light":       "v6",
		"pressure":    "v10",
	})

	// Actuation defaults
	v.SetDefault("actuation.queue_size", 64)
	v.SetDefault("actuation.workers", 1)
	v.SetDefault("actuation.push_timeout", "10s")

	// Ingestion defaults
	v.SetDefault("ingestion.enabled", true)
	v.SetDefault("ingestion.interval", "60s")
	v.SetDefault("ingestion.error_backoff", "10s")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "10m")

	// MQTT defaults
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.host", "localhost")
	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.client_id", "garden-hub")
	v.SetDefault("mqtt.topic_prefix", "garden")
	v.SetDefault("mqtt.qos", 1)

	// InfluxDB defaults
	v.SetDefault("influxdb.enabled", false)
	v.SetDefault("influxdb.url", "http://localhost:8086")
	v.SetDefault("influxdb.bucket", "garden")
	v.SetDefault("influxdb.batch_size", 100)
	v.SetDefault("influxdb.flush_interval", 10)

	// Retention defaults
	v.SetDefault("retention.interval", "24h")
	v.SetDefault("retention.sensor_data_days", 0)
	v.SetDefault("retention.read_alert_days", 0)
}

func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case "sqlite":
		if config.Database.SQLite.Path == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case "postgres":
		if config.Database.Postgres.Host == "" {
			return fmt.Errorf("postgres host is required")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", config.Database.Driver)
	}
	if config.Ingestion.Enabled && config.Ingestion.Interval <= 0 {
		return fmt.Errorf("ingestion interval must be positive")
	}
	if config.Actuation.QueueSize <= 0 {
		return fmt.Errorf("actuation queue size must be positive")
	}
	if config.Cloud.BaseURL == "" {
		return fmt.Errorf("cloud base URL is required")
	}
	return nil
}
