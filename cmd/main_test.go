package main

import (
	"strings"
	"testing"
	"time"

	"github.com/gardenhub/server/hub/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestStartupSummaryOmitsSecrets(t *testing.T) {
	cfg := &config.Config{
		Server:    config.ServerConfig{Host: "0.0.0.0", Port: 5000},
		Database:  config.DatabaseConfig{Driver: "postgres", Postgres: config.PostgresConfig{Host: "db", Port: 5432, User: "garden", Password: "pg-secret", DBName: "garden"}},
		Cloud:     config.CloudConfig{BaseURL: "https://sgp1.blynk.cloud", Token: "cloud-secret"},
		Ingestion: config.IngestionConfig{Enabled: true, Interval: time.Minute},
		Redis:     config.RedisConfig{Enabled: true, Password: "redis-secret"},
		InfluxDB:  config.InfluxDBConfig{Enabled: true, Token: "influx-secret"},
	}

	joined := strings.Join(startupSummary(cfg), "\n")
	assert.Contains(t, joined, "0.0.0.0:5000")
	assert.Contains(t, joined, "postgres garden@db:5432/garden")
	assert.Contains(t, joined, "https://sgp1.blynk.cloud")
	assert.Contains(t, joined, "Ingestion every 1m0s")
	assert.Contains(t, joined, "Integrations: redis, influxdb")
	for _, secret := range []string{"pg-secret", "cloud-secret", "redis-secret", "influx-secret"} {
		assert.NotContains(t, joined, secret)
	}
}

func TestStartupSummaryDefaultsToSQLite(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{SQLite: config.SQLiteConfig{Path: "garden.db"}}}

	lines := startupSummary(cfg)
	assert.Contains(t, lines, "Database: sqlite garden.db")
	assert.Contains(t, lines, "Ingestion disabled")
	assert.NotContains(t, strings.Join(lines, "\n"), "Integrations")
}
