// FilePath: cmd/main.go
package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	tm "github.com/buger/goterm"
	"github.com/gardenhub/server/hub/internal/config"
	"github.com/gardenhub/server/hub/internal/server"
	nuts "github.com/vaudience/go-nuts"
)

func main() {
	ClearConsole()
	DrawLogo()
	nuts.InitVersion()
	nuts.L.Infof("[Main] Starting Garden Hub Server v%s", nuts.GetVersion())

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	for _, line := range startupSummary(cfg) {
		nuts.L.Infof("[Main] %s", line)
	}

	// Create and start server
	srv := server.New(cfg)
	if err := srv.Start(); err != nil {
		nuts.L.Errorf("[Main] Server error: %v", err)
		os.Exit(1)
	}
}

// startupSummary describes the loaded configuration. Credentials are never
// part of it.
func startupSummary(cfg *config.Config) []string {
	lines := []string{
		fmt.Sprintf("Listening on %s:%d", cfg.Server.Host, cfg.Server.Port),
	}

	switch cfg.Database.Driver {
	case "postgres":
		pg := cfg.Database.Postgres
		lines = append(lines, fmt.Sprintf("Database: postgres %s@%s:%d/%s", pg.User, pg.Host, pg.Port, pg.DBName))
	default:
		lines = append(lines, fmt.Sprintf("Database: sqlite %s", cfg.Database.SQLite.Path))
	}

	lines = append(lines, fmt.Sprintf("Sensor cloud: %s", cfg.Cloud.BaseURL))
	if cfg.Ingestion.Enabled {
		lines = append(lines, fmt.Sprintf("Ingestion every %s", cfg.Ingestion.Interval))
	} else {
		lines = append(lines, "Ingestion disabled")
	}

	var optional []string
	if cfg.Redis.Enabled {
		optional = append(optional, "redis")
	}
	if cfg.MQTT.Enabled {
		optional = append(optional, "mqtt")
	}
	if cfg.InfluxDB.Enabled {
		optional = append(optional, "influxdb")
	}
	if len(optional) > 0 {
		lines = append(lines, "Integrations: "+strings.Join(optional, ", "))
	}
	return lines
}

// ClearConsole clears the console screen.
func ClearConsole() {
	tm.Clear()
	tm.MoveCursor(1, 1)
	tm.Flush()
}

func DrawLogo() {
	fmt.Println()
	lines := []string{
		"   ______               __           ",
		"  / ____/___ __________/ /__  ____   ",
		" / / __/ __ `/ ___/ __  / _ \\/ __ \\  ",
		"/ /_/ / /_/ / /  / /_/ /  __/ / / /  ",
		"\\____/\\__,_/_/   \\__,_/\\___/_/ /_/   ",
		"..................................... hub " + nuts.GetVersion(),
	}

	for _, line := range lines {
		fmt.Println(line)
	}
}
