package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gardenhub/server/hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

type columnTypes struct {
	id    string
	ts    string
	float string
}

var dialectTypes = map[Dialect]columnTypes{
	DialectSQLite:   {id: "INTEGER PRIMARY KEY AUTOINCREMENT", ts: "DATETIME", float: "REAL"},
	DialectPostgres: {id: "BIGSERIAL PRIMARY KEY", ts: "TIMESTAMPTZ", float: "DOUBLE PRECISION"},
}

// legacyColumns lists sensor_data columns renamed since the first deployments.
var legacyColumns = []struct{ from, to string }{
	{"soil", "soil_moisture"},
	{"temp", "temperature"},
	{"Pressure", "pressure"},
}

func schemaStatements(t columnTypes) []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS sensor_data (
			id ` + t.id + `,
			soil_moisture ` + t.float + `,
			temperature ` + t.float + `,
			humidity ` + t.float + `,
			light ` + t.float + `,
			pressure ` + t.float + `,
			timestamp ` + t.ts + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sensor_data_timestamp ON sensor_data(timestamp)`,
		`CREATE TABLE IF NOT EXISTS control_history (
			id ` + t.id + `,
			pin TEXT NOT NULL,
			value ` + t.float + ` NOT NULL,
			description TEXT,
			timestamp ` + t.ts + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS current_settings (
			pin TEXT PRIMARY KEY,
			value ` + t.float + ` NOT NULL,
			description TEXT,
			updated_at ` + t.ts + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS remembered_smart_controls (
			pin TEXT PRIMARY KEY,
			value INTEGER NOT NULL,
			updated_at ` + t.ts + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS notification_settings (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			min_temp ` + t.float + ` NOT NULL,
			max_temp ` + t.float + ` NOT NULL,
			min_humid ` + t.float + ` NOT NULL,
			max_humid ` + t.float + ` NOT NULL,
			min_press ` + t.float + ` NOT NULL,
			max_press ` + t.float + ` NOT NULL,
			cold_alert INTEGER NOT NULL,
			heat_alert INTEGER NOT NULL,
			dry_alert INTEGER NOT NULL,
			humid_alert INTEGER NOT NULL,
			low_press_alert INTEGER NOT NULL,
			high_press_alert INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id ` + t.id + `,
			type TEXT NOT NULL,
			message TEXT NOT NULL,
			timestamp ` + t.ts + ` NOT NULL,
			is_read INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_is_read ON alerts(is_read)`,
		`CREATE TABLE IF NOT EXISTS device_operation_history (
			id ` + t.id + `,
			device TEXT NOT NULL,
			status INTEGER NOT NULL,
			start_time ` + t.ts + ` NOT NULL,
			end_time ` + t.ts + `,
			duration INTEGER,
			reason TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_device_history_open ON device_operation_history(device, end_time)`,
		`CREATE TABLE IF NOT EXISTS device_current_status (
			device TEXT PRIMARY KEY,
			status INTEGER NOT NULL,
			since ` + t.ts + ` NOT NULL,
			updated_at ` + t.ts + ` NOT NULL
		)`,
	}
}

// Migrate creates the schema, renames legacy columns and seeds default rows.
// It is idempotent and runs once at startup.
func Migrate(ctx context.Context, db DB) error {
	types, ok := dialectTypes[db.Dialect()]
	if !ok {
		return fmt.Errorf("no schema for dialect %q", db.Dialect())
	}

	for _, stmt := range schemaStatements(types) {
		if _, err := db.GetDB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("error applying schema: %w", err)
		}
	}

	if err := NormalizeLegacyColumns(ctx, db); err != nil {
		return err
	}
	if err := NormalizeLegacyTimestamps(ctx, db); err != nil {
		return err
	}
	if err := enforceSingleOpenRecord(ctx, db); err != nil {
		return err
	}

	return seedDefaults(ctx, db, time.Now().UTC())
}

// NormalizeLegacyColumns renames sensor_data columns left over from older
// deployments so queries only ever use the current names.
func NormalizeLegacyColumns(ctx context.Context, db DB) error {
	columns, err := tableColumns(ctx, db, "sensor_data")
	if err != nil {
		return err
	}

	for _, rename := range legacyColumns {
		if !columns[rename.from] || columns[rename.to] {
			continue
		}
		nuts.L.Warnf("[Schema] Renaming sensor_data.%s to %s", rename.from, rename.to)
		if err := renameColumn(ctx, db, rename.from, rename.to); err != nil {
			return fmt.Errorf("error renaming column %s: %w", rename.from, err)
		}
		delete(columns, rename.from)
		columns[rename.to] = true
	}
	return nil
}

// legacyTimestampColumns lists every timestamp column written by older
// deployments, which stored ISO 8601 text with a 'T' separator.
var legacyTimestampColumns = []struct{ table, column string }{
	{"sensor_data", "timestamp"},
	{"control_history", "timestamp"},
	{"current_settings", "updated_at"},
	{"remembered_smart_controls", "updated_at"},
	{"alerts", "timestamp"},
	{"device_operation_history", "start_time"},
	{"device_operation_history", "end_time"},
	{"device_current_status", "since"},
	{"device_current_status", "updated_at"},
}

// NormalizeLegacyTimestamps rewrites 'T'-separated timestamps to the space
// separated form the driver writes, so text comparison and ordering agree
// across old and new rows. Postgres stores real timestamps and is skipped.
func NormalizeLegacyTimestamps(ctx context.Context, db DB) error {
	if db.Dialect() != DialectSQLite {
		return nil
	}

	for _, c := range legacyTimestampColumns {
		stmt := fmt.Sprintf(`UPDATE %s SET %s = replace(%s, 'T', ' ') WHERE %s LIKE '____-__-__T%%'`,
			c.table, c.column, c.column, c.column)
		result, err := db.GetDB().ExecContext(ctx, stmt)
		if err != nil {
			return fmt.Errorf("error normalizing %s.%s: %w", c.table, c.column, err)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			nuts.L.Warnf("[Schema] Normalized %d legacy timestamps in %s.%s", n, c.table, c.column)
		}
	}
	return nil
}

// enforceSingleOpenRecord closes all but the newest open record per device
// and then adds the unique index that keeps it that way.
func enforceSingleOpenRecord(ctx context.Context, db DB) error {
	result, err := db.GetDB().ExecContext(ctx, `
		UPDATE device_operation_history SET end_time = start_time, duration = 0
		WHERE end_time IS NULL AND id NOT IN (
			SELECT MAX(id) FROM device_operation_history WHERE end_time IS NULL GROUP BY device
		)`)
	if err != nil {
		return fmt.Errorf("error closing duplicate open records: %w", err)
	}
	if n, _ := result.RowsAffected(); n > 0 {
		nuts.L.Warnf("[Schema] Closed %d duplicate open operation records", n)
	}

	_, err = db.GetDB().ExecContext(ctx, `
		CREATE UNIQUE INDEX IF NOT EXISTS idx_device_history_one_open
		ON device_operation_history(device) WHERE end_time IS NULL`)
	if err != nil {
		return fmt.Errorf("error creating open record index: %w", err)
	}
	return nil
}

// renameColumn goes through a temporary name when only the case differs,
// since sqlite compares column names case-insensitively.
func renameColumn(ctx context.Context, db DB, from, to string) error {
	steps := [][2]string{{from, to}}
	if strings.EqualFold(from, to) {
		steps = [][2]string{{from, to + "_renamed"}, {to + "_renamed", to}}
	}
	for _, step := range steps {
		stmt := fmt.Sprintf(`ALTER TABLE sensor_data RENAME COLUMN "%s" TO "%s"`, step[0], step[1])
		if _, err := db.GetDB().ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func tableColumns(ctx context.Context, db DB, table string) (map[string]bool, error) {
	var query string
	switch db.Dialect() {
	case DialectSQLite:
		query = `SELECT name FROM pragma_table_info(?)`
	default:
		query = `SELECT column_name FROM information_schema.columns WHERE table_name = ?`
	}

	var names []string
	if err := db.GetDB().SelectContext(ctx, &names, db.GetDB().Rebind(query), table); err != nil {
		return nil, fmt.Errorf("error reading columns of %s: %w", table, err)
	}

	columns := make(map[string]bool, len(names))
	for _, name := range names {
		columns[name] = true
	}
	return columns, nil
}

func seedDefaults(ctx context.Context, db DB, now time.Time) error {
	x := db.GetDB()

	for _, pin := range models.DefaultPins() {
		_, err := x.ExecContext(ctx, x.Rebind(`
			INSERT INTO current_settings (pin, value, description, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (pin) DO NOTHING`),
			pin, models.DefaultSettings[pin], models.PinDescription(pin), now)
		if err != nil {
			return fmt.Errorf("error seeding setting %s: %w", pin, err)
		}
	}

	for _, pin := range models.DependentPins {
		_, err := x.ExecContext(ctx, x.Rebind(`
			INSERT INTO remembered_smart_controls (pin, value, updated_at)
			VALUES (?, 0, ?)
			ON CONFLICT (pin) DO NOTHING`),
			pin, now)
		if err != nil {
			return fmt.Errorf("error seeding remembered control %s: %w", pin, err)
		}
	}

	d := models.DefaultNotificationSettings()
	_, err := x.NamedExecContext(ctx, `
		INSERT INTO notification_settings (
			id, min_temp, max_temp, min_humid, max_humid, min_press, max_press,
			cold_alert, heat_alert, dry_alert, humid_alert, low_press_alert, high_press_alert
		) VALUES (
			1, :min_temp, :max_temp, :min_humid, :max_humid, :min_press, :max_press,
			:cold_alert, :heat_alert, :dry_alert, :humid_alert, :low_press_alert, :high_press_alert
		) ON CONFLICT (id) DO NOTHING`, d)
	if err != nil {
		return fmt.Errorf("error seeding notification settings: %w", err)
	}
	return nil
}
