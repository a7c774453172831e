package telemetry

import (
	"database/sql"

	"codeberg.org/varden/envsensord/internal/errors"
)

// initSchema initializes the database schema for the readings store. A NULL
// value column means the cycle finalized to the no-data sentinel.
func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS readings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            timestamp INTEGER NOT NULL,
            sensor TEXT NOT NULL,
            variable TEXT NOT NULL,
            unit TEXT,
            value REAL,
            status INTEGER NOT NULL
        );
        CREATE INDEX IF NOT EXISTS idx_readings_timestamp
            ON readings(timestamp);
        CREATE INDEX IF NOT EXISTS idx_readings_sensor_variable
            ON readings(sensor, variable)
    `)
	if err != nil {
		return errors.New().Wrap(ErrSchemaInit, err)
	}

	return nil
}
