package telemetry_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/varden/envsensord/internal/sensor"
	"codeberg.org/varden/envsensord/internal/telemetry"
)

func testConfig(t *testing.T) telemetry.Config {
	t.Helper()

	return telemetry.Config{
		Enabled: true,
		DBPath:  filepath.Join(t.TempDir(), "readings.db"),
	}
}

func TestRecordAndReadBack(t *testing.T) {
	cfg := testConfig(t)

	svc, err := telemetry.NewService(cfg)
	require.NoError(t, err)
	defer svc.Close()

	snapshot := &telemetry.Snapshot{
		Timestamp: time.Unix(1700000000, 0),
		Sensor:    "YosemitechY511",
		Status:    0x07,
		Readings: []telemetry.Reading{
			{Variable: "Turbidity", Unit: "NTU", Value: 12.5, Valid: true},
			{Variable: "WaterTemp", Unit: "degC", Value: sensor.NoValue, Valid: false},
		},
	}

	require.NoError(t, svc.Record(context.Background(), snapshot))

	db, err := sql.Open("sqlite3", cfg.DBPath)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM readings`).Scan(&count))
	assert.Equal(t, 2, count)

	var value sql.NullFloat64
	require.NoError(t, db.QueryRow(
		`SELECT value FROM readings WHERE variable = 'Turbidity'`).Scan(&value))
	require.True(t, value.Valid)
	assert.InDelta(t, 12.5, value.Float64, 1e-9)

	require.NoError(t, db.QueryRow(
		`SELECT value FROM readings WHERE variable = 'WaterTemp'`).Scan(&value))
	assert.False(t, value.Valid, "sentinel readings are stored as NULL")
}

func TestRecordRejectsInvalidSnapshot(t *testing.T) {
	svc, err := telemetry.NewService(testConfig(t))
	require.NoError(t, err)
	defer svc.Close()

	require.Error(t, svc.Record(context.Background(), nil))
	require.Error(t, svc.Record(context.Background(), &telemetry.Snapshot{}))
}

func TestDisabledUsesNoop(t *testing.T) {
	svc, err := telemetry.NewService(telemetry.Config{Enabled: false})
	require.NoError(t, err)

	require.NoError(t, svc.Record(context.Background(), &telemetry.Snapshot{Sensor: "x"}))
	require.NoError(t, svc.Close())
}

func TestValidateRequiresPathWhenEnabled(t *testing.T) {
	cfg := telemetry.Config{Enabled: true}
	require.Error(t, cfg.Validate())

	cfg = telemetry.DefaultConfig()
	require.NoError(t, cfg.Validate())
}

type constDriver struct {
	sensor.BaseDriver
	value float64
}

func (d *constDriver) CollectResults(rec sensor.Recorder) error {
	rec.RecordIfValid(0, d.value)
	return nil
}

func TestSnapshotFrom(t *testing.T) {
	s, err := sensor.New(sensor.Spec{Name: "test", NumVars: 1}, &constDriver{value: 3.0})
	require.NoError(t, err)

	v := sensor.NewVariable("turbidity", "NTU", "Turbidity", 2)
	require.NoError(t, s.RegisterVariable(0, v))
	require.NoError(t, s.Setup())
	require.NoError(t, s.Update())

	snapshot := telemetry.SnapshotFrom(s, []*sensor.Variable{v})

	assert.Equal(t, "test", snapshot.Sensor)
	require.Len(t, snapshot.Readings, 1)
	assert.Equal(t, "Turbidity", snapshot.Readings[0].Variable)
	assert.True(t, snapshot.Readings[0].Valid)
	assert.InDelta(t, 3.0, snapshot.Readings[0].Value, 1e-9)
}
