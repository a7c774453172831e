package devices

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/varden/envsensord/internal/sensor"
)

func TestAltitudeFromPressure(t *testing.T) {
	assert.InDelta(t, 0.0, altitudeFromPressure(seaLevelPressureHPa), 0.01)

	// ~110m for 1000 hPa under the standard atmosphere.
	assert.InDelta(t, 110.9, altitudeFromPressure(1000.0), 1.0)

	assert.Equal(t, float64(sensor.NoValue), altitudeFromPressure(0))
	assert.Equal(t, float64(sensor.NoValue), altitudeFromPressure(-5))
}

func TestBME280CollectWithoutSetup(t *testing.T) {
	b := NewBME280("", 0)
	rec := newRecorderStub()

	require.Error(t, b.CollectResults(rec))

	assert.Empty(t, rec.values)
	assert.Equal(t, 1, rec.calls[BME280TempSlot], "all slots reported as sentinel")
	assert.Equal(t, 1, rec.calls[BME280AltitudeSlot])
}

func TestBME280Defaults(t *testing.T) {
	b := NewBME280("", 0)
	assert.EqualValues(t, DefaultBME280Addr, b.addr)

	spec := BME280Spec(1)
	assert.Equal(t, BME280NumVars, spec.NumVars)
	assert.True(t, spec.StaysPowered)
}

func TestBME280CloseIdempotent(t *testing.T) {
	b := NewBME280("", 0)

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
}
