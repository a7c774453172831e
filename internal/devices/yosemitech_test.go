package devices

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/varden/envsensord/internal/errors"
	"codeberg.org/varden/envsensord/internal/sensor"
)

type fakeModbus struct {
	registers map[uint16]uint16
	data      []byte
	readErr   error
	writeErr  error

	failWrites int // fail this many writes before succeeding
	writes     []uint16
}

func (f *fakeModbus) ReadHoldingRegisters(address, quantity uint16) ([]byte, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}

	return f.data, nil
}

func (f *fakeModbus) WriteSingleRegister(address, value uint16) ([]byte, error) {
	if f.failWrites > 0 {
		f.failWrites--
		return nil, errors.New().New(errors.ErrOperationFailed)
	}
	if f.writeErr != nil {
		return nil, f.writeErr
	}

	f.writes = append(f.writes, address)
	if f.registers == nil {
		f.registers = make(map[uint16]uint16)
	}
	f.registers[address] = value

	return nil, nil
}

func encodeFloats(values ...float32) []byte {
	out := make([]byte, 0, len(values)*4)
	for _, v := range values {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], math.Float32bits(v))
		out = append(out, b[:]...)
	}

	return out
}

func newFakeY511(t *testing.T, mb *fakeModbus) *Yosemitech {
	t.Helper()

	y, err := NewYosemitech(Y511, "/dev/ttyUSB0", 9600, 0x01)
	require.NoError(t, err)
	y.client = mb

	return y
}

func TestYosemitechConstructorValidation(t *testing.T) {
	_, err := NewYosemitech(Y511, "", 9600, 0x01)
	require.Error(t, err, "missing port")

	_, err = NewYosemitech(Y511, "/dev/ttyUSB0", 9600, 0)
	require.Error(t, err, "address zero")
}

func TestYosemitechWakeStartsMeasurementAndBrush(t *testing.T) {
	mb := &fakeModbus{}
	y := newFakeY511(t, mb)

	require.NoError(t, y.Wake())

	assert.Equal(t, cmdStartMeasurement, mb.registers[regMeasurementCtl])
	assert.Equal(t, cmdActivateBrush, mb.registers[regBrushCtl], "Y511 carries a wiper")
}

func TestYosemitechWakeRetries(t *testing.T) {
	mb := &fakeModbus{failWrites: yosemitechCmdRetries - 1}
	y := newFakeY511(t, mb)

	require.NoError(t, y.Wake(), "last retry succeeds")

	mb = &fakeModbus{failWrites: yosemitechCmdRetries}
	y = newFakeY511(t, mb)
	require.Error(t, y.Wake(), "all retries exhausted")
}

func TestYosemitechNoBrushOnY520(t *testing.T) {
	mb := &fakeModbus{}
	y, err := NewYosemitech(Y520, "/dev/ttyUSB0", 9600, 0x01)
	require.NoError(t, err)
	y.client = mb

	require.NoError(t, y.Wake())

	_, brushed := mb.registers[regBrushCtl]
	assert.False(t, brushed)
}

func TestYosemitechCollectDecodesFloats(t *testing.T) {
	mb := &fakeModbus{data: encodeFloats(12.5, 21.25)}
	y := newFakeY511(t, mb)

	rec := newRecorderStub()
	require.NoError(t, y.CollectResults(rec))

	assert.InDelta(t, 12.5, rec.values[0], 1e-6)
	assert.InDelta(t, 21.25, rec.values[1], 1e-6)
}

func TestYosemitechCollectNaNBecomesSentinel(t *testing.T) {
	mb := &fakeModbus{data: encodeFloats(float32(math.NaN()), 18.0)}
	y := newFakeY511(t, mb)

	rec := newRecorderStub()
	require.NoError(t, y.CollectResults(rec))

	_, ok := rec.values[0]
	assert.False(t, ok, "NaN reading must not be recorded")
	assert.InDelta(t, 18.0, rec.values[1], 1e-6)
	assert.Equal(t, 1, rec.calls[0], "failed slot is still reported")
}

func TestYosemitechCollectShortResponse(t *testing.T) {
	mb := &fakeModbus{data: []byte{0x01, 0x02}}
	y := newFakeY511(t, mb)

	rec := newRecorderStub()
	require.Error(t, y.CollectResults(rec))

	assert.Empty(t, rec.values)
	assert.Equal(t, 1, rec.calls[0])
	assert.Equal(t, 1, rec.calls[1])
}

func TestYosemitechY520UnitConversion(t *testing.T) {
	mb := &fakeModbus{data: encodeFloats(1.5, 20.0, 0.7)}
	y, err := NewYosemitech(Y520, "/dev/ttyUSB0", 9600, 0x01)
	require.NoError(t, err)
	y.client = mb

	rec := newRecorderStub()
	require.NoError(t, y.CollectResults(rec))

	assert.InDelta(t, 1500.0, rec.values[0], 1e-3, "mS/cm converted to uS/cm")
	assert.InDelta(t, 20.0, rec.values[1], 1e-6, "temperature untouched")
}

func TestYosemitechSleepStopsMeasurement(t *testing.T) {
	mb := &fakeModbus{}
	y := newFakeY511(t, mb)

	require.NoError(t, y.Sleep(), "sleeping while idle is a no-op")
	assert.Empty(t, mb.writes)

	require.NoError(t, y.Wake())
	mb.writes = nil

	require.NoError(t, y.Sleep())
	assert.Equal(t, cmdStopMeasurement, mb.registers[regMeasurementCtl])
}

func TestYosemitechSpecTimings(t *testing.T) {
	y, err := NewYosemitech(Y511, "/dev/ttyUSB0", 9600, 0x01)
	require.NoError(t, err)

	spec := y.Spec(5)
	assert.Equal(t, 2, spec.NumVars)
	assert.Equal(t, 500, int(spec.WarmUp.Milliseconds()))
	assert.Equal(t, 22000, int(spec.Stabilization.Milliseconds()))
	assert.Equal(t, 1700, int(spec.Measurement.Milliseconds()))
	assert.Equal(t, 5, spec.MeasurementsToAverage)
}

func TestYosemitechWithoutSetupFails(t *testing.T) {
	y, err := NewYosemitech(Y511, "/dev/ttyUSB0", 9600, 0x01)
	require.NoError(t, err)

	require.Error(t, y.Wake())

	rec := newRecorderStub()
	require.Error(t, y.CollectResults(rec))
	assert.Equal(t, 1, rec.calls[0], "sentinels still reported")
}

var _ sensor.Driver = (*Yosemitech)(nil)
var _ sensor.Driver = (*ProcessorStats)(nil)
var _ sensor.Driver = (*BME280)(nil)
