package sensor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccumulatorAveragesValidOnly(t *testing.T) {
	var acc accumulator

	assert.True(t, acc.recordIfValid(0, 10.0))
	assert.False(t, acc.recordIfValid(0, NoValue), "sentinel must be dropped")
	assert.True(t, acc.recordIfValid(0, 20.0))

	dst := make([]float64, 1)
	acc.finalize(dst)

	assert.InDelta(t, 15.0, dst[0], 1e-9)
	assert.EqualValues(t, 2, acc.counts[0])
}

func TestAccumulatorAllSentinel(t *testing.T) {
	var acc accumulator

	for i := 0; i < 3; i++ {
		acc.recordIfValid(0, NoValue)
	}

	dst := make([]float64, 1)
	acc.finalize(dst)

	assert.Equal(t, float64(NoValue), dst[0])
}

func TestAccumulatorLegitimateZero(t *testing.T) {
	var acc accumulator

	assert.True(t, acc.recordIfValid(0, 0.0), "a zero reading is valid data")

	dst := make([]float64, 1)
	acc.finalize(dst)

	assert.Equal(t, 0.0, dst[0])
}

func TestAccumulatorDropsNaN(t *testing.T) {
	var acc accumulator

	assert.False(t, acc.recordIfValid(0, math.NaN()))
	acc.recordIfValid(0, 4.0)

	dst := make([]float64, 1)
	acc.finalize(dst)

	assert.Equal(t, 4.0, dst[0])
}

func TestAccumulatorRejectsBadSlot(t *testing.T) {
	var acc accumulator

	assert.False(t, acc.recordIfValid(-1, 1.0))
	assert.False(t, acc.recordIfValid(MaxVars, 1.0))
}

func TestAccumulatorFullCycleAtMaxToAverage(t *testing.T) {
	var acc accumulator

	for i := 0; i < MaxToAverage+1; i++ {
		assert.True(t, acc.recordIfValid(0, 10.0))
	}

	dst := make([]float64, 1)
	acc.finalize(dst)

	assert.InDelta(t, 10.0, dst[0], 1e-9,
		"a full count of valid readings must never finalize to the sentinel")
	assert.EqualValues(t, MaxToAverage+1, acc.counts[0])
}

func TestAccumulatorClearIdempotent(t *testing.T) {
	var fresh accumulator

	var acc accumulator
	acc.recordIfValid(0, 12.5)
	acc.recordIfValid(3, 7.0)

	acc.clear()
	acc.clear()

	assert.Equal(t, fresh, acc, "double clear must equal a fresh accumulator")
}

func TestAccumulatorIndependentSlots(t *testing.T) {
	var acc accumulator

	acc.recordIfValid(0, 2.0)
	acc.recordIfValid(0, 4.0)
	acc.recordIfValid(1, 100.0)
	acc.recordIfValid(2, NoValue)

	dst := make([]float64, 4)
	acc.finalize(dst)

	assert.Equal(t, 3.0, dst[0])
	assert.Equal(t, 100.0, dst[1])
	assert.Equal(t, float64(NoValue), dst[2])
	assert.Equal(t, float64(NoValue), dst[3], "untouched slot finalizes to sentinel")
}
