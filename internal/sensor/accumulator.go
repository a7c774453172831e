package sensor

import "math"

// NoValue is the sentinel reported when a sensor could not produce a valid
// reading. It is the conventional datalogger fill value and must never be
// mistaken for a legitimate zero. The same sentinel covers both "no signal"
// and "bad response" - the underlying hardware protocols cannot tell the two
// apart, so neither does this layer.
const NoValue = -9999.0

// MaxToAverage is the most measurement iterations a single update cycle can
// run. Inherited from the single-byte averaging count of the datalogger
// firmware this engine mirrors; specs asking for more are clamped.
const MaxToAverage = 255

// accumulator keeps the per-slot running sums and valid-sample counts for one
// averaging cycle.
type accumulator struct {
	sums   [MaxVars]float64
	counts [MaxVars]uint16
}

// clear resets all sums and counts. Called at the start of every update
// cycle; clearing an already-clear accumulator is a no-op.
func (a *accumulator) clear() {
	*a = accumulator{}
}

// recordIfValid adds value to the slot's running sum and bumps its valid
// count. Sentinel and NaN inputs are silently dropped so that failed
// individual readings are excluded from the final average without corrupting
// it. Reports whether the value was accepted.
func (a *accumulator) recordIfValid(slot int, value float64) bool {
	if slot < 0 || slot >= MaxVars {
		return false
	}
	if value == NoValue || math.IsNaN(value) {
		return false
	}

	a.sums[slot] += value
	a.counts[slot]++

	return true
}

// finalize writes the per-slot average of the valid contributions into dst.
// A slot with no valid contributions finalizes to the sentinel - never a
// division by zero, and a partial cycle still averages over whatever
// succeeded.
func (a *accumulator) finalize(dst []float64) {
	for i := range dst {
		if a.counts[i] > 0 {
			dst[i] = a.sums[i] / float64(a.counts[i])
		} else {
			dst[i] = NoValue
		}
	}
}
