// Package devices holds the instrument-specific drivers behind the lifecycle
// engine in internal/sensor. Each driver embeds sensor.BaseDriver for the
// hooks it does not need and publishes its datasheet constants through a
// Spec helper.
package devices

import (
	"os"
	"runtime"
	"strconv"
	"strings"

	"codeberg.org/varden/envsensord/internal/sensor"
)

// Result slots and datasheet constants for the controller diagnostics
// pseudo-sensor. The controller is awake whenever we are running, so every
// timing window is zero.
const (
	ProcessorNumVars = 3

	ProcessorBatterySlot   = 0
	ProcessorFreeRAMSlot   = 1
	ProcessorSampleNumSlot = 2

	defaultBatteryPath = "/sys/class/power_supply/BAT0/voltage_now"
	microvoltsPerVolt  = 1e6
)

// ProcessorStats reports diagnostics of the station controller itself:
// supply voltage, free memory and a running sample number. No hardware
// lifecycle is involved; only CollectResults does real work.
type ProcessorStats struct {
	sensor.BaseDriver

	batteryPath string
	sampleNum   int
}

// ProcessorOption configures a ProcessorStats driver.
type ProcessorOption func(*ProcessorStats)

// WithBatteryPath points the driver at a different sysfs voltage file.
func WithBatteryPath(path string) ProcessorOption {
	return func(p *ProcessorStats) {
		p.batteryPath = path
	}
}

// NewProcessorStats creates the controller diagnostics driver.
func NewProcessorStats(opts ...ProcessorOption) *ProcessorStats {
	p := &ProcessorStats{
		batteryPath: defaultBatteryPath,
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// ProcessorSpec returns the sensor spec for the diagnostics pseudo-sensor.
func ProcessorSpec(measurementsToAverage int) sensor.Spec {
	return sensor.Spec{
		Name:                  "ProcessorStats",
		NumVars:               ProcessorNumVars,
		MeasurementsToAverage: measurementsToAverage,
		StaysPowered:          true,
	}
}

// CollectResults reads the current diagnostics. A missing or unreadable
// battery supply reports the sentinel rather than failing the cycle: not
// every deployment exposes a battery.
func (p *ProcessorStats) CollectResults(rec sensor.Recorder) error {
	rec.RecordIfValid(ProcessorBatterySlot, p.batteryVoltage())

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	rec.RecordIfValid(ProcessorFreeRAMSlot, float64(ms.HeapSys-ms.HeapInuse))

	p.sampleNum++
	rec.RecordIfValid(ProcessorSampleNumSlot, float64(p.sampleNum))

	return nil
}

func (p *ProcessorStats) batteryVoltage() float64 {
	raw, err := os.ReadFile(p.batteryPath)
	if err != nil {
		return sensor.NoValue
	}

	microvolts, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		return sensor.NoValue
	}

	return microvolts / microvoltsPerVolt
}
