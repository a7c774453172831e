package sensor

import "strings"

// Status is the 8-bit lifecycle code for a single sensor. It mirrors the
// status byte reported by field dataloggers:
//
//	bit 0 - setup has completed successfully
//	bit 1 - an attempt was made to power the sensor
//	bit 2 - the power attempt succeeded
//	bit 3 - an attempt was made to wake the sensor
//	bit 4 - the wake attempt succeeded
//	bit 5 - a measurement was requested
//	bit 6 - the measurement request succeeded
//	bit 7 - an error occurred at some point in the lifecycle
//
// A "succeeded" bit is only ever set while its "attempted" bit is set.
// Mutation happens exclusively through the guarded transition methods below,
// all of which are driven by the update cycle.
type Status uint8

const (
	StatusSetupComplete Status = 1 << iota
	StatusPowerAttempted
	StatusPowerSuccess
	StatusWakeAttempted
	StatusWakeSuccess
	StatusMeasureRequested
	StatusMeasureSuccess
	StatusError
)

func (s Status) has(bit Status) bool {
	return s&bit != 0
}

// SetupComplete reports whether the sensor finished its one-time setup.
func (s Status) SetupComplete() bool {
	return s.has(StatusSetupComplete)
}

// PoweredOn reports whether the last power attempt succeeded.
func (s Status) PoweredOn() bool {
	return s.has(StatusPowerSuccess)
}

// Awake reports whether the last wake attempt succeeded.
func (s Status) Awake() bool {
	return s.has(StatusWakeSuccess)
}

// MeasurementRequested reports whether a measurement request is pending.
func (s Status) MeasurementRequested() bool {
	return s.has(StatusMeasureRequested)
}

// MeasurementStarted reports whether the pending measurement request
// succeeded.
func (s Status) MeasurementStarted() bool {
	return s.has(StatusMeasureSuccess)
}

// HasError reports whether the sticky error bit is set.
func (s Status) HasError() bool {
	return s.has(StatusError)
}

func (s *Status) markSetup() {
	*s |= StatusSetupComplete
}

func (s *Status) markPowerAttempt() {
	*s |= StatusPowerAttempted
}

// markPowerSuccess is a no-op unless a power attempt was recorded first.
func (s *Status) markPowerSuccess() {
	if s.has(StatusPowerAttempted) {
		*s |= StatusPowerSuccess
	}
}

func (s *Status) markWakeAttempt() {
	*s |= StatusWakeAttempted
}

// markWakeSuccess is a no-op unless a wake attempt was recorded first.
func (s *Status) markWakeSuccess() {
	if s.has(StatusWakeAttempted) {
		*s |= StatusWakeSuccess
	}
}

// markMeasureRequest records a new measurement request. Any completion bit
// from a previous iteration is cleared at the same time.
func (s *Status) markMeasureRequest() {
	*s |= StatusMeasureRequested
	*s &^= StatusMeasureSuccess
}

// markMeasureSuccess is a no-op unless a measurement request is pending.
func (s *Status) markMeasureSuccess() {
	if s.has(StatusMeasureRequested) {
		*s |= StatusMeasureSuccess
	}
}

// clearMeasurement unsets the measurement request and completion bits once
// results have been collected.
func (s *Status) clearMeasurement() {
	*s &^= StatusMeasureRequested | StatusMeasureSuccess
}

// clearWake unsets the wake and measurement bits on sleep. Lower bits stay
// untouched: the sensor may still be powered.
func (s *Status) clearWake() {
	*s &^= StatusWakeAttempted | StatusWakeSuccess | StatusMeasureRequested | StatusMeasureSuccess
}

// clearPower unsets everything between power and measurement on power-down.
// Setup and error state survive.
func (s *Status) clearPower() {
	*s &^= StatusPowerAttempted | StatusPowerSuccess |
		StatusWakeAttempted | StatusWakeSuccess |
		StatusMeasureRequested | StatusMeasureSuccess
}

func (s *Status) markError() {
	*s |= StatusError
}

func (s *Status) clearError() {
	*s &^= StatusError
}

func (s Status) String() string {
	if s == 0 {
		return "uninitialized"
	}

	names := []struct {
		bit  Status
		name string
	}{
		{StatusSetupComplete, "setup"},
		{StatusPowerAttempted, "power-attempted"},
		{StatusPowerSuccess, "powered"},
		{StatusWakeAttempted, "wake-attempted"},
		{StatusWakeSuccess, "awake"},
		{StatusMeasureRequested, "measurement-requested"},
		{StatusMeasureSuccess, "measuring"},
		{StatusError, "error"},
	}

	var parts []string
	for _, n := range names {
		if s.has(n.bit) {
			parts = append(parts, n.name)
		}
	}

	return strings.Join(parts, "|")
}
