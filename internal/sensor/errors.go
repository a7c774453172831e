package sensor

import "codeberg.org/varden/envsensord/internal/errors"

const (
	// Configuration errors
	ErrInvalidSpec    = errors.ErrorCode("sensor_invalid_spec")
	ErrSlotOutOfRange = errors.ErrorCode("sensor_slot_out_of_range")

	// Lifecycle errors
	ErrNotSetup      = errors.ErrorCode("sensor_not_setup")
	ErrSetupFailed   = errors.ErrorCode("sensor_setup_failed")
	ErrWakeFailed    = errors.ErrorCode("sensor_wake_failed")
	ErrSleepFailed   = errors.ErrorCode("sensor_sleep_failed")
	ErrMeasureFailed = errors.ErrorCode("sensor_measurement_failed")
	ErrCollectFailed = errors.ErrorCode("sensor_collect_failed")
)
