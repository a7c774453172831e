package devices

import "codeberg.org/varden/envsensord/internal/errors"

const (
	// Configuration errors
	ErrInvalidPort    = errors.ErrorCode("device_invalid_serial_port")
	ErrInvalidAddress = errors.ErrorCode("device_invalid_address")

	// Communication errors
	ErrConnectFailed  = errors.ErrorCode("device_connect_failed")
	ErrCommandFailed  = errors.ErrorCode("device_command_failed")
	ErrShortResponse  = errors.ErrorCode("device_short_response")
	ErrNotInitialized = errors.ErrorCode("device_not_initialized")
)
