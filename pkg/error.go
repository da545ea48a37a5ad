package pkg

import "errors"

// Errors reported by the usbd stack and hardware models.
var (
	// ErrAlreadyRunning indicates the stack or controller was already
	// brought up.
	ErrAlreadyRunning = errors.New("already running")

	// ErrNotRunning indicates the controller has not been enabled.
	ErrNotRunning = errors.New("not running")

	// ErrInvalidEndpoint indicates an endpoint number outside the
	// hardware's range.
	ErrInvalidEndpoint = errors.New("invalid endpoint")

	// ErrInvalidParameter indicates an invalid parameter was provided.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrSetupPacketTooShort indicates the setup packet data is too short.
	ErrSetupPacketTooShort = errors.New("setup packet too short")
)
