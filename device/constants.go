package device

import "fmt"

// State represents the device's enumeration state (USB 2.0 section 9.1).
// Only the states this core can occupy are modeled: the device is powered
// by definition once the stack runs, and suspend is out of scope.
type State uint8

// Device states. A bus reset forces StateDefault; SET_ADDRESS and
// SET_CONFIGURATION advance the state forward.
const (
	StateDefault    State = iota // Reset received, default address in use
	StateAddressed               // Unique bus address assigned
	StateConfigured              // Configuration selected, endpoints active
)

// String returns a human-readable state description.
func (s State) String() string {
	switch s {
	case StateDefault:
		return "Default"
	case StateAddressed:
		return "Addressed"
	case StateConfigured:
		return "Configured"
	default:
		return fmt.Sprintf("Unknown State (%d)", s)
	}
}

// StringIndexInternalSerial is the reserved string descriptor index that
// resolves to the serial number synthesized from the chip's hardware
// identifier, following the de-facto convention of AVR USB devices.
const StringIndexInternalSerial = 0xDC
