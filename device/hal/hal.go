package hal

// MaxEndpoints is the number of hardware endpoints, including the control
// endpoint at number 0.
const MaxEndpoints = 5

// HardwareIDSize is the length in bytes of the per-chip unique identifier
// exposed by [Controller.HardwareID].
const HardwareIDSize = 10

// SizeClass encodes an endpoint's maximum packet size as one of the four
// bank sizes supported by the hardware.
type SizeClass uint8

// Endpoint bank size classes.
const (
	Size8  SizeClass = iota // 8 bytes
	Size16                  // 16 bytes
	Size32                  // 32 bytes
	Size64                  // 64 bytes
)

// Bytes returns the packet size in bytes for the class.
func (s SizeClass) Bytes() int {
	return 8 << s
}

// SizeClassFor returns the smallest class whose bank holds size bytes.
// Sizes above 32 map to [Size64].
func SizeClassFor(size int) SizeClass {
	switch {
	case size <= 8:
		return Size8
	case size <= 16:
		return Size16
	case size <= 32:
		return Size32
	default:
		return Size64
	}
}

// Endpoint transfer types, matching bmAttributes bits 0-1
// (USB 2.0 Spec Table 9-13).
const (
	EndpointTypeControl     = 0x00
	EndpointTypeIsochronous = 0x01
	EndpointTypeBulk        = 0x02
	EndpointTypeInterrupt   = 0x03
)

// EndpointConfig describes how to activate the currently selected endpoint.
type EndpointConfig struct {
	Type uint8     // Transfer type (bmAttributes bits 0-1)
	In   bool      // true for device-to-host endpoints
	Size SizeClass // Bank size class
}

// Controller is the register-level contract between the usbd device core and
// a USB peripheral. All flag predicates, acknowledge methods, and FIFO
// accessors act on the endpoint chosen by SelectEndpoint.
//
// Implementations need not be safe for concurrent use beyond what real
// registers provide: the core serializes access except for the bus-reset
// condition, which may be observed from an asynchronous handler while the
// polling task runs. ResetPending and AckReset must therefore tolerate
// concurrent calls with the other methods.
type Controller interface {
	// Enable powers up the USB peripheral and its clocking. It must not
	// attach to the bus.
	Enable() error

	// Attach connects the device to the bus, making it visible to the host.
	Attach()

	// ResetPending reports whether an unacknowledged bus reset has occurred.
	ResetPending() bool

	// AckReset acknowledges the bus-reset condition.
	AckReset()

	// SetAddress loads the bus address into hardware without enabling it.
	SetAddress(addr uint8)

	// EnableAddress turns on recognition of the previously loaded address.
	EnableAddress()

	// SelectEndpoint chooses the endpoint the remaining methods act on.
	SelectEndpoint(num uint8)

	// EnableEndpoint activates the selected endpoint with the given
	// configuration, allocating its bank and clearing its flags.
	EnableEndpoint(cfg EndpointConfig)

	// ResetEndpoint resets the data toggle and FIFO banks of the given
	// endpoint without touching its configuration.
	ResetEndpoint(num uint8)

	// EndpointIsIn reports whether the selected endpoint is configured
	// device-to-host.
	EndpointIsIn() bool

	// EndpointSize returns the configured packet size in bytes of the
	// selected endpoint.
	EndpointSize() int

	// SetupPending reports whether a setup packet has been received on the
	// selected endpoint and not yet acknowledged.
	SetupPending() bool

	// AckSetup acknowledges the received setup packet.
	AckSetup()

	// InReady reports whether the IN bank of the selected endpoint is free
	// to accept data for the host.
	InReady() bool

	// FlushIn commits the bytes written to the IN bank for transmission.
	// Flushing an empty bank transmits a zero-length packet.
	FlushIn()

	// OutReceived reports whether an OUT packet is waiting in the selected
	// endpoint's bank.
	OutReceived() bool

	// AckOut releases the received OUT bank back to the hardware.
	AckOut()

	// NAKOut reports whether the host sent an OUT token while the endpoint
	// was not expecting one. During a control read this signals that the
	// host has moved on to the status stage.
	NAKOut() bool

	// AckNAKOut clears the NAK-out condition.
	AckNAKOut()

	// NAKIn reports whether the host sent an IN token while the endpoint
	// was not expecting one. During a control write this signals that the
	// host has moved on to the status stage.
	NAKIn() bool

	// AckNAKIn clears the NAK-in condition.
	AckNAKIn()

	// Stall requests a stall handshake on the selected endpoint.
	Stall()

	// Stalled reports whether a stall is requested on the selected endpoint.
	Stalled() bool

	// FIFOReady reports whether the selected endpoint's bank can transfer
	// another byte: writable space for IN endpoints, unread data for OUT.
	FIFOReady() bool

	// ByteCount returns the number of bytes in the received OUT bank of the
	// selected endpoint.
	ByteCount() int

	// ReadByte pops one byte from the selected endpoint's FIFO.
	ReadByte() byte

	// WriteByte pushes one byte into the selected endpoint's FIFO.
	WriteByte(b byte)

	// ReadFlash reads buf[off] through the code/constant store access path.
	// Ports with a unified address space index the slice directly.
	ReadFlash(buf []byte, off int) byte

	// HardwareID returns the per-chip unique identifier used to synthesize
	// the internal serial number descriptor.
	HardwareID() [HardwareIDSize]byte
}
