package device

import (
	"sync"

	"github.com/tinystack/usbd/device/hal"
	"github.com/tinystack/usbd/pkg"
)

// Stack is the device-side protocol core. It owns endpoint 0 and pumps the
// application endpoints; everything device-specific comes from the Driver.
//
// After Init, exactly two methods run the device: HandleReset from the
// bus-reset event and Task from the main loop. Both may touch the shared
// enumeration state, so it sits behind a mutex.
type Stack struct {
	ctrl   hal.Controller
	driver Driver

	mu      sync.Mutex
	state   State
	config  uint8
	epmax   uint8
	ep0size int

	initialized bool

	req    SetupPacket
	serial [SerialDescriptorSize]byte
}

// NewStack creates a protocol core bound to a controller and a driver.
// Call Init before use.
func NewStack(ctrl hal.Controller, driver Driver) *Stack {
	return &Stack{ctrl: ctrl, driver: driver}
}

// Init powers up the controller, synthesizes the internal serial number
// from the hardware identifier, and attaches to the bus. The host responds
// with a bus reset, so enumeration begins at the next HandleReset.
func (s *Stack) Init() error {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return pkg.ErrAlreadyRunning
	}
	s.initialized = true
	s.mu.Unlock()

	serialDescriptor(&s.serial, s.ctrl.HardwareID())

	if err := s.ctrl.Enable(); err != nil {
		return err
	}
	s.ctrl.Attach()

	pkg.LogInfo(pkg.ComponentStack, "device attached")
	return nil
}

// HandleReset services a pending bus reset: endpoint 0 is brought up as a
// control endpoint sized from the device descriptor's bMaxPacketSize0 and
// the enumeration state returns to Default. A no-op when no reset is
// pending, so it is safe to call unconditionally.
//
// Bind this to the controller's bus-reset event. It may run concurrently
// with Task.
func (s *Stack) HandleReset() {
	c := s.ctrl
	if !c.ResetPending() {
		return
	}
	c.AckReset()

	desc := s.driver.DeviceDescriptor()
	if desc.IsZero() {
		pkg.LogWarn(pkg.ComponentStack, "reset with no device descriptor")
		return
	}
	size := int(desc.at(c, deviceDescMaxPacketSize0Offset))
	class := hal.SizeClassFor(size)

	c.SelectEndpoint(0)
	c.EnableEndpoint(hal.EndpointConfig{
		Type: hal.EndpointTypeControl,
		In:   false,
		Size: class,
	})

	s.mu.Lock()
	s.state = StateDefault
	s.config = 0
	s.epmax = 0
	s.ep0size = class.Bytes()
	s.mu.Unlock()

	pkg.LogInfo(pkg.ComponentStack, "bus reset", "ep0_size", class.Bytes())
}

// ConfigureEndpoint activates one application endpoint from its marshaled
// endpoint descriptor. Endpoints must be activated in ascending number
// order starting at 1; descriptors arriving out of order are ignored, which
// keeps the underlying FIFO allocation contiguous.
//
// Intended to be called from the Driver's ConfigureEndpoints callback.
func (s *Stack) ConfigureEndpoint(desc Buffer) {
	if desc.IsZero() || desc.Len() < EndpointDescriptorSize {
		return
	}
	c := s.ctrl

	addr := desc.at(c, endpointDescAddressOffset)
	num := addr & 0x0F

	s.mu.Lock()
	if num != s.epmax+1 {
		s.mu.Unlock()
		pkg.LogDebug(pkg.ComponentEndpoint, "endpoint out of order", "endpoint", num)
		return
	}
	s.epmax = num
	s.mu.Unlock()

	attr := desc.at(c, endpointDescAttributesOffset)
	size := int(desc.at(c, endpointDescMaxPacketSizeOffset)) |
		int(desc.at(c, endpointDescMaxPacketSizeOffset+1))<<8

	c.SelectEndpoint(num)
	c.EnableEndpoint(hal.EndpointConfig{
		Type: attr & 0x03,
		In:   addr&0x80 != 0,
		Size: hal.SizeClassFor(size),
	})
	c.ResetEndpoint(num)
	c.SelectEndpoint(0)

	pkg.LogDebug(pkg.ComponentEndpoint, "endpoint configured",
		"endpoint", num, "in", addr&0x80 != 0, "size", size)
}

// Task runs one iteration of the device: it services a pending setup packet
// on endpoint 0 and then moves at most one packet per active application
// endpoint, IN endpoints refilled byte by byte from the driver and OUT
// endpoints drained byte by byte into it.
//
// Call it forever from the main loop. With nothing pending it touches only
// readiness flags and returns.
func (s *Stack) Task() {
	c := s.ctrl

	c.SelectEndpoint(0)
	if c.SetupPending() {
		s.handleControl()
	}

	s.mu.Lock()
	epmax := s.epmax
	s.mu.Unlock()

	for i := uint8(1); i <= epmax; i++ {
		c.SelectEndpoint(i)
		if c.EndpointIsIn() {
			if c.InReady() {
				size := c.EndpointSize()
				for j := 0; j < size && c.FIFOReady(); j++ {
					c.WriteByte(s.driver.EndpointIn(i, j == 0))
				}
				c.FlushIn()
			}
		} else if c.OutReceived() {
			n := c.ByteCount()
			for j := 0; j < n && c.FIFOReady(); j++ {
				s.driver.EndpointOut(i, c.ReadByte(), j == 0)
			}
			c.AckOut()
		}
	}
	c.SelectEndpoint(0)
}

// State returns the current enumeration state.
func (s *Stack) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Configuration returns the selected configuration value, 0 when none is.
func (s *Stack) Configuration() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// EndpointHighWater returns the highest application endpoint number
// activated since the last bus reset.
func (s *Stack) EndpointHighWater() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epmax
}

func (s *Stack) ep0Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ep0size
}

func (s *Stack) setState(state State) {
	s.mu.Lock()
	old := s.state
	s.state = state
	s.mu.Unlock()
	pkg.LogDebug(pkg.ComponentStack, "state change", "from", old.String(), "to", state.String())
}
