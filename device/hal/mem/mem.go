package mem

import (
	"encoding/binary"
	"sync"

	"github.com/tinystack/usbd/device/hal"
	"github.com/tinystack/usbd/pkg"
)

// endpoint holds the register-visible state of one hardware endpoint.
type endpoint struct {
	enabled bool
	cfg     hal.EndpointConfig

	setupPending bool
	inReady      bool
	outReceived  bool
	nakIn        bool
	nakOut       bool
	stalled      bool

	inFIFO  []byte   // bytes written by the device, pending flush
	outFIFO []byte   // bytes from the host, pending read
	sent    [][]byte // flushed IN packets, drained by HostPackets
}

// hostModel tracks the host side of the control transfer in flight on
// endpoint 0.
type hostModel struct {
	active   bool
	in       bool // data stage is device-to-host
	length   int  // wLength
	received int  // IN bytes collected so far
	data     []byte
	off      int
	flushes  int
}

// Controller implements hal.Controller backed by plain memory.
//
// All methods are mutex-guarded so the host model (or a test standing in for
// the bus-reset interrupt) may run concurrently with the device core.
type Controller struct {
	mu sync.Mutex

	enabled  bool
	attached bool

	resetPending   bool
	address        uint8
	addressEnabled bool

	id  [hal.HardwareIDSize]byte
	sel int

	eps  [hal.MaxEndpoints]endpoint
	host hostModel

	abortINAfter int
}

// New creates a powered-off controller.
func New() *Controller {
	return &Controller{}
}

// SetHardwareID sets the per-chip unique identifier returned by HardwareID.
func (c *Controller) SetHardwareID(id [hal.HardwareIDSize]byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = id
}

// Enable powers up the controller.
func (c *Controller) Enable() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enabled {
		return pkg.ErrAlreadyRunning
	}
	c.enabled = true
	return nil
}

// Attach connects the device to the simulated bus.
func (c *Controller) Attach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attached = true
}

// ResetPending reports an unacknowledged bus reset.
func (c *Controller) ResetPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resetPending
}

// AckReset acknowledges the bus-reset condition.
func (c *Controller) AckReset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetPending = false
}

// SetAddress loads the bus address without enabling it.
func (c *Controller) SetAddress(addr uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.address = addr & 0x7F
}

// EnableAddress turns on recognition of the loaded address.
func (c *Controller) EnableAddress() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addressEnabled = true
}

// Address returns the loaded bus address and whether it is enabled.
func (c *Controller) Address() (uint8, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.address, c.addressEnabled
}

// SelectEndpoint chooses the endpoint the flag and FIFO methods act on.
// Out-of-range numbers are ignored.
func (c *Controller) SelectEndpoint(num uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if int(num) < len(c.eps) {
		c.sel = int(num)
	}
}

// EnableEndpoint activates the selected endpoint, clearing its banks and
// flags. The IN bank starts out free.
func (c *Controller) EnableEndpoint(cfg hal.EndpointConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eps[c.sel] = endpoint{
		enabled: true,
		cfg:     cfg,
		inReady: true,
	}
}

// ResetEndpoint resets the banks of the given endpoint, keeping its
// configuration and stall state.
func (c *Controller) ResetEndpoint(num uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if int(num) >= len(c.eps) {
		return
	}
	ep := &c.eps[num]
	ep.inFIFO = nil
	ep.outFIFO = nil
	ep.outReceived = false
	ep.nakIn = false
	ep.nakOut = false
	ep.inReady = true
}

// EndpointIsIn reports the selected endpoint's direction.
func (c *Controller) EndpointIsIn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eps[c.sel].cfg.In
}

// EndpointSize returns the selected endpoint's packet size in bytes.
func (c *Controller) EndpointSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eps[c.sel].cfg.Size.Bytes()
}

// SetupPending reports a received, unacknowledged setup packet.
func (c *Controller) SetupPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eps[c.sel].setupPending
}

// AckSetup acknowledges the setup packet. For endpoint 0 this lets the host
// model begin the data stage.
func (c *Controller) AckSetup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eps[c.sel].setupPending = false
	if c.sel == 0 {
		c.hostStartDataStage()
	}
}

// InReady reports whether the selected endpoint's IN bank is free.
func (c *Controller) InReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eps[c.sel].inReady
}

// FlushIn commits the IN bank. The model host collects the packet
// immediately, so the bank is free again on return.
func (c *Controller) FlushIn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	ep := &c.eps[c.sel]
	p := append([]byte(nil), ep.inFIFO...)
	ep.sent = append(ep.sent, p)
	ep.inFIFO = ep.inFIFO[:0]
	ep.inReady = true
	if c.sel == 0 {
		c.hostCollectIN(len(p))
	}
}

// OutReceived reports whether an OUT packet waits in the selected bank.
func (c *Controller) OutReceived() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eps[c.sel].outReceived
}

// AckOut releases the received OUT bank. For endpoint 0 the model host
// refills it with the next data-stage chunk, or moves to the status stage.
func (c *Controller) AckOut() {
	c.mu.Lock()
	defer c.mu.Unlock()
	ep := &c.eps[c.sel]
	ep.outReceived = false
	ep.outFIFO = ep.outFIFO[:0]
	if c.sel == 0 {
		c.hostContinueOUT()
	}
}

// NAKOut reports the NAK-out condition on the selected endpoint.
func (c *Controller) NAKOut() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eps[c.sel].nakOut
}

// AckNAKOut clears the NAK-out condition.
func (c *Controller) AckNAKOut() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eps[c.sel].nakOut = false
}

// NAKIn reports the NAK-in condition on the selected endpoint.
func (c *Controller) NAKIn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eps[c.sel].nakIn
}

// AckNAKIn clears the NAK-in condition.
func (c *Controller) AckNAKIn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eps[c.sel].nakIn = false
}

// Stall requests a stall handshake on the selected endpoint.
func (c *Controller) Stall() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eps[c.sel].stalled = true
	pkg.LogDebug(pkg.ComponentHAL, "stall requested", "endpoint", c.sel)
}

// Stalled reports whether a stall is requested on the selected endpoint.
func (c *Controller) Stalled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eps[c.sel].stalled
}

// FIFOReady reports whether the selected bank can transfer another byte.
func (c *Controller) FIFOReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	ep := &c.eps[c.sel]
	if ep.cfg.In {
		return len(ep.inFIFO) < ep.cfg.Size.Bytes()
	}
	return len(ep.outFIFO) > 0
}

// ByteCount returns the bytes remaining in the received OUT bank.
func (c *Controller) ByteCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.eps[c.sel].outFIFO)
}

// ReadByte pops one byte from the selected OUT bank. An empty bank reads
// as zero, as real hardware would return indeterminate data.
func (c *Controller) ReadByte() byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	ep := &c.eps[c.sel]
	if len(ep.outFIFO) == 0 {
		return 0
	}
	b := ep.outFIFO[0]
	ep.outFIFO = ep.outFIFO[1:]
	return b
}

// WriteByte pushes one byte into the selected IN bank.
func (c *Controller) WriteByte(b byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ep := &c.eps[c.sel]
	ep.inFIFO = append(ep.inFIFO, b)
}

// ReadFlash reads buf[off]. The model has a unified address space.
func (c *Controller) ReadFlash(buf []byte, off int) byte {
	return buf[off]
}

// HardwareID returns the configured unique identifier.
func (c *Controller) HardwareID() [hal.HardwareIDSize]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Host-side methods. These drive the device the way a bus would.

// HostReset signals a bus reset. Every endpoint's wait conditions are
// released so that a device spinning inside a control transfer observes the
// bank reinitialization and unwinds; the device is expected to run its reset
// handler before further traffic.
func (c *Controller) HostReset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetPending = true
	c.address = 0
	c.addressEnabled = false
	c.host = hostModel{}
	for i := range c.eps {
		ep := &c.eps[i]
		ep.setupPending = false
		ep.outReceived = false
		ep.inFIFO = nil
		ep.outFIFO = nil
		ep.inReady = true
		ep.nakIn = true
		ep.nakOut = true
	}
	pkg.LogDebug(pkg.ComponentHAL, "bus reset signaled")
}

// HostSubmit stages a control transaction: an 8-byte setup packet and, for
// host-to-device requests, the data-stage payload. The host model then
// completes the transfer in lockstep with the device's register accesses.
func (c *Controller) HostSubmit(setup []byte, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(setup) < 8 {
		return pkg.ErrSetupPacketTooShort
	}
	if !c.enabled || !c.attached || !c.eps[0].enabled {
		return pkg.ErrNotRunning
	}
	ep0 := &c.eps[0]
	// A new SETUP clears a previous stall handshake.
	ep0.stalled = false
	ep0.setupPending = true
	ep0.outFIFO = append(ep0.outFIFO[:0], setup[:8]...)
	ep0.nakIn = false
	ep0.nakOut = false
	length := int(binary.LittleEndian.Uint16(setup[6:8]))
	if len(data) > length {
		data = data[:length]
	}
	c.host = hostModel{
		active: true,
		in:     setup[0]&0x80 != 0,
		length: length,
		data:   data,
	}
	return nil
}

// HostAbortINAfter makes the host abandon IN data stages after n flushed
// packets, simulating NAK-based early termination. Zero disables aborting.
func (c *Controller) HostAbortINAfter(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.abortINAfter = n
}

// HostWrite delivers an OUT packet to an application endpoint.
func (c *Controller) HostWrite(num uint8, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if num == 0 || int(num) >= len(c.eps) {
		return pkg.ErrInvalidEndpoint
	}
	ep := &c.eps[num]
	if !ep.enabled {
		return pkg.ErrInvalidEndpoint
	}
	ep.outFIFO = append(ep.outFIFO[:0], data...)
	ep.outReceived = true
	return nil
}

// HostPackets drains and returns the IN packets flushed on an endpoint.
func (c *Controller) HostPackets(num uint8) [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if int(num) >= len(c.eps) {
		return nil
	}
	ep := &c.eps[num]
	sent := ep.sent
	ep.sent = nil
	return sent
}

// hostStartDataStage runs after the device acknowledges a setup packet.
// Callers hold c.mu.
func (c *Controller) hostStartDataStage() {
	if !c.host.active {
		return
	}
	if c.host.in {
		if c.host.length == 0 {
			// Nothing for the device to send; the host issues the
			// status OUT immediately.
			c.hostStatusOut()
		}
		return
	}
	if len(c.host.data) > 0 {
		c.hostDeliverOUT()
	}
}

// hostDeliverOUT fills the EP0 bank with the next data-stage chunk.
// Callers hold c.mu.
func (c *Controller) hostDeliverOUT() {
	ep0 := &c.eps[0]
	n := ep0.cfg.Size.Bytes()
	if rem := len(c.host.data) - c.host.off; n > rem {
		n = rem
	}
	ep0.outFIFO = append(ep0.outFIFO[:0], c.host.data[c.host.off:c.host.off+n]...)
	ep0.outReceived = true
	c.host.off += n
}

// hostContinueOUT runs after the device acknowledges an OUT bank on EP0:
// either the next chunk arrives or the host moves to the status stage.
// Callers hold c.mu.
func (c *Controller) hostContinueOUT() {
	if !c.host.active || c.host.in {
		return
	}
	if c.host.off < len(c.host.data) {
		c.hostDeliverOUT()
		return
	}
	// Data stage complete; the host's status IN token raises NAK-in.
	c.eps[0].nakIn = true
}

// hostCollectIN accounts for a flushed EP0 IN packet of n bytes and raises
// the status-stage condition once the host considers the transfer complete:
// after a short packet (a zero-length packet included) or once wLength
// bytes have arrived. Callers hold c.mu.
func (c *Controller) hostCollectIN(n int) {
	if !c.host.active || !c.host.in {
		return
	}
	c.host.flushes++
	c.host.received += n
	if c.abortINAfter > 0 && c.host.flushes >= c.abortINAfter {
		c.hostStatusOut()
		return
	}
	if n < c.eps[0].cfg.Size.Bytes() || c.host.received >= c.host.length {
		c.hostStatusOut()
	}
}

// hostStatusOut models the host's status-stage OUT: the NAK-out condition
// rises and the zero-length status packet lands in the bank.
// Callers hold c.mu.
func (c *Controller) hostStatusOut() {
	ep0 := &c.eps[0]
	ep0.nakOut = true
	ep0.outReceived = true
	ep0.outFIFO = ep0.outFIFO[:0]
}

// Compile-time interface check
var _ hal.Controller = (*Controller)(nil)
