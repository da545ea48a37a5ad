package device

import "runtime"

// ControlIn runs the IN data stage and OUT status stage of the pending
// control transfer, sending up to n bytes from src. The transfer is
// truncated to the host's requested length, and a zero-length packet is
// appended when the host asked for more than n and n is an exact multiple
// of the endpoint 0 packet size, so the host sees the data stage end.
//
// The host may abandon the data stage at any point; the core detects this
// through the early-OUT condition and proceeds directly to the status
// stage. Intended for use by vendor request handlers; the standard request
// dispatcher uses it internally.
func (s *Stack) ControlIn(src Buffer, n int) {
	c := s.ctrl
	if !c.SetupPending() {
		return
	}
	c.AckSetup()

	reqLen := int(s.req.Length)
	size := s.ep0Size()
	zlp := reqLen > n && size > 0 && n%size == 0
	if n > reqLen {
		n = reqLen
	}

	off := 0
	for n > 0 && !c.NAKOut() {
		for !c.InReady() && !c.NAKOut() {
			runtime.Gosched()
		}
		if c.NAKOut() {
			break
		}
		for i := 0; i < size && n > 0; i++ {
			c.WriteByte(src.at(c, off))
			off++
			n--
		}
		if !c.NAKOut() {
			c.FlushIn()
		}
	}

	if zlp && !c.NAKOut() {
		for !c.InReady() && !c.NAKOut() {
			runtime.Gosched()
		}
		if !c.NAKOut() {
			c.FlushIn()
			for !c.InReady() && !c.NAKOut() {
				runtime.Gosched()
			}
		}
	}

	// Status stage: wait for the host's zero-length OUT and discard it.
	for !c.NAKOut() {
		runtime.Gosched()
	}
	c.AckNAKOut()
	if c.OutReceived() {
		c.AckOut()
	}
}

// ControlOut runs the OUT data stage and IN status stage of the pending
// control transfer, receiving up to len(dst) bytes into dst. Pass nil for
// a no-data request; only the status stage runs then.
//
// If the transmitter bank is still busy when the status stage is due,
// ControlOut returns without completing it. Intended for use by vendor
// request handlers; the standard request dispatcher uses it internally.
func (s *Stack) ControlOut(dst []byte) {
	c := s.ctrl
	if !c.SetupPending() {
		return
	}
	c.AckSetup()

	n := len(dst)
	if reqLen := int(s.req.Length); n > reqLen {
		n = reqLen
	}
	withData := n > 0

	off := 0
	for n > 0 && !c.NAKIn() {
		for !c.OutReceived() && !c.NAKIn() {
			runtime.Gosched()
		}
		if c.NAKIn() {
			break
		}
		avail := c.ByteCount()
		for i := 0; i < avail && n > 0; i++ {
			dst[off] = c.ReadByte()
			off++
			n--
		}
		if !c.NAKIn() {
			c.AckOut()
		}
	}

	if withData {
		for !c.NAKIn() {
			runtime.Gosched()
		}
		c.AckNAKIn()
		if !c.InReady() {
			return
		}
	}

	// Status stage: hand the host a zero-length IN.
	for !c.InReady() {
		runtime.Gosched()
	}
	c.FlushIn()
	for !c.InReady() {
		runtime.Gosched()
	}
}
