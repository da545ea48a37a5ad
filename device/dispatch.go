package device

import (
	"github.com/tinystack/usbd/device/hal"
	"github.com/tinystack/usbd/pkg"
)

// handleControl services one setup packet on endpoint 0: drain it, classify
// it, dispatch it, and stall whatever remains unconsumed.
func (s *Stack) handleControl() {
	c := s.ctrl
	c.SelectEndpoint(0)

	var raw [SetupPacketSize]byte
	for i := range raw {
		raw[i] = c.ReadByte()
	}
	if err := ParseSetupPacket(raw[:], &s.req); err != nil {
		pkg.LogWarn(pkg.ComponentControl, "malformed setup packet", "error", err)
	} else {
		pkg.LogDebug(pkg.ComponentControl, "setup packet", "request", s.req.String())

		switch s.req.Type() {
		case RequestTypeStandard:
			s.handleStandard()
		case RequestTypeVendor:
			s.driver.VendorRequest(&s.req)
		}
	}

	// Anything not consumed above, including unsupported standard requests
	// and vendor requests the driver ignored, gets a stall handshake. A
	// handler that ran the transfer already acknowledged the setup packet,
	// so this is a no-op for it.
	c.SelectEndpoint(0)
	if c.SetupPending() {
		pkg.LogDebug(pkg.ComponentControl, "stalling request", "request", s.req.Request)
		c.Stall()
		c.AckSetup()
	}
}

// handleStandard dispatches the standard request codes the core implements.
// CLEAR_FEATURE, SET_FEATURE, GET_CONFIGURATION, and the interface requests
// fall through and stall.
func (s *Stack) handleStandard() {
	switch s.req.Request {
	case RequestGetStatus:
		s.getStatus()
	case RequestSetAddress:
		s.setAddress()
	case RequestGetDescriptor:
		s.getDescriptor()
	case RequestSetConfiguration:
		s.setConfiguration()
	}
}

// getStatus services GET_STATUS for the device and endpoint recipients.
// The device reports no remote wakeup and no self-power; an endpoint
// reports its halt bit.
func (s *Stack) getStatus() {
	if !s.req.IsDeviceToHost() {
		return
	}

	var status uint16
	switch s.req.Recipient() {
	case RequestRecipientDevice:
		status = 0
	case RequestRecipientEndpoint:
		ep := s.req.EndpointNumber()
		if ep >= hal.MaxEndpoints {
			return
		}
		s.ctrl.SelectEndpoint(ep)
		halted := s.ctrl.Stalled()
		s.ctrl.SelectEndpoint(0)
		if halted {
			status = 1
		}
	default:
		return
	}

	var buf [2]byte
	buf[0] = uint8(status)
	buf[1] = uint8(status >> 8)
	s.ControlIn(RAM(buf[:]), len(buf))
}

// setAddress services SET_ADDRESS. The new address is loaded before the
// status stage but enabled only after, since the status handshake still
// runs on the default address.
func (s *Stack) setAddress() {
	if !s.req.IsHostToDevice() || !s.req.IsDeviceRecipient() {
		return
	}
	if s.State() != StateDefault {
		return
	}

	addr := uint8(s.req.Value & 0x7F)
	s.ctrl.SetAddress(addr)
	s.ControlOut(nil)
	s.ctrl.EnableAddress()
	s.setState(StateAddressed)
	pkg.LogInfo(pkg.ComponentControl, "address assigned", "address", addr)
}

// getDescriptor services GET_DESCRIPTOR for device, configuration, and
// string descriptors. The transfer length comes from the descriptor's own
// length field, so drivers never state a size twice.
func (s *Stack) getDescriptor() {
	if !s.req.IsDeviceToHost() || s.req.IsEndpointRecipient() {
		return
	}

	var src Buffer
	lenOffset := 0
	switch s.req.DescriptorType() {
	case DescriptorTypeDevice:
		src = s.driver.DeviceDescriptor()
	case DescriptorTypeConfiguration:
		src = s.driver.ConfigurationDescriptor(s.Configuration())
		lenOffset = configDescTotalLengthOffset
	case DescriptorTypeString:
		src = s.driver.StringDescriptor(s.req.Value, s.req.Index)
		if src.IsZero() {
			switch s.req.DescriptorIndex() {
			case 0:
				src = defaultLanguages
			case StringIndexInternalSerial:
				src = RAM(s.serial[:])
			}
		}
	}
	if src.IsZero() {
		return
	}

	n := int(src.at(s.ctrl, lenOffset))
	s.ControlIn(src, n)
}

// setConfiguration services SET_CONFIGURATION. The configuration value is
// validated and recorded before the status stage; endpoint activation runs
// after, once the host considers the request complete.
func (s *Stack) setConfiguration() {
	if !s.req.IsHostToDevice() || !s.req.IsDeviceRecipient() {
		return
	}
	if s.State() != StateAddressed {
		return
	}

	value := uint8(s.req.Value)
	if value > 1 {
		return
	}

	s.mu.Lock()
	s.config = value
	s.mu.Unlock()

	s.ControlOut(nil)
	s.driver.ConfigureEndpoints(value)
	s.setState(StateConfigured)
	pkg.LogInfo(pkg.ComponentControl, "configuration selected", "configuration", value)
}
