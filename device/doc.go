// Package device implements a minimal polled USB 2.0 device-side protocol
// core.
//
// The core terminates the USB wire protocol at the lowest practical level:
// bus-reset recovery, the endpoint 0 control-transfer engine, the standard
// request dispatcher, and a per-iteration pump for application endpoints.
// It talks to hardware exclusively through the register-level
// [hal.Controller] interface and learns everything device-specific
// (descriptors, vendor requests, endpoint payloads) from a [Driver].
//
// # Execution model
//
// There are exactly two entry points after bring-up, mirroring the way
// small USB peripherals are programmed:
//
//   - [Stack.HandleReset] is bound to the asynchronous bus-reset event and
//     may preempt everything else at any instruction boundary. It performs
//     a handful of hardware writes and returns.
//   - [Stack.Task] is called forever from the application's main loop. It
//     dispatches pending setup packets and moves at most one packet per
//     application endpoint, so it returns promptly except while a control
//     transaction is in flight.
//
// The control-transfer primitives busy-wait on hardware readiness flags.
// Their waits are bounded by host behavior alone: every loop also watches
// the NAK conditions through which a host signals that it has moved on,
// which is treated as normal flow control rather than an error.
//
// # Error model
//
// Protocol failures are never surfaced as Go errors. An unsupported or
// invalid request ends with a stall handshake on endpoint 0, which is the
// error signal USB defines; the core then simply waits for the next setup
// packet.
//
// # State
//
// Enumeration state follows USB 2.0 chapter 9:
//
//	Default → Addressed → Configured
//
// reachable only forward, except that a bus reset forces the device back to
// Default. The state variables shared with the reset handler are guarded
// explicitly, since a Go port cannot rely on the single-instruction register
// atomicity the original class of hardware provided.
//
// Suspend/resume handling is a known gap: bus suspend is neither detected
// nor acted upon.
package device
