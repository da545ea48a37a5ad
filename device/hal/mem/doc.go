// Package mem provides an in-memory implementation of [hal.Controller] with
// a scripted host model, for tests and host-less simulation.
//
// The device-facing side behaves like a register file: selection, readiness
// flags, byte FIFOs, and bank acknowledges, all backed by plain memory. The
// host-facing side is driven through the Host* methods. [Controller.HostSubmit]
// stages a control transaction and then plays the role of a well-behaved
// host: IN banks are collected as soon as they are flushed, OUT banks are
// refilled as soon as they are acknowledged, and the NAK conditions that
// signal the status stage are raised exactly when a real host would move on,
// that is after a short packet or once wLength bytes have transferred.
//
// Because the host model advances synchronously inside the device's own
// register accesses, a complete control transfer runs to completion without
// any goroutine standing in for the host. [Controller.HostAbortINAfter]
// scripts the one asynchronous behavior the core must tolerate, a host that
// abandons an IN data stage early.
package mem
