// Package hal defines the hardware interface consumed by the usbd device
// core.
//
// Unlike transfer-oriented abstractions, this contract sits at the level of
// the USB peripheral itself: per-endpoint readiness flags, byte-wide FIFO
// access, and a bank/select register model. The device core implements all
// protocol logic (enumeration, control-transfer staging, the polling pump)
// as spin-waits and byte moves against this interface, so a platform port
// only has to map each method onto its controller's registers.
//
// # Selection model
//
// The controller exposes one endpoint at a time. [Controller.SelectEndpoint]
// chooses which endpoint the flag predicates, acknowledge methods, and FIFO
// accessors operate on, mirroring the endpoint-number register found on
// small USB peripherals. The core always restores selection to the control
// endpoint before returning to its caller.
//
// # Implementing a port
//
//  1. Map Enable/Attach onto controller power-up, clocking, and bus attach.
//  2. Latch the bus-reset condition for ResetPending/AckReset.
//  3. Map the flag predicates and acks onto the endpoint interrupt register.
//  4. Map ReadByte/WriteByte onto the endpoint data FIFO register.
//  5. Provide ReadFlash if descriptors live in a separate constant store;
//     ports with a unified address space simply index the slice.
//
// A complete in-memory implementation with a scripted host model is provided
// by [github.com/tinystack/usbd/device/hal/mem] for tests and simulation.
package hal
