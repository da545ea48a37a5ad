// Package pkg provides shared infrastructure for the usbd device core:
// sentinel errors and component-tagged structured logging.
//
// The protocol core itself never reports failures through Go errors. A
// rejected or malformed control request is answered with a stall on the wire
// (USB's own error signal) and nothing else. Errors defined here appear only
// at the bring-up seam and in hardware-model implementations.
//
// Logging is built on log/slog and defaults to the Warn level, keeping the
// core silent in normal operation. Raise the level with [SetLogLevel] to
// trace enumeration and endpoint traffic during development.
package pkg
