package device

import "github.com/tinystack/usbd/device/hal"

// MemKind identifies the address space a Buffer's bytes live in.
type MemKind uint8

// Buffer address spaces. Descriptor tables on small parts usually stay in
// the code store to save RAM, so the core must be told which read path to
// use for each blob it is handed.
const (
	MemRAM   MemKind = iota // Ordinary data memory
	MemFlash                // Code store, read through the controller
)

// Buffer is a tagged reference to descriptor bytes in either address space.
// The zero Buffer means "no such descriptor" and is how a Driver declines a
// request.
type Buffer struct {
	data []byte
	kind MemKind
}

// RAM wraps b as a data-memory buffer.
func RAM(b []byte) Buffer {
	return Buffer{data: b, kind: MemRAM}
}

// Flash wraps b as a code-store buffer. Reads go through
// [hal.Controller.ReadFlash] so a port can substitute real program-memory
// access.
func Flash(b []byte) Buffer {
	return Buffer{data: b, kind: MemFlash}
}

// IsZero reports whether the buffer references no data.
func (b Buffer) IsZero() bool {
	return b.data == nil
}

// Len returns the number of bytes referenced.
func (b Buffer) Len() int {
	return len(b.data)
}

// Kind returns the buffer's address space.
func (b Buffer) Kind() MemKind {
	return b.kind
}

// at reads the byte at index i through the address-space-appropriate path.
func (b Buffer) at(c hal.Controller, i int) byte {
	if b.kind == MemFlash {
		return c.ReadFlash(b.data, i)
	}
	return b.data[i]
}
