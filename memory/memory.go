// Package memory defines the basic interfaces for working with a 32 bit
// memory map made of peripheral register blocks. Since each peripheral
// decodes its own registers this is defined as an interface and the
// address handed to a Bank is relative to the start of its Region.
package memory

type Bank interface {
	// Read returns the 32 bit word stored at addr.
	Read(addr uint32) uint32
	// Write updates addr with the new value. Read only locations simply
	// ignore the write without any error.
	Write(addr uint32, val uint32)
	// PowerOn performs power on reset of the bank.
	PowerOn()
}

// Region places a Bank in an address space.
type Region struct {
	Base uint32 // First address decoded by the bank.
	Size uint32 // Number of bytes decoded.
}

// Contains reports whether addr falls in the region.
func (r Region) Contains(addr uint32) bool {
	return addr >= r.Base && addr-r.Base < r.Size
}

// Offset returns addr relative to the region base.
func (r Region) Offset(addr uint32) uint32 {
	return addr - r.Base
}
