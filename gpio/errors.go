package gpio

import "fmt"

// A few custom error types handed to ChipDef.Diag. None of them stop the
// port; they describe guest behavior that real hardware would not flag.

// BadOffset is reported for a register access outside the register map.
// Reads return 0 and writes are dropped.
type BadOffset struct {
	Port   Port
	Offset uint32
	Write  bool
	Value  uint32 // Value of a dropped write.
}

// Error implements the interface for error types.
func (e *BadOffset) Error() string {
	if e.Write {
		return fmt.Sprintf("port %s: bad write offset 0x%.3X (value 0x%.8X)", e.Port, e.Offset, e.Value)
	}
	return fmt.Sprintf("port %s: bad read offset 0x%.3X", e.Port, e.Offset)
}

// DriveConflict is reported when an output pin is also driven externally.
// The external drive wins.
type DriveConflict struct {
	Port Port
	Pin  int
}

// Error implements the interface for error types.
func (e *DriveConflict) Error() string {
	return fmt.Sprintf("port %s: pin %d short circuited", e.Port, e.Pin)
}
