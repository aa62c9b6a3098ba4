package gpio

import (
	"fmt"

	"github.com/jmchacon/gpiosim/io"
)

// Resolve computes the level seen on a single pin. An external drive always
// wins, then an output pin shows its requested level, and anything else
// floats to its pull. Only a pull up reads as 1, pull down and no pull both
// read as 0.
func Resolve(mode Mode, pull Pull, requested bool, drive io.Drive) bool {
	switch {
	case drive == io.DriveHigh:
		return true
	case drive == io.DriveLow:
		return false
	case mode == ModeOutput:
		return requested
	}
	return pull == PullUp
}

// SetLine asserts d on the external input of pin and then re-resolves the
// port. The pin must be in [0, Pins()); anything else is a wiring error and
// panics.
func (c *Chip) SetLine(pin int, d io.Drive) {
	c.checkPin(pin)
	if c.trace != nil {
		c.trace(Access{Kind: AccessLine, Port: c.port, Pin: pin, Drive: d})
	}
	switch d {
	case io.DriveRelease:
		c.inMask = deposit(c.inMask, pin, false)
	case io.DriveLow, io.DriveHigh:
		c.inMask = deposit(c.inMask, pin, true)
		c.in = deposit(c.in, pin, d == io.DriveHigh)
	default:
		panic(fmt.Sprintf("gpio: port %s pin %d invalid drive %v", c.port, pin, d))
	}
	c.update()
}

// drive returns the external drive currently asserted on pin.
func (c *Chip) drive(pin int) io.Drive {
	if !bit(c.inMask, pin) {
		return io.DriveRelease
	}
	return io.DriveFor(bit(c.in, pin))
}

// update recomputes IDR for every pin and emits an edge for each output pin
// whose level changed. Edges are delivered inline so a receiver may call
// back into the port; each pass reads current state per pin so a nested
// pass leaves things consistent for the remaining pins.
func (c *Chip) update() {
	for i := 0; i < c.pins; i++ {
		prev := bit(c.idr, i)
		mode := c.Mode(i)
		d := c.drive(i)

		if mode == ModeOutput && d != io.DriveRelease {
			c.report(&DriveConflict{Port: c.port, Pin: i})
		}

		level := Resolve(mode, c.Pull(i), bit(c.odr, i), d)
		c.idr = deposit(c.idr, i, level)

		if mode == ModeOutput && level != prev && c.edges != nil {
			c.edges.OutputEdge(i, level)
		}
	}
}
