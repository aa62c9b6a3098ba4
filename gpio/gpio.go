// Package gpio implements the complete state of an STM32 style general
// purpose I/O port: the configuration/data register block plus the logic
// that resolves register contents and externally driven lines into the
// level seen on each pin, and reports output pin changes downstream.
package gpio

import (
	"fmt"

	"github.com/jmchacon/gpiosim/io"
	"github.com/jmchacon/gpiosim/irq"
	"github.com/jmchacon/gpiosim/memory"
)

var (
	_ = memory.Bank(&Chip{})
	_ = Line(&line{})
)

// Port is the identity of a GPIO port. It only selects reset defaults and
// has no register visible encoding.
type Port int

const (
	PortA Port = iota
	PortB
	PortC
	PortD
	PortE
	PortF
	PortG
	PortH
	PortI
	PortJ
	PortK
	kPORT_MAX // End of port enumerations.
)

// ParsePort maps a port letter ("A".."K", either case) to its Port.
func ParsePort(s string) (Port, error) {
	if len(s) == 1 {
		c := s[0]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if p := Port(c - 'A'); c >= 'A' && p < kPORT_MAX {
			return p, nil
		}
	}
	return 0, fmt.Errorf("invalid port %q", s)
}

func (p Port) String() string {
	if p >= PortA && p < kPORT_MAX {
		return string(rune('A' + p))
	}
	return fmt.Sprintf("Port(%d)", int(p))
}

// Mode is the 2 bit per pin value held in MODER.
type Mode uint8

const (
	ModeInput     Mode = iota // Digital input.
	ModeOutput                // General purpose output.
	ModeAlternate             // Alternate function, driven by another peripheral.
	ModeAnalog                // Analog, digital path disabled.
)

// Pull is the 2 bit per pin value held in PUPDR. The fourth encoding is
// reserved and behaves like PullNone.
type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// Register offsets within the port's region.
const (
	MODER   = uint32(0x000)
	OTYPER  = uint32(0x004)
	OSPEEDR = uint32(0x008)
	PUPDR   = uint32(0x00C)
	IDR     = uint32(0x010) // Read only.
	ODR     = uint32(0x014)
	BSRR    = uint32(0x018) // Write only, atomic set/reset of ODR.
	LCKR    = uint32(0x01C)
	AFRL    = uint32(0x020)
	AFRH    = uint32(0x024)

	// Size is the number of bytes of address space a port decodes.
	Size = uint32(0x400)

	// MaxPins is the largest number of lines a port can expose.
	MaxPins = 16
)

const (
	kMASK_BSRR  = uint32(0xFFFF)
	kSHIFT_BSRR = 16
	kMASK_FIELD = uint32(0x3)
)

// Registers maps register names to offsets, in register map order.
var Registers = []struct {
	Name   string
	Offset uint32
}{
	{"MODER", MODER},
	{"OTYPER", OTYPER},
	{"OSPEEDR", OSPEEDR},
	{"PUPDR", PUPDR},
	{"IDR", IDR},
	{"ODR", ODR},
	{"BSRR", BSRR},
	{"LCKR", LCKR},
	{"AFRL", AFRL},
	{"AFRH", AFRH},
}

// RegisterOffset returns the offset for a register name such as "ODR".
func RegisterOffset(name string) (uint32, bool) {
	for _, r := range Registers {
		if r.Name == name {
			return r.Offset, true
		}
	}
	return 0, false
}

// AccessKind distinguishes entries handed to a ChipDef.Trace hook.
type AccessKind int

const (
	AccessRead  AccessKind = iota // Register read.
	AccessWrite                   // Register write.
	AccessLine                    // External line event.
)

// Access describes one entry point invocation for tracing.
type Access struct {
	Kind   AccessKind
	Port   Port
	Offset uint32   // Register offset for reads and writes.
	Value  uint32   // Value read or written.
	Pin    int      // Pin for line events.
	Drive  io.Drive // Drive for line events.
}

func (a Access) String() string {
	switch a.Kind {
	case AccessRead:
		return fmt.Sprintf("port %s read  0x%.3X -> 0x%.8X", a.Port, a.Offset, a.Value)
	case AccessWrite:
		return fmt.Sprintf("port %s write 0x%.3X <- 0x%.8X", a.Port, a.Offset, a.Value)
	}
	return fmt.Sprintf("port %s line %d %s", a.Port, a.Pin, a.Drive)
}

// Chip implements a single GPIO port including its register file, the pin
// resolution logic and the external line inputs.
type Chip struct {
	port    Port   // Identity, selects reset defaults.
	pins    int    // Number of exposed lines.
	moder   uint32 // 2 bits/pin mode.
	otyper  uint32 // Output type, stored only.
	ospeedr uint32 // Slew rate, stored only.
	pupdr   uint32 // 2 bits/pin pull configuration.
	idr     uint32 // Resolved level of each pin.
	odr     uint32 // Requested output level of each pin.
	lckr    uint32 // Lock register, stored only.
	afrl    uint32 // Alternate function low, stored only.
	afrh    uint32 // Alternate function high, stored only.
	in      uint32 // External drive values, valid where inMask is set.
	inMask  uint32 // Pins currently driven externally.

	edges irq.EdgeReceiver // Output edge receiver, may be nil.
	diag  func(error)      // Diagnostic sink, may be nil.
	trace func(Access)     // Access trace hook, may be nil.
	debug bool             // If true Debug() emits output.
	lines []*line
}

type ChipDef struct {
	// Port selects the reset defaults.
	Port Port

	// Pins is the number of exposed lines. 0 means MaxPins.
	Pins int

	// Edges if non-nil receives output pin level changes.
	Edges irq.EdgeReceiver

	// Diag if non-nil receives *BadOffset and *DriveConflict diagnostics.
	Diag func(error)

	// Trace if non-nil is called for every register access and line event.
	Trace func(Access)

	// Debug if true will emit output from Debug() calls
	Debug bool
}

// Init returns a fully initialized port which has already been reset.
func Init(d *ChipDef) (*Chip, error) {
	if d == nil {
		d = &ChipDef{}
	}
	if d.Port < PortA || d.Port >= kPORT_MAX {
		return nil, fmt.Errorf("invalid port identity %d", int(d.Port))
	}
	pins := d.Pins
	if pins == 0 {
		pins = MaxPins
	}
	if pins < 1 || pins > MaxPins {
		return nil, fmt.Errorf("pin count %d out of range [1,%d]", d.Pins, MaxPins)
	}
	c := &Chip{
		port:  d.Port,
		pins:  pins,
		edges: d.Edges,
		diag:  d.Diag,
		trace: d.Trace,
		debug: d.Debug,
	}
	for i := 0; i < pins; i++ {
		c.lines = append(c.lines, &line{c, i})
	}
	c.PowerOn()
	return c, nil
}

// Port returns the port identity.
func (c *Chip) Port() Port {
	return c.port
}

// Pins returns the number of exposed lines.
func (c *Chip) Pins() int {
	return c.pins
}

// PowerOn implements the memory interface and performs a full reset.
func (c *Chip) PowerOn() {
	c.Reset()
}

// Reset puts the port back into its reset state. The identity specific
// defaults are applied first and then cleared along with the rest of the
// register file, so every register and all external drive state reads as
// zero afterwards for every port. No edges are emitted.
func (c *Chip) Reset() {
	d := resetValues(c.port)
	c.odr = d.odr
	c.ospeedr = d.ospeedr
	c.pupdr = d.pupdr

	c.moder = 0
	c.otyper = 0
	c.ospeedr = 0
	c.pupdr = 0
	c.idr = 0
	c.odr = 0
	c.lckr = 0
	c.afrl = 0
	c.afrh = 0
	c.in = 0
	c.inMask = 0
}

type defaults struct {
	odr     uint32
	ospeedr uint32
	pupdr   uint32
}

// resetValues returns the documented reset values for the registers that
// differ between ports.
func resetValues(p Port) defaults {
	switch p {
	case PortA:
		return defaults{odr: 0xA8000000, ospeedr: 0x00000000, pupdr: 0x64000000}
	case PortB:
		return defaults{odr: 0x00000280, ospeedr: 0x000000C0, pupdr: 0x00000100}
	}
	return defaults{}
}

// Read implements the interface for memory.Bank and returns the register at
// the given offset. Unknown offsets read as 0 and are reported as a diagnostic.
func (c *Chip) Read(addr uint32) uint32 {
	var ret uint32
	switch addr {
	case MODER:
		ret = c.moder
	case OTYPER:
		ret = c.otyper
	case OSPEEDR:
		ret = c.ospeedr
	case PUPDR:
		ret = c.pupdr
	case IDR:
		ret = c.idr
	case ODR:
		ret = c.odr
	case BSRR:
		// Write only.
	case LCKR:
		ret = c.lckr
	case AFRL:
		ret = c.afrl
	case AFRH:
		ret = c.afrh
	default:
		c.report(&BadOffset{Port: c.port, Offset: addr})
	}
	if c.trace != nil {
		c.trace(Access{Kind: AccessRead, Port: c.port, Offset: addr, Value: ret})
	}
	return ret
}

// Write implements the interface for memory.Bank and stores val at the given
// offset. Every accepted write (including the ignored IDR write) is followed
// by a full resolution pass before returning. Unknown offsets change nothing
// and are reported as a diagnostic.
func (c *Chip) Write(addr uint32, val uint32) {
	if c.trace != nil {
		c.trace(Access{Kind: AccessWrite, Port: c.port, Offset: addr, Value: val})
	}
	switch addr {
	case MODER:
		c.moder = val
	case OTYPER:
		c.otyper = val
	case OSPEEDR:
		c.ospeedr = val
	case PUPDR:
		c.pupdr = val
	case IDR:
		// Read only, IDR only changes via resolution.
	case ODR:
		c.odr = val
	case BSRR:
		// Set bits are applied after reset bits so set wins on overlap.
		c.odr &^= (val >> kSHIFT_BSRR) & kMASK_BSRR
		c.odr |= val & kMASK_BSRR
	case LCKR:
		c.lckr = val
	case AFRL:
		c.afrl = val
	case AFRH:
		c.afrh = val
	default:
		c.report(&BadOffset{Port: c.port, Offset: addr, Write: true, Value: val})
		return
	}
	c.update()
}

// Mode returns the configured mode of pin.
func (c *Chip) Mode(pin int) Mode {
	c.checkPin(pin)
	return Mode(field2(c.moder, pin))
}

// Pull returns the configured pull of pin.
func (c *Chip) Pull(pin int) Pull {
	c.checkPin(pin)
	return Pull(field2(c.pupdr, pin))
}

// Output returns the resolved level of pin, i.e. its IDR bit.
func (c *Chip) Output(pin int) bool {
	c.checkPin(pin)
	return bit(c.idr, pin)
}

// Line is a single pin as seen by wiring code.
type Line interface {
	io.PortIn1
	io.PortOut1
}

// Line returns the external line for pin. Set drives it and Output reads
// the resolved level back.
func (c *Chip) Line(pin int) Line {
	c.checkPin(pin)
	return c.lines[pin]
}

func (c *Chip) report(err error) {
	if c.diag != nil {
		c.diag(err)
	}
}

func (c *Chip) checkPin(pin int) {
	if pin < 0 || pin >= c.pins {
		panic(fmt.Sprintf("gpio: port %s pin %d out of range [0,%d)", c.port, pin, c.pins))
	}
}

// Debug returns a one line dump of the register file if ChipDef.Debug was set.
func (c *Chip) Debug() string {
	if c.debug {
		return fmt.Sprintf("port %s MODER: %.8X PUPDR: %.8X ODR: %.8X IDR: %.8X drive: %.4X/%.4X\n", c.port, c.moder, c.pupdr, c.odr, c.idr, c.inMask, c.in)
	}
	return ""
}

// line is the per pin view handed to wiring code.
type line struct {
	c   *Chip
	pin int
}

// Set implements io.PortIn1.
func (l *line) Set(d io.Drive) {
	l.c.SetLine(l.pin, d)
}

// Output implements io.PortOut1.
func (l *line) Output() bool {
	return l.c.Output(l.pin)
}

func bit(reg uint32, pin int) bool {
	return (reg>>uint(pin))&1 == 1
}

func deposit(reg uint32, pin int, v bool) uint32 {
	if v {
		return reg | 1<<uint(pin)
	}
	return reg &^ (1 << uint(pin))
}

func field2(reg uint32, pin int) uint32 {
	return (reg >> uint(2*pin)) & kMASK_FIELD
}
