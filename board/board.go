// Package board pulls together several GPIO ports into one address space
// the way they sit on an STM32 AHB bus, and lets output lines of one port
// be wired to input lines of another. Most of the logic here is simply
// address decode and fanning out edges; the ports themselves live in gpio.
package board

import (
	"fmt"
	"sort"

	"github.com/jmchacon/gpiosim/gpio"
	"github.com/jmchacon/gpiosim/io"
	"github.com/jmchacon/gpiosim/memory"
	"github.com/pkg/errors"
)

var _ = memory.Bank(&Board{})

// Base is the address of port A. Port k decodes Base + k*gpio.Size.
const Base = uint32(0x40020000)

var (
	ErrDuplicatePort = errors.New("port already present")
	ErrNoPort        = errors.New("no such port")
	ErrPinRange      = errors.New("pin out of range")
)

// Observer sees every output edge of every port on the board.
type Observer interface {
	PortEdge(p gpio.Port, pin int, level bool)
}

// Unmapped is reported to Def.Diag for an access no port decodes.
type Unmapped struct {
	Addr  uint32
	Write bool
}

// Error implements the interface for error types.
func (e *Unmapped) Error() string {
	if e.Write {
		return fmt.Sprintf("write to unmapped address 0x%.8X", e.Addr)
	}
	return fmt.Sprintf("read from unmapped address 0x%.8X", e.Addr)
}

// PortDef describes one port to place on the board.
type PortDef struct {
	Port gpio.Port
	Pins int // 0 means gpio.MaxPins.
}

type Def struct {
	// Ports are created in order by New.
	Ports []PortDef

	// Diag if non-nil receives diagnostics from the board and every port.
	Diag func(error)

	// Trace if non-nil receives every port access.
	Trace func(gpio.Access)

	// Debug is handed to each port's ChipDef.
	Debug bool
}

// Pin names a single line on the board.
type Pin struct {
	Port gpio.Port
	Pin  int
}

func (p Pin) String() string {
	return fmt.Sprintf("%s.%d", p.Port, p.Pin)
}

type slot struct {
	chip   *gpio.Chip
	region memory.Region
}

// Board holds the ports and the wires between them.
type Board struct {
	def       Def
	ports     map[gpio.Port]*slot
	wires     map[Pin][]Pin     // Source output to target inputs.
	drives    map[Pin]io.Drive // Last drive each source put on its targets.
	observers []Observer
}

// New returns a board holding the ports in d.
func New(d *Def) (*Board, error) {
	if d == nil {
		d = &Def{}
	}
	b := &Board{
		def:    *d,
		ports:  make(map[gpio.Port]*slot),
		wires:  make(map[Pin][]Pin),
		drives: make(map[Pin]io.Drive),
	}
	for _, p := range d.Ports {
		if err := b.Add(p); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Add places a new port on the board at its conventional address.
func (b *Board) Add(p PortDef) error {
	if _, ok := b.ports[p.Port]; ok {
		return errors.Wrapf(ErrDuplicatePort, "port %s", p.Port)
	}
	c, err := gpio.Init(&gpio.ChipDef{
		Port:  p.Port,
		Pins:  p.Pins,
		Edges: &fanout{b, p.Port},
		Diag:  b.def.Diag,
		Trace: b.def.Trace,
		Debug: b.def.Debug,
	})
	if err != nil {
		return errors.Wrapf(err, "port %s", p.Port)
	}
	b.ports[p.Port] = &slot{
		chip:   c,
		region: memory.Region{Base: Base + uint32(p.Port)*gpio.Size, Size: gpio.Size},
	}
	return nil
}

// Port returns the chip for p.
func (b *Board) Port(p gpio.Port) (*gpio.Chip, error) {
	s, ok := b.ports[p]
	if !ok {
		return nil, errors.Wrapf(ErrNoPort, "port %s", p)
	}
	return s.chip, nil
}

// Ports returns the ports on the board in identity order.
func (b *Board) Ports() []*gpio.Chip {
	var ids []int
	for p := range b.ports {
		ids = append(ids, int(p))
	}
	sort.Ints(ids)
	var ret []*gpio.Chip
	for _, p := range ids {
		ret = append(ret, b.ports[gpio.Port(p)].chip)
	}
	return ret
}

// Region returns where port p is mapped.
func (b *Board) Region(p gpio.Port) (memory.Region, error) {
	s, ok := b.ports[p]
	if !ok {
		return memory.Region{}, errors.Wrapf(ErrNoPort, "port %s", p)
	}
	return s.region, nil
}

// Observe registers o for every output edge on the board.
func (b *Board) Observe(o Observer) {
	b.observers = append(b.observers, o)
}

func (b *Board) decode(addr uint32) (*slot, uint32) {
	for _, s := range b.ports {
		if s.region.Contains(addr) {
			return s, s.region.Offset(addr)
		}
	}
	return nil, 0
}

// Read implements the interface for memory.Bank over absolute addresses.
func (b *Board) Read(addr uint32) uint32 {
	s, off := b.decode(addr)
	if s == nil {
		b.report(&Unmapped{Addr: addr})
		return 0
	}
	return s.chip.Read(off)
}

// Write implements the interface for memory.Bank over absolute addresses.
// Wires leaving the written port are brought up to date afterwards.
func (b *Board) Write(addr uint32, val uint32) {
	s, off := b.decode(addr)
	if s == nil {
		b.report(&Unmapped{Addr: addr, Write: true})
		return
	}
	s.chip.Write(off, val)
	b.Sync(s.chip.Port())
}

// PowerOn implements the interface for memory.Bank and resets every port.
// Wires stay in place but every target is released by the reset.
func (b *Board) PowerOn() {
	for _, s := range b.ports {
		s.chip.PowerOn()
	}
	for _, p := range b.Ports() {
		b.Sync(p.Port())
	}
}

// want returns the drive a wire from src should put on its targets: the
// resolved level while src is an output, released otherwise.
func (b *Board) want(src Pin) io.Drive {
	c := b.ports[src.Port].chip
	if c.Mode(src.Pin) != gpio.ModeOutput {
		return io.DriveRelease
	}
	return io.DriveFor(c.Output(src.Pin))
}

// Sync re-drives every wire leaving port p whose source changed without an
// edge, e.g. a pin switching into or out of output mode or a port reset.
// Board.Write calls it; callers touching a chip directly (Reset, Restore,
// chip.Write) call it themselves.
func (b *Board) Sync(p gpio.Port) {
	for from := range b.wires {
		if from.Port != p {
			continue
		}
		if d := b.want(from); d != b.drives[from] {
			b.drive(from, d)
		}
	}
}

// drive puts d on every target of from and remembers it.
func (b *Board) drive(from Pin, d io.Drive) {
	b.drives[from] = d
	for _, t := range b.wires[from] {
		b.ports[t.Port].chip.SetLine(t.Pin, d)
	}
}

func (b *Board) check(p Pin) (*gpio.Chip, error) {
	c, err := b.Port(p.Port)
	if err != nil {
		return nil, err
	}
	if p.Pin < 0 || p.Pin >= c.Pins() {
		return nil, errors.Wrapf(ErrPinRange, "pin %s", p)
	}
	return c, nil
}

// Connect wires the output of from to the input of to. If from is already
// an output its current level is driven onto to straight away. The wire
// only carries a level while from is in output mode.
func (b *Board) Connect(from, to Pin) error {
	if _, err := b.check(from); err != nil {
		return errors.Wrap(err, "wire source")
	}
	dst, err := b.check(to)
	if err != nil {
		return errors.Wrap(err, "wire target")
	}
	b.wires[from] = append(b.wires[from], to)
	d := b.want(from)
	b.drives[from] = d
	if d != io.DriveRelease {
		dst.SetLine(to.Pin, d)
	}
	return nil
}

// Disconnect removes every wire feeding to and releases its line.
func (b *Board) Disconnect(to Pin) error {
	dst, err := b.check(to)
	if err != nil {
		return errors.Wrap(err, "unwire")
	}
	for from, targets := range b.wires {
		var keep []Pin
		for _, t := range targets {
			if t != to {
				keep = append(keep, t)
			}
		}
		if len(keep) == 0 {
			delete(b.wires, from)
			delete(b.drives, from)
			continue
		}
		b.wires[from] = keep
	}
	dst.SetLine(to.Pin, io.DriveRelease)
	return nil
}

// Wires returns a copy of the wiring, source to targets.
func (b *Board) Wires() map[Pin][]Pin {
	ret := make(map[Pin][]Pin, len(b.wires))
	for k, v := range b.wires {
		ret[k] = append([]Pin(nil), v...)
	}
	return ret
}

func (b *Board) report(err error) {
	if b.def.Diag != nil {
		b.def.Diag(err)
	}
}

// fanout is the edge receiver handed to each port.
type fanout struct {
	b    *Board
	port gpio.Port
}

// OutputEdge implements irq.EdgeReceiver.
func (f *fanout) OutputEdge(pin int, level bool) {
	for _, o := range f.b.observers {
		o.PortEdge(f.port, pin, level)
	}
	from := Pin{f.port, pin}
	if _, ok := f.b.wires[from]; ok {
		f.b.drive(from, io.DriveFor(level))
	}
}
