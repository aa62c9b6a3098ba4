package script

import (
	"fmt"
	"io"

	"github.com/jmchacon/gpiosim/board"
	"github.com/jmchacon/gpiosim/gpio"
	pinio "github.com/jmchacon/gpiosim/io"
	"github.com/pkg/errors"
)

// Mismatch is returned when an expect statement fails.
type Mismatch struct {
	Target string
	Got    uint32
	Want   uint32
	Mask   uint32
}

// Error implements the interface for error types.
func (e *Mismatch) Error() string {
	return fmt.Sprintf("expect %s: got 0x%.8X want 0x%.8X (mask 0x%.8X)", e.Target, e.Got&e.Mask, e.Want&e.Mask, e.Mask)
}

// Runner executes scripts against a board. Each statement is one step.
type Runner struct {
	board *board.Board
	out   io.Writer
	slots map[string]*gpio.Snapshot
	step  int

	// AfterStmt if non-nil is called with the new step count after every
	// statement that completed.
	AfterStmt func(step int)
}

// NewRunner returns a Runner for b. read and peek results go to out if it
// is non-nil.
func NewRunner(b *board.Board, out io.Writer) *Runner {
	return &Runner{
		board: b,
		out:   out,
		slots: make(map[string]*gpio.Snapshot),
	}
}

// Steps returns the number of statements run so far.
func (r *Runner) Steps() int {
	return r.step
}

// Run executes every statement of s in order and stops at the first error.
func (r *Runner) Run(s *Script) error {
	for _, st := range s.Stmts {
		if err := r.exec(st); err != nil {
			return errors.Wrap(err, st.Pos.String())
		}
		r.step++
		if r.AfterStmt != nil {
			r.AfterStmt(r.step)
		}
	}
	return nil
}

func (r *Runner) exec(st *Stmt) error {
	switch {
	case st.Port != nil:
		p, err := st.Port.Port.Port()
		if err != nil {
			return err
		}
		def := board.PortDef{Port: p}
		if st.Port.Pins != nil {
			def.Pins = *st.Port.Pins
			if def.Pins == 0 {
				return errors.Errorf("port %s: pins must be at least 1", p)
			}
		}
		return r.board.Add(def)
	case st.Wire != nil:
		from, err := r.pin(&st.Wire.From)
		if err != nil {
			return err
		}
		to, err := r.pin(&st.Wire.To)
		if err != nil {
			return err
		}
		return r.board.Connect(from, to)
	case st.Unwire != nil:
		to, err := r.pin(st.Unwire)
		if err != nil {
			return err
		}
		return r.board.Disconnect(to)
	case st.Write != nil:
		c, off, _, err := r.target(&st.Write.Target)
		if err != nil {
			return err
		}
		v, err := st.Write.Value.Value()
		if err != nil {
			return err
		}
		c.Write(off, v)
		r.board.Sync(c.Port())
	case st.Read != nil:
		c, off, name, err := r.target(st.Read)
		if err != nil {
			return err
		}
		r.printf("%s %s = 0x%.8X\n", c.Port(), name, c.Read(off))
	case st.Expect != nil:
		return r.expect(st.Expect)
	case st.Drive != nil:
		p, err := r.pin(&st.Drive.Pin)
		if err != nil {
			return err
		}
		c, err := r.board.Port(p.Port)
		if err != nil {
			return err
		}
		if p.Pin < 0 || p.Pin >= c.Pins() {
			return errors.Wrapf(board.ErrPinRange, "pin %s", p)
		}
		c.SetLine(p.Pin, drives[st.Drive.Level])
	case st.Reset != nil:
		c, err := r.port(st.Reset)
		if err != nil {
			return err
		}
		c.Reset()
		// Reset fires no edges, so lines wired from this port are released
		// here instead.
		r.board.Sync(c.Port())
	case st.Save != nil:
		c, err := r.port(&st.Save.Port)
		if err != nil {
			return err
		}
		r.slots[st.Save.Slot] = c.Save()
	case st.Restore != nil:
		c, err := r.port(&st.Restore.Port)
		if err != nil {
			return err
		}
		s, ok := r.slots[st.Restore.Slot]
		if !ok {
			return errors.Errorf("no snapshot saved as %q", st.Restore.Slot)
		}
		c.Restore(s)
		r.board.Sync(c.Port())
	case st.Peek != nil:
		addr, err := st.Peek.Value()
		if err != nil {
			return err
		}
		r.printf("0x%.8X = 0x%.8X\n", addr, r.board.Read(addr))
	case st.Poke != nil:
		addr, err := st.Poke.Addr.Value()
		if err != nil {
			return err
		}
		v, err := st.Poke.Value.Value()
		if err != nil {
			return err
		}
		r.board.Write(addr, v)
	default:
		return errors.New("empty statement")
	}
	return nil
}

var drives = map[string]pinio.Drive{
	"high":    pinio.DriveHigh,
	"low":     pinio.DriveLow,
	"release": pinio.DriveRelease,
}

func (r *Runner) expect(e *ExpectStmt) error {
	c, off, name, err := r.target(&e.Target)
	if err != nil {
		return err
	}
	want, err := e.Value.Value()
	if err != nil {
		return err
	}
	mask := ^uint32(0)
	if e.Mask != nil {
		if mask, err = e.Mask.Value(); err != nil {
			return err
		}
	}
	if got := c.Read(off); got&mask != want&mask {
		return &Mismatch{Target: fmt.Sprintf("%s %s", c.Port(), name), Got: got, Want: want, Mask: mask}
	}
	return nil
}

func (r *Runner) port(ref *PortRef) (*gpio.Chip, error) {
	p, err := ref.Port()
	if err != nil {
		return nil, err
	}
	return r.board.Port(p)
}

func (r *Runner) pin(ref *PinRef) (board.Pin, error) {
	p, err := ref.Port.Port()
	if err != nil {
		return board.Pin{}, err
	}
	return board.Pin{Port: p, Pin: ref.Pin}, nil
}

// target resolves a register reference to its chip, offset and a printable
// name.
func (r *Runner) target(t *Target) (*gpio.Chip, uint32, string, error) {
	c, err := r.port(&t.Port)
	if err != nil {
		return nil, 0, "", err
	}
	off, name, err := t.Offset()
	if err != nil {
		return nil, 0, "", err
	}
	return c, off, name, nil
}

func (r *Runner) printf(format string, args ...interface{}) {
	if r.out != nil {
		fmt.Fprintf(r.out, format, args...)
	}
}
