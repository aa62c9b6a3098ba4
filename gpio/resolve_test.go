package gpio

import (
	"fmt"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-test/deep"
	"github.com/jmchacon/gpiosim/io"
	"github.com/jmchacon/gpiosim/irq"
)

func TestResolve(t *testing.T) {
	// Walk every combination so Resolve is known to be total.
	for mode := ModeInput; mode <= ModeAnalog; mode++ {
		for pull := PullNone; pull <= Pull(3); pull++ {
			for _, requested := range []bool{false, true} {
				for _, d := range []io.Drive{io.DriveRelease, io.DriveLow, io.DriveHigh} {
					var want bool
					switch {
					case d != io.DriveRelease:
						want = d == io.DriveHigh
					case mode == ModeOutput:
						want = requested
					default:
						want = pull == PullUp
					}
					if got := Resolve(mode, pull, requested, d); got != want {
						t.Errorf("Resolve(mode %d, pull %d, requested %t, %s) = %t, want %t", mode, pull, requested, d, got, want)
					}
				}
			}
		}
	}
}

func TestPinLevels(t *testing.T) {
	tests := []struct {
		name   string
		mode   Mode
		pull   Pull
		odr    bool
		drive  io.Drive
		want   bool
		biased bool // Whether a conflict diagnostic is expected.
	}{
		{name: "input no pull", mode: ModeInput, pull: PullNone, want: false},
		{name: "input pull up", mode: ModeInput, pull: PullUp, want: true},
		{name: "input pull down", mode: ModeInput, pull: PullDown, want: false},
		{name: "input reserved pull", mode: ModeInput, pull: Pull(3), want: false},
		{name: "input ignores ODR", mode: ModeInput, pull: PullNone, odr: true, want: false},
		{name: "alternate pull up", mode: ModeAlternate, pull: PullUp, want: true},
		{name: "analog pull up", mode: ModeAnalog, pull: PullUp, want: true},
		{name: "analog pull down", mode: ModeAnalog, pull: PullDown, odr: true, want: false},
		{name: "output low", mode: ModeOutput, odr: false, want: false},
		{name: "output high", mode: ModeOutput, odr: true, want: true},
		{name: "output ignores pull up", mode: ModeOutput, pull: PullUp, odr: false, want: false},
		{name: "input driven high", mode: ModeInput, pull: PullDown, drive: io.DriveHigh, want: true},
		{name: "input driven low", mode: ModeInput, pull: PullUp, drive: io.DriveLow, want: false},
		{name: "alternate driven high", mode: ModeAlternate, drive: io.DriveHigh, want: true},
		{name: "analog driven low", mode: ModeAnalog, pull: PullUp, drive: io.DriveLow, want: false},
		{name: "output driven low", mode: ModeOutput, odr: true, drive: io.DriveLow, want: false, biased: true},
		{name: "output driven high", mode: ModeOutput, odr: false, drive: io.DriveHigh, want: true, biased: true},
		{name: "output driven same", mode: ModeOutput, odr: true, drive: io.DriveHigh, want: true, biased: true},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			for pin := 0; pin < MaxPins; pin++ {
				c, h := setup(t, PortC, 16)
				c.Write(PUPDR, uint32(test.pull)<<uint(2*pin))
				if test.drive != io.DriveRelease {
					c.SetLine(pin, test.drive)
				}
				c.Write(MODER, uint32(test.mode)<<uint(2*pin))
				if test.odr {
					c.Write(BSRR, 1<<uint(pin))
				}
				if got, want := c.Output(pin), test.want; got != want {
					t.Fatalf("%s: pin %d bad level. Got %t and want %t\n%s", test.name, pin, got, want, spew.Sdump(c.Save()))
				}
				// Only this pin may be high.
				if got := c.Read(IDR) &^ (1 << uint(pin)); got != 0 {
					t.Fatalf("%s: pin %d other IDR bits set: %.8X", test.name, pin, got)
				}
				if got, want := len(h.diags) > 0, test.biased; got != want {
					t.Fatalf("%s: pin %d got diagnostics %v, want any %t", test.name, pin, h.diags, want)
				}
				for _, d := range h.diags {
					if diff := deep.Equal(d, error(&DriveConflict{Port: PortC, Pin: pin})); diff != nil {
						t.Fatalf("%s: pin %d bad diagnostic: %v", test.name, pin, diff)
					}
				}
			}
		})
	}
}

func TestOutputEdges(t *testing.T) {
	c, h := setup(t, PortA, 16)
	c.Write(MODER, 0x00000001) // pin0 output
	c.Write(ODR, 0x00000001)
	c.Write(ODR, 0x00000001)
	c.Write(ODR, 0x00000000)
	c.Write(BSRR, 0x00000001)
	c.Write(BSRR, 0x00010000)
	want := []edge{{0, true}, {0, false}, {0, true}, {0, false}}
	if diff := deep.Equal(h.edges, want); diff != nil {
		t.Errorf("Bad edges: %v", diff)
	}
}

func TestNoEdgesForInputs(t *testing.T) {
	for _, mode := range []Mode{ModeInput, ModeAlternate, ModeAnalog} {
		mode := mode
		t.Run(fmt.Sprintf("mode %d", mode), func(t *testing.T) {
			t.Parallel()
			c, h := setup(t, PortB, 16)
			c.Write(MODER, uint32(mode)<<2) // pin1
			c.Write(PUPDR, uint32(PullUp)<<2)
			c.SetLine(1, io.DriveLow)
			c.SetLine(1, io.DriveHigh)
			c.SetLine(1, io.DriveRelease)
			c.Write(PUPDR, 0)
			if got, want := c.Output(1), false; got != want {
				t.Errorf("Bad level. Got %t and want %t", got, want)
			}
			if len(h.edges) != 0 {
				t.Errorf("Non output pin fired edges: %v", h.edges)
			}
		})
	}
}

func TestOverrideEdges(t *testing.T) {
	c, h := setup(t, PortA, 16)
	c.Write(MODER, 0x00000004) // pin1 output, ODR 0
	c.SetLine(1, io.DriveHigh)
	c.SetLine(1, io.DriveHigh)
	c.SetLine(1, io.DriveRelease)
	want := []edge{{1, true}, {1, false}}
	if diff := deep.Equal(h.edges, want); diff != nil {
		t.Errorf("Bad edges: %v", diff)
	}
	// Two passes ran with pin1 both output and driven.
	if got, want := len(h.diags), 2; got != want {
		t.Errorf("Bad diagnostic count. Got %d and want %d: %v", got, want, h.diags)
	}
}

func TestModeChangeEdges(t *testing.T) {
	c, h := setup(t, PortA, 16)
	c.Write(PUPDR, 0x00000001) // pin0 pull up, IDR bit0 = 1 while input
	c.Write(MODER, 0x00000001) // pin0 output with ODR 0 drops the level
	c.Write(MODER, 0x00000000) // back to input rises it again, no edge
	if diff := deep.Equal(h.edges, []edge{{0, false}}); diff != nil {
		t.Errorf("Bad edges: %v", diff)
	}
}

func TestPinCountLimitsResolution(t *testing.T) {
	c, h := setup(t, PortC, 4)
	c.Write(MODER, 0x55555555) // every field output
	c.Write(ODR, 0x0000FFFF)
	if got, want := c.Read(IDR), uint32(0x0000000F); got != want {
		t.Errorf("Bad IDR. Got %.8X and want %.8X", got, want)
	}
	if got, want := len(h.edges), 4; got != want {
		t.Errorf("Bad edge count. Got %d and want %d: %v", got, want, h.edges)
	}
}

// loopback drives a second pin of the same port from an output edge.
type loopback struct {
	c     *Chip
	from  int
	to    int
	edges []edge
}

func (l *loopback) OutputEdge(pin int, level bool) {
	l.edges = append(l.edges, edge{pin, level})
	if pin == l.from {
		l.c.SetLine(l.to, io.DriveFor(level))
	}
}

func TestReentrantEdges(t *testing.T) {
	l := &loopback{from: 0, to: 1}
	c, err := Init(&ChipDef{Port: PortA, Edges: l})
	if err != nil {
		t.Fatalf("Can't init: %v", err)
	}
	l.c = c
	c.Write(MODER, 0x00000001) // pin0 output, pin1 input
	c.Write(ODR, 0x00000001)
	if got, want := c.Read(IDR), uint32(0x00000003); got != want {
		t.Errorf("Bad IDR after loopback. Got %.8X and want %.8X", got, want)
	}
	c.Write(ODR, 0x00000000)
	if got, want := c.Read(IDR), uint32(0x00000000); got != want {
		t.Errorf("Bad IDR after loopback low. Got %.8X and want %.8X", got, want)
	}
	if diff := deep.Equal(l.edges, []edge{{0, true}, {0, false}}); diff != nil {
		t.Errorf("Bad edges: %v", diff)
	}
}

func TestReentrantOutputToOutput(t *testing.T) {
	// pin1 is an output too, so the nested pass reports its edge and the
	// outer pass must not repeat it.
	l := &loopback{from: 0, to: 1}
	c, err := Init(&ChipDef{Port: PortA, Edges: l})
	if err != nil {
		t.Fatalf("Can't init: %v", err)
	}
	l.c = c
	c.Write(MODER, 0x00000005)
	c.Write(ODR, 0x00000001)
	if diff := deep.Equal(l.edges, []edge{{0, true}, {1, true}}); diff != nil {
		t.Errorf("Bad edges: %v", diff)
	}
}

var _ = irq.EdgeReceiver(&loopback{})
