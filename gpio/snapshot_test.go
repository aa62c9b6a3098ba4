package gpio

import (
	"bytes"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-test/deep"
	"github.com/jmchacon/gpiosim/io"
)

func TestSnapshotRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		setup func(c *Chip)
	}{
		{
			name:  "reset state",
			setup: func(c *Chip) {},
		},
		{
			name: "outputs and pulls",
			setup: func(c *Chip) {
				c.Write(MODER, 0x00005501)
				c.Write(PUPDR, 0x00010004)
				c.Write(ODR, 0x000000F1)
				c.Write(OTYPER, 0x00000002)
				c.Write(OSPEEDR, 0xFFFFFFFF)
				c.Write(LCKR, 0x00010003)
				c.Write(AFRL, 0x12345678)
				c.Write(AFRH, 0x9ABCDEF0)
			},
		},
		{
			name: "external drives",
			setup: func(c *Chip) {
				c.Write(MODER, 0x00000001)
				c.SetLine(0, io.DriveLow)
				c.SetLine(7, io.DriveHigh)
				c.SetLine(9, io.DriveLow)
				c.SetLine(9, io.DriveRelease)
			},
		},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			src, _ := setup(t, PortA, 16)
			test.setup(src)
			snap := src.Save()

			dst, h := setup(t, PortB, 16)
			dst.Write(MODER, 0xFFFFFFFF)
			dst.SetLine(2, io.DriveHigh)
			h.edges = nil
			dst.Restore(snap)

			if diff := deep.Equal(dst.Save(), snap); diff != nil {
				t.Fatalf("%s: restored state differs: %v\n%s", test.name, diff, spew.Sdump(dst.Save()))
			}
			for _, r := range Registers {
				if got, want := dst.Read(r.Offset), src.Read(r.Offset); got != want {
					t.Errorf("%s: %s differs after restore. Got %.8X and want %.8X", test.name, r.Name, got, want)
				}
			}
			for pin := 0; pin < 16; pin++ {
				if got, want := dst.drive(pin), src.drive(pin); got != want {
					t.Errorf("%s: pin %d drive differs. Got %s and want %s", test.name, pin, got, want)
				}
			}
			if len(h.edges) != 0 {
				t.Errorf("%s: restore fired edges: %v", test.name, h.edges)
			}
		})
	}
}

func TestRestoreDoesNotResolve(t *testing.T) {
	c, h := setup(t, PortC, 16)
	// An IDR that doesn't match the rest of the state: pin0 is an output
	// with ODR 1 but IDR says 0.
	snap := &Snapshot{MODER: 0x00000001, ODR: 0x00000001, IDR: 0x00000000}
	c.Restore(snap)
	if got, want := c.Read(IDR), uint32(0); got != want {
		t.Fatalf("Restore resolved IDR. Got %.8X and want %.8X", got, want)
	}
	if len(h.edges) != 0 {
		t.Fatalf("Restore fired edges: %v", h.edges)
	}
	// The next trigger resolves and reports the edge.
	c.Write(OTYPER, 0)
	if got, want := c.Read(IDR), uint32(1); got != want {
		t.Errorf("Bad IDR after next write. Got %.8X and want %.8X", got, want)
	}
	if diff := deep.Equal(h.edges, []edge{{0, true}}); diff != nil {
		t.Errorf("Bad edges: %v", diff)
	}
}

func TestSnapshotBinary(t *testing.T) {
	s := &Snapshot{
		MODER:   0x00000001,
		OTYPER:  0x00000002,
		OSPEEDR: 0x00000003,
		PUPDR:   0x00000004,
		IDR:     0x00000005,
		ODR:     0x00000006,
		LCKR:    0x00000007,
		AFRL:    0x00000008,
		AFRH:    0x00000009,
		Driven:  0x0000000A,
		DriveHi: 0x0000000B,
	}
	b, err := s.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if got, want := len(b), SnapshotSize; got != want {
		t.Fatalf("Bad encoded length. Got %d and want %d", got, want)
	}
	// Fields are big endian words in declaration order.
	for i := 0; i < 11; i++ {
		want := []byte{0, 0, 0, byte(i + 1)}
		if got := b[i*4 : i*4+4]; !bytes.Equal(got, want) {
			t.Errorf("Field %d encoded as % X, want % X", i, got, want)
		}
	}
	got := &Snapshot{}
	if err := got.UnmarshalBinary(b); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if diff := deep.Equal(got, s); diff != nil {
		t.Errorf("Decoded snapshot differs: %v", diff)
	}
	if err := got.UnmarshalBinary(b[:SnapshotSize-1]); err == nil {
		t.Error("UnmarshalBinary accepted a short buffer")
	}
}
