package gpio

import (
	"encoding/binary"
	"fmt"
)

// SnapshotSize is the encoded length of a Snapshot.
const SnapshotSize = 11 * 4

// Snapshot holds the persisted state of a port. Field order is the
// encoding order.
type Snapshot struct {
	MODER   uint32
	OTYPER  uint32
	OSPEEDR uint32
	PUPDR   uint32
	IDR     uint32
	ODR     uint32
	LCKR    uint32
	AFRL    uint32
	AFRH    uint32
	Driven  uint32 // Pins driven externally.
	DriveHi uint32 // Drive values, valid where Driven is set.
}

func (s *Snapshot) fields() []*uint32 {
	return []*uint32{
		&s.MODER, &s.OTYPER, &s.OSPEEDR, &s.PUPDR, &s.IDR, &s.ODR,
		&s.LCKR, &s.AFRL, &s.AFRH, &s.Driven, &s.DriveHi,
	}
}

// Save returns the current state of the port.
func (c *Chip) Save() *Snapshot {
	return &Snapshot{
		MODER:   c.moder,
		OTYPER:  c.otyper,
		OSPEEDR: c.ospeedr,
		PUPDR:   c.pupdr,
		IDR:     c.idr,
		ODR:     c.odr,
		LCKR:    c.lckr,
		AFRL:    c.afrl,
		AFRH:    c.afrh,
		Driven:  c.inMask,
		DriveHi: c.in,
	}
}

// Restore loads s into the port exactly as saved. No resolution pass runs
// and no edges fire; IDR keeps the saved value until the next write or
// line event.
func (c *Chip) Restore(s *Snapshot) {
	c.moder = s.MODER
	c.otyper = s.OTYPER
	c.ospeedr = s.OSPEEDR
	c.pupdr = s.PUPDR
	c.idr = s.IDR
	c.odr = s.ODR
	c.lckr = s.LCKR
	c.afrl = s.AFRL
	c.afrh = s.AFRH
	c.inMask = s.Driven
	c.in = s.DriveHi
}

// MarshalBinary encodes the snapshot as big endian words in field order.
func (s *Snapshot) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, SnapshotSize)
	for _, f := range s.fields() {
		b = binary.BigEndian.AppendUint32(b, *f)
	}
	return b, nil
}

// UnmarshalBinary decodes a snapshot written by MarshalBinary.
func (s *Snapshot) UnmarshalBinary(b []byte) error {
	if len(b) != SnapshotSize {
		return fmt.Errorf("snapshot is %d bytes, want %d", len(b), SnapshotSize)
	}
	for i, f := range s.fields() {
		*f = binary.BigEndian.Uint32(b[i*4:])
	}
	return nil
}
