package script

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/jmchacon/gpiosim/gpio"
	"github.com/pkg/errors"
)

// Script is a parsed stimulus file.
type Script struct {
	Stmts []*Stmt `EOL* ( @@ EOL+ )*`
}

// Stmt is a single line of a script. Exactly one field is set.
type Stmt struct {
	Pos lexer.Position

	Port    *PortStmt    `  "port" @@`
	Wire    *WireStmt    `| "wire" @@`
	Unwire  *PinRef      `| "unwire" @@`
	Write   *WriteStmt   `| "write" @@`
	Read    *Target      `| "read" @@`
	Expect  *ExpectStmt  `| "expect" @@`
	Drive   *DriveStmt   `| "drive" @@`
	Reset   *PortRef     `| "reset" @@`
	Save    *SlotStmt    `| "save" @@`
	Restore *SlotStmt    `| "restore" @@`
	Peek    *Number      `| "peek" @@`
	Poke    *PokeStmt    `| "poke" @@`
}

// PortRef names a port by its letter.
type PortRef struct {
	Name string `@Ident`
}

// Port resolves the letter to a gpio.Port.
func (p *PortRef) Port() (gpio.Port, error) {
	return gpio.ParsePort(p.Name)
}

// PinRef names a single line such as "A.5".
type PinRef struct {
	Port PortRef `@@ "."`
	Pin  int     `@Int`
}

// Number is an unsigned literal in decimal, 0x hex or 0b binary.
type Number struct {
	Text string `@( Hex | Bin | Int )`
}

// Value returns the number as a 32 bit word. Plain digits are always
// decimal, a leading 0 does not mean octal.
func (n *Number) Value() (uint32, error) {
	base := 10
	if len(n.Text) > 1 && n.Text[0] == '0' && strings.ContainsRune("xXbB", rune(n.Text[1])) {
		base = 0
	}
	v, err := strconv.ParseUint(n.Text, base, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "bad number %q", n.Text)
	}
	return uint32(v), nil
}

// Target is a register of a port, by name ("ODR") or by offset ("0x14").
type Target struct {
	Port PortRef `@@`
	Reg  string  `@( Ident | Hex | Bin | Int )`
}

// Offset resolves the register to its offset and a printable name.
func (t *Target) Offset() (uint32, string, error) {
	if c := t.Reg[0]; c >= '0' && c <= '9' {
		n := &Number{t.Reg}
		off, err := n.Value()
		if err != nil {
			return 0, "", err
		}
		return off, fmt.Sprintf("0x%.3X", off), nil
	}
	name := strings.ToUpper(t.Reg)
	off, ok := gpio.RegisterOffset(name)
	if !ok {
		return 0, "", errors.Errorf("unknown register %q", t.Reg)
	}
	return off, name, nil
}

// PortStmt declares a port on the board.
type PortStmt struct {
	Port PortRef `@@`
	Pins *int    `( "pins" @Int )?`
}

// WireStmt connects an output line to an input line.
type WireStmt struct {
	From PinRef `@@ Arrow`
	To   PinRef `@@`
}

// WriteStmt writes a register.
type WriteStmt struct {
	Target Target `@@`
	Value  Number `@@`
}

// ExpectStmt checks a register, optionally under a mask.
type ExpectStmt struct {
	Target Target  `@@`
	Value  Number  `@@`
	Mask   *Number `( "mask" @@ )?`
}

// DriveStmt asserts an external drive on a line.
type DriveStmt struct {
	Pin   PinRef `@@`
	Level string `@( "high" | "low" | "release" )`
}

// SlotStmt saves or restores a port snapshot under a name.
type SlotStmt struct {
	Port PortRef `@@`
	Slot string  `@Ident`
}

// PokeStmt writes an absolute board address.
type PokeStmt struct {
	Addr  Number `@@`
	Value Number `@@`
}
