package main

import (
	"fmt"

	"github.com/jmchacon/gpiosim/board"
	"github.com/jmchacon/gpiosim/gpio"
)

type RegsCmd struct {
	Port string `optional help:"Port letter to compute absolute addresses for." default:"A"`
	Base int    `optional type:"hex" help:"Address of port A." default:"40020000"`
}

func (g *RegsCmd) Run(c *Context) error {
	p, err := gpio.ParsePort(g.Port)
	if err != nil {
		return err
	}
	base := uint32(g.Base) + uint32(p)*gpio.Size
	if uint32(g.Base) != board.Base {
		c.logf(1, "using non default base 0x%.8X", g.Base)
	}
	fmt.Printf("port %s @ 0x%.8X\n", p, base)
	for _, r := range gpio.Registers {
		access := "rw"
		switch r.Offset {
		case gpio.IDR:
			access = "ro"
		case gpio.BSRR:
			access = "wo"
		}
		fmt.Printf("  0x%.3X  0x%.8X  %-7s %s\n", r.Offset, base+r.Offset, r.Name, access)
	}
	return nil
}
