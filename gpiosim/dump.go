package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jmchacon/gpiosim/board"
)

var modeNames = [...]byte{'i', 'o', 'a', 'x'}

// dumpPorts prints the registers of every port on b with non zero values
// highlighted, followed by a per pin mode/level row.
func dumpPorts(w io.Writer, b *board.Board) {
	red := color.New(color.FgRed)
	for _, c := range b.Ports() {
		r, err := b.Region(c.Port())
		if err != nil {
			continue
		}
		s := c.Save()
		fmt.Fprintf(w, "port %s @ 0x%.8X (%d pins)\n", c.Port(), r.Base, c.Pins())
		regs := []struct {
			name string
			val  uint32
		}{
			{"MODER", s.MODER},
			{"OTYPER", s.OTYPER},
			{"OSPEEDR", s.OSPEEDR},
			{"PUPDR", s.PUPDR},
			{"IDR", s.IDR},
			{"ODR", s.ODR},
			{"LCKR", s.LCKR},
			{"AFRL", s.AFRL},
			{"AFRH", s.AFRH},
			{"driven", s.Driven},
			{"drive", s.DriveHi},
		}
		for _, reg := range regs {
			line := fmt.Sprintf("  %-7s 0x%.8X", reg.name, reg.val)
			if reg.val != 0 {
				red.Fprintln(w, line)
				continue
			}
			fmt.Fprintln(w, line)
		}

		// Highest pin first, like a register diagram.
		var modes, levels []byte
		for pin := c.Pins() - 1; pin >= 0; pin-- {
			modes = append(modes, modeNames[c.Mode(pin)])
			if c.Output(pin) {
				levels = append(levels, '1')
			} else {
				levels = append(levels, '0')
			}
		}
		fmt.Fprintf(w, "  mode    %s\n  level   %s\n", modes, levels)
	}
}
