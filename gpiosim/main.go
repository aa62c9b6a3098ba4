// gpiosim runs stimulus scripts against a simulated board of STM32 style
// GPIO ports and reports the resulting register state and output edges.
//
//	gpiosim run blink.gps --png blink.png --wave
//	gpiosim check blink.gps
//	gpiosim regs --port B
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/alecthomas/kong"
)

// Context is handed to every command's Run method.
type Context struct {
	debug bool
}

// logf emits format at the given verbosity. Level 0 is always shown.
func (c *Context) logf(level int, format string, args ...interface{}) {
	if level > CLI.LogLevel {
		return
	}
	log.Printf(format, args...)
}

var CLI struct {
	LogLevel int  `optional help:"Higher values give more output: 1 adds diagnostics, 2 adds every register access."`
	Debug    bool `optional help:"Print every port's registers after each statement."`

	Run   RunCmd   `cmd help:"Run a stimulus script."`
	Check CheckCmd `cmd help:"Parse a stimulus script without running it."`
	Regs  RegsCmd  `cmd help:"Print the GPIO register map."`
}

func main() {
	log.SetFlags(0)
	k, err := kong.New(&CLI,
		kong.NamedMapper("hex", intMapper{base: 16}))
	if err != nil {
		log.Fatalf("Can't build command line: %v", err)
	}

	ctx, err := k.Parse(os.Args[1:])
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	err = ctx.Run(&Context{debug: CLI.Debug})
	ctx.FatalIfErrorf(err)
}
