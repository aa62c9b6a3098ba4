package main

import (
	"fmt"

	"github.com/jmchacon/gpiosim/script"
)

type CheckCmd struct {
	Script string `arg name:"script" help:"Stimulus script to check."`
}

func (k *CheckCmd) Run(c *Context) error {
	p, err := script.NewParser()
	if err != nil {
		return err
	}
	s, err := p.ParseFile(k.Script)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d statements\n", k.Script, len(s.Stmts))
	return nil
}
