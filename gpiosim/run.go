package main

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/jmchacon/gpiosim/board"
	"github.com/jmchacon/gpiosim/gpio"
	"github.com/jmchacon/gpiosim/script"
	"github.com/jmchacon/gpiosim/trace"
	"github.com/pkg/errors"
)

type RunCmd struct {
	Script string  `arg name:"script" help:"Stimulus script to run."`
	PNG    string  `optional name:"png" help:"Write a waveform of every output edge to this file."`
	Scale  float64 `optional help:"Scale factor for the waveform image." default:"4"`
	Wave   bool    `optional help:"Print a text waveform after the run."`
	Quiet  bool    `optional help:"Don't dump port registers after the run."`
}

func (r *RunCmd) Run(c *Context) error {
	p, err := script.NewParser()
	if err != nil {
		return err
	}
	s, err := p.ParseFile(r.Script)
	if err != nil {
		return err
	}

	rec := &trace.Recorder{}
	b, err := board.New(&board.Def{
		Diag: func(err error) {
			c.logf(1, "diag: %v", err)
		},
		Trace: func(a gpio.Access) {
			c.logf(2, "%v", a)
		},
		Debug: c.debug,
	})
	if err != nil {
		return err
	}
	b.Observe(rec)

	run := script.NewRunner(b, os.Stdout)
	run.AfterStmt = func(step int) {
		rec.Advance()
		for _, chip := range b.Ports() {
			fmt.Print(chip.Debug())
		}
	}
	runErr := run.Run(s)

	// Dump whatever state was reached even if the script stopped early.
	if !r.Quiet {
		dumpPorts(os.Stdout, b)
	}
	events := rec.Events()
	lanes := trace.Lanes(events)
	if r.Wave {
		fmt.Print(trace.Text(events, lanes, run.Steps()))
	}
	if r.PNG != "" {
		if err := writePNG(r.PNG, trace.Scale(trace.Render(events, lanes, run.Steps()), r.Scale)); err != nil {
			return err
		}
	}
	return runErr
}

func writePNG(path string, img image.Image) error {
	o, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "can't create waveform")
	}
	if err := png.Encode(o, img); err != nil {
		o.Close()
		return errors.Wrapf(err, "can't encode %s", path)
	}
	return errors.Wrapf(o.Close(), "can't write %s", path)
}
