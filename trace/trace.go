// Package trace records output edges from a board of GPIO ports and renders
// them as a logic analyzer style waveform, either as an image or as text.
// Time is measured in steps; whoever drives the board calls Advance between
// steps.
package trace

import (
	"fmt"
	"image"
	"image/color"
	"sort"
	"strings"

	"github.com/jmchacon/gpiosim/gpio"
	"golang.org/x/image/draw"
)

// Event is a single output edge.
type Event struct {
	Step  int
	Port  gpio.Port
	Pin   int
	Level bool
}

// Lane identifies one line in a rendering.
type Lane struct {
	Port gpio.Port
	Pin  int
}

func (l Lane) String() string {
	return fmt.Sprintf("%s.%d", l.Port, l.Pin)
}

// Recorder collects edges. It implements board.Observer.
type Recorder struct {
	step   int
	events []Event
}

// PortEdge records an edge at the current step.
func (r *Recorder) PortEdge(p gpio.Port, pin int, level bool) {
	r.events = append(r.events, Event{Step: r.step, Port: p, Pin: pin, Level: level})
}

// Advance moves the recorder to the next step.
func (r *Recorder) Advance() {
	r.step++
}

// Step returns the current step.
func (r *Recorder) Step() int {
	return r.step
}

// Events returns everything recorded so far in arrival order.
func (r *Recorder) Events() []Event {
	return append([]Event(nil), r.events...)
}

// Lanes returns every line that has at least one event, in port then pin
// order.
func Lanes(events []Event) []Lane {
	seen := make(map[Lane]bool)
	var ret []Lane
	for _, e := range events {
		l := Lane{e.Port, e.Pin}
		if !seen[l] {
			seen[l] = true
			ret = append(ret, l)
		}
	}
	sort.Slice(ret, func(i, j int) bool {
		if ret[i].Port != ret[j].Port {
			return ret[i].Port < ret[j].Port
		}
		return ret[i].Pin < ret[j].Pin
	})
	return ret
}

// Levels returns the level of lane at the end of each step in [0, steps).
// Lines start low, the reset level of every output.
func Levels(events []Event, lane Lane, steps int) []bool {
	ret := make([]bool, steps)
	cur := false
	i := 0
	for s := 0; s < steps; s++ {
		for ; i < len(events) && events[i].Step <= s; i++ {
			if events[i].Port == lane.Port && events[i].Pin == lane.Pin {
				cur = events[i].Level
			}
		}
		ret[s] = cur
	}
	return ret
}

const (
	kCELL_WIDTH  = 8 // Pixels per step.
	kLANE_HEIGHT = 12
	kLANE_GAP    = 4
	kHIGH_Y      = 1 // Offset of the high rail within a lane.
	kLOW_Y       = kLANE_HEIGHT - 2
)

var (
	kBACKGROUND = color.NRGBA{0x00, 0x00, 0x00, 0xFF}
	kTRACE      = color.NRGBA{0x00, 0xE0, 0x40, 0xFF}
	kGRID       = color.NRGBA{0x30, 0x30, 0x30, 0xFF}
)

// Render draws one lane per entry in lanes covering steps steps.
func Render(events []Event, lanes []Lane, steps int) *image.NRGBA {
	w := steps * kCELL_WIDTH
	h := len(lanes)*(kLANE_HEIGHT+kLANE_GAP) + kLANE_GAP
	if w == 0 {
		w = 1
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{kBACKGROUND}, image.Point{}, draw.Src)

	for s := 0; s < steps; s++ {
		for y := 0; y < h; y += 2 {
			img.Set(s*kCELL_WIDTH, y, kGRID)
		}
	}
	for n, lane := range lanes {
		top := kLANE_GAP + n*(kLANE_HEIGHT+kLANE_GAP)
		prev := false
		for s, level := range Levels(events, lane, steps) {
			x0 := s * kCELL_WIDTH
			if s > 0 && level != prev {
				for y := top + kHIGH_Y; y <= top+kLOW_Y; y++ {
					img.Set(x0, y, kTRACE)
				}
			}
			y := top + kLOW_Y
			if level {
				y = top + kHIGH_Y
			}
			for x := x0; x < x0+kCELL_WIDTH; x++ {
				img.Set(x, y, kTRACE)
			}
			prev = level
		}
	}
	return img
}

// Scale resizes img by factor with nearest neighbor sampling so edges stay
// sharp.
func Scale(img *image.NRGBA, factor float64) *image.NRGBA {
	if factor == 1.0 {
		return img
	}
	b := img.Bounds()
	d := image.NewNRGBA(image.Rect(0, 0, int(float64(b.Dx())*factor), int(float64(b.Dy())*factor)))
	draw.NearestNeighbor.Scale(d, d.Bounds(), img, b, draw.Over, nil)
	return d
}

// Text renders lanes as one line each, '_' for low and '-' for high with
// '/' and '\' marking the step a transition happened in.
func Text(events []Event, lanes []Lane, steps int) string {
	var sb strings.Builder
	for _, lane := range lanes {
		fmt.Fprintf(&sb, "%-5s ", lane)
		prev := false
		for s, level := range Levels(events, lane, steps) {
			switch {
			case s > 0 && level && !prev:
				sb.WriteByte('/')
			case s > 0 && !level && prev:
				sb.WriteByte('\\')
			case level:
				sb.WriteByte('-')
			default:
				sb.WriteByte('_')
			}
			prev = level
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
