// Package io defines the basic interfaces for working with single
// digital lines between simulated components. A line is either driven
// low, driven high or released (left for the receiving pin to resolve
// from its own configuration).
package io

import "fmt"

// Drive is the tri-state value an external component asserts on a line.
type Drive int

const (
	DriveRelease Drive = iota // Line is not driven externally.
	DriveLow                  // Line is driven to 0.
	DriveHigh                 // Line is driven to 1.
)

// DriveFor returns DriveHigh for true and DriveLow for false.
func DriveFor(level bool) Drive {
	if level {
		return DriveHigh
	}
	return DriveLow
}

func (d Drive) String() string {
	switch d {
	case DriveRelease:
		return "release"
	case DriveLow:
		return "low"
	case DriveHigh:
		return "high"
	}
	return fmt.Sprintf("Drive(%d)", int(d))
}

// PortIn1 defines a single input line.
type PortIn1 interface {
	// Set asserts the given drive on the line.
	Set(d Drive)
}

// PortOut1 defines a single output line.
type PortOut1 interface {
	// Output returns the current level of the line.
	Output() bool
}
