// Package irq defines the basic interfaces for delivering output line
// changes from a peripheral to whatever is wired downstream of it (an
// interrupt controller, another peripheral's input, a trace recorder).
// Delivery is synchronous: the receiver runs on the caller's stack before
// the peripheral operation that caused the change returns.
package irq

// EdgeReceiver is handed each output level change.
type EdgeReceiver interface {
	// OutputEdge is called with the pin index and its new level.
	OutputEdge(pin int, level bool)
}

// EdgeFunc adapts a plain function to an EdgeReceiver.
type EdgeFunc func(pin int, level bool)

// OutputEdge implements EdgeReceiver.
func (f EdgeFunc) OutputEdge(pin int, level bool) {
	f(pin, level)
}
