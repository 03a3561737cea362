// Package io provides the console device of the floating-point machine.
// The console connects the PRINT and READ opcodes to byte streams.
package io

import (
	"github.com/ezrec/fpvm/cpu"
)

// Channel is a console device that can be restarted between runs.
type Channel interface {
	cpu.Console
	// Rewind resets the channel to its initial state.
	Rewind()
}

var _ Channel = (*Console)(nil)
