// Public domain.

// Package iodprog is the angiod command: flag and batch file handling,
// input decoding and wiring of the IOD engine to its outputs.
package iodprog

import (
	"github.com/soniakeys/exit"
)

// Main runs the command.  Fatal errors are logged and set the exit code.
func Main() {
	defer exit.Handler()

	if err := NewRootCmd().Execute(); err != nil {
		exit.Log(err)
	}
}
