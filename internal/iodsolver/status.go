// Public domain.

package iodsolver

import (
	"fmt"

	"github.com/soniakeys/coord"
)

// Note qualifies a Status.
type Note int

const (
	NoteNone Note = iota
	NoteNoRoot
	NoteDegenerate
	NoteNonConvergent
	NoteHyperbolic
	NoteMultiRevUnsupported
	NoteNotRun
)

var noteText = [...]string{
	NoteNone:                "",
	NoteNoRoot:              "no root",
	NoteDegenerate:          "degenerate",
	NoteNonConvergent:       "not converged",
	NoteHyperbolic:          "hyperbolic",
	NoteMultiRevUnsupported: "multi-rev unsupported",
	NoteNotRun:              "not run",
}

func (n Note) String() string {
	if n < 0 || int(n) >= len(noteText) {
		return fmt.Sprintf("Note(%d)", int(n))
	}
	return noteText[n]
}

// Status is the outcome of one solver invocation.
//
// A converged solution may still carry a note, NoteHyperbolic for example.
// Iterations is zero for the closed form methods when no refinement ran.
type Status struct {
	Converged  bool
	Iterations int
	Note       Note
	Detail     string
}

// Failed reports whether the solution should not be used.
func (s Status) Failed() bool { return !s.Converged }

func (s Status) String() string {
	var str string
	if s.Converged {
		str = fmt.Sprintf("converged, %d iterations", s.Iterations)
	} else {
		str = fmt.Sprintf("failed after %d iterations", s.Iterations)
	}
	if s.Note != NoteNone {
		str += " (" + s.Note.String() + ")"
	}
	if s.Detail != "" {
		str += ": " + s.Detail
	}
	return str
}

// Solution is a state vector at the epoch of the middle observation.
type Solution struct {
	Pos    coord.Cart // km
	Vel    coord.Cart // km/s
	Status Status
}

func fail(note Note, iter int, format string, a ...interface{}) Solution {
	return Solution{Status: Status{
		Iterations: iter,
		Note:       note,
		Detail:     fmt.Sprintf(format, a...),
	}}
}
