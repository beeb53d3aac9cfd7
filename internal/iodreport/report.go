// Public domain.

// Package iodreport writes the outputs of a batch: the verbose log, the
// compact summary log and a markdown overview.
package iodreport

import (
	"bufio"
	"io"

	"github.com/soniakeys/angiod/internal/iodrun"
)

// Lines concatenates the report lines of reps in case order.
func Lines(reps []iodrun.CaseReport) (verbose, summary []string) {
	for i := range reps {
		verbose = append(verbose, reps[i].Verbose...)
		summary = append(summary, reps[i].Summary...)
	}
	return
}

// WriteVerbose writes the verbose log, cases separated by a blank line.
func WriteVerbose(w io.Writer, reps []iodrun.CaseReport) error {
	b := bufio.NewWriter(w)
	for i := range reps {
		if i > 0 {
			b.WriteByte('\n')
		}
		for _, l := range reps[i].Verbose {
			b.WriteString(l)
			b.WriteByte('\n')
		}
	}
	return b.Flush()
}

// WriteSummary writes the summary log.
func WriteSummary(w io.Writer, reps []iodrun.CaseReport) error {
	b := bufio.NewWriter(w)
	_, summary := Lines(reps)
	for _, l := range summary {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.Flush()
}
