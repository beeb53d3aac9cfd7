// Public domain.

package iodreport

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/soniakeys/angiod/internal/iodrun"
)

// Batch describes the run that produced a set of reports.
type Batch struct {
	Input   string
	Methods iodrun.MethodSet
	Started time.Time
	Elapsed time.Duration
}

// Tally holds batch totals.
type Tally struct {
	Cases, Skipped, Clamped int
	Mismatch, Disagree      int
	Converged, Failed       [4]int // by method
}

// Count totals reps.
func Count(reps []iodrun.CaseReport) (t Tally) {
	for i := range reps {
		r := &reps[i]
		t.Cases++
		if r.Skipped() {
			t.Skipped++
			continue
		}
		if r.Range.Clamped {
			t.Clamped++
		}
		if r.Consistency.PropagationMismatch {
			t.Mismatch++
		}
		if r.Consistency.MethodDisagreement {
			t.Disagree++
		}
		for _, res := range r.Results {
			if res.Status.Converged {
				t.Converged[res.Method]++
			} else {
				t.Failed[res.Method]++
			}
		}
	}
	return
}

// WriteMarkdown writes a markdown overview of a batch.
func WriteMarkdown(w io.Writer, b Batch, reps []iodrun.CaseReport) error {
	t := Count(reps)
	md := markdown.NewMarkdown(w)
	md.H1("angiod batch summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Input", "`" + b.Input + "`"},
			{"Methods", b.Methods.String()},
			{"Started", b.Started.UTC().Format("2006-01-02 15:04:05 MST")},
			{"Elapsed", b.Elapsed.Round(time.Millisecond).String()},
			{"Cases", strconv.Itoa(t.Cases)},
			{"Skipped", strconv.Itoa(t.Skipped)},
			{"Range clamped", strconv.Itoa(t.Clamped)},
		},
	})
	md.PlainText("")

	md.H2("Methods")
	md.PlainText("")
	var rows [][]string
	for _, m := range b.Methods.Methods() {
		rows = append(rows, []string{
			m.String(), strconv.Itoa(t.Converged[m]), strconv.Itoa(t.Failed[m]),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Method", "Converged", "Failed"},
		Rows:   rows,
	})
	md.PlainText("")
	if t.Cases > t.Skipped {
		chart := piechart.NewPieChart(io.Discard,
			piechart.WithTitle("Method outcomes"),
			piechart.WithShowData(true),
		)
		var conv, fail int
		for m := range t.Converged {
			conv += t.Converged[m]
			fail += t.Failed[m]
		}
		chart.LabelAndIntValue("Converged", uint64(conv))
		if fail > 0 {
			chart.LabelAndIntValue("Failed", uint64(fail))
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	md.H2("Consistency")
	md.PlainText("")
	switch {
	case t.Mismatch > 0:
		md.Warningf("%d case(s) missed the second line of sight after propagation.", t.Mismatch)
	case t.Disagree > 0:
		md.Importantf("%d case(s) show methods disagreeing in velocity.", t.Disagree)
	case t.Cases == t.Skipped:
		md.Note("No case was solved.")
	default:
		md.Tip("All converged methods passed the consistency checks.")
	}
	md.PlainText("")

	md.H2("Cases")
	md.PlainText("")
	rows = nil
	for i := range reps {
		rows = append(rows, caseRow(&reps[i]))
	}
	md.Table(markdown.TableSet{
		Header: []string{"Case", "Range (km)", "Converged", "Reference", "Flags"},
		Rows:   rows,
	})
	return md.Build()
}

func caseRow(r *iodrun.CaseReport) []string {
	if r.Skipped() {
		return []string{r.Name, "-", "-", "-", "skipped: " + r.Err.Error()}
	}
	rng := fmt.Sprintf("%.1f", r.Range.Guess)
	if r.Range.Clamped {
		rng += " (clamped)"
	}
	conv := 0
	for _, res := range r.Results {
		if res.Status.Converged {
			conv++
		}
	}
	ref := "-"
	if r.Consistency.Reference != nil {
		ref = r.Consistency.Reference.String()
	}
	flags := "-"
	switch {
	case r.Consistency.PropagationMismatch && r.Consistency.MethodDisagreement:
		flags = "mismatch, disagreement"
	case r.Consistency.PropagationMismatch:
		flags = "mismatch"
	case r.Consistency.MethodDisagreement:
		flags = "disagreement"
	}
	return []string{r.Name, rng, fmt.Sprintf("%d/%d", conv, len(r.Results)), ref, flags}
}
