// Public domain.

package iodrun

import (
	"fmt"
	"math"
	"strings"

	"github.com/soniakeys/coord"
	sexa "github.com/soniakeys/sexagesimal"
	"github.com/soniakeys/unit"

	"github.com/soniakeys/angiod/internal/iodobs"
	"github.com/soniakeys/angiod/internal/iodsolver"
	"github.com/soniakeys/angiod/internal/iodtrack"
)

const timeLayout = "2006-01-02 15:04:05.000"

func deg(rad float64) float64 { return rad * 180 / math.Pi }

func fmtVec(v coord.Cart, prec int) string {
	return fmt.Sprintf("%.*f %.*f %.*f", prec, v.X, prec, v.Y, prec, v.Z)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// verboseCase returns the heading block of a case: the observations and
// the range guess.
func verboseCase(c *Case, tr *iodobs.Triplet, rg *RangeGuess) []string {
	lines := []string{"case " + c.Name}
	for i, o := range tr.Obs {
		site := o.SiteID
		if o.Site != nil && o.Site.Name != "" {
			site += " (" + o.Site.Name + ")"
		}
		var noise unit.Angle
		if o.Site != nil {
			noise = o.Site.Noise.RA
		}
		eff := iodtrack.EffectiveError(noise, c.rmsOf(o))
		lines = append(lines, fmt.Sprintf("  obs %d  %s  RA %.2d  Dec %.1d  site %s  pass %s  err %.2f\"",
			i+1, o.Epoch.Time().Format(timeLayout),
			sexa.FmtRA(unit.RAFromRad(o.RA.Rad())), sexa.FmtAngle(o.Dec),
			site, o.PassID, eff.Sec()))
	}
	tau1, tau3 := tr.Tau()
	lines = append(lines, fmt.Sprintf("  same site %s  tau1 %.3f s  tau3 %.3f s",
		yesNo(tr.SameSite), tau1, tau3))
	lines = append(lines, fmt.Sprintf("  range guess %.3f km  bracket %.3f %.3f %.3f  days %d %d %d  half revs %d",
		rg.Guess, rg.Bracket[0], rg.Bracket[1], rg.Bracket[2],
		rg.DayCounts[0], rg.DayCounts[1], rg.DayCounts[2], rg.HalfRevs))
	if rg.Clamped {
		raw := fmt.Sprintf("%.3f km", rg.Raw)
		if rg.RawErr != nil {
			raw = rg.RawErr.Error()
		}
		lines = append(lines, fmt.Sprintf("  range clamped to %d km (raw %s)", DefaultRange, raw))
	}
	return lines
}

// verboseResult returns the block for one method.
func verboseResult(r *Result) []string {
	lines := []string{fmt.Sprintf("%-8s %s", r.Method, r.Status)}
	if !r.Status.Converged {
		return lines
	}
	lines = append(lines,
		"  r2 "+fmtVec(r.Pos, 3)+" km  v2 "+fmtVec(r.Vel, 6)+" km/s",
		"  r1 "+fmtVec(r.Pos1, 3)+" km  v1 "+fmtVec(r.Vel1, 6)+" km/s",
		"  h  "+fmtVec(r.H, 3)+" km²/s")
	if r.ElemErr != nil {
		return append(lines, "  elements: "+r.ElemErr.Error())
	}
	c := &r.Classical
	lines = append(lines, fmt.Sprintf(
		"  a %.3f km  e %.6f  i %.4f  raan %.4f  argp %.4f  nu %.4f  M %.4f  u %.4f",
		c.A, c.Ecc, deg(c.Incl), deg(c.RAAN), deg(c.ArgP), deg(c.Nu), deg(c.M), deg(c.ArgLat)))
	q := &r.Equinoctial
	lines = append(lines, fmt.Sprintf(
		"  n %.9f  af %.6f  ag %.6f  chi %.6f  psi %.6f  lM %.4f  lnu %.4f  fr %d",
		q.N, q.AF, q.AG, q.Chi, q.Psi, deg(q.MeanLonM), deg(q.MeanLonNu), q.Fr))
	return lines
}

// summaryResult is the one line summary of a method.
func summaryResult(r *Result) string {
	code := "F"
	if r.Status.Converged {
		code = "C"
	}
	s := fmt.Sprintf("%-8s %s %2d", r.Method, code, r.Status.Iterations)
	switch {
	case !r.Status.Converged:
		s += "  " + r.Status.Note.String()
	case r.ElemErr != nil:
		s += "  no elements"
	default:
		s += fmt.Sprintf("  a %10.3f  e %.6f  i %8.4f", r.Classical.A, r.Classical.Ecc, deg(r.Classical.Incl))
		if r.Status.Note != iodsolver.NoteNone {
			s += "  " + r.Status.Note.String()
		}
	}
	return s
}

// verboseCheck returns the consistency block.
func verboseCheck(cr *ConsistencyReport) []string {
	lines := []string{"consistency"}
	for _, r := range cr.Residuals {
		lines = append(lines, fmt.Sprintf("  %-8s miss %.6f km  los %.2f\"  %s",
			r.Method, r.Mag, r.LOS.Sec(), passText(r.Pass)))
	}
	if cr.Reference == nil {
		lines = append(lines, "  no converged reference method")
	}
	for _, d := range cr.Deltas {
		lines = append(lines, fmt.Sprintf("  %-8s vs %s  dv1 %.6f  dv2 %.6f km/s  %s",
			d.Method, d.Reference, d.DV1, d.DV2, passText(d.Pass)))
	}
	return append(lines, "  flags: "+flagText(cr))
}

func summaryCheck(cr *ConsistencyReport) string {
	ref := "none"
	if cr.Reference != nil {
		ref = cr.Reference.String()
	}
	return fmt.Sprintf("check    ref %s  flags %s", ref, flagText(cr))
}

func passText(ok bool) string {
	if ok {
		return "ok"
	}
	return "FAIL"
}

func flagText(cr *ConsistencyReport) string {
	var f []string
	if cr.PropagationMismatch {
		f = append(f, "propagation-mismatch")
	}
	if cr.MethodDisagreement {
		f = append(f, "method-disagreement")
	}
	if len(f) == 0 {
		return "none"
	}
	return strings.Join(f, " ")
}
