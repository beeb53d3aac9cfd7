// Public domain.

package iodrun

import (
	"math"

	"github.com/soniakeys/coord"
	"github.com/soniakeys/unit"

	"github.com/soniakeys/angiod/internal/iodobs"
)

// Consistency tolerances.
const (
	PosTol = .01 // km
	VelTol = .01 // km/s
)

// Residual checks one result against the second observation: the state at
// the first observation is propagated to the second epoch and measured
// against the observed line of sight.
type Residual struct {
	Method Method
	Vector coord.Cart // km, perpendicular miss from the line of sight
	Mag    float64    // km
	LOS    unit.Angle // angle to the line of sight
	Pass   bool
}

// VelocityDelta compares one result with the reference result.
type VelocityDelta struct {
	Reference, Method Method
	DV1, DV2          float64 // km/s, at the first and second observation
	Pass              bool
}

// ConsistencyReport holds the advisory checks of a case.  Flags never
// change results.
type ConsistencyReport struct {
	Residuals           []Residual
	Deltas              []VelocityDelta
	Reference           *Method // nil when no iterative method converged
	PropagationMismatch bool
	MethodDisagreement  bool
}

// referenceOrder lists the methods eligible as reference, in preference
// order.
var referenceOrder = []Method{DoubleR, Gooding}

// Check runs the line of sight and cross method checks over converged
// results.  A propagated position more than PosTol from the second line of
// sight sets PropagationMismatch.
func Check(prop PropagationGateway, tr *iodobs.Triplet, results []Result) ConsistencyReport {
	var cr ConsistencyReport
	dt := tr.Obs[1].Epoch.Sub(tr.Obs[0].Epoch)
	l2 := tr.Obs[1].LineOfSight()
	for i := range results {
		r := &results[i]
		if !r.Status.Converged {
			continue
		}
		res := Residual{Method: r.Method}
		p, _, err := prop.Kepler(r.Pos1, r.Vel1, dt)
		if err != nil {
			res.Mag = math.Inf(1)
		} else {
			res.Vector, res.LOS = miss(p, tr.Obs[1].SiteECI, l2)
			res.Mag = iodobs.Norm(res.Vector)
		}
		res.Pass = res.Mag <= PosTol
		if !res.Pass {
			cr.PropagationMismatch = true
		}
		cr.Residuals = append(cr.Residuals, res)
	}

	var ref *Result
	for _, m := range referenceOrder {
		for i := range results {
			if results[i].Method == m && results[i].Status.Converged {
				ref = &results[i]
				break
			}
		}
		if ref != nil {
			break
		}
	}
	if ref == nil {
		return cr
	}
	m := ref.Method
	cr.Reference = &m
	for i := range results {
		r := &results[i]
		if r == ref || !r.Status.Converged {
			continue
		}
		d := VelocityDelta{
			Reference: ref.Method,
			Method:    r.Method,
			DV1:       iodobs.Norm(iodobs.Sub(r.Vel1, ref.Vel1)),
			DV2:       iodobs.Norm(iodobs.Sub(r.Vel, ref.Vel)),
		}
		d.Pass = d.DV1 <= VelTol && d.DV2 <= VelTol
		if !d.Pass {
			cr.MethodDisagreement = true
		}
		cr.Deltas = append(cr.Deltas, d)
	}
	return cr
}

// miss returns the offset of p from the ray leaving site along unit vector
// l, and the angle between l and the direction from site to p.  A point
// behind the site is measured from the site itself.
func miss(p, site, l coord.Cart) (coord.Cart, unit.Angle) {
	d := iodobs.Sub(p, site)
	along := iodobs.Dot(d, l)
	ang := unit.Angle(math.Acos(math.Max(-1, math.Min(1, along/iodobs.Norm(d)))))
	if along <= 0 {
		return d, ang
	}
	return iodobs.Sub(d, iodobs.Scale(l, along)), ang
}
