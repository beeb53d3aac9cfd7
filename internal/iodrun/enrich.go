// Public domain.

package iodrun

import (
	"fmt"

	"github.com/soniakeys/coord"
	"github.com/soniakeys/unit"

	"github.com/soniakeys/angiod/internal/iodobs"
)

// SiteResolver maps a site identifier to a sensor site.
type SiteResolver interface {
	Resolve(id string, lat, lon unit.Angle, alt float64) (*iodobs.SensorSite, error)
}

// FrameGateway converts between Earth fixed and inertial frames.
type FrameGateway interface {
	InertialFromFixed(pos, vel coord.Cart, ep iodobs.Epoch, eop iodobs.EOP) (coord.Cart, coord.Cart)
	FixedFromInertial(pos, vel coord.Cart, ep iodobs.Epoch, eop iodobs.EOP) (coord.Cart, coord.Cart)
}

// Enricher attaches sites and inertial site vectors to observations.
type Enricher struct {
	Sites SiteResolver
	Frame FrameGateway
}

// Enrich resolves the site of o and sets its Earth fixed and inertial
// positions.  lat, lon and alt are used only for pass-through sites.
func (e *Enricher) Enrich(o *iodobs.Observation, lat, lon unit.Angle, alt float64) error {
	s, err := e.Sites.Resolve(o.SiteID, lat, lon, alt)
	if err != nil {
		return fmt.Errorf("observation at %s: %w", o.Epoch.Time().Format(timeLayout), err)
	}
	o.Site = s
	o.SiteECEF = s.ECEF
	o.SiteECI, o.SiteVECI = e.Frame.InertialFromFixed(s.ECEF, s.VECEF, o.Epoch, o.EOP)
	return nil
}
