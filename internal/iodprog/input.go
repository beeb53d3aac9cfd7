// Public domain.

package iodprog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/soniakeys/mpcformat"
	"github.com/soniakeys/observation"
	"github.com/soniakeys/unit"

	"github.com/soniakeys/angiod/internal/iodobs"
)

// ErrBadRecord is returned for an observation line that does not parse.
var ErrBadRecord = errors.New("invalid observation record")

// Record is an input observation with the geodetic fallback used for
// pass-through sites.
type Record struct {
	Obs      iodobs.Observation
	Lat, Lon unit.Angle
	Alt      float64 // km
	Line     int
}

const textTime = "2006-01-02T15:04:05.000Z"

// ReadText reads whitespace delimited observation records, one per line:
//
//	epoch site ra dec pass object [lat lon alt [az el]]
//
// Epoch is RFC 3339 UTC or a modified Julian date.  Angles are degrees,
// alt is km.  Blank lines and lines starting with # are ignored.
func ReadText(r io.Reader, eop iodobs.EOP) ([]Record, error) {
	var recs []Record
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		rec, err := parseText(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		rec.Line = n
		rec.Obs.EOP = eop
		recs = append(recs, rec)
	}
	return recs, sc.Err()
}

func parseText(line string) (rec Record, err error) {
	f := strings.Fields(line)
	if len(f) != 6 && len(f) != 9 && len(f) != 11 {
		return rec, fmt.Errorf("%w: %d fields", ErrBadRecord, len(f))
	}
	if rec.Obs.Epoch, err = parseEpoch(f[0]); err != nil {
		return rec, err
	}
	deg := make([]float64, len(f))
	for _, i := range []int{2, 3, 6, 7, 8, 9, 10} {
		if i >= len(f) {
			break
		}
		if deg[i], err = strconv.ParseFloat(f[i], 64); err != nil {
			return rec, fmt.Errorf("%w: field %d: %v", ErrBadRecord, i+1, err)
		}
	}
	if deg[3] < -90 || deg[3] > 90 {
		return rec, fmt.Errorf("%w: declination %g", ErrBadRecord, deg[3])
	}
	rec.Obs.SiteID = f[1]
	rec.Obs.RA = unit.AngleFromDeg(deg[2])
	rec.Obs.Dec = unit.AngleFromDeg(deg[3])
	rec.Obs.PassID = f[4]
	rec.Obs.ObjectID = f[5]
	if len(f) >= 9 {
		rec.Lat = unit.AngleFromDeg(deg[6])
		rec.Lon = unit.AngleFromDeg(deg[7])
		rec.Alt = deg[8]
	}
	if len(f) == 11 {
		rec.Obs.AzEl = &iodobs.AzEl{
			Az: unit.AngleFromDeg(deg[9]),
			El: unit.AngleFromDeg(deg[10]),
		}
	}
	return rec, nil
}

func parseEpoch(s string) (iodobs.Epoch, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return iodobs.EpochFromTime(t), nil
	}
	mjd, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return iodobs.Epoch{}, fmt.Errorf("%w: epoch %q", ErrBadRecord, s)
	}
	return iodobs.EpochFromMJD(mjd), nil
}

// WriteText writes observations in the ReadText format.  Site geodetic
// coordinates are always written so that the file reads back without a
// site catalog when site ids are "as-given".
func WriteText(w io.Writer, obs []iodobs.Observation) error {
	b := bufio.NewWriter(w)
	b.WriteString("# epoch site ra dec pass object lat lon alt [az el]\n")
	for i := range obs {
		o := &obs[i]
		var lat, lon unit.Angle
		var alt float64
		if o.Site != nil {
			lat, lon, alt = o.Site.Lat, o.Site.Lon, o.Site.Alt
		}
		fmt.Fprintf(b, "%s %s %.9f %.9f %s %s %.7f %.7f %.4f",
			o.Epoch.Time().Format(textTime), o.SiteID, o.RA.Deg(), o.Dec.Deg(),
			o.PassID, o.ObjectID, lat.Deg(), lon.Deg(), alt)
		if o.AzEl != nil {
			fmt.Fprintf(b, " %.6f %.6f", o.AzEl.Az.Deg(), o.AzEl.El.Deg())
		}
		b.WriteByte('\n')
	}
	return b.Flush()
}

// PassGap is the largest time between consecutive MPC observations of one
// pass, seconds.
const PassGap = 12 * 3600

// ReadMPC reads MPC 80 column observations.  The observatory code becomes
// the site id and the designation the object id.  An arc is split into
// passes "<desig>-<n>" wherever consecutive observations are more than
// PassGap apart.  Arcs that do not parse are skipped.
func ReadMPC(r io.Reader, ocd observation.ParallaxMap, eop iodobs.EOP) ([]Record, error) {
	var recs []Record
	for s := mpcformat.ArcSplitter(r, ocd); ; {
		a, err := s()
		if err == io.EOF {
			return recs, nil
		}
		if err != nil {
			if _, ok := err.(mpcformat.ArcError); ok {
				continue
			}
			return nil, err
		}
		arc := make([]Record, len(a.Obs))
		for i, o := range a.Obs {
			m := o.Meas()
			arc[i] = Record{Obs: iodobs.Observation{
				Epoch:    iodobs.EpochFromMJD(m.MJD),
				RA:       unit.Angle(m.Equa.RA),
				Dec:      m.Equa.Dec,
				SiteID:   m.Qual,
				ObjectID: a.Desig,
				EOP:      eop,
			}}
		}
		splitPasses(arc, a.Desig, PassGap)
		recs = append(recs, arc...)
	}
}

// splitPasses numbers the passes of one object's time ordered records,
// starting a new pass after any gap longer than gap seconds.
func splitPasses(recs []Record, desig string, gap float64) {
	n := 1
	for i := range recs {
		if i > 0 && recs[i].Obs.Epoch.Sub(recs[i-1].Obs.Epoch) > gap {
			n++
		}
		recs[i].Obs.PassID = fmt.Sprintf("%s-%d", desig, n)
	}
}
