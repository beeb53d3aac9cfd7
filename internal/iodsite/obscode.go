// Public domain.

package iodsite

import (
	"bufio"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/soniakeys/coord"
	"github.com/soniakeys/unit"

	"github.com/soniakeys/angiod/internal/iodobs"
)

// ReadObscodes reads sites from an MPC obscode.dat file.
//
// Files as published have column headings and an enclosing <pre> tag.
// Lines that do not parse as data are quietly ignored, as are codes with
// both parallax constants zero (space based or roving observers), which
// have no fixed position.
//
// Site numbers are the line's position among the accepted sites, starting
// at 1.
func ReadObscodes(r io.Reader) ([]iodobs.SensorSite, error) {
	var sites []iodobs.SensorSite
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if len(line) < 30 {
			continue // quietly ignore extraneous lines such as <pre>
		}
		lon, ok := parseField(line[4:13], 0, 360)
		if !ok {
			// quietly ignore lines with invalid longitude,
			// such as the column heading line.
			continue
		}
		rhoCosPhi, ok := parseField(line[13:21], 0, 1)
		if !ok {
			continue
		}
		rhoSinPhi, ok := parseField(line[21:30], -1, 1)
		if !ok {
			continue
		}
		if rhoCosPhi == 0 && rhoSinPhi == 0 {
			continue
		}
		sl, cl := math.Sincos(lon * math.Pi / 180)
		r := coord.Cart{
			X: WGS84.Er * rhoCosPhi * cl,
			Y: WGS84.Er * rhoCosPhi * sl,
			Z: WGS84.Er * rhoSinPhi,
		}
		lat, _, alt := Geodetic(r)
		sites = append(sites, iodobs.SensorSite{
			ID:     line[0:3],
			Number: len(sites) + 1,
			Name:   strings.TrimSpace(line[30:]),
			Lat:    lat,
			Lon:    unit.AngleFromDeg(lon),
			Alt:    alt,
			ECEF:   r,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(sites) == 0 {
		return nil, ErrNoSites
	}
	return sites, nil
}

// ReadObscodeFile reads an MPC obscode.dat file by name.
func ReadObscodeFile(fn string) ([]iodobs.SensorSite, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadObscodes(f)
}

// parseField parses a fixed column number.  Blank fields default to 0.
func parseField(f string, min, max float64) (float64, bool) {
	ts := strings.TrimSpace(f)
	if len(ts) == 0 {
		return 0, true
	}
	v, err := strconv.ParseFloat(ts, 64)
	if err != nil || v < min || v > max {
		return 0, false
	}
	return v, true
}
