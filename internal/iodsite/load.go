// Public domain.

package iodsite

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/soniakeys/unit"
	"gopkg.in/yaml.v3"

	"github.com/soniakeys/angiod/internal/iodobs"
)

// siteFile is the YAML layout of a site file.
type siteFile struct {
	Sites []siteRecord `yaml:"sites"`
}

type siteRecord struct {
	ID     string       `yaml:"id"`
	Number int          `yaml:"number"`
	Name   string       `yaml:"name"`
	LatDeg float64      `yaml:"lat_deg"`
	LonDeg float64      `yaml:"lon_deg"`
	AltKm  float64      `yaml:"alt_km"`
	Bias   errorsRecord `yaml:"bias"`
	Noise  errorsRecord `yaml:"noise"`
}

// errorsRecord gives angles in arc seconds, range in km.
type errorsRecord struct {
	RA        float64 `yaml:"ra_arcsec"`
	Dec       float64 `yaml:"dec_arcsec"`
	Az        float64 `yaml:"az_arcsec"`
	El        float64 `yaml:"el_arcsec"`
	Range     float64 `yaml:"range_km"`
	RangeRate float64 `yaml:"range_rate_kms"`
	AzRate    float64 `yaml:"az_rate_arcsec"`
	ElRate    float64 `yaml:"el_rate_arcsec"`
}

func (r errorsRecord) sensorErrors() iodobs.SensorErrors {
	return iodobs.SensorErrors{
		RA:        unit.AngleFromSec(r.RA),
		Dec:       unit.AngleFromSec(r.Dec),
		Az:        unit.AngleFromSec(r.Az),
		El:        unit.AngleFromSec(r.El),
		Range:     r.Range,
		RangeRate: r.RangeRate,
		AzRate:    unit.AngleFromSec(r.AzRate),
		ElRate:    unit.AngleFromSec(r.ElRate),
	}
}

// ErrNoSites is returned when a site source holds no usable sites.
var ErrNoSites = errors.New("no sites found")

// ReadSites decodes a YAML site file.
func ReadSites(r io.Reader) ([]iodobs.SensorSite, error) {
	var sf siteFile
	if err := yaml.NewDecoder(r).Decode(&sf); err != nil {
		return nil, fmt.Errorf("decode sites: %w", err)
	}
	if len(sf.Sites) == 0 {
		return nil, ErrNoSites
	}
	sites := make([]iodobs.SensorSite, 0, len(sf.Sites))
	for i, rec := range sf.Sites {
		if rec.ID == "" {
			return nil, fmt.Errorf("site %d: missing id", i+1)
		}
		if rec.ID == PassThrough {
			return nil, fmt.Errorf("site %d: id %q is reserved", i+1, PassThrough)
		}
		lat := unit.AngleFromDeg(rec.LatDeg)
		lon := unit.AngleFromDeg(rec.LonDeg)
		sites = append(sites, iodobs.SensorSite{
			ID:     rec.ID,
			Number: rec.Number,
			Name:   rec.Name,
			Lat:    lat,
			Lon:    lon,
			Alt:    rec.AltKm,
			ECEF:   ECEF(lat, lon, rec.AltKm),
			Bias:   rec.Bias.sensorErrors(),
			Noise:  rec.Noise.sensorErrors(),
		})
	}
	return sites, nil
}

// ReadSiteFile reads a YAML site file by name.
func ReadSiteFile(fn string) ([]iodobs.SensorSite, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSites(f)
}
