/*
Command angiod computes initial orbits from angle-only observations.

Contents

  Program overview
  Command line usage
  Batch file
  File formats
  Algorithm outline


Program overview

Input is a file of optical observations: time, observing site, right
ascension and declination.  Output is, for each selected triplet of
observations, the geocentric position and velocity at the middle
observation from up to four classical methods, their orbital elements,
and a check of how well the answers agree with each other.

Sample run, with observations simulated from a two-line element set:

  angiod simulate --sites sites.yaml --site SIM \
    --start 2008-09-20T12:30:00Z --duration 10m --step 10s -o iss.txt iss.tle
  angiod run --sites sites.yaml --summary summary.txt iss.txt

The verbose report goes to standard output.  The summary holds one line per
method and one check line per case:

  25544  laplace  C  0  a   6732.180  e 0.001842  i  51.6408
  25544  gauss    C  3  a   6723.402  e 0.000711  i  51.6412
  25544  doubler  C  7  a   6723.398  e 0.000709  i  51.6412
  25544  gooding  C  4  a   6723.398  e 0.000709  i  51.6412
  25544  check    ref doubler  flags none

C marks a converged method, F a failed one, followed by the iteration count.
A failed method shows the reason, for example "no root" or "not converged".


Command line usage

  angiod run [flags] <observations>
  angiod simulate [flags] <tle file>
  angiod sites [flags]
  angiod version

Run flags select the methods (--methods), concurrency (--workers), the
Double-r perturbation (--doubler-pct) and the outputs: --summary,
--markdown for a batch summary document, --store for a SQLite result
history, --metrics for a Prometheus textfile, and --trace for per case
spans on standard error.  Flags override values in the batch file given
with -c.  --log-level and --log-format apply to every command.


Batch file

The batch file is YAML:

  methods: [all]
  doubler_pct: 5
  workers: 1
  sites_file: sites.yaml
  obscode_file: obscode.dat
  eop: {dut1: 0.1, dat: 37, xp_arcsec: 0.1, yp_arcsec: 0.3}
  log: {level: info, format: text}
  output: {summary: summary.txt, markdown: batch.md, store: default}
  cases:
    - name: leo-1
      obs: [0, 1, 2]
    - name: sweep
      policy: scan
      track: 2
      fixed: [7, 9]
    - name: nights
      policy: midpoints
      tracks: [0, 3, 5]

Observation indexes count from zero in file order.  Track indexes count
the tracks formed from the file.  A fixed case names three observations.
A scan case tries every member of a track with two fixed observations, one
case per member.  A midpoints case takes the middle observation of three
tracks.  With no cases listed, each three consecutive tracks of an object
make a midpoints case; an object seen in fewer tracks gets one case from
the first, middle and last observation of its longest track.

Store "default" is $XDG_DATA_HOME/angiod.


File formats

Observations are one per line, fields separated by white space:

  epoch site ra dec pass object [lat lon alt [az el]]

Epoch is RFC 3339 UTC or a modified Julian date.  Angles are degrees, alt
is km.  Lines starting with # are comments.  Consecutive lines with the
same pass identifier form a track.  The site "as-given" uses the lat, lon
and alt of the line; any other site must be in the site catalog.

With --format mpc the input is MPC 80 column observations.  The
observatory code is the site.  Observations of one designation more than
12 hours apart start a new pass.

The site file is YAML:

  sites:
    - id: ATF
      number: 1
      name: test facility
      lat_deg: 40
      lon_deg: -105
      alt_km: 1.6
      bias: {ra_arcsec: 0, dec_arcsec: 0}
      noise: {ra_arcsec: 1, dec_arcsec: 1}

An MPC obscode.dat file adds its ground based observatories to the same
catalog.  Site file entries win over observatory codes.


Algorithm outline

1.  Observations are enriched with the Earth fixed and inertial position of
their site.  The inertial frame is reached through polar motion, sidereal
rotation and IAU 1980 nutation and precession, with Earth orientation from
the batch file.

2.  Tracks are sealed on each change of pass identifier.  Each track gets a
great circle fit whose residual is the angular error reported for its
observations, unless the sensor noise is larger.

3.  A case's observations are put in time order.  Two equal times end the
case.

4.  The root of the Gauss eighth degree polynomial gives a range guess.  A
guess that is not positive or exceeds 75000 km, or a failed root, becomes
40000 km and the case is marked clamped.  Seeds of 1, 1.02 and 1.08 times the guess
bracket the search.  Observations more than a day apart hint at two half
revolutions.

5.  Laplace, Gauss, Double-r and Gooding run in that order.  Each answer is
propagated back to the first observation and converted to classical and
equinoctial elements.

6.  Each answer is propagated from the first observation to the second and
measured against the second line of sight; a miss of more than 10 m flags a
propagation mismatch.  The first converged of
Double-r and Gooding is the reference; velocities of other methods more than
10 m/s from it at either end flag a method disagreement.  Flags are
advisory.

-------------
Public domain.
*/
package main
