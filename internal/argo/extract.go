package argo

import (
	"errors"
	"log"
	"math"
	"math/rand"
	"path/filepath"
	"strings"
	"time"
)

// extract.go - Per-file measurement extraction
//
// One NetCDF profile file yields zero or more Records. Required
// coordinates (time, latitude/longitude, pressure) are resolved through
// ordered alias lists; a file missing any of them yields nothing.
// Individual malformed (profile, level) entries are skipped without
// failing the file, and any file-level failure is converted to an empty
// result at the ExtractFile boundary so the batch continues.

// QC flags accepted when a quality-control variable accompanies a value:
// '1' = good, '2' = probably good.
const (
	qcGood         = '1'
	qcProbablyGood = '2'
)

// phBaseline and phNoise parameterize the estimated pH synthesized when
// both temperature and salinity are present. This is a placeholder
// heuristic, not a carbonate-chemistry model.
const (
	phBaseline = 8.1
	phNoise    = 0.1
)

// Extractor turns one opened dataset into a flat record sequence.
type Extractor struct {
	// Vars lists the oceanographic variables to retain (TEMP, PSAL, DOXY).
	Vars []string
}

// NewExtractor returns an extractor for the default variable set.
func NewExtractor() *Extractor {
	return &Extractor{Vars: DefaultVars}
}

// ExtractFile opens path and extracts its records. Open failures and
// extraction failures are logged and produce an empty result; the
// caller proceeds to the next file.
func (e *Extractor) ExtractFile(path string) []Record {
	name := filepath.Base(path)

	src, err := OpenNetCDF(path)
	if err != nil {
		log.Printf("[%s] open error: %v", name, err)
		return nil
	}
	defer src.Close()

	recs, err := e.Extract(src)
	if err != nil {
		log.Printf("[%s] extract error: %v", name, err)
		return nil
	}

	log.Printf("[%s] extracted %d valid measurements", name, len(recs))
	return recs
}

// Extract pulls all valid measurements out of one dataset. It returns
// an error only when a required coordinate is missing under every alias;
// malformed individual entries are skipped silently.
func (e *Extractor) Extract(src Source) ([]Record, error) {
	times, ok := resolveTimes(src, TimeAliases)
	if !ok {
		return nil, errors.New("no time coordinate under any alias")
	}

	lat, ok := resolveGrid(src, LatitudeAliases)
	if !ok {
		return nil, errors.New("no latitude coordinate under any alias")
	}
	lon, ok := resolveGrid(src, LongitudeAliases)
	if !ok {
		return nil, errors.New("no longitude coordinate under any alias")
	}

	pres, ok := resolveGrid(src, PressureAliases)
	if !ok {
		return nil, errors.New("no pressure variable under any alias")
	}

	platforms := platformIDs(src)

	var recs []Record
	emit := func(i, j int) {
		p := pres.At(i, j)
		if math.IsNaN(p) || p < 0 {
			return
		}
		if rec, ok := e.record(src, i, j, p, platforms, times, lat, lon); ok {
			recs = append(recs, rec)
		}
	}

	// Multi-profile files carry a (profile, level) pressure matrix;
	// single-profile files carry one level vector.
	if pres.TwoD {
		for i := range pres.Rows {
			for j := range pres.Rows[i] {
				emit(i, j)
			}
		}
	} else {
		for j := 0; j < pres.NumLevels(0); j++ {
			emit(0, j)
		}
	}

	return recs, nil
}

// record builds one measurement for (profile, level). Returns false for
// entries with unresolvable coordinates or no oceanographic variables.
func (e *Extractor) record(src Source, i, j int, pressure float64, platforms []string, times []time.Time, lat, lon Grid) (Record, bool) {
	latV := coordAt(lat, i)
	lonV := coordAt(lon, i)
	if math.IsNaN(latV) || math.IsNaN(lonV) {
		return Record{}, false
	}

	rec := Record{
		FloatID:   platformAt(platforms, i),
		Latitude:  latV,
		Longitude: lonV,
		Time:      timeAt(times, i),
		Pressure:  pressure,
		Depth:     pressure, // pressure in decibar approximates depth in meters
		Region:    ClassifyRegion(latV, lonV),
	}

	valid := 0
	for _, name := range e.Vars {
		grid, ok := src.Floats(name)
		if !ok {
			continue
		}
		val := safeAt(grid, i, j)
		if math.IsNaN(val) {
			continue
		}
		if flags, ok := src.Strings(name + "_QC"); ok {
			if f := flagAt(flags, i, j); f != qcGood && f != qcProbablyGood {
				continue
			}
		}
		switch name {
		case "TEMP":
			rec.Temperature = &val
		case "PSAL":
			rec.Salinity = &val
		case "DOXY":
			rec.DissolvedOxygen = &val
		default:
			continue
		}
		valid++
	}

	if valid == 0 {
		return Record{}, false
	}

	if rec.Temperature != nil && rec.Salinity != nil {
		ph := phBaseline + rand.NormFloat64()*phNoise
		rec.PH = &ph
	}

	return rec, true
}

// resolveGrid returns the first alias present as a numeric variable.
func resolveGrid(src Source, aliases []string) (Grid, bool) {
	for _, name := range aliases {
		if g, ok := src.Floats(name); ok {
			return g, true
		}
	}
	return Grid{}, false
}

// resolveTimes returns the first alias present as a time coordinate.
func resolveTimes(src Source, aliases []string) ([]time.Time, bool) {
	for _, name := range aliases {
		if ts, ok := src.Times(name); ok {
			return ts, true
		}
	}
	return nil, false
}

// platformIDs resolves the per-profile platform identifiers, falling
// back to a single shared value from the global attribute, then to
// "unknown".
func platformIDs(src Source) []string {
	if vals, ok := src.Strings("PLATFORM_NUMBER"); ok && len(vals) > 0 {
		out := make([]string, len(vals))
		for i, v := range vals {
			out[i] = strings.TrimSpace(v)
		}
		return out
	}
	if v, ok := src.Attr("platform_number"); ok && strings.TrimSpace(v) != "" {
		return []string{strings.TrimSpace(v)}
	}
	return []string{"unknown"}
}

// platformAt returns the identifier for profile i, sharing the first
// value across profiles when the file carries fewer entries.
func platformAt(platforms []string, i int) string {
	var id string
	switch {
	case i < len(platforms):
		id = platforms[i]
	case len(platforms) > 0:
		id = platforms[0]
	}
	if id == "" {
		return "unknown"
	}
	return id
}

// coordAt resolves a coordinate for profile i: indexed value first,
// then the first element, then NaN when the variable is empty.
func coordAt(g Grid, i int) float64 {
	if len(g.Rows) == 0 {
		return math.NaN()
	}
	row := g.Rows[0]
	if g.TwoD && i < len(g.Rows) && len(g.Rows[i]) > 0 {
		return g.Rows[i][0]
	}
	switch {
	case i < len(row):
		return row[i]
	case len(row) > 0:
		return row[0]
	}
	return math.NaN()
}

// timeAt resolves the timestamp for profile i with the same fallback
// order as coordAt.
func timeAt(times []time.Time, i int) time.Time {
	switch {
	case i < len(times):
		return times[i]
	case len(times) > 0:
		return times[0]
	}
	return time.Time{}
}

// safeAt reads (i, j) from a grid mirroring the pressure layout,
// returning NaN when the variable is ragged short.
func safeAt(g Grid, i, j int) float64 {
	if !g.TwoD {
		i = 0
	}
	if i >= len(g.Rows) || j >= len(g.Rows[i]) {
		return math.NaN()
	}
	return g.Rows[i][j]
}

// flagAt reads the QC code for (profile, level) from per-profile flag
// strings. A missing code rejects the value.
func flagAt(flags []string, i, j int) byte {
	var row string
	switch {
	case i < len(flags):
		row = flags[i]
	case len(flags) > 0:
		row = flags[0]
	}
	if j >= len(row) {
		return 0
	}
	return row[j]
}
