package argo

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// netcdf.go - Source adapter over go-native-netcdf
//
// Normalizes what the library hands back into the shapes the extractor
// expects: numeric variables become float64 grids with fill values
// mapped to NaN, character arrays become per-profile strings, and time
// coordinates are converted from their "units since epoch" encoding.

// argoEpoch is the reference date for JULD when the units attribute is
// absent or unparseable (ARGO convention: days since 1950-01-01).
var argoEpoch = time.Date(1950, time.January, 1, 0, 0, 0, 0, time.UTC)

type ncSource struct {
	group api.Group
	vars  map[string]bool
}

// OpenNetCDF opens one NetCDF dataset as a Source. Corrupt or truncated
// downloads surface here as an open error.
func OpenNetCDF(path string) (Source, error) {
	group, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("netcdf open: %w", err)
	}

	vars := make(map[string]bool)
	for _, name := range group.ListVariables() {
		vars[name] = true
	}
	return &ncSource{group: group, vars: vars}, nil
}

func (s *ncSource) Has(name string) bool {
	return s.vars[name]
}

func (s *ncSource) Floats(name string) (Grid, bool) {
	vr, ok := s.variable(name)
	if !ok {
		return Grid{}, false
	}
	return toGrid(vr)
}

func (s *ncSource) Strings(name string) ([]string, bool) {
	vr, ok := s.variable(name)
	if !ok {
		return nil, false
	}
	switch v := vr.Values.(type) {
	case string:
		return []string{v}, true
	case []string:
		return v, true
	}
	return nil, false
}

func (s *ncSource) Times(name string) ([]time.Time, bool) {
	vr, ok := s.variable(name)
	if !ok {
		return nil, false
	}
	grid, ok := toGrid(vr)
	if !ok || len(grid.Rows) == 0 {
		return nil, false
	}

	epoch, unit := timeUnits(vr)
	vals := grid.Rows[0]
	out := make([]time.Time, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) {
			continue // zero time, resolved by the extractor's fallback
		}
		out[i] = epoch.Add(time.Duration(v * float64(unit)))
	}
	return out, true
}

func (s *ncSource) Attr(name string) (string, bool) {
	val, has := s.group.Attributes().Get(name)
	if !has || val == nil {
		return "", false
	}
	return strings.TrimSpace(fmt.Sprintf("%v", val)), true
}

func (s *ncSource) Close() error {
	s.group.Close()
	return nil
}

func (s *ncSource) variable(name string) (*api.Variable, bool) {
	if !s.vars[name] {
		return nil, false
	}
	vr, err := s.group.GetVariable(name)
	if err != nil || vr == nil {
		return nil, false
	}
	return vr, true
}

// timeUnits parses a CF-style units attribute ("days since 1950-01-01
// 00:00:00 UTC"). Unknown units fall back to the ARGO JULD convention.
func timeUnits(vr *api.Variable) (time.Time, time.Duration) {
	epoch, unit := argoEpoch, 24*time.Hour

	raw, has := vr.Attributes.Get("units")
	if !has {
		return epoch, unit
	}
	units := strings.ToLower(strings.TrimSpace(fmt.Sprintf("%v", raw)))

	switch {
	case strings.HasPrefix(units, "seconds"):
		unit = time.Second
	case strings.HasPrefix(units, "hours"):
		unit = time.Hour
	case strings.HasPrefix(units, "days"):
		unit = 24 * time.Hour
	}

	if idx := strings.Index(units, "since"); idx >= 0 {
		rest := strings.Fields(units[idx+len("since"):])
		if len(rest) > 0 {
			if t, err := time.Parse("2006-01-02", rest[0]); err == nil {
				epoch = t
			}
		}
	}
	return epoch, unit
}

// fillValue reads the variable's _FillValue attribute, if any.
func fillValue(vr *api.Variable) (float64, bool) {
	raw, has := vr.Attributes.Get("_FillValue")
	if !has {
		return 0, false
	}
	return asFloat(raw)
}

func asFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case int16:
		return float64(x), true
	case int8:
		return float64(x), true
	case uint8:
		return float64(x), true
	case []float64:
		if len(x) > 0 {
			return x[0], true
		}
	case []float32:
		if len(x) > 0 {
			return float64(x[0]), true
		}
	}
	return 0, false
}

// toGrid normalizes a numeric variable to float64, converting the
// declared fill value to NaN.
func toGrid(vr *api.Variable) (Grid, bool) {
	fill, hasFill := fillValue(vr)

	clean := func(v float64) float64 {
		if hasFill && v == fill {
			return math.NaN()
		}
		return v
	}
	cleanRow := func(vals []float64) []float64 {
		out := make([]float64, len(vals))
		for i, v := range vals {
			out[i] = clean(v)
		}
		return out
	}

	switch v := vr.Values.(type) {
	case float64:
		return Flat1D([]float64{clean(v)}), true
	case float32:
		return Flat1D([]float64{clean(float64(v))}), true
	case []float64:
		return Flat1D(cleanRow(v)), true
	case []float32:
		row := make([]float64, len(v))
		for i, f := range v {
			row[i] = clean(float64(f))
		}
		return Flat1D(row), true
	case []int32:
		row := make([]float64, len(v))
		for i, n := range v {
			row[i] = clean(float64(n))
		}
		return Flat1D(row), true
	case [][]float64:
		rows := make([][]float64, len(v))
		for i, r := range v {
			rows[i] = cleanRow(r)
		}
		return Grid{Rows: rows, TwoD: true}, true
	case [][]float32:
		rows := make([][]float64, len(v))
		for i, r := range v {
			row := make([]float64, len(r))
			for j, f := range r {
				row[j] = clean(float64(f))
			}
			rows[i] = row
		}
		return Grid{Rows: rows, TwoD: true}, true
	case [][]int32:
		rows := make([][]float64, len(v))
		for i, r := range v {
			row := make([]float64, len(r))
			for j, n := range r {
				row[j] = clean(float64(n))
			}
			rows[i] = row
		}
		return Grid{Rows: rows, TwoD: true}, true
	}
	return Grid{}, false
}
