package argo

import "time"

// Grid is a numeric variable normalized to float64 with missing values
// represented as NaN. A 2-D variable is profile-major (profile, level);
// a 1-D variable is stored as a single row.
type Grid struct {
	Rows [][]float64
	TwoD bool
}

// NumProfiles returns the profile count: the row count for 2-D data,
// 1 for 1-D data, 0 when empty.
func (g Grid) NumProfiles() int {
	if !g.TwoD {
		if len(g.Rows) == 0 || len(g.Rows[0]) == 0 {
			return 0
		}
		return 1
	}
	return len(g.Rows)
}

// NumLevels returns the level count for profile i.
func (g Grid) NumLevels(i int) int {
	if !g.TwoD {
		i = 0
	}
	if i >= len(g.Rows) {
		return 0
	}
	return len(g.Rows[i])
}

// At returns the value at (profile, level). For 1-D data the profile
// index is ignored.
func (g Grid) At(i, j int) float64 {
	if !g.TwoD {
		i = 0
	}
	return g.Rows[i][j]
}

// Flat1D builds a 1-D grid from a slice of values.
func Flat1D(vals []float64) Grid {
	return Grid{Rows: [][]float64{vals}}
}

// Source is a read-only view over one opened profile dataset. The
// NetCDF adapter and test fixtures both implement it. Lookups return
// false when the variable or attribute is absent; values are already
// normalized (fill values to NaN, char arrays to strings).
type Source interface {
	// Has reports whether a variable exists under the given name.
	Has(name string) bool
	// Floats returns a numeric variable normalized to a Grid.
	Floats(name string) (Grid, bool)
	// Strings returns a character variable as one string per profile.
	Strings(name string) ([]string, bool)
	// Times returns a time-coordinate variable as one timestamp per profile.
	Times(name string) ([]time.Time, bool)
	// Attr returns a global attribute rendered as trimmed text.
	Attr(name string) (string, bool)
	// Close releases the underlying dataset.
	Close() error
}
