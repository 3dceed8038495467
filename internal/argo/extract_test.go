package argo

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource is an in-memory Source for exercising the extractor
// without real NetCDF files.
type fakeSource struct {
	floats map[string]Grid
	strs   map[string][]string
	times  map[string][]time.Time
	attrs  map[string]string
}

func (f *fakeSource) Has(name string) bool {
	if _, ok := f.floats[name]; ok {
		return true
	}
	if _, ok := f.strs[name]; ok {
		return true
	}
	_, ok := f.times[name]
	return ok
}

func (f *fakeSource) Floats(name string) (Grid, bool) {
	g, ok := f.floats[name]
	return g, ok
}

func (f *fakeSource) Strings(name string) ([]string, bool) {
	s, ok := f.strs[name]
	return s, ok
}

func (f *fakeSource) Times(name string) ([]time.Time, bool) {
	ts, ok := f.times[name]
	return ts, ok
}

func (f *fakeSource) Attr(name string) (string, bool) {
	v, ok := f.attrs[name]
	return v, ok
}

func (f *fakeSource) Close() error { return nil }

var profileTime = time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)

// singleProfile builds a minimal valid 1-D source: one profile, two
// pressure levels, temperature only.
func singleProfile() *fakeSource {
	return &fakeSource{
		floats: map[string]Grid{
			"PRES":      Flat1D([]float64{5.0, 10.0}),
			"TEMP":      Flat1D([]float64{25.3, 24.8}),
			"LATITUDE":  Flat1D([]float64{10.0}),
			"LONGITUDE": Flat1D([]float64{65.0}),
		},
		strs:  map[string][]string{"PLATFORM_NUMBER": {"2902746"}},
		times: map[string][]time.Time{"JULD": {profileTime}},
	}
}

func TestExtractSingleProfile(t *testing.T) {
	recs, err := NewExtractor().Extract(singleProfile())
	require.NoError(t, err)
	require.Len(t, recs, 2)

	first := recs[0]
	assert.Equal(t, "2902746", first.FloatID)
	assert.Equal(t, 10.0, first.Latitude)
	assert.Equal(t, 65.0, first.Longitude)
	assert.Equal(t, profileTime, first.Time)
	assert.Equal(t, 5.0, first.Pressure)
	assert.Equal(t, first.Pressure, first.Depth)
	assert.Equal(t, RegionArabianSea, first.Region)
	require.NotNil(t, first.Temperature)
	assert.Equal(t, 25.3, *first.Temperature)
	assert.Nil(t, first.Salinity)
	assert.Nil(t, first.PH, "pH needs both temperature and salinity")
}

func TestExtractShapeEquivalence(t *testing.T) {
	// A single profile stored as a 1xN matrix must extract identically
	// to the same profile stored as 1-D vectors.
	flat := singleProfile()

	matrix := singleProfile()
	matrix.floats["PRES"] = Grid{Rows: [][]float64{{5.0, 10.0}}, TwoD: true}
	matrix.floats["TEMP"] = Grid{Rows: [][]float64{{25.3, 24.8}}, TwoD: true}

	flatRecs, err := NewExtractor().Extract(flat)
	require.NoError(t, err)
	matrixRecs, err := NewExtractor().Extract(matrix)
	require.NoError(t, err)

	assert.Equal(t, flatRecs, matrixRecs)
}

func TestExtractMultiProfile(t *testing.T) {
	src := &fakeSource{
		floats: map[string]Grid{
			"PRES": {Rows: [][]float64{{5.0, 10.0}, {7.5}}, TwoD: true},
			"TEMP": {Rows: [][]float64{{25.3, 24.8}, {28.1}}, TwoD: true},
			// per-profile coordinates
			"LATITUDE":  Flat1D([]float64{10.0, -12.0}),
			"LONGITUDE": Flat1D([]float64{65.0, 80.0}),
		},
		strs:  map[string][]string{"PLATFORM_NUMBER": {"111", "222"}},
		times: map[string][]time.Time{"JULD": {profileTime, profileTime.Add(24 * time.Hour)}},
	}

	recs, err := NewExtractor().Extract(src)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, "111", recs[0].FloatID)
	assert.Equal(t, "222", recs[2].FloatID)
	assert.Equal(t, RegionIndianOcean, recs[2].Region)
	assert.Equal(t, profileTime.Add(24*time.Hour), recs[2].Time)
}

func TestExtractQCFlags(t *testing.T) {
	src := singleProfile()
	// level 0 rejected ('4' = bad), level 1 accepted ('2' = probably good)
	src.strs["TEMP_QC"] = []string{"42"}

	recs, err := NewExtractor().Extract(src)
	require.NoError(t, err)
	require.Len(t, recs, 1, "level with bad QC keeps no variable and is dropped")
	assert.Equal(t, 24.8, *recs[0].Temperature)
}

func TestExtractQCMissingFlagRejects(t *testing.T) {
	src := singleProfile()
	// flag string shorter than the level index
	src.strs["TEMP_QC"] = []string{"1"}

	recs, err := NewExtractor().Extract(src)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 5.0, recs[0].Pressure)
}

func TestExtractPlatformFallbacks(t *testing.T) {
	t.Run("global attribute", func(t *testing.T) {
		src := singleProfile()
		delete(src.strs, "PLATFORM_NUMBER")
		src.attrs = map[string]string{"platform_number": " 9999 "}

		recs, err := NewExtractor().Extract(src)
		require.NoError(t, err)
		require.NotEmpty(t, recs)
		assert.Equal(t, "9999", recs[0].FloatID)
	})

	t.Run("unknown", func(t *testing.T) {
		src := singleProfile()
		delete(src.strs, "PLATFORM_NUMBER")

		recs, err := NewExtractor().Extract(src)
		require.NoError(t, err)
		require.NotEmpty(t, recs)
		assert.Equal(t, "unknown", recs[0].FloatID)
	})
}

func TestExtractRetention(t *testing.T) {
	// Pressure alone never qualifies a record: with every retained
	// variable missing or NaN, nothing is emitted.
	src := singleProfile()
	src.floats["TEMP"] = Flat1D([]float64{math.NaN(), math.NaN()})

	recs, err := NewExtractor().Extract(src)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestExtractSkipsBadPressure(t *testing.T) {
	src := singleProfile()
	src.floats["PRES"] = Flat1D([]float64{math.NaN(), -3.0, 10.0})
	src.floats["TEMP"] = Flat1D([]float64{25.0, 25.0, 24.8})

	recs, err := NewExtractor().Extract(src)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 10.0, recs[0].Pressure)
}

func TestExtractMissingCoordinatesFails(t *testing.T) {
	src := singleProfile()
	delete(src.floats, "LATITUDE")

	_, err := NewExtractor().Extract(src)
	assert.Error(t, err)
}

func TestExtractAliasResolution(t *testing.T) {
	src := &fakeSource{
		floats: map[string]Grid{
			"PRESSURE": Flat1D([]float64{5.0}),
			"TEMP":     Flat1D([]float64{25.3}),
			"LAT":      Flat1D([]float64{10.0}),
			"LON":      Flat1D([]float64{65.0}),
		},
		times: map[string][]time.Time{"TIME": {profileTime}},
	}

	recs, err := NewExtractor().Extract(src)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 5.0, recs[0].Pressure)
}

func TestExtractSynthesizesPH(t *testing.T) {
	src := singleProfile()
	src.floats["PSAL"] = Flat1D([]float64{35.1, 35.0})

	recs, err := NewExtractor().Extract(src)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	for _, rec := range recs {
		require.NotNil(t, rec.PH)
		// baseline 8.1 with sigma 0.1; anything past 7 sigma is a bug
		assert.InDelta(t, 8.1, *rec.PH, 0.7)
	}
}

func TestExtractCoordinateFallback(t *testing.T) {
	// Fewer coordinate entries than profiles: later profiles reuse the
	// first position and timestamp.
	src := &fakeSource{
		floats: map[string]Grid{
			"PRES":      {Rows: [][]float64{{5.0}, {6.0}}, TwoD: true},
			"TEMP":      {Rows: [][]float64{{25.0}, {26.0}}, TwoD: true},
			"LATITUDE":  Flat1D([]float64{10.0}),
			"LONGITUDE": Flat1D([]float64{65.0}),
		},
		times: map[string][]time.Time{"JULD": {profileTime}},
	}

	recs, err := NewExtractor().Extract(src)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, recs[0].Latitude, recs[1].Latitude)
	assert.Equal(t, recs[0].Time, recs[1].Time)
}
