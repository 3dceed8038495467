package index

import (
	"bytes"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceandata/argo-ingest/internal/argo"
)

func gzipCatalog(t *testing.T, body string) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return bytes.NewReader(buf.Bytes())
}

const catalogBody = `# Title : Profile directory file
# Description : The directory file describes all individual profile files
file,date,latitude,longitude,ocean,profiler_type,institution,date_update
aoml/13857/profiles/R13857_001.nc,20240115103000,10.500,65.250,I,845,AO,20240116000000
aoml/13857/profiles/R13857_002.nc,20240220110000,-35.000,65.000,I,845,AO,20240221000000
coriolis/69001/profiles/R69001_001.nc,20240118090000,15.125,87.750,I,846,IF,20240119000000
bad-row-without-enough-fields
coriolis/69002/profiles/R69002_001.nc,not-a-date,12.0,70.0,I,846,IF,20240119000000
`

func TestParse(t *testing.T) {
	profiles, err := Parse(gzipCatalog(t, catalogBody))
	require.NoError(t, err)
	require.Len(t, profiles, 3, "malformed rows are dropped")

	first := profiles[0]
	assert.Equal(t, "aoml/13857/profiles/R13857_001.nc", first.Path)
	assert.Equal(t, 10.5, first.Latitude)
	assert.Equal(t, 65.25, first.Longitude)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), first.Date)
}

func TestParseNotGzip(t *testing.T) {
	_, err := Parse(bytes.NewReader([]byte("plain text")))
	assert.Error(t, err)
}

func TestParseMissingColumn(t *testing.T) {
	_, err := Parse(gzipCatalog(t, "file,date,latitude\nx.nc,20240101000000,1.0\n"))
	assert.Error(t, err)
}

func TestSelect(t *testing.T) {
	profiles, err := Parse(gzipCatalog(t, catalogBody))
	require.NoError(t, err)

	f := Filter{
		Bounds: argo.Bounds{LatMin: 0, LatMax: 30, LonMin: 50, LonMax: 100},
		Start:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC),
		Max:    10,
	}

	got := Select(profiles, f)
	require.Len(t, got, 2, "southern profile is outside bounds, February profile outside the window")
	assert.Equal(t, "aoml/13857/profiles/R13857_001.nc", got[0].Path)
	assert.Equal(t, "coriolis/69001/profiles/R69001_001.nc", got[1].Path)
}

func TestSelectCap(t *testing.T) {
	profiles := []Profile{
		{Path: "a.nc", Latitude: 10, Longitude: 65, Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Path: "b.nc", Latitude: 11, Longitude: 66, Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{Path: "c.nc", Latitude: 12, Longitude: 67, Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)},
	}
	f := Filter{
		Bounds: argo.Bounds{LatMin: 0, LatMax: 30, LonMin: 50, LonMax: 100},
		Start:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		Max:    2,
	}

	got := Select(profiles, f)
	require.Len(t, got, 2, "cap applies after filtering, first N kept")
	assert.Equal(t, "a.nc", got[0].Path)
	assert.Equal(t, "b.nc", got[1].Path)
}
