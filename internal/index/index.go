// Package index pre-filters the global ARGO profile catalog for the
// FTP ingestion path. Instead of crawling directory listings, the path
// downloads one gzip-compressed index of every profile file on the
// server (path, position, timestamp per row) and selects the rows
// inside the configured bounds before any NetCDF file is transferred.
// Unlike per-file transfers, a catalog that cannot be fetched or parsed
// is fatal for the run.
package index

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/klauspost/pgzip"

	"github.com/oceandata/argo-ingest/internal/argo"
)

// dateLayout is the catalog timestamp encoding (yyyymmddHHMMSS).
const dateLayout = "20060102150405"

// Profile is one catalog row.
type Profile struct {
	Path      string // file path relative to the FTP base
	Latitude  float64
	Longitude float64
	Date      time.Time
}

// Filter selects catalog rows by geography and time, capped at Max
// rows after filtering to bound the download stage.
type Filter struct {
	Bounds argo.Bounds
	Start  time.Time
	End    time.Time
	Max    int
}

// Catalog fetches, parses and filters the global index, returning
// candidate URLs resolved against baseURL.
type Catalog struct {
	BaseURL string // e.g. ftp://ftp.example.org/argo/
	Timeout time.Duration
}

// Candidates returns the download URLs of the profiles matching f.
func (c *Catalog) Candidates(ctx context.Context, f Filter) ([]string, error) {
	indexURL := strings.TrimSuffix(c.BaseURL, "/") + "/ar_index_global_prof.txt.gz"
	log.Printf("fetching global profile index: %s", indexURL)

	raw, err := fetchFTP(ctx, indexURL, c.Timeout)
	if err != nil {
		return nil, fmt.Errorf("index fetch: %w", err)
	}

	profiles, err := Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("index parse: %w", err)
	}
	log.Printf("loaded %d profiles from index", len(profiles))

	selected := Select(profiles, f)
	log.Printf("%d profiles match bounds (cap %d)", len(selected), f.Max)

	urls := make([]string, len(selected))
	base := strings.TrimSuffix(c.BaseURL, "/")
	for i, p := range selected {
		urls[i] = base + "/" + strings.TrimPrefix(p.Path, "/")
	}
	return urls, nil
}

// Parse decodes a gzip-compressed catalog. Comment lines start with
// '#'; the first remaining row is the header and names at least the
// file, date, latitude and longitude columns.
func Parse(r io.Reader) ([]Profile, error) {
	zr, err := pgzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	defer zr.Close()

	cr := csv.NewReader(zr)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("missing header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"file", "date", "latitude", "longitude"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("header missing %q column", required)
		}
	}

	var profiles []Profile
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // malformed row, not fatal
		}

		p, ok := parseRow(row, cols)
		if !ok {
			continue
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// Select returns the first f.Max profiles inside the geographic and
// temporal bounds, preserving catalog order.
func Select(profiles []Profile, f Filter) []Profile {
	var out []Profile
	for _, p := range profiles {
		if !f.Bounds.Contains(p.Latitude, p.Longitude) {
			continue
		}
		if p.Date.Before(f.Start) || p.Date.After(f.End) {
			continue
		}
		out = append(out, p)
		if f.Max > 0 && len(out) >= f.Max {
			break
		}
	}
	return out
}

func parseRow(row []string, cols map[string]int) (Profile, bool) {
	get := func(name string) string {
		i := cols[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	lat, err := strconv.ParseFloat(get("latitude"), 64)
	if err != nil {
		return Profile{}, false
	}
	lon, err := strconv.ParseFloat(get("longitude"), 64)
	if err != nil {
		return Profile{}, false
	}
	date, err := time.Parse(dateLayout, get("date"))
	if err != nil {
		return Profile{}, false
	}
	file := get("file")
	if file == "" {
		return Profile{}, false
	}

	return Profile{Path: file, Latitude: lat, Longitude: lon, Date: date}, true
}

// fetchFTP retrieves one file over anonymous FTP into memory. The
// catalog is the only file small enough to buffer whole; profile files
// stream through the fetch package instead.
func fetchFTP(ctx context.Context, rawURL string, timeout time.Duration) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	addr := u.Host
	if u.Port() == "" {
		addr += ":21"
	}

	conn, err := ftp.Dial(addr, ftp.DialWithContext(ctx), ftp.DialWithTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("ftp dial failed: %w", err)
	}
	defer conn.Quit()

	if err := conn.Login("anonymous", "anonymous"); err != nil {
		return nil, fmt.Errorf("ftp login failed: %w", err)
	}

	r, err := conn.Retr(strings.TrimPrefix(u.Path, "/"))
	if err != nil {
		return nil, fmt.Errorf("ftp retr failed: %w", err)
	}
	defer r.Close()

	return io.ReadAll(r)
}
