// Package archive writes a columnar snapshot of each run's aggregated
// dataset. The snapshot is a convenience artifact for offline analysis;
// writing it is best-effort and never affects the database load.
package archive

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/oceandata/argo-ingest/internal/argo"
)

// ProfileRow matches the snapshot Parquet schema. Optional measurements
// are pointers so absent values encode as nulls.
type ProfileRow struct {
	FloatID         string   `parquet:"float_id"`
	Latitude        float64  `parquet:"latitude"`
	Longitude       float64  `parquet:"longitude"`
	Timestamp       int64    `parquet:"timestamp"`
	Temperature     *float64 `parquet:"temperature,optional"`
	Salinity        *float64 `parquet:"salinity,optional"`
	DissolvedOxygen *float64 `parquet:"dissolved_oxygen,optional"`
	PH              *float64 `parquet:"ph,optional"`
	Pressure        float64  `parquet:"pressure"`
	Depth           float64  `parquet:"depth"`
	Region          string   `parquet:"region"`
}

// WriteSnapshot writes the dataset to a timestamped Parquet file under
// dir and returns its path.
func WriteSnapshot(dir string, ds argo.Dataset) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("argo_profiles_%s.parquet", time.Now().UTC().Format("20060102T150405Z"))
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create snapshot file: %w", err)
	}

	w := parquet.NewGenericWriter[ProfileRow](f)
	rows := make([]ProfileRow, len(ds))
	for i, rec := range ds {
		rows[i] = ProfileRow{
			FloatID:         rec.FloatID,
			Latitude:        rec.Latitude,
			Longitude:       rec.Longitude,
			Timestamp:       rec.Time.Unix(),
			Temperature:     rec.Temperature,
			Salinity:        rec.Salinity,
			DissolvedOxygen: rec.DissolvedOxygen,
			PH:              rec.PH,
			Pressure:        rec.Pressure,
			Depth:           rec.Depth,
			Region:          rec.Region,
		}
	}

	if _, err := w.Write(rows); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write snapshot rows: %w", err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("close snapshot writer: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close snapshot file: %w", err)
	}

	log.Printf("wrote parquet snapshot: %s (%d rows)", path, len(rows))
	return path, nil
}
