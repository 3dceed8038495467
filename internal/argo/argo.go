// Package argo provides ARGO float profile data processing utilities.
// This package contains the NetCDF record extractor, geographic region
// classification, and dataset aggregation for the ingestion pipeline.
//
// Extraction is decoupled from the on-disk NetCDF format through the
// Source interface so the core algorithm can be exercised against
// in-memory fixtures; netcdf.go adapts real files to it.
package argo

import (
	"time"
)

// Default variable aliases, checked in priority order. ARGO files from
// different DACs disagree on coordinate naming; the first present wins.
var (
	TimeAliases      = []string{"JULD", "TIME"}
	LatitudeAliases  = []string{"LATITUDE", "LAT"}
	LongitudeAliases = []string{"LONGITUDE", "LON"}
	PressureAliases  = []string{"PRES", "PRESSURE"}
)

// DefaultVars are the oceanographic variables retained by default.
var DefaultVars = []string{"TEMP", "PSAL", "DOXY"}

// Record is one measurement at a single (profile, level) position.
// Temperature, salinity, oxygen and pH are optional; a record is only
// produced when at least one of the first three was extracted.
// Records are immutable once produced.
type Record struct {
	FloatID         string
	Latitude        float64
	Longitude       float64
	Time            time.Time
	Pressure        float64 // decibar
	Depth           float64 // meters; numerically equal to pressure (approximation)
	Temperature     *float64
	Salinity        *float64
	DissolvedOxygen *float64
	PH              *float64
	Region          string
}

// Bounds is a geographic bounding box in decimal degrees.
type Bounds struct {
	LatMin, LatMax float64
	LonMin, LonMax float64
}

// Contains reports whether (lat, lon) falls inside the box (inclusive).
func (b Bounds) Contains(lat, lon float64) bool {
	return lat >= b.LatMin && lat <= b.LatMax && lon >= b.LonMin && lon <= b.LonMax
}

// Dataset is an ordered collection of measurement records from one
// ingestion run. Order is file-processing order, then profile, then level.
type Dataset []Record

// FilterBounds returns the records falling inside the bounding box.
// Region labels are not consulted; the box filter and region
// classification are independent.
func (d Dataset) FilterBounds(b Bounds) Dataset {
	out := make(Dataset, 0, len(d))
	for _, r := range d {
		if b.Contains(r.Latitude, r.Longitude) {
			out = append(out, r)
		}
	}
	return out
}

// Aggregate concatenates per-file record batches in order and applies
// the run's geographic bounding box. An empty result is a valid return
// value; the caller decides whether that fails the run.
func Aggregate(batches [][]Record, b Bounds) Dataset {
	var out Dataset
	for _, recs := range batches {
		out = append(out, recs...)
	}
	return out.FilterBounds(b)
}
