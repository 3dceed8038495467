// Package pipeline orchestrates one ingestion run: schema rebuild,
// candidate discovery (HTTP crawl or FTP catalog), file transfer,
// extraction, aggregation and the final bulk loads. The run outcome is
// binary: nil means data was loaded, any error means nothing usable was
// produced. ErrNoData distinguishes "sources were reachable but empty"
// from transport or database failures.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/oceandata/argo-ingest/internal/archive"
	"github.com/oceandata/argo-ingest/internal/argo"
	"github.com/oceandata/argo-ingest/internal/discover"
	"github.com/oceandata/argo-ingest/internal/index"
	"github.com/oceandata/argo-ingest/internal/store"
)

// ErrNoData reports a run that completed its source phase but produced
// zero usable measurements.
var ErrNoData = errors.New("no data extracted from any source")

// Discoverer finds candidate file URLs in HTTP directory listings.
type Discoverer interface {
	Discover(ctx context.Context, baseURL string, w discover.Window, maxFiles int) []discover.Candidate
}

// Downloader transfers candidate files to local storage.
type Downloader interface {
	DownloadAll(ctx context.Context, urls []string, destDir string, workers int) []string
}

// Extractor pulls measurements out of one downloaded file.
type Extractor interface {
	ExtractFile(path string) []argo.Record
}

// Indexer selects candidate URLs from the global profile catalog.
type Indexer interface {
	Candidates(ctx context.Context, f index.Filter) ([]string, error)
}

// Loader owns the destination schema and bulk inserts.
type Loader interface {
	CreateSchema(ctx context.Context) error
	LoadProfiles(ctx context.Context, ds argo.Dataset) error
	LoadConditions(ctx context.Context, conds []store.Condition) error
	LoadFleet(ctx context.Context, bots []store.Bot) error
}

// Config selects the source mode and bounds for one run.
type Config struct {
	Source      string // "http" or "ftp"
	PrimaryURL  string // HTTP mode: preferred listing base
	FallbackURL string // HTTP mode: secondary listing base, may be empty
	Window      discover.Window
	Bounds      argo.Bounds
	MaxFiles    int
	Workers     int
	DataDir     string
	SnapshotDir string // empty disables the parquet snapshot
}

// Pipeline wires the run stages together.
type Pipeline struct {
	Config     Config
	Discoverer Discoverer
	Indexer    Indexer
	Downloader Downloader
	Extractor  Extractor
	Loader     Loader
}

// Run executes one full ingestion. The schema rebuild and, in FTP mode,
// the catalog fetch are fatal; everything per-file degrades to fewer
// records.
func (p *Pipeline) Run(ctx context.Context) error {
	log.Println("========================================")
	log.Println("ARGO NetCDF Ingestion")
	log.Println("========================================")

	if err := p.Loader.CreateSchema(ctx); err != nil {
		return fmt.Errorf("schema setup: %w", err)
	}

	urls, err := p.collectCandidates(ctx)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		log.Println("no candidate files found")
		return ErrNoData
	}
	log.Printf("%d candidate files", len(urls))

	paths := p.Downloader.DownloadAll(ctx, urls, p.Config.DataDir, p.Config.Workers)
	if len(paths) == 0 {
		log.Println("no files downloaded")
		return ErrNoData
	}

	batches := make([][]argo.Record, 0, len(paths))
	for _, path := range paths {
		batches = append(batches, p.Extractor.ExtractFile(path))
	}

	ds := argo.Aggregate(batches, p.Config.Bounds)
	if len(ds) == 0 {
		log.Println("no measurements within bounds")
		return ErrNoData
	}
	log.Printf("aggregated %d measurements from %d files", len(ds), len(paths))

	if p.Config.SnapshotDir != "" {
		if _, err := archive.WriteSnapshot(p.Config.SnapshotDir, ds); err != nil {
			log.Printf("snapshot skipped: %v", err)
		}
	}

	if err := p.Loader.LoadProfiles(ctx, ds); err != nil {
		return fmt.Errorf("profile load: %w", err)
	}
	if err := p.Loader.LoadConditions(ctx, store.SampleConditions(ds, store.ConditionSampleSize)); err != nil {
		return fmt.Errorf("condition load: %w", err)
	}
	if err := p.Loader.LoadFleet(ctx, store.FleetStatus()); err != nil {
		return fmt.Errorf("fleet load: %w", err)
	}

	log.Println("========================================")
	log.Println("Ingestion complete")
	log.Println("========================================")
	return nil
}

// collectCandidates resolves the candidate URL list for the configured
// source mode.
func (p *Pipeline) collectCandidates(ctx context.Context) ([]string, error) {
	switch p.Config.Source {
	case "ftp":
		return p.Indexer.Candidates(ctx, index.Filter{
			Bounds: p.Config.Bounds,
			Start:  windowStart(p.Config.Window),
			End:    windowEnd(p.Config.Window),
			Max:    p.Config.MaxFiles,
		})
	case "http":
		return p.crawlHTTP(ctx), nil
	}
	return nil, fmt.Errorf("unknown source %q", p.Config.Source)
}

// crawlHTTP discovers from the primary listing, then fills any
// remaining quota from the fallback. A source that fails or comes up
// empty is not an error here; an empty combined result is ErrNoData
// upstream.
func (p *Pipeline) crawlHTTP(ctx context.Context) []string {
	var urls []string

	log.Printf("primary source: %s", p.Config.PrimaryURL)
	for _, c := range p.Discoverer.Discover(ctx, p.Config.PrimaryURL, p.Config.Window, p.Config.MaxFiles) {
		urls = append(urls, c.URL)
	}

	remaining := p.Config.MaxFiles - len(urls)
	if remaining > 0 && p.Config.FallbackURL != "" {
		log.Printf("fallback source: %s (%d slots left)", p.Config.FallbackURL, remaining)
		for _, c := range p.Discoverer.Discover(ctx, p.Config.FallbackURL, p.Config.Window, remaining) {
			urls = append(urls, c.URL)
		}
	}
	return urls
}

func windowStart(w discover.Window) time.Time {
	return time.Date(w.StartYear, time.Month(w.StartMonth), 1, 0, 0, 0, 0, time.UTC)
}

func windowEnd(w discover.Window) time.Time {
	// first instant after the last month of the window
	return time.Date(w.EndYear, time.Month(w.EndMonth)+1, 1, 0, 0, 0, 0, time.UTC).Add(-time.Second)
}
