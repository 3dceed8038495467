// argo-ingest - ARGO NetCDF profile ingestion into ClickHouse
//
// Discovers profile files from IFREMER/NOAA HTTP listings (or the
// global FTP index), downloads them, extracts quality-controlled
// measurements and bulk-loads the result.
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/argo-ingest ./cmd/argo-ingest

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oceandata/argo-ingest/internal/argo"
	"github.com/oceandata/argo-ingest/internal/common"
	"github.com/oceandata/argo-ingest/internal/discover"
	"github.com/oceandata/argo-ingest/internal/fetch"
	"github.com/oceandata/argo-ingest/internal/index"
	"github.com/oceandata/argo-ingest/internal/pipeline"
	"github.com/oceandata/argo-ingest/internal/store"
)

// Version can be overridden at build time via -ldflags
var Version = "1.0.0"

func main() {
	cfg := common.DefaultConfig()

	source := flag.String("source", "http", "Data source: http (directory listings) or ftp (global index)")
	primaryURL := flag.String("primary", cfg.PrimaryURL, "Primary HTTP listing base URL")
	fallbackURL := flag.String("fallback", cfg.FallbackURL, "Fallback HTTP listing base URL (empty disables)")
	ftpURL := flag.String("ftp", cfg.FTPBaseURL, "FTP base URL holding the global profile index")
	latMin := flag.Float64("lat-min", cfg.LatMin, "Minimum latitude")
	latMax := flag.Float64("lat-max", cfg.LatMax, "Maximum latitude")
	lonMin := flag.Float64("lon-min", cfg.LonMin, "Minimum longitude")
	lonMax := flag.Float64("lon-max", cfg.LonMax, "Maximum longitude")
	startYear := flag.Int("start-year", cfg.StartYear, "First year to scan")
	endYear := flag.Int("end-year", cfg.EndYear, "Last year to scan")
	startMonth := flag.Int("start-month", cfg.StartMonth, "First month to scan (nested listings)")
	endMonth := flag.Int("end-month", cfg.EndMonth, "Last month to scan (nested listings)")
	perPeriod := flag.Int("per-period", cfg.MaxFilesPerPeriod, "Max files per year/month listing")
	maxFiles := flag.Int("max-files", cfg.MaxTotalFiles, "Max files per run")
	workers := flag.Int("workers", cfg.Workers, "Parallel download workers")
	timeout := flag.Duration("timeout", 300*time.Second, "Timeout per remote operation")
	dataDir := flag.String("data-dir", cfg.DataDir, "Local data directory")
	chAddr := flag.String("ch-host", cfg.ClickHouseAddr, "ClickHouse host:port")
	chDB := flag.String("ch-db", cfg.ClickHouseDatabase, "ClickHouse database")
	snapshotDir := flag.String("snapshot-dir", "", "Parquet snapshot directory (default <data-dir>/snapshots)")
	noSnapshot := flag.Bool("no-snapshot", false, "Skip the parquet snapshot")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "argo-ingest v%s - ARGO Profile Ingester\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Ingests ARGO float profiles into ClickHouse.\n\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                           # HTTP listings, defaults\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -source ftp               # Global FTP index\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -start-year 2023 -end-year 2024 -max-files 50\n", os.Args[0])
	}

	flag.Parse()

	if *source != "http" && *source != "ftp" {
		fmt.Fprintf(os.Stderr, "Error: -source must be http or ftp\n")
		os.Exit(1)
	}
	if *startMonth < 1 || *startMonth > 12 || *endMonth < 1 || *endMonth > 12 {
		fmt.Fprintf(os.Stderr, "Error: months must be 1-12\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("\nShutdown requested...")
		cancel()
	}()

	cfg.DataDir = *dataDir
	downloadDir := cfg.DownloadDir()
	if err := os.MkdirAll(downloadDir, 0o755); err != nil {
		log.Fatalf("Cannot create data directory: %v", err)
	}

	log.Println("=========================================================")
	log.Printf("ARGO Ingest v%s", Version)
	log.Println("=========================================================")
	log.Printf("Source:      %s", *source)
	log.Printf("Bounds:      lat [%.1f, %.1f] lon [%.1f, %.1f]", *latMin, *latMax, *lonMin, *lonMax)
	log.Printf("Window:      %d/%02d to %d/%02d", *startYear, *startMonth, *endYear, *endMonth)
	log.Printf("Limits:      %d per period, %d total", *perPeriod, *maxFiles)
	log.Printf("Workers:     %d parallel", *workers)
	log.Printf("ClickHouse:  %s/%s", *chAddr, *chDB)

	log.Printf("Connecting to ClickHouse at %s...", *chAddr)
	st, err := store.Open(ctx, *chAddr, *chDB, cfg.ClickHouseUser, cfg.ClickHousePassword)
	if err != nil {
		log.Fatalf("ClickHouse connection failed: %v", err)
	}
	defer st.Close()

	client := &http.Client{Timeout: *timeout}

	snapDir := *snapshotDir
	if snapDir == "" {
		snapDir = cfg.SnapshotDir()
	}
	if *noSnapshot {
		snapDir = ""
	}

	p := &pipeline.Pipeline{
		Config: pipeline.Config{
			Source:      *source,
			PrimaryURL:  *primaryURL,
			FallbackURL: *fallbackURL,
			Window: discover.Window{
				StartYear:  *startYear,
				EndYear:    *endYear,
				StartMonth: *startMonth,
				EndMonth:   *endMonth,
			},
			Bounds: argo.Bounds{
				LatMin: *latMin, LatMax: *latMax,
				LonMin: *lonMin, LonMax: *lonMax,
			},
			MaxFiles:    *maxFiles,
			Workers:     *workers,
			DataDir:     downloadDir,
			SnapshotDir: snapDir,
		},
		Discoverer: discover.NewCrawler(client, *perPeriod),
		Indexer:    &index.Catalog{BaseURL: *ftpURL, Timeout: *timeout},
		Downloader: fetch.NewFetcher(client, *timeout),
		Extractor:  argo.NewExtractor(),
		Loader:     st,
	}

	start := time.Now()
	if err := p.Run(ctx); err != nil {
		if errors.Is(err, pipeline.ErrNoData) {
			log.Printf("Ingestion produced no data: %v", err)
		} else {
			log.Printf("Ingestion failed: %v", err)
		}
		os.Exit(1)
	}
	log.Printf("Done in %v", time.Since(start).Round(time.Second))
}
