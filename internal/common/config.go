// Package common provides shared configuration for the ingestion tools.
package common

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration for all applications. Values come
// from the environment (a .env file is loaded when present), with
// defaults tuned for a small Indian Ocean test ingestion.
type Config struct {
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUser     string
	ClickHousePassword string

	PrimaryURL  string // IFREMER HTTP listing base
	FallbackURL string // NOAA HTTP listing base
	FTPBaseURL  string // IFREMER FTP root holding the global index

	LatMin, LatMax float64
	LonMin, LonMax float64

	StartYear, EndYear   int
	StartMonth, EndMonth int

	MaxFilesPerPeriod int
	MaxTotalFiles     int
	Workers           int

	DataDir string
}

// DefaultConfig loads .env if present and returns configuration with
// environment overrides applied.
func DefaultConfig() *Config {
	godotenv.Load()

	return &Config{
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "argo"),
		ClickHouseUser:     getEnv("CLICKHOUSE_USER", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		PrimaryURL:  getEnv("ARGO_PRIMARY_URL", "https://data-argo.ifremer.fr/geo/indian_ocean/"),
		FallbackURL: getEnv("ARGO_FALLBACK_URL", "https://www.ncei.noaa.gov/data/oceans/argo/gadr/data/indian/"),
		FTPBaseURL:  getEnv("ARGO_FTP_URL", "ftp://ftp.ifremer.fr/ifremer/argo/"),

		LatMin: getEnvFloat("ARGO_LAT_MIN", 0.0),
		LatMax: getEnvFloat("ARGO_LAT_MAX", 30.0),
		LonMin: getEnvFloat("ARGO_LON_MIN", 50.0),
		LonMax: getEnvFloat("ARGO_LON_MAX", 100.0),

		StartYear:  getEnvInt("ARGO_START_YEAR", 2024),
		EndYear:    getEnvInt("ARGO_END_YEAR", 2024),
		StartMonth: getEnvInt("ARGO_START_MONTH", 1),
		EndMonth:   getEnvInt("ARGO_END_MONTH", 1),

		MaxFilesPerPeriod: getEnvInt("ARGO_MAX_FILES_PER_PERIOD", 5),
		MaxTotalFiles:     getEnvInt("ARGO_MAX_TOTAL_FILES", 10),
		Workers:           getEnvInt("ARGO_WORKERS", 2),

		DataDir: getEnv("ARGO_DATA_DIR", "argo_data"),
	}
}

// DownloadDir returns the directory holding fetched NetCDF files.
func (c *Config) DownloadDir() string {
	return filepath.Join(c.DataDir, "downloads")
}

// SnapshotDir returns the directory holding parquet snapshots.
func (c *Config) SnapshotDir() string {
	return filepath.Join(c.DataDir, "snapshots")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
