// Package store manages the ClickHouse schema and bulk loads for the
// ingestion pipeline. Each run rebuilds the three tables from scratch
// (drop + create), so a run's output fully replaces any previous data.
package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/oceandata/argo-ingest/internal/argo"
)

const (
	profilesTable   = "argo_profiles"
	conditionsTable = "ocean_conditions"
	fleetTable      = "agro_bots"
)

var schemas = map[string]string{
	profilesTable: `
CREATE TABLE %s.argo_profiles (
    profile_id       UInt64,
    float_id         String,
    latitude         Float64,
    longitude        Float64,
    date_time        DateTime,
    temperature      Nullable(Float64),
    salinity         Nullable(Float64),
    dissolved_oxygen Nullable(Float64),
    ph               Nullable(Float64),
    pressure         Float64,
    depth            Float64,
    region           String
) ENGINE = MergeTree()
ORDER BY (float_id, date_time, pressure)`,

	conditionsTable: `
CREATE TABLE %s.ocean_conditions (
    condition_id    UInt64,
    latitude        Float64,
    longitude       Float64,
    date_time       DateTime,
    temperature     Nullable(Float64),
    salinity        Nullable(Float64),
    current_speed   Float64,
    wave_height     Float64,
    wind_speed      Float64,
    pollution_index Float64,
    alert_level     String
) ENGINE = MergeTree()
ORDER BY date_time`,

	fleetTable: `
CREATE TABLE %s.agro_bots (
    bot_id        String,
    bot_name      String,
    status        String,
    latitude      Float64,
    longitude     Float64,
    last_update   DateTime,
    temperature   Float64,
    salinity      Float64,
    ph            Float64,
    battery_level Float64
) ENGINE = MergeTree()
ORDER BY bot_id`,
}

// Store is a ClickHouse-backed sink for extracted datasets.
type Store struct {
	conn     driver.Conn
	database string
}

// Open connects to ClickHouse and verifies the connection with a ping.
func Open(ctx context.Context, addr, database, username, password string) (*Store, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: database,
			Username: username,
			Password: password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse connect failed: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("clickhouse ping failed: %w", err)
	}

	return &Store{conn: conn, database: database}, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

// CreateSchema drops and recreates all three tables. Any failure here
// is fatal for the run: loading into a half-built schema is worse than
// not loading at all.
func (s *Store) CreateSchema(ctx context.Context) error {
	if err := s.conn.Exec(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", s.database)); err != nil {
		return fmt.Errorf("create database: %w", err)
	}

	for _, table := range []string{profilesTable, conditionsTable, fleetTable} {
		drop := fmt.Sprintf("DROP TABLE IF EXISTS %s.%s", s.database, table)
		if err := s.conn.Exec(ctx, drop); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
		create := fmt.Sprintf(schemas[table], s.database)
		if err := s.conn.Exec(ctx, create); err != nil {
			return fmt.Errorf("create %s: %w", table, err)
		}
		log.Printf("recreated table %s.%s", s.database, table)
	}
	return nil
}

// LoadProfiles bulk-inserts the dataset. Profile identifiers are
// assigned sequentially per run; MergeTree has no autoincrement.
func (s *Store) LoadProfiles(ctx context.Context, ds argo.Dataset) error {
	if len(ds) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s.%s", s.database, profilesTable))
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i, rec := range ds {
		err := batch.Append(
			uint64(i+1),
			rec.FloatID,
			rec.Latitude,
			rec.Longitude,
			rec.Time,
			rec.Temperature,
			rec.Salinity,
			rec.DissolvedOxygen,
			rec.PH,
			rec.Pressure,
			rec.Depth,
			rec.Region,
		)
		if err != nil {
			return fmt.Errorf("append profile %d: %w", i, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	log.Printf("loaded %d rows into %s", len(ds), profilesTable)
	return nil
}

// LoadConditions bulk-inserts derived surface conditions.
func (s *Store) LoadConditions(ctx context.Context, conds []Condition) error {
	if len(conds) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s.%s", s.database, conditionsTable))
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i, c := range conds {
		err := batch.Append(
			uint64(i+1),
			c.Latitude,
			c.Longitude,
			c.Time,
			c.Temperature,
			c.Salinity,
			c.CurrentSpeed,
			c.WaveHeight,
			c.WindSpeed,
			c.PollutionIndex,
			c.AlertLevel,
		)
		if err != nil {
			return fmt.Errorf("append condition %d: %w", i, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	log.Printf("loaded %d rows into %s", len(conds), conditionsTable)
	return nil
}

// LoadFleet bulk-inserts the monitoring fleet roster.
func (s *Store) LoadFleet(ctx context.Context, bots []Bot) error {
	if len(bots) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s.%s", s.database, fleetTable))
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i, b := range bots {
		err := batch.Append(
			b.ID,
			b.Name,
			b.Status,
			b.Latitude,
			b.Longitude,
			b.LastUpdate,
			b.Temperature,
			b.Salinity,
			b.PH,
			b.BatteryLevel,
		)
		if err != nil {
			return fmt.Errorf("append bot %d: %w", i, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	log.Printf("loaded %d rows into %s", len(bots), fleetTable)
	return nil
}
