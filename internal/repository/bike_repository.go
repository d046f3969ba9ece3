package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/feli-codes/Door2Dock/internal/models"
	"github.com/feli-codes/Door2Dock/pkg/database"
	"github.com/feli-codes/Door2Dock/pkg/logging"
	"github.com/feli-codes/Door2Dock/pkg/metrics"
)

// BikeRepository provides data access for the monitored-station registry
// and the availability fact table
type BikeRepository interface {
	// Schema bootstrap, idempotent, run on every startup
	Bootstrap(ctx context.Context) error

	// Registry operations
	UpsertMonitoredStations(ctx context.Context, stations []*models.MonitoredStation) error
	ListMonitoredStationIDs(ctx context.Context) ([]string, error)
	ListMonitoredStations(ctx context.Context) ([]*models.MonitoredStation, error)

	// Reading operations
	InsertReadings(ctx context.Context, readings []*models.Reading) error
	CountReadings(ctx context.Context) (int64, error)

	// Aggregation operations
	Summary(ctx context.Context) (*AvailabilitySummary, error)
	StationAverages(ctx context.Context) ([]*StationAverage, error)

	// Utility operations
	HealthCheck(ctx context.Context) error
}

// AvailabilitySummary holds store-wide aggregates over the fact table
type AvailabilitySummary struct {
	TotalReadings    int64        `db:"total_readings"`
	DistinctStations int          `db:"distinct_stations"`
	FirstTimestamp   sql.NullTime `db:"first_timestamp"`
	LastTimestamp    sql.NullTime `db:"last_timestamp"`
	StorageBytes     int64        `db:"storage_bytes"`
}

// StationAverage holds per-station aggregates over the fact table
type StationAverage struct {
	StationID    string  `db:"station_id"`
	StationName  string  `db:"station_name"`
	ReadingCount int64   `db:"reading_count"`
	AvgBikes     float64 `db:"avg_bikes"`
	AvgEBikes    float64 `db:"avg_ebikes"`
}

// bikeRepository implements BikeRepository on PostgreSQL
type bikeRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewBikeRepository creates a new bike repository
func NewBikeRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) BikeRepository {
	return &bikeRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Bootstrap creates the schema if it does not exist yet. Safe to run on
// every startup.
func (r *bikeRepository) Bootstrap(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS bike_availability (
			id              BIGSERIAL PRIMARY KEY,
			timestamp       TIMESTAMPTZ NOT NULL,
			station_id      TEXT NOT NULL,
			station_name    TEXT,
			available_bikes INTEGER,
			standard_bikes  INTEGER,
			ebikes          INTEGER,
			empty_docks     INTEGER,
			total_docks     INTEGER,
			latitude        DOUBLE PRECISION,
			longitude       DOUBLE PRECISION
		)`,
		`CREATE TABLE IF NOT EXISTS monitored_stations (
			station_id      TEXT PRIMARY KEY,
			station_name    TEXT,
			latitude        DOUBLE PRECISION,
			longitude       DOUBLE PRECISION,
			distance_m      DOUBLE PRECISION
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bike_timestamp
			ON bike_availability (timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_bike_station
			ON bike_availability (station_id)`,
	}

	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, "bootstrap", stmt); err != nil {
			return fmt.Errorf("failed to bootstrap schema: %w", err)
		}
	}

	r.logger.Info(ctx, "[REPO_BOOTSTRAP] Schema ready", logging.Fields{
		"tables": []string{"bike_availability", "monitored_stations"},
	})

	return nil
}

// UpsertMonitoredStations inserts or replaces registry rows by primary
// key within one transaction. Rows outside the current radius are left
// in place on purpose.
func (r *bikeRepository) UpsertMonitoredStations(ctx context.Context, stations []*models.MonitoredStation) error {
	if len(stations) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO monitored_stations (station_id, station_name, latitude, longitude, distance_m)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (station_id) DO UPDATE SET
			station_name = EXCLUDED.station_name,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			distance_m = EXCLUDED.distance_m
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range stations {
		if _, err := stmt.ExecContext(ctx, s.StationID, s.StationName, s.Latitude, s.Longitude, s.DistanceM); err != nil {
			return fmt.Errorf("failed to upsert monitored station %s: %w", s.StationID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Debug(ctx, "[REPO_UPSERT_STATIONS] Registry updated", logging.Fields{
		"count": len(stations),
	})

	return nil
}

// ListMonitoredStationIDs returns all registry station IDs. An empty
// result is a valid state, not an error.
func (r *bikeRepository) ListMonitoredStationIDs(ctx context.Context) ([]string, error) {
	query := `SELECT station_id FROM monitored_stations ORDER BY distance_m`

	ids := []string{}
	if err := r.db.SelectContext(ctx, "list_station_ids", &ids, query); err != nil {
		return nil, fmt.Errorf("failed to list monitored station ids: %w", err)
	}

	return ids, nil
}

// ListMonitoredStations returns all registry rows ordered by proximity
func (r *bikeRepository) ListMonitoredStations(ctx context.Context) ([]*models.MonitoredStation, error) {
	query := `
		SELECT station_id, station_name, latitude, longitude, distance_m
		FROM monitored_stations
		ORDER BY distance_m
	`

	stations := []*models.MonitoredStation{}
	if err := r.db.SelectContext(ctx, "list_stations", &stations, query); err != nil {
		return nil, fmt.Errorf("failed to list monitored stations: %w", err)
	}

	return stations, nil
}

// InsertReadings appends all readings of one cycle in a single
// transaction. Rows are never updated or deleted afterwards.
func (r *bikeRepository) InsertReadings(ctx context.Context, readings []*models.Reading) error {
	if len(readings) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bike_availability (
			timestamp, station_id, station_name, available_bikes,
			standard_bikes, ebikes, empty_docks, total_docks,
			latitude, longitude
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, reading := range readings {
		_, err := stmt.ExecContext(ctx,
			reading.Timestamp,
			reading.StationID,
			reading.StationName,
			reading.AvailableBikes,
			reading.StandardBikes,
			reading.EBikes,
			reading.EmptyDocks,
			reading.TotalDocks,
			reading.Latitude,
			reading.Longitude,
		)
		if err != nil {
			return fmt.Errorf("failed to insert reading for %s: %w", reading.StationID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.ReadingsWrittenTotal.Add(float64(len(readings)))

	return nil
}

// CountReadings returns the running total of fact rows
func (r *bikeRepository) CountReadings(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.GetContext(ctx, "count_readings", &total,
		`SELECT COUNT(*) FROM bike_availability`)
	if err != nil {
		return 0, fmt.Errorf("failed to count readings: %w", err)
	}

	return total, nil
}

// Summary computes store-wide aggregates. On an empty fact table the
// totals are zero and the timestamps invalid, which the reporter maps
// to "no data".
func (r *bikeRepository) Summary(ctx context.Context) (*AvailabilitySummary, error) {
	query := `
		SELECT COUNT(*) AS total_readings,
		       COUNT(DISTINCT station_id) AS distinct_stations,
		       MIN(timestamp) AS first_timestamp,
		       MAX(timestamp) AS last_timestamp,
		       pg_total_relation_size('bike_availability')
		           + pg_total_relation_size('monitored_stations') AS storage_bytes
		FROM bike_availability
	`

	var summary AvailabilitySummary
	if err := r.db.GetContext(ctx, "summary", &summary, query); err != nil {
		return nil, fmt.Errorf("failed to compute summary: %w", err)
	}

	return &summary, nil
}

// StationAverages computes per-station reading counts and average
// bike/e-bike availability, ordered by station name
func (r *bikeRepository) StationAverages(ctx context.Context) ([]*StationAverage, error) {
	query := `
		SELECT station_id,
		       MAX(station_name) AS station_name,
		       COUNT(*) AS reading_count,
		       AVG(available_bikes)::float8 AS avg_bikes,
		       AVG(ebikes)::float8 AS avg_ebikes
		FROM bike_availability
		GROUP BY station_id
		ORDER BY station_name
	`

	averages := []*StationAverage{}
	if err := r.db.SelectContext(ctx, "station_averages", &averages, query); err != nil {
		return nil, fmt.Errorf("failed to compute station averages: %w", err)
	}

	return averages, nil
}

// HealthCheck performs a repository health check
func (r *bikeRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}
