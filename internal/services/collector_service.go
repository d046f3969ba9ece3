package services

import (
	"context"
	"time"

	"github.com/feli-codes/Door2Dock/internal/models"
	"github.com/feli-codes/Door2Dock/internal/repository"
	"github.com/feli-codes/Door2Dock/pkg/logging"
	"github.com/feli-codes/Door2Dock/pkg/metrics"
)

// CycleOutcome classifies one collection cycle
type CycleOutcome string

const (
	// CycleSuccess means at least one reading was written
	CycleSuccess CycleOutcome = "success"
	// CycleSuccessNoRows means the cycle ran cleanly but every
	// monitored station was absent or unserviceable
	CycleSuccessNoRows CycleOutcome = "success_zero_rows"
	// CycleFailureNoFeed means the catalog fetch failed, nothing was written
	CycleFailureNoFeed CycleOutcome = "failure_no_feed"
	// CycleFailureNoStations means the registry stayed empty even after
	// a discovery attempt
	CycleFailureNoStations CycleOutcome = "failure_no_stations"
)

// Failed reports whether the outcome is a hard failure
func (o CycleOutcome) Failed() bool {
	return o == CycleFailureNoFeed || o == CycleFailureNoStations
}

// CycleResult summarizes one collection cycle
type CycleResult struct {
	Outcome         CycleOutcome
	Timestamp       time.Time
	ReadingsWritten int
	TotalReadings   int64
}

// CollectorService runs collection cycles: it joins the registry
// against a fresh catalog snapshot and appends one reading per
// still-active monitored station
type CollectorService struct {
	repo      repository.BikeRepository
	catalog   CatalogFetcher
	discovery *DiscoveryService
	logger    *logging.StructuredLogger
	metrics   *metrics.Collector
}

// NewCollectorService creates a new collector service
func NewCollectorService(repo repository.BikeRepository, catalog CatalogFetcher, discovery *DiscoveryService, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *CollectorService {
	return &CollectorService{
		repo:      repo,
		catalog:   catalog,
		discovery: discovery,
		logger:    logger,
		metrics:   metricsCollector,
	}
}

// RunCycle performs exactly one collection cycle. Feed failures and an
// empty registry come back as outcomes, never as errors; a non-nil
// error means the storage layer itself failed.
func (c *CollectorService) RunCycle(ctx context.Context) (*CycleResult, error) {
	timer := c.metrics.NewTimer(c.metrics.CycleDuration)
	defer timer.ObserveDuration()

	ids, err := c.repo.ListMonitoredStationIDs(ctx)
	if err != nil {
		return nil, err
	}

	// Empty registry is a valid state: self-heal with one discovery run
	if len(ids) == 0 {
		c.logger.Info(ctx, "[COLLECT_DISCOVERY] Registry empty, running discovery", logging.Fields{})

		if _, err := c.discovery.Discover(ctx); err != nil {
			c.logger.Warn(ctx, "[COLLECT_DISCOVERY_FAILED] Discovery found no stations", logging.Fields{
				"reason": err.Error(),
			})
		}

		ids, err = c.repo.ListMonitoredStationIDs(ctx)
		if err != nil {
			return nil, err
		}

		if len(ids) == 0 {
			c.logger.Error(ctx, "[COLLECT_ERROR] No monitored stations available", logging.Fields{}, nil)
			c.metrics.RecordCycle(string(CycleFailureNoStations))
			return &CycleResult{Outcome: CycleFailureNoStations}, nil
		}
	}

	stations, err := c.catalog.FetchAllStations(ctx)
	if err != nil {
		c.logger.Error(ctx, "[COLLECT_ERROR] Catalog fetch failed, skipping cycle", logging.Fields{
			"monitored_stations": len(ids),
		}, err)
		c.metrics.RecordCycle(string(CycleFailureNoFeed))
		return &CycleResult{Outcome: CycleFailureNoFeed}, nil
	}

	lookup := make(map[string]*models.Station, len(stations))
	for i := range stations {
		lookup[stations[i].ID] = &stations[i]
	}

	// One shared timestamp for every row of this cycle
	now := time.Now().UTC()

	readings := make([]*models.Reading, 0, len(ids))
	for _, id := range ids {
		station, ok := lookup[id]
		if !ok {
			// Station dropped out of the catalog: intentional gap
			c.metrics.RecordStationSkipped("absent")
			continue
		}

		status := station.Status()
		if !status.Installed {
			c.metrics.RecordStationSkipped("not_installed")
			continue
		}
		if status.Locked {
			c.metrics.RecordStationSkipped("locked")
			continue
		}

		readings = append(readings, station.ReadingAt(now))
	}

	if err := c.repo.InsertReadings(ctx, readings); err != nil {
		return nil, err
	}

	total, err := c.repo.CountReadings(ctx)
	if err != nil {
		return nil, err
	}

	outcome := CycleSuccess
	if len(readings) == 0 {
		outcome = CycleSuccessNoRows
	}
	c.metrics.RecordCycle(string(outcome))

	c.logger.Info(ctx, "[COLLECT_COMPLETE] Cycle finished", logging.Fields{
		"outcome":          string(outcome),
		"readings_written": len(readings),
		"total_readings":   total,
		"timestamp":        now.Format(time.RFC3339),
	})

	return &CycleResult{
		Outcome:         outcome,
		Timestamp:       now,
		ReadingsWritten: len(readings),
		TotalReadings:   total,
	}, nil
}
