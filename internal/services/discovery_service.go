package services

import (
	"context"
	"math"
	"sort"

	"github.com/feli-codes/Door2Dock/internal/config"
	"github.com/feli-codes/Door2Dock/internal/geo"
	"github.com/feli-codes/Door2Dock/internal/models"
	"github.com/feli-codes/Door2Dock/internal/repository"
	"github.com/feli-codes/Door2Dock/pkg/logging"
	"github.com/feli-codes/Door2Dock/pkg/metrics"
)

// CatalogFetcher fetches the full upstream station catalog in one call
type CatalogFetcher interface {
	FetchAllStations(ctx context.Context) ([]models.Station, error)
}

// DiscoveredStation is a registry row plus the station status at
// discovery time, used for the human-readable summary
type DiscoveredStation struct {
	models.MonitoredStation
	Status models.StationStatus
}

// DiscoveryService selects the monitored-station set by geofencing the
// catalog around the reference point
type DiscoveryService struct {
	repo      repository.BikeRepository
	catalog   CatalogFetcher
	reference config.ReferencePoint
	radiusM   float64
	logger    *logging.StructuredLogger
	metrics   *metrics.Collector
}

// NewDiscoveryService creates a new discovery service
func NewDiscoveryService(repo repository.BikeRepository, catalog CatalogFetcher, cfg *config.Config, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *DiscoveryService {
	return &DiscoveryService{
		repo:      repo,
		catalog:   catalog,
		reference: cfg.Reference,
		radiusM:   cfg.SearchRadiusM,
		logger:    logger,
		metrics:   metricsCollector,
	}
}

// Discover fetches the catalog, keeps every station within the radius,
// sorts the kept set by ascending distance and upserts it into the
// registry. Stale rows outside the radius are left alone. A feed
// failure aborts with zero stations found and no registry change.
func (s *DiscoveryService) Discover(ctx context.Context) ([]*DiscoveredStation, error) {
	s.metrics.DiscoveryRunsTotal.Inc()

	s.logger.Info(ctx, "[DISCOVERY_START] Searching stations around reference point", logging.Fields{
		"reference_lat": s.reference.Latitude,
		"reference_lon": s.reference.Longitude,
		"radius_m":      s.radiusM,
	})

	stations, err := s.catalog.FetchAllStations(ctx)
	if err != nil {
		s.logger.Error(ctx, "[DISCOVERY_ERROR] Catalog fetch failed, no stations found", logging.Fields{}, err)
		return nil, err
	}

	nearby := make([]*DiscoveredStation, 0)
	for _, station := range stations {
		dist := geo.Haversine(s.reference.Latitude, s.reference.Longitude, station.Lat, station.Lon)
		if dist > s.radiusM {
			continue
		}

		nearby = append(nearby, &DiscoveredStation{
			MonitoredStation: models.MonitoredStation{
				StationID:   station.ID,
				StationName: station.CommonName,
				Latitude:    station.Lat,
				Longitude:   station.Lon,
				DistanceM:   math.Round(dist),
			},
			Status: station.Status(),
		})
	}

	sort.Slice(nearby, func(i, j int) bool {
		return nearby[i].DistanceM < nearby[j].DistanceM
	})

	rows := make([]*models.MonitoredStation, len(nearby))
	for i, d := range nearby {
		rows[i] = &d.MonitoredStation
	}
	if err := s.repo.UpsertMonitoredStations(ctx, rows); err != nil {
		return nil, err
	}

	s.metrics.DiscoveryStationsFound.Set(float64(len(nearby)))

	s.logger.Info(ctx, "[DISCOVERY_COMPLETE] Monitored-station registry updated", logging.Fields{
		"stations_found": len(nearby),
		"catalog_size":   len(stations),
	})

	return nearby, nil
}
