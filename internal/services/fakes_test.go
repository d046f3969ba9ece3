package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/feli-codes/Door2Dock/internal/models"
	"github.com/feli-codes/Door2Dock/internal/repository"
	"github.com/feli-codes/Door2Dock/pkg/logging"
	"github.com/feli-codes/Door2Dock/pkg/metrics"
)

// One collector for the whole test binary; promauto registers globally.
var testMetrics = metrics.NewCollector("services_test")

func testLogger() *logging.StructuredLogger {
	return logging.NewStructuredLogger("services-test", "test", logging.FatalLevel)
}

// fakeRepo is an in-memory BikeRepository
type fakeRepo struct {
	monitored   map[string]*models.MonitoredStation
	order       []string // insertion order by ascending distance
	readings    []*models.Reading
	upsertCalls int
	listErr     error
	insertErr   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{monitored: make(map[string]*models.MonitoredStation)}
}

func (f *fakeRepo) Bootstrap(ctx context.Context) error { return nil }

func (f *fakeRepo) UpsertMonitoredStations(ctx context.Context, stations []*models.MonitoredStation) error {
	f.upsertCalls++
	for _, s := range stations {
		if _, exists := f.monitored[s.StationID]; !exists {
			f.order = append(f.order, s.StationID)
		}
		copied := *s
		f.monitored[s.StationID] = &copied
	}
	return nil
}

func (f *fakeRepo) ListMonitoredStationIDs(ctx context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	ids := make([]string, len(f.order))
	copy(ids, f.order)
	return ids, nil
}

func (f *fakeRepo) ListMonitoredStations(ctx context.Context) ([]*models.MonitoredStation, error) {
	out := make([]*models.MonitoredStation, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.monitored[id])
	}
	return out, nil
}

func (f *fakeRepo) InsertReadings(ctx context.Context, readings []*models.Reading) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.readings = append(f.readings, readings...)
	return nil
}

func (f *fakeRepo) CountReadings(ctx context.Context) (int64, error) {
	return int64(len(f.readings)), nil
}

func (f *fakeRepo) Summary(ctx context.Context) (*repository.AvailabilitySummary, error) {
	summary := &repository.AvailabilitySummary{
		TotalReadings: int64(len(f.readings)),
		StorageBytes:  4096,
	}

	distinct := make(map[string]bool)
	for i, r := range f.readings {
		distinct[r.StationID] = true
		if i == 0 || r.Timestamp.Before(summary.FirstTimestamp.Time) {
			summary.FirstTimestamp = sql.NullTime{Time: r.Timestamp, Valid: true}
		}
		if i == 0 || r.Timestamp.After(summary.LastTimestamp.Time) {
			summary.LastTimestamp = sql.NullTime{Time: r.Timestamp, Valid: true}
		}
	}
	summary.DistinctStations = len(distinct)

	return summary, nil
}

func (f *fakeRepo) StationAverages(ctx context.Context) ([]*repository.StationAverage, error) {
	byStation := make(map[string]*repository.StationAverage)
	sums := make(map[string][2]int)

	for _, r := range f.readings {
		avg, ok := byStation[r.StationID]
		if !ok {
			avg = &repository.StationAverage{StationID: r.StationID, StationName: r.StationName}
			byStation[r.StationID] = avg
		}
		avg.ReadingCount++
		s := sums[r.StationID]
		sums[r.StationID] = [2]int{s[0] + r.AvailableBikes, s[1] + r.EBikes}
	}

	out := make([]*repository.StationAverage, 0, len(byStation))
	for id, avg := range byStation {
		avg.AvgBikes = float64(sums[id][0]) / float64(avg.ReadingCount)
		avg.AvgEBikes = float64(sums[id][1]) / float64(avg.ReadingCount)
		out = append(out, avg)
	}
	return out, nil
}

func (f *fakeRepo) HealthCheck(ctx context.Context) error { return nil }

// fakeCatalog is a canned CatalogFetcher
type fakeCatalog struct {
	stations []models.Station
	err      error
	calls    int
}

var errFeedDown = errors.New("feed unreachable")

func (f *fakeCatalog) FetchAllStations(ctx context.Context) ([]models.Station, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.stations, nil
}
