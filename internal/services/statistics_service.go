package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/feli-codes/Door2Dock/internal/repository"
	"github.com/feli-codes/Door2Dock/pkg/logging"
	"github.com/feli-codes/Door2Dock/pkg/metrics"
)

// StatsReport is a read-only snapshot of the collected data
type StatsReport struct {
	HasData          bool
	TotalReadings    int64
	DistinctStations int
	FirstTimestamp   time.Time
	LastTimestamp    time.Time
	SpanDays         int
	StorageBytes     int64
	Stations         []*repository.StationAverage
}

// StatisticsService aggregates over stored readings. It never mutates
// anything.
type StatisticsService struct {
	repo    repository.BikeRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewStatisticsService creates a new statistics service
func NewStatisticsService(repo repository.BikeRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *StatisticsService {
	return &StatisticsService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Report computes the aggregate statistics. An empty store yields a
// report with HasData false rather than an error.
func (s *StatisticsService) Report(ctx context.Context) (*StatsReport, error) {
	summary, err := s.repo.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build statistics report: %w", err)
	}

	report := &StatsReport{
		TotalReadings:    summary.TotalReadings,
		DistinctStations: summary.DistinctStations,
		StorageBytes:     summary.StorageBytes,
	}

	if summary.TotalReadings == 0 {
		return report, nil
	}

	report.HasData = true
	if summary.FirstTimestamp.Valid {
		report.FirstTimestamp = summary.FirstTimestamp.Time.UTC()
	}
	if summary.LastTimestamp.Valid {
		report.LastTimestamp = summary.LastTimestamp.Time.UTC()
	}
	report.SpanDays = spanDays(report.FirstTimestamp, report.LastTimestamp)

	averages, err := s.repo.StationAverages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build statistics report: %w", err)
	}
	report.Stations = averages

	s.logger.Debug(ctx, "[STATS_REPORT] Statistics computed", logging.Fields{
		"total_readings":    report.TotalReadings,
		"distinct_stations": report.DistinctStations,
		"span_days":         report.SpanDays,
	})

	return report, nil
}

// spanDays returns the inclusive whole-day span between two timestamps
func spanDays(first, last time.Time) int {
	if last.Before(first) {
		return 0
	}
	return int(last.Sub(first).Hours()/24) + 1
}

// Render formats the report as a human-readable block for the CLI
func (r *StatsReport) Render() string {
	var b strings.Builder

	if !r.HasData {
		b.WriteString("\nNo data collected yet.\n")
		return b.String()
	}

	b.WriteString("\nData statistics:\n")
	fmt.Fprintf(&b, "   Readings:     %d\n", r.TotalReadings)
	fmt.Fprintf(&b, "   Stations:     %d\n", r.DistinctStations)
	fmt.Fprintf(&b, "   Span:         %d day(s)\n", r.SpanDays)
	fmt.Fprintf(&b, "   First entry:  %s UTC\n", r.FirstTimestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "   Last entry:   %s UTC\n", r.LastTimestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "   Storage size: %d bytes\n", r.StorageBytes)

	b.WriteString("\n")
	fmt.Fprintf(&b, "   %-42s %8s  %7s  %9s\n", "Station", "Entries", "Ø Bikes", "Ø E-Bikes")
	b.WriteString("   " + strings.Repeat("-", 72) + "\n")
	for _, s := range r.Stations {
		fmt.Fprintf(&b, "   %-42s %8d  %7.1f  %9.1f\n",
			s.StationName, s.ReadingCount, s.AvgBikes, s.AvgEBikes)
	}

	return b.String()
}
