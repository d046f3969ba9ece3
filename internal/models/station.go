package models

import (
	"strconv"
	"time"
)

// Recognized keys in the BikePoint additionalProperties list.
const (
	PropBikes         = "NbBikes"
	PropStandardBikes = "NbStandardBikes"
	PropEBikes        = "NbEBikes"
	PropEmptyDocks    = "NbEmptyDocks"
	PropDocks         = "NbDocks"
	PropInstalled     = "Installed"
	PropLocked        = "Locked"
)

// StationProperty is one key/value pair from the upstream property bag
type StationProperty struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Station represents a catalog entry from the upstream BikePoint feed.
// Transient: consumed per cycle, never persisted verbatim.
type Station struct {
	ID                   string            `json:"id"`
	CommonName           string            `json:"commonName"`
	Lat                  float64           `json:"lat"`
	Lon                  float64           `json:"lon"`
	AdditionalProperties []StationProperty `json:"additionalProperties"`
}

// StationStatus is the parsed property bag of a catalog station.
// Missing numeric properties coerce to zero; a station is installed
// unless the feed says otherwise and unlocked unless the feed says so.
type StationStatus struct {
	AvailableBikes int
	StandardBikes  int
	EBikes         int
	EmptyDocks     int
	TotalDocks     int
	Installed      bool
	Locked         bool
}

// Serviceable reports whether the station can yield a reading this cycle
func (s StationStatus) Serviceable() bool {
	return s.Installed && !s.Locked
}

// Status parses the recognized keys out of the additionalProperties list
func (s *Station) Status() StationStatus {
	status := StationStatus{
		Installed: true,
		Locked:    false,
	}

	for _, p := range s.AdditionalProperties {
		switch p.Key {
		case PropBikes:
			status.AvailableBikes = atoiOrZero(p.Value)
		case PropStandardBikes:
			status.StandardBikes = atoiOrZero(p.Value)
		case PropEBikes:
			status.EBikes = atoiOrZero(p.Value)
		case PropEmptyDocks:
			status.EmptyDocks = atoiOrZero(p.Value)
		case PropDocks:
			status.TotalDocks = atoiOrZero(p.Value)
		case PropInstalled:
			status.Installed = p.Value != "false"
		case PropLocked:
			status.Locked = p.Value == "true"
		}
	}

	return status
}

// ReadingAt builds the availability reading for this station at the
// shared cycle timestamp.
func (s *Station) ReadingAt(ts time.Time) *Reading {
	status := s.Status()

	return &Reading{
		Timestamp:      ts,
		StationID:      s.ID,
		StationName:    s.CommonName,
		AvailableBikes: status.AvailableBikes,
		StandardBikes:  status.StandardBikes,
		EBikes:         status.EBikes,
		EmptyDocks:     status.EmptyDocks,
		TotalDocks:     status.TotalDocks,
		Latitude:       s.Lat,
		Longitude:      s.Lon,
	}
}

// atoiOrZero coerces a property value to int, with missing or
// malformed values treated as zero
func atoiOrZero(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// MonitoredStation is a persisted registry row, one per station
// selected by geofenced discovery. Primary key is the station ID.
type MonitoredStation struct {
	StationID   string  `json:"station_id" db:"station_id"`
	StationName string  `json:"station_name" db:"station_name"`
	Latitude    float64 `json:"latitude" db:"latitude"`
	Longitude   float64 `json:"longitude" db:"longitude"`
	DistanceM   float64 `json:"distance_m" db:"distance_m"`
}

// Reading is one immutable availability fact. Rows are only ever
// appended; all rows of one cycle share an identical timestamp.
// The station name is denormalized on purpose so history keeps the
// display name as it was at observation time.
type Reading struct {
	ID             int64     `json:"id" db:"id"`
	Timestamp      time.Time `json:"timestamp" db:"timestamp"`
	StationID      string    `json:"station_id" db:"station_id"`
	StationName    string    `json:"station_name" db:"station_name"`
	AvailableBikes int       `json:"available_bikes" db:"available_bikes"`
	StandardBikes  int       `json:"standard_bikes" db:"standard_bikes"`
	EBikes         int       `json:"ebikes" db:"ebikes"`
	EmptyDocks     int       `json:"empty_docks" db:"empty_docks"`
	TotalDocks     int       `json:"total_docks" db:"total_docks"`
	Latitude       float64   `json:"latitude" db:"latitude"`
	Longitude      float64   `json:"longitude" db:"longitude"`
}
