package models

import (
	"testing"
	"time"
)

func props(pairs ...[2]string) []StationProperty {
	out := make([]StationProperty, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, StationProperty{Key: p[0], Value: p[1]})
	}
	return out
}

func TestStation_Status(t *testing.T) {
	tests := []struct {
		name    string
		station Station
		want    StationStatus
	}{
		{
			name: "full property bag",
			station: Station{
				ID: "BikePoints_1",
				AdditionalProperties: props(
					[2]string{PropBikes, "4"},
					[2]string{PropStandardBikes, "3"},
					[2]string{PropEBikes, "1"},
					[2]string{PropEmptyDocks, "4"},
					[2]string{PropDocks, "8"},
					[2]string{PropInstalled, "true"},
					[2]string{PropLocked, "false"},
				),
			},
			want: StationStatus{
				AvailableBikes: 4,
				StandardBikes:  3,
				EBikes:         1,
				EmptyDocks:     4,
				TotalDocks:     8,
				Installed:      true,
				Locked:         false,
			},
		},
		{
			name: "missing numeric properties coerce to zero",
			station: Station{
				ID: "BikePoints_2",
				AdditionalProperties: props(
					[2]string{PropBikes, "2"},
				),
			},
			want: StationStatus{
				AvailableBikes: 2,
				Installed:      true,
			},
		},
		{
			name: "malformed numeric value coerces to zero",
			station: Station{
				ID: "BikePoints_3",
				AdditionalProperties: props(
					[2]string{PropBikes, "n/a"},
					[2]string{PropDocks, "20"},
				),
			},
			want: StationStatus{
				TotalDocks: 20,
				Installed:  true,
			},
		},
		{
			name: "unrecognized keys are ignored",
			station: Station{
				ID: "BikePoints_4",
				AdditionalProperties: props(
					[2]string{"TerminalName", "001023"},
					[2]string{PropBikes, "7"},
				),
			},
			want: StationStatus{
				AvailableBikes: 7,
				Installed:      true,
			},
		},
		{
			name: "not installed",
			station: Station{
				ID: "BikePoints_5",
				AdditionalProperties: props(
					[2]string{PropInstalled, "false"},
				),
			},
			want: StationStatus{
				Installed: false,
			},
		},
		{
			name: "locked",
			station: Station{
				ID: "BikePoints_6",
				AdditionalProperties: props(
					[2]string{PropInstalled, "true"},
					[2]string{PropLocked, "true"},
				),
			},
			want: StationStatus{
				Installed: true,
				Locked:    true,
			},
		},
		{
			name: "empty property bag defaults to serviceable",
			station: Station{
				ID: "BikePoints_7",
			},
			want: StationStatus{
				Installed: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.station.Status(); got != tt.want {
				t.Errorf("Status() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestStationStatus_Serviceable(t *testing.T) {
	tests := []struct {
		name   string
		status StationStatus
		want   bool
	}{
		{"installed and unlocked", StationStatus{Installed: true, Locked: false}, true},
		{"not installed", StationStatus{Installed: false, Locked: false}, false},
		{"locked", StationStatus{Installed: true, Locked: true}, false},
		{"not installed and locked", StationStatus{Installed: false, Locked: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Serviceable(); got != tt.want {
				t.Errorf("Serviceable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStation_ReadingAt(t *testing.T) {
	ts := time.Date(2026, 8, 25, 7, 30, 0, 0, time.UTC)

	station := Station{
		ID:         "BikePoints_217",
		CommonName: "Wright's Lane, Kensington",
		Lat:        51.50039,
		Lon:        -0.19237,
		AdditionalProperties: props(
			[2]string{PropBikes, "4"},
			[2]string{PropStandardBikes, "3"},
			[2]string{PropEBikes, "1"},
			[2]string{PropEmptyDocks, "4"},
			[2]string{PropDocks, "8"},
			[2]string{PropInstalled, "true"},
			[2]string{PropLocked, "false"},
		),
	}

	reading := station.ReadingAt(ts)

	if !reading.Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v, want %v", reading.Timestamp, ts)
	}
	if reading.StationID != "BikePoints_217" {
		t.Errorf("StationID = %q, want %q", reading.StationID, "BikePoints_217")
	}
	if reading.StationName != "Wright's Lane, Kensington" {
		t.Errorf("StationName = %q", reading.StationName)
	}
	if reading.AvailableBikes != 4 {
		t.Errorf("AvailableBikes = %d, want 4", reading.AvailableBikes)
	}
	if reading.StandardBikes != 3 {
		t.Errorf("StandardBikes = %d, want 3", reading.StandardBikes)
	}
	if reading.EBikes != 1 {
		t.Errorf("EBikes = %d, want 1", reading.EBikes)
	}
	if reading.EmptyDocks != 4 {
		t.Errorf("EmptyDocks = %d, want 4", reading.EmptyDocks)
	}
	if reading.TotalDocks != 8 {
		t.Errorf("TotalDocks = %d, want 8", reading.TotalDocks)
	}
	if reading.Latitude != 51.50039 || reading.Longitude != -0.19237 {
		t.Errorf("coordinates = (%v, %v)", reading.Latitude, reading.Longitude)
	}
}
