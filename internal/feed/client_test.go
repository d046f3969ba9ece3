package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/feli-codes/Door2Dock/pkg/logging"
	"github.com/feli-codes/Door2Dock/pkg/metrics"
)

// One collector for the whole test binary; promauto registers globally.
var testMetrics = metrics.NewCollector("feed_test")

func testLogger() *logging.StructuredLogger {
	l := logging.NewStructuredLogger("feed-test", "test", logging.FatalLevel)
	return l
}

const catalogJSON = `[
	{
		"id": "BikePoints_1",
		"commonName": "River Street, Clerkenwell",
		"lat": 51.529163,
		"lon": -0.10997,
		"additionalProperties": [
			{"key": "NbBikes", "value": "12"},
			{"key": "NbEBikes", "value": "2"},
			{"key": "NbEmptyDocks", "value": "7"},
			{"key": "NbDocks", "value": "19"},
			{"key": "Installed", "value": "true"},
			{"key": "Locked", "value": "false"}
		]
	},
	{
		"id": "BikePoints_2",
		"commonName": "Phillimore Gardens, Kensington",
		"lat": 51.499606,
		"lon": -0.197574,
		"additionalProperties": []
	}
]`

func TestFetchAllStations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(catalogJSON))
	}))
	defer server.Close()

	client := NewClientWithHTTP(server.URL, server.Client(), testLogger(), testMetrics)

	stations, err := client.FetchAllStations(context.Background())
	if err != nil {
		t.Fatalf("FetchAllStations() error = %v", err)
	}

	if len(stations) != 2 {
		t.Fatalf("got %d stations, want 2", len(stations))
	}

	first := stations[0]
	if first.ID != "BikePoints_1" {
		t.Errorf("ID = %q, want %q", first.ID, "BikePoints_1")
	}
	if first.CommonName != "River Street, Clerkenwell" {
		t.Errorf("CommonName = %q", first.CommonName)
	}
	if first.Lat != 51.529163 || first.Lon != -0.10997 {
		t.Errorf("coordinates = (%v, %v)", first.Lat, first.Lon)
	}

	status := first.Status()
	if status.AvailableBikes != 12 || status.EBikes != 2 || status.TotalDocks != 19 {
		t.Errorf("parsed status = %+v", status)
	}
}

func TestFetchAllStations_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClientWithHTTP(server.URL, server.Client(), testLogger(), testMetrics)

	_, err := client.FetchAllStations(context.Background())
	if err == nil {
		t.Fatal("expected error for 502 response")
	}

	var feedErr *FeedError
	if !errors.As(err, &feedErr) {
		t.Fatalf("error type = %T, want *FeedError", err)
	}
	if feedErr.Op != "status" || feedErr.StatusCode != http.StatusBadGateway {
		t.Errorf("FeedError = %+v", feedErr)
	}
	if !feedErr.IsTransient() {
		t.Error("feed errors should be transient")
	}
}

func TestFetchAllStations_MalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "an array"`))
	}))
	defer server.Close()

	client := NewClientWithHTTP(server.URL, server.Client(), testLogger(), testMetrics)

	_, err := client.FetchAllStations(context.Background())
	if err == nil {
		t.Fatal("expected error for malformed payload")
	}

	var feedErr *FeedError
	if !errors.As(err, &feedErr) {
		t.Fatalf("error type = %T, want *FeedError", err)
	}
	if feedErr.Op != "decode" {
		t.Errorf("Op = %q, want %q", feedErr.Op, "decode")
	}
}

func TestFetchAllStations_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	httpClient := &http.Client{Timeout: 20 * time.Millisecond}
	client := NewClientWithHTTP(server.URL, httpClient, testLogger(), testMetrics)

	_, err := client.FetchAllStations(context.Background())
	if err == nil {
		t.Fatal("expected timeout error")
	}

	var feedErr *FeedError
	if !errors.As(err, &feedErr) {
		t.Fatalf("error type = %T, want *FeedError", err)
	}
	if feedErr.Op != "request" {
		t.Errorf("Op = %q, want %q", feedErr.Op, "request")
	}
}

func TestFetchAllStations_SingleAttempt(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.Error(w, "no", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClientWithHTTP(server.URL, server.Client(), testLogger(), testMetrics)

	if _, err := client.FetchAllStations(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	if requests != 1 {
		t.Errorf("client made %d requests, want exactly 1 (no internal retry)", requests)
	}
}
