// Wayfarer - Travel Data Enrichment and Caching Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package poi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/wayfarer/internal/config"
	"github.com/tomtom215/wayfarer/internal/models"
)

func clientConfig(baseURL, key string) config.POIConfig {
	return config.POIConfig{
		APIKey:    key,
		BaseURL:   baseURL,
		Timeout:   5 * time.Second,
		GlobalMax: 30,
		TTLDays:   7,
	}
}

const placesBody = `{
  "status": "OK",
  "results": [
    {
      "place_id": "p1",
      "name": "Good Coffee",
      "rating": 4.5,
      "photos": [{"photo_reference": "ref-1"}, {"photo_reference": "ref-2"}],
      "geometry": {"location": {"lat": 40.71, "lng": -74.0}}
    },
    {
      "place_id": "p2",
      "name": "Fine Diner",
      "rating": 4.1,
      "geometry": {"location": {"lat": 40.72, "lng": -74.01}}
    },
    {
      "place_id": "p3",
      "name": "Extra Place",
      "rating": 3.9,
      "geometry": {"location": {"lat": 40.73, "lng": -74.02}}
    }
  ]
}`

func TestSearchNearbyProjectsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("key") != "test-key" || q.Get("type") != "cafe" || q.Get("radius") != "1000" {
			t.Errorf("query = %v", q)
		}
		fmt.Fprint(w, placesBody)
	}))
	defer srv.Close()

	client := NewClient(clientConfig(srv.URL, "test-key"))
	pois, err := client.SearchNearby(context.Background(), models.Coordinates{Lat: 40.7128, Lng: -74.0060}, 1000, "cafe", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(pois) != 3 {
		t.Fatalf("len = %d, want 3", len(pois))
	}

	first := pois[0]
	if first.ID != "p1" || first.Name != "Good Coffee" || first.Rating != 4.5 {
		t.Errorf("first = %+v", first)
	}
	// Only the first photo reference survives projection.
	if first.PhotoRef != "ref-1" {
		t.Errorf("photo ref = %q", first.PhotoRef)
	}
	if !strings.Contains(first.PhotoURL, "photo_reference=ref-1") {
		t.Errorf("photo url = %q", first.PhotoURL)
	}
	if pois[1].PhotoRef != "" || pois[1].PhotoURL != "" {
		t.Errorf("photo-less result got ref %q url %q", pois[1].PhotoRef, pois[1].PhotoURL)
	}
	if first.Type != "cafe" || first.Geometry.Lat != 40.71 {
		t.Errorf("projection = %+v", first)
	}
}

func TestSearchNearbyHonorsLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, placesBody)
	}))
	defer srv.Close()

	client := NewClient(clientConfig(srv.URL, "test-key"))
	pois, err := client.SearchNearby(context.Background(), models.Coordinates{}, 500, "cafe", 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(pois) != 2 {
		t.Errorf("len = %d, want limit 2", len(pois))
	}
}

func TestSearchNearbyMissingKey(t *testing.T) {
	client := NewClient(clientConfig("http://unused.invalid", ""))
	_, err := client.SearchNearby(context.Background(), models.Coordinates{}, 500, "cafe", 2)
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

func TestSearchNearbyRequestDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"REQUEST_DENIED","results":[]}`)
	}))
	defer srv.Close()

	client := NewClient(clientConfig(srv.URL, "revoked-key"))
	_, err := client.SearchNearby(context.Background(), models.Coordinates{}, 500, "cafe", 2)
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured for denied key", err)
	}
}

func TestSearchNearbyZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"ZERO_RESULTS","results":[]}`)
	}))
	defer srv.Close()

	client := NewClient(clientConfig(srv.URL, "test-key"))
	pois, err := client.SearchNearby(context.Background(), models.Coordinates{}, 500, "cafe", 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(pois) != 0 {
		t.Errorf("len = %d, want 0", len(pois))
	}
}

func TestSearchNearbyServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(clientConfig(srv.URL, "test-key"))
	if _, err := client.SearchNearby(context.Background(), models.Coordinates{}, 500, "cafe", 2); err == nil {
		t.Error("want error on 502")
	}
}
