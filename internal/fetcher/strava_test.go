package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"training-load/internal/faults"
	"training-load/internal/trainload"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func stravaTestServer(t *testing.T, activities func(r *http.Request) any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse token form: %v", err)
		}
		if r.FormValue("grant_type") != "refresh_token" {
			t.Fatalf("expected refresh_token grant, got %q", r.FormValue("grant_type"))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "fresh-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/athlete/activities", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer fresh-token" {
			t.Fatalf("expected refreshed bearer token, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(activities(r))
	})
	return httptest.NewServer(mux)
}

func newTestStrava(t *testing.T, srv *httptest.Server) *Strava {
	t.Helper()
	s, err := NewStrava(StravaOptions{
		ClientID:     "id",
		ClientSecret: "secret",
		RefreshToken: "refresh",
		BaseURL:      srv.URL,
		TokenURL:     srv.URL + "/oauth/token",
		Timeout:      time.Second,
	}, noopLogger())
	if err != nil {
		t.Fatalf("new strava: %v", err)
	}
	return s
}

func TestNewStravaMissingCredentials(t *testing.T) {
	_, err := NewStrava(StravaOptions{ClientID: "id"}, noopLogger())
	if !errors.Is(err, faults.ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestFetchActivitiesMapsPayload(t *testing.T) {
	hrVal := 142.5
	srv := stravaTestServer(t, func(r *http.Request) any {
		if r.URL.Query().Get("after") == "" {
			t.Fatal("after parameter missing")
		}
		return []map[string]any{
			{
				"id":                1001,
				"type":              "Run",
				"distance":          10000.0,
				"moving_time":       3000,
				"average_heartrate": hrVal,
				"start_date":        "2024-05-01T06:30:00Z",
			},
			{
				"id":          1002,
				"type":        "Ride",
				"distance":    40000.0,
				"moving_time": 5400,
				"start_date":  "2024-05-01T18:00:00Z",
			},
		}
	})
	defer srv.Close()

	s := newTestStrava(t, srv)
	got, err := s.FetchActivities(context.Background(), 7)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 activities, got %d", len(got))
	}

	run := got[0]
	if run.ID != 1001 || run.Kind != trainload.KindRun {
		t.Fatalf("unexpected first activity: %+v", run)
	}
	if run.AverageHR == nil || *run.AverageHR != hrVal {
		t.Fatalf("average heartrate not mapped: %+v", run.AverageHR)
	}
	want := time.Date(2024, time.May, 1, 6, 30, 0, 0, time.UTC)
	if !run.StartDate.Equal(want) {
		t.Fatalf("start date = %v, want %v", run.StartDate, want)
	}
	if got[1].AverageHR != nil {
		t.Fatal("absent heartrate should stay nil")
	}
	if got[1].Kind != trainload.KindRide {
		t.Fatalf("ride should parse to KindRide, got %v", got[1].Kind)
	}
}

func TestFetchActivitiesUpstreamError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "fresh-token", "expires_in": 3600})
	})
	mux.HandleFunc("/athlete/activities", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := newTestStrava(t, srv)
	if _, err := s.FetchActivities(context.Background(), 7); !errors.Is(err, faults.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestFetchActivitiesRejectsBadDays(t *testing.T) {
	srv := stravaTestServer(t, func(*http.Request) any { return []map[string]any{} })
	defer srv.Close()

	s := newTestStrava(t, srv)
	if _, err := s.FetchActivities(context.Background(), 0); !errors.Is(err, faults.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLatestActivityEmpty(t *testing.T) {
	srv := stravaTestServer(t, func(*http.Request) any { return []map[string]any{} })
	defer srv.Close()

	s := newTestStrava(t, srv)
	got, err := s.LatestActivity(context.Background())
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for empty athlete, got %+v", got)
	}
}

func TestParseStartDateStripsZoneMarker(t *testing.T) {
	got, err := parseStartDate("2024-01-05T10:00:00Z")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Location() != time.UTC || got.Hour() != 10 {
		t.Fatalf("start date should be naive UTC, got %v", got)
	}
	if _, err := parseStartDate("not-a-date"); err == nil {
		t.Fatal("invalid timestamp should error")
	}
}
