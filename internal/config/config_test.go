package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}

	if cfg.Load.HRRest != 55 || cfg.Load.HRMax != 166 {
		t.Fatalf("unexpected heart rate defaults: rest=%v max=%v", cfg.Load.HRRest, cfg.Load.HRMax)
	}
	if cfg.Load.CTLSpan != 42 || cfg.Load.ATLSpan != 7 {
		t.Fatalf("unexpected span defaults: ctl=%d atl=%d", cfg.Load.CTLSpan, cfg.Load.ATLSpan)
	}
	if cfg.Load.FallbackThresholdPace != 300 {
		t.Fatalf("fallback threshold pace default = %v", cfg.Load.FallbackThresholdPace)
	}
	if cfg.Load.UserID != "default_user" {
		t.Fatalf("user id default = %q", cfg.Load.UserID)
	}
	if cfg.Strava.PerPage != 200 {
		t.Fatalf("strava per_page default = %d", cfg.Strava.PerPage)
	}
	if cfg.Todoist.Label != "gc-project" {
		t.Fatalf("todoist label default = %q", cfg.Todoist.Label)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte("load:\n  hr_rest: 48\n  hr_max: 190\n  fetch_days: 28\nserver:\n  api_key: sekret\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Load.HRRest != 48 || cfg.Load.HRMax != 190 {
		t.Fatalf("file values not applied: rest=%v max=%v", cfg.Load.HRRest, cfg.Load.HRMax)
	}
	if cfg.Load.FetchDays != 28 {
		t.Fatalf("fetch_days not applied: %d", cfg.Load.FetchDays)
	}
	if cfg.Server.APIKey != "sekret" {
		t.Fatalf("server api_key not applied: %q", cfg.Server.APIKey)
	}

	params := cfg.Params()
	if params.HRRest != 48 || params.CTLSpan != 42 {
		t.Fatalf("params mapping broken: %+v", params)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"hr range", func(c *Config) { c.Load.HRMax = c.Load.HRRest }},
		{"ctl span", func(c *Config) { c.Load.CTLSpan = 0 }},
		{"fetch days", func(c *Config) { c.Load.FetchDays = 120 }},
		{"user id", func(c *Config) { c.Load.UserID = "" }},
		{"export rows", func(c *Config) { c.Export.MaxRows = 0 }},
	}

	for _, tc := range cases {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("%s: load defaults: %v", tc.name, err)
		}
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}
