package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.Recommend.TransportBoundaryKm != 3 {
		t.Errorf("transport boundary = %v, want 3", cfg.Recommend.TransportBoundaryKm)
	}
	if cfg.Data.Tables["travels"].Encoding != "euc-kr" {
		t.Errorf("travels encoding = %q, want euc-kr", cfg.Data.Tables["travels"].Encoding)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty port", func(c *Config) { c.Server.Port = "" }, true},
		{"zero timeout", func(c *Config) { c.Geocoding.Timeout = 0 }, true},
		{"negative radius", func(c *Config) { c.Recommend.SecondRadiusKm = -1 }, true},
		{"zero top n", func(c *Config) { c.Recommend.FoodTopN = 0 }, true},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"negative idle ttl", func(c *Config) { c.Session.IdleTTL = -time.Minute }, true},
		{"idle ttl without sweep", func(c *Config) { c.Session.SweepInterval = 0 }, true},
		{"sessions kept forever", func(c *Config) { c.Session.IdleTTL, c.Session.SweepInterval = 0, 0 }, false},
		{"bad encoding", func(c *Config) {
			c.Data.Tables["moves"] = TableFile{Name: "m.csv", Encoding: "latin1"}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_FileAndEnvLayers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "server:\n  port: \":9090\"\nrecommend:\n  first_top_n: 7\ngeocoding:\n  timeout: 2s\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("TRIPRECO_GEOCODING__API_KEY", "secret")
	t.Setenv("TRIPRECO_RECOMMEND__FIRST_TOP_N", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != ":9090" {
		t.Errorf("port = %q, want :9090", cfg.Server.Port)
	}
	if cfg.Geocoding.Timeout != 2*time.Second {
		t.Errorf("timeout = %v, want 2s", cfg.Geocoding.Timeout)
	}
	if cfg.Geocoding.APIKey != "secret" {
		t.Errorf("api key = %q, want secret", cfg.Geocoding.APIKey)
	}
	if cfg.Recommend.FirstTopN != 3 {
		t.Errorf("first_top_n = %d, want env override 3", cfg.Recommend.FirstTopN)
	}
	if cfg.Recommend.SecondTopN != 1 {
		t.Errorf("second_top_n = %d, want default 1", cfg.Recommend.SecondTopN)
	}
}

func TestEnvTransform(t *testing.T) {
	if got := envTransform("TRIPRECO_SERVER__READ_TIMEOUT"); got != "server.read_timeout" {
		t.Errorf("envTransform = %q", got)
	}
}
