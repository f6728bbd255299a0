// Package config centralizes all application configuration into typed structs.
//
// Go Learning Note — Layered Configuration:
// Defaults live in NewDefaultConfig as a plain struct literal. Load layers an
// optional YAML file and then environment variables on top of them with
// koanf, so every setting has a compiled-in value and can still be changed
// per deployment without a rebuild.
package config

import (
	"time"
)

// Config is the top-level configuration container.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Data      DataConfig      `koanf:"data"`
	Geocoding GeocodingConfig `koanf:"geocoding"`
	Cluster   ClusterConfig   `koanf:"cluster"`
	Recommend RecommendConfig `koanf:"recommend"`
	Session   SessionConfig   `koanf:"session"`
}

// ServerConfig holds HTTP server settings.
//
// Go Learning Note — time.Duration:
// Go uses time.Duration (an int64 of nanoseconds) instead of raw integers for
// timeouts. "10 * time.Second" is self-documenting; a bare "10" is not.
type ServerConfig struct {
	Port            string        `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Mode            string        `koanf:"mode"` // gin mode: debug, release, test
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json or console
}

// TableFile locates one source table on disk.
type TableFile struct {
	Name     string `koanf:"name"`
	Encoding string `koanf:"encoding"` // utf-8, euc-kr or auto
}

// DataConfig locates the survey tables and the input log.
type DataConfig struct {
	Dir      string               `koanf:"dir"`
	Tables   map[string]TableFile `koanf:"tables"`
	InputLog string               `koanf:"input_log"`
}

// GeocodingConfig configures the Kakao local API client.
type GeocodingConfig struct {
	BaseURL          string        `koanf:"base_url"`
	APIKey           string        `koanf:"api_key"`
	Timeout          time.Duration `koanf:"timeout"`
	RequestsPerSec   float64       `koanf:"requests_per_sec"`
	Burst            int           `koanf:"burst"`
	BreakerFailures  uint32        `koanf:"breaker_failures"`
	BreakerOpenAfter time.Duration `koanf:"breaker_open_timeout"`
}

// ClusterConfig points at the trained cluster model artifact.
type ClusterConfig struct {
	ModelPath string `koanf:"model_path"`
}

// RecommendConfig holds the ranking knobs. The values mirror the survey
// analysis the scores were calibrated on.
type RecommendConfig struct {
	TransportBoundaryKm float64 `koanf:"transport_boundary_km"`
	LodgingBoundaryKm   float64 `koanf:"lodging_boundary_km"`
	SecondRadiusKm      float64 `koanf:"second_radius_km"`
	FirstTopN           int     `koanf:"first_top_n"`
	SecondTopN          int     `koanf:"second_top_n"`
	FoodTopN            int     `koanf:"food_top_n"`
}

type SessionConfig struct {
	Header        string        `koanf:"header"`
	PlanTTL       time.Duration `koanf:"plan_ttl"`
	IdleTTL       time.Duration `koanf:"idle_ttl"` // 0 keeps sessions forever
	SweepInterval time.Duration `koanf:"sweep_interval"`
	Seed          int64         `koanf:"seed"` // 0 seeds from the clock
}

// NewDefaultConfig returns a Config populated with sensible defaults.
//
// Go Learning Note — Constructor Functions:
// Go has no constructors. By convention, New<Type>() functions serve the same
// purpose and return a pointer so callers share one mutable instance.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Mode:            "release",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Data: DataConfig{
			Dir: "data",
			Tables: map[string]TableFile{
				"visits":      {Name: "tn_visit_area_info.csv", Encoding: "utf-8"},
				"moves":       {Name: "tn_move_his.csv", Encoding: "utf-8"},
				"travels":     {Name: "tn_travel.csv", Encoding: "euc-kr"},
				"travelers":   {Name: "tn_traveller_master.csv", Encoding: "euc-kr"},
				"activities":  {Name: "tn_activity_his.csv", Encoding: "utf-8"},
				"codes":       {Name: "tc_codeb.csv", Encoding: "euc-kr"},
				"clusters":    {Name: "temp_cluster.csv", Encoding: "auto"},
				"consumption": {Name: "consumption_category.csv", Encoding: "utf-8"},
			},
			InputLog: "user_inputs_save.csv",
		},
		Geocoding: GeocodingConfig{
			BaseURL:          "https://dapi.kakao.com",
			Timeout:          5 * time.Second,
			RequestsPerSec:   10,
			Burst:            5,
			BreakerFailures:  5,
			BreakerOpenAfter: 30 * time.Second,
		},
		Cluster: ClusterConfig{
			ModelPath: "data/kprototypes_model.json",
		},
		Recommend: RecommendConfig{
			TransportBoundaryKm: 3,
			LodgingBoundaryKm:   5,
			SecondRadiusKm:      5,
			FirstTopN:           5,
			SecondTopN:          1,
			FoodTopN:            10,
		},
		Session: SessionConfig{
			Header:        "X-Session-ID",
			PlanTTL:       30 * time.Second,
			IdleTTL:       2 * time.Hour,
			SweepInterval: 5 * time.Minute,
		},
	}
}
