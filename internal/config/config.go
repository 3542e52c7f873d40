package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"training-load/internal/logging"
	"training-load/internal/trainload"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Strava    StravaConfig    `mapstructure:"strava"`
	Todoist   TodoistConfig   `mapstructure:"todoist"`
	Server    ServerConfig    `mapstructure:"server"`
	Load      LoadConfig      `mapstructure:"load"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// StravaConfig covers activity-source access.
type StravaConfig struct {
	ClientID       string        `mapstructure:"client_id"`
	ClientSecret   string        `mapstructure:"client_secret"`
	RefreshToken   string        `mapstructure:"refresh_token"`
	BaseURL        string        `mapstructure:"base_url"`
	TokenURL       string        `mapstructure:"token_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	PerPage        int           `mapstructure:"per_page"`
}

// TodoistConfig captures the task-bridge connectivity.
type TodoistConfig struct {
	APIToken       string        `mapstructure:"api_token"`
	BaseURL        string        `mapstructure:"base_url"`
	Label          string        `mapstructure:"label"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ServerConfig tunes the HTTP API.
type ServerConfig struct {
	ListenAddr   string        `mapstructure:"listen_addr"`
	APIKey       string        `mapstructure:"api_key"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// LoadConfig holds the training-load model constants.
type LoadConfig struct {
	HRRest                float64 `mapstructure:"hr_rest"`
	HRMax                 float64 `mapstructure:"hr_max"`
	CTLSpan               int     `mapstructure:"ctl_span"`
	ATLSpan               int     `mapstructure:"atl_span"`
	FallbackThresholdPace float64 `mapstructure:"fallback_threshold_pace"`
	UserID                string  `mapstructure:"user_id"`
	FetchDays             int     `mapstructure:"fetch_days"`
}

// SchedulerConfig governs the periodic refresh cadence in serve mode.
type SchedulerConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	AlignToBucket bool          `mapstructure:"align_to_bucket"`
	StartupDelay  time.Duration `mapstructure:"startup_delay"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxRows int `mapstructure:"max_rows"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TRAINLOAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "trainload")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("strava.base_url", "https://www.strava.com/api/v3")
	v.SetDefault("strava.token_url", "https://www.strava.com/oauth/token")
	v.SetDefault("strava.request_timeout", "10s")
	v.SetDefault("strava.per_page", 200)

	v.SetDefault("todoist.base_url", "https://api.todoist.com/rest/v2")
	v.SetDefault("todoist.label", "gc-project")
	v.SetDefault("todoist.request_timeout", "10s")

	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")

	v.SetDefault("load.hr_rest", 55.0)
	v.SetDefault("load.hr_max", 166.0)
	v.SetDefault("load.ctl_span", 42)
	v.SetDefault("load.atl_span", 7)
	v.SetDefault("load.fallback_threshold_pace", 300.0)
	v.SetDefault("load.user_id", "default_user")
	v.SetDefault("load.fetch_days", 42)

	v.SetDefault("scheduler.interval", "1h")
	v.SetDefault("scheduler.align_to_bucket", false)
	v.SetDefault("scheduler.startup_delay", "0s")

	v.SetDefault("export.max_rows", 365)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Load.HRMax <= c.Load.HRRest {
		return fmt.Errorf("load.hr_max must be greater than load.hr_rest")
	}
	if c.Load.CTLSpan <= 0 || c.Load.ATLSpan <= 0 {
		return fmt.Errorf("load.ctl_span and load.atl_span must be greater than zero")
	}
	if c.Load.FallbackThresholdPace <= 0 {
		return fmt.Errorf("load.fallback_threshold_pace must be greater than zero")
	}
	if c.Load.FetchDays < 1 || c.Load.FetchDays > 90 {
		return fmt.Errorf("load.fetch_days must be between 1 and 90")
	}
	if c.Load.UserID == "" {
		return fmt.Errorf("load.user_id must not be empty")
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.Export.MaxRows <= 0 {
		return fmt.Errorf("export.max_rows must be greater than zero")
	}
	return nil
}

// Params maps the load section onto the model constants.
func (c *Config) Params() trainload.Params {
	return trainload.Params{
		HRRest:                c.Load.HRRest,
		HRMax:                 c.Load.HRMax,
		CTLSpan:               c.Load.CTLSpan,
		ATLSpan:               c.Load.ATLSpan,
		FallbackThresholdPace: c.Load.FallbackThresholdPace,
	}
}

// ResolveMaxRows returns either the CLI override or config default.
func (c *Config) ResolveMaxRows(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxRows
}
