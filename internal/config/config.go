package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Server struct {
	Port              string `json:"port" yaml:"port"`
	RequestTimeoutSec int    `json:"request_timeout_sec" yaml:"request_timeout_sec"`
}

type Fetch struct {
	// TimeoutSec bounds each single provider fetch; 0 disables the bound.
	TimeoutSec int      `json:"timeout_sec" yaml:"timeout_sec"`
	Symbols    []string `json:"symbols" yaml:"symbols"`
	// Timezone is used for provider timestamps that carry no zone of their own.
	Timezone string `json:"timezone" yaml:"timezone"`
}

type AlphaVantage struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	APIKey     string `json:"api_key" yaml:"api_key"`
	BaseURL    string `json:"base_url" yaml:"base_url"`
	Interval   string `json:"interval" yaml:"interval"`
	OutputSize string `json:"output_size" yaml:"output_size"`
}

type WorldTradingData struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	APIToken string `json:"api_token" yaml:"api_token"`
	BaseURL  string `json:"base_url" yaml:"base_url"`
	Interval int    `json:"interval" yaml:"interval"`
	Range    int    `json:"range" yaml:"range"`
	Sort     string `json:"sort" yaml:"sort"`
}

type Yahoo struct {
	Enabled  bool              `json:"enabled" yaml:"enabled"`
	BaseURL  string            `json:"base_url" yaml:"base_url"`
	Interval string            `json:"interval" yaml:"interval"`
	Range    string            `json:"range" yaml:"range"`
	Aliases  map[string]string `json:"aliases" yaml:"aliases"`
}

type Recorder struct {
	// SQLitePath enables the SQLite recorder when set.
	SQLitePath string `json:"sqlite_path" yaml:"sqlite_path"`
}

type Log struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

type Config struct {
	Server           Server           `json:"server" yaml:"server"`
	Fetch            Fetch            `json:"fetch" yaml:"fetch"`
	AlphaVantage     AlphaVantage     `json:"alphavantage" yaml:"alphavantage"`
	WorldTradingData WorldTradingData `json:"worldtradingdata" yaml:"worldtradingdata"`
	Yahoo            Yahoo            `json:"yahoo" yaml:"yahoo"`
	Recorder         Recorder         `json:"recorder" yaml:"recorder"`
	Log              Log              `json:"log" yaml:"log"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 20},
		Fetch: Fetch{
			TimeoutSec: 15,
			Symbols:    []string{"AAPL", "GOOG"},
			Timezone:   "UTC",
		},
		AlphaVantage: AlphaVantage{
			Enabled:    true,
			Interval:   "15min",
			OutputSize: "compact",
		},
		WorldTradingData: WorldTradingData{
			Enabled:  true,
			Interval: 15,
			Range:    4,
			Sort:     "asc",
		},
		Yahoo: Yahoo{
			Enabled:  false,
			Interval: "15m",
			Range:    "5d",
			Aliases:  map[string]string{"SPX": "^GSPC", "SPX500": "^GSPC"},
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Load reads the config file at path (JSON or YAML by extension). If path is
// empty, config.json or config.yaml in the working directory is used when
// present; a missing file yields defaults. Environment variables override
// select fields, secrets in particular.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		for _, candidate := range []string{"config.json", "config.yaml", "config.yml"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := decode(path, b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func decode(path string, b []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(b, cfg)
	case ".json", "":
		return json.Unmarshal(b, cfg)
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if x, ok := envInt("REQUEST_TIMEOUT_SEC"); ok && x > 0 {
		cfg.Server.RequestTimeoutSec = x
	}
	if x, ok := envInt("FETCH_TIMEOUT_SEC"); ok && x >= 0 {
		cfg.Fetch.TimeoutSec = x
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		cfg.Fetch.Symbols = SplitCSV(v)
	}
	if v := os.Getenv("TIMEZONE"); v != "" {
		cfg.Fetch.Timezone = v
	}

	if b, ok := envBool("ALPHAVANTAGE_ENABLED"); ok {
		cfg.AlphaVantage.Enabled = b
	}
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		cfg.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("ALPHAVANTAGE_INTERVAL"); v != "" {
		cfg.AlphaVantage.Interval = v
	}
	if v := os.Getenv("ALPHAVANTAGE_OUTPUT_SIZE"); v != "" {
		cfg.AlphaVantage.OutputSize = v
	}
	if v := os.Getenv("ALPHAVANTAGE_BASE_URL"); v != "" {
		cfg.AlphaVantage.BaseURL = v
	}

	if b, ok := envBool("WORLDTRADINGDATA_ENABLED"); ok {
		cfg.WorldTradingData.Enabled = b
	}
	if v := os.Getenv("WORLDTRADINGDATA_API_TOKEN"); v != "" {
		cfg.WorldTradingData.APIToken = v
	}
	if x, ok := envInt("WORLDTRADINGDATA_INTERVAL"); ok && x > 0 {
		cfg.WorldTradingData.Interval = x
	}
	if x, ok := envInt("WORLDTRADINGDATA_RANGE"); ok && x > 0 {
		cfg.WorldTradingData.Range = x
	}
	if v := os.Getenv("WORLDTRADINGDATA_SORT"); v != "" {
		cfg.WorldTradingData.Sort = v
	}
	if v := os.Getenv("WORLDTRADINGDATA_BASE_URL"); v != "" {
		cfg.WorldTradingData.BaseURL = v
	}

	if b, ok := envBool("YAHOO_ENABLED"); ok {
		cfg.Yahoo.Enabled = b
	}
	if v := os.Getenv("YAHOO_INTERVAL"); v != "" {
		cfg.Yahoo.Interval = v
	}
	if v := os.Getenv("YAHOO_RANGE"); v != "" {
		cfg.Yahoo.Range = v
	}
	if v := os.Getenv("YAHOO_BASE_URL"); v != "" {
		cfg.Yahoo.BaseURL = v
	}

	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Recorder.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// Validate checks that at least one provider can be built and that the
// remaining fields are usable.
func (c Config) Validate() error {
	if c.Fetch.TimeoutSec < 0 {
		return fmt.Errorf("fetch.timeout_sec must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if !c.AlphaVantage.Usable() && !c.WorldTradingData.Usable() && !c.Yahoo.Enabled {
		return fmt.Errorf("no provider enabled: set ALPHAVANTAGE_API_KEY, WORLDTRADINGDATA_API_TOKEN or YAHOO_ENABLED")
	}
	return nil
}

// Usable reports whether the provider is enabled and has credentials.
func (a AlphaVantage) Usable() bool { return a.Enabled && a.APIKey != "" }

func (w WorldTradingData) Usable() bool { return w.Enabled && w.APIToken != "" }

func (c Config) Location() (*time.Location, error) {
	if c.Fetch.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Fetch.Timezone)
	if err != nil {
		return nil, fmt.Errorf("fetch.timezone: %w", err)
	}
	return loc, nil
}

func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSec) * time.Second
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSec) * time.Second
}

func SplitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	x, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return x, true
}

func envBool(key string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "y":
		return true, true
	case "0", "false", "no", "n":
		return false, true
	}
	return false, false
}
