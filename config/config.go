package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sosodev/duration"
)

var ErrConfigNotFound = errors.New("config file not found")

// Config holds every setting shared by the command line tools and the
// server. Durations are ISO 8601 strings, e.g. "PT30S".
type Config struct {
	API        APIConfig        `toml:"api"`
	Logging    LoggingConfig    `toml:"logging"`
	Storage    StorageConfig    `toml:"storage"`
	Server     ServerConfig     `toml:"server"`
	Correction CorrectionConfig `toml:"correction"`
}

type APIConfig struct {
	Endpoint string `toml:"endpoint"`
	Timeout  string `toml:"timeout"`
	Language string `toml:"language"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // console or json
	File   string `toml:"file"`   // empty logs to stderr
}

type StorageConfig struct {
	SqlitePath string `toml:"sqlite_path"`
}

type ServerConfig struct {
	Addr   string   `toml:"addr"`
	Tokens []string `toml:"tokens"` // bearer tokens, auth is off when empty
}

type CorrectionConfig struct {
	Delay              string  `toml:"delay"`
	FallbackDistanceKm float64 `toml:"fallback_distance_km"`
	RefCode            string  `toml:"refcode"`
	Datatype           string  `toml:"datatype"`
	TimeZone           string  `toml:"time_zone"`
	LatitudeColumn     string  `toml:"latitude_column"`
	LongitudeColumn    string  `toml:"longitude_column"`
	DepthColumn        string  `toml:"depth_column"`
}

func Default() *Config {
	return &Config{
		API: APIConfig{
			Endpoint: "https://vannstand.kartverket.no/tideapi.php",
			Timeout:  "PT30S",
			Language: "nb",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Storage: StorageConfig{
			SqlitePath: "tidevann.db",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Correction: CorrectionConfig{
			Delay:           "PT0.1S",
			RefCode:         "CD",
			Datatype:        "OBS",
			TimeZone:        "Europe/Oslo",
			LatitudeColumn:  "Latitude",
			LongitudeColumn: "Longitude",
			DepthColumn:     "Dyp",
		},
	}
}

// Load decodes the file at path on top of the defaults.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	}

	config := Default()
	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return config, nil
}

// LoadWithFallback loads the first existing file of preferredPath,
// configs/config.toml and config.toml.
func LoadWithFallback(preferredPath string) (*Config, error) {
	searchPaths := []string{
		preferredPath,
		"configs/config.toml",
		"config.toml",
	}

	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	return nil, fmt.Errorf("%w in any of the expected locations: %v", ErrConfigNotFound, uniquePaths)
}

// LoadOrDefault is LoadWithFallback, returning the defaults when no file
// exists. Environment overrides are applied in both cases.
func LoadOrDefault(preferredPath string) (*Config, error) {
	config, err := LoadWithFallback(preferredPath)
	if errors.Is(err, ErrConfigNotFound) && preferredPath == "" {
		config, err = Default(), nil
	}
	if err != nil {
		return nil, err
	}

	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv overrides settings from TIDE_* variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("TIDE_API_ENDPOINT"); ok && v != "" {
		c.API.Endpoint = v
	}
	if v, ok := lookup("TIDE_API_TIMEOUT"); ok && v != "" {
		c.API.Timeout = v
	}
	if v, ok := lookup("TIDE_LOG_LEVEL"); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := lookup("TIDE_LOG_FORMAT"); ok && v != "" {
		c.Logging.Format = v
	}
	if v, ok := lookup("TIDE_SQLITE_PATH"); ok && v != "" {
		c.Storage.SqlitePath = v
	}
	if v, ok := lookup("TIDE_SERVER_ADDR"); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup("TIDE_API_TOKENS"); ok && v != "" {
		c.Server.Tokens = splitList(v)
	}
	if v, ok := lookup("TIDE_FALLBACK_KM"); ok && v != "" {
		km, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid TIDE_FALLBACK_KM %q: %w", v, err)
		}
		c.Correction.FallbackDistanceKm = km
	}

	return c.Validate()
}

func (c *Config) Validate() error {
	if c.API.Endpoint == "" {
		return fmt.Errorf("api endpoint is required")
	}
	if _, err := c.APITimeout(); err != nil {
		return err
	}
	if _, err := c.CorrectionDelay(); err != nil {
		return err
	}
	if c.Correction.FallbackDistanceKm < 0 {
		return fmt.Errorf("invalid fallback_distance_km: %g (must be >= 0)", c.Correction.FallbackDistanceKm)
	}
	if _, err := time.LoadLocation(c.Correction.TimeZone); err != nil {
		return fmt.Errorf("invalid time_zone %q: %w", c.Correction.TimeZone, err)
	}
	return nil
}

func (c *Config) APITimeout() (time.Duration, error) {
	return parseDuration("api.timeout", c.API.Timeout)
}

func (c *Config) CorrectionDelay() (time.Duration, error) {
	return parseDuration("correction.delay", c.Correction.Delay)
}

func parseDuration(name, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}

	d, err := duration.Parse(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	return d.ToTimeDuration(), nil
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
