package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ValueSource string

const (
	SourceConfig  ValueSource = "config"
	SourceDotenv  ValueSource = "dotenv"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

// Built-in defaults.
const (
	DefaultData         = "timeline.csv"
	DefaultLocations    = "modern.json"
	DefaultFallback     = "Jerusalem"
	DefaultFallbackLat  = 31.7683
	DefaultFallbackLon  = 35.2137
	DefaultSpan         = 5
	DefaultRadius       = 50.0
	DefaultOrbitRadius  = 45.0
	DefaultListen       = "127.0.0.1:8787"
	DefaultFetchTimeout = 30 * time.Second
)

type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

// Int parses the value, returning def when it is empty or malformed.
func (v ResolvedValue) Int(def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v.Value))
	if err != nil {
		return def
	}
	return n
}

// Float parses the value, returning def when it is empty or malformed.
func (v ResolvedValue) Float(def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v.Value), 64)
	if err != nil {
		return def
	}
	return f
}

// Duration parses a Go duration ("30s") or a bare number of seconds,
// returning def when the value is empty, malformed or not positive.
func (v ResolvedValue) Duration(def time.Duration) time.Duration {
	s := strings.TrimSpace(v.Value)
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}

type ResolveOptions struct {
	ConfigPath string
	EnvFile    string

	CLIData      string
	CLILocations string
	CLIListen    string
}

type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`
	EnvFile    string `json:"env_file"`

	Data      ResolvedValue `json:"data"`
	Locations ResolvedValue `json:"locations"`

	FallbackName ResolvedValue `json:"fallback_location"`
	FallbackLat  ResolvedValue `json:"fallback_lat"`
	FallbackLon  ResolvedValue `json:"fallback_lon"`

	DefaultSpan   ResolvedValue `json:"default_span"`
	ClusterRadius ResolvedValue `json:"cluster_radius"`
	OrbitRadius   ResolvedValue `json:"orbit_radius"`

	Listen       ResolvedValue `json:"listen"`
	FetchTimeout ResolvedValue `json:"fetch_timeout"`
}

type fileConfig struct {
	Data      string `yaml:"data"`
	Locations string `yaml:"locations"`
	Fallback  struct {
		Name string   `yaml:"name"`
		Lat  *float64 `yaml:"lat"`
		Lon  *float64 `yaml:"lon"`
	} `yaml:"fallback"`
	Timeline struct {
		DefaultSpan *int `yaml:"default_span"`
	} `yaml:"timeline"`
	Cluster struct {
		Radius      *float64 `yaml:"radius"`
		OrbitRadius *float64 `yaml:"orbit_radius"`
	} `yaml:"cluster"`
	Server struct {
		Listen string `yaml:"listen"`
	} `yaml:"server"`
	FetchTimeout string `yaml:"fetch_timeout"`
}

// envKeys maps each setting to its environment variable.
var envKeys = []struct {
	key string
	get func(*ResolvedConfig) *ResolvedValue
}{
	{"CHRONOMAP_DATA", func(c *ResolvedConfig) *ResolvedValue { return &c.Data }},
	{"CHRONOMAP_LOCATIONS", func(c *ResolvedConfig) *ResolvedValue { return &c.Locations }},
	{"CHRONOMAP_FALLBACK", func(c *ResolvedConfig) *ResolvedValue { return &c.FallbackName }},
	{"CHRONOMAP_FALLBACK_LAT", func(c *ResolvedConfig) *ResolvedValue { return &c.FallbackLat }},
	{"CHRONOMAP_FALLBACK_LON", func(c *ResolvedConfig) *ResolvedValue { return &c.FallbackLon }},
	{"CHRONOMAP_SPAN", func(c *ResolvedConfig) *ResolvedValue { return &c.DefaultSpan }},
	{"CHRONOMAP_CLUSTER_RADIUS", func(c *ResolvedConfig) *ResolvedValue { return &c.ClusterRadius }},
	{"CHRONOMAP_ORBIT_RADIUS", func(c *ResolvedConfig) *ResolvedValue { return &c.OrbitRadius }},
	{"CHRONOMAP_LISTEN", func(c *ResolvedConfig) *ResolvedValue { return &c.Listen }},
	{"CHRONOMAP_FETCH_TIMEOUT", func(c *ResolvedConfig) *ResolvedValue { return &c.FetchTimeout }},
}

func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".chronomap", "config.yaml")
}

// ResolveConfig layers settings: built-in defaults, then the YAML config
// file, then the .env file, then the process environment, then CLI flags.
// Missing config and .env files are not errors.
func ResolveConfig(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}
	envFile := strings.TrimSpace(opts.EnvFile)
	if envFile == "" {
		envFile = ".env"
	}

	out := ResolvedConfig{ConfigPath: path, EnvFile: envFile}
	applyDefaults(&out)

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}
	if cfg != nil {
		apply(&out.Data, cfg.Data, SourceConfig, path)
		apply(&out.Locations, cfg.Locations, SourceConfig, path)
		apply(&out.FallbackName, cfg.Fallback.Name, SourceConfig, path)
		apply(&out.FallbackLat, formatFloat(cfg.Fallback.Lat), SourceConfig, path)
		apply(&out.FallbackLon, formatFloat(cfg.Fallback.Lon), SourceConfig, path)
		apply(&out.DefaultSpan, formatInt(cfg.Timeline.DefaultSpan), SourceConfig, path)
		apply(&out.ClusterRadius, formatFloat(cfg.Cluster.Radius), SourceConfig, path)
		apply(&out.OrbitRadius, formatFloat(cfg.Cluster.OrbitRadius), SourceConfig, path)
		apply(&out.Listen, cfg.Server.Listen, SourceConfig, path)
		apply(&out.FetchTimeout, cfg.FetchTimeout, SourceConfig, path)
	}

	dotenv, err := loadDotenv(envFile)
	if err != nil {
		return out, err
	}
	for _, e := range envKeys {
		apply(e.get(&out), dotenv[e.key], SourceDotenv, envFile)
	}
	for _, e := range envKeys {
		applyEnv(e.get(&out), e.key)
	}

	apply(&out.Data, opts.CLIData, SourceCLI, "--data")
	apply(&out.Locations, opts.CLILocations, SourceCLI, "--locations")
	apply(&out.Listen, opts.CLIListen, SourceCLI, "--listen")

	out.Data.Value = expandUserPath(out.Data.Value)
	out.Locations.Value = expandUserPath(out.Locations.Value)

	return out, nil
}

func applyDefaults(out *ResolvedConfig) {
	def := func(dst *ResolvedValue, v string) {
		*dst = ResolvedValue{Value: v, Source: SourceDefault, From: "built-in default"}
	}
	def(&out.Data, DefaultData)
	def(&out.Locations, DefaultLocations)
	def(&out.FallbackName, DefaultFallback)
	def(&out.FallbackLat, strconv.FormatFloat(DefaultFallbackLat, 'f', -1, 64))
	def(&out.FallbackLon, strconv.FormatFloat(DefaultFallbackLon, 'f', -1, 64))
	def(&out.DefaultSpan, strconv.Itoa(DefaultSpan))
	def(&out.ClusterRadius, strconv.FormatFloat(DefaultRadius, 'f', -1, 64))
	def(&out.OrbitRadius, strconv.FormatFloat(DefaultOrbitRadius, 'f', -1, 64))
	def(&out.Listen, DefaultListen)
	def(&out.FetchTimeout, DefaultFetchTimeout.String())
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyEnv(dst *ResolvedValue, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: envKey}
	}
}

func loadConfig(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func loadDotenv(path string) (map[string]string, error) {
	vals, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return vals, nil
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
