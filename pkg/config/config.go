// Package config loads tokendeck settings from a TOML file.
//
// Settings are grouped in sections matching the components they drive:
//
//	[gemini]   vision API credentials, model and client limits
//	[layout]   page geometry and text metrics for slide layout
//	[output]   default output directory and format
//	[logging]  level, optional log file and formatter
//	[cache]    extraction cache backend
//	[history]  run history backend
//	[server]   HTTP service
//
// Every key has a default, so a missing file or a partial file is valid.
// The grid column count is not configurable. The API key may come from the
// TOKENDECK_API_KEY or GEMINI_API_KEY environment variables, which take
// precedence over the file.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/tokendeck/pkg/deck/sink"
	"github.com/matzehuels/tokendeck/pkg/errors"
	"github.com/matzehuels/tokendeck/pkg/layout"
)

// FileName is the configuration file name looked up in the search path.
const FileName = "tokendeck.toml"

// Environment variables consulted for the API key, in order.
var apiKeyEnv = []string{"TOKENDECK_API_KEY", "GEMINI_API_KEY"}

// Config is the complete application configuration.
type Config struct {
	Gemini  GeminiConfig  `toml:"gemini"`
	Layout  LayoutConfig  `toml:"layout"`
	Output  OutputConfig  `toml:"output"`
	Logging LoggingConfig `toml:"logging"`
	Cache   CacheConfig   `toml:"cache"`
	History HistoryConfig `toml:"history"`
	Server  ServerConfig  `toml:"server"`

	// Path is the file the configuration was loaded from, empty for defaults.
	Path string `toml:"-"`
	// Unknown lists keys present in the file that no setting consumes.
	Unknown []string `toml:"-"`
}

// GeminiConfig configures the vision API client.
type GeminiConfig struct {
	APIKey                string   `toml:"api_key"`
	Model                 string   `toml:"model"`
	BaseURL               string   `toml:"base_url"`
	Timeout               Duration `toml:"timeout"`
	MaxWorkers            int      `toml:"max_workers"`
	RequestsPerSecond     float64  `toml:"requests_per_second"`
	SystemInstructionFile string   `toml:"system_instruction_file"`
	MaxImageDimension     int      `toml:"max_image_dimension"`
}

// LayoutConfig holds page geometry and text metrics, in inches and points.
type LayoutConfig struct {
	FontSize      float64 `toml:"font_size"`
	FontName      string  `toml:"font_name"`
	CharWidth     float64 `toml:"char_width_in"`
	MinBoxWidth   float64 `toml:"min_w_in"`
	MinBoxHeight  float64 `toml:"min_h_in"`
	WrapPadding   float64 `toml:"wrap_padding_in"`
	MarginLeft    float64 `toml:"margin_l"`
	MarginRight   float64 `toml:"margin_r"`
	MarginTop     float64 `toml:"margin_t"`
	MarginBottom  float64 `toml:"margin_b"`
	HeadingHeight float64 `toml:"heading_h"`
	PageWidth     float64 `toml:"page_width_in"`
	PageHeight    float64 `toml:"page_height_in"`
}

// OutputConfig sets where and how decks are written.
type OutputConfig struct {
	Dir    string `toml:"dir"`
	Format string `toml:"format"`
}

// LoggingConfig configures the application logger.
type LoggingConfig struct {
	Level  string `toml:"level"`
	File   string `toml:"file"`
	Format string `toml:"format"`
}

// CacheConfig selects the extraction cache backend.
type CacheConfig struct {
	Backend       string   `toml:"backend"`
	Dir           string   `toml:"dir"`
	TTL           Duration `toml:"ttl"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
}

// HistoryConfig selects the run history backend.
type HistoryConfig struct {
	Backend       string `toml:"backend"`
	Path          string `toml:"path"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Addr        string   `toml:"addr"`
	ReadTimeout Duration `toml:"read_timeout"`
	MaxUploadMB int      `toml:"max_upload_mb"`
}

// Backend names.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
	BackendNone   = "none"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Gemini: GeminiConfig{
			Model:                 "gemini-2.5-flash",
			BaseURL:               "https://generativelanguage.googleapis.com",
			Timeout:               Duration{120 * time.Second},
			MaxWorkers:            10,
			RequestsPerSecond:     5,
			SystemInstructionFile: filepath.Join("config", "system_instruction.md"),
		},
		Layout: LayoutConfig{
			FontSize:      layout.DefaultFontSize,
			FontName:      layout.DefaultFontName,
			CharWidth:     layout.DefaultCharWidth,
			MinBoxWidth:   layout.DefaultMinBoxWidth,
			MinBoxHeight:  layout.DefaultMinBoxHeight,
			WrapPadding:   layout.DefaultWrapPadding,
			MarginLeft:    layout.DefaultMarginLeft,
			MarginRight:   layout.DefaultMarginRight,
			MarginTop:     layout.DefaultMarginTop,
			MarginBottom:  layout.DefaultMarginBottom,
			HeadingHeight: layout.DefaultHeadingHeight,
			PageWidth:     layout.DefaultPageWidth,
			PageHeight:    layout.DefaultPageHeight,
		},
		Output:  OutputConfig{Dir: ".", Format: string(sink.FormatPPTX)},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Cache: CacheConfig{
			Backend: BackendFile,
			TTL:     Duration{7 * 24 * time.Hour},
		},
		History: HistoryConfig{
			Backend:       BackendSQLite,
			MongoDatabase: "tokendeck",
		},
		Server: ServerConfig{
			Addr:        ":8080",
			ReadTimeout: Duration{30 * time.Second},
			MaxUploadMB: 32,
		},
	}
}

// Load reads the configuration. An explicit path must exist; with an empty
// path the search path is tried and defaults are used when nothing is found.
// Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = Find()
	} else if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
	}

	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
		cfg.Path = path
		for _, k := range md.Undecoded() {
			cfg.Unknown = append(cfg.Unknown, k.String())
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Find returns the first existing config file in the search path, or "".
func Find() string {
	for _, p := range SearchPaths() {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// SearchPaths lists the locations Load consults when no path is given.
func SearchPaths() []string {
	var paths []string
	if dir, err := ConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, FileName))
	}
	return append(paths, filepath.Join("config", FileName))
}

func (c *Config) applyEnv() {
	for _, name := range apiKeyEnv {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			c.Gemini.APIKey = v
			return
		}
	}
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	if err := c.Page().Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "[layout]")
	}
	if err := c.Grid().Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "[layout]")
	}
	if c.Gemini.Model == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "[gemini] model must be set")
	}
	if err := errors.ValidateURL(c.Gemini.BaseURL); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "[gemini] base_url")
	}
	if c.Gemini.MaxWorkers < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "[gemini] max_workers must be >= 1, got %d", c.Gemini.MaxWorkers)
	}
	if c.Gemini.RequestsPerSecond <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "[gemini] requests_per_second must be positive")
	}
	if c.Gemini.Timeout.Duration <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "[gemini] timeout must be positive")
	}
	if c.Gemini.MaxImageDimension < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "[gemini] max_image_dimension must not be negative")
	}
	if _, err := sink.ParseFormat(c.Output.Format); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "[output] format")
	}
	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return errors.New(errors.ErrCodeInvalidConfig, "[logging] unknown level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "text", "json", "logfmt":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "[logging] unknown format %q (want text, json or logfmt)", c.Logging.Format)
	}
	switch c.Cache.Backend {
	case BackendFile, BackendRedis, BackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "[cache] unknown backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == BackendRedis && c.Cache.RedisAddr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "[cache] redis_addr is required for the redis backend")
	}
	switch c.History.Backend {
	case BackendSQLite, BackendNone:
	case BackendMongo:
		if c.History.MongoURI == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "[history] mongo_uri is required for the mongo backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "[history] unknown backend %q", c.History.Backend)
	}
	if c.Server.MaxUploadMB < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "[server] max_upload_mb must be >= 1")
	}
	return nil
}

// RequireAPIKey returns the API key or a MISSING_CREDENTIAL error.
func (c *Config) RequireAPIKey() (string, error) {
	if c.Gemini.APIKey == "" {
		return "", errors.New(errors.ErrCodeMissingCredential,
			"no API key: set [gemini] api_key in %s or export %s", FileName, apiKeyEnv[0])
	}
	return c.Gemini.APIKey, nil
}

// Page returns the slide geometry.
func (c *Config) Page() layout.PageGeometry {
	l := c.Layout
	return layout.PageGeometry{
		Width:         l.PageWidth,
		Height:        l.PageHeight,
		MarginLeft:    l.MarginLeft,
		MarginRight:   l.MarginRight,
		MarginTop:     l.MarginTop,
		MarginBottom:  l.MarginBottom,
		HeadingHeight: l.HeadingHeight,
	}
}

// Grid returns the grid configuration. Columns is always the default.
func (c *Config) Grid() layout.GridConfig {
	l := c.Layout
	return layout.GridConfig{
		Columns:      layout.DefaultColumns,
		FontSize:     l.FontSize,
		FontName:     l.FontName,
		CharWidth:    l.CharWidth,
		MinBoxWidth:  l.MinBoxWidth,
		MinBoxHeight: l.MinBoxHeight,
		WrapPadding:  l.WrapPadding,
	}
}
