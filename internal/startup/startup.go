package startup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"dam/internal/logging"
	"dam/internal/memory"

	"github.com/pelletier/go-toml/v2"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// ConfigFileName is the optional per-catalog configuration file.
const ConfigFileName = ".dam.toml"

// ThumbnailConfig controls thumbnail rendering during scans.
type ThumbnailConfig struct {
	Enabled bool `toml:"enabled"`
	Width   int  `toml:"width"`
	Height  int  `toml:"height"`
	Quality int  `toml:"quality"`
	Vips    bool `toml:"vips"`
}

// Config holds all application configuration
type Config struct {
	Thumbnails ThumbnailConfig `toml:"thumbnails"`
	// Opener replaces the platform command used by "dam open".
	Opener          string `toml:"opener"`
	MetricsTextfile string `toml:"metrics_textfile"`
	// MemoryLimit bounds the Go heap during scans, e.g. "512MiB".
	MemoryLimit string `toml:"memory_limit"`

	// Root is the catalog directory the configuration was loaded for.
	Root string `toml:"-"`
	// File is the configuration file path and FileLoaded whether it existed.
	File       string `toml:"-"`
	FileLoaded bool   `toml:"-"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Thumbnails: ThumbnailConfig{
			Enabled: true,
			Width:   600,
			Height:  400,
			Quality: 85,
		},
	}
}

// LoadConfig builds the configuration for the catalog at root: defaults,
// then <root>/.dam.toml when present, then DAM_* environment variables.
// Command-line flags are applied by the caller.
func LoadConfig(root string) (*Config, error) {
	cfg := Default()
	cfg.Root = root
	cfg.File = filepath.Join(root, ConfigFileName)

	loaded, err := decodeFile(cfg.File, &cfg)
	if err != nil {
		return nil, err
	}
	cfg.FileLoaded = loaded

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.Log()
	return &cfg, nil
}

func decodeFile(path string, cfg *Config) (bool, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return false, fmt.Errorf("parse config %s: %w", path, err)
	}
	return true, nil
}

func (c *Config) applyEnv() error {
	var err error
	if c.Thumbnails.Enabled, err = envBool("DAM_THUMBNAILS", c.Thumbnails.Enabled); err != nil {
		return err
	}
	if c.Thumbnails.Width, err = envInt("DAM_THUMBNAIL_WIDTH", c.Thumbnails.Width); err != nil {
		return err
	}
	if c.Thumbnails.Height, err = envInt("DAM_THUMBNAIL_HEIGHT", c.Thumbnails.Height); err != nil {
		return err
	}
	if c.Thumbnails.Quality, err = envInt("DAM_THUMBNAIL_QUALITY", c.Thumbnails.Quality); err != nil {
		return err
	}
	if c.Thumbnails.Vips, err = envBool("DAM_VIPS", c.Thumbnails.Vips); err != nil {
		return err
	}
	c.Opener = getEnv("DAM_OPENER", c.Opener)
	c.MetricsTextfile = getEnv("DAM_METRICS_TEXTFILE", c.MetricsTextfile)
	c.MemoryLimit = getEnv("DAM_MEMORY_LIMIT", c.MemoryLimit)
	return nil
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	t := c.Thumbnails
	if t.Width < 1 || t.Width > 4096 {
		return fmt.Errorf("thumbnails.width must be between 1 and 4096, got %d", t.Width)
	}
	if t.Height < 1 || t.Height > 4096 {
		return fmt.Errorf("thumbnails.height must be between 1 and 4096, got %d", t.Height)
	}
	if t.Quality < 1 || t.Quality > 100 {
		return fmt.Errorf("thumbnails.quality must be between 1 and 100, got %d", t.Quality)
	}
	if c.Opener != "" && strings.TrimSpace(c.Opener) == "" {
		return errors.New("opener must not be blank")
	}
	if c.MemoryLimit != "" {
		if _, err := memory.ParseLimit(c.MemoryLimit); err != nil {
			return fmt.Errorf("memory_limit: %w", err)
		}
	}
	return nil
}

// Log writes the effective configuration at debug level.
func (c *Config) Log() {
	if !logging.IsDebugEnabled() {
		return
	}
	source := "defaults"
	if c.FileLoaded {
		source = c.File
	}
	logging.Debug("Configuration (%s):", source)
	logging.Debug("  THUMBNAILS:        %s", enabledString(c.Thumbnails.Enabled))
	logging.Debug("  THUMBNAIL_SIZE:    %dx%d q%d", c.Thumbnails.Width, c.Thumbnails.Height, c.Thumbnails.Quality)
	logging.Debug("  VIPS:              %s", enabledString(c.Thumbnails.Vips))
	logging.Debug("  OPENER:            %s", valueOr(c.Opener, "(platform default)"))
	logging.Debug("  METRICS_TEXTFILE:  %s", valueOr(c.MetricsTextfile, "(disabled)"))
	logging.Debug("  MEMORY_LIMIT:      %s", valueOr(c.MemoryLimit, "(runtime default)"))
	logging.Debug("  LOG_LEVEL:         %s", logging.GetLevel())
}

// FFmpegVersion returns the first line of "ffmpeg -version".
func FFmpegVersion(ctx context.Context) (string, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return "", fmt.Errorf("ffmpeg not found in PATH")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, "ffmpeg", "-version").Output()
	if err != nil {
		return "", fmt.Errorf("failed to get ffmpeg version: %w", err)
	}
	line, _, _ := strings.Cut(string(output), "\n")
	return strings.TrimSpace(line), nil
}

func enabledString(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid boolean value for %s: %q", key, value)
	}
	return parsed, nil
}

func envInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid integer value for %s: %q", key, value)
	}
	return parsed, nil
}
