// Package config resolves the command line and an optional YAML file into one
// validated Config.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/goopsie/assetExtract/evrManifests"
	platformerrors "github.com/jmgilman/go/errors"
	"gopkg.in/yaml.v3"
)

// Modes.
const (
	ModeExtract      = "extract"
	ModeDownload     = "download"
	ModeJSONManifest = "jsonmanifest"
)

// Extraction holds extract mode settings.
type Extraction struct {
	GzipEntries bool `yaml:"gzipEntries"`
	Strict      bool `yaml:"strict"`
}

// Download holds download mode settings.
type Download struct {
	Manifest string `yaml:"manifest"`
	Server   string `yaml:"server"`
	Threads  int    `yaml:"threads"`
	DryRun   bool   `yaml:"dryRun"`
}

// Config is the resolved configuration for one run.
type Config struct {
	Mode         string     `yaml:"mode"`
	Backend      string     `yaml:"backend"`
	GameDirs     []string   `yaml:"gameDirs"`
	OutputDir    string     `yaml:"outputDir"`
	PackageName  string     `yaml:"packageName"`
	ManifestType string     `yaml:"manifestType"`
	FileList     string     `yaml:"fileList"`
	NoFileList   bool       `yaml:"noFileList"`
	Extraction   Extraction `yaml:"extraction"`
	Download     Download   `yaml:"download"`
	MetricsAddr  string     `yaml:"metricsAddr"`
	LogLevel     string     `yaml:"logLevel"`
}

// Default returns the configuration used when neither flags nor a file say
// otherwise.
func Default() *Config {
	return &Config{
		Backend:      "evr",
		PackageName:  "package",
		ManifestType: evrManifests.DefaultManifestType,
		Download:     Download{Threads: 1},
		LogLevel:     "info",
	}
}

// Load reads a YAML file on top of Default.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	c := Default()
	if err := c.decode(f); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return platformerrors.Wrap(err, platformerrors.CodeInvalidConfig, "parse config file")
	}
	return nil
}

// FileListPath returns the name list to load, or "" when none should be.
// NoFileList wins, so a flag can switch off a list named in the config file.
func (c *Config) FileListPath() string {
	if c.NoFileList {
		return ""
	}
	return c.FileList
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, platformerrors.Wrapf(err, platformerrors.CodeInvalidConfig, "log level %q", c.LogLevel)
	}
	return level, nil
}

// Validate reports every missing or inconsistent setting for the selected mode.
func (c *Config) Validate() error {
	var problems []string
	require := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	switch c.Mode {
	case ModeExtract:
		require(c.Backend != "", "backend is required")
		require(len(c.GameDirs) > 0, "at least one game dir is required")
		require(c.OutputDir != "", "output dir is required")
		if strings.EqualFold(c.Backend, "evr") {
			c.validateManifestType(require)
		}
	case ModeJSONManifest:
		require(len(c.GameDirs) > 0, "at least one game dir is required")
		c.validateManifestType(require)
	case ModeDownload:
		require(c.Download.Manifest != "", "download manifest is required")
		require(c.Download.Server != "", "server is required")
		require(c.OutputDir != "", "output dir is required")
		require(c.Download.Threads >= 1, "threads must be at least 1, got %d", c.Download.Threads)
	default:
		require(false, "mode must be one of %s, %s or %s, got %q", ModeExtract, ModeDownload, ModeJSONManifest, c.Mode)
	}
	if _, err := c.Level(); err != nil {
		problems = append(problems, fmt.Sprintf("unknown log level %q", c.LogLevel))
	}

	if len(problems) > 0 {
		return platformerrors.New(platformerrors.CodeInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) validateManifestType(require func(bool, string, ...any)) {
	require(slices.Contains(evrManifests.ManifestTypes(), c.ManifestType),
		"unknown manifest type %q", c.ManifestType)
}
