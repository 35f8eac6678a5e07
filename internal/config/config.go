package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type PrometheusCfg struct {
	Port int `yaml:"port" json:"port"` // 0 disables the metrics server
}

type LoggingCfg struct {
	Dir          string `yaml:"dir" json:"dir"`
	RotationDays int    `yaml:"rotation_days" json:"rotation_days"` // Days to keep logs before rotation
	Verbose      bool   `yaml:"verbose" json:"verbose"`             // Emit debug lines
}

// Config holds host-side settings for the loader binary. Module identity,
// content categories and patch order are compiled in and not configurable.
type Config struct {
	InstallRoot  string        `yaml:"install_root" json:"install_root"`   // Overrides the executable's directory
	DatabasePath string        `yaml:"database_path" json:"database_path"` // SQLite content database
	HostVersion  string        `yaml:"host_version" json:"host_version"`   // Checked against the module's host range when set
	Prometheus   PrometheusCfg `yaml:"prometheus" json:"prometheus"`
	Logging      LoggingCfg    `yaml:"logging" json:"logging"`
}

const (
	DefaultDatabasePath = "/var/lib/arsenal-loader/content.db"
	DefaultLogDir       = "/var/log/arsenal-loader"
)

var (
	errInvalidPath     = errors.New("path must be absolute")
	errNegativePort    = errors.New("prometheus.port cannot be negative")
	errInvalidRotation = errors.New("logging.rotation_days cannot be negative")
)

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := decode(f)
	if err != nil {
		return nil, err
	}
	if err := cfg.validateAndDefault(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a validated configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	// Defaults never fail validation.
	_ = cfg.validateAndDefault()
	return cfg
}

func decode(r io.Reader) (*Config, error) {
	cfg := &Config{}
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			// Empty file: every field takes its default.
			return cfg, nil
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return cfg, nil
}

func (c *Config) validateAndDefault() error {
	if c.Prometheus.Port < 0 {
		return errNegativePort
	}
	if c.Logging.RotationDays < 0 {
		return errInvalidRotation
	}

	if c.Logging.RotationDays == 0 {
		c.Logging.RotationDays = 30
	}
	if c.Logging.Dir == "" {
		c.Logging.Dir = DefaultLogDir
	}
	if c.DatabasePath == "" {
		c.DatabasePath = DefaultDatabasePath
	}
	c.HostVersion = strings.TrimSpace(c.HostVersion)

	var err error
	if c.Logging.Dir, err = cleanAbsolute(c.Logging.Dir); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	if c.DatabasePath, err = cleanAbsolute(c.DatabasePath); err != nil {
		return fmt.Errorf("database_path: %w", err)
	}
	if c.InstallRoot != "" {
		if c.InstallRoot, err = cleanAbsolute(c.InstallRoot); err != nil {
			return fmt.Errorf("install_root: %w", err)
		}
	}

	return nil
}

func cleanAbsolute(p string) (string, error) {
	if p == "" {
		return "", errInvalidPath
	}
	cp := filepath.Clean(p)
	if !filepath.IsAbs(cp) {
		return "", fmt.Errorf("%w: %s", errInvalidPath, p)
	}
	return cp, nil
}

func (c *Config) PrometheusAddress() string {
	return fmt.Sprintf(":%d", c.Prometheus.Port)
}
