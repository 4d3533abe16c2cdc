package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jbweber/lvmpool/internal/log"
)

// EnvPrefix prefixes every environment override, e.g. LVMPOOL_LOG_LEVEL.
const EnvPrefix = "LVMPOOL_"

// Defaults.
const (
	DefaultExecTimeout    = 60 * time.Second
	DefaultListen         = "127.0.0.1:8420"
	DefaultLibvirtSocket  = "/var/run/libvirt/libvirt-sock"
	DefaultLibvirtTimeout = 5 * time.Second
	DefaultDevDir         = "/dev"
)

// Config is the complete lvmpool configuration.
type Config struct {
	LVM     LVMConfig     `yaml:"lvm"`
	Exec    ExecConfig    `yaml:"exec"`
	Pools   PoolsConfig   `yaml:"pools"`
	Volumes VolumesConfig `yaml:"volumes"`
	Log     LogConfig     `yaml:"log"`
	Server  ServerConfig  `yaml:"server"`
	Libvirt LibvirtConfig `yaml:"libvirt"`
}

// LVMConfig controls how LVM commands are invoked.
type LVMConfig struct {
	Binary string `yaml:"binary,omitempty"` // Multiplexer binary, e.g. "lvm"; empty runs subcommands directly
	DevDir string `yaml:"dev_dir"`          // Device directory for volume URIs
}

// ExecConfig bounds external commands.
type ExecConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// PoolsConfig controls pool reads.
type PoolsConfig struct {
	ListConcurrency int `yaml:"list_concurrency"` // Pools read in parallel by list (1 = sequential)
}

// VolumesConfig controls volume requests.
type VolumesConfig struct {
	AllowUnsupported bool `yaml:"allow_unsupported"` // Accept and ignore thin/share instead of rejecting
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// LibvirtConfig controls publishing pools to libvirt.
type LibvirtConfig struct {
	Enabled bool          `yaml:"enabled"`
	Socket  string        `yaml:"socket"`
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	return &Config{
		LVM:   LVMConfig{DevDir: DefaultDevDir},
		Exec:  ExecConfig{Timeout: DefaultExecTimeout},
		Pools: PoolsConfig{ListConcurrency: 1},
		Log:   LogConfig{Level: string(log.InfoLevel)},
		Server: ServerConfig{
			Listen: DefaultListen,
		},
		Libvirt: LibvirtConfig{
			Socket:  DefaultLibvirtSocket,
			Timeout: DefaultLibvirtTimeout,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if strings.ContainsAny(c.LVM.Binary, " \t\n") {
		return fmt.Errorf("lvm.binary must be a single executable name or path, got %q", c.LVM.Binary)
	}
	if !filepath.IsAbs(c.LVM.DevDir) {
		return fmt.Errorf("lvm.dev_dir must be an absolute path, got %q", c.LVM.DevDir)
	}
	if c.Exec.Timeout <= 0 {
		return fmt.Errorf("exec.timeout must be > 0, got %s", c.Exec.Timeout)
	}
	if c.Pools.ListConcurrency < 1 {
		return fmt.Errorf("pools.list_concurrency must be >= 1, got %d", c.Pools.ListConcurrency)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if _, _, err := net.SplitHostPort(c.Server.Listen); err != nil {
		return fmt.Errorf("server.listen must be host:port, got %q: %w", c.Server.Listen, err)
	}
	if c.Libvirt.Enabled {
		if c.Libvirt.Socket == "" {
			return fmt.Errorf("libvirt.socket is required when libvirt.enabled is true")
		}
		if c.Libvirt.Timeout <= 0 {
			return fmt.Errorf("libvirt.timeout must be > 0, got %s", c.Libvirt.Timeout)
		}
	}
	return nil
}

// Normalize trims user input and fills fields left empty by a file.
func (c *Config) Normalize() {
	c.LVM.Binary = strings.TrimSpace(c.LVM.Binary)
	c.LVM.DevDir = strings.TrimSpace(c.LVM.DevDir)
	if c.LVM.DevDir == "" {
		c.LVM.DevDir = DefaultDevDir
	}
	if len(c.LVM.DevDir) > 1 {
		c.LVM.DevDir = strings.TrimRight(c.LVM.DevDir, "/")
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = string(log.InfoLevel)
	}
	if c.Libvirt.Socket == "" {
		c.Libvirt.Socket = DefaultLibvirtSocket
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is not empty), a .env file in the working directory (if present) and
// LVMPOOL_* environment variables, in increasing order of precedence.
func Load(path string) (*Config, error) {
	// Load .env if present; variables already set in the environment win
	_ = godotenv.Load()

	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := decodeYAML(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}

	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// decodeYAML rejects unknown keys so that typos do not silently fall back
// to defaults. An empty file leaves cfg unchanged.
func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnv overrides fields from LVMPOOL_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"LVM_BINARY":     &c.LVM.Binary,
		"LVM_DEV_DIR":    &c.LVM.DevDir,
		"LOG_LEVEL":      &c.Log.Level,
		"SERVER_LISTEN":  &c.Server.Listen,
		"LIBVIRT_SOCKET": &c.Libvirt.Socket,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"VOLUMES_ALLOW_UNSUPPORTED": &c.Volumes.AllowUnsupported,
		"LOG_JSON":                  &c.Log.JSON,
		"LIBVIRT_ENABLED":           &c.Libvirt.Enabled,
	}
	for key, dst := range bools {
		if v, ok := lookup(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s %q: %w", EnvPrefix, key, v, err)
			}
			*dst = b
		}
	}

	durations := map[string]*time.Duration{
		"EXEC_TIMEOUT":    &c.Exec.Timeout,
		"LIBVIRT_TIMEOUT": &c.Libvirt.Timeout,
	}
	for key, dst := range durations {
		if v, ok := lookup(EnvPrefix + key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s %q: %w", EnvPrefix, key, v, err)
			}
			*dst = d
		}
	}

	if v, ok := lookup(EnvPrefix + "POOLS_LIST_CONCURRENCY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sPOOLS_LIST_CONCURRENCY %q: %w", EnvPrefix, v, err)
		}
		c.Pools.ListConcurrency = n
	}

	return nil
}
