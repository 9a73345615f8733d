package conf

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
)

const (
	// DefaultPath is the main operator configuration file.
	DefaultPath = "/etc/layer-docker/config.toml"

	// DefaultDropInDir holds drop-in files applied after DefaultPath.
	DefaultDropInDir = "/etc/layer-docker/config.toml.d/"
)

// ErrConfigParse is returned when an operator configuration layer or the
// daemon-opts setting cannot be parsed.
var ErrConfigParse = errors.New("invalid configuration")

// defaultConfig contains the embedded default configuration file.
// This file is compiled into the binary and serves as the base layer
// of configuration before /etc/layer-docker/config.toml and drop-in files are applied.
//
//go:embed config.toml
var defaultConfig string

// Config represents the resolved operator configuration.
type Config struct {
	// DaemonOpts is the JSON object the operator declares for daemon.json.
	DaemonOpts string
	// DockerOpts is appended verbatim to the dockerd command line.
	DockerOpts string

	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string

	InstallFromUpstream bool
	Runtime             string
	AptKeyServer        string

	LogLevel slog.Level

	Paths Paths
}

// Paths lists the files written or read on behalf of the operator.
type Paths struct {
	DaemonJSON string
	Service    string
	Defaults   string
	// State is the overlay database. Empty means the platform default.
	State string
}

// Update applies non-nil values from a configDTO.
func (c *Config) Update(dto configDTO) {
	if dto.DaemonOpts != nil {
		c.DaemonOpts = *dto.DaemonOpts
	}
	if dto.DockerOpts != nil {
		c.DockerOpts = *dto.DockerOpts
	}
	if dto.HTTPProxy != nil {
		c.HTTPProxy = *dto.HTTPProxy
	}
	if dto.HTTPSProxy != nil {
		c.HTTPSProxy = *dto.HTTPSProxy
	}
	if dto.NoProxy != nil {
		c.NoProxy = *dto.NoProxy
	}
	if dto.InstallFromUpstream != nil {
		c.InstallFromUpstream = *dto.InstallFromUpstream
	}
	if dto.Runtime != nil {
		c.Runtime = *dto.Runtime
	}
	if dto.AptKeyServer != nil {
		c.AptKeyServer = *dto.AptKeyServer
	}
	if dto.LogLevel != nil {
		switch *dto.LogLevel {
		case "DEBUG":
			c.LogLevel = slog.LevelDebug
		case "INFO":
			c.LogLevel = slog.LevelInfo
		case "WARN":
			c.LogLevel = slog.LevelWarn
		case "ERROR":
			c.LogLevel = slog.LevelError
		}
	}
	if p := dto.Paths; p != nil {
		if p.DaemonJSON != nil {
			c.Paths.DaemonJSON = *p.DaemonJSON
		}
		if p.Service != nil {
			c.Paths.Service = *p.Service
		}
		if p.Defaults != nil {
			c.Paths.Defaults = *p.Defaults
		}
		if p.State != nil {
			c.Paths.State = *p.State
		}
	}
}

// Baseline parses DaemonOpts into the mapping the operator is authoritative for.
func (c Config) Baseline() (map[string]any, error) {
	return ParseDaemonOpts(c.DaemonOpts)
}

// ParseDaemonOpts decodes a daemon-opts value. Comments and trailing commas
// are accepted. An empty or null value yields an empty mapping.
func ParseDaemonOpts(data string) (map[string]any, error) {
	baseline := map[string]any{}
	if strings.TrimSpace(data) == "" {
		return baseline, nil
	}

	if err := json.Unmarshal(jsonc.ToJSON([]byte(data)), &baseline); err != nil {
		return nil, fmt.Errorf("%w: daemon-opts: %v", ErrConfigParse, err)
	}
	if baseline == nil {
		baseline = map[string]any{}
	}

	return baseline, nil
}

// ConfigSource orchestrates loading configuration from multiple sources.
// See the Read method.
type ConfigSource struct {
	Path      string
	DropInDir string
}

// DefaultSource returns a ConfigSource for the system-wide locations.
func DefaultSource() *ConfigSource {
	return &ConfigSource{
		Path:      DefaultPath,
		DropInDir: DefaultDropInDir,
	}
}

// Read loads and returns the complete Config by merging all layers:
// 1. Embedded defaults
// 2. Main configuration file
// 3. Drop-in files
func (cs *ConfigSource) Read() (Config, error) {
	resolved := Config{}

	// Start with embedded defaults
	dto, err := parseConfigDTO(defaultConfig)
	if err != nil {
		slog.Error("failed to parse embedded defaults", "error", err)
		return resolved, fmt.Errorf("failed to parse embedded defaults: %w", err)
	}
	resolved.Update(dto)

	// Load main configuration file
	data, err := os.ReadFile(cs.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			return resolved, fmt.Errorf("failed to load %s: %w", cs.Path, err)
		}
	} else {
		mainDTO, err := parseConfigDTO(string(data))
		if err != nil {
			// Existing but malformed file should result in failure (let's not hide
			// problems from the operator).
			return resolved, fmt.Errorf("failed to parse %s: %w", cs.Path, err)
		}
		resolved.Update(mainDTO)
	}

	dropInDTOs, err := cs.parseDropInFiles()
	if err != nil {
		slog.Error("failed to load drop-in files", "error", err, "dir", cs.DropInDir)
		return resolved, err
	}
	for _, dropInDTO := range dropInDTOs {
		resolved.Update(dropInDTO)
	}

	return resolved, nil
}

// Baseline re-reads every configuration layer and returns the parsed
// daemon-opts mapping. Nothing is cached between calls.
func (cs *ConfigSource) Baseline() (map[string]any, error) {
	config, err := cs.Read()
	if err != nil {
		return nil, err
	}
	return config.Baseline()
}

type configDTO struct {
	DaemonOpts          *string   `toml:"daemon-opts"`
	DockerOpts          *string   `toml:"docker-opts"`
	HTTPProxy           *string   `toml:"http_proxy"`
	HTTPSProxy          *string   `toml:"https_proxy"`
	NoProxy             *string   `toml:"no_proxy"`
	InstallFromUpstream *bool     `toml:"install-from-upstream"`
	Runtime             *string   `toml:"docker-runtime"`
	AptKeyServer        *string   `toml:"apt-key-server"`
	LogLevel            *string   `toml:"log-level"`
	Paths               *pathsDTO `toml:"paths"`
}

type pathsDTO struct {
	DaemonJSON *string `toml:"daemon-json"`
	Service    *string `toml:"service"`
	Defaults   *string `toml:"defaults"`
	State      *string `toml:"state"`
}

// parseConfigDTO parses a TOML string into a configDTO.
func parseConfigDTO(data string) (configDTO, error) {
	var dto configDTO

	if err := toml.Unmarshal([]byte(data), &dto); err != nil {
		return dto, fmt.Errorf("%w: failed to parse TOML: %w", ErrConfigParse, err)
	}

	return dto, nil
}

// findDropInFiles finds and returns sorted paths to drop-in configuration files.
// Returns nil if the drop-in directory doesn't exist (not an error).
func (cs *ConfigSource) findDropInFiles() ([]string, error) {
	if _, err := os.Stat(cs.DropInDir); os.IsNotExist(err) {
		return nil, nil
	}

	entries, err := os.ReadDir(cs.DropInDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read drop-in directory %s: %w", cs.DropInDir, err)
	}

	var filenames []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".toml") {
			filenames = append(filenames, filepath.Join(cs.DropInDir, entry.Name()))
		}
	}

	sort.Strings(filenames)

	return filenames, nil
}

// parseDropInFiles loads .toml files.
func (cs *ConfigSource) parseDropInFiles() ([]configDTO, error) {
	paths, err := cs.findDropInFiles()
	if err != nil {
		return nil, err
	}

	var dtos []configDTO
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		dto, err := parseConfigDTO(string(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}

		dtos = append(dtos, dto)
	}

	return dtos, nil
}
