package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"gopkg.in/yaml.v3"

	"github.com/kokistudios/dartmcp/internal/roots"
	"github.com/kokistudios/dartmcp/internal/ui"
)

const (
	// HomeEnv overrides the configuration directory.
	HomeEnv = "DART_MCP_HOME"
	// DartEnv overrides dart.command.
	DartEnv = "DART_MCP_DART"

	fileName = "config.yaml"
)

// DartConfig holds toolchain invocation settings.
type DartConfig struct {
	// Command is split with shell word rules, so wrappers like "fvm dart" work.
	Command string `yaml:"command"`
}

// RootsConfig holds project root detection settings.
type RootsConfig struct {
	Marker   string   `yaml:"marker"`
	ScanDirs []string `yaml:"scan_dirs"`
	Extra    []string `yaml:"extra,omitempty"`
}

// ResolverConfig holds path resolution settings.
type ResolverConfig struct {
	ProbeRoots bool `yaml:"probe_roots"`
}

// Config holds dart-mcp configuration.
type Config struct {
	Version  string         `yaml:"version"`
	Verbose  bool           `yaml:"verbose"`
	Dart     DartConfig     `yaml:"dart"`
	Roots    RootsConfig    `yaml:"roots"`
	Resolver ResolverConfig `yaml:"resolver"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Version: "1",
		Dart: DartConfig{
			Command: "dart",
		},
		Roots: RootsConfig{
			Marker:   roots.DefaultMarker,
			ScanDirs: append([]string{}, roots.DefaultScanDirs...),
		},
	}
}

// Store is a loaded configuration and the directory it lives in.
type Store struct {
	Home   string
	Config Config
}

// Issue represents a health check finding.
type Issue struct {
	Severity string // "warning" or "error"
	Message  string
}

// Home returns the configuration directory, respecting DART_MCP_HOME.
func Home() string {
	if h := os.Getenv(HomeEnv); h != "" {
		return h
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".dart-mcp")
	}
	return filepath.Join(home, ".dart-mcp")
}

// Init writes a default config.yaml under home.
func Init(home string, force bool) error {
	cfgPath := filepath.Join(home, fileName)
	if _, err := os.Stat(cfgPath); err == nil && !force {
		return fmt.Errorf("config already exists at %s (use --force to overwrite)", cfgPath)
	}
	if err := os.MkdirAll(home, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", home, err)
	}

	s := &Store{Home: home, Config: DefaultConfig()}
	return s.SaveConfig()
}

// Load reads config.yaml from home. A missing file yields defaults;
// missing fields are filled from defaults.
func Load(home string) (*Store, error) {
	cfg := DefaultConfig()
	cfgPath := filepath.Join(home, fileName)
	data, err := os.ReadFile(cfgPath)
	if errors.Is(err, os.ErrNotExist) {
		ui.Debug("no config file, using defaults", "path", cfgPath)
		return &Store{Home: home, Config: cfg}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read config at %s: %w", cfgPath, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", fileName, err)
	}
	return &Store{Home: home, Config: cfg}, nil
}

// ApplyEnv overlays environment overrides onto the loaded config.
func (s *Store) ApplyEnv() {
	if ui.Verbose() {
		s.Config.Verbose = true
	}
	if cmd := os.Getenv(DartEnv); cmd != "" {
		s.Config.Dart.Command = cmd
	}
}

// Path returns the config file path.
func (s *Store) Path() string {
	return filepath.Join(s.Home, fileName)
}

// SaveConfig writes the current config to config.yaml.
func (s *Store) SaveConfig() error {
	data, err := yaml.Marshal(s.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(s.Home, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", s.Home, err)
	}
	if err := os.WriteFile(s.Path(), data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ConfigKeys lists the keys accepted by SetConfigValue.
var ConfigKeys = []string{
	"verbose",
	"dart.command",
	"roots.marker",
	"roots.scan_dirs",
	"roots.extra",
	"resolver.probe_roots",
}

// SetConfigValue sets a config value by dot-path key (e.g. "dart.command") and saves.
// List keys take a comma-separated value; an empty value clears the list.
func (s *Store) SetConfigValue(key, value string) error {
	switch key {
	case "verbose":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("verbose must be true or false")
		}
		s.Config.Verbose = b
	case "dart.command":
		if _, err := shlex.Split(value); err != nil {
			return fmt.Errorf("dart.command: %w", err)
		}
		s.Config.Dart.Command = value
	case "roots.marker":
		if value == "" || strings.ContainsRune(value, filepath.Separator) {
			return fmt.Errorf("roots.marker must be a plain file name")
		}
		s.Config.Roots.Marker = value
	case "roots.scan_dirs":
		s.Config.Roots.ScanDirs = splitList(value)
	case "roots.extra":
		s.Config.Roots.Extra = splitList(value)
	case "resolver.probe_roots":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("resolver.probe_roots must be true or false")
		}
		s.Config.Resolver.ProbeRoots = b
	default:
		return fmt.Errorf("unknown config key: %s\nValid keys: %s", key, strings.Join(ConfigKeys, ", "))
	}
	return s.SaveConfig()
}

func splitList(value string) []string {
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// CheckHealth inspects the config file under home.
func CheckHealth(home string) []Issue {
	var issues []Issue

	cfgPath := filepath.Join(home, fileName)
	data, err := os.ReadFile(cfgPath)
	if errors.Is(err, os.ErrNotExist) {
		return append(issues, Issue{"warning", fmt.Sprintf("no config at %s, using defaults (run 'dart-mcp config init')", cfgPath)})
	}
	if err != nil {
		return append(issues, Issue{"error", fmt.Sprintf("cannot read %s: %v", cfgPath, err)})
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return append(issues, Issue{"error", fmt.Sprintf("%s is not valid YAML: %v", fileName, err)})
	}
	if _, err := shlex.Split(cfg.Dart.Command); err != nil {
		issues = append(issues, Issue{"error", fmt.Sprintf("dart.command %q cannot be parsed: %v", cfg.Dart.Command, err)})
	}
	if cfg.Roots.Marker == "" {
		issues = append(issues, Issue{"warning", "roots.marker is empty, pubspec.yaml will be used"})
	}
	return issues
}
