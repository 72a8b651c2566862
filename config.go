package luna

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when no config file exists in a directory or any of its parents.
var ErrConfigNotFound = errors.New("luna: config file not found")

// Config represents the .luna.yaml configuration file.
type Config struct {
	Workspace   WorkspaceConfig   `yaml:"workspace,omitempty"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics,omitempty"`
	Log         LogConfig         `yaml:"log,omitempty"`

	// Dir is the directory the config was loaded from. Relative paths resolve against it.
	Dir string `yaml:"-"`
}

// WorkspaceConfig controls which files are indexed at startup.
type WorkspaceConfig struct {
	// Extra directories indexed alongside the workspace root (e.g. API stubs)
	Library []string `yaml:"library,omitempty"`

	// Glob patterns matched against slash-separated paths relative to the scanned root
	Exclude []string `yaml:"exclude,omitempty"`

	// Number of files parsed in parallel; zero means the number of CPUs
	Concurrency int `yaml:"concurrency,omitempty"`
}

// DiagnosticsConfig filters published diagnostics.
type DiagnosticsConfig struct {
	// Rule codes that are never reported (e.g. "undefined-doc-param")
	Disable []string `yaml:"disable,omitempty"`

	// Boolean expressions over {message, code, severity, line}; a match drops the diagnostic
	Ignore []string `yaml:"ignore,omitempty"`
}

// LogConfig configures the server logger.
type LogConfig struct {
	Level string `yaml:"level,omitempty"`
}

// DefaultConfigNames are the filenames we search for.
var DefaultConfigNames = []string{".luna.yaml", ".luna.yml", "luna.yaml", "luna.yml"}

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() *Config {
	return &Config{Log: LogConfig{Level: "info"}}
}

// LoadConfig finds and loads the nearest .luna.yaml walking up from dir.
func LoadConfig(dir string) (*Config, error) {
	path, err := FindConfig(dir)
	if err != nil {
		return nil, err
	}

	return LoadConfigFile(path)
}

// LoadConfigOrDefault is LoadConfig, falling back to DefaultConfig when no file exists.
func LoadConfigOrDefault(dir string) (*Config, error) {
	cfg, err := LoadConfig(dir)
	if errors.Is(err, ErrConfigNotFound) {
		cfg = DefaultConfig()
		cfg.Dir = dir

		return cfg, nil
	}

	return cfg, err
}

// FindConfig searches for a config file starting from dir and walking up.
func FindConfig(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for dir := absDir; ; {
		for _, name := range DefaultConfigNames {
			path := filepath.Join(dir, name)

			_, err := os.Stat(path)
			if err == nil {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrConfigNotFound
		}

		dir = parent
	}
}

// LoadConfigFile loads a config from a specific path.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.Dir = filepath.Dir(path)

	return cfg, nil
}

// LibraryDirs returns the library directories as absolute paths.
func (c *Config) LibraryDirs() []string {
	out := make([]string, 0, len(c.Workspace.Library))

	for _, dir := range c.Workspace.Library {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(c.Dir, dir)
		}

		out = append(out, filepath.Clean(dir))
	}

	return out
}

// Excluded reports whether the slash-separated relative path matches an exclude pattern.
// A pattern also excludes everything below a matching directory.
func (c *Config) Excluded(rel string) bool {
	for _, pattern := range c.Workspace.Exclude {
		for p := rel; p != "." && p != "/" && p != ""; p = filepath.ToSlash(filepath.Dir(p)) {
			if matched, _ := filepath.Match(pattern, p); matched {
				return true
			}
		}
	}

	return false
}
