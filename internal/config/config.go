package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// configNames are the conventional config file names, in priority order.
// JSON and YAML carry the same schema.
var configNames = []string{".rldrc.json", ".rldrc.yaml", ".rldrc.yml", "rld.config.json"}

// CustomFunction marks a user-supplied function as stable and/or deferred for
// the stability classifier and the deferred-dispatch set
type CustomFunction struct {
	Stable   bool `json:"stable,omitempty" yaml:"stable,omitempty"`
	Deferred bool `json:"deferred,omitempty" yaml:"deferred,omitempty"`
}

// Config is the options bundle passed into every file analysis. No engine
// code reads configuration through globals.
type Config struct {
	StableHooks            []string                  `json:"stableHooks,omitempty" yaml:"stableHooks,omitempty"`
	UnstableHooks          []string                  `json:"unstableHooks,omitempty" yaml:"unstableHooks,omitempty"`
	Ignore                 []string                  `json:"ignore,omitempty" yaml:"ignore,omitempty"`
	MinSeverity            string                    `json:"minSeverity,omitempty" yaml:"minSeverity,omitempty"`
	MinConfidence          string                    `json:"minConfidence,omitempty" yaml:"minConfidence,omitempty"`
	IncludePotentialIssues bool                      `json:"includePotentialIssues" yaml:"includePotentialIssues"`
	CustomFunctions        map[string]CustomFunction `json:"customFunctions,omitempty" yaml:"customFunctions,omitempty"`
	StrictMode             bool                      `json:"strictMode,omitempty" yaml:"strictMode,omitempty"`
	TSConfigPath           string                    `json:"tsconfigPath,omitempty" yaml:"tsconfigPath,omitempty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		MinSeverity:            "low",
		MinConfidence:          "low",
		IncludePotentialIssues: true,
		CustomFunctions:        map[string]CustomFunction{},
	}
}

// Load searches for a config file starting from startDir and walking up to
// the filesystem root. Returns the config, the path of the file used (empty
// when defaults apply) and an error only when a file exists but is invalid.
func Load(startDir string) (*Config, string, error) {
	configPath := findConfigFile(startDir)
	if configPath == "" {
		return DefaultConfig(), "", nil
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		return nil, "", err
	}
	return cfg, configPath, nil
}

// LoadFile loads and validates a specific config file. Unknown keys and
// malformed documents are configuration errors that abort the run.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", path, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", path, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// validate rejects values outside the documented domains
func (c *Config) validate() error {
	if !validLevel(c.MinSeverity) {
		return fmt.Errorf("minSeverity must be one of high|medium|low, got %q", c.MinSeverity)
	}
	if !validLevel(c.MinConfidence) {
		return fmt.Errorf("minConfidence must be one of high|medium|low, got %q", c.MinConfidence)
	}
	if c.CustomFunctions == nil {
		c.CustomFunctions = map[string]CustomFunction{}
	}
	return nil
}

func validLevel(level string) bool {
	switch level {
	case "high", "medium", "low":
		return true
	}
	return false
}

// findConfigFile searches for config files starting from dir and walking up
// to the root directory
func findConfigFile(dir string) string {
	currentDir := dir
	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root directory
			break
		}
		currentDir = parentDir
	}

	return ""
}

// IsStableFunction reports whether the user marked name stable, either via
// customFunctions or the stableHooks list
func (c *Config) IsStableFunction(name string) bool {
	if fn, ok := c.CustomFunctions[name]; ok && fn.Stable {
		return true
	}
	for _, hook := range c.StableHooks {
		if hook == name {
			return true
		}
	}
	return false
}

// IsUnstableHook reports whether the user explicitly marked a use*-named
// function as unstable, overriding the custom-hook convention
func (c *Config) IsUnstableHook(name string) bool {
	for _, hook := range c.UnstableHooks {
		if hook == name {
			return true
		}
	}
	return false
}

// IsDeferredFunction reports whether the user marked name as a deferred
// dispatcher (its callbacks never run during the current hook execution)
func (c *Config) IsDeferredFunction(name string) bool {
	fn, ok := c.CustomFunctions[name]
	return ok && fn.Deferred
}

// ShouldIgnore checks if a file path matches any of the ignore patterns
func (c *Config) ShouldIgnore(filePath string) bool {
	normalizedPath := filepath.ToSlash(filePath)

	for _, pattern := range c.Ignore {
		if matchGlobPattern(normalizedPath, pattern) {
			return true
		}
	}

	return false
}

// matchGlobPattern implements simple glob pattern matching
// Supports: *, **, and negation with !
func matchGlobPattern(path, pattern string) bool {
	// Handle negation patterns (e.g., !src/important.tsx)
	if strings.HasPrefix(pattern, "!") {
		return !matchGlobPattern(path, pattern[1:])
	}

	path = filepath.ToSlash(path)
	pattern = filepath.ToSlash(pattern)

	// Handle ** (match any number of directories)
	if strings.Contains(pattern, "**") {
		parts := strings.Split(pattern, "**")
		if len(parts) == 2 {
			prefix := strings.TrimSuffix(parts[0], "/")
			suffix := strings.TrimPrefix(parts[1], "/")

			if prefix != "" {
				if !strings.HasPrefix(path, prefix+"/") && path != prefix {
					return false
				}
			}

			if suffix != "" {
				// For patterns like **/*.test.tsx, match against the tail
				if strings.HasPrefix(suffix, "*") {
					return simpleGlobMatch(path, "*"+suffix)
				}
				// For patterns like **/__tests__, match the path segment
				return strings.Contains(path, "/"+suffix+"/") ||
					strings.HasSuffix(path, "/"+suffix) ||
					strings.HasPrefix(path, suffix+"/")
			}

			return true
		}
	}

	// Handle * (match within a single directory level)
	if strings.Contains(pattern, "*") {
		return simpleGlobMatch(path, pattern)
	}

	// Exact match or substring match
	return path == pattern || strings.Contains(path, pattern) || strings.HasSuffix(path, "/"+pattern)
}

// simpleGlobMatch implements basic glob matching with *
func simpleGlobMatch(path, pattern string) bool {
	patternParts := strings.Split(pattern, "*")
	if len(patternParts) == 1 {
		// No wildcards, exact match
		return path == pattern
	}

	searchPath := path
	for i, part := range patternParts {
		if part == "" {
			continue
		}

		index := strings.Index(searchPath, part)
		if index == -1 {
			return false
		}

		// For first part, must be at the beginning (unless pattern starts with *)
		if i == 0 && !strings.HasPrefix(pattern, "*") && index != 0 {
			return false
		}

		// For last part, must be at the end (unless pattern ends with *)
		if i == len(patternParts)-1 && !strings.HasSuffix(pattern, "*") {
			return strings.HasSuffix(searchPath, part)
		}

		searchPath = searchPath[index+len(part):]
	}

	return true
}
