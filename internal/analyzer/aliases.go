package analyzer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// compilerOptions mirrors the compilerOptions block of tsconfig.json
type compilerOptions struct {
	BaseURL string              `json:"baseUrl"`
	Paths   map[string][]string `json:"paths"`
}

// tsconfig is the subset of tsconfig.json needed for path-alias resolution
type tsconfig struct {
	CompilerOptions compilerOptions `json:"compilerOptions"`
}

// LoadPathAliases loads path aliases from a tsconfig.json in baseDir, or from
// an explicit tsconfigPath when configured
func LoadPathAliases(baseDir string, tsconfigPath string) (map[string]string, error) {
	configPath := tsconfigPath
	if configPath == "" {
		configPath = filepath.Join(baseDir, "tsconfig.json")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return map[string]string{}, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var cfg tsconfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return parsePathAliases(cfg.CompilerOptions, filepath.Dir(configPath)), nil
}

// parsePathAliases converts tsconfig-style paths to a prefix map.
// "@/*" -> ["src/*"] becomes "@/" -> "<base>/src"
func parsePathAliases(opts compilerOptions, baseDir string) map[string]string {
	aliases := make(map[string]string)

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "."
	}
	absBaseURL := filepath.Join(baseDir, baseURL)

	for alias, targets := range opts.Paths {
		if len(targets) == 0 {
			continue
		}

		aliasPrefix := strings.TrimSuffix(alias, "*")
		targetPath := strings.TrimSuffix(targets[0], "*") // First target wins

		aliases[aliasPrefix] = filepath.Clean(filepath.Join(absBaseURL, targetPath))
	}

	return aliases
}

// FindLongestMatchingAlias finds the longest alias prefix matching the import
// path, so "@/components/" wins over "@/" when both apply
func FindLongestMatchingAlias(importPath string, aliases map[string]string) (string, string, bool) {
	var longestPrefix string
	var longestTarget string

	for prefix, target := range aliases {
		if strings.HasPrefix(importPath, prefix) && len(prefix) > len(longestPrefix) {
			longestPrefix = prefix
			longestTarget = target
		}
	}

	if longestPrefix != "" {
		return longestPrefix, longestTarget, true
	}

	return "", "", false
}
