package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "low", cfg.MinSeverity)
	assert.Equal(t, "low", cfg.MinConfidence)
	assert.True(t, cfg.IncludePotentialIssues)
	assert.NotNil(t, cfg.CustomFunctions)
}

func TestLoadFile_JSON(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, ".rldrc.json", `{
  "stableHooks": ["useStore"],
  "unstableHooks": ["useUnstableThing"],
  "minSeverity": "medium",
  "customFunctions": {
    "scheduleWork": { "deferred": true },
    "makeSelector": { "stable": true }
  }
}`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "medium", cfg.MinSeverity)
	assert.True(t, cfg.IsStableFunction("useStore"))
	assert.True(t, cfg.IsStableFunction("makeSelector"))
	assert.True(t, cfg.IsUnstableHook("useUnstableThing"))
	assert.True(t, cfg.IsDeferredFunction("scheduleWork"))
	assert.False(t, cfg.IsDeferredFunction("makeSelector"))
}

func TestLoadFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, ".rldrc.yaml", `
minSeverity: high
minConfidence: medium
ignore:
  - "**/*.test.tsx"
strictMode: true
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "high", cfg.MinSeverity)
	assert.Equal(t, "medium", cfg.MinConfidence)
	assert.True(t, cfg.StrictMode)
	assert.True(t, cfg.ShouldIgnore("src/App.test.tsx"))
	assert.False(t, cfg.ShouldIgnore("src/App.tsx"))
}

func TestLoadFile_UnknownKeyRejected(t *testing.T) {
	dir := t.TempDir()

	jsonPath := writeConfig(t, dir, ".rldrc.json", `{"minSverity": "high"}`)
	_, err := LoadFile(jsonPath)
	assert.Error(t, err, "unknown JSON keys are configuration errors")

	yamlPath := writeConfig(t, dir, ".rldrc.yaml", "unknownThing: 1\n")
	_, err = LoadFile(yamlPath)
	assert.Error(t, err, "unknown YAML keys are configuration errors")
}

func TestLoadFile_InvalidLevel(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, ".rldrc.json", `{"minSeverity": "extreme"}`)

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestLoad_WalksUp(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ".rldrc.json", `{"minSeverity": "high"}`)
	nested := filepath.Join(dir, "src", "components")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	cfg, configPath, err := Load(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".rldrc.json"), configPath)
	assert.Equal(t, "high", cfg.MinSeverity)
}

func TestLoad_DefaultsWhenMissing(t *testing.T) {
	cfg, configPath, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, configPath)
	assert.Equal(t, "low", cfg.MinSeverity)
}

func TestShouldIgnore_Globs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ignore = []string{"**/__tests__/**", "*.stories.tsx"}

	assert.True(t, cfg.ShouldIgnore("src/__tests__/App.tsx"))
	assert.True(t, cfg.ShouldIgnore("Button.stories.tsx"))
	assert.False(t, cfg.ShouldIgnore("src/App.tsx"))
}
