package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func copyFixture(t *testing.T, dir, name string) string {
	t.Helper()

	src := filepath.Join("..", "..", "test", "fixtures", name)
	content, err := os.ReadFile(src)
	require.NoError(t, err)

	dst := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(dst, content, 0o644))
	return dst
}

func quietOptions() *Options {
	return &Options{Quiet: true, NoColor: true, Workers: 1}
}

func TestRun_FindingsExitOne(t *testing.T) {
	dir := t.TempDir()
	copyFixture(t, dir, "effect-loop.tsx")

	assert.Equal(t, 1, Run(dir, quietOptions()))
}

func TestRun_CleanExitZero(t *testing.T) {
	dir := t.TempDir()
	copyFixture(t, dir, "clean.tsx")

	assert.Equal(t, 0, Run(dir, quietOptions()))
}

func TestRun_MissingPathExitTwo(t *testing.T) {
	assert.Equal(t, 2, Run(filepath.Join(t.TempDir(), "nope"), quietOptions()))
}

func TestRun_InvalidConfigExitTwo(t *testing.T) {
	dir := t.TempDir()
	copyFixture(t, dir, "clean.tsx")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".rldrc.json"), []byte(`{"bogusKey": 1}`), 0o644))

	assert.Equal(t, 2, Run(dir, quietOptions()))
}

func TestRun_ThresholdsFilterExitCode(t *testing.T) {
	dir := t.TempDir()
	copyFixture(t, dir, "effect-loop.tsx")

	// The loop is high severity, so a high threshold still fails
	opts := quietOptions()
	opts.MinSeverity = "high"
	opts.MinConfidence = "high"
	assert.Equal(t, 1, Run(dir, opts))
}

func TestRun_IgnoreGlobExcludesFile(t *testing.T) {
	dir := t.TempDir()
	copyFixture(t, dir, "effect-loop.tsx")
	copyFixture(t, dir, "clean.tsx")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".rldrc.json"),
		[]byte(`{"ignore": ["**/effect-loop.tsx"]}`), 0o644))

	assert.Equal(t, 0, Run(dir, quietOptions()))
}

func TestRun_SingleFile(t *testing.T) {
	dir := t.TempDir()
	file := copyFixture(t, dir, "effect-loop.tsx")

	assert.Equal(t, 1, Run(file, quietOptions()))
}

func TestWorkerCount(t *testing.T) {
	assert.Equal(t, 1, workerCount(&Options{Workers: 4}, 1), "capped at file count")
	assert.Equal(t, 4, workerCount(&Options{Workers: 4}, 10))
	assert.GreaterOrEqual(t, workerCount(&Options{}, 100), 1, "auto-detect is at least one")
}
