package analyzer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestResolver_RelativeImports(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "App.tsx", `import { x } from './util';`)
	util := writeFile(t, dir, "util.ts", `export const x = 1;`)

	r, err := NewModuleResolver(dir, "", nil)
	require.NoError(t, err)
	defer r.Close()

	resolved, err := r.Resolve(main, "./util")
	require.NoError(t, err)
	assert.Equal(t, util, resolved)
}

func TestResolver_IndexFile(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "App.tsx", `import { x } from './lib';`)
	index := writeFile(t, dir, "lib/index.ts", `export const x = 1;`)

	r, err := NewModuleResolver(dir, "", nil)
	require.NoError(t, err)
	defer r.Close()

	resolved, err := r.Resolve(main, "./lib")
	require.NoError(t, err)
	assert.Equal(t, index, resolved)
}

func TestResolver_TsconfigAliases(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tsconfig.json", `{
  "compilerOptions": {
    "baseUrl": ".",
    "paths": { "@/*": ["src/*"] }
  }
}`)
	main := writeFile(t, dir, "src/App.tsx", `import { helper } from '@/helpers';`)
	helper := writeFile(t, dir, "src/helpers.ts", `export const helper = () => {};`)

	r, err := NewModuleResolver(dir, "", nil)
	require.NoError(t, err)
	defer r.Close()

	resolved, err := r.Resolve(main, "@/helpers")
	require.NoError(t, err)
	assert.Equal(t, helper, resolved)
}

func TestResolver_ExternalPackageSkipped(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "App.tsx", `import React from 'react';`)

	r, err := NewModuleResolver(dir, "", nil)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Resolve(main, "react")
	assert.Error(t, err, "external packages are not analyzable")
}

func TestResolver_ModuleCaching(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "App.tsx", `
function App() {
  const [n, setN] = useState(0);
  return <div>{n}</div>;
}
`)

	r, err := NewModuleResolver(dir, "", nil)
	require.NoError(t, err)
	defer r.Close()

	first, err := r.GetModule(path)
	require.NoError(t, err)
	second, err := r.GetModule(path)
	require.NoError(t, err)

	assert.Same(t, first, second, "a file is parsed at most once per run")
	assert.True(t, first.Reactive.IsSetter("setN"))

	cached, ok := r.GetCachedModule(path)
	assert.True(t, ok)
	assert.Same(t, first, cached)
}

func TestFindLongestMatchingAlias(t *testing.T) {
	aliases := map[string]string{
		"@/":            "/project/src",
		"@/components/": "/project/src/components",
	}

	prefix, target, ok := FindLongestMatchingAlias("@/components/Button", aliases)
	require.True(t, ok)
	assert.Equal(t, "@/components/", prefix)
	assert.Equal(t, "/project/src/components", target)

	_, _, ok = FindLongestMatchingAlias("lodash", aliases)
	assert.False(t, ok)
}
