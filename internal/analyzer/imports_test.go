package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractImports_DefaultNamedNamespace(t *testing.T) {
	ast := parseTestCode(t, `
import React from 'react';
import { useState, useEffect } from 'react';
import { MemoChild as FastChild } from './Child';
import * as Utils from './utils';
`)

	imports := ExtractImports(ast)
	require.Len(t, imports, 4)

	assert.Equal(t, "react", imports[0].Source)
	assert.Equal(t, "React", imports[0].Default)

	require.Len(t, imports[1].Named, 2)
	assert.Equal(t, "useState", imports[1].Named[0].ImportedName)

	require.Len(t, imports[2].Named, 1)
	assert.Equal(t, "MemoChild", imports[2].Named[0].ImportedName)
	assert.Equal(t, "FastChild", imports[2].Named[0].LocalName)

	assert.Equal(t, "Utils", imports[3].Namespace)
}

func TestModule_ImportOf(t *testing.T) {
	ast := parseTestCode(t, `
import Widget from './Widget';
import { helper as h } from './helpers';
`)

	module := &Module{AST: ast, Imports: ExtractImports(ast)}

	imp, original := module.ImportOf("h")
	require.NotNil(t, imp)
	assert.Equal(t, "helper", original)
	assert.Equal(t, "./helpers", imp.Source)

	imp, original = module.ImportOf("Widget")
	require.NotNil(t, imp)
	assert.Equal(t, "default", original)

	imp, _ = module.ImportOf("unknown")
	assert.Nil(t, imp)
}

func TestAnalyzeSymbols_MemoizedComponents(t *testing.T) {
	ast := parseTestCode(t, `
import { memo } from 'react';

const Plain = () => <div />;
const Fast = memo(() => <div />);
export const Wrapped = React.memo(function Inner() { return <div />; });
export default memo(Plain);
`)

	module := &Module{FilePath: "test.tsx", AST: ast, Symbols: map[string]*Symbol{}}
	AnalyzeSymbols(module)

	require.Contains(t, module.Symbols, "Fast")
	assert.True(t, module.Symbols["Fast"].IsMemoized)

	require.Contains(t, module.Symbols, "Wrapped")
	assert.True(t, module.Symbols["Wrapped"].IsMemoized)
	assert.True(t, module.Symbols["Wrapped"].IsExported)

	require.Contains(t, module.Symbols, "Plain")
	assert.True(t, module.Symbols["Plain"].IsDefault, "export default memo(Plain) marks Plain")
	assert.True(t, module.Symbols["Plain"].IsMemoized)
}
