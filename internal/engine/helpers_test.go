package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rautio/render-loop-detector/internal/analyzer"
	"github.com/rautio/render-loop-detector/internal/config"
	"github.com/rautio/render-loop-detector/internal/parser"
)

// parseTestCode parses inline code strings for tests
func parseTestCode(t *testing.T, code string) *parser.AST {
	t.Helper()

	p, err := parser.NewParser()
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })

	ast, err := p.ParseFile("test.tsx", []byte(code))
	require.NoError(t, err)
	t.Cleanup(func() { ast.Close() })

	return ast
}

// moduleFor wraps parsed code in a module the engine can analyze
func moduleFor(t *testing.T, ast *parser.AST) *analyzer.Module {
	t.Helper()

	module := &analyzer.Module{
		FilePath: ast.FilePath,
		AST:      ast,
		Imports:  analyzer.ExtractImports(ast),
		Symbols:  map[string]*analyzer.Symbol{},
	}
	analyzer.AnalyzeSymbols(module)
	module.Reactive = analyzer.ExtractReactiveSymbols(ast.Root)
	return module
}

// analyzeSource runs the full single-file pipeline with default options
func analyzeSource(t *testing.T, code string) []Diagnostic {
	return analyzeSourceWithConfig(t, code, nil)
}

// analyzeSourceWithConfig runs the pipeline with explicit options
func analyzeSourceWithConfig(t *testing.T, code string, cfg *config.Config) []Diagnostic {
	t.Helper()

	module := moduleFor(t, parseTestCode(t, code))
	eng := New(cfg, nil, nil, nil)

	diags, err := eng.AnalyzeFile(context.Background(), module)
	require.NoError(t, err)
	return diags
}

// codesOf extracts the error codes of a diagnostic list, in order
func codesOf(diags []Diagnostic) []Code {
	codes := make([]Code, 0, len(diags))
	for _, d := range diags {
		codes = append(codes, d.ErrorCode)
	}
	return codes
}

// problemsOf filters out safe-pattern records
func problemsOf(diags []Diagnostic) []Diagnostic {
	var problems []Diagnostic
	for _, d := range diags {
		if d.Category != CategorySafe {
			problems = append(problems, d)
		}
	}
	return problems
}
