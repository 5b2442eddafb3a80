package engine

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/rautio/render-loop-detector/internal/analyzer"
	"github.com/rautio/render-loop-detector/internal/config"
	"github.com/rautio/render-loop-detector/internal/graph"
	"github.com/rautio/render-loop-detector/internal/parser"
)

// AnalysisScope is one function analyzed as a component scope: a component
// (uppercase convention) or a custom hook (use prefix)
type AnalysisScope struct {
	Name        string
	Node        *parser.Node
	IsComponent bool
}

// Engine runs the per-file analysis pipeline. It holds no per-file mutable
// state; options flow explicitly into every file analysis.
type Engine struct {
	cfg      *config.Config
	resolver *analyzer.ModuleResolver
	graph    *graph.CallGraph
	logger   *zap.Logger
}

// New creates an engine over a shared resolver and cross-file graph
func New(cfg *config.Config, resolver *analyzer.ModuleResolver, callGraph *graph.CallGraph, logger *zap.Logger) *Engine {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{cfg: cfg, resolver: resolver, graph: callGraph, logger: logger}
}

// AnalyzeFile runs every pass over one parsed module and returns its
// diagnostics in source order. Cancellation is checked once per hook site.
func (e *Engine) AnalyzeFile(ctx context.Context, module *analyzer.Module) ([]Diagnostic, error) {
	suppressed := BuildSuppressions(module.AST.Source)
	var diags []Diagnostic

	for _, scope := range FindAnalysisScopes(module.AST.Root) {
		if err := ctx.Err(); err != nil {
			return diags, err
		}
		scopeDiags, err := e.analyzeScope(ctx, module, scope)
		if err != nil {
			return diags, err
		}
		diags = append(diags, scopeDiags...)
	}

	// Drop ignored sites, then present in source order
	filtered := diags[:0]
	for _, d := range diags {
		if suppressed[d.Line] {
			continue
		}
		filtered = append(filtered, d)
	}
	diags = filtered

	sort.SliceStable(diags, func(i, j int) bool {
		if diags[i].Line != diags[j].Line {
			return diags[i].Line < diags[j].Line
		}
		return diags[i].Column < diags[j].Column
	})

	return diags, nil
}

// analyzeScope runs the pipeline for one component or custom hook
func (e *Engine) analyzeScope(ctx context.Context, module *analyzer.Module, scope AnalysisScope) ([]Diagnostic, error) {
	syms := analyzer.ExtractReactiveSymbols(scope.Node)
	// Module-level names come from the file-level extraction
	for name := range module.Reactive.ModuleLevel {
		syms.ModuleLevel[name] = true
	}

	classifier := NewClassifier(e.cfg, syms)
	class := classifier.ClassifyComponent(scope.Node)

	var diags []Diagnostic

	// Render-phase setters are independent of hook sites
	diags = append(diags, DetectRenderPhaseSetters(module.FilePath, scope, syms)...)

	for _, site := range CollectHookSites(scope.Node) {
		if err := ctx.Err(); err != nil {
			return diags, err
		}
		diags = append(diags, e.analyzeSite(module, scope, site, syms, class)...)
	}

	diags = append(diags, DetectJSXPropInstability(module.FilePath, scope, class, module, e.resolver)...)

	return diags, nil
}

// analyzeSite evaluates one hook site. An internal invariant violation
// suppresses the site and records a warning; the file continues.
func (e *Engine) analyzeSite(module *analyzer.Module, scope AnalysisScope, site HookSite, syms *analyzer.ReactiveSymbols, class map[string]Classification) (diags []Diagnostic) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("internal error while analyzing hook site; site skipped",
				zap.String("file", module.FilePath),
				zap.Uint32("line", site.Line),
				zap.Any("error", r))
			diags = nil
		}
	}()

	if site.Kind == HookSyncExternalStore {
		if d := DetectUnstableSnapshot(module.FilePath, site, class); d != nil {
			diags = append(diags, *d)
		}
		return diags
	}

	interaction := AnalyzeBody(site.Body, syms, e.cfg)

	// An effect with no dependency list gets the dedicated missing-deps
	// verdict instead of the dependency loop
	if !site.HasDeps {
		if d := DetectMissingDeps(module.FilePath, site, interaction, e.graph); d != nil {
			diags = append(diags, *d)
		}
		return diags
	}

	siteCtx := SiteContext{
		File:        module.FilePath,
		Site:        site,
		Interaction: interaction,
		Class:       class,
		Symbols:     syms,
		Graph:       e.graph,
		Strict:      e.cfg.StrictMode,
	}
	return EvaluateSite(siteCtx)
}

// FindAnalysisScopes locates components and custom hooks: top-level function
// declarations and function-valued bindings whose names follow the component
// (uppercase) or hook (use prefix) convention
func FindAnalysisScopes(root *parser.Node) []AnalysisScope {
	var scopes []AnalysisScope

	root.Walk(func(node *parser.Node) bool {
		switch node.Type() {
		case "function_declaration":
			nameNode := node.ChildByFieldName("name")
			if nameNode == nil {
				return true
			}
			name := nameNode.Text()
			if scope, ok := makeScope(name, node); ok {
				scopes = append(scopes, scope)
				return false
			}

		case "variable_declarator":
			nameNode := node.ChildByFieldName("name")
			valueNode := node.ChildByFieldName("value")
			if nameNode == nil || valueNode == nil || nameNode.Type() != "identifier" {
				return true
			}
			value := valueNode
			// Unwrap memo(...)/forwardRef(...) wrappers around the function
			if value.Type() == "call_expression" {
				for _, arg := range value.Arguments() {
					if arg.IsFunctionExpression() {
						value = arg
						break
					}
				}
			}
			if !value.IsFunctionExpression() {
				return true
			}
			if scope, ok := makeScope(nameNode.Text(), value); ok {
				scopes = append(scopes, scope)
				return false
			}
		}
		return true
	})

	return scopes
}

func makeScope(name string, fn *parser.Node) (AnalysisScope, bool) {
	if analyzer.IsComponentName(name) {
		return AnalysisScope{Name: name, Node: fn, IsComponent: true}, true
	}
	if strings.HasPrefix(name, "use") && len(name) > 3 {
		return AnalysisScope{Name: name, Node: fn}, true
	}
	return AnalysisScope{}, false
}
