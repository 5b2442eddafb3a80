package graph

import (
	"strings"

	"go.uber.org/zap"

	"github.com/rautio/render-loop-detector/internal/analyzer"
	"github.com/rautio/render-loop-detector/internal/parser"
)

// Builder constructs the cross-file call graph from parsed modules, following
// imports and parsing reachable local files once
type Builder struct {
	resolver *analyzer.ModuleResolver
	logger   *zap.Logger
}

// NewBuilder creates a call-graph builder over a module resolver
func NewBuilder(resolver *analyzer.ModuleResolver, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{resolver: resolver, logger: logger}
}

// Build walks entry files and everything reachable through their imports,
// extracting function summaries and linking call edges through import aliases
func (b *Builder) Build(entryFiles []string) (*CallGraph, error) {
	g := NewCallGraph()

	visited := make(map[string]bool)
	queue := append([]string{}, entryFiles...)

	for len(queue) > 0 {
		filePath := queue[0]
		queue = queue[1:]
		if visited[filePath] {
			continue
		}
		visited[filePath] = true

		module, err := b.resolver.GetModule(filePath)
		if err != nil {
			// A file that cannot be parsed isolates to itself
			b.logger.Warn("skipping module in call graph", zap.String("path", filePath), zap.Error(err))
			continue
		}

		b.addModuleSummaries(g, module)

		for _, imp := range module.Imports {
			resolved, err := b.resolver.Resolve(module.FilePath, imp.Source)
			if err != nil {
				// Unresolved imports (external packages) are silently skipped
				continue
			}
			if !visited[resolved] {
				queue = append(queue, resolved)
			}
		}
	}

	b.link(g)

	g.SetResolveFn(func(filePath, callee string) (string, bool) {
		module, ok := b.resolver.GetCachedModule(filePath)
		if !ok {
			return "", false
		}
		return b.resolveCallee(g, module, callee)
	})

	return g, nil
}

// addModuleSummaries extracts a summary for every top-level function in the
// module: declarations and arrows bound to variables
func (b *Builder) addModuleSummaries(g *CallGraph, module *analyzer.Module) {
	root := module.AST.Root

	var scan func(node *parser.Node)
	scan = func(node *parser.Node) {
		switch node.Type() {
		case "export_statement":
			for _, child := range node.NamedChildren() {
				scan(child)
			}
		case "function_declaration":
			nameNode := node.ChildByFieldName("name")
			if nameNode != nil {
				b.addFunctionSummary(g, module, nameNode.Text(), node)
			}
		case "lexical_declaration", "variable_declaration":
			for _, child := range node.NamedChildren() {
				if child.Type() != "variable_declarator" {
					continue
				}
				nameNode := child.ChildByFieldName("name")
				valueNode := child.ChildByFieldName("value")
				if nameNode == nil || valueNode == nil || nameNode.Type() != "identifier" {
					continue
				}
				if valueNode.IsFunctionExpression() {
					b.addFunctionSummary(g, module, nameNode.Text(), valueNode)
				}
			}
		}
	}

	for _, child := range root.NamedChildren() {
		scan(child)
	}
}

// addFunctionSummary builds the summary for one function node
func (b *Builder) addFunctionSummary(g *CallGraph, module *analyzer.Module, name string, fn *parser.Node) {
	summary := &FunctionSummary{
		Key:      SummaryKey(module.FilePath, name),
		Name:     name,
		FilePath: module.FilePath,
		Params:   functionParams(fn),
	}

	if symbol, ok := module.Symbols[name]; ok {
		summary.IsExported = symbol.IsExported
		summary.IsDefault = symbol.IsDefault
	}

	paramSet := make(map[string]bool, len(summary.Params))
	for _, p := range summary.Params {
		paramSet[p] = true
	}

	body := fn.ChildByFieldName("body")
	if body == nil {
		body = fn
	}

	setterSeen := make(map[string]bool)
	callSeen := make(map[string]bool)

	body.Walk(func(node *parser.Node) bool {
		if node.Type() != "call_expression" {
			return true
		}

		funcNode := node.ChildByFieldName("function")
		if funcNode == nil || funcNode.Type() != "identifier" {
			return true
		}
		callee := funcNode.Text()

		switch {
		case module.Reactive.IsSetter(callee):
			// In-scope setter from the reactive extractor
			if !setterSeen[callee] {
				setterSeen[callee] = true
				summary.Setters = append(summary.Setters, callee)
			}
		case analyzer.IsSetterName(callee) && paramSet[callee]:
			// Setter-like parameter name, by convention
			if !setterSeen[callee] {
				setterSeen[callee] = true
				summary.Setters = append(summary.Setters, callee)
			}
		case !strings.HasPrefix(callee, "use"):
			if !callSeen[callee] {
				callSeen[callee] = true
				summary.Calls = append(summary.Calls, callee)
			}
		}

		return true
	})

	g.Add(summary)

	if summary.IsDefault {
		// Also register under the default-export key so importers resolve it
		alias := *summary
		alias.Key = SummaryKey(module.FilePath, "default")
		g.summaries[alias.Key] = &alias
	}
}

// link resolves call edges: a call to a local name resolves to the local
// summary, or through the file's imports with alias renaming applied
func (b *Builder) link(g *CallGraph) {
	for _, summary := range g.summaries {
		module, ok := b.resolver.GetCachedModule(summary.FilePath)
		if !ok {
			continue
		}

		for _, callee := range summary.Calls {
			if key, ok := b.resolveCallee(g, module, callee); ok {
				summary.CallKeys = append(summary.CallKeys, key)
			}
		}
	}
}

// resolveCallee maps a local callee name to a summary key
func (b *Builder) resolveCallee(g *CallGraph, module *analyzer.Module, callee string) (string, bool) {
	// Local function wins
	localKey := SummaryKey(module.FilePath, callee)
	if _, ok := g.summaries[localKey]; ok {
		return localKey, true
	}

	// Imported function: rewrite the alias to the original exported name
	imp, originalName := module.ImportOf(callee)
	if imp == nil {
		return "", false
	}

	resolved, err := b.resolver.Resolve(module.FilePath, imp.Source)
	if err != nil {
		return "", false
	}

	key := SummaryKey(resolved, originalName)
	if _, ok := g.summaries[key]; ok {
		return key, true
	}
	return "", false
}

// functionParams returns the leaf parameter names of a function node
func functionParams(fn *parser.Node) []string {
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		// Arrow functions may have a single bare parameter
		if p := fn.ChildByFieldName("parameter"); p != nil {
			return []string{p.Text()}
		}
		return nil
	}

	var names []string
	for _, param := range params.NamedChildren() {
		names = append(names, analyzer.PatternLeaves(param)...)
	}
	return names
}
