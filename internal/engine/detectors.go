package engine

import (
	"fmt"
	"strings"

	"github.com/rautio/render-loop-detector/internal/analyzer"
	"github.com/rautio/render-loop-detector/internal/graph"
	"github.com/rautio/render-loop-detector/internal/parser"
)

// ignoredJSXProps never carry render-identity concerns
var ignoredJSXProps = map[string]bool{
	"key":      true,
	"ref":      true,
	"children": true,
}

// DetectRenderPhaseSetters finds setter calls executed during component body
// evaluation: not nested inside any hook callback or inner function. Such
// calls schedule a re-render while rendering, a guaranteed loop.
func DetectRenderPhaseSetters(file string, scope AnalysisScope, syms *analyzer.ReactiveSymbols) []Diagnostic {
	if !scope.IsComponent {
		return nil
	}

	body := scope.Node.ChildByFieldName("body")
	if body == nil {
		return nil
	}

	var diags []Diagnostic
	body.Walk(func(node *parser.Node) bool {
		// Anything inside a nested function runs later, not during render
		if node.IsFunctionExpression() || node.Type() == "function_declaration" {
			return false
		}

		if node.Type() != "call_expression" {
			return true
		}

		funcNode := node.ChildByFieldName("function")
		if funcNode == nil || funcNode.Type() != "identifier" {
			return true
		}

		binding, ok := syms.BySetter[funcNode.Text()]
		if !ok {
			return true
		}

		line, col := node.StartPoint()
		d := newDiagnostic(CodeRenderPhaseSetter, SeverityHigh, ConfidenceHigh)
		d.File = file
		d.Line = line + 1
		d.Column = col
		d.HookType = "render"
		d.ProblematicDependency = binding.State
		d.StateVariable = binding.State
		d.SetterFunction = binding.Setter
		d.ActualStateModifications = []string{binding.State}
		d.Explanation = fmt.Sprintf(
			"'%s' is called during the render of '%s'; setting state while rendering re-invokes the component immediately",
			binding.Setter, scope.Name)
		diags = append(diags, d)
		return true
	})

	return diags
}

// DetectMissingDeps flags an effect-kind hook with no dependency list whose
// body sets state, directly or through a locally declared helper
func DetectMissingDeps(file string, site HookSite, si *StateInteraction, g *graph.CallGraph) *Diagnostic {
	if !site.Kind.IsEffectKind() || site.ArgCount != 1 {
		return nil
	}

	setterCount := len(si.Direct) + len(si.Conditional) + len(si.Guarded)
	confidence := ConfidenceHigh
	var evidence string

	if setterCount == 0 {
		// Indirect: a local helper whose summary lists setters
		if g == nil {
			return nil
		}
		locals := g.FileSummaries(file)
		for _, callee := range si.Calls {
			if summary, ok := locals[callee]; ok && len(summary.Setters) > 0 {
				confidence = ConfidenceMedium
				evidence = fmt.Sprintf("helper '%s' invokes %s", callee, strings.Join(summary.Setters, ", "))
				break
			}
		}
		if evidence == "" {
			return nil
		}
	}

	d := newDiagnostic(CodeEffectMissingDeps, SeverityHigh, confidence)
	d.File = file
	d.Line = site.Line
	d.Column = site.Column
	d.HookType = site.HookName
	d.Explanation = fmt.Sprintf(
		"%s has no dependency list and sets state, so it runs after every render and schedules the next one", site.HookName)
	d.ActualStateModifications = siteModifiedStates(si)
	d.StateReads = append([]string{}, si.Reads...)
	if evidence != "" {
		d.DebugInfo = &DebugInfo{CrossFileInfo: evidence}
	}
	return &d
}

// DetectUnstableSnapshot inspects the snapshot argument of a
// sync-external-store hook. A snapshot returning a fresh aggregate makes the
// store appear changed on every check.
func DetectUnstableSnapshot(file string, site HookSite, class map[string]Classification) *Diagnostic {
	if site.Kind != HookSyncExternalStore || site.Body == nil {
		return nil
	}

	snapshot := site.Body

	if snapshot.IsFunctionExpression() {
		if !snapshotReturnsAggregate(snapshot) {
			return nil
		}
		d := newDiagnostic(CodeUnstableSnapshot, SeverityHigh, ConfidenceHigh)
		d.File = file
		d.Line = site.Line
		d.Column = site.Column
		d.HookType = site.HookName
		d.Explanation = "The snapshot function returns a new object on every call, so the store never reports a stable value and the component re-renders forever"
		d.ActualStateModifications = []string{}
		d.StateReads = []string{}
		return &d
	}

	if snapshot.Type() == "identifier" {
		cls, ok := class[snapshot.Text()]
		if !ok || cls.Stability != UnstableFunction {
			return nil
		}
		d := newDiagnostic(CodeUnstableSnapshot, SeverityLow, ConfidenceMedium)
		// The identifier form only proves an unstable subscription, not a
		// loop: report it as a potential issue
		d.Type = TypePotentialIssue
		d.Category = CategoryPerformance
		d.File = file
		d.Line = site.Line
		d.Column = site.Column
		d.HookType = site.HookName
		d.ProblematicDependency = snapshot.Text()
		d.Explanation = fmt.Sprintf(
			"Snapshot '%s' is recreated on every render; the store subscription resubscribes each time", snapshot.Text())
		d.ActualStateModifications = []string{}
		d.StateReads = []string{}
		return &d
	}

	return nil
}

// snapshotReturnsAggregate detects a snapshot body that directly produces a
// new object or array
func snapshotReturnsAggregate(fn *parser.Node) bool {
	body := fn.ChildByFieldName("body")
	if body == nil {
		return false
	}

	// Expression-bodied arrow: () => ({v: 1})
	if isAggregateExpression(body) {
		return true
	}

	if body.Type() != "statement_block" {
		return false
	}

	found := false
	body.Walk(func(node *parser.Node) bool {
		if node.IsFunctionExpression() {
			return false
		}
		if node.Type() == "return_statement" {
			for _, child := range node.NamedChildren() {
				if isAggregateExpression(child) {
					found = true
				}
			}
		}
		return !found
	})
	return found
}

// isAggregateExpression matches object/array literals, including spreads,
// behind optional parentheses
func isAggregateExpression(node *parser.Node) bool {
	for node != nil && node.Type() == "parenthesized_expression" {
		children := node.NamedChildren()
		if len(children) == 0 {
			return false
		}
		node = children[0]
	}
	if node == nil {
		return false
	}
	switch node.Type() {
	case "object", "array":
		return true
	}
	return false
}

// DetectJSXPropInstability flags unstable expressions passed as a Provider
// value (RLD-404) or as props to a memoized element (RLD-405). Unstable props
// to plain elements are intentionally silent.
func DetectJSXPropInstability(file string, scope AnalysisScope, class map[string]Classification, module *analyzer.Module, resolver *analyzer.ModuleResolver) []Diagnostic {
	var diags []Diagnostic

	scope.Node.Walk(func(node *parser.Node) bool {
		nodeType := node.Type()
		if nodeType != "jsx_opening_element" && nodeType != "jsx_self_closing_element" {
			return true
		}

		nameNode := node.ChildByFieldName("name")
		if nameNode == nil {
			return true
		}
		elementName := nameNode.Text()

		if strings.HasSuffix(elementName, ".Provider") {
			for _, attr := range jsxAttributes(node) {
				if jsxAttributeName(attr) != "value" {
					continue
				}
				value := jsxAttributeValue(attr)
				if kind, unstable := unstableExpressionKind(value, class); unstable {
					line, col := attr.StartPoint()
					d := newDiagnostic(CodeProviderValue, SeverityMedium, ConfidenceHigh)
					d.File = file
					d.Line = line + 1
					d.Column = col
					d.HookType = "jsx"
					d.ProblematicDependency = "value"
					d.Explanation = fmt.Sprintf(
						"The value passed to %s is an inline %s; every consumer re-renders on every provider render", elementName, kind)
					d.ActualStateModifications = []string{}
					d.StateReads = []string{}
					diags = append(diags, d)
				}
			}
			return true
		}

		if !analyzer.IsComponentName(elementName) || strings.Contains(elementName, ".") {
			return true
		}
		if !isMemoizedElement(elementName, module, resolver) {
			return true
		}

		for _, attr := range jsxAttributes(node) {
			propName := jsxAttributeName(attr)
			if propName == "" || ignoredJSXProps[propName] {
				continue
			}
			value := jsxAttributeValue(attr)
			kind, unstable := unstableExpressionKind(value, class)
			if !unstable {
				continue
			}
			line, col := attr.StartPoint()
			d := newDiagnostic(CodeMemoizedElementProp, SeverityLow, ConfidenceMedium)
			d.File = file
			d.Line = line + 1
			d.Column = col
			d.HookType = "jsx"
			d.ProblematicDependency = propName
			d.Explanation = fmt.Sprintf(
				"'%s' is memoized but receives an inline %s for '%s'; the memoization never holds", elementName, kind, propName)
			d.ActualStateModifications = []string{}
			d.StateReads = []string{}
			diags = append(diags, d)
		}

		return true
	})

	return diags
}

// isMemoizedElement checks whether the element resolves, locally or through
// the file's imports, to a component wrapped in a memoization combinator
func isMemoizedElement(name string, module *analyzer.Module, resolver *analyzer.ModuleResolver) bool {
	if symbol, ok := module.Symbols[name]; ok {
		return symbol.IsMemoized
	}

	if resolver == nil {
		return false
	}

	imp, originalName := module.ImportOf(name)
	if imp == nil {
		return false
	}

	resolved, err := resolver.Resolve(module.FilePath, imp.Source)
	if err != nil {
		return false
	}

	source, err := resolver.GetModule(resolved)
	if err != nil {
		return false
	}

	if originalName == "default" {
		for _, symbol := range source.Symbols {
			if symbol.IsDefault {
				return symbol.IsMemoized
			}
		}
		return false
	}

	symbol, ok := source.Symbols[originalName]
	return ok && symbol.IsMemoized
}

// unstableExpressionKind classifies a JSX expression value: inline aggregates
// and functions are unstable, identifiers defer to the classification table
func unstableExpressionKind(value *parser.Node, class map[string]Classification) (string, bool) {
	if value == nil {
		return "", false
	}

	switch value.Type() {
	case "object":
		return "object", true
	case "array":
		return "array", true
	case "arrow_function", "function", "function_expression":
		return "function", true
	case "identifier":
		if cls, ok := class[value.Text()]; ok && cls.IsUnstable() {
			return string(cls.Kind), true
		}
	}

	return "", false
}

// jsxAttributes returns the attribute nodes of an opening element
func jsxAttributes(node *parser.Node) []*parser.Node {
	var attrs []*parser.Node
	for _, child := range node.Children() {
		if child.Type() == "jsx_attribute" {
			attrs = append(attrs, child)
		}
	}
	return attrs
}

// jsxAttributeName extracts the prop name from a jsx_attribute node
func jsxAttributeName(attr *parser.Node) string {
	if nameNode := attr.ChildByFieldName("name"); nameNode != nil {
		return nameNode.Text()
	}
	for _, child := range attr.Children() {
		switch child.Type() {
		case "property_identifier", "jsx_identifier", "identifier":
			return child.Text()
		}
	}
	return ""
}

// jsxAttributeValue extracts the expression inside prop={value} braces
func jsxAttributeValue(attr *parser.Node) *parser.Node {
	value := attr.ChildByFieldName("value")
	if value == nil {
		for _, child := range attr.NamedChildren() {
			if child.Type() == "jsx_expression" {
				value = child
				break
			}
		}
	}
	if value != nil && value.Type() == "jsx_expression" {
		inner := value.NamedChildren()
		if len(inner) > 0 {
			return inner[0]
		}
		return nil
	}
	return value
}

// siteModifiedStates lists state names touched by any setter call
func siteModifiedStates(si *StateInteraction) []string {
	var states []string
	for _, c := range si.Direct {
		states = append(states, c.State)
	}
	for _, c := range si.Conditional {
		states = append(states, c.State)
	}
	for _, c := range si.Deferred {
		states = append(states, c.State)
	}
	for _, c := range si.Guarded {
		states = append(states, c.State)
	}
	return dedupeStrings(states)
}
