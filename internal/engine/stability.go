package engine

import (
	"strings"

	"github.com/rautio/render-loop-detector/internal/analyzer"
	"github.com/rautio/render-loop-detector/internal/config"
	"github.com/rautio/render-loop-detector/internal/parser"
)

// BindingKind classifies what a local binding holds
type BindingKind string

const (
	KindObject     BindingKind = "object"
	KindArray      BindingKind = "array"
	KindFunction   BindingKind = "function"
	KindCallResult BindingKind = "call-result"
	KindPrimitive  BindingKind = "primitive"
	KindState      BindingKind = "state"
	KindRef        BindingKind = "ref"
	KindMemo       BindingKind = "memo"
	KindModule     BindingKind = "module"
	KindProp       BindingKind = "prop"
)

// Stability tags
const (
	Stable             = "stable"
	UnstableObject     = "unstable-object"
	UnstableArray      = "unstable-array"
	UnstableFunction   = "unstable-function"
	UnstableCallResult = "unstable-call-result"
)

// Classification is the stability verdict for one binding. It is a pure
// function of the declaration; usage never changes it.
type Classification struct {
	Name      string
	Kind      BindingKind
	Stability string
	Line      uint32
}

// IsUnstable reports whether the tag is any unstable-* kind
func (c Classification) IsUnstable() bool {
	return strings.HasPrefix(c.Stability, "unstable-")
}

// UnstableCode maps an unstable classification to its dependency error code
func (c Classification) UnstableCode() Code {
	switch c.Stability {
	case UnstableObject:
		return CodeUnstableObject
	case UnstableArray:
		return CodeUnstableArray
	case UnstableFunction:
		return CodeUnstableFunction
	default:
		return CodeUnstableCallResult
	}
}

// knownStableCallees are bare function names whose results keep identity or
// are primitives: coercion constructors and parsing
var knownStableCallees = map[string]bool{
	"Number":     true,
	"String":     true,
	"Boolean":    true,
	"parseInt":   true,
	"parseFloat": true,
}

// knownStableNamespaced are qualified pure functions
var knownStableNamespaced = map[string]bool{
	"Object.is":       true,
	"Array.isArray":   true,
	"Math.round":      true,
	"Math.floor":      true,
	"Math.ceil":       true,
	"Math.trunc":      true,
	"Math.abs":        true,
	"Math.sign":       true,
	"Math.min":        true,
	"Math.max":        true,
	"Math.sin":        true,
	"Math.cos":        true,
	"Math.tan":        true,
	"Date.now":        true,
	"JSON.stringify":  true,
	"Number.isNaN":    true,
	"Number.isFinite": true,
}

// knownStableMethods are string/array methods that return primitives,
// regardless of receiver, plus the store convention .getState()
var knownStableMethods = map[string]bool{
	"join":        true,
	"trim":        true,
	"trimStart":   true,
	"trimEnd":     true,
	"toLowerCase": true,
	"toUpperCase": true,
	"indexOf":     true,
	"lastIndexOf": true,
	"padStart":    true,
	"padEnd":      true,
	"repeat":      true,
	"replace":     true,
	"replaceAll":  true,
	"includes":    true,
	"startsWith":  true,
	"endsWith":    true,
	"charAt":      true,
	"slice":       true,
	"getState":    true,
}

// Classifier tags bindings visible inside one component scope
type Classifier struct {
	cfg     *config.Config
	symbols *analyzer.ReactiveSymbols
}

// NewClassifier creates a classifier for one component's analysis
func NewClassifier(cfg *config.Config, symbols *analyzer.ReactiveSymbols) *Classifier {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Classifier{cfg: cfg, symbols: symbols}
}

// ClassifyComponent produces the classification table for every identifier
// visible inside the component: props, reactive bindings, module-level names
// and local declarations (by the fixed initializer rule table)
func (c *Classifier) ClassifyComponent(fn *parser.Node) map[string]Classification {
	table := make(map[string]Classification)

	// Reactive bindings are stable by construction
	for _, binding := range c.symbols.States {
		table[binding.State] = Classification{Name: binding.State, Kind: KindState, Stability: Stable, Line: binding.Line}
		table[binding.Setter] = Classification{Name: binding.Setter, Kind: KindState, Stability: Stable, Line: binding.Line}
	}
	for name, ref := range c.symbols.Refs {
		table[name] = Classification{Name: name, Kind: KindRef, Stability: Stable, Line: ref.Line}
	}
	for name, memo := range c.symbols.Memos {
		table[name] = Classification{Name: name, Kind: KindMemo, Stability: Stable, Line: memo.Line}
	}

	// Local declarations, resolved lazily so identifier chains work
	initializers := collectInitializers(fn)
	resolving := make(map[string]bool)
	for name := range initializers {
		c.resolve(name, initializers, table, resolving)
	}

	// Props: function parameters and their destructured leaves
	for _, param := range componentParams(fn) {
		if _, exists := table[param]; !exists {
			table[param] = Classification{Name: param, Kind: KindProp, Stability: Stable}
		}
	}

	// Module-level names: component depth zero means stable
	for name := range c.symbols.ModuleLevel {
		if _, exists := table[name]; !exists {
			table[name] = Classification{Name: name, Kind: KindModule, Stability: Stable}
		}
	}

	return table
}

// localDecl is a declaration found inside the component body
type localDecl struct {
	value *parser.Node
	line  uint32
}

// collectInitializers gathers identifier-named declarations inside the
// component body, skipping declarations nested in inner functions
func collectInitializers(fn *parser.Node) map[string]localDecl {
	decls := make(map[string]localDecl)

	body := fn.ChildByFieldName("body")
	if body == nil {
		return decls
	}

	body.Walk(func(node *parser.Node) bool {
		if node != nil && node.IsFunctionExpression() {
			return false
		}
		if node.Type() != "variable_declarator" {
			return true
		}

		nameNode := node.ChildByFieldName("name")
		valueNode := node.ChildByFieldName("value")
		if nameNode == nil || nameNode.Type() != "identifier" {
			return true
		}

		line, _ := node.StartPoint()
		decls[nameNode.Text()] = localDecl{value: valueNode, line: line + 1}
		return true
	})

	return decls
}

// resolve classifies one declaration, following identifier references with a
// cycle guard
func (c *Classifier) resolve(name string, decls map[string]localDecl, table map[string]Classification, resolving map[string]bool) Classification {
	if cls, ok := table[name]; ok {
		return cls
	}
	if resolving[name] {
		cls := Classification{Name: name, Kind: KindPrimitive, Stability: Stable}
		table[name] = cls
		return cls
	}

	decl, ok := decls[name]
	if !ok {
		cls := Classification{Name: name, Kind: KindPrimitive, Stability: Stable}
		return cls
	}

	resolving[name] = true
	cls := c.classifyInitializer(name, decl, decls, table, resolving)
	delete(resolving, name)

	table[name] = cls
	return cls
}

// classifyInitializer applies the fixed rule table to a declaration's
// initializer
func (c *Classifier) classifyInitializer(name string, decl localDecl, decls map[string]localDecl, table map[string]Classification, resolving map[string]bool) Classification {
	value := decl.value
	if value == nil {
		// let x; declarations hold primitives until assigned
		return Classification{Name: name, Kind: KindPrimitive, Stability: Stable, Line: decl.line}
	}

	switch value.Type() {
	case "object":
		return Classification{Name: name, Kind: KindObject, Stability: UnstableObject, Line: decl.line}
	case "array":
		return Classification{Name: name, Kind: KindArray, Stability: UnstableArray, Line: decl.line}
	case "arrow_function", "function", "function_expression", "generator_function":
		return Classification{Name: name, Kind: KindFunction, Stability: UnstableFunction, Line: decl.line}
	case "call_expression":
		if c.isStableCall(value) {
			return Classification{Name: name, Kind: KindCallResult, Stability: Stable, Line: decl.line}
		}
		return Classification{Name: name, Kind: KindCallResult, Stability: UnstableCallResult, Line: decl.line}
	case "identifier":
		ref := c.resolve(value.Text(), decls, table, resolving)
		return Classification{Name: name, Kind: ref.Kind, Stability: ref.Stability, Line: decl.line}
	default:
		// Literals other than object/array are primitives
		return Classification{Name: name, Kind: KindPrimitive, Stability: Stable, Line: decl.line}
	}
}

// isStableCall decides whether a call initializer yields a stable reference
func (c *Classifier) isStableCall(call *parser.Node) bool {
	funcNode := call.ChildByFieldName("function")
	if funcNode == nil {
		return false
	}

	switch funcNode.Type() {
	case "identifier":
		callee := funcNode.Text()
		if c.cfg.IsStableFunction(callee) {
			return true
		}
		if knownStableCallees[callee] {
			return true
		}
		// Custom-hook convention: use*-named calls return stable references
		// unless explicitly marked unstable
		if strings.HasPrefix(callee, "use") && len(callee) > 3 && !c.cfg.IsUnstableHook(callee) {
			return true
		}
	case "member_expression":
		full := funcNode.Text()
		if c.cfg.IsStableFunction(full) {
			return true
		}
		if knownStableNamespaced[full] {
			return true
		}
		prop := funcNode.ChildByFieldName("property")
		if prop != nil && knownStableMethods[prop.Text()] {
			return true
		}
		// Namespaced custom hooks: Ns.useStore()
		if prop != nil {
			name := prop.Text()
			if strings.HasPrefix(name, "use") && len(name) > 3 && !c.cfg.IsUnstableHook(name) {
				return true
			}
		}
	}

	return false
}

// componentParams returns the leaf names bound by the component's parameters
func componentParams(fn *parser.Node) []string {
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		if p := fn.ChildByFieldName("parameter"); p != nil {
			return analyzer.PatternLeaves(p)
		}
		return nil
	}

	var names []string
	for _, param := range params.NamedChildren() {
		names = append(names, analyzer.PatternLeaves(param)...)
	}
	return names
}
