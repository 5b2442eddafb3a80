package analyzer

import (
	"strings"

	"github.com/rautio/render-loop-detector/internal/parser"
)

// StateBinding pairs a state variable with its setter. Both names are stable
// by construction.
type StateBinding struct {
	State  string
	Setter string
	Line   uint32
}

// RefBinding is a mutable container created by useRef
type RefBinding struct {
	Name string
	Line uint32
}

// MemoKind distinguishes memoized values from memoized callbacks
type MemoKind string

const (
	MemoValue    MemoKind = "memo-value"
	MemoCallback MemoKind = "memo-callback"
)

// MemoBinding is a variable produced by useMemo or useCallback
type MemoBinding struct {
	Name string
	Kind MemoKind
	Line uint32
}

// ReactiveSymbols holds the reactive bindings extracted from one scope:
// state/setter pairs, refs, memoized variables and module-level names.
type ReactiveSymbols struct {
	States      []StateBinding
	BySetter    map[string]StateBinding
	ByState     map[string]StateBinding
	Refs        map[string]RefBinding
	Memos       map[string]MemoBinding
	ModuleLevel map[string]bool
}

// IsSetter reports whether name is a known state setter in this scope
func (rs *ReactiveSymbols) IsSetter(name string) bool {
	_, ok := rs.BySetter[name]
	return ok
}

// IsState reports whether name is a known state variable in this scope
func (rs *ReactiveSymbols) IsState(name string) bool {
	_, ok := rs.ByState[name]
	return ok
}

// ExtractReactiveSymbols scans a subtree for reactive bindings. Pass a file
// root to get file-level results (module-level names included) or a component
// node for component-scoped extraction.
func ExtractReactiveSymbols(root *parser.Node) *ReactiveSymbols {
	rs := &ReactiveSymbols{
		BySetter:    make(map[string]StateBinding),
		ByState:     make(map[string]StateBinding),
		Refs:        make(map[string]RefBinding),
		Memos:       make(map[string]MemoBinding),
		ModuleLevel: make(map[string]bool),
	}

	rs.visit(root, 0)
	return rs
}

// visit walks the tree tracking component depth. Depth zero means
// module-level; names declared there are stable.
func (rs *ReactiveSymbols) visit(node *parser.Node, componentDepth int) {
	if node == nil {
		return
	}

	switch node.Type() {
	case "variable_declarator":
		rs.handleDeclarator(node, componentDepth)
	case "function_declaration":
		nameNode := node.ChildByFieldName("name")
		if nameNode != nil && componentDepth == 0 {
			rs.ModuleLevel[nameNode.Text()] = true
		}
		for _, child := range node.Children() {
			rs.visit(child, componentDepth+1)
		}
		return
	case "arrow_function", "function", "function_expression", "generator_function":
		for _, child := range node.Children() {
			rs.visit(child, componentDepth+1)
		}
		return
	}

	for _, child := range node.Children() {
		rs.visit(child, componentDepth)
	}
}

// handleDeclarator applies the recognition rules to one variable declaration
func (rs *ReactiveSymbols) handleDeclarator(node *parser.Node, componentDepth int) {
	nameNode := node.ChildByFieldName("name")
	valueNode := node.ChildByFieldName("value")
	if nameNode == nil {
		return
	}

	line, _ := node.StartPoint()
	line++

	// Module-level names are stable regardless of initializer
	if componentDepth == 0 {
		for _, leaf := range PatternLeaves(nameNode) {
			rs.ModuleLevel[leaf] = true
		}
	}

	if valueNode == nil || valueNode.Type() != "call_expression" {
		return
	}

	hookName := valueNode.GetHookName()

	switch {
	case hookName == "useState" || hookName == "useReducer":
		if nameNode.Type() != "array_pattern" {
			return
		}
		elems := nameNode.NamedChildren()
		if len(elems) < 2 {
			return
		}
		state := patternLeafName(elems[0])
		setter := patternLeafName(elems[1])
		if state == "" || setter == "" {
			return
		}
		rs.addState(StateBinding{State: state, Setter: setter, Line: line})

	case hookName == "useRef":
		if nameNode.Type() == "identifier" {
			rs.Refs[nameNode.Text()] = RefBinding{Name: nameNode.Text(), Line: line}
		}

	case hookName == "useMemo" || hookName == "useCallback":
		if nameNode.Type() == "identifier" {
			kind := MemoValue
			if hookName == "useCallback" {
				kind = MemoCallback
			}
			rs.Memos[nameNode.Text()] = MemoBinding{Name: nameNode.Text(), Kind: kind, Line: line}
		}

	case hookName == "useContext":
		if nameNode.Type() != "object_pattern" {
			return
		}
		rs.pairContextBindings(PatternLeaves(nameNode), line)

	case strings.HasPrefix(hookName, "use") && len(hookName) > 3:
		// Custom hook returning a [value, setValue] tuple follows the state
		// convention when the second element is setter-named
		if nameNode.Type() != "array_pattern" {
			return
		}
		elems := nameNode.NamedChildren()
		if len(elems) < 2 {
			return
		}
		state := patternLeafName(elems[0])
		setter := patternLeafName(elems[1])
		if state != "" && IsSetterName(setter) {
			rs.addState(StateBinding{State: state, Setter: setter, Line: line})
		}
	}
}

// pairContextBindings pairs each setX in a useContext destructuring with its
// derived X when both are present
func (rs *ReactiveSymbols) pairContextBindings(names []string, line uint32) {
	present := make(map[string]bool, len(names))
	for _, name := range names {
		present[name] = true
	}

	for _, name := range names {
		if !IsSetterName(name) {
			continue
		}
		base := name[len("set"):]
		// setCount pairs with count or Count, whichever the pattern holds
		lower := strings.ToLower(base[:1]) + base[1:]
		for _, candidate := range []string{lower, base} {
			if present[candidate] {
				rs.addState(StateBinding{State: candidate, Setter: name, Line: line})
				break
			}
		}
	}
}

func (rs *ReactiveSymbols) addState(binding StateBinding) {
	if _, exists := rs.BySetter[binding.Setter]; exists {
		return
	}
	rs.States = append(rs.States, binding)
	rs.BySetter[binding.Setter] = binding
	rs.ByState[binding.State] = binding
}

// PatternLeaves traverses any destructuring pattern (or a function parameter
// wrapping one) and returns every leaf identifier it binds
func PatternLeaves(node *parser.Node) []string {
	if node == nil {
		return nil
	}

	switch node.Type() {
	case "identifier", "shorthand_property_identifier_pattern", "shorthand_property_identifier":
		return []string{node.Text()}
	case "pair_pattern":
		// { config: localName }
		return PatternLeaves(node.ChildByFieldName("value"))
	case "required_parameter", "optional_parameter":
		// TypeScript parameter wrapper: (value, setValue) or ({a, b}: Props)
		return PatternLeaves(node.ChildByFieldName("pattern"))
	case "assignment_pattern", "object_assignment_pattern":
		// Default value: { x = 1 } or [x = 1]
		return PatternLeaves(node.ChildByFieldName("left"))
	case "rest_pattern":
		leaves := []string{}
		for _, child := range node.NamedChildren() {
			leaves = append(leaves, PatternLeaves(child)...)
		}
		return leaves
	case "array_pattern", "object_pattern":
		leaves := []string{}
		for _, child := range node.NamedChildren() {
			leaves = append(leaves, PatternLeaves(child)...)
		}
		return leaves
	}

	return nil
}

// patternLeafName returns the single bound name of a pattern element, or
// empty for nested patterns
func patternLeafName(node *parser.Node) string {
	leaves := PatternLeaves(node)
	if len(leaves) == 1 {
		return leaves[0]
	}
	return ""
}

// IsSetterName matches the set + uppercase-letter convention
func IsSetterName(name string) bool {
	if !strings.HasPrefix(name, "set") || len(name) < 4 {
		return false
	}
	c := name[3]
	return c >= 'A' && c <= 'Z'
}

// IsComponentName matches the component convention (leading uppercase letter)
func IsComponentName(name string) bool {
	if len(name) == 0 {
		return false
	}
	return name[0] >= 'A' && name[0] <= 'Z'
}
