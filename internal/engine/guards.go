package engine

import (
	"strings"

	"github.com/rautio/render-loop-detector/internal/analyzer"
	"github.com/rautio/render-loop-detector/internal/parser"
)

// GuardKind classifies a recognized guard pattern
type GuardKind string

const (
	GuardToggle      GuardKind = "toggle-guard"
	GuardEquality    GuardKind = "equality-guard"
	GuardEarlyReturn GuardKind = "early-return"
	GuardSpreadRisk  GuardKind = "object-spread-risk"
)

// Guard is the decision for one guarded setter call
type Guard struct {
	Kind      GuardKind
	Safe      bool
	Condition string
}

// AnalyzeGuard inspects the conditional context of a setter call and decides
// whether the guard provably breaks the loop. Returns nil when no guard
// pattern is recognized; the call is then merely conditional.
func AnalyzeGuard(call *parser.Node, ancestors []*parser.Node, stateName string, syms *analyzer.ReactiveSymbols) *Guard {
	setterArg := firstArgument(call)

	// Nearest enclosing if-statement wins
	for i := len(ancestors) - 1; i >= 0; i-- {
		anc := ancestors[i]
		if anc.Type() != "if_statement" {
			continue
		}

		cond := unwrapCondition(anc.ChildByFieldName("condition"))
		if cond == nil {
			break
		}

		if guard := analyzeCondition(cond, setterArg, stateName); guard != nil {
			return guard
		}
		break
	}

	// No recognized if-guard: look for a preceding early return that
	// references the state
	if guard := findEarlyReturn(call, ancestors, stateName); guard != nil {
		return guard
	}

	return nil
}

// analyzeCondition matches the recognized guard shapes against one condition
func analyzeCondition(cond *parser.Node, setterArg *parser.Node, stateName string) *Guard {
	condText := cond.Text()

	switch cond.Type() {
	case "unary_expression":
		// if (!stateVar) setter(truthy)
		op := cond.ChildByFieldName("operator")
		arg := cond.ChildByFieldName("argument")
		if op != nil && op.Text() == "!" && arg != nil && arg.Type() == "identifier" && arg.Text() == stateName {
			if isTruthyLiteral(setterArg) || !referencesIdentifier(setterArg, stateName) {
				return &Guard{Kind: GuardToggle, Safe: true, Condition: condText}
			}
			return &Guard{Kind: GuardToggle, Safe: false, Condition: condText}
		}

	case "identifier":
		// Mirror toggle: if (stateVar) setter(falsy)
		if cond.Text() == stateName && isFalsyLiteral(setterArg) {
			return &Guard{Kind: GuardToggle, Safe: true, Condition: condText}
		}

	case "binary_expression":
		op := cond.ChildByFieldName("operator")
		left := cond.ChildByFieldName("left")
		right := cond.ChildByFieldName("right")
		if op == nil || left == nil || right == nil {
			return nil
		}

		switch op.Text() {
		case "!==", "!=":
			// Whole-state inequality compare on either side
			if isIdentifierNamed(left, stateName) || isIdentifierNamed(right, stateName) {
				return &Guard{Kind: GuardEquality, Safe: true, Condition: condText}
			}

			// Property compare: safe after one write, unless the setter
			// rebuilds a new aggregate from the old state
			if isPropertyOf(left, stateName) || isPropertyOf(right, stateName) {
				if derivesAggregateFrom(setterArg, stateName) {
					return &Guard{Kind: GuardSpreadRisk, Safe: false, Condition: condText}
				}
				return &Guard{Kind: GuardEquality, Safe: true, Condition: condText}
			}

		case "&&":
			// A safe side makes the whole condition safe
			lg := analyzeCondition(unwrapCondition(left), setterArg, stateName)
			if lg != nil && lg.Safe {
				return lg
			}
			if rg := analyzeCondition(unwrapCondition(right), setterArg, stateName); rg != nil {
				return rg
			}
			return lg
		}
	}

	return nil
}

// findEarlyReturn searches statements preceding the setter in the enclosing
// block for "if (cond) return;" where cond references the state
func findEarlyReturn(call *parser.Node, ancestors []*parser.Node, stateName string) *Guard {
	// Find the statement containing the call, then its enclosing block
	for i := len(ancestors) - 1; i > 0; i-- {
		block := ancestors[i-1]
		stmt := ancestors[i]
		if block.Type() != "statement_block" && block.Type() != "program" {
			continue
		}

		stmtKey := stmt.Key()
		for _, sibling := range block.NamedChildren() {
			if sibling.Key() == stmtKey {
				break
			}
			if guard := matchEarlyReturn(sibling, stateName); guard != nil {
				return guard
			}
		}
	}

	return nil
}

// matchEarlyReturn matches "if (cond) return" with cond referencing the state
// via identifier, comparison, logical, unary or member access
func matchEarlyReturn(stmt *parser.Node, stateName string) *Guard {
	if stmt.Type() != "if_statement" {
		return nil
	}

	consequence := stmt.ChildByFieldName("consequence")
	if consequence == nil || !endsInReturn(consequence) {
		return nil
	}

	cond := unwrapCondition(stmt.ChildByFieldName("condition"))
	if cond == nil {
		return nil
	}

	if conditionReferencesState(cond, stateName) {
		return &Guard{Kind: GuardEarlyReturn, Safe: true, Condition: cond.Text()}
	}
	return nil
}

// endsInReturn accepts a bare return statement or a block whose only
// statement is a return
func endsInReturn(node *parser.Node) bool {
	switch node.Type() {
	case "return_statement":
		return true
	case "statement_block":
		children := node.NamedChildren()
		return len(children) == 1 && children[0].Type() == "return_statement"
	}
	return false
}

// conditionReferencesState accepts identifier, comparison, logical, unary and
// member-access references to the state name
func conditionReferencesState(cond *parser.Node, stateName string) bool {
	switch cond.Type() {
	case "identifier":
		return cond.Text() == stateName
	case "unary_expression", "binary_expression", "member_expression", "parenthesized_expression":
		return referencesIdentifier(cond, stateName)
	}
	return false
}

// derivesAggregateFrom detects a setter argument that rebuilds a new
// aggregate from the old state: {...state, ...}, Object.assign({}, state, …)
// or [...state, ...]. The property compare is satisfied after one write, but
// the object identity still changes on every render.
func derivesAggregateFrom(arg *parser.Node, stateName string) bool {
	if arg == nil {
		return false
	}

	switch arg.Type() {
	case "object", "array":
		for _, child := range arg.NamedChildren() {
			if child.Type() == "spread_element" {
				for _, inner := range child.NamedChildren() {
					if inner.Type() == "identifier" && inner.Text() == stateName {
						return true
					}
				}
			}
		}
	case "call_expression":
		funcNode := arg.ChildByFieldName("function")
		if funcNode != nil && funcNode.Text() == "Object.assign" {
			for _, assignArg := range arg.Arguments() {
				if assignArg.Type() == "identifier" && assignArg.Text() == stateName {
					return true
				}
			}
		}
	}

	return false
}

// unwrapCondition removes parentheses around a condition
func unwrapCondition(cond *parser.Node) *parser.Node {
	for cond != nil && cond.Type() == "parenthesized_expression" {
		children := cond.NamedChildren()
		if len(children) == 0 {
			return nil
		}
		cond = children[0]
	}
	return cond
}

// firstArgument returns the first argument of a call, or nil
func firstArgument(call *parser.Node) *parser.Node {
	args := call.Arguments()
	if len(args) == 0 {
		return nil
	}
	return args[0]
}

// isIdentifierNamed matches a bare identifier with the given name
func isIdentifierNamed(node *parser.Node, name string) bool {
	return node != nil && node.Type() == "identifier" && node.Text() == name
}

// isPropertyOf matches member access on the state: state.k, state.a.b
func isPropertyOf(node *parser.Node, stateName string) bool {
	if node == nil || node.Type() != "member_expression" {
		return false
	}
	obj := node.ChildByFieldName("object")
	for obj != nil && obj.Type() == "member_expression" {
		obj = obj.ChildByFieldName("object")
	}
	return obj != nil && obj.Type() == "identifier" && obj.Text() == stateName
}

// referencesIdentifier reports whether name occurs as an identifier anywhere
// in the subtree
func referencesIdentifier(node *parser.Node, name string) bool {
	if node == nil {
		return false
	}
	found := false
	node.Walk(func(n *parser.Node) bool {
		if n.Type() == "identifier" && n.Text() == name {
			found = true
			return false
		}
		return !found
	})
	return found
}

// isTruthyLiteral matches literals that are always truthy
func isTruthyLiteral(node *parser.Node) bool {
	if node == nil {
		return false
	}
	switch node.Type() {
	case "true":
		return true
	case "number":
		text := node.Text()
		return text != "0" && text != "0.0"
	case "string", "template_string":
		return len(strings.Trim(node.Text(), "'\"`")) > 0
	}
	return false
}

// isFalsyLiteral matches literals that are always falsy
func isFalsyLiteral(node *parser.Node) bool {
	if node == nil {
		return false
	}
	switch node.Type() {
	case "false", "null", "undefined":
		return true
	case "number":
		return node.Text() == "0"
	case "string":
		return len(strings.Trim(node.Text(), "'\"")) == 0
	}
	return false
}
