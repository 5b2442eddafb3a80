package engine

import (
	"strings"

	"github.com/rautio/render-loop-detector/internal/analyzer"
	"github.com/rautio/render-loop-detector/internal/config"
	"github.com/rautio/render-loop-detector/internal/parser"
)

// SetterCall records one invocation of a known setter inside a hook body
type SetterCall struct {
	Setter     string
	State      string
	Line       uint32
	Column     uint32
	Functional bool // First argument is a function expression
}

// GuardedCall is a setter call whose enclosing conditional was recognized by
// the guard analyzer
type GuardedCall struct {
	SetterCall
	Guard Guard
}

// RefMutation records a write through a ref container
type RefMutation struct {
	RefName        string
	UsesStateValue bool
	Line           uint32
}

// FunctionRef records an identifier passed by reference to a deferred
// dispatcher rather than invoked
type FunctionRef struct {
	Name    string
	Context string // "event-listener" or "callback-arg"
}

// StateInteraction is the result of walking one hook body
type StateInteraction struct {
	Reads        []string
	Direct       []SetterCall
	Conditional  []SetterCall
	Deferred     []SetterCall
	Guarded      []GuardedCall
	Functional   []string // Setter names seen with a functional updater
	FunctionRefs []FunctionRef
	RefMutations []RefMutation
	Calls        []string // Non-setter helper invocations, for cross-file reach

	// True when any setter call executes unconditionally on every run
	HasUnconditionalSetter bool
}

// DirectCalls returns the direct modifications of one setter
func (si *StateInteraction) DirectCalls(setter string) []SetterCall {
	var calls []SetterCall
	for _, c := range si.Direct {
		if c.Setter == setter {
			calls = append(calls, c)
		}
	}
	return calls
}

// HasConditional reports a conditional modification through setter
func (si *StateInteraction) HasConditional(setter string) bool {
	for _, c := range si.Conditional {
		if c.Setter == setter {
			return true
		}
	}
	return false
}

// HasDeferred reports a deferred modification through setter
func (si *StateInteraction) HasDeferred(setter string) bool {
	for _, c := range si.Deferred {
		if c.Setter == setter {
			return true
		}
	}
	return false
}

// IsFunctionRef reports whether name was passed by reference to a dispatcher
func (si *StateInteraction) IsFunctionRef(name string) bool {
	for _, ref := range si.FunctionRefs {
		if ref.Name == name {
			return true
		}
	}
	return false
}

// deferredCallees is the deferred-dispatch set: timing primitives,
// animation-frame schedulers, promise continuations, subscriptions and
// listener attach/detach. Callbacks handed to these never run during the
// current hook execution.
var deferredCallees = map[string]bool{
	"setTimeout":            true,
	"setInterval":           true,
	"requestAnimationFrame": true,
	"requestIdleCallback":   true,
	"queueMicrotask":        true,
	"setImmediate":          true,
	"then":                  true,
	"catch":                 true,
	"finally":               true,
	"subscribe":             true,
	"onSnapshot":            true,
	"addEventListener":      true,
	"removeEventListener":   true,
	"on":                    true,
	"once":                  true,
	"addListener":           true,
	"removeListener":        true,
}

// listenerCallees take function references as event listeners
var listenerCallees = map[string]bool{
	"addEventListener":    true,
	"removeEventListener": true,
	"on":                  true,
	"once":                true,
	"addListener":         true,
	"removeListener":      true,
}

// AnalyzeBody walks a hook body and classifies every setter interaction
func AnalyzeBody(body *parser.Node, syms *analyzer.ReactiveSymbols, cfg *config.Config) *StateInteraction {
	si := &StateInteraction{}
	if body == nil {
		return si
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	isDeferred := func(callee string) bool {
		return deferredCallees[callee] || cfg.IsDeferredFunction(callee)
	}

	// Walk the callback's own body so the callback wrapper itself does not
	// read as a nested function
	if body.IsFunctionExpression() {
		if inner := body.ChildByFieldName("body"); inner != nil {
			body = inner
		}
	}

	// Pre-pass: mark async-callback nodes and record reference passes
	asyncNodes := make(map[parser.NodeKey]bool)
	body.Walk(func(node *parser.Node) bool {
		if node.Type() != "call_expression" {
			return true
		}
		callee := node.CalleeName()
		if !isDeferred(callee) {
			return true
		}

		context := "callback-arg"
		if listenerCallees[callee] {
			context = "event-listener"
		}

		for _, arg := range node.Arguments() {
			switch {
			case arg.IsFunctionExpression():
				asyncNodes[arg.Key()] = true
			case arg.Type() == "identifier":
				si.FunctionRefs = append(si.FunctionRefs, FunctionRef{Name: arg.Text(), Context: context})
			}
		}
		return true
	})

	underAsync := func(ancestors []*parser.Node) bool {
		for _, anc := range ancestors {
			if asyncNodes[anc.Key()] {
				return true
			}
		}
		return false
	}

	// Main walk with the explicit ancestor stack
	body.WalkWithAncestors(func(node *parser.Node, ancestors []*parser.Node) bool {
		switch node.Type() {
		case "identifier":
			si.recordRead(node, ancestors, syms)

		case "assignment_expression":
			si.recordRefMutation(node, syms)

		case "call_expression":
			si.recordCall(node, ancestors, syms, underAsync)
		}
		return true
	})

	si.dedupe()
	return si
}

// recordRead registers a state read: an identifier occurrence that is not the
// assignment target. Member accesses on a state object count through their
// object identifier.
func (si *StateInteraction) recordRead(node *parser.Node, ancestors []*parser.Node, syms *analyzer.ReactiveSymbols) {
	name := node.Text()
	if !syms.IsState(name) {
		return
	}

	if len(ancestors) > 0 {
		parent := ancestors[len(ancestors)-1]
		if parent.Type() == "assignment_expression" {
			if left := parent.ChildByFieldName("left"); left != nil && left.Key() == node.Key() {
				return
			}
		}
	}

	si.Reads = append(si.Reads, name)
}

// recordRefMutation registers refName.current = expr writes
func (si *StateInteraction) recordRefMutation(node *parser.Node, syms *analyzer.ReactiveSymbols) {
	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")
	if left == nil || left.Type() != "member_expression" {
		return
	}

	prop := left.ChildByFieldName("property")
	obj := left.ChildByFieldName("object")
	if prop == nil || obj == nil || prop.Text() != "current" || obj.Type() != "identifier" {
		return
	}

	refName := obj.Text()
	if _, ok := syms.Refs[refName]; !ok {
		return
	}

	usesState := false
	if right != nil {
		right.Walk(func(n *parser.Node) bool {
			if n.Type() == "identifier" && syms.IsState(n.Text()) {
				usesState = true
				return false
			}
			return !usesState
		})
	}

	line, _ := node.StartPoint()
	si.RefMutations = append(si.RefMutations, RefMutation{
		RefName:        refName,
		UsesStateValue: usesState,
		Line:           line + 1,
	})
}

// recordCall classifies a call expression: setter invocation, helper call or
// neither
func (si *StateInteraction) recordCall(node *parser.Node, ancestors []*parser.Node, syms *analyzer.ReactiveSymbols, underAsync func([]*parser.Node) bool) {
	funcNode := node.ChildByFieldName("function")
	if funcNode == nil {
		return
	}

	if funcNode.Type() == "identifier" {
		callee := funcNode.Text()

		if binding, ok := syms.BySetter[callee]; ok {
			si.classifySetterCall(node, ancestors, binding, syms, underAsync)
			return
		}

		// Helper invocation: feeds the missing-deps indirect detection and
		// the cross-file reach query. Deferred contexts and nested function
		// definitions do not run during the hook body.
		if strings.HasPrefix(callee, "use") || deferredCallees[callee] || underAsync(ancestors) {
			return
		}
		for _, anc := range ancestors {
			if anc.IsFunctionExpression() {
				return
			}
		}
		si.Calls = append(si.Calls, callee)
	}
}

// classifySetterCall applies the §4.6 classification ladder to one setter call
func (si *StateInteraction) classifySetterCall(node *parser.Node, ancestors []*parser.Node, binding analyzer.StateBinding, syms *analyzer.ReactiveSymbols, underAsync func([]*parser.Node) bool) {
	line, col := node.StartPoint()
	call := SetterCall{
		Setter: binding.Setter,
		State:  binding.State,
		Line:   line + 1,
		Column: col,
	}

	if arg := firstArgument(node); arg != nil && arg.IsFunctionExpression() {
		call.Functional = true
		si.Functional = append(si.Functional, binding.Setter)
	}

	// Inside an async callback the setter does not fire during this run
	if underAsync(ancestors) {
		si.Deferred = append(si.Deferred, call)
		return
	}

	// Setter calls nested in non-async inner functions are reference
	// definitions, not executions; skip them
	for _, anc := range ancestors {
		if anc.IsFunctionExpression() {
			return
		}
	}

	if guard := AnalyzeGuard(node, ancestors, binding.State, syms); guard != nil {
		if guard.Safe || guard.Kind == GuardSpreadRisk {
			si.Guarded = append(si.Guarded, GuardedCall{SetterCall: call, Guard: *guard})
			return
		}
	}

	if hasConditionalAncestor(node, ancestors) {
		si.Conditional = append(si.Conditional, call)
		return
	}

	si.Direct = append(si.Direct, call)
	si.HasUnconditionalSetter = true
}

// hasConditionalAncestor detects an enclosing if, ternary or short-circuit
// expression within the hook body
func hasConditionalAncestor(node *parser.Node, ancestors []*parser.Node) bool {
	prev := node
	for i := len(ancestors) - 1; i >= 0; i-- {
		anc := ancestors[i]
		switch anc.Type() {
		case "if_statement":
			// Only the branches are conditional, not the condition itself
			if cond := anc.ChildByFieldName("condition"); cond == nil || cond.Key() != prev.Key() {
				return true
			}
		case "ternary_expression":
			if cond := anc.ChildByFieldName("condition"); cond == nil || cond.Key() != prev.Key() {
				return true
			}
		case "binary_expression":
			if op := anc.ChildByFieldName("operator"); op != nil {
				switch op.Text() {
				case "&&", "||", "??":
					// Right side of a short-circuit is conditional
					if right := anc.ChildByFieldName("right"); right != nil && right.Key() == prev.Key() {
						return true
					}
				}
			}
		case "switch_statement":
			return true
		}
		prev = anc
	}
	return false
}

// dedupe removes duplicates from the accumulated lists
func (si *StateInteraction) dedupe() {
	si.Reads = dedupeStrings(si.Reads)
	si.Functional = dedupeStrings(si.Functional)
	si.Calls = dedupeStrings(si.Calls)

	seenRefs := make(map[FunctionRef]bool)
	refs := si.FunctionRefs[:0]
	for _, ref := range si.FunctionRefs {
		if !seenRefs[ref] {
			seenRefs[ref] = true
			refs = append(refs, ref)
		}
	}
	si.FunctionRefs = refs
}

func dedupeStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	result := values[:0]
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			result = append(result, v)
		}
	}
	return result
}
