package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// wrapNode wraps a tree-sitter node in our Node type
func wrapNode(tsNode *sitter.Node, content []byte) *Node {
	if tsNode == nil {
		return nil
	}

	return &Node{
		tsNode:  tsNode,
		content: content,
	}
}

// Type returns the node type (e.g., "function_declaration", "call_expression")
func (n *Node) Type() string {
	if n == nil || n.tsNode == nil {
		return ""
	}
	return n.tsNode.Type()
}

// Text returns the source code text for this node
func (n *Node) Text() string {
	if n == nil || n.tsNode == nil {
		return ""
	}
	return n.tsNode.Content(n.content)
}

// Children returns all child nodes
func (n *Node) Children() []*Node {
	if n == nil || n.tsNode == nil {
		return nil
	}

	count := int(n.tsNode.ChildCount())
	children := make([]*Node, 0, count)

	for i := 0; i < count; i++ {
		child := n.tsNode.Child(i)
		if child != nil {
			children = append(children, wrapNode(child, n.content))
		}
	}

	return children
}

// NamedChildren returns only named child nodes (skips punctuation, etc.)
func (n *Node) NamedChildren() []*Node {
	if n == nil || n.tsNode == nil {
		return nil
	}

	count := int(n.tsNode.NamedChildCount())
	children := make([]*Node, 0, count)

	for i := 0; i < count; i++ {
		child := n.tsNode.NamedChild(i)
		if child != nil {
			children = append(children, wrapNode(child, n.content))
		}
	}

	return children
}

// ChildByFieldName returns a child node by field name
func (n *Node) ChildByFieldName(field string) *Node {
	if n == nil || n.tsNode == nil {
		return nil
	}

	child := n.tsNode.ChildByFieldName(field)
	return wrapNode(child, n.content)
}

// StartPoint returns the starting position of this node
func (n *Node) StartPoint() (row, col uint32) {
	if n == nil || n.tsNode == nil {
		return 0, 0
	}
	point := n.tsNode.StartPoint()
	return point.Row, point.Column
}

// EndPoint returns the ending position of this node
func (n *Node) EndPoint() (row, col uint32) {
	if n == nil || n.tsNode == nil {
		return 0, 0
	}
	point := n.tsNode.EndPoint()
	return point.Row, point.Column
}

// NodeKey identifies a node by its byte range and node type (a parent and its
// only child can span the same bytes). Wrapper values are recreated on every
// traversal, so maps keyed across walks must use this instead of pointer
// identity.
type NodeKey struct {
	Start uint32
	End   uint32
	Type  string
}

// Key returns the byte-range identity of this node
func (n *Node) Key() NodeKey {
	if n == nil || n.tsNode == nil {
		return NodeKey{}
	}
	return NodeKey{Start: n.tsNode.StartByte(), End: n.tsNode.EndByte(), Type: n.tsNode.Type()}
}

// IsHookCall checks if this node is a call to a React hook (function starting with "use")
func (n *Node) IsHookCall() bool {
	name := n.GetHookName()
	return strings.HasPrefix(name, "use") && len(name) > 3
}

// GetHookName extracts the hook name from a call expression, handling both
// bare calls (useMemo) and namespaced member calls (React.useMemo)
func (n *Node) GetHookName() string {
	if n == nil || n.Type() != "call_expression" {
		return ""
	}

	funcNode := n.ChildByFieldName("function")
	if funcNode == nil {
		return ""
	}

	switch funcNode.Type() {
	case "identifier":
		return funcNode.Text()
	case "member_expression":
		prop := funcNode.ChildByFieldName("property")
		if prop != nil {
			return prop.Text()
		}
	}

	return ""
}

// CalleeName returns the called function's name for a call expression.
// For member calls (obj.method(...)) it returns the method name.
func (n *Node) CalleeName() string {
	if n == nil || n.Type() != "call_expression" {
		return ""
	}

	funcNode := n.ChildByFieldName("function")
	if funcNode == nil {
		return ""
	}

	switch funcNode.Type() {
	case "identifier":
		return funcNode.Text()
	case "member_expression":
		prop := funcNode.ChildByFieldName("property")
		if prop != nil {
			return prop.Text()
		}
	}

	return ""
}

// CalleeObject returns the receiver text for a member call (the "store" in
// store.subscribe(...)), or empty for bare calls
func (n *Node) CalleeObject() string {
	if n == nil || n.Type() != "call_expression" {
		return ""
	}

	funcNode := n.ChildByFieldName("function")
	if funcNode == nil || funcNode.Type() != "member_expression" {
		return ""
	}

	obj := funcNode.ChildByFieldName("object")
	if obj == nil {
		return ""
	}
	return obj.Text()
}

// Arguments returns the named argument nodes of a call expression
func (n *Node) Arguments() []*Node {
	if n == nil || n.Type() != "call_expression" {
		return nil
	}

	args := n.ChildByFieldName("arguments")
	if args == nil {
		return nil
	}

	return args.NamedChildren()
}

// GetDependencyArray returns the dependency array for a hook call
// For useEffect/useMemo/useCallback, this is the last argument
func (n *Node) GetDependencyArray() *Node {
	if n == nil || !n.IsHookCall() {
		return nil
	}

	namedArgs := n.Arguments()
	if len(namedArgs) == 0 {
		return nil
	}

	// Dependency array is the last argument
	lastArg := namedArgs[len(namedArgs)-1]

	// Check if it's an array
	if lastArg.Type() == "array" {
		return lastArg
	}

	return nil
}

// GetArrayElements returns the elements of an array node
func (n *Node) GetArrayElements() []*Node {
	if n == nil || n.Type() != "array" {
		return nil
	}

	// Named children of array are the elements (skips brackets and commas)
	return n.NamedChildren()
}

// IsFunctionExpression reports whether this node is an inline function of any
// form (arrow, anonymous function expression, generator)
func (n *Node) IsFunctionExpression() bool {
	switch n.Type() {
	case "arrow_function", "function", "function_expression", "generator_function":
		return true
	}
	return false
}

// Walk traverses the AST depth-first, calling visitor for each node
func (n *Node) Walk(visitor func(*Node) bool) {
	if n == nil {
		return
	}

	// Call visitor, if it returns false, skip this node's children
	if !visitor(n) {
		return
	}

	// Recursively visit children
	for _, child := range n.Children() {
		child.Walk(visitor)
	}
}

// WalkWithAncestors traverses depth-first carrying an explicit ancestor stack.
// ancestors[0] is the walk root, ancestors[len-1] the immediate parent. The
// stack slice is reused between calls; visitors must copy it to retain it.
// Returning false skips the node's children.
func (n *Node) WalkWithAncestors(visitor func(node *Node, ancestors []*Node) bool) {
	if n == nil {
		return
	}
	stack := make([]*Node, 0, 32)
	n.walkAncestors(&stack, visitor)
}

func (n *Node) walkAncestors(stack *[]*Node, visitor func(node *Node, ancestors []*Node) bool) {
	if !visitor(n, *stack) {
		return
	}

	*stack = append(*stack, n)
	for _, child := range n.Children() {
		child.walkAncestors(stack, visitor)
	}
	*stack = (*stack)[:len(*stack)-1]
}
