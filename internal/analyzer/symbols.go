package analyzer

import (
	"strings"

	"github.com/rautio/render-loop-detector/internal/parser"
)

// AnalyzeSymbols extracts module-level symbols from a module's AST
func AnalyzeSymbols(module *Module) {
	if module.Symbols == nil {
		module.Symbols = make(map[string]*Symbol)
	}

	module.AST.Root.Walk(func(node *parser.Node) bool {
		analyzeNode(node, module)
		return true
	})
}

// analyzeNode examines a single AST node for symbols
func analyzeNode(node *parser.Node, module *Module) {
	switch node.Type() {
	case "export_statement":
		handleExportStatement(node, module)
	case "variable_declaration", "lexical_declaration":
		handleVariableDeclaration(node, module)
	case "function_declaration":
		handleFunctionDeclaration(node, module)
	case "class_declaration":
		handleClassDeclaration(node, module)
	}
}

// handleExportStatement processes export statements, including default exports
func handleExportStatement(node *parser.Node, module *Module) {
	isDefault := false
	for _, child := range node.Children() {
		if child.Type() == "default" {
			isDefault = true
		}
	}

	for _, child := range node.NamedChildren() {
		switch child.Type() {
		case "lexical_declaration", "variable_declaration":
			handleVariableDeclaration(child, module)
			markAsExported(child, module, isDefault)
		case "function_declaration":
			handleFunctionDeclaration(child, module)
			markFunctionExported(child, module, isDefault)
		case "class_declaration":
			handleClassDeclaration(child, module)
			markFunctionExported(child, module, isDefault)
		case "identifier":
			// export default Foo
			if symbol, exists := module.Symbols[child.Text()]; exists {
				symbol.IsExported = true
				symbol.IsDefault = symbol.IsDefault || isDefault
			}
		case "call_expression":
			// export default memo(Foo)
			if isDefault && isMemoWrapper(child) {
				for _, arg := range child.Arguments() {
					if arg.Type() == "identifier" {
						if symbol, exists := module.Symbols[arg.Text()]; exists {
							symbol.IsExported = true
							symbol.IsDefault = true
							symbol.IsMemoized = true
						}
					}
				}
			}
		}
	}
}

// handleVariableDeclaration processes variable declarations
func handleVariableDeclaration(node *parser.Node, module *Module) {
	for _, child := range node.NamedChildren() {
		if child.Type() != "variable_declarator" {
			continue
		}

		nameNode := child.ChildByFieldName("name")
		valueNode := child.ChildByFieldName("value")
		if nameNode == nil || nameNode.Type() != "identifier" {
			continue
		}

		name := nameNode.Text()
		// The walk revisits a declaration already handled under its export
		// statement; keep that symbol so its export flags survive
		if existing, ok := module.Symbols[name]; ok && existing.Node.Key() == child.Key() {
			continue
		}
		symbol := &Symbol{
			Name: name,
			Type: SymbolVariable,
			Node: child,
		}

		if valueNode != nil && isMemoWrapper(valueNode) {
			symbol.Type = SymbolComponent
			symbol.IsMemoized = true
		} else if valueNode != nil && valueNode.IsFunctionExpression() {
			if IsComponentName(name) {
				symbol.Type = SymbolComponent
			} else {
				symbol.Type = SymbolFunction
			}
		}

		module.Symbols[name] = symbol
	}
}

// handleFunctionDeclaration processes function declarations
func handleFunctionDeclaration(node *parser.Node, module *Module) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	name := nameNode.Text()
	if existing, ok := module.Symbols[name]; ok && existing.Node.Key() == node.Key() {
		return
	}
	symbolType := SymbolFunction
	if IsComponentName(name) {
		symbolType = SymbolComponent
	}

	module.Symbols[name] = &Symbol{
		Name: name,
		Type: symbolType,
		Node: node,
	}
}

// handleClassDeclaration processes class declarations
func handleClassDeclaration(node *parser.Node, module *Module) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	name := nameNode.Text()
	if existing, ok := module.Symbols[name]; ok && existing.Node.Key() == node.Key() {
		return
	}
	symbol := &Symbol{
		Name: name,
		Type: SymbolClass,
		Node: node,
	}
	if IsComponentName(name) {
		symbol.Type = SymbolComponent
	}

	module.Symbols[name] = symbol
}

// markAsExported marks symbols declared in this node as exported
func markAsExported(node *parser.Node, module *Module, isDefault bool) {
	node.Walk(func(n *parser.Node) bool {
		if n.Type() == "variable_declarator" {
			nameNode := n.ChildByFieldName("name")
			if nameNode != nil {
				if symbol, exists := module.Symbols[nameNode.Text()]; exists {
					symbol.IsExported = true
					symbol.IsDefault = symbol.IsDefault || isDefault
				}
			}
		}
		return true
	})
}

// markFunctionExported marks a named function or class declaration as exported
func markFunctionExported(node *parser.Node, module *Module, isDefault bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	if symbol, exists := module.Symbols[nameNode.Text()]; exists {
		symbol.IsExported = true
		symbol.IsDefault = symbol.IsDefault || isDefault
	}
}

// isMemoWrapper checks if a node is a call to a memoization combinator:
// memo(...), React.memo(...), forwardRef(memo(...)) unwraps one level
func isMemoWrapper(node *parser.Node) bool {
	if node.Type() != "call_expression" {
		return false
	}

	funcNode := node.ChildByFieldName("function")
	if funcNode == nil {
		return false
	}

	funcText := funcNode.Text()
	if funcText == "memo" || strings.HasSuffix(funcText, ".memo") {
		return true
	}

	// forwardRef(memo(...)) and memo(forwardRef(...)) both memoize
	if funcText == "forwardRef" || strings.HasSuffix(funcText, ".forwardRef") {
		for _, arg := range node.Arguments() {
			if isMemoWrapper(arg) {
				return true
			}
		}
	}

	return false
}
