package analyzer

import (
	"github.com/rautio/render-loop-detector/internal/parser"
)

// ExtractImports finds all import statements in an AST
func ExtractImports(ast *parser.AST) []Import {
	var imports []Import

	ast.Root.Walk(func(node *parser.Node) bool {
		if node.Type() != "import_statement" {
			return true
		}

		if imp := parseImport(node); imp != nil {
			imports = append(imports, *imp)
		}

		return true
	})

	return imports
}

// parseImport extracts import information from an import_statement node
func parseImport(node *parser.Node) *Import {
	imp := &Import{}

	for _, child := range node.Children() {
		switch child.Type() {
		case "string":
			// Source path lives in the string_fragment child
			for _, strChild := range child.Children() {
				if strChild.Type() == "string_fragment" {
					imp.Source = strChild.Text()
					break
				}
			}
		case "import_clause":
			parseImportClause(child, imp)
		}
	}

	return imp
}

// parseImportClause extracts import details from an import_clause node
func parseImportClause(clause *parser.Node, imp *Import) {
	for _, child := range clause.Children() {
		switch child.Type() {
		case "identifier":
			// Default import
			imp.Default = child.Text()

		case "named_imports":
			imp.Named = extractNamedImports(child)

		case "namespace_import":
			// import * as Utils
			for _, nsChild := range child.Children() {
				if nsChild.Type() == "identifier" {
					imp.Namespace = nsChild.Text()
				}
			}
		}
	}
}

// extractNamedImports gets the list of named imports from a named_imports node.
// "import { Foo as Bar }" yields ImportedName Foo, LocalName Bar.
func extractNamedImports(node *parser.Node) []NamedImport {
	var imports []NamedImport

	node.Walk(func(n *parser.Node) bool {
		if n.Type() != "import_specifier" {
			return true
		}

		var identifiers []string
		for _, child := range n.Children() {
			if child.Type() == "identifier" {
				identifiers = append(identifiers, child.Text())
			}
		}

		if len(identifiers) > 0 {
			namedImport := NamedImport{
				ImportedName: identifiers[0],
				LocalName:    identifiers[0],
			}
			if len(identifiers) > 1 {
				namedImport.LocalName = identifiers[1]
			}
			imports = append(imports, namedImport)
		}
		return true
	})

	return imports
}
