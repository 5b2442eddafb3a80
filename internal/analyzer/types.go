package analyzer

import "github.com/rautio/render-loop-detector/internal/parser"

// NamedImport represents a single named import with optional alias
type NamedImport struct {
	ImportedName string // The name being imported from the module
	LocalName    string // The local name (alias), same as ImportedName if no alias
}

// Import represents an import statement
type Import struct {
	Source    string        // Import path: "./MyComponent", "react", etc.
	Default   string        // Default import: "React" in "import React from 'react'"
	Named     []NamedImport // Named imports, with alias renaming resolved
	Namespace string        // Namespace: "Utils" in "import * as Utils from './utils'"
}

// Symbol represents a named entity in a module
type Symbol struct {
	Name       string
	Type       SymbolType
	Node       *parser.Node
	IsMemoized bool // For components: wrapped in a memoization combinator
	IsExported bool
	IsDefault  bool // Default export
}

// SymbolType categorizes symbols
type SymbolType int

const (
	SymbolUnknown   SymbolType = iota
	SymbolComponent            // UI component (uppercase naming convention)
	SymbolFunction             // Regular function
	SymbolVariable             // Variable
	SymbolClass                // Class
)

// Module represents a parsed file with metadata
type Module struct {
	FilePath string
	AST      *parser.AST
	Imports  []Import
	Symbols  map[string]*Symbol
	Reactive *ReactiveSymbols // File-level reactive bindings
}

// ImportOf returns the import record that binds localName in this module,
// along with the original (pre-alias) name, or nil when localName is not
// bound by a default or named import (namespace imports are not matched)
func (m *Module) ImportOf(localName string) (*Import, string) {
	for i := range m.Imports {
		imp := &m.Imports[i]
		if imp.Default == localName {
			return imp, "default"
		}
		for _, named := range imp.Named {
			if named.LocalName == localName {
				return imp, named.ImportedName
			}
		}
	}
	return nil, ""
}
