package analyzer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/rautio/render-loop-detector/internal/parser"
)

// ModuleResolver resolves import paths and manages parsed modules.
// Each path is cached once per run; two concurrent misses on the same path may
// both parse it, and the first result stored is the one kept and shared.
type ModuleResolver struct {
	modules      map[string]*Module // Cache of parsed modules (key: absolute path)
	mu           sync.RWMutex       // Protects modules map for concurrent access
	treeSitterMu sync.Mutex         // GLOBAL lock for tree-sitter parsing. The C library is not thread-safe.
	baseDir      string             // Project root directory
	tsconfigPath string             // Explicit tsconfig override, may be empty
	parser       *parser.TreeSitterParser
	aliases      map[string]string
	aliasesOnce  sync.Once
	logger       *zap.Logger
}

// NewModuleResolver creates a new module resolver rooted at baseDir.
// tsconfigPath optionally overrides the tsconfig.json used for path aliases.
func NewModuleResolver(baseDir string, tsconfigPath string, logger *zap.Logger) (*ModuleResolver, error) {
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, err
	}

	p, err := parser.NewParser()
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &ModuleResolver{
		modules:      make(map[string]*Module),
		baseDir:      absBase,
		tsconfigPath: tsconfigPath,
		parser:       p,
		logger:       logger,
	}, nil
}

// Close cleans up the resolver resources
func (r *ModuleResolver) Close() error {
	return r.parser.Close()
}

// PathAliases returns the project path aliases, loading them once
func (r *ModuleResolver) PathAliases() map[string]string {
	r.aliasesOnce.Do(func() {
		aliases, err := LoadPathAliases(r.baseDir, r.tsconfigPath)
		if err != nil {
			r.logger.Warn("failed to load path aliases", zap.Error(err))
			aliases = map[string]string{}
		}
		r.aliases = aliases
	})
	return r.aliases
}

// Resolve converts an import path to an absolute file path
func (r *ModuleResolver) Resolve(fromFile string, importPath string) (string, error) {
	var targetPath string

	if !strings.HasPrefix(importPath, ".") {
		// Non-relative: try alias resolution, otherwise it is an external
		// package and out of scope
		if aliasPrefix, aliasTarget, ok := FindLongestMatchingAlias(importPath, r.PathAliases()); ok {
			relativePath := strings.TrimPrefix(importPath, aliasPrefix)
			targetPath = filepath.Clean(filepath.Join(aliasTarget, relativePath))
		} else {
			return "", fmt.Errorf("external package: %s", importPath)
		}
	} else {
		fromDir := filepath.Dir(fromFile)
		targetPath = filepath.Clean(filepath.Join(fromDir, importPath))
	}

	extensions := []string{".tsx", ".ts", ".jsx", ".js"}

	// The path may already carry an extension
	if info, err := os.Stat(targetPath); err == nil && !info.IsDir() {
		return filepath.Abs(targetPath)
	}

	for _, ext := range extensions {
		testPath := targetPath + ext
		if _, err := os.Stat(testPath); err == nil {
			return filepath.Abs(testPath)
		}
	}

	// Directory import with index file
	for _, ext := range extensions {
		testPath := filepath.Join(targetPath, "index"+ext)
		if _, err := os.Stat(testPath); err == nil {
			return filepath.Abs(testPath)
		}
	}

	return "", fmt.Errorf("cannot resolve: %s from %s", importPath, fromFile)
}

// GetModule returns a module, parsing it if necessary.
// Thread-safe: read lock for cache lookup, write lock for cache update.
func (r *ModuleResolver) GetModule(filePath string) (*Module, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	if mod, exists := r.modules[absPath]; exists {
		r.mu.RUnlock()
		return mod, nil
	}
	r.mu.RUnlock()

	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", absPath, err)
	}

	// Serialize parsing: the tree-sitter C library is not thread-safe
	r.treeSitterMu.Lock()
	ast, err := r.parser.ParseFile(absPath, content)
	r.treeSitterMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("cannot parse %s: %w", absPath, err)
	}

	module := &Module{
		FilePath: absPath,
		AST:      ast,
		Imports:  ExtractImports(ast),
		Symbols:  make(map[string]*Symbol),
	}

	AnalyzeSymbols(module)
	module.Reactive = ExtractReactiveSymbols(ast.Root)

	r.mu.Lock()
	// Another goroutine might have cached it while we were parsing
	if existing, exists := r.modules[absPath]; exists {
		r.mu.Unlock()
		return existing, nil
	}
	r.modules[absPath] = module
	r.mu.Unlock()

	r.logger.Debug("parsed module", zap.String("path", absPath))

	return module, nil
}

// GetCachedModule returns an already-parsed module without parsing on miss
func (r *ModuleResolver) GetCachedModule(filePath string) (*Module, bool) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	mod, ok := r.modules[absPath]
	return mod, ok
}

// GetModules returns a copy of all cached modules
func (r *ModuleResolver) GetModules() map[string]*Module {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*Module, len(r.modules))
	for k, v := range r.modules {
		result[k] = v
	}
	return result
}

// BaseDir returns the project root the resolver was created with
func (r *ModuleResolver) BaseDir() string {
	return r.baseDir
}
