package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rautio/render-loop-detector/internal/analyzer"
	"github.com/rautio/render-loop-detector/internal/config"
	"github.com/rautio/render-loop-detector/internal/engine"
	"github.com/rautio/render-loop-detector/internal/graph"
)

// validExtensions are the file extensions we analyze
var validExtensions = []string{".tsx", ".jsx", ".ts", ".js"}

// Options contains CLI configuration
type Options struct {
	Verbose       bool
	Quiet         bool
	NoColor       bool
	Workers       int    // Parallel workers (0 = auto-detect CPUs)
	JSON          bool   // Output results as JSON
	Mermaid       bool   // Output the cross-file call graph as Mermaid
	Watch         bool   // Re-run on file changes
	ConfigPath    string // Explicit config file, skips the search
	MinSeverity   string // Overrides the config threshold when set
	MinConfidence string
}

// AnalysisStats holds metrics about one analysis run
type AnalysisStats struct {
	FilesAnalyzed     int
	FilesWithFindings int
	FilesClean        int
	TotalFindings     int
	Duration          time.Duration
	ParseDuration     time.Duration
	AnalyzeDuration   time.Duration
	CodeCounts        map[engine.Code]int
}

// Run executes the analysis and returns the process exit code:
// 0 clean, 1 findings at or above the thresholds, 2 usage or config errors
func Run(path string, opts *Options) int {
	logger := newLogger(opts)
	defer func() { _ = logger.Sync() }()

	if opts.Watch {
		return watchAndRun(path, opts, logger)
	}

	return runOnce(context.Background(), path, opts, logger)
}

// runOnce performs a single full analysis pass
func runOnce(ctx context.Context, path string, opts *Options, logger *zap.Logger) int {
	startTime := time.Now()

	absPath, err := filepath.Abs(path)
	if err != nil {
		printError(fmt.Errorf("failed to resolve path: %w", err), opts.NoColor)
		return 2
	}
	path = absPath

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		printError(fmt.Errorf("path not found: %s", path), opts.NoColor)
		return 2
	}
	if err != nil {
		printError(fmt.Errorf("cannot access path: %s", path), opts.NoColor)
		return 2
	}

	baseDir := path
	if !info.IsDir() {
		baseDir = filepath.Dir(path)
	}

	// Configuration errors abort the run
	cfg, configPath, err := loadConfig(baseDir, opts)
	if err != nil {
		printError(err, opts.NoColor)
		return 2
	}
	if opts.Verbose && !opts.JSON && configPath != "" {
		fmt.Printf("Configuration loaded from: %s\n", configPath)
	}

	filesToAnalyze, err := collectFiles(path, info, cfg)
	if err != nil {
		printError(err, opts.NoColor)
		return 2
	}
	if len(filesToAnalyze) == 0 {
		printError(fmt.Errorf("no .tsx, .jsx, .ts, or .js files found in %s", path), opts.NoColor)
		return 2
	}

	projectRoot := baseDir
	if configPath != "" {
		projectRoot = filepath.Dir(configPath)
	}

	resolver, err := analyzer.NewModuleResolver(projectRoot, cfg.TSConfigPath, logger)
	if err != nil {
		printError(fmt.Errorf("failed to initialize module resolver: %w", err), opts.NoColor)
		return 2
	}
	defer resolver.Close()

	stats := &AnalysisStats{CodeCounts: make(map[engine.Code]int)}

	// Parse phase: load every requested module once
	parseStart := time.Now()
	parsed := parseFiles(ctx, filesToAnalyze, resolver, opts, logger)
	stats.ParseDuration = time.Since(parseStart)

	// The call graph follows imports beyond the requested files
	builder := graph.NewBuilder(resolver, logger)
	callGraph, err := builder.Build(parsed)
	if err != nil {
		printError(fmt.Errorf("failed to build call graph: %w", err), opts.NoColor)
		return 2
	}

	if opts.Mermaid {
		fmt.Print(callGraph.ToMermaid())
		return 0
	}

	if len(parsed) > 1 && !opts.Quiet && !opts.JSON {
		fmt.Printf("Analyzing %d files...\n\n", len(parsed))
	}

	// Analyze phase: embarrassingly parallel across files
	analyzeStart := time.Now()
	eng := engine.New(cfg, resolver, callGraph, logger)
	diagnostics := analyzeFiles(ctx, parsed, eng, resolver, opts)
	stats.AnalyzeDuration = time.Since(analyzeStart)

	// Drop potential issues when the config excludes them
	if !cfg.IncludePotentialIssues {
		kept := diagnostics[:0]
		for _, d := range diagnostics {
			if d.Type != engine.TypePotentialIssue {
				kept = append(kept, d)
			}
		}
		diagnostics = kept
	}

	minSeverity, minConfidence := thresholds(cfg, opts)

	collectStats(diagnostics, parsed, stats)
	stats.Duration = time.Since(startTime)

	if opts.JSON {
		return outputJSON(diagnostics, stats, minSeverity, minConfidence)
	}

	printDiagnosticsGrouped(diagnostics, stats, minSeverity, minConfidence, opts)

	for _, d := range diagnostics {
		if d.Exceeds(minSeverity, minConfidence) {
			return 1
		}
	}
	return 0
}

// loadConfig resolves the configuration: an explicit file or the search path
func loadConfig(baseDir string, opts *Options) (*config.Config, string, error) {
	if opts.ConfigPath != "" {
		cfg, err := config.LoadFile(opts.ConfigPath)
		return cfg, opts.ConfigPath, err
	}
	return config.Load(baseDir)
}

// thresholds picks the exit-code thresholds: CLI flags win over config
func thresholds(cfg *config.Config, opts *Options) (string, string) {
	minSeverity := cfg.MinSeverity
	if opts.MinSeverity != "" {
		minSeverity = opts.MinSeverity
	}
	minConfidence := cfg.MinConfidence
	if opts.MinConfidence != "" {
		minConfidence = opts.MinConfidence
	}
	return minSeverity, minConfidence
}

// collectFiles lists the analyzable files under path, honoring the config's
// ignore globs
func collectFiles(path string, info os.FileInfo, cfg *config.Config) ([]string, error) {
	var files []string

	if !info.IsDir() {
		if err := validateFileExtension(path); err != nil {
			return nil, err
		}
		if cfg.ShouldIgnore(path) {
			return nil, nil
		}
		return []string{path}, nil
	}

	err := filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if fi.IsDir() {
			name := fi.Name()
			if strings.HasPrefix(name, ".") || name == "node_modules" || name == "dist" || name == "build" {
				return filepath.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(p))
		for _, validExt := range validExtensions {
			if ext == validExt {
				if !cfg.ShouldIgnore(p) {
					files = append(files, p)
				}
				break
			}
		}
		return nil
	})

	return files, err
}

// validateFileExtension checks if a file has a valid extension
func validateFileExtension(filePath string) error {
	ext := strings.ToLower(filepath.Ext(filePath))
	for _, validExt := range validExtensions {
		if ext == validExt {
			return nil
		}
	}
	return fmt.Errorf("unsupported file type: %s\nSupported extensions: .tsx, .jsx, .ts, .js", ext)
}

// collectStats aggregates run statistics from the sorted diagnostics
func collectStats(diagnostics []engine.Diagnostic, files []string, stats *AnalysisStats) {
	stats.FilesAnalyzed = len(files)
	stats.TotalFindings = len(diagnostics)

	filesWithFindings := make(map[string]bool)
	for _, d := range diagnostics {
		filesWithFindings[d.File] = true
		stats.CodeCounts[d.ErrorCode]++
	}
	stats.FilesWithFindings = len(filesWithFindings)
	stats.FilesClean = stats.FilesAnalyzed - stats.FilesWithFindings
}

// newLogger builds the run logger: development at debug level under
// --verbose, production otherwise, silent in quiet/JSON output modes
func newLogger(opts *Options) *zap.Logger {
	if opts.Quiet || opts.JSON || opts.Mermaid {
		return zap.NewNop()
	}

	var logger *zap.Logger
	var err error
	if opts.Verbose {
		logger, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		logger, err = cfg.Build()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
