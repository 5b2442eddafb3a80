package cli

import (
	"context"
	"runtime"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rautio/render-loop-detector/internal/analyzer"
	"github.com/rautio/render-loop-detector/internal/engine"
)

// parseFiles loads every file into the resolver's module cache, in parallel.
// Files that fail to parse are logged and skipped; the run continues.
func parseFiles(ctx context.Context, filePaths []string, resolver *analyzer.ModuleResolver, opts *Options, logger *zap.Logger) []string {
	type result struct {
		index int
		path  string
		ok    bool
	}

	results := make([]result, len(filePaths))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workerCount(opts, len(filePaths)))

	for i, path := range filePaths {
		i, path := i, path
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			_, err := resolver.GetModule(path)
			if err != nil {
				logger.Warn("skipping file", zap.String("path", path), zap.Error(err))
				results[i] = result{index: i, path: path}
				return nil
			}
			results[i] = result{index: i, path: path, ok: true}
			return nil
		})
	}

	_ = eg.Wait()

	parsed := make([]string, 0, len(filePaths))
	for _, r := range results {
		if r.ok {
			parsed = append(parsed, r.path)
		}
	}
	return parsed
}

// fileResult carries one file's diagnostics with its input index
type fileResult struct {
	index       int
	diagnostics []engine.Diagnostic
}

// analyzeFiles runs the engine over every parsed file in parallel. Output
// order is deterministic: results sort by (path, line, column) regardless of
// completion order.
func analyzeFiles(ctx context.Context, filePaths []string, eng *engine.Engine, resolver *analyzer.ModuleResolver, opts *Options) []engine.Diagnostic {
	results := make([]fileResult, len(filePaths))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workerCount(opts, len(filePaths)))

	for i, path := range filePaths {
		i, path := i, path
		eg.Go(func() error {
			module, ok := resolver.GetCachedModule(path)
			if !ok {
				return nil
			}
			diags, err := eng.AnalyzeFile(egCtx, module)
			results[i] = fileResult{index: i, diagnostics: diags}
			return err
		})
	}

	_ = eg.Wait()

	var all []engine.Diagnostic
	for _, r := range results {
		all = append(all, r.diagnostics...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].File != all[j].File {
			return all[i].File < all[j].File
		}
		if all[i].Line != all[j].Line {
			return all[i].Line < all[j].Line
		}
		return all[i].Column < all[j].Column
	})

	return all
}

// workerCount resolves the worker pool size: auto-detect CPUs, capped at the
// file count
func workerCount(opts *Options, fileCount int) int {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > fileCount {
		workers = fileCount
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}
