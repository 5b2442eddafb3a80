package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rautio/render-loop-detector/internal/engine"
)

// JSONOutput is the machine-readable result document
type JSONOutput struct {
	Diagnostics []engine.Diagnostic `json:"diagnostics"`
	Stats       JSONStats           `json:"stats"`
}

// JSONStats mirrors AnalysisStats for serialization
type JSONStats struct {
	FilesAnalyzed     int     `json:"filesAnalyzed"`
	FilesWithFindings int     `json:"filesWithFindings"`
	FilesClean        int     `json:"filesClean"`
	TotalFindings     int     `json:"totalFindings"`
	DurationMs        float64 `json:"durationMs"`
}

// outputJSON prints the full result set as JSON. The exit code still honors
// the thresholds.
func outputJSON(diagnostics []engine.Diagnostic, stats *AnalysisStats, minSeverity, minConfidence string) int {
	if diagnostics == nil {
		diagnostics = []engine.Diagnostic{}
	}

	output := JSONOutput{
		Diagnostics: diagnostics,
		Stats: JSONStats{
			FilesAnalyzed:     stats.FilesAnalyzed,
			FilesWithFindings: stats.FilesWithFindings,
			FilesClean:        stats.FilesClean,
			TotalFindings:     stats.TotalFindings,
			DurationMs:        float64(stats.Duration.Microseconds()) / 1000.0,
		},
	}

	jsonBytes, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to marshal JSON output: %v\n", err)
		return 2
	}
	fmt.Println(string(jsonBytes))

	for _, d := range diagnostics {
		if d.Exceeds(minSeverity, minConfidence) {
			return 1
		}
	}
	return 0
}

// printError formats and prints an error message
func printError(err error, noColor bool) {
	if noColor {
		fmt.Fprintf(os.Stderr, "✖ Error: %v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "\033[31m✖ Error:\033[0m %v\n", err)
	}
}

// printSuccess formats and prints a success message
func printSuccess(message string, noColor bool) {
	if noColor {
		fmt.Printf("✓ %s\n", message)
	} else {
		fmt.Printf("\033[32m✓\033[0m %s\n", message)
	}
}

// printDiagnosticsGrouped renders findings grouped by file. Findings below
// the thresholds are listed only in verbose mode; safe patterns likewise.
func printDiagnosticsGrouped(diagnostics []engine.Diagnostic, stats *AnalysisStats, minSeverity, minConfidence string, opts *Options) {
	visible := make([]engine.Diagnostic, 0, len(diagnostics))
	for _, d := range diagnostics {
		if d.Exceeds(minSeverity, minConfidence) || opts.Verbose {
			visible = append(visible, d)
		}
	}

	if len(visible) == 0 {
		if !opts.Quiet {
			fileWord := "file"
			if stats.FilesAnalyzed != 1 {
				fileWord = "files"
			}
			printSuccess(fmt.Sprintf("No issues found in %d %s", stats.FilesAnalyzed, fileWord), opts.NoColor)
			printTiming(stats, opts)
		}
		return
	}

	// Group by file, preserving the sorted order
	var order []string
	byFile := make(map[string][]engine.Diagnostic)
	for _, d := range visible {
		if _, seen := byFile[d.File]; !seen {
			order = append(order, d.File)
		}
		byFile[d.File] = append(byFile[d.File], d)
	}

	for _, file := range order {
		if opts.NoColor {
			fmt.Printf("\n%s\n", file)
		} else {
			fmt.Printf("\n\033[1m%s\033[0m\n", file)
		}

		for _, d := range byFile[file] {
			location := fmt.Sprintf("  %d:%d", d.Line, d.Column+1)
			tag := fmt.Sprintf("[%s %s/%s]", d.ErrorCode, d.Severity, d.Confidence)

			if opts.NoColor {
				fmt.Printf("%s - %s %s\n", location, tag, d.Explanation)
			} else {
				fmt.Printf("\033[90m%s\033[0m - %s%s\033[0m %s\n",
					location, categoryColor(d.Category), tag, d.Explanation)
			}
		}
	}

	findingWord := "finding"
	if len(visible) != 1 {
		findingWord = "findings"
	}
	fileWord := "file"
	if stats.FilesWithFindings != 1 {
		fileWord = "files"
	}

	summary := fmt.Sprintf("\n✖ Found %d %s in %d %s", len(visible), findingWord, stats.FilesWithFindings, fileWord)
	if stats.FilesClean > 0 {
		cleanWord := "file"
		if stats.FilesClean != 1 {
			cleanWord = "files"
		}
		summary += fmt.Sprintf(" (%d %s clean)", stats.FilesClean, cleanWord)
	}

	if opts.NoColor {
		fmt.Println(summary)
	} else {
		fmt.Printf("\033[31m%s\033[0m\n", summary)
	}

	if !opts.Quiet {
		printTiming(stats, opts)
	}
}

// categoryColor maps a diagnostic category to its ANSI color
func categoryColor(category engine.Category) string {
	switch category {
	case engine.CategoryCritical:
		return "\033[31m" // Red
	case engine.CategoryWarning:
		return "\033[33m" // Yellow
	case engine.CategoryPerformance:
		return "\033[36m" // Cyan
	default:
		return "\033[32m" // Green
	}
}

// printTiming prints basic timing information
func printTiming(stats *AnalysisStats, opts *Options) {
	fileWord := "file"
	if stats.FilesAnalyzed != 1 {
		fileWord = "files"
	}

	fmt.Printf("Analyzed %d %s in %s\n", stats.FilesAnalyzed, fileWord, formatDuration(stats.Duration))

	if opts.Verbose {
		fmt.Printf("  Parse: %s, analyze: %s\n",
			formatDuration(stats.ParseDuration), formatDuration(stats.AnalyzeDuration))
		if len(stats.CodeCounts) > 0 {
			fmt.Println("  Findings by code:")
			for code, count := range stats.CodeCounts {
				fmt.Printf("    %s: %d\n", code, count)
			}
		}
	}
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Microsecond:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	case d < time.Millisecond:
		return fmt.Sprintf("%.0fμs", float64(d.Microseconds()))
	case d < time.Second:
		return fmt.Sprintf("%.0fms", float64(d.Milliseconds()))
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}
