package cli

import (
	"testing"
	"time"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"

	"github.com/rautio/render-loop-detector/internal/engine"
)

func sampleDiagnostics() []engine.Diagnostic {
	loop := engine.Diagnostic{
		Type:                     engine.TypeConfirmedLoop,
		ErrorCode:                engine.CodeEffectLoop,
		Category:                 engine.CategoryCritical,
		File:                     "src/Counter.tsx",
		Line:                     7,
		Column:                   4,
		HookType:                 "useEffect",
		ProblematicDependency:    "count",
		StateVariable:            "count",
		SetterFunction:           "setCount",
		Severity:                 engine.SeverityHigh,
		Confidence:               engine.ConfidenceHigh,
		Explanation:              "useEffect depends on 'count' and calls 'setCount' unconditionally: every run schedules another run",
		ActualStateModifications: []string{"count"},
		StateReads:               []string{"count"},
	}
	perf := engine.Diagnostic{
		Type:                     engine.TypePotentialIssue,
		ErrorCode:                engine.CodeUnstableObject,
		Category:                 engine.CategoryPerformance,
		File:                     "src/Panel.tsx",
		Line:                     12,
		Column:                   6,
		HookType:                 "useEffect",
		ProblematicDependency:    "options",
		Severity:                 engine.SeverityMedium,
		Confidence:               engine.ConfidenceMedium,
		Explanation:              "Dependency 'options' is an inline object: its identity changes on every render, so the useEffect re-runs even when the value is unchanged",
		ActualStateModifications: []string{},
		StateReads:               []string{},
	}
	return []engine.Diagnostic{loop, perf}
}

func TestJSONOutput_Snapshot(t *testing.T) {
	output := JSONOutput{
		Diagnostics: sampleDiagnostics(),
		Stats: JSONStats{
			FilesAnalyzed:     2,
			FilesWithFindings: 2,
			FilesClean:        0,
			TotalFindings:     2,
			DurationMs:        12.5,
		},
	}

	snaps.MatchJSON(t, output)
}

func TestDiagnosticExceeds(t *testing.T) {
	diags := sampleDiagnostics()

	assert.True(t, diags[0].Exceeds("high", "high"))
	assert.True(t, diags[1].Exceeds("low", "low"))
	assert.False(t, diags[1].Exceeds("high", "low"))

	safe := engine.Diagnostic{Category: engine.CategorySafe, Severity: engine.SeverityLow, Confidence: engine.ConfidenceHigh}
	assert.False(t, safe.Exceeds("low", "low"), "safe patterns never trip the exit code")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "500ns", formatDuration(500*time.Nanosecond))
	assert.Equal(t, "250μs", formatDuration(250*time.Microsecond))
	assert.Equal(t, "15ms", formatDuration(15*time.Millisecond))
	assert.Equal(t, "2.50s", formatDuration(2500*time.Millisecond))
}
