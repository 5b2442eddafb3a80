package engine

import (
	"fmt"

	"github.com/rautio/render-loop-detector/internal/analyzer"
	"github.com/rautio/render-loop-detector/internal/graph"
)

// SiteContext bundles everything the verdict engine combines for one hook
// site: the dependency list, body interactions, stability classifications and
// the cross-file graph
type SiteContext struct {
	File        string
	Site        HookSite
	Interaction *StateInteraction
	Class       map[string]Classification
	Symbols     *analyzer.ReactiveSymbols
	Graph       *graph.CallGraph
	Strict      bool
}

// EvaluateSite runs the ordered decision table for one hook site. It returns
// at most one primary diagnostic plus at most one ref-mutation warning.
func EvaluateSite(ctx SiteContext) []Diagnostic {
	var diags []Diagnostic

	if primary := ctx.evaluatePrimary(); primary != nil {
		diags = append(diags, *primary)
	}

	if refDiag := ctx.refMutationDiagnostic(); refDiag != nil {
		diags = append(diags, *refDiag)
	}

	return diags
}

// evaluatePrimary walks the site's state machine:
// unstable-pre-check → (per-dep) guard → reference → deferred → direct →
// cross-file → conditional
func (ctx *SiteContext) evaluatePrimary() *Diagnostic {
	site := ctx.Site
	si := ctx.Interaction
	canLoop := site.Kind.CanLoop()

	// Unstable-reference pre-check: a dependency recreated on every render
	// decides the whole site
	for _, dep := range site.Deps {
		cls, ok := ctx.Class[dep]
		if !ok || !cls.IsUnstable() || ctx.Symbols.IsState(dep) {
			continue
		}
		// A callback that is only passed by reference is vindicated by the
		// reference check instead
		if si.IsFunctionRef(dep) {
			continue
		}

		if site.Kind.IsEffectKind() && si.HasUnconditionalSetter {
			d := ctx.diagnostic(CodeEffectLoop, SeverityHigh, ConfidenceHigh, dep, site.Line, site.Column)
			d.Explanation = fmt.Sprintf(
				"Dependency '%s' is recreated on every render (%s) and the %s body calls a setter unconditionally, so the hook re-runs forever",
				dep, cls.Stability, site.HookName)
			d.DebugInfo = &DebugInfo{
				Reason:             "unstable dependency with unconditional state modification",
				DependencyAnalysis: fmt.Sprintf("%s classified %s", dep, cls.Stability),
			}
			return d
		}

		severity := SeverityLow
		if site.Kind.IsEffectKind() {
			severity = SeverityMedium
		}
		d := ctx.diagnostic(cls.UnstableCode(), severity, ConfidenceMedium, dep, site.Line, site.Column)
		d.Explanation = fmt.Sprintf(
			"Dependency '%s' is an inline %s: its identity changes on every render, so the %s re-runs even when the value is unchanged",
			dep, cls.Kind, site.HookName)
		d.DebugInfo = &DebugInfo{
			Reason:             "unstable reference in dependency list",
			DependencyAnalysis: fmt.Sprintf("%s classified %s", dep, cls.Stability),
		}
		return d
	}

	for _, dep := range site.Deps {
		binding, isState := ctx.Symbols.ByState[dep]
		if !isState {
			// A non-state dependency can still be vindicated as a pure
			// reference pass (e.g. an event listener that modifies state)
			if si.IsFunctionRef(dep) {
				d := ctx.safePattern(dep, fmt.Sprintf(
					"'%s' is only passed by reference to a dispatcher; it is not invoked during the hook body", dep))
				return d
			}
			continue
		}

		setter := binding.Setter

		// Guard check: a provably loop-breaking guard settles the site
		for _, guarded := range si.Guarded {
			if guarded.Setter != setter {
				continue
			}
			if guarded.Guard.Safe {
				d := ctx.safePattern(dep, fmt.Sprintf(
					"'%s' is updated behind a %s on '%s'; the condition goes false after one write", setter, guarded.Guard.Kind, dep))
				d.StateVariable = dep
				d.SetterFunction = setter
				d.DebugInfo = &DebugInfo{GuardInfo: fmt.Sprintf("%s: %s", guarded.Guard.Kind, guarded.Guard.Condition)}
				return d
			}
			if guarded.Guard.Kind == GuardSpreadRisk {
				d := ctx.diagnostic(CodeSpreadGuardRisk, SeverityMedium, ConfidenceMedium, dep, guarded.Line, guarded.Column)
				d.StateVariable = dep
				d.SetterFunction = setter
				d.Explanation = fmt.Sprintf(
					"The guard compares a property of '%s' but the setter spreads '%s' into a new object; the property stops changing, the identity never does",
					dep, dep)
				d.DebugInfo = &DebugInfo{GuardInfo: fmt.Sprintf("object-spread-risk: %s", guarded.Guard.Condition)}
				return d
			}
		}

		// Reference check
		if si.IsFunctionRef(dep) {
			return ctx.safePattern(dep, fmt.Sprintf(
				"'%s' is only passed by reference to a dispatcher; it is not invoked during the hook body", dep))
		}

		// Deferred check: the setter fires outside the current execution
		if si.HasDeferred(setter) {
			d := ctx.safePattern(dep, fmt.Sprintf(
				"'%s' runs inside a deferred callback (timer, promise or subscription); it does not re-trigger this execution", setter))
			d.StateVariable = dep
			d.SetterFunction = setter
			d.DebugInfo = &DebugInfo{DeferredInfo: "setter only reached through the deferred-dispatch set"}
			return d
		}

		// Direct check
		if direct := si.DirectCalls(setter); len(direct) > 0 {
			allFunctional := true
			for _, call := range direct {
				if !call.Functional {
					allFunctional = false
				}
			}
			if allFunctional {
				// Functional updaters do not read the current value; no
				// verdict for this dependency
				continue
			}

			if canLoop {
				code := CodeEffectLoop
				if site.Kind == HookLayoutEffect {
					code = CodeLayoutEffectLoop
				}
				d := ctx.diagnostic(code, SeverityHigh, ConfidenceHigh, dep, direct[0].Line, direct[0].Column)
				d.StateVariable = dep
				d.SetterFunction = setter
				d.Explanation = fmt.Sprintf(
					"%s depends on '%s' and calls '%s' unconditionally: every run schedules another run",
					site.HookName, dep, setter)
				d.DebugInfo = &DebugInfo{
					Reason:        "direct modification of a dependency",
					StateTracking: fmt.Sprintf("state '%s' paired with setter '%s'", dep, setter),
				}
				return d
			}

			d := ctx.diagnostic(CodeMemoModifiesDep, SeverityLow, ConfidenceMedium, dep, direct[0].Line, direct[0].Column)
			d.StateVariable = dep
			d.SetterFunction = setter
			d.Explanation = fmt.Sprintf(
				"%s modifies its own dependency '%s'; recomputing a value should not set state", site.HookName, dep)
			return d
		}

		// Cross-file check: the body calls a helper that transitively
		// reaches this setter
		if ctx.Graph != nil {
			for _, callee := range si.Calls {
				if !ctx.Graph.ReachableSetter(ctx.File, callee, setter) {
					continue
				}

				code, severity, confidence := CodeCrossFileReview, SeverityMedium, ConfidenceMedium
				if canLoop {
					code, severity = CodeCrossFileLoop, SeverityHigh
				}
				d := ctx.diagnostic(code, severity, confidence, dep, site.Line, site.Column)
				d.StateVariable = dep
				d.SetterFunction = setter
				d.Explanation = fmt.Sprintf(
					"'%s' transitively calls '%s', which modifies dependency '%s'", callee, setter, dep)
				d.DebugInfo = &DebugInfo{
					CrossFileInfo: fmt.Sprintf("call chain from '%s' reaches setter '%s'", callee, setter),
				}
				return d
			}
		}

		// Conditional check
		if si.HasConditional(setter) {
			if canLoop {
				d := ctx.diagnostic(CodeConditionalReview, SeverityMedium, ConfidenceMedium, dep, site.Line, site.Column)
				d.StateVariable = dep
				d.SetterFunction = setter
				d.Explanation = fmt.Sprintf(
					"'%s' is called under an unrecognized condition while '%s' is a dependency; review whether the condition converges",
					setter, dep)
				return d
			}
			if ctx.Strict {
				// Strict mode reviews conditional state writes in memos and
				// callbacks too
				d := ctx.diagnostic(CodeMemoModifiesDep, SeverityLow, ConfidenceLow, dep, site.Line, site.Column)
				d.StateVariable = dep
				d.SetterFunction = setter
				d.Explanation = fmt.Sprintf(
					"%s conditionally modifies its own dependency '%s'", site.HookName, dep)
				return d
			}
		}

		// Only reads: no diagnostic for this dependency
	}

	return nil
}

// refMutationDiagnostic is the side channel: a ref that mirrors state while
// also being listed as a dependency
func (ctx *SiteContext) refMutationDiagnostic() *Diagnostic {
	for _, mutation := range ctx.Interaction.RefMutations {
		if !mutation.UsesStateValue {
			continue
		}
		for _, dep := range ctx.Site.Deps {
			if dep != mutation.RefName {
				continue
			}
			d := ctx.diagnostic(CodeRefMutation, SeverityLow, ConfidenceLow, dep, mutation.Line, 0)
			d.Explanation = fmt.Sprintf(
				"Ref '%s' is written with a state value and also listed as a dependency; refs do not trigger re-runs and this usually hides a stale value",
				mutation.RefName)
			return d
		}
	}
	return nil
}

// diagnostic builds a diagnostic with the site's common fields filled in
func (ctx *SiteContext) diagnostic(code Code, severity Severity, confidence Confidence, dep string, line, col uint32) *Diagnostic {
	d := newDiagnostic(code, severity, confidence)
	d.File = ctx.File
	d.Line = line
	d.Column = col
	d.HookType = ctx.Site.HookName
	d.ProblematicDependency = dep
	d.ActualStateModifications = ctx.modifiedStates()
	d.StateReads = append([]string{}, ctx.Interaction.Reads...)
	return &d
}

// safePattern builds the safe verdict for a dependency
func (ctx *SiteContext) safePattern(dep string, explanation string) *Diagnostic {
	d := ctx.diagnostic(CodeSafePattern, SeverityLow, ConfidenceHigh, dep, ctx.Site.Line, ctx.Site.Column)
	d.Explanation = explanation
	return d
}

// modifiedStates lists the state names touched by any setter call in the body
func (ctx *SiteContext) modifiedStates() []string {
	return siteModifiedStates(ctx.Interaction)
}
