package engine

import (
	"github.com/rautio/render-loop-detector/internal/parser"
)

// HookKind is the fixed taxonomy of inspected hooks
type HookKind string

const (
	HookEffect            HookKind = "effect"
	HookLayoutEffect      HookKind = "layout-effect"
	HookMemo              HookKind = "memo"
	HookCallback          HookKind = "callback"
	HookImperativeHandle  HookKind = "imperative-handle"
	HookSyncExternalStore HookKind = "sync-external-store"
)

// hookKinds maps hook names to kinds. The set is fixed; custom hooks are not
// hook sites themselves.
var hookKinds = map[string]HookKind{
	"useEffect":            HookEffect,
	"useLayoutEffect":      HookLayoutEffect,
	"useMemo":              HookMemo,
	"useCallback":          HookCallback,
	"useImperativeHandle":  HookImperativeHandle,
	"useSyncExternalStore": HookSyncExternalStore,
}

// depsInThirdArgument names the hooks whose dependency list is the third
// argument. This set is fixed at useImperativeHandle; it is never inferred
// from usage.
var depsInThirdArgument = map[HookKind]bool{
	HookImperativeHandle: true,
}

// CanLoop reports whether re-running this hook re-enters the render cycle
func (k HookKind) CanLoop() bool {
	return k == HookEffect || k == HookLayoutEffect
}

// IsEffectKind reports whether the hook is an effect or layout effect
func (k HookKind) IsEffectKind() bool {
	return k == HookEffect || k == HookLayoutEffect
}

// HookSite is one inspected hook call
type HookSite struct {
	Kind     HookKind
	HookName string // As written, e.g. "useEffect"
	Call     *parser.Node
	Body     *parser.Node // The callback/factory argument
	DepsNode *parser.Node
	Deps     []string // Identifier dependencies, in source order
	HasDeps  bool
	ArgCount int
	Line     uint32 // 1-indexed
	Column   uint32
}

// CollectHookSites finds every hook call in a subtree and extracts its
// dependency list and body argument
func CollectHookSites(root *parser.Node) []HookSite {
	var sites []HookSite

	root.Walk(func(node *parser.Node) bool {
		if node.Type() != "call_expression" {
			return true
		}

		hookName := node.GetHookName()
		kind, ok := hookKinds[hookName]
		if !ok {
			return true
		}

		args := node.Arguments()
		line, col := node.StartPoint()

		site := HookSite{
			Kind:     kind,
			HookName: hookName,
			Call:     node,
			ArgCount: len(args),
			Line:     line + 1,
			Column:   col,
		}

		switch kind {
		case HookSyncExternalStore:
			// Snapshot argument; no dependency list applies
			if len(args) > 1 {
				site.Body = args[1]
			}
		case HookImperativeHandle:
			if len(args) > 1 {
				site.Body = args[1]
			}
			if len(args) > 2 && args[2].Type() == "array" {
				site.DepsNode = args[2]
				site.HasDeps = true
			}
		default:
			if len(args) > 0 {
				site.Body = args[0]
			}
			if len(args) > 1 && args[1].Type() == "array" {
				site.DepsNode = args[1]
				site.HasDeps = true
			}
		}

		if site.DepsNode != nil {
			for _, elem := range site.DepsNode.GetArrayElements() {
				// Non-identifier elements are handled by the body walk
				if elem.Type() == "identifier" {
					site.Deps = append(site.Deps, elem.Text())
				}
			}
		}

		sites = append(sites, site)
		return true
	})

	return sites
}
