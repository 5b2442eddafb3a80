package graph

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// ToMermaid renders the call graph as a Mermaid flowchart. Functions that
// transitively reach a setter are highlighted.
func (g *CallGraph) ToMermaid() string {
	var sb strings.Builder
	sb.WriteString("flowchart TD\n")

	keys := make([]string, 0, len(g.summaries))
	for key := range g.summaries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	ids := make(map[string]string, len(keys))
	for i, key := range keys {
		ids[key] = fmt.Sprintf("fn%d", i)
	}

	for _, key := range keys {
		summary := g.summaries[key]
		label := fmt.Sprintf("%s<br/>%s", summary.Name, filepath.Base(summary.FilePath))
		if setters := g.TransitiveSetters(key); len(setters) > 0 {
			label = fmt.Sprintf("%s<br/>sets: %s", label, strings.Join(setters, ", "))
		}
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", ids[key], label))
	}

	for _, key := range keys {
		for _, callee := range g.summaries[key].CallKeys {
			if calleeID, ok := ids[callee]; ok {
				sb.WriteString(fmt.Sprintf("    %s --> %s\n", ids[key], calleeID))
			}
		}
	}

	return sb.String()
}
