package engine

import (
	"regexp"
	"strings"
)

// Directive patterns are matched case-sensitively, anchored at comment start
// after optional whitespace. Both line and block comment forms apply.
var (
	ignoreInline   = regexp.MustCompile(`//\s*rld-ignore(?:\s|$)|/\*\s*rld-ignore\s*\*/`)
	ignoreNextLine = regexp.MustCompile(`//\s*rld-ignore-next-line(?:\s|$)|/\*\s*rld-ignore-next-line\s*\*/`)
)

// Suppressions maps 1-indexed line numbers to "do not emit here"
type Suppressions map[uint32]bool

// BuildSuppressions scans the raw file text for ignore directives. The
// directive lives in comments, which some grammars drop from the tree, so the
// scan works on source lines.
func BuildSuppressions(source []byte) Suppressions {
	suppressed := make(Suppressions)

	lines := strings.Split(string(source), "\n")
	for i, line := range lines {
		lineNo := uint32(i + 1)
		if ignoreNextLine.MatchString(line) {
			suppressed[lineNo+1] = true
			continue
		}
		if ignoreInline.MatchString(line) {
			suppressed[lineNo] = true
		}
	}

	return suppressed
}
