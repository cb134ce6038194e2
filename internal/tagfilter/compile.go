package tagfilter

import (
	"log/slog"
	"strings"
)

// Source is the read side of a question catalog needed for evaluation.
// IDsForTag must return a set the evaluator may keep; AllIDs is the
// universe used for complement.
type Source interface {
	IDsForTag(tag string) map[string]struct{}
	AllIDs() map[string]struct{}
}

// Compile evaluates a filter expression against src and returns the
// eligible question-id set. Empty, blank, and "*" expressions match
// everything without parsing. A malformed expression fails open: the full
// universe is returned and the failure is logged, so a broken filter never
// hides the catalog from players.
func Compile(expr string, src Source, logger *slog.Logger) map[string]struct{} {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" || trimmed == "*" {
		return src.AllIDs()
	}
	node, err := Parse(trimmed)
	if err != nil {
		if logger != nil {
			logger.Warn("tag filter failed to compile, matching everything",
				"expression", expr, "error", err)
		}
		return src.AllIDs()
	}
	return node.eval(src)
}

func (n tagNode) eval(src Source) map[string]struct{} {
	return src.IDsForTag(n.tag)
}

func (starNode) eval(src Source) map[string]struct{} {
	return src.AllIDs()
}

func (n notNode) eval(src Source) map[string]struct{} {
	inner := n.inner.eval(src)
	out := make(map[string]struct{})
	for id := range src.AllIDs() {
		if _, ok := inner[id]; !ok {
			out[id] = struct{}{}
		}
	}
	return out
}

func (n andNode) eval(src Source) map[string]struct{} {
	left := n.left.eval(src)
	right := n.right.eval(src)
	if len(right) < len(left) {
		left, right = right, left
	}
	out := make(map[string]struct{})
	for id := range left {
		if _, ok := right[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}

func (n orNode) eval(src Source) map[string]struct{} {
	out := make(map[string]struct{})
	for id := range n.left.eval(src) {
		out[id] = struct{}{}
	}
	for id := range n.right.eval(src) {
		out[id] = struct{}{}
	}
	return out
}
