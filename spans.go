// spans.go — Sidecar source spans for condition ASTs (S-expressions)
//
// WHAT THIS MODULE DOES
// =====================
// This module provides a tiny, non-invasive mechanism to associate source-code
// byte spans with nodes of a condition AST (encoded as the S-expression type
// `S` from parser.go) without modifying the AST itself.
//
// The spans are modeled as half-open byte intervals `[StartByte, EndByte)`
// relative to the original UTF-8 source. They are the backbone of the
// diagnostic engine: when a sub-expression must be named in a violation
// message, its label is the verbatim source slice for its span — never a
// re-serialization, which could alter spacing or operator layout.
//
// HOW SPANS ARE ASSOCIATED TO NODES
// =================================
// We use a *sidecar* structure (`SpanIndex`) keyed by a stable, structural
// address called a **NodePath**. A `NodePath` is a slice of child indexes
// into the AST tree: e.g. `[]int{0,2,1}` means "root's 0th child → its 2nd
// child → its 1st child". Paths are defined against the S-expression shape
// where a node is `[]any{tagString, child0, child1, ...}` — i.e. the first
// element is the string tag, and child index 0 refers to the element at
// S[1], child index 1 refers to S[2], etc. Non-node elements (operator
// strings, scalar payloads) occupy an index but are never walked.
//
// The parser records one `Span` per AST node in **post-order** (children
// before parent) while constructing the tree, and `BuildSpanIndexPostOrder`
// binds those spans to concrete paths via a deterministic walk of the AST in
// the same order.
//
// PERFORMANCE & CONCURRENCY
// =========================
// Building an index is O(n) in the number of AST nodes. `SpanIndex` is
// read-only after construction and safe to share for concurrent reads —
// a parsed condition and its index are built once per guard and reused
// across every invocation of the guarded function.
package guard

import (
	"strconv"
	"strings"
)

////////////////////////////////////////////////////////////////////////////////
//                                  PUBLIC API
////////////////////////////////////////////////////////////////////////////////

// Span represents a half-open byte interval [StartByte, EndByte) in the
// original source text. Offsets are counted in bytes from the start of the
// UTF-8 source. EndByte is exclusive. The zero Span marks a synthesized node
// with no concrete source text.
type Span struct {
	StartByte int // inclusive
	EndByte   int // exclusive
}

// Empty reports whether the span carries no source text (synthesized nodes).
func (sp Span) Empty() bool { return sp.StartByte >= sp.EndByte }

// Text slices the span out of src, clamped to the source bounds.
func (sp Span) Text(src string) string {
	if sp.Empty() {
		return ""
	}
	lo, hi := sp.StartByte, sp.EndByte
	if lo < 0 {
		lo = 0
	}
	if hi > len(src) {
		hi = len(src)
	}
	if lo >= hi {
		return ""
	}
	return src[lo:hi]
}

// NodePath is a stable structural address into an S-expression AST.
// Each integer selects a child in the node's children array:
//
//	path element k  → child at S[k+1] (since S[0] is the string tag).
type NodePath []int

// SpanIndex stores a sidecar mapping from NodePath → Span for an AST.
// It is read-only after construction. Use Get to retrieve spans by path.
type SpanIndex struct {
	byPath map[string]Span
}

// Get returns the span associated with the given path, if present.
// The boolean is false if the path is unknown or the index is nil.
//
// A SpanIndex may be partial (synthesized nodes carry the zero Span). Callers
// that need text fall back to re-serialization when the lookup fails or the
// span is empty.
func (si *SpanIndex) Get(p NodePath) (Span, bool) {
	if si == nil {
		return Span{}, false
	}
	sp, ok := si.byPath[pathKey(p)]
	return sp, ok
}

// BuildSpanIndexPostOrder constructs a SpanIndex by walking the AST in
// **post-order** (children before parent) and binding each visited node to
// the next span from the provided `postorder` slice.
//
// Contract:
//   - The `postorder` slice must list exactly one Span for each node in `root`
//     in post-order. If it is longer, extras are ignored; if shorter, remaining
//     nodes are left unindexed (Get will return (Span{}, false) for them).
//   - The resulting index is read-only and safe for concurrent reads.
func BuildSpanIndexPostOrder(root S, postorder []Span) *SpanIndex {
	si := &SpanIndex{byPath: make(map[string]Span, len(postorder))}
	bindPostOrder(si, root, postorder)
	return si
}

//// END_OF_PUBLIC

////////////////////////////////////////////////////////////////////////////////
//                                 PRIVATE
////////////////////////////////////////////////////////////////////////////////

// pathKey serializes a NodePath to a compact "a.b.c" string used as the map key.
func pathKey(p NodePath) string {
	if len(p) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, x := range p {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(strconv.Itoa(x))
	}
	return sb.String()
}

// bindPostOrder walks `root` in post-order, assigning spans from `postorder`
// to each visited node, in order.
func bindPostOrder(si *SpanIndex, root S, postorder []Span) {
	i := 0
	var walk func(n S, path NodePath)
	walk = func(n S, path NodePath) {
		// Visit children
		for ci := 1; ci < len(n); ci++ {
			if child, ok := n[ci].(S); ok {
				walk(child, append(path, ci-1))
			}
		}
		// Bind this node
		if i < len(postorder) {
			si.byPath[pathKey(path)] = postorder[i]
			i++
		}
	}
	walk(root, nil)
}
