// spans_debug.go — debugging utilities for the span index
//
// WHAT THIS MODULE DOES
// =====================
// Debugging-only helpers for span inspection and validation:
//
//   - A single public toggle, `DebuggingMode`, picked up at process start
//     from the `GUARDDEBUG` environment variable. Hosts may also set it
//     programmatically (tests, REPLs).
//
//   - A public verifier, `VerifySpanIndexPostOrder`, that checks the critical
//     invariant behind diagnostic labels: the parser must record **exactly
//     one span per AST node in post-order**. The function walks the AST in
//     post-order, ensures each node path exists in the SpanIndex, and can
//     print a compact preview of the first N bindings for inspection.
//
// Production code never branches on environment variables directly; use the
// flag as the single source of truth.
package guard

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

////////////////////////////////////////////////////////////////////////////////
//                                  PUBLIC API
////////////////////////////////////////////////////////////////////////////////

// DebuggingMode controls whether verbose span diagnostics are emitted. It is
// initialized from the environment variable `GUARDDEBUG` at process start.
var DebuggingMode = os.Getenv("GUARDDEBUG") != ""

// VerifySpanIndexPostOrder walks the AST in post-order and checks that the
// index binds one span per node.
//
// Behavior:
//   - Returns nil when every AST node has a corresponding span in idx.
//   - Returns "span index missing X/Y nodes" when any post-order node path
//     is absent from the index.
//   - If previewN > 0, prints up to previewN (path, span) examples to w
//     (os.Stderr when w is nil).
//
// Printing is intended for debugging sessions and tests; production callers
// pass previewN=0 or gate calls on DebuggingMode.
func VerifySpanIndexPostOrder(ast S, idx *SpanIndex, src string, previewN int, w io.Writer) error {
	if idx == nil {
		return fmt.Errorf("nil span index")
	}
	if w == nil {
		w = os.Stderr
	}

	// Collect desired post-order paths from the AST.
	var want []NodePath
	var walk func(n S, path NodePath)
	walk = func(n S, path NodePath) {
		for ci := 1; ci < len(n); ci++ {
			if c, ok := n[ci].(S); ok {
				walk(c, append(path, ci-1))
			}
		}
		want = append(want, append(NodePath(nil), path...))
	}
	walk(ast, nil)

	got, missing := 0, 0
	for _, p := range want {
		if _, ok := idx.Get(p); ok {
			got++
		} else {
			missing++
		}
	}

	if previewN > 0 {
		if previewN > len(want) {
			previewN = len(want)
		}
		fmt.Fprintln(w, "[spans] =====================")
		fmt.Fprintf(w, "[spans] nodes=%d spans=%d missing=%d\n", len(want), got, missing)
		for i := 0; i < previewN; i++ {
			p := want[i]
			if sp, ok := idx.Get(p); ok {
				fmt.Fprintf(w, "[spans]   %s  [%d,%d)  %q\n",
					dbgPath(p), sp.StartByte, sp.EndByte, sp.Text(src))
			} else {
				fmt.Fprintf(w, "[spans]   %s  <missing>\n", dbgPath(p))
			}
		}
	}

	if missing > 0 {
		return fmt.Errorf("span index missing %d/%d nodes", missing, len(want))
	}
	return nil
}

//// END_OF_PUBLIC

////////////////////////////////////////////////////////////////////////////////
//                               PRIVATE IMPLEMENTATION
////////////////////////////////////////////////////////////////////////////////

// dbgPath renders a NodePath as "{0 2 1}" for debug output.
func dbgPath(p NodePath) string {
	if len(p) == 0 {
		return "{root}"
	}
	parts := make([]string, len(p))
	for i, x := range p {
		parts[i] = strconv.Itoa(x)
	}
	return "{" + strings.Join(parts, " ") + "}"
}
