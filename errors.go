// errors.go: error taxonomy and caret-snippet rendering
//
// What this file does
// -------------------
// This module defines the error types surfaced by the condition engine and
// turns low-level lexer/parser diagnostics into readable error snippets with
// a caret pointing at the offending column. The primary entry point is
// `WrapErrorWithSource`, which recognizes `*LexError` (from lexer.go) and
// `*ParseError` (from parser.go), formats them, and returns a new `error`
// that contains a multi-line snippet:
//
//	PARSE ERROR at 1:12: expected ')'
//
//	   1 | x > (1 + 2
//	       |            ^
//
// The snippet includes up to one line of context before and after the error,
// numbers the lines, and places a caret under the 1-based column.
//
// Error taxonomy
// --------------
//   - *LexError / *ParseError: the condition source could not be tokenized
//     or parsed. Fatal for the guard's construction.
//   - *UnsupportedExpressionError: the condition contains an expression shape
//     the engine refuses to decompose (an inline lambda). Fatal for the
//     guard's construction and use.
//   - *EvalError: evaluating a sub-expression against the bindings failed
//     (undefined variable, missing attribute, bad operand types, ...). These
//     propagate unchanged: a diagnostic that cannot be computed is itself a
//     defect to surface, not hide.
//   - *ViolationError (contract.go): the condition evaluated to false; its
//     message is the rendered diagnostic.
package guard

import (
	"fmt"
	"strings"
)

/* ===========================
   PUBLIC API
   =========================== */

// LexError reports a tokenization failure. Line is 1-based, Col is 0-based.
type LexError struct {
	Line int
	Col  int
	Msg  string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("LEXICAL ERROR at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// ParseError reports a syntax failure. Line is 1-based, Col is 0-based.
type ParseError struct {
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("PARSE ERROR at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// UnsupportedExpressionError marks a condition that contains an expression
// shape the engine cannot report on (currently: inline lambdas). The guard
// must be rewritten; there is no fallback.
type UnsupportedExpressionError struct {
	Msg string
}

func (e *UnsupportedExpressionError) Error() string {
	return "unsupported expression: " + e.Msg
}

// EvalError reports a failure while evaluating a sub-expression against the
// bound values. The engine never masks these.
type EvalError struct {
	Msg string
}

func (e *EvalError) Error() string { return e.Msg }

func evalErrf(format string, args ...any) *EvalError {
	return &EvalError{Msg: fmt.Sprintf(format, args...)}
}

// WrapErrorWithSource returns an error augmented with a caret-annotated
// snippet of the provided source. It recognizes lexer/parser errors and
// leaves other errors untouched.
func WrapErrorWithSource(err error, src string) error {
	switch e := err.(type) {
	case *LexError:
		// Lex/parse Col are 0-based; render as 1-based.
		return fmt.Errorf("%s", prettyErrorString(src, "LEXICAL ERROR", e.Line, e.Col+1, e.Msg))
	case *ParseError:
		return fmt.Errorf("%s", prettyErrorString(src, "PARSE ERROR", e.Line, e.Col+1, e.Msg))
	default:
		return err
	}
}

//// END_OF_PUBLIC

/* ===========================
   PRIVATE: snippet rendering
   =========================== */

// prettyErrorString builds a snippet with a header and a caret. It shows at
// most one previous and one next line when available. Coordinates are
// treated as 1-based and clamped to the source bounds.
func prettyErrorString(src, header string, line, col int, msg string) string {
	lines := strings.Split(src, "\n")
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	if line > len(lines) {
		line = len(lines)
	}
	lineTxt := lines[line-1]

	var b strings.Builder
	fmt.Fprintf(&b, "%s at %d:%d: %s\n\n", header, line, col, msg)
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lineTxt)
	caretPad := col - 1
	if caretPad < 0 {
		caretPad = 0
	}
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", caretPad))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
