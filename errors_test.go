// errors_test.go
package guard

import (
	"strings"
	"testing"
)

func Test_Errors_PrettySnippet(t *testing.T) {
	src := "x > 0\nand y >\nand z > 0"
	err := WrapErrorWithSource(&ParseError{Line: 2, Col: 7, Msg: "unexpected token 'and'"}, src)
	msg := err.Error()
	for _, want := range []string{
		"PARSE ERROR at 2:8: unexpected token 'and'",
		"   1 | x > 0",
		"   2 | and y >",
		"   3 | and z > 0",
		"^",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("snippet missing %q:\n%s", want, msg)
		}
	}
}

func Test_Errors_WrapLeavesOthersUntouched(t *testing.T) {
	orig := evalErrf("undefined name 'x'")
	if got := WrapErrorWithSource(orig, "x > 0"); got != error(orig) {
		t.Fatalf("non-syntax errors must pass through unchanged")
	}
}

func Test_Errors_Messages(t *testing.T) {
	if got := (&LexError{Line: 1, Col: 2, Msg: "m"}).Error(); got != "LEXICAL ERROR at 1:2: m" {
		t.Fatalf("lex error: %q", got)
	}
	if got := (&UnsupportedExpressionError{Msg: "m"}).Error(); got != "unsupported expression: m" {
		t.Fatalf("unsupported: %q", got)
	}
}
