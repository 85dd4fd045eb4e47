// lexer_test.go
package guard

import (
	"reflect"
	"testing"
)

func toks(t *testing.T, src string) []Token {
	t.Helper()
	l := NewLexer(src)
	ts, err := l.Scan()
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	return ts
}

func typesWithoutEOF(tokens []Token) []TokenType {
	if len(tokens) == 0 {
		return nil
	}
	end := len(tokens)
	if tokens[end-1].Type == EOF {
		end--
	}
	out := make([]TokenType, 0, end)
	for i := 0; i < end; i++ {
		out = append(out, tokens[i].Type)
	}
	return out
}

func wantTypes(t *testing.T, src string, want []TokenType) []Token {
	t.Helper()
	got := toks(t, src)
	gotTypes := typesWithoutEOF(got)
	if !reflect.DeepEqual(gotTypes, want) {
		t.Fatalf("\nsource:\n%s\nwant types:\n%v\ngot types:\n%v\n", src, want, gotTypes)
	}
	return got
}

func Test_Lexer_SimpleComparison(t *testing.T) {
	wantTypes(t, "x < 5", []TokenType{ID, LESS, INTEGER})
}

func Test_Lexer_AttributeAndCall(t *testing.T) {
	wantTypes(t, "a.y.is_absolute()", []TokenType{
		ID, PERIOD, ID, PERIOD, ID, CLROUND, RROUND,
	})
}

func Test_Lexer_CallVersusGrouping(t *testing.T) {
	// No space: a call. With space: grouping.
	wantTypes(t, "f(x)", []TokenType{ID, CLROUND, ID, RROUND})
	wantTypes(t, "f (x)", []TokenType{ID, LROUND, ID, RROUND})
}

func Test_Lexer_IndexVersusArray(t *testing.T) {
	wantTypes(t, "lst[1]", []TokenType{ID, CLSQUARE, INTEGER, RSQUARE})
	wantTypes(t, "lst [1]", []TokenType{ID, LSQUARE, INTEGER, RSQUARE})
	wantTypes(t, "[1, 2]", []TokenType{LSQUARE, INTEGER, COMMA, INTEGER, RSQUARE})
}

func Test_Lexer_Keywords(t *testing.T) {
	wantTypes(t, "x in lst and not y or z is null",
		[]TokenType{ID, IN, ID, AND, NOT, ID, OR, ID, IS, NULL})
	wantTypes(t, "a if b else c", []TokenType{ID, IF, ID, ELSE, ID})
	wantTypes(t, "lambda v: v", []TokenType{LAMBDA, ID, COLON, ID})
}

func Test_Lexer_KeywordAfterDotIsProperty(t *testing.T) {
	got := wantTypes(t, "a.in", []TokenType{ID, PERIOD, ID})
	if got[2].Lexeme != "in" {
		t.Fatalf("expected property 'in', got %q", got[2].Lexeme)
	}
}

func Test_Lexer_Operators(t *testing.T) {
	wantTypes(t, "a ** b // c % d", []TokenType{ID, POW, ID, FLOORDIV, ID, MOD, ID})
	wantTypes(t, "a <= b >= c != d == e", []TokenType{ID, LESS_EQ, ID, GREATER_EQ, ID, NEQ, ID, EQ, ID})
}

func Test_Lexer_Numbers(t *testing.T) {
	got := toks(t, "1 2.5 .5 1e-4 10")
	if got[0].Literal.(int64) != 1 {
		t.Fatalf("int literal: %v", got[0].Literal)
	}
	if got[1].Literal.(float64) != 2.5 {
		t.Fatalf("float literal: %v", got[1].Literal)
	}
	if got[2].Literal.(float64) != 0.5 {
		t.Fatalf("leading-dot float: %v", got[2].Literal)
	}
	if got[3].Literal.(float64) != 1e-4 {
		t.Fatalf("exponent float: %v", got[3].Literal)
	}
	if got[4].Literal.(int64) != 10 {
		t.Fatalf("int literal: %v", got[4].Literal)
	}
}

func Test_Lexer_Strings(t *testing.T) {
	got := toks(t, `"a\nb" 'single'`)
	if got[0].Literal.(string) != "a\nb" {
		t.Fatalf("escape not decoded: %q", got[0].Literal)
	}
	if got[1].Literal.(string) != "single" {
		t.Fatalf("single-quoted string: %q", got[1].Literal)
	}
}

func Test_Lexer_Booleans(t *testing.T) {
	got := wantTypes(t, "true false", []TokenType{BOOLEAN, BOOLEAN})
	if got[0].Literal.(bool) != true || got[1].Literal.(bool) != false {
		t.Fatalf("boolean literals: %v %v", got[0].Literal, got[1].Literal)
	}
}

func Test_Lexer_ByteSpans(t *testing.T) {
	src := "x > lst[1]"
	got := toks(t, src)
	// "lst" occupies bytes [4,7).
	if got[2].StartByte != 4 || got[2].EndByte != 7 {
		t.Fatalf("span of 'lst': [%d,%d)", got[2].StartByte, got[2].EndByte)
	}
	if src[got[2].StartByte:got[2].EndByte] != "lst" {
		t.Fatalf("span slice: %q", src[got[2].StartByte:got[2].EndByte])
	}
}

func Test_Lexer_Errors(t *testing.T) {
	if _, err := NewLexer("x = 5").Scan(); err == nil {
		t.Fatalf("bare '=' should be a lex error")
	}
	if _, err := NewLexer("!x").Scan(); err == nil {
		t.Fatalf("bare '!' should be a lex error")
	}
	if _, err := NewLexer(`"unterminated`).Scan(); err == nil {
		t.Fatalf("unterminated string should be a lex error")
	}
}
