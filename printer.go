// printer.go — deterministic re-serialization of condition ASTs
//
// FormatExpr turns an S-expression AST back into condition source text. It is
// the fallback for labels whose source span is unavailable (synthesized nodes,
// programmatically built ASTs): the diagnostic engine always prefers the
// verbatim source slice, and calls here only when that slice does not exist.
//
// The output is canonical, not verbatim: one space around binary operators,
// ", " between elements, minimal parenthesisation driven by the same
// precedence table the parser uses. Re-serializing a parsed expression yields
// a parseable equivalent, not necessarily the original spelling.
package guard

import (
	"fmt"
	"strconv"
	"strings"
)

////////////////////////////////////////////////////////////////////////////////
//                                  PUBLIC API
////////////////////////////////////////////////////////////////////////////////

// FormatExpr renders an AST node as canonical condition source text.
func FormatExpr(n S) string {
	var sb strings.Builder
	printExpr(&sb, n, 0)
	return sb.String()
}

//// END_OF_PUBLIC

////////////////////////////////////////////////////////////////////////////////
//                                 PRIVATE
////////////////////////////////////////////////////////////////////////////////

// Precedence levels for printing; higher binds tighter. Atoms are 100.
func nodePrec(n S) int {
	switch tag(n) {
	case "ifexp", "lambda":
		return bpTernary
	case "boolop":
		if n[1].(string) == "or" {
			return bpOr
		}
		return bpAnd
	case "compare":
		return bpCompare
	case "unop":
		if n[1].(string) == "not" {
			return bpNot
		}
		return bpUnary
	case "binop":
		switch n[1].(string) {
		case "+", "-":
			return bpAdd
		case "**":
			return bpPow
		default:
			return bpMul
		}
	case "call", "get", "idx", "slice":
		return bpPostfix
	default:
		return 100
	}
}

// printExpr writes n to sb, parenthesizing when n binds looser than the
// surrounding context.
func printExpr(sb *strings.Builder, n S, ctxPrec int) {
	prec := nodePrec(n)
	parens := prec < ctxPrec
	if parens {
		sb.WriteByte('(')
	}
	switch tag(n) {
	case "id":
		sb.WriteString(getId(n))
	case "int":
		sb.WriteString(strconv.FormatInt(n[1].(int64), 10))
	case "num":
		sb.WriteString(formatFloatSource(n[1].(float64)))
	case "str":
		sb.WriteString(quoteString(getStr(n)))
	case "bool":
		if n[1].(bool) {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case "null":
		sb.WriteString("null")

	case "unop":
		op := n[1].(string)
		if op == "not" {
			sb.WriteString("not ")
			printExpr(sb, child(n, 1), bpNot)
		} else {
			sb.WriteString(op)
			printExpr(sb, child(n, 1), bpPow)
		}

	case "binop":
		op := n[1].(string)
		if op == "**" {
			// Right-associative, and a textual "-x ** 2" re-parses as
			// -(x ** 2): anything below an atom on the left needs parens.
			printExpr(sb, child(n, 1), bpUnary+1)
			sb.WriteString(" ** ")
			printExpr(sb, child(n, 2), prec)
		} else {
			printExpr(sb, child(n, 1), prec)
			sb.WriteString(" " + op + " ")
			printExpr(sb, child(n, 2), prec+1)
		}

	case "boolop":
		op := n[1].(string)
		for i := 2; i < len(n); i++ {
			if i > 2 {
				sb.WriteString(" " + op + " ")
			}
			printExpr(sb, n[i].(S), prec+1)
		}

	case "compare":
		printExpr(sb, child(n, 0), prec+1)
		for i := 2; i < len(n); i += 2 {
			sb.WriteString(" " + n[i].(string) + " ")
			printExpr(sb, n[i+1].(S), prec+1)
		}

	case "ifexp":
		printExpr(sb, child(n, 0), prec+1)
		sb.WriteString(" if ")
		printExpr(sb, child(n, 1), prec+1)
		sb.WriteString(" else ")
		printExpr(sb, child(n, 2), prec)

	case "call":
		printExpr(sb, child(n, 0), prec)
		sb.WriteByte('(')
		for i := 2; i < len(n); i++ {
			if i > 2 {
				sb.WriteString(", ")
			}
			printExpr(sb, n[i].(S), 0)
		}
		sb.WriteByte(')')

	case "get":
		printExpr(sb, child(n, 0), prec)
		sb.WriteByte('.')
		sb.WriteString(getStr(child(n, 1)))

	case "idx":
		printExpr(sb, child(n, 0), prec)
		sb.WriteByte('[')
		printExpr(sb, child(n, 1), 0)
		sb.WriteByte(']')

	case "slice":
		printExpr(sb, child(n, 0), prec)
		sb.WriteByte('[')
		if tag(child(n, 1)) != "null" {
			printExpr(sb, child(n, 1), 0)
		}
		sb.WriteByte(':')
		if tag(child(n, 2)) != "null" {
			printExpr(sb, child(n, 2), 0)
		}
		if tag(child(n, 3)) != "null" {
			sb.WriteByte(':')
			printExpr(sb, child(n, 3), 0)
		}
		sb.WriteByte(']')

	case "array", "tuple", "set":
		open, close := "[", "]"
		switch tag(n) {
		case "tuple":
			open, close = "(", ")"
		case "set":
			open, close = "{", "}"
		}
		sb.WriteString(open)
		for i := 1; i < len(n); i++ {
			if i > 1 {
				sb.WriteString(", ")
			}
			printExpr(sb, n[i].(S), 0)
		}
		if tag(n) == "tuple" && len(n) == 2 {
			sb.WriteByte(',')
		}
		sb.WriteString(close)

	case "map":
		sb.WriteByte('{')
		for i := 1; i < len(n); i++ {
			if i > 1 {
				sb.WriteString(", ")
			}
			p := n[i].(S) // ("pair", key, value)
			printMapKey(sb, child(p, 0))
			sb.WriteString(": ")
			printExpr(sb, child(p, 1), 0)
		}
		sb.WriteByte('}')

	case "listcomp", "setcomp", "gencomp":
		open, close := "[", "]"
		switch tag(n) {
		case "setcomp":
			open, close = "{", "}"
		case "gencomp":
			open, close = "(", ")"
		}
		sb.WriteString(open)
		printExpr(sb, child(n, 0), 0)
		printCompClauses(sb, n, 2)
		sb.WriteString(close)

	case "dictcomp":
		sb.WriteByte('{')
		printMapKey(sb, child(n, 0))
		sb.WriteString(": ")
		printExpr(sb, child(n, 1), 0)
		printCompClauses(sb, n, 3)
		sb.WriteByte('}')

	case "compfor":
		// Printed through printCompClauses; standalone form for completeness.
		printOneCompFor(sb, n)

	case "lambda":
		sb.WriteString("lambda")
		params := child(n, 0)
		for i := 1; i < len(params); i++ {
			if i > 1 {
				sb.WriteByte(',')
			}
			sb.WriteByte(' ')
			sb.WriteString(getId(params[i].(S)))
		}
		sb.WriteString(": ")
		printExpr(sb, child(n, 1), bpTernary)

	default:
		fmt.Fprintf(sb, "<?%s>", tag(n))
	}
	if parens {
		sb.WriteByte(')')
	}
}

// printMapKey renders identifier-shaped string keys bare, others as exprs.
func printMapKey(sb *strings.Builder, k S) {
	if tag(k) == "str" && isIdent(getStr(k)) {
		sb.WriteString(getStr(k))
		return
	}
	printExpr(sb, k, 0)
}

// printCompClauses writes the compfor clauses of a comprehension node,
// starting at element index `from` (1-based over S elements).
func printCompClauses(sb *strings.Builder, n S, from int) {
	for i := from; i < len(n); i++ {
		printOneCompFor(sb, n[i].(S))
	}
}

func printOneCompFor(sb *strings.Builder, cf S) {
	sb.WriteString(" for ")
	target := child(cf, 0)
	if tag(target) == "tuple" {
		for i := 1; i < len(target); i++ {
			if i > 1 {
				sb.WriteString(", ")
			}
			sb.WriteString(getId(target[i].(S)))
		}
	} else {
		sb.WriteString(getId(target))
	}
	sb.WriteString(" in ")
	printExpr(sb, child(cf, 1), bpTernary+1)
	for i := 3; i < len(cf); i++ {
		sb.WriteString(" if ")
		printExpr(sb, cf[i].(S), bpTernary+1)
	}
}

// formatFloatSource renders a float as it would appear in source: always with
// a decimal point or exponent so it re-lexes as a NUMBER.
func formatFloatSource(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") && !strings.Contains(s, "Inf") && s != "NaN" {
		s += ".0"
	}
	return s
}

// isIdent reports whether s lexes as a single identifier.
func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		ok := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(i > 0 && r >= '0' && r <= '9')
		if !ok {
			return false
		}
	}
	switch s {
	case "and", "or", "not", "in", "is", "if", "else", "for", "lambda",
		"true", "false", "null":
		return false
	}
	return true
}

// quoteString renders a string literal with JSON-style escapes, double quoted.
func quoteString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString("\\\"")
		case '\\':
			sb.WriteString("\\\\")
		case '\n':
			sb.WriteString("\\n")
		case '\t':
			sb.WriteString("\\t")
		case '\r':
			sb.WriteString("\\r")
		default:
			if r < 0x20 {
				fmt.Fprintf(&sb, "\\u%04x", r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
