// parser.go — Pratt parser for condition expressions, producing compact
// S-expressions with sidecar source spans.
//
// OVERVIEW
// --------
// This module parses a single boolean-valued condition expression into a
// Lisp-style S-expression AST. It consumes the token stream produced by the
// *whitespace-sensitive* lexer (see lexer.go):
//   - '(' can be LROUND or CLROUND; only CLROUND participates in calls.
//   - '[' can be LSQUARE or CLSQUARE; only CLSQUARE participates in indexing.
//
// The grammar is the expression subset a contract predicate needs: boolean
// connectives, chained comparisons, arithmetic, attribute access, calls,
// indexing and slicing, collection literals, comprehensions, conditional
// expressions and (parsed but rejected downstream) lambdas. Statements are
// not part of the language; a condition is exactly one expression.
//
// Nodes
// -----
// The AST is a tree of S-expressions: []any whose first element is a string
// tag. **This list is the most important reference.**
//
// Literals & identifiers:
//
//	("id",   string)              // identifier
//	("int",  int64)               // from INTEGER
//	("num",  float64)             // from NUMBER
//	("str",  string)              // decoded literal (also property names)
//	("bool", bool)                // from BOOLEAN
//	("null")                      // from NULL
//
// Operators / expressions:
//
//	("unop",  op, operand)                  // prefix "-" or "not"
//	("binop", op, lhs, rhs)                 // "+","-","*","/","//","%","**"
//	("boolop", op, e1, e2, ...)             // n-ary "and" / "or"
//	("compare", left, op1, r1, op2, r2, ..) // chained "==","!=","<","<=",
//	                                        // ">",">=","in","not in","is","is not"
//	("ifexp", body, test, orelse)           // body if test else orelse
//	                                        // (children in source order)
//
// Property / call / index / slice:
//
//	("call", callee, arg1, ...)
//	("get",  obj, ("str", name))            // obj.name
//	("idx",  obj, indexExpr)                // obj[expr]
//	("slice", obj, lo, hi, step)            // obj[lo:hi:step]; absent parts
//	                                        // are synthesized ("null") nodes
//
// Collections & comprehensions:
//
//	("array", e1, e2, ...)
//	("tuple", e1, e2, ...)
//	("set",   e1, e2, ...)
//	("map",   ("pair", keyExpr, value)*)    // bare-identifier keys become
//	                                        // ("str", name) literals
//	("listcomp", elt, compfor...)
//	("setcomp",  elt, compfor...)
//	("dictcomp", keyElt, valElt, compfor...)
//	("gencomp",  elt, compfor...)
//	("compfor", target, iter, if1, if2, ...)  // target: ("id",..) or ("tuple",..)
//
// Lambdas (rejected by the engine, but parsed so the rejection can name them):
//
//	("lambda", ("params", ("id",name)...), body)
//
// ─────────────────────────────────────────────────────────────────────────────
// SPAN EMISSION INVARIANT (CRITICAL)
// ----------------------------------
//   - Every AST node is constructed through `mk*` helpers that *atomically*
//     append exactly one span for that node.
//   - Spans are appended in strict **post-order** of the final AST (children
//     first, then parent), left-to-right among siblings.
//   - Nodes synthesized with no concrete tokens (e.g. absent slice bounds)
//     still receive a placeholder `Span{}` via `mk*` (using tok=-1).
//
// The helpers enforce the invariant mechanically at every construct, so that
// BuildSpanIndexPostOrder (spans.go) can bind spans to structural paths.
//
// Dependencies
// ------------
//   - lexer.go
//   - errors.go (*ParseError)
//   - spans.go (Span, SpanIndex, BuildSpanIndexPostOrder)
package guard

import (
	"fmt"
	"strings"
)

////////////////////////////////////////////////////////////////////////////////
//                                  PUBLIC API
////////////////////////////////////////////////////////////////////////////////

// S is the S-expression node: []any{tagString, child0, child1, ...}.
type S = []any

// L builds an S-expression node without span bookkeeping. Prefer the parser's
// mk helpers inside this package; L is for tests and programmatic ASTs.
func L(tag string, parts ...any) S { return append([]any{tag}, parts...) }

// ParseExpr parses a complete condition source string and returns its AST.
// Trailing tokens after the expression are a parse error.
func ParseExpr(src string) (S, error) {
	ast, _, err := ParseExprWithSpans(src)
	return ast, err
}

// ParseExprWithSpans parses like ParseExpr and also returns a *SpanIndex,
// with spans recorded in strict post-order per the invariant.
func ParseExprWithSpans(src string) (S, *SpanIndex, error) {
	lex := NewLexer(src)
	toks, err := lex.Scan()
	if err != nil {
		return nil, nil, err
	}
	p := &parser{toks: toks, src: src, lastSpanStartTok: -1, lastSpanEndTok: -1}
	ast, perr := p.expr(0)
	if perr != nil {
		return nil, nil, perr
	}
	if !p.atEnd() {
		g := p.peek()
		line, col := p.posAtByte(g.StartByte)
		return nil, nil, &ParseError{Line: line, Col: col, Msg: fmt.Sprintf("unexpected trailing input: '%s'", g.Lexeme)}
	}
	idx := BuildSpanIndexPostOrder(ast, p.post)
	return ast, idx, nil
}

//// END_OF_PUBLIC

////////////////////////////////////////////////////////////////////////////////
///////////////////////////// PRIVATE IMPLEMENTATION ///////////////////////////
////////////////////////////////////////////////////////////////////////////////

type parser struct {
	toks []Token
	i    int

	post             []Span // strictly post-order: one span per node, appended after children
	lastSpanStartTok int
	lastSpanEndTok   int
	src              string
}

// ─────────────────────────── token basics & helpers ─────────────────────────

func (p *parser) atEnd() bool { return p.peek().Type == EOF }
func (p *parser) peek() Token {
	if p.i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i]
}
func (p *parser) peekN(n int) Token {
	if p.i+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i+n]
}
func (p *parser) prev() Token { return p.toks[p.i-1] }

func (p *parser) match(tt ...TokenType) bool {
	if p.atEnd() {
		return false
	}
	for _, t := range tt {
		if p.peek().Type == t {
			p.i++
			return true
		}
	}
	return false
}

func (p *parser) need(t TokenType, msg string) (Token, error) {
	if p.match(t) {
		return p.prev(), nil
	}
	g := p.peek()
	line, col := p.posAtByte(g.StartByte)
	return Token{}, &ParseError{Line: line, Col: col, Msg: msg}
}

// posAtByte maps a byte offset to (1-based line, 0-based col).
func (p *parser) posAtByte(b int) (int, int) {
	if b < 0 {
		g := p.peek()
		return g.Line, g.Col
	}
	if b > len(p.src) {
		b = len(p.src)
	}
	line := 1 + strings.Count(p.src[:b], "\n")
	lastNL := strings.LastIndex(p.src[:b], "\n")
	if lastNL < 0 {
		return line, b
	}
	return line, b - lastNL - 1
}

func (p *parser) errAt(tok Token, msg string) error {
	line, col := p.posAtByte(tok.StartByte)
	return &ParseError{Line: line, Col: col, Msg: msg}
}

// ───────────────────────── precedence / associativity ──────────────────────

const (
	bpTernary = 15
	bpOr      = 20
	bpAnd     = 30
	bpNot     = 35
	bpCompare = 40
	bpAdd     = 60
	bpMul     = 70
	bpPow     = 75
	bpUnary   = 80
	bpPostfix = 90
)

func lbp(t TokenType) (int, bool) {
	switch t {
	case IF:
		return bpTernary, true
	case OR:
		return bpOr, true
	case AND:
		return bpAnd, true
	case EQ, NEQ, LESS, LESS_EQ, GREATER, GREATER_EQ, IN, IS:
		return bpCompare, true
	case PLUS, MINUS:
		return bpAdd, true
	case MULT, DIV, FLOORDIV, MOD:
		return bpMul, true
	case POW:
		return bpPow, true
	}
	return 0, false
}

func isCompareOp(t TokenType) bool {
	switch t {
	case EQ, NEQ, LESS, LESS_EQ, GREATER, GREATER_EQ, IN, IS:
		return true
	default:
		return false
	}
}

// ───────────────────────────── span emission (core) ─────────────────────────
//
// Centralized helpers. **All** node construction goes through these, which
// also append exactly one span for the node (post-order).
//
// Rules:
//   - For leaves tied to a concrete token, pass tok≥0 (start=end=tok).
//   - For synthetic leaves (e.g. absent slice bounds), pass tok=-1 to emit Span{}.
//   - For parents, pass the token range [startTok, endTok] that covers the node.
//   - Helpers also update (lastSpanStartTok,lastSpanEndTok) to the node's range,
//     so callers can compose larger parent ranges deterministically.

func (p *parser) appendNodeSpanByTok(startTok, endTok int) {
	if startTok >= 0 && endTok >= startTok &&
		startTok < len(p.toks) && endTok < len(p.toks) {
		p.post = append(p.post, Span{
			StartByte: p.toks[startTok].StartByte,
			EndByte:   p.toks[endTok].EndByte,
		})
	} else {
		p.post = append(p.post, Span{})
	}
	p.lastSpanStartTok = startTok
	p.lastSpanEndTok = endTok
}

// mkLeaf builds a leaf node whose span is a single token (tok). If tok<0,
// a placeholder empty span is appended (keeps post-order cardinality intact).
func (p *parser) mkLeaf(tag string, tok int, parts ...any) S {
	n := L(tag, parts...)
	p.appendNodeSpanByTok(tok, tok)
	return n
}

// mk builds a parent node after its children were already constructed.
// It appends exactly one span for the parent covering [startTok,endTok].
func (p *parser) mk(tag string, startTok, endTok int, parts ...any) S {
	n := L(tag, parts...)
	p.appendNodeSpanByTok(startTok, endTok)
	return n
}

// ───────────────────────────── prefix / postfix / infix ────────────────────

func (p *parser) expr(minBP int) (S, error) {
	tokIndexOfThis := p.i
	t := p.peek()
	p.i++

	var left S
	leftStartTok := tokIndexOfThis

	// ---- prefix ----
	if n, ok := p.tryLiteralOrId(t, tokIndexOfThis); ok {
		left = n
	} else {
		switch t.Type {
		case MINUS:
			r, err := p.expr(bpPow)
			if err != nil {
				return nil, err
			}
			endTok := p.lastSpanEndTok
			if endTok < 0 {
				endTok = tokIndexOfThis
			}
			left = p.mk("unop", tokIndexOfThis, endTok, "-", r)

		case NOT:
			r, err := p.expr(bpNot)
			if err != nil {
				return nil, err
			}
			endTok := p.lastSpanEndTok
			if endTok < 0 {
				endTok = tokIndexOfThis
			}
			left = p.mk("unop", tokIndexOfThis, endTok, "not", r)

		case LROUND, CLROUND:
			inner, err := p.parseParenthesized(tokIndexOfThis)
			if err != nil {
				return nil, err
			}
			left = inner

		case LSQUARE, CLSQUARE:
			a, err := p.parseSquare(tokIndexOfThis)
			if err != nil {
				return nil, err
			}
			left = a

		case LCURLY:
			c, err := p.parseCurly(tokIndexOfThis)
			if err != nil {
				return nil, err
			}
			left = c

		case LAMBDA:
			lam, err := p.parseLambda(tokIndexOfThis)
			if err != nil {
				return nil, err
			}
			left = lam

		default:
			return nil, p.errAt(t, fmt.Sprintf("unexpected token '%s'", t.Lexeme))
		}
	}

	// ---- postfix chain ----
	for {
		n, ok, err := p.parseOnePostfix(left, leftStartTok)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		left = n
	}

	// ---- infix ops ----
	for {
		op := p.peek()

		// "not in" is a two-token comparison operator.
		if op.Type == NOT && p.peekN(1).Type == IN && bpCompare >= minBP {
			n, err := p.parseCompareChain(left, leftStartTok)
			if err != nil {
				return nil, err
			}
			left = n
			continue
		}

		bp, ok := lbp(op.Type)
		if !ok || bp < minBP {
			break
		}

		if isCompareOp(op.Type) {
			n, err := p.parseCompareChain(left, leftStartTok)
			if err != nil {
				return nil, err
			}
			left = n
			continue
		}

		if op.Type == AND || op.Type == OR {
			n, err := p.parseBoolChain(left, leftStartTok, op.Type, bp)
			if err != nil {
				return nil, err
			}
			left = n
			continue
		}

		if op.Type == IF {
			// body if test else orelse
			p.i++
			test, err := p.expr(bpTernary + 1)
			if err != nil {
				return nil, err
			}
			if _, err := p.need(ELSE, "expected 'else' in conditional expression"); err != nil {
				return nil, err
			}
			orelse, err := p.expr(bpTernary)
			if err != nil {
				return nil, err
			}
			left = p.mk("ifexp", leftStartTok, p.lastSpanEndTok, left, test, orelse)
			continue
		}

		p.i++
		nextBP := bp + 1
		if op.Type == POW {
			nextBP = bp // right-assoc
		}
		right, err := p.expr(nextBP)
		if err != nil {
			return nil, err
		}
		left = p.mk("binop", leftStartTok, p.lastSpanEndTok, op.Lexeme, left, right)
	}

	return left, nil
}

func (p *parser) tryLiteralOrId(t Token, start int) (S, bool) {
	switch t.Type {
	case ID:
		return p.mkLeaf("id", start, t.Lexeme), true
	case INTEGER:
		return p.mkLeaf("int", start, t.Literal), true
	case NUMBER:
		return p.mkLeaf("num", start, t.Literal), true
	case STRING:
		return p.mkLeaf("str", start, t.Literal), true
	case BOOLEAN:
		return p.mkLeaf("bool", start, t.Literal), true
	case NULL:
		return p.mkLeaf("null", start), true
	}
	return nil, false
}

// parseBoolChain collects `left op e op e ...` for a single and/or level into
// one n-ary boolop node. Mixed and/or nesting falls out of precedence.
func (p *parser) parseBoolChain(left S, leftStartTok int, opType TokenType, bp int) (S, error) {
	opLex := p.peek().Lexeme
	items := []any{opLex, left}
	for p.peek().Type == opType {
		p.i++
		r, err := p.expr(bp + 1)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return p.mk("boolop", leftStartTok, p.lastSpanEndTok, items...), nil
}

// parseCompareChain collects `left op e op e ...` for comparison operators
// (including the two-token forms "not in" and "is not") into one node:
// ("compare", left, op1, r1, op2, r2, ...).
func (p *parser) parseCompareChain(left S, leftStartTok int) (S, error) {
	items := []any{left}
	for {
		var opLex string
		switch {
		case p.peek().Type == NOT && p.peekN(1).Type == IN:
			p.i += 2
			opLex = "not in"
		case p.peek().Type == IS && p.peekN(1).Type == NOT:
			p.i += 2
			opLex = "is not"
		case isCompareOp(p.peek().Type):
			opLex = p.peek().Lexeme
			p.i++
		default:
			return p.mk("compare", leftStartTok, p.lastSpanEndTok, items...), nil
		}
		r, err := p.expr(bpCompare + 1)
		if err != nil {
			return nil, err
		}
		items = append(items, opLex, r)
	}
}

// ───────────────────────── unified postfix dispatcher ──────────────────────
//
// Handles: CLROUND (call), CLSQUARE (index/slice), PERIOD (attribute).
// **Span order** is enforced: children were already appended during their
// parse. We append exactly one span for the new wrapper node.

func (p *parser) parseOnePostfix(left S, leftStartTok int) (S, bool, error) {
	switch p.peek().Type {
	case CLROUND:
		p.i++
		if p.match(RROUND) {
			n := p.mk("call", leftStartTok, p.i-1, left)
			return n, true, nil
		}
		args, err := p.parseCallArgs()
		if err != nil {
			return nil, false, err
		}
		n := p.mk("call", leftStartTok, p.i-1, append([]any{left}, args...)...)
		return n, true, nil

	case CLSQUARE:
		openTok := p.i
		p.i++
		n, err := p.parseIndexOrSlice(left, leftStartTok, openTok)
		if err != nil {
			return nil, false, err
		}
		return n, true, nil

	case PERIOD:
		p.i++ // consume '.'
		if p.match(ID) {
			propTok := p.i - 1
			prop := p.mkLeaf("str", propTok, p.prev().Lexeme)
			n := p.mk("get", leftStartTok, propTok, left, prop)
			return n, true, nil
		}
		return nil, false, p.errAt(p.peek(), "expected property name after '.'")
	}
	return nil, false, nil
}

// parseCallArgs parses the argument list after CLROUND, including the bare
// generator form `f(elt for x in xs)` where the generator must be the only
// argument. The closing ')' is consumed.
func (p *parser) parseCallArgs() ([]any, error) {
	firstStart := p.i
	first, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	if p.peek().Type == FOR {
		comps, err := p.parseCompClauses()
		if err != nil {
			return nil, err
		}
		gen := p.mk("gencomp", firstStart, p.lastSpanEndTok, append([]any{first}, comps...)...)
		if _, err := p.need(RROUND, "expected ')' after generator expression"); err != nil {
			return nil, err
		}
		return []any{gen}, nil
	}
	args := []any{first}
	for p.match(COMMA) {
		if p.peek().Type == RROUND { // trailing comma
			break
		}
		a, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	if _, err := p.need(RROUND, "expected ')' after call arguments"); err != nil {
		return nil, err
	}
	return args, nil
}

// parseIndexOrSlice parses `[idx]`, `[lo:hi]`, `[lo:hi:step]` after CLSQUARE.
// Absent slice parts are synthesized ("null") nodes with placeholder spans.
func (p *parser) parseIndexOrSlice(left S, leftStartTok, openTok int) (S, error) {
	_ = openTok
	var lo S
	if p.peek().Type == COLON {
		lo = p.mkLeaf("null", -1)
	} else {
		var err error
		lo, err = p.expr(0)
		if err != nil {
			return nil, err
		}
		if p.match(RSQUARE) {
			return p.mk("idx", leftStartTok, p.i-1, left, lo), nil
		}
	}
	if _, err := p.need(COLON, "expected ']' or ':' in subscript"); err != nil {
		return nil, err
	}
	var hi S
	if p.peek().Type == COLON || p.peek().Type == RSQUARE {
		hi = p.mkLeaf("null", -1)
	} else {
		var err error
		hi, err = p.expr(0)
		if err != nil {
			return nil, err
		}
	}
	var step S
	if p.match(COLON) {
		if p.peek().Type == RSQUARE {
			step = p.mkLeaf("null", -1)
		} else {
			var err error
			step, err = p.expr(0)
			if err != nil {
				return nil, err
			}
		}
	} else {
		step = p.mkLeaf("null", -1)
	}
	if _, err := p.need(RSQUARE, "expected ']' after slice"); err != nil {
		return nil, err
	}
	return p.mk("slice", leftStartTok, p.i-1, left, lo, hi, step), nil
}

// ───────────────────────── bracketed constructs ────────────────────────────

// parseParenthesized handles '(' ... ')' in prefix position: grouping,
// tuples, and generator expressions. Plain grouping returns the inner node
// unchanged (no wrapper node, no extra span).
func (p *parser) parseParenthesized(openTok int) (S, error) {
	if p.match(RROUND) {
		return p.mk("tuple", openTok, p.i-1), nil
	}
	firstStart := p.i
	first, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	switch p.peek().Type {
	case FOR:
		comps, err := p.parseCompClauses()
		if err != nil {
			return nil, err
		}
		gen := p.mk("gencomp", firstStart, p.lastSpanEndTok, append([]any{first}, comps...)...)
		if _, err := p.need(RROUND, "expected ')' after generator expression"); err != nil {
			return nil, err
		}
		return gen, nil
	case COMMA:
		items := []any{first}
		for p.match(COMMA) {
			if p.peek().Type == RROUND { // trailing comma
				break
			}
			e, err := p.expr(0)
			if err != nil {
				return nil, err
			}
			items = append(items, e)
		}
		if _, err := p.need(RROUND, "expected ')' after tuple"); err != nil {
			return nil, err
		}
		return p.mk("tuple", openTok, p.i-1, items...), nil
	default:
		if _, err := p.need(RROUND, "expected ')'"); err != nil {
			return nil, err
		}
		return first, nil
	}
}

// parseSquare handles '[' ... ']' in prefix position: array literals and
// list comprehensions.
func (p *parser) parseSquare(openTok int) (S, error) {
	if p.match(RSQUARE) {
		return p.mk("array", openTok, p.i-1), nil
	}
	first, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	if p.peek().Type == FOR {
		comps, err := p.parseCompClauses()
		if err != nil {
			return nil, err
		}
		if _, err := p.need(RSQUARE, "expected ']' after comprehension"); err != nil {
			return nil, err
		}
		return p.mk("listcomp", openTok, p.i-1, append([]any{first}, comps...)...), nil
	}
	items := []any{first}
	for p.match(COMMA) {
		if p.peek().Type == RSQUARE { // trailing comma
			break
		}
		e, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if _, err := p.need(RSQUARE, "expected ']' after array literal"); err != nil {
		return nil, err
	}
	return p.mk("array", openTok, p.i-1, items...), nil
}

// parseCurly handles '{' ... '}': map literals, set literals, and their
// comprehensions. `{}` is the empty map.
func (p *parser) parseCurly(openTok int) (S, error) {
	if p.match(RCURLY) {
		return p.mk("map", openTok, p.i-1), nil
	}

	bareIdentKey := p.peek().Type == ID && p.peekN(1).Type == COLON
	key, isPair, err := p.parseCurlyKey()
	if err != nil {
		return nil, err
	}
	if !isPair {
		// Set literal or set comprehension.
		if p.peek().Type == FOR {
			comps, err := p.parseCompClauses()
			if err != nil {
				return nil, err
			}
			if _, err := p.need(RCURLY, "expected '}' after set comprehension"); err != nil {
				return nil, err
			}
			return p.mk("setcomp", openTok, p.i-1, append([]any{key}, comps...)...), nil
		}
		items := []any{key}
		for p.match(COMMA) {
			if p.peek().Type == RCURLY { // trailing comma
				break
			}
			e, err := p.expr(0)
			if err != nil {
				return nil, err
			}
			items = append(items, e)
		}
		if _, err := p.need(RCURLY, "expected '}' after set literal"); err != nil {
			return nil, err
		}
		return p.mk("set", openTok, p.i-1, items...), nil
	}

	// Map: first pair's value.
	pairStart := p.lastSpanStartTok
	val, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	if p.peek().Type == FOR {
		// In a comprehension a bare-identifier key is the loop variable, not
		// a literal string. The node count is unchanged, so the span stays.
		if bareIdentKey {
			key = L("id", getStr(key))
		}
		comps, err := p.parseCompClauses()
		if err != nil {
			return nil, err
		}
		if _, err := p.need(RCURLY, "expected '}' after map comprehension"); err != nil {
			return nil, err
		}
		return p.mk("dictcomp", openTok, p.i-1, append([]any{key, val}, comps...)...), nil
	}
	pairs := []any{p.mk("pair", pairStart, p.lastSpanEndTok, key, val)}
	for p.match(COMMA) {
		if p.peek().Type == RCURLY { // trailing comma
			break
		}
		k, isP, err := p.parseCurlyKey()
		if err != nil {
			return nil, err
		}
		if !isP {
			return nil, p.errAt(p.peek(), "expected ':' after map key")
		}
		kStart := p.lastSpanStartTok
		v, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, p.mk("pair", kStart, p.lastSpanEndTok, k, v))
	}
	if _, err := p.need(RCURLY, "expected '}' after map literal"); err != nil {
		return nil, err
	}
	return p.mk("map", openTok, p.i-1, pairs...), nil
}

// parseCurlyKey parses the first element after '{' or ','. A bare identifier
// followed by ':' is a literal string key; otherwise a general expression.
// Returns (node, sawColon).
func (p *parser) parseCurlyKey() (S, bool, error) {
	if p.peek().Type == ID && p.peekN(1).Type == COLON {
		idTok := p.i
		p.i += 2
		return p.mkLeaf("str", idTok, p.toks[idTok].Lexeme), true, nil
	}
	e, err := p.expr(0)
	if err != nil {
		return nil, false, err
	}
	if p.match(COLON) {
		return e, true, nil
	}
	return e, false, nil
}

// ───────────────────────── comprehensions & lambdas ────────────────────────

// parseCompClauses parses one or more `for target in iter [if cond]*`
// clauses. The iterable and filters are parsed above the ternary level, so a
// trailing `if` always reads as a filter.
func (p *parser) parseCompClauses() ([]any, error) {
	var comps []any
	for p.peek().Type == FOR {
		forTok := p.i
		p.i++
		target, err := p.parseCompTarget()
		if err != nil {
			return nil, err
		}
		if _, err := p.need(IN, "expected 'in' in comprehension"); err != nil {
			return nil, err
		}
		iter, err := p.expr(bpTernary + 1)
		if err != nil {
			return nil, err
		}
		parts := []any{target, iter}
		for p.peek().Type == IF {
			p.i++
			cond, err := p.expr(bpTernary + 1)
			if err != nil {
				return nil, err
			}
			parts = append(parts, cond)
		}
		comps = append(comps, p.mk("compfor", forTok, p.lastSpanEndTok, parts...))
	}
	if len(comps) == 0 {
		return nil, p.errAt(p.peek(), "expected 'for' in comprehension")
	}
	return comps, nil
}

// parseCompTarget parses a loop target: a single name, `a, b`, or `(a, b)`.
func (p *parser) parseCompTarget() (S, error) {
	if p.match(LROUND, CLROUND) {
		openTok := p.i - 1
		ids, err := p.parseNameList()
		if err != nil {
			return nil, err
		}
		if _, err := p.need(RROUND, "expected ')' after loop targets"); err != nil {
			return nil, err
		}
		if len(ids) == 1 {
			return ids[0].(S), nil
		}
		return p.mk("tuple", openTok, p.i-1, ids...), nil
	}
	startTok := p.i
	ids, err := p.parseNameList()
	if err != nil {
		return nil, err
	}
	if len(ids) == 1 {
		return ids[0].(S), nil
	}
	return p.mk("tuple", startTok, p.i-1, ids...), nil
}

func (p *parser) parseNameList() ([]any, error) {
	var ids []any
	for {
		if _, err := p.need(ID, "expected loop variable name"); err != nil {
			return nil, err
		}
		ids = append(ids, any(p.mkLeaf("id", p.i-1, p.prev().Lexeme)))
		if p.peek().Type == COMMA && p.peekN(1).Type == ID {
			p.i++
			continue
		}
		return ids, nil
	}
}

// parseLambda parses `lambda a, b: body`. Lambdas are rejected later by the
// classifier/evaluator; parsing them keeps the rejection message precise.
func (p *parser) parseLambda(lambdaTok int) (S, error) {
	paramsStart := p.i
	var ids []any
	if p.peek().Type == ID {
		var err error
		ids, err = p.parseNameList()
		if err != nil {
			return nil, err
		}
	}
	var params S
	if len(ids) == 0 {
		params = p.mk("params", -1, -1)
	} else {
		params = p.mk("params", paramsStart, p.i-1, ids...)
	}
	if _, err := p.need(COLON, "expected ':' after lambda parameters"); err != nil {
		return nil, err
	}
	body, err := p.expr(bpTernary)
	if err != nil {
		return nil, err
	}
	return p.mk("lambda", lambdaTok, p.lastSpanEndTok, params, body), nil
}

// ───────────────────────── tiny AST helpers ────────────────────────────────

func tag(n S) string     { return n[0].(string) }
func children(n S) []any { return n[1:] }
func child(n S, i int) S { return n[i+1].(S) }
func getId(n S) string   { return n[1].(string) }
func getStr(n S) string  { return n[1].(string) }
