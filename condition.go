// condition.go — the parsed, reusable condition
//
// WHAT THIS MODULE DOES
// =====================
// A Condition is the unit the guard layer works with: one boolean-valued
// expression, parsed once from source text at construction, evaluated many
// times against per-check bindings, and — when it fails — explained through
// the collector and formatter.
//
// Construction is the validation point: lex/parse errors come back wrapped
// with a caret snippet, and a condition containing a lambda anywhere is
// rejected immediately with *UnsupportedExpressionError. There is no lazy
// failure mode — a guard that cannot be explained must not be installed.
//
// A Condition is immutable after ParseCondition returns. The AST, span index
// and source are only ever read, so one Condition may be shared by any number
// of goroutines; each Eval/Explain builds its own environment frame.
package guard

////////////////////////////////////////////////////////////////////////////////
//                                  PUBLIC API
////////////////////////////////////////////////////////////////////////////////

// Condition is a parsed predicate over named bindings.
type Condition struct {
	src   string
	ast   S
	spans *SpanIndex
	text  string
}

// ParseCondition parses a single boolean-valued expression. Lex and parse
// failures are returned with a caret-annotated source snippet. Conditions
// containing lambda sub-expressions are rejected here, at construction.
func ParseCondition(src string) (*Condition, error) {
	ast, spans, err := ParseExprWithSpans(src)
	if err != nil {
		return nil, WrapErrorWithSource(err, src)
	}
	if containsLambda(ast) {
		return nil, &UnsupportedExpressionError{
			Msg: "conditions with lambda sub-expressions cannot be represented",
		}
	}
	c := &Condition{src: src, ast: ast, spans: spans}
	c.text = c.rootText()
	return c, nil
}

// Text returns the verbatim source of the condition's root expression.
func (c *Condition) Text() string { return c.text }

// AST returns the condition's parsed form. The returned tree is shared and
// must be treated as read-only.
func (c *Condition) AST() S { return c.ast }

// Eval evaluates the condition against the bindings and reduces the result
// to its truth value.
func (c *Condition) Eval(bindings Bindings) (bool, error) {
	v, err := evalNode(c.ast, c.newEnv(bindings))
	if err != nil {
		return false, err
	}
	return Truthy(v), nil
}

// Explain builds the violation diagnostic for the condition: every relevant
// sub-expression with the value it had under the bindings, formatted for the
// error message. Explain does not check whether the condition actually
// failed; callers decide when an explanation is warranted.
func (c *Condition) Explain(bindings Bindings, description string) (string, error) {
	entries, err := CollectReports(c.ast, c.spans, c.src, c.newEnv(bindings), bindings)
	if err != nil {
		return "", err
	}
	return RenderDiagnostic(c.text, description, entries), nil
}

//// END_OF_PUBLIC

////////////////////////////////////////////////////////////////////////////////
//                                 PRIVATE
////////////////////////////////////////////////////////////////////////////////

// newEnv builds the per-call frame: builtins at the root, bindings on top.
func (c *Condition) newEnv(bindings Bindings) *Env {
	env := NewEnv(CoreEnv())
	for name, v := range bindings {
		env.Define(name, v)
	}
	return env
}

// rootText is the root expression's exact source; synthesized roots (none in
// practice, but programmatic ASTs exist) fall back to re-serialization.
func (c *Condition) rootText() string {
	if sp, ok := c.spans.Get(nil); ok && !sp.Empty() {
		return sp.Text(c.src)
	}
	return FormatExpr(c.ast)
}
