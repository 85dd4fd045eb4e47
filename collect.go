// collect.go — the diagnostic collector
//
// WHAT THIS MODULE DOES
// =====================
// When a condition evaluates to false, the collector walks its AST and
// gathers, for every relevant sub-expression, the pair
//
//	(exact source text, debug representation of its value)
//
// so the formatter can render lines like "a.y was 3". The walk is a plain
// depth-first traversal carrying the structural NodePath (for span lookups),
// driven entirely by the classifier:
//
//   - identifiers report their bound value, but only names the caller
//     actually bound — builtins are plumbing, not evidence;
//   - attribute accesses and calls report the whole sub-expression and then
//     descend, so `x > a.y` yields a, a.y and x;
//   - operators and subscripts are walked through without a report of their
//     own — `lst[1]` contributes lst (and any identifiers in the index), not
//     a synthetic "lst[1] was ..." line;
//   - comprehensions report their overall value and are never entered:
//     their loop variables have no single value to show. Generator
//     expressions do not even report themselves — their value only exists
//     inside the enclosing call, which is what gets reported.
//
// DETERMINISM
// ===========
// Each distinct label is evaluated exactly once. A label that was already
// collected short-circuits both re-evaluation and the descent below it:
// identical source text denotes the identical sub-expression, so the subtree
// can contribute nothing new. Evaluation errors propagate unchanged — a
// diagnostic that cannot be computed is a defect to surface, not to hide.
package guard

////////////////////////////////////////////////////////////////////////////////
//                                  PUBLIC API
////////////////////////////////////////////////////////////////////////////////

// ReportEntry is one "label was value" fact for a violation diagnostic.
type ReportEntry struct {
	Label     string // exact source text of the sub-expression
	ValueRepr string // debug representation of its value
}

// CollectReports walks the condition AST and returns one entry per relevant
// sub-expression. Entries come back in traversal order and deduplicated by
// label; sorting is the formatter's concern. The bindings are the names the
// caller bound for this check; env must already contain them (plus builtins).
func CollectReports(root S, spans *SpanIndex, src string, env *Env, bindings Bindings) ([]ReportEntry, error) {
	c := &collector{
		spans:    spans,
		src:      src,
		env:      env,
		bindings: bindings,
		seen:     map[string]bool{},
	}
	if err := c.walk(root, nil); err != nil {
		return nil, err
	}
	return c.entries, nil
}

//// END_OF_PUBLIC

////////////////////////////////////////////////////////////////////////////////
//                                 PRIVATE
////////////////////////////////////////////////////////////////////////////////

type collector struct {
	spans    *SpanIndex
	src      string
	env      *Env
	bindings Bindings
	seen     map[string]bool
	entries  []ReportEntry
}

func (c *collector) walk(n S, path NodePath) error {
	switch Classify(tag(n)) {
	case CatLiteral:
		return nil

	case CatLeaf:
		name := getId(n)
		if _, bound := c.bindings[name]; !bound {
			if IsBuiltinName(name) {
				return nil
			}
			return evalErrf("undefined name '%s'", name)
		}
		return c.report(n, path)

	case CatTransparent:
		return c.walkChildren(n, path)

	case CatReportable:
		skipSubtree, err := c.reportDedup(n, path)
		if err != nil {
			return err
		}
		if skipSubtree {
			return nil
		}
		return c.walkChildren(n, path)

	case CatOpaque:
		_, err := c.reportDedup(n, path)
		return err

	case CatOpaqueSilent:
		return nil

	case CatUnsupported:
		return &UnsupportedExpressionError{Msg: "conditions with lambda sub-expressions cannot be represented"}
	}
	return nil
}

func (c *collector) walkChildren(n S, path NodePath) error {
	for i := 1; i < len(n); i++ {
		child, ok := n[i].(S)
		if !ok {
			continue // operator strings and scalar payloads
		}
		if err := c.walk(child, append(path, i-1)); err != nil {
			return err
		}
	}
	return nil
}

// report evaluates n and appends its entry, deduplicating by label.
func (c *collector) report(n S, path NodePath) error {
	_, err := c.reportDedup(n, path)
	return err
}

// reportDedup returns (true, nil) when the label was already collected and
// the caller should skip the subtree as well.
func (c *collector) reportDedup(n S, path NodePath) (bool, error) {
	label := c.labelFor(n, path)
	if c.seen[label] {
		return true, nil
	}
	v, err := evalNode(n, c.env)
	if err != nil {
		return false, err
	}
	c.seen[label] = true
	c.entries = append(c.entries, ReportEntry{Label: label, ValueRepr: Repr(v)})
	return false, nil
}

// labelFor prefers the verbatim source span; missing or empty spans fall
// back to canonical re-serialization (never a failure).
func (c *collector) labelFor(n S, path NodePath) string {
	if sp, ok := c.spans.Get(path); ok && !sp.Empty() {
		return sp.Text(c.src)
	}
	return FormatExpr(n)
}
