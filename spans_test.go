// spans_test.go
package guard

import "testing"

func mustParseWithSpans(t *testing.T, src string) (S, *SpanIndex) {
	t.Helper()
	ast, idx, err := ParseExprWithSpans(src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if idx == nil {
		t.Fatalf("nil SpanIndex")
	}
	return ast, idx
}

func assertSpanText(t *testing.T, idx *SpanIndex, path NodePath, src, want string) {
	t.Helper()
	sp, ok := idx.Get(path)
	if !ok {
		t.Fatalf("missing span for path %v", path)
	}
	if got := sp.Text(src); got != want {
		t.Fatalf("span text mismatch at path %v:\n  got : %q\n  want: %q\n  span: %+v", path, got, want, sp)
	}
}

func Test_Spans_Comparison(t *testing.T) {
	src := "x < 5"
	_, idx := mustParseWithSpans(t, src)
	// Root ("compare", x, "<", 5): x at {0}, 5 at {2} ("<" occupies slot 1).
	assertSpanText(t, idx, nil, src, "x < 5")
	assertSpanText(t, idx, NodePath{0}, src, "x")
	assertSpanText(t, idx, NodePath{2}, src, "5")
}

func Test_Spans_AttributeAccess(t *testing.T) {
	src := "x > a.y"
	_, idx := mustParseWithSpans(t, src)
	// ("compare", x, ">", ("get", a, "y"))
	assertSpanText(t, idx, nil, src, "x > a.y")
	assertSpanText(t, idx, NodePath{0}, src, "x")
	assertSpanText(t, idx, NodePath{2}, src, "a.y")
	assertSpanText(t, idx, NodePath{2, 0}, src, "a")
	assertSpanText(t, idx, NodePath{2, 1}, src, "y")
}

func Test_Spans_Subscript(t *testing.T) {
	src := "x > lst[1]"
	_, idx := mustParseWithSpans(t, src)
	// ("compare", x, ">", ("idx", lst, 1))
	assertSpanText(t, idx, NodePath{2}, src, "lst[1]")
	assertSpanText(t, idx, NodePath{2, 0}, src, "lst")
	assertSpanText(t, idx, NodePath{2, 1}, src, "1")
}

func Test_Spans_CallWithGenerator(t *testing.T) {
	src := "all(r[1].is_absolute() for r in result)"
	_, idx := mustParseWithSpans(t, src)
	// ("call", all, ("gencomp", ...)) — the call's span covers the whole text.
	assertSpanText(t, idx, nil, src, src)
	assertSpanText(t, idx, NodePath{0}, src, "all")
	assertSpanText(t, idx, NodePath{1}, src, "r[1].is_absolute() for r in result")
	// Inside the generator: elt at {1,0}.
	assertSpanText(t, idx, NodePath{1, 0}, src, "r[1].is_absolute()")
}

func Test_Spans_GroupingKeepsParens(t *testing.T) {
	src := "(a + b) * c"
	_, idx := mustParseWithSpans(t, src)
	// The grouped sum is the binop's left child; its span is "a + b" (the
	// inner expression), while the product spans the whole source.
	assertSpanText(t, idx, nil, src, src)
	assertSpanText(t, idx, NodePath{1}, src, "a + b")
}

func Test_Spans_SynthesizedSliceBounds(t *testing.T) {
	src := "lst[:2]"
	_, idx := mustParseWithSpans(t, src)
	// ("slice", lst, null, 2, null): the absent bounds carry empty spans.
	lo, ok := idx.Get(NodePath{1})
	if !ok {
		t.Fatalf("missing span for synthesized lower bound")
	}
	if !lo.Empty() {
		t.Fatalf("synthesized bound should have an empty span, got %+v", lo)
	}
	assertSpanText(t, idx, NodePath{2}, src, "2")
}

func Test_Spans_PostOrderInvariantHolds(t *testing.T) {
	sources := []string{
		"x < 5",
		"x > a.y",
		"x > lst[1]",
		"lst[1:3:2]",
		"all(r[1].is_absolute() for r in result)",
		"[item < x for item in lst if item % x == 0] == []",
		"{k: v for k, v in pairs} == {} and (a + b) * c > 0",
		"lambda a, b: a if a > b else b",
	}
	for _, src := range sources {
		ast, idx := mustParseWithSpans(t, src)
		if err := VerifySpanIndexPostOrder(ast, idx, src, 0, nil); err != nil {
			t.Fatalf("%q: %v", src, err)
		}
	}
}

func Test_Spans_MultilineCondition(t *testing.T) {
	src := "x > 0\nand y > 0"
	_, idx := mustParseWithSpans(t, src)
	assertSpanText(t, idx, nil, src, src)
	assertSpanText(t, idx, NodePath{1}, src, "x > 0")
	assertSpanText(t, idx, NodePath{2}, src, "y > 0")
}
