// diagnostic_test.go — end-to-end violation explanations
package guard

import (
	"reflect"
	"strings"
	"testing"
)

func explain(t *testing.T, src string, b Bindings) string {
	t.Helper()
	cond, err := ParseCondition(src)
	if err != nil {
		t.Fatalf("parse error for %q: %v", src, err)
	}
	msg, err := cond.Explain(b, "")
	if err != nil {
		t.Fatalf("explain error for %q: %v", src, err)
	}
	return msg
}

func wantDiag(t *testing.T, src string, b Bindings, want string) {
	t.Helper()
	if got := explain(t, src, b); got != want {
		t.Fatalf("\ncondition: %s\ngot:\n%s\nwant:\n%s\n", src, got, want)
	}
}

func Test_Diagnostic_SingleLeaf(t *testing.T) {
	wantDiag(t, "x < 5", Bindings{"x": Int(100)},
		"x < 5: x was 100")
}

func Test_Diagnostic_AttributeAccess(t *testing.T) {
	a := NewObject("A").Set("y", Int(3))
	a.Format = func(o *Object) string { return "A()" }
	wantDiag(t, "x > a.y", Bindings{"x": Int(1), "a": ObjV(a)},
		"x > a.y:\na was A()\na.y was 3\nx was 1")
}

func Test_Diagnostic_SubscriptIsTransparent(t *testing.T) {
	// lst[1] itself is not an entry; the reader sees lst and x.
	wantDiag(t, "x > lst[1]",
		Bindings{"x": Int(1), "lst": Array(Int(1), Int(2), Int(3))},
		"x > lst[1]:\nlst was [1, 2, 3]\nx was 1")
}

func Test_Diagnostic_GeneratorReportsOnlyTheCall(t *testing.T) {
	mkPath := func(raw string, abs bool) Value {
		p := NewObject("Path").Set("raw", Str(raw))
		p.Format = func(o *Object) string {
			s, _ := o.Fields.Get("raw")
			return "Path(" + quoteString(s.Str) + ")"
		}
		p.SetMethod("is_absolute", func(args []Value) (Value, error) {
			return Bool(abs), nil
		})
		return ObjV(p)
	}
	result := Array(
		Array(Str("a"), mkPath("/etc", true)),
		Array(Str("b"), mkPath("etc", false)),
	)
	got := explain(t, "all(r[1].is_absolute() for r in result)",
		Bindings{"result": result})
	want := "all(r[1].is_absolute() for r in result): " +
		"all(r[1].is_absolute() for r in result) was false"
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
	// Neither the loop variable nor the bare iterable leaks into the report.
	if strings.Contains(got, "result was") || strings.Contains(got, "r was") {
		t.Fatalf("generator internals leaked into the diagnostic:\n%s", got)
	}
}

func Test_Diagnostic_LambdaIsUnsupported(t *testing.T) {
	_, err := ParseCondition("apply(lambda v: v > 0, x)")
	if err == nil {
		t.Fatalf("expected an error")
	}
	if _, ok := err.(*UnsupportedExpressionError); !ok {
		t.Fatalf("expected *UnsupportedExpressionError, got %T: %v", err, err)
	}
}

func Test_Diagnostic_ListComprehensionSelfReports(t *testing.T) {
	wantDiag(t, "[item < x for item in lst if item % x == 0] == []",
		Bindings{"x": Int(2), "lst": Array(Int(1), Int(2), Int(3))},
		"[item < x for item in lst if item % x == 0] == []: "+
			"[item < x for item in lst if item % x == 0] was [false]")
}

func Test_Diagnostic_NoRelevantNodes(t *testing.T) {
	// Only literals: nothing to report, the condition text stands alone.
	wantDiag(t, "1 > 2", nil, "1 > 2")
}

func Test_Diagnostic_Description(t *testing.T) {
	cond, err := ParseCondition("x < 5")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	got, err := cond.Explain(Bindings{"x": Int(100)}, "x must stay small")
	if err != nil {
		t.Fatalf("explain error: %v", err)
	}
	want := "x < 5: x must stay small: x was 100"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func Test_Diagnostic_DuplicateLabelsCollapse(t *testing.T) {
	wantDiag(t, "x + x < x * x", Bindings{"x": Int(1)},
		"x + x < x * x: x was 1")
}

func Test_Diagnostic_LexicographicOrder(t *testing.T) {
	b := NewObject("B").Set("z", Int(1)).Set("a", Int(2))
	got := explain(t, "b.z < b.a and q > 9", Bindings{"b": ObjV(b), "q": Int(0)})
	lines := strings.Split(got, "\n")
	want := []string{
		"b.z < b.a and q > 9:",
		"b was B(z: 1, a: 2)",
		"b.a was 2",
		"b.z was 1",
		"q was 0",
	}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("got:\n%s\nwant:\n%s", got, strings.Join(want, "\n"))
	}
}

func Test_Diagnostic_Idempotent(t *testing.T) {
	cond, err := ParseCondition("x > a.y")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	a := NewObject("A").Set("y", Int(3))
	b := Bindings{"x": Int(1), "a": ObjV(a)}
	first, err := cond.Explain(b, "")
	if err != nil {
		t.Fatalf("explain error: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := cond.Explain(b, "")
		if err != nil {
			t.Fatalf("explain error: %v", err)
		}
		if again != first {
			t.Fatalf("explain is not idempotent:\n%s\nvs\n%s", first, again)
		}
	}
}

func Test_Diagnostic_EvalErrorPropagates(t *testing.T) {
	cond, err := ParseCondition("x > a.y")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	// a has no field y: collection must fail loudly, not render a partial
	// diagnostic.
	_, err = cond.Explain(Bindings{"x": Int(1), "a": ObjV(NewObject("A"))}, "")
	if err == nil {
		t.Fatalf("expected an error")
	}
	if _, ok := err.(*EvalError); !ok {
		t.Fatalf("expected *EvalError, got %T: %v", err, err)
	}
}

func Test_Diagnostic_BuiltinNamesNotReported(t *testing.T) {
	got := explain(t, "len(lst) > 9", Bindings{"lst": Array(Int(1))})
	if strings.Contains(got, "len was") {
		t.Fatalf("builtin leaked into the diagnostic:\n%s", got)
	}
	want := "len(lst) > 9:\nlen(lst) was 1\nlst was [1]"
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func Test_Diagnostic_MultilineConditionForcesListLayout(t *testing.T) {
	src := "x > 0\nand x < 9"
	got := explain(t, src, Bindings{"x": Int(100)})
	want := src + ":\nx was 100"
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func Test_Collect_MissingSpansFallBackToFormatExpr(t *testing.T) {
	// A programmatically built AST has no source text and no recorded spans;
	// labels must come from canonical re-serialization, and collection must
	// succeed with a nil index as well as with one that misses every path.
	ast := L("compare",
		L("id", "x"), ">",
		L("get", L("id", "a"), L("str", "y")))
	a := NewObject("A").Set("y", Int(3))
	b := Bindings{"x": Int(1), "a": ObjV(a)}
	newEnv := func() *Env {
		env := NewEnv(CoreEnv())
		for k, v := range b {
			env.Define(k, v)
		}
		return env
	}
	want := []ReportEntry{
		{Label: "x", ValueRepr: "1"},
		{Label: "a.y", ValueRepr: "3"},
		{Label: "a", ValueRepr: "A(y: 3)"},
	}
	for _, idx := range []*SpanIndex{
		nil,
		BuildSpanIndexPostOrder(ast, nil), // empty: every lookup misses
	} {
		entries, err := CollectReports(ast, idx, "", newEnv(), b)
		if err != nil {
			t.Fatalf("collect with missing spans: %v", err)
		}
		if !reflect.DeepEqual(entries, want) {
			t.Fatalf("entries:\n%#v\nwant:\n%#v", entries, want)
		}
	}
	got := RenderDiagnostic(FormatExpr(ast), "", want)
	if got != "x > a.y:\na was A(y: 3)\na.y was 3\nx was 1" {
		t.Fatalf("diagnostic from re-serialized labels:\n%s", got)
	}
}

func Test_RenderDiagnostic_Layouts(t *testing.T) {
	if got := RenderDiagnostic("x < 5", "", nil); got != "x < 5" {
		t.Fatalf("zero entries: %q", got)
	}
	one := []ReportEntry{{Label: "x", ValueRepr: "100"}}
	if got := RenderDiagnostic("x < 5", "", one); got != "x < 5: x was 100" {
		t.Fatalf("one entry: %q", got)
	}
	two := []ReportEntry{
		{Label: "x", ValueRepr: "1"},
		{Label: "a.y", ValueRepr: "3"},
	}
	if got := RenderDiagnostic("x > a.y", "", two); got != "x > a.y:\na.y was 3\nx was 1" {
		t.Fatalf("two entries: %q", got)
	}
}
