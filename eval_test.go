// eval_test.go
package guard

import "testing"

func evalSrc(t *testing.T, src string, b Bindings) Value {
	t.Helper()
	ast, err := ParseExpr(src)
	if err != nil {
		t.Fatalf("parse error for %q: %v", src, err)
	}
	env := NewEnv(CoreEnv())
	for k, v := range b {
		env.Define(k, v)
	}
	v, err := evalNode(ast, env)
	if err != nil {
		t.Fatalf("eval error for %q: %v", src, err)
	}
	return v
}

func evalSrcErr(t *testing.T, src string, b Bindings) error {
	t.Helper()
	ast, err := ParseExpr(src)
	if err != nil {
		t.Fatalf("parse error for %q: %v", src, err)
	}
	env := NewEnv(CoreEnv())
	for k, v := range b {
		env.Define(k, v)
	}
	_, err = evalNode(ast, env)
	if err == nil {
		t.Fatalf("expected an error for %q", src)
	}
	return err
}

func wantRepr(t *testing.T, src string, b Bindings, want string) {
	t.Helper()
	if got := Repr(evalSrc(t, src, b)); got != want {
		t.Fatalf("%q: got %s, want %s", src, got, want)
	}
}

func Test_Eval_Arithmetic(t *testing.T) {
	wantRepr(t, "1 + 2 * 3", nil, "7")
	wantRepr(t, "7 / 2", nil, "3.5")
	wantRepr(t, "7 // 2", nil, "3")
	wantRepr(t, "-7 // 2", nil, "-4")
	wantRepr(t, "-7 % 3", nil, "2")
	wantRepr(t, "2 ** 10", nil, "1024")
	wantRepr(t, "1 + 0.5", nil, "1.5")
	wantRepr(t, `"ab" + "cd"`, nil, `"abcd"`)
	wantRepr(t, "[1] + [2, 3]", nil, "[1, 2, 3]")
	wantRepr(t, `"ab" * 2`, nil, `"abab"`)
}

func Test_Eval_DivisionByZero(t *testing.T) {
	err := evalSrcErr(t, "1 / 0", nil)
	if _, ok := err.(*EvalError); !ok {
		t.Fatalf("expected *EvalError, got %T", err)
	}
}

func Test_Eval_Comparisons(t *testing.T) {
	wantRepr(t, "1 < 2", nil, "true")
	wantRepr(t, "1 < 2.5", nil, "true")
	wantRepr(t, "0 <= x < 10", Bindings{"x": Int(5)}, "true")
	wantRepr(t, "0 <= x < 10", Bindings{"x": Int(12)}, "false")
	wantRepr(t, `"a" < "b"`, nil, "true")
	wantRepr(t, "[1, 2] == [1, 2]", nil, "true")
	wantRepr(t, "x is null", Bindings{"x": Null()}, "true")
	wantRepr(t, "x is not null", Bindings{"x": Int(0)}, "true")
}

func Test_Eval_Membership(t *testing.T) {
	wantRepr(t, "2 in [1, 2, 3]", nil, "true")
	wantRepr(t, "5 not in [1, 2, 3]", nil, "true")
	wantRepr(t, `"bc" in "abcd"`, nil, "true")
	wantRepr(t, `"k" in {k: 1}`, nil, "true")
}

func Test_Eval_BoolopReturnsOperand(t *testing.T) {
	wantRepr(t, "null or 5", nil, "5")
	wantRepr(t, "0 and 5", nil, "0")
	wantRepr(t, "1 and 2 and 3", nil, "3")
}

func Test_Eval_Ternary(t *testing.T) {
	wantRepr(t, "1 if x > 0 else -1", Bindings{"x": Int(3)}, "1")
	wantRepr(t, "1 if x > 0 else -1", Bindings{"x": Int(-3)}, "-1")
}

func Test_Eval_IndexingAndSlicing(t *testing.T) {
	lst := Bindings{"lst": Array(Int(1), Int(2), Int(3), Int(4))}
	wantRepr(t, "lst[0]", lst, "1")
	wantRepr(t, "lst[-1]", lst, "4")
	wantRepr(t, "lst[1:3]", lst, "[2, 3]")
	wantRepr(t, "lst[::2]", lst, "[1, 3]")
	wantRepr(t, "lst[::-1]", lst, "[4, 3, 2, 1]")
	wantRepr(t, `"hello"[1]`, nil, `"e"`)
	wantRepr(t, `"hello"[1:4]`, nil, `"ell"`)
	if err := evalSrcErr(t, "lst[9]", lst); err == nil {
		t.Fatalf("out-of-range index must fail")
	}
}

func Test_Eval_AttributeAccess(t *testing.T) {
	a := NewObject("A").Set("y", Int(3))
	wantRepr(t, "a.y", Bindings{"a": ObjV(a)}, "3")
	if err := evalSrcErr(t, "a.z", Bindings{"a": ObjV(a)}); err == nil {
		t.Fatalf("missing attribute must fail")
	}
	m := NewMap()
	m.Set("y", Int(7))
	wantRepr(t, "m.y", Bindings{"m": MapV(m)}, "7")
}

func Test_Eval_MethodCall(t *testing.T) {
	p := NewObject("Path").Set("raw", Str("etc/hosts"))
	p.SetMethod("is_absolute", func(args []Value) (Value, error) {
		return Bool(false), nil
	})
	wantRepr(t, "p.is_absolute()", Bindings{"p": ObjV(p)}, "false")
}

func Test_Eval_Comprehensions(t *testing.T) {
	lst := Bindings{"lst": Array(Int(1), Int(2), Int(3)), "x": Int(2)}
	wantRepr(t, "[item * 2 for item in lst]", lst, "[2, 4, 6]")
	wantRepr(t, "[item < x for item in lst if item % x == 0]", lst, "[false]")
	wantRepr(t, "{item % 2 for item in lst}", lst, "[1, 0]")
	wantRepr(t, "{k: 1 for k in m}", Bindings{"m": MapV(mapOf("a", Int(0), "b", Int(0)))}, "{a: 1, b: 1}")
	// Loop variables shadow outer bindings and do not leak.
	wantRepr(t, "[x for x in [9]][0]", Bindings{"x": Int(1)}, "9")
}

func Test_Eval_GeneratorFeedsCall(t *testing.T) {
	b := Bindings{"result": Array(Int(1), Int(0), Int(3))}
	wantRepr(t, "all(r > 0 for r in result)", b, "false")
	wantRepr(t, "any(r > 2 for r in result)", b, "true")
}

func Test_Eval_TupleUnpacking(t *testing.T) {
	b := Bindings{"pairs": Array(
		Array(Str("a"), Int(1)),
		Array(Str("b"), Int(2)),
	)}
	wantRepr(t, "[v for k, v in pairs]", b, "[1, 2]")
}

func Test_Eval_UndefinedName(t *testing.T) {
	err := evalSrcErr(t, "missing > 0", nil)
	if _, ok := err.(*EvalError); !ok {
		t.Fatalf("expected *EvalError, got %T", err)
	}
}

func Test_Eval_LambdaRejected(t *testing.T) {
	err := evalSrcErr(t, "(lambda v: v)(1)", nil)
	if _, ok := err.(*UnsupportedExpressionError); !ok {
		t.Fatalf("expected *UnsupportedExpressionError, got %T", err)
	}
}

func Test_Eval_Builtins(t *testing.T) {
	wantRepr(t, "len([1, 2, 3])", nil, "3")
	wantRepr(t, `len("héllo")`, nil, "5")
	wantRepr(t, "abs(-3)", nil, "3")
	wantRepr(t, "min([3, 1, 2])", nil, "1")
	wantRepr(t, "max(3, 1, 2)", nil, "3")
	wantRepr(t, "sum([1, 2, 3])", nil, "6")
	wantRepr(t, "sorted([3, 1, 2])", nil, "[1, 2, 3]")
	wantRepr(t, "all([true, true])", nil, "true")
	wantRepr(t, "any([false])", nil, "false")
	wantRepr(t, "bool([])", nil, "false")
	wantRepr(t, `int("42")`, nil, "42")
	wantRepr(t, "str(42)", nil, `"42"`)
	wantRepr(t, "round(2.5)", nil, "2")
	wantRepr(t, "round(2.675, 2)", nil, "2.67")
	wantRepr(t, `contains("abcd", "bc")`, nil, "true")
	wantRepr(t, `startswith("abcd", "ab")`, nil, "true")
	wantRepr(t, `endswith("abcd", "cd")`, nil, "true")
	wantRepr(t, `lower("AbC")`, nil, `"abc"`)
	wantRepr(t, `upper("AbC")`, nil, `"ABC"`)
}

func Test_Eval_RoundSeesExactValue(t *testing.T) {
	// 2.675 is stored as 2.67499...; two-argument round must work on that
	// exact value, not on a re-rounded scaled copy that lands on 267.5.
	wantRepr(t, "round(2.675, 2)", nil, "2.67")
	wantRepr(t, "round(x, 2) == 2.67", Bindings{"x": Num(2.675)}, "true")
	wantRepr(t, "round(1.005, 2)", nil, "1.0")
	wantRepr(t, "round(2.5, 0)", nil, "2.0")
	wantRepr(t, "round(1234.0, -2)", nil, "1200.0")
	wantRepr(t, "round(1250.0, -2)", nil, "1200.0")
}

func Test_Eval_BuiltinArityChecked(t *testing.T) {
	if err := evalSrcErr(t, "len([1], [2])", nil); err == nil {
		t.Fatalf("wrong arity must fail")
	}
}

// mapOf builds an ordered map from alternating key/value arguments.
func mapOf(kv ...any) *MapObject {
	m := NewMap()
	for i := 0; i < len(kv); i += 2 {
		m.Set(kv[i].(string), kv[i+1].(Value))
	}
	return m
}
