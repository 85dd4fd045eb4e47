// eval.go — the condition evaluator
//
// OVERVIEW
// --------
// A direct, explicitly typed tree-walking evaluator over the boxed Value
// model: one case per node tag, no reflection. Semantics follow the dynamic
// language the condition syntax mimics:
//
//   - int/float promotion in arithmetic; `/` always yields a float, `//`
//     floors, `%` takes the sign of the divisor, `**` is exponentiation.
//   - `+` also concatenates strings and arrays; `*` repeats strings and
//     arrays by an integer count.
//   - `and`/`or` short-circuit and return the deciding *operand*, not a
//     coerced bool; `not` returns a bool.
//   - Comparisons chain (`0 <= x < 10`); `in` tests substring, array
//     membership, and map keys; `is` is identity.
//   - Indexing supports negative offsets; slicing supports lo:hi:step.
//   - Comprehensions evaluate eagerly in a child frame holding the loop
//     variables. Generator expressions evaluate to the same array a list
//     comprehension would (the engine has no lazy sequences).
//   - `lambda` always fails with *UnsupportedExpressionError: conditions must
//     stay decomposable into reportable sub-expressions, and an opaque
//     closure cannot be.
//
// All failures are *EvalError and propagate unchanged to the caller.
package guard

import (
	"math"
	"strings"
)

////////////////////////////////////////////////////////////////////////////////
//                                  PUBLIC API
////////////////////////////////////////////////////////////////////////////////

// EvalExpr evaluates an AST against an environment.
func EvalExpr(n S, env *Env) (Value, error) {
	return evalNode(n, env)
}

//// END_OF_PUBLIC

////////////////////////////////////////////////////////////////////////////////
//                                 PRIVATE
////////////////////////////////////////////////////////////////////////////////

func evalNode(n S, env *Env) (Value, error) {
	switch tag(n) {
	case "id":
		name := getId(n)
		if v, ok := env.Get(name); ok {
			return v, nil
		}
		return Value{}, evalErrf("undefined name '%s'", name)
	case "int":
		return Int(n[1].(int64)), nil
	case "num":
		return Num(n[1].(float64)), nil
	case "str":
		return Str(getStr(n)), nil
	case "bool":
		return Bool(n[1].(bool)), nil
	case "null":
		return Null(), nil

	case "unop":
		return evalUnop(n, env)
	case "binop":
		return evalBinop(n, env)
	case "boolop":
		return evalBoolop(n, env)
	case "compare":
		return evalCompare(n, env)
	case "ifexp":
		test, err := evalNode(child(n, 1), env)
		if err != nil {
			return Value{}, err
		}
		if Truthy(test) {
			return evalNode(child(n, 0), env)
		}
		return evalNode(child(n, 2), env)

	case "call":
		return evalCall(n, env)
	case "get":
		return evalGet(n, env)
	case "idx":
		return evalIdx(n, env)
	case "slice":
		return evalSlice(n, env)

	case "array", "tuple":
		out := make([]Value, 0, len(n)-1)
		for i := 1; i < len(n); i++ {
			v, err := evalNode(n[i].(S), env)
			if err != nil {
				return Value{}, err
			}
			out = append(out, v)
		}
		return Array(out...), nil

	case "set":
		out := make([]Value, 0, len(n)-1)
		for i := 1; i < len(n); i++ {
			v, err := evalNode(n[i].(S), env)
			if err != nil {
				return Value{}, err
			}
			if !containsValue(out, v) {
				out = append(out, v)
			}
		}
		return Array(out...), nil

	case "map":
		m := NewMap()
		for i := 1; i < len(n); i++ {
			p := n[i].(S)
			k, err := evalMapKey(child(p, 0), env)
			if err != nil {
				return Value{}, err
			}
			v, err := evalNode(child(p, 1), env)
			if err != nil {
				return Value{}, err
			}
			m.Set(k, v)
		}
		return MapV(m), nil

	case "listcomp", "gencomp":
		return evalSeqComp(n, env, false)
	case "setcomp":
		return evalSeqComp(n, env, true)
	case "dictcomp":
		return evalDictComp(n, env)

	case "lambda":
		return Value{}, &UnsupportedExpressionError{Msg: "lambda expressions cannot be evaluated in a condition"}
	}
	return Value{}, evalErrf("cannot evaluate node '%s'", tag(n))
}

// ───────────────────────────── operators ───────────────────────────────────

func evalUnop(n S, env *Env) (Value, error) {
	op := n[1].(string)
	v, err := evalNode(child(n, 1), env)
	if err != nil {
		return Value{}, err
	}
	switch op {
	case "not":
		return Bool(!Truthy(v)), nil
	case "-":
		switch v.Tag {
		case VTInt:
			return Int(-v.Int), nil
		case VTNum:
			return Num(-v.Num), nil
		}
		return Value{}, evalErrf("cannot negate a %s", v.Tag)
	}
	return Value{}, evalErrf("unknown unary operator '%s'", op)
}

func evalBinop(n S, env *Env) (Value, error) {
	op := n[1].(string)
	a, err := evalNode(child(n, 1), env)
	if err != nil {
		return Value{}, err
	}
	b, err := evalNode(child(n, 2), env)
	if err != nil {
		return Value{}, err
	}
	return applyBinop(op, a, b)
}

func applyBinop(op string, a, b Value) (Value, error) {
	switch op {
	case "+":
		if a.Tag == VTStr && b.Tag == VTStr {
			return Str(a.Str + b.Str), nil
		}
		if a.Tag == VTArray && b.Tag == VTArray {
			out := make([]Value, 0, len(a.Arr)+len(b.Arr))
			out = append(out, a.Arr...)
			out = append(out, b.Arr...)
			return Array(out...), nil
		}
		if bothInt(a, b) {
			return Int(a.Int + b.Int), nil
		}
		if isNumeric(a) && isNumeric(b) {
			return Num(asNum(a) + asNum(b)), nil
		}
	case "-":
		if bothInt(a, b) {
			return Int(a.Int - b.Int), nil
		}
		if isNumeric(a) && isNumeric(b) {
			return Num(asNum(a) - asNum(b)), nil
		}
	case "*":
		if bothInt(a, b) {
			return Int(a.Int * b.Int), nil
		}
		if isNumeric(a) && isNumeric(b) {
			return Num(asNum(a) * asNum(b)), nil
		}
		if r, ok, err := repeatValue(a, b); ok {
			return r, err
		}
		if r, ok, err := repeatValue(b, a); ok {
			return r, err
		}
	case "/":
		if isNumeric(a) && isNumeric(b) {
			if asNum(b) == 0 {
				return Value{}, evalErrf("division by zero")
			}
			return Num(asNum(a) / asNum(b)), nil
		}
	case "//":
		if bothInt(a, b) {
			if b.Int == 0 {
				return Value{}, evalErrf("division by zero")
			}
			q := a.Int / b.Int
			if a.Int%b.Int != 0 && (a.Int < 0) != (b.Int < 0) {
				q--
			}
			return Int(q), nil
		}
		if isNumeric(a) && isNumeric(b) {
			if asNum(b) == 0 {
				return Value{}, evalErrf("division by zero")
			}
			return Num(math.Floor(asNum(a) / asNum(b))), nil
		}
	case "%":
		if bothInt(a, b) {
			if b.Int == 0 {
				return Value{}, evalErrf("modulo by zero")
			}
			r := a.Int % b.Int
			if r != 0 && (r < 0) != (b.Int < 0) {
				r += b.Int
			}
			return Int(r), nil
		}
		if isNumeric(a) && isNumeric(b) {
			if asNum(b) == 0 {
				return Value{}, evalErrf("modulo by zero")
			}
			r := math.Mod(asNum(a), asNum(b))
			if r != 0 && (r < 0) != (asNum(b) < 0) {
				r += asNum(b)
			}
			return Num(r), nil
		}
	case "**":
		if bothInt(a, b) && b.Int >= 0 {
			r := int64(1)
			for i := int64(0); i < b.Int; i++ {
				r *= a.Int
			}
			return Int(r), nil
		}
		if isNumeric(a) && isNumeric(b) {
			return Num(math.Pow(asNum(a), asNum(b))), nil
		}
	default:
		return Value{}, evalErrf("unknown operator '%s'", op)
	}
	return Value{}, evalErrf("unsupported operands for '%s': %s and %s", op, a.Tag, b.Tag)
}

func bothInt(a, b Value) bool { return a.Tag == VTInt && b.Tag == VTInt }

// repeatValue implements str*int and array*int repetition; ok is false when
// the shapes do not match, letting the caller try the mirrored order.
func repeatValue(v, count Value) (Value, bool, error) {
	if count.Tag != VTInt {
		return Value{}, false, nil
	}
	c := count.Int
	if c < 0 {
		c = 0
	}
	switch v.Tag {
	case VTStr:
		var sb []byte
		for i := int64(0); i < c; i++ {
			sb = append(sb, v.Str...)
		}
		return Str(string(sb)), true, nil
	case VTArray:
		out := make([]Value, 0, int(c)*len(v.Arr))
		for i := int64(0); i < c; i++ {
			out = append(out, v.Arr...)
		}
		return Array(out...), true, nil
	}
	return Value{}, false, nil
}

func evalBoolop(n S, env *Env) (Value, error) {
	op := n[1].(string)
	var v Value
	for i := 2; i < len(n); i++ {
		var err error
		v, err = evalNode(n[i].(S), env)
		if err != nil {
			return Value{}, err
		}
		if op == "and" && !Truthy(v) {
			return v, nil
		}
		if op == "or" && Truthy(v) {
			return v, nil
		}
	}
	return v, nil
}

// evalCompare evaluates a chain like 0 <= x < 10: each operand once, each
// adjacent pair compared, short-circuiting on the first false link.
func evalCompare(n S, env *Env) (Value, error) {
	left, err := evalNode(child(n, 0), env)
	if err != nil {
		return Value{}, err
	}
	for i := 2; i < len(n); i += 2 {
		op := n[i].(string)
		right, err := evalNode(n[i+1].(S), env)
		if err != nil {
			return Value{}, err
		}
		ok, err := applyCompare(op, left, right)
		if err != nil {
			return Value{}, err
		}
		if !ok {
			return Bool(false), nil
		}
		left = right
	}
	return Bool(true), nil
}

func applyCompare(op string, a, b Value) (bool, error) {
	switch op {
	case "==":
		return valueEqual(a, b), nil
	case "!=":
		return !valueEqual(a, b), nil
	case "<":
		return valueLess(a, b)
	case "<=":
		less, err := valueLess(a, b)
		if err != nil {
			return false, err
		}
		return less || valueEqual(a, b), nil
	case ">":
		return valueLess(b, a)
	case ">=":
		less, err := valueLess(b, a)
		if err != nil {
			return false, err
		}
		return less || valueEqual(a, b), nil
	case "in":
		return valueContains(b, a)
	case "not in":
		ok, err := valueContains(b, a)
		return !ok, err
	case "is":
		return valueIdentical(a, b), nil
	case "is not":
		return !valueIdentical(a, b), nil
	}
	return false, evalErrf("unknown comparison operator '%s'", op)
}

// valueContains implements `item in container` for strings (substring),
// arrays (membership) and maps (key membership).
func valueContains(container, item Value) (bool, error) {
	switch container.Tag {
	case VTStr:
		if item.Tag != VTStr {
			return false, evalErrf("'in' on a string requires a string, got %s", item.Tag)
		}
		return strings.Contains(container.Str, item.Str), nil
	case VTArray:
		return containsValue(container.Arr, item), nil
	case VTMap:
		if item.Tag != VTStr {
			return false, evalErrf("'in' on a map requires a string key, got %s", item.Tag)
		}
		_, ok := container.Map.Get(item.Str)
		return ok, nil
	}
	return false, evalErrf("'in' requires a string, array or map, got %s", container.Tag)
}

func containsValue(vs []Value, v Value) bool {
	for _, e := range vs {
		if valueEqual(e, v) {
			return true
		}
	}
	return false
}

// valueIdentical implements `is`: scalars by value, maps/objects/functions by
// pointer. Arrays are never identical (no stable identity for slices).
func valueIdentical(a, b Value) bool {
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case VTNull:
		return true
	case VTBool:
		return a.Bool == b.Bool
	case VTInt:
		return a.Int == b.Int
	case VTNum:
		return a.Num == b.Num
	case VTStr:
		return a.Str == b.Str
	case VTMap:
		return a.Map == b.Map
	case VTObject:
		return a.Obj == b.Obj
	case VTFun:
		return a.Fun == b.Fun
	}
	return false
}

// ───────────────────────── calls, access, indexing ─────────────────────────

func evalCall(n S, env *Env) (Value, error) {
	callee, err := evalNode(child(n, 0), env)
	if err != nil {
		return Value{}, err
	}
	if callee.Tag != VTFun {
		return Value{}, evalErrf("cannot call a %s", callee.Tag)
	}
	args := make([]Value, 0, len(n)-2)
	for i := 2; i < len(n); i++ {
		v, err := evalNode(n[i].(S), env)
		if err != nil {
			return Value{}, err
		}
		args = append(args, v)
	}
	if callee.Fun.Arity >= 0 && len(args) != callee.Fun.Arity {
		return Value{}, evalErrf("%s: expected %d arguments, got %d",
			callee.Fun.Name, callee.Fun.Arity, len(args))
	}
	return callee.Fun.Impl(args)
}

func evalGet(n S, env *Env) (Value, error) {
	base, err := evalNode(child(n, 0), env)
	if err != nil {
		return Value{}, err
	}
	name := getStr(child(n, 1))
	switch base.Tag {
	case VTObject:
		if v, ok := base.Obj.Fields.Get(name); ok {
			return v, nil
		}
		return Value{}, evalErrf("%s has no attribute '%s'", base.Obj.Name, name)
	case VTMap:
		if v, ok := base.Map.Get(name); ok {
			return v, nil
		}
		return Value{}, evalErrf("map has no key '%s'", name)
	}
	return Value{}, evalErrf("cannot access attribute '%s' on a %s", name, base.Tag)
}

func evalIdx(n S, env *Env) (Value, error) {
	base, err := evalNode(child(n, 0), env)
	if err != nil {
		return Value{}, err
	}
	idx, err := evalNode(child(n, 1), env)
	if err != nil {
		return Value{}, err
	}
	switch base.Tag {
	case VTArray:
		i, err := normalizeIndex(idx, len(base.Arr))
		if err != nil {
			return Value{}, err
		}
		return base.Arr[i], nil
	case VTStr:
		runes := []rune(base.Str)
		i, err := normalizeIndex(idx, len(runes))
		if err != nil {
			return Value{}, err
		}
		return Str(string(runes[i])), nil
	case VTMap:
		if idx.Tag != VTStr {
			return Value{}, evalErrf("map index must be a string, got %s", idx.Tag)
		}
		if v, ok := base.Map.Get(idx.Str); ok {
			return v, nil
		}
		return Value{}, evalErrf("map has no key '%s'", idx.Str)
	}
	return Value{}, evalErrf("cannot index a %s", base.Tag)
}

// normalizeIndex resolves a possibly negative index against length n.
func normalizeIndex(idx Value, n int) (int, error) {
	if idx.Tag != VTInt {
		return 0, evalErrf("index must be an integer, got %s", idx.Tag)
	}
	i := int(idx.Int)
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, evalErrf("index %d out of range (length %d)", idx.Int, n)
	}
	return i, nil
}

func evalSlice(n S, env *Env) (Value, error) {
	base, err := evalNode(child(n, 0), env)
	if err != nil {
		return Value{}, err
	}
	bounds := [3]Value{}
	for i := 0; i < 3; i++ {
		b := child(n, i+1)
		if tag(b) == "null" {
			bounds[i] = Null()
			continue
		}
		v, err := evalNode(b, env)
		if err != nil {
			return Value{}, err
		}
		bounds[i] = v
	}
	switch base.Tag {
	case VTArray:
		idxs, err := sliceIndexes(bounds, len(base.Arr))
		if err != nil {
			return Value{}, err
		}
		out := make([]Value, 0, len(idxs))
		for _, i := range idxs {
			out = append(out, base.Arr[i])
		}
		return Array(out...), nil
	case VTStr:
		runes := []rune(base.Str)
		idxs, err := sliceIndexes(bounds, len(runes))
		if err != nil {
			return Value{}, err
		}
		out := make([]rune, 0, len(idxs))
		for _, i := range idxs {
			out = append(out, runes[i])
		}
		return Str(string(out)), nil
	}
	return Value{}, evalErrf("cannot slice a %s", base.Tag)
}

// sliceIndexes expands lo:hi:step bounds (each possibly null) into concrete
// element indexes, with clamping and negative offsets.
func sliceIndexes(bounds [3]Value, n int) ([]int, error) {
	step := 1
	if bounds[2].Tag != VTNull {
		if bounds[2].Tag != VTInt {
			return nil, evalErrf("slice step must be an integer, got %s", bounds[2].Tag)
		}
		step = int(bounds[2].Int)
		if step == 0 {
			return nil, evalErrf("slice step cannot be zero")
		}
	}
	resolve := func(v Value, def int) (int, error) {
		if v.Tag == VTNull {
			return def, nil
		}
		if v.Tag != VTInt {
			return 0, evalErrf("slice bound must be an integer, got %s", v.Tag)
		}
		i := int(v.Int)
		if i < 0 {
			i += n
		}
		return i, nil
	}
	var lo, hi int
	var err error
	if step > 0 {
		lo, err = resolve(bounds[0], 0)
		if err != nil {
			return nil, err
		}
		hi, err = resolve(bounds[1], n)
		if err != nil {
			return nil, err
		}
		if lo < 0 {
			lo = 0
		}
		if hi > n {
			hi = n
		}
		var out []int
		for i := lo; i < hi; i += step {
			out = append(out, i)
		}
		return out, nil
	}
	lo, err = resolve(bounds[0], n-1)
	if err != nil {
		return nil, err
	}
	hi, err = resolve(bounds[1], -n-1)
	if err != nil {
		return nil, err
	}
	if lo > n-1 {
		lo = n - 1
	}
	if hi < -1 {
		hi = -1
	}
	var out []int
	for i := lo; i > hi; i += step {
		if i >= 0 && i < n {
			out = append(out, i)
		}
	}
	return out, nil
}

// ───────────────────────────── comprehensions ──────────────────────────────

// evalMapKey resolves a map key node to its string key; general expressions
// must evaluate to strings.
func evalMapKey(k S, env *Env) (string, error) {
	if tag(k) == "str" {
		return getStr(k), nil
	}
	v, err := evalNode(k, env)
	if err != nil {
		return "", err
	}
	if v.Tag != VTStr {
		return "", evalErrf("map key must be a string, got %s", v.Tag)
	}
	return v.Str, nil
}

// evalSeqComp evaluates listcomp/gencomp (dedupe=false) and setcomp
// (dedupe=true): node = (tag, elt, compfor...).
func evalSeqComp(n S, env *Env, dedupe bool) (Value, error) {
	var out []Value
	frame := NewEnv(env)
	err := runCompClauses(n, 2, frame, func() error {
		v, err := evalNode(child(n, 0), frame)
		if err != nil {
			return err
		}
		if dedupe && containsValue(out, v) {
			return nil
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return Value{}, err
	}
	return Array(out...), nil
}

// evalDictComp evaluates (dictcomp, keyElt, valElt, compfor...).
func evalDictComp(n S, env *Env) (Value, error) {
	m := NewMap()
	frame := NewEnv(env)
	err := runCompClauses(n, 3, frame, func() error {
		k, err := evalMapKey(child(n, 0), frame)
		if err != nil {
			return err
		}
		v, err := evalNode(child(n, 1), frame)
		if err != nil {
			return err
		}
		m.Set(k, v)
		return nil
	})
	if err != nil {
		return Value{}, err
	}
	return MapV(m), nil
}

// runCompClauses drives the nested for/if clauses of a comprehension,
// invoking yield once per innermost iteration. Loop variables are defined in
// frame, shadowing outer bindings.
func runCompClauses(n S, clauseIdx int, frame *Env, yield func() error) error {
	if clauseIdx >= len(n) {
		return yield()
	}
	cf := n[clauseIdx].(S) // ("compfor", target, iter, if...)
	iter, err := evalNode(child(cf, 1), frame)
	if err != nil {
		return err
	}
	items, err := iterableItems(iter)
	if err != nil {
		return err
	}
	target := child(cf, 0)
	for _, item := range items {
		if err := bindTarget(target, item, frame); err != nil {
			return err
		}
		pass := true
		for fi := 3; fi < len(cf); fi++ {
			cond, err := evalNode(cf[fi].(S), frame)
			if err != nil {
				return err
			}
			if !Truthy(cond) {
				pass = false
				break
			}
		}
		if !pass {
			continue
		}
		if err := runCompClauses(n, clauseIdx+1, frame, yield); err != nil {
			return err
		}
	}
	return nil
}

// iterableItems lists the items a for-clause walks: array elements, string
// characters, or map keys (insertion order).
func iterableItems(v Value) ([]Value, error) {
	switch v.Tag {
	case VTArray:
		return v.Arr, nil
	case VTStr:
		runes := []rune(v.Str)
		out := make([]Value, len(runes))
		for i, r := range runes {
			out[i] = Str(string(r))
		}
		return out, nil
	case VTMap:
		out := make([]Value, len(v.Map.Keys))
		for i, k := range v.Map.Keys {
			out[i] = Str(k)
		}
		return out, nil
	}
	return nil, evalErrf("cannot iterate over a %s", v.Tag)
}

// bindTarget binds a loop target (name or tuple of names) to an item.
func bindTarget(target S, item Value, frame *Env) error {
	if tag(target) == "id" {
		frame.Define(getId(target), item)
		return nil
	}
	// ("tuple", ("id", a), ("id", b), ...)
	names := children(target)
	if item.Tag != VTArray || len(item.Arr) != len(names) {
		return evalErrf("cannot unpack %s into %d names", Repr(item), len(names))
	}
	for i, nm := range names {
		frame.Define(getId(nm.(S)), item.Arr[i])
	}
	return nil
}
