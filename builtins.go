// builtins.go — the core environment available to every condition
//
// A small, fixed set of natively implemented functions is visible in every
// condition without being bound by the caller: the usual aggregate helpers
// (len, sum, all, any, min, max, sorted), conversions (bool, int, str,
// round, abs), and string predicates (contains, startswith, endswith,
// lower, upper).
//
// They live in a single sealed root frame shared by every evaluation;
// per-check bindings go into a child frame and may shadow them. Identifiers
// that resolve ONLY to this frame are treated as plumbing by the diagnostic
// collector and never reported as values (nobody needs "all was <function
// all>" in a violation message).
package guard

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

////////////////////////////////////////////////////////////////////////////////
//                                  PUBLIC API
////////////////////////////////////////////////////////////////////////////////

// CoreEnv returns the shared, sealed root frame holding the builtins.
func CoreEnv() *Env { return coreEnv }

// IsBuiltinName reports whether name is one of the core builtins.
func IsBuiltinName(name string) bool {
	_, ok := coreEnv.vars[name]
	return ok
}

//// END_OF_PUBLIC

////////////////////////////////////////////////////////////////////////////////
//                                 PRIVATE
////////////////////////////////////////////////////////////////////////////////

var coreEnv = buildCoreEnv()

func buildCoreEnv() *Env {
	e := NewEnv(nil)
	def := func(name string, arity int, impl func(args []Value) (Value, error)) {
		e.Define(name, FunV(&Fun{Name: name, Arity: arity, Impl: impl}))
	}

	def("len", 1, builtinLen)
	def("abs", 1, builtinAbs)
	def("min", -1, func(args []Value) (Value, error) { return builtinMinMax("min", args, true) })
	def("max", -1, func(args []Value) (Value, error) { return builtinMinMax("max", args, false) })
	def("sum", 1, builtinSum)
	def("all", 1, builtinAll)
	def("any", 1, builtinAny)
	def("sorted", 1, builtinSorted)
	def("bool", 1, func(args []Value) (Value, error) { return Bool(Truthy(args[0])), nil })
	def("int", 1, builtinInt)
	def("str", 1, builtinStr)
	def("round", -1, builtinRound)
	def("contains", 2, builtinContains)
	def("startswith", 2, builtinStartswith)
	def("endswith", 2, builtinEndswith)
	def("lower", 1, builtinLower)
	def("upper", 1, builtinUpper)

	sealEnv(e)
	return e
}

func builtinLen(args []Value) (Value, error) {
	v := args[0]
	switch v.Tag {
	case VTStr:
		return Int(int64(utf8.RuneCountInString(v.Str))), nil
	case VTArray:
		return Int(int64(len(v.Arr))), nil
	case VTMap:
		return Int(int64(v.Map.Len())), nil
	}
	return Value{}, evalErrf("len: cannot take the length of a %s", v.Tag)
}

func builtinAbs(args []Value) (Value, error) {
	v := args[0]
	switch v.Tag {
	case VTInt:
		if v.Int < 0 {
			return Int(-v.Int), nil
		}
		return v, nil
	case VTNum:
		return Num(math.Abs(v.Num)), nil
	}
	return Value{}, evalErrf("abs: expected a number, got %s", v.Tag)
}

// builtinMinMax accepts either a single array or two-plus scalar arguments.
func builtinMinMax(name string, args []Value, wantMin bool) (Value, error) {
	items := args
	if len(args) == 1 {
		if args[0].Tag != VTArray {
			return Value{}, evalErrf("%s: single argument must be an array, got %s", name, args[0].Tag)
		}
		items = args[0].Arr
	}
	if len(items) == 0 {
		return Value{}, evalErrf("%s: empty input", name)
	}
	best := items[0]
	for _, v := range items[1:] {
		less, err := valueLess(v, best)
		if err != nil {
			return Value{}, evalErrf("%s: %s", name, err.Error())
		}
		if less == wantMin {
			best = v
		}
	}
	return best, nil
}

func builtinSum(args []Value) (Value, error) {
	if args[0].Tag != VTArray {
		return Value{}, evalErrf("sum: expected an array, got %s", args[0].Tag)
	}
	allInt := true
	var fsum float64
	var isum int64
	for _, v := range args[0].Arr {
		switch v.Tag {
		case VTInt:
			isum += v.Int
			fsum += float64(v.Int)
		case VTNum:
			allInt = false
			fsum += v.Num
		default:
			return Value{}, evalErrf("sum: expected numbers, got %s", v.Tag)
		}
	}
	if allInt {
		return Int(isum), nil
	}
	return Num(fsum), nil
}

func builtinAll(args []Value) (Value, error) {
	if args[0].Tag != VTArray {
		return Value{}, evalErrf("all: expected an array, got %s", args[0].Tag)
	}
	for _, v := range args[0].Arr {
		if !Truthy(v) {
			return Bool(false), nil
		}
	}
	return Bool(true), nil
}

func builtinAny(args []Value) (Value, error) {
	if args[0].Tag != VTArray {
		return Value{}, evalErrf("any: expected an array, got %s", args[0].Tag)
	}
	for _, v := range args[0].Arr {
		if Truthy(v) {
			return Bool(true), nil
		}
	}
	return Bool(false), nil
}

func builtinSorted(args []Value) (Value, error) {
	if args[0].Tag != VTArray {
		return Value{}, evalErrf("sorted: expected an array, got %s", args[0].Tag)
	}
	out := make([]Value, len(args[0].Arr))
	copy(out, args[0].Arr)
	var sortErr error
	sort.SliceStable(out, func(i, j int) bool {
		less, err := valueLess(out[i], out[j])
		if err != nil && sortErr == nil {
			sortErr = err
		}
		return less
	})
	if sortErr != nil {
		return Value{}, evalErrf("sorted: %s", sortErr.Error())
	}
	return Array(out...), nil
}

func builtinInt(args []Value) (Value, error) {
	v := args[0]
	switch v.Tag {
	case VTInt:
		return v, nil
	case VTNum:
		return Int(int64(v.Num)), nil
	case VTBool:
		if v.Bool {
			return Int(1), nil
		}
		return Int(0), nil
	case VTStr:
		i, err := strconv.ParseInt(strings.TrimSpace(v.Str), 10, 64)
		if err != nil {
			return Value{}, evalErrf("int: cannot parse %s", quoteString(v.Str))
		}
		return Int(i), nil
	}
	return Value{}, evalErrf("int: cannot convert a %s", v.Tag)
}

func builtinStr(args []Value) (Value, error) {
	if args[0].Tag == VTStr {
		return args[0], nil
	}
	return Str(Repr(args[0])), nil
}

// builtinRound implements round(x) and round(x, ndigits), rounding half to
// even like the source language it mimics.
func builtinRound(args []Value) (Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return Value{}, evalErrf("round: expected 1 or 2 arguments, got %d", len(args))
	}
	v := args[0]
	if !isNumeric(v) {
		return Value{}, evalErrf("round: expected a number, got %s", v.Tag)
	}
	if len(args) == 1 {
		if v.Tag == VTInt {
			return v, nil
		}
		return Int(int64(math.RoundToEven(v.Num))), nil
	}
	if args[1].Tag != VTInt {
		return Value{}, evalErrf("round: ndigits must be an integer, got %s", args[1].Tag)
	}
	x := asNum(v)
	nd := int(args[1].Int)
	if nd < 0 {
		scale := math.Pow(10, float64(-nd))
		return Num(math.RoundToEven(x/scale) * scale), nil
	}
	// Round on the decimal representation: FormatFloat rounds half to even
	// on the exact binary value, where a scaled multiply would re-round
	// (2.675 is stored as 2.67499..., but 2.675*100 lands on exactly 267.5).
	r, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', nd, 64), 64)
	if err != nil {
		return Value{}, evalErrf("round: %s", err.Error())
	}
	return Num(r), nil
}

func builtinContains(args []Value) (Value, error) {
	ok, err := valueContains(args[0], args[1])
	if err != nil {
		return Value{}, err
	}
	return Bool(ok), nil
}

func builtinStartswith(args []Value) (Value, error) {
	if args[0].Tag != VTStr || args[1].Tag != VTStr {
		return Value{}, evalErrf("startswith: expected strings, got %s and %s", args[0].Tag, args[1].Tag)
	}
	return Bool(strings.HasPrefix(args[0].Str, args[1].Str)), nil
}

func builtinEndswith(args []Value) (Value, error) {
	if args[0].Tag != VTStr || args[1].Tag != VTStr {
		return Value{}, evalErrf("endswith: expected strings, got %s and %s", args[0].Tag, args[1].Tag)
	}
	return Bool(strings.HasSuffix(args[0].Str, args[1].Str)), nil
}

func builtinLower(args []Value) (Value, error) {
	if args[0].Tag != VTStr {
		return Value{}, evalErrf("lower: expected a string, got %s", args[0].Tag)
	}
	return Str(strings.ToLower(args[0].Str)), nil
}

func builtinUpper(args []Value) (Value, error) {
	if args[0].Tag != VTStr {
		return Value{}, evalErrf("upper: expected a string, got %s", args[0].Tag)
	}
	return Str(strings.ToUpper(args[0].Str)), nil
}

// valueLess orders two values for min/max/sorted and the comparison
// operators: numbers by magnitude, strings lexicographically, arrays
// element-wise. Mixed kinds are an error.
func valueLess(a, b Value) (bool, error) {
	if isNumeric(a) && isNumeric(b) {
		return asNum(a) < asNum(b), nil
	}
	if a.Tag == VTStr && b.Tag == VTStr {
		return a.Str < b.Str, nil
	}
	if a.Tag == VTArray && b.Tag == VTArray {
		n := len(a.Arr)
		if len(b.Arr) < n {
			n = len(b.Arr)
		}
		for i := 0; i < n; i++ {
			if !valueEqual(a.Arr[i], b.Arr[i]) {
				return valueLess(a.Arr[i], b.Arr[i])
			}
		}
		return len(a.Arr) < len(b.Arr), nil
	}
	return false, evalErrf("cannot order %s and %s", a.Tag, b.Tag)
}
