// value.go — boxed dynamic values and lexical environments
//
// WHAT THIS MODULE DOES
// =====================
// Conditions are evaluated against *dynamically typed* values: a guard binds
// Go-side data under names ("x", "lst", "old", ...) and the evaluator operates
// on a single boxed representation, `Value`. The box is a tag plus payload
// fields — no reflection, no interface{} dispatch in the evaluator's hot path.
//
// Ordered maps: `MapObject` preserves insertion order of keys so that debug
// output and iteration are deterministic run to run.
//
// Objects: `Object` is a named record with ordered fields. Methods are plain
// function-valued fields (the Go side binds the receiver when building the
// object), so `a.is_absolute()` is field access followed by a call. An Object
// may carry a custom debug formatter; otherwise it renders as
// `Name(field: value, ...)`.
//
// Environments: `Env` is a classic frame with a parent pointer. The root
// frame holds the builtins and is sealed; a guard's bindings live in a child
// frame; comprehensions push one more child for their loop variables.
package guard

////////////////////////////////////////////////////////////////////////////////
//                                  PUBLIC API
////////////////////////////////////////////////////////////////////////////////

// ValueTag discriminates the payload of a Value.
type ValueTag uint8

const (
	VTNull ValueTag = iota
	VTBool
	VTInt
	VTNum
	VTStr
	VTArray
	VTMap
	VTObject
	VTFun
)

func (t ValueTag) String() string {
	switch t {
	case VTNull:
		return "null"
	case VTBool:
		return "bool"
	case VTInt:
		return "int"
	case VTNum:
		return "num"
	case VTStr:
		return "str"
	case VTArray:
		return "array"
	case VTMap:
		return "map"
	case VTObject:
		return "object"
	case VTFun:
		return "function"
	}
	return "unknown"
}

// Value is the boxed dynamic value. Exactly the payload named by Tag is
// meaningful; the rest stay zero.
type Value struct {
	Tag  ValueTag
	Bool bool
	Int  int64
	Num  float64
	Str  string
	Arr  []Value
	Map  *MapObject
	Obj  *Object
	Fun  *Fun
}

// Constructors. Conditions receive their inputs through these.

func Null() Value          { return Value{Tag: VTNull} }
func Bool(b bool) Value    { return Value{Tag: VTBool, Bool: b} }
func Int(i int64) Value    { return Value{Tag: VTInt, Int: i} }
func Num(f float64) Value  { return Value{Tag: VTNum, Num: f} }
func Str(s string) Value   { return Value{Tag: VTStr, Str: s} }
func Array(vs ...Value) Value {
	if vs == nil {
		vs = []Value{}
	}
	return Value{Tag: VTArray, Arr: vs}
}
func MapV(m *MapObject) Value { return Value{Tag: VTMap, Map: m} }
func ObjV(o *Object) Value    { return Value{Tag: VTObject, Obj: o} }
func FunV(f *Fun) Value       { return Value{Tag: VTFun, Fun: f} }

// MapObject is a string-keyed map that remembers insertion order.
type MapObject struct {
	Entries map[string]Value
	Keys    []string
}

// NewMap returns an empty ordered map.
func NewMap() *MapObject {
	return &MapObject{Entries: map[string]Value{}}
}

// Get looks up a key.
func (m *MapObject) Get(key string) (Value, bool) {
	v, ok := m.Entries[key]
	return v, ok
}

// Set inserts or replaces a key, preserving first-insertion order.
func (m *MapObject) Set(key string, v Value) {
	if _, ok := m.Entries[key]; !ok {
		m.Keys = append(m.Keys, key)
	}
	m.Entries[key] = v
}

// Len returns the number of entries.
func (m *MapObject) Len() int { return len(m.Keys) }

// Object is a named record with ordered fields. Function-valued fields act as
// methods. Format, when non-nil, overrides the default debug rendering.
type Object struct {
	Name   string
	Fields *MapObject
	Format func(*Object) string
}

// NewObject returns an Object with the given debug name and no fields.
func NewObject(name string) *Object {
	return &Object{Name: name, Fields: NewMap()}
}

// Set defines or replaces a field.
func (o *Object) Set(name string, v Value) *Object {
	o.Fields.Set(name, v)
	return o
}

// SetMethod defines a zero-parameter-style method: a function-valued field
// whose implementation already closes over the receiver.
func (o *Object) SetMethod(name string, impl func(args []Value) (Value, error)) *Object {
	o.Fields.Set(name, FunV(&Fun{Name: name, Arity: -1, Impl: impl}))
	return o
}

// Fun is a natively implemented function value. Arity < 0 means variadic;
// otherwise the evaluator enforces the exact argument count.
type Fun struct {
	Name  string
	Arity int
	Impl  func(args []Value) (Value, error)
}

// Bindings is what a guard supplies per check: argument names, result, old
// snapshot — each boxed as a Value.
type Bindings map[string]Value

// Env is a lexical frame. Lookup walks the parent chain; definitions always
// land in the receiver frame. A sealed frame rejects definitions (the shared
// builtin root is sealed).
type Env struct {
	parent *Env
	vars   map[string]Value
	sealed bool
}

// NewEnv creates a frame chained to parent (parent may be nil).
func NewEnv(parent *Env) *Env {
	return &Env{parent: parent, vars: map[string]Value{}}
}

// Define binds name in this frame, shadowing any outer binding.
func (e *Env) Define(name string, v Value) {
	if e.sealed {
		return
	}
	e.vars[name] = v
}

// Get resolves name through the frame chain.
func (e *Env) Get(name string) (Value, bool) {
	for f := e; f != nil; f = f.parent {
		if v, ok := f.vars[name]; ok {
			return v, true
		}
	}
	return Value{}, false
}

// Truthy implements the condition language's truth test: null, false, zero,
// the empty string, and empty collections are false; everything else is true.
func Truthy(v Value) bool {
	switch v.Tag {
	case VTNull:
		return false
	case VTBool:
		return v.Bool
	case VTInt:
		return v.Int != 0
	case VTNum:
		return v.Num != 0
	case VTStr:
		return v.Str != ""
	case VTArray:
		return len(v.Arr) > 0
	case VTMap:
		return v.Map.Len() > 0
	default:
		return true
	}
}

//// END_OF_PUBLIC

////////////////////////////////////////////////////////////////////////////////
//                                 PRIVATE
////////////////////////////////////////////////////////////////////////////////

// valueEqual implements `==`: numeric values compare across int/num; arrays
// and maps compare structurally; objects and functions compare by identity.
func valueEqual(a, b Value) bool {
	if isNumeric(a) && isNumeric(b) {
		return asNum(a) == asNum(b)
	}
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case VTNull:
		return true
	case VTBool:
		return a.Bool == b.Bool
	case VTStr:
		return a.Str == b.Str
	case VTArray:
		if len(a.Arr) != len(b.Arr) {
			return false
		}
		for i := range a.Arr {
			if !valueEqual(a.Arr[i], b.Arr[i]) {
				return false
			}
		}
		return true
	case VTMap:
		if a.Map.Len() != b.Map.Len() {
			return false
		}
		for _, k := range a.Map.Keys {
			bv, ok := b.Map.Get(k)
			if !ok || !valueEqual(a.Map.Entries[k], bv) {
				return false
			}
		}
		return true
	case VTObject:
		return a.Obj == b.Obj
	case VTFun:
		return a.Fun == b.Fun
	}
	return false
}

func isNumeric(v Value) bool { return v.Tag == VTInt || v.Tag == VTNum }

func asNum(v Value) float64 {
	if v.Tag == VTInt {
		return float64(v.Int)
	}
	return v.Num
}

// sealEnv marks a frame read-only. Used for the shared builtin root.
func sealEnv(e *Env) { e.sealed = true }
