// repr.go — debug representation of values
//
// Repr is the single place that decides how a value appears inside a
// violation diagnostic ("x was 100", "lst was [1, 2, 3]"). The conventions
// are the condition language's own literal syntax wherever one exists, so a
// reader can paste most reprs back into a condition:
//
//	null            → null
//	booleans        → true / false
//	integers        → decimal
//	floats          → always with a decimal point or exponent (1.0, 2.5e-08)
//	strings         → double-quoted with escapes
//	arrays          → [1, 2, 3]
//	maps            → {key: value, ...} in insertion order
//	objects         → custom formatter if set, else Name(field: value, ...)
//	                  and Name() when there are no fields
//	functions       → <function name>
package guard

import (
	"strconv"
	"strings"
)

////////////////////////////////////////////////////////////////////////////////
//                                  PUBLIC API
////////////////////////////////////////////////////////////////////////////////

// Repr renders a value in the debug form used by diagnostics.
func Repr(v Value) string {
	var sb strings.Builder
	writeRepr(&sb, v)
	return sb.String()
}

//// END_OF_PUBLIC

////////////////////////////////////////////////////////////////////////////////
//                                 PRIVATE
////////////////////////////////////////////////////////////////////////////////

func writeRepr(sb *strings.Builder, v Value) {
	switch v.Tag {
	case VTNull:
		sb.WriteString("null")
	case VTBool:
		if v.Bool {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case VTInt:
		sb.WriteString(strconv.FormatInt(v.Int, 10))
	case VTNum:
		sb.WriteString(formatFloatSource(v.Num))
	case VTStr:
		sb.WriteString(quoteString(v.Str))
	case VTArray:
		sb.WriteByte('[')
		for i, e := range v.Arr {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeRepr(sb, e)
		}
		sb.WriteByte(']')
	case VTMap:
		sb.WriteByte('{')
		for i, k := range v.Map.Keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			if isIdent(k) {
				sb.WriteString(k)
			} else {
				sb.WriteString(quoteString(k))
			}
			sb.WriteString(": ")
			writeRepr(sb, v.Map.Entries[k])
		}
		sb.WriteByte('}')
	case VTObject:
		if v.Obj.Format != nil {
			sb.WriteString(v.Obj.Format(v.Obj))
			return
		}
		sb.WriteString(v.Obj.Name)
		sb.WriteByte('(')
		first := true
		for _, k := range v.Obj.Fields.Keys {
			fv := v.Obj.Fields.Entries[k]
			if fv.Tag == VTFun {
				continue // methods are not data
			}
			if !first {
				sb.WriteString(", ")
			}
			first = false
			sb.WriteString(k)
			sb.WriteString(": ")
			writeRepr(sb, fv)
		}
		sb.WriteByte(')')
	case VTFun:
		sb.WriteString("<function ")
		sb.WriteString(v.Fun.Name)
		sb.WriteByte('>')
	default:
		sb.WriteString("<unknown>")
	}
}
