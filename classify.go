// classify.go — node classification for the diagnostic collector
//
// Every AST node kind falls into exactly one category that tells the
// collector what to do with it when a condition turns out false:
//
//	Literal      — constants; their value is visible in the source, so
//	               reporting them adds nothing. Not reported, no children.
//	Leaf         — identifiers; reported with their bound value (unless the
//	               name resolves only to a builtin).
//	Transparent  — operators, collections, subscripts; never reported
//	               themselves, but every child is walked. A subscript like
//	               lst[1] is transparent: the reader sees lst and the index
//	               expression, which together explain the element.
//	Reportable   — attribute access and calls; the whole sub-expression is
//	               reported under its exact source text AND its children are
//	               walked (a.y reports both a and a.y).
//	Opaque       — comprehensions; reported as a whole, but their insides
//	               are a fresh scope with loop variables that have no single
//	               value, so the walk never descends into them. Generator
//	               expressions are opaque AND silent: they have no standalone
//	               value to show (the enclosing call is what gets reported).
//	Unsupported  — lambdas; the condition cannot be decomposed and the guard
//	               must be rewritten.
package guard

////////////////////////////////////////////////////////////////////////////////
//                                  PUBLIC API
////////////////////////////////////////////////////////////////////////////////

// Category is the collector-facing classification of an AST node kind.
type Category uint8

const (
	CatLiteral Category = iota
	CatLeaf
	CatTransparent
	CatReportable
	CatOpaque
	CatOpaqueSilent
	CatUnsupported
)

// Classify maps a node tag to its category. Unknown tags are transparent:
// walking children is the conservative default for anything structural.
func Classify(nodeTag string) Category {
	switch nodeTag {
	case "int", "num", "str", "bool", "null":
		return CatLiteral
	case "id":
		return CatLeaf
	case "unop", "binop", "boolop", "compare", "ifexp",
		"array", "tuple", "set", "map", "pair", "idx", "slice":
		return CatTransparent
	case "get", "call":
		return CatReportable
	case "listcomp", "setcomp", "dictcomp":
		return CatOpaque
	case "gencomp":
		return CatOpaqueSilent
	case "lambda":
		return CatUnsupported
	}
	return CatTransparent
}

//// END_OF_PUBLIC

////////////////////////////////////////////////////////////////////////////////
//                                 PRIVATE
////////////////////////////////////////////////////////////////////////////////

// containsLambda walks an AST looking for a lambda node. Used to reject
// conditions at construction, before any evaluation happens.
func containsLambda(n S) bool {
	if tag(n) == "lambda" {
		return true
	}
	for i := 1; i < len(n); i++ {
		if c, ok := n[i].(S); ok && containsLambda(c) {
			return true
		}
	}
	return false
}
