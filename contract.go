// contract.go — pre/postcondition guards over parsed conditions
//
// WHAT THIS MODULE DOES
// =====================
// The user-facing wrapper around Condition: a Contract pairs a parsed
// predicate with an optional human description and the source location where
// the guard was declared. Checking a contract against bindings either
// passes, fails with a *ViolationError carrying the full diagnostic, or
// surfaces an evaluation error unchanged.
//
// Typical use:
//
//	pre := guard.MustPrecondition("x > 0", "x must be positive")
//
//	func Sqrt(x float64) (float64, error) {
//	    if err := pre.Check(guard.Bindings{"x": guard.Num(x)}); err != nil {
//	        return 0, err
//	    }
//	    ...
//	}
//
// Postconditions can compare against pre-call state through a Snapshot,
// which exposes captured values as fields of an `old` object:
//
//	snap := guard.NewSnapshot().Capture("balance", guard.Int(balance))
//	post := guard.MustPostcondition("balance == old.balance - amount", "")
//	...
//	err := post.Check(guard.Bindings{
//	    "balance": guard.Int(balance),
//	    "amount":  guard.Int(amount),
//	    "old":     snap.Value(),
//	})
package guard

import (
	"fmt"
	"runtime"
)

////////////////////////////////////////////////////////////////////////////////
//                                  PUBLIC API
////////////////////////////////////////////////////////////////////////////////

// ContractKind distinguishes the two guard flavours. It affects nothing but
// introspection; both kinds check identically.
type ContractKind uint8

const (
	Precondition ContractKind = iota
	Postcondition
)

func (k ContractKind) String() string {
	if k == Postcondition {
		return "postcondition"
	}
	return "precondition"
}

// Contract is a declared guard: a parsed condition plus its description and
// the file:line where it was constructed. Immutable and safe for concurrent
// use; each Check builds its own environment.
type Contract struct {
	kind        ContractKind
	cond        *Condition
	description string
	location    string
}

// NewPrecondition parses src into a precondition guard.
func NewPrecondition(src, description string) (*Contract, error) {
	return newContract(Precondition, src, description)
}

// NewPostcondition parses src into a postcondition guard.
func NewPostcondition(src, description string) (*Contract, error) {
	return newContract(Postcondition, src, description)
}

// MustPrecondition is NewPrecondition, panicking on error. Intended for
// package-level guard declarations, where a malformed condition is a
// programming error to fail fast on.
func MustPrecondition(src, description string) *Contract {
	c, err := newContract(Precondition, src, description)
	if err != nil {
		panic(err)
	}
	return c
}

// MustPostcondition is NewPostcondition, panicking on error.
func MustPostcondition(src, description string) *Contract {
	c, err := newContract(Postcondition, src, description)
	if err != nil {
		panic(err)
	}
	return c
}

// Kind returns whether the contract is a pre- or postcondition.
func (c *Contract) Kind() ContractKind { return c.kind }

// Condition returns the underlying parsed condition.
func (c *Contract) Condition() *Condition { return c.cond }

// Location returns the file:line where the contract was declared.
func (c *Contract) Location() string { return c.location }

// Check evaluates the contract against the bindings. It returns nil when the
// condition holds, a *ViolationError with the rendered diagnostic when it
// does not, and the evaluation error unchanged when the condition cannot be
// evaluated at all.
func (c *Contract) Check(bindings Bindings) error {
	ok, err := c.cond.Eval(bindings)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	diag, err := c.cond.Explain(bindings, c.description)
	if err != nil {
		return err
	}
	return &ViolationError{Kind: c.kind, Location: c.location, Diagnostic: diag}
}

// ViolationError reports a failed contract check. Diagnostic is the rendered
// explanation ("x > 0: x was -3" style); Location is where the contract was
// declared, empty if unavailable.
type ViolationError struct {
	Kind       ContractKind
	Location   string
	Diagnostic string
}

func (e *ViolationError) Error() string {
	if e.Location == "" {
		return e.Diagnostic
	}
	return e.Location + ":\n" + e.Diagnostic
}

// Snapshot captures values before a call so postconditions can refer to the
// pre-call state as `old.<name>`.
type Snapshot struct {
	obj *Object
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{obj: NewObject("Old")}
}

// Capture records a named value. Returns the snapshot for chaining.
func (s *Snapshot) Capture(name string, v Value) *Snapshot {
	s.obj.Set(name, v)
	return s
}

// Value boxes the snapshot as the object to bind under the name "old".
func (s *Snapshot) Value() Value { return ObjV(s.obj) }

//// END_OF_PUBLIC

////////////////////////////////////////////////////////////////////////////////
//                                 PRIVATE
////////////////////////////////////////////////////////////////////////////////

func newContract(kind ContractKind, src, description string) (*Contract, error) {
	cond, err := ParseCondition(src)
	if err != nil {
		return nil, err
	}
	return &Contract{
		kind:        kind,
		cond:        cond,
		description: description,
		location:    callerLocation(3),
	}, nil
}

// callerLocation formats the caller's file:line, skipping the construction
// frames. Empty when the runtime cannot resolve it.
func callerLocation(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s:%d", file, line)
}
