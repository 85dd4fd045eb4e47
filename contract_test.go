// contract_test.go
package guard

import (
	"errors"
	"strings"
	"testing"
)

func Test_Contract_CheckPasses(t *testing.T) {
	pre, err := NewPrecondition("x > 0", "")
	if err != nil {
		t.Fatalf("NewPrecondition: %v", err)
	}
	if err := pre.Check(Bindings{"x": Int(3)}); err != nil {
		t.Fatalf("expected pass, got %v", err)
	}
}

func Test_Contract_ViolationCarriesDiagnostic(t *testing.T) {
	pre, err := NewPrecondition("x < 5", "x must stay small")
	if err != nil {
		t.Fatalf("NewPrecondition: %v", err)
	}
	checkErr := pre.Check(Bindings{"x": Int(100)})
	if checkErr == nil {
		t.Fatalf("expected a violation")
	}
	var v *ViolationError
	if !errors.As(checkErr, &v) {
		t.Fatalf("expected *ViolationError, got %T", checkErr)
	}
	if v.Kind != Precondition {
		t.Fatalf("kind: %v", v.Kind)
	}
	if v.Diagnostic != "x < 5: x must stay small: x was 100" {
		t.Fatalf("diagnostic: %q", v.Diagnostic)
	}
	if !strings.Contains(v.Location, "contract_test.go:") {
		t.Fatalf("location should point at the declaration site, got %q", v.Location)
	}
	if !strings.HasPrefix(v.Error(), v.Location+":\n") {
		t.Fatalf("Error() should lead with the location:\n%s", v.Error())
	}
}

func Test_Contract_EvalErrorPropagates(t *testing.T) {
	pre, err := NewPrecondition("x > 0", "")
	if err != nil {
		t.Fatalf("NewPrecondition: %v", err)
	}
	checkErr := pre.Check(Bindings{}) // x unbound
	if _, ok := checkErr.(*EvalError); !ok {
		t.Fatalf("expected *EvalError, got %T: %v", checkErr, checkErr)
	}
}

func Test_Contract_MustPanicsOnBadCondition(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic")
		}
	}()
	MustPrecondition("x >", "")
}

func Test_Contract_ConstructionRejectsLambda(t *testing.T) {
	_, err := NewPrecondition("f(lambda v: v)", "")
	if _, ok := err.(*UnsupportedExpressionError); !ok {
		t.Fatalf("expected *UnsupportedExpressionError, got %T", err)
	}
}

func Test_Contract_PostconditionWithSnapshot(t *testing.T) {
	post, err := NewPostcondition("balance == old.balance - amount", "")
	if err != nil {
		t.Fatalf("NewPostcondition: %v", err)
	}
	snap := NewSnapshot().Capture("balance", Int(100))

	// Correct withdrawal.
	if err := post.Check(Bindings{
		"balance": Int(70), "amount": Int(30), "old": snap.Value(),
	}); err != nil {
		t.Fatalf("expected pass, got %v", err)
	}

	// Buggy withdrawal: the diagnostic names the old state.
	checkErr := post.Check(Bindings{
		"balance": Int(80), "amount": Int(30), "old": snap.Value(),
	})
	var v *ViolationError
	if !errors.As(checkErr, &v) {
		t.Fatalf("expected *ViolationError, got %T", checkErr)
	}
	want := "balance == old.balance - amount:\n" +
		"amount was 30\n" +
		"balance was 80\n" +
		"old was Old(balance: 100)\n" +
		"old.balance was 100"
	if v.Diagnostic != want {
		t.Fatalf("diagnostic:\n%s\nwant:\n%s", v.Diagnostic, want)
	}
}

func Test_Contract_KindString(t *testing.T) {
	if Precondition.String() != "precondition" || Postcondition.String() != "postcondition" {
		t.Fatalf("kind strings: %s / %s", Precondition, Postcondition)
	}
}
