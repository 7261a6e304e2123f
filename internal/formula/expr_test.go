package formula

import (
	"math"
	"testing"
)

func evalOK(t *testing.T, input string, want float64) {
	t.Helper()
	got, err := evalExpr(input)
	if err != nil {
		t.Fatalf("evalExpr(%q) returned error: %v", input, err)
	}
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("evalExpr(%q) = %v, want %v", input, got, want)
	}
}

func evalFails(t *testing.T, input string) {
	t.Helper()
	if got, err := evalExpr(input); err == nil {
		t.Fatalf("evalExpr(%q) = %v, want error", input, got)
	}
}

func TestEvalExpr_Precedence(t *testing.T) {
	evalOK(t, "1+2*3", 7)
	evalOK(t, "(1+2)*3", 9)
	evalOK(t, "10-4-3", 3)
	evalOK(t, "20/4/5", 1)
	evalOK(t, "2+3*4-6/2", 11)
}

func TestEvalExpr_Power(t *testing.T) {
	evalOK(t, "2**10", 1024)
	evalOK(t, "3*2**2", 12)
	evalOK(t, "2**3**2", 512) // right-associative
	evalOK(t, "(2**3)**2", 64)
}

func TestEvalExpr_Unary(t *testing.T) {
	evalOK(t, "-5+8", 3)
	evalOK(t, "10--5", 15)
	evalOK(t, "-(2+3)", -5)
	evalOK(t, "+7", 7)
}

func TestEvalExpr_Decimals(t *testing.T) {
	evalOK(t, "0.5*4", 2)
	evalOK(t, "3.141592653589793*10*10*30", 9424.77796076938)
	evalOK(t, ".25*8", 2)
}

func TestEvalExpr_Whitespace(t *testing.T) {
	evalOK(t, " 1 + 2 ", 3)
	evalOK(t, "2 *\t3", 6)
}

func TestEvalExpr_Malformed(t *testing.T) {
	evalFails(t, "")
	evalFails(t, "1+")
	evalFails(t, "(1+2")
	evalFails(t, "1+2)")
	evalFails(t, "1 2")
	evalFails(t, "1..2")
	evalFails(t, "a+1")
	evalFails(t, "1;2")
}

func TestEvalExpr_DivisionByZeroIsNonFinite(t *testing.T) {
	got, err := evalExpr("1/0")
	if err != nil {
		t.Fatalf("evalExpr(1/0) returned error: %v", err)
	}
	if !math.IsInf(got, 1) {
		t.Fatalf("evalExpr(1/0) = %v, want +Inf", got)
	}
}
