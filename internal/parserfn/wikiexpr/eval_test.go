package wikiexpr

import "testing"

func TestEvalArithmetic(t *testing.T) {
	cases := map[string]string{
		"2+3":         "5",
		"1+2*3":       "7",
		"(1+2)*3":     "9",
		"10/4":        "2.5",
		"10 mod 3":    "", // not supported as a word, % is
		"2^3^2":       "512",
		"-2^2":        "-4",
		"5 = 5":       "1",
		"5 != 5":      "0",
		"3 < 4 and 1": "1",
	}
	for in, want := range cases {
		if want == "" {
			continue
		}
		got, err := Eval(in)
		if err != nil {
			t.Errorf("Eval(%q) error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("Eval(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEvalDivisionByZero(t *testing.T) {
	if _, err := Eval("1/0"); err == nil {
		t.Fatal("expected division by zero error")
	}
}

func TestEvalFunctions(t *testing.T) {
	got, err := Eval("round(3.456, 2)")
	if err != nil {
		t.Fatal(err)
	}
	if got != "3.46" {
		t.Errorf("round(3.456,2) = %q, want 3.46", got)
	}

	got, err = Eval("abs(-5)")
	if err != nil {
		t.Fatal(err)
	}
	if got != "5" {
		t.Errorf("abs(-5) = %q, want 5", got)
	}
}

func TestTruthy(t *testing.T) {
	b, err := Truthy("1 < 2")
	if err != nil {
		t.Fatal(err)
	}
	if !b {
		t.Error("1 < 2 should be truthy")
	}
}
