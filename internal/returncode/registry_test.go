package returncode

import "testing"

func TestLookup(t *testing.T) {
	cases := []struct {
		code     string
		expected Class
	}{
		{"AC04", ClassFatal},
		{"MD01", ClassFatal},
		{"MS02", ClassFatal},
		{"MD07", ClassFatal},
		{"AM04", ClassTransient},
		{"TM01", ClassTransient},
		{"MD06", ClassFraud},
		{"FOCR", ClassFraud},
	}
	for _, tc := range cases {
		if class := ClassOf(tc.code); class != tc.expected {
			t.Fatalf("ClassOf(%s) expected %s, got %s", tc.code, tc.expected, class)
		}
	}
}

func TestLookup_UnknownCodeIsTransient(t *testing.T) {
	code := Lookup("XX99")
	if code.Class != ClassTransient {
		t.Fatalf("unknown codes must stay retryable, got %s", code.Class)
	}
	if code.Code != "XX99" {
		t.Fatalf("expected the code to be echoed back, got %s", code.Code)
	}
}

func TestFatal(t *testing.T) {
	if !Fatal("AC01") {
		t.Fatal("AC01 must end the mandate")
	}
	if Fatal("AM04") {
		t.Fatal("insufficient funds must not end the mandate")
	}
}
