package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPlatformFee(t *testing.T) {
	cases := []struct {
		amount   string
		percent  string
		fixed    string
		expected string
	}{
		{"100.00", "2.50", "0.25", "2.75"},
		{"39.90", "1.90", "0.35", "1.11"},
		{"0.01", "2.50", "0.25", "0.25"},
		{"100.00", "0", "0", "0.00"},
		{"33.33", "3.00", "0.00", "1.00"},
	}
	for _, tc := range cases {
		fee := PlatformFee(
			decimal.RequireFromString(tc.amount),
			decimal.RequireFromString(tc.percent),
			decimal.RequireFromString(tc.fixed),
		)
		if fee.StringFixed(2) != tc.expected {
			t.Fatalf("PlatformFee(%s, %s%%, %s) expected %s, got %s",
				tc.amount, tc.percent, tc.fixed, tc.expected, fee.StringFixed(2))
		}
	}
}

func TestClassifyCode(t *testing.T) {
	cases := []struct {
		code     string
		expected FailureKind
	}{
		{"insufficient_funds", FailureInsufficientFunds},
		{"balance_insufficient", FailureInsufficientFunds},
		{"account_closed", FailureAccountClosed},
		{"debit_not_authorized", FailureMandateNotAuthorized},
		{"authentication_required", FailureAuthenticationRequired},
		{"sca_required", FailureAuthenticationRequired},
		{"something_else", FailureGeneric},
		{"", FailureGeneric},
	}
	for _, tc := range cases {
		if kind := ClassifyCode(tc.code); kind != tc.expected {
			t.Fatalf("ClassifyCode(%q) expected %s, got %s", tc.code, tc.expected, kind)
		}
	}
}

func TestClassifyError(t *testing.T) {
	kind, code, message := ClassifyError(&APIError{Code: "insufficient_funds", Message: "not enough balance"})
	if kind != FailureInsufficientFunds || code != "insufficient_funds" || message != "not enough balance" {
		t.Fatalf("unexpected classification: %s %s %s", kind, code, message)
	}

	kind, code, _ = ClassifyError(context.DeadlineExceeded)
	if kind != FailureGeneric || code != "timeout" {
		t.Fatalf("timeout expected generic/timeout, got %s/%s", kind, code)
	}

	kind, code, message = ClassifyError(errors.New("connection refused"))
	if kind != FailureGeneric || code != "" || message != "connection refused" {
		t.Fatalf("unexpected classification: %s %q %s", kind, code, message)
	}
}
