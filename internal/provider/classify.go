package provider

import (
	"context"
	"errors"
)

// FailureKind is the small user-facing vocabulary charge failures collapse
// into. The mapping is pure and independent of the gateway client.
type FailureKind string

const (
	FailureInsufficientFunds      FailureKind = "INSUFFICIENT_FUNDS"
	FailureAccountClosed          FailureKind = "ACCOUNT_CLOSED"
	FailureMandateNotAuthorized   FailureKind = "MANDATE_NOT_AUTHORIZED"
	FailureAuthenticationRequired FailureKind = "AUTHENTICATION_REQUIRED"
	FailureGeneric                FailureKind = "GENERIC"
)

// ClassifyCode maps a low-level gateway failure code to the user-facing
// vocabulary. Unknown codes fall back to the generic kind.
func ClassifyCode(code string) FailureKind {
	switch code {
	case "insufficient_funds", "balance_insufficient":
		return FailureInsufficientFunds
	case "account_closed", "bank_account_closed", "account_invalid":
		return FailureAccountClosed
	case "debit_not_authorized", "mandate_revoked", "authorization_revoked":
		return FailureMandateNotAuthorized
	case "authentication_required", "sca_required":
		return FailureAuthenticationRequired
	default:
		return FailureGeneric
	}
}

// ClassifyError turns a gateway client error into a failure result. Gateway
// timeouts classify as generic and stay retryable on the next run.
func ClassifyError(err error) (FailureKind, string, string) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return ClassifyCode(apiErr.Code), apiErr.Code, apiErr.Message
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureGeneric, "timeout", "gateway call timed out"
	}
	return FailureGeneric, "", err.Error()
}
