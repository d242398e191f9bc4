// Package returncode maps SEPA and gateway return codes to descriptions and
// a remediation class. The registry is static; codes come from the EPC
// direct-debit rulebook plus the gateway's own failure codes.
package returncode

// Class decides what a failed collection does to the mandate.
type Class string

const (
	// ClassFatal ends the mandate: charging again can never succeed.
	ClassFatal Class = "FATAL"
	// ClassTransient leaves the mandate active; the charge is eligible for
	// the next scheduled run or a manual retry.
	ClassTransient Class = "TRANSIENT"
	// ClassFraud flags the payer for review before any retry.
	ClassFraud Class = "FRAUD"
)

type Code struct {
	Code        string
	Description string
	Class       Class
}

var registry = map[string]Code{
	"AC01": {"AC01", "account identifier incorrect", ClassFatal},
	"AC04": {"AC04", "account closed", ClassFatal},
	"AC06": {"AC06", "account blocked for direct debit", ClassFatal},
	"AC13": {"AC13", "debtor account is a consumer account", ClassFatal},
	"AG01": {"AG01", "direct debit forbidden on this account", ClassFatal},
	"AG02": {"AG02", "invalid bank operation code", ClassTransient},
	"AM04": {"AM04", "insufficient funds", ClassTransient},
	"AM05": {"AM05", "duplicate collection", ClassTransient},
	"BE05": {"BE05", "creditor identifier incorrect", ClassTransient},
	"CNOR": {"CNOR", "creditor bank not registered", ClassTransient},
	"DNOR": {"DNOR", "debtor bank not registered", ClassFatal},
	"FF01": {"FF01", "invalid file format", ClassTransient},
	"FF05": {"FF05", "direct debit type incorrect", ClassTransient},
	"FOCR": {"FOCR", "collection cancelled after refund request", ClassFraud},
	"MD01": {"MD01", "no valid mandate", ClassFatal},
	"MD02": {"MD02", "mandate data missing or incorrect", ClassFatal},
	"MD06": {"MD06", "disputed authorized transaction", ClassFraud},
	"MD07": {"MD07", "debtor deceased", ClassFatal},
	"MS02": {"MS02", "refusal by the debtor", ClassFatal},
	"MS03": {"MS03", "reason not specified", ClassTransient},
	"RC01": {"RC01", "bank identifier incorrect", ClassTransient},
	"RR01": {"RR01", "regulatory reason: missing debtor account or identification", ClassTransient},
	"RR02": {"RR02", "regulatory reason: missing debtor name or address", ClassTransient},
	"RR03": {"RR03", "regulatory reason: missing creditor name or address", ClassTransient},
	"RR04": {"RR04", "regulatory reason", ClassTransient},
	"SL01": {"SL01", "specific service offered by the debtor bank", ClassFatal},
	"TM01": {"TM01", "file received after cut-off time", ClassTransient},
}

// Lookup returns the registry entry for a code. Unknown codes are reported
// as transient so they stay retryable and never revoke a mandate by
// accident.
func Lookup(code string) Code {
	if c, ok := registry[code]; ok {
		return c
	}
	return Code{Code: code, Description: "unknown return code", Class: ClassTransient}
}

func ClassOf(code string) Class {
	return Lookup(code).Class
}

// Fatal reports whether the code ends the mandate.
func Fatal(code string) bool {
	return ClassOf(code) == ClassFatal
}
