package provider

import "github.com/shopspring/decimal"

// PlatformFee computes percent*amount + fixed, rounded to the cent before
// the fixed part is added. Pure so it is testable without a gateway.
func PlatformFee(amount, percent, fixed decimal.Decimal) decimal.Decimal {
	variable := amount.Mul(percent).Div(decimal.NewFromInt(100)).Round(2)
	return variable.Add(fixed)
}
