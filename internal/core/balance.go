package core

import "github.com/shopspring/decimal"

// Balance is the member-facing view of a savings balance. When the
// administrator has hidden the balance the amount is withheld entirely;
// callers must not derive it from other fields.
type Balance struct {
	Amount  decimal.Decimal
	Visible bool
}

// Hidden is the balance view for members whose visibility flag is off.
var Hidden = Balance{}

// DisplayBalance computes the member-facing balance: raw contribution total
// plus the administrator adjustment (which may be negative), gated by the
// profile's visibility flag.
func DisplayBalance(total, adjustment decimal.Decimal, visible bool) Balance {
	if !visible {
		return Hidden
	}
	return Balance{Amount: total.Add(adjustment), Visible: true}
}

// AdminBalance computes the real balance for the administrator view, which
// bypasses the member's visibility gate.
func AdminBalance(total, adjustment decimal.Decimal) decimal.Decimal {
	return total.Add(adjustment)
}
