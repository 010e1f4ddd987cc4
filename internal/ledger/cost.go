// Package ledger holds the pure rules of the stock ledger: weighted-average costing,
// the supplier binding rule, the purchase state machine, log actions and document numbers.
// Nothing here touches storage.
package ledger

import "github.com/shopspring/decimal"

// CostPrecision is the number of decimal places kept on average and unit costs.
const CostPrecision int32 = 4

// WeightedAverageCost returns the cost per unit after receiving inQty units at inCost
// on top of prevQty units valued at prevAvg.
//
//	denom = prevQty + inQty
//	denom > 0 ? (prevQty*prevAvg + inQty*inCost) / denom : inCost
//
// The result is rounded half away from zero to CostPrecision places.
func WeightedAverageCost(prevQty int, prevAvg decimal.Decimal, inQty int, inCost decimal.Decimal) decimal.Decimal {
	denom := prevQty + inQty
	if denom <= 0 {
		return inCost.Round(CostPrecision)
	}

	num := decimal.NewFromInt(int64(prevQty)).Mul(prevAvg).
		Add(decimal.NewFromInt(int64(inQty)).Mul(inCost))

	return num.DivRound(decimal.NewFromInt(int64(denom)), CostPrecision)
}

// LineTotal is quantity × unit amount, rounded to CostPrecision
func LineTotal(quantity int, unit decimal.Decimal) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(quantity))).Round(CostPrecision)
}

// GrandTotal = subTotal − discount + tax
func GrandTotal(subTotal, discount, tax decimal.Decimal) decimal.Decimal {
	return subTotal.Sub(discount).Add(tax)
}

var hundred = decimal.NewFromInt(100)

// DiscountedAmount applies a percentage discount: total × (1 − pct/100)
func DiscountedAmount(total, pct decimal.Decimal) decimal.Decimal {
	return total.Mul(hundred.Sub(pct)).DivRound(hundred, CostPrecision)
}
