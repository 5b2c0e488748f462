package engine

import (
	"github.com/shopspring/decimal"

	"patrimonio/internal/core"
)

// Adjustment is the capital that moved in or out of one asset.
type Adjustment struct {
	Deposits  decimal.Decimal `json:"deposits"`
	Withdraws decimal.Decimal `json:"withdraws"`
	Net       decimal.Decimal `json:"net"`
}

// AggregateAdjustments groups transfers by asset key. A move counts as a
// withdraw on its from key and a deposit on its to key.
func AggregateAdjustments(transfers []core.Transfer) map[core.AssetKey]Adjustment {
	out := make(map[core.AssetKey]Adjustment)
	add := func(k core.AssetKey, dep, wd decimal.Decimal) {
		a := out[k]
		a.Deposits = a.Deposits.Add(dep)
		a.Withdraws = a.Withdraws.Add(wd)
		a.Net = a.Deposits.Sub(a.Withdraws)
		out[k] = a
	}
	for _, t := range transfers {
		amount := t.Magnitude()
		switch t.Kind {
		case core.Deposit:
			add(t.Target(), amount, decimal.Zero)
		case core.Withdraw:
			add(t.Target(), decimal.Zero, amount)
		case core.Move:
			add(t.From(), decimal.Zero, amount)
			add(t.To(), amount, decimal.Zero)
		}
	}
	return out
}

// TransferTotals sums deposits and withdraws. Moves are internal and count
// as neither.
func TransferTotals(transfers []core.Transfer) (deposits, withdraws decimal.Decimal) {
	for _, t := range transfers {
		switch t.Kind {
		case core.Deposit:
			deposits = deposits.Add(t.Magnitude())
		case core.Withdraw:
			withdraws = withdraws.Add(t.Magnitude())
		}
	}
	return deposits, withdraws
}
