package engine

import (
	"github.com/shopspring/decimal"

	"patrimonio/internal/core"
)

// minCapital is the invested capital below which a yield ratio is not
// meaningful.
var minCapital = decimal.New(1, -2)

// yieldCap is the fraction reported when profit appears on no capital.
const yieldCap = 1.0

type Performance struct {
	FirstMonth      bool            `json:"firstMonth"`
	StartBalance    decimal.Decimal `json:"startBalance"`
	EndBalance      decimal.Decimal `json:"endBalance"`
	Deposits        decimal.Decimal `json:"deposits"`
	Withdraws       decimal.Decimal `json:"withdraws"`
	NetFlow         decimal.Decimal `json:"netFlow"`
	Profit          decimal.Decimal `json:"profit"`
	InvestedCapital decimal.Decimal `json:"investedCapital"`
	YieldPercent    float64         `json:"yieldPercent"`
}

// CalculatePerformance computes the profit and yield of one month. On the
// first tracked month the whole end balance counts as a deposit and profit
// and yield are zero.
func CalculatePerformance(start, end decimal.Decimal, transfers []core.Transfer, firstMonth bool) Performance {
	if firstMonth {
		return Performance{
			FirstMonth:      true,
			EndBalance:      end,
			Deposits:        end,
			NetFlow:         end,
			InvestedCapital: end,
		}
	}
	deposits, withdraws := TransferTotals(transfers)
	p := Performance{
		StartBalance:    start,
		EndBalance:      end,
		Deposits:        deposits,
		Withdraws:       withdraws,
		NetFlow:         deposits.Sub(withdraws),
		InvestedCapital: start.Add(deposits),
	}
	p.Profit = end.Sub(start.Add(p.NetFlow))
	p.YieldPercent = yieldRatio(p.Profit, p.InvestedCapital, hundred)
	return p
}

// MonthlyYield is the simple return of a month as a fraction (0.05 = 5%).
func MonthlyYield(start, end decimal.Decimal, transfers []core.Transfer) float64 {
	deposits, withdraws := TransferTotals(transfers)
	profit := end.Sub(start.Add(deposits.Sub(withdraws)))
	return yieldRatio(profit, start.Add(deposits), decimal.NewFromInt(1))
}

func yieldRatio(profit, capital, scale decimal.Decimal) float64 {
	switch {
	case capital.GreaterThan(minCapital):
		return profit.Div(capital).Mul(scale).InexactFloat64()
	case profit.IsPositive():
		return yieldCap * scale.InexactFloat64()
	default:
		return 0
	}
}
