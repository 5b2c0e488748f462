package engine

import (
	"math"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"patrimonio/internal/core"
)

const monthsPerYear = 12

type (
	// MonthInput is one calendar month of the year-to-date sequence.
	// Document is nil when the month has no document.
	MonthInput struct {
		Month     core.Month
		Document  *core.Document
		Transfers []core.Transfer
	}

	ChainEntry struct {
		Month        core.Month      `json:"month"`
		Present      bool            `json:"present"`
		StartBalance decimal.Decimal `json:"startBalance"`
		EndBalance   decimal.Decimal `json:"endBalance"`
		Yield        float64         `json:"yield"`
		Profit       decimal.Decimal `json:"profit"`
	}

	Forecast struct {
		Month                 core.Month      `json:"month"`
		MonthsPassed          int             `json:"monthsPassed"`
		MonthYield            float64         `json:"monthYield"`
		MonthProfit           decimal.Decimal `json:"monthProfit"`
		EndBalance            decimal.Decimal `json:"endBalance"`
		ContributedCapital    decimal.Decimal `json:"contributedCapital"`
		YTDReturn             float64         `json:"ytdReturn"`
		YTDProfit             decimal.Decimal `json:"ytdProfit"`
		ProjectedAnnualReturn float64         `json:"projectedAnnualReturn"`
		ProjectedAnnualProfit decimal.Decimal `json:"projectedAnnualProfit"`
		MeanYield             float64         `json:"meanYield"`
		YieldStdDev           float64         `json:"yieldStdDev"`
		Chain                 []ChainEntry    `json:"chain"`
	}
)

// BuildForecast walks months in order and reduces them into a yield chain.
// The first month with a document contributes a zero yield and its whole
// balance as capital. Months without a document contribute a zero yield and
// carry the previous balance forward.
func BuildForecast(months []MonthInput) Forecast {
	f := Forecast{Chain: make([]ChainEntry, 0, len(months))}
	var (
		balance decimal.Decimal
		seen    bool
		yields  []float64
		later   []float64
	)
	for _, in := range months {
		e := ChainEntry{Month: in.Month, StartBalance: balance, EndBalance: balance}
		if in.Document != nil {
			e.Present = true
			e.EndBalance = Balance(MergeTransfers(in.Document, in.Transfers))
			if !seen {
				f.ContributedCapital = e.EndBalance
				seen = true
			} else {
				deposits, withdraws := TransferTotals(in.Transfers)
				f.ContributedCapital = f.ContributedCapital.Add(deposits.Sub(withdraws))
				e.Yield = MonthlyYield(balance, e.EndBalance, in.Transfers)
				e.Profit = e.EndBalance.Sub(balance.Add(deposits.Sub(withdraws)))
				later = append(later, e.Yield)
			}
			balance = e.EndBalance
		}
		yields = append(yields, e.Yield)
		f.Chain = append(f.Chain, e)
	}
	if len(f.Chain) == 0 {
		return f
	}

	last := f.Chain[len(f.Chain)-1]
	f.Month = last.Month
	f.MonthsPassed = len(f.Chain)
	f.MonthYield = last.Yield
	f.MonthProfit = last.Profit
	f.EndBalance = balance
	f.YTDReturn = CalculateYTD(yields)
	f.YTDProfit = balance.Sub(f.ContributedCapital)
	f.ProjectedAnnualReturn = CalculateProjectedAnnual(f.YTDReturn, f.MonthsPassed)
	f.ProjectedAnnualProfit = f.YTDProfit.Mul(decimal.NewFromInt(monthsPerYear)).Div(decimal.NewFromInt(int64(f.MonthsPassed)))
	if len(later) >= 2 {
		f.MeanYield = stat.Mean(later, nil)
		f.YieldStdDev = stat.StdDev(later, nil)
	}
	return f
}

// CalculateYTD compounds monthly yields: Π(1+y) − 1.
func CalculateYTD(yields []float64) float64 {
	acc := 1.0
	for _, y := range yields {
		acc *= 1 + y
	}
	return acc - 1
}

// CalculateProjectedAnnual annualizes a year-to-date return. A base of zero
// or less is a total loss and returns exactly -1.
func CalculateProjectedAnnual(ytd float64, monthsPassed int) float64 {
	if monthsPassed <= 0 {
		return ytd
	}
	base := 1 + ytd
	if base <= 0 {
		return -1
	}
	return math.Pow(base, float64(monthsPerYear)/float64(monthsPassed)) - 1
}
