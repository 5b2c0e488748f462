package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patrimonio/internal/core"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleDoc() *core.Document {
	return &core.Document{Portfolio: []core.Category{
		{ID: "stocks", Title: "Stocks", Color: "#111", Items: []core.AssetEntry{
			{Name: "ACME", Source: "Broker", Val: d("1000.10")},
			{Name: "Globex", Source: "Broker", Val: d("250.25")},
		}},
		{ID: "cash", Title: "Cash", Color: "#222", Items: []core.AssetEntry{
			{Name: "Wallet", Source: "Bank", Val: d("99.65")},
		}},
	}}
}

func deposit(cat, src, name, amount string) core.Transfer {
	return core.Transfer{Kind: core.Deposit, Category: cat, Source: src, Name: name, Amount: d(amount)}
}

func withdraw(cat, src, name, amount string) core.Transfer {
	return core.Transfer{Kind: core.Withdraw, Category: cat, Source: src, Name: name, Amount: d(amount)}
}

func move(fc, fs, fn, tc, ts, tn, amount string) core.Transfer {
	return core.Transfer{
		Kind:         core.Move,
		FromCategory: fc, FromSource: fs, FromName: fn,
		ToCategory: tc, ToSource: ts, ToName: tn,
		Amount: d(amount),
	}
}

func TestBuildSnapshotTotals(t *testing.T) {
	doc := sampleDoc()
	s := BuildSnapshot(doc)

	catSum := decimal.Zero
	for _, c := range s.Categories {
		catSum = catSum.Add(c.Total)
	}
	itemSum := decimal.Zero
	for _, c := range doc.Portfolio {
		for _, it := range c.Items {
			itemSum = itemSum.Add(it.Val)
		}
	}
	assert.True(t, s.Total.Equal(d("1350")), "total %s", s.Total)
	assert.True(t, s.Total.Equal(catSum))
	assert.True(t, s.Total.Equal(itemSum))
	assert.Equal(t, []string{"stocks", "cash"}, s.Order)
	assert.Len(t, s.Assets, 3)
	assert.Contains(t, s.Assets, core.NewAssetKey("STOCKS", "broker", "acme"))
}

func TestBuildSnapshotEmpty(t *testing.T) {
	for _, doc := range []*core.Document{nil, {}} {
		s := BuildSnapshot(doc)
		assert.True(t, s.Total.IsZero())
		assert.Empty(t, s.Categories)
		assert.Empty(t, s.Assets)
	}
}

func TestBuildSnapshotDuplicateKeys(t *testing.T) {
	doc := &core.Document{Portfolio: []core.Category{{ID: "cash", Items: []core.AssetEntry{
		{Name: "Wallet", Source: "Bank", Val: d("10")},
		{Name: "wallet ", Source: "BANK", Val: d("20")},
	}}}}
	s := BuildSnapshot(doc)
	require.Len(t, s.Assets, 1)
	assert.True(t, s.Assets[core.NewAssetKey("cash", "bank", "wallet")].Val.Equal(d("20")))
	assert.True(t, s.Total.Equal(d("30")))
}

func TestMergeEmptyIsIdempotent(t *testing.T) {
	doc := sampleDoc()
	merged := MergeTransfers(doc, nil)
	require.NotSame(t, doc, merged)
	assert.Equal(t, doc, merged)
	for _, c := range merged.Portfolio {
		for _, it := range c.Items {
			assert.False(t, it.IsVirtual())
		}
	}
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	doc := sampleDoc()
	before := doc.Clone()
	_ = MergeTransfers(doc, []core.Transfer{deposit("stocks", "Broker", "ACME", "5")})
	assert.Equal(t, before, doc)
}

func TestMergeHistoryAndOriginal(t *testing.T) {
	merged := MergeTransfers(sampleDoc(), []core.Transfer{
		deposit("stocks", "broker", "acme", "100"),
		withdraw("Stocks", "Broker", "ACME", "30"),
		deposit("stocks", "broker", "acme", "-5"),
	})
	it := merged.Portfolio[0].Items[0]
	require.True(t, it.IsVirtual())
	assert.True(t, it.Virtual.OriginalVal.Equal(d("1000.10")))
	assert.True(t, it.Virtual.Adjustment.Equal(d("75")))
	assert.True(t, it.Val.Equal(d("1075.10")))
	require.Len(t, it.Virtual.History, 3)
	assert.True(t, it.Virtual.History[0].Equal(d("100")))
	assert.True(t, it.Virtual.History[1].Equal(d("-30")))
	assert.True(t, it.Virtual.History[2].Equal(d("5")))
}

func TestMergeSynthesizesCategoryAndAsset(t *testing.T) {
	merged := MergeTransfers(sampleDoc(), []core.Transfer{deposit("crypto", "Exchange", "BTC", "300")})
	require.Len(t, merged.Portfolio, 3)
	c := merged.Portfolio[2]
	assert.Equal(t, "crypto", c.ID)
	assert.Equal(t, "crypto", c.Title)
	assert.Equal(t, core.NeutralColor, c.Color)
	require.Len(t, c.Items, 1)
	assert.True(t, c.Items[0].Virtual.OriginalVal.IsZero())
	assert.True(t, c.Items[0].Val.Equal(d("300")))
}

func TestMergeNilDocument(t *testing.T) {
	assert.Nil(t, MergeTransfers(nil, nil))
	merged := MergeTransfers(nil, []core.Transfer{deposit("cash", "bank", "wallet", "10")})
	require.NotNil(t, merged)
	assert.True(t, Balance(merged).Equal(d("10")))
}

func TestMoveIsNeutral(t *testing.T) {
	doc := sampleDoc()
	transfers := []core.Transfer{
		move("stocks", "broker", "acme", "cash", "bank", "wallet", "400"),
		move("cash", "bank", "wallet", "bonds", "broker", "btp", "50.5"),
		{Kind: "split", Amount: d("7")},
	}
	merged := MergeTransfers(doc, transfers)
	assert.True(t, Balance(merged).Equal(Balance(doc)))

	adj := AggregateAdjustments(transfers)
	net := decimal.Zero
	for _, a := range adj {
		net = net.Add(a.Net)
	}
	assert.True(t, net.IsZero())

	deps, wds := TransferTotals(transfers)
	assert.True(t, deps.IsZero())
	assert.True(t, wds.IsZero())
}

func TestAggregateAdjustments(t *testing.T) {
	adj := AggregateAdjustments([]core.Transfer{
		deposit("cash", "bank", "wallet", "200"),
		withdraw("cash", "Bank", "Wallet", "50"),
		move("cash", "bank", "wallet", "stocks", "broker", "acme", "25"),
	})
	w := adj[core.NewAssetKey("cash", "bank", "wallet")]
	assert.True(t, w.Deposits.Equal(d("200")))
	assert.True(t, w.Withdraws.Equal(d("75")))
	assert.True(t, w.Net.Equal(d("125")))
	a := adj[core.NewAssetKey("stocks", "broker", "acme")]
	assert.True(t, a.Deposits.Equal(d("25")))
	assert.True(t, a.Net.Equal(d("25")))
}

func TestCompareGhostAsset(t *testing.T) {
	prev := BuildSnapshot(&core.Document{Portfolio: []core.Category{{ID: "cash", Items: []core.AssetEntry{
		{Name: "Wallet", Source: "Bank", Val: d("500")},
	}}}})
	cur := BuildSnapshot(&core.Document{Portfolio: []core.Category{{ID: "cash", Items: []core.AssetEntry{
		{Name: "Wallet", Source: "Bank", Val: d("0")},
	}}}})
	cmp := Compare(cur, &prev, nil)
	a := cmp.Assets[core.NewAssetKey("cash", "bank", "wallet")]
	assert.Equal(t, StatusGhost, a.Status)
	assert.True(t, a.Delta.Delta.Equal(d("-500")))
	assert.InDelta(t, -100.0, a.Percent, 1e-9)
}

func TestCompareDepositFundedNewAsset(t *testing.T) {
	prev := BuildSnapshot(&core.Document{Portfolio: []core.Category{{ID: "cash"}}})
	cur := BuildSnapshot(&core.Document{Portfolio: []core.Category{{ID: "stocks", Items: []core.AssetEntry{
		{Name: "ACME", Source: "Broker", Val: d("300")},
	}}}})
	adj := AggregateAdjustments([]core.Transfer{deposit("stocks", "broker", "acme", "300")})
	cmp := Compare(cur, &prev, adj)

	a := cmp.Assets[core.NewAssetKey("stocks", "broker", "acme")]
	assert.Equal(t, StatusNew, a.Status)
	assert.True(t, a.AdjustedStart.Equal(d("300")))
	assert.True(t, a.Delta.Delta.IsZero())
	assert.Zero(t, a.Percent)

	assert.True(t, cmp.Categories["stocks"].AdjustedStart.Equal(d("300")))
	assert.True(t, cmp.Portfolio.AdjustedStart.Equal(d("300")))
	assert.Zero(t, cmp.Portfolio.Percent)
}

func TestCompareCategoryAdjustmentIsStructural(t *testing.T) {
	doc := &core.Document{Portfolio: []core.Category{
		{ID: "stock", Items: []core.AssetEntry{{Name: "a", Source: "x", Val: d("100")}}},
		{ID: "stock_x", Items: []core.AssetEntry{{Name: "b", Source: "y", Val: d("100")}}},
	}}
	snap := BuildSnapshot(doc)
	adj := AggregateAdjustments([]core.Transfer{deposit("stock_x", "y", "b", "40")})
	cmp := Compare(snap, &snap, adj)

	assert.True(t, cmp.Categories["stock"].AdjustedStart.Equal(d("100")))
	assert.True(t, cmp.Categories["stock_x"].AdjustedStart.Equal(d("140")))
}

func TestStatusPartitionIsExhaustive(t *testing.T) {
	vals := []string{"-10", "0", "10"}
	for _, cur := range vals {
		for _, prev := range vals {
			for _, had := range []bool{true, false} {
				p := d(prev)
				if !had {
					p = decimal.Zero
				}
				st := Classify(d(cur), p, had)
				assert.Contains(t, []Status{StatusNew, StatusGhost, StatusHidden, StatusNormal}, st)
			}
		}
	}
	assert.Equal(t, StatusNew, Classify(d("1"), decimal.Zero, false))
	assert.Equal(t, StatusGhost, Classify(decimal.Zero, d("1"), true))
	assert.Equal(t, StatusHidden, Classify(decimal.Zero, decimal.Zero, true))
	assert.Equal(t, StatusHidden, Classify(decimal.Zero, decimal.Zero, false))
	assert.Equal(t, StatusNormal, Classify(d("1"), d("1"), true))
}

func TestCalculatePerformanceScenario(t *testing.T) {
	transfers := []core.Transfer{
		deposit("cash", "bank", "wallet", "200"),
		withdraw("cash", "bank", "wallet", "50"),
		move("cash", "bank", "wallet", "stocks", "broker", "acme", "999"),
	}
	p := CalculatePerformance(d("1000"), d("1200"), transfers, false)
	assert.True(t, p.NetFlow.Equal(d("150")))
	assert.True(t, p.Profit.Equal(d("50")))
	assert.True(t, p.InvestedCapital.Equal(d("1200")))
	assert.InDelta(t, 4.1667, p.YieldPercent, 1e-3)
}

func TestCalculatePerformanceZeroKilometer(t *testing.T) {
	p := CalculatePerformance(d("1000"), d("5000"), []core.Transfer{deposit("a", "b", "c", "10")}, true)
	assert.True(t, p.FirstMonth)
	assert.True(t, p.Profit.IsZero())
	assert.Zero(t, p.YieldPercent)
	assert.True(t, p.StartBalance.IsZero())
	assert.True(t, p.Deposits.Equal(d("5000")))
}

func TestCalculatePerformanceNoCapital(t *testing.T) {
	p := CalculatePerformance(decimal.Zero, d("40"), nil, false)
	assert.Equal(t, 100.0, p.YieldPercent)

	p = CalculatePerformance(decimal.Zero, d("-5"), nil, false)
	assert.Zero(t, p.YieldPercent)
}

func TestMonthlyYield(t *testing.T) {
	y := MonthlyYield(d("1000"), d("1200"), []core.Transfer{
		deposit("cash", "bank", "wallet", "200"),
		withdraw("cash", "bank", "wallet", "50"),
	})
	assert.InDelta(t, 0.041667, y, 1e-5)
	assert.Equal(t, 1.0, MonthlyYield(decimal.Zero, d("10"), nil))
}

func TestCalculateYTD(t *testing.T) {
	assert.InDelta(t, -0.01, CalculateYTD([]float64{0.1, -0.1}), 1e-12)
	assert.Zero(t, CalculateYTD(nil))
}

func TestCalculateProjectedAnnual(t *testing.T) {
	assert.Equal(t, -1.0, CalculateProjectedAnnual(-1.5, 6))
	assert.Equal(t, -1.0, CalculateProjectedAnnual(-1, 3))
	assert.Equal(t, 0.2, CalculateProjectedAnnual(0.2, 0))
	assert.InDelta(t, 0.21, CalculateProjectedAnnual(0.1, 6), 1e-12)
	assert.InDelta(t, 0.1, CalculateProjectedAnnual(0.1, 12), 1e-12)
}

func TestBuildForecast(t *testing.T) {
	doc := func(v string) *core.Document {
		return &core.Document{Portfolio: []core.Category{{ID: "cash", Items: []core.AssetEntry{
			{Name: "Wallet", Source: "Bank", Val: d(v)},
		}}}}
	}
	f := BuildForecast([]MonthInput{
		{Month: core.NewMonth(2024, 1), Document: doc("1000")},
		{Month: core.NewMonth(2024, 2), Document: doc("1100")},
		{Month: core.NewMonth(2024, 3)},
		{Month: core.NewMonth(2024, 4), Document: doc("1089"), Transfers: []core.Transfer{
			deposit("cash", "bank", "wallet", "100"),
		}},
	})

	require.Len(t, f.Chain, 4)
	assert.Zero(t, f.Chain[0].Yield)
	assert.InDelta(t, 0.1, f.Chain[1].Yield, 1e-12)
	assert.False(t, f.Chain[2].Present)
	assert.Zero(t, f.Chain[2].Yield)
	assert.True(t, f.Chain[2].EndBalance.Equal(d("1100")))

	// April: start 1100, deposit 100, merged end 1189.
	assert.True(t, f.EndBalance.Equal(d("1189")))
	assert.InDelta(t, -0.0091667, f.MonthYield, 1e-6)
	assert.True(t, f.MonthProfit.Equal(d("-11")))

	assert.Equal(t, 4, f.MonthsPassed)
	assert.Equal(t, core.NewMonth(2024, 4), f.Month)
	assert.True(t, f.ContributedCapital.Equal(d("1100")))
	assert.True(t, f.YTDProfit.Equal(d("89")))
	assert.InDelta(t, 1.1*(1-0.11/12)-1, f.YTDReturn, 1e-9)
	assert.InDelta(t, CalculateProjectedAnnual(f.YTDReturn, 4), f.ProjectedAnnualReturn, 1e-12)
	assert.True(t, f.ProjectedAnnualProfit.Equal(d("267")))
	assert.InDelta(t, (0.1-0.11/12)/2, f.MeanYield, 1e-9)
	assert.Greater(t, f.YieldStdDev, 0.0)
}

func TestBuildForecastLeadingGap(t *testing.T) {
	f := BuildForecast([]MonthInput{
		{Month: core.NewMonth(2024, 1)},
		{Month: core.NewMonth(2024, 2), Document: &core.Document{Portfolio: []core.Category{{ID: "cash", Items: []core.AssetEntry{
			{Name: "w", Source: "b", Val: d("500")},
		}}}}},
	})
	assert.Zero(t, f.YTDReturn)
	assert.True(t, f.YTDProfit.IsZero())
	assert.True(t, f.ContributedCapital.Equal(d("500")))
	assert.Zero(t, f.YieldStdDev)
	assert.Equal(t, 2, f.MonthsPassed)
}

func TestBuildForecastEmpty(t *testing.T) {
	f := BuildForecast(nil)
	assert.Empty(t, f.Chain)
	assert.Zero(t, f.MonthsPassed)
}

func TestAuditTrail(t *testing.T) {
	merged := MergeTransfers(sampleDoc(), []core.Transfer{
		withdraw("cash", "bank", "wallet", "9.65"),
		deposit("cash", "bank", "wallet", "10"),
	})
	lines := AuditTrail(merged)
	require.Len(t, lines, 1)
	l := lines[0]
	assert.Equal(t, core.NewAssetKey("cash", "bank", "wallet"), l.Key)
	assert.True(t, l.OriginalVal.Equal(d("99.65")))
	assert.True(t, l.FinalVal.Equal(d("100")))
	assert.Len(t, l.History, 2)
	assert.Nil(t, AuditTrail(nil))
}
