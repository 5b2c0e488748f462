package engine

import (
	"github.com/shopspring/decimal"

	"patrimonio/internal/core"
)

type Status string

const (
	StatusNew    Status = "new"
	StatusGhost  Status = "ghost"
	StatusHidden Status = "hidden"
	StatusNormal Status = "normal"
)

var hundred = decimal.NewFromInt(100)

type (
	Delta struct {
		Delta         decimal.Decimal `json:"delta"`
		Percent       float64         `json:"percent"`
		AdjustedStart decimal.Decimal `json:"adjustedStart"`
		PreviousVal   decimal.Decimal `json:"previousVal"`
		CurrentVal    decimal.Decimal `json:"currentVal"`
	}

	AssetComparison struct {
		Delta
		Status Status `json:"status"`
	}

	Comparison struct {
		Assets     map[core.AssetKey]AssetComparison `json:"assets"`
		Categories map[string]Delta                  `json:"categories"`
		Portfolio  Delta                             `json:"portfolio"`
	}
)

// NewDelta measures current against previous after adding the net capital
// that flowed in. Percent is 0 when the adjusted start is not positive.
func NewDelta(previous, current, net decimal.Decimal) Delta {
	d := Delta{
		AdjustedStart: previous.Add(net),
		PreviousVal:   previous,
		CurrentVal:    current,
	}
	d.Delta = current.Sub(d.AdjustedStart)
	if d.AdjustedStart.IsPositive() {
		d.Percent = d.Delta.Div(d.AdjustedStart).Mul(hundred).InexactFloat64()
	}
	return d
}

// Classify assigns exactly one status to an asset.
func Classify(current, previous decimal.Decimal, hadPrevious bool) Status {
	switch {
	case current.IsPositive() && !hadPrevious:
		return StatusNew
	case current.IsZero() && previous.IsPositive():
		return StatusGhost
	case current.IsZero() && previous.IsZero():
		return StatusHidden
	default:
		return StatusNormal
	}
}

// Compare diffs two snapshots. Category adjustments are the nets of the
// keys whose category part equals the category id.
func Compare(current Snapshot, previous *Snapshot, adj map[core.AssetKey]Adjustment) Comparison {
	if previous == nil {
		empty := BuildSnapshot(nil)
		previous = &empty
	}
	cmp := Comparison{
		Assets:     make(map[core.AssetKey]AssetComparison, len(current.Assets)),
		Categories: make(map[string]Delta, len(current.Categories)),
	}

	keys := make(map[core.AssetKey]struct{}, len(current.Assets)+len(previous.Assets))
	for k := range current.Assets {
		keys[k] = struct{}{}
	}
	for k := range previous.Assets {
		keys[k] = struct{}{}
	}
	for k := range keys {
		cur := current.Assets[k].Val
		prev, had := previous.Assets[k]
		cmp.Assets[k] = AssetComparison{
			Delta:  NewDelta(prev.Val, cur, adj[k].Net),
			Status: Classify(cur, prev.Val, had),
		}
	}

	catNet := map[string]decimal.Decimal{}
	total := decimal.Zero
	for k, a := range adj {
		catNet[k.Category] = catNet[k.Category].Add(a.Net)
		total = total.Add(a.Net)
	}
	cats := map[string]struct{}{}
	for id := range current.Categories {
		cats[id] = struct{}{}
	}
	for id := range previous.Categories {
		cats[id] = struct{}{}
	}
	for id := range cats {
		cmp.Categories[id] = NewDelta(previous.Categories[id].Total, current.Categories[id].Total, catNet[id])
	}
	cmp.Portfolio = NewDelta(previous.Total, current.Total, total)
	return cmp
}
