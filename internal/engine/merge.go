package engine

import (
	"github.com/shopspring/decimal"

	"patrimonio/internal/core"
)

// MergeTransfers applies transfers, in order, to a deep copy of doc and
// returns the copy. Touched assets carry a VirtualState; assets and
// categories a transfer names but the document lacks are created at zero.
// A move is applied as a withdraw on its from side followed by a deposit on
// its to side.
func MergeTransfers(doc *core.Document, transfers []core.Transfer) *core.Document {
	out := doc.Clone()
	if len(transfers) == 0 {
		return out
	}
	if out == nil {
		out = &core.Document{}
	}
	for _, t := range transfers {
		amount := t.Magnitude()
		switch t.Kind {
		case core.Deposit:
			applyDelta(out, t.Category, t.Source, t.Name, amount)
		case core.Withdraw:
			applyDelta(out, t.Category, t.Source, t.Name, amount.Neg())
		case core.Move:
			applyDelta(out, t.FromCategory, t.FromSource, t.FromName, amount.Neg())
			applyDelta(out, t.ToCategory, t.ToSource, t.ToName, amount)
		}
	}
	return out
}

func applyDelta(doc *core.Document, category, source, name string, delta decimal.Decimal) {
	c := findOrCreateCategory(doc, category)
	it := findOrCreateAsset(c, source, name)
	if it.Virtual == nil {
		it.Virtual = &core.VirtualState{OriginalVal: it.Val}
	}
	it.Val = it.Val.Add(delta)
	it.Virtual.Adjustment = it.Virtual.Adjustment.Add(delta)
	it.Virtual.History = append(it.Virtual.History, delta)
}

func findOrCreateCategory(doc *core.Document, id string) *core.Category {
	want := core.NormalizeKeyPart(id)
	for i := range doc.Portfolio {
		if core.NormalizeKeyPart(doc.Portfolio[i].ID) == want {
			return &doc.Portfolio[i]
		}
	}
	doc.Portfolio = append(doc.Portfolio, core.Category{
		ID:    id,
		Title: id,
		Color: core.NeutralColor,
		Items: []core.AssetEntry{},
	})
	return &doc.Portfolio[len(doc.Portfolio)-1]
}

// findOrCreateAsset picks the last matching entry so the merged value lands
// on the record a snapshot keeps for that key.
func findOrCreateAsset(c *core.Category, source, name string) *core.AssetEntry {
	want := core.NewAssetKey(c.ID, source, name)
	for i := len(c.Items) - 1; i >= 0; i-- {
		if core.NewAssetKey(c.ID, c.Items[i].Source, c.Items[i].Name) == want {
			return &c.Items[i]
		}
	}
	c.Items = append(c.Items, core.AssetEntry{Name: name, Source: source})
	return &c.Items[len(c.Items)-1]
}
