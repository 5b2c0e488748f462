// Package engine holds the portfolio computations: snapshots, transfer
// merging, month-over-month comparison, single-month performance and the
// year-to-date yield chain. Every function here is pure and never mutates
// its inputs.
package engine

import (
	"github.com/shopspring/decimal"

	"patrimonio/internal/core"
)

type (
	AssetRecord struct {
		Key      core.AssetKey   `json:"-"`
		Category string          `json:"category"`
		Source   string          `json:"source"`
		Name     string          `json:"name"`
		Val      decimal.Decimal `json:"val"`
		Virtual  bool            `json:"isVirtual"`
	}

	CategorySnapshot struct {
		ID     string                        `json:"id"`
		Title  string                        `json:"title"`
		Color  string                        `json:"color"`
		Total  decimal.Decimal               `json:"total"`
		Assets map[core.AssetKey]AssetRecord `json:"assets"`
	}

	// Snapshot is the normalized view of one document. Categories are keyed
	// by their normalized id; Order keeps document order.
	Snapshot struct {
		Total      decimal.Decimal               `json:"total"`
		Categories map[string]CategorySnapshot   `json:"categories"`
		Order      []string                      `json:"order"`
		Assets     map[core.AssetKey]AssetRecord `json:"assets"`
	}
)

// BuildSnapshot sums a document into category totals and a grand total.
// Every item counts towards the totals; in the asset maps a duplicate key
// keeps the last entry. A nil document yields an empty snapshot.
func BuildSnapshot(doc *core.Document) Snapshot {
	s := Snapshot{
		Categories: map[string]CategorySnapshot{},
		Order:      []string{},
		Assets:     map[core.AssetKey]AssetRecord{},
	}
	if doc == nil {
		return s
	}
	for _, c := range doc.Portfolio {
		id := core.NormalizeKeyPart(c.ID)
		cs, ok := s.Categories[id]
		if !ok {
			cs = CategorySnapshot{
				ID:     c.ID,
				Title:  c.Title,
				Color:  c.Color,
				Assets: map[core.AssetKey]AssetRecord{},
			}
			s.Order = append(s.Order, id)
		}
		for _, it := range c.Items {
			rec := AssetRecord{
				Key:      core.NewAssetKey(c.ID, it.Source, it.Name),
				Category: c.ID,
				Source:   it.Source,
				Name:     it.Name,
				Val:      it.Val,
				Virtual:  it.IsVirtual(),
			}
			cs.Total = cs.Total.Add(it.Val)
			cs.Assets[rec.Key] = rec
			s.Assets[rec.Key] = rec
			s.Total = s.Total.Add(it.Val)
		}
		s.Categories[id] = cs
	}
	return s
}

// Balance is the grand total of a document.
func Balance(doc *core.Document) decimal.Decimal {
	return BuildSnapshot(doc).Total
}
