package core

import "github.com/shopspring/decimal"

const (
	Deposit  TransferKind = "deposit"
	Withdraw TransferKind = "withdraw"
	Move     TransferKind = "move"
)

// NeutralColor is assigned to categories that only exist because a transfer
// referenced them.
const NeutralColor = "#9e9e9e"

type (
	TransferKind string

	// Document is one month of portfolio holdings as stored by a source.
	Document struct {
		Portfolio []Category `json:"portfolio"`
	}

	Category struct {
		ID    string       `json:"id"`
		Title string       `json:"title"`
		Color string       `json:"color"`
		Items []AssetEntry `json:"items"`
	}

	AssetEntry struct {
		Name    string          `json:"name"`
		Source  string          `json:"source"`
		Val     decimal.Decimal `json:"val"`
		Virtual *VirtualState   `json:"virtual,omitempty"`
	}

	// VirtualState records how pending transfers changed an asset.
	VirtualState struct {
		OriginalVal decimal.Decimal   `json:"originalVal"`
		Adjustment  decimal.Decimal   `json:"adjustment"`
		History     []decimal.Decimal `json:"adjustmentHistory"`
	}

	// Transfer is a deposit, a withdraw or a move. Kind selects which fields
	// are meaningful.
	Transfer struct {
		Kind         TransferKind    `json:"type"`
		Category     string          `json:"category,omitempty"`
		Source       string          `json:"source,omitempty"`
		Name         string          `json:"name,omitempty"`
		FromCategory string          `json:"from_category,omitempty"`
		FromSource   string          `json:"from_source,omitempty"`
		FromName     string          `json:"from_name,omitempty"`
		ToCategory   string          `json:"to_category,omitempty"`
		ToSource     string          `json:"to_source,omitempty"`
		ToName       string          `json:"to_name,omitempty"`
		Amount       decimal.Decimal `json:"amount"`
	}

	TransferMeta struct {
		Date string `json:"date,omitempty"`
	}

	TransferFile struct {
		Meta      TransferMeta `json:"meta"`
		Transfers []Transfer   `json:"transfers"`
	}
)

// IsVirtual reports whether transfers were merged into this asset.
func (a AssetEntry) IsVirtual() bool {
	return a.Virtual != nil
}

// Magnitude returns the amount as a non-negative value; the sign of a
// transfer is carried by its kind.
func (t Transfer) Magnitude() decimal.Decimal {
	return t.Amount.Abs()
}

// Target is the asset a deposit or withdraw applies to.
func (t Transfer) Target() AssetKey {
	return NewAssetKey(t.Category, t.Source, t.Name)
}

// From is the debited side of a move.
func (t Transfer) From() AssetKey {
	return NewAssetKey(t.FromCategory, t.FromSource, t.FromName)
}

// To is the credited side of a move.
func (t Transfer) To() AssetKey {
	return NewAssetKey(t.ToCategory, t.ToSource, t.ToName)
}

// Clone returns a deep copy so callers can merge transfers without touching
// the document a source handed out.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{}
	if d.Portfolio != nil {
		out.Portfolio = make([]Category, len(d.Portfolio))
	}
	for i, c := range d.Portfolio {
		cc := c
		if c.Items != nil {
			cc.Items = make([]AssetEntry, len(c.Items))
			for j, it := range c.Items {
				cc.Items[j] = it.clone()
			}
		}
		out.Portfolio[i] = cc
	}
	return out
}

func (a AssetEntry) clone() AssetEntry {
	if a.Virtual == nil {
		return a
	}
	v := *a.Virtual
	v.History = append([]decimal.Decimal(nil), a.Virtual.History...)
	a.Virtual = &v
	return a
}
