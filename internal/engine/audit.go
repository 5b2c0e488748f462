package engine

import (
	"github.com/shopspring/decimal"

	"patrimonio/internal/core"
)

// AuditLine explains how transfers moved one virtual asset.
type AuditLine struct {
	Key         core.AssetKey     `json:"key"`
	Category    string            `json:"category"`
	Source      string            `json:"source"`
	Name        string            `json:"name"`
	OriginalVal decimal.Decimal   `json:"originalVal"`
	History     []decimal.Decimal `json:"adjustmentHistory"`
	FinalVal    decimal.Decimal   `json:"finalVal"`
}

// AuditTrail lists the virtual assets of a merged document in document order.
func AuditTrail(doc *core.Document) []AuditLine {
	if doc == nil {
		return nil
	}
	var out []AuditLine
	for _, c := range doc.Portfolio {
		for _, it := range c.Items {
			if !it.IsVirtual() {
				continue
			}
			out = append(out, AuditLine{
				Key:         core.NewAssetKey(c.ID, it.Source, it.Name),
				Category:    c.ID,
				Source:      it.Source,
				Name:        it.Name,
				OriginalVal: it.Virtual.OriginalVal,
				History:     append([]decimal.Decimal(nil), it.Virtual.History...),
				FinalVal:    it.Val,
			})
		}
	}
	return out
}
