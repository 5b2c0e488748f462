// Package report renders month views and forecasts as markdown, and
// markdown as HTML or styled terminal output.
package report

import (
	"fmt"
	"sort"
	"strings"

	"patrimonio/internal/core"
	"patrimonio/internal/engine"
	"patrimonio/internal/services"
)

// Months lists the available months.
func Months(entries []core.Entry) string {
	var b strings.Builder
	b.WriteString("# Available months\n\n")
	if len(entries) == 0 {
		b.WriteString("_No documents found._\n")
		return b.String()
	}
	for _, e := range entries {
		fmt.Fprintf(&b, "- `%s` %s\n", e.ID, e.Label)
	}
	return b.String()
}

// MonthView renders the holdings of a month, its comparison with the
// previous month, its performance and the pending transfer audit.
func MonthView(v *services.MonthView, m Money) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", v.Label)
	if !v.Found {
		b.WriteString("_No document for this month._\n\n")
	}

	fmt.Fprintf(&b, "**Total:** %s", m.Format(v.Snapshot.Total))
	if v.HasComparison {
		p := v.Comparison.Portfolio
		fmt.Fprintf(&b, " (%s, %s vs %s)", m.Signed(p.Delta), Percent(p.Percent), v.Previous.Label())
	}
	b.WriteString("\n\n")

	printed := map[core.AssetKey]bool{}
	for _, id := range v.Snapshot.Order {
		writeCategory(&b, v, id, v.Snapshot.Categories[id], m, printed)
	}
	if v.HasComparison {
		writeGone(&b, v, m, printed)
	}

	writePerformance(&b, v.Performance, m)
	writeAudit(&b, v.Audit, m)
	return b.String()
}

func writeCategory(b *strings.Builder, v *services.MonthView, id string, cat engine.CategorySnapshot, m Money, printed map[core.AssetKey]bool) {
	title := cat.Title
	if title == "" {
		title = cat.ID
	}
	fmt.Fprintf(b, "## %s: %s", title, m.Format(cat.Total))
	if v.HasComparison {
		if d, ok := v.Comparison.Categories[id]; ok {
			fmt.Fprintf(b, " (%s, %s)", m.Signed(d.Delta), Percent(d.Percent))
		}
	}
	b.WriteString("\n\n")

	keys := categoryKeys(v, id)
	if len(keys) == 0 {
		b.WriteString("_Empty._\n\n")
		return
	}

	if v.HasComparison {
		b.WriteString("| Asset | Source | Value | Previous | Change | % | Status |\n")
		b.WriteString("|---|---|---:|---:|---:|---:|---|\n")
	} else {
		b.WriteString("| Asset | Source | Value |\n")
		b.WriteString("|---|---|---:|\n")
	}
	for _, k := range keys {
		printed[k] = true
		rec, ok := v.Snapshot.Assets[k]
		name, source := k.Name, k.Source
		if ok {
			name, source = rec.Name, rec.Source
			if rec.Virtual {
				name += " *"
			}
		}
		if !v.HasComparison {
			fmt.Fprintf(b, "| %s | %s | %s |\n", cell(name), cell(source), m.Format(rec.Val))
			continue
		}
		c := v.Comparison.Assets[k]
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s | %s | %s |\n",
			cell(name), cell(source), m.Format(c.CurrentVal), m.Format(c.PreviousVal),
			m.Signed(c.Delta.Delta), Percent(c.Percent), c.Status)
	}
	b.WriteString("\n")
}

// categoryKeys lists the current assets of a category in document order,
// followed by assets that only the previous month had.
func categoryKeys(v *services.MonthView, categoryID string) []core.AssetKey {
	var keys []core.AssetKey
	seen := map[core.AssetKey]bool{}
	if v.Merged != nil {
		for _, c := range v.Merged.Portfolio {
			if core.NormalizeKeyPart(c.ID) != categoryID {
				continue
			}
			for _, it := range c.Items {
				k := core.NewAssetKey(c.ID, it.Source, it.Name)
				if !seen[k] {
					seen[k] = true
					keys = append(keys, k)
				}
			}
		}
	}
	if v.HasComparison {
		var extra []core.AssetKey
		for k := range v.Comparison.Assets {
			if k.Category == categoryID && !seen[k] {
				extra = append(extra, k)
			}
		}
		sortKeys(extra)
		keys = append(keys, extra...)
	}
	return keys
}

func writeGone(b *strings.Builder, v *services.MonthView, m Money, printed map[core.AssetKey]bool) {
	var gone []core.AssetKey
	for k, c := range v.Comparison.Assets {
		if !printed[k] && c.Status == engine.StatusGhost {
			gone = append(gone, k)
		}
	}
	if len(gone) == 0 {
		return
	}
	sortKeys(gone)
	fmt.Fprintf(b, "## Gone since %s\n\n", v.Previous.Label())
	for _, k := range gone {
		fmt.Fprintf(b, "- %s / %s / %s: was %s\n", k.Category, k.Source, k.Name, m.Format(v.Comparison.Assets[k].PreviousVal))
	}
	b.WriteString("\n")
}

func writePerformance(b *strings.Builder, p engine.Performance, m Money) {
	b.WriteString("## Performance\n\n")
	if p.FirstMonth {
		fmt.Fprintf(b, "First month on record. Contributed capital: %s.\n\n", m.Format(p.Deposits))
		return
	}
	b.WriteString("| | |\n|---|---:|\n")
	fmt.Fprintf(b, "| Start balance | %s |\n", m.Format(p.StartBalance))
	fmt.Fprintf(b, "| Deposits | %s |\n", m.Format(p.Deposits))
	fmt.Fprintf(b, "| Withdraws | %s |\n", m.Format(p.Withdraws))
	fmt.Fprintf(b, "| End balance | %s |\n", m.Format(p.EndBalance))
	fmt.Fprintf(b, "| Profit | %s |\n", m.Signed(p.Profit))
	fmt.Fprintf(b, "| Yield | %s |\n\n", Percent(p.YieldPercent))
}

func writeAudit(b *strings.Builder, lines []engine.AuditLine, m Money) {
	if len(lines) == 0 {
		return
	}
	b.WriteString("## Pending transfers\n\n")
	b.WriteString("Assets marked * include transfers not yet in the document.\n\n")
	for _, l := range lines {
		steps := make([]string, len(l.History))
		for i, h := range l.History {
			steps[i] = m.Signed(h)
		}
		fmt.Fprintf(b, "- %s / %s / %s: %s %s = %s\n",
			cell(l.Category), cell(l.Source), cell(l.Name),
			m.Format(l.OriginalVal), strings.Join(steps, " "), m.Format(l.FinalVal))
	}
	b.WriteString("\n")
}

// Forecast renders the year-to-date chain and the projection.
func Forecast(f engine.Forecast, m Money) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Forecast %s\n\n", f.Month.Label())

	b.WriteString("| | |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Month yield | %s |\n", Fraction(f.MonthYield))
	fmt.Fprintf(&b, "| Month profit | %s |\n", m.Signed(f.MonthProfit))
	fmt.Fprintf(&b, "| Balance | %s |\n", m.Format(f.EndBalance))
	fmt.Fprintf(&b, "| Contributed capital | %s |\n", m.Format(f.ContributedCapital))
	fmt.Fprintf(&b, "| YTD return | %s |\n", Fraction(f.YTDReturn))
	fmt.Fprintf(&b, "| YTD profit | %s |\n", m.Signed(f.YTDProfit))
	fmt.Fprintf(&b, "| Projected annual return | %s |\n", Fraction(f.ProjectedAnnualReturn))
	fmt.Fprintf(&b, "| Projected annual profit | %s |\n", m.Signed(f.ProjectedAnnualProfit))
	fmt.Fprintf(&b, "| Mean monthly yield | %s |\n", Fraction(f.MeanYield))
	fmt.Fprintf(&b, "| Yield std. dev. | %s |\n\n", Fraction(f.YieldStdDev))

	b.WriteString("## Monthly chain\n\n")
	b.WriteString("| Month | Start | End | Profit | Yield |\n")
	b.WriteString("|---|---:|---:|---:|---:|\n")
	for _, e := range f.Chain {
		if !e.Present {
			fmt.Fprintf(&b, "| %s | | %s | | _no data_ |\n", e.Month.Label(), m.Format(e.EndBalance))
			continue
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			e.Month.Label(), m.Format(e.StartBalance), m.Format(e.EndBalance), m.Signed(e.Profit), Fraction(e.Yield))
	}
	return b.String()
}

func sortKeys(keys []core.AssetKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
}

// cell escapes text for a markdown table cell.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
