// Package narrative renders scan results and news items into the fixed text
// blocks used as prompt bodies.
package narrative

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ChuheLin/cs2-wang/internal/domain"
)

const (
	undervaluedHeader = "【超跌榜：低于 30 日均价】"
	overheatedHeader  = "【过热榜：高于 30 日均价】"
	emptySection      = "- 无符合条件的饰品"
)

// Market renders both ranked lists, one line per item.
func Market(result domain.ScanResult) string {
	var b strings.Builder

	writeSection(&b, undervaluedHeader, result.Undervalued)
	b.WriteString("\n")
	writeSection(&b, overheatedHeader, result.Overheated)

	return strings.TrimRight(b.String(), "\n")
}

func writeSection(b *strings.Builder, header string, items []domain.RankedItem) {
	b.WriteString(header)
	b.WriteString("\n")
	if len(items) == 0 {
		b.WriteString(emptySection)
		b.WriteString("\n")
		return
	}
	for _, item := range items {
		b.WriteString(ItemLine(item))
		b.WriteString("\n")
	}
}

// ItemLine formats one ranked item: name, price, signed deviation, volume.
func ItemLine(item domain.RankedItem) string {
	return fmt.Sprintf("- %s: 现价 $%s | 偏离 %s | 24h成交 %d",
		item.Name, Price(item.Price), SignedPercent(item.DeviationPct), item.Volume)
}

// Price renders a currency amount with two decimals.
func Price(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// SignedPercent renders a percentage with two decimals and an explicit sign.
func SignedPercent(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	if d.IsNegative() {
		return d.StringFixed(2) + "%"
	}
	return "+" + d.StringFixed(2) + "%"
}

// News renders each item as "- title: summary".
func News(items []domain.NewsItem) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		title := strings.TrimSpace(item.Title)
		summary := strings.TrimSpace(item.Summary)
		if summary == "" {
			lines = append(lines, "- "+title)
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", title, summary))
	}
	return strings.Join(lines, "\n")
}
