// Package scanner ranks catalog items whose current price strays from its
// 30-day reference. It performs no I/O and never fails: records it cannot
// evaluate are skipped with a reason.
package scanner

import (
	"bytes"
	"cmp"
	"encoding/json"
	"slices"
	"strconv"
	"strings"

	"github.com/ChuheLin/cs2-wang/internal/config"
	"github.com/ChuheLin/cs2-wang/internal/domain"
)

// Scanner applies a fixed ScannerConfig to catalog snapshots.
type Scanner struct {
	cfg config.ScannerConfig
}

// New builds a scanner with the given thresholds.
func New(cfg config.ScannerConfig) *Scanner {
	return &Scanner{cfg: cfg}
}

// Config returns the thresholds the scanner was built with.
func (s *Scanner) Config() config.ScannerConfig {
	return s.cfg
}

// Scan evaluates every catalog record and returns both ranked lists.
func (s *Scanner) Scan(catalog domain.Catalog) domain.ScanResult {
	result := domain.ScanResult{Skipped: map[domain.SkipReason]int{}}

	for name, raw := range catalog {
		eval := s.Evaluate(name, raw)
		if !eval.Ranked() {
			result.Skipped[eval.Skip]++
			continue
		}
		switch eval.Band {
		case domain.BandUndervalued:
			result.Undervalued = append(result.Undervalued, eval.Item)
		case domain.BandOverheated:
			result.Overheated = append(result.Overheated, eval.Item)
		}
	}

	slices.SortFunc(result.Undervalued, func(a, b domain.RankedItem) int {
		return cmp.Or(cmp.Compare(a.DeviationPct, b.DeviationPct), strings.Compare(a.Name, b.Name))
	})
	slices.SortFunc(result.Overheated, func(a, b domain.RankedItem) int {
		return cmp.Or(cmp.Compare(b.DeviationPct, a.DeviationPct), strings.Compare(a.Name, b.Name))
	})

	result.Undervalued = truncate(result.Undervalued, s.cfg.TopN)
	result.Overheated = truncate(result.Overheated, s.cfg.TopN)
	return result
}

// Evaluate classifies a single raw record.
func (s *Scanner) Evaluate(name string, raw json.RawMessage) domain.Evaluation {
	entry, skip := parseEntry(name, raw)
	if skip != "" {
		return domain.Evaluation{Skip: skip}
	}

	if entry.Volume < s.cfg.MinVolume {
		return domain.Evaluation{Skip: domain.SkipLowVolume}
	}
	if entry.PriceNow < s.cfg.MinPrice || entry.PriceNow > s.cfg.MaxPrice {
		return domain.Evaluation{Skip: domain.SkipPriceOutOfRange}
	}
	if entry.PriceReference <= 0 {
		return domain.Evaluation{Skip: domain.SkipNoReference}
	}

	item := domain.RankedItem{
		Name:         entry.Name,
		Price:        entry.PriceNow,
		DeviationPct: entry.Deviation(),
		Volume:       entry.Volume,
	}

	switch {
	case item.DeviationPct < s.cfg.UndervaluedBelow:
		return domain.Evaluation{Item: item, Band: domain.BandUndervalued}
	case item.DeviationPct > s.cfg.OverheatedAbove:
		return domain.Evaluation{Item: item, Band: domain.BandOverheated}
	default:
		return domain.Evaluation{Skip: domain.SkipWithinBand}
	}
}

type rawRecord struct {
	Price *struct {
		Day *struct {
			Average json.RawMessage `json:"average"`
			Median  json.RawMessage `json:"median"`
			Sold    json.RawMessage `json:"sold"`
		} `json:"24_hours"`
		Month *struct {
			Average json.RawMessage `json:"average"`
		} `json:"30_days"`
	} `json:"price"`
}

func parseEntry(name string, raw json.RawMessage) (domain.CatalogEntry, domain.SkipReason) {
	var rec rawRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.CatalogEntry{}, domain.SkipMalformed
	}
	if rec.Price == nil || rec.Price.Day == nil || rec.Price.Month == nil {
		return domain.CatalogEntry{}, domain.SkipMissingStats
	}

	now, ok := currentPrice(rec.Price.Day.Average, rec.Price.Day.Median)
	if !ok {
		return domain.CatalogEntry{}, domain.SkipMalformed
	}
	ref, ok := parsePrice(rec.Price.Month.Average)
	if !ok {
		return domain.CatalogEntry{}, domain.SkipMalformed
	}

	return domain.CatalogEntry{
		Name:           name,
		PriceNow:       now,
		PriceReference: ref,
		Volume:         parseVolume(rec.Price.Day.Sold),
	}, ""
}

// currentPrice prefers the 24h average and falls back to the median when the
// average is zero or absent. This treats "no trades" and "zero price" alike.
// A non-numeric average makes the record malformed whatever the median says.
func currentPrice(average, median json.RawMessage) (float64, bool) {
	v, ok := parsePrice(average)
	if !ok {
		return 0, false
	}
	if v != 0 {
		return v, true
	}
	return parsePrice(median)
}

// parsePrice accepts a JSON number or a numeric string. Absent and null values
// read as zero so that the caller can fall back or filter on them.
func parsePrice(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, true
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseVolume reads an integer or a digit string with thousands separators.
// Anything else is zero volume.
func parseVolume(raw json.RawMessage) int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if v, err := n.Int64(); err == nil && v > 0 {
			return int(v)
		}
		if f, err := n.Float64(); err == nil && f > 0 {
			return int(f)
		}
		return 0
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	s = strings.NewReplacer(",", "", "_", "", " ", "").Replace(strings.TrimSpace(s))
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func truncate(items []domain.RankedItem, n int) []domain.RankedItem {
	if n >= 0 && len(items) > n {
		return items[:n]
	}
	return items
}
