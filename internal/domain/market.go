package domain

import "encoding/json"

// Catalog maps an item name to its raw price-statistics record as fetched.
type Catalog map[string]json.RawMessage

// CatalogEntry is the evaluable view of one catalog record.
type CatalogEntry struct {
	Name           string
	PriceNow       float64
	PriceReference float64
	Volume         int
}

// Deviation returns the signed percentage of PriceNow relative to PriceReference.
func (e CatalogEntry) Deviation() float64 {
	return (e.PriceNow - e.PriceReference) / e.PriceReference * 100
}

// RankedItem is a catalog entry that passed every filter.
type RankedItem struct {
	Name         string
	Price        float64
	DeviationPct float64
	Volume       int
}

// Band classifies a ranked item by the direction of its deviation.
type Band string

const (
	BandUndervalued Band = "undervalued"
	BandOverheated  Band = "overheated"
)

// SkipReason explains why a catalog record did not make either list.
type SkipReason string

const (
	SkipMissingStats    SkipReason = "missing_stats"
	SkipMalformed       SkipReason = "malformed"
	SkipLowVolume       SkipReason = "low_volume"
	SkipPriceOutOfRange SkipReason = "price_out_of_range"
	SkipNoReference     SkipReason = "no_reference"
	SkipWithinBand      SkipReason = "within_band"
)

// Evaluation is the per-item outcome of a scan: a ranked item in a band, or a skip reason.
type Evaluation struct {
	Item RankedItem
	Band Band
	Skip SkipReason
}

// Ranked reports whether the evaluation produced a listed item.
func (e Evaluation) Ranked() bool {
	return e.Skip == ""
}

// ScanResult holds both ranked lists and the per-reason skip counts.
type ScanResult struct {
	Undervalued []RankedItem
	Overheated  []RankedItem
	Skipped     map[SkipReason]int
}

// Empty reports whether neither list has an item.
func (r ScanResult) Empty() bool {
	return len(r.Undervalued) == 0 && len(r.Overheated) == 0
}
