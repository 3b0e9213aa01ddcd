package usecase

import (
	"context"
	"time"

	"github.com/ChuheLin/cs2-wang/internal/config"
	"github.com/ChuheLin/cs2-wang/internal/domain"
	"github.com/ChuheLin/cs2-wang/internal/narrative"
	"github.com/ChuheLin/cs2-wang/internal/ports"
	"github.com/ChuheLin/cs2-wang/internal/scanner"
)

// MarketPipeline scans the price catalog and publishes the undervalued/overheated report.
type MarketPipeline struct {
	base
	source  ports.CatalogSource
	scanner *scanner.Scanner
}

var _ Pipeline = (*MarketPipeline)(nil)

// NewMarketPipeline constructs the market pipeline.
func NewMarketPipeline(cfg config.PipelineConfig, sc *scanner.Scanner, deps PipelineDeps) (*MarketPipeline, error) {
	b, err := newBase(domain.KindMarket, cfg, deps)
	if err != nil {
		return nil, err
	}
	if sc == nil {
		sc = scanner.New(config.DefaultScannerConfig())
	}
	return &MarketPipeline{base: b, source: deps.Catalog, scanner: sc}, nil
}

// Run fetches the catalog, ranks it and publishes when either list is non-empty.
func (p *MarketPipeline) Run(ctx context.Context, now time.Time) (*domain.Report, error) {
	log := p.runLogger()
	if !p.generator.Enabled() {
		log.Info("no model credential configured; skipping")
		return nil, nil
	}

	var catalog domain.Catalog
	if p.source != nil {
		fetched, err := p.source.Fetch(ctx)
		if err != nil {
			log.Warn("catalog unavailable; continuing with empty catalog", "error", err)
		} else {
			catalog = fetched
		}
	}

	thresholds := p.scanner.Config()
	result := p.scanner.Scan(catalog)
	log.Info("catalog scanned",
		"undervalued_below", thresholds.UndervaluedBelow,
		"overheated_above", thresholds.OverheatedAbove,
		"min_volume", thresholds.MinVolume,
		"items", len(catalog),
		"undervalued", len(result.Undervalued),
		"overheated", len(result.Overheated),
		"skipped", result.Skipped,
	)
	if result.Empty() {
		log.Info("no item outside the deviation band; nothing to publish")
		return nil, nil
	}

	return p.deliver(ctx, log, now, narrative.Market(result))
}
