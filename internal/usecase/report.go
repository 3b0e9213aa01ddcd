package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/ChuheLin/cs2-wang/internal/config"
	"github.com/ChuheLin/cs2-wang/internal/domain"
	"github.com/ChuheLin/cs2-wang/internal/narrative"
	"github.com/ChuheLin/cs2-wang/internal/ports"
)

const noHeadlines = "- 今日暂无新闻"

// ReportPipeline writes a market commentary from the latest feed headlines, without audio.
type ReportPipeline struct {
	base
	source ports.NewsSource
}

var _ Pipeline = (*ReportPipeline)(nil)

// NewReportPipeline constructs the market commentary pipeline.
func NewReportPipeline(cfg config.PipelineConfig, deps PipelineDeps) (*ReportPipeline, error) {
	cfg.Narrate = false
	b, err := newBase(domain.KindReport, cfg, deps)
	if err != nil {
		return nil, err
	}
	return &ReportPipeline{base: b, source: deps.News}, nil
}

// Run takes the first feed entries regardless of age and publishes the commentary.
func (p *ReportPipeline) Run(ctx context.Context, now time.Time) (*domain.Report, error) {
	log := p.runLogger()
	if !p.generator.Enabled() {
		log.Info("no model credential configured; skipping")
		return nil, nil
	}

	headlines := domain.Limit(fetchNews(ctx, p.source, log), p.cfg.MaxItems)
	content := narrative.News(headlines)
	if len(headlines) == 0 {
		content = noHeadlines
	}
	log.Info("headlines collected", "count", len(headlines))

	return p.deliver(ctx, log, now, content)
}

func fetchNews(ctx context.Context, source ports.NewsSource, log *slog.Logger) []domain.NewsItem {
	if source == nil {
		return nil
	}
	items, err := source.Fetch(ctx)
	if err != nil {
		log.Warn("feed unavailable; continuing without news", "error", err)
		return nil
	}
	return items
}
