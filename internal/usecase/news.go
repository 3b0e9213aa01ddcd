package usecase

import (
	"context"
	"time"

	"github.com/ChuheLin/cs2-wang/internal/config"
	"github.com/ChuheLin/cs2-wang/internal/domain"
	"github.com/ChuheLin/cs2-wang/internal/narrative"
	"github.com/ChuheLin/cs2-wang/internal/ports"
)

// NewsPipeline summarizes the last window of feed entries into a daily news post.
type NewsPipeline struct {
	base
	source ports.NewsSource
	window time.Duration
}

var _ Pipeline = (*NewsPipeline)(nil)

// NewNewsPipeline constructs the news pipeline.
func NewNewsPipeline(cfg config.PipelineConfig, window time.Duration, deps PipelineDeps) (*NewsPipeline, error) {
	b, err := newBase(domain.KindNews, cfg, deps)
	if err != nil {
		return nil, err
	}
	return &NewsPipeline{base: b, source: deps.News, window: window}, nil
}

// Run fetches, filters to the freshness window and publishes.
func (p *NewsPipeline) Run(ctx context.Context, now time.Time) (*domain.Report, error) {
	log := p.runLogger()
	if !p.generator.Enabled() {
		log.Info("no model credential configured; skipping")
		return nil, nil
	}

	items := fetchNews(ctx, p.source, log)
	recent := domain.Limit(domain.Recent(items, now, p.window), p.cfg.MaxItems)
	log.Info("news collected", "fetched", len(items), "recent", len(recent))
	if len(recent) == 0 {
		log.Info("no recent news; nothing to publish")
		return nil, nil
	}

	return p.deliver(ctx, log, now, narrative.News(recent))
}
