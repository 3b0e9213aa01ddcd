package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ChuheLin/cs2-wang/internal/config"
	"github.com/ChuheLin/cs2-wang/internal/domain"
	"github.com/ChuheLin/cs2-wang/internal/ports"
)

// Pipeline is one scheduled report producer.
type Pipeline interface {
	Name() string
	// Schedule returns the cron expression, or "" when the pipeline is not scheduled.
	Schedule() string
	// Run produces and publishes one report. A nil report with a nil error means the run
	// degraded to publishing nothing.
	Run(ctx context.Context, now time.Time) (*domain.Report, error)
}

// PipelineDeps wires all driven adapters into the pipelines.
type PipelineDeps struct {
	News      ports.NewsSource
	Catalog   ports.CatalogSource
	Chat      ports.ChatClient
	Narrator  ports.Narrator
	Publisher ports.Publisher
	Archive   ports.ReportArchive
	Notifier  ports.Notifier
	Logger    *slog.Logger
}

// base holds what every pipeline shares: metadata, generation and delivery.
type base struct {
	kind      domain.ReportKind
	cfg       config.PipelineConfig
	generator *Generator
	narrator  ports.Narrator
	publisher ports.Publisher
	archive   ports.ReportArchive
	notifier  ports.Notifier
	logger    *slog.Logger
}

func newBase(kind domain.ReportKind, cfg config.PipelineConfig, deps PipelineDeps) (base, error) {
	if deps.Publisher == nil {
		return base{}, fmt.Errorf("%s pipeline: publisher is required", kind)
	}
	generator, err := NewGenerator(deps.Chat, cfg.Prompt)
	if err != nil {
		return base{}, fmt.Errorf("%s pipeline: %w", kind, err)
	}
	// Surface broken metadata templates at construction rather than mid-run.
	if _, _, err := renderMeta(cfg, promptData{}); err != nil {
		return base{}, fmt.Errorf("%s pipeline: %w", kind, err)
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return base{
		kind:      kind,
		cfg:       cfg,
		generator: generator,
		narrator:  deps.Narrator,
		publisher: deps.Publisher,
		archive:   deps.Archive,
		notifier:  deps.Notifier,
		logger:    logger.With("pipeline", string(kind)),
	}, nil
}

// Name returns the pipeline's report kind.
func (b *base) Name() string {
	return string(b.kind)
}

// Schedule returns the configured cron expression when the pipeline is enabled.
func (b *base) Schedule() string {
	if !b.cfg.Enabled {
		return ""
	}
	return b.cfg.Schedule
}

func (b *base) runLogger() *slog.Logger {
	return b.logger.With("run_id", uuid.NewString())
}

// deliver generates the body from content and publishes the report.
// Only a failure to write the post is returned; everything else degrades.
func (b *base) deliver(ctx context.Context, log *slog.Logger, now time.Time, content string) (*domain.Report, error) {
	data := promptData{Date: now.Format("2006-01-02"), Content: content}

	body, err := b.generator.Generate(ctx, data.Date, content)
	if err != nil {
		log.Error("report generation failed", "error", err)
		return nil, nil
	}
	if strings.TrimSpace(body) == "" {
		log.Warn("model returned an empty report; nothing published")
		return nil, nil
	}

	title, description, err := renderMeta(b.cfg, data)
	if err != nil {
		log.Error("render post metadata", "error", err)
		return nil, nil
	}

	report := domain.Report{
		Kind:        b.kind,
		Date:        now,
		Title:       title,
		Description: description,
		Tags:        b.cfg.Tags,
		Body:        body,
	}

	if b.cfg.Narrate && b.narrator != nil {
		file, err := b.narrator.Narrate(ctx, body, b.cfg.Intro, report.AudioName())
		if err != nil {
			log.Warn("narration failed; publishing text only", "error", err)
		} else {
			report.AudioFile = file
			report.AudioLabel = b.cfg.AudioLabel
		}
	}

	path, err := b.publisher.Publish(ctx, report)
	if err != nil {
		return nil, fmt.Errorf("publish %s report: %w", b.kind, err)
	}
	report.Path = path
	log.Info("report published", "path", path, "audio", report.AudioFile)

	if b.archive != nil {
		if err := b.archive.SaveReport(ctx, report); err != nil {
			log.Warn("archive report", "error", err)
		}
	}
	if b.notifier != nil {
		if err := b.notifier.Announce(ctx, report); err != nil {
			log.Warn("notify", "error", err)
		}
	}

	return &report, nil
}

func renderMeta(cfg config.PipelineConfig, data promptData) (string, string, error) {
	title, err := renderText("title", cfg.Title, data)
	if err != nil {
		return "", "", err
	}
	description, err := renderText("description", cfg.Description, data)
	if err != nil {
		return "", "", err
	}
	return title, description, nil
}
