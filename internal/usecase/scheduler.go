package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ChuheLin/cs2-wang/internal/ports"
)

// Scheduler wires the cron driver with the registered pipelines.
type Scheduler struct {
	driver   ports.Scheduler
	registry *Registry
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring jobs.
func NewScheduler(driver ports.Scheduler, registry *Registry, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{driver: driver, registry: registry, logger: logger.With("component", "scheduler")}
}

// Start registers every scheduled pipeline and starts the driver.
// It returns the number of pipelines registered.
func (s *Scheduler) Start(ctx context.Context) (int, error) {
	if s.driver == nil || s.registry == nil {
		return 0, nil
	}

	registered := 0
	for _, p := range s.registry.All() {
		spec := p.Schedule()
		if spec == "" {
			continue
		}

		pipeline := p
		job := func(trigger time.Time) {
			if _, err := pipeline.Run(ctx, trigger); err != nil {
				s.logger.Error("scheduled run failed", "pipeline", pipeline.Name(), "error", err)
			}
		}
		if err := s.driver.Schedule(spec, job); err != nil {
			return registered, fmt.Errorf("schedule %s: %w", p.Name(), err)
		}
		s.logger.Info("pipeline scheduled", "pipeline", p.Name(), "cron", spec)
		registered++
	}

	return registered, s.driver.Start(ctx)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
