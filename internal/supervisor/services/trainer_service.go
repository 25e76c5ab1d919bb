// Novelrec - Offline Recommendation Engine for Web-Novel Platforms
// Copyright 2026 Minreads
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/minreads/novelrec

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/minreads/novelrec/internal/recommend"
)

// ComputeRunner is the engine surface the trainer drives. Satisfied
// by *recommend.Engine.
type ComputeRunner interface {
	Run(ctx context.Context, scope []recommend.Algorithm) error
}

// TrainerConfig holds the trainer schedule.
type TrainerConfig struct {
	// Schedule is a standard five-field cron expression. Defaults to
	// 03:00 daily.
	Schedule string

	// TrainOnStartup runs a full compute pass when the service comes
	// up, before the first scheduled run.
	TrainOnStartup bool

	// RunTimeout bounds a single compute run. Defaults to 30 minutes.
	RunTimeout time.Duration
}

// TrainerService runs the offline compute passes on a cron schedule.
// A failed run is logged and retried at the next scheduled time; the
// caches keep serving the previous snapshot in between.
type TrainerService struct {
	engine   ComputeRunner
	schedule cron.Schedule
	config   TrainerConfig
	logger   zerolog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewTrainerService creates the trainer. The cron expression is
// validated here so a bad schedule fails startup instead of looping
// inside the supervisor.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTrainerService(engine ComputeRunner, cfg TrainerConfig, logger zerolog.Logger) (*TrainerService, error) {
	if cfg.Schedule == "" {
		cfg.Schedule = "0 3 * * *"
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 30 * time.Minute
	}
	schedule, err := cron.ParseStandard(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("parse trainer schedule %q: %w", cfg.Schedule, err)
	}
	return &TrainerService{
		engine:   engine,
		schedule: schedule,
		config:   cfg,
		logger:   logger.With().Str("service", "trainer").Logger(),
		now:      time.Now,
	}, nil
}

// Serve implements suture.Service.
func (s *TrainerService) Serve(ctx context.Context) error {
	s.logger.Info().
		Str("schedule", s.config.Schedule).
		Bool("train_on_startup", s.config.TrainOnStartup).
		Msg("trainer starting")

	if s.config.TrainOnStartup {
		if err := s.train(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn().Err(err).Msg("startup compute run failed, waiting for schedule")
		}
	}

	for {
		now := s.now()
		next := s.schedule.Next(now)
		s.logger.Debug().Time("next_run", next).Msg("trainer sleeping until next run")

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info().Msg("trainer shutting down")
			return ctx.Err()

		case <-timer.C:
			if err := s.train(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.logger.Warn().Err(err).Msg("scheduled compute run failed")
			}
		}
	}
}

func (s *TrainerService) train(ctx context.Context) error {
	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	start := s.now()
	s.logger.Info().Msg("compute run starting")
	if err := s.engine.Run(runCtx, []recommend.Algorithm{recommend.AlgorithmItemCF, recommend.AlgorithmContent}); err != nil {
		return err
	}
	s.logger.Info().Dur("duration", time.Since(start)).Msg("compute run complete")
	return nil
}

// String identifies the service in supervisor logs.
func (s *TrainerService) String() string {
	return "trainer"
}
