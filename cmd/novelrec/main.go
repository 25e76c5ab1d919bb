// Novelrec - Offline Recommendation Engine for Web-Novel Platforms
// Copyright 2026 Minreads
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/minreads/novelrec

// Package main is the novelrec entry point.
//
// Two modes are supported:
//
//	novelrec compute [-algorithm cf|content|all] [flags]
//	novelrec serve
//
// Compute mode runs the offline passes once and exits; it is meant
// for cron or one-off backfills. Serve mode runs the HTTP read path
// plus the scheduled trainer under a Suture supervision tree.
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): NOVELREC_* environment variables, a YAML config
// file, then built-in defaults. Compute-mode flags override the
// loaded configuration for a single run.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/minreads/novelrec/internal/api"
	"github.com/minreads/novelrec/internal/config"
	"github.com/minreads/novelrec/internal/database"
	"github.com/minreads/novelrec/internal/logging"
	"github.com/minreads/novelrec/internal/recommend"
	"github.com/minreads/novelrec/internal/recommend/algorithms"
	"github.com/minreads/novelrec/internal/supervisor"
	"github.com/minreads/novelrec/internal/supervisor/services"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "compute":
		err = runCompute(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		logging.Error().Err(err).Msg("novelrec exited with error")
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `novelrec - offline recommendation engine

Usage:
  novelrec compute [flags]   run the offline passes once and exit
  novelrec serve             run the HTTP read path and scheduled trainer

Compute flags:
  -algorithm string          passes to run: cf, content or all (default "all")
  -min-interactions int      matrix filter threshold override
  -top-k int                 similar novels kept per novel override
  -top-n int                 recommendations kept per user override

Configuration is read from NOVELREC_* environment variables and the
YAML file named by NOVELREC_CONFIG.
`)
}

func setup() (*config.Config, *database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Caller:     cfg.Logging.Caller,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})

	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return cfg, db, nil
}

func engineParams(cfg *config.Config) recommend.Params {
	r := cfg.Recommend
	return recommend.Params{
		MinInteractions:  r.MinInteractions,
		TopK:             r.TopK,
		TopN:             r.TopN,
		ContentThreshold: r.ContentThreshold,
		MaxFeatures:      r.MaxFeatures,
		MinDF:            r.MinDF,
		MaxDF:            r.MaxDF,
		Workers:          r.Workers,
	}
}

func runCompute(args []string) error {
	fs := flag.NewFlagSet("compute", flag.ExitOnError)
	algorithm := fs.String("algorithm", "all", "passes to run: cf, content or all")
	minInteractions := fs.Int("min-interactions", 0, "matrix filter threshold override")
	topK := fs.Int("top-k", 0, "similar novels kept per novel override")
	topN := fs.Int("top-n", 0, "recommendations kept per user override")
	if err := fs.Parse(args); err != nil {
		return err
	}

	scope, err := recommend.ParseScope(*algorithm)
	if err != nil {
		return err
	}

	cfg, db, err := setup()
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("close database")
		}
	}()

	params := engineParams(cfg)
	if *minInteractions > 0 {
		params.MinInteractions = *minInteractions
	}
	if *topK > 0 {
		params.TopK = *topK
	}
	if *topN > 0 {
		params.TopN = *topN
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine := recommend.NewEngine(db, db, params)

	// Skipped passes are normal on a fresh platform and exit 0; only
	// a run where every pass failed reports an error.
	return engine.Run(ctx, scope)
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, db, err := setup()
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("close database")
		}
	}()

	engine := recommend.NewEngine(db, db, engineParams(cfg))
	resolver := recommend.NewResolver(db, cfg.Recommend.BlendCF, cfg.Recommend.BlendContent,
		algorithms.PopularityWeights{
			Favorite: cfg.Recommend.PopularityFavorite,
			View:     cfg.Recommend.PopularityView,
			Rating:   cfg.Recommend.PopularityRating,
		})

	handler := api.NewHandler(resolver, engine, db.Ping, cfg.API.DefaultLimit, cfg.API.MaxLimit)
	router := api.Router(handler, api.RouterConfig{
		CORSOrigins:     cfg.Server.CORSOrigins,
		RateLimitReqs:   cfg.Server.RateLimitReqs,
		RateLimitWindow: cfg.Server.RateLimitWindow,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	trainer, err := services.NewTrainerService(engine, services.TrainerConfig{
		Schedule:       cfg.Recommend.Schedule,
		TrainOnStartup: cfg.Recommend.TrainOnStartup,
	}, logging.Logger())
	if err != nil {
		return err
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddComputeService(trainer)
	tree.AddAPIService(services.NewHTTPService(server, 10*time.Second))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", addr).Msg("novelrec serving")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info().Msg("novelrec stopped")
	return nil
}
