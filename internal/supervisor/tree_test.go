// Novelrec - Offline Recommendation Engine for Web-Novel Platforms
// Copyright 2026 Minreads
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/minreads/novelrec

package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/minreads/novelrec/internal/logging"
)

// signalService reports when Serve starts and blocks until cancelled.
type signalService struct {
	started chan struct{}
}

func (s *signalService) Serve(ctx context.Context) error {
	close(s.started)
	<-ctx.Done()
	return ctx.Err()
}

func (s *signalService) String() string { return "signal" }

func TestDefaultTreeConfig(t *testing.T) {
	cfg := DefaultTreeConfig()
	if cfg.FailureThreshold != 5.0 || cfg.FailureDecay != 30.0 {
		t.Errorf("unexpected failure policy: %+v", cfg)
	}
	if cfg.FailureBackoff != 15*time.Second || cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("unexpected timeouts: %+v", cfg)
	}
}

func TestNewTreeAppliesDefaults(t *testing.T) {
	tree := NewTree(logging.NewSlogLogger(), TreeConfig{})
	if tree.config.FailureThreshold != 5.0 {
		t.Errorf("zero config did not inherit defaults: %+v", tree.config)
	}
}

func TestTreeRunsServicesInBothLayers(t *testing.T) {
	tree := NewTree(logging.NewSlogLogger(), DefaultTreeConfig())
	compute := &signalService{started: make(chan struct{})}
	api := &signalService{started: make(chan struct{})}
	tree.AddComputeService(compute)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	for name, ch := range map[string]chan struct{}{"compute": compute.started, "api": api.started} {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("%s service never started", name)
		}
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Fatalf("tree stopped with %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("tree did not stop after cancellation")
	}
}
