package recon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/momtazchem/commerce-backend/pkg/logger"
	"github.com/momtazchem/commerce-backend/pkg/metrics"
)

// LockFactory produces the per-pass lock. Each pass holds its own key
// so a slow sweep never blocks the others.
type LockFactory func(pass string) Lock

// ServiceParams configure the reconciliation service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Locks    LockFactory
	Metrics  *metrics.PassMetrics
}

// Service runs every registered pass on its own ticker until the
// context is canceled.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	locks    LockFactory
	metrics  *metrics.PassMetrics
}

// NewService builds a reconciliation service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Locks == nil {
		return nil, fmt.Errorf("lock factory required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		locks:    params.Locks,
		metrics:  params.Metrics,
	}, nil
}

// Run starts one goroutine per pass and blocks until the context is
// canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var wg sync.WaitGroup
	for _, pass := range s.registry.Passes() {
		wg.Add(1)
		go func(pass Pass) {
			defer wg.Done()
			s.runLoop(ctx, pass)
		}(pass)
	}
	wg.Wait()
	return ctx.Err()
}

func (s *Service) runLoop(ctx context.Context, pass Pass) {
	lock := s.locks(pass.Name())
	s.runPass(ctx, pass, lock)

	ticker := time.NewTicker(pass.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(s.logg.WithPass(ctx, pass.Name()), "pass loop stopped")
			return
		case <-ticker.C:
			s.runPass(ctx, pass, lock)
		}
	}
}

func (s *Service) runPass(ctx context.Context, pass Pass, lock Lock) {
	passCtx := s.logg.WithPass(ctx, pass.Name())

	locked, err := lock.Acquire(passCtx)
	if err != nil {
		s.logg.Error(passCtx, "lock acquire failed", err)
		s.recordFailure(pass.Name())
		return
	}
	if !locked {
		s.logg.Info(passCtx, "another instance holds the lock; skipping")
		return
	}
	defer func() {
		if relErr := lock.Release(passCtx); relErr != nil {
			s.logg.Error(passCtx, "lock release failed", relErr)
		}
	}()

	s.logg.Info(passCtx, "pass start")
	start := time.Now()
	err = pass.Run(passCtx)
	duration := time.Since(start)
	s.observeDuration(pass.Name(), duration)
	passCtx = s.logg.WithField(passCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.logg.Error(passCtx, "pass failed", err)
		s.recordFailure(pass.Name())
		return
	}
	s.logg.Info(passCtx, "pass complete")
	s.recordSuccess(pass.Name())
}

func (s *Service) observeDuration(pass string, duration time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveDuration(pass, duration)
}

func (s *Service) recordSuccess(pass string) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncSuccess(pass)
}

func (s *Service) recordFailure(pass string) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncFailure(pass)
}
