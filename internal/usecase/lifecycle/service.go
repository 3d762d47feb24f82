// Package lifecycle implements stopping and starting services, including the
// scoped stop that always starts the services again.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/bnema/composectl/internal/boundaries/in"
	"github.com/bnema/composectl/internal/boundaries/out"
	"github.com/bnema/composectl/internal/domain"
)

// Service implements the LifecycleService interface.
type Service struct {
	orchestrator out.Orchestrator
	log          *log.Logger
}

// NewService creates a new lifecycle service.
func NewService(orchestrator out.Orchestrator, logger *log.Logger) *Service {
	return &Service{
		orchestrator: orchestrator,
		log:          logger.With("usecase", "lifecycle"),
	}
}

// Stop stops the services.
func (s *Service) Stop(ctx context.Context, services []string) error {
	if len(services) == 0 {
		return domain.ErrNoServices
	}
	s.log.Info("stopping services", "services", services)
	if err := s.orchestrator.Stop(ctx, services); err != nil {
		return fmt.Errorf("failed to stop %v: %w", services, err)
	}
	return nil
}

// Start starts the services.
func (s *Service) Start(ctx context.Context, services []string) error {
	if len(services) == 0 {
		return domain.ErrNoServices
	}
	s.log.Info("starting services", "services", services)
	if err := s.orchestrator.Start(ctx, services); err != nil {
		return fmt.Errorf("failed to start %v: %w", services, err)
	}
	return nil
}

// Restart restarts the services.
func (s *Service) Restart(ctx context.Context, services []string) error {
	if len(services) == 0 {
		return domain.ErrNoServices
	}
	s.log.Info("restarting services", "services", services)
	if err := s.orchestrator.Restart(ctx, services); err != nil {
		return fmt.Errorf("failed to restart %v: %w", services, err)
	}
	return nil
}

// Stopped stops the services, runs fn, and starts them again whether fn
// succeeded, failed or panicked. The start is attempted even when the stop
// failed part way.
func (s *Service) Stopped(ctx context.Context, services []string, fn in.Scope) (err error) {
	if len(services) == 0 {
		return domain.ErrNoServices
	}

	defer func() {
		err = domain.JoinRestore(err, s.Start(context.WithoutCancel(ctx), services))
	}()

	if err := s.Stop(ctx, services); err != nil {
		return err
	}
	return fn(ctx)
}
