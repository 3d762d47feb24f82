// Package fault implements network fault injection. Faults are applied from
// short-lived helper containers that share the target container's network
// namespace, so the target image needs no tooling of its own.
package fault

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/bnema/composectl/internal/boundaries/in"
	"github.com/bnema/composectl/internal/boundaries/out"
	"github.com/bnema/composectl/internal/domain"
)

// Defaults for the helper container.
const (
	DefaultImage     = "gaiadocker/iproute2"
	DefaultInterface = "eth0"
)

// capNetAdmin is required to change queueing disciplines.
const capNetAdmin = "NET_ADMIN"

// Config configures the helper container.
type Config struct {
	Image     string
	Interface string
	// Pull pulls the image once before the first helper runs.
	Pull bool
}

// Service implements the FaultService interface.
type Service struct {
	inspector in.InspectService
	runtime   out.ShimRuntime
	cfg       Config
	log       *log.Logger

	pullOnce sync.Once
	pullErr  error
}

// NewService creates a new fault service.
func NewService(inspector in.InspectService, runtime out.ShimRuntime, cfg Config, logger *log.Logger) *Service {
	if cfg.Image == "" {
		cfg.Image = DefaultImage
	}
	if cfg.Interface == "" {
		cfg.Interface = DefaultInterface
	}
	return &Service{
		inspector: inspector,
		runtime:   runtime,
		cfg:       cfg,
		log:       logger.With("usecase", "fault"),
	}
}

// AddDelay delays every packet leaving the service's container.
func (s *Service) AddDelay(ctx context.Context, service string, delay time.Duration) (*domain.DelayRule, error) {
	rule, err := s.prepare(ctx, service, delay)
	if err != nil {
		return nil, err
	}
	if err := s.add(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// RemoveDelay removes a delay added by AddDelay.
func (s *Service) RemoveDelay(ctx context.Context, rule *domain.DelayRule) error {
	s.log.Info("removing delay", "service", rule.Service, "delay_ms", rule.Millis())
	return s.runShim(ctx, rule, "qdisc", "del", "dev", rule.Interface, "root", "netem")
}

// Delayed delays the service's egress traffic for the duration of fn. Once the
// target container is resolved, removal is always attempted, whether fn
// succeeded, failed or panicked.
func (s *Service) Delayed(ctx context.Context, service string, delay time.Duration, fn in.Scope) (err error) {
	rule, err := s.prepare(ctx, service, delay)
	if err != nil {
		return err
	}

	defer func() {
		err = domain.JoinRestore(err, s.RemoveDelay(context.WithoutCancel(ctx), rule))
	}()

	if err := s.add(ctx, rule); err != nil {
		return err
	}
	return fn(ctx)
}

func (s *Service) prepare(ctx context.Context, service string, delay time.Duration) (*domain.DelayRule, error) {
	if delay <= 0 || delay%time.Millisecond != 0 {
		return nil, fmt.Errorf("%w: got %s", domain.ErrInvalidDelay, delay)
	}

	snapshot, err := s.inspector.Inspect(ctx, service)
	if err != nil {
		return nil, err
	}

	if err := s.pull(ctx); err != nil {
		return nil, err
	}

	return &domain.DelayRule{
		Service:     service,
		ContainerID: snapshot.ID,
		Interface:   s.cfg.Interface,
		Delay:       delay,
	}, nil
}

func (s *Service) add(ctx context.Context, rule *domain.DelayRule) error {
	s.log.Info("adding delay", "service", rule.Service, "delay_ms", rule.Millis())
	ms := strconv.FormatInt(rule.Millis(), 10) + "ms"
	return s.runShim(ctx, rule, "qdisc", "add", "dev", rule.Interface, "root", "netem", "delay", ms)
}

func (s *Service) pull(ctx context.Context) error {
	if !s.cfg.Pull {
		return nil
	}
	s.pullOnce.Do(func() {
		s.pullErr = s.runtime.PullImage(ctx, s.cfg.Image)
	})
	return s.pullErr
}

func (s *Service) runShim(ctx context.Context, rule *domain.DelayRule, cmd ...string) error {
	spec := domain.ShimSpec{
		Image:             s.cfg.Image,
		Name:              "composectl-netem-" + uuid.NewString(),
		TargetContainerID: rule.ContainerID,
		Entrypoint:        []string{"tc"},
		Cmd:               cmd,
		CapAdd:            []string{capNetAdmin},
	}

	result, err := s.runtime.RunShim(ctx, spec)
	if err != nil {
		return fmt.Errorf("failed to run helper for %s: %w", rule.Service, err)
	}
	if result.ExitCode != 0 {
		return &domain.ExecutionError{
			Command:  append([]string{"tc"}, cmd...),
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
		}
	}
	return nil
}
