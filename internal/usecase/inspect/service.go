// Package inspect implements the container inspection use case.
package inspect

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"

	"github.com/bnema/composectl/internal/boundaries/out"
	"github.com/bnema/composectl/internal/domain"
)

// Polling bounds for WaitForService.
const (
	waitInitialInterval = 250 * time.Millisecond
	waitMaxInterval     = 2 * time.Second
)

// inspectDocument is the subset of `docker inspect` output the controller reads.
type inspectDocument struct {
	ID    string `json:"Id"`
	Name  string `json:"Name"`
	State struct {
		Running bool `json:"Running"`
	} `json:"State"`
	NetworkSettings struct {
		Networks map[string]*endpoint `json:"Networks"`
	} `json:"NetworkSettings"`
}

type endpoint struct {
	Aliases   []string `json:"Aliases"`
	IPAddress string   `json:"IPAddress"`
}

// Service implements the InspectService interface.
type Service struct {
	orchestrator out.Orchestrator
	log          *log.Logger
}

// NewService creates a new inspect service.
func NewService(orchestrator out.Orchestrator, logger *log.Logger) *Service {
	return &Service{
		orchestrator: orchestrator,
		log:          logger.With("usecase", "inspect"),
	}
}

// ContainerIDs returns the ids of every container of the service.
func (s *Service) ContainerIDs(ctx context.Context, service string) ([]string, error) {
	return s.orchestrator.ContainerIDs(ctx, service)
}

// Inspect returns the live state of the service's container. A scaled service
// is represented by its first container.
func (s *Service) Inspect(ctx context.Context, service string) (*domain.ContainerSnapshot, error) {
	containerID, raw, err := s.inspect(ctx, service)
	if err != nil {
		return nil, err
	}

	var docs []inspectDocument
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode inspect output of %s: %w", service, err)
	}
	if len(docs) == 0 {
		return nil, &domain.NotFoundError{Service: service}
	}
	doc := docs[0]

	snapshot := &domain.ContainerSnapshot{
		Service:   service,
		ID:        doc.ID,
		Name:      doc.Name,
		Running:   doc.State.Running,
		Networks:  domain.NetworkAliases{},
		Addresses: map[string]string{},
	}
	if snapshot.ID == "" {
		snapshot.ID = containerID
	}

	for network, ep := range doc.NetworkSettings.Networks {
		aliases := []string{}
		if ep != nil {
			aliases = append(aliases, ep.Aliases...)
			if ep.IPAddress != "" {
				snapshot.Addresses[network] = ep.IPAddress
			}
		}
		snapshot.Networks[network] = aliases
	}

	s.log.Debug("inspected container", "service", service, "id", snapshot.ID, "networks", snapshot.Networks.Names())
	return snapshot, nil
}

// InspectRaw returns the inspect document of the service's container.
func (s *Service) InspectRaw(ctx context.Context, service string) (json.RawMessage, error) {
	_, raw, err := s.inspect(ctx, service)
	if err != nil {
		return nil, err
	}

	var docs []json.RawMessage
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode inspect output of %s: %w", service, err)
	}
	if len(docs) == 0 {
		return nil, &domain.NotFoundError{Service: service}
	}
	return docs[0], nil
}

// WaitForService polls until the service has a running container or the
// timeout elapses. Only NotFoundError and a stopped container are retried.
func (s *Service) WaitForService(ctx context.Context, service string, timeout time.Duration) (*domain.ContainerSnapshot, error) {
	// A zero MaxElapsedTime never stops retrying.
	if timeout <= 0 {
		return nil, fmt.Errorf("%w: got %s", domain.ErrInvalidTimeout, timeout)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = waitInitialInterval
	b.MaxInterval = waitMaxInterval
	b.MaxElapsedTime = timeout

	var snapshot *domain.ContainerSnapshot
	operation := func() error {
		snap, err := s.Inspect(ctx, service)
		if err != nil {
			if domain.IsNotFound(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if !snap.Running {
			return &domain.NotFoundError{Service: service, Err: fmt.Errorf("container %s is not running", snap.ID)}
		}
		snapshot = snap
		return nil
	}
	notify := func(err error, next time.Duration) {
		s.log.Debug("waiting for service", "service", service, "retry_in", next, "err", err)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify); err != nil {
		return nil, err
	}

	s.log.Info("service is running", "service", service, "id", snapshot.ID)
	return snapshot, nil
}

func (s *Service) inspect(ctx context.Context, service string) (string, []byte, error) {
	ids, err := s.orchestrator.ContainerIDs(ctx, service)
	if err != nil {
		return "", nil, err
	}
	if len(ids) > 1 {
		s.log.Debug("service has several containers, using the first", "service", service, "count", len(ids))
	}

	raw, err := s.orchestrator.InspectContainer(ctx, ids[0])
	if err != nil {
		return "", nil, fmt.Errorf("failed to inspect %s: %w", service, err)
	}
	return ids[0], raw, nil
}
