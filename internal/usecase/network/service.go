// Package network implements the network attachment use case: connecting and
// disconnecting service containers and the scoped disconnect/restore.
package network

import (
	"context"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/bnema/composectl/internal/boundaries/in"
	"github.com/bnema/composectl/internal/boundaries/out"
	"github.com/bnema/composectl/internal/domain"
)

// Service implements the NetworkService interface.
type Service struct {
	orchestrator out.Orchestrator
	inspector    in.InspectService
	topology     *domain.Topology
	names        domain.NetworkNames
	log          *log.Logger
}

// NewService creates a new network service for a project.
func NewService(
	orchestrator out.Orchestrator,
	inspector in.InspectService,
	topology *domain.Topology,
	project string,
	logger *log.Logger,
) *Service {
	return &Service{
		orchestrator: orchestrator,
		inspector:    inspector,
		topology:     topology,
		names:        domain.NewNetworkNames(project, topology.Networks),
		log:          logger.With("usecase", "network"),
	}
}

// ServiceNetworks returns the topology default memberships of a service,
// keyed by logical network name.
func (s *Service) ServiceNetworks(service string) (domain.NetworkAliases, error) {
	return s.topology.ServiceNetworks(service)
}

// Connect attaches each selected service to its target networks. Networks
// the container is already attached to are left untouched, so connecting
// twice is the same as connecting once.
func (s *Service) Connect(ctx context.Context, overrides domain.AttachmentMap) error {
	services := overrides.Services()
	if len(overrides) == 0 {
		services = s.topology.ServiceNames()
	}

	for _, service := range services {
		targets := overrides[service]
		if targets == nil {
			defaults, err := s.topology.ServiceNetworks(service)
			if err != nil {
				return err
			}
			targets = defaults
		} else if !s.topology.HasService(service) {
			return &domain.NotFoundError{Service: service}
		}

		if err := s.connectService(ctx, service, targets); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) connectService(ctx context.Context, service string, targets domain.NetworkAliases) error {
	snapshot, err := s.inspector.Inspect(ctx, service)
	if err != nil {
		return err
	}

	for _, network := range targets.Names() {
		live := s.names.Resolve(network)
		if snapshot.Attached(live) {
			s.log.Debug("already attached", "service", service, "network", live)
			continue
		}

		aliases := targets[network]
		s.log.Info("connecting", "service", service, "network", live, "aliases", aliases)
		if err := s.orchestrator.ConnectNetwork(ctx, live, snapshot.ID, aliases); err != nil {
			return fmt.Errorf("failed to connect %s to %s: %w", service, live, err)
		}
	}
	return nil
}

// Disconnect detaches each selected service from its selected networks and
// returns what was removed. Services absent from overrides, or selected with
// AllNetworks, lose every current attachment. Empty overrides select every
// service. On failure the record of what was already removed is returned
// alongside the error.
func (s *Service) Disconnect(ctx context.Context, overrides domain.DetachmentMap) (domain.DisconnectionRecord, error) {
	record := domain.DisconnectionRecord{}

	services := overrides.Services()
	if len(overrides) == 0 {
		services = s.topology.ServiceNames()
	}

	for _, service := range services {
		if !s.topology.HasService(service) {
			return record, &domain.NotFoundError{Service: service}
		}

		snapshot, err := s.inspector.Inspect(ctx, service)
		if err != nil {
			return record, err
		}

		for _, network := range s.selectNetworks(snapshot, overrides, service) {
			aliases, attached := snapshot.Networks[network]
			if !attached {
				s.log.Debug("not attached, skipping", "service", service, "network", network)
				record.Skipped(service, network)
				continue
			}

			s.log.Info("disconnecting", "service", service, "network", network)
			if err := s.orchestrator.DisconnectNetwork(ctx, network, snapshot.ID); err != nil {
				return record, fmt.Errorf("failed to disconnect %s from %s: %w", service, network, err)
			}
			record.Removed(service, network, slices.Clone(aliases))
		}
	}
	return record, nil
}

func (s *Service) selectNetworks(snapshot *domain.ContainerSnapshot, overrides domain.DetachmentMap, service string) []string {
	selection, explicit := overrides[service]
	if !explicit || selection.All {
		return snapshot.Networks.Names()
	}

	networks := make([]string, 0, len(selection.Networks))
	for _, network := range selection.Networks {
		live := s.names.Resolve(network)
		if !slices.Contains(networks, live) {
			networks = append(networks, live)
		}
	}
	return networks
}

// Disconnected detaches services, runs fn, and reconnects exactly what was
// removed, whether fn succeeded, failed or panicked. A partial disconnect is
// restored too. Restore failures are reported joined with ErrRestoreFailed
// after the original error.
func (s *Service) Disconnected(ctx context.Context, overrides domain.DetachmentMap, fn in.Scope) (err error) {
	var record domain.DisconnectionRecord
	defer func() {
		if record.Empty() {
			return
		}
		s.log.Debug("restoring network attachments", "services", record.Attachments().Services())
		err = domain.JoinRestore(err, s.Connect(context.WithoutCancel(ctx), record.Attachments()))
	}()

	record, err = s.Disconnect(ctx, overrides)
	if err != nil {
		return err
	}
	return fn(ctx)
}
