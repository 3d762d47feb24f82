// Package in defines input ports (interfaces) for use cases.
// These interfaces define the contract between driving adapters (the CLI,
// Go test suites) and the business logic (use cases).
package in

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bnema/composectl/internal/domain"
)

// Scope is the protected region of a scoped operation.
type Scope func(ctx context.Context) error

// InspectService reads live container state.
type InspectService interface {
	// Inspect returns the current state of the service's container.
	Inspect(ctx context.Context, service string) (*domain.ContainerSnapshot, error)

	// InspectRaw returns the full inspect document of the service's container.
	InspectRaw(ctx context.Context, service string) (json.RawMessage, error)

	// ContainerIDs returns the ids of every container of the service.
	ContainerIDs(ctx context.Context, service string) ([]string, error)

	// WaitForService polls until the service has a running container.
	WaitForService(ctx context.Context, service string, timeout time.Duration) (*domain.ContainerSnapshot, error)
}

// NetworkService manages network attachments.
type NetworkService interface {
	// Connect attaches services to their target networks. Empty overrides
	// select every service with its topology default.
	Connect(ctx context.Context, overrides domain.AttachmentMap) error

	// Disconnect detaches services and records what was removed.
	Disconnect(ctx context.Context, overrides domain.DetachmentMap) (domain.DisconnectionRecord, error)

	// Disconnected detaches services for the duration of fn and always restores them.
	Disconnected(ctx context.Context, overrides domain.DetachmentMap, fn Scope) error

	// ServiceNetworks returns the topology default of a service.
	ServiceNetworks(service string) (domain.NetworkAliases, error)
}

// LifecycleService starts and stops services.
type LifecycleService interface {
	Stop(ctx context.Context, services []string) error
	Start(ctx context.Context, services []string) error
	Restart(ctx context.Context, services []string) error

	// Stopped stops services for the duration of fn and always starts them again.
	Stopped(ctx context.Context, services []string, fn Scope) error
}

// FaultService injects network faults.
type FaultService interface {
	AddDelay(ctx context.Context, service string, delay time.Duration) (*domain.DelayRule, error)
	RemoveDelay(ctx context.Context, rule *domain.DelayRule) error

	// Delayed delays the service's egress traffic for the duration of fn and
	// always removes the delay afterwards.
	Delayed(ctx context.Context, service string, delay time.Duration, fn Scope) error
}
