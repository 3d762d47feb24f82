// Package out defines output ports (interfaces) for infrastructure.
// These interfaces define the contract between use cases and driven adapters
// (process execution, the compose CLI, the Docker engine).
package out

import (
	"context"
	"io"

	"github.com/bnema/composectl/internal/domain"
)

// CommandRunner executes external commands.
type CommandRunner interface {
	// Run executes argv, blocks until it exits and returns its stdout with
	// trailing whitespace removed. A non-zero exit or a launch failure is
	// reported as *domain.ExecutionError.
	Run(ctx context.Context, argv []string) (string, error)

	// Stream executes argv with the given standard streams attached.
	Stream(ctx context.Context, argv []string, stdin io.Reader, stdout, stderr io.Writer) error
}

// Orchestrator is the compose/docker command surface. Argument shapes are the
// wire contract with existing compose files and must not change.
type Orchestrator interface {
	// Compose runs `<compose> <action...> <services...> <args...>`.
	Compose(ctx context.Context, action []string, services []string, args ...string) (string, error)

	// Docker runs `<docker> <action...> <containerID> <args...>`.
	Docker(ctx context.Context, action []string, containerID string, args ...string) (string, error)

	// ContainerIDs resolves a service to the ids of its running containers.
	// Returns *domain.NotFoundError when there is none.
	ContainerIDs(ctx context.Context, service string) ([]string, error)

	// InspectContainer returns the raw `docker inspect` document of a container.
	InspectContainer(ctx context.Context, containerID string) ([]byte, error)

	// ConnectNetwork attaches a container to a live network with the given aliases.
	ConnectNetwork(ctx context.Context, network, containerID string, aliases []string) error

	// DisconnectNetwork detaches a container from a live network.
	DisconnectNetwork(ctx context.Context, network, containerID string) error

	// Stop, Start and Restart act on every container of the named services.
	Stop(ctx context.Context, services []string) error
	Start(ctx context.Context, services []string) error
	Restart(ctx context.Context, services []string) error

	// Exec runs a command inside a service container without a TTY.
	Exec(ctx context.Context, service string, args ...string) (string, error)

	// Version returns the compose binary version.
	Version(ctx context.Context) (string, error)
}

// ShimRuntime runs helper containers through the container engine API.
type ShimRuntime interface {
	// RunShim creates and starts a helper container, waits for it to exit,
	// collects its output and removes it.
	RunShim(ctx context.Context, spec domain.ShimSpec) (*domain.ShimResult, error)

	// PullImage pulls an image so that shims can start without a registry round trip.
	PullImage(ctx context.Context, image string) error
}
