// Package compose implements the orchestrator port by shelling out to the
// docker-compose and docker command line tools.
package compose

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/bnema/composectl/internal/boundaries/out"
	"github.com/bnema/composectl/internal/domain"
)

// Default binaries.
var (
	DefaultComposeCommand = []string{"docker-compose"}
	DefaultDockerCommand  = []string{"docker"}
)

// CLI issues compose and docker verbs through a command runner.
type CLI struct {
	runner  out.CommandRunner
	compose []string
	docker  []string
}

// NewCLI creates a CLI. Empty command prefixes fall back to the defaults.
func NewCLI(runner out.CommandRunner, composeCmd, dockerCmd []string) *CLI {
	if len(composeCmd) == 0 {
		composeCmd = DefaultComposeCommand
	}
	if len(dockerCmd) == 0 {
		dockerCmd = DefaultDockerCommand
	}
	return &CLI{
		runner:  runner,
		compose: composeCmd,
		docker:  dockerCmd,
	}
}

// ProjectCommand pins a compose command prefix to one compose file and project
// name, so every verb addresses the same project the controller resolved.
// Empty values are left out.
func ProjectCommand(composeCmd []string, composeFile, project string) []string {
	if len(composeCmd) == 0 {
		composeCmd = DefaultComposeCommand
	}
	argv := slices.Clone(composeCmd)
	if composeFile != "" {
		argv = append(argv, "-f", composeFile)
	}
	if project != "" {
		argv = append(argv, "-p", project)
	}
	return argv
}

// Compose runs `<compose> <action...> <services...> <args...>`.
func (c *CLI) Compose(ctx context.Context, action []string, services []string, args ...string) (string, error) {
	argv := make([]string, 0, len(c.compose)+len(action)+len(services)+len(args))
	argv = append(argv, c.compose...)
	argv = append(argv, action...)
	argv = append(argv, services...)
	argv = append(argv, args...)
	return c.runner.Run(ctx, argv)
}

// Docker runs `<docker> <action...> <containerID> <args...>`.
func (c *CLI) Docker(ctx context.Context, action []string, containerID string, args ...string) (string, error) {
	argv := make([]string, 0, len(c.docker)+len(action)+1+len(args))
	argv = append(argv, c.docker...)
	argv = append(argv, action...)
	argv = append(argv, containerID)
	argv = append(argv, args...)
	return c.runner.Run(ctx, argv)
}

// ContainerIDs resolves a service to its running containers with `ps -q`.
func (c *CLI) ContainerIDs(ctx context.Context, service string) ([]string, error) {
	output, err := c.Compose(ctx, []string{"ps", "-q"}, []string{service})
	if err != nil {
		if isNoSuchService(err) {
			return nil, &domain.NotFoundError{Service: service, Err: err}
		}
		return nil, fmt.Errorf("failed to resolve containers of %s: %w", service, err)
	}

	ids := strings.Fields(output)
	if len(ids) == 0 {
		return nil, &domain.NotFoundError{Service: service}
	}
	return ids, nil
}

// InspectContainer returns the raw `docker inspect` document.
func (c *CLI) InspectContainer(ctx context.Context, containerID string) ([]byte, error) {
	output, err := c.Docker(ctx, []string{"inspect"}, containerID)
	if err != nil {
		return nil, err
	}
	return []byte(output), nil
}

// ConnectNetwork runs `docker network connect --alias a... <network> <id>`.
func (c *CLI) ConnectNetwork(ctx context.Context, network, containerID string, aliases []string) error {
	action := []string{"network", "connect"}
	for _, alias := range aliases {
		action = append(action, "--alias", alias)
	}
	action = append(action, network)
	_, err := c.Docker(ctx, action, containerID)
	return err
}

// DisconnectNetwork runs `docker network disconnect <network> <id>`.
func (c *CLI) DisconnectNetwork(ctx context.Context, network, containerID string) error {
	_, err := c.Docker(ctx, []string{"network", "disconnect", network}, containerID)
	return err
}

// Stop runs `<compose> stop <services...>`.
func (c *CLI) Stop(ctx context.Context, services []string) error {
	_, err := c.Compose(ctx, []string{"stop"}, services)
	return err
}

// Start runs `<compose> start <services...>`.
func (c *CLI) Start(ctx context.Context, services []string) error {
	_, err := c.Compose(ctx, []string{"start"}, services)
	return err
}

// Restart runs `<compose> restart <services...>`.
func (c *CLI) Restart(ctx context.Context, services []string) error {
	_, err := c.Compose(ctx, []string{"restart"}, services)
	return err
}

// Exec runs `<compose> exec -T <service> <args...>`.
func (c *CLI) Exec(ctx context.Context, service string, args ...string) (string, error) {
	return c.Compose(ctx, []string{"exec", "-T"}, []string{service}, args...)
}

// Version runs `<compose> version --short`.
func (c *CLI) Version(ctx context.Context) (string, error) {
	return c.Compose(ctx, []string{"version", "--short"}, nil)
}

func isNoSuchService(err error) bool {
	var execErr *domain.ExecutionError
	if !errors.As(err, &execErr) {
		return false
	}
	return strings.Contains(strings.ToLower(execErr.Stderr), "no such service")
}
