// Package app wires the adapters and use cases into a Controller.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/bnema/composectl/internal/adapters/out/compose"
	"github.com/bnema/composectl/internal/adapters/out/docker"
	"github.com/bnema/composectl/internal/adapters/out/process"
	"github.com/bnema/composectl/internal/adapters/out/topology"
	"github.com/bnema/composectl/internal/boundaries/in"
	"github.com/bnema/composectl/internal/boundaries/out"
	"github.com/bnema/composectl/internal/config"
	"github.com/bnema/composectl/internal/domain"
	"github.com/bnema/composectl/internal/usecase/fault"
	"github.com/bnema/composectl/internal/usecase/inspect"
	"github.com/bnema/composectl/internal/usecase/lifecycle"
	"github.com/bnema/composectl/internal/usecase/network"
)

// Option customizes how a Controller is wired.
type Option func(*options)

type options struct {
	fs     afero.Fs
	runner out.CommandRunner
	shim   out.ShimRuntime
}

// WithFs reads the compose file from fs instead of the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(o *options) { o.fs = fs }
}

// WithRunner replaces the process runner.
func WithRunner(runner out.CommandRunner) Option {
	return func(o *options) { o.runner = runner }
}

// WithShimRuntime replaces the Docker API runtime used for helper containers.
func WithShimRuntime(shim out.ShimRuntime) Option {
	return func(o *options) { o.shim = shim }
}

// Controller drives one compose project. Build one per test run with New.
//
// A Controller assumes it is the only writer of the project's network
// attachments and service states: overlapping scoped operations on the same
// service, from one Controller or several, restore whatever each recorded and
// may leave the project in an unexpected state.
type Controller struct {
	cfg          *config.Config
	topology     *domain.Topology
	orchestrator out.Orchestrator
	runner       out.CommandRunner
	inspectSvc   *inspect.Service
	networkSvc   *network.Service
	lifecycleSvc *lifecycle.Service
	faultSvc     *fault.Service
	log          *log.Logger
	cleanup      func() error
}

// New loads the topology and wires every component.
func New(cfg *config.Config, logger *log.Logger, opts ...Option) (*Controller, error) {
	o := &options{fs: afero.NewOsFs()}
	for _, opt := range opts {
		opt(o)
	}

	topo, err := topology.Load(o.fs, cfg.ComposeFile)
	if err != nil {
		return nil, err
	}

	if o.runner == nil {
		o.runner = process.NewRunner(logger)
	}

	cleanup := func() error { return nil }
	if o.shim == nil {
		rt, err := docker.NewRuntime(cfg.DockerHost, logger)
		if err != nil {
			return nil, err
		}
		o.shim = rt
		cleanup = rt.Close
	}

	orchestrator := compose.NewCLI(o.runner, compose.ProjectCommand(cfg.ComposeCommand, cfg.ComposeFile, cfg.ProjectName), cfg.DockerCommand)
	inspectSvc := inspect.NewService(orchestrator, logger)

	c := &Controller{
		cfg:          cfg,
		topology:     topo,
		orchestrator: orchestrator,
		runner:       o.runner,
		inspectSvc:   inspectSvc,
		networkSvc:   network.NewService(orchestrator, inspectSvc, topo, cfg.ProjectName, logger),
		lifecycleSvc: lifecycle.NewService(orchestrator, logger),
		faultSvc: fault.NewService(inspectSvc, o.shim, fault.Config{
			Image:     cfg.Shim.Image,
			Interface: cfg.Shim.Interface,
			Pull:      cfg.Shim.Pull,
		}, logger),
		log:     logger.With("component", "controller"),
		cleanup: cleanup,
	}

	c.log.Debug("controller ready",
		"project", cfg.ProjectName,
		"compose_file", cfg.ComposeFile,
		"services", topo.ServiceNames(),
		"networks", topo.Networks,
	)
	return c, nil
}

// Close releases the Docker client.
func (c *Controller) Close() error {
	if c == nil || c.cleanup == nil {
		return nil
	}
	return c.cleanup()
}

func (c *Controller) Inspect() in.InspectService { return c.inspectSvc }

func (c *Controller) Network() in.NetworkService { return c.networkSvc }

func (c *Controller) Lifecycle() in.LifecycleService { return c.lifecycleSvc }

func (c *Controller) Fault() in.FaultService { return c.faultSvc }

func (c *Controller) Topology() *domain.Topology { return c.topology }

func (c *Controller) Project() string { return c.cfg.ProjectName }

// Disconnected detaches services from networks for the duration of fn.
func (c *Controller) Disconnected(ctx context.Context, overrides domain.DetachmentMap, fn in.Scope) error {
	return c.networkSvc.Disconnected(ctx, overrides, fn)
}

// Stopped stops services for the duration of fn.
func (c *Controller) Stopped(ctx context.Context, services []string, fn in.Scope) error {
	return c.lifecycleSvc.Stopped(ctx, services, fn)
}

// Delayed delays a service's egress traffic for the duration of fn.
func (c *Controller) Delayed(ctx context.Context, service string, delay time.Duration, fn in.Scope) error {
	return c.faultSvc.Delayed(ctx, service, delay, fn)
}

// WaitForService waits up to the configured timeout for the service to run.
func (c *Controller) WaitForService(ctx context.Context, service string) (*domain.ContainerSnapshot, error) {
	return c.inspectSvc.WaitForService(ctx, service, c.cfg.WaitTimeout)
}

// Compose runs an arbitrary compose verb.
func (c *Controller) Compose(ctx context.Context, action []string, services []string, args ...string) (string, error) {
	return c.orchestrator.Compose(ctx, action, services, args...)
}

// Exec runs a command inside the service's container.
func (c *Controller) Exec(ctx context.Context, service string, args ...string) (string, error) {
	return c.orchestrator.Exec(ctx, service, args...)
}

// Docker runs a docker verb against the container of each service and
// returns the output per service. No services means every service of the
// topology.
func (c *Controller) Docker(ctx context.Context, action []string, services []string, args ...string) (map[string]string, error) {
	if len(services) == 0 {
		services = c.topology.ServiceNames()
	}
	outputs := make(map[string]string, len(services))
	for _, service := range services {
		ids, err := c.inspectSvc.ContainerIDs(ctx, service)
		if err != nil {
			return outputs, err
		}
		output, err := c.orchestrator.Docker(ctx, action, ids[0], args...)
		if err != nil {
			return outputs, err
		}
		outputs[service] = output
	}
	return outputs, nil
}

// Run runs a local command with the given streams attached.
func (c *Controller) Run(ctx context.Context, argv []string, stdin io.Reader, stdout, stderr io.Writer) error {
	return c.runner.Stream(ctx, argv, stdin, stdout, stderr)
}

// Preflight checks that the compose binary is reachable and recent enough.
func (c *Controller) Preflight(ctx context.Context) (*semver.Version, error) {
	raw, err := c.orchestrator.Version(ctx)
	if err != nil {
		return nil, err
	}

	version, err := semver.NewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse compose version %q: %w", raw, err)
	}

	if c.cfg.MinComposeVersion != "" {
		minimum, err := semver.NewVersion(c.cfg.MinComposeVersion)
		if err != nil {
			return nil, &domain.ConfigError{Reason: "invalid minimum compose version", Err: err}
		}
		if version.LessThan(minimum) {
			return version, &domain.ConfigError{
				Reason: fmt.Sprintf("compose %s is older than the required %s", version, minimum),
			}
		}
	}

	c.log.Debug("preflight ok", "compose_version", version.String())
	return version, nil
}
