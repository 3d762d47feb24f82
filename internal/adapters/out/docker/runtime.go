// Package docker implements the shim runtime port using the Docker API.
package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/bnema/composectl/internal/domain"
)

// Runtime runs helper containers through the Docker API.
type Runtime struct {
	client *client.Client
	log    *log.Logger
}

// NewRuntime creates a Docker runtime from the environment. A non-empty host
// overrides DOCKER_HOST.
func NewRuntime(host string, logger *log.Logger) (*Runtime, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	return NewRuntimeWithClient(cli, logger), nil
}

// NewRuntimeWithClient creates a Docker runtime with a custom client (for testing).
func NewRuntimeWithClient(cli *client.Client, logger *log.Logger) *Runtime {
	return &Runtime{
		client: cli,
		log:    logger.With("component", "docker"),
	}
}

// Close releases the underlying client.
func (r *Runtime) Close() error {
	return r.client.Close()
}

// PullImage pulls an image.
func (r *Runtime) PullImage(ctx context.Context, imageRef string) error {
	r.log.Info("pulling image", "image", imageRef)

	reader, err := r.client.ImagePull(ctx, imageRef, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", imageRef, err)
	}
	defer reader.Close()

	// The pull only completes once the progress stream is drained.
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("failed to read pull response for %s: %w", imageRef, err)
	}

	r.log.Debug("image pulled", "image", imageRef)
	return nil
}

// RunShim creates a helper container in the network namespace of the target
// container, runs it to completion and removes it. A non-zero exit is not an
// error at this level; callers inspect ShimResult.ExitCode.
func (r *Runtime) RunShim(ctx context.Context, spec domain.ShimSpec) (*domain.ShimResult, error) {
	logger := r.log.With("image", spec.Image, "target", spec.TargetContainerID, "name", spec.Name)

	containerConfig := &container.Config{
		Image:      spec.Image,
		Entrypoint: spec.Entrypoint,
		Cmd:        spec.Cmd,
		Labels: map[string]string{
			domain.LabelShim:   "true",
			domain.LabelTarget: spec.TargetContainerID,
		},
	}
	hostConfig := &container.HostConfig{
		NetworkMode: container.NetworkMode("container:" + spec.TargetContainerID),
		CapAdd:      spec.CapAdd,
	}

	resp, err := r.client.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, spec.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create shim container: %w", err)
	}
	logger.Debug("shim created", "id", resp.ID)

	defer func() {
		if err := r.client.ContainerRemove(context.WithoutCancel(ctx), resp.ID, container.RemoveOptions{Force: true}); err != nil {
			logger.Warn("failed to remove shim container", "id", resp.ID, "err", err)
		}
	}()

	// Subscribe before starting so a fast exit is not missed.
	statusCh, errCh := r.client.ContainerWait(ctx, resp.ID, container.WaitConditionNextExit)

	if err := r.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("failed to start shim container: %w", err)
	}

	var exitCode int64
	select {
	case err := <-errCh:
		if err != nil {
			return nil, fmt.Errorf("failed waiting for shim container: %w", err)
		}
	case status := <-statusCh:
		if status.Error != nil && status.Error.Message != "" {
			return nil, fmt.Errorf("shim container wait error: %s", status.Error.Message)
		}
		exitCode = status.StatusCode
	}

	stdout, stderr, err := r.collectOutput(ctx, resp.ID)
	if err != nil {
		logger.Warn("failed to collect shim output", "id", resp.ID, "err", err)
	}

	logger.Info("shim finished", "id", resp.ID, "exit_code", exitCode)
	return &domain.ShimResult{
		ExitCode: int(exitCode),
		Stdout:   stdout,
		Stderr:   stderr,
	}, nil
}

func (r *Runtime) collectOutput(ctx context.Context, containerID string) (string, string, error) {
	logs, err := r.client.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return "", "", err
	}
	defer logs.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, logs); err != nil {
		return stdout.String(), stderr.String(), err
	}
	return stdout.String(), stderr.String(), nil
}
