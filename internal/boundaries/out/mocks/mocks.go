// Package mocks provides testify mocks of the output ports.
package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/bnema/composectl/internal/boundaries/out"
	"github.com/bnema/composectl/internal/domain"
)

var (
	_ out.CommandRunner = (*MockCommandRunner)(nil)
	_ out.Orchestrator  = (*MockOrchestrator)(nil)
	_ out.ShimRuntime   = (*MockShimRuntime)(nil)
)

// MockCommandRunner is a mock implementation of out.CommandRunner
type MockCommandRunner struct {
	mock.Mock
}

func (m *MockCommandRunner) Run(ctx context.Context, argv []string) (string, error) {
	args := m.Called(ctx, argv)
	return args.String(0), args.Error(1)
}

func (m *MockCommandRunner) Stream(ctx context.Context, argv []string, stdin io.Reader, stdout, stderr io.Writer) error {
	args := m.Called(ctx, argv, stdin, stdout, stderr)
	return args.Error(0)
}

// MockOrchestrator is a mock implementation of out.Orchestrator
type MockOrchestrator struct {
	mock.Mock
}

func (m *MockOrchestrator) Compose(ctx context.Context, action []string, services []string, extra ...string) (string, error) {
	args := m.Called(ctx, action, services, extra)
	return args.String(0), args.Error(1)
}

func (m *MockOrchestrator) Docker(ctx context.Context, action []string, containerID string, extra ...string) (string, error) {
	args := m.Called(ctx, action, containerID, extra)
	return args.String(0), args.Error(1)
}

func (m *MockOrchestrator) ContainerIDs(ctx context.Context, service string) ([]string, error) {
	args := m.Called(ctx, service)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockOrchestrator) InspectContainer(ctx context.Context, containerID string) ([]byte, error) {
	args := m.Called(ctx, containerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockOrchestrator) ConnectNetwork(ctx context.Context, network, containerID string, aliases []string) error {
	args := m.Called(ctx, network, containerID, aliases)
	return args.Error(0)
}

func (m *MockOrchestrator) DisconnectNetwork(ctx context.Context, network, containerID string) error {
	args := m.Called(ctx, network, containerID)
	return args.Error(0)
}

func (m *MockOrchestrator) Stop(ctx context.Context, services []string) error {
	args := m.Called(ctx, services)
	return args.Error(0)
}

func (m *MockOrchestrator) Start(ctx context.Context, services []string) error {
	args := m.Called(ctx, services)
	return args.Error(0)
}

func (m *MockOrchestrator) Restart(ctx context.Context, services []string) error {
	args := m.Called(ctx, services)
	return args.Error(0)
}

func (m *MockOrchestrator) Exec(ctx context.Context, service string, extra ...string) (string, error) {
	args := m.Called(ctx, service, extra)
	return args.String(0), args.Error(1)
}

func (m *MockOrchestrator) Version(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockShimRuntime is a mock implementation of out.ShimRuntime
type MockShimRuntime struct {
	mock.Mock
}

func (m *MockShimRuntime) RunShim(ctx context.Context, spec domain.ShimSpec) (*domain.ShimResult, error) {
	args := m.Called(ctx, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ShimResult), args.Error(1)
}

func (m *MockShimRuntime) PullImage(ctx context.Context, image string) error {
	args := m.Called(ctx, image)
	return args.Error(0)
}
