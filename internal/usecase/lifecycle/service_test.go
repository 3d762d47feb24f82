package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bnema/composectl/internal/adapters/out/compose"
	"github.com/bnema/composectl/internal/boundaries/out/mocks"
	"github.com/bnema/composectl/internal/domain"
	"github.com/bnema/composectl/internal/testutils"
	"github.com/bnema/composectl/internal/testutils/fakecompose"
)

func newEngine() *fakecompose.Engine {
	engine := fakecompose.New()
	engine.AddService("dummy0", "c0", nil)
	engine.AddService("dummy1", "c1", nil)
	return engine
}

func TestService_Stopped(t *testing.T) {
	engine := newEngine()
	svc := NewService(compose.NewCLI(engine, nil, nil), testutils.TestLogger())

	err := svc.Stopped(testutils.TestContext(t), []string{"dummy0", "dummy1"}, func(ctx context.Context) error {
		assert.False(t, engine.Running("dummy0"))
		assert.False(t, engine.Running("dummy1"))
		return nil
	})

	require.NoError(t, err)
	assert.True(t, engine.Running("dummy0"))
	assert.True(t, engine.Running("dummy1"))
	assert.Equal(t, [][]string{{"docker-compose", "stop", "dummy0", "dummy1"}}, engine.Calls("docker-compose", "stop"))
	assert.Equal(t, [][]string{{"docker-compose", "start", "dummy0", "dummy1"}}, engine.Calls("docker-compose", "start"))
}

func TestService_Stopped_ScopeFails(t *testing.T) {
	engine := newEngine()
	svc := NewService(compose.NewCLI(engine, nil, nil), testutils.TestLogger())
	boom := errors.New("boom")

	err := svc.Stopped(testutils.TestContext(t), []string{"dummy0"}, func(ctx context.Context) error {
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.True(t, engine.Running("dummy0"))
}

func TestService_Stopped_ScopePanics(t *testing.T) {
	engine := newEngine()
	svc := NewService(compose.NewCLI(engine, nil, nil), testutils.TestLogger())

	assert.Panics(t, func() {
		_ = svc.Stopped(testutils.TestContext(t), []string{"dummy0"}, func(ctx context.Context) error {
			panic("boom")
		})
	})
	assert.True(t, engine.Running("dummy0"))
}

func TestService_Stopped_StopFailsStillStarts(t *testing.T) {
	stopErr := &domain.ExecutionError{Command: []string{"docker-compose", "stop", "dummy0"}, ExitCode: 1}

	orch := new(mocks.MockOrchestrator)
	orch.On("Stop", mock.Anything, []string{"dummy0"}).Return(stopErr).Once()
	orch.On("Start", mock.Anything, []string{"dummy0"}).Return(nil).Once()

	called := false
	err := NewService(orch, testutils.TestLogger()).Stopped(context.Background(), []string{"dummy0"}, func(ctx context.Context) error {
		called = true
		return nil
	})

	require.ErrorIs(t, err, stopErr)
	assert.False(t, called)
	orch.AssertExpectations(t)
}

func TestService_Stopped_StartFails(t *testing.T) {
	startErr := &domain.ExecutionError{Command: []string{"docker-compose", "start", "dummy0"}, ExitCode: 1}

	orch := new(mocks.MockOrchestrator)
	orch.On("Stop", mock.Anything, []string{"dummy0"}).Return(nil).Once()
	orch.On("Start", mock.Anything, []string{"dummy0"}).Return(startErr).Once()

	err := NewService(orch, testutils.TestLogger()).Stopped(context.Background(), []string{"dummy0"}, func(ctx context.Context) error {
		return nil
	})

	require.ErrorIs(t, err, domain.ErrRestoreFailed)
	assert.ErrorIs(t, err, startErr)
}

func TestService_NoServices(t *testing.T) {
	orch := new(mocks.MockOrchestrator)
	svc := NewService(orch, testutils.TestLogger())
	ctx := context.Background()

	assert.ErrorIs(t, svc.Stop(ctx, nil), domain.ErrNoServices)
	assert.ErrorIs(t, svc.Start(ctx, nil), domain.ErrNoServices)
	assert.ErrorIs(t, svc.Restart(ctx, []string{}), domain.ErrNoServices)
	assert.ErrorIs(t, svc.Stopped(ctx, nil, func(context.Context) error { return nil }), domain.ErrNoServices)
	orch.AssertNotCalled(t, "Stop", mock.Anything, mock.Anything)
}

func TestService_Restart(t *testing.T) {
	engine := newEngine()
	svc := NewService(compose.NewCLI(engine, nil, nil), testutils.TestLogger())

	require.NoError(t, svc.Restart(testutils.TestContext(t), []string{"dummy1"}))
	assert.Equal(t, [][]string{{"docker-compose", "restart", "dummy1"}}, engine.Calls("docker-compose", "restart"))
}

func TestService_Stop_UnknownService(t *testing.T) {
	engine := newEngine()
	svc := NewService(compose.NewCLI(engine, nil, nil), testutils.TestLogger())

	err := svc.Stop(testutils.TestContext(t), []string{"ghost"})

	var execErr *domain.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Contains(t, execErr.Stderr, "No such service")
}
