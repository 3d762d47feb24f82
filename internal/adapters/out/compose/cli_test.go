package compose

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bnema/composectl/internal/boundaries/out/mocks"
	"github.com/bnema/composectl/internal/domain"
)

func TestCLI_ArgvShapes(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		call func(c *CLI) error
		argv []string
	}{
		{
			name: "connect with aliases",
			call: func(c *CLI) error {
				return c.ConnectNetwork(ctx, "proj_net-a", "abc123", []string{"dummy", "dummy-alt"})
			},
			argv: []string{"docker", "network", "connect", "--alias", "dummy", "--alias", "dummy-alt", "proj_net-a", "abc123"},
		},
		{
			name: "connect without aliases",
			call: func(c *CLI) error { return c.ConnectNetwork(ctx, "proj_net-a", "abc123", nil) },
			argv: []string{"docker", "network", "connect", "proj_net-a", "abc123"},
		},
		{
			name: "disconnect",
			call: func(c *CLI) error { return c.DisconnectNetwork(ctx, "proj_net-a", "abc123") },
			argv: []string{"docker", "network", "disconnect", "proj_net-a", "abc123"},
		},
		{
			name: "stop",
			call: func(c *CLI) error { return c.Stop(ctx, []string{"s1", "s2"}) },
			argv: []string{"docker-compose", "stop", "s1", "s2"},
		},
		{
			name: "start",
			call: func(c *CLI) error { return c.Start(ctx, []string{"s1", "s2"}) },
			argv: []string{"docker-compose", "start", "s1", "s2"},
		},
		{
			name: "restart",
			call: func(c *CLI) error { return c.Restart(ctx, []string{"s1"}) },
			argv: []string{"docker-compose", "restart", "s1"},
		},
		{
			name: "exec",
			call: func(c *CLI) error {
				_, err := c.Exec(ctx, "consul", "consul", "kv", "get", "key")
				return err
			},
			argv: []string{"docker-compose", "exec", "-T", "consul", "consul", "kv", "get", "key"},
		},
		{
			name: "inspect",
			call: func(c *CLI) error {
				_, err := c.InspectContainer(ctx, "abc123")
				return err
			},
			argv: []string{"docker", "inspect", "abc123"},
		},
		{
			name: "version",
			call: func(c *CLI) error {
				_, err := c.Version(ctx)
				return err
			},
			argv: []string{"docker-compose", "version", "--short"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := new(mocks.MockCommandRunner)
			runner.On("Run", mock.Anything, tt.argv).Return("", nil).Once()

			require.NoError(t, tt.call(NewCLI(runner, nil, nil)))
			runner.AssertExpectations(t)
		})
	}
}

func TestCLI_CustomComposeCommand(t *testing.T) {
	runner := new(mocks.MockCommandRunner)
	runner.On("Run", mock.Anything, []string{"docker", "compose", "-p", "proj", "stop", "s1"}).Return("", nil).Once()

	cli := NewCLI(runner, []string{"docker", "compose", "-p", "proj"}, nil)

	require.NoError(t, cli.Stop(context.Background(), []string{"s1"}))
	runner.AssertExpectations(t)
}

func TestProjectCommand(t *testing.T) {
	tests := []struct {
		name    string
		base    []string
		file    string
		project string
		want    []string
	}{
		{
			name:    "file and project",
			base:    []string{"docker-compose"},
			file:    "/srv/env/docker-compose.yml",
			project: "env",
			want:    []string{"docker-compose", "-f", "/srv/env/docker-compose.yml", "-p", "env"},
		},
		{
			name:    "default binary",
			file:    "/docker-compose.yml",
			project: "proj",
			want:    []string{"docker-compose", "-f", "/docker-compose.yml", "-p", "proj"},
		},
		{
			name:    "compose plugin",
			base:    []string{"docker", "compose"},
			project: "proj",
			want:    []string{"docker", "compose", "-p", "proj"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ProjectCommand(tt.base, tt.file, tt.project))
		})
	}
}

func TestProjectCommand_DoesNotAliasBase(t *testing.T) {
	base := make([]string, 1, 8)
	base[0] = "docker-compose"

	first := ProjectCommand(base, "/a.yml", "a")
	second := ProjectCommand(base, "/b.yml", "b")

	assert.Equal(t, []string{"docker-compose", "-f", "/a.yml", "-p", "a"}, first)
	assert.Equal(t, []string{"docker-compose", "-f", "/b.yml", "-p", "b"}, second)
}

func TestCLI_ProjectScopedStop(t *testing.T) {
	runner := new(mocks.MockCommandRunner)
	runner.On("Run", mock.Anything, []string{"docker-compose", "-f", "/srv/env/docker-compose.yml", "-p", "env", "stop", "s1"}).Return("", nil).Once()

	cli := NewCLI(runner, ProjectCommand(nil, "/srv/env/docker-compose.yml", "env"), nil)

	require.NoError(t, cli.Stop(context.Background(), []string{"s1"}))
	runner.AssertExpectations(t)
}

func TestCLI_ContainerIDs(t *testing.T) {
	psArgv := []string{"docker-compose", "ps", "-q", "dummy0"}

	tests := []struct {
		name         string
		output       string
		err          error
		wantIDs      []string
		wantNotFound bool
	}{
		{name: "single container", output: "abc123", wantIDs: []string{"abc123"}},
		{name: "scaled service", output: "abc123\ndef456", wantIDs: []string{"abc123", "def456"}},
		{name: "no running container", output: "", wantNotFound: true},
		{
			name:         "unknown service",
			err:          &domain.ExecutionError{Command: psArgv, ExitCode: 1, Stderr: "ERROR: No such service: dummy0"},
			wantNotFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := new(mocks.MockCommandRunner)
			runner.On("Run", mock.Anything, psArgv).Return(tt.output, tt.err).Once()

			ids, err := NewCLI(runner, nil, nil).ContainerIDs(context.Background(), "dummy0")

			if tt.wantNotFound {
				var nf *domain.NotFoundError
				require.ErrorAs(t, err, &nf)
				assert.Equal(t, "dummy0", nf.Service)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestCLI_ContainerIDs_OtherFailure(t *testing.T) {
	runner := new(mocks.MockCommandRunner)
	runner.On("Run", mock.Anything, mock.Anything).
		Return("", &domain.ExecutionError{ExitCode: 1, Stderr: "Cannot connect to the Docker daemon"}).Once()

	_, err := NewCLI(runner, nil, nil).ContainerIDs(context.Background(), "dummy0")

	require.Error(t, err)
	assert.False(t, domain.IsNotFound(err))
	var execErr *domain.ExecutionError
	assert.ErrorAs(t, err, &execErr)
}
