package app

import (
	"bytes"
	"context"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bnema/composectl/internal/boundaries/out/mocks"
	"github.com/bnema/composectl/internal/config"
	"github.com/bnema/composectl/internal/domain"
	"github.com/bnema/composectl/internal/testutils"
	"github.com/bnema/composectl/internal/testutils/fakecompose"
)

func testConfig() *config.Config {
	return &config.Config{
		ComposeFile:       "/docker-compose.yml",
		ProjectDir:        "/",
		ProjectName:       "proj",
		ComposeCommand:    []string{"docker-compose"},
		DockerCommand:     []string{"docker"},
		WaitTimeout:       time.Second,
		MinComposeVersion: "1.25.0",
		Shim:              config.ShimConfig{Image: "gaiadocker/iproute2", Interface: "eth0"},
	}
}

func newController(t *testing.T, cfg *config.Config) (*Controller, *fakecompose.Engine, *mocks.MockShimRuntime) {
	t.Helper()

	engine := fakecompose.New()
	engine.Project = cfg.ProjectName
	engine.AddService("dummy0", "c0", domain.NetworkAliases{"proj_net-a": {"dummy", "c0"}})
	engine.AddService("dummy1", "c1", domain.NetworkAliases{"proj_net-a": {"dummy1"}, "proj_net-b": {"dummy1"}})
	engine.AddService("consul", "c2", domain.NetworkAliases{"proj_net-a": {"consul"}, "proj_net-b": {"consul"}})
	shim := new(mocks.MockShimRuntime)

	c, err := New(cfg, testutils.TestLogger(),
		WithFs(testutils.CreateComposeFile(t, cfg.ComposeFile, testutils.ComposeFile)),
		WithRunner(engine),
		WithShimRuntime(shim),
	)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, c.Close()) })
	return c, engine, shim
}

func TestNew(t *testing.T) {
	c, _, _ := newController(t, testConfig())

	assert.Equal(t, "proj", c.Project())
	assert.Equal(t, []string{"consul", "dummy0", "dummy1"}, c.Topology().ServiceNames())
	assert.NotNil(t, c.Inspect())
	assert.NotNil(t, c.Network())
	assert.NotNil(t, c.Lifecycle())
	assert.NotNil(t, c.Fault())
}

func TestNew_MissingComposeFile(t *testing.T) {
	cfg := testConfig()
	cfg.ComposeFile = "/missing.yml"

	_, err := New(cfg, testutils.TestLogger(),
		WithFs(testutils.CreateComposeFile(t, "/docker-compose.yml", testutils.ComposeFile)),
		WithRunner(fakecompose.New()),
		WithShimRuntime(new(mocks.MockShimRuntime)),
	)

	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "/missing.yml", cfgErr.Path)
}

func TestController_ScopedOperations(t *testing.T) {
	c, engine, shim := newController(t, testConfig())
	ctx := testutils.TestContext(t)

	shim.On("RunShim", mock.Anything, mock.Anything).Return(&domain.ShimResult{}, nil).Twice()

	err := c.Disconnected(ctx, domain.DetachmentMap{"dummy0": domain.AllNetworks()}, func(ctx context.Context) error {
		return c.Stopped(ctx, []string{"dummy1"}, func(ctx context.Context) error {
			return c.Delayed(ctx, "consul", 50*time.Millisecond, func(ctx context.Context) error {
				assert.Empty(t, engine.Networks("dummy0"))
				assert.False(t, engine.Running("dummy1"))
				return nil
			})
		})
	})

	require.NoError(t, err)
	assert.Equal(t, domain.NetworkAliases{"proj_net-a": {"dummy", "c0"}}, engine.Networks("dummy0"))
	assert.True(t, engine.Running("dummy1"))
	shim.AssertExpectations(t)
}

func TestController_Exec(t *testing.T) {
	c, engine, _ := newController(t, testConfig())

	output, err := c.Exec(testutils.TestContext(t), "consul", "consul", "kv", "get", "key")
	require.NoError(t, err)

	assert.Equal(t, "consul kv get key", output)
	assert.Equal(t, [][]string{{"docker-compose", "-f", "/docker-compose.yml", "-p", "proj", "exec", "-T", "consul", "consul", "kv", "get", "key"}},
		engine.Calls("docker-compose", "-f", "/docker-compose.yml", "-p", "proj", "exec"))
}

func TestController_ComposeVerbsAddressResolvedProject(t *testing.T) {
	c, engine, _ := newController(t, testConfig())
	ctx := testutils.TestContext(t)

	_, err := c.Inspect().Inspect(ctx, "dummy0")
	require.NoError(t, err)
	require.NoError(t, c.Lifecycle().Restart(ctx, []string{"dummy1"}))

	prefix := []string{"docker-compose", "-f", "/docker-compose.yml", "-p", "proj"}
	assert.Equal(t, [][]string{
		append(slices.Clone(prefix), "ps", "-q", "dummy0"),
		append(slices.Clone(prefix), "restart", "dummy1"),
	}, engine.Calls("docker-compose"))
}

func TestController_ProjectMismatch(t *testing.T) {
	c, engine, _ := newController(t, testConfig())
	engine.Project = "other"

	_, err := c.Inspect().Inspect(testutils.TestContext(t), "dummy0")

	var execErr *domain.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Contains(t, execErr.Command, "proj")
}

func TestController_Run(t *testing.T) {
	c, _, _ := newController(t, testConfig())

	var stdout bytes.Buffer
	err := c.Run(testutils.TestContext(t), []string{"docker-compose", "version", "--short"}, nil, &stdout, nil)

	require.NoError(t, err)
	assert.Equal(t, "2.24.6\n", stdout.String())
}

func TestController_Docker(t *testing.T) {
	c, engine, _ := newController(t, testConfig())

	outputs, err := c.Docker(testutils.TestContext(t), []string{"inspect"}, []string{"dummy0", "dummy1"})
	require.NoError(t, err)

	assert.Contains(t, outputs["dummy0"], `"Id":"c0"`)
	assert.Contains(t, outputs["dummy1"], `"Id":"c1"`)
	assert.Len(t, engine.Calls("docker", "inspect"), 2)
}

func TestController_Docker_AllServices(t *testing.T) {
	c, engine, _ := newController(t, testConfig())

	outputs, err := c.Docker(testutils.TestContext(t), []string{"inspect"}, nil)
	require.NoError(t, err)

	assert.Len(t, outputs, 3)
	assert.Contains(t, outputs["consul"], `"Id":"c2"`)
	assert.Contains(t, outputs["dummy0"], `"Id":"c0"`)
	assert.Contains(t, outputs["dummy1"], `"Id":"c1"`)
	assert.Len(t, engine.Calls("docker", "inspect"), 3)
}

func TestController_Docker_UnknownService(t *testing.T) {
	c, _, _ := newController(t, testConfig())

	_, err := c.Docker(testutils.TestContext(t), []string{"inspect"}, []string{"ghost"})

	assert.True(t, domain.IsNotFound(err))
}

func TestController_WaitForService(t *testing.T) {
	c, _, _ := newController(t, testConfig())

	snap, err := c.WaitForService(testutils.TestContext(t), "dummy1")
	require.NoError(t, err)
	assert.Equal(t, "c1", snap.ID)
}

func TestController_Preflight(t *testing.T) {
	tests := []struct {
		name      string
		version   string
		minimum   string
		wantErr   bool
		wantValue string
	}{
		{name: "v2 compose", version: "2.24.6", minimum: "1.25.0", wantValue: "2.24.6"},
		{name: "v prefix", version: "v2.5.0", minimum: "1.25.0", wantValue: "2.5.0"},
		{name: "no minimum", version: "1.20.0", minimum: "", wantValue: "1.20.0"},
		{name: "too old", version: "1.24.1", minimum: "1.25.0", wantErr: true, wantValue: "1.24.1"},
		{name: "garbage", version: "unknown", minimum: "1.25.0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.MinComposeVersion = tt.minimum
			c, engine, _ := newController(t, cfg)
			engine.Version = tt.version

			version, err := c.Preflight(testutils.TestContext(t))

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			if tt.wantValue != "" {
				require.NotNil(t, version)
				assert.Equal(t, tt.wantValue, version.String())
			}
		})
	}
}
