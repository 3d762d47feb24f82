package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"inspect", "connect", "disconnect", "isolate", "stopped", "delay", "restart", "exec", "wait", "preflight", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestVersionCommand(t *testing.T) {
	BuildVersion, BuildCommit, BuildDate = "1.2.3", "abc", "2024-01-01"

	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	assert.Equal(t, "composectl 1.2.3\nCommit: abc\nBuilt: 2024-01-01\n", out.String())

	out.Reset()
	require.NoError(t, versionCmd.Flags().Set("short", "true"))
	t.Cleanup(func() { _ = versionCmd.Flags().Set("short", "false") })
	versionCmd.Run(versionCmd, nil)
	assert.Equal(t, "1.2.3\n", out.String())
}
