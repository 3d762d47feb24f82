package testutils

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// ComposeFile is a small two-network project used across tests.
const ComposeFile = `version: "3.4"
services:
  dummy0:
    image: dummy
    networks:
      net-a:
        aliases:
          - dummy
  dummy1:
    image: dummy
    networks:
      - net-a
      - net-b
  consul:
    image: consul
networks:
  net-a:
  net-b:
`

// TestContext creates a test context with timeout
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestLogger returns a logger that discards everything.
func TestLogger() *log.Logger {
	return log.New(io.Discard)
}

// CreateComposeFile writes a compose file into an in-memory filesystem.
func CreateComposeFile(t *testing.T, path, content string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	err := afero.WriteFile(fs, path, []byte(content), 0644)
	require.NoError(t, err)
	return fs
}
