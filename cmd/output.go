package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alessio/shellescape"
	"github.com/fatih/color"

	"github.com/bnema/composectl/internal/app"
	"github.com/bnema/composectl/internal/boundaries/in"
	"github.com/bnema/composectl/internal/domain"
	"github.com/bnema/composectl/pkg/logger"
)

// signalContext is cancelled on SIGINT or SIGTERM. Scoped operations still
// restore the project after cancellation.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// childScope runs command with the terminal attached as the protected region.
func childScope(c *app.Controller, command []string) in.Scope {
	return func(ctx context.Context) error {
		logger.Info("running command", "project", c.Project(), "command", shellescape.QuoteCommand(command))
		return c.Run(ctx, command, os.Stdin, os.Stdout, os.Stderr)
	}
}

func printSnapshot(w io.Writer, snap *domain.ContainerSnapshot) {
	state := color.RedString("stopped")
	if snap.Running {
		state = color.GreenString("running")
	}

	fmt.Fprintf(w, "%s  %s  %s  %s\n",
		color.New(color.Bold).Sprint(snap.Service),
		shortID(snap.ID),
		strings.TrimPrefix(snap.Name, "/"),
		state,
	)
	for _, network := range snap.Networks.Names() {
		address := snap.Addresses[network]
		if address == "" {
			address = "-"
		}
		fmt.Fprintf(w, "  %-32s %-16s %s\n",
			color.BlueString(network),
			address,
			strings.Join(snap.Networks[network], ","),
		)
	}
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
