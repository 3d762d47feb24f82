package cmd

import (
	"context"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bnema/composectl/internal/app"
)

var preflightCmd = &cobra.Command{
	Use:   "preflight",
	Short: "Check the compose file and the compose binary",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withController(cmd.Context(), func(ctx context.Context, c *app.Controller) error {
			version, err := c.Preflight(ctx)
			if err != nil {
				return err
			}
			color.Green("compose %s", version)
			color.Blue("project %s: %d services, %d networks", c.Project(), len(c.Topology().Services), len(c.Topology().Networks))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(preflightCmd)
}
