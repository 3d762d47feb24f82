package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/composectl/internal/app"
)

var execCmd = &cobra.Command{
	Use:     "exec <service> -- <command> [args]...",
	Short:   "Run a command inside a service container",
	Example: `  composectl exec consul -- consul kv get config/feature`,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, command, err := splitAtDash(cmd, args)
		if err != nil {
			return err
		}
		if len(services) != 1 {
			return cobra.ExactArgs(1)(cmd, services)
		}

		return withController(cmd.Context(), func(ctx context.Context, c *app.Controller) error {
			output, err := c.Exec(ctx, services[0], command...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(execCmd)
}
