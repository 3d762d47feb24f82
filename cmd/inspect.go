package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/composectl/internal/app"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <service>...",
	Short: "Show the live state of service containers",
	Long:  `Show the container id, running state, networks, addresses and aliases of each service.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetBool("raw")

		return withController(cmd.Context(), func(ctx context.Context, c *app.Controller) error {
			for _, service := range args {
				if raw {
					doc, err := c.Inspect().InspectRaw(ctx, service)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), string(doc))
					continue
				}

				snap, err := c.Inspect().Inspect(ctx, service)
				if err != nil {
					return err
				}
				printSnapshot(cmd.OutOrStdout(), snap)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().Bool("raw", false, "print the full docker inspect document")
}
