package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bnema/composectl/internal/app"
	"github.com/bnema/composectl/internal/config"
)

var waitCmd = &cobra.Command{
	Use:   "wait <service>...",
	Short: "Wait until services have a running container",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withController(cmd.Context(), func(ctx context.Context, c *app.Controller) error {
			for _, service := range args {
				snap, err := c.WaitForService(ctx, service)
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
	rootCmd.AddCommand(waitCmd)
	waitCmd.Flags().Duration("timeout", 0, "how long to wait for each service (default from wait_timeout)")
	_ = viper.BindPFlag(config.KeyWaitTimeout, waitCmd.Flags().Lookup("timeout"))
}
