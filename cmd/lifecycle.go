package cmd

import (
	"context"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bnema/composectl/internal/app"
)

var stoppedCmd = &cobra.Command{
	Use:   "stopped <service>... -- <command> [args]...",
	Short: "Run a command while services are stopped",
	Long:  `Stop the services, run the command, then start the services again whether the command succeeded or not.`,
	Example: `  composectl stopped consul -- go test -run TestConsulOutage ./...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, command, err := splitAtDash(cmd, args)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		return withController(ctx, func(ctx context.Context, c *app.Controller) error {
			return c.Stopped(ctx, services, childScope(c, command))
		})
	},
}

var delayCmd = &cobra.Command{
	Use:   "delay <service> --ms <milliseconds> -- <command> [args]...",
	Short: "Run a command while a service's traffic is delayed",
	Long: `Delay every packet leaving the service's container, run the command, then remove
the delay whether the command succeeded or not. The delay is applied from a
helper container sharing the service's network namespace.`,
	Example: `  composectl delay dummy0 --ms 1500 -- go test -run TestTimeouts ./...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, command, err := splitAtDash(cmd, args)
		if err != nil {
			return err
		}
		if len(services) != 1 {
			return cobra.ExactArgs(1)(cmd, services)
		}
		ms, _ := cmd.Flags().GetInt("ms")

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		return withController(ctx, func(ctx context.Context, c *app.Controller) error {
			return c.Delayed(ctx, services[0], time.Duration(ms)*time.Millisecond, childScope(c, command))
		})
	},
}

var restartCmd = &cobra.Command{
	Use:   "restart <service>...",
	Short: "Restart services",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withController(cmd.Context(), func(ctx context.Context, c *app.Controller) error {
			if err := c.Lifecycle().Restart(ctx, args); err != nil {
				return err
			}
			color.Green("Restarted %d service(s)", len(args))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(stoppedCmd)
	rootCmd.AddCommand(delayCmd)
	rootCmd.AddCommand(restartCmd)

	delayCmd.Flags().Int("ms", 0, "delay in milliseconds")
	_ = delayCmd.MarkFlagRequired("ms")
}
