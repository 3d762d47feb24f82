package cmd

import (
	"context"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bnema/composectl/internal/app"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Attach services to networks",
	Long: `Attach services to networks. Without --attach every service is attached to the
networks the compose file declares for it. Networks the container is already
attached to are left alone.`,
	Example: `  composectl connect
  composectl connect --attach dummy0 --attach consul:net-b=consul,kv`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		values, _ := cmd.Flags().GetStringArray("attach")
		overrides, err := parseAttach(values)
		if err != nil {
			return err
		}

		return withController(cmd.Context(), func(ctx context.Context, c *app.Controller) error {
			if err := c.Network().Connect(ctx, overrides); err != nil {
				return err
			}
			color.Green("Connected")
			return nil
		})
	},
}

var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Detach services from networks",
	Long: `Detach services from networks and print what was removed as YAML. Without
--detach every service loses every network.`,
	Example: `  composectl disconnect --detach dummy0
  composectl disconnect --detach dummy1=net-a,net-b`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		values, _ := cmd.Flags().GetStringArray("detach")
		overrides, err := parseDetach(values)
		if err != nil {
			return err
		}

		return withController(cmd.Context(), func(ctx context.Context, c *app.Controller) error {
			record, err := c.Network().Disconnect(ctx, overrides)
			if len(record) > 0 {
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				if encErr := enc.Encode(record); encErr != nil {
					return encErr
				}
				_ = enc.Close()
			}
			return err
		})
	},
}

var isolateCmd = &cobra.Command{
	Use:   "isolate [service]... -- <command> [args]...",
	Short: "Run a command while services are detached from networks",
	Long: `Detach services from networks, run the command, then reconnect exactly what was
detached, whether the command succeeded or not. Services given as arguments
lose every network.`,
	Example: `  composectl isolate dummy0 -- go test ./integration/...
  composectl isolate --detach dummy1=net-a -- ./check.sh`,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, command, err := splitAtDash(cmd, args)
		if err != nil {
			return err
		}
		values, _ := cmd.Flags().GetStringArray("detach")
		overrides, err := parseDetach(append(values, services...))
		if err != nil {
			return err
		}

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		return withController(ctx, func(ctx context.Context, c *app.Controller) error {
			return c.Disconnected(ctx, overrides, childScope(c, command))
		})
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(disconnectCmd)
	rootCmd.AddCommand(isolateCmd)

	connectCmd.Flags().StringArray("attach", nil, "service[:network[=alias,...]] (repeatable)")
	disconnectCmd.Flags().StringArray("detach", nil, "service[=all|network,...] (repeatable)")
	isolateCmd.Flags().StringArray("detach", nil, "service[=all|network,...] (repeatable)")
}
