package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Build information, set by Execute.
var (
	BuildVersion = "dev"
	BuildCommit  = "none"
	BuildDate    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display the composectl version, commit hash, and build date.`,
	Run: func(cmd *cobra.Command, args []string) {
		if short, _ := cmd.Flags().GetBool("short"); short {
			fmt.Fprintln(cmd.OutOrStdout(), BuildVersion)
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "composectl %s\n", BuildVersion)
		fmt.Fprintf(cmd.OutOrStdout(), "Commit: %s\n", BuildCommit)
		fmt.Fprintf(cmd.OutOrStdout(), "Built: %s\n", BuildDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolP("short", "s", false, "Show only version number")
}
