package cli

import "github.com/spf13/cobra"

// RootCmd assembles the reelops command tree. Running it without a
// subcommand serves the API.
func RootCmd() *cobra.Command {
	serveCmd := ServeCmd()
	rootCmd := &cobra.Command{
		Use:   "reelops",
		Short: "Cinema technical-operations log",
		Long: `reelops records equipment on/off checks made by technicians and lets
staff export or clear the accumulated log.`,
		SilenceUsage: true,
		RunE:         serveCmd.RunE,
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ExportCmd())
	rootCmd.AddCommand(PurgeCmd())
	rootCmd.AddCommand(HashPasswordCmd())
	return rootCmd
}
