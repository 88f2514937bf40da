package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/schnicklfritz/lite-remote-builder/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lite-builder",
		Short: "MCP server that dispatches and monitors remote kernel builds",
		Long: "lite-builder exposes trigger_kernel_build and check_build_status as MCP tools, " +
			"backed by GitHub Actions workflow dispatches on the configured repository.",
		// Without a subcommand the server starts.
		RunE:         runServe,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "lite-builder.toml", "Path to config file")
	rootCmd.Flags().Bool("http", false, "Serve Streamable HTTP instead of stdio")
	rootCmd.Flags().Int("port", 0, "HTTP listen port (used with --http)")

	rootCmd.Version = config.GetVersion()
	rootCmd.SetVersionTemplate(fmt.Sprintf("lite-builder version %s\n", config.GetFullVersion()))

	rootCmd.AddCommand(newToolsCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lite-builder %s\n", config.GetFullVersion())
		},
	}
}
