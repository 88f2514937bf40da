package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/schnicklfritz/lite-remote-builder/internal/mcp"
)

func newToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools this server advertises",
		Args:  cobra.NoArgs,
		RunE:  runTools,
	}
	cmd.Flags().Bool("json", false, "Print the MCP tool definitions as JSON")
	return cmd
}

func runTools(cmd *cobra.Command, _ []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	ops := mcp.Operations()
	out := cmd.OutOrStdout()

	if asJSON {
		tools := make([]any, 0, len(ops))
		for _, op := range ops {
			tools = append(tools, mcp.BuildMCPTool(op))
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(tools)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, op := range ops {
		fmt.Fprintf(w, "%s\t%s\n", op.Name, op.Description)
		for _, f := range op.Fields {
			fmt.Fprintf(w, "  %s\t%s\tdefault=%v%s\n", f.Name, f.Kind, f.Default, allowedSuffix(f))
		}
	}
	return w.Flush()
}

func allowedSuffix(f mcp.FieldSpec) string {
	if len(f.AllowedValues) == 0 {
		return ""
	}
	return " allowed=" + strings.Join(f.AllowedValues, "|")
}
