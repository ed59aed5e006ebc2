// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/stockroom/stockroom/internal/mcpserver"
)

// newToolsCommand creates the `stockroom tools` command, a rendered
// reference of the MCP tools the inventory server publishes.
func newToolsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the MCP tools the inventory server publishes",
		Long: `List the tools MCP clients can call on the inventory server.

The Python entrypoint and the built-in Go server publish the same tool
set, so this reference applies to both ` + "`run`" + ` and ` + "`serve`" + `.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			md := toolsMarkdown()
			rendered, err := glamour.Render(md, "dark")
			if err != nil {
				// Raw markdown is still readable on terminals glamour
				// cannot style.
				fmt.Fprint(cmd.OutOrStdout(), md)
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), rendered)
			return nil
		},
	}
}

// toolsMarkdown builds the tool reference in registration order.
func toolsMarkdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s tools\n\n", mcpserver.ServerName)
	for _, doc := range mcpserver.ToolDocs() {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", doc.Name, doc.Description)
	}
	return b.String()
}
