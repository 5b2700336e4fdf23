package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve URL",
	Short: "Print the proxy used for a URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		resolver, err := settings.Resolver(ctx)
		if err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, args[0], nil)
		if err != nil {
			return err
		}
		u, err := resolver.Proxy(req)
		if err != nil {
			return err
		}
		if u == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "DIRECT")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), u.String())
		return nil
	},
}

func init() {
	RootCmd.AddCommand(resolveCmd)
}
