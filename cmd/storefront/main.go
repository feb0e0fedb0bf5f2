// Command storefront runs the storefront API and its maintenance tasks.
//
//	storefront serve        # start the HTTP server
//	storefront route:list   # list API routes
//	storefront db:index     # create MongoDB indexes
//	storefront seed         # insert the demo catalog into an empty database
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "storefront",
	Short:         "Storefront API server",
	Long:          "Storefront serves the catalog, account and order API backed by MongoDB.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)

	rootCmd.AddCommand(dbIndexCmd)
	rootCmd.AddCommand(seedCmd)
}
